package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGatewayClient_Charge(t *testing.T) {
	var received chargeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" {
			t.Errorf("expected /v1/charges, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(chargeResponse{ID: "ch_123", Status: "succeeded"})
	}))
	defer server.Close()

	client := NewGatewayClientWith("test-key", server.URL)

	ref, err := client.Charge(context.Background(), "cus_42", decimal.RequireFromString("17.40"), "overage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "ch_123" {
		t.Errorf("expected ch_123, got %s", ref)
	}

	// Dollars must convert to cents exactly
	if received.AmountCents != 1740 {
		t.Errorf("expected 1740 cents, got %d", received.AmountCents)
	}
	if received.CustomerRef != "cus_42" {
		t.Errorf("expected cus_42, got %s", received.CustomerRef)
	}
}

func TestGatewayClient_ChargeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "card declined", "code": "card_declined"},
		})
	}))
	defer server.Close()

	client := NewGatewayClientWith("test-key", server.URL)

	_, err := client.Charge(context.Background(), "cus_42", decimal.RequireFromString("5.00"), "overage")
	if err == nil {
		t.Fatal("expected error on declined charge")
	}
}

func TestGatewayClient_MissingAPIKey(t *testing.T) {
	client := NewGatewayClientWith("", "http://localhost:1")

	_, err := client.Charge(context.Background(), "cus_42", decimal.RequireFromString("5.00"), "overage")
	if err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGatewayClient_CreateCustomer(t *testing.T) {
	var received customerRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers" {
			t.Errorf("expected /v1/customers, got %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(customerResponse{ID: "cus_new"})
	}))
	defer server.Close()

	client := NewGatewayClientWith("test-key", server.URL)

	ref, err := client.CreateCustomer(context.Background(), "Acme Freight", "ops@acme.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "cus_new" {
		t.Errorf("expected cus_new, got %s", ref)
	}
	if received.Name != "Acme Freight" || received.Email != "ops@acme.test" {
		t.Errorf("unexpected customer payload: %+v", received)
	}
}

func TestGatewayClient_CreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("expected /v1/checkout/sessions, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(checkoutResponse{ID: "cs_1", URL: "https://pay.example.com/cs_1"})
	}))
	defer server.Close()

	client := NewGatewayClientWith("test-key", server.URL)

	url, err := client.CreateCheckoutSession(context.Background(), "cus_42", "pro", "https://app/ok", "https://app/cancel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://pay.example.com/cs_1" {
		t.Errorf("unexpected url: %s", url)
	}
}
