package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
)

func TestEnsureCustomer_ExistingRef(t *testing.T) {
	// Организация с ref не ходит ни в шлюз, ни в БД
	svc := NewService(Config{})

	org := &domain.Organization{
		ID:                 uuid.New(),
		Name:               "Acme Freight",
		BillingCustomerRef: "cus_42",
	}

	ref, err := svc.EnsureCustomer(context.Background(), org)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "cus_42" {
		t.Errorf("expected cus_42, got %s", ref)
	}
}

func TestCheckout_UsesExistingCustomer(t *testing.T) {
	var received checkoutRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("expected /v1/checkout/sessions, got %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(checkoutResponse{ID: "cs_1", URL: "https://pay.example.com/cs_1"})
	}))
	defer server.Close()

	svc := NewService(Config{
		Gateway: NewGatewayClientWith("test-key", server.URL),
	})

	org := &domain.Organization{
		ID:                 uuid.New(),
		Name:               "Acme Freight",
		PlanID:             domain.PlanStarter.ID,
		BillingCustomerRef: "cus_42",
	}

	url, err := svc.Checkout(context.Background(), org, "pro", "https://app/ok", "https://app/cancel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://pay.example.com/cs_1" {
		t.Errorf("unexpected url: %s", url)
	}
	if received.CustomerRef != "cus_42" {
		t.Errorf("expected checkout for cus_42, got %s", received.CustomerRef)
	}
}
