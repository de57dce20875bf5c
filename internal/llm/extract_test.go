package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseExtraction(t *testing.T) {
	content := `{
		"carrier_name": "Acme Trucking LLC",
		"mc_number": "123456",
		"origin": "Chicago, IL",
		"destination": "Dallas, TX",
		"pickup_date": "2026-03-15",
		"rate": 1850.50,
		"equipment": "dry van",
		"confidence": 0.92
	}`

	result, err := ParseExtraction(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Fields.CarrierName != "Acme Trucking LLC" {
		t.Errorf("carrier_name: got %q", result.Fields.CarrierName)
	}
	if result.Fields.MCNumber != "123456" {
		t.Errorf("mc_number: got %q", result.Fields.MCNumber)
	}
	if result.Fields.Origin != "Chicago, IL" || result.Fields.Destination != "Dallas, TX" {
		t.Errorf("route: got %q -> %q", result.Fields.Origin, result.Fields.Destination)
	}
	if result.Fields.Rate.StringFixed(2) != "1850.50" {
		t.Errorf("rate: got %s", result.Fields.Rate)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence: got %f", result.Confidence)
	}
}

func TestParseExtraction_CodeFence(t *testing.T) {
	content := "```json\n{\"carrier_name\": \"Beta Freight\", \"rate\": 900, \"confidence\": 0.8}\n```"

	result, err := ParseExtraction(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fields.CarrierName != "Beta Freight" {
		t.Errorf("carrier_name: got %q", result.Fields.CarrierName)
	}
}

func TestParseExtraction_ConfidenceClamped(t *testing.T) {
	result, err := ParseExtraction(`{"confidence": 1.7}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence not clamped: got %f", result.Confidence)
	}
}

func TestParseExtraction_InvalidJSON(t *testing.T) {
	if _, err := ParseExtraction("sorry, I cannot do that"); err == nil {
		t.Fatal("expected error for non-json content")
	}
}

func TestExtract_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": `{"carrier_name": "Gamma Logistics", "mc_number": "778899", "rate": 2100, "confidence": 0.85}`,
				}},
			},
		})
	}))
	defer server.Close()

	client := NewClientWith("test-key", server.URL)

	result, err := client.Extract(context.Background(), "broker: hi, this is...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fields.MCNumber != "778899" {
		t.Errorf("mc_number: got %q", result.Fields.MCNumber)
	}
}

func TestExtract_EmptyTranscript(t *testing.T) {
	client := NewClientWith("test-key", "http://localhost:1")
	if _, err := client.Extract(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestChatCompletion_RetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"confidence": 0.5}`}},
			},
		})
	}))
	defer server.Close()

	client := NewClientWith("test-key", server.URL)

	if _, err := client.chatCompletion(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
