package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/llm"
	"github.com/shaiso/Freightline/internal/telephony"
)

// --- TranscribeExecutor Tests ---

func TestTranscribeExecutor_Success(t *testing.T) {
	// Mock телефонии: отдаёт аудио по basic auth
	recordings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "AC123" {
			t.Errorf("expected basic auth with AC123, got %q", user)
		}
		w.Write([]byte("fake-audio-bytes"))
	}))
	defer recordings.Close()

	// Mock AI-провайдера: принимает multipart и возвращает расшифровку
	ai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"text":     "broker: hi, do you have a truck in Chicago?",
			"language": "en",
		})
	}))
	defer ai.Close()

	executor := &TranscribeExecutor{
		Telephony: telephony.NewClientWith("AC123", "token"),
		AI:        llm.NewClientWith("test-key", ai.URL),
	}
	job := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: uuid.New(),
		Stage:  domain.StageTranscribe,
		Payload: map[string]any{
			"recording_url": recordings.URL + "/rec/1",
		},
	}

	result, err := executor.Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected execution error: %s", result.Error)
	}

	if result.Outputs["text"] != "broker: hi, do you have a truck in Chicago?" {
		t.Errorf("unexpected text: %v", result.Outputs["text"])
	}
	if result.Outputs["language"] != "en" {
		t.Errorf("unexpected language: %v", result.Outputs["language"])
	}
}

func TestTranscribeExecutor_MissingRecordingURL(t *testing.T) {
	executor := &TranscribeExecutor{
		Telephony: telephony.NewClientWith("AC123", "token"),
		AI:        llm.NewClientWith("test-key", "http://localhost:1"),
	}
	job := &domain.ProcessingJob{
		ID:      uuid.New(),
		Stage:   domain.StageTranscribe,
		Payload: map[string]any{},
	}

	result, err := executor.Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("expected logical error, got infra error: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected execution error for missing recording url")
	}
}

func TestTranscribeExecutor_DownloadFails(t *testing.T) {
	recordings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer recordings.Close()

	executor := &TranscribeExecutor{
		Telephony: telephony.NewClientWith("AC123", "token"),
		AI:        llm.NewClientWith("test-key", "http://localhost:1"),
	}
	job := &domain.ProcessingJob{
		ID:    uuid.New(),
		Stage: domain.StageTranscribe,
		Payload: map[string]any{
			"recording_url": recordings.URL + "/rec/gone",
		},
	}

	// Ошибка скачивания — инфраструктурная, подлежит retry
	if _, err := executor.Execute(context.Background(), job); err == nil {
		t.Fatal("expected infrastructure error for 404 recording")
	}
}

// --- ExtractExecutor Tests ---

func TestExtractExecutor_Success(t *testing.T) {
	ai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": `{"carrier_name": "Acme Trucking", "mc_number": "123456", "rate": 1800, "confidence": 0.9}`,
				}},
			},
		})
	}))
	defer ai.Close()

	executor := &ExtractExecutor{AI: llm.NewClientWith("test-key", ai.URL)}
	job := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: uuid.New(),
		Stage:  domain.StageExtract,
		Payload: map[string]any{
			"text": "broker: hi, this is a call transcript",
		},
	}

	result, err := executor.Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected execution error: %s", result.Error)
	}

	fields, confidence, err := ParseExtractedFields(result.Outputs)
	if err != nil {
		t.Fatalf("parse fields from outputs: %v", err)
	}
	if fields.CarrierName != "Acme Trucking" {
		t.Errorf("carrier_name: got %q", fields.CarrierName)
	}
	if fields.MCNumber != "123456" {
		t.Errorf("mc_number: got %q", fields.MCNumber)
	}
	if confidence != 0.9 {
		t.Errorf("confidence: got %f", confidence)
	}
}

func TestExtractExecutor_EmptyTranscript(t *testing.T) {
	executor := &ExtractExecutor{AI: llm.NewClientWith("test-key", "http://localhost:1")}
	job := &domain.ProcessingJob{
		ID:      uuid.New(),
		Stage:   domain.StageExtract,
		Payload: map[string]any{},
	}

	result, err := executor.Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("expected logical error, got infra error: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected execution error for empty transcript")
	}
}

// --- Registry Tests ---

type fakeExecutor struct {
	result *ExecutionResult
	err    error
	calls  int
}

func (f *fakeExecutor) Execute(_ context.Context, _ *domain.ProcessingJob) (*ExecutionResult, error) {
	f.calls++
	return f.result, f.err
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	fake := &fakeExecutor{result: &ExecutionResult{}}
	r.Register("transcribe", fake)

	if _, err := r.Get("transcribe"); err != nil {
		t.Errorf("registered stage not found: %v", err)
	}
	if _, err := r.Get("unknown-stage"); err == nil {
		t.Error("expected error for unknown stage")
	}
}

// --- Backoff Tests ---

func TestBackoff(t *testing.T) {
	w := New(Config{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	})

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}

	for _, c := range cases {
		if got := w.backoff(c.attempt); got != c.want {
			t.Errorf("backoff(%d): expected %v, got %v", c.attempt, c.want, got)
		}
	}
}

func TestParseExtractedFields_NoFields(t *testing.T) {
	if _, _, err := ParseExtractedFields(map[string]any{}); err == nil {
		t.Fatal("expected error for outputs without fields")
	}
}
