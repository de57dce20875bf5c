package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/usage"
)

// --- Fakes ---

type fakeCallStore struct {
	calls         map[uuid.UUID]*domain.Call
	transcripts   []*domain.Transcript
	extractions   []*domain.Extraction
	transcriptErr error
	extractionErr error
}

func newFakeCallStore(calls ...*domain.Call) *fakeCallStore {
	s := &fakeCallStore{calls: make(map[uuid.UUID]*domain.Call)}
	for _, c := range calls {
		s.calls[c.ID] = c
	}
	return s
}

func (s *fakeCallStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Call, error) {
	c, ok := s.calls[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return c, nil
}

func (s *fakeCallStore) Update(_ context.Context, call *domain.Call) error {
	s.calls[call.ID] = call
	return nil
}

func (s *fakeCallStore) CreateTranscript(_ context.Context, t *domain.Transcript) error {
	if s.transcriptErr != nil {
		return s.transcriptErr
	}
	s.transcripts = append(s.transcripts, t)
	return nil
}

func (s *fakeCallStore) CreateExtraction(_ context.Context, e *domain.Extraction) error {
	if s.extractionErr != nil {
		return s.extractionErr
	}
	s.extractions = append(s.extractions, e)
	return nil
}

func (s *fakeCallStore) ListRecorded(_ context.Context, _ int) ([]domain.Call, error) {
	return nil, nil
}

type fakeJobStore struct {
	jobs    map[uuid.UUID]*domain.ProcessingJob
	created []*domain.ProcessingJob
}

func newFakeJobStore(jobs ...*domain.ProcessingJob) *fakeJobStore {
	s := &fakeJobStore{jobs: make(map[uuid.UUID]*domain.ProcessingJob)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *fakeJobStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ProcessingJob, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return j, nil
}

func (s *fakeJobStore) Create(_ context.Context, job *domain.ProcessingJob) error {
	s.jobs[job.ID] = job
	s.created = append(s.created, job)
	return nil
}

type fakeGuard struct {
	decision   usage.Decision
	admitErr   error
	reconciled []int
	released   []uuid.UUID
}

func (g *fakeGuard) Admit(_ context.Context, _ *domain.Call) (usage.Decision, error) {
	return g.decision, g.admitErr
}

func (g *fakeGuard) Reconcile(_ context.Context, _ *domain.Call, actualMinutes int) error {
	g.reconciled = append(g.reconciled, actualMinutes)
	return nil
}

func (g *fakeGuard) Release(_ context.Context, callID uuid.UUID) error {
	g.released = append(g.released, callID)
	return nil
}

func recordedCall(durationSec int) *domain.Call {
	return &domain.Call{
		ID:              uuid.New(),
		OrgID:           uuid.New(),
		Direction:       domain.DirectionInbound,
		ProviderCallSID: "CA" + uuid.NewString(),
		RecordingURL:    "https://media.test/rec/1",
		DurationSec:     durationSec,
		Status:          domain.CallStatusRecorded,
		CreatedAt:       time.Now(),
	}
}

// --- Constructor ---

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})

	if p.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, p.pollInterval)
	}
	if p.batchSize != defaultBatchSize {
		t.Errorf("expected default batch size %d, got %d", defaultBatchSize, p.batchSize)
	}
	if p.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestNew_CustomConfig(t *testing.T) {
	p := New(Config{
		PollInterval: 5 * time.Second,
		BatchSize:    25,
	})

	if p.pollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", p.pollInterval)
	}
	if p.batchSize != 25 {
		t.Errorf("expected batch size 25, got %d", p.batchSize)
	}
}

func TestPipeline_IsStopped(t *testing.T) {
	p := New(Config{})

	if p.IsStopped() {
		t.Error("new pipeline should not be stopped")
	}

	p.Stop()

	if !p.IsStopped() {
		t.Error("pipeline should be stopped after Stop()")
	}
}

// --- Admission ---

func TestProcessCall_Admitted(t *testing.T) {
	call := recordedCall(300)
	calls := newFakeCallStore(call)
	jobs := newFakeJobStore()
	guard := &fakeGuard{decision: usage.Decision{Allowed: true, EstimatedMinutes: 5}}

	p := New(Config{CallRepo: calls, JobRepo: jobs, Guard: guard})

	if err := p.processCall(context.Background(), call.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if call.Status != domain.CallStatusTranscribing {
		t.Errorf("expected TRANSCRIBING, got %s", call.Status)
	}
	if len(jobs.created) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs.created))
	}
	job := jobs.created[0]
	if job.Stage != domain.StageTranscribe {
		t.Errorf("expected transcribe stage, got %s", job.Stage)
	}
	if job.Status != domain.JobStatusQueued {
		t.Errorf("expected QUEUED job, got %s", job.Status)
	}
	if url, _ := job.Payload["recording_url"].(string); url != call.RecordingURL {
		t.Errorf("job payload must carry recording url, got %q", url)
	}
}

func TestProcessCall_Rejected(t *testing.T) {
	call := recordedCall(600)
	calls := newFakeCallStore(call)
	jobs := newFakeJobStore()
	guard := &fakeGuard{decision: usage.Decision{
		Allowed:                 false,
		Reason:                  "projected overage charge exceeds cap",
		ProjectedOverageMinutes: 10,
		ProjectedCharge:         decimal.RequireFromString("22.00"),
	}}

	p := New(Config{CallRepo: calls, JobRepo: jobs, Guard: guard})

	if err := p.processCall(context.Background(), call.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if call.Status != domain.CallStatusRejected {
		t.Errorf("expected REJECTED, got %s", call.Status)
	}
	if call.Error == "" {
		t.Error("rejected call must carry the denial reason")
	}
	if len(jobs.created) != 0 {
		t.Errorf("rejected call must not produce jobs, got %d", len(jobs.created))
	}
}

func TestProcessCall_NotRecorded(t *testing.T) {
	call := recordedCall(300)
	call.Status = domain.CallStatusTranscribing
	calls := newFakeCallStore(call)

	p := New(Config{CallRepo: calls, JobRepo: newFakeJobStore(), Guard: &fakeGuard{}})

	err := p.processCall(context.Background(), call.ID)
	if !errors.Is(err, ErrCallNotRecorded) {
		t.Errorf("expected ErrCallNotRecorded, got %v", err)
	}
}

func TestProcessCall_MissingCall(t *testing.T) {
	p := New(Config{CallRepo: newFakeCallStore(), JobRepo: newFakeJobStore(), Guard: &fakeGuard{}})

	err := p.processCall(context.Background(), uuid.New())
	if !errors.Is(err, ErrCallNotFound) {
		t.Errorf("expected ErrCallNotFound, got %v", err)
	}
}

// --- Advancing по job.completed ---

func TestAdvanceCall_TranscribeSucceeded(t *testing.T) {
	call := recordedCall(300)
	call.Status = domain.CallStatusTranscribing

	job := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: call.ID,
		OrgID:  call.OrgID,
		Stage:  domain.StageTranscribe,
		Status: domain.JobStatusSucceeded,
		Outputs: map[string]any{
			"text":     "carrier quoted eighteen fifty for the lane",
			"language": "en",
			"model":    "whisper-1",
		},
	}

	calls := newFakeCallStore(call)
	jobs := newFakeJobStore(job)
	guard := &fakeGuard{}

	p := New(Config{CallRepo: calls, JobRepo: jobs, Guard: guard})

	payload := mq.JobCompletedPayload{JobID: job.ID, CallID: call.ID, Stage: job.Stage, Status: string(job.Status)}
	if err := p.advanceCall(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(calls.transcripts) != 1 {
		t.Fatalf("expected transcript persisted, got %d", len(calls.transcripts))
	}
	if calls.transcripts[0].Text == "" || calls.transcripts[0].Language != "en" {
		t.Errorf("unexpected transcript: %+v", calls.transcripts[0])
	}
	if call.Status != domain.CallStatusExtracting {
		t.Errorf("expected EXTRACTING, got %s", call.Status)
	}
	if len(jobs.created) != 1 {
		t.Fatalf("expected extract job, got %d jobs", len(jobs.created))
	}
	if jobs.created[0].Stage != domain.StageExtract {
		t.Errorf("expected extract stage, got %s", jobs.created[0].Stage)
	}
}

func TestAdvanceCall_ExtractSucceeded(t *testing.T) {
	call := recordedCall(300) // 5 тарифицируемых минут
	call.Status = domain.CallStatusExtracting

	job := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: call.ID,
		OrgID:  call.OrgID,
		Stage:  domain.StageExtract,
		Status: domain.JobStatusSucceeded,
		Outputs: map[string]any{
			"fields": map[string]any{
				"carrier_name": "Acme Trucking",
				"origin":       "Dallas, TX",
				"destination":  "Atlanta, GA",
			},
			"confidence": 0.92,
		},
	}

	calls := newFakeCallStore(call)
	guard := &fakeGuard{}

	p := New(Config{CallRepo: calls, JobRepo: newFakeJobStore(job), Guard: guard})

	payload := mq.JobCompletedPayload{JobID: job.ID, CallID: call.ID, Stage: job.Stage, Status: string(job.Status)}
	if err := p.advanceCall(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(calls.extractions) != 1 {
		t.Fatalf("expected extraction persisted, got %d", len(calls.extractions))
	}
	if calls.extractions[0].Fields.CarrierName != "Acme Trucking" {
		t.Errorf("unexpected fields: %+v", calls.extractions[0].Fields)
	}
	if call.Status != domain.CallStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", call.Status)
	}
	// Reconcile получает фактические минуты
	if len(guard.reconciled) != 1 || guard.reconciled[0] != 5 {
		t.Errorf("expected reconcile with 5 minutes, got %v", guard.reconciled)
	}
}

func TestAdvanceCall_JobFailed(t *testing.T) {
	call := recordedCall(300)
	call.Status = domain.CallStatusTranscribing

	job := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: call.ID,
		OrgID:  call.OrgID,
		Stage:  domain.StageTranscribe,
		Status: domain.JobStatusFailed,
		Error:  "transcription timeout",
	}

	calls := newFakeCallStore(call)
	guard := &fakeGuard{}

	p := New(Config{CallRepo: calls, JobRepo: newFakeJobStore(job), Guard: guard})

	payload := mq.JobCompletedPayload{JobID: job.ID, CallID: call.ID, Stage: job.Stage, Status: string(job.Status)}
	if err := p.advanceCall(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if call.Status != domain.CallStatusFailed {
		t.Errorf("expected FAILED, got %s", call.Status)
	}
	if call.Error != "transcription timeout" {
		t.Errorf("unexpected error text: %q", call.Error)
	}
	// Lock снимается без списания минут
	if len(guard.released) != 1 || guard.released[0] != call.ID {
		t.Errorf("expected lock release for %s, got %v", call.ID, guard.released)
	}
	if len(guard.reconciled) != 0 {
		t.Errorf("failed call must not reconcile minutes, got %v", guard.reconciled)
	}
}

func TestAdvanceCall_FinishedCallIgnored(t *testing.T) {
	call := recordedCall(300)
	call.Status = domain.CallStatusCompleted

	calls := newFakeCallStore(call)
	guard := &fakeGuard{}

	// Job store пустой: короткое замыкание до загрузки job
	p := New(Config{CallRepo: calls, JobRepo: newFakeJobStore(), Guard: guard})

	payload := mq.JobCompletedPayload{JobID: uuid.New(), CallID: call.ID, Stage: domain.StageExtract, Status: string(domain.JobStatusSucceeded)}
	if err := p.advanceCall(context.Background(), payload); err != nil {
		t.Fatalf("duplicate event must be a no-op, got %v", err)
	}

	if call.Status != domain.CallStatusCompleted {
		t.Errorf("finished call must not change status, got %s", call.Status)
	}
	if len(guard.reconciled) != 0 || len(guard.released) != 0 {
		t.Error("finished call must not touch the guard")
	}
}

func TestAdvanceCall_DuplicateTranscript(t *testing.T) {
	call := recordedCall(300)
	call.Status = domain.CallStatusTranscribing

	job := &domain.ProcessingJob{
		ID:      uuid.New(),
		CallID:  call.ID,
		OrgID:   call.OrgID,
		Stage:   domain.StageTranscribe,
		Status:  domain.JobStatusSucceeded,
		Outputs: map[string]any{"text": "duplicate delivery"},
	}

	calls := newFakeCallStore(call)
	calls.transcriptErr = repo.ErrAlreadyExists
	jobs := newFakeJobStore(job)

	p := New(Config{CallRepo: calls, JobRepo: jobs, Guard: &fakeGuard{}})

	payload := mq.JobCompletedPayload{JobID: job.ID, CallID: call.ID, Stage: job.Stage, Status: string(job.Status)}
	if err := p.advanceCall(context.Background(), payload); err != nil {
		t.Fatalf("duplicate transcript must not fail the event: %v", err)
	}

	if call.Status != domain.CallStatusExtracting {
		t.Errorf("expected EXTRACTING after duplicate transcript, got %s", call.Status)
	}
	if len(jobs.created) != 1 {
		t.Errorf("extract job must still be enqueued, got %d", len(jobs.created))
	}
}

// --- Метки метрик ---

func TestRejectReasonLabel(t *testing.T) {
	minutesCap := usage.Decision{
		Allowed:                 false,
		ProjectedOverageMinutes: usage.OverageMinutesCap + 50,
		ProjectedCharge:         decimal.RequireFromString("30.00"),
	}
	if got := rejectReasonLabel(minutesCap); got != "minutes_cap" {
		t.Errorf("expected minutes_cap, got %s", got)
	}

	chargeCap := usage.Decision{
		Allowed:                 false,
		ProjectedOverageMinutes: usage.OverageMinutesCap - 10,
		ProjectedCharge:         decimal.RequireFromString("20.20"),
	}
	if got := rejectReasonLabel(chargeCap); got != "charge_cap" {
		t.Errorf("expected charge_cap, got %s", got)
	}
}
