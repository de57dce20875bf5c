package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/telemetry"
	"github.com/shaiso/Freightline/internal/usage"
	"github.com/shaiso/Freightline/internal/worker"
)

// handleCallRecorded обрабатывает событие о новой записи из calls.recorded.
func (p *Pipeline) handleCallRecorded(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.CallRecordedPayload](&delivery.Message)
	if err != nil {
		p.logger.Error("failed to parse call.recorded payload", "error", err)
		return err
	}

	p.logger.Debug("received call.recorded event", "call_id", payload.CallID)

	if err := p.processCall(ctx, payload.CallID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrCallNotFound) || errors.Is(err, ErrCallNotRecorded) {
			p.logger.Debug("call not processed", "call_id", payload.CallID, "reason", err)
			return nil
		}
		p.logger.Error("failed to process call", "call_id", payload.CallID, "error", err)
		return err
	}

	return nil
}

// processCall проводит звонок через admission и запускает транскрипцию.
func (p *Pipeline) processCall(ctx context.Context, callID uuid.UUID) error {
	// 1. Загружаем звонок из БД
	call, err := p.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCallNotFound, callID)
		}
		return fmt.Errorf("get call: %w", err)
	}

	// 2. Проверяем статус (идемпотентность: события и polling пересекаются)
	if call.Status != domain.CallStatusRecorded {
		return ErrCallNotRecorded
	}

	// 3. Admission через guard
	decision, err := p.guard.Admit(ctx, call)
	if err != nil {
		return fmt.Errorf("admission: %w", err)
	}

	if !decision.Allowed {
		call.MarkRejected(decision.Reason)
		if err := p.callRepo.Update(ctx, call); err != nil {
			return fmt.Errorf("update call to rejected: %w", err)
		}

		telemetry.CallsRejected.WithLabelValues(rejectReasonLabel(decision)).Inc()

		p.logger.Info("call rejected",
			"call_id", call.ID,
			"org_id", call.OrgID,
			"reason", decision.Reason,
			"projected_charge", decision.ProjectedCharge.StringFixed(2),
		)
		return nil
	}

	// 4. Допущен — создаём transcribe job
	call.MarkAdmitted()
	call.MarkTranscribing()
	if err := p.callRepo.Update(ctx, call); err != nil {
		return fmt.Errorf("update call to transcribing: %w", err)
	}

	job := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: call.ID,
		OrgID:  call.OrgID,
		Stage:  domain.StageTranscribe,
		Status: domain.JobStatusQueued,
		Payload: map[string]any{
			"recording_url": call.RecordingURL,
			"duration_sec":  call.DurationSec,
		},
		CreatedAt: time.Now(),
	}

	if err := p.jobRepo.Create(ctx, job); err != nil {
		return fmt.Errorf("create transcribe job: %w", err)
	}

	telemetry.CallsAdmitted.Inc()

	p.logger.Info("call admitted",
		"call_id", call.ID,
		"org_id", call.OrgID,
		"job_id", job.ID,
		"estimate_minutes", decision.EstimatedMinutes,
	)

	p.publishJobReady(ctx, job)
	return nil
}

// handleJobCompleted обрабатывает событие из jobs.completed.
func (p *Pipeline) handleJobCompleted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.JobCompletedPayload](&delivery.Message)
	if err != nil {
		p.logger.Error("failed to parse job.completed payload", "error", err)
		return err
	}

	p.logger.Debug("received job.completed event",
		"job_id", payload.JobID,
		"call_id", payload.CallID,
		"stage", payload.Stage,
		"status", payload.Status,
	)

	if err := p.advanceCall(ctx, payload); err != nil {
		if errors.Is(err, ErrCallNotFound) || errors.Is(err, ErrJobNotFound) {
			p.logger.Debug("job completion skipped", "job_id", payload.JobID, "reason", err)
			return nil
		}
		p.logger.Error("failed to advance call",
			"job_id", payload.JobID,
			"call_id", payload.CallID,
			"error", err,
		)
		return err
	}

	return nil
}

// advanceCall продвигает звонок по стадиям по результату job.
func (p *Pipeline) advanceCall(ctx context.Context, payload mq.JobCompletedPayload) error {
	call, err := p.callRepo.GetByID(ctx, payload.CallID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCallNotFound, payload.CallID)
		}
		return fmt.Errorf("get call: %w", err)
	}

	// Завершённый звонок не трогаем (дубликаты событий)
	if call.IsFinished() {
		return nil
	}

	job, err := p.jobRepo.GetByID(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, payload.JobID)
		}
		return fmt.Errorf("get job: %w", err)
	}

	// Job провалился окончательно — звонок FAILED, lock снимаем без
	// учёта минут
	if job.Status == domain.JobStatusFailed {
		return p.failCall(ctx, call, job.Error)
	}

	if job.Status != domain.JobStatusSucceeded {
		// RUNNING/QUEUED — событие пришло раньше записи в БД, подождём retry
		return fmt.Errorf("job %s in unexpected status %s", job.ID, job.Status)
	}

	switch job.Stage {
	case domain.StageTranscribe:
		return p.finishTranscription(ctx, call, job)
	case domain.StageExtract:
		return p.finishExtraction(ctx, call, job)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStage, job.Stage)
	}
}

// finishTranscription сохраняет Transcript и запускает стадию извлечения.
func (p *Pipeline) finishTranscription(ctx context.Context, call *domain.Call, job *domain.ProcessingJob) error {
	text, _ := job.Outputs["text"].(string)
	if text == "" {
		return p.failCall(ctx, call, ErrMissingTranscriptText.Error())
	}
	language, _ := job.Outputs["language"].(string)
	model, _ := job.Outputs["model"].(string)

	transcript := &domain.Transcript{
		ID:        uuid.New(),
		CallID:    call.ID,
		Text:      text,
		Language:  language,
		Model:     model,
		CreatedAt: time.Now(),
	}

	if err := p.callRepo.CreateTranscript(ctx, transcript); err != nil {
		// Транскрипт уже есть — дубликат события, идём дальше
		if !errors.Is(err, repo.ErrAlreadyExists) {
			return fmt.Errorf("create transcript: %w", err)
		}
	}

	call.MarkExtracting()
	if err := p.callRepo.Update(ctx, call); err != nil {
		return fmt.Errorf("update call to extracting: %w", err)
	}

	extractJob := &domain.ProcessingJob{
		ID:     uuid.New(),
		CallID: call.ID,
		OrgID:  call.OrgID,
		Stage:  domain.StageExtract,
		Status: domain.JobStatusQueued,
		Payload: map[string]any{
			"transcript_id": transcript.ID.String(),
			"text":          text,
		},
		CreatedAt: time.Now(),
	}

	if err := p.jobRepo.Create(ctx, extractJob); err != nil {
		return fmt.Errorf("create extract job: %w", err)
	}

	p.logger.Info("transcription finished",
		"call_id", call.ID,
		"transcript_id", transcript.ID,
		"extract_job_id", extractJob.ID,
	)

	p.publishJobReady(ctx, extractJob)
	return nil
}

// finishExtraction сохраняет Extraction, завершает звонок и
// reconcile'ит фактические минуты.
func (p *Pipeline) finishExtraction(ctx context.Context, call *domain.Call, job *domain.ProcessingJob) error {
	fields, confidence, err := worker.ParseExtractedFields(job.Outputs)
	if err != nil {
		return p.failCall(ctx, call, fmt.Sprintf("parse extraction outputs: %v", err))
	}

	raw, _ := job.Outputs["raw"].(map[string]any)

	extraction := &domain.Extraction{
		ID:         uuid.New(),
		CallID:     call.ID,
		Fields:     fields,
		Confidence: confidence,
		Raw:        raw,
		CreatedAt:  time.Now(),
	}

	if err := p.callRepo.CreateExtraction(ctx, extraction); err != nil {
		if !errors.Is(err, repo.ErrAlreadyExists) {
			return fmt.Errorf("create extraction: %w", err)
		}
	}

	call.MarkCompleted()
	if err := p.callRepo.Update(ctx, call); err != nil {
		return fmt.Errorf("update call to completed: %w", err)
	}

	if err := p.guard.Reconcile(ctx, call, call.BillableMinutes()); err != nil {
		// Звонок завершён; reconcile подхватится вручную или reaper'ом
		p.logger.Error("failed to reconcile usage",
			"call_id", call.ID,
			"error", err,
		)
	}

	p.logger.Info("call completed",
		"call_id", call.ID,
		"org_id", call.OrgID,
		"minutes", call.BillableMinutes(),
		"confidence", confidence,
	)

	return nil
}

// failCall финализирует звонок как FAILED и снимает lock без учёта минут.
func (p *Pipeline) failCall(ctx context.Context, call *domain.Call, reason string) error {
	call.MarkFailed(reason)
	if err := p.callRepo.Update(ctx, call); err != nil {
		return fmt.Errorf("update call to failed: %w", err)
	}

	if err := p.guard.Release(ctx, call.ID); err != nil {
		p.logger.Error("failed to release lock",
			"call_id", call.ID,
			"error", err,
		)
	}

	p.logger.Warn("call failed",
		"call_id", call.ID,
		"org_id", call.OrgID,
		"reason", reason,
	)

	return nil
}

// publishJobReady публикует событие job.ready.
func (p *Pipeline) publishJobReady(ctx context.Context, job *domain.ProcessingJob) {
	if p.publisher == nil {
		p.logger.Warn("publisher not available, worker will pick job by polling",
			"job_id", job.ID,
		)
		return
	}

	if err := p.publisher.PublishJobReady(ctx, job.ID, job.CallID); err != nil {
		p.logger.Warn("failed to publish job.ready",
			"job_id", job.ID,
			"error", err,
		)
		// Не возвращаем ошибку — job в БД, worker подхватит через polling
	}
}

// rejectReasonLabel сводит причину отказа к метке метрики.
func rejectReasonLabel(d usage.Decision) string {
	if d.ProjectedOverageMinutes > usage.OverageMinutesCap {
		return "minutes_cap"
	}
	return "charge_cap"
}
