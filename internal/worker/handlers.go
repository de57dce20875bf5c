package worker

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
)

// handleJobReady обрабатывает событие о новой job из очереди jobs.ready.
func (w *Worker) handleJobReady(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.JobReadyPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse job.ready payload", "error", err)
		return err
	}

	w.logger.Debug("received job.ready event",
		"job_id", payload.JobID,
		"call_id", payload.CallID,
	)

	if err := w.processJob(ctx, payload.JobID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotQueued) {
			w.logger.Debug("job not processed", "job_id", payload.JobID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process job", "job_id", payload.JobID, "error", err)
		return err
	}

	return nil
}

// processJob загружает job из БД, выполняет и обрабатывает результат.
func (w *Worker) processJob(ctx context.Context, jobID uuid.UUID) error {
	// 1. Загружаем job из БД
	job, err := w.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return fmt.Errorf("get job: %w", err)
	}

	// 2. Проверяем статус
	if job.Status != domain.JobStatusQueued {
		return ErrJobNotQueued
	}

	// 3. Помечаем как running
	job.MarkRunning()
	if err := w.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to running: %w", err)
	}

	w.logger.Info("job started",
		"job_id", job.ID,
		"call_id", job.CallID,
		"stage", job.Stage,
		"attempt", job.Attempt,
	)

	started := time.Now()

	// 4. Выполняем с retry
	result, execErr := w.executeWithRetry(ctx, job)

	telemetry.JobDuration.WithLabelValues(job.Stage).Observe(time.Since(started).Seconds())

	// 5. Обрабатываем результат
	if execErr == nil && (result == nil || result.Error == "") {
		var outputs map[string]any
		if result != nil {
			outputs = result.Outputs
		}

		job.MarkSucceeded(outputs)
		if err := w.jobRepo.Update(ctx, job); err != nil {
			return fmt.Errorf("update job to succeeded: %w", err)
		}

		telemetry.JobsCompleted.WithLabelValues(job.Stage, string(job.Status)).Inc()

		w.logger.Info("job succeeded",
			"job_id", job.ID,
			"call_id", job.CallID,
			"stage", job.Stage,
			"attempt", job.Attempt,
		)

		return w.publishCompletion(ctx, job, "")
	}

	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
	} else {
		errMsg = result.Error
	}

	job.MarkFailed(errMsg)
	if err := w.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to failed: %w", err)
	}

	telemetry.JobsCompleted.WithLabelValues(job.Stage, string(job.Status)).Inc()

	w.logger.Warn("job failed",
		"job_id", job.ID,
		"call_id", job.CallID,
		"stage", job.Stage,
		"attempt", job.Attempt,
		"error", errMsg,
	)

	return w.publishCompletion(ctx, job, errMsg)
}

// publishCompletion публикует событие job.completed.
func (w *Worker) publishCompletion(ctx context.Context, job *domain.ProcessingJob, errMsg string) error {
	if w.publisher == nil {
		w.logger.Warn("publisher not available, skipping job.completed publish",
			"job_id", job.ID,
		)
		return nil
	}

	payload := mq.JobCompletedPayload{
		JobID:   job.ID,
		CallID:  job.CallID,
		Stage:   job.Stage,
		Status:  string(job.Status),
		Error:   errMsg,
		Attempt: job.Attempt,
	}

	if err := w.publisher.PublishJobCompleted(ctx, payload); err != nil {
		w.logger.Warn("failed to publish job.completed",
			"job_id", job.ID,
			"error", err,
		)
		// Не возвращаем ошибку — job обновлён в БД, pipeline подхватит через polling
	}

	return nil
}

// executeWithRetry выполняет job с retry и exponential backoff.
func (w *Worker) executeWithRetry(ctx context.Context, job *domain.ProcessingJob) (*ExecutionResult, error) {
	executor, err := w.registry.Get(job.Stage)
	if err != nil {
		return nil, err
	}

	var lastResult *ExecutionResult
	var lastErr error

	for {
		lastResult, lastErr = executor.Execute(ctx, job)

		// Успех — инфраструктурной ошибки нет и логической ошибки нет
		if lastErr == nil && (lastResult == nil || lastResult.Error == "") {
			return lastResult, nil
		}

		if !job.CanRetry(w.maxAttempts) {
			break
		}

		delay := w.backoff(job.Attempt)

		w.logger.Debug("retrying job",
			"job_id", job.ID,
			"stage", job.Stage,
			"attempt", job.Attempt,
			"delay", delay,
		)

		// Ждём с учётом context
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		// Сброс и новая попытка
		job.ResetForRetry()
		job.MarkRunning()
		if err := w.jobRepo.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("update job for retry: %w", err)
		}
	}

	return lastResult, lastErr
}

// backoff вычисляет задержку перед retry.
// delay = initialDelay * 2^(attempt-1), с ограничением maxDelay.
func (w *Worker) backoff(attempt int) time.Duration {
	delay := w.initialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > w.maxDelay {
			return w.maxDelay
		}
	}
	if delay > w.maxDelay {
		return w.maxDelay
	}
	return delay
}
