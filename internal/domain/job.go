package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingJob — отдельная стадия обработки звонка.
//
// Job создаётся pipeline'ом:
// - "transcribe" — сразу после admission
// - "extract" — после успешной транскрипции
//
// Job выполняется Worker'ом.
type ProcessingJob struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// CallID — звонок, который обрабатывается.
	CallID uuid.UUID `json:"call_id"`

	// OrgID — организация (копия Call.OrgID для фильтрации без join).
	OrgID uuid.UUID `json:"org_id"`

	// Stage — стадия обработки: "transcribe" или "extract".
	Stage string `json:"stage"`

	// Attempt — номер попытки (начиная с 1).
	// Увеличивается при retry.
	Attempt int `json:"attempt"`

	// Status — текущий статус job.
	Status JobStatus `json:"status"`

	// Payload — входные данные для воркера.
	// Для transcribe: recording_url, duration_sec.
	// Для extract: transcript_id, text.
	Payload map[string]any `json:"payload,omitempty"`

	// Outputs — результаты выполнения.
	// Заполняется Worker'ом; pipeline превращает их в Transcript/Extraction.
	Outputs map[string]any `json:"outputs,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// Стадии обработки.
const (
	StageTranscribe = "transcribe"
	StageExtract    = "extract"
)

// Duration возвращает продолжительность выполнения.
func (j *ProcessingJob) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён.
func (j *ProcessingJob) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkRunning переводит job в статус RUNNING.
func (j *ProcessingJob) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Attempt++
}

// MarkSucceeded переводит job в статус SUCCEEDED с результатами.
func (j *ProcessingJob) MarkSucceeded(outputs map[string]any) {
	now := time.Now()
	j.Status = JobStatusSucceeded
	j.FinishedAt = &now
	j.Outputs = outputs
}

// MarkFailed переводит job в статус FAILED с ошибкой.
func (j *ProcessingJob) MarkFailed(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.Error = err
}

// ResetForRetry подготавливает job для повторной попытки.
// Сбрасывает статус в QUEUED, очищает ошибку.
func (j *ProcessingJob) ResetForRetry() {
	j.Status = JobStatusQueued
	j.StartedAt = nil
	j.FinishedAt = nil
	j.Error = ""
	// Attempt увеличится при следующем MarkRunning()
}

// CanRetry проверяет, можно ли сделать ещё одну попытку.
func (j *ProcessingJob) CanRetry(maxAttempts int) bool {
	return j.Attempt < maxAttempts
}
