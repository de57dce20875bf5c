package domain

import (
	"time"

	"github.com/google/uuid"
)

// Call — записанный звонок (входящий или исходящий).
//
// Call создаётся, когда телефония присылает webhook о готовой записи.
// Дальше звонок проходит через pipeline:
//   - guard решает, можно ли обрабатывать (usage admission)
//   - worker транскрибирует запись и извлекает структурированные поля
//   - ledger учитывает фактические минуты после завершения
type Call struct {
	// ID — уникальный идентификатор звонка.
	ID uuid.UUID `json:"id"`

	// OrgID — организация, которой принадлежит звонок.
	OrgID uuid.UUID `json:"org_id"`

	// Direction — направление: "inbound" или "outbound".
	Direction string `json:"direction"`

	// FromNumber — номер звонящего (E.164).
	FromNumber string `json:"from_number"`

	// ToNumber — номер вызываемого (E.164).
	ToNumber string `json:"to_number"`

	// ProviderCallSID — идентификатор звонка у телефонии (уникальный).
	// Используется для идемпотентности webhook'ов.
	ProviderCallSID string `json:"provider_call_sid"`

	// RecordingURL — ссылка на запись у провайдера.
	RecordingURL string `json:"recording_url,omitempty"`

	// DurationSec — длительность записи в секундах.
	DurationSec int `json:"duration_sec"`

	// Status — текущий статус обработки.
	Status CallStatus `json:"status"`

	// Error — текст ошибки (для FAILED) или причина отказа (для REJECTED).
	Error string `json:"error,omitempty"`

	// StartedAt — время начала обработки (переход в ADMITTED).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения обработки.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время получения webhook'а о записи.
	CreatedAt time.Time `json:"created_at"`
}

// BillableMinutes возвращает тарифицируемые минуты звонка.
// Округление вверх до целой минуты — так биллит телефония,
// guard и ledger используют одно и то же правило.
func (c *Call) BillableMinutes() int {
	if c.DurationSec <= 0 {
		return 0
	}
	return (c.DurationSec + 59) / 60
}

// IsFinished возвращает true, если обработка звонка завершена.
func (c *Call) IsFinished() bool {
	return c.Status.IsTerminal()
}

// MarkAdmitted переводит звонок в статус ADMITTED.
func (c *Call) MarkAdmitted() {
	now := time.Now()
	c.Status = CallStatusAdmitted
	c.StartedAt = &now
}

// MarkRejected переводит звонок в статус REJECTED с причиной отказа.
func (c *Call) MarkRejected(reason string) {
	now := time.Now()
	c.Status = CallStatusRejected
	c.FinishedAt = &now
	c.Error = reason
}

// MarkTranscribing переводит звонок в статус TRANSCRIBING.
func (c *Call) MarkTranscribing() {
	c.Status = CallStatusTranscribing
}

// MarkExtracting переводит звонок в статус EXTRACTING.
func (c *Call) MarkExtracting() {
	c.Status = CallStatusExtracting
}

// MarkCompleted переводит звонок в статус COMPLETED.
func (c *Call) MarkCompleted() {
	now := time.Now()
	c.Status = CallStatusCompleted
	c.FinishedAt = &now
}

// MarkFailed переводит звонок в статус FAILED с ошибкой.
func (c *Call) MarkFailed(err string) {
	now := time.Now()
	c.Status = CallStatusFailed
	c.FinishedAt = &now
	c.Error = err
}

// ResetForReprocess подготавливает FAILED звонок к повторной обработке.
// Звонок снова пройдёт через guard как новый.
func (c *Call) ResetForReprocess() {
	c.Status = CallStatusRecorded
	c.StartedAt = nil
	c.FinishedAt = nil
	c.Error = ""
}

// Направления звонков.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)
