package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transcript — текстовая расшифровка записи звонка.
type Transcript struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// CallID — звонок, к которому относится расшифровка.
	CallID uuid.UUID `json:"call_id"`

	// Text — полный текст расшифровки.
	Text string `json:"text"`

	// Language — язык расшифровки (BCP-47, например "en-US").
	Language string `json:"language,omitempty"`

	// Model — модель провайдера, которой выполнена транскрипция.
	Model string `json:"model,omitempty"`

	// Redacted — флаг GDPR: текст затёрт по запросу на удаление.
	Redacted bool `json:"redacted,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Redact затирает текст расшифровки (GDPR delete).
func (t *Transcript) Redact() {
	t.Text = ""
	t.Redacted = true
}

// Extraction — структурированные поля, извлечённые из расшифровки.
//
// LLM извлекает из разговора с перевозчиком данные для CRM:
// название компании, MC number, маршрут, ставку.
type Extraction struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// CallID — звонок, из которого извлечены поля.
	CallID uuid.UUID `json:"call_id"`

	// Fields — извлечённые поля.
	Fields ExtractedFields `json:"fields"`

	// Confidence — уверенность модели (0..1).
	Confidence float64 `json:"confidence"`

	// Raw — сырой JSON-ответ модели (для отладки).
	Raw map[string]any `json:"raw,omitempty"`

	// Redacted — флаг GDPR: поля затёрты по запросу на удаление.
	Redacted bool `json:"redacted,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// ExtractedFields — поля, которые модель извлекает из разговора.
type ExtractedFields struct {
	// CarrierName — название компании-перевозчика.
	CarrierName string `json:"carrier_name,omitempty"`

	// MCNumber — MC number перевозчика (федеральная лицензия).
	MCNumber string `json:"mc_number,omitempty"`

	// Origin — пункт отправления ("City, ST").
	Origin string `json:"origin,omitempty"`

	// Destination — пункт назначения ("City, ST").
	Destination string `json:"destination,omitempty"`

	// PickupDate — дата погрузки (ISO 8601, как произнесено).
	PickupDate string `json:"pickup_date,omitempty"`

	// Rate — согласованная ставка за перевозку.
	Rate decimal.Decimal `json:"rate,omitempty"`

	// Equipment — тип оборудования ("dry van", "reefer", "flatbed").
	Equipment string `json:"equipment,omitempty"`
}

// Redact затирает извлечённые поля (GDPR delete).
func (e *Extraction) Redact() {
	e.Fields = ExtractedFields{}
	e.Raw = nil
	e.Redacted = true
}
