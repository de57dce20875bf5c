package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/domain"
)

// extractionSystemPrompt — инструкция модели для извлечения полей из
// разговора брокера с перевозчиком.
const extractionSystemPrompt = `You are an assistant for a freight brokerage.
Extract structured fields from a phone call transcript between a broker and a carrier.
Respond with a single JSON object with these keys:
  carrier_name  - carrier company name, or ""
  mc_number     - carrier MC number digits only, or ""
  origin        - pickup location as "City, ST", or ""
  destination   - delivery location as "City, ST", or ""
  pickup_date   - pickup date in YYYY-MM-DD if stated, or ""
  rate          - agreed all-in rate in USD as a number, or 0
  equipment     - equipment type (dry van, reefer, flatbed, ...), or ""
  confidence    - your confidence in the extraction, 0.0 to 1.0
Only use information stated in the transcript. Do not guess.`

// ExtractionResult — результат извлечения полей из расшифровки.
type ExtractionResult struct {
	Fields     domain.ExtractedFields
	Confidence float64
	Raw        map[string]any
}

// Extract извлекает структурированные поля из расшифровки звонка.
func (c *Client) Extract(ctx context.Context, transcript string) (*ExtractionResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("empty transcript")
	}

	content, err := c.chatCompletion(ctx, extractionSystemPrompt, transcript)
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	return ParseExtraction(content)
}

// extractionPayload — JSON-схема ответа модели.
type extractionPayload struct {
	CarrierName string  `json:"carrier_name"`
	MCNumber    string  `json:"mc_number"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	PickupDate  string  `json:"pickup_date"`
	Rate        float64 `json:"rate"`
	Equipment   string  `json:"equipment"`
	Confidence  float64 `json:"confidence"`
}

// ParseExtraction парсит JSON-ответ модели в доменные поля.
// Терпимо относится к markdown-ограждениям вокруг JSON.
func ParseExtraction(content string) (*ExtractionResult, error) {
	cleaned := stripCodeFence(content)

	var payload extractionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}

	var raw map[string]any
	// Сырой ответ сохраняем как есть, ошибки игнорируем
	json.Unmarshal([]byte(cleaned), &raw)

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &ExtractionResult{
		Fields: domain.ExtractedFields{
			CarrierName: strings.TrimSpace(payload.CarrierName),
			MCNumber:    strings.TrimSpace(payload.MCNumber),
			Origin:      strings.TrimSpace(payload.Origin),
			Destination: strings.TrimSpace(payload.Destination),
			PickupDate:  strings.TrimSpace(payload.PickupDate),
			Rate:        decimal.NewFromFloat(payload.Rate),
			Equipment:   strings.TrimSpace(payload.Equipment),
		},
		Confidence: confidence,
		Raw:        raw,
	}, nil
}

// stripCodeFence убирает markdown-ограждение ```json ... ``` вокруг ответа.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
