package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/llm"
)

// ExtractExecutor извлекает структурированные поля из расшифровки звонка.
//
// Payload:
//   - text (string, required) — текст расшифровки
//
// Outputs:
//   - fields     — извлечённые поля (JSON-объект)
//   - confidence — уверенность модели (0..1)
//   - raw        — сырой ответ модели
type ExtractExecutor struct {
	AI *llm.Client
}

func (e *ExtractExecutor) Execute(ctx context.Context, job *domain.ProcessingJob) (*ExecutionResult, error) {
	text, _ := job.Payload["text"].(string)
	if text == "" {
		return &ExecutionResult{Error: ErrTranscriptNotFound.Error()}, nil
	}

	result, err := e.AI.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	// Fields сериализуем в map, чтобы outputs легли в JSONB без
	// промежуточных типов
	fieldsJSON, err := json.Marshal(result.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}

	return &ExecutionResult{
		Outputs: map[string]any{
			"fields":     fields,
			"confidence": result.Confidence,
			"raw":        result.Raw,
		},
	}, nil
}

// ParseExtractedFields восстанавливает доменные поля из outputs job.
// Используется pipeline'ом при создании Extraction.
func ParseExtractedFields(outputs map[string]any) (domain.ExtractedFields, float64, error) {
	var fields domain.ExtractedFields

	raw, ok := outputs["fields"]
	if !ok {
		return fields, 0, fmt.Errorf("no fields in outputs")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fields, 0, fmt.Errorf("marshal fields: %w", err)
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fields, 0, fmt.Errorf("unmarshal fields: %w", err)
	}

	confidence, _ := outputs["confidence"].(float64)

	return fields, confidence, nil
}
