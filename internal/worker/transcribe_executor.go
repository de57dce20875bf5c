package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/llm"
	"github.com/shaiso/Freightline/internal/telephony"
)

// TranscribeExecutor скачивает запись звонка у провайдера телефонии
// и отправляет её на транскрипцию AI-провайдеру.
//
// Payload:
//   - recording_url (string, required) — ссылка на запись
//
// Outputs:
//   - text     — полный текст расшифровки
//   - language — язык расшифровки
//   - model    — модель, которой выполнена транскрипция
type TranscribeExecutor struct {
	Telephony *telephony.Client
	AI        *llm.Client
}

func (e *TranscribeExecutor) Execute(ctx context.Context, job *domain.ProcessingJob) (*ExecutionResult, error) {
	recordingURL, _ := job.Payload["recording_url"].(string)
	if recordingURL == "" {
		// Без ссылки на запись retry бессмыслен
		return &ExecutionResult{Error: ErrMissingRecordingURL.Error()}, nil
	}

	audio, err := e.Telephony.DownloadRecording(ctx, recordingURL)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}

	result, err := e.AI.Transcribe(ctx, audio, fmt.Sprintf("call-%s.mp3", job.CallID))
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	return &ExecutionResult{
		Outputs: map[string]any{
			"text":     result.Text,
			"language": result.Language,
			"model":    result.Model,
		},
	}, nil
}
