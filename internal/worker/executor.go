package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/Freightline/internal/domain"
)

// Executor — интерфейс для выполнения конкретной стадии обработки.
//
// Реализации: TranscribeExecutor, ExtractExecutor.
//
// job.Payload содержит входные данные стадии.
type Executor interface {
	Execute(ctx context.Context, job *domain.ProcessingJob) (*ExecutionResult, error)
}

// ExecutionResult — результат выполнения job.
type ExecutionResult struct {
	// Outputs — выходные данные выполнения.
	Outputs map[string]any

	// Error — сообщение об ошибке (логическая ошибка выполнения).
	// Инфраструктурные ошибки возвращаются через error в Execute().
	Error string
}

// Registry — реестр executor'ов по стадии обработки.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register добавляет executor для стадии.
func (r *Registry) Register(stage string, executor Executor) {
	r.executors[stage] = executor
}

// Get возвращает executor для стадии.
func (r *Registry) Get(stage string) (Executor, error) {
	executor, ok := r.executors[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	return executor, nil
}
