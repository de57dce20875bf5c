package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/usage"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 100
)

// CallStore — операции pipeline над звонками. Реализуется *repo.CallRepo.
type CallStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Call, error)
	Update(ctx context.Context, call *domain.Call) error
	CreateTranscript(ctx context.Context, t *domain.Transcript) error
	CreateExtraction(ctx context.Context, e *domain.Extraction) error
	ListRecorded(ctx context.Context, limit int) ([]domain.Call, error)
}

// JobStore — операции pipeline над processing jobs. Реализуется *repo.JobRepo.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProcessingJob, error)
	Create(ctx context.Context, job *domain.ProcessingJob) error
}

// AdmissionGuard — admission и учёт минут. Реализуется *usage.Guard.
type AdmissionGuard interface {
	Admit(ctx context.Context, call *domain.Call) (usage.Decision, error)
	Reconcile(ctx context.Context, call *domain.Call, actualMinutes int) error
	Release(ctx context.Context, callID uuid.UUID) error
}

// Pipeline управляет обработкой записанных звонков.
//
// Pipeline — центральный компонент системы, который:
//   - Получает события о новых записях из очереди RabbitMQ (event-driven)
//   - Периодически проверяет RECORDED звонки в БД (polling fallback)
//   - Пропускает звонки через usage guard (admission)
//   - Создаёт processing jobs и ведёт звонок по стадиям
//   - Сохраняет Transcript/Extraction из результатов jobs
//   - Финализирует звонки (COMPLETED/FAILED) и reconcile'ит минуты
type Pipeline struct {
	// Repositories
	callRepo CallStore
	jobRepo  JobStore

	// Usage admission
	guard AdmissionGuard

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Consumers
	callConsumer *mq.Consumer
	jobConsumer  *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Pipeline.
type Config struct {
	// Repositories
	CallRepo CallStore
	JobRepo  JobStore

	// Usage admission
	Guard AdmissionGuard

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество звонков за один poll (default: 100)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Pipeline.
func New(cfg Config) *Pipeline {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		callRepo:     cfg.CallRepo,
		jobRepo:      cfg.JobRepo,
		guard:        cfg.Guard,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Pipeline.
//
// Запускает:
//   - Consumer для calls.recorded
//   - Consumer для jobs.completed
//   - Polling горутину для fallback
func (p *Pipeline) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancelFunc = cancel

	p.logger.Info("starting pipeline",
		"poll_interval", p.pollInterval,
		"batch_size", p.batchSize,
	)

	if p.conn != nil {
		p.callConsumer = mq.NewConsumer(p.conn, p.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueCallsRecorded),
			Handler:  p.handleCallRecorded,
			Prefetch: 10,
		})

		p.jobConsumer = mq.NewConsumer(p.conn, p.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueJobsCompleted),
			Handler:  p.handleJobCompleted,
			Prefetch: 10,
		})

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := p.callConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error("call consumer error", "error", err)
			}
		}()

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := p.jobConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error("job consumer error", "error", err)
			}
		}()
	}

	// Запускаем polling
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.pollLoop(ctx)
	}()

	p.logger.Info("pipeline started")
	return nil
}

// Stop останавливает Pipeline.
func (p *Pipeline) Stop() {
	p.stoppedMu.Lock()
	p.stopped = true
	p.stoppedMu.Unlock()

	p.logger.Info("stopping pipeline...")

	if p.cancelFunc != nil {
		p.cancelFunc()
	}

	if p.callConsumer != nil {
		p.callConsumer.Stop()
	}
	if p.jobConsumer != nil {
		p.jobConsumer.Stop()
	}

	// Ждём завершения горутин
	p.wg.Wait()

	p.logger.Info("pipeline stopped")
}

// IsStopped проверяет, остановлен ли Pipeline.
func (p *Pipeline) IsStopped() bool {
	p.stoppedMu.RLock()
	defer p.stoppedMu.RUnlock()
	return p.stopped
}

// pollLoop — цикл polling для fallback.
func (p *Pipeline) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем звонки, записанные пока были выключены)
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (p *Pipeline) poll(ctx context.Context) {
	calls, err := p.callRepo.ListRecorded(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to list recorded calls", "error", err)
		return
	}

	if len(calls) == 0 {
		return
	}

	p.logger.Debug("poll found recorded calls", "count", len(calls))

	for i := range calls {
		call := &calls[i]

		if err := p.processCall(ctx, call.ID); err != nil {
			p.logger.Error("failed to process call from poll",
				"call_id", call.ID,
				"error", err,
			)
		}
	}
}
