package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Freightline/internal/llm"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/telephony"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultPrefetch     = 5
	defaultMaxAttempts  = 3
	defaultInitialDelay = 2 * time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Worker выполняет processing jobs.
//
// Worker — stateless компонент системы, который:
//   - Получает jobs из очереди RabbitMQ (event-driven)
//   - Периодически проверяет queued jobs в БД (polling fallback)
//   - Выполняет job в зависимости от стадии (transcribe, extract)
//   - Реализует retry с exponential backoff
//   - Отправляет результат обратно в очередь jobs.completed
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одной очереди.
type Worker struct {
	// Repositories
	jobRepo *repo.JobRepo

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Executor registry
	registry *Registry

	// Consumer
	consumer *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Repositories
	JobRepo *repo.JobRepo

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Executor registry (опционально; если nil — собирается из клиентов
	// telephony и AI по умолчанию)
	Registry *Registry

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество jobs за один poll (default: 50)

	// Retry configuration
	MaxAttempts  int           // максимум попыток (default: 3)
	InitialDelay time.Duration // начальная задержка retry (default: 2s)
	MaxDelay     time.Duration // максимальная задержка retry (default: 30s)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}

	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = defaultRegistry()
	}

	return &Worker{
		jobRepo:      cfg.JobRepo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		registry:     registry,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		logger:       logger,
	}
}

// defaultRegistry собирает реестр executor'ов с клиентами из окружения.
func defaultRegistry() *Registry {
	ai := llm.NewClient()
	r := NewRegistry()
	r.Register("transcribe", &TranscribeExecutor{
		Telephony: telephony.NewClient(),
		AI:        ai,
	})
	r.Register("extract", &ExtractExecutor{AI: ai})
	return r
}

// Start запускает Worker.
//
// Запускает:
//   - Consumer для jobs.ready
//   - Polling горутину для fallback
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"max_attempts", w.maxAttempts,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueJobsReady),
			Handler:  w.handleJobReady,
			Prefetch: defaultPrefetch,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("job consumer error", "error", err)
			}
		}()
	}

	// Запускаем polling
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	// Ждём завершения горутин
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// pollLoop — цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем jobs созданные пока были выключены)
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	jobs, err := w.jobRepo.ListQueued(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list queued jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	w.logger.Debug("poll found queued jobs", "count", len(jobs))

	for i := range jobs {
		job := &jobs[i]

		if err := w.processJob(ctx, job.ID); err != nil {
			w.logger.Error("failed to process job from poll",
				"job_id", job.ID,
				"error", err,
			)
		}
	}
}
