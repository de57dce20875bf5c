// Freightline Pipeline — оркестрирует обработку звонков.
//
// Pipeline:
//   - Получает события о новых записях из RabbitMQ
//   - Пропускает звонки через usage admission guard
//   - Создаёт processing jobs и отправляет их workers
//   - Сохраняет расшифровки и извлечённые поля, закрывает звонки
//   - Пополняет usage-счётчики после завершения обработки
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Freightline/internal/config"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/pipeline"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/telemetry"
	"github.com/shaiso/Freightline/internal/usage"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting freightline-pipeline")

	config.LoadDotEnv(logger)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	orgRepo := repo.NewOrgRepo(pool)
	callRepo := repo.NewCallRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	usageRepo := repo.NewUsageRepo(pool)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection

	mqConn, err = mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Создаём pipeline
	p := pipeline.New(pipeline.Config{
		CallRepo:  callRepo,
		JobRepo:   jobRepo,
		Guard:     usage.NewGuard(orgRepo, usageRepo, logger),
		Publisher: publisher,
		Conn:      mqConn,
		Logger:    logger,
	})

	// Запускаем pipeline
	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("PIPELINE_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем pipeline
	p.Stop()
	logger.Info("freightline-pipeline stopped")
}
