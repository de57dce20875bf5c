// Freightline API — HTTP API для брокеров: аутентификация, CRM,
// rate confirmations, referrals, usage и входящие webhook'и.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Freightline/internal/api"
	"github.com/shaiso/Freightline/internal/auth"
	"github.com/shaiso/Freightline/internal/billing"
	"github.com/shaiso/Freightline/internal/config"
	"github.com/shaiso/Freightline/internal/email"
	"github.com/shaiso/Freightline/internal/mq"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/telemetry"
	"github.com/shaiso/Freightline/internal/telephony"
	"github.com/shaiso/Freightline/internal/usage"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightline_api_http_requests_total",
		Help: "Total HTTP requests handled by freightline_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting freightline-api")

	config.LoadDotEnv(logger)

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	orgRepo := repo.NewOrgRepo(pool)
	callRepo := repo.NewCallRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	crmRepo := repo.NewCRMRepo(pool)
	rateConfRepo := repo.NewRateConfRepo(pool)
	referralRepo := repo.NewReferralRepo(pool)
	usageRepo := repo.NewUsageRepo(pool)

	// JWT
	authManager, err := auth.NewManagerFromEnv()
	if err != nil {
		logger.Error("failed to init auth", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, pipeline will rely on polling", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		cancel()

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		OrgRepo:      orgRepo,
		CallRepo:     callRepo,
		JobRepo:      jobRepo,
		CRMRepo:      crmRepo,
		RateConfRepo: rateConfRepo,
		ReferralRepo: referralRepo,
		UsageRepo:    usageRepo,
		Guard:        usage.NewGuard(orgRepo, usageRepo, logger),
		Billing: billing.NewService(billing.Config{
			Gateway:      billing.NewGatewayClient(),
			OrgRepo:      orgRepo,
			UsageRepo:    usageRepo,
			ReferralRepo: referralRepo,
			Logger:       logger,
		}),
		Auth:                  authManager,
		Telephony:             telephony.NewClient(),
		Email:                 email.NewClient(),
		Publisher:             publisher,
		BaseURL:               config.BaseURL(),
		PaymentsWebhookSecret: os.Getenv("PAYMENTS_WEBHOOK_SECRET"),
		Logger:                logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
