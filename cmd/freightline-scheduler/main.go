// Freightline Scheduler — фоновые задачи биллинга.
//
// Scheduler:
//   - Снимает просроченные processing locks (зависшие звонки → FAILED)
//   - Закрывает usage-периоды по окончании месяца
//   - Передаёт overage закрытых периодов в платёжный шлюз
//   - Выплачивает due партнёрские комиссии
//
// Среди реплик только лидер (pg advisory lock) выполняет тики.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Freightline/internal/billing"
	"github.com/shaiso/Freightline/internal/config"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/scheduler"
	"github.com/shaiso/Freightline/internal/telemetry"
)

const schedLockKey int64 = 742042

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting freightline-scheduler")

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
	usageRepo := repo.NewUsageRepo(pool)
	referralRepo := repo.NewReferralRepo(pool)

	sched := scheduler.New(scheduler.Config{
		CallRepo:     callRepo,
		UsageRepo:    usageRepo,
		ReferralRepo: referralRepo,
		Billing: billing.NewService(billing.Config{
			Gateway:      billing.NewGatewayClient(),
			OrgRepo:      orgRepo,
			UsageRepo:    usageRepo,
			ReferralRepo: referralRepo,
			Logger:       logger,
		}),
		Logger: logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// scheduler loop
	go func() {
		tk := time.NewTicker(time.Minute)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				if !hasLock {
					var ok bool
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						logger.Error("leader lock failed", "error", err)
						continue
					}
					hasLock = ok
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				if err := sched.Tick(ctx); err != nil {
					logger.Error("tick failed", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// serve
	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
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
	logger.Info("freightline-scheduler stopped")
}
