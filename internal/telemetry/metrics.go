package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики pipeline и worker. Регистрируются глобально через promauto
// и отдаются на /metrics каждого сервиса.
var (
	// CallsAdmitted — звонки, допущенные к обработке.
	CallsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightline_calls_admitted_total",
		Help: "Calls admitted for processing by the usage guard",
	})

	// CallsRejected — звонки, отклонённые usage guard.
	CallsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightline_calls_rejected_total",
		Help: "Calls rejected by the usage guard, by reason",
	}, []string{"reason"})

	// JobsCompleted — завершённые задачи обработки.
	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightline_jobs_completed_total",
		Help: "Processing jobs completed, by stage and status",
	}, []string{"stage", "status"})

	// JobDuration — длительность выполнения задач.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freightline_job_duration_seconds",
		Help:    "Processing job execution duration",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})

	// OverageChargesTotal — сумма списанных overage в центах.
	OverageChargesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightline_overage_charges_cents_total",
		Help: "Total overage charges settled, in cents",
	})

	// PeriodsSettled — закрытые и оплаченные billing-периоды.
	PeriodsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightline_usage_periods_settled_total",
		Help: "Usage periods settled by the scheduler",
	})

	// MQMessages — обработанные сообщения очередей.
	MQMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightline_mq_messages_total",
		Help: "Queue messages handled, by queue and outcome",
	}, []string{"queue", "outcome"})

	// LocksReaped — просроченные processing locks, снятые scheduler.
	LocksReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightline_processing_locks_reaped_total",
		Help: "Expired processing locks reaped by the scheduler",
	})
)
