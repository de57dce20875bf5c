// Package telemetry — логирование и метрики сервисов Freightline.
//
//   - logging.go — structured logging через slog, формат и уровень
//     задаются переменными LOG_FORMAT / LOG_LEVEL
//   - metrics.go — Prometheus метрики pipeline, worker и scheduler
//
// Каждый сервис отдаёт метрики на своём /metrics endpoint.
package telemetry
