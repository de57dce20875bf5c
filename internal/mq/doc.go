// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - call.recorded   — провайдер телефонии прислал запись звонка
//   - job.ready       — задача обработки готова к выполнению
//   - job.completed   — задача обработки завершена
//
// Exchanges:
//   - freightline.calls — события звонков
//   - freightline.jobs  — события задач обработки
//   - freightline.dlq   — dead letter queue
package mq
