// Package worker выполняет отдельные стадии обработки звонка.
//
// # Обзор
//
// Worker — stateless компонент, который выполняет processing jobs,
// созданные pipeline'ом. Worker отвечает за:
//
//   - Получение jobs из очереди RabbitMQ (event-driven)
//   - Периодическую проверку queued jobs в БД (polling fallback)
//   - Выполнение job в зависимости от стадии (transcribe, extract)
//   - Retry с exponential backoff при ошибках
//   - Отправку результата обратно в очередь jobs.completed
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди jobs.ready.
//
// # Ключевые компоненты
//
// ## Worker
//
// Основная структура, управляющая жизненным циклом.
// Создаётся через New(cfg Config) и запускается методом Start(ctx).
//
//	w := worker.New(worker.Config{
//	    JobRepo:   jobRepo,
//	    CallRepo:  callRepo,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## Executor
//
// Интерфейс для выполнения конкретной стадии:
//
//	type Executor interface {
//	    Execute(ctx context.Context, job *domain.ProcessingJob) (*ExecutionResult, error)
//	}
//
// Реализации:
//   - TranscribeExecutor — скачивает запись у телефонии и отправляет на транскрипцию
//   - ExtractExecutor — извлекает структурированные поля из расшифровки
//
// ## Registry
//
// Реестр executor'ов по стадии. NewRegistry(cfg) создаёт реестр
// с предустановленными executor'ами (transcribe, extract).
//
// # Обработка job
//
//  1. Получение job (из очереди или polling)
//  2. Загрузка job из БД, проверка статуса QUEUED
//  3. Перевод в RUNNING, инкремент Attempt
//  4. Выполнение через executeWithRetry
//  5. Успех → MarkSucceeded, publish job.completed(SUCCEEDED)
//  6. Ошибка → MarkFailed, publish job.completed(FAILED)
//
// Worker не трогает статус звонка и не пишет Transcript/Extraction —
// это делает pipeline по событию job.completed. Worker только
// выполняет работу и сохраняет outputs на job.
//
// # Retry
//
// Retry выполняется в процессе (in-process), а не через requeue в RabbitMQ.
// Это даёт точный контроль над backoff и подсчётом попыток.
//
// delay = initialDelay * 2^(attempt-1), с ограничением maxDelay.
//
// # Ошибки
//
// Пакет различает два уровня ошибок:
//   - Инфраструктурные (error от Execute) — сеть упала, DNS не резолвится
//   - Логические (ExecutionResult.Error) — провайдер вернул отказ
//
// Оба уровня retriable: AI-провайдер и телефония сбоят одинаково
// переходяще.
package worker
