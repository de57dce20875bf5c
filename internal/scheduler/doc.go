// Package scheduler реализует периодические задачи обслуживания.
//
// Scheduler каждый тик:
//   - снимает просроченные processing locks (упавшие воркеры)
//   - закрывает расчётные периоды по окончании месяца
//   - передаёт закрытые периоды с overage в биллинг
//   - выплачивает due партнёрские комиссии
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Tick и шаги тика)
//   - cron.go      — парсинг cron-выражений расписаний выплат
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    CallRepo:     callRepo,
//	    UsageRepo:    usageRepo,
//	    ReferralRepo: referralRepo,
//	    Billing:      billingService,
//	    Logger:       logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в минуту)
//	if err := sched.Tick(ctx); err != nil {
//	    logger.Error("scheduler tick failed", "error", err)
//	}
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package scheduler
