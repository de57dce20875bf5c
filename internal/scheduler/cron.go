package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPayoutSchedule — расписание выплат по умолчанию:
// первое число каждого месяца в 09:00 UTC.
const DefaultPayoutSchedule = "0 9 1 * *"

// cronParser — парсер cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextPayout вычисляет следующее время выплаты по cron-выражению.
// Пустое выражение трактуется как DefaultPayoutSchedule.
func NextPayout(cronExpr string, from time.Time) (time.Time, error) {
	if cronExpr == "" {
		cronExpr = DefaultPayoutSchedule
	}

	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	return schedule.Next(from).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
