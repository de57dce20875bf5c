package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/billing"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/telemetry"
)

var decimalHundred = decimal.NewFromInt(100)

// Scheduler — планировщик периодических задач обслуживания.
type Scheduler struct {
	callRepo     *repo.CallRepo
	usageRepo    *repo.UsageRepo
	referralRepo *repo.ReferralRepo
	billing      *billing.Service
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	CallRepo     *repo.CallRepo
	UsageRepo    *repo.UsageRepo
	ReferralRepo *repo.ReferralRepo
	Billing      *billing.Service
	Logger       *slog.Logger
	BatchSize    int // количество записей за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		callRepo:     cfg.CallRepo,
		usageRepo:    cfg.UsageRepo,
		referralRepo: cfg.ReferralRepo,
		billing:      cfg.Billing,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Снимает просроченные processing locks
// 2. Закрывает периоды закончившихся месяцев
// 3. Передаёт закрытые периоды в биллинг
// 4. Выплачивает due комиссии
//
// Ошибки одного шага не блокируют остальные.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	if err := s.reapExpiredLocks(ctx, now); err != nil {
		s.logger.Error("failed to reap expired locks", "error", err)
	}

	if err := s.closeEndedPeriods(ctx, now); err != nil {
		s.logger.Error("failed to close ended periods", "error", err)
	}

	if err := s.settleClosedPeriods(ctx); err != nil {
		s.logger.Error("failed to settle closed periods", "error", err)
	}

	if err := s.settleDueCommissions(ctx, now); err != nil {
		s.logger.Error("failed to settle due commissions", "error", err)
	}

	return nil
}

// reapExpiredLocks снимает просроченные processing locks.
// Звонок с просроченным lock считается зависшим: помечается FAILED,
// его оценочные минуты перестают резервировать лимит периода.
func (s *Scheduler) reapExpiredLocks(ctx context.Context, now time.Time) error {
	locks, err := s.usageRepo.ListExpiredLocks(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list expired locks: %w", err)
	}

	for i := range locks {
		lock := &locks[i]

		call, err := s.callRepo.GetByID(ctx, lock.CallID)
		if err != nil {
			s.logger.Error("failed to load call for expired lock",
				"call_id", lock.CallID,
				"error", err,
			)
			continue
		}

		if !call.IsFinished() {
			call.MarkFailed("processing lock expired")
			if err := s.callRepo.Update(ctx, call); err != nil {
				s.logger.Error("failed to fail stuck call",
					"call_id", call.ID,
					"error", err,
				)
				continue
			}
		}

		if err := s.usageRepo.ReleaseLock(ctx, lock.CallID); err != nil {
			s.logger.Error("failed to release expired lock",
				"call_id", lock.CallID,
				"error", err,
			)
			continue
		}

		telemetry.LocksReaped.Inc()

		s.logger.Warn("expired lock reaped",
			"call_id", lock.CallID,
			"org_id", lock.OrgID,
			"acquired_at", lock.AcquiredAt,
		)
	}

	return nil
}

// closeEndedPeriods закрывает OPEN периоды закончившихся месяцев.
func (s *Scheduler) closeEndedPeriods(ctx context.Context, now time.Time) error {
	periods, err := s.usageRepo.ListOpenEndedPeriods(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list open ended periods: %w", err)
	}

	for i := range periods {
		period := &periods[i]

		period.Close()
		if err := s.usageRepo.UpdatePeriod(ctx, period); err != nil {
			s.logger.Error("failed to close period",
				"period_id", period.ID,
				"org_id", period.OrgID,
				"error", err,
			)
			continue
		}

		s.logger.Info("period closed",
			"period_id", period.ID,
			"org_id", period.OrgID,
			"month", period.Month.Format("2006-01"),
			"used_minutes", period.UsedMinutes,
			"overage_charge", period.OverageCharge.StringFixed(2),
		)
	}

	return nil
}

// settleClosedPeriods передаёт закрытые периоды в биллинг.
func (s *Scheduler) settleClosedPeriods(ctx context.Context) error {
	periods, err := s.usageRepo.ListClosedUnsettled(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("list closed unsettled periods: %w", err)
	}

	for i := range periods {
		period := &periods[i]

		if err := s.billing.SettlePeriod(ctx, period); err != nil {
			s.logger.Error("failed to settle period",
				"period_id", period.ID,
				"org_id", period.OrgID,
				"error", err,
			)
			// Не закрываем дорогу остальным: шлюз мог отклонить одну карту
			continue
		}

		telemetry.PeriodsSettled.Inc()
		if !period.OverageCharge.IsZero() {
			cents, _ := period.OverageCharge.Mul(decimalHundred).Float64()
			telemetry.OverageChargesTotal.Add(cents)
		}
	}

	return nil
}

// settleDueCommissions выплачивает комиссии с наступившим сроком.
func (s *Scheduler) settleDueCommissions(ctx context.Context, now time.Time) error {
	commissions, err := s.referralRepo.ListDueCommissions(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due commissions: %w", err)
	}

	for i := range commissions {
		c := &commissions[i]

		if err := s.billing.SettleCommission(ctx, c); err != nil {
			s.logger.Error("failed to settle commission",
				"commission_id", c.ID,
				"partner_org_id", c.PartnerOrgID,
				"error", err,
			)
			continue
		}
	}

	return nil
}
