package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shopspring/decimal"
)

// Лимиты overage.
var (
	// ChargeCap — максимальная сумма overage за период.
	ChargeCap = decimal.RequireFromString("20.00")

	// OverageMinutesCap — максимальное число минут сверх плана за период.
	OverageMinutesCap = 100
)

// LockTTL — время жизни processing lock.
// Обработка звонка занимает минуты; зависший дольше TTL lock
// считается потерянным и снимается reaper'ом.
const LockTTL = 30 * time.Minute

// Decision — результат проверки admission.
type Decision struct {
	// Allowed — можно ли обрабатывать звонок.
	Allowed bool `json:"allowed"`

	// Reason — человекочитаемая причина отказа (пустая при Allowed).
	Reason string `json:"reason,omitempty"`

	// UsedMinutes — фактически обработанные минуты периода.
	UsedMinutes int `json:"used_minutes"`

	// IncludedMinutes — лимит плана (снимок периода).
	IncludedMinutes int `json:"included_minutes"`

	// PendingMinutes — минуты, зарезервированные in-flight обработкой.
	PendingMinutes int `json:"pending_minutes"`

	// EstimatedMinutes — оценка нового звонка.
	EstimatedMinutes int `json:"estimated_minutes"`

	// ProjectedUsedMinutes — used + pending + estimate.
	ProjectedUsedMinutes int `json:"projected_used_minutes"`

	// ProjectedOverageMinutes — минуты сверх лимита в проекции.
	ProjectedOverageMinutes int `json:"projected_overage_minutes"`

	// ProjectedCharge — сумма overage в проекции.
	ProjectedCharge decimal.Decimal `json:"projected_charge"`
}

// Evaluate вычисляет решение admission. Чистая функция без I/O.
//
// projected = used + pending + estimate
// overage   = max(0, projected - included)
// charge    = overage × rate
//
// Отказ: charge > ChargeCap или overage > OverageMinutesCap.
func Evaluate(period *domain.UsagePeriod, plan domain.Plan, pendingMinutes, estimateMinutes int) Decision {
	projected := period.UsedMinutes + pendingMinutes + estimateMinutes

	overage := projected - period.IncludedMinutes
	if overage < 0 {
		overage = 0
	}

	charge := plan.OverageRatePerMinute.Mul(decimal.NewFromInt(int64(overage))).Round(2)

	d := Decision{
		Allowed:                 true,
		UsedMinutes:             period.UsedMinutes,
		IncludedMinutes:         period.IncludedMinutes,
		PendingMinutes:          pendingMinutes,
		EstimatedMinutes:        estimateMinutes,
		ProjectedUsedMinutes:    projected,
		ProjectedOverageMinutes: overage,
		ProjectedCharge:         charge,
	}

	if overage > OverageMinutesCap {
		d.Allowed = false
		d.Reason = fmt.Sprintf("projected overage %d minutes exceeds the %d minute cap", overage, OverageMinutesCap)
		return d
	}

	if charge.GreaterThan(ChargeCap) {
		d.Allowed = false
		d.Reason = fmt.Sprintf("projected overage charge $%s exceeds the $%s cap", charge.StringFixed(2), ChargeCap.StringFixed(2))
		return d
	}

	return d
}

// Guard — admission guard, связывающий Evaluate с хранилищем.
type Guard struct {
	orgRepo   *repo.OrgRepo
	usageRepo *repo.UsageRepo
	logger    *slog.Logger
}

// NewGuard создаёт новый Guard.
func NewGuard(orgRepo *repo.OrgRepo, usageRepo *repo.UsageRepo, logger *slog.Logger) *Guard {
	return &Guard{
		orgRepo:   orgRepo,
		usageRepo: usageRepo,
		logger:    logger,
	}
}

// Check выполняет read-only проверку admission для организации.
func (g *Guard) Check(ctx context.Context, orgID uuid.UUID, estimateMinutes int) (Decision, error) {
	now := time.Now()

	org, err := g.orgRepo.GetOrgByID(ctx, orgID)
	if err != nil {
		return Decision{}, fmt.Errorf("get organization: %w", err)
	}

	period, err := g.usageRepo.GetOrCreateCurrentPeriod(ctx, org, now)
	if err != nil {
		return Decision{}, fmt.Errorf("get current period: %w", err)
	}

	pending, err := g.usageRepo.PendingMinutes(ctx, orgID, now)
	if err != nil {
		return Decision{}, fmt.Errorf("pending minutes: %w", err)
	}

	return Evaluate(period, domain.PlanByID(org.PlanID), pending, estimateMinutes), nil
}

// Admit проверяет admission и при положительном решении захватывает
// processing lock на звонок. Lock резервирует оценочные минуты
// до Reconcile (или до истечения TTL).
func (g *Guard) Admit(ctx context.Context, call *domain.Call) (Decision, error) {
	estimate := call.BillableMinutes()

	decision, err := g.Check(ctx, call.OrgID, estimate)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		return decision, nil
	}

	now := time.Now()
	lock := &domain.ProcessingLock{
		ID:               uuid.New(),
		CallID:           call.ID,
		OrgID:            call.OrgID,
		EstimatedMinutes: estimate,
		AcquiredAt:       now,
		ExpiresAt:        now.Add(LockTTL),
	}

	if err := g.usageRepo.AcquireLock(ctx, lock); err != nil {
		return Decision{}, fmt.Errorf("acquire lock: %w", err)
	}

	g.logger.Info("call admitted",
		"call_id", call.ID,
		"org_id", call.OrgID,
		"estimate_minutes", estimate,
		"projected_used", decision.ProjectedUsedMinutes,
		"projected_charge", decision.ProjectedCharge.StringFixed(2),
	)

	return decision, nil
}

// Reconcile учитывает фактические минуты завершённого звонка в периоде
// и снимает lock. Начисление на уровне периода ограничено ChargeCap:
// даже если фактические минуты превысили оценку, инвариант
// "admit ⇒ charge ≤ cap" сохраняется.
func (g *Guard) Reconcile(ctx context.Context, call *domain.Call, actualMinutes int) error {
	now := time.Now()

	org, err := g.orgRepo.GetOrgByID(ctx, call.OrgID)
	if err != nil {
		return fmt.Errorf("get organization: %w", err)
	}

	period, err := g.usageRepo.GetOrCreateCurrentPeriod(ctx, org, now)
	if err != nil {
		return fmt.Errorf("get current period: %w", err)
	}

	ApplyUsage(period, actualMinutes, domain.PlanByID(org.PlanID).OverageRatePerMinute)
	period.UpdatedAt = now

	if err := g.usageRepo.UpdatePeriod(ctx, period); err != nil {
		return fmt.Errorf("update period: %w", err)
	}

	if err := g.usageRepo.ReleaseLock(ctx, call.ID); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	g.logger.Info("usage reconciled",
		"call_id", call.ID,
		"org_id", call.OrgID,
		"actual_minutes", actualMinutes,
		"used_minutes", period.UsedMinutes,
		"overage_charge", period.OverageCharge.StringFixed(2),
	)

	return nil
}

// Release снимает lock без учёта минут (обработка не состоялась).
func (g *Guard) Release(ctx context.Context, callID uuid.UUID) error {
	return g.usageRepo.ReleaseLock(ctx, callID)
}

// ApplyUsage добавляет фактические минуты в период и пересчитывает
// overage. Charge ограничен ChargeCap.
func ApplyUsage(period *domain.UsagePeriod, minutes int, rate decimal.Decimal) {
	period.UsedMinutes += minutes

	overage := period.UsedMinutes - period.IncludedMinutes
	if overage < 0 {
		overage = 0
	}
	period.OverageMinutes = overage

	charge := rate.Mul(decimal.NewFromInt(int64(overage))).Round(2)
	if charge.GreaterThan(ChargeCap) {
		charge = ChargeCap
	}
	period.OverageCharge = charge
}
