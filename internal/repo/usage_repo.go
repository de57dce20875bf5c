package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shopspring/decimal"
)

// UsageRepo — репозиторий для работы с usage periods и processing locks.
type UsageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo создаёт новый UsageRepo.
func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

const periodColumns = `id, org_id, month, included_minutes, used_minutes, overage_minutes,
	       overage_charge, status, settled_payment_ref, created_at, updated_at`

// CreatePeriod создаёт новый расчётный период.
func (r *UsageRepo) CreatePeriod(ctx context.Context, p *domain.UsagePeriod) error {
	query := `
		INSERT INTO usage_periods (id, org_id, month, included_minutes, used_minutes,
		                           overage_minutes, overage_charge, status, settled_payment_ref,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.OrgID,
		p.Month,
		p.IncludedMinutes,
		p.UsedMinutes,
		p.OverageMinutes,
		p.OverageCharge,
		p.Status,
		nullString(p.SettledPaymentRef),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert usage period: %w", err)
	}
	return nil
}

// GetPeriod возвращает период организации за месяц.
func (r *UsageRepo) GetPeriod(ctx context.Context, orgID uuid.UUID, month time.Time) (*domain.UsagePeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM usage_periods WHERE org_id = $1 AND month = $2`
	return r.scanPeriod(r.pool.QueryRow(ctx, query, orgID, month))
}

// GetOrCreateCurrentPeriod возвращает период текущего месяца,
// создавая его при первом обращении (лимит плана фиксируется снимком).
func (r *UsageRepo) GetOrCreateCurrentPeriod(ctx context.Context, org *domain.Organization, now time.Time) (*domain.UsagePeriod, error) {
	month := domain.MonthOf(now)

	period, err := r.GetPeriod(ctx, org.ID, month)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	plan := domain.PlanByID(org.PlanID)
	period = &domain.UsagePeriod{
		ID:              uuid.New(),
		OrgID:           org.ID,
		Month:           month,
		IncludedMinutes: plan.IncludedMinutes,
		OverageCharge:   decimal.Zero,
		Status:          domain.PeriodStatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.CreatePeriod(ctx, period); err != nil {
		// Параллельный запрос мог создать период первым
		if errors.Is(err, ErrAlreadyExists) {
			return r.GetPeriod(ctx, org.ID, month)
		}
		return nil, err
	}
	return period, nil
}

// ListPeriods возвращает историю периодов организации.
func (r *UsageRepo) ListPeriods(ctx context.Context, orgID uuid.UUID, limit int) ([]domain.UsagePeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM usage_periods
		WHERE org_id = $1
		ORDER BY month DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage periods: %w", err)
	}
	defer rows.Close()

	return r.collectPeriods(rows)
}

// ListOpenEndedPeriods возвращает OPEN периоды, чей месяц уже закончился.
// Используется scheduler'ом для закрытия.
func (r *UsageRepo) ListOpenEndedPeriods(ctx context.Context, now time.Time, limit int) ([]domain.UsagePeriod, error) {
	month := domain.MonthOf(now)
	query := `
		SELECT ` + periodColumns + `
		FROM usage_periods
		WHERE status = 'OPEN' AND month < $1
		ORDER BY month ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, month, limit)
	if err != nil {
		return nil, fmt.Errorf("list open ended periods: %w", err)
	}
	defer rows.Close()

	return r.collectPeriods(rows)
}

// ListClosedUnsettled возвращает CLOSED периоды, ожидающие settlement.
// Используется scheduler'ом: периоды без overage биллинг помечает
// SETTLED без обращения к шлюзу.
func (r *UsageRepo) ListClosedUnsettled(ctx context.Context, limit int) ([]domain.UsagePeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM usage_periods
		WHERE status = 'CLOSED'
		ORDER BY month ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list closed periods: %w", err)
	}
	defer rows.Close()

	return r.collectPeriods(rows)
}

// UpdatePeriod обновляет счётчики периода.
func (r *UsageRepo) UpdatePeriod(ctx context.Context, p *domain.UsagePeriod) error {
	query := `
		UPDATE usage_periods
		SET used_minutes = $2, overage_minutes = $3, overage_charge = $4,
		    status = $5, settled_payment_ref = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.UsedMinutes,
		p.OverageMinutes,
		p.OverageCharge,
		p.Status,
		nullString(p.SettledPaymentRef),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update usage period: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Processing locks ---

// AcquireLock вставляет processing lock для звонка.
// Уникальность call_id гарантирует один lock на звонок.
func (r *UsageRepo) AcquireLock(ctx context.Context, lock *domain.ProcessingLock) error {
	query := `
		INSERT INTO processing_locks (id, call_id, org_id, estimated_minutes, acquired_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		lock.ID,
		lock.CallID,
		lock.OrgID,
		lock.EstimatedMinutes,
		lock.AcquiredAt,
		lock.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	return nil
}

// ReleaseLock удаляет lock звонка. Отсутствие lock — не ошибка:
// он мог быть снят reaper'ом.
func (r *UsageRepo) ReleaseLock(ctx context.Context, callID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM processing_locks WHERE call_id = $1`, callID)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// PendingMinutes возвращает сумму зарезервированных минут организации
// по непросроченным locks.
func (r *UsageRepo) PendingMinutes(ctx context.Context, orgID uuid.UUID, now time.Time) (int, error) {
	var minutes int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(estimated_minutes), 0)
		FROM processing_locks
		WHERE org_id = $1 AND expires_at > $2
	`, orgID, now).Scan(&minutes)
	if err != nil {
		return 0, fmt.Errorf("sum pending minutes: %w", err)
	}
	return minutes, nil
}

// ListExpiredLocks возвращает просроченные locks (для reaper'а).
func (r *UsageRepo) ListExpiredLocks(ctx context.Context, now time.Time, limit int) ([]domain.ProcessingLock, error) {
	query := `
		SELECT id, call_id, org_id, estimated_minutes, acquired_at, expires_at
		FROM processing_locks
		WHERE expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired locks: %w", err)
	}
	defer rows.Close()

	var locks []domain.ProcessingLock
	for rows.Next() {
		var l domain.ProcessingLock
		if err := rows.Scan(&l.ID, &l.CallID, &l.OrgID, &l.EstimatedMinutes, &l.AcquiredAt, &l.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		locks = append(locks, l)
	}
	return locks, rows.Err()
}

// --- Helpers ---

func (r *UsageRepo) scanPeriod(row pgx.Row) (*domain.UsagePeriod, error) {
	p, err := scanPeriodRow(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *UsageRepo) collectPeriods(rows pgx.Rows) ([]domain.UsagePeriod, error) {
	var periods []domain.UsagePeriod
	for rows.Next() {
		p, err := scanPeriodRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func scanPeriodRow(scan func(dest ...any) error) (*domain.UsagePeriod, error) {
	var p domain.UsagePeriod
	var chargeStr string
	var settledRef *string

	err := scan(
		&p.ID,
		&p.OrgID,
		&p.Month,
		&p.IncludedMinutes,
		&p.UsedMinutes,
		&p.OverageMinutes,
		&chargeStr,
		&p.Status,
		&settledRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan usage period: %w", err)
	}

	charge, err := decimal.NewFromString(chargeStr)
	if err != nil {
		return nil, fmt.Errorf("parse overage charge: %w", err)
	}
	p.OverageCharge = charge

	if settledRef != nil {
		p.SettledPaymentRef = *settledRef
	}
	return &p, nil
}
