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

// ReferralRepo — репозиторий для работы с referrals и commissions.
type ReferralRepo struct {
	pool *pgxpool.Pool
}

// NewReferralRepo создаёт новый ReferralRepo.
func NewReferralRepo(pool *pgxpool.Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

// CreateReferral создаёт новое приглашение.
func (r *ReferralRepo) CreateReferral(ctx context.Context, ref *domain.Referral) error {
	query := `
		INSERT INTO referrals (id, org_id, code, referred_email, status, converted_org_id, converted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		ref.ID,
		ref.OrgID,
		ref.Code,
		ref.ReferredEmail,
		ref.Status,
		nullUUID(ref.ConvertedOrgID),
		ref.ConvertedAt,
		ref.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

// GetReferralByID возвращает referral по ID.
func (r *ReferralRepo) GetReferralByID(ctx context.Context, id uuid.UUID) (*domain.Referral, error) {
	query := `
		SELECT id, org_id, code, referred_email, status, converted_org_id, converted_at, created_at
		FROM referrals
		WHERE id = $1
	`
	return r.scanReferral(r.pool.QueryRow(ctx, query, id))
}

// GetPendingByEmail возвращает PENDING referral по email приглашённого.
// Используется при конверсии: регистрация по реферальному коду.
func (r *ReferralRepo) GetPendingByEmail(ctx context.Context, code, email string) (*domain.Referral, error) {
	query := `
		SELECT id, org_id, code, referred_email, status, converted_org_id, converted_at, created_at
		FROM referrals
		WHERE code = $1 AND referred_email = $2 AND status = 'PENDING'
	`
	return r.scanReferral(r.pool.QueryRow(ctx, query, code, email))
}

// GetConvertedByOrgID возвращает referral, по которому была создана
// организация orgID. Используется при начислении комиссии после оплаты
// первого счёта.
func (r *ReferralRepo) GetConvertedByOrgID(ctx context.Context, orgID uuid.UUID) (*domain.Referral, error) {
	query := `
		SELECT id, org_id, code, referred_email, status, converted_org_id, converted_at, created_at
		FROM referrals
		WHERE converted_org_id = $1 AND status = 'CONVERTED'
	`
	return r.scanReferral(r.pool.QueryRow(ctx, query, orgID))
}

// ListReferrals возвращает приглашения организации.
func (r *ReferralRepo) ListReferrals(ctx context.Context, orgID uuid.UUID) ([]domain.Referral, error) {
	query := `
		SELECT id, org_id, code, referred_email, status, converted_org_id, converted_at, created_at
		FROM referrals
		WHERE org_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	var refs []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.ID, &ref.OrgID, &ref.Code, &ref.ReferredEmail, &ref.Status, &ref.ConvertedOrgID, &ref.ConvertedAt, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// UpdateReferral обновляет referral.
func (r *ReferralRepo) UpdateReferral(ctx context.Context, ref *domain.Referral) error {
	query := `
		UPDATE referrals
		SET status = $2, converted_org_id = $3, converted_at = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		ref.ID,
		ref.Status,
		nullUUID(ref.ConvertedOrgID),
		ref.ConvertedAt,
	)
	if err != nil {
		return fmt.Errorf("update referral: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Commissions ---

// CreateCommission начисляет комиссию. Повторное начисление по тому же
// referral возвращает ErrAlreadyExists (идемпотентность webhook'ов).
func (r *ReferralRepo) CreateCommission(ctx context.Context, c *domain.Commission) error {
	query := `
		INSERT INTO commissions (id, partner_org_id, referral_id, amount, status,
		                         payout_schedule, due_at, settled_at, payout_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.PartnerOrgID,
		c.ReferralID,
		c.Amount,
		c.Status,
		c.PayoutSchedule,
		c.DueAt,
		c.SettledAt,
		nullString(c.PayoutRef),
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert commission: %w", err)
	}
	return nil
}

// ListCommissions возвращает комиссии партнёра.
func (r *ReferralRepo) ListCommissions(ctx context.Context, partnerOrgID uuid.UUID) ([]domain.Commission, error) {
	query := `
		SELECT id, partner_org_id, referral_id, amount, status, payout_schedule,
		       due_at, settled_at, payout_ref, created_at
		FROM commissions
		WHERE partner_org_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, partnerOrgID)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	defer rows.Close()

	return r.collectCommissions(rows)
}

// ListDueCommissions возвращает PENDING комиссии с due_at <= now.
// Используется scheduler'ом для выплат.
func (r *ReferralRepo) ListDueCommissions(ctx context.Context, now time.Time, limit int) ([]domain.Commission, error) {
	query := `
		SELECT id, partner_org_id, referral_id, amount, status, payout_schedule,
		       due_at, settled_at, payout_ref, created_at
		FROM commissions
		WHERE status = 'PENDING' AND due_at IS NOT NULL AND due_at <= $1
		ORDER BY due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due commissions: %w", err)
	}
	defer rows.Close()

	return r.collectCommissions(rows)
}

// UpdateCommission обновляет комиссию.
func (r *ReferralRepo) UpdateCommission(ctx context.Context, c *domain.Commission) error {
	query := `
		UPDATE commissions
		SET status = $2, due_at = $3, settled_at = $4, payout_ref = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Status,
		c.DueAt,
		c.SettledAt,
		nullString(c.PayoutRef),
	)
	if err != nil {
		return fmt.Errorf("update commission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *ReferralRepo) scanReferral(row pgx.Row) (*domain.Referral, error) {
	var ref domain.Referral

	err := row.Scan(
		&ref.ID,
		&ref.OrgID,
		&ref.Code,
		&ref.ReferredEmail,
		&ref.Status,
		&ref.ConvertedOrgID,
		&ref.ConvertedAt,
		&ref.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan referral: %w", err)
	}
	return &ref, nil
}

func (r *ReferralRepo) collectCommissions(rows pgx.Rows) ([]domain.Commission, error) {
	var commissions []domain.Commission
	for rows.Next() {
		var c domain.Commission
		var amountStr string
		var payoutRef *string

		err := rows.Scan(
			&c.ID,
			&c.PartnerOrgID,
			&c.ReferralID,
			&amountStr,
			&c.Status,
			&c.PayoutSchedule,
			&c.DueAt,
			&c.SettledAt,
			&payoutRef,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan commission: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse commission amount: %w", err)
		}
		c.Amount = amount

		if payoutRef != nil {
			c.PayoutRef = *payoutRef
		}
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}
