package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shopspring/decimal"
)

// RateConfRepo — репозиторий для работы с rate confirmations.
type RateConfRepo struct {
	pool *pgxpool.Pool
}

// NewRateConfRepo создаёт новый RateConfRepo.
func NewRateConfRepo(pool *pgxpool.Pool) *RateConfRepo {
	return &RateConfRepo{pool: pool}
}

const rateConfColumns = `id, org_id, load_id, carrier_id, number, rate, terms, status,
	       signature_token, sent_at, signed_at, signer_name, signer_ip, created_at, updated_at`

// Create создаёт новый rate confirmation.
func (r *RateConfRepo) Create(ctx context.Context, rc *domain.RateConfirmation) error {
	query := `
		INSERT INTO rate_confirmations (id, org_id, load_id, carrier_id, number, rate, terms, status,
		                                signature_token, sent_at, signed_at, signer_name, signer_ip,
		                                created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.pool.Exec(ctx, query,
		rc.ID,
		rc.OrgID,
		rc.LoadID,
		rc.CarrierID,
		rc.Number,
		rc.Rate,
		nullString(rc.Terms),
		rc.Status,
		rc.SignatureToken,
		rc.SentAt,
		rc.SignedAt,
		nullString(rc.SignerName),
		nullString(rc.SignerIP),
		rc.CreatedAt,
		rc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert rate confirmation: %w", err)
	}
	return nil
}

// GetByID возвращает rate confirmation организации по ID.
func (r *RateConfRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.RateConfirmation, error) {
	query := `SELECT ` + rateConfColumns + ` FROM rate_confirmations WHERE id = $1 AND org_id = $2`
	return r.scanRateConf(r.pool.QueryRow(ctx, query, id, orgID))
}

// GetByToken возвращает rate confirmation по signature token.
// Публичный путь подписи: организация неизвестна.
func (r *RateConfRepo) GetByToken(ctx context.Context, token string) (*domain.RateConfirmation, error) {
	query := `SELECT ` + rateConfColumns + ` FROM rate_confirmations WHERE signature_token = $1`
	return r.scanRateConf(r.pool.QueryRow(ctx, query, token))
}

// List возвращает rate confirmations организации.
func (r *RateConfRepo) List(ctx context.Context, orgID uuid.UUID, status domain.RateConfStatus, limit, offset int) ([]domain.RateConfirmation, error) {
	query := `
		SELECT ` + rateConfColumns + `
		FROM rate_confirmations
		WHERE org_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, orgID, nullString(string(status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rate confirmations: %w", err)
	}
	defer rows.Close()

	var confs []domain.RateConfirmation
	for rows.Next() {
		rc, err := r.scanRateConfFromRows(rows)
		if err != nil {
			return nil, err
		}
		confs = append(confs, *rc)
	}
	return confs, rows.Err()
}

// Update обновляет rate confirmation.
func (r *RateConfRepo) Update(ctx context.Context, rc *domain.RateConfirmation) error {
	query := `
		UPDATE rate_confirmations
		SET rate = $2, terms = $3, status = $4, sent_at = $5, signed_at = $6,
		    signer_name = $7, signer_ip = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		rc.ID,
		rc.Rate,
		nullString(rc.Terms),
		rc.Status,
		rc.SentAt,
		rc.SignedAt,
		nullString(rc.SignerName),
		nullString(rc.SignerIP),
		rc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update rate confirmation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextNumber возвращает следующий порядковый номер документа для организации.
func (r *RateConfRepo) NextNumber(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rate_confirmations WHERE org_id = $1`, orgID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rate confirmations: %w", err)
	}
	return count + 1, nil
}

// --- Helpers ---

func (r *RateConfRepo) scanRateConf(row pgx.Row) (*domain.RateConfirmation, error) {
	rc, err := scanRateConfRow(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (r *RateConfRepo) scanRateConfFromRows(rows pgx.Rows) (*domain.RateConfirmation, error) {
	return scanRateConfRow(rows.Scan)
}

func scanRateConfRow(scan func(dest ...any) error) (*domain.RateConfirmation, error) {
	var rc domain.RateConfirmation
	var rateStr string
	var terms, signerName, signerIP *string

	err := scan(
		&rc.ID,
		&rc.OrgID,
		&rc.LoadID,
		&rc.CarrierID,
		&rc.Number,
		&rateStr,
		&terms,
		&rc.Status,
		&rc.SignatureToken,
		&rc.SentAt,
		&rc.SignedAt,
		&signerName,
		&signerIP,
		&rc.CreatedAt,
		&rc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan rate confirmation: %w", err)
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("parse rate: %w", err)
	}
	rc.Rate = rate

	if terms != nil {
		rc.Terms = *terms
	}
	if signerName != nil {
		rc.SignerName = *signerName
	}
	if signerIP != nil {
		rc.SignerIP = *signerIP
	}
	return &rc, nil
}
