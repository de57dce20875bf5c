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

// CRMRepo — репозиторий для работы с carriers и loads.
type CRMRepo struct {
	pool *pgxpool.Pool
}

// NewCRMRepo создаёт новый CRMRepo.
func NewCRMRepo(pool *pgxpool.Pool) *CRMRepo {
	return &CRMRepo{pool: pool}
}

// --- Carriers ---

// CreateCarrier создаёт нового перевозчика.
func (r *CRMRepo) CreateCarrier(ctx context.Context, c *domain.Carrier) error {
	query := `
		INSERT INTO carriers (id, org_id, name, mc_number, contact_email, contact_phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OrgID,
		c.Name,
		nullString(c.MCNumber),
		nullString(c.ContactEmail),
		nullString(c.ContactPhone),
		c.Status,
		c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert carrier: %w", err)
	}
	return nil
}

// GetCarrier возвращает перевозчика организации по ID.
func (r *CRMRepo) GetCarrier(ctx context.Context, orgID, id uuid.UUID) (*domain.Carrier, error) {
	query := `
		SELECT id, org_id, name, mc_number, contact_email, contact_phone, status, created_at
		FROM carriers
		WHERE id = $1 AND org_id = $2
	`
	return r.scanCarrier(r.pool.QueryRow(ctx, query, id, orgID))
}

// ListCarriers возвращает перевозчиков организации.
func (r *CRMRepo) ListCarriers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.Carrier, error) {
	query := `
		SELECT id, org_id, name, mc_number, contact_email, contact_phone, status, created_at
		FROM carriers
		WHERE org_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list carriers: %w", err)
	}
	defer rows.Close()

	var carriers []domain.Carrier
	for rows.Next() {
		var c domain.Carrier
		var mcNumber, email, phone *string
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &mcNumber, &email, &phone, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		applyCarrierNulls(&c, mcNumber, email, phone)
		carriers = append(carriers, c)
	}
	return carriers, rows.Err()
}

// UpdateCarrier обновляет перевозчика.
func (r *CRMRepo) UpdateCarrier(ctx context.Context, c *domain.Carrier) error {
	query := `
		UPDATE carriers
		SET name = $3, mc_number = $4, contact_email = $5, contact_phone = $6, status = $7
		WHERE id = $1 AND org_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OrgID,
		c.Name,
		nullString(c.MCNumber),
		nullString(c.ContactEmail),
		nullString(c.ContactPhone),
		c.Status,
	)
	if err != nil {
		return fmt.Errorf("update carrier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCarrier удаляет перевозчика.
func (r *CRMRepo) DeleteCarrier(ctx context.Context, orgID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM carriers WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete carrier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Loads ---

// CreateLoad создаёт новый груз.
func (r *CRMRepo) CreateLoad(ctx context.Context, l *domain.Load) error {
	query := `
		INSERT INTO loads (id, org_id, carrier_id, reference, origin, destination, pickup_date, rate, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		l.ID,
		l.OrgID,
		nullUUID(l.CarrierID),
		l.Reference,
		l.Origin,
		l.Destination,
		l.PickupDate,
		l.Rate,
		l.Status,
		l.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert load: %w", err)
	}
	return nil
}

// GetLoad возвращает груз организации по ID.
func (r *CRMRepo) GetLoad(ctx context.Context, orgID, id uuid.UUID) (*domain.Load, error) {
	query := `
		SELECT id, org_id, carrier_id, reference, origin, destination, pickup_date, rate, status, created_at
		FROM loads
		WHERE id = $1 AND org_id = $2
	`
	return r.scanLoad(r.pool.QueryRow(ctx, query, id, orgID))
}

// ListLoads возвращает грузы организации.
func (r *CRMRepo) ListLoads(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]domain.Load, error) {
	query := `
		SELECT id, org_id, carrier_id, reference, origin, destination, pickup_date, rate, status, created_at
		FROM loads
		WHERE org_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, orgID, nullString(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}
	defer rows.Close()

	var loads []domain.Load
	for rows.Next() {
		var l domain.Load
		var rateStr string
		if err := rows.Scan(&l.ID, &l.OrgID, &l.CarrierID, &l.Reference, &l.Origin, &l.Destination, &l.PickupDate, &rateStr, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("parse load rate: %w", err)
		}
		l.Rate = rate
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

// UpdateLoad обновляет груз.
func (r *CRMRepo) UpdateLoad(ctx context.Context, l *domain.Load) error {
	query := `
		UPDATE loads
		SET carrier_id = $3, reference = $4, origin = $5, destination = $6,
		    pickup_date = $7, rate = $8, status = $9
		WHERE id = $1 AND org_id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		l.ID,
		l.OrgID,
		nullUUID(l.CarrierID),
		l.Reference,
		l.Origin,
		l.Destination,
		l.PickupDate,
		l.Rate,
		l.Status,
	)
	if err != nil {
		return fmt.Errorf("update load: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLoad удаляет груз.
func (r *CRMRepo) DeleteLoad(ctx context.Context, orgID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM loads WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete load: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *CRMRepo) scanCarrier(row pgx.Row) (*domain.Carrier, error) {
	var c domain.Carrier
	var mcNumber, email, phone *string

	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &mcNumber, &email, &phone, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan carrier: %w", err)
	}

	applyCarrierNulls(&c, mcNumber, email, phone)
	return &c, nil
}

func applyCarrierNulls(c *domain.Carrier, mcNumber, email, phone *string) {
	if mcNumber != nil {
		c.MCNumber = *mcNumber
	}
	if email != nil {
		c.ContactEmail = *email
	}
	if phone != nil {
		c.ContactPhone = *phone
	}
}

func (r *CRMRepo) scanLoad(row pgx.Row) (*domain.Load, error) {
	var l domain.Load
	var rateStr string

	err := row.Scan(&l.ID, &l.OrgID, &l.CarrierID, &l.Reference, &l.Origin, &l.Destination, &l.PickupDate, &rateStr, &l.Status, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan load: %w", err)
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("parse load rate: %w", err)
	}
	l.Rate = rate
	return &l, nil
}
