package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Freightline/internal/domain"
)

// OrgRepo — репозиторий для работы с organizations и users.
type OrgRepo struct {
	pool *pgxpool.Pool
}

// NewOrgRepo создаёт новый OrgRepo.
func NewOrgRepo(pool *pgxpool.Pool) *OrgRepo {
	return &OrgRepo{pool: pool}
}

// CreateOrg создаёт новую организацию.
func (r *OrgRepo) CreateOrg(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, plan_id, referral_code, billing_customer_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.PlanID,
		org.ReferralCode,
		nullString(org.BillingCustomerRef),
		org.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetOrgByID возвращает организацию по ID.
func (r *OrgRepo) GetOrgByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	query := `
		SELECT id, name, plan_id, referral_code, billing_customer_ref, created_at
		FROM organizations
		WHERE id = $1
	`
	return r.scanOrg(r.pool.QueryRow(ctx, query, id))
}

// GetOrgByReferralCode возвращает организацию по реферальному коду.
func (r *OrgRepo) GetOrgByReferralCode(ctx context.Context, code string) (*domain.Organization, error) {
	query := `
		SELECT id, name, plan_id, referral_code, billing_customer_ref, created_at
		FROM organizations
		WHERE referral_code = $1
	`
	return r.scanOrg(r.pool.QueryRow(ctx, query, code))
}

// GetOrgByBillingRef возвращает организацию по идентификатору в платёжном шлюзе.
func (r *OrgRepo) GetOrgByBillingRef(ctx context.Context, ref string) (*domain.Organization, error) {
	query := `
		SELECT id, name, plan_id, referral_code, billing_customer_ref, created_at
		FROM organizations
		WHERE billing_customer_ref = $1
	`
	return r.scanOrg(r.pool.QueryRow(ctx, query, ref))
}

// UpdateOrg обновляет организацию.
func (r *OrgRepo) UpdateOrg(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, plan_id = $3, billing_customer_ref = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.PlanID,
		nullString(org.BillingCustomerRef),
	)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *OrgRepo) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, org_id, email, password_hash, role, anonymized, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.OrgID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Anonymized,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по ID.
func (r *OrgRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, org_id, email, password_hash, role, anonymized, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail возвращает пользователя по email.
func (r *OrgRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, org_id, email, password_hash, role, anonymized, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// ListUsersByOrg возвращает всех пользователей организации.
func (r *OrgRepo) ListUsersByOrg(ctx context.Context, orgID uuid.UUID) ([]domain.User, error) {
	query := `
		SELECT id, org_id, email, password_hash, role, anonymized, created_at
		FROM users
		WHERE org_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.OrgID, &u.Email, &u.PasswordHash, &u.Role, &u.Anonymized, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser обновляет пользователя (включая анонимизацию GDPR).
func (r *OrgRepo) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, role = $4, anonymized = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Anonymized,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// scanOrg сканирует одну строку в Organization.
func (r *OrgRepo) scanOrg(row pgx.Row) (*domain.Organization, error) {
	var org domain.Organization
	var billingRef *string

	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.PlanID,
		&org.ReferralCode,
		&billingRef,
		&org.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan organization: %w", err)
	}

	if billingRef != nil {
		org.BillingCustomerRef = *billingRef
	}
	return &org, nil
}

// scanUser сканирует одну строку в User.
func (r *OrgRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.ID,
		&u.OrgID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Anonymized,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation проверяет, является ли ошибка конфликтом уникальности.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
