package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization — тенант системы (брокерская компания).
//
// Все данные (звонки, перевозчики, грузы, usage) привязаны к организации.
// Каждая организация имеет тарифный план и собственный реферальный код.
type Organization struct {
	// ID — уникальный идентификатор организации.
	ID uuid.UUID `json:"id"`

	// Name — название компании.
	Name string `json:"name"`

	// PlanID — идентификатор тарифного плана: "starter", "pro", "enterprise".
	PlanID string `json:"plan_id"`

	// ReferralCode — код для реферальной программы (уникальный).
	// Его передают при регистрации: POST /auth/signup?ref=CODE
	ReferralCode string `json:"referral_code"`

	// BillingCustomerRef — идентификатор клиента в платёжном шлюзе.
	BillingCustomerRef string `json:"billing_customer_ref,omitempty"`

	// CreatedAt — время создания организации.
	CreatedAt time.Time `json:"created_at"`
}

// Plan — тарифный план организации.
//
// Планы — статический каталог, не хранятся в БД.
// Overage считается сверх IncludedMinutes в текущем периоде.
type Plan struct {
	// ID — идентификатор плана.
	ID string `json:"id"`

	// Name — отображаемое имя плана.
	Name string `json:"name"`

	// IncludedMinutes — включённые в план минуты обработки в месяц.
	IncludedMinutes int `json:"included_minutes"`

	// OverageRatePerMinute — цена минуты сверх лимита.
	OverageRatePerMinute decimal.Decimal `json:"overage_rate_per_minute"`

	// MonthlyPrice — абонентская плата.
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

// Каталог планов.
var (
	PlanStarter = Plan{
		ID:                   "starter",
		Name:                 "Starter",
		IncludedMinutes:      300,
		OverageRatePerMinute: decimal.RequireFromString("0.20"),
		MonthlyPrice:         decimal.RequireFromString("49.00"),
	}

	PlanPro = Plan{
		ID:                   "pro",
		Name:                 "Pro",
		IncludedMinutes:      1000,
		OverageRatePerMinute: decimal.RequireFromString("0.20"),
		MonthlyPrice:         decimal.RequireFromString("149.00"),
	}

	PlanEnterprise = Plan{
		ID:                   "enterprise",
		Name:                 "Enterprise",
		IncludedMinutes:      5000,
		OverageRatePerMinute: decimal.RequireFromString("0.20"),
		MonthlyPrice:         decimal.RequireFromString("499.00"),
	}
)

// PlanByID возвращает план по идентификатору.
// Для неизвестного ID возвращает PlanStarter.
func PlanByID(id string) Plan {
	switch id {
	case PlanPro.ID:
		return PlanPro
	case PlanEnterprise.ID:
		return PlanEnterprise
	default:
		return PlanStarter
	}
}

// User — пользователь организации.
type User struct {
	// ID — уникальный идентификатор пользователя.
	ID uuid.UUID `json:"id"`

	// OrgID — организация, к которой принадлежит пользователь.
	OrgID uuid.UUID `json:"org_id"`

	// Email — email пользователя (уникальный, логин).
	Email string `json:"email"`

	// PasswordHash — bcrypt-хеш пароля. Не сериализуется в JSON.
	PasswordHash string `json:"-"`

	// Role — роль: "admin" или "member".
	Role string `json:"role"`

	// Anonymized — флаг GDPR-удаления. Анонимизированный пользователь
	// не может войти; его PII затёрто.
	Anonymized bool `json:"anonymized,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Роли пользователей.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// IsAdmin возвращает true, если пользователь — администратор организации.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Anonymize затирает PII пользователя (GDPR delete).
// Email заменяется на placeholder с ID, пароль становится невалидным.
func (u *User) Anonymize() {
	u.Email = "deleted+" + u.ID.String() + "@anonymized.invalid"
	u.PasswordHash = ""
	u.Anonymized = true
}
