package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/domain"
)

// Auth DTOs

// SignupRequest — запрос на регистрацию организации.
type SignupRequest struct {
	OrgName  string `json:"org_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest — запрос на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse — ответ с JWT и данными организации.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
	Org   OrgResponse  `json:"org"`
}

// UserResponse — ответ с пользователем.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain конвертирует domain.User в UserResponse.
func UserFromDomain(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		OrgID:     u.OrgID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// OrgResponse — ответ с организацией.
type OrgResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PlanID       string    `json:"plan_id"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrgFromDomain конвертирует domain.Organization в OrgResponse.
func OrgFromDomain(o domain.Organization) OrgResponse {
	return OrgResponse{
		ID:           o.ID,
		Name:         o.Name,
		PlanID:       o.PlanID,
		ReferralCode: o.ReferralCode,
		CreatedAt:    o.CreatedAt,
	}
}

// Call DTOs

// CallResponse — ответ со звонком.
type CallResponse struct {
	ID              uuid.UUID         `json:"id"`
	Direction       string            `json:"direction"`
	FromNumber      string            `json:"from_number"`
	ToNumber        string            `json:"to_number"`
	ProviderCallSID string            `json:"provider_call_sid"`
	DurationSec     int               `json:"duration_sec"`
	BillableMinutes int               `json:"billable_minutes"`
	Status          domain.CallStatus `json:"status"`
	Error           string            `json:"error,omitempty"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	FinishedAt      *time.Time        `json:"finished_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CallFromDomain конвертирует domain.Call в CallResponse.
func CallFromDomain(c domain.Call) CallResponse {
	return CallResponse{
		ID:              c.ID,
		Direction:       c.Direction,
		FromNumber:      c.FromNumber,
		ToNumber:        c.ToNumber,
		ProviderCallSID: c.ProviderCallSID,
		DurationSec:     c.DurationSec,
		BillableMinutes: c.BillableMinutes(),
		Status:          c.Status,
		Error:           c.Error,
		StartedAt:       c.StartedAt,
		FinishedAt:      c.FinishedAt,
		CreatedAt:       c.CreatedAt,
	}
}

// CallDetailResponse — звонок вместе с расшифровкой и извлечёнными полями.
type CallDetailResponse struct {
	CallResponse
	Transcript *TranscriptResponse `json:"transcript,omitempty"`
	Extraction *ExtractionResponse `json:"extraction,omitempty"`
}

// TranscriptResponse — ответ с расшифровкой.
type TranscriptResponse struct {
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Model     string    `json:"model,omitempty"`
	Redacted  bool      `json:"redacted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptFromDomain конвертирует domain.Transcript в TranscriptResponse.
func TranscriptFromDomain(t domain.Transcript) TranscriptResponse {
	return TranscriptResponse{
		Text:      t.Text,
		Language:  t.Language,
		Model:     t.Model,
		Redacted:  t.Redacted,
		CreatedAt: t.CreatedAt,
	}
}

// ExtractionResponse — ответ с извлечёнными полями.
type ExtractionResponse struct {
	Fields     domain.ExtractedFields `json:"fields"`
	Confidence float64                `json:"confidence"`
	Redacted   bool                   `json:"redacted,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ExtractionFromDomain конвертирует domain.Extraction в ExtractionResponse.
func ExtractionFromDomain(e domain.Extraction) ExtractionResponse {
	return ExtractionResponse{
		Fields:     e.Fields,
		Confidence: e.Confidence,
		Redacted:   e.Redacted,
		CreatedAt:  e.CreatedAt,
	}
}

// Carrier DTOs

// CreateCarrierRequest — запрос на создание перевозчика.
type CreateCarrierRequest struct {
	Name         string `json:"name"`
	MCNumber     string `json:"mc_number,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// UpdateCarrierRequest — запрос на обновление перевозчика.
type UpdateCarrierRequest struct {
	Name         *string `json:"name,omitempty"`
	MCNumber     *string `json:"mc_number,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// CarrierResponse — ответ с перевозчиком.
type CarrierResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	MCNumber     string    `json:"mc_number,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// CarrierFromDomain конвертирует domain.Carrier в CarrierResponse.
func CarrierFromDomain(c domain.Carrier) CarrierResponse {
	return CarrierResponse{
		ID:           c.ID,
		Name:         c.Name,
		MCNumber:     c.MCNumber,
		ContactEmail: c.ContactEmail,
		ContactPhone: c.ContactPhone,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
	}
}

// Load DTOs

// CreateLoadRequest — запрос на создание груза.
type CreateLoadRequest struct {
	Reference   string     `json:"reference"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	PickupDate  *time.Time `json:"pickup_date,omitempty"`
	Rate        string     `json:"rate,omitempty"`
}

// UpdateLoadRequest — запрос на обновление груза.
type UpdateLoadRequest struct {
	Origin      *string    `json:"origin,omitempty"`
	Destination *string    `json:"destination,omitempty"`
	PickupDate  *time.Time `json:"pickup_date,omitempty"`
	Rate        *string    `json:"rate,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

// BookLoadRequest — запрос на бронирование груза за перевозчиком.
type BookLoadRequest struct {
	CarrierID uuid.UUID `json:"carrier_id"`
	Rate      string    `json:"rate"`
}

// LoadResponse — ответ с грузом.
type LoadResponse struct {
	ID          uuid.UUID       `json:"id"`
	CarrierID   *uuid.UUID      `json:"carrier_id,omitempty"`
	Reference   string          `json:"reference"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	PickupDate  *time.Time      `json:"pickup_date,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LoadFromDomain конвертирует domain.Load в LoadResponse.
func LoadFromDomain(l domain.Load) LoadResponse {
	return LoadResponse{
		ID:          l.ID,
		CarrierID:   l.CarrierID,
		Reference:   l.Reference,
		Origin:      l.Origin,
		Destination: l.Destination,
		PickupDate:  l.PickupDate,
		Rate:        l.Rate,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
	}
}

// RateConfirmation DTOs

// CreateRateConfRequest — запрос на создание rate confirmation.
type CreateRateConfRequest struct {
	LoadID    uuid.UUID `json:"load_id"`
	CarrierID uuid.UUID `json:"carrier_id"`
	Rate      string    `json:"rate"`
	Terms     string    `json:"terms,omitempty"`
}

// SignRateConfRequest — запрос подписи/отказа от перевозчика.
type SignRateConfRequest struct {
	SignerName string `json:"signer_name"`
}

// RateConfResponse — ответ с rate confirmation.
type RateConfResponse struct {
	ID         uuid.UUID             `json:"id"`
	LoadID     uuid.UUID             `json:"load_id"`
	CarrierID  uuid.UUID             `json:"carrier_id"`
	Number     string                `json:"number"`
	Rate       decimal.Decimal       `json:"rate"`
	Terms      string                `json:"terms,omitempty"`
	Status     domain.RateConfStatus `json:"status"`
	SentAt     *time.Time            `json:"sent_at,omitempty"`
	SignedAt   *time.Time            `json:"signed_at,omitempty"`
	SignerName string                `json:"signer_name,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// RateConfFromDomain конвертирует domain.RateConfirmation в RateConfResponse.
func RateConfFromDomain(rc domain.RateConfirmation) RateConfResponse {
	return RateConfResponse{
		ID:         rc.ID,
		LoadID:     rc.LoadID,
		CarrierID:  rc.CarrierID,
		Number:     rc.Number,
		Rate:       rc.Rate,
		Terms:      rc.Terms,
		Status:     rc.Status,
		SentAt:     rc.SentAt,
		SignedAt:   rc.SignedAt,
		SignerName: rc.SignerName,
		CreatedAt:  rc.CreatedAt,
	}
}

// SignPageResponse — публичное представление документа для страницы подписи.
// Без внутренних идентификаторов организации.
type SignPageResponse struct {
	Number string                `json:"number"`
	Rate   decimal.Decimal       `json:"rate"`
	Terms  string                `json:"terms,omitempty"`
	Status domain.RateConfStatus `json:"status"`
}

// Referral DTOs

// CreateReferralRequest — запрос на приглашение по реферальной программе.
type CreateReferralRequest struct {
	Email string `json:"email"`
}

// ReferralResponse — ответ с реферальным приглашением.
type ReferralResponse struct {
	ID            uuid.UUID             `json:"id"`
	Code          string                `json:"code"`
	ReferredEmail string                `json:"referred_email"`
	Status        domain.ReferralStatus `json:"status"`
	ConvertedAt   *time.Time            `json:"converted_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ReferralFromDomain конвертирует domain.Referral в ReferralResponse.
func ReferralFromDomain(r domain.Referral) ReferralResponse {
	return ReferralResponse{
		ID:            r.ID,
		Code:          r.Code,
		ReferredEmail: r.ReferredEmail,
		Status:        r.Status,
		ConvertedAt:   r.ConvertedAt,
		CreatedAt:     r.CreatedAt,
	}
}

// CommissionResponse — ответ с партнёрской комиссией.
type CommissionResponse struct {
	ID        uuid.UUID               `json:"id"`
	Amount    decimal.Decimal         `json:"amount"`
	Status    domain.CommissionStatus `json:"status"`
	DueAt     *time.Time              `json:"due_at,omitempty"`
	SettledAt *time.Time              `json:"settled_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// CommissionFromDomain конвертирует domain.Commission в CommissionResponse.
func CommissionFromDomain(c domain.Commission) CommissionResponse {
	return CommissionResponse{
		ID:        c.ID,
		Amount:    c.Amount,
		Status:    c.Status,
		DueAt:     c.DueAt,
		SettledAt: c.SettledAt,
		CreatedAt: c.CreatedAt,
	}
}

// Usage DTOs

// PeriodResponse — ответ с расчётным периодом.
type PeriodResponse struct {
	Month           string              `json:"month"`
	IncludedMinutes int                 `json:"included_minutes"`
	UsedMinutes     int                 `json:"used_minutes"`
	OverageMinutes  int                 `json:"overage_minutes"`
	OverageCharge   decimal.Decimal     `json:"overage_charge"`
	Status          domain.PeriodStatus `json:"status"`
}

// PeriodFromDomain конвертирует domain.UsagePeriod в PeriodResponse.
func PeriodFromDomain(p domain.UsagePeriod) PeriodResponse {
	return PeriodResponse{
		Month:           p.Month.Format("2006-01"),
		IncludedMinutes: p.IncludedMinutes,
		UsedMinutes:     p.UsedMinutes,
		OverageMinutes:  p.OverageMinutes,
		OverageCharge:   p.OverageCharge,
		Status:          p.Status,
	}
}

// Billing DTOs

// CheckoutRequest — запрос на смену тарифного плана.
type CheckoutRequest struct {
	PlanID     string `json:"plan_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// CheckoutResponse — ответ со ссылкой на оплату.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}
