package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Referral — реферальное приглашение.
//
// Организация приглашает другую компанию по своему referral code.
// Когда приглашённая организация регистрируется и оплачивает первый
// счёт, referral становится CONVERTED и партнёру начисляется комиссия.
type Referral struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// OrgID — организация-реферер.
	OrgID uuid.UUID `json:"org_id"`

	// Code — реферальный код, по которому произошло приглашение.
	Code string `json:"code"`

	// ReferredEmail — email приглашённого.
	ReferredEmail string `json:"referred_email"`

	// Status — текущий статус.
	Status ReferralStatus `json:"status"`

	// ConvertedOrgID — организация, созданная по приглашению.
	ConvertedOrgID *uuid.UUID `json:"converted_org_id,omitempty"`

	// ConvertedAt — время конверсии.
	ConvertedAt *time.Time `json:"converted_at,omitempty"`

	// CreatedAt — время создания приглашения.
	CreatedAt time.Time `json:"created_at"`
}

// MarkConverted фиксирует конверсию приглашения.
func (r *Referral) MarkConverted(orgID uuid.UUID) {
	now := time.Now()
	r.Status = ReferralStatusConverted
	r.ConvertedOrgID = &orgID
	r.ConvertedAt = &now
}

// Commission — партнёрская комиссия за конверсию referral.
//
// Начисляется в PENDING при оплате первого счёта приглашённой
// организацией. Scheduler выплачивает due комиссии по payout
// schedule партнёра (cron-выражение).
type Commission struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// PartnerOrgID — организация-партнёр, которой причитается выплата.
	PartnerOrgID uuid.UUID `json:"partner_org_id"`

	// ReferralID — referral, за который начислена комиссия.
	ReferralID uuid.UUID `json:"referral_id"`

	// Amount — сумма комиссии.
	Amount decimal.Decimal `json:"amount"`

	// Status — текущий статус.
	Status CommissionStatus `json:"status"`

	// PayoutSchedule — cron-выражение расписания выплат партнёра.
	// Например "0 9 1 * *" — первое число каждого месяца в 9:00.
	PayoutSchedule string `json:"payout_schedule"`

	// DueAt — время следующей выплаты.
	DueAt *time.Time `json:"due_at,omitempty"`

	// SettledAt — время фактической выплаты.
	SettledAt *time.Time `json:"settled_at,omitempty"`

	// PayoutRef — идентификатор выплаты в платёжном шлюзе.
	PayoutRef string `json:"payout_ref,omitempty"`

	// CreatedAt — время начисления.
	CreatedAt time.Time `json:"created_at"`
}

// CommissionRate — доля первого счёта, начисляемая партнёру.
var CommissionRate = decimal.RequireFromString("0.10")

// CommissionFor вычисляет сумму комиссии от суммы первого счёта.
func CommissionFor(invoiceAmount decimal.Decimal) decimal.Decimal {
	return invoiceAmount.Mul(CommissionRate).Round(2)
}

// MarkSettled фиксирует выплату комиссии.
func (c *Commission) MarkSettled(payoutRef string) {
	now := time.Now()
	c.Status = CommissionStatusSettled
	c.PayoutRef = payoutRef
	c.SettledAt = &now
}

// IsDue проверяет, пора ли выплачивать комиссию.
func (c *Commission) IsDue(now time.Time) bool {
	if c.Status != CommissionStatusPending {
		return false
	}
	if c.DueAt == nil {
		return false
	}
	return now.After(*c.DueAt) || now.Equal(*c.DueAt)
}
