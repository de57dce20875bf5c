package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsagePeriod — расчётный период организации (календарный месяц).
//
// Счётчики периода пополняет pipeline после завершения обработки
// каждого звонка. Guard читает их при admission. Scheduler закрывает
// периоды по окончании месяца и передаёт overage в биллинг.
type UsagePeriod struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// OrgID — организация.
	OrgID uuid.UUID `json:"org_id"`

	// Month — первый день месяца периода (UTC).
	// Уникален в паре с OrgID.
	Month time.Time `json:"month"`

	// IncludedMinutes — лимит плана, зафиксированный при создании периода.
	// Снимок на случай смены плана посреди месяца.
	IncludedMinutes int `json:"included_minutes"`

	// UsedMinutes — фактически обработанные минуты.
	UsedMinutes int `json:"used_minutes"`

	// OverageMinutes — минуты сверх лимита.
	OverageMinutes int `json:"overage_minutes"`

	// OverageCharge — сумма за overage (capped, см. usage.ChargeCap).
	OverageCharge decimal.Decimal `json:"overage_charge"`

	// Status — текущий статус периода.
	Status PeriodStatus `json:"status"`

	// SettledPaymentRef — идентификатор платежа в шлюзе (для SETTLED).
	SettledPaymentRef string `json:"settled_payment_ref,omitempty"`

	// CreatedAt — время создания периода.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления счётчиков.
	UpdatedAt time.Time `json:"updated_at"`
}

// MonthOf возвращает первый день месяца для момента t (UTC).
func MonthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// IsCurrent проверяет, относится ли период к месяцу момента now.
func (p *UsagePeriod) IsCurrent(now time.Time) bool {
	return p.Month.Equal(MonthOf(now))
}

// Close переводит период в статус CLOSED.
func (p *UsagePeriod) Close() {
	p.Status = PeriodStatusClosed
	p.UpdatedAt = time.Now()
}

// MarkSettled фиксирует списание overage.
func (p *UsagePeriod) MarkSettled(paymentRef string) {
	p.Status = PeriodStatusSettled
	p.SettledPaymentRef = paymentRef
	p.UpdatedAt = time.Now()
}

// ProcessingLock — advisory lock на обработку одного звонка.
//
// Вставляется при admission, удаляется pipeline'ом по завершении.
// ExpiresAt — TTL: если обработка зависла (упавший воркер), scheduler
// снимает просроченный lock и помечает звонок FAILED. Guard учитывает
// только непросроченные locks при подсчёте pending минут.
type ProcessingLock struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// CallID — звонок, на который взят lock (уникальный).
	CallID uuid.UUID `json:"call_id"`

	// OrgID — организация.
	OrgID uuid.UUID `json:"org_id"`

	// EstimatedMinutes — оценка минут, зарезервированная guard'ом.
	EstimatedMinutes int `json:"estimated_minutes"`

	// AcquiredAt — время захвата.
	AcquiredAt time.Time `json:"acquired_at"`

	// ExpiresAt — время истечения lock.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired проверяет, просрочен ли lock.
func (l *ProcessingLock) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
