package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Carrier — перевозчик в CRM организации.
type Carrier struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// OrgID — организация, которой принадлежит запись.
	OrgID uuid.UUID `json:"org_id"`

	// Name — название компании-перевозчика.
	Name string `json:"name"`

	// MCNumber — MC number (федеральная лицензия перевозчика).
	MCNumber string `json:"mc_number,omitempty"`

	// ContactEmail — email диспетчера.
	ContactEmail string `json:"contact_email,omitempty"`

	// ContactPhone — телефон диспетчера.
	ContactPhone string `json:"contact_phone,omitempty"`

	// Status — статус: "active" или "blocked".
	Status string `json:"status"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Статусы перевозчиков.
const (
	CarrierStatusActive  = "active"
	CarrierStatusBlocked = "blocked"
)

// Load — груз (перевозка) в CRM организации.
type Load struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// OrgID — организация, которой принадлежит груз.
	OrgID uuid.UUID `json:"org_id"`

	// CarrierID — назначенный перевозчик. Nil, пока груз не забронирован.
	CarrierID *uuid.UUID `json:"carrier_id,omitempty"`

	// Reference — внутренний номер груза (уникальный в рамках организации).
	Reference string `json:"reference"`

	// Origin — пункт отправления.
	Origin string `json:"origin"`

	// Destination — пункт назначения.
	Destination string `json:"destination"`

	// PickupDate — дата погрузки.
	PickupDate *time.Time `json:"pickup_date,omitempty"`

	// Rate — согласованная ставка для перевозчика.
	Rate decimal.Decimal `json:"rate"`

	// Status — статус: "open", "booked", "delivered", "cancelled".
	Status string `json:"status"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Статусы грузов.
const (
	LoadStatusOpen      = "open"
	LoadStatusBooked    = "booked"
	LoadStatusDelivered = "delivered"
	LoadStatusCancelled = "cancelled"
)

// Book назначает перевозчика и ставку, переводит груз в "booked".
func (l *Load) Book(carrierID uuid.UUID, rate decimal.Decimal) {
	l.CarrierID = &carrierID
	l.Rate = rate
	l.Status = LoadStatusBooked
}

// CanBook возвращает true, если груз можно забронировать.
func (l *Load) CanBook() bool {
	return l.Status == LoadStatusOpen
}
