package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateConfirmation — документ, подтверждающий согласованную ставку
// перевозчика за груз. Отправляется перевозчику на электронную подпись.
//
// Жизненный цикл:
//
//	DRAFT → SENT → SIGNED
//	             ↘ DECLINED
//	(VOID — аннулирование брокером из любого нефинального статуса)
type RateConfirmation struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// OrgID — организация-брокер.
	OrgID uuid.UUID `json:"org_id"`

	// LoadID — груз, по которому подтверждается ставка.
	LoadID uuid.UUID `json:"load_id"`

	// CarrierID — перевозчик, которому отправлен документ.
	CarrierID uuid.UUID `json:"carrier_id"`

	// Number — номер документа ("RC-2026-000123").
	Number string `json:"number"`

	// Rate — подтверждаемая ставка.
	Rate decimal.Decimal `json:"rate"`

	// Terms — условия перевозки (свободный текст).
	Terms string `json:"terms,omitempty"`

	// Status — текущий статус документа.
	Status RateConfStatus `json:"status"`

	// SignatureToken — токен для публичной ссылки подписи.
	// Перевозчик открывает /sign/{token} без аутентификации.
	SignatureToken string `json:"-"`

	// SentAt — время отправки на подпись.
	SentAt *time.Time `json:"sent_at,omitempty"`

	// SignedAt — время подписи (или отказа).
	SignedAt *time.Time `json:"signed_at,omitempty"`

	// SignerName — имя подписавшего.
	SignerName string `json:"signer_name,omitempty"`

	// SignerIP — IP-адрес подписавшего (фиксируется для юридической силы).
	SignerIP string `json:"signer_ip,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// CanEdit возвращает true, если документ можно редактировать.
func (rc *RateConfirmation) CanEdit() bool {
	return rc.Status == RateConfStatusDraft
}

// CanSend возвращает true, если документ можно отправить на подпись.
func (rc *RateConfirmation) CanSend() bool {
	return rc.Status == RateConfStatusDraft
}

// CanSign возвращает true, если документ можно подписать или отклонить.
func (rc *RateConfirmation) CanSign() bool {
	return rc.Status == RateConfStatusSent
}

// MarkSent отмечает документ как отправленный на подпись.
func (rc *RateConfirmation) MarkSent() {
	now := time.Now()
	rc.Status = RateConfStatusSent
	rc.SentAt = &now
	rc.UpdatedAt = now
}

// Sign фиксирует подпись перевозчика.
func (rc *RateConfirmation) Sign(signerName, signerIP string) {
	now := time.Now()
	rc.Status = RateConfStatusSigned
	rc.SignerName = signerName
	rc.SignerIP = signerIP
	rc.SignedAt = &now
	rc.UpdatedAt = now
}

// Decline фиксирует отказ перевозчика.
func (rc *RateConfirmation) Decline(signerName, signerIP string) {
	now := time.Now()
	rc.Status = RateConfStatusDeclined
	rc.SignerName = signerName
	rc.SignerIP = signerIP
	rc.SignedAt = &now
	rc.UpdatedAt = now
}

// Void аннулирует документ.
func (rc *RateConfirmation) Void() {
	rc.Status = RateConfStatusVoid
	rc.UpdatedAt = time.Now()
}
