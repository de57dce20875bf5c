package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/repo"
	"github.com/shaiso/Freightline/internal/scheduler"
	"github.com/shaiso/Freightline/internal/telephony"
)

// TelephonyRecording принимает webhook телефонии о готовой записи.
// URL настраивается в провайдере отдельно для каждой организации.
// POST /webhooks/telephony/{org}/recording (form-encoded)
//
// Идемпотентен: повтор с тем же CallSid отвечает 200 без создания
// дубликата — провайдеры ретраят webhook'и.
func (h *Handler) TelephonyRecording(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.PathValue("org"))
	if err != nil {
		BadRequest(w, "invalid org id")
		return
	}

	if err := r.ParseForm(); err != nil {
		BadRequest(w, "invalid form body")
		return
	}

	requestURL := h.baseURL + r.URL.RequestURI()
	signature := r.Header.Get(telephony.SignatureHeader)
	if !telephony.ValidateSignature(h.telephony.AuthToken(), requestURL, r.PostForm, signature) {
		Forbidden(w, "invalid webhook signature")
		return
	}

	callSID := r.PostForm.Get("CallSid")
	if callSID == "" {
		BadRequest(w, "CallSid is required")
		return
	}
	recordingURL := r.PostForm.Get("RecordingUrl")
	if recordingURL == "" {
		BadRequest(w, "RecordingUrl is required")
		return
	}

	direction := r.PostForm.Get("Direction")
	if direction != domain.DirectionOutbound {
		direction = domain.DirectionInbound
	}

	call := &domain.Call{
		ID:              uuid.New(),
		OrgID:           orgID,
		Direction:       direction,
		FromNumber:      r.PostForm.Get("From"),
		ToNumber:        r.PostForm.Get("To"),
		ProviderCallSID: callSID,
		RecordingURL:    recordingURL,
		DurationSec:     int(mustParseInt(r.PostForm.Get("RecordingDuration"), 0)),
		Status:          domain.CallStatusRecorded,
		CreatedAt:       time.Now(),
	}

	if err := h.callRepo.Create(r.Context(), call); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			existing, err := h.callRepo.GetByProviderSID(r.Context(), callSID)
			if HandleRepoError(w, h.logger, err, "call not found") {
				return
			}
			Success(w, CallFromDomain(*existing))
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("call recorded",
		"call_id", call.ID, "org_id", orgID,
		"provider_sid", callSID, "duration_sec", call.DurationSec)

	// При недоступном MQ pipeline подберёт звонок поллингом.
	if h.publisher != nil {
		if err := h.publisher.PublishCallRecorded(r.Context(), call.ID); err != nil {
			h.logger.Warn("publish call.recorded failed", "call_id", call.ID, "error", err)
		}
	}

	Created(w, CallFromDomain(*call))
}

// TelephonyStatus принимает webhook телефонии о смене статуса звонка.
// Провайдер может сообщить длительность позже записи — обновляем её,
// пока звонок не дошёл до терминального статуса.
// POST /webhooks/telephony/{org}/status (form-encoded)
func (h *Handler) TelephonyStatus(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.PathValue("org"))
	if err != nil {
		BadRequest(w, "invalid org id")
		return
	}

	if err := r.ParseForm(); err != nil {
		BadRequest(w, "invalid form body")
		return
	}

	requestURL := h.baseURL + r.URL.RequestURI()
	signature := r.Header.Get(telephony.SignatureHeader)
	if !telephony.ValidateSignature(h.telephony.AuthToken(), requestURL, r.PostForm, signature) {
		Forbidden(w, "invalid webhook signature")
		return
	}

	callSID := r.PostForm.Get("CallSid")
	if callSID == "" {
		BadRequest(w, "CallSid is required")
		return
	}

	call, err := h.callRepo.GetByProviderSID(r.Context(), callSID)
	if errors.Is(err, repo.ErrNotFound) {
		// Статус может прийти раньше webhook'а записи.
		NoContent(w)
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	if call.OrgID != orgID {
		Forbidden(w, "call belongs to another organization")
		return
	}

	if d := int(mustParseInt(r.PostForm.Get("CallDuration"), 0)); d > 0 && !call.IsFinished() {
		call.DurationSec = d
		if err := h.callRepo.Update(r.Context(), call); err != nil {
			InternalError(w, h.logger, err)
			return
		}
	}

	NoContent(w)
}

// paymentEvent — событие платёжного шлюза.
type paymentEvent struct {
	// Type — тип события: "checkout.completed" или "invoice.paid".
	Type string `json:"type"`

	// CustomerRef — идентификатор клиента в шлюзе.
	CustomerRef string `json:"customer_ref"`

	// PlanID — оплаченный план (для checkout.completed).
	PlanID string `json:"plan_id,omitempty"`

	// Amount — сумма счёта (для invoice.paid).
	Amount decimal.Decimal `json:"amount,omitempty"`

	// FirstInvoice — первый оплаченный счёт клиента.
	FirstInvoice bool `json:"first_invoice,omitempty"`
}

// PaymentEvent принимает события платёжного шлюза.
// POST /webhooks/payments
//
// checkout.completed применяет смену тарифного плана.
// invoice.paid с first_invoice начисляет партнёрскую комиссию,
// если организация пришла по реферальному приглашению.
func (h *Handler) PaymentEvent(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if h.paymentsWebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.paymentsWebhookSecret)) != 1 {
		Forbidden(w, "invalid webhook secret")
		return
	}

	var event paymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	org, err := h.orgRepo.GetOrgByBillingRef(r.Context(), event.CustomerRef)
	if HandleRepoError(w, h.logger, err, "unknown customer") {
		return
	}

	switch event.Type {
	case "checkout.completed":
		h.applyPlanChange(w, r, org, event.PlanID)
	case "invoice.paid":
		h.accrueCommission(w, r, org, event)
	default:
		// Неизвестные события подтверждаем, чтобы шлюз не ретраил.
		NoContent(w)
	}
}

// applyPlanChange применяет оплаченную смену плана.
func (h *Handler) applyPlanChange(w http.ResponseWriter, r *http.Request, org *domain.Organization, planID string) {
	plan := domain.PlanByID(planID)
	if org.PlanID == plan.ID {
		NoContent(w)
		return
	}

	org.PlanID = plan.ID
	if err := h.orgRepo.UpdateOrg(r.Context(), org); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("plan changed", "org_id", org.ID, "plan", plan.ID)
	NoContent(w)
}

// accrueCommission начисляет комиссию партнёру за первый счёт
// приглашённой организации.
func (h *Handler) accrueCommission(w http.ResponseWriter, r *http.Request, org *domain.Organization, event paymentEvent) {
	if !event.FirstInvoice {
		NoContent(w)
		return
	}

	ref, err := h.referralRepo.GetConvertedByOrgID(r.Context(), org.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			NoContent(w)
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	now := time.Now()
	dueAt, err := scheduler.NextPayout(scheduler.DefaultPayoutSchedule, now)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	commission := &domain.Commission{
		ID:             uuid.New(),
		PartnerOrgID:   ref.OrgID,
		ReferralID:     ref.ID,
		Amount:         domain.CommissionFor(event.Amount),
		Status:         domain.CommissionStatusPending,
		PayoutSchedule: scheduler.DefaultPayoutSchedule,
		DueAt:          &dueAt,
		CreatedAt:      now,
	}

	if err := h.referralRepo.CreateCommission(r.Context(), commission); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			NoContent(w)
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("commission accrued",
		"commission_id", commission.ID,
		"partner_org_id", ref.OrgID,
		"amount", commission.Amount)

	NoContent(w)
}
