package api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/domain"
)

// CreateRateConf создаёт черновик rate confirmation по грузу.
// POST /api/v1/rateconfs
func (h *Handler) CreateRateConf(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req CreateRateConfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		BadRequest(w, "invalid rate")
		return
	}

	load, err := h.crmRepo.GetLoad(r.Context(), claims.OrgID, req.LoadID)
	if HandleRepoError(w, h.logger, err, "load not found") {
		return
	}

	carrier, err := h.crmRepo.GetCarrier(r.Context(), claims.OrgID, req.CarrierID)
	if HandleRepoError(w, h.logger, err, "carrier not found") {
		return
	}

	seq, err := h.rateConfRepo.NextNumber(r.Context(), claims.OrgID)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	now := time.Now()
	rc := &domain.RateConfirmation{
		ID:             uuid.New(),
		OrgID:          claims.OrgID,
		LoadID:         load.ID,
		CarrierID:      carrier.ID,
		Number:         fmt.Sprintf("RC-%d-%06d", time.Now().UTC().Year(), seq),
		Rate:           rate,
		Terms:          req.Terms,
		Status:         domain.RateConfStatusDraft,
		SignatureToken: newSignatureToken(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.rateConfRepo.Create(r.Context(), rc); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, RateConfFromDomain(*rc))
}

// ListRateConfs возвращает rate confirmations организации.
// GET /api/v1/rateconfs?status=&limit=&offset=
func (h *Handler) ListRateConfs(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	status := domain.RateConfStatus(r.URL.Query().Get("status"))
	limit := int(mustParseInt(r.URL.Query().Get("limit"), 50))
	offset := int(mustParseInt(r.URL.Query().Get("offset"), 0))

	rcs, err := h.rateConfRepo.List(r.Context(), claims.OrgID, status, limit, offset)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RateConfResponse, len(rcs))
	for i, rc := range rcs {
		result[i] = RateConfFromDomain(rc)
	}

	List(w, result, len(result))
}

// GetRateConf возвращает rate confirmation по ID.
// GET /api/v1/rateconfs/{id}
func (h *Handler) GetRateConf(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid rate confirmation id")
		return
	}

	rc, err := h.rateConfRepo.GetByID(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "rate confirmation not found") {
		return
	}

	Success(w, RateConfFromDomain(*rc))
}

// SendRateConf отправляет документ перевозчику на подпись.
// POST /api/v1/rateconfs/{id}/send
func (h *Handler) SendRateConf(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid rate confirmation id")
		return
	}

	rc, err := h.rateConfRepo.GetByID(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "rate confirmation not found") {
		return
	}

	if !rc.CanSend() {
		InvalidState(w, "only draft rate confirmations can be sent")
		return
	}

	carrier, err := h.crmRepo.GetCarrier(r.Context(), claims.OrgID, rc.CarrierID)
	if HandleRepoError(w, h.logger, err, "carrier not found") {
		return
	}
	if carrier.ContactEmail == "" {
		InvalidState(w, "carrier has no contact email")
		return
	}

	rc.MarkSent()
	if err := h.rateConfRepo.Update(r.Context(), rc); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Письмо не откатывает отправку: документ уже SENT, ссылка
	// доступна, письмо можно послать повторно.
	signURL := h.baseURL + "/sign/" + rc.SignatureToken
	if _, err := h.email.SendRateConfirmation(r.Context(), carrier.ContactEmail, rc.Number, signURL); err != nil {
		h.logger.Error("rate confirmation email failed",
			"rateconf_id", rc.ID, "to", carrier.ContactEmail, "error", err)
	}

	Success(w, RateConfFromDomain(*rc))
}

// VoidRateConf аннулирует документ.
// POST /api/v1/rateconfs/{id}/void
func (h *Handler) VoidRateConf(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid rate confirmation id")
		return
	}

	rc, err := h.rateConfRepo.GetByID(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "rate confirmation not found") {
		return
	}

	if rc.Status.IsTerminal() {
		InvalidState(w, "rate confirmation is already finalized")
		return
	}

	rc.Void()
	if err := h.rateConfRepo.Update(r.Context(), rc); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, RateConfFromDomain(*rc))
}

// Публичные маршруты подписи. Аутентификации нет: документ
// идентифицируется токеном из письма перевозчику.

// GetSignPage возвращает документ для страницы подписи.
// GET /sign/{token}
func (h *Handler) GetSignPage(w http.ResponseWriter, r *http.Request) {
	rc, err := h.rateConfRepo.GetByToken(r.Context(), r.PathValue("token"))
	if HandleRepoError(w, h.logger, err, "document not found") {
		return
	}

	Success(w, SignPageResponse{
		Number: rc.Number,
		Rate:   rc.Rate,
		Terms:  rc.Terms,
		Status: rc.Status,
	})
}

// SignRateConf фиксирует подпись перевозчика.
// POST /sign/{token}
func (h *Handler) SignRateConf(w http.ResponseWriter, r *http.Request) {
	h.resolveSignature(w, r, (*domain.RateConfirmation).Sign)
}

// DeclineRateConf фиксирует отказ перевозчика.
// POST /sign/{token}/decline
func (h *Handler) DeclineRateConf(w http.ResponseWriter, r *http.Request) {
	h.resolveSignature(w, r, (*domain.RateConfirmation).Decline)
}

// resolveSignature — общий путь подписи и отказа.
func (h *Handler) resolveSignature(w http.ResponseWriter, r *http.Request, resolve func(*domain.RateConfirmation, string, string)) {
	var req SignRateConfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.SignerName == "" {
		BadRequest(w, "signer_name is required")
		return
	}

	rc, err := h.rateConfRepo.GetByToken(r.Context(), r.PathValue("token"))
	if HandleRepoError(w, h.logger, err, "document not found") {
		return
	}

	if !rc.CanSign() {
		InvalidState(w, "document is not awaiting signature")
		return
	}

	resolve(rc, req.SignerName, remoteIP(r))
	if err := h.rateConfRepo.Update(r.Context(), rc); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, SignPageResponse{
		Number: rc.Number,
		Rate:   rc.Rate,
		Terms:  rc.Terms,
		Status: rc.Status,
	})
}

// remoteIP извлекает IP клиента из запроса.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// newSignatureToken генерирует токен публичной ссылки подписи.
func newSignatureToken() string {
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")
	return a + b
}
