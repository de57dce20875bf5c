package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/repo"
)

// ListCalls возвращает звонки организации.
// GET /api/v1/calls?status=&limit=&offset=
func (h *Handler) ListCalls(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	filter := repo.CallFilter{
		OrgID:  claims.OrgID,
		Status: domain.CallStatus(r.URL.Query().Get("status")),
		Limit:  int(mustParseInt(r.URL.Query().Get("limit"), 50)),
		Offset: int(mustParseInt(r.URL.Query().Get("offset"), 0)),
	}

	calls, err := h.callRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]CallResponse, len(calls))
	for i, c := range calls {
		result[i] = CallFromDomain(c)
	}

	List(w, result, len(result))
}

// GetCall возвращает звонок с расшифровкой и извлечёнными полями.
// GET /api/v1/calls/{id}
func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid call id")
		return
	}

	call, err := h.callRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "call not found") {
		return
	}
	if call.OrgID != claims.OrgID {
		NotFound(w, "call not found")
		return
	}

	detail := CallDetailResponse{CallResponse: CallFromDomain(*call)}

	transcript, err := h.callRepo.GetTranscriptByCallID(r.Context(), id)
	switch {
	case err == nil:
		t := TranscriptFromDomain(*transcript)
		detail.Transcript = &t
	case !errors.Is(err, repo.ErrNotFound):
		InternalError(w, h.logger, err)
		return
	}

	extraction, err := h.callRepo.GetExtractionByCallID(r.Context(), id)
	switch {
	case err == nil:
		e := ExtractionFromDomain(*extraction)
		detail.Extraction = &e
	case !errors.Is(err, repo.ErrNotFound):
		InternalError(w, h.logger, err)
		return
	}

	Success(w, detail)
}

// ReprocessCall ставит FAILED звонок на повторную обработку.
// Звонок заново пройдёт через admission как новый.
// POST /api/v1/calls/{id}/reprocess
func (h *Handler) ReprocessCall(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid call id")
		return
	}

	call, err := h.callRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "call not found") {
		return
	}
	if call.OrgID != claims.OrgID {
		NotFound(w, "call not found")
		return
	}

	if call.Status != domain.CallStatusFailed {
		InvalidState(w, "only failed calls can be reprocessed")
		return
	}

	// Предварительная проверка admission: отказ возвращаем сразу,
	// авторитетное решение pipeline примет при обработке.
	decision, err := h.guard.Check(r.Context(), claims.OrgID, call.BillableMinutes())
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	if !decision.Allowed {
		InvalidState(w, decision.Reason)
		return
	}

	call.ResetForReprocess()
	if err := h.callRepo.Update(r.Context(), call); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// При недоступном MQ pipeline подберёт звонок поллингом.
	if h.publisher != nil {
		if err := h.publisher.PublishCallRecorded(r.Context(), call.ID); err != nil {
			h.logger.Warn("publish call.recorded failed", "call_id", call.ID, "error", err)
		}
	}

	Accepted(w, CallFromDomain(*call))
}

// mustParseInt парсит строку в int64 с дефолтным значением.
func mustParseInt(s string, defaultVal int64) int64 {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
