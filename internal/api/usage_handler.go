package api

import (
	"net/http"
)

// GetUsage возвращает admission-проекцию текущего периода.
// Опциональный query-параметр estimate (минуты) показывает, прошёл бы
// звонок такой длительности через guard прямо сейчас.
// GET /api/v1/usage?estimate=
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	estimate := int(mustParseInt(r.URL.Query().Get("estimate"), 0))
	if estimate < 0 {
		BadRequest(w, "estimate must be non-negative")
		return
	}

	decision, err := h.guard.Check(r.Context(), claims.OrgID, estimate)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, decision)
}

// ListPeriods возвращает расчётные периоды организации.
// GET /api/v1/usage/periods?limit=
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit := int(mustParseInt(r.URL.Query().Get("limit"), 12))

	periods, err := h.usageRepo.ListPeriods(r.Context(), claims.OrgID, limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]PeriodResponse, len(periods))
	for i, p := range periods {
		result[i] = PeriodFromDomain(p)
	}

	List(w, result, len(result))
}
