package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Freightline/internal/domain"
)

// ListPlans возвращает каталог тарифных планов.
// GET /api/v1/billing/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := []domain.Plan{domain.PlanStarter, domain.PlanPro, domain.PlanEnterprise}
	List(w, plans, len(plans))
}

// Checkout создаёт сессию оплаты для смены тарифного плана.
// Смена плана применяется webhook'ом платёжного шлюза после оплаты.
// POST /api/v1/billing/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	switch req.PlanID {
	case domain.PlanStarter.ID, domain.PlanPro.ID, domain.PlanEnterprise.ID:
	default:
		BadRequest(w, "unknown plan")
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		BadRequest(w, "success_url and cancel_url are required")
		return
	}

	org, err := h.orgRepo.GetOrgByID(r.Context(), claims.OrgID)
	if HandleRepoError(w, h.logger, err, "organization not found") {
		return
	}

	checkoutURL, err := h.billing.Checkout(r.Context(), org, req.PlanID, req.SuccessURL, req.CancelURL)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, CheckoutResponse{CheckoutURL: checkoutURL})
}

// ListOverages возвращает периоды с overage-начислениями.
// GET /api/v1/billing/overages?limit=
func (h *Handler) ListOverages(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit := int(mustParseInt(r.URL.Query().Get("limit"), 12))
	periods, err := h.usageRepo.ListPeriods(r.Context(), claims.OrgID, limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]PeriodResponse, 0, len(periods))
	for _, p := range periods {
		if p.OverageMinutes == 0 {
			continue
		}
		result = append(result, PeriodFromDomain(p))
	}

	List(w, result, len(result))
}
