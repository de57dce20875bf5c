package api

import (
	"net/http"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/repo"
)

// gdprExport — выгрузка данных организации.
type gdprExport struct {
	Org      OrgResponse       `json:"org"`
	Users    []UserResponse    `json:"users"`
	Calls    []CallResponse    `json:"calls"`
	Carriers []CarrierResponse `json:"carriers"`
	Loads    []LoadResponse    `json:"loads"`
	Periods  []PeriodResponse  `json:"periods"`
}

const exportBatchLimit = 1000

// ExportData выгружает данные организации одним JSON-документом.
// Только для администраторов.
// GET /api/v1/gdpr/export
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims.Role != domain.RoleAdmin {
		Forbidden(w, "admin role required")
		return
	}

	ctx := r.Context()

	org, err := h.orgRepo.GetOrgByID(ctx, claims.OrgID)
	if HandleRepoError(w, h.logger, err, "organization not found") {
		return
	}

	users, err := h.orgRepo.ListUsersByOrg(ctx, claims.OrgID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	calls, err := h.callRepo.List(ctx, repo.CallFilter{OrgID: claims.OrgID, Limit: exportBatchLimit})
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	carriers, err := h.crmRepo.ListCarriers(ctx, claims.OrgID, exportBatchLimit, 0)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	loads, err := h.crmRepo.ListLoads(ctx, claims.OrgID, "", exportBatchLimit, 0)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	periods, err := h.usageRepo.ListPeriods(ctx, claims.OrgID, exportBatchLimit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	export := gdprExport{Org: OrgFromDomain(*org)}

	export.Users = make([]UserResponse, len(users))
	for i, u := range users {
		export.Users[i] = UserFromDomain(u)
	}
	export.Calls = make([]CallResponse, len(calls))
	for i, c := range calls {
		export.Calls[i] = CallFromDomain(c)
	}
	export.Carriers = make([]CarrierResponse, len(carriers))
	for i, c := range carriers {
		export.Carriers[i] = CarrierFromDomain(c)
	}
	export.Loads = make([]LoadResponse, len(loads))
	for i, l := range loads {
		export.Loads[i] = LoadFromDomain(l)
	}
	export.Periods = make([]PeriodResponse, len(periods))
	for i, p := range periods {
		export.Periods[i] = PeriodFromDomain(p)
	}

	w.Header().Set("Content-Disposition", `attachment; filename="freightline-export.json"`)
	JSON(w, http.StatusOK, export)
}

// DeleteData затирает PII организации: тексты расшифровок,
// извлечённые поля и данные пользователей. Биллинговые счётчики
// остаются — они нужны для расчётов. Только для администраторов.
// POST /api/v1/gdpr/delete
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims.Role != domain.RoleAdmin {
		Forbidden(w, "admin role required")
		return
	}

	ctx := r.Context()

	if err := h.callRepo.RedactByOrg(ctx, claims.OrgID); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	users, err := h.orgRepo.ListUsersByOrg(ctx, claims.OrgID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	for _, u := range users {
		u.Anonymize()
		if err := h.orgRepo.UpdateUser(ctx, &u); err != nil {
			InternalError(w, h.logger, err)
			return
		}
	}

	h.logger.Info("org data redacted", "org_id", claims.OrgID, "users", len(users))

	Accepted(w, struct {
		Status string `json:"status"`
	}{Status: "redaction complete"})
}
