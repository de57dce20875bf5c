package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
)

// CreateReferral отправляет реферальное приглашение.
// POST /api/v1/referrals
func (h *Handler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req CreateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Email == "" {
		BadRequest(w, "email is required")
		return
	}

	org, err := h.orgRepo.GetOrgByID(r.Context(), claims.OrgID)
	if HandleRepoError(w, h.logger, err, "organization not found") {
		return
	}

	ref := &domain.Referral{
		ID:            uuid.New(),
		OrgID:         org.ID,
		Code:          org.ReferralCode,
		ReferredEmail: req.Email,
		Status:        domain.ReferralStatusPending,
		CreatedAt:     time.Now(),
	}

	if err := h.referralRepo.CreateReferral(r.Context(), ref); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	signupURL := h.baseURL + "/signup?ref=" + url.QueryEscape(org.ReferralCode)
	if _, err := h.email.SendReferralInvite(r.Context(), req.Email, org.Name, signupURL); err != nil {
		h.logger.Error("referral invite email failed",
			"referral_id", ref.ID, "to", req.Email, "error", err)
	}

	Created(w, ReferralFromDomain(*ref))
}

// ListReferrals возвращает приглашения организации.
// GET /api/v1/referrals
func (h *Handler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	refs, err := h.referralRepo.ListReferrals(r.Context(), claims.OrgID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ReferralResponse, len(refs))
	for i, ref := range refs {
		result[i] = ReferralFromDomain(ref)
	}

	List(w, result, len(result))
}

// ListCommissions возвращает комиссии организации-партнёра.
// GET /api/v1/referrals/commissions
func (h *Handler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	commissions, err := h.referralRepo.ListCommissions(r.Context(), claims.OrgID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]CommissionResponse, len(commissions))
	for i, c := range commissions {
		result[i] = CommissionFromDomain(c)
	}

	List(w, result, len(result))
}
