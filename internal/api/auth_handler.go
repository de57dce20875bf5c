package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/auth"
	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shaiso/Freightline/internal/repo"
)

// Signup регистрирует новую организацию с пользователем-администратором.
// Если передан query-параметр ref с реферальным кодом, приглашение
// реферера помечается конвертированным (комиссия начисляется позже,
// при оплате первого счёта).
// POST /api/v1/auth/signup?ref=CODE
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.OrgName == "" {
		BadRequest(w, "org_name is required")
		return
	}
	if req.Email == "" {
		BadRequest(w, "email is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	org := &domain.Organization{
		ID:           uuid.New(),
		Name:         req.OrgName,
		PlanID:       domain.PlanStarter.ID,
		ReferralCode: newReferralCode(),
		CreatedAt:    time.Now(),
	}

	if err := h.orgRepo.CreateOrg(r.Context(), org); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	user := &domain.User{
		ID:           uuid.New(),
		OrgID:        org.ID,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now(),
	}

	if err := h.orgRepo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			Conflict(w, "email already registered")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	if code := r.URL.Query().Get("ref"); code != "" {
		h.convertReferral(r, code, req.Email, org.ID)
	}

	token, err := h.auth.IssueToken(user.ID, org.ID, user.Role)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, AuthResponse{
		Token: token,
		User:  UserFromDomain(*user),
		Org:   OrgFromDomain(*org),
	})
}

// convertReferral помечает pending-приглашение конвертированным.
// Ошибки не фатальны для регистрации: неверный код просто игнорируется.
func (h *Handler) convertReferral(r *http.Request, code, email string, orgID uuid.UUID) {
	ctx := r.Context()

	ref, err := h.referralRepo.GetPendingByEmail(ctx, code, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			h.logger.Error("referral lookup failed", "code", code, "error", err)
		}
		return
	}

	ref.MarkConverted(orgID)
	if err := h.referralRepo.UpdateReferral(ctx, ref); err != nil {
		h.logger.Error("referral conversion failed", "referral_id", ref.ID, "error", err)
		return
	}

	h.logger.Info("referral converted", "referral_id", ref.ID, "org_id", orgID)
}

// Login аутентифицирует пользователя и выдаёт JWT.
// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	user, err := h.orgRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			Unauthorized(w, "invalid credentials")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	if user.Anonymized || !auth.CheckPassword(user.PasswordHash, req.Password) {
		Unauthorized(w, "invalid credentials")
		return
	}

	org, err := h.orgRepo.GetOrgByID(r.Context(), user.OrgID)
	if HandleRepoError(w, h.logger, err, "organization not found") {
		return
	}

	token, err := h.auth.IssueToken(user.ID, user.OrgID, user.Role)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, AuthResponse{
		Token: token,
		User:  UserFromDomain(*user),
		Org:   OrgFromDomain(*org),
	})
}

// Me возвращает текущего пользователя и его организацию.
// GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	userID, err := claims.UserID()
	if err != nil {
		Unauthorized(w, "invalid token subject")
		return
	}

	user, err := h.orgRepo.GetUserByID(r.Context(), userID)
	if HandleRepoError(w, h.logger, err, "user not found") {
		return
	}

	org, err := h.orgRepo.GetOrgByID(r.Context(), user.OrgID)
	if HandleRepoError(w, h.logger, err, "organization not found") {
		return
	}

	Success(w, struct {
		User UserResponse `json:"user"`
		Org  OrgResponse  `json:"org"`
	}{
		User: UserFromDomain(*user),
		Org:  OrgFromDomain(*org),
	})
}

// GetOrg возвращает организацию текущего пользователя.
// GET /api/v1/org
func (h *Handler) GetOrg(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	org, err := h.orgRepo.GetOrgByID(r.Context(), claims.OrgID)
	if HandleRepoError(w, h.logger, err, "organization not found") {
		return
	}

	Success(w, OrgFromDomain(*org))
}

// newReferralCode генерирует короткий реферальный код.
func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "FL-" + strings.ToUpper(raw[:8])
}
