package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Freightline/internal/domain"
)

// ListCarriers возвращает перевозчиков организации.
// GET /api/v1/carriers?limit=&offset=
func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit := int(mustParseInt(r.URL.Query().Get("limit"), 50))
	offset := int(mustParseInt(r.URL.Query().Get("offset"), 0))

	carriers, err := h.crmRepo.ListCarriers(r.Context(), claims.OrgID, limit, offset)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]CarrierResponse, len(carriers))
	for i, c := range carriers {
		result[i] = CarrierFromDomain(c)
	}

	List(w, result, len(result))
}

// CreateCarrier создаёт перевозчика.
// POST /api/v1/carriers
func (h *Handler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req CreateCarrierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	carrier := &domain.Carrier{
		ID:           uuid.New(),
		OrgID:        claims.OrgID,
		Name:         req.Name,
		MCNumber:     req.MCNumber,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Status:       domain.CarrierStatusActive,
		CreatedAt:    time.Now(),
	}

	if err := h.crmRepo.CreateCarrier(r.Context(), carrier); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, CarrierFromDomain(*carrier))
}

// GetCarrier возвращает перевозчика по ID.
// GET /api/v1/carriers/{id}
func (h *Handler) GetCarrier(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid carrier id")
		return
	}

	carrier, err := h.crmRepo.GetCarrier(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "carrier not found") {
		return
	}

	Success(w, CarrierFromDomain(*carrier))
}

// UpdateCarrier обновляет перевозчика.
// PUT /api/v1/carriers/{id}
func (h *Handler) UpdateCarrier(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid carrier id")
		return
	}

	var req UpdateCarrierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	carrier, err := h.crmRepo.GetCarrier(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "carrier not found") {
		return
	}

	if req.Name != nil {
		carrier.Name = *req.Name
	}
	if req.MCNumber != nil {
		carrier.MCNumber = *req.MCNumber
	}
	if req.ContactEmail != nil {
		carrier.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		carrier.ContactPhone = *req.ContactPhone
	}
	if req.Status != nil {
		if *req.Status != domain.CarrierStatusActive && *req.Status != domain.CarrierStatusBlocked {
			BadRequest(w, "status must be active or blocked")
			return
		}
		carrier.Status = *req.Status
	}

	if err := h.crmRepo.UpdateCarrier(r.Context(), carrier); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, CarrierFromDomain(*carrier))
}

// DeleteCarrier удаляет перевозчика.
// DELETE /api/v1/carriers/{id}
func (h *Handler) DeleteCarrier(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid carrier id")
		return
	}

	if err := h.crmRepo.DeleteCarrier(r.Context(), claims.OrgID, id); err != nil {
		if HandleRepoError(w, h.logger, err, "carrier not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}
