package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Freightline/internal/domain"
)

// ListLoads возвращает грузы организации.
// GET /api/v1/loads?status=&limit=&offset=
func (h *Handler) ListLoads(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	status := r.URL.Query().Get("status")
	limit := int(mustParseInt(r.URL.Query().Get("limit"), 50))
	offset := int(mustParseInt(r.URL.Query().Get("offset"), 0))

	loads, err := h.crmRepo.ListLoads(r.Context(), claims.OrgID, status, limit, offset)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]LoadResponse, len(loads))
	for i, l := range loads {
		result[i] = LoadFromDomain(l)
	}

	List(w, result, len(result))
}

// CreateLoad создаёт груз.
// POST /api/v1/loads
func (h *Handler) CreateLoad(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req CreateLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Reference == "" {
		BadRequest(w, "reference is required")
		return
	}
	if req.Origin == "" || req.Destination == "" {
		BadRequest(w, "origin and destination are required")
		return
	}

	rate := decimal.Zero
	if req.Rate != "" {
		var err error
		rate, err = decimal.NewFromString(req.Rate)
		if err != nil {
			BadRequest(w, "invalid rate")
			return
		}
	}

	load := &domain.Load{
		ID:          uuid.New(),
		OrgID:       claims.OrgID,
		Reference:   req.Reference,
		Origin:      req.Origin,
		Destination: req.Destination,
		PickupDate:  req.PickupDate,
		Rate:        rate,
		Status:      domain.LoadStatusOpen,
		CreatedAt:   time.Now(),
	}

	if err := h.crmRepo.CreateLoad(r.Context(), load); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, LoadFromDomain(*load))
}

// GetLoad возвращает груз по ID.
// GET /api/v1/loads/{id}
func (h *Handler) GetLoad(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid load id")
		return
	}

	load, err := h.crmRepo.GetLoad(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "load not found") {
		return
	}

	Success(w, LoadFromDomain(*load))
}

// UpdateLoad обновляет груз.
// PUT /api/v1/loads/{id}
func (h *Handler) UpdateLoad(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid load id")
		return
	}

	var req UpdateLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	load, err := h.crmRepo.GetLoad(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "load not found") {
		return
	}

	if req.Origin != nil {
		load.Origin = *req.Origin
	}
	if req.Destination != nil {
		load.Destination = *req.Destination
	}
	if req.PickupDate != nil {
		load.PickupDate = req.PickupDate
	}
	if req.Rate != nil {
		rate, err := decimal.NewFromString(*req.Rate)
		if err != nil {
			BadRequest(w, "invalid rate")
			return
		}
		load.Rate = rate
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.LoadStatusOpen, domain.LoadStatusBooked,
			domain.LoadStatusDelivered, domain.LoadStatusCancelled:
			load.Status = *req.Status
		default:
			BadRequest(w, "invalid load status")
			return
		}
	}

	if err := h.crmRepo.UpdateLoad(r.Context(), load); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, LoadFromDomain(*load))
}

// BookLoad назначает грузу перевозчика и ставку.
// POST /api/v1/loads/{id}/book
func (h *Handler) BookLoad(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid load id")
		return
	}

	var req BookLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		BadRequest(w, "invalid rate")
		return
	}

	load, err := h.crmRepo.GetLoad(r.Context(), claims.OrgID, id)
	if HandleRepoError(w, h.logger, err, "load not found") {
		return
	}

	if !load.CanBook() {
		InvalidState(w, "load is not open for booking")
		return
	}

	carrier, err := h.crmRepo.GetCarrier(r.Context(), claims.OrgID, req.CarrierID)
	if HandleRepoError(w, h.logger, err, "carrier not found") {
		return
	}
	if carrier.Status == domain.CarrierStatusBlocked {
		InvalidState(w, "carrier is blocked")
		return
	}

	load.Book(carrier.ID, rate)
	if err := h.crmRepo.UpdateLoad(r.Context(), load); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, LoadFromDomain(*load))
}

// DeleteLoad удаляет груз.
// DELETE /api/v1/loads/{id}
func (h *Handler) DeleteLoad(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid load id")
		return
	}

	if err := h.crmRepo.DeleteLoad(r.Context(), claims.OrgID, id); err != nil {
		if HandleRepoError(w, h.logger, err, "load not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}
