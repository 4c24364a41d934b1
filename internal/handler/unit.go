package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
	"risewith9-sales-api/internal/service"
	"risewith9-sales-api/pkg/apierror"
	"risewith9-sales-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// UnitHandler handles unit inventory HTTP requests.
type UnitHandler struct {
	units *service.UnitService
}

// NewUnitHandler creates a new unit handler.
func NewUnitHandler(units *service.UnitService) *UnitHandler {
	return &UnitHandler{units: units}
}

// List handles GET /api/v1/units
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, units)
}

// Get handles GET /api/v1/units/{id}
func (h *UnitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("unit id is required"))
		return
	}

	unit, err := h.units.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(w, apierror.NotFound("unit not found"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, unit)
}

// SetStatusRequest is the PATCH /units/{id}/status body.
type SetStatusRequest struct {
	Status model.UnitStatus `json:"status"`
}

// SetStatus handles PATCH /api/v1/units/{id}/status
func (h *UnitHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	unit, err := h.units.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		response.Error(w, mapUnitError(err))
		return
	}
	response.OK(w, unit)
}

// Toggle handles POST /api/v1/units/{id}/toggle
func (h *UnitHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	unit, err := h.units.Toggle(r.Context(), id)
	if err != nil {
		response.Error(w, mapUnitError(err))
		return
	}
	response.OK(w, unit)
}

// Describe handles POST /api/v1/units/{id}/description
func (h *UnitHandler) Describe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	unit, err := h.units.Describe(r.Context(), id)
	if err != nil {
		response.Error(w, mapUnitError(err))
		return
	}
	response.OK(w, unit)
}

func mapUnitError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("unit not found")
	case errors.Is(err, service.ErrInvalidStatus):
		return apierror.BadRequest("status must be one of Available, Sold, Reserved, Locked")
	case errors.Is(err, service.ErrNotToggleable):
		return apierror.Conflict("only Available and Locked units can be toggled")
	default:
		return err
	}
}
