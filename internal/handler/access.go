package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
	"risewith9-sales-api/internal/service"
	"risewith9-sales-api/pkg/apierror"
	"risewith9-sales-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// AccessHandler handles access-code HTTP requests.
type AccessHandler struct {
	access   *service.AccessService
	validate *validator.Validate
}

// NewAccessHandler creates a new access handler.
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{
		access:   access,
		validate: validator.New(),
	}
}

// GenerateRequest is the POST /access/generate body.
type GenerateRequest struct {
	BuyerID         string `json:"buyer_id" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
}

// Generate handles POST /api/v1/access/generate
func (h *AccessHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.BadRequest("buyer_id is required"))
		return
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	result, err := h.access.Issue(r.Context(), req.BuyerID, duration)
	if err != nil {
		response.Error(w, mapAccessError(err))
		return
	}
	response.Created(w, result)
}

// RemainingResponse is the countdown view returned per buyer.
type RemainingResponse struct {
	BuyerID     string `json:"buyer_id"`
	Phase       string `json:"phase"`
	RemainingMS int64  `json:"remaining_ms"`
	Display     string `json:"display"`
}

// Remaining handles GET /api/v1/access/remaining/{buyerId}
func (h *AccessHandler) Remaining(w http.ResponseWriter, r *http.Request) {
	buyerID := chi.URLParam(r, "buyerId")

	state, err := h.access.Remaining(r.Context(), buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(w, apierror.NotFound("buyer not found"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, RemainingResponse{
		BuyerID:     buyerID,
		Phase:       string(state.Phase),
		RemainingMS: state.RemainingMillis(),
		Display:     state.Format(),
	})
}

// ValidateRequest is the POST /access/validate body.
type ValidateRequest struct {
	Code string `json:"code" validate:"required"`
}

// ValidateResponse mirrors the tour entry check: invalid codes are a
// normal outcome, not an HTTP error.
type ValidateResponse struct {
	Valid      bool              `json:"valid"`
	Message    string            `json:"message,omitempty"`
	Unit       *model.Unit       `json:"unit,omitempty"`
	AccessCode *model.AccessCode `json:"access_code,omitempty"`
}

// Validate handles POST /api/v1/access/validate
func (h *AccessHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.BadRequest("code is required"))
		return
	}

	unit, record, err := h.access.Validate(r.Context(), req.Code)
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		response.OK(w, ValidateResponse{Valid: false, Message: "Invalid Access Code"})
	case errors.Is(err, service.ErrLinkedUnitMissing):
		response.OK(w, ValidateResponse{Valid: false, Message: "Linked unit not found"})
	case err != nil:
		response.Error(w, err)
	default:
		response.OK(w, ValidateResponse{Valid: true, Unit: unit, AccessCode: record})
	}
}

// Revoke handles DELETE /api/v1/access/{buyerId}
func (h *AccessHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	buyerID := chi.URLParam(r, "buyerId")

	err := h.access.Revoke(r.Context(), buyerID)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(w, apierror.NotFound("buyer not found"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

func mapAccessError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("buyer not found")
	case errors.Is(err, service.ErrNoAssignedUnit):
		return apierror.BadRequest("buyer has no assigned unit")
	case errors.Is(err, service.ErrLinkedUnitMissing):
		return apierror.Conflict("Linked unit not found")
	case errors.Is(err, service.ErrCodeStillActive):
		return apierror.Conflict("an unexpired access code already exists for this buyer")
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		return apierror.ServiceUnavailable("could not allocate a unique access code")
	default:
		return err
	}
}
