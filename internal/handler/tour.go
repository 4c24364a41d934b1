package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/service"
	"risewith9-sales-api/pkg/apierror"
	"risewith9-sales-api/pkg/response"

	"github.com/go-playground/validator/v10"
)

// TourHandler handles virtual tour HTTP requests.
type TourHandler struct {
	tours    *service.TourService
	validate *validator.Validate
}

// NewTourHandler creates a new tour handler.
func NewTourHandler(tours *service.TourService) *TourHandler {
	return &TourHandler{
		tours:    tours,
		validate: validator.New(),
	}
}

// StartRequest is the POST /tour/start body.
type StartRequest struct {
	Code string `json:"code" validate:"required"`
}

// StartResponse carries the opened session and its unit.
type StartResponse struct {
	Session *model.TourSession `json:"session"`
	Unit    *model.Unit        `json:"unit"`
}

// Start handles POST /api/v1/tour/start
func (h *TourHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.BadRequest("code is required"))
		return
	}

	session, unit, err := h.tours.Start(r.Context(), req.Code)
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		response.Error(w, apierror.Unauthorized("Invalid Access Code"))
	case errors.Is(err, service.ErrLinkedUnitMissing):
		response.Error(w, apierror.Conflict("Linked unit not found"))
	case err != nil:
		response.Error(w, err)
	default:
		response.Created(w, StartResponse{Session: session, Unit: unit})
	}
}

// VisitRequest is the POST /tour/visit body.
type VisitRequest struct {
	SessionID string  `json:"session_id" validate:"required"`
	Room      string  `json:"room" validate:"required"`
	Minutes   float64 `json:"minutes" validate:"gte=0"`
}

// Visit handles POST /api/v1/tour/visit
func (h *TourHandler) Visit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.BadRequest("session_id and room are required"))
		return
	}

	err := h.tours.RecordVisit(r.Context(), req.SessionID, req.Room, req.Minutes)
	if errors.Is(err, service.ErrTourNotFound) {
		response.Error(w, apierror.NotFound("tour session not found or expired"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "recorded"})
}

// LiveRequest is the POST /tour/live body.
type LiveRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Live      bool   `json:"live"`
}

// Live handles POST /api/v1/tour/live
func (h *TourHandler) Live(w http.ResponseWriter, r *http.Request) {
	var req LiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.BadRequest("session_id is required"))
		return
	}

	session, err := h.tours.SetBuilderLive(r.Context(), req.SessionID, req.Live)
	if errors.Is(err, service.ErrTourNotFound) {
		response.Error(w, apierror.NotFound("tour session not found or expired"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, session)
}
