package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
	"risewith9-sales-api/pkg/apierror"
	"risewith9-sales-api/pkg/response"
	"risewith9-sales-api/pkg/uid"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// BuyerHandler handles buyer registry HTTP requests.
type BuyerHandler struct {
	buyers   repository.BuyerRepository
	validate *validator.Validate
}

// NewBuyerHandler creates a new buyer handler.
func NewBuyerHandler(buyers repository.BuyerRepository) *BuyerHandler {
	return &BuyerHandler{
		buyers:   buyers,
		validate: validator.New(),
	}
}

// BuyerRequest is the create/update body. Required fields are rejected
// before any store call.
type BuyerRequest struct {
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone" validate:"required"`
	AssignedUnitID *string `json:"assigned_unit_id"`
}

// List handles GET /api/v1/buyers
func (h *BuyerHandler) List(w http.ResponseWriter, r *http.Request) {
	buyers, err := h.buyers.ListBuyers(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if buyers == nil {
		buyers = []model.Buyer{}
	}
	response.OK(w, buyers)
}

// Get handles GET /api/v1/buyers/{id}
func (h *BuyerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	buyer, err := h.buyers.GetBuyer(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(w, apierror.NotFound("buyer not found"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, buyer)
}

// Create handles POST /api/v1/buyers
func (h *BuyerHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.decode(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	buyer := &model.Buyer{
		ID:             uid.New(),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		AssignedUnitID: req.AssignedUnitID,
	}
	if err := h.buyers.CreateBuyer(r.Context(), buyer); err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, buyer)
}

// Update handles PUT /api/v1/buyers/{id}
func (h *BuyerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, apiErr := h.decode(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	buyer, err := h.buyers.GetBuyer(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(w, apierror.NotFound("buyer not found"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	buyer.Name = req.Name
	buyer.Email = req.Email
	buyer.Phone = req.Phone
	buyer.AssignedUnitID = req.AssignedUnitID

	if err := h.buyers.UpdateBuyer(r.Context(), buyer); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, buyer)
}

// Delete handles DELETE /api/v1/buyers/{id}
func (h *BuyerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.buyers.DeleteBuyer(r.Context(), id)
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

func (h *BuyerHandler) decode(r *http.Request) (*BuyerRequest, *apierror.Error) {
	var req BuyerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apierror.BadRequest("invalid JSON body")
	}
	if err := h.validate.Struct(req); err != nil {
		var details []apierror.FieldError
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, apierror.FieldError{
					Field:   fe.Field(),
					Message: "failed on " + fe.Tag(),
				})
			}
		}
		return nil, apierror.ValidationError("name, email and phone are required", details...)
	}
	return &req, nil
}
