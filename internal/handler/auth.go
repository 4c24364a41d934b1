package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"risewith9-sales-api/internal/service"
	"risewith9-sales-api/pkg/apierror"
	"risewith9-sales-api/pkg/response"

	"github.com/go-playground/validator/v10"
)

// AuthHandler handles builder authentication HTTP requests.
type AuthHandler struct {
	sessions *service.SessionService
	validate *validator.Validate
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		validate: validator.New(),
	}
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and its expiry.
type LoginResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierror.BadRequest("email and password are required"))
		return
	}

	token, data, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, mapAuthError(err))
		return
	}

	response.OK(w, LoginResponse{
		Token:     token,
		Email:     data.Email,
		ExpiresAt: data.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("no session token provided"))
		return
	}

	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "signed_out"})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("no session token provided"))
		return
	}

	data, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		response.Error(w, mapAuthError(err))
		return
	}

	response.OK(w, LoginResponse{
		Token:     token,
		Email:     data.Email,
		ExpiresAt: data.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// sessionToken extracts the session token from the request headers.
func sessionToken(r *http.Request) string {
	if token := r.Header.Get("X-Token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// mapAuthError converts auth service errors into the fixed user-facing
// strings the dashboard shows.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return apierror.Unauthorized("Invalid email or password.")
	case errors.Is(err, service.ErrAccountDisabled):
		return apierror.Forbidden("This account has been disabled.")
	case errors.Is(err, service.ErrTooManyAttempts):
		return &apierror.Error{
			StatusCode: http.StatusTooManyRequests,
			Code:       "RATE_LIMITED",
			Message:    "Too many failed attempts. Please try again later.",
		}
	case errors.Is(err, service.ErrSessionNotFound):
		return apierror.Unauthorized("Invalid or expired session")
	default:
		return apierror.InternalError("A network error occurred. Please try again.")
	}
}
