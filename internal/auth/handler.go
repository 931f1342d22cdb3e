package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/vibeditor/backend/internal/middleware"
	"github.com/vibeditor/backend/internal/response"
	"github.com/vibeditor/backend/internal/user"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and returns a token plus the user record.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !emailRegex.MatchString(req.Email) {
		response.BadRequest(w, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		response.BadRequest(w, "password must be at least 8 characters")
		return
	}

	token, u, err := h.svc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if errors.Is(err, user.ErrAlreadyExists) {
		response.Conflict(w, "email already registered")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, map[string]any{
		"token": token,
		"user":  u,
	})
}

// Login verifies credentials and returns a token plus the user record.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Unauthorized(w, "invalid email or password")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]any{
		"token": token,
		"user":  u,
	})
}

// Profile returns the authenticated user's account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Profile(r.Context(), middleware.UserID(r.Context()))
	if errors.Is(err, user.ErrNotFound) {
		response.NotFound(w, "user not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, u)
}
