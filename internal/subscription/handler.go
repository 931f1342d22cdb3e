package subscription

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vibeditor/backend/internal/middleware"
	"github.com/vibeditor/backend/internal/response"
)

// Handler holds HTTP handlers for subscription endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new subscription Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Plans lists all available subscription plans. Public endpoint.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repo.ListPlans(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, plans)
}

type subscribeRequest struct {
	PlanID string `json:"planId"`
}

// Subscribe switches the authenticated user to a new plan.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.PlanID == "" {
		response.BadRequest(w, "planId is required")
		return
	}

	plan, err := h.repo.GetPlan(r.Context(), req.PlanID)
	if errors.Is(err, ErrPlanNotFound) {
		response.BadRequest(w, "unknown plan")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	tx, err := h.repo.Subscribe(r.Context(), middleware.UserID(r.Context()), plan)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]any{
		"plan":        plan,
		"transaction": tx,
	})
}

// Current returns the authenticated user's active plan.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	plan, err := h.repo.CurrentPlan(r.Context(), middleware.UserID(r.Context()))
	if errors.Is(err, ErrPlanNotFound) {
		response.NotFound(w, "no active plan")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, plan)
}
