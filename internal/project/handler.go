package project

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vibeditor/backend/internal/middleware"
	"github.com/vibeditor/backend/internal/response"
)

// Handler holds HTTP handlers for project and editor endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new project Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type projectRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ProjectData json.RawMessage `json:"projectData"`
}

// Create creates a new project for the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		response.BadRequest(w, "title is required")
		return
	}

	p, err := h.repo.Create(r.Context(), middleware.UserID(r.Context()), req.Title, req.Description, req.ProjectData)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.Created(w, p)
}

// List returns all projects owned by the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.ListByUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, projects)
}

// Get returns a single project by ID.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "project not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

// Update modifies a project's title, description, or editing state.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	p, err := h.repo.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"), req.Title, req.Description, req.ProjectData)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "project not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

// Delete removes a project.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "project not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]bool{"deleted": true})
}

type processRequest struct {
	Operations json.RawMessage `json:"operations"`
}

// Process records pending edit operations and marks the project as processing.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(req.Operations) == 0 {
		response.BadRequest(w, "operations are required")
		return
	}

	userID := middleware.UserID(r.Context())
	id := chi.URLParam(r, "id")

	data, err := json.Marshal(map[string]json.RawMessage{"operations": req.Operations})
	if err != nil {
		response.InternalError(w)
		return
	}
	if _, err := h.repo.Update(r.Context(), userID, id, "", "", data); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "project not found")
			return
		}
		response.InternalError(w)
		return
	}

	p, err := h.repo.SetStatus(r.Context(), userID, id, StatusProcessing)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

// Render marks the project as rendering.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.SetStatus(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"), StatusRendering)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "project not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

type exportRequest struct {
	Quality string `json:"quality"`
}

var validQualities = map[string]bool{
	"720p":  true,
	"1080p": true,
	"4k":    true,
}

// Export finalizes the project with the requested output quality.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Quality == "" {
		req.Quality = "720p"
	}
	if !validQualities[req.Quality] {
		response.BadRequest(w, "quality must be one of: 720p, 1080p, 4k")
		return
	}

	p, err := h.repo.SetStatus(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"), StatusExported)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "project not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]any{
		"project": p,
		"quality": req.Quality,
	})
}
