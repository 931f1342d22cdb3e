package asset

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vibeditor/backend/internal/middleware"
	"github.com/vibeditor/backend/internal/response"
	"github.com/vibeditor/backend/internal/storage"
)

const defaultListLimit = 50

// Handler holds HTTP handlers for asset endpoints.
type Handler struct {
	repo    *Repository
	storage *storage.Manager
}

// NewHandler creates a new asset Handler.
func NewHandler(repo *Repository, storage *storage.Manager) *Handler {
	return &Handler{repo: repo, storage: storage}
}

// List returns the authenticated user's assets, optionally filtered by the
// file_type query parameter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	assets, err := h.repo.ListByUser(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("file_type"), limit)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, assets)
}

// Get returns a single asset by ID.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Get(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "asset not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, a)
}

// Delete removes an asset record and releases its stored object. Storage
// deletion is best effort; the record is removed regardless.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "asset not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	released := h.storage.Delete(r.Context(), a.DownloadURL, a.Storage)
	response.OK(w, map[string]any{
		"deleted":        true,
		"storageDeleted": released,
	})
}
