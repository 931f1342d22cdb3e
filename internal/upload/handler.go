// Package upload exposes the multi-provider storage layer over HTTP.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vibeditor/backend/internal/asset"
	"github.com/vibeditor/backend/internal/interfaces"
	"github.com/vibeditor/backend/internal/middleware"
	"github.com/vibeditor/backend/internal/response"
	"github.com/vibeditor/backend/internal/storage"
	"github.com/vibeditor/backend/internal/video"
)

const (
	defaultListLimit  = 50
	defaultSignExpiry = 24 * time.Hour
	maxSignExpiry     = 7 * 24 * time.Hour
)

// AssetRecorder persists a database record for each successful upload.
type AssetRecorder interface {
	Create(ctx context.Context, a *asset.Asset) (*asset.Asset, error)
}

// Handler holds HTTP handlers for upload and storage endpoints.
type Handler struct {
	storage       *storage.Manager
	assets        AssetRecorder
	video         *video.Processor
	maxUploadSize int64
	logger        *slog.Logger
}

// NewHandler creates a new upload Handler. assets may be nil to skip
// database bookkeeping; video may be nil when ffmpeg is not installed.
func NewHandler(storage *storage.Manager, assets AssetRecorder, proc *video.Processor, maxUploadSize int64, logger *slog.Logger) *Handler {
	return &Handler{storage: storage, assets: assets, video: proc, maxUploadSize: maxUploadSize, logger: logger}
}

// Upload accepts a multipart file and routes it to a storage provider.
// Form fields: file (required), file_type, service, project_id.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.PayloadTooLarge(w, "file exceeds the upload size limit")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	fileType := r.FormValue("file_type")
	if fileType == "" {
		fileType = "general"
	}

	req := &interfaces.UploadRequest{
		Content:     file,
		Size:        header.Size,
		UserID:      middleware.UserID(r.Context()),
		FileType:    fileType,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}

	meta, spool, err := h.probeVideo(r.Context(), req)
	if spool != nil {
		defer spool.Close()
	}
	if err != nil {
		h.logger.Error("spool failed", "filename", header.Filename, "error", err)
		response.InternalError(w)
		return
	}

	result, err := h.storage.Upload(r.Context(), req, r.FormValue("service"))
	if errors.Is(err, storage.ErrNoStorageAvailable) {
		response.ServiceUnavailable(w, "no storage service available")
		return
	}
	if err != nil {
		h.logger.Error("upload failed", "file_type", fileType, "error", err)
		response.Error(w, http.StatusBadGateway, "upload failed")
		return
	}

	if meta != nil {
		if result.Metadata == nil {
			result.Metadata = make(map[string]string)
		}
		result.Metadata["duration"] = strconv.FormatFloat(meta.Duration, 'f', 3, 64)
		result.Metadata["width"] = strconv.Itoa(meta.Width)
		result.Metadata["height"] = strconv.Itoa(meta.Height)
	}

	if h.assets != nil {
		a := &asset.Asset{
			UserID:       req.UserID,
			FileType:     fileType,
			FileName:     header.Filename,
			ContentType:  result.ContentType,
			FileSize:     result.FileSize,
			Storage:      result.Service,
			DownloadURL:  result.DownloadURL,
			ThumbnailURL: result.ThumbnailURL,
		}
		if projectID := r.FormValue("project_id"); projectID != "" {
			a.ProjectID = &projectID
		}
		if _, err := h.assets.Create(r.Context(), a); err != nil {
			// The file is stored; losing the record is recoverable.
			h.logger.Error("record asset failed", "url", result.DownloadURL, "error", err)
		}
	}

	response.Created(w, result)
}

// probeVideo spools a video upload to a temp file, probes it with ffprobe,
// and rewinds the request content to the spooled copy. The returned file,
// if any, must be closed by the caller after the upload finishes; the name
// is already unlinked. Probing itself is best effort, but a failed spool
// consumes part of the stream: the original reader is rewound, and when it
// cannot be, the returned error must abort the upload so a truncated object
// is never stored.
func (h *Handler) probeVideo(ctx context.Context, req *interfaces.UploadRequest) (*video.Metadata, *os.File, error) {
	if h.video == nil || !strings.HasPrefix(req.ContentType, "video/") {
		return nil, nil, nil
	}

	tmp, err := os.CreateTemp("", "upload-probe-*")
	if err != nil {
		return nil, nil, nil
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, req.Content); err != nil {
		tmp.Close()
		return nil, nil, rewind(req.Content)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, nil, rewind(req.Content)
	}
	req.Content = tmp

	meta, err := h.video.Probe(ctx, tmp.Name())
	if err != nil {
		h.logger.Warn("probe failed", "filename", req.Filename, "error", err)
		return nil, tmp, nil
	}
	return meta, tmp, nil
}

// rewind returns a partially drained reader to its start. Multipart files
// are always seekable; anything else that is not cannot be safely uploaded
// after a partial read.
func rewind(content io.Reader) error {
	s, ok := content.(io.Seeker)
	if !ok {
		return errors.New("upload stream partially consumed and not seekable")
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload stream: %w", err)
	}
	return nil
}

// DeleteFile removes a stored object by its download URL.
// Query parameters: url (required), service.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		response.BadRequest(w, "url query parameter is required")
		return
	}

	deleted := h.storage.Delete(r.Context(), rawURL, r.URL.Query().Get("service"))
	response.OK(w, map[string]bool{"deleted": deleted})
}

// SignedURL returns a time-limited access URL for a stored object. When the
// owning provider cannot sign, the original URL is returned unchanged.
// Query parameters: url (required), expiry_hours (default 24, capped at 168).
func (h *Handler) SignedURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		response.BadRequest(w, "url query parameter is required")
		return
	}

	expiry := defaultSignExpiry
	if v := r.URL.Query().Get("expiry_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, "expiry_hours must be a positive integer")
			return
		}
		expiry = time.Duration(n) * time.Hour
	}
	if expiry > maxSignExpiry {
		expiry = maxSignExpiry
	}

	signed := h.storage.SignedURL(r.Context(), rawURL, expiry)
	response.OK(w, map[string]any{
		"url":         signed,
		"expiryHours": int(expiry.Hours()),
	})
}

// Files lists the authenticated user's stored objects across all providers.
// Query parameters: file_type, limit.
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	files := h.storage.ListFiles(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("file_type"), limit)
	response.OK(w, files)
}

// StorageStatus reports which providers are currently configured.
func (h *Handler) StorageStatus(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.storage.ServiceStatus())
}

// StorageInfo describes each available provider's tier and intended use.
func (h *Handler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.storage.StorageInfo())
}
