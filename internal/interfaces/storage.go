// Package interfaces defines the uniform contract implemented by every
// storage backend adapter, plus the normalized records exchanged with the
// storage manager and its callers.
package interfaces

import (
	"context"
	"io"
	"time"
)

// Service identifiers returned in UploadResult.Service and used as
// delete/sign hints.
const (
	ServiceCloudinary = "cloudinary"
	ServiceBackblaze  = "backblaze"
	ServiceFirebase   = "firebase"
)

// UploadRequest carries one upload through the manager to an adapter.
// Content is owned by the caller for the duration of the call.
type UploadRequest struct {
	Content     io.Reader
	Size        int64
	UserID      string
	FileType    string
	Filename    string
	ContentType string
}

// UploadResult is the normalized outcome of an upload, identical in shape
// across all providers so callers never branch on provider identity.
type UploadResult struct {
	Success      bool              `json:"success"`
	FileID       string            `json:"file_id"`
	FileName     string            `json:"file_name"`
	DownloadURL  string            `json:"download_url"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	FileSize     int64             `json:"file_size"`
	ContentType  string            `json:"content_type"`
	Service      string            `json:"service"`
	Metadata     map[string]string `json:"metadata"`
}

// FileDescriptor describes one stored object in a listing. Service names
// the adapter that owns the object, so merged listings stay attributable.
type FileDescriptor struct {
	FileID      string    `json:"file_id,omitempty"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	DownloadURL string    `json:"download_url"`
	Service     string    `json:"service"`
	Uploaded    time.Time `json:"uploaded"`
}

// ServiceInfo is static per-adapter capability metadata, used by
// introspection endpoints only.
type ServiceInfo struct {
	Service  string   `json:"service"`
	FreeTier string   `json:"free_tier"`
	UseCase  string   `json:"use_case"`
	Features []string `json:"features,omitempty"`
}

// StorageService is implemented once per storage backend. Upload failures
// propagate as errors; Delete, SignedURL and List are best-effort and never
// fail the caller's flow.
type StorageService interface {
	// Upload stores the content under a fresh, unique object key and
	// returns the normalized result.
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)

	// Delete removes the object a previously returned download URL points
	// at. It reports false when the object identity cannot be recovered
	// from the URL or the backend refuses; it never returns an error.
	Delete(ctx context.Context, downloadURL string) bool

	// SignedURL returns a time-limited download link for the object behind
	// downloadURL. Adapters whose URLs are already publicly fetchable, and
	// any adapter that fails to sign, return the input unchanged.
	SignedURL(ctx context.Context, downloadURL string, expiry time.Duration) string

	// List returns up to limit descriptors for a user's objects, optionally
	// narrowed to one file-type tag. Backend failures yield an empty slice.
	List(ctx context.Context, userID, fileType string, limit int) []FileDescriptor

	// Info returns static capability metadata for this adapter.
	Info() ServiceInfo
}
