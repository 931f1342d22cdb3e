// Package storage composes the provider adapters behind a single upload,
// delete and signed-URL entry point, routing by file-type tag and size.
package storage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vibeditor/backend/internal/config"
	"github.com/vibeditor/backend/internal/interfaces"
	"github.com/vibeditor/backend/internal/providers/backblaze"
	"github.com/vibeditor/backend/internal/providers/cloudinary"
	"github.com/vibeditor/backend/internal/providers/firebase"
)

// Size thresholds for auto-selection of unrecognized file types.
const (
	largeFileSize = 100 * 1024 * 1024
	smallFileSize = 10 * 1024 * 1024
)

// File-type tags with a fixed service affinity. The routing ladder is a
// static policy table, re-evaluated on every call.
var (
	archivalTypes = map[string]bool{
		"remix_video":     true,
		"remix_audio":     true,
		"remix_thumbnail": true,
	}
	cdnTypes = map[string]bool{
		"editor_video":   true,
		"editor_audio":   true,
		"editor_image":   true,
		"project_export": true,
	}
	sharedTypes = map[string]bool{
		"user_avatar":        true,
		"template_thumbnail": true,
		"effect_preview":     true,
	}
)

// Manager owns the set of adapter instances for the process lifetime.
// Adapters that could not be constructed (missing credentials, bad
// configuration) are simply absent; partial availability is a designed
// operating mode. Manager holds no per-request state and is safe for
// concurrent use.
type Manager struct {
	cloudinary interfaces.StorageService
	backblaze  interfaces.StorageService
	firebase   interfaces.StorageService

	uploadTimeout time.Duration
	logger        *slog.Logger
}

// NewManager initializes every service whose credentials are present.
// Construction failures degrade the affected adapter to unavailable rather
// than failing the whole manager.
func NewManager(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Manager {
	m := &Manager{
		uploadTimeout: cfg.UploadTimeout,
		logger:        logger.With("component", "storage_manager"),
	}

	if cfg.Backblaze != nil {
		client, err := backblaze.NewClient(backblaze.Config{
			KeyID:    cfg.Backblaze.KeyID,
			AppKey:   cfg.Backblaze.AppKey,
			Bucket:   cfg.Backblaze.Bucket,
			Endpoint: cfg.Backblaze.Endpoint,
			Region:   cfg.Backblaze.Region,
		}, logger)
		if err != nil {
			m.logger.Error("failed to initialize backblaze", "error", err)
		} else {
			m.backblaze = client
			m.logger.Info("backblaze b2 service initialized")
		}
	} else {
		m.logger.Warn("backblaze b2 credentials not found")
	}

	if cfg.Cloudinary != nil {
		client, err := cloudinary.NewClient(cloudinary.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
		}, logger)
		if err != nil {
			m.logger.Error("failed to initialize cloudinary", "error", err)
		} else {
			m.cloudinary = client
			m.logger.Info("cloudinary service initialized")
		}
	} else {
		m.logger.Warn("cloudinary credentials not found")
	}

	if cfg.Firebase != nil {
		client, err := firebase.NewClient(ctx, firebase.Config{
			ProjectID:       cfg.Firebase.ProjectID,
			Bucket:          cfg.Firebase.Bucket,
			CredentialsFile: cfg.Firebase.CredentialsFile,
		}, logger)
		if err != nil {
			m.logger.Error("failed to initialize firebase", "error", err)
		} else {
			m.firebase = client
			m.logger.Info("firebase service initialized")
		}
	} else {
		m.logger.Warn("firebase credentials not found")
	}

	return m
}

// NewManagerWithServices creates a manager with pre-built services, nil for
// unavailable ones (for testing).
func NewManagerWithServices(cdn, archival, bucket interfaces.StorageService, logger *slog.Logger) *Manager {
	return &Manager{
		cloudinary: cdn,
		backblaze:  archival,
		firebase:   bucket,
		logger:     logger.With("component", "storage_manager"),
	}
}

// Upload routes the request to a service by file-type tag, falling back to
// the next service in the chain only when the preferred one was never
// configured. A configured-but-failing service fails the call.
func (m *Manager) Upload(ctx context.Context, req *interfaces.UploadRequest, preference string) (*interfaces.UploadResult, error) {
	if m.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.uploadTimeout)
		defer cancel()
	}

	if svc := m.byName(preference); svc != nil {
		return m.uploadTo(ctx, preference, svc, req)
	}

	for _, candidate := range m.candidates(req) {
		if candidate.svc == nil {
			continue
		}
		return m.uploadTo(ctx, candidate.name, candidate.svc, req)
	}

	m.logger.Error("no storage service available", "file_type", req.FileType)
	return nil, ErrNoStorageAvailable
}

// Delete removes the file behind a previously returned URL. Without a
// service hint the owning service is inferred from the URL; when inference
// fails the manager never guesses.
func (m *Manager) Delete(ctx context.Context, downloadURL, serviceHint string) bool {
	name := serviceHint
	if name == "" {
		name = detectService(downloadURL)
	}

	svc := m.byName(name)
	if svc == nil {
		m.logger.Warn("could not determine storage service for URL", "url", downloadURL)
		return false
	}
	return svc.Delete(ctx, downloadURL)
}

// SignedURL returns a time-limited link for the file behind downloadURL.
// Unrecognized URLs come back unchanged; a non-expiring link is better than
// a broken one.
func (m *Manager) SignedURL(ctx context.Context, downloadURL string, expiry time.Duration) string {
	svc := m.byName(detectService(downloadURL))
	if svc == nil {
		return downloadURL
	}
	return svc.SignedURL(ctx, downloadURL, expiry)
}

// ListFiles merges listings from every available service, in the fixed
// order cloudinary, backblaze, firebase, up to limit entries.
func (m *Manager) ListFiles(ctx context.Context, userID, fileType string, limit int) []interfaces.FileDescriptor {
	files := make([]interfaces.FileDescriptor, 0, limit)
	for _, s := range m.services() {
		if s.svc == nil || len(files) >= limit {
			continue
		}
		files = append(files, s.svc.List(ctx, userID, fileType, limit-len(files))...)
	}
	return files
}

// ServiceStatus reports the availability of each service.
func (m *Manager) ServiceStatus() map[string]bool {
	return map[string]bool{
		interfaces.ServiceBackblaze:  m.backblaze != nil,
		interfaces.ServiceCloudinary: m.cloudinary != nil,
		interfaces.ServiceFirebase:   m.firebase != nil,
	}
}

// StorageInfo returns capability metadata for each available service.
func (m *Manager) StorageInfo() map[string]interfaces.ServiceInfo {
	info := make(map[string]interfaces.ServiceInfo)
	for _, s := range m.services() {
		if s.svc != nil {
			info[s.name] = s.svc.Info()
		}
	}
	return info
}

type namedService struct {
	name string
	svc  interfaces.StorageService
}

// candidates builds the fallback chain for one upload. Archival-affinity
// types prefer backblaze, editor types prefer cloudinary, shared resources
// prefer firebase; anything else is auto-selected by size.
func (m *Manager) candidates(req *interfaces.UploadRequest) []namedService {
	switch {
	case archivalTypes[req.FileType]:
		return []namedService{
			{interfaces.ServiceBackblaze, m.backblaze},
			{interfaces.ServiceCloudinary, m.cloudinary},
		}
	case cdnTypes[req.FileType]:
		return []namedService{
			{interfaces.ServiceCloudinary, m.cloudinary},
			{interfaces.ServiceBackblaze, m.backblaze},
		}
	case sharedTypes[req.FileType]:
		return []namedService{
			{interfaces.ServiceFirebase, m.firebase},
			{interfaces.ServiceCloudinary, m.cloudinary},
			{interfaces.ServiceBackblaze, m.backblaze},
		}
	}

	// Unrecognized tag: auto-select by size, then scan all services in
	// fixed order. Duplicates are harmless, the first hit wins.
	var chain []namedService
	if req.Size >= largeFileSize {
		chain = append(chain,
			namedService{interfaces.ServiceCloudinary, m.cloudinary},
			namedService{interfaces.ServiceBackblaze, m.backblaze},
		)
	} else if req.Size < smallFileSize {
		chain = append(chain, namedService{interfaces.ServiceFirebase, m.firebase})
	}
	return append(chain, m.services()...)
}

func (m *Manager) uploadTo(ctx context.Context, name string, svc interfaces.StorageService, req *interfaces.UploadRequest) (*interfaces.UploadResult, error) {
	result, err := svc.Upload(ctx, req)
	if err != nil {
		m.logger.Error("upload failed", "service", name, "file_type", req.FileType, "error", err)
		return nil, &UploadError{Service: name, Err: err}
	}
	return result, nil
}

func (m *Manager) services() []namedService {
	return []namedService{
		{interfaces.ServiceCloudinary, m.cloudinary},
		{interfaces.ServiceBackblaze, m.backblaze},
		{interfaces.ServiceFirebase, m.firebase},
	}
}

func (m *Manager) byName(name string) interfaces.StorageService {
	switch name {
	case interfaces.ServiceBackblaze:
		return m.backblaze
	case interfaces.ServiceCloudinary:
		return m.cloudinary
	case interfaces.ServiceFirebase:
		return m.firebase
	}
	return nil
}

// detectService infers the owning service from URL substrings unique to
// each backend's domain.
func detectService(downloadURL string) string {
	switch {
	case strings.Contains(downloadURL, "backblazeb2.com"), strings.Contains(downloadURL, "b2-api.com"):
		return interfaces.ServiceBackblaze
	case strings.Contains(downloadURL, "cloudinary.com"):
		return interfaces.ServiceCloudinary
	case strings.Contains(downloadURL, "firebase"), strings.Contains(downloadURL, "googleapis.com"):
		return interfaces.ServiceFirebase
	}
	return ""
}
