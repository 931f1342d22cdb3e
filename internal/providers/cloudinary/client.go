// Package cloudinary implements the StorageService interface for
// Cloudinary, the CDN-oriented media backend used by the editor pipeline.
package cloudinary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/vibeditor/backend/internal/interfaces"
	"github.com/vibeditor/backend/internal/objectkey"
)

// Client implements interfaces.StorageService for Cloudinary. It owns its
// SDK handle exclusively; the handle is safe for concurrent use.
type Client struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	logger    *slog.Logger
}

// Config contains the credentials required by the Cloudinary client.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// NewClient creates a new Cloudinary client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Client{
		cld:       cld,
		cloudName: cfg.CloudName,
		logger:    logger.With("component", "cloudinary"),
	}, nil
}

// Upload stores the content under a fresh public ID. Cloudinary addresses
// assets by public ID without extension; uploads are publicly readable by
// design so the editor can embed them directly.
func (c *Client) Upload(ctx context.Context, req *interfaces.UploadRequest) (*interfaces.UploadResult, error) {
	ext := objectkey.Ext(req.ContentType, req.Filename)
	publicID := objectkey.New(req.FileType, req.UserID, "")
	resourceType := resourceTypeFor(req.ContentType, ext)

	resp, err := c.cld.Upload.Upload(ctx, req.Content, uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Context: api.CldAPIMap{
			"user_id":           req.UserID,
			"file_type":         req.FileType,
			"original_filename": originalFilename(req.Filename),
		},
		Tags: api.CldAPIArray{req.FileType, req.UserID},
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload failed: %s", resp.Error.Message)
	}

	result := &interfaces.UploadResult{
		Success:     true,
		FileID:      resp.PublicID,
		FileName:    resp.PublicID,
		DownloadURL: resp.SecureURL,
		FileSize:    int64(resp.Bytes),
		ContentType: req.ContentType,
		Service:     interfaces.ServiceCloudinary,
		Metadata: map[string]string{
			"user_id":           req.UserID,
			"file_type":         req.FileType,
			"original_filename": originalFilename(req.Filename),
			"resource_type":     resourceType,
		},
	}
	if resp.Format != "" {
		result.Metadata["format"] = resp.Format
	}
	if resp.Width > 0 {
		result.Metadata["width"] = fmt.Sprintf("%d", resp.Width)
		result.Metadata["height"] = fmt.Sprintf("%d", resp.Height)
	}
	if resourceType == "video" {
		if thumb, err := c.thumbnailURL(resp.PublicID); err == nil {
			result.ThumbnailURL = thumb
		}
	}

	c.logger.Info("uploaded file", "public_id", resp.PublicID, "bytes", resp.Bytes)
	return result, nil
}

// Delete removes the asset whose public ID can be recovered from the
// delivery URL. Best effort: any failure reports false.
func (c *Client) Delete(ctx context.Context, downloadURL string) bool {
	publicID := ExtractPublicID(downloadURL)
	if publicID == "" {
		c.logger.Error("could not extract public ID from URL", "url", downloadURL)
		return false
	}

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: ResourceTypeFromURL(downloadURL),
	})
	if err != nil {
		c.logger.Error("delete failed", "public_id", publicID, "error", err)
		return false
	}
	if resp.Result != "ok" {
		c.logger.Warn("delete refused", "public_id", publicID, "result", resp.Result)
		return false
	}

	c.logger.Info("deleted file", "public_id", publicID)
	return true
}

// SignedURL returns the input unchanged: Cloudinary delivery URLs are
// globally fetchable without a token.
func (c *Client) SignedURL(ctx context.Context, downloadURL string, expiry time.Duration) string {
	return downloadURL
}

// List returns up to limit assets tagged with the user ID, optionally
// narrowed by file-type tag, via the admin search API.
func (c *Client) List(ctx context.Context, userID, fileType string, limit int) []interfaces.FileDescriptor {
	expr := fmt.Sprintf("tags:%q", userID)
	if fileType != "" {
		expr += fmt.Sprintf(" AND tags:%q", fileType)
	}

	resp, err := c.cld.Admin.Search(ctx, search.Query{
		Expression: expr,
		MaxResults: limit,
	})
	if err != nil {
		c.logger.Error("list failed", "user_id", userID, "error", err)
		return []interfaces.FileDescriptor{}
	}

	files := make([]interfaces.FileDescriptor, 0, len(resp.Assets))
	for _, asset := range resp.Assets {
		files = append(files, interfaces.FileDescriptor{
			FileID:      asset.PublicID,
			FileName:    asset.PublicID,
			Size:        int64(asset.Bytes),
			ContentType: asset.ResourceType,
			DownloadURL: asset.SecureURL,
			Service:     interfaces.ServiceCloudinary,
			Uploaded:    asset.CreatedAt,
		})
	}
	return files
}

// Info returns static capability metadata.
func (c *Client) Info() interfaces.ServiceInfo {
	return interfaces.ServiceInfo{
		Service:  "Cloudinary",
		FreeTier: "25GB storage + 25GB bandwidth/month",
		UseCase:  "Vibe Video Editor files",
		Features: []string{
			"Video processing and transformation",
			"Automatic thumbnail generation",
			"Format conversion",
			"Quality optimization",
			"Responsive delivery",
		},
	}
}

// thumbnailURL builds a 300x200 jpg still for a video asset.
func (c *Client) thumbnailURL(publicID string) (string, error) {
	video, err := c.cld.Video(publicID)
	if err != nil {
		return "", err
	}
	video.Transformation = "w_300,h_200,c_fill,f_jpg"
	return video.String()
}

// ExtractPublicID recovers the public ID from a Cloudinary delivery URL:
// https://res.cloudinary.com/{cloud}/{resource_type}/upload/v{n}/{public_id}.{format}
// The version segment is optional, and public IDs may contain slashes. For
// image and video assets the format extension is stripped; raw assets keep
// it because their public ID includes the extension.
func ExtractPublicID(downloadURL string) string {
	if !strings.Contains(downloadURL, "cloudinary.com") {
		return ""
	}
	_, rest, found := strings.Cut(downloadURL, "/upload/")
	if !found || rest == "" {
		return ""
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		rest = rest[:i]
	}

	// Strip an optional version segment like "v1712345678/".
	if first, remainder, ok := strings.Cut(rest, "/"); ok && isVersionSegment(first) {
		rest = remainder
	}
	if rest == "" {
		return ""
	}

	if ResourceTypeFromURL(downloadURL) == "raw" {
		return rest
	}
	if i := strings.LastIndex(rest, "."); i > strings.LastIndex(rest, "/") {
		rest = rest[:i]
	}
	return rest
}

// ResourceTypeFromURL reads the resource type segment of a delivery URL.
func ResourceTypeFromURL(downloadURL string) string {
	switch {
	case strings.Contains(downloadURL, "/video/upload/"):
		return "video"
	case strings.Contains(downloadURL, "/image/upload/"):
		return "image"
	case strings.Contains(downloadURL, "/raw/upload/"):
		return "raw"
	}
	return "auto"
}

// resourceTypeFor classifies an upload. The declared content type wins; the
// extension is only a fallback. Cloudinary treats audio as video.
func resourceTypeFor(contentType, ext string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "video/"), strings.HasPrefix(ct, "audio/"):
		return "video"
	case strings.HasPrefix(ct, "image/"):
		return "image"
	}

	switch strings.ToLower(ext) {
	case ".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv",
		".mp3", ".wav", ".aac", ".ogg", ".m4a", ".flac":
		return "video"
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg":
		return "image"
	}
	return "raw"
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func originalFilename(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
