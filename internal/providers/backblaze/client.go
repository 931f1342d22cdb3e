// Package backblaze implements the StorageService interface for Backblaze
// B2, the low-cost archival backend used by the remix pipeline. B2 is
// reached through its S3-compatible endpoint, so object keys are a pure
// function of the download URL path.
package backblaze

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vibeditor/backend/internal/interfaces"
	"github.com/vibeditor/backend/internal/objectkey"
)

// Client implements interfaces.StorageService for Backblaze B2.
type Client struct {
	client   *minio.Client
	endpoint string
	bucket   string
	logger   *slog.Logger
}

// Config contains the credentials required by the B2 client. Endpoint is
// the region-scoped S3 endpoint, e.g. "s3.us-west-004.backblazeb2.com".
type Config struct {
	KeyID    string
	AppKey   string
	Bucket   string
	Endpoint string
	Region   string
}

// NewClient creates a new Backblaze B2 client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.KeyID == "" || cfg.AppKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("backblaze credentials not configured")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("backblaze endpoint not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.KeyID, cfg.AppKey, ""),
		Secure: true,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating backblaze client: %w", err)
	}

	return &Client{
		client:   client,
		endpoint: cfg.Endpoint,
		bucket:   cfg.Bucket,
		logger:   logger.With("component", "backblaze"),
	}, nil
}

// Upload stores the content under a fresh object key with user metadata.
func (c *Client) Upload(ctx context.Context, req *interfaces.UploadRequest) (*interfaces.UploadResult, error) {
	ext := objectkey.Ext(req.ContentType, req.Filename)
	key := objectkey.New(req.FileType, req.UserID, ext)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := c.client.PutObject(ctx, c.bucket, key, req.Content, req.Size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"user_id":           req.UserID,
			"file_type":         req.FileType,
			"original_filename": originalFilename(req.Filename),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("b2 upload failed: %w", err)
	}

	c.logger.Info("uploaded file", "key", key, "bytes", info.Size)
	return &interfaces.UploadResult{
		Success:     true,
		FileID:      key,
		FileName:    key,
		DownloadURL: c.downloadURL(key),
		FileSize:    info.Size,
		ContentType: contentType,
		Service:     interfaces.ServiceBackblaze,
		Metadata: map[string]string{
			"user_id":           req.UserID,
			"file_type":         req.FileType,
			"original_filename": originalFilename(req.Filename),
			"etag":              info.ETag,
		},
	}, nil
}

// Delete removes the object whose key can be recovered from the download
// URL. Best effort: unknown URLs and backend failures report false.
func (c *Client) Delete(ctx context.Context, downloadURL string) bool {
	key := ExtractKey(downloadURL, c.bucket)
	if key == "" {
		c.logger.Error("could not extract object key from URL", "url", downloadURL)
		return false
	}

	if _, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{}); err != nil {
		c.logger.Warn("object not found", "key", key, "error", err)
		return false
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		c.logger.Error("delete failed", "key", key, "error", err)
		return false
	}

	c.logger.Info("deleted file", "key", key)
	return true
}

// SignedURL regenerates a presigned GET link with the given TTL. Any
// failure degrades to the original URL.
func (c *Client) SignedURL(ctx context.Context, downloadURL string, expiry time.Duration) string {
	key := ExtractKey(downloadURL, c.bucket)
	if key == "" {
		return downloadURL
	}

	signed, err := c.client.PresignedGetObject(ctx, c.bucket, key, expiry, url.Values{})
	if err != nil {
		c.logger.Error("presign failed", "key", key, "error", err)
		return downloadURL
	}
	return signed.String()
}

// List returns up to limit objects for a user. With a file type the scan is
// prefix-scoped; without one the whole bucket is streamed and filtered on
// the user segment of the key.
func (c *Client) List(ctx context.Context, userID, fileType string, limit int) []interfaces.FileDescriptor {
	files := make([]interfaces.FileDescriptor, 0, limit)

	objectCh := c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    objectkey.Prefix(fileType, userID),
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			c.logger.Error("list failed", "user_id", userID, "error", object.Err)
			return []interfaces.FileDescriptor{}
		}
		if !objectkey.BelongsTo(object.Key, userID, fileType) {
			continue
		}
		files = append(files, interfaces.FileDescriptor{
			FileID:      object.Key,
			FileName:    object.Key,
			Size:        object.Size,
			ContentType: object.ContentType,
			DownloadURL: c.downloadURL(object.Key),
			Service:     interfaces.ServiceBackblaze,
			Uploaded:    object.LastModified,
		})
		if len(files) >= limit {
			break
		}
	}
	return files
}

// Info returns static capability metadata.
func (c *Client) Info() interfaces.ServiceInfo {
	return interfaces.ServiceInfo{
		Service:  "Backblaze B2",
		FreeTier: "10GB storage + 1GB daily download",
		UseCase:  "AI Video Remix files",
		Features: []string{
			"S3-compatible API",
			"Low-cost archival storage",
			"Presigned download URLs",
		},
	}
}

func (c *Client) downloadURL(key string) string {
	return fmt.Sprintf("https://%s/%s/%s", c.endpoint, c.bucket, key)
}

// ExtractKey recovers the object key from a B2 download URL by pure path
// decomposition. Both the S3 form (/{bucket}/{key}) and the friendly form
// (/file/{bucket}/{key}) are handled.
func ExtractKey(downloadURL, bucket string) string {
	if !strings.Contains(downloadURL, "backblazeb2.com") {
		return ""
	}
	u, err := url.Parse(downloadURL)
	if err != nil {
		return ""
	}

	path := strings.TrimPrefix(u.Path, "/")
	path = strings.TrimPrefix(path, "file/")
	key, found := strings.CutPrefix(path, bucket+"/")
	if !found || key == "" {
		return ""
	}
	return key
}

func originalFilename(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
