// Package firebase implements the StorageService interface for Firebase
// Storage, the general-purpose bucket backend for shared resources such as
// avatars and template previews. Firebase buckets are plain Google Cloud
// Storage buckets, so the GCS client is used directly.
package firebase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/vibeditor/backend/internal/interfaces"
	"github.com/vibeditor/backend/internal/objectkey"
)

// Client implements interfaces.StorageService for Firebase Storage.
type Client struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// Config contains the configuration for the Firebase Storage client.
// CredentialsFile may be empty, in which case application default
// credentials are used (for deployment environments).
type Config struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

// NewClient creates a new Firebase Storage client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project ID not configured")
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = cfg.ProjectID + ".appspot.com"
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating firebase storage client: %w", err)
	}

	return &Client{
		client: client,
		bucket: bucket,
		logger: logger.With("component", "firebase"),
	}, nil
}

// Close closes the underlying GCS client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Upload stores the content under a fresh object key and makes it publicly
// readable, the default for avatars and shared previews.
func (c *Client) Upload(ctx context.Context, req *interfaces.UploadRequest) (*interfaces.UploadResult, error) {
	ext := objectkey.Ext(req.ContentType, req.Filename)
	key := objectkey.New(req.FileType, req.UserID, ext)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	metadata := map[string]string{
		"user_id":           req.UserID,
		"file_type":         req.FileType,
		"original_filename": originalFilename(req.Filename),
	}

	obj := c.client.Bucket(c.bucket).Object(key)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.Metadata = metadata

	written, err := io.Copy(wc, req.Content)
	if err != nil {
		wc.Close()
		return nil, fmt.Errorf("error writing object %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing upload of object %s: %w", key, err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		// The object exists either way; log and keep the upload.
		c.logger.Warn("could not set public-read ACL", "key", key, "error", err)
	}

	c.logger.Info("uploaded file", "key", key, "bytes", written)
	return &interfaces.UploadResult{
		Success:     true,
		FileID:      key,
		FileName:    key,
		DownloadURL: c.downloadURL(key),
		FileSize:    written,
		ContentType: contentType,
		Service:     interfaces.ServiceFirebase,
		Metadata:    metadata,
	}, nil
}

// Delete removes the object whose blob name can be recovered from the
// download URL. Best effort: unknown URLs and backend failures report false.
func (c *Client) Delete(ctx context.Context, downloadURL string) bool {
	key := ExtractBlobName(downloadURL, c.bucket)
	if key == "" {
		c.logger.Error("could not extract blob name from URL", "url", downloadURL)
		return false
	}

	if err := c.client.Bucket(c.bucket).Object(key).Delete(ctx); err != nil {
		c.logger.Error("delete failed", "key", key, "error", err)
		return false
	}

	c.logger.Info("deleted file", "key", key)
	return true
}

// SignedURL regenerates a V4 signed GET link with the given TTL. Any
// failure degrades to the original URL.
func (c *Client) SignedURL(ctx context.Context, downloadURL string, expiry time.Duration) string {
	key := ExtractBlobName(downloadURL, c.bucket)
	if key == "" {
		return downloadURL
	}

	signed, err := c.client.Bucket(c.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		c.logger.Error("signing failed", "key", key, "error", err)
		return downloadURL
	}
	return signed
}

// List returns up to limit objects for a user. With a file type the scan is
// prefix-scoped; without one the whole bucket is iterated and filtered on
// the user segment of the key.
func (c *Client) List(ctx context.Context, userID, fileType string, limit int) []interfaces.FileDescriptor {
	files := make([]interfaces.FileDescriptor, 0, limit)

	it := c.client.Bucket(c.bucket).Objects(ctx, &storage.Query{
		Prefix: objectkey.Prefix(fileType, userID),
	})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			c.logger.Error("list failed", "user_id", userID, "error", err)
			return []interfaces.FileDescriptor{}
		}
		if !objectkey.BelongsTo(attrs.Name, userID, fileType) {
			continue
		}
		files = append(files, interfaces.FileDescriptor{
			FileID:      attrs.Name,
			FileName:    attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			DownloadURL: c.downloadURL(attrs.Name),
			Service:     interfaces.ServiceFirebase,
			Uploaded:    attrs.Created,
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
		Service:  "Firebase Storage",
		FreeTier: "5GB storage + 1GB daily download",
		UseCase:  "User avatars and shared resources",
		Features: []string{
			"Real-time file synchronization",
			"Secure file access",
			"Global CDN",
			"Automatic scaling",
		},
	}
}

func (c *Client) downloadURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, key)
}

// ExtractBlobName recovers the object name from either download URL form:
//
//	https://storage.googleapis.com/{bucket}/{name}
//	https://firebasestorage.googleapis.com/v0/b/{bucket}/o/{escaped name}?...
func ExtractBlobName(downloadURL, bucket string) string {
	if strings.Contains(downloadURL, "firebasestorage.googleapis.com") {
		_, rest, found := strings.Cut(downloadURL, "/o/")
		if !found {
			return ""
		}
		if i := strings.Index(rest, "?"); i >= 0 {
			rest = rest[:i]
		}
		name, err := url.PathUnescape(rest)
		if err != nil {
			return ""
		}
		return name
	}

	if strings.Contains(downloadURL, "storage.googleapis.com") {
		u, err := url.Parse(downloadURL)
		if err != nil {
			return ""
		}
		name, found := strings.CutPrefix(strings.TrimPrefix(u.Path, "/"), bucket+"/")
		if !found || name == "" {
			return ""
		}
		return name
	}

	return ""
}

func originalFilename(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
