// Package asset tracks uploaded media files and their storage locations.
package asset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Asset represents an uploaded media file tracked in the database.
type Asset struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProjectID    *string   `json:"projectId,omitempty"`
	FileType     string    `json:"fileType"`
	FileName     string    `json:"fileName"`
	ContentType  string    `json:"contentType"`
	FileSize     int64     `json:"fileSize"`
	Storage      string    `json:"storage"`
	DownloadURL  string    `json:"downloadUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ErrNotFound is returned when an asset does not exist or is not owned
// by the requesting user.
var ErrNotFound = errors.New("asset not found")

// Repository handles all asset database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create records an uploaded file.
func (r *Repository) Create(ctx context.Context, a *Asset) (*Asset, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO assets (user_id, project_id, file_type, file_name, content_type, file_size, storage, download_url, thumbnail_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		a.UserID, a.ProjectID, a.FileType, a.FileName, a.ContentType, a.FileSize, a.Storage, a.DownloadURL, a.ThumbnailURL,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	return a, nil
}

// Get fetches an asset by ID, scoped to its owner.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Asset, error) {
	a := &Asset{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, project_id, file_type, file_name, content_type, file_size, storage, download_url, thumbnail_url, created_at
		 FROM assets WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&a.ID, &a.UserID, &a.ProjectID, &a.FileType, &a.FileName, &a.ContentType, &a.FileSize, &a.Storage, &a.DownloadURL, &a.ThumbnailURL, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// ListByUser returns the user's assets, optionally filtered by file type,
// newest first.
func (r *Repository) ListByUser(ctx context.Context, userID, fileType string, limit int) ([]*Asset, error) {
	query := `SELECT id, user_id, project_id, file_type, file_name, content_type, file_size, storage, download_url, thumbnail_url, created_at
	          FROM assets WHERE user_id = $1`
	args := []any{userID}
	if fileType != "" {
		query += ` AND file_type = $2`
		args = append(args, fileType)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := []*Asset{}
	for rows.Next() {
		a := &Asset{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProjectID, &a.FileType, &a.FileName, &a.ContentType, &a.FileSize, &a.Storage, &a.DownloadURL, &a.ThumbnailURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Delete removes an owner's asset record and returns it so the caller can
// release the stored object.
func (r *Repository) Delete(ctx context.Context, userID, id string) (*Asset, error) {
	a := &Asset{}
	err := r.db.QueryRow(ctx,
		`DELETE FROM assets WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, project_id, file_type, file_name, content_type, file_size, storage, download_url, thumbnail_url, created_at`,
		id, userID,
	).Scan(&a.ID, &a.UserID, &a.ProjectID, &a.FileType, &a.FileName, &a.ContentType, &a.FileSize, &a.Storage, &a.DownloadURL, &a.ThumbnailURL, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete asset: %w", err)
	}
	return a, nil
}
