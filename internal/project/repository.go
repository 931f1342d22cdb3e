// Package project manages video-editing projects and their persistence.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Project represents a video-editing project owned by a user.
type Project struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	ProjectData json.RawMessage `json:"projectData"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Project lifecycle states.
const (
	StatusDraft      = "draft"
	StatusProcessing = "processing"
	StatusRendering  = "rendering"
	StatusExported   = "exported"
)

// ErrNotFound is returned when a project does not exist or is not owned
// by the requesting user.
var ErrNotFound = errors.New("project not found")

// Repository handles all project database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new project for the given owner.
func (r *Repository) Create(ctx context.Context, userID, title, description string, data json.RawMessage) (*Project, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	p := &Project{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO projects (user_id, title, description, project_data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, title, description, status, project_data, created_at, updated_at`,
		userID, title, description, data,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.ProjectData, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Get fetches a project by ID, scoped to its owner.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Project, error) {
	p := &Project{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, title, description, status, project_data, created_at, updated_at
		 FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.ProjectData, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListByUser returns all projects owned by the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, title, description, status, project_data, created_at, updated_at
		 FROM projects WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.ProjectData, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update modifies the mutable fields of an owner's project.
func (r *Repository) Update(ctx context.Context, userID, id, title, description string, data json.RawMessage) (*Project, error) {
	p := &Project{}
	err := r.db.QueryRow(ctx,
		`UPDATE projects
		 SET title = COALESCE(NULLIF($3, ''), title),
		     description = $4,
		     project_data = COALESCE($5, project_data),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, description, status, project_data, created_at, updated_at`,
		id, userID, title, description, data,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.ProjectData, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// SetStatus transitions an owner's project to a new lifecycle state.
func (r *Repository) SetStatus(ctx context.Context, userID, id, status string) (*Project, error) {
	p := &Project{}
	err := r.db.QueryRow(ctx,
		`UPDATE projects SET status = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, description, status, project_data, created_at, updated_at`,
		id, userID, status,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Status, &p.ProjectData, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set project status: %w", err)
	}
	return p, nil
}

// Delete removes an owner's project.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
