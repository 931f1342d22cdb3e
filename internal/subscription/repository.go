// Package subscription manages billing plans and plan changes.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Plan describes a subscription tier and its limits.
type Plan struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	PriceCents    int             `json:"priceCents"`
	MaxProjects   int             `json:"maxProjects"`
	MaxStorageMB  int             `json:"maxStorageMb"`
	ExportQuality string          `json:"exportQuality"`
	Features      json.RawMessage `json:"features"`
}

// Transaction records a plan purchase.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	PlanID      string    `json:"planId"`
	AmountCents int       `json:"amountCents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrPlanNotFound is returned when a plan ID does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// Repository handles all subscription database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListPlans returns all subscription plans ordered by price.
func (r *Repository) ListPlans(ctx context.Context) ([]*Plan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, price_cents, max_projects, max_storage_mb, export_quality, features
		 FROM subscription_plans ORDER BY price_cents`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []*Plan{}
	for rows.Next() {
		p := &Plan{}
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.MaxProjects, &p.MaxStorageMB, &p.ExportQuality, &p.Features); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetPlan fetches a single plan by ID.
func (r *Repository) GetPlan(ctx context.Context, id string) (*Plan, error) {
	p := &Plan{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, price_cents, max_projects, max_storage_mb, export_quality, features
		 FROM subscription_plans WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.PriceCents, &p.MaxProjects, &p.MaxStorageMB, &p.ExportQuality, &p.Features)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// Subscribe switches the user to the given plan and records the transaction.
// Both writes happen in one database transaction.
func (r *Repository) Subscribe(ctx context.Context, userID string, plan *Plan) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin subscribe: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE users SET plan = $2, updated_at = now() WHERE id = $1`,
		userID, plan.ID,
	); err != nil {
		return nil, fmt.Errorf("update user plan: %w", err)
	}

	t := &Transaction{UserID: userID, PlanID: plan.ID, AmountCents: plan.PriceCents, Status: "completed"}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, plan_id, amount_cents)
		 VALUES ($1, $2, $3)
		 RETURNING id, status, created_at`,
		userID, plan.ID, plan.PriceCents,
	).Scan(&t.ID, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit subscribe: %w", err)
	}
	return t, nil
}

// CurrentPlan returns the plan the user is on right now.
func (r *Repository) CurrentPlan(ctx context.Context, userID string) (*Plan, error) {
	p := &Plan{}
	err := r.db.QueryRow(ctx,
		`SELECT sp.id, sp.name, sp.price_cents, sp.max_projects, sp.max_storage_mb, sp.export_quality, sp.features
		 FROM users u JOIN subscription_plans sp ON sp.id = u.plan
		 WHERE u.id = $1`,
		userID,
	).Scan(&p.ID, &p.Name, &p.PriceCents, &p.MaxProjects, &p.MaxStorageMB, &p.ExportQuality, &p.Features)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("current plan: %w", err)
	}
	return p, nil
}
