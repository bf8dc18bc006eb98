package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rfpdesk/rfpdesk/internal/platform/db"
)

// Repository persists the single api_quota row (id = 1).
type Repository struct {
	q db.Querier
}

// NewRepository constructs a repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Get returns the quota row, or a zero Config before it was ever saved.
func (r *Repository) Get(ctx context.Context) (Config, error) {
	var c Config
	err := r.q.QueryRow(ctx, `SELECT limit_per_month, used_this_month FROM api_quota WHERE id = 1`).
		Scan(&c.LimitPerMonth, &c.UsedThisMonth)
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("quota: get: %w", err)
	}
	return c, nil
}

// SaveLimit stores a new monthly limit, keeping the usage counter.
func (r *Repository) SaveLimit(ctx context.Context, limit int64) (Config, error) {
	var c Config
	err := r.q.QueryRow(ctx,
		`INSERT INTO api_quota (id, limit_per_month, used_this_month) VALUES (1, $1, 0)
		 ON CONFLICT (id) DO UPDATE SET limit_per_month = EXCLUDED.limit_per_month, updated_at = NOW()
		 RETURNING limit_per_month, used_this_month`, limit).
		Scan(&c.LimitPerMonth, &c.UsedThisMonth)
	if err != nil {
		return Config{}, fmt.Errorf("quota: save: %w", err)
	}
	return c, nil
}

// Consume adds n to the usage counter when it stays within the limit.
// ok is false when the increment would exceed the limit.
func (r *Repository) Consume(ctx context.Context, n int64) (Config, bool, error) {
	var c Config
	err := r.q.QueryRow(ctx,
		`UPDATE api_quota SET used_this_month = used_this_month + $1, updated_at = NOW()
		 WHERE id = 1 AND used_this_month + $1 <= limit_per_month
		 RETURNING limit_per_month, used_this_month`, n).
		Scan(&c.LimitPerMonth, &c.UsedThisMonth)
	if errors.Is(err, pgx.ErrNoRows) {
		current, gerr := r.Get(ctx)
		return current, false, gerr
	}
	if err != nil {
		return Config{}, false, fmt.Errorf("quota: consume: %w", err)
	}
	return c, true, nil
}

// ResetUsage zeroes the usage counter and reports affected rows.
func (r *Repository) ResetUsage(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE api_quota SET used_this_month = 0, updated_at = NOW() WHERE used_this_month <> 0`)
	if err != nil {
		return 0, fmt.Errorf("quota: reset: %w", err)
	}
	return tag.RowsAffected(), nil
}
