package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rfpdesk/rfpdesk/internal/platform/db"
)

// Repository persists the single security_settings row (id = 1).
type Repository struct {
	q db.Querier
}

// NewRepository constructs a repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Get returns the stored configuration, or the disabled default.
func (r *Repository) Get(ctx context.Context) (Config, error) {
	var c Config
	err := r.q.QueryRow(ctx,
		`SELECT ip_restriction_enabled, ip_allowlist, ip_denylist FROM security_settings WHERE id = 1`).
		Scan(&c.IPRestrictionEnabled, &c.IPAllowlist, &c.IPDenylist)
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}.normalized(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("security: get: %w", err)
	}
	return c.normalized(), nil
}

// Save replaces the stored configuration.
func (r *Repository) Save(ctx context.Context, c Config) (Config, error) {
	c = c.normalized()
	_, err := r.q.Exec(ctx,
		`INSERT INTO security_settings (id, ip_restriction_enabled, ip_allowlist, ip_denylist)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET ip_restriction_enabled = EXCLUDED.ip_restriction_enabled,
		     ip_allowlist = EXCLUDED.ip_allowlist,
		     ip_denylist = EXCLUDED.ip_denylist,
		     updated_at = NOW()`,
		c.IPRestrictionEnabled, c.IPAllowlist, c.IPDenylist)
	if err != nil {
		return Config{}, fmt.Errorf("security: save: %w", err)
	}
	return c, nil
}
