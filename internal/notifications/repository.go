package notifications

import (
	"context"
	"fmt"

	"github.com/rfpdesk/rfpdesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	q db.Querier
}

// NewRepository constructs a repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Insert stores a notification and returns it with generated fields.
func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	err := r.q.QueryRow(ctx,
		`INSERT INTO notifications (user_id, kind, title, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, read, created_at`,
		n.UserID, n.Kind, n.Title, n.Body,
	).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return Notification{}, fmt.Errorf("notifications: insert: %w", err)
	}
	return n, nil
}

// ListRecent returns the newest notifications first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, kind, title, body, read, created_at
		 FROM notifications ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications: list: %w", err)
	}
	defer rows.Close()
	out := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notifications: scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
