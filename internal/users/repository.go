package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

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

// ListUsers returns all users with their current plan.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.q.Query(ctx,
		`SELECT u.id, u.email, u.name, u.role_id, up.plan_id, u.is_active, u.created_at
		 FROM users u
		 LEFT JOIN user_plans up ON up.user_id = u.id
		 ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.RoleID, &user.PlanID, &user.IsActive, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetCredits returns the credit view for one user. A user without a credits
// row has a zero balance.
func (r *Repository) GetCredits(ctx context.Context, userID int64) (Credits, error) {
	c := Credits{UserID: userID}
	err := r.q.QueryRow(ctx,
		`SELECT up.plan_id, COALESCE(uc.balance, 0), uc.api_quota_per_month
		 FROM users u
		 LEFT JOIN user_plans up ON up.user_id = u.id
		 LEFT JOIN user_credits uc ON uc.user_id = u.id
		 WHERE u.id = $1`, userID).
		Scan(&c.PlanID, &c.Balance, &c.APIQuotaPerMonth)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credits{}, ErrUserNotFound
	}
	if err != nil {
		return Credits{}, fmt.Errorf("users: credits: %w", err)
	}
	return c, nil
}
