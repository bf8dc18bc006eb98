package users

import (
	"fmt"
	"time"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// ErrUserNotFound is returned when the user id does not exist.
var ErrUserNotFound = fmt.Errorf("%w: user not found", httpx.ErrNotFound)

// User represents a user account for management.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	RoleID    string    `json:"roleId"`
	PlanID    *string   `json:"planId,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credits is the per-user credit view refreshed after a plan assignment.
type Credits struct {
	UserID           int64   `json:"userId"`
	PlanID           *string `json:"planId,omitempty"`
	Balance          int64   `json:"balance"`
	APIQuotaPerMonth *int64  `json:"apiQuotaPerMonth,omitempty"`
}
