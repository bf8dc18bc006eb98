// Package billing manages subscription plans and assigns them to users.
package billing

import (
	"fmt"
	"time"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// Billing intervals.
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

var (
	ErrPlanNotFound = fmt.Errorf("%w: plan not found", httpx.ErrNotFound)
	ErrUserNotFound = fmt.Errorf("%w: user not found", httpx.ErrNotFound)
	ErrPlanInUse    = fmt.Errorf("%w: plan is assigned to users", httpx.ErrConflict)
	ErrInvalidPlan  = fmt.Errorf("%w: invalid plan", httpx.ErrValidation)

	ErrInvalidAssignment = fmt.Errorf("%w: invalid plan assignment", httpx.ErrValidation)
)

// Plan is a billing plan. Nil numeric limits mean "not set", which is
// distinct from an explicit zero.
type Plan struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	Interval         string    `json:"interval"`
	CreditsIncluded  *int64    `json:"creditsIncluded"`
	APIQuotaPerMonth *int64    `json:"apiQuotaPerMonth"`
	Popular          bool      `json:"popular"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

// PlanInput carries the editable plan fields.
type PlanInput struct {
	Name             string  `json:"name" validate:"required,max=120"`
	Price            float64 `json:"price" validate:"gte=0"`
	Interval         string  `json:"interval" validate:"required,oneof=month year"`
	CreditsIncluded  *int64  `json:"creditsIncluded" validate:"omitempty,gte=0"`
	APIQuotaPerMonth *int64  `json:"apiQuotaPerMonth" validate:"omitempty,gte=0"`
	Popular          bool    `json:"popular"`
}

// Assignment moves a user onto a plan.
type Assignment struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	PlanID string `json:"planId" validate:"required"`
}

// AssignResult is returned by plan assignment. Message is set when the
// assignment committed but a side effect failed.
type AssignResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NotificationFailedMessage tells the admin the assignment committed without
// a user notification.
const NotificationFailedMessage = "Plan assigned, but the user notification could not be queued."
