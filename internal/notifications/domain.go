package notifications

import "time"

// KindPlanAssigned marks notifications produced by plan assignment.
const KindPlanAssigned = "plan_assigned"

// Notification is an in-app message shown in the console feed.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
