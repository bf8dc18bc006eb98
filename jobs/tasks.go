package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPlanAssigned notifies a user that an admin changed their plan.
	TaskPlanAssigned = "notification:plan_assigned"
	// TaskQuotaReset zeroes the monthly API usage counter.
	TaskQuotaReset = "quota:reset_usage"
	// TaskIdempotencyCleanup prunes processed idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// PlanAssignedPayload describes a committed plan assignment.
type PlanAssignedPayload struct {
	UserID   int64  `json:"user_id"`
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`
	ActorID  int64  `json:"actor_id"`
}

// QuotaResetPayload identifies the month being closed; informational only.
type QuotaResetPayload struct {
	Month string `json:"month,omitempty"`
}

// IdempotencyCleanupPayload configures key retention.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewPlanAssignedTask constructs an Asynq task.
func NewPlanAssignedTask(payload PlanAssignedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPlanAssigned, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// NewQuotaResetTask constructs the monthly reset task.
func NewQuotaResetTask() (*asynq.Task, error) {
	data, err := json.Marshal(QuotaResetPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotaReset, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
