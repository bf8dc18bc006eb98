package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rfpdesk/rfpdesk/internal/jobs"
	"github.com/rfpdesk/rfpdesk/internal/notifications"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NotificationCreator stores in-app notifications.
type NotificationCreator interface {
	Create(ctx context.Context, n notifications.Notification) (notifications.Notification, error)
}

// UsageResetter zeroes the API usage counter.
type UsageResetter interface {
	ResetUsage(ctx context.Context) (int64, error)
}

// KeyCleaner prunes processed idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PlanAssignedJob turns plan assignments into user notifications.
type PlanAssignedJob struct {
	Notifications NotificationCreator
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
}

// Handle processes TaskPlanAssigned tasks.
func (j *PlanAssignedJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Notifications == nil {
		return errors.New("plan assigned: handler not configured")
	}
	var payload PlanAssignedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("plan assigned: decode: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID <= 0 || payload.PlanID == "" {
		return fmt.Errorf("plan assigned: incomplete payload: %w", asynq.SkipRetry)
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskPlanAssigned)
	defer func() { err = tracker.End(err) }()

	name := payload.PlanName
	if name == "" {
		name = payload.PlanID
	}
	_, err = j.Notifications.Create(ctx, notifications.Notification{
		UserID: payload.UserID,
		Kind:   notifications.KindPlanAssigned,
		Title:  "Your plan has changed",
		Body:   fmt.Sprintf("An administrator moved your account to the %s plan.", name),
	})
	if err != nil {
		loggerOrDefault(j.Logger).Error("create plan notification",
			slog.Int64("user_id", payload.UserID), slog.String("plan_id", payload.PlanID), slog.Any("error", err))
		return err
	}
	return nil
}

// QuotaResetJob runs the monthly usage reset.
type QuotaResetJob struct {
	Quota   UsageResetter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskQuotaReset tasks.
func (j *QuotaResetJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Quota == nil {
		return errors.New("quota reset: handler not configured")
	}
	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskQuotaReset)
	defer func() { err = tracker.End(err) }()

	n, err := j.Quota.ResetUsage(ctx)
	if err != nil {
		return err
	}
	metrics.AddAffected(TaskQuotaReset, n)
	loggerOrDefault(j.Logger).Info("api quota usage reset", slog.Int64("rows", n))
	return nil
}

// IdempotencyCleanupJob prunes old idempotency keys.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("idempotency cleanup: decode: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = 72
	}
	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	n, err := j.Store.Cleanup(ctx, time.Duration(payload.RetentionHours)*time.Hour)
	if err != nil {
		return err
	}
	metrics.AddAffected(TaskIdempotencyCleanup, n)
	return nil
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m == nil {
		return defaultJobMetrics
	}
	return m
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
