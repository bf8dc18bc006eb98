package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rfpdesk/rfpdesk/internal/shared"
	"github.com/rfpdesk/rfpdesk/jobs"
)

// CacheNamespace holds the cached plan list.
const CacheNamespace = "plans"

// Cache is the read-through cache used for the plan list.
type Cache interface {
	Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, namespace string) error
}

// Notifier queues the user notification for a committed assignment.
type Notifier interface {
	EnqueuePlanAssigned(ctx context.Context, payload jobs.PlanAssignedPayload) error
}

// Metrics counts plan assignments.
type Metrics interface {
	PlanAssigned(planID string, notified bool)
}

// Service implements plan CRUD and plan assignment.
type Service struct {
	repo     Repository
	cache    Cache
	notifier Notifier
	metrics  Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs the billing service. cache, notifier and metrics may be nil.
func NewService(repo Repository, cache Cache, notifier Notifier, metrics Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		validate: validator.New(),
	}
}

// ListPlans returns all plans ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	if s.cache == nil {
		return s.repo.ListPlans(ctx)
	}
	var plans []Plan
	err := s.cache.Fetch(ctx, CacheNamespace, "all", &plans, func(ctx context.Context) (any, error) {
		return s.repo.ListPlans(ctx)
	})
	return plans, err
}

// CreatePlan validates and stores a new plan.
func (s *Service) CreatePlan(ctx context.Context, actor shared.Principal, in PlanInput) (Plan, error) {
	in, err := s.validatePlan(in)
	if err != nil {
		return Plan{}, err
	}
	plan := fromInput("plan_"+strings.ReplaceAll(uuid.NewString(), "-", "")[:12], in)
	created, err := s.repo.InsertPlan(ctx, plan)
	if err != nil {
		return Plan{}, err
	}
	s.afterMutation(ctx, actor, "plan.create", created.ID)
	return created, nil
}

// UpdatePlan replaces the editable fields of a plan.
func (s *Service) UpdatePlan(ctx context.Context, actor shared.Principal, id string, in PlanInput) (Plan, error) {
	in, err := s.validatePlan(in)
	if err != nil {
		return Plan{}, err
	}
	updated, err := s.repo.UpdatePlan(ctx, fromInput(id, in))
	if err != nil {
		return Plan{}, err
	}
	s.afterMutation(ctx, actor, "plan.update", updated.ID)
	return updated, nil
}

// DeletePlan removes a plan no user is assigned to.
func (s *Service) DeletePlan(ctx context.Context, actor shared.Principal, id string) error {
	n, err := s.repo.CountAssignments(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d user(s) on this plan", ErrPlanInUse, n)
	}
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.afterMutation(ctx, actor, "plan.delete", id)
	return nil
}

// AssignPlan moves a user onto a plan. The plan row, credit balance, quota
// and audit entry commit together; the notification is queued afterwards
// and its failure does not roll the assignment back.
func (s *Service) AssignPlan(ctx context.Context, actor shared.Principal, a Assignment) (AssignResult, error) {
	a.PlanID = strings.TrimSpace(a.PlanID)
	if err := s.validate.Struct(a); err != nil {
		return AssignResult{}, validationError(ErrInvalidAssignment, err)
	}

	var plan Plan
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		plan, err = repo.GetPlan(ctx, a.PlanID)
		if err != nil {
			return err
		}
		exists, err := repo.UserExists(ctx, a.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		if err := repo.UpsertUserPlan(ctx, a.UserID, plan.ID); err != nil {
			return err
		}
		if err := repo.ApplyPlanCredits(ctx, a.UserID, plan); err != nil {
			return err
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "plan.assign",
			Entity:   "user",
			EntityID: fmt.Sprint(a.UserID),
			Meta:     map[string]any{"plan_id": plan.ID},
		})
	})
	if err != nil {
		return AssignResult{}, err
	}

	result := AssignResult{Success: true}
	notified := s.notify(ctx, actor, a.UserID, plan)
	if !notified {
		result.Message = NotificationFailedMessage
	}
	if s.metrics != nil {
		s.metrics.PlanAssigned(plan.ID, notified)
	}
	return result, nil
}

func (s *Service) notify(ctx context.Context, actor shared.Principal, userID int64, plan Plan) bool {
	if s.notifier == nil {
		return false
	}
	err := s.notifier.EnqueuePlanAssigned(ctx, jobs.PlanAssignedPayload{
		UserID:   userID,
		PlanID:   plan.ID,
		PlanName: plan.Name,
		ActorID:  actor.UserID,
	})
	if err != nil {
		s.logger.Error("enqueue plan notification",
			slog.Int64("user_id", userID), slog.String("plan_id", plan.ID), slog.Any("error", err))
		return false
	}
	return true
}

func (s *Service) validatePlan(in PlanInput) (PlanInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Interval = strings.ToLower(strings.TrimSpace(in.Interval))
	if err := s.validate.Struct(in); err != nil {
		return in, validationError(ErrInvalidPlan, err)
	}
	return in, nil
}

func (s *Service) afterMutation(ctx context.Context, actor shared.Principal, action, planID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, CacheNamespace); err != nil {
			s.logger.Warn("plans cache invalidate", slog.Any("error", err))
		}
	}
	err := s.repo.RecordAudit(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "billing_plan",
		EntityID: planID,
	})
	if err != nil {
		s.logger.Error("billing audit", slog.String("action", action), slog.Any("error", err))
	}
}

func fromInput(id string, in PlanInput) Plan {
	return Plan{
		ID:               id,
		Name:             in.Name,
		Price:            in.Price,
		Interval:         in.Interval,
		CreditsIncluded:  in.CreditsIncluded,
		APIQuotaPerMonth: in.APIQuotaPerMonth,
		Popular:          in.Popular,
	}
}

func validationError(base, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", base, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", base, strings.Join(fields, "; "))
}
