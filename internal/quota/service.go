package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// RepositoryPort defines data access methods for the quota row.
type RepositoryPort interface {
	Get(ctx context.Context) (Config, error)
	SaveLimit(ctx context.Context, limit int64) (Config, error)
	Consume(ctx context.Context, n int64) (Config, bool, error)
	ResetUsage(ctx context.Context) (int64, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the API quota setting.
type Service struct {
	repo     RepositoryPort
	audit    AuditRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, validate: validator.New()}
}

// Get returns the current quota configuration.
func (s *Service) Get(ctx context.Context) (Config, error) {
	return s.repo.Get(ctx)
}

// Save updates the monthly limit. Last write wins.
func (s *Service) Save(ctx context.Context, actor shared.Principal, in UpdateInput) (Config, error) {
	if err := s.validate.Struct(in); err != nil {
		return Config{}, ErrInvalidLimit
	}
	cfg, err := s.repo.SaveLimit(ctx, *in.LimitPerMonth)
	if err != nil {
		return Config{}, err
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "api_quota.update",
			Entity:   "api_quota",
			EntityID: "1",
			Meta:     map[string]any{"limit_per_month": cfg.LimitPerMonth},
		})
		if err != nil {
			s.logger.Error("quota audit", slog.Any("error", err))
		}
	}
	return cfg, nil
}

// Consume meters n API calls against the monthly limit.
func (s *Service) Consume(ctx context.Context, n int64) (Config, error) {
	if n <= 0 {
		return Config{}, fmt.Errorf("%w: consume amount must be positive", ErrInvalidLimit)
	}
	cfg, ok, err := s.repo.Consume(ctx, n)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return cfg, ErrQuotaExceeded
	}
	return cfg, nil
}

// ResetUsage zeroes the usage counter; run by the monthly job.
func (s *Service) ResetUsage(ctx context.Context) (int64, error) {
	return s.repo.ResetUsage(ctx)
}
