package security

import (
	"context"
	"log/slog"

	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// CacheNamespace holds the cached access configuration.
const CacheNamespace = "security"

// RepositoryPort defines data access methods for the security row.
type RepositoryPort interface {
	Get(ctx context.Context) (Config, error)
	Save(ctx context.Context, c Config) (Config, error)
}

// Cache is the read-through cache the guard reads through on every request.
type Cache interface {
	Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, namespace string) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service reads and saves the access configuration.
type Service struct {
	repo   RepositoryPort
	cache  Cache
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance. cache and audit may be nil.
func NewService(repo RepositoryPort, cache Cache, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// Get returns the current configuration.
func (s *Service) Get(ctx context.Context) (Config, error) {
	if s.cache == nil {
		return s.repo.Get(ctx)
	}
	var cfg Config
	err := s.cache.Fetch(ctx, CacheNamespace, "config", &cfg, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx)
	})
	return cfg.normalized(), err
}

// Save merges in over the stored configuration, validates every entry and
// persists the result. Last write wins.
func (s *Service) Save(ctx context.Context, actor shared.Principal, in UpdateInput) (Config, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return Config{}, err
	}
	next, err := in.apply(current)
	if err != nil {
		return Config{}, err
	}
	if err := next.Validate(); err != nil {
		return Config{}, err
	}
	saved, err := s.repo.Save(ctx, next)
	if err != nil {
		return Config{}, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, CacheNamespace); err != nil {
			s.logger.Warn("security cache invalidate", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "security.update",
			Entity:   "security_settings",
			EntityID: "1",
			Meta: map[string]any{
				"ip_restriction_enabled": saved.IPRestrictionEnabled,
				"allowlist":              saved.IPAllowlist,
				"denylist":               saved.IPDenylist,
			},
		})
		if err != nil {
			s.logger.Error("security audit", slog.Any("error", err))
		}
	}
	return saved, nil
}
