package rbac

import (
	"context"
	"fmt"

	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// Service resolves effective grants for authenticated principals.
type Service struct {
	source PermissionSource
}

// NewService constructs a Service backed by the provided permission source.
func NewService(source PermissionSource) *Service {
	return &Service{source: source}
}

// EffectivePermissions returns the grant strings held by the principal's role.
func (s *Service) EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error) {
	if p.Role == "" {
		return nil, nil
	}
	set, err := s.source.PermissionsFor(ctx, p.Role)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve %s: %w", p.Role, err)
	}
	return set.Grants(), nil
}
