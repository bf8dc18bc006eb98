package app

import (
	"context"

	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

type denyAll struct{}

func (denyAll) EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error) {
	return nil, nil
}

func rbacDenyAll() rbac.Middleware {
	return rbac.Middleware{Service: denyAll{}}
}
