package rbac

import (
	"context"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
)

// PermissionSource resolves the permission set held by a role.
type PermissionSource interface {
	PermissionsFor(ctx context.Context, roleID string) (permissions.Set, error)
}

// Grant renders the grant string checked by the middleware: "key:scope" for
// scoped permissions, the bare key for flag permissions.
func Grant(key string, scope permissions.Scope) string {
	if scope == "" {
		return key
	}
	return key + ":" + string(scope)
}
