package roles

import (
	"fmt"
	"strings"
	"time"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// Built-in role identifiers. Their ids never change and they cannot be deleted.
const (
	RoleSuperAdmin   = "super_admin"
	RoleAdmin        = "admin"
	RoleCustomer     = "customer"
	RoleUser         = "user"
	RoleCollaborator = "collaborator"
)

var (
	ErrRoleNotFound  = fmt.Errorf("%w: role not found", httpx.ErrNotFound)
	ErrRoleNameEmpty = fmt.Errorf("%w: role name is required", httpx.ErrValidation)
	ErrRoleDuplicate = fmt.Errorf("%w: role name already exists", httpx.ErrConflict)
	ErrBuiltInRole   = fmt.Errorf("%w: built-in roles cannot be renamed or deleted", httpx.ErrForbidden)
	ErrRoleInUse     = fmt.Errorf("%w: role is assigned to users", httpx.ErrConflict)
	ErrNotEditable   = fmt.Errorf("%w: role is not editable by caller", httpx.ErrForbidden)
	ErrEmptyCatalog  = fmt.Errorf("%w: permission catalog is empty", httpx.ErrValidation)
)

// Role is a named bundle of permission scopes.
type Role struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	IsBuiltIn   bool            `json:"isBuiltIn"`
	Permissions permissions.Set `json:"permissions"`
	CreatedAt   time.Time       `json:"createdAt,omitzero"`
	UpdatedAt   time.Time       `json:"updatedAt,omitzero"`
}

// RoleInput carries the mutable fields of a role. Name is optional on update.
type RoleInput struct {
	Name        *string         `json:"name,omitempty"`
	Permissions permissions.Set `json:"permissions"`
}

// ListResult is the payload of the role listing endpoint.
type ListResult struct {
	Roles                 []Role                   `json:"roles"`
	PermissionDefinitions []permissions.Definition `json:"permissionDefinitions"`
}

// NormalizeID lower-cases and trims a role id for comparisons.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IsBuiltInID reports whether id names one of the built-in roles.
func IsBuiltInID(id string) bool {
	switch NormalizeID(id) {
	case RoleSuperAdmin, RoleAdmin, RoleCustomer, RoleUser, RoleCollaborator:
		return true
	}
	return false
}
