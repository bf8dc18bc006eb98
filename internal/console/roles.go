package console

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/roles"
)

// RoleEditor lists, edits and deletes roles.
type RoleEditor struct {
	deps
}

// RoleList is the role screen's data after the visibility filter.
type RoleList struct {
	Roles   []roles.Role
	Catalog *permissions.Catalog
}

// List returns the roles callerRole may see. The server already filters;
// the filter is applied again so the display rule holds for any backend.
func (e *RoleEditor) List(ctx context.Context, callerRole string) (RoleList, error) {
	res, err := query(ctx, e.cache, KeyRoles, func(ctx context.Context) (roles.ListResult, error) {
		var out roles.ListResult
		err := e.client.do(ctx, http.MethodGet, pathRoles, nil, &out)
		return out, err
	})
	if err != nil {
		return RoleList{}, e.report("Could not load roles", err)
	}
	catalog, err := permissions.NewCatalog(res.PermissionDefinitions...)
	if err != nil {
		return RoleList{}, e.report("Invalid permission catalog", err)
	}
	return RoleList{Roles: roles.FilterVisible(callerRole, res.Roles), Catalog: catalog}, nil
}

// Draft is a role being edited. Built-in drafts keep their id and name.
type Draft struct {
	ID        string
	Name      string
	IsBuiltIn bool
	*permissions.Editor
}

// NameEditable reports whether the name field accepts input.
func (d *Draft) NameEditable() bool {
	return !d.IsBuiltIn
}

// NewDraft starts editing role, or a new custom role when role is nil. An
// empty catalog yields ErrEmptyCatalog so the caller can show its empty state.
func (e *RoleEditor) NewDraft(catalog *permissions.Catalog, role *roles.Role) (*Draft, error) {
	if catalog == nil || catalog.Empty() {
		return nil, ErrEmptyCatalog
	}
	if role == nil {
		return &Draft{Editor: permissions.NewEditor(catalog, nil)}, nil
	}
	return &Draft{
		ID:        role.ID,
		Name:      role.Name,
		IsBuiltIn: role.IsBuiltIn,
		Editor:    permissions.NewEditor(catalog, role.Permissions),
	}, nil
}

// Save creates or updates the role behind draft. On failure the draft is
// untouched and a destructive toast is shown.
func (e *RoleEditor) Save(ctx context.Context, draft *Draft) (roles.Role, error) {
	name := strings.TrimSpace(draft.Name)
	if !draft.IsBuiltIn && name == "" {
		return roles.Role{}, e.report("Role not saved", &ValidationError{Field: "name", Message: "Role name is required"})
	}
	in := roles.RoleInput{Permissions: draft.Permissions()}
	if !draft.IsBuiltIn {
		in.Name = &name
	}

	action := "role.create"
	method, path := http.MethodPost, pathRoles
	if draft.ID != "" {
		action = "role.save:" + draft.ID
		method, path = http.MethodPatch, pathRoles+"/"+url.PathEscape(draft.ID)
	}

	var saved roles.Role
	err := e.pending.Run(action, func() error {
		return e.client.do(ctx, method, path, in, &saved)
	})
	if err != nil {
		return roles.Role{}, e.report("Role not saved", err)
	}
	e.cache.Invalidate(KeyRoles)
	e.toaster.Toast(Toast{Title: "Role saved", Description: saved.Name})
	return saved, nil
}

// Delete removes a custom role once confirm returns true. Built-in roles
// never reach the server. The boolean reports whether the role was deleted.
func (e *RoleEditor) Delete(ctx context.Context, role roles.Role, confirm Confirm) (bool, error) {
	if role.IsBuiltIn || roles.IsBuiltInID(role.ID) {
		return false, e.report("Role not deleted", ErrBuiltInRole)
	}
	if confirm == nil || !confirm() {
		return false, nil
	}
	err := e.pending.Run("role.delete:"+role.ID, func() error {
		return e.client.do(ctx, http.MethodDelete, pathRoles+"/"+url.PathEscape(role.ID), nil, nil)
	})
	if err != nil {
		return false, e.report("Role not deleted", err)
	}
	e.cache.Invalidate(KeyRoles)
	e.toaster.Toast(Toast{Title: "Role deleted", Description: role.Name})
	return true, nil
}
