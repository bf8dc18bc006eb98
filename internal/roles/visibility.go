package roles

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
)

// The rules below decide what a caller may see and edit based on the caller's
// own role. The console applies them as a display filter; Service applies
// them again as authorization on every mutating call.

// FilterVisible returns the roles callerRole may see, preserving order.
// super_admin sees only admin; admin sees everything except admin; any other
// caller gets the list unfiltered.
func FilterVisible(callerRole string, all []Role) []Role {
	caller := NormalizeID(callerRole)
	out := make([]Role, 0, len(all))
	for _, r := range all {
		id := strings.ToLower(r.ID)
		switch caller {
		case RoleSuperAdmin:
			if id != RoleAdmin {
				continue
			}
		case RoleAdmin:
			if id == RoleAdmin {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// CanEdit reports whether callerRole may change target's permissions.
func CanEdit(callerRole string, target Role) bool {
	id := NormalizeID(target.ID)
	switch NormalizeID(callerRole) {
	case RoleSuperAdmin:
		return id == RoleAdmin
	case RoleAdmin:
		if !target.IsBuiltIn && !IsBuiltInID(id) {
			return true
		}
		return id == RoleCustomer || id == RoleUser || id == RoleCollaborator
	default:
		return false
	}
}

// CanCreate reports whether callerRole may create custom roles.
func CanCreate(callerRole string) bool {
	return CanEdit(callerRole, Role{ID: "", IsBuiltIn: false})
}

// CanDelete reports whether callerRole may delete target. Built-in roles are
// never deletable.
func CanDelete(callerRole string, target Role) bool {
	if target.IsBuiltIn || IsBuiltInID(target.ID) {
		return false
	}
	return CanEdit(callerRole, target)
}

var builtInOrder = []string{RoleSuperAdmin, RoleAdmin, RoleCustomer, RoleUser, RoleCollaborator}

// DefaultRoles returns the built-in roles with their initial permissions.
func DefaultRoles(catalog *permissions.Catalog) []Role {
	full := permissions.FullAccess(catalog)
	member := permissions.Set{
		permissions.KeyProposals:  {permissions.ScopeRead, permissions.ScopeWrite},
		permissions.KeyContent:    {permissions.ScopeRead, permissions.ScopeWrite},
		permissions.KeyAIGenerate: {},
		permissions.KeyAnalytics:  {permissions.ScopeRead},
		permissions.KeyNotify:     {permissions.ScopeRead},
	}
	collaborator := permissions.Set{
		permissions.KeyContent: {permissions.ScopeRead, permissions.ScopeWrite},
		permissions.KeyNotify:  {permissions.ScopeRead},
	}
	grants := map[string]permissions.Set{
		RoleSuperAdmin:   full,
		RoleAdmin:        full,
		RoleCustomer:     member,
		RoleUser:         member,
		RoleCollaborator: collaborator,
	}
	out := make([]Role, 0, len(builtInOrder))
	for _, id := range builtInOrder {
		perms, err := catalog.Normalize(grants[id])
		if err != nil {
			// Keys missing from a custom catalog are dropped rather than failing startup.
			perms = intersect(catalog, grants[id])
		}
		out = append(out, Role{ID: id, Name: DisplayName(id), IsBuiltIn: true, Permissions: perms})
	}
	return out
}

// DisplayName derives a human label from a role id ("super_admin" -> "Super Admin").
func DisplayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(NormalizeID(id), "_", " "))
}

// MergeDefaults combines stored roles with the built-in defaults. Stored roles
// win by id; defaults fill built-ins that were never persisted. Built-ins come
// first in their canonical order, then custom roles sorted by name.
func MergeDefaults(stored, defaults []Role) []Role {
	byID := make(map[string]Role, len(stored))
	for _, r := range stored {
		byID[NormalizeID(r.ID)] = r
	}
	out := make([]Role, 0, len(stored)+len(defaults))
	seen := make(map[string]struct{}, len(defaults))
	for _, d := range defaults {
		id := NormalizeID(d.ID)
		seen[id] = struct{}{}
		if r, ok := byID[id]; ok {
			r.IsBuiltIn = true
			out = append(out, r)
			continue
		}
		out = append(out, d)
	}
	custom := make([]Role, 0, len(stored))
	for _, r := range stored {
		if _, ok := seen[NormalizeID(r.ID)]; ok {
			continue
		}
		custom = append(custom, r)
	}
	slices.SortStableFunc(custom, func(a, b Role) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return append(out, custom...)
}

func intersect(catalog *permissions.Catalog, set permissions.Set) permissions.Set {
	out := make(permissions.Set, len(set))
	for key, scopes := range set {
		def, ok := catalog.Lookup(key)
		if !ok {
			continue
		}
		kept := make([]permissions.Scope, 0, len(scopes))
		for _, s := range scopes {
			if def.Allows(s) {
				kept = append(kept, s)
			}
		}
		out[key] = kept
	}
	return out
}
