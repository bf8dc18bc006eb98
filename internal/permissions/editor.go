package permissions

import "slices"

// Editor holds a role's permission map while an admin composes it against a
// catalog. Checked state of "select all" is always derived from the map.
type Editor struct {
	catalog *Catalog
	perms   Set
}

// NewEditor starts an editor from initial, which is copied.
func NewEditor(catalog *Catalog, initial Set) *Editor {
	perms := initial.Clone()
	if perms == nil {
		perms = make(Set)
	}
	return &Editor{catalog: catalog, perms: perms}
}

// ToggleScope flips membership of scope for key. Scopes outside the
// definition and unknown keys are ignored. For flag definitions the scope
// argument is ignored and presence of the key is toggled.
func (e *Editor) ToggleScope(key string, scope Scope) {
	def, ok := e.catalog.Lookup(key)
	if !ok {
		return
	}
	if def.IsFlag() {
		if _, present := e.perms[key]; present {
			delete(e.perms, key)
		} else {
			e.perms[key] = []Scope{}
		}
		return
	}
	if !def.Allows(scope) {
		return
	}
	current := e.perms[key]
	if idx := slices.Index(current, scope); idx >= 0 {
		e.perms[key] = slices.Delete(slices.Clone(current), idx, idx+1)
		return
	}
	e.perms[key] = orderScopes(def.AllowedScopes(), append(slices.Clone(current), scope))
}

// SetAllScopes backs the per-key "select all" checkbox: checked grants exactly
// allowed, unchecked clears the entry to an empty list. A flag definition has
// nothing to clear, so unchecking removes the key.
func (e *Editor) SetAllScopes(key string, allowed []Scope, checked bool) {
	if checked {
		e.perms[key] = slices.Clone(allowed)
		if e.perms[key] == nil {
			e.perms[key] = []Scope{}
		}
		return
	}
	if def, ok := e.catalog.Lookup(key); ok && def.IsFlag() {
		delete(e.perms, key)
		return
	}
	e.perms[key] = []Scope{}
}

// AllChecked reports whether every allowed scope of key is granted. For flag
// definitions it reports whether the key is present.
func (e *Editor) AllChecked(key string) bool {
	def, ok := e.catalog.Lookup(key)
	if !ok {
		return false
	}
	granted, present := e.perms[key]
	if def.IsFlag() {
		return present
	}
	for _, scope := range def.AllowedScopes() {
		if !slices.Contains(granted, scope) {
			return false
		}
	}
	return true
}

// Scopes returns the scopes currently granted for key.
func (e *Editor) Scopes(key string) []Scope {
	return slices.Clone(e.perms[key])
}

// Permissions returns a copy of the edited map.
func (e *Editor) Permissions() Set {
	return e.perms.Clone()
}
