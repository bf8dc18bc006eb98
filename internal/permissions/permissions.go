// Package permissions defines permission scopes, the permission catalog and
// the editable permission map carried by every role.
package permissions

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// Scope is a single grant on a permission key.
type Scope string

const (
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
	ScopeDelete Scope = "delete"
)

// DefaultScopes applies to definitions that do not list their own scopes.
var DefaultScopes = []Scope{ScopeRead, ScopeWrite, ScopeDelete}

var (
	ErrUnknownPermission = fmt.Errorf("%w: unknown permission key", httpx.ErrValidation)
	ErrScopeNotAllowed   = fmt.Errorf("%w: scope not allowed for permission", httpx.ErrValidation)
	ErrInvalidDefinition = errors.New("permissions: invalid definition")
)

// Definition describes one permission key offered by the editor.
// A nil Scopes slice means DefaultScopes; an empty non-nil slice means the
// permission is a plain flag with no sub-scopes.
type Definition struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Scopes      []Scope `json:"scopes"`
	Description string  `json:"description,omitempty"`
}

// AllowedScopes returns the scopes a role may hold for this definition.
func (d Definition) AllowedScopes() []Scope {
	if d.Scopes == nil {
		return slices.Clone(DefaultScopes)
	}
	return slices.Clone(d.Scopes)
}

// Allows reports whether scope is one of the definition's scopes.
func (d Definition) Allows(scope Scope) bool {
	return slices.Contains(d.AllowedScopes(), scope)
}

// IsFlag reports whether the definition has no sub-scopes.
func (d Definition) IsFlag() bool {
	return d.Scopes != nil && len(d.Scopes) == 0
}

// Set maps permission keys to granted scopes.
type Set map[string][]Scope

// Has reports whether scope is granted for key.
func (s Set) Has(key string, scope Scope) bool {
	return slices.Contains(s[key], scope)
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = slices.Clone(v)
	}
	return out
}

// Grants flattens the set into "key:scope" strings; flag permissions become
// the bare key. Used by the server-side authorizer.
func (s Set) Grants() []string {
	out := make([]string, 0, len(s))
	for key, scopes := range s {
		if len(scopes) == 0 {
			out = append(out, key)
			continue
		}
		for _, scope := range scopes {
			out = append(out, key+":"+string(scope))
		}
	}
	slices.Sort(out)
	return out
}

// Catalog is the fixed, ordered list of permission definitions.
type Catalog struct {
	defs  []Definition
	byKey map[string]int
}

// NewCatalog validates and indexes definitions. Keys must be non-empty and
// unique; scopes must be known and not repeated.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]int, len(defs))}
	for _, def := range defs {
		def.Key = strings.TrimSpace(def.Key)
		if def.Key == "" {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidDefinition)
		}
		if _, dup := c.byKey[def.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, def.Key)
		}
		seen := make(map[Scope]struct{}, len(def.Scopes))
		for _, scope := range def.Scopes {
			if !slices.Contains(DefaultScopes, scope) {
				return nil, fmt.Errorf("%w: %q has unknown scope %q", ErrInvalidDefinition, def.Key, scope)
			}
			if _, dup := seen[scope]; dup {
				return nil, fmt.Errorf("%w: %q repeats scope %q", ErrInvalidDefinition, def.Key, scope)
			}
			seen[scope] = struct{}{}
		}
		if def.Label == "" {
			def.Label = def.Key
		}
		c.byKey[def.Key] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static definitions.
func MustCatalog(defs ...Definition) *Catalog {
	c, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Definitions returns a copy of the ordered definitions.
func (c *Catalog) Definitions() []Definition {
	if c == nil {
		return []Definition{}
	}
	return slices.Clone(c.defs)
}

// Lookup finds a definition by key.
func (c *Catalog) Lookup(key string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	idx, ok := c.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return c.defs[idx], true
}

// Empty reports whether the catalog has no definitions.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.defs) == 0
}

// Normalize validates set against the catalog and returns a copy with each
// entry deduplicated and ordered as in its definition. Unknown keys and
// scopes outside the definition are rejected.
func (c *Catalog) Normalize(set Set) (Set, error) {
	out := make(Set, len(set))
	for key, scopes := range set {
		def, ok := c.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPermission, key)
		}
		for _, scope := range scopes {
			if !def.Allows(scope) {
				return nil, fmt.Errorf("%w: %q on %q", ErrScopeNotAllowed, scope, key)
			}
		}
		out[key] = orderScopes(def.AllowedScopes(), scopes)
	}
	return out, nil
}

func orderScopes(allowed, granted []Scope) []Scope {
	out := make([]Scope, 0, len(granted))
	for _, scope := range allowed {
		if slices.Contains(granted, scope) {
			out = append(out, scope)
		}
	}
	return out
}
