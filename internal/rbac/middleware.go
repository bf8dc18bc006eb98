package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// Resolver exposes permission resolution for RBAC guards.
type Resolver interface {
	EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service Resolver
	Logger  *slog.Logger
}

// RequireScope ensures the current user holds scope on key.
func (m Middleware) RequireScope(key string, scope permissions.Scope) func(http.Handler) http.Handler {
	return m.RequireAll(Grant(key, scope))
}

// RequireAny ensures the current user has at least one of the required grants.
func (m Middleware) RequireAny(grants ...string) func(http.Handler) http.Handler {
	return m.require("rbac require any", normalizeGrants(grants), hasAnyGrant)
}

// RequireAll ensures the current user has all required grants.
func (m Middleware) RequireAll(grants ...string) func(http.Handler) http.Handler {
	return m.require("rbac require all", normalizeGrants(grants), hasAllGrants)
}

func (m Middleware) require(op string, required []string, check func(granted, required []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			granted, err := m.Service.EffectivePermissions(r.Context(), principal)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error(op, slog.String("role", principal.Role), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if check(granted, required) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+strings.Join(required, ", "))
		})
	}
}

func normalizeGrants(grants []string) []string {
	unique := make(map[string]struct{}, len(grants))
	normalized := make([]string, 0, len(grants))
	for _, g := range grants {
		g = strings.TrimSpace(strings.ToLower(g))
		if g == "" {
			continue
		}
		if _, ok := unique[g]; ok {
			continue
		}
		unique[g] = struct{}{}
		normalized = append(normalized, g)
	}
	return normalized
}

func hasAnyGrant(granted []string, required []string) bool {
	set := toSet(granted)
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllGrants(granted []string, required []string) bool {
	set := toSet(granted)
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

func toSet(granted []string) map[string]struct{} {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[strings.ToLower(g)] = struct{}{}
	}
	return set
}
