package security

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// Guard decisions, also used as metric labels.
const (
	DecisionAllowed        = "allowed"
	DecisionDenylisted     = "denylisted"
	DecisionNotAllowlisted = "not_allowlisted"
	DecisionUnknownClient  = "unknown_client"
)

// Decide evaluates addr against cfg. Denylist matches win over allowlist
// matches; an empty allowlist admits every address not denied.
func Decide(cfg Config, addr netip.Addr) string {
	if !cfg.IPRestrictionEnabled {
		return DecisionAllowed
	}
	if !addr.IsValid() {
		return DecisionUnknownClient
	}
	addr = addr.Unmap()
	if matchesAny(cfg.IPDenylist, addr) {
		return DecisionDenylisted
	}
	if len(cfg.IPAllowlist) > 0 && !matchesAny(cfg.IPAllowlist, addr) {
		return DecisionNotAllowlisted
	}
	return DecisionAllowed
}

func matchesAny(list []string, addr netip.Addr) bool {
	for _, entry := range list {
		if matches(entry, addr) {
			return true
		}
	}
	return false
}

// matches ignores entries that pass the lenient list syntax but are not real
// addresses, such as 999.1.1.1.
func matches(entry string, addr netip.Addr) bool {
	entry = strings.TrimSpace(entry)
	if entry == Localhost {
		return addr.IsLoopback()
	}
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return false
		}
		return prefix.Contains(addr)
	}
	ip, err := netip.ParseAddr(entry)
	if err != nil {
		return false
	}
	return ip == addr
}

// ClientAddr extracts the address from r.RemoteAddr. Forwarding headers are
// applied beforehand by TrustedProxies.Middleware, and only for trusted peers.
func ClientAddr(r *http.Request) netip.Addr {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return netip.Addr{}
	}
	return addr
}

// ConfigSource loads the current access configuration.
type ConfigSource interface {
	Get(ctx context.Context) (Config, error)
}

// DecisionRecorder counts guard outcomes.
type DecisionRecorder interface {
	GuardDecision(decision string)
}

// Guard rejects requests from addresses the access configuration excludes.
type Guard struct {
	source  ConfigSource
	metrics DecisionRecorder
	logger  *slog.Logger
}

// NewGuard builds the middleware. metrics may be nil.
func NewGuard(source ConfigSource, metrics DecisionRecorder, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{source: source, metrics: metrics, logger: logger}
}

// Middleware enforces the configuration. When the configuration cannot be
// loaded the request is let through and the failure logged, so a cache or
// database outage does not lock every administrator out.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := g.source.Get(r.Context())
		if err != nil {
			g.logger.Error("ip guard load config", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}
		addr := ClientAddr(r)
		decision := Decide(cfg, addr)
		if g.metrics != nil && cfg.IPRestrictionEnabled {
			g.metrics.GuardDecision(decision)
		}
		if decision != DecisionAllowed {
			g.logger.Warn("ip guard rejected request",
				slog.String("remote", r.RemoteAddr), slog.String("decision", decision), slog.String("path", r.URL.Path))
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "access from this address is not permitted")
			return
		}
		next.ServeHTTP(w, r)
	})
}
