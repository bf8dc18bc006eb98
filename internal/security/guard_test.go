package security

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/platform/cache"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

func TestDecideDenylistOverridesAllowlist(t *testing.T) {
	cfg := Config{
		IPRestrictionEnabled: true,
		IPAllowlist:          []string{"10.0.0.0/8"},
		IPDenylist:           []string{"10.0.0.5"},
	}

	assert.Equal(t, DecisionDenylisted, Decide(cfg, netip.MustParseAddr("10.0.0.5")))
	assert.Equal(t, DecisionAllowed, Decide(cfg, netip.MustParseAddr("10.0.0.6")))
	assert.Equal(t, DecisionNotAllowlisted, Decide(cfg, netip.MustParseAddr("192.168.1.1")))
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		addr string
		want string
	}{
		{"disabled ignores lists", Config{IPDenylist: []string{"1.2.3.4"}}, "1.2.3.4", DecisionAllowed},
		{"empty allowlist admits", Config{IPRestrictionEnabled: true}, "8.8.8.8", DecisionAllowed},
		{"localhost v4", Config{IPRestrictionEnabled: true, IPAllowlist: []string{"localhost"}}, "127.0.0.1", DecisionAllowed},
		{"localhost v6", Config{IPRestrictionEnabled: true, IPAllowlist: []string{"localhost"}}, "::1", DecisionAllowed},
		{"mapped v4", Config{IPRestrictionEnabled: true, IPDenylist: []string{"10.1.1.1"}}, "::ffff:10.1.1.1", DecisionDenylisted},
		{"unparseable entry ignored", Config{IPRestrictionEnabled: true, IPAllowlist: []string{"999.1.1.1"}}, "10.0.0.1", DecisionNotAllowlisted},
		{"deny cidr", Config{IPRestrictionEnabled: true, IPDenylist: []string{"172.16.0.0/12"}}, "172.20.1.1", DecisionDenylisted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.cfg, netip.MustParseAddr(tc.addr)))
		})
	}
	assert.Equal(t, DecisionUnknownClient, Decide(Config{IPRestrictionEnabled: true}, netip.Addr{}))
}

type memRepo struct {
	cfg   Config
	gets  int
	err   error
	saved int
}

func (m *memRepo) Get(ctx context.Context) (Config, error) {
	m.gets++
	if m.err != nil {
		return Config{}, m.err
	}
	return m.cfg.normalized(), nil
}

func (m *memRepo) Save(ctx context.Context, c Config) (Config, error) {
	m.saved++
	m.cfg = c
	return c.normalized(), nil
}

type countingMetrics struct{ decisions map[string]int }

func (c *countingMetrics) GuardDecision(decision string) { c.decisions[decision]++ }

func guardedRequest(h http.Handler, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
	req.RemoteAddr = remote
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res.Code
}

func TestGuardMiddlewareUsesCachedConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memRepo{}
	svc := NewService(repo, cache.NewJSONCache(client, time.Minute), nil, nil)
	metrics := &countingMetrics{decisions: map[string]int{}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := NewGuard(svc, metrics, nil).Middleware(ok)

	assert.Equal(t, http.StatusNoContent, guardedRequest(h, "203.0.113.7:5000"))

	enabled := true
	_, err := svc.Save(context.Background(), shared.Principal{UserID: 1}, UpdateInput{
		IPRestrictionEnabled: &enabled,
		IPAllowlist:          []string{"10.0.0.0/8"},
		IPDenylist:           []string{"10.9.9.9"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, guardedRequest(h, "203.0.113.7:5000"))
	assert.Equal(t, http.StatusForbidden, guardedRequest(h, "10.9.9.9:5000"))
	assert.Equal(t, http.StatusNoContent, guardedRequest(h, "10.1.2.3:5000"))
	assert.Equal(t, 1, metrics.decisions[DecisionNotAllowlisted])
	assert.Equal(t, 1, metrics.decisions[DecisionDenylisted])
	assert.Equal(t, 1, metrics.decisions[DecisionAllowed])
}

func TestGuardFailsOpenWhenConfigUnavailable(t *testing.T) {
	repo := &memRepo{err: errors.New("db down")}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := NewGuard(NewService(repo, nil, nil, nil), nil, nil).Middleware(ok)

	assert.Equal(t, http.StatusNoContent, guardedRequest(h, "10.0.0.1:1"))
}

func TestServiceSaveMergesAndValidates(t *testing.T) {
	repo := &memRepo{cfg: Config{IPRestrictionEnabled: true, IPAllowlist: []string{"10.0.0.1"}}}
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, shared.Principal{}, UpdateInput{})
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = svc.Save(ctx, shared.Principal{}, UpdateInput{IPDenylist: []string{"nope"}})
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.Equal(t, 0, repo.saved)

	cfg, err := svc.Save(ctx, shared.Principal{}, UpdateInput{IPDenylist: []string{" 10.0.0.1 "}})
	require.NoError(t, err)
	assert.True(t, cfg.IPRestrictionEnabled)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.IPAllowlist)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.IPDenylist, "conflicting entries are stored as submitted")
}
