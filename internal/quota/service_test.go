package quota

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

type memRepo struct {
	cfg Config
}

func (m *memRepo) Get(ctx context.Context) (Config, error) { return m.cfg, nil }

func (m *memRepo) SaveLimit(ctx context.Context, limit int64) (Config, error) {
	m.cfg.LimitPerMonth = limit
	return m.cfg, nil
}

func (m *memRepo) Consume(ctx context.Context, n int64) (Config, bool, error) {
	if m.cfg.UsedThisMonth+n > m.cfg.LimitPerMonth {
		return m.cfg, false, nil
	}
	m.cfg.UsedThisMonth += n
	return m.cfg, true, nil
}

func (m *memRepo) ResetUsage(ctx context.Context) (int64, error) {
	if m.cfg.UsedThisMonth == 0 {
		return 0, nil
	}
	m.cfg.UsedThisMonth = 0
	return 1, nil
}

func i64(v int64) *int64 { return &v }

func TestSaveValidatesLimit(t *testing.T) {
	svc := NewService(&memRepo{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, shared.Principal{}, UpdateInput{})
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = svc.Save(ctx, shared.Principal{}, UpdateInput{LimitPerMonth: i64(-1)})
	assert.ErrorIs(t, err, ErrInvalidLimit)

	cfg, err := svc.Save(ctx, shared.Principal{}, UpdateInput{LimitPerMonth: i64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.LimitPerMonth)
}

func TestSaveKeepsUsage(t *testing.T) {
	repo := &memRepo{cfg: Config{LimitPerMonth: 100, UsedThisMonth: 40}}
	svc := NewService(repo, nil, nil)

	cfg, err := svc.Save(context.Background(), shared.Principal{}, UpdateInput{LimitPerMonth: i64(500)})
	require.NoError(t, err)
	assert.Equal(t, Config{LimitPerMonth: 500, UsedThisMonth: 40}, cfg)
}

func TestConsumeAndReset(t *testing.T) {
	repo := &memRepo{cfg: Config{LimitPerMonth: 10}}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	cfg, err := svc.Consume(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Remaining())

	_, err = svc.Consume(ctx, 4)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = svc.Consume(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	n, err := svc.ResetUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), repo.cfg.UsedThisMonth)
}

type allowQuota struct{}

func (allowQuota) EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error) {
	return []string{"can_manage_api_quota:read", "can_manage_api_quota:write"}, nil
}

func TestHandlerIgnoresUsedThisMonth(t *testing.T) {
	repo := &memRepo{cfg: Config{LimitPerMonth: 100, UsedThisMonth: 12}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{}
			sess.SetPrincipal(shared.Principal{UserID: 1, Role: "admin"})
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/admin/api-quota", NewHandler(nil, NewService(repo, nil, nil), rbac.Middleware{Service: allowQuota{}}).MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPatch, "/api/admin/api-quota/",
		strings.NewReader(`{"limitPerMonth":250,"usedThisMonth":0}`)))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"limitPerMonth":250,"usedThisMonth":12}`, res.Body.String())

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPatch, "/api/admin/api-quota/", strings.NewReader(`{"limitPerMonth":1.5}`)))
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
