package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/platform/cache"
	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

type allowAll struct{}

func (allowAll) EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error) {
	return []string{"can_manage_billing:read", "can_manage_billing:write", "can_manage_billing:delete"}, nil
}

type memKeys struct{ seen map[string]bool }

func (m *memKeys) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	m.seen[key] = true
	return nil
}

func (m *memKeys) Delete(ctx context.Context, key string) error {
	delete(m.seen, key)
	return nil
}

func newBillingRouter(svc *Service, keys IdempotencyStore) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{}
			sess.SetPrincipal(actor)
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/admin/billing", NewHandler(nil, svc, rbac.Middleware{Service: allowAll{}}, keys).MountRoutes)
	return r
}

func TestHandlerAssignPlanIdempotency(t *testing.T) {
	repo := newMemRepo()
	repo.plans["pro"] = Plan{ID: "pro", Name: "Pro"}
	repo.users[7] = true
	svc := NewService(repo, nil, &stubNotifier{}, nil, nil)
	router := newBillingRouter(svc, &memKeys{seen: map[string]bool{}})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/billing/assign", strings.NewReader(`{"userId":7,"planId":"pro"}`))
		req.Header.Set(shared.IdempotencyHeader, "abc")
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		return res
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)
	var body AssignResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Empty(t, body.Message)

	assert.Equal(t, http.StatusConflict, send().Code)
}

func TestHandlerAssignPlanReleasesKeyOnFailure(t *testing.T) {
	keys := &memKeys{seen: map[string]bool{}}
	router := newBillingRouter(NewService(newMemRepo(), nil, nil, nil, nil), keys)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/billing/assign", strings.NewReader(`{"userId":7,"planId":"pro"}`))
	req.Header.Set(shared.IdempotencyHeader, "abc")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Empty(t, keys.seen)
}

func TestHandlerPlanLifecycleWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemRepo()
	svc := NewService(repo, cache.NewJSONCache(client, time.Minute), nil, nil, nil)
	router := newBillingRouter(svc, nil)

	list := func() []Plan {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/billing/plans", nil))
		require.Equal(t, http.StatusOK, res.Code)
		var body struct {
			Plans []Plan `json:"plans"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		return body.Plans
	}

	assert.Empty(t, list())
	assert.Empty(t, list())
	assert.Equal(t, 1, repo.listCalls)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/admin/billing/plans",
		strings.NewReader(`{"name":"Pro","price":49,"interval":"month","creditsIncluded":null,"apiQuotaPerMonth":10000}`)))
	require.Equal(t, http.StatusCreated, res.Code)

	plans := list()
	require.Len(t, plans, 1)
	assert.Nil(t, plans[0].CreditsIncluded)
	require.NotNil(t, plans[0].APIQuotaPerMonth)
	assert.Equal(t, int64(10000), *plans[0].APIQuotaPerMonth)

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/admin/billing/plans", strings.NewReader(`{"name":"","interval":"month"}`)))
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
