package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

type stubRepo struct {
	users   []User
	credits map[int64]Credits
}

func (s *stubRepo) ListUsers(ctx context.Context) ([]User, error) { return s.users, nil }

func (s *stubRepo) GetCredits(ctx context.Context, userID int64) (Credits, error) {
	c, ok := s.credits[userID]
	if !ok {
		return Credits{}, ErrUserNotFound
	}
	return c, nil
}

type fixedGrants []string

func (f fixedGrants) EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error) {
	return f, nil
}

func newTestRouter(repo RepositoryPort, grants fixedGrants) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{}
			sess.SetPrincipal(shared.Principal{UserID: 1, Role: "admin"})
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h := NewHandler(nil, NewService(repo), rbac.Middleware{Service: grants})
	r.Route("/api/admin/users", h.MountRoutes)
	return r
}

func TestListUsersReturnsEmptyArray(t *testing.T) {
	router := newTestRouter(&stubRepo{}, fixedGrants{"can_manage_users:read"})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/users/", nil))

	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"users":[]}`, res.Body.String())
}

func TestCreditsView(t *testing.T) {
	plan := "plan_pro"
	quota := int64(1000)
	repo := &stubRepo{credits: map[int64]Credits{
		7: {UserID: 7, PlanID: &plan, Balance: 500, APIQuotaPerMonth: &quota},
		8: {UserID: 8},
	}}
	router := newTestRouter(repo, fixedGrants{"can_manage_billing:read"})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/users/7/credits", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"userId":7,"planId":"plan_pro","balance":500,"apiQuotaPerMonth":1000}`, res.Body.String())

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/users/8/credits", nil))
	require.Equal(t, http.StatusOK, res.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.NotContains(t, body, "planId")
	assert.Equal(t, float64(0), body["balance"])
}

func TestCreditsErrors(t *testing.T) {
	router := newTestRouter(&stubRepo{}, fixedGrants{"can_manage_users:read"})

	cases := map[string]int{
		"/api/admin/users/abc/credits": http.StatusBadRequest,
		"/api/admin/users/0/credits":   http.StatusBadRequest,
		"/api/admin/users/99/credits":  http.StatusNotFound,
	}
	for path, want := range cases {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, res.Code, path)
	}
}

func TestListUsersRequiresUsersGrant(t *testing.T) {
	router := newTestRouter(&stubRepo{}, fixedGrants{"can_manage_billing:read"})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/users/", nil))

	assert.Equal(t, http.StatusForbidden, res.Code)
}
