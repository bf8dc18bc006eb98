package auth_test

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
	"golang.org/x/crypto/bcrypt"

	"github.com/rfpdesk/rfpdesk/internal/auth"
	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
	"github.com/rfpdesk/rfpdesk/internal/shared"
	_ "github.com/rfpdesk/rfpdesk/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, httpx.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	redis    *miniredis.Miniredis
	repo     *stubRepo
}

func newFixture(t *testing.T, active bool) *fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{
		user:     &auth.User{ID: 42, Email: "admin@test.local", PasswordHash: string(hashed), RoleID: "Admin", IsActive: active},
		sessions: map[string]int64{},
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)

	r := chi.NewRouter()
	r.Use(shared.SessionMiddleware(sessions, nil))
	handler := auth.NewHandler(nil, auth.NewService(repo), sessions, shared.NewCSRFManager("csrfsecret"))
	r.Route("/auth", handler.MountRoutes)
	return &fixture{router: r, sessions: sessions, redis: mr, repo: repo}
}

func (f *fixture) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == "test_session" {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestLoginStoresPrincipalAndRotatesSession(t *testing.T) {
	f := newFixture(t, true)

	anon := f.do(http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, anon.Code)

	res := f.do(http.MethodPost, "/auth/login", `{"email":"Admin@test.local","password":"correctpass"}`, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var info auth.SessionInfo
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &info))
	assert.Equal(t, int64(42), info.UserID)
	assert.Equal(t, "admin", info.Role)
	assert.NotEmpty(t, info.CSRFToken)

	cookie := sessionCookie(t, res)
	assert.True(t, f.redis.Exists("session:"+cookie.Value))
	assert.Equal(t, int64(42), f.repo.sessions[cookie.Value])

	me := f.do(http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, me.Code)
	var again auth.SessionInfo
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &again))
	assert.Equal(t, info, again)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t, true)

	cases := map[string]int{
		`{"email":"admin@test.local","password":"wrongpass"}`:   http.StatusUnauthorized,
		`{"email":"nobody@test.local","password":"correctpass"}`: http.StatusUnauthorized,
		`{"email":"not-an-email","password":"correctpass"}`:      http.StatusBadRequest,
		`{"email":"admin@test.local","password":"short"}`:        http.StatusBadRequest,
		`{`: http.StatusBadRequest,
	}
	for body, want := range cases {
		res := f.do(http.MethodPost, "/auth/login", body, nil)
		assert.Equal(t, want, res.Code, body)
	}
	assert.Empty(t, f.repo.sessions)
	assert.Empty(t, f.redis.Keys())
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	f := newFixture(t, false)

	res := f.do(http.MethodPost, "/auth/login", `{"email":"admin@test.local","password":"correctpass"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t, true)

	res := f.do(http.MethodPost, "/auth/login", `{"email":"admin@test.local","password":"correctpass"}`, nil)
	require.Equal(t, http.StatusOK, res.Code)
	cookie := sessionCookie(t, res)

	out := f.do(http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, out.Code)
	assert.False(t, f.redis.Exists("session:"+cookie.Value))
	assert.NotContains(t, f.repo.sessions, cookie.Value)

	me := f.do(http.MethodGet, "/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}
