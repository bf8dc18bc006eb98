package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sid", time.Hour, false), mr
}

func TestSessionMiddlewareCommitsDirtySession(t *testing.T) {
	sessions, mr := newTestSessions(t)
	h := SessionMiddleware(sessions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SessionFromContext(r.Context()).SetPrincipal(Principal{UserID: 9, Role: "admin"})
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, mr.Exists("session:"+cookies[0].Value))

	// The stored principal comes back on the next request.
	var got Principal
	next := SessionMiddleware(sessions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context()).Principal()
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	next.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, Principal{UserID: 9, Role: "admin"}, got)
}

func TestSessionMiddlewareSkipsCleanSession(t *testing.T) {
	sessions, mr := newTestSessions(t)
	h := SessionMiddleware(sessions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, mr.Keys())
}

func TestCSRFMiddleware(t *testing.T) {
	sessions, _ := newTestSessions(t)
	csrf := NewCSRFManager("secret")
	var token string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /token", func(w http.ResponseWriter, r *http.Request) {
		token, _ = csrf.EnsureToken(SessionFromContext(r.Context()))
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /change", func(w http.ResponseWriter, r *http.Request) {})
	h := SessionMiddleware(sessions, nil)(CSRFMiddleware(csrf, nil, "/login")(mux))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Result().Cookies()[0]
	require.NotEmpty(t, token)

	send := func(path, header string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.AddCookie(cookie)
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, send("/change", ""))
	assert.Equal(t, http.StatusForbidden, send("/change", "wrong"))
	assert.Equal(t, http.StatusOK, send("/change", token))
	assert.Equal(t, http.StatusOK, send("/login", ""))
}
