package console

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	_, err := NewClient("/api")
	require.Error(t, err)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL.String())
}

func TestErrorMessagePrefersDetailThenMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"problem detail", http.StatusConflict, `{"detail":"role name already exists","message":"ignored"}`, "role name already exists"},
		{"message field", http.StatusBadRequest, `{"message":"bad plan"}`, "bad plan"},
		{"status text", http.StatusForbidden, `not json`, "Forbidden"},
		{"unknown status", 599, ``, "HTTP 599"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errorMessage(tc.status, []byte(tc.body)))
		})
	}
}

func TestLoginStoresCSRFTokenForMutations(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "rfpdesk_session", Value: "sess-1", Path: "/"})
		writeJSON(w, http.StatusOK, SessionInfo{UserID: 7, Role: "admin", CSRFToken: "tok"})
	})
	api.handle("DELETE /api/admin/billing/plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	api.handle("GET /api/admin/billing/plans", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"plans": []any{}})
	})

	c, _, _ := newTestConsole(t, api)
	info, err := c.Client.Login(context.Background(), "a@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.UserID)
	assert.Equal(t, "sess-1", c.Client.Session("rfpdesk_session"))

	_, err = c.Plans.List(context.Background())
	require.NoError(t, err)
	ok, err := c.Plans.DeletePlan(context.Background(), "starter", func() bool { return true })
	require.NoError(t, err)
	assert.True(t, ok)

	reqs := api.recorded()
	require.Len(t, reqs, 3)
	assert.Empty(t, reqs[1].Header.Get(csrfHeader), "reads carry no csrf token")
	assert.Equal(t, "tok", reqs[2].Header.Get(csrfHeader))
}

func TestTransportErrorHasZeroStatus(t *testing.T) {
	api := newFakeAPI(t)
	c, toasts, _ := newTestConsole(t, api)
	api.srv.Close()

	_, err := c.Users.List(context.Background())
	require.Error(t, err)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Zero(t, reqErr.Status)
	require.Len(t, toasts.All(), 1)
	assert.True(t, toasts.All()[0].Destructive)
}
