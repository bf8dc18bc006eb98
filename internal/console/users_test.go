package console

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/billing"
	"github.com/rfpdesk/rfpdesk/internal/users"
)

func TestCreditsRefetchAfterAssignment(t *testing.T) {
	api := newFakeAPI(t)
	balance := int64(100)
	api.handle("GET /api/admin/users/{id}/credits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.PathValue("id"))
		writeJSON(w, http.StatusOK, users.Credits{UserID: 42, Balance: balance})
	})
	api.handle("POST /api/admin/billing/assign", func(w http.ResponseWriter, r *http.Request) {
		balance = 5000
		writeJSON(w, http.StatusOK, billing.AssignResult{Success: true})
	})
	c, _, _ := newTestConsole(t, api)
	ctx := context.Background()

	credits, err := c.Users.Credits(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), credits.Balance)
	credits, err = c.Users.Credits(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), credits.Balance, "served from cache")

	_, err = c.Plans.AssignPlan(ctx, "42", "pro")
	require.NoError(t, err)
	credits, err = c.Users.Credits(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), credits.Balance)
	assert.Len(t, api.recorded(), 3)
}

func TestUserListAndNotifications(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"users": []users.User{{ID: 1, Email: "a@example.com", RoleID: "admin"}}})
	})
	api.handle("GET /api/admin/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "missing permission can_view_notifications:read"})
	})
	c, toasts, _ := newTestConsole(t, api)

	list, err := c.Users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "admin", list[0].RoleID)

	_, err = c.Users.Notifications(context.Background())
	assert.True(t, IsStatus(err, http.StatusForbidden))
	require.Len(t, toasts.All(), 1)
	assert.Equal(t, "missing permission can_view_notifications:read", toasts.All()[0].Description)
}
