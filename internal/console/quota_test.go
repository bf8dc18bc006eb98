package console

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/quota"
)

func TestParseLimit(t *testing.T) {
	v, err := ParseLimit(" 5000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), v)

	v, err = ParseLimit("0")
	require.NoError(t, err)
	assert.Zero(t, v)

	for _, raw := range []string{"", "-1", "1.5", "many"} {
		_, err := ParseLimit(raw)
		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr, raw)
	}
}

func TestQuotaSaveSendsLimitAndInvalidates(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/admin/api-quota", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, quota.Config{LimitPerMonth: 1000, UsedThisMonth: 12})
	})
	api.handle("PATCH /api/admin/api-quota", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, quota.Config{LimitPerMonth: 2500, UsedThisMonth: 12})
	})
	c, _, spy := newTestConsole(t, api)
	ctx := context.Background()

	cfg, err := c.Quota.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), cfg.UsedThisMonth)

	saved, err := c.Quota.Save(ctx, "2500")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), saved.LimitPerMonth)
	assert.Equal(t, map[string]int{KeyAPIQuota: 1}, spy.snapshot())

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, map[string]any{"limitPerMonth": float64(2500)}, reqs[1].Body)
}

func TestQuotaSaveRejectsNegative(t *testing.T) {
	api := newFakeAPI(t)
	c, toasts, _ := newTestConsole(t, api)

	_, err := c.Quota.Save(context.Background(), "-10")
	require.Error(t, err)
	assert.Empty(t, api.recorded())
	assert.Len(t, toasts.All(), 1)
}
