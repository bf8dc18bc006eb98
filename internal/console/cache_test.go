package console

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/billing"
)

func TestInvalidateDuringLoadForcesRefetch(t *testing.T) {
	api := newFakeAPI(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	api.handle("GET /api/admin/billing/plans", func(w http.ResponseWriter, r *http.Request) {
		name := "new"
		if calls.Add(1) == 1 {
			close(started)
			<-release
			name = "old"
		}
		writeJSON(w, http.StatusOK, map[string]any{"plans": []billing.Plan{{ID: "p1", Name: name}}})
	})
	c, _, _ := newTestConsole(t, api)
	ctx := context.Background()

	done := make(chan []billing.Plan, 1)
	go func() {
		plans, err := c.Plans.List(ctx)
		assert.NoError(t, err)
		done <- plans
	}()

	<-started
	c.Cache.Invalidate(KeyPlans)
	close(release)
	first := <-done
	require.Len(t, first, 1)
	assert.Equal(t, "old", first[0].Name, "callers of the earlier load still get its result")

	plans, err := c.Plans.List(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "new", plans[0].Name)
	assert.Equal(t, int32(2), calls.Load())

	_, err = c.Plans.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "the fresh result is cached")
}

func TestQueryCacheKeepsUnrelatedKeys(t *testing.T) {
	cache := NewQueryCache(nil)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}

	v, err := query(ctx, cache, KeyUsers, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	cache.Invalidate(KeyPlans)
	v, err = query(ctx, cache, KeyUsers, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	cache.Invalidate(KeyUsers)
	v, err = query(ctx, cache, KeyUsers, load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
