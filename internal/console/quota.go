package console

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/quota"
)

// QuotaEditor reads and saves the API quota limit.
type QuotaEditor struct {
	deps
}

// Load returns the current limit and usage.
func (q *QuotaEditor) Load(ctx context.Context) (quota.Config, error) {
	cfg, err := query(ctx, q.cache, KeyAPIQuota, func(ctx context.Context) (quota.Config, error) {
		var out quota.Config
		err := q.client.do(ctx, http.MethodGet, pathQuota, nil, &out)
		return out, err
	})
	if err != nil {
		return quota.Config{}, q.report("Could not load API quota", err)
	}
	return cfg, nil
}

// ParseLimit accepts a non-negative whole number.
func ParseLimit(raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v < 0 {
		return 0, &ValidationError{Field: "limitPerMonth", Message: "Limit must be a non-negative whole number"}
	}
	return v, nil
}

// Save stores a new monthly limit. Usage is server-owned and never sent.
func (q *QuotaEditor) Save(ctx context.Context, raw string) (quota.Config, error) {
	limit, err := ParseLimit(raw)
	if err != nil {
		return quota.Config{}, q.report("API quota not saved", err)
	}
	var saved quota.Config
	err = q.pending.Run("quota.save", func() error {
		return q.client.do(ctx, http.MethodPatch, pathQuota, quota.UpdateInput{LimitPerMonth: &limit}, &saved)
	})
	if err != nil {
		return quota.Config{}, q.report("API quota not saved", err)
	}
	q.cache.Invalidate(KeyAPIQuota)
	q.toaster.Toast(Toast{Title: "API quota saved"})
	return saved, nil
}
