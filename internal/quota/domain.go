// Package quota holds the organization-wide monthly API quota.
package quota

import (
	"fmt"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

var (
	ErrInvalidLimit  = fmt.Errorf("%w: limitPerMonth must be a non-negative integer", httpx.ErrValidation)
	ErrQuotaExceeded = fmt.Errorf("%w: monthly API quota exhausted", httpx.ErrConflict)
)

// Config is the singleton quota setting. Only LimitPerMonth is editable;
// UsedThisMonth is maintained by metering and the monthly reset job.
type Config struct {
	LimitPerMonth int64 `json:"limitPerMonth"`
	UsedThisMonth int64 `json:"usedThisMonth"`
}

// Remaining returns the calls left this month, never negative.
func (c Config) Remaining() int64 {
	if c.UsedThisMonth >= c.LimitPerMonth {
		return 0
	}
	return c.LimitPerMonth - c.UsedThisMonth
}

// UpdateInput is the PATCH payload. Any usedThisMonth sent by the client is
// ignored because the field is not decoded.
type UpdateInput struct {
	LimitPerMonth *int64 `json:"limitPerMonth" validate:"required,gte=0"`
}
