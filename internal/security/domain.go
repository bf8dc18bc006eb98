package security

import (
	"fmt"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

// Config is the singleton IP access configuration. When restriction is
// enabled the denylist overrides the allowlist.
type Config struct {
	IPRestrictionEnabled bool     `json:"ipRestrictionEnabled"`
	IPAllowlist          []string `json:"ipAllowlist"`
	IPDenylist           []string `json:"ipDenylist"`
}

// Validate checks every entry; lists are stored as submitted, without
// deduplication or cross-list conflict resolution.
func (c Config) Validate() error {
	for _, e := range c.IPAllowlist {
		if !ValidEntry(e) {
			return fmt.Errorf("%w: allowlist entry %q", ErrInvalidEntry, e)
		}
	}
	for _, e := range c.IPDenylist {
		if !ValidEntry(e) {
			return fmt.Errorf("%w: denylist entry %q", ErrInvalidEntry, e)
		}
	}
	return nil
}

func (c Config) normalized() Config {
	if c.IPAllowlist == nil {
		c.IPAllowlist = []string{}
	}
	if c.IPDenylist == nil {
		c.IPDenylist = []string{}
	}
	return c
}

// ErrEmptyBody is returned when a PATCH carries no fields.
var ErrEmptyBody = fmt.Errorf("%w: nothing to update", httpx.ErrValidation)

// UpdateInput is the PATCH payload; nil fields keep their stored value.
type UpdateInput struct {
	IPRestrictionEnabled *bool    `json:"ipRestrictionEnabled"`
	IPAllowlist          []string `json:"ipAllowlist"`
	IPDenylist           []string `json:"ipDenylist"`
}

func (in UpdateInput) apply(c Config) (Config, error) {
	if in.IPRestrictionEnabled == nil && in.IPAllowlist == nil && in.IPDenylist == nil {
		return c, ErrEmptyBody
	}
	if in.IPRestrictionEnabled != nil {
		c.IPRestrictionEnabled = *in.IPRestrictionEnabled
	}
	if in.IPAllowlist != nil {
		c.IPAllowlist = trimAll(in.IPAllowlist)
	}
	if in.IPDenylist != nil {
		c.IPDenylist = trimAll(in.IPDenylist)
	}
	return c, nil
}

func trimAll(list []string) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = strings.TrimSpace(e)
	}
	return out
}
