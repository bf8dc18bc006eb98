package console

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rfpdesk/rfpdesk/internal/security"
)

// AccessList selects one of the two IP lists.
type AccessList int

const (
	Allowlist AccessList = iota
	Denylist
)

func (l AccessList) String() string {
	if l == Denylist {
		return "denylist"
	}
	return "allowlist"
}

// SecurityForm edits the IP access configuration locally and saves the whole
// configuration at once. Conflicting entries across the two lists are left to
// the server, where the denylist wins.
type SecurityForm struct {
	deps

	mu  sync.Mutex
	cfg security.Config
}

// Load replaces the form state with the server's configuration.
func (f *SecurityForm) Load(ctx context.Context) (security.Config, error) {
	cfg, err := query(ctx, f.cache, KeySecurity, func(ctx context.Context) (security.Config, error) {
		var out security.Config
		err := f.client.do(ctx, http.MethodGet, pathSecurity, nil, &out)
		return out, err
	})
	if err != nil {
		return security.Config{}, f.report("Could not load security settings", err)
	}
	f.mu.Lock()
	f.cfg = clone(cfg)
	f.mu.Unlock()
	return cfg, nil
}

// State returns a copy of the form state.
func (f *SecurityForm) State() security.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.cfg)
}

// SetEnabled toggles IP restriction.
func (f *SecurityForm) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.cfg.IPRestrictionEnabled = enabled
	f.mu.Unlock()
}

// Add appends candidate to list. Invalid or duplicate entries leave the list
// unchanged and raise a toast.
func (f *SecurityForm) Add(list AccessList, candidate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.list(list)
	next, err := security.Add(*target, candidate)
	if err != nil {
		msg := "Enter an IPv4 address, CIDR range or localhost"
		if errors.Is(err, security.ErrDuplicateEntry) {
			msg = strings.TrimSpace(candidate) + " is already in the " + list.String()
		}
		return f.report("Entry not added", &ValidationError{Field: list.String(), Message: msg})
	}
	*target = next
	return nil
}

// Remove drops entry from list.
func (f *SecurityForm) Remove(list AccessList, entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.list(list)
	*target = security.Remove(*target, entry)
}

// Save sends the flag and both lists exactly as edited, then adopts the
// configuration the server stored as the new form state.
func (f *SecurityForm) Save(ctx context.Context) (security.Config, error) {
	state := f.State()
	enabled := state.IPRestrictionEnabled
	in := security.UpdateInput{
		IPRestrictionEnabled: &enabled,
		IPAllowlist:          state.IPAllowlist,
		IPDenylist:           state.IPDenylist,
	}
	var saved security.Config
	err := f.pending.Run("security.save", func() error {
		return f.client.do(ctx, http.MethodPatch, pathSecurity, in, &saved)
	})
	if err != nil {
		return security.Config{}, f.report("Security settings not saved", err)
	}
	f.mu.Lock()
	f.cfg = clone(saved)
	f.mu.Unlock()
	f.cache.Invalidate(KeySecurity)
	f.toaster.Toast(Toast{Title: "Security settings saved"})
	return saved, nil
}

func (f *SecurityForm) list(l AccessList) *[]string {
	if l == Denylist {
		return &f.cfg.IPDenylist
	}
	return &f.cfg.IPAllowlist
}

func clone(c security.Config) security.Config {
	c.IPAllowlist = append([]string{}, c.IPAllowlist...)
	c.IPDenylist = append([]string{}, c.IPDenylist...)
	return c
}
