// Package console is the admin console's client-side logic: typed calls to
// the admin API, a query cache invalidated after confirmed mutations, toasts
// for user-facing errors and per-action pending guards. It never applies
// optimistic updates; every mutation waits for the server and then
// invalidates the affected cache keys.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

const (
	pathLogin         = "/auth/login"
	pathLogout        = "/auth/logout"
	pathMe            = "/auth/me"
	pathRoles         = "/api/admin/roles"
	pathPlans         = "/api/admin/billing/plans"
	pathAssign        = "/api/admin/billing/assign"
	pathQuota         = "/api/admin/api-quota"
	pathSecurity      = "/api/admin/security"
	pathUsers         = "/api/admin/users"
	pathNotifications = "/api/admin/notifications"
)

const (
	csrfHeader        = "X-CSRF-Token"
	idempotencyHeader = "Idempotency-Key"
)

// RequestError is a failed request: a non-2xx response or a transport error
// (Status 0). Message is what the console shows the admin.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return "request failed: " + e.Message
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

// Client talks to the admin API with a cookie session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	csrf    string
}

// ClientOption customises the client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is replaced
// when nil so the session cookie survives between calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a client for baseURL, e.g. "https://admin.example.com".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("console: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("console: base url %q must be absolute", baseURL)
	}
	c := &Client{baseURL: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// SessionInfo is the authenticated identity reported by the server.
type SessionInfo struct {
	UserID    int64  `json:"userId"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrfToken"`
}

// Login authenticates and keeps the session cookie and csrf token.
func (c *Client) Login(ctx context.Context, email, password string) (SessionInfo, error) {
	var info SessionInfo
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, pathLogin, body, &info); err != nil {
		return SessionInfo{}, err
	}
	c.csrf = info.CSRFToken
	return info, nil
}

// UseSession restores a session cookie obtained earlier, then refreshes the
// csrf token through Me.
func (c *Client) UseSession(ctx context.Context, cookieName, value string) (SessionInfo, error) {
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: cookieName, Value: value, Path: "/"}})
	return c.Me(ctx)
}

// Me returns the current identity.
func (c *Client) Me(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	if err := c.do(ctx, http.MethodGet, pathMe, nil, &info); err != nil {
		return SessionInfo{}, err
	}
	c.csrf = info.CSRFToken
	return info, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, pathLogout, nil, nil)
	c.csrf = ""
	return err
}

// Session returns the value of the named session cookie, if any.
func (c *Client) Session(cookieName string) string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == cookieName {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doWithHeader(ctx, method, path, nil, in, out)
}

func (c *Client) doWithHeader(ctx context.Context, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("console: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("console: build %s %s: %w", method, path, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.csrf != "" {
		req.Header.Set(csrfHeader, c.csrf)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Message: err.Error()}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return &RequestError{Status: res.StatusCode, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RequestError{Status: res.StatusCode, Message: errorMessage(res.StatusCode, raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("console: decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage prefers the problem detail, then a message field, then the
// status text.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, status int) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == status
}
