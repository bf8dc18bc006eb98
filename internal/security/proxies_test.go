package security

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "127.0.0.1", "::1"})
	require.NoError(t, err)
	assert.Equal(t, TrustedProxies{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.1/32"),
		netip.MustParsePrefix("::1/128"),
	}, proxies)

	for _, bad := range []string{"proxy.internal", "10.0.0.0/40", "300.1.1.1"} {
		_, err := ParseTrustedProxies([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestTrustedProxiesResolve(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer keeps socket address", "203.0.113.4:1000", map[string]string{"X-Forwarded-For": "198.51.100.9"}, "203.0.113.4"},
		{"trusted peer without headers", "10.0.0.2:1000", nil, "10.0.0.2"},
		{"rightmost untrusted hop wins", "10.0.0.2:1000", map[string]string{"X-Forwarded-For": "198.51.100.9, 203.0.113.4, 10.0.0.3"}, "203.0.113.4"},
		{"unparseable hop stops the walk", "10.0.0.2:1000", map[string]string{"X-Forwarded-For": "203.0.113.4, junk"}, "10.0.0.2"},
		{"real ip header from trusted peer", "10.0.0.2:1000", map[string]string{"X-Real-IP": "203.0.113.4"}, "203.0.113.4"},
		{"true client ip is never read", "10.0.0.2:1000", map[string]string{"True-Client-IP": "203.0.113.4"}, "10.0.0.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, netip.MustParseAddr(tc.want), proxies.Resolve(req))
		})
	}
}

func TestTrustedProxiesMiddlewareRewritesRemoteAddr(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	var seen string
	handler := proxies.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	req.Header.Set("X-Forwarded-For", "203.0.113.4")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.4:0", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.4")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.1:4000", seen)

	var none TrustedProxies
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	req.Header.Set("X-Forwarded-For", "203.0.113.4")
	none.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	})).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.2:1000", seen)
}
