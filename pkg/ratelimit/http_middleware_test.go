package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func newTestMiddleware(t *testing.T, config *Config) http.Handler {
	t.Helper()
	middleware := NewHTTPMiddleware(config, newTestLogger())
	t.Cleanup(middleware.Stop)
	return middleware.Middleware(okHandler)
}

func doRequest(h http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHTTPMiddleware_Disabled(t *testing.T) {
	wrapped := newTestMiddleware(t, &Config{Enabled: false})

	for i := 0; i < 100; i++ {
		rr := doRequest(wrapped, "/sessions", "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestHTTPMiddleware_RateLimitEnforced(t *testing.T) {
	wrapped := newTestMiddleware(t, &Config{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstSize:         5,
		BlockDuration:     time.Minute,
	})

	for i := 0; i < 5; i++ {
		rr := doRequest(wrapped, "/sessions", "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, rr.Code, "Request %d should succeed", i+1)
	}

	rr := doRequest(wrapped, "/sessions", "192.168.1.1:12345", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "LIMIT_EXCEEDED", body["code"])

	// Still refused while blocked, other clients unaffected
	rr = doRequest(wrapped, "/sessions", "192.168.1.1:12345", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	rr = doRequest(wrapped, "/sessions", "192.168.1.2:12345", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHTTPMiddleware_WhitelistedPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.BurstSize = 1
	cfg.WhitelistedIPs = nil
	wrapped := newTestMiddleware(t, cfg)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(wrapped, "/health/ready", "10.0.0.1:1", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(wrapped, "/metrics", "10.0.0.1:1", nil).Code)
	}

	assert.Equal(t, http.StatusOK, doRequest(wrapped, "/sessions", "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(wrapped, "/sessions", "10.0.0.1:1", nil).Code)
}

func TestHTTPMiddleware_WhitelistedIP(t *testing.T) {
	wrapped := newTestMiddleware(t, &Config{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstSize:         1,
		BlockDuration:     time.Minute,
		WhitelistedIPs:    []string{"10.1.0.0/16", "192.168.1.50", "not-a-cidr/99"},
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(wrapped, "/sessions", "10.1.2.3:1", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(wrapped, "/sessions", "192.168.1.50:1", nil).Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"peer address", "203.0.113.9:4000", nil, "203.0.113.9"},
		{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"invalid forwarded falls through", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.8"}, "198.51.100.8"},
		{"no port", "198.51.100.9", nil, "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestHTTPMiddleware_RateLimitHeaders(t *testing.T) {
	wrapped := newTestMiddleware(t, &Config{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstSize:         10,
		BlockDuration:     time.Minute,
	})

	rr := doRequest(wrapped, "/sessions", "192.168.1.1:1", nil)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rr.Header().Get("X-RateLimit-Remaining"))
}
