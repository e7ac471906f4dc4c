package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/api/problem"
	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/stretchr/testify/require"
)

func rateLimited(t *testing.T, cfg config.RateLimitConfig) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return RateLimit(ctx, cfg)(okHandler())
}

func doFrom(handler http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	handler := rateLimited(t, config.RateLimitConfig{PublicPerMinute: 3})

	for i := 0; i < 3; i++ {
		rec := doFrom(handler, "/events", "192.0.2.10:1234", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := doFrom(handler, "/events", "192.0.2.10:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "20", rec.Header().Get("Retry-After"))
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body problem.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, problem.TypeRateLimit, body.Type)
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	handler := rateLimited(t, config.RateLimitConfig{PublicPerMinute: 1})

	require.Equal(t, http.StatusOK, doFrom(handler, "/users", "192.0.2.1:1", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(handler, "/users", "192.0.2.1:2", nil).Code)
	require.Equal(t, http.StatusOK, doFrom(handler, "/users", "192.0.2.2:1", nil).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	handler := rateLimited(t, config.RateLimitConfig{PublicPerMinute: 0})

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, doFrom(handler, "/users", "192.0.2.1:1", nil).Code)
	}
}

func TestRateLimit_ExemptPaths(t *testing.T) {
	handler := rateLimited(t, config.RateLimitConfig{PublicPerMinute: 1})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, doFrom(handler, path, "192.0.2.1:1", nil).Code, path)
		}
	}
}

func TestRateLimit_ForwardedHeadersNeedTrustedProxy(t *testing.T) {
	untrusted := rateLimited(t, config.RateLimitConfig{PublicPerMinute: 1})
	spoofed := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	require.Equal(t, http.StatusOK, doFrom(untrusted, "/users", "198.51.100.1:1", spoofed).Code)
	// A different forwarded address does not buy a fresh bucket.
	require.Equal(t, http.StatusTooManyRequests,
		doFrom(untrusted, "/users", "198.51.100.1:1", map[string]string{"X-Forwarded-For": "203.0.113.8"}).Code)

	trusted := rateLimited(t, config.RateLimitConfig{PublicPerMinute: 1, TrustedProxyCIDRs: []string{"10.0.0.0/8"}})
	require.Equal(t, http.StatusOK, doFrom(trusted, "/users", "10.1.2.3:1", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.1.2.3"}).Code)
	require.Equal(t, http.StatusOK, doFrom(trusted, "/users", "10.1.2.3:1", map[string]string{"X-Forwarded-For": "203.0.113.8"}).Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(trusted, "/users", "10.1.2.3:1", map[string]string{"X-Forwarded-For": "203.0.113.8"}).Code)
}

func TestClientKey(t *testing.T) {
	trusted := parseCIDRs([]string{"10.0.0.0/8", "not-a-cidr"})
	require.Len(t, trusted, 1)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote addr without port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
		{name: "forwarded from trusted proxy", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, want: "203.0.113.7"},
		{name: "real ip from trusted proxy", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Real-IP": "203.0.113.9"}, want: "203.0.113.9"},
		{name: "forwarded from untrusted peer", remoteAddr: "192.0.2.1:80", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, clientKey(req, trusted))
		})
	}
}

func TestLimiterStore_CleanupDropsIdleEntries(t *testing.T) {
	store := newLimiterStore(60)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.limiter("a")
	store.limiter("b")
	require.Equal(t, 2, store.size())

	now = now.Add(limiterTTL / 2)
	store.limiter("b")

	now = now.Add(limiterTTL/2 + time.Second)
	store.cleanup()
	require.Equal(t, 1, store.size())
}
