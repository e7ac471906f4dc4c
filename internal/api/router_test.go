package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/Togather-Foundation/eventreg/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(newTestHandler(t, mutate))
	t.Cleanup(server.Close)
	return server
}

func newTestHandler(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.Config{
		Environment: "test",
		CORS:        config.CORSConfig{AllowAllOrigins: true},
		RateLimit:   config.RateLimitConfig{PublicPerMinute: 0},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	opened, err := storage.Open(ctx, storage.Options{
		URL:            filepath.Join(t.TempDir(), "router.db"),
		MaxConnections: 1,
		AutoMigrate:    true,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = opened.Store.Close() })

	return NewRouter(ctx, cfg, opened.Store, zerolog.Nop(), BuildInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2026-10-01T00:00:00Z"})
}

func call(t *testing.T, server *httptest.Server, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestRouter_RegistrationFlow(t *testing.T) {
	server := newTestRouter(t, nil)

	resp, _ := call(t, server, http.MethodPost, "/users", `{"username":"alice","name":"Alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, server, http.MethodPost, "/events", `{"title":"Go Meetup","date":"2026-11-05T18:30:00Z","location":"Turin"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Contains(t, body, `"id":1`)

	resp, body = call(t, server, http.MethodPost, "/events/1/register", `{"username":"alice"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, `{"username":"alice","event_id":1}`, body)

	resp, body = call(t, server, http.MethodPost, "/events/1/register", `{"username":"alice"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	require.Contains(t, body, "already registered")

	resp, _ = call(t, server, http.MethodDelete, "/registrations?username=alice&event_id=1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = call(t, server, http.MethodGet, "/registrations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, body)
}

func TestRouter_CommonHeaders(t *testing.T) {
	server := newTestRouter(t, nil)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("X-Request-ID", "router-test")
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "router-test", resp.Header.Get("X-Request-ID"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	server := newTestRouter(t, nil)

	resp, _ := call(t, server, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, server, http.MethodPatch, "/users", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Allow"), http.MethodGet)
}

func TestRouter_BodyLimit(t *testing.T) {
	handler := newTestHandler(t, nil)

	huge := `{"username":"` + strings.Repeat("a", 2<<20) + `"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader([]byte(huge))))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_RateLimit(t *testing.T) {
	server := newTestRouter(t, func(c *config.Config) { c.RateLimit.PublicPerMinute = 2 })

	for i := 0; i < 2; i++ {
		resp, _ := call(t, server, http.MethodGet, "/users", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := call(t, server, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Probes are never limited.
	resp, _ = call(t, server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	server := newTestRouter(t, nil)

	resp, body := call(t, server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = call(t, server, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ready"}`, body)

	resp, body = call(t, server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, "pass", health.Checks["migrations"].Status)

	resp, body = call(t, server, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"version":"1.2.3"`)

	resp, body = call(t, server, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"openapi":"3.1.0"`)

	call(t, server, http.MethodGet, "/users/nobody", "")
	resp, body = call(t, server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "eventreg_http_requests_total")
	require.Contains(t, body, `path="/users/{param}"`)
	require.NotContains(t, body, `path="/users/nobody"`)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}
