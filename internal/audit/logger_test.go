package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &out))
	return out
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Log(Entry{
		Action:       "users.delete",
		ResourceType: "user",
		ResourceID:   "alice",
		IPAddress:    "192.168.1.1",
		Status:       "success",
		Details:      map[string]string{"count": "1"},
	})

	out := decodeLine(t, &buf)
	require.Equal(t, "audit", out["component"])
	require.Equal(t, true, out["audit"])
	require.Equal(t, "users.delete", out["action"])
	require.Equal(t, "user", out["resource_type"])
	require.Equal(t, "alice", out["resource_id"])
	require.Equal(t, "success", out["status"])
	require.Equal(t, "info", out["level"])
	require.Equal(t, map[string]any{"count": "1"}, out["details"])
}

func TestLogger_FailureIsWarn(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(zerolog.New(&buf)).Log(Entry{Action: "events.delete", Status: "failure"})

	out := decodeLine(t, &buf)
	require.Equal(t, "warn", out["level"])
	require.NotContains(t, out, "resource_id")
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Log(Entry{Action: "x"})
		logger.LogFromRequest(httptest.NewRequest(http.MethodDelete, "/users", nil), "x", "", "", "success", nil)
	})
}

func TestLogFromRequestUsesRequestLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	logger := NewLogger(zerolog.New(&base))

	reqLogger := zerolog.New(&scoped).With().Str("request_id", "req-123").Logger()
	req := httptest.NewRequest(http.MethodDelete, "/events/3", nil)
	req = req.WithContext(reqLogger.WithContext(req.Context()))
	req.RemoteAddr = "10.0.0.1:5555"

	logger.LogFromRequest(req, "events.delete", "event", "3", "success", nil)

	require.Empty(t, base.String())
	out := decodeLine(t, &scoped)
	require.Equal(t, "req-123", out["request_id"])
	require.Equal(t, "10.0.0.1", out["ip_address"])
	require.Equal(t, "events.delete", out["action"])
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "10.0.0.1:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.1:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.9:4321", "192.0.2.9"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, extractClientIP(req))
		})
	}
}
