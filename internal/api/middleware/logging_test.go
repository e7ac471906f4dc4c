package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestRequestLogging_RecordsRequest(t *testing.T) {
	var logs bytes.Buffer
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("alice"))
	})
	handler := RequestLogging(zerolog.New(&logs))(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/alice", nil))

	entry := decodeLogLine(t, &logs)
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "GET", entry["method"])
	require.Equal(t, "/users/alice", entry["path"])
	require.Equal(t, "GET /users/{username}", entry["route"])
	require.EqualValues(t, 200, entry["status"])
	require.EqualValues(t, 5, entry["bytes"])
}

func TestRequestLogging_ServerErrorAtErrorLevel(t *testing.T) {
	var logs bytes.Buffer
	handler := RequestLogging(zerolog.New(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events", nil))

	entry := decodeLogLine(t, &logs)
	require.Equal(t, "error", entry["level"])
	require.EqualValues(t, 500, entry["status"])
}

func TestRequestLogging_UsesContextLogger(t *testing.T) {
	var fallback, scoped bytes.Buffer
	handler := CorrelationID(zerolog.New(&scoped))(
		RequestLogging(zerolog.New(&fallback))(okHandler()),
	)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Zero(t, fallback.Len())
	entry := decodeLogLine(t, &scoped)
	require.Equal(t, "req-42", entry["request_id"])
}
