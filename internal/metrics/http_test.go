package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "static path",
			input:    "/events",
			expected: "/events",
		},
		{
			name:     "single param",
			input:    "/users/{username}",
			expected: "/users/{param}",
		},
		{
			name:     "param followed by static segment",
			input:    "/events/{id}/register",
			expected: "/events/{param}/register",
		},
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "non-path input",
			input:    "events/{id}",
			expected: "events/{id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, normalizePath(tt.input))
		})
	}
}

func TestRouteLabel(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{username}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		seen = routeLabel(r)
	})

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/alice", nil))
	require.Equal(t, "/users/{param}", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, "unmatched", seen)
}
