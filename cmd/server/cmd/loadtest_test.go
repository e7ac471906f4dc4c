package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadtestCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	output, err := executeRoot(t, "loadtest",
		"--server", server.URL,
		"--rps", "20",
		"--duration", "200ms",
		"--read-ratio", "1",
		"--no-ramp",
		"--seed", "3",
	)
	require.NoError(t, err)
	require.Contains(t, output, "Running custom load test")
	require.Contains(t, output, "Total Requests:")
	require.Contains(t, output, "ENDPOINT")
}

func TestLoadtestCommand_Errors(t *testing.T) {
	_, err := executeRoot(t, "loadtest", "--server", "not-a-url")
	require.Error(t, err)

	_, err = executeRoot(t, "loadtest", "--server", "http://localhost:1", "--profile", "extreme")
	require.ErrorContains(t, err, "unknown profile")
}
