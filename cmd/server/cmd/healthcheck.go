package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type healthcheckOptions struct {
	url     string
	timeout time.Duration
}

func newHealthcheckCommand() *cobra.Command {
	opts := &healthcheckOptions{}

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is healthy, non-zero otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := opts.url
			if target == "" {
				port := os.Getenv("SERVER_PORT")
				if port == "" {
					port = "8080"
				}
				target = fmt.Sprintf("http://localhost:%s/health", port)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := performHealthCheck(ctx, target, opts.timeout); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

// healthResponse is the subset of the /health payload the check reads.
type healthResponse struct {
	Status string `json:"status"`
}

func performHealthCheck(ctx context.Context, target string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body healthResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && body.Status != "" {
			return fmt.Errorf("unhealthy: status %d (%s)", resp.StatusCode, body.Status)
		}
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("parse health response: %w", decodeErr)
	}
	if body.Status != "healthy" {
		return fmt.Errorf("unhealthy: status=%s", body.Status)
	}
	return nil
}
