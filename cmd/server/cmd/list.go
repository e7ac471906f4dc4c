package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/api/problem"
	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/Togather-Foundation/eventreg/internal/validation"
	"github.com/spf13/cobra"
)

type listOptions struct {
	server   string
	format   string
	timeout  time.Duration
	username string
	eventID  int64
}

func newListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, events or registrations from a running server",
		Long: `Query a running server over HTTP and print the result as a table or JSON.

Examples:
  server list users
  server list events --format json
  server list registrations --username alice
  server list registrations --event-id 1 --server http://eventreg.internal:8080`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateOrigin(opts.server, "--server"); err != nil {
				return err
			}
			if opts.format != "table" && opts.format != "json" {
				return fmt.Errorf("--format must be table or json, got %q", opts.format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "base URL of the server")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "table", "output format (table, json)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []users.User
			raw, err := fetchJSON(cmd.Context(), opts, "/users", nil, &list)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), opts.format, raw, "USERNAME\tNAME\tEMAIL", len(list), func(i int) string {
				u := list[i]
				return u.Username + "\t" + u.Name + "\t" + u.Email
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "events",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []events.Event
			raw, err := fetchJSON(cmd.Context(), opts, "/events", nil, &list)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), opts.format, raw, "ID\tDATE\tTITLE\tLOCATION", len(list), func(i int) string {
				e := list[i]
				return strconv.FormatInt(e.ID, 10) + "\t" + e.Date.Format(time.RFC3339) + "\t" + e.Title + "\t" + e.Location
			})
		},
	})

	registrationsCmd := &cobra.Command{
		Use:   "registrations",
		Short: "List registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if opts.username != "" {
				query.Set("username", opts.username)
			}
			if opts.eventID != 0 {
				query.Set("event_id", strconv.FormatInt(opts.eventID, 10))
			}

			var list []registrations.Registration
			raw, err := fetchJSON(cmd.Context(), opts, "/registrations", query, &list)
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), opts.format, raw, "USERNAME\tEVENT ID", len(list), func(i int) string {
				r := list[i]
				return r.Username + "\t" + strconv.FormatInt(r.EventID, 10)
			})
		},
	}
	registrationsCmd.Flags().StringVar(&opts.username, "username", "", "only registrations of this user")
	registrationsCmd.Flags().Int64Var(&opts.eventID, "event-id", 0, "only registrations for this event")
	cmd.AddCommand(registrationsCmd)

	return cmd
}

// fetchJSON GETs path from the server and decodes the body into dst. The raw
// body is returned for JSON output. Problem documents become errors.
func fetchJSON(ctx context.Context, opts *listOptions, path string, query url.Values, dst any) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	target := strings.TrimSuffix(opts.server, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var p problem.ProblemDetails
		if json.Unmarshal(body, &p) == nil && p.Title != "" {
			if p.Detail != "" {
				return nil, fmt.Errorf("server returned %d: %s: %s", resp.StatusCode, p.Title, p.Detail)
			}
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, p.Title)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body, nil
}

func printList(out io.Writer, format string, raw []byte, header string, n int, row func(int) string) error {
	if format == "json" {
		_, err := fmt.Fprintln(out, strings.TrimSpace(string(raw)))
		return err
	}

	if n == 0 {
		_, err := fmt.Fprintln(out, "No results.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	for i := 0; i < n; i++ {
		fmt.Fprintln(w, row(i))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nTotal: %d\n", n)
	return err
}
