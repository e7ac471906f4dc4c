package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/Togather-Foundation/eventreg/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back or inspect schema migrations for the store named by
DATABASE_URL. Migrations are embedded in the binary.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Logging)

			fresh, err := storage.MigrateUp(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			logger.Info().Str("store", storage.Backend(cfg.Database.URL)).Bool("fresh", fresh).Msg("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Logging)

			if err := storage.MigrateDown(cmd.Context(), cfg.Database.URL, steps); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			logger.Info().Str("store", storage.Backend(cfg.Database.URL)).Int("steps", steps).Msg("migrations rolled back")
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			version, dirty, err := storage.MigrationVersion(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("migration version: %w", err)
			}
			out := cmd.OutOrStdout()
			if version == 0 {
				fmt.Fprintln(out, "no migrations applied")
				return nil
			}
			fmt.Fprintf(out, "version: %d\n", version)
			if dirty {
				fmt.Fprintln(out, "state:   dirty (fix manually before migrating again)")
			}
			return nil
		},
	})

	return cmd
}
