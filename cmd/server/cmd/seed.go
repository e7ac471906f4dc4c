package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/Togather-Foundation/eventreg/internal/storage"
	"github.com/Togather-Foundation/eventreg/internal/storage/seed"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	users  int
	events int
	seed   uint64
	force  bool
}

func newSeedCommand(global *globalOptions) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with sample data",
		Long: `Create sample users and events and register every new user for the first
new event. The schema is migrated first.

A database that already holds users or events is left alone unless --force
is given.

Examples:
  server seed
  server seed --users 20 --events 3 --seed 42
  server seed --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Logging)
			ctx := cmd.Context()

			opened, err := storage.Open(ctx, storage.Options{
				URL:            cfg.Database.URL,
				MaxConnections: cfg.Database.MaxConnections,
				AutoMigrate:    true,
			}, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() { _ = opened.Store.Close() }()

			if !opened.Fresh && !opts.force {
				existingUsers, err := opened.Store.Users().List(ctx)
				if err != nil {
					return err
				}
				existingEvents, err := opened.Store.Events().List(ctx)
				if err != nil {
					return err
				}
				if len(existingUsers) > 0 || len(existingEvents) > 0 {
					return fmt.Errorf("database already has %d user(s) and %d event(s); pass --force to add sample data anyway",
						len(existingUsers), len(existingEvents))
				}
			}

			users, events := opts.users, opts.events
			if !cmd.Flags().Changed("users") {
				users = cfg.Seed.Users
			}
			if !cmd.Flags().Changed("events") {
				events = cfg.Seed.Events
			}

			result, err := seed.Run(ctx, opened.Store, seed.Options{Users: users, Events: events, Seed: opts.seed}, logger)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d user(s), %d event(s), %d registration(s)\n",
				result.Users, result.Events, result.Registrations)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.users, "users", seed.DefaultUsers, "number of users to create (default: SEED_USERS)")
	cmd.Flags().IntVar(&opts.events, "events", seed.DefaultEvents, "number of events to create (default: SEED_EVENTS)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible data (0 picks one)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "seed even when the database already has data")
	return cmd
}
