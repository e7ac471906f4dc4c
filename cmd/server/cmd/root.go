package cmd

import (
	"fmt"
	"os"

	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	serveCmd := newServeCommand(opts)

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "eventreg server - users, events and event registrations",
		Long: `eventreg serves a small REST API for users, events and registrations of
users to events, backed by SQLite or PostgreSQL.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file overlaid on the environment (optional)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")

	// serve flags are also accepted by the bare root command
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newSeedCommand(opts))
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newHealthcheckCommand())
	rootCmd.AddCommand(newLoadtestCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, overlays --config and applies the
// logging flags.
func loadConfig(opts *globalOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath, cfg)
		if err != nil {
			return config.Config{}, err
		}
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	return cfg, nil
}
