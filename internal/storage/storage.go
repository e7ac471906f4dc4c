// Package storage selects and opens the entity store backend.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/Togather-Foundation/eventreg/internal/metrics"
	"github.com/Togather-Foundation/eventreg/internal/storage/postgres"
	"github.com/Togather-Foundation/eventreg/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// Store is the entity store used by the server.
type Store interface {
	registrations.Store

	Ping(ctx context.Context) error
	Close() error
	Backend() string
	SchemaVersion(ctx context.Context) (version uint, dirty bool, err error)
}

// Options controls how Open connects and prepares the store.
type Options struct {
	URL            string
	MaxConnections int
	AutoMigrate    bool
}

// Opened is the result of Open.
type Opened struct {
	Store Store
	// Fresh is true when the schema was created by this call.
	Fresh bool
}

// IsPostgres reports whether databaseURL names a PostgreSQL server.
// Anything else is treated as a SQLite path or file: URI.
func IsPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// Backend returns the backend name for databaseURL.
func Backend(databaseURL string) string {
	if IsPostgres(databaseURL) {
		return "postgres"
	}
	return "sqlite"
}

// Open connects to the backend selected by opts.URL and, when requested,
// applies pending migrations.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (*Opened, error) {
	if IsPostgres(opts.URL) {
		return openPostgres(ctx, opts, logger)
	}
	return openSQLite(ctx, opts, logger)
}

func openPostgres(ctx context.Context, opts Options, logger zerolog.Logger) (*Opened, error) {
	fresh := false
	if opts.AutoMigrate {
		var err error
		fresh, err = postgres.MigrateUp(opts.URL)
		if err != nil {
			return nil, err
		}
		logger.Info().Bool("fresh", fresh).Msg("postgres migrations applied")
	}

	pool, err := postgres.OpenPool(ctx, opts.URL, int32(opts.MaxConnections))
	if err != nil {
		return nil, err
	}
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info().Int32("max_conns", pool.Config().MaxConns).Msg("connected to postgres")
	return &Opened{Store: repo, Fresh: fresh}, nil
}

func openSQLite(ctx context.Context, opts Options, logger zerolog.Logger) (*Opened, error) {
	db, err := sqlite.Open(ctx, opts.URL)
	if err != nil {
		return nil, err
	}

	fresh := false
	if opts.AutoMigrate {
		fresh, err = sqlite.MigrateUp(db.DB)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info().Bool("fresh", fresh).Msg("sqlite migrations applied")
	}

	if err := metrics.RegisterDBStats(db.DB, "sqlite"); err != nil {
		logger.Warn().Err(err).Msg("register database stats collector")
	}

	repo, err := sqlite.NewRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	path := opts.URL
	if path == "" {
		path = sqlite.DefaultPath
	}
	logger.Info().Str("path", path).Msg("opened sqlite database")
	return &Opened{Store: repo, Fresh: fresh}, nil
}

// MigrateUp applies pending migrations for databaseURL.
func MigrateUp(ctx context.Context, databaseURL string) (bool, error) {
	if IsPostgres(databaseURL) {
		return postgres.MigrateUp(databaseURL)
	}
	db, err := sqlite.Open(ctx, databaseURL)
	if err != nil {
		return false, err
	}
	defer db.Close()
	return sqlite.MigrateUp(db.DB)
}

// MigrateDown rolls back steps migrations for databaseURL.
func MigrateDown(ctx context.Context, databaseURL string, steps int) error {
	if IsPostgres(databaseURL) {
		return postgres.MigrateDown(databaseURL, steps)
	}
	db, err := sqlite.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqlite.MigrateDown(db.DB, steps)
}

// MigrationVersion reports the applied schema version for databaseURL.
func MigrationVersion(ctx context.Context, databaseURL string) (uint, bool, error) {
	if IsPostgres(databaseURL) {
		return postgres.MigrationVersion(databaseURL)
	}
	db, err := sqlite.Open(ctx, databaseURL)
	if err != nil {
		return 0, false, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	return sqlite.MigrationVersion(db.DB)
}
