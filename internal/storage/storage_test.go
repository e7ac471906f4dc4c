package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestIsPostgres(t *testing.T) {
	require.True(t, IsPostgres("postgres://u:p@localhost/db"))
	require.True(t, IsPostgres("postgresql://localhost/db"))
	require.False(t, IsPostgres("data/database.db"))
	require.False(t, IsPostgres("file:test.db"))
	require.False(t, IsPostgres(""))

	require.Equal(t, "postgres", Backend("postgres://x"))
	require.Equal(t, "sqlite", Backend("data/database.db"))
}

func TestOpenSQLiteReportsFreshSchemaOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "database.db")
	opts := Options{URL: path, AutoMigrate: true}

	opened, err := Open(ctx, opts, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, opened.Fresh)
	require.Equal(t, "sqlite", opened.Store.Backend())
	require.NoError(t, opened.Store.Ping(ctx))
	require.NoError(t, opened.Store.Close())

	reopened, err := Open(ctx, opts, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Store.Close()
	require.False(t, reopened.Fresh)

	version, dirty, err := MigrationVersion(ctx, path)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)
}

func TestMigrateCommandsOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cli.db")

	fresh, err := MigrateUp(ctx, path)
	require.NoError(t, err)
	require.True(t, fresh)

	require.NoError(t, MigrateDown(ctx, path, 1))

	version, _, err := MigrationVersion(ctx, path)
	require.NoError(t, err)
	require.Equal(t, uint(0), version)
}
