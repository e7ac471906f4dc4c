package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/jmoiron/sqlx"
)

// Repository implements registrations.Store on SQLite
type Repository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func NewRepository(db *sqlx.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite repository: db is nil")
	}
	return &Repository{db: db}, nil
}

// conn is embedded by every table repository; it runs statements on the
// transaction when one is open.
type conn struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func (c conn) ext() sqlx.ExtContext {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func (r *Repository) current() conn {
	return conn{db: r.db, tx: r.tx}
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{r.current()}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{r.current()}
}

func (r *Repository) Registrations() registrations.Repository {
	return &RegistrationRepository{r.current()}
}

// WithTx executes a function within a database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, registrations.Store) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &Repository{db: r.db, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Backend() string {
	return "sqlite"
}

// DB exposes the underlying handle for pool statistics.
func (r *Repository) DB() *sql.DB {
	return r.db.DB
}

// SchemaVersion reads the version recorded by the migrator.
func (r *Repository) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var row struct {
		Version int64 `db:"version"`
		Dirty   bool  `db:"dirty"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT version, dirty FROM schema_migrations LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query schema version: %w", err)
	}
	return uint(row.Version), row.Dirty, nil
}
