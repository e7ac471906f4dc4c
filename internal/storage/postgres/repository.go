package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements registrations.Store with a PostgreSQL backend
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewRepository creates a new PostgreSQL-backed repository
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{conn{pool: r.pool, tx: r.tx}}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{conn{pool: r.pool, tx: r.tx}}
}

func (r *Repository) Registrations() registrations.Repository {
	return &RegistrationRepository{conn{pool: r.pool, tx: r.tx}}
}

// WithTx executes a function within a database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, registrations.Store) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(ctx, &Repository{pool: r.pool, tx: tx}); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Backend() string {
	return "postgres"
}

// SchemaVersion reads the version recorded by the migrator.
func (r *Repository) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := r.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query schema version: %w", err)
	}
	return uint(version), dirty, nil
}
