package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes translated into domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// OpenPool connects to databaseURL and verifies the connection.
func OpenPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn is embedded by every table repository; it runs statements on the
// transaction when one is open.
type conn struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (c conn) queryer() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.pool
}

// translateError maps constraint violations onto domain errors. Foreign key
// failures name the referenced row that is missing.
func translateError(err error, conflict error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}
	switch pgErr.Code {
	case uniqueViolation:
		return conflict, true
	case foreignKeyViolation:
		switch pgErr.ConstraintName {
		case "registrations_username_fkey":
			return users.ErrUserNotFound, true
		case "registrations_event_id_fkey":
			return events.ErrEventNotFound, true
		}
	}
	return nil, false
}
