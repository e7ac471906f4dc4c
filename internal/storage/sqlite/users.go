package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	conn
}

func (r *UserRepository) Get(ctx context.Context, username string) (*users.User, error) {
	var u users.User
	err := sqlx.GetContext(ctx, r.ext(), &u,
		`SELECT username, name, email FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	out := []users.User{}
	if err := sqlx.SelectContext(ctx, r.ext(), &out,
		`SELECT username, name, email FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (*users.User, error) {
	_, err := sqlx.NamedExecContext(ctx, r.ext(),
		`INSERT INTO users (username, name, email) VALUES (:username, :name, :email)`, user)
	if err != nil {
		if domainErr, ok := translateError(err, users.ErrUsernameTaken); ok {
			return nil, domainErr
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, users.ErrUserNotFound)
}

func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return res.RowsAffected()
}

// requireAffected returns notFound when res touched no rows.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
