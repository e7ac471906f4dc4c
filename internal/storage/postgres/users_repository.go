package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	conn
}

func (r *UserRepository) Get(ctx context.Context, username string) (*users.User, error) {
	var u users.User
	err := r.queryer().QueryRow(ctx, `
SELECT username, name, email
  FROM users
 WHERE username = $1
`, username).Scan(&u.Username, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT username, name, email
  FROM users
 ORDER BY username
`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []users.User{}
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.Username, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (*users.User, error) {
	_, err := r.queryer().Exec(ctx,
		`INSERT INTO users (username, name, email) VALUES ($1, $2, $3)`,
		user.Username, user.Name, user.Email,
	)
	if err != nil {
		if domainErr, ok := translateError(err, users.ErrUsernameTaken); ok {
			return nil, domainErr
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return tag.RowsAffected(), nil
}
