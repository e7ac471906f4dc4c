package users

import (
	"context"

	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
)

var (
	// ErrUserNotFound is returned when no user has the requested username.
	ErrUserNotFound = errs.New(errs.ErrNotFound, "user not found")

	// ErrUsernameTaken is returned when creating a user whose username exists.
	ErrUsernameTaken = errs.New(errs.ErrConflict, "username already taken")
)

const (
	MaxUsernameLength = 50
	MaxNameLength     = 100
)

// User is identified by its username.
type User struct {
	Username string `json:"username" db:"username"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
}

// CreateUserInput is the request body for POST /users.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// Repository persists users. Create returns ErrUsernameTaken on a duplicate
// key; Get and Delete return ErrUserNotFound for a missing username.
type Repository interface {
	Get(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user User) (*User, error)
	Delete(ctx context.Context, username string) error
	DeleteAll(ctx context.Context) (int64, error)
}
