// Package registrations links users to events and owns the admission rules
// for creating a registration.
package registrations

import (
	"context"
	"net/url"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
)

var (
	// ErrRegistrationNotFound is returned when no registration matches a key.
	ErrRegistrationNotFound = errs.New(errs.ErrNotFound, "registration not found")

	// ErrAlreadyRegistered is returned when the user is already registered
	// for the event.
	ErrAlreadyRegistered = errs.New(errs.ErrConflict, "already registered")
)

// Registration links a user to an event. The pair is its primary key.
type Registration struct {
	Username string `json:"username" db:"username"`
	EventID  int64  `json:"event_id" db:"event_id"`
}

// Key identifies a single registration.
type Key struct {
	Username string
	EventID  int64
}

// Key returns the composite key of r.
func (r Registration) Key() Key {
	return Key{Username: r.Username, EventID: r.EventID}
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Username string
	EventID  int64
}

// RegisterInput is the body of POST /registrations and, with EventID taken
// from the path, of POST /events/{id}/register. Name and Email form an
// optional profile used to create a user that does not exist yet.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	EventID  int64  `json:"event_id" validate:"gt=0"`
	Name     string `json:"name,omitempty" validate:"required_with=Email,max=100"`
	Email    string `json:"email,omitempty" validate:"required_with=Name"`
}

// HasProfile reports whether the input carries enough to create a user.
func (in RegisterInput) HasProfile() bool {
	return in.Name != "" && in.Email != ""
}

type Repository interface {
	Get(ctx context.Context, key Key) (*Registration, error)
	List(ctx context.Context, filter Filter) ([]Registration, error)
	Create(ctx context.Context, reg Registration) (*Registration, error)
	Delete(ctx context.Context, key Key) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Store groups the repositories that take part in admission so that they
// can share one transaction.
type Store interface {
	Users() users.Repository
	Events() events.Repository
	Registrations() Repository

	// WithTx runs fn against a transaction-scoped Store. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ParseFilter reads the optional username and event_id query parameters.
func ParseFilter(values url.Values) (Filter, error) {
	filter := Filter{Username: strings.TrimSpace(values.Get("username"))}
	if raw := values.Get("event_id"); strings.TrimSpace(raw) != "" {
		id, err := events.ParseID("event_id", raw)
		if err != nil {
			return Filter{}, err
		}
		filter.EventID = id
	}
	return filter, nil
}

// ParseKey reads a registration key from query parameters. ok is false when
// neither parameter is present; supplying only one of them is an error.
func ParseKey(values url.Values) (key Key, ok bool, err error) {
	filter, err := ParseFilter(values)
	if err != nil {
		return Key{}, false, err
	}
	switch {
	case filter.Username == "" && filter.EventID == 0:
		return Key{}, false, nil
	case filter.Username == "":
		return Key{}, false, errs.NewValidationError("username", "is required when event_id is set")
	case filter.EventID == 0:
		return Key{}, false, errs.NewValidationError("event_id", "is required when username is set")
	}
	return Key(filter), true, nil
}
