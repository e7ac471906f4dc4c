package events

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
)

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errs.New(errs.ErrNotFound, "event not found")

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxLocationLength    = 200
)

// Event is identified by a store-generated integer id.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
}

// EventInput carries the mutable fields of an event. It is the body of both
// POST /events and PUT /events/{id}; an update replaces every field.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
}

type Repository interface {
	Get(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, input EventInput) (*Event, error)
	Update(ctx context.Context, id int64, input EventInput) (*Event, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ParseID parses a path or query event id. Only positive integers are valid.
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewValidationError(field, "must be a positive integer")
	}
	return id, nil
}
