package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

type EventRepository struct {
	conn
}

const eventColumns = `id, title, description, date, location`

func scanEvent(row pgx.Row) (*events.Event, error) {
	var e events.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location); err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}

func (r *EventRepository) Get(ctx context.Context, id int64) (*events.Event, error) {
	event, err := scanEvent(r.queryer().QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (r *EventRepository) Create(ctx context.Context, input events.EventInput) (*events.Event, error) {
	event, err := scanEvent(r.queryer().QueryRow(ctx, `
INSERT INTO events (title, description, date, location)
VALUES ($1, $2, $3, $4)
RETURNING `+eventColumns,
		input.Title, input.Description, input.Date, input.Location,
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, input events.EventInput) (*events.Event, error) {
	event, err := scanEvent(r.queryer().QueryRow(ctx, `
UPDATE events
   SET title = $2, description = $3, date = $4, location = $5
 WHERE id = $1
RETURNING `+eventColumns,
		id, input.Title, input.Description, input.Date, input.Location,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}
