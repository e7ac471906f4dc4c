package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/jmoiron/sqlx"
)

// Dates are stored as RFC 3339 text in UTC.
const dateLayout = time.RFC3339Nano

type EventRepository struct {
	conn
}

type eventRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Date        string         `db:"date"`
	Location    string         `db:"location"`
}

func (row eventRow) toEvent() (*events.Event, error) {
	date, err := time.Parse(dateLayout, row.Date)
	if err != nil {
		return nil, fmt.Errorf("parse event %d date: %w", row.ID, err)
	}
	event := &events.Event{
		ID:       row.ID,
		Title:    row.Title,
		Date:     date.UTC(),
		Location: row.Location,
	}
	if row.Description.Valid {
		description := row.Description.String
		event.Description = &description
	}
	return event, nil
}

func inputArgs(input events.EventInput) map[string]any {
	var description any
	if input.Description != nil {
		description = *input.Description
	}
	return map[string]any{
		"title":       input.Title,
		"description": description,
		"date":        input.Date.UTC().Format(dateLayout),
		"location":    input.Location,
	}
}

const selectEvents = `SELECT id, title, description, date, location FROM events`

func (r *EventRepository) Get(ctx context.Context, id int64) (*events.Event, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, r.ext(), &row, selectEvents+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, events.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return row.toEvent()
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, r.ext(), &rows, selectEvents+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]events.Event, 0, len(rows))
	for _, row := range rows {
		event, err := row.toEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, *event)
	}
	return out, nil
}

func (r *EventRepository) Create(ctx context.Context, input events.EventInput) (*events.Event, error) {
	res, err := sqlx.NamedExecContext(ctx, r.ext(), `
INSERT INTO events (title, description, date, location)
VALUES (:title, :description, :date, :location)`, inputArgs(input))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *EventRepository) Update(ctx context.Context, id int64, input events.EventInput) (*events.Event, error) {
	args := inputArgs(input)
	args["id"] = id
	res, err := sqlx.NamedExecContext(ctx, r.ext(), `
UPDATE events
   SET title = :title, description = :description, date = :date, location = :location
 WHERE id = :id`, args)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := requireAffected(res, events.ErrEventNotFound); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res, events.ErrEventNotFound)
}

func (r *EventRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return res.RowsAffected()
}
