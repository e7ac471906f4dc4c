package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/jmoiron/sqlx"
)

type RegistrationRepository struct {
	conn
}

func (r *RegistrationRepository) Get(ctx context.Context, key registrations.Key) (*registrations.Registration, error) {
	var reg registrations.Registration
	err := sqlx.GetContext(ctx, r.ext(), &reg,
		`SELECT username, event_id FROM registrations WHERE username = ? AND event_id = ?`,
		key.Username, key.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registrations.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) List(ctx context.Context, filter registrations.Filter) ([]registrations.Registration, error) {
	out := []registrations.Registration{}
	err := sqlx.SelectContext(ctx, r.ext(), &out, `
SELECT username, event_id
  FROM registrations
 WHERE (? = '' OR username = ?)
   AND (? = 0 OR event_id = ?)
 ORDER BY username, event_id`,
		filter.Username, filter.Username, filter.EventID, filter.EventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) Create(ctx context.Context, reg registrations.Registration) (*registrations.Registration, error) {
	_, err := sqlx.NamedExecContext(ctx, r.ext(),
		`INSERT INTO registrations (username, event_id) VALUES (:username, :event_id)`, reg)
	if err != nil {
		if domainErr, ok := translateError(err, registrations.ErrAlreadyRegistered); ok {
			return nil, domainErr
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, key registrations.Key) error {
	res, err := r.ext().ExecContext(ctx,
		`DELETE FROM registrations WHERE username = ? AND event_id = ?`,
		key.Username, key.EventID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return requireAffected(res, registrations.ErrRegistrationNotFound)
}

func (r *RegistrationRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM registrations`)
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	return res.RowsAffected()
}
