package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
)

type RegistrationRepository struct {
	conn
}

func (r *RegistrationRepository) Get(ctx context.Context, key registrations.Key) (*registrations.Registration, error) {
	var reg registrations.Registration
	err := r.queryer().QueryRow(ctx, `
SELECT username, event_id
  FROM registrations
 WHERE username = $1 AND event_id = $2
`, key.Username, key.EventID).Scan(&reg.Username, &reg.EventID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registrations.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) List(ctx context.Context, filter registrations.Filter) ([]registrations.Registration, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT username, event_id
  FROM registrations
 WHERE ($1 = '' OR username = $1)
   AND ($2 = 0 OR event_id = $2)
 ORDER BY username, event_id
`, filter.Username, filter.EventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := []registrations.Registration{}
	for rows.Next() {
		var reg registrations.Registration
		if err := rows.Scan(&reg.Username, &reg.EventID); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) Create(ctx context.Context, reg registrations.Registration) (*registrations.Registration, error) {
	_, err := r.queryer().Exec(ctx,
		`INSERT INTO registrations (username, event_id) VALUES ($1, $2)`,
		reg.Username, reg.EventID,
	)
	if err != nil {
		if domainErr, ok := translateError(err, registrations.ErrAlreadyRegistered); ok {
			return nil, domainErr
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, key registrations.Key) error {
	tag, err := r.queryer().Exec(ctx,
		`DELETE FROM registrations WHERE username = $1 AND event_id = $2`,
		key.Username, key.EventID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM registrations`)
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	return tag.RowsAffected(), nil
}
