package events

import (
	"context"

	"github.com/Togather-Foundation/eventreg/internal/metrics"
	"github.com/Togather-Foundation/eventreg/internal/sanitize"
	"github.com/Togather-Foundation/eventreg/internal/validation"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input EventInput) (*Event, error) {
	input = Normalize(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	metrics.RecordMutation("event", "create")
	s.logger.Info().Int64("event_id", event.ID).Str("title", event.Title).Msg("event created")
	return event, nil
}

// Update replaces every mutable field of the event.
func (s *Service) Update(ctx context.Context, id int64, input EventInput) (*Event, error) {
	input = Normalize(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	event, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}

	metrics.RecordMutation("event", "update")
	s.logger.Info().Int64("event_id", id).Msg("event updated")
	return event, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.RecordMutation("event", "delete")
	s.logger.Info().Int64("event_id", id).Msg("event deleted")
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	metrics.RecordMutation("event", "delete_all")
	s.logger.Info().Int64("count", n).Msg("all events deleted")
	return n, nil
}

// Normalize strips markup from plain-text fields, keeps safe formatting in
// the description and moves the date to UTC.
func Normalize(input EventInput) EventInput {
	out := EventInput{
		Title:       sanitize.Text(input.Title),
		Description: sanitize.OptionalHTML(input.Description),
		Location:    sanitize.Text(input.Location),
	}
	if !input.Date.IsZero() {
		out.Date = input.Date.UTC()
	}
	return out
}
