package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/Togather-Foundation/eventreg/internal/metrics"
	"github.com/Togather-Foundation/eventreg/internal/sanitize"
	"github.com/Togather-Foundation/eventreg/internal/validation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Togather-Foundation/eventreg/internal/domain/registrations"

type Service struct {
	store  Store
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "registrations").Logger(),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Registration, error) {
	return s.store.Registrations().List(ctx, filter)
}

// Register admits a user to an event. Inside one transaction it checks that
// the event exists, that the user exists (creating it from the input's
// profile when one is supplied) and that the pair is not registered yet.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Registration, error) {
	input = normalize(input)

	ctx, span := s.tracer.Start(ctx, "registrations.Register", trace.WithAttributes(
		attribute.String("registration.username", input.Username),
		attribute.Int64("registration.event_id", input.EventID),
	))
	defer span.End()

	reg, created, err := s.register(ctx, input)
	outcome := outcomeOf(err)
	metrics.RecordRegistration(outcome)
	span.SetAttributes(attribute.String("registration.outcome", outcome))

	if err != nil {
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	if created {
		metrics.UsersAutoCreatedTotal.Inc()
		metrics.RecordMutation("user", "create")
		s.logger.Info().Str("username", reg.Username).Msg("user created during registration")
	}
	metrics.RecordMutation("registration", "create")
	s.logger.Info().
		Str("username", reg.Username).
		Int64("event_id", reg.EventID).
		Msg("registration created")
	return reg, nil
}

func (s *Service) register(ctx context.Context, input RegisterInput) (*Registration, bool, error) {
	if err := validation.Struct(input); err != nil {
		return nil, false, err
	}
	if input.Email != "" {
		if err := validation.Var("email", input.Email, "email"); err != nil {
			return nil, false, err
		}
	}

	var (
		reg         *Registration
		userCreated bool
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		userCreated = false

		if _, err := tx.Events().Get(ctx, input.EventID); err != nil {
			return err
		}

		if _, err := tx.Users().Get(ctx, input.Username); err != nil {
			if !errors.Is(err, users.ErrUserNotFound) || !input.HasProfile() {
				return err
			}
			if _, err := tx.Users().Create(ctx, users.User{
				Username: input.Username,
				Name:     input.Name,
				Email:    input.Email,
			}); err != nil {
				return err
			}
			userCreated = true
		}

		key := Key{Username: input.Username, EventID: input.EventID}
		if _, err := tx.Registrations().Get(ctx, key); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, ErrRegistrationNotFound) {
			return fmt.Errorf("check registration: %w", err)
		}

		created, err := tx.Registrations().Create(ctx, Registration{Username: key.Username, EventID: key.EventID})
		if err != nil {
			return err
		}
		reg = created
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return reg, userCreated, nil
}

func (s *Service) Delete(ctx context.Context, key Key) error {
	if err := s.store.Registrations().Delete(ctx, key); err != nil {
		return err
	}
	metrics.RecordMutation("registration", "delete")
	s.logger.Info().Str("username", key.Username).Int64("event_id", key.EventID).Msg("registration deleted")
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.Registrations().DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	metrics.RecordMutation("registration", "delete_all")
	s.logger.Info().Int64("count", n).Msg("all registrations deleted")
	return n, nil
}

func normalize(input RegisterInput) RegisterInput {
	return RegisterInput{
		Username: strings.TrimSpace(input.Username),
		EventID:  input.EventID,
		Name:     sanitize.Text(input.Name),
		Email:    strings.TrimSpace(input.Email),
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errs.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
