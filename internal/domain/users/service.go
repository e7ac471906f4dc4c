package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/metrics"
	"github.com/Togather-Foundation/eventreg/internal/sanitize"
	"github.com/Togather-Foundation/eventreg/internal/validation"
	"github.com/rs/zerolog"
)

// Service handles user management operations
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new user service instance
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	return s.repo.Get(ctx, strings.TrimSpace(username))
}

// Create validates and stores a new user. An existing username yields
// ErrUsernameTaken.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	input = Normalize(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.Get(ctx, input.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	user, err := s.repo.Create(ctx, User(input))
	if err != nil {
		return nil, err
	}

	metrics.RecordMutation("user", "create")
	s.logger.Info().Str("username", user.Username).Msg("user created")
	return user, nil
}

func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(username)); err != nil {
		return err
	}
	metrics.RecordMutation("user", "delete")
	s.logger.Info().Str("username", username).Msg("user deleted")
	return nil
}

// DeleteAll removes every user and, through the store's cascade, every
// registration. It returns the number of users removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	metrics.RecordMutation("user", "delete_all")
	s.logger.Info().Int64("count", n).Msg("all users deleted")
	return n, nil
}

// Normalize trims the username and email and strips markup from the name.
// Usernames are keys and are never rewritten beyond trimming.
func Normalize(input CreateUserInput) CreateUserInput {
	return CreateUserInput{
		Username: strings.TrimSpace(input.Username),
		Name:     sanitize.Text(input.Name),
		Email:    strings.TrimSpace(input.Email),
	}
}
