// Package seed fills an empty store with sample users, events and
// registrations.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
)

const (
	DefaultUsers  = 5
	DefaultEvents = 5
)

// Options controls how much sample data is generated. Seed 0 picks a random
// seed.
type Options struct {
	Users  int
	Events int
	Seed   uint64
	Now    func() time.Time
}

// Result counts what Run created.
type Result struct {
	Users         int
	Events        int
	Registrations int
}

// Run creates opts.Users users and opts.Events events, then registers every
// new user for the first new event. Everything runs in one transaction.
func Run(ctx context.Context, store registrations.Store, opts Options, logger zerolog.Logger) (Result, error) {
	if opts.Users < 0 || opts.Events < 0 {
		return Result{}, fmt.Errorf("seed: counts must not be negative")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	faker := gofakeit.New(opts.Seed)

	var result Result
	err := store.WithTx(ctx, func(ctx context.Context, tx registrations.Store) error {
		result = Result{}

		created := make([]users.User, 0, opts.Users)
		for i := 0; i < opts.Users; i++ {
			user, err := createUser(ctx, tx.Users(), faker, i)
			if err != nil {
				return err
			}
			created = append(created, *user)
		}
		result.Users = len(created)

		var first *events.Event
		start := now().UTC().Truncate(time.Hour)
		for i := 0; i < opts.Events; i++ {
			description := faker.HackerPhrase()
			event, err := tx.Events().Create(ctx, events.EventInput{
				Title:       fmt.Sprintf("%s %s Meetup", faker.HackerAdjective(), faker.ProgrammingLanguage()),
				Description: &description,
				Date:        faker.DateRange(start, start.AddDate(1, 0, 0)).UTC(),
				Location:    faker.City(),
			})
			if err != nil {
				return fmt.Errorf("seed event: %w", err)
			}
			if first == nil {
				first = event
			}
			result.Events++
		}

		if first == nil {
			return nil
		}
		for _, user := range created {
			if _, err := tx.Registrations().Create(ctx, registrations.Registration{
				Username: user.Username,
				EventID:  first.ID,
			}); err != nil {
				return fmt.Errorf("seed registration: %w", err)
			}
			result.Registrations++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info().
		Int("users", result.Users).
		Int("events", result.Events).
		Int("registrations", result.Registrations).
		Msg("seeded sample data")
	return result, nil
}

// createUser inserts a fake user, suffixing the username until it is free.
// Free names are found with lookups so that a failed insert never aborts the
// surrounding transaction.
func createUser(ctx context.Context, repo users.Repository, faker *gofakeit.Faker, index int) (*users.User, error) {
	base := faker.Username()
	if len(base) > users.MaxUsernameLength-6 {
		base = base[:users.MaxUsernameLength-6]
	}

	username := base
	for attempt := 0; attempt < 100; attempt++ {
		if attempt > 0 {
			username = base + strconv.Itoa(index*100+attempt)
		}
		_, err := repo.Get(ctx, username)
		if err == nil {
			continue
		}
		if !errors.Is(err, users.ErrUserNotFound) {
			return nil, fmt.Errorf("seed user: %w", err)
		}

		user, err := repo.Create(ctx, users.User{
			Username: username,
			Name:     faker.Name(),
			Email:    faker.Email(),
		})
		if err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		return user, nil
	}
	return nil, fmt.Errorf("seed user: no free username for %q", base)
}
