package registrations

import (
	"context"
	"errors"
	"maps"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store. WithTx works on a copy of the state and
// publishes it only when fn succeeds.
type memStore struct {
	state *memState
}

type memState struct {
	users   map[string]users.User
	events  map[int64]events.Event
	regs    map[Key]Registration
	failReg error
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		users:  map[string]users.User{},
		events: map[int64]events.Event{},
		regs:   map[Key]Registration{},
	}}
}

func (s *memStore) Users() users.Repository   { return memUsers{s.state} }
func (s *memStore) Events() events.Repository { return memEvents{s.state} }
func (s *memStore) Registrations() Repository { return memRegs{s.state} }

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	clone := &memState{
		users:   maps.Clone(s.state.users),
		events:  maps.Clone(s.state.events),
		regs:    maps.Clone(s.state.regs),
		failReg: s.state.failReg,
	}
	if err := fn(ctx, &memStore{state: clone}); err != nil {
		return err
	}
	*s.state = *clone
	return nil
}

type memUsers struct{ s *memState }

func (r memUsers) Get(_ context.Context, username string) (*users.User, error) {
	u, ok := r.s.users[username]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) List(_ context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	return out, nil
}

func (r memUsers) Create(_ context.Context, u users.User) (*users.User, error) {
	if _, ok := r.s.users[u.Username]; ok {
		return nil, users.ErrUsernameTaken
	}
	r.s.users[u.Username] = u
	return &u, nil
}

func (r memUsers) Delete(_ context.Context, username string) error {
	if _, ok := r.s.users[username]; !ok {
		return users.ErrUserNotFound
	}
	delete(r.s.users, username)
	for key := range r.s.regs {
		if key.Username == username {
			delete(r.s.regs, key)
		}
	}
	return nil
}

func (r memUsers) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(r.s.users))
	clear(r.s.users)
	clear(r.s.regs)
	return n, nil
}

type memEvents struct{ s *memState }

func (r memEvents) Get(_ context.Context, id int64) (*events.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return &e, nil
}

func (r memEvents) List(context.Context) ([]events.Event, error) { return nil, nil }

func (r memEvents) Create(_ context.Context, in events.EventInput) (*events.Event, error) {
	e := events.Event{ID: int64(len(r.s.events) + 1), Title: in.Title, Date: in.Date, Location: in.Location}
	r.s.events[e.ID] = e
	return &e, nil
}

func (r memEvents) Update(context.Context, int64, events.EventInput) (*events.Event, error) {
	return nil, errors.New("not implemented")
}

func (r memEvents) Delete(context.Context, int64) error { return errors.New("not implemented") }

func (r memEvents) DeleteAll(context.Context) (int64, error) { return 0, errors.New("not implemented") }

type memRegs struct{ s *memState }

func (r memRegs) Get(_ context.Context, key Key) (*Registration, error) {
	reg, ok := r.s.regs[key]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	return &reg, nil
}

func (r memRegs) List(_ context.Context, filter Filter) ([]Registration, error) {
	out := make([]Registration, 0, len(r.s.regs))
	for _, reg := range r.s.regs {
		if filter.Username != "" && reg.Username != filter.Username {
			continue
		}
		if filter.EventID != 0 && reg.EventID != filter.EventID {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

func (r memRegs) Create(_ context.Context, reg Registration) (*Registration, error) {
	if r.s.failReg != nil {
		return nil, r.s.failReg
	}
	if _, ok := r.s.regs[reg.Key()]; ok {
		return nil, ErrAlreadyRegistered
	}
	r.s.regs[reg.Key()] = reg
	return &reg, nil
}

func (r memRegs) Delete(_ context.Context, key Key) error {
	if _, ok := r.s.regs[key]; !ok {
		return ErrRegistrationNotFound
	}
	delete(r.s.regs, key)
	return nil
}

func (r memRegs) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(r.s.regs))
	clear(r.s.regs)
	return n, nil
}

func seededStore(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	_, err := store.Users().Create(context.Background(), users.User{Username: "alice", Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = store.Events().Create(context.Background(), events.EventInput{
		Title:    "Go Meetup",
		Date:     time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC),
		Location: "Turin",
	})
	require.NoError(t, err)
	return store
}

func TestRegister(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, zerolog.Nop())

	reg, err := svc.Register(context.Background(), RegisterInput{Username: "alice", EventID: 1})

	require.NoError(t, err)
	require.Equal(t, Registration{Username: "alice", EventID: 1}, *reg)
	require.Contains(t, store.state.regs, Key{Username: "alice", EventID: 1})
}

func TestRegisterTwiceIsConflict(t *testing.T) {
	svc := NewService(seededStore(t), zerolog.Nop())
	input := RegisterInput{Username: "alice", EventID: 1}

	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestRegisterMissingEvent(t *testing.T) {
	svc := NewService(seededStore(t), zerolog.Nop())

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", EventID: 99})

	require.ErrorIs(t, err, events.ErrEventNotFound)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRegisterMissingUserWithoutProfile(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Register(context.Background(), RegisterInput{Username: "bob", EventID: 1})

	require.ErrorIs(t, err, users.ErrUserNotFound)
	require.NotContains(t, store.state.users, "bob")
}

func TestRegisterCreatesUserFromProfile(t *testing.T) {
	store := seededStore(t)
	svc := NewService(store, zerolog.Nop())

	reg, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		EventID:  1,
		Name:     "<i>Bob</i>",
		Email:    "bob@example.com",
	})

	require.NoError(t, err)
	require.Equal(t, "bob", reg.Username)
	require.Equal(t, users.User{Username: "bob", Name: "Bob", Email: "bob@example.com"}, store.state.users["bob"])
}

func TestRegisterRollsBackCreatedUserOnFailure(t *testing.T) {
	store := seededStore(t)
	store.state.failReg = errors.New("write failed")
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "carol",
		EventID:  1,
		Name:     "Carol",
		Email:    "carol@example.com",
	})

	require.Error(t, err)
	require.NotContains(t, store.state.users, "carol")
	require.Empty(t, store.state.regs)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(seededStore(t), zerolog.Nop())

	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing username", RegisterInput{EventID: 1}, "username"},
		{"missing event", RegisterInput{Username: "alice"}, "event_id"},
		{"email without name", RegisterInput{Username: "bob", EventID: 1, Email: "bob@example.com"}, "name"},
		{"name without email", RegisterInput{Username: "bob", EventID: 1, Name: "Bob"}, "email"},
		{"bad email", RegisterInput{Username: "bob", EventID: 1, Name: "Bob", Email: "bob"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			verr, ok := errs.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			require.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestDeleteRegistration(t *testing.T) {
	svc := NewService(seededStore(t), zerolog.Nop())
	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", EventID: 1})
	require.NoError(t, err)

	key := Key{Username: "alice", EventID: 1}
	require.NoError(t, svc.Delete(context.Background(), key))
	require.ErrorIs(t, svc.Delete(context.Background(), key), ErrRegistrationNotFound)

	list, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestDeleteAllRegistrations(t *testing.T) {
	svc := NewService(seededStore(t), zerolog.Nop())
	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", EventID: 1})
	require.NoError(t, err)

	n, err := svc.DeleteAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter(url.Values{"username": {" alice "}, "event_id": {"3"}})
	require.NoError(t, err)
	require.Equal(t, Filter{Username: "alice", EventID: 3}, filter)

	filter, err = ParseFilter(url.Values{})
	require.NoError(t, err)
	require.Equal(t, Filter{}, filter)

	_, err = ParseFilter(url.Values{"event_id": {"x"}})
	require.True(t, errs.IsValidation(err))
}

func TestParseKey(t *testing.T) {
	key, ok, err := ParseKey(url.Values{"username": {"alice"}, "event_id": {"1"}})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Key{Username: "alice", EventID: 1}, key)

	_, ok, err = ParseKey(url.Values{})
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = ParseKey(url.Values{"username": {"alice"}})
	verr, isValidation := errs.AsValidation(err)
	require.True(t, isValidation)
	require.Contains(t, verr.Fields, "event_id")

	_, _, err = ParseKey(url.Values{"event_id": {"1"}})
	verr, isValidation = errs.AsValidation(err)
	require.True(t, isValidation)
	require.Contains(t, verr.Fields, "username")
}
