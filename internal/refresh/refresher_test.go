package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/localstore"
	"github.com/Tomlord1122/smart-todo/internal/logger"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func (m *memSessions) ListSessions(context.Context) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSessions) RefreshSession(_ context.Context, id string, profile domain.Profile, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return localstore.ErrSessionNotFound
	}
	s.User = profile
	s.RefreshedAt = at
	m.sessions[id] = s
	return nil
}

func (m *memSessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) get(id string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

type memUsers map[string]*domain.User

func (m memUsers) FindByUserID(_ context.Context, id string) (*domain.User, error) {
	if id == "broken" {
		return nil, errors.New("connection reset")
	}
	u, ok := m[id]
	if !ok {
		return nil, domainerrors.NotFound("User not found")
	}
	return u, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup() (*Refresher, *memSessions, *clock) {
	store := &memSessions{sessions: map[string]domain.Session{
		"s-active":   {ID: "s-active", UserID: "u1", User: domain.Profile{Name: "old"}},
		"s-inactive": {ID: "s-inactive", UserID: "u2"},
		"s-deleted":  {ID: "s-deleted", UserID: "gone"},
		"s-broken":   {ID: "s-broken", UserID: "broken"},
	}}
	users := memUsers{
		"u1": {UserID: "u1", Name: "new", IsActive: true},
		"u2": {UserID: "u2", Name: "off", IsActive: false},
	}
	c := &clock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := New(store, users, 30*time.Second, 3*time.Second, logger.Discard())
	r.now = c.now
	return r, store, c
}

func TestRefreshOnce(t *testing.T) {
	r, store, c := setup()

	res := r.RefreshOnce(context.Background())
	assert.Equal(t, Result{Refreshed: 1, Dropped: 2}, res)

	s, ok := store.get("s-active")
	require.True(t, ok)
	assert.Equal(t, "new", s.User.Name)
	assert.Equal(t, c.t, s.RefreshedAt)

	_, ok = store.get("s-inactive")
	assert.False(t, ok)
	_, ok = store.get("s-deleted")
	assert.False(t, ok)
	_, ok = store.get("s-broken")
	assert.True(t, ok, "lookup failures keep the session")
}

// blockingUsers holds every lookup until release is closed.
type blockingUsers struct {
	memUsers
	entered chan struct{}
	release chan struct{}
}

func (b *blockingUsers) FindByUserID(ctx context.Context, id string) (*domain.User, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.memUsers.FindByUserID(ctx, id)
}

func TestRefreshOnce_DoesNotResurrectSignedOutSession(t *testing.T) {
	store := &memSessions{sessions: map[string]domain.Session{
		"s1": {ID: "s1", UserID: "u1"},
	}}
	users := &blockingUsers{
		memUsers: memUsers{"u1": {UserID: "u1", Name: "fresh", IsActive: true}},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	r := New(store, users, time.Minute, time.Second, logger.Discard())

	done := make(chan Result, 1)
	go func() { done <- r.RefreshOnce(context.Background()) }()

	<-users.entered
	require.NoError(t, store.DeleteSession(context.Background(), "s1"))
	close(users.release)

	res := <-done
	assert.Equal(t, Result{Dropped: 1}, res)
	_, ok := store.get("s1")
	assert.False(t, ok, "signed-out session must stay deleted")
}

func TestRefreshOnce_SkipsWhileTyping(t *testing.T) {
	r, store, c := setup()

	require.NoError(t, r.Activity("s-active", EventTyping))
	c.t = c.t.Add(2 * time.Second)
	require.NoError(t, r.Activity("s-active", EventTyping))

	// debounce restarts on every keystroke
	c.t = c.t.Add(2 * time.Second)
	assert.True(t, r.IsTyping("s-active"))
	res := r.RefreshOnce(context.Background())
	assert.Equal(t, 1, res.Skipped)
	s, _ := store.get("s-active")
	assert.Equal(t, "old", s.User.Name)

	c.t = c.t.Add(2 * time.Second)
	assert.False(t, r.IsTyping("s-active"))
	res = r.RefreshOnce(context.Background())
	assert.Equal(t, 0, res.Skipped)
	s, _ = store.get("s-active")
	assert.Equal(t, "new", s.User.Name)
}

func TestActivity(t *testing.T) {
	r, _, _ := setup()

	require.NoError(t, r.Activity("s1", EventFocus))
	assert.True(t, r.IsTyping("s1"))
	require.NoError(t, r.Activity("s1", EventBlur))
	assert.False(t, r.IsTyping("s1"))

	require.NoError(t, r.Activity("s1", EventTyping))
	r.Forget("s1")
	assert.False(t, r.IsTyping("s1"))

	assert.ErrorIs(t, r.Activity("s1", "scroll"), domainerrors.ErrValidation)
}

func TestStartStop(t *testing.T) {
	store := &memSessions{sessions: map[string]domain.Session{
		"s1": {ID: "s1", UserID: "u1"},
	}}
	users := memUsers{"u1": {UserID: "u1", Name: "fresh", IsActive: true}}
	r := New(store, users, 10*time.Millisecond, time.Second, logger.Discard())

	r.Start(context.Background())
	assert.Eventually(t, func() bool {
		s, _ := store.get("s1")
		return s.User.Name == "fresh"
	}, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	r, _, _ := setup()
	r.Stop()
}
