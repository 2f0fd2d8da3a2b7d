// Package refresh keeps cached session profiles in step with the user table.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/localstore"
)

// Client activity events.
const (
	EventTyping = "typing"
	EventFocus  = "focus"
	EventBlur   = "blur"
)

// SessionStore is the session cache being refreshed.
type SessionStore interface {
	ListSessions(ctx context.Context) ([]domain.Session, error)
	// RefreshSession rewrites the profile of a session that still exists and
	// returns localstore.ErrSessionNotFound when it is gone.
	RefreshSession(ctx context.Context, id string, profile domain.Profile, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
}

// UserLookup reads the authoritative identity record.
type UserLookup interface {
	FindByUserID(ctx context.Context, userID string) (*domain.User, error)
}

// Refresher periodically re-reads the identity record behind every cached
// session. Sessions whose user is typing are skipped until the debounce
// deadline passes.
type Refresher struct {
	sessions SessionStore
	users    UserLookup
	interval time.Duration
	debounce time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	typingUntil map[string]time.Time

	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Refresher. Call Start to begin the loop.
func New(sessions SessionStore, users UserLookup, interval, debounce time.Duration, log *slog.Logger) *Refresher {
	return &Refresher{
		sessions:    sessions,
		users:       users,
		interval:    interval,
		debounce:    debounce,
		log:         log,
		now:         time.Now,
		typingUntil: make(map[string]time.Time),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the refresh loop in the background until Stop is called or ctx ends.
func (r *Refresher) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.RefreshOnce(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight refresh to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		if r.started.Load() {
			<-r.done
		}
	})
}

// Activity records a client event. Typing and focus push the debounce
// deadline out; blur clears it.
func (r *Refresher) Activity(sessionID, event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch event {
	case EventTyping, EventFocus:
		r.typingUntil[sessionID] = r.now().Add(r.debounce)
	case EventBlur:
		delete(r.typingUntil, sessionID)
	default:
		return domainerrors.Validationf("Unknown activity event %q", event)
	}
	return nil
}

// Forget drops any typing state for a session.
func (r *Refresher) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.typingUntil, sessionID)
}

// IsTyping reports whether refresh is currently suspended for the session.
func (r *Refresher) IsTyping(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typingLocked(sessionID, r.now())
}

func (r *Refresher) typingLocked(sessionID string, now time.Time) bool {
	until, ok := r.typingUntil[sessionID]
	if !ok {
		return false
	}
	if !now.Before(until) {
		delete(r.typingUntil, sessionID)
		return false
	}
	return true
}

// Result summarizes one refresh pass.
type Result struct {
	Refreshed int
	Skipped   int
	Dropped   int
}

// RefreshOnce refreshes every cached session once. Sessions of deleted or
// deactivated users are dropped.
func (r *Refresher) RefreshOnce(ctx context.Context) Result {
	var res Result
	sessions, err := r.sessions.ListSessions(ctx)
	if err != nil {
		r.log.Error("list sessions for refresh", "error", err)
		return res
	}

	now := r.now()
	for i := range sessions {
		s := &sessions[i]

		r.mu.Lock()
		typing := r.typingLocked(s.ID, now)
		r.mu.Unlock()
		if typing {
			res.Skipped++
			continue
		}

		user, err := r.users.FindByUserID(ctx, s.UserID)
		switch {
		case domainerrors.Is(err, domainerrors.ErrNotFound) || (err == nil && !user.IsActive):
			if err := r.sessions.DeleteSession(ctx, s.ID); err != nil {
				r.log.Error("drop stale session", "session_id", s.ID, "error", err)
				continue
			}
			r.Forget(s.ID)
			res.Dropped++
		case err != nil:
			r.log.Warn("refresh session user", "session_id", s.ID, "error", err)
		default:
			err := r.sessions.RefreshSession(ctx, s.ID, user.Profile(), now)
			switch {
			case errors.Is(err, localstore.ErrSessionNotFound), errors.Is(err, localstore.ErrSessionExpired):
				// signed out or expired while the user was being read
				r.Forget(s.ID)
				res.Dropped++
			case err != nil:
				r.log.Warn("store refreshed session", "session_id", s.ID, "error", err)
			default:
				res.Refreshed++
			}
		}
	}
	if res.Dropped > 0 || res.Refreshed > 0 {
		r.log.Debug("sessions refreshed", "refreshed", res.Refreshed, "skipped", res.Skipped, "dropped", res.Dropped)
	}
	return res
}
