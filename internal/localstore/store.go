// Package localstore keeps per-client state in Badger: cached sessions,
// pending extracted drafts and user preference flags.
//
// Values are JSON encoded with no schema version.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Tomlord1122/smart-todo/internal/domain"
)

const (
	sessionPrefix    = "session:"
	draftsPrefix     = "drafts:"
	preferencePrefix = "prefs:"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Store wraps a Badger database instance.
type Store struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(path string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	log.Info("local store opened", "path", path, "in_memory", path == "")
	return &Store{db: db, log: log, now: time.Now}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.log.Info("closing local store")
	return s.db.Close()
}

func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

func (s *Store) set(key []byte, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// PutSession stores a session until it expires.
func (s *Store) PutSession(_ context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionExpired
	}
	if err := s.set([]byte(sessionPrefix+session.ID), session, ttl); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession returns a live session.
func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := s.get([]byte(sessionPrefix+id), &session); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired(s.now()) {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	if err := s.delete([]byte(sessionPrefix + id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RefreshSession replaces the cached profile of an existing session. The
// read and write share one transaction, so a session deleted concurrently is
// never written back; ErrSessionNotFound reports that case.
func (s *Store) RefreshSession(_ context.Context, id string, profile domain.Profile, at time.Time) error {
	key := []byte(sessionPrefix + id)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var session domain.Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return err
		}
		return s.rewriteSession(txn, &session, profile, at)
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrSessionNotFound
	case errors.Is(err, ErrSessionExpired):
		return err
	case err != nil:
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}

// RefreshUserSessions rewrites the cached profile of every session of
// profile.UserID and reports how many were updated.
func (s *Store) RefreshUserSessions(_ context.Context, profile domain.Profile, at time.Time) (int, error) {
	n := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		matched, err := userSessions(txn, profile.UserID)
		if err != nil {
			return err
		}
		for i := range matched {
			err := s.rewriteSession(txn, &matched[i], profile, at)
			if errors.Is(err, ErrSessionExpired) {
				continue
			}
			if err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("refresh user sessions: %w", err)
	}
	return n, nil
}

// userSessions reads the sessions of userID. The iterator is closed before
// the caller writes in the same transaction.
func userSessions(txn *badger.Txn, userID string) ([]domain.Session, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(sessionPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var matched []domain.Session
	for it.Rewind(); it.Valid(); it.Next() {
		var session domain.Session
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return nil, err
		}
		if session.UserID == userID {
			matched = append(matched, session)
		}
	}
	return matched, nil
}

func (s *Store) rewriteSession(txn *badger.Txn, session *domain.Session, profile domain.Profile, at time.Time) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionExpired
	}
	session.User = profile
	session.RefreshedAt = at
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.SetEntry(badger.NewEntry([]byte(sessionPrefix+session.ID), data).WithTTL(ttl))
}

// ListSessions returns every live session.
func (s *Store) ListSessions(_ context.Context) ([]domain.Session, error) {
	var sessions []domain.Session
	now := s.now()
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var session domain.Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				return err
			}
			if !session.IsExpired(now) {
				sessions = append(sessions, session)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteUserSessions removes every session of userID and reports how many were dropped.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, session := range sessions {
		if session.UserID != userID {
			continue
		}
		if err := s.DeleteSession(ctx, session.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// PutDrafts replaces the user's pending drafts.
func (s *Store) PutDrafts(_ context.Context, userID string, drafts []domain.Draft) error {
	if len(drafts) == 0 {
		return s.delete([]byte(draftsPrefix + userID))
	}
	if err := s.set([]byte(draftsPrefix+userID), drafts, 0); err != nil {
		return fmt.Errorf("put drafts: %w", err)
	}
	return nil
}

// GetDrafts returns the user's pending drafts, or none.
func (s *Store) GetDrafts(_ context.Context, userID string) ([]domain.Draft, error) {
	drafts := []domain.Draft{}
	if err := s.get([]byte(draftsPrefix+userID), &drafts); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("get drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDrafts clears the user's pending drafts.
func (s *Store) DeleteDrafts(_ context.Context, userID string) error {
	if err := s.delete([]byte(draftsPrefix + userID)); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}
	return nil
}

// GetPreferences returns the user's preference flags, or an empty map.
func (s *Store) GetPreferences(_ context.Context, userID string) (map[string]any, error) {
	prefs := map[string]any{}
	if err := s.get([]byte(preferencePrefix+userID), &prefs); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// PutPreferences replaces the user's preference flags.
func (s *Store) PutPreferences(_ context.Context, userID string, prefs map[string]any) error {
	if err := s.set([]byte(preferencePrefix+userID), prefs, 0); err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}
	return nil
}
