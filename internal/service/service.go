// Package service holds the business logic behind the HTTP handlers.
//
// Services validate their input DTOs, enforce ownership and list permissions,
// and translate store failures into coded domain errors. Handlers never see a
// raw gorm or badger error.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

// TextAnalyzer annotates task text. *analysis.Analyzer satisfies it.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) domain.Annotation
}

// SuggestionIndex keeps previous task texts searchable. *search.Index satisfies it.
type SuggestionIndex interface {
	IndexTodo(todo *domain.Todo) error
	IndexTodos(todos []domain.Todo) error
	Delete(ids ...string) error
	Suggest(ctx context.Context, userID, q string, limit int) ([]string, error)
}

// SessionStore caches signed-in sessions. *localstore.Store satisfies it.
type SessionStore interface {
	PutSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) (int, error)
	// RefreshUserSessions rewrites the cached profile of the user's live
	// sessions without recreating deleted ones.
	RefreshUserSessions(ctx context.Context, profile domain.Profile, at time.Time) (int, error)
}

// PreferenceStore holds per-user preference flags.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (map[string]any, error)
	PutPreferences(ctx context.Context, userID string, prefs map[string]any) error
}

// DraftStore holds a user's pending extracted drafts.
type DraftStore interface {
	PutDrafts(ctx context.Context, userID string, drafts []domain.Draft) error
	GetDrafts(ctx context.Context, userID string) ([]domain.Draft, error)
	DeleteDrafts(ctx context.Context, userID string) error
}

// Validator checks request DTOs. *validation.Validator satisfies it.
type Validator interface {
	Validate(s any) error
}

// storeError passes domain errors through and turns anything else into an
// INTERNAL error carrying msg, logged at Error.
func storeError(log *slog.Logger, err error, msg string, args ...any) error {
	var de *domainerrors.Error
	if domainerrors.As(err, &de) {
		return err
	}
	log.Error(msg, append(args, "error", err)...)
	return domainerrors.Internal(msg, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func requireAdmin(caller domain.Profile) error {
	if !caller.IsAdmin {
		return domainerrors.Forbidden("Admin access required")
	}
	return nil
}
