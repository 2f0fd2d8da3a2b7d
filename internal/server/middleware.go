package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/Tomlord1122/smart-todo/internal/domain"
	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

type sessionKey struct{}

// sessionFrom returns the session placed on the context by authenticate.
func sessionFrom(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return session
}

func caller(r *http.Request) domain.Profile {
	if session := sessionFrom(r.Context()); session != nil {
		return session.User
	}
	return domain.Profile{}
}

// authenticate resolves the bearer token to a cached session.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="smart-todo"`)
			s.fail(w, r, domainerrors.Unauthorized("Authentication required"))
			return
		}

		session, err := s.Identity.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).IsAdmin {
			s.fail(w, r, domainerrors.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// throttle applies the per-user token bucket to AI-backed endpoints.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter != nil && !s.Limiter.Allow(caller(r).UserID) {
			w.Header().Set("Retry-After", "1")
			s.fail(w, r, domainerrors.RateLimited("Too many requests. Please wait a moment and try again."))
			return
		}
		next.ServeHTTP(w, r)
	})
}
