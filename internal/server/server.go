// Package server exposes the services over HTTP with a chi router and serves
// the built web client.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tomlord1122/smart-todo/internal/config"
	"github.com/Tomlord1122/smart-todo/internal/database"
	"github.com/Tomlord1122/smart-todo/internal/service"
)

// ActivityTracker receives typing/focus/blur events. *refresh.Refresher satisfies it.
type ActivityTracker interface {
	Activity(sessionID, event string) error
	Forget(sessionID string)
}

// Limiter throttles per key. *ratelimit.KeyedRateLimiter satisfies it.
type Limiter interface {
	Allow(key string) bool
}

// Deps are the collaborators a Server routes to.
type Deps struct {
	DB       database.Service
	Identity service.IdentityService
	Todos    service.TodoService
	Lists    service.SharedListService
	Analysis service.AnalysisService
	Vision   service.VisionService
	Activity ActivityTracker
	Limiter  Limiter
	Log      *slog.Logger
}

type Server struct {
	cfg config.ServerConfig
	Deps
}

// New returns the application server. Use RegisterRoutes for its handler.
func New(cfg config.ServerConfig, deps Deps) *Server {
	return &Server{cfg: cfg, Deps: deps}
}

// NewHTTPServer builds the http.Server listening on the configured port.
func NewHTTPServer(cfg config.ServerConfig, deps Deps) *http.Server {
	appServer := New(cfg, deps)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(deps.Log.Handler(), slog.LevelError),
	}
}
