package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

const maxBodyBytes = 1 << 20

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondWithError(w, http.StatusNotFound, "Not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		})

		r.Get("/", s.HelloWorldHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.signUpHandler)
			r.Post("/signin", s.signInHandler)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/signout", s.signOutHandler)
				r.Get("/me", s.meHandler)
				r.Patch("/me", s.updateProfileHandler)
				r.Get("/preferences", s.getPreferencesHandler)
				r.Put("/preferences", s.setPreferencesHandler)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/session/activity", s.activityHandler)

			r.Route("/todos", func(r chi.Router) {
				r.With(s.throttle).Post("/", s.createTodoHandler)
				r.Get("/", s.listTodosHandler)
				r.Get("/insights", s.insightsHandler)
				r.Get("/suggestions", s.suggestionsHandler)
				r.Get("/{id}", s.getTodoHandler)
				r.Patch("/{id}", s.updateTodoHandler)
				r.Delete("/{id}", s.deleteTodoHandler)
				r.Post("/{id}/reanalyze", s.reanalyzeHandler)
				r.Get("/{id}/subtasks", s.listSubtasksHandler)
				r.Post("/{id}/subtasks", s.createSubtaskHandler)
				r.Delete("/{id}/subtasks/{subtaskID}", s.deleteSubtaskHandler)
			})

			r.Route("/analyze", func(r chi.Router) {
				r.Use(s.throttle)
				r.Post("/", s.analyzeHandler)
				r.Post("/split", s.splitHandler)
			})

			r.Route("/vision", func(r chi.Router) {
				r.With(s.throttle).Post("/extract", s.extractHandler)
				r.Post("/parse", s.parseTextHandler)
				r.Get("/drafts", s.getDraftsHandler)
				r.Delete("/drafts", s.discardDraftsHandler)
				r.Post("/drafts/commit", s.commitDraftsHandler)
			})

			r.Route("/lists", func(r chi.Router) {
				r.Post("/", s.createSharedListHandler)
				r.Get("/", s.listSharedListsHandler)
				r.Post("/{id}/members", s.addMemberHandler)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/users", s.adminListUsersHandler)
				r.Patch("/users/{user}", s.adminUpdateUserHandler)
				r.Delete("/users/{user}", s.adminDeleteUserHandler)
				r.Put("/users/{user}/admin", s.adminSetAdminHandler)
				r.Get("/users/{user}/todos", s.adminListUserTodosHandler)
				r.Patch("/users/{user}/todos/{id}", s.adminUpdateTodoHandler)
				r.Delete("/users/{user}/todos/{id}", s.adminDeleteTodoHandler)
				r.Get("/todos", s.adminListTodosHandler)
			})
		})
	})

	r.Get("/*", s.spaHandler())

	return r
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello World from Smart Todo!"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.DB.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

// decodeJSON decodes a single JSON object into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
	case errors.As(err, &maxBytesError):
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit))
	default:
		s.Log.Error("error decoding request", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Error processing request")
	}
	return false
}

// pathParam returns a URL parameter with percent-escapes decoded.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

type errorBody struct {
	Error   string            `json:"error"`
	Code    domainerrors.Code `json:"code"`
	Details any               `json:"details,omitempty"`
}

// respondWithDomainError maps a service error to its status. Messages of
// domain errors are user-facing and returned verbatim.
func respondWithDomainError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	var de *domainerrors.Error
	if !errors.As(err, &de) {
		de = domainerrors.Internal("Internal server error", err)
	}
	if de.Code == domainerrors.CodeInternal {
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	respondWithJSON(w, de.HTTPStatus(), errorBody{Error: de.Message, Code: de.Code, Details: de.Details})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondWithDomainError(w, s.Log, r, err)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("error marshaling JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
