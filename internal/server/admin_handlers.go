package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/service"
)

// {user} is an email on the account routes and a userId on the todo routes.

type setAdminRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

func (s *Server) adminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.Identity.ListUsers(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (s *Server) adminUpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AdminUpdateUserRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	profile, err := s.Identity.UpdateUserAdmin(r.Context(), caller(r), pathParam(r, "user"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (s *Server) adminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Identity.DeleteUser(r.Context(), caller(r), pathParam(r, "user")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminSetAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req setAdminRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.IsAdmin == nil {
		s.fail(w, r, domainerrors.Validation("isAdmin is required"))
		return
	}
	profile, err := s.Identity.SetAdminStatus(r.Context(), caller(r), pathParam(r, "user"), *req.IsAdmin)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (s *Server) adminListTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.Todos.ListAllTodos(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) adminListUserTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.Todos.ListTodosByUser(r.Context(), caller(r), pathParam(r, "user"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) adminUpdateTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AdminUpdateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	todo, err := s.Todos.AdminUpdateTodo(r.Context(), caller(r), pathParam(r, "user"), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) adminDeleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Todos.AdminDeleteTodo(r.Context(), caller(r), pathParam(r, "user"), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
