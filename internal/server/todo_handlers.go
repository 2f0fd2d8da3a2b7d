package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/smart-todo/internal/service"
)

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.Split {
		todos, err := s.Todos.CreateSplitTodos(r.Context(), caller(r), req)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, todos)
		return
	}

	todoResp, err := s.Todos.CreateTodo(r.Context(), caller(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, todoResp)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.Todos.ListTodos(r.Context(), caller(r), r.URL.Query().Get("sharedListId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	todo, err := s.Todos.GetTodo(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updatedTodo, err := s.Todos.UpdateTodo(r.Context(), caller(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updatedTodo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Todos.DeleteTodo(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reanalyzeHandler(w http.ResponseWriter, r *http.Request) {
	todo, err := s.Todos.Reanalyze(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) listSubtasksHandler(w http.ResponseWriter, r *http.Request) {
	subtasks, err := s.Todos.ListSubtasks(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, subtasks)
}

func (s *Server) createSubtaskHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSubtaskRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	subtask, err := s.Todos.CreateSubtask(r.Context(), caller(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, subtask)
}

func (s *Server) deleteSubtaskHandler(w http.ResponseWriter, r *http.Request) {
	err := s.Todos.DeleteSubtask(r.Context(), caller(r), chi.URLParam(r, "id"), chi.URLParam(r, "subtaskID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	insights, err := s.Todos.Insights(r.Context(), caller(r), r.URL.Query().Get("sharedListId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, insights)
}

func (s *Server) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.Todos.Suggestions(r.Context(), caller(r), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ann, err := s.Analysis.Analyze(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ann)
}

func (s *Server) splitHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	split, err := s.Analysis.Split(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, split)
}

func (s *Server) createSharedListHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSharedListRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	list, err := s.Lists.CreateSharedList(r.Context(), caller(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, list)
}

func (s *Server) listSharedListsHandler(w http.ResponseWriter, r *http.Request) {
	lists, err := s.Lists.ListSharedLists(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lists)
}

func (s *Server) addMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AddMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	list, err := s.Lists.AddMember(r.Context(), caller(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}
