package server

import (
	"net/http"

	"github.com/Tomlord1122/smart-todo/internal/service"
)

func (s *Server) signUpHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.Identity.SignUp(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

func (s *Server) signInHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SignInRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.Identity.SignIn(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) signOutHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	if err := s.Identity.SignOut(r.Context(), session); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.Activity != nil {
		s.Activity.Forget(session.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.Identity.Me(r.Context(), sessionFrom(r.Context())))
}

func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	profile, err := s.Identity.UpdateProfile(r.Context(), sessionFrom(r.Context()), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (s *Server) getPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.Identity.GetPreferences(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, prefs)
}

func (s *Server) setPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var prefs map[string]any
	if !s.decodeJSON(w, r, &prefs) {
		return
	}
	saved, err := s.Identity.SetPreferences(r.Context(), caller(r), prefs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

type activityRequest struct {
	Event string `json:"event"`
}

// activityHandler pauses or resumes the background session refresh while the user types.
func (s *Server) activityHandler(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if s.Activity != nil {
		if err := s.Activity.Activity(sessionFrom(r.Context()).ID, req.Event); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
