package server

import (
	"errors"
	"io"
	"net/http"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
	"github.com/Tomlord1122/smart-todo/internal/service"
	"github.com/Tomlord1122/smart-todo/internal/vision"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+uploadSlack)
	if err := r.ParseMultipartForm(service.MaxImageSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			s.fail(w, r, domainerrors.Validation("File size must be less than 10MB"))
			return
		}
		s.fail(w, r, domainerrors.Validation("Expected a multipart form with an image field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		s.fail(w, r, domainerrors.Validation("Please select an image to upload"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := service.CheckUpload(contentType, header.Size); err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, domainerrors.Internal("Failed to read upload", err))
		return
	}

	resp, err := s.Vision.ExtractDrafts(r.Context(), caller(r), vision.Image{Data: data, MIMEType: contentType})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) parseTextHandler(w http.ResponseWriter, r *http.Request) {
	var req service.ParseTextRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.Vision.ParseText(r.Context(), caller(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) getDraftsHandler(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.Vision.Drafts(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, drafts)
}

func (s *Server) discardDraftsHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Vision.DiscardDrafts(r.Context(), caller(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) commitDraftsHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CommitDraftsRequest
	if r.ContentLength != 0 && !s.decodeJSON(w, r, &req) {
		return
	}
	result, err := s.Vision.CommitDrafts(r.Context(), caller(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	respondWithJSON(w, status, result)
}
