package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler serves the built client from StaticDir. Paths that do not name
// a file fall back to index.html so client-side routes resolve.
func (s *Server) spaHandler() http.HandlerFunc {
	root := s.cfg.StaticDir
	files := http.FileServer(http.Dir(root))

	return func(w http.ResponseWriter, r *http.Request) {
		if root == "" {
			respondWithError(w, http.StatusNotFound, "Not found")
			return
		}

		name := path.Clean("/" + r.URL.Path)
		if strings.HasPrefix(name, "/api/") {
			respondWithError(w, http.StatusNotFound, "Not found")
			return
		}

		full := filepath.Join(root, filepath.FromSlash(name))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			respondWithError(w, http.StatusNotFound, "Not found")
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	}
}
