package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves a single-page app's static files, falling back to
// index.html for client-side routes. It is mounted as the NotFound handler
// under each surface's route prefix, so it sees full request paths.
type SPAHandler struct {
	staticDir  string
	pathPrefix string
	indexFile  string
}

func NewSPAHandler(staticDir, pathPrefix string) *SPAHandler {
	return &SPAHandler{
		staticDir:  staticDir,
		pathPrefix: pathPrefix,
		indexFile:  "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.pathPrefix)
	path = strings.TrimPrefix(path, "/")

	// API misses stay 404s; only page routes fall back to the SPA shell.
	if strings.HasPrefix(path, "api/") {
		http.NotFound(w, r)
		return
	}

	if path != "" {
		filePath := filepath.Join(h.staticDir, filepath.Clean(path))
		info, err := os.Stat(filePath)
		if err == nil && !info.IsDir() {
			http.ServeFile(w, r, filePath)
			return
		}
	}

	indexPath := filepath.Join(h.staticDir, h.indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, indexPath)
}

func StaticFileServer(staticDir, pathPrefix string) http.Handler {
	return NewSPAHandler(staticDir, pathPrefix)
}
