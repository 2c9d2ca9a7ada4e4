package rest

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrorResponse is the JSON shape of all 4xx/5xx API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// FrontendHandler serves the static frontend from a directory, falling back to
// the index file for paths that do not match a file, so that client-side
// routing (month/week views, the embed widget) works on deep links.
type FrontendHandler struct {
	dir       string
	indexFile string
	fs        http.Handler
}

func NewFrontendHandler(dir string, indexFile string) *FrontendHandler {
	return &FrontendHandler{
		dir:       dir,
		indexFile: indexFile,
		fs:        http.FileServer(http.Dir(dir)),
	}
}

func (h *FrontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, filepath.Clean("/"+strings.TrimPrefix(r.URL.Path, "/")))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.dir, h.indexFile))
		return
	}

	h.fs.ServeHTTP(w, r)
}
