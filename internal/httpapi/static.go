package httpapi

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// handleStatic serves an embedded asset by extension-inferred content
// type. An empty path maps to index.html; anything not found is a
// plain 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	if name == "" {
		name = "index.html"
	}

	raw, err := fs.ReadFile(staticFS, path.Join("static", name))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Write(raw)
}
