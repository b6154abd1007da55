package httpapi

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed docs.json
var docsFS embed.FS

func (s *Server) handleDocsJSON(w http.ResponseWriter, r *http.Request) {
	raw, err := fs.ReadFile(docsFS, "docs.json")
	if err != nil {
		http.Error(w, "docs.json not embedded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

const swaggerUIPage = `<!DOCTYPE html>
<html>
<head>
  <title>mavbridge API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({ url: "/docs.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`

func (s *Server) handleDocsUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerUIPage))
}
