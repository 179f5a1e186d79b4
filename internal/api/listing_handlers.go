package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/answerphone/answerphone/internal/listing"
)

//go:embed templates/index.html.tmpl
var templatesFS embed.FS

// indexTmpl renders the recordings listing page.
var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html.tmpl"))

// handleIndex lists all stored recordings, each joined with its
// originating call event when one exists.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	recordings, err := s.recordings.List(r.Context())
	if err != nil {
		slog.Error("index: failed to list recordings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	entries, err := listing.Build(r.Context(), recordings, s.calls)
	if err != nil {
		slog.Error("index: failed to build listing", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTmpl.Execute(w, map[string]any{"Entries": entries}); err != nil {
		slog.Error("index: template render failed", "error", err)
	}
}
