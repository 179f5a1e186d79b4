package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/answerphone/answerphone/internal/blobstore"
	"github.com/go-chi/chi/v5"
)

// handleRecordingAudio serves a stored recording's MP3 bytes for playback
// in the listing page's audio player.
func (s *Server) handleRecordingAudio(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "uuid")

	audio, err := s.blobs.Get(key)
	if err != nil {
		// Unknown and malformed keys both read as "no such recording";
		// invalid keys never touch the filesystem.
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidKey) {
			writeError(w, http.StatusNotFound, "recording not found")
			return
		}
		slog.Error("recording audio: blob read failed", "error", err, "recording_uuid", key)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Debug("recording audio: write aborted", "error", err, "recording_uuid", key)
	}
}
