package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/answerphone/answerphone/internal/blobstore"
	"github.com/answerphone/answerphone/internal/ncco"
	"github.com/answerphone/answerphone/internal/vonage"
)

// maxWebhookBody caps how much of an inbound webhook body is read (1 MB).
// Provider payloads are small JSON objects.
const maxWebhookBody = 1 << 20

// statusAnswered is the call event status that gets persisted; every other
// status is discarded.
const statusAnswered = "answered"

// handleAnswer is the NCCO webhook invoked when a call reaches the
// application. It returns the answering-machine control script: read the
// greeting, then record the caller and deliver the recording to
// /new-recording. Stateless — the request body is not consulted.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	eventURL := s.externalBaseURL(r) + "/new-recording"

	// The provider consumes a bare JSON array, not the API envelope.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ncco.AnswerMachine(eventURL)); err != nil {
		slog.Error("failed to encode ncco response", "error", err)
	}

	s.countWebhook("answer", true)
}

// eventPayload carries the fields the event handler inspects. The rest of
// the body is stored verbatim, not remodelled.
type eventPayload struct {
	Status           string `json:"status"`
	ConversationUUID string `json:"conversation_uuid"`
}

// handleEvent receives call-state transition events. Only "answered"
// events are persisted; everything else is acknowledged and dropped.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.countWebhook("event", false)
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	var event eventPayload
	if err := json.Unmarshal(body, &event); err != nil {
		s.countWebhook("event", false)
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}
	if event.Status == "" {
		s.countWebhook("event", false)
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	if event.Status != statusAnswered {
		slog.Debug("discarding call event", "status", event.Status)
		s.countWebhook("event", true)
		w.WriteHeader(http.StatusOK)
		return
	}

	if event.ConversationUUID == "" {
		s.countWebhook("event", false)
		writeError(w, http.StatusBadRequest, "conversation_uuid is required")
		return
	}

	// Store the body byte for byte; duplicate deliveries append again.
	if err := s.calls.Insert(r.Context(), event.ConversationUUID, body); err != nil {
		slog.Error("event: failed to store call", "error", err, "conversation_uuid", event.ConversationUUID)
		s.countWebhook("event", false)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("call answered", "conversation_uuid", event.ConversationUUID)
	s.countWebhook("event", true)
	w.WriteHeader(http.StatusOK)
}

// recordingPayload carries the fields the new-recording handler needs. The
// rest of the body is stored verbatim.
type recordingPayload struct {
	RecordingURL     string `json:"recording_url"`
	RecordingUUID    string `json:"recording_uuid"`
	ConversationUUID string `json:"conversation_uuid"`
}

// handleNewRecording receives the recording-ready event: it downloads the
// audio from the provider, writes it to the blob store, and appends the
// metadata row. The fetch and writes happen synchronously inside the
// webhook; the provider tolerates the handler latency and the client
// timeout keeps it bounded.
func (s *Server) handleNewRecording(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.countWebhook("new_recording", false)
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	var rec recordingPayload
	if err := json.Unmarshal(body, &rec); err != nil {
		s.countWebhook("new_recording", false)
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}
	switch {
	case rec.RecordingURL == "":
		s.countWebhook("new_recording", false)
		writeError(w, http.StatusBadRequest, "recording_url is required")
		return
	case rec.RecordingUUID == "":
		s.countWebhook("new_recording", false)
		writeError(w, http.StatusBadRequest, "recording_uuid is required")
		return
	case rec.ConversationUUID == "":
		s.countWebhook("new_recording", false)
		writeError(w, http.StatusBadRequest, "conversation_uuid is required")
		return
	}

	// Fetch first: on upstream failure nothing has been written and the
	// store stays consistent.
	audio, err := s.provider.FetchRecording(r.Context(), rec.RecordingURL)
	if err != nil {
		slog.Error("new-recording: fetch failed",
			"error", err,
			"recording_uuid", rec.RecordingUUID,
			"recording_url", rec.RecordingURL,
		)
		s.metrics.RecordingFetchFailures.Inc()
		s.countWebhook("new_recording", false)
		if errors.Is(err, vonage.ErrUpstream) {
			writeError(w, http.StatusBadGateway, "fetching recording from provider")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.blobs.Put(rec.RecordingUUID, audio); err != nil {
		slog.Error("new-recording: blob write failed", "error", err, "recording_uuid", rec.RecordingUUID)
		s.countWebhook("new_recording", false)
		if errors.Is(err, blobstore.ErrInvalidKey) {
			writeError(w, http.StatusBadRequest, "recording_uuid is not a valid uuid")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.recordings.Insert(r.Context(), rec.RecordingUUID, rec.ConversationUUID, body); err != nil {
		// The blob is already on disk; there is no reconciliation for
		// this orphan, so make it visible in the logs.
		slog.Error("new-recording: metadata insert failed, blob orphaned",
			"error", err,
			"recording_uuid", rec.RecordingUUID,
		)
		s.countWebhook("new_recording", false)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("recording stored",
		"recording_uuid", rec.RecordingUUID,
		"conversation_uuid", rec.ConversationUUID,
		"bytes", len(audio),
	)
	s.metrics.RecordingBytesFetched.Add(float64(len(audio)))
	s.countWebhook("new_recording", true)
	w.WriteHeader(http.StatusOK)
}

// externalBaseURL resolves the base URL the provider should use to call
// back into this deployment. The configured public URL wins; otherwise it
// is derived from the inbound request.
func (s *Server) externalBaseURL(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// countWebhook records a webhook delivery outcome.
func (s *Server) countWebhook(handler string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	s.metrics.WebhooksReceived.WithLabelValues(handler, outcome).Inc()
}
