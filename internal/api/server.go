package api

import (
	"context"
	"net/http"

	"github.com/answerphone/answerphone/internal/config"
	"github.com/answerphone/answerphone/internal/database"
	"github.com/answerphone/answerphone/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/answerphone/answerphone/internal/api/middleware"
)

// RecordingFetcher downloads recording audio from the provider API.
// Satisfied by vonage.Client.
type RecordingFetcher interface {
	FetchRecording(ctx context.Context, url string) ([]byte, error)
}

// BlobStore persists recording audio keyed by recording UUID.
// Satisfied by blobstore.Store.
type BlobStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
}

// Server holds HTTP handler dependencies and the chi router. All
// collaborators are injected so handlers can be exercised with stub
// implementations in tests.
type Server struct {
	router     *chi.Mux
	cfg        *config.Config
	calls      database.CallRepository
	recordings database.RecordingRepository
	blobs      BlobStore
	provider   RecordingFetcher
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	limiter    *mw.IPRateLimiter
}

// NewServer creates the HTTP handler with all routes mounted.
func NewServer(
	cfg *config.Config,
	calls database.CallRepository,
	recordings database.RecordingRepository,
	blobs BlobStore,
	provider RecordingFetcher,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		cfg:        cfg,
		calls:      calls,
		recordings: recordings,
		blobs:      blobs,
		provider:   provider,
		metrics:    m,
		gatherer:   gatherer,
		limiter:    mw.NewIPRateLimiter(mw.DefaultRateLimitConfig()),
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the server's background goroutines.
func (s *Server) Close() {
	s.limiter.Stop()
}

// routes configures all middleware and mounts all routes.
func (s *Server) routes() {
	r := s.router

	// Global middleware stack.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.StructuredLogger)
	r.Use(mw.Recoverer)
	r.Use(mw.RateLimit(s.limiter))

	// Operator-facing pages.
	r.Get("/", s.handleIndex)
	r.Get("/recordings/{uuid}", s.handleRecordingAudio)

	// Provider webhooks.
	r.Post("/answer", s.handleAnswer)
	r.Post("/new-recording", s.handleNewRecording)
	r.Post("/event", s.handleEvent)

	// Operations endpoints.
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// handleHealth returns basic health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
