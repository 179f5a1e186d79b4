package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/answerphone/answerphone/internal/api"
	"github.com/answerphone/answerphone/internal/blobstore"
	"github.com/answerphone/answerphone/internal/config"
	"github.com/answerphone/answerphone/internal/database"
	"github.com/answerphone/answerphone/internal/metrics"
	"github.com/answerphone/answerphone/internal/vonage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging.
	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting answerphone",
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir,
		"application_id", cfg.ApplicationID,
	)

	// Open database and run migrations.
	db, err := database.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Recording audio lives next to the database.
	blobs, err := blobstore.New(filepath.Join(cfg.DataDir, "recordings"))
	if err != nil {
		slog.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	// Provider client for authenticated recording downloads.
	keyPEM, err := cfg.PrivateKeyBytes()
	if err != nil {
		slog.Error("failed to load private key", "error", err)
		os.Exit(1)
	}
	provider, err := vonage.NewClient(cfg.ApplicationID, keyPEM)
	if err != nil {
		slog.Error("failed to create provider client", "error", err)
		os.Exit(1)
	}

	calls := database.NewCallRepository(db)
	recordings := database.NewRecordingRepository(db)

	// Metrics: live webhook counters plus scrape-time store gauges.
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	registry.MustRegister(metrics.NewCollector(calls, recordings, time.Now()))

	// HTTP server using the api package.
	handler := api.NewServer(cfg, calls, recordings, blobs, provider, m, registry)
	defer handler.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slog.Error("http server error", "error", err)
	}

	// Graceful shutdown with timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("answerphone stopped")
}
