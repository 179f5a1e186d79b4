// Package blobstore provides filesystem-backed storage for recording audio,
// keyed by the provider's recording UUID. Files are written once per key as
// <uuid>.mp3 under the store directory.
package blobstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no blob exists for the key.
var ErrNotFound = errors.New("blobstore: recording not found")

// ErrInvalidKey is returned when a key is not a UUID. Keys come from
// provider webhooks, so anything that doesn't parse as a UUID is rejected
// before it can reach the filesystem.
var ErrInvalidKey = errors.New("blobstore: invalid recording key")

// Store persists recording audio files under a single directory.
type Store struct {
	dir string
}

// New creates the store directory if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Put writes the audio bytes for the given recording UUID, replacing any
// existing file for that key.
func (s *Store) Put(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	slog.Debug("blob written", "key", key, "bytes", len(data))
	return nil
}

// Get returns the audio bytes for the given recording UUID, or ErrNotFound
// if no blob exists for the key.
func (s *Store) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return data, nil
}

// path validates the key and resolves it to a file path inside the store
// directory.
func (s *Store) path(key string) (string, error) {
	if _, err := uuid.Parse(key); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".mp3"), nil
}
