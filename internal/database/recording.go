package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/answerphone/answerphone/internal/database/models"
)

// recordingRepo implements RecordingRepository.
type recordingRepo struct {
	db *DB
}

// NewRecordingRepository creates a new RecordingRepository.
func NewRecordingRepository(db *DB) RecordingRepository {
	return &recordingRepo{db: db}
}

// Insert appends a recording metadata row. The payload is stored verbatim.
func (r *recordingRepo) Insert(ctx context.Context, recordingUUID, conversationUUID string, payload json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recordings (recording_uuid, conversation_uuid, payload) VALUES (?, ?, ?)`,
		recordingUUID, conversationUUID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("inserting recording: %w", err)
	}
	return nil
}

// List returns all recording rows in insertion order.
func (r *recordingRepo) List(ctx context.Context) ([]models.Recording, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recording_uuid, conversation_uuid, payload, created_at
		 FROM recordings ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	defer rows.Close()

	recordings := []models.Recording{}
	for rows.Next() {
		var rec models.Recording
		var payload string
		if err := rows.Scan(&rec.ID, &rec.RecordingUUID, &rec.ConversationUUID, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recording row: %w", err)
		}
		rec.Payload = json.RawMessage(payload)
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recording rows: %w", err)
	}

	return recordings, nil
}

// Count returns the total number of stored recording rows.
func (r *recordingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recordings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recordings: %w", err)
	}
	return count, nil
}
