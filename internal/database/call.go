package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/answerphone/answerphone/internal/database/models"
)

// callRepo implements CallRepository.
type callRepo struct {
	db *DB
}

// NewCallRepository creates a new CallRepository.
func NewCallRepository(db *DB) CallRepository {
	return &callRepo{db: db}
}

// Insert appends a call event row. The payload is stored verbatim.
func (r *callRepo) Insert(ctx context.Context, conversationUUID string, payload json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calls (conversation_uuid, payload) VALUES (?, ?)`,
		conversationUUID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("inserting call: %w", err)
	}
	return nil
}

// FindByConversationUUID returns all call rows with the given conversation
// UUID in insertion order. An empty slice, not an error, is returned when
// nothing matches.
func (r *callRepo) FindByConversationUUID(ctx context.Context, conversationUUID string) ([]models.Call, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_uuid, payload, created_at
		 FROM calls WHERE conversation_uuid = ? ORDER BY id`,
		conversationUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	calls := []models.Call{}
	for rows.Next() {
		var c models.Call
		var payload string
		if err := rows.Scan(&c.ID, &c.ConversationUUID, &payload, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning call row: %w", err)
		}
		c.Payload = json.RawMessage(payload)
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating call rows: %w", err)
	}

	return calls, nil
}

// Count returns the total number of stored call rows.
func (r *callRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting calls: %w", err)
	}
	return count, nil
}
