package database

import (
	"context"
	"encoding/json"

	"github.com/answerphone/answerphone/internal/database/models"
)

// CallRepository manages stored provider call events. Rows are append-only:
// duplicate conversation UUIDs are allowed and preserved in insertion order.
type CallRepository interface {
	Insert(ctx context.Context, conversationUUID string, payload json.RawMessage) error
	FindByConversationUUID(ctx context.Context, conversationUUID string) ([]models.Call, error)
	Count(ctx context.Context) (int64, error)
}

// RecordingRepository manages stored recording metadata. Rows are
// append-only, one per recording-ready webhook delivery.
type RecordingRepository interface {
	Insert(ctx context.Context, recordingUUID, conversationUUID string, payload json.RawMessage) error
	List(ctx context.Context) ([]models.Recording, error)
	Count(ctx context.Context) (int64, error)
}
