// Package listing composes stored recordings with their originating call
// events for display. The store has no relational engine, so the join is
// an explicit per-recording lookup by conversation UUID.
package listing

import (
	"context"
	"fmt"

	"github.com/answerphone/answerphone/internal/database/models"
)

// CallFinder looks up call events by conversation UUID. Satisfied by
// database.CallRepository.
type CallFinder interface {
	FindByConversationUUID(ctx context.Context, conversationUUID string) ([]models.Call, error)
}

// Entry pairs a recording with its related call. Call is nil when no call
// event was stored for the recording's conversation.
type Entry struct {
	Recording models.Recording
	Call      *models.Call
}

// HasCall reports whether a related call was found. Convenience for
// templates.
func (e Entry) HasCall() bool {
	return e.Call != nil
}

// Build pairs each recording with the first stored call sharing its
// conversation UUID, preserving the recordings' order. Duplicate call
// rows for one conversation can exist; the earliest inserted row wins.
// Cost is one lookup per recording, which is fine at answering-machine
// scale.
func Build(ctx context.Context, recordings []models.Recording, calls CallFinder) ([]Entry, error) {
	entries := make([]Entry, 0, len(recordings))
	for _, rec := range recordings {
		entry := Entry{Recording: rec}

		matches, err := calls.FindByConversationUUID(ctx, rec.ConversationUUID)
		if err != nil {
			return nil, fmt.Errorf("looking up call for recording %s: %w", rec.RecordingUUID, err)
		}
		if len(matches) > 0 {
			call := matches[0]
			entry.Call = &call
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
