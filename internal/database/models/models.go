package models

import (
	"encoding/json"
	"time"
)

// Call is a stored provider call event. Payload is the verbatim JSON body
// of the "answered" event webhook; only the conversation UUID is extracted
// into its own column for lookups.
type Call struct {
	ID               int64
	ConversationUUID string
	Payload          json.RawMessage
	CreatedAt        time.Time
}

// Fields decodes the stored payload into a generic map for display.
// Returns an empty map if the payload cannot be decoded.
func (c Call) Fields() map[string]any {
	return decodeFields(c.Payload)
}

// Recording is a stored recording-ready event. Payload is the verbatim
// JSON body of the recording webhook; the recording UUID doubles as the
// audio blob key and the conversation UUID links back to the call.
type Recording struct {
	ID               int64
	RecordingUUID    string
	ConversationUUID string
	Payload          json.RawMessage
	CreatedAt        time.Time
}

// Fields decodes the stored payload into a generic map for display.
// Returns an empty map if the payload cannot be decoded.
func (r Recording) Fields() map[string]any {
	return decodeFields(r.Payload)
}

func decodeFields(raw json.RawMessage) map[string]any {
	fields := map[string]any{}
	if len(raw) > 0 {
		json.Unmarshal(raw, &fields) //nolint:errcheck
	}
	return fields
}
