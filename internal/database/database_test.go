package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	// Verify database file was created.
	dbPath := filepath.Join(dir, "answerphone.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	// Verify WAL mode is active.
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("querying journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	// Verify all tables exist.
	tables := []string{"schema_migrations", "calls", "recordings"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Errorf("checking table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s not found", table)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	// Open twice to verify migrations don't fail on re-run.
	db1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	db1.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	db2.Close()
}

func TestCallRepository(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := NewCallRepository(db)

	// No matches returns an empty slice, not an error.
	calls, err := repo.FindByConversationUUID(ctx, "missing")
	if err != nil {
		t.Fatalf("FindByConversationUUID() error: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("got %d calls, want 0", len(calls))
	}

	payload := json.RawMessage(`{"conversation_uuid":"conv-1","status":"answered","from":"61400000000"}`)
	if err := repo.Insert(ctx, "conv-1", payload); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	calls, err = repo.FindByConversationUUID(ctx, "conv-1")
	if err != nil {
		t.Fatalf("FindByConversationUUID() error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].ConversationUUID != "conv-1" {
		t.Errorf("ConversationUUID = %q, want conv-1", calls[0].ConversationUUID)
	}
	// The payload round-trips byte for byte.
	if string(calls[0].Payload) != string(payload) {
		t.Errorf("Payload = %s, want %s", calls[0].Payload, payload)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestCallRepositoryDuplicatesPreserveInsertionOrder(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := NewCallRepository(db)

	// Duplicate events for the same conversation append rows; no
	// uniqueness is enforced.
	first := json.RawMessage(`{"conversation_uuid":"conv-dup","seq":1}`)
	second := json.RawMessage(`{"conversation_uuid":"conv-dup","seq":2}`)
	if err := repo.Insert(ctx, "conv-dup", first); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := repo.Insert(ctx, "conv-dup", second); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	calls, err := repo.FindByConversationUUID(ctx, "conv-dup")
	if err != nil {
		t.Fatalf("FindByConversationUUID() error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if string(calls[0].Payload) != string(first) {
		t.Errorf("first row = %s, want the earliest insert", calls[0].Payload)
	}
	if string(calls[1].Payload) != string(second) {
		t.Errorf("second row = %s, want the later insert", calls[1].Payload)
	}
}

func TestRecordingRepository(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := NewRecordingRepository(db)

	// Empty store lists nothing.
	recordings, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(recordings) != 0 {
		t.Errorf("got %d recordings, want 0", len(recordings))
	}

	payloads := []json.RawMessage{
		json.RawMessage(`{"recording_uuid":"rec-1","conversation_uuid":"conv-1"}`),
		json.RawMessage(`{"recording_uuid":"rec-2","conversation_uuid":"conv-2"}`),
		json.RawMessage(`{"recording_uuid":"rec-3","conversation_uuid":"conv-1"}`),
	}
	uuids := [][2]string{{"rec-1", "conv-1"}, {"rec-2", "conv-2"}, {"rec-3", "conv-1"}}
	for i, p := range payloads {
		if err := repo.Insert(ctx, uuids[i][0], uuids[i][1], p); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	recordings, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(recordings) != 3 {
		t.Fatalf("got %d recordings, want 3", len(recordings))
	}

	// Insertion order is preserved.
	for i, rec := range recordings {
		if rec.RecordingUUID != uuids[i][0] {
			t.Errorf("recording %d: RecordingUUID = %q, want %q", i, rec.RecordingUUID, uuids[i][0])
		}
		if rec.ConversationUUID != uuids[i][1] {
			t.Errorf("recording %d: ConversationUUID = %q, want %q", i, rec.ConversationUUID, uuids[i][1])
		}
		if string(rec.Payload) != string(payloads[i]) {
			t.Errorf("recording %d: Payload = %s, want %s", i, rec.Payload, payloads[i])
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}
