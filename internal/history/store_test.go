//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package history

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID == 0 || sess.UserID != "user-1" {
		t.Errorf("unexpected session: %+v", sess)
	}

	citations := json.RawMessage(`[{"id":"doc_chunk_0","score":0.9}]`)
	if _, err := store.AddMessage(ctx, sess.ID, RoleUser, "What is RAG?", nil); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if _, err := store.AddMessage(ctx, sess.ID, RoleAssistant, "RAG is ...", citations); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	got, messages, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("session id = %d, want %d", got.ID, sess.ID)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != RoleUser || messages[1].Role != RoleAssistant {
		t.Errorf("unexpected roles: %q, %q", messages[0].Role, messages[1].Role)
	}
	if len(messages[0].Citations) != 0 {
		t.Errorf("user message should have no citations: %s", messages[0].Citations)
	}
	if string(messages[1].Citations) != string(citations) {
		t.Errorf("citations = %s, want %s", messages[1].Citations, citations)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, _, err := store.GetSession(context.Background(), 9999); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessions_NewestFirstPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	second, err := store.CreateSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.CreateSession(ctx, "user-2"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sessions, err := store.ListSessions(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Errorf("sessions not newest first: %+v", sessions)
	}
}

func TestAuditLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Audit(ctx, "user-1", "login", nil); err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	details := json.RawMessage(`{"question":"What is RAG?"}`)
	if err := store.Audit(ctx, "user-1", "ask", details); err != nil {
		t.Fatalf("Audit failed: %v", err)
	}

	entries, err := store.ListAudit(ctx, 10)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "ask" || entries[1].Action != "login" {
		t.Errorf("entries not newest first: %+v", entries)
	}
	if string(entries[0].Details) != string(details) {
		t.Errorf("details = %s, want %s", entries[0].Details, details)
	}
}
