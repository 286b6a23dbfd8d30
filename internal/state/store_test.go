package state

import (
	"testing"

	"github.com/sketchwink/sketchwink/internal/database"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, "test-passphrase")
}

func TestActiveProfileIDEmptyByDefault(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.ActiveProfileID()
	if err != nil {
		t.Fatalf("active profile id: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestSetAndGetActiveProfileID(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SetActiveProfileID("prof_abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	id, err := s.ActiveProfileID()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if id != "prof_abc" {
		t.Errorf("id = %q, want prof_abc", id)
	}

	// Overwrite keeps a single row.
	if err := s.SetActiveProfileID("prof_def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	id, _ = s.ActiveProfileID()
	if id != "prof_def" {
		t.Errorf("id = %q, want prof_def", id)
	}
}

func TestClearActiveProfileID(t *testing.T) {
	s := setupTestStore(t)

	s.SetActiveProfileID("prof_abc")
	if err := s.ClearActiveProfileID(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	id, _ := s.ActiveProfileID()
	if id != "" {
		t.Errorf("id = %q, want empty after clear", id)
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	token, err := s.SessionToken()
	if err != nil {
		t.Fatalf("token before save: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}

	if err := s.SaveSessionToken("jwt-token-value"); err != nil {
		t.Fatalf("save: %v", err)
	}
	token, err = s.SessionToken()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if token != "jwt-token-value" {
		t.Errorf("token = %q", token)
	}

	if err := s.DeleteSessionToken(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	token, _ = s.SessionToken()
	if token != "" {
		t.Errorf("token = %q, want empty after delete", token)
	}
}

func TestSessionTokenWrongPassphrase(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := NewStore(db, "first").SaveSessionToken("tok"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := NewStore(db, "second").SessionToken(); err == nil {
		t.Error("expected unseal error with different passphrase")
	}
}
