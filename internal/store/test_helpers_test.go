package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/feedline/internal/event"
)

// setupTestStore opens a fresh store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustRecord builds an event record or fails the test.
func mustRecord(t *testing.T, seq int64, ev event.Event) EventRecord {
	t.Helper()
	rec, err := NewEventRecord(seq, ev)
	if err != nil {
		t.Fatalf("NewEventRecord(%d) failed: %v", seq, err)
	}
	return rec
}
