// Package ledger is the boundary to the status ledger, the store of
// normalized status records the timeline engine reads but never writes.
//
// The engine needs only an author, a visibility and a repost target per
// status. Reader exposes exactly that; Memory is the in-process
// implementation fed by the API, the CLI and the SQLite store.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/feedline/internal/ir"
)

// Reader is the read side of the status ledger.
type Reader interface {
	// Get returns the status with the given id.
	Get(id ir.StatusID) (ir.Status, bool)

	// Snapshot returns every known status, ordered by id.
	Snapshot() []ir.Status
}

// StatusSource loads persisted statuses.
type StatusSource interface {
	ReadStatuses(ctx context.Context) ([]ir.Status, error)
}

// Memory is a thread-safe in-memory ledger.
type Memory struct {
	mu       sync.RWMutex
	statuses map[ir.StatusID]ir.Status
}

// NewMemory returns a ledger holding statuses.
func NewMemory(statuses ...ir.Status) *Memory {
	m := &Memory{statuses: make(map[ir.StatusID]ir.Status, len(statuses))}
	for _, s := range statuses {
		m.statuses[s.ID] = s
	}
	return m
}

// LoadMemory builds a ledger from src.
func LoadMemory(ctx context.Context, src StatusSource) (*Memory, error) {
	statuses, err := src.ReadStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return NewMemory(statuses...), nil
}

// Get implements Reader.
func (m *Memory) Get(id ir.StatusID) (ir.Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[id]
	return s, ok
}

// Snapshot implements Reader.
func (m *Memory) Snapshot() []ir.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ir.Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b ir.Status) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Put inserts or replaces a status.
func (m *Memory) Put(s ir.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[s.ID] = s
}

// Remove forgets a status. Unknown ids are ignored.
func (m *Memory) Remove(id ir.StatusID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, id)
}

// Len returns the number of known statuses.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}

// ReferencesTo returns the known statuses that repost id.
func ReferencesTo(r Reader, id ir.StatusID) []ir.RepostReference {
	var refs []ir.RepostReference
	for _, s := range r.Snapshot() {
		if s.ReblogOf == id {
			refs = append(refs, ir.RepostReference{StatusID: s.ID, AccountID: s.AccountID})
		}
	}
	return refs
}

// AuthoredBy returns the known statuses written by accountID.
func AuthoredBy(r Reader, accountID string) []ir.Status {
	var out []ir.Status
	for _, s := range r.Snapshot() {
		if s.AccountID == accountID {
			out = append(out, s)
		}
	}
	return out
}
