package store

import (
	"context"
	"fmt"

	"github.com/roach88/feedline/internal/event"
)

// JournalStats summarizes the journal.
type JournalStats struct {
	Events  int64              `json:"events"`
	LastSeq int64              `json:"last_seq"`
	Kinds   map[event.Kind]int `json:"kinds"`
}

// Stats counts journaled events per kind.
func (s *Store) Stats(ctx context.Context) (JournalStats, error) {
	stats := JournalStats{Kinds: make(map[event.Kind]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*)
		FROM events
		GROUP BY kind
		ORDER BY kind COLLATE BINARY ASC
	`)
	if err != nil {
		return stats, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return stats, fmt.Errorf("journal stats: %w", err)
		}
		stats.Kinds[event.Kind(kind)] = n
		stats.Events += int64(n)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("journal stats: %w", err)
	}

	stats.LastSeq, err = s.LastSeq(ctx)
	if err != nil {
		return stats, fmt.Errorf("journal stats: %w", err)
	}
	return stats, nil
}

// ReplayEvents decodes every journaled event in order and passes it to fn.
// Each record's id is verified against its content first. Replay stops at
// the first error from decoding, verification or fn.
func (s *Store) ReplayEvents(ctx context.Context, fn func(EventRecord, event.Event) error) error {
	records, err := s.ReadEvents(ctx, 0)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		if err := rec.Verify(); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		ev, err := rec.Event()
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		if err := fn(rec, ev); err != nil {
			return fmt.Errorf("replay seq=%d: %w", rec.Seq, err)
		}
	}
	return nil
}
