package store

import (
	"context"
	"fmt"

	"github.com/roach88/feedline/internal/ir"
)

// ReadEvents returns every event with seq > afterSeq.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no events match.
func (s *Store) ReadEvents(ctx context.Context, afterSeq int64) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, payload, engine_version
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		rec, err := scanEventRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return records, nil
}

// ReadEvent retrieves a single event by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEvent(ctx context.Context, id string) (EventRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, kind, payload, engine_version
		FROM events
		WHERE id = ?
	`, id)

	return scanEventRecord(row)
}

// LastSeq returns the highest journaled seq, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ReadStatus retrieves one status ledger record.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadStatus(ctx context.Context, id ir.StatusID) (ir.Status, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, visibility, group_id, reblog_of, scheduled_at
		FROM statuses
		WHERE id = ?
	`, string(id))

	return scanStatus(row)
}

// ReadStatuses returns every status ledger record ordered by id.
// It satisfies ledger.StatusSource.
func (s *Store) ReadStatuses(ctx context.Context) ([]ir.Status, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, visibility, group_id, reblog_of, scheduled_at
		FROM statuses
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	statuses := []ir.Status{}
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statuses: %w", err)
	}

	return statuses, nil
}
