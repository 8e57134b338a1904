package store

import (
	"context"
	"fmt"

	"github.com/roach88/feedline/internal/ir"
)

// AppendEvent journals rec.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: re-appending the same
// event reports inserted=false. A different event claiming an existing seq
// is a constraint violation and returns an error.
func (s *Store) AppendEvent(ctx context.Context, rec EventRecord) (inserted bool, err error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (seq, id, kind, payload, engine_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.Seq,
		rec.ID,
		string(rec.Kind),
		rec.Payload,
		rec.EngineVersion,
	)
	if err != nil {
		return false, fmt.Errorf("append event seq=%d: %w", rec.Seq, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append event seq=%d: %w", rec.Seq, err)
	}
	return n > 0, nil
}

// WriteStatus inserts or replaces a status ledger record.
func (s *Store) WriteStatus(ctx context.Context, st ir.Status) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statuses (id, account_id, visibility, group_id, reblog_of, scheduled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id   = excluded.account_id,
			visibility   = excluded.visibility,
			group_id     = excluded.group_id,
			reblog_of    = excluded.reblog_of,
			scheduled_at = excluded.scheduled_at
	`,
		string(st.ID),
		st.AccountID,
		string(st.Visibility),
		st.GroupID,
		string(st.ReblogOf),
		st.ScheduledAt,
	)
	if err != nil {
		return fmt.Errorf("write status %s: %w", st.ID, err)
	}
	return nil
}

// RemoveStatus deletes a status ledger record. Unknown ids are ignored.
func (s *Store) RemoveStatus(ctx context.Context, id ir.StatusID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM statuses WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("remove status %s: %w", id, err)
	}
	return nil
}
