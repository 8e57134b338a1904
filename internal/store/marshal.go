package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
)

// EventRecord is one journaled event.
type EventRecord struct {
	Seq           int64      `json:"seq"`
	ID            string     `json:"id"`
	Kind          event.Kind `json:"kind"`
	Payload       string     `json:"payload"`
	EngineVersion string     `json:"engine_version"`
}

// NewEventRecord stamps ev with seq and its content-addressed id.
// The payload is stored as canonical JSON so the id can be recomputed.
func NewEventRecord(seq int64, ev event.Event) (EventRecord, error) {
	kind, payload, err := event.Encode(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("new event record: %w", err)
	}
	id, err := ir.EventID(string(kind), payload, seq)
	if err != nil {
		return EventRecord{}, fmt.Errorf("new event record: %w", err)
	}
	return EventRecord{
		Seq:           seq,
		ID:            id,
		Kind:          kind,
		Payload:       string(payload),
		EngineVersion: ir.EngineVersion,
	}, nil
}

// Event decodes the journaled payload.
func (r EventRecord) Event() (event.Event, error) {
	ev, err := event.Decode(r.Kind, []byte(r.Payload))
	if err != nil {
		return nil, fmt.Errorf("event seq=%d: %w", r.Seq, err)
	}
	return ev, nil
}

// Verify recomputes the record's id and reports a mismatch.
func (r EventRecord) Verify() error {
	id, err := ir.EventID(string(r.Kind), []byte(r.Payload), r.Seq)
	if err != nil {
		return fmt.Errorf("verify event seq=%d: %w", r.Seq, err)
	}
	if id != r.ID {
		return fmt.Errorf("verify event seq=%d: id %s does not match content (%s)", r.Seq, r.ID, id)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEventRecord(row scanner) (EventRecord, error) {
	var rec EventRecord
	var kind string
	if err := row.Scan(&rec.Seq, &rec.ID, &kind, &rec.Payload, &rec.EngineVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EventRecord{}, err
		}
		return EventRecord{}, fmt.Errorf("scan event: %w", err)
	}
	rec.Kind = event.Kind(kind)
	return rec, nil
}

func scanStatus(row scanner) (ir.Status, error) {
	var st ir.Status
	var id, visibility, reblogOf string
	if err := row.Scan(&id, &st.AccountID, &visibility, &st.GroupID, &reblogOf, &st.ScheduledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Status{}, err
		}
		return ir.Status{}, fmt.Errorf("scan status: %w", err)
	}
	st.ID = ir.StatusID(id)
	st.Visibility = ir.Visibility(visibility)
	st.ReblogOf = ir.StatusID(reblogOf)
	return st, nil
}
