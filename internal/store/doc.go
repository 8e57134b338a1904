// Package store provides SQLite-backed durable storage for feedline.
//
// The store holds two tables:
//   - events: the append-only journal of every dispatched event
//   - statuses: the status ledger records deletes and filters resolve against
//
// # Ordering
//
// Events are ordered by seq, the engine's logical clock, never by wall time.
// Every journal query uses ORDER BY seq ASC, id ASC COLLATE BINARY so a
// replay sees the same sequence every time.
//
// # Idempotency
//
// Event ids are content-addressed (see ir.EventID). Appending an event whose
// id is already journaled is a silent no-op.
//
// # Connection
//
// The journal runs on one WAL-mode connection with synchronous=NORMAL and a
// five second busy timeout (see journalPragmas). Schema upgrades are tracked
// in user_version.
package store
