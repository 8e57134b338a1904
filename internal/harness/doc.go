// Package harness runs conformance scenarios against the timeline engine.
//
// A scenario seeds the status ledger, dispatches a sequence of events and
// engine operations through a real engine journaling to an in-memory
// store, and asserts on the resulting timelines. Every run also rebuilds
// the registry from the journal and fails if the replayed fingerprint
// differs from the live one.
//
// # Scenario Format
//
//	name: filter_exclusion
//	description: "Block purges an account everywhere but its profile"
//	principles: [filter_exclusion]
//	limits: { max_queued_items: 40, truncate_ceiling: 40, truncate_floor: 20 }
//	ledger:
//	  - { id: "10", account_id: alice, visibility: public }
//	steps:
//	  - kind: TIMELINE_UPDATE
//	    payload: { timeline: home, status_id: "10" }
//	  - kind: TIMELINE_UPDATE_QUEUE
//	    payload: { timeline: public, status_id: "{i}" }
//	    repeat: 3
//	  - op: block
//	    account_id: alice
//	assertions:
//	  - type: items
//	    timeline: home
//	    ids: []
//	  - type: queue_size
//	    timeline: public
//	    count: 3
//
// Raw steps (kind + payload) go through the same strict codec as the
// journal. Operation steps call the engine's convenience methods:
// delete_status, block, mute, unfollow, submit, confirm, and put_status,
// which only writes the ledger. Submitted posts get the keys key-1,
// key-2, ... in order.
//
// # Assertion Types
//
//   - items, queue: exact id sequence, newest first
//   - contains: ids present in items (or the queue with in: queue)
//   - absent: ids neither listed nor queued
//   - items_size, queue_size, total_queued, unread: numeric fields
//   - flag: a boolean field (top, online, is_loading, has_more,
//     loading_failed, is_partial)
//   - trace_count: how many events of a kind were dispatched
//
// # Golden Files
//
// Snapshot renders the trace and final timelines as canonical JSON. Tests
// compare it with goldie; the CLI compares it byte for byte.
package harness
