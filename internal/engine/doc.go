// Package engine owns the timeline registry and is the only writer to it.
//
// ARCHITECTURE:
//
// Single-Writer Dispatch:
// Every event goes through Dispatch, which serializes writers. This ensures:
// - Transitions apply in dispatch order
// - The journal order matches the reduction order
// - Replay reproduces the registry exactly
//
// Event Processing Flow:
// 1. Event validated (missing fields are rejected with INVALID_EVENT)
// 2. Stamped with seq from Clock.Next()
// 3. Journaled to SQLite, when a store is attached (journal-then-reduce)
// 4. Reduced into the registry by timeline.Apply
// 5. Metrics updated, subscribers notified
//
// Producers that should not block (realtime transports, stdin readers) use
// Enqueue; the Run loop drains the queue through the same Dispatch path and
// logs failures instead of retrying them.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// All events stamped with monotonic seq counter from Clock.Next().
// NEVER use wall-clock timestamps for ordering.
//
// Derived State:
// The registry can always be rebuilt from the journal; see Rebuild.
package engine
