// Package api is feedline's HTTP surface.
//
// Routes:
//
//	GET    /healthz             liveness and current seq
//	GET    /api/timelines       every materialized timeline with its counts
//	GET    /api/timelines/:key  full state of one timeline
//	POST   /api/events          dispatch one {kind, payload} envelope
//	GET    /api/events/:id      one journaled event
//	POST   /api/statuses        upsert a status into the ledger
//	DELETE /api/statuses/:id    delete a status and cascade it out of timelines
//	GET    /api/stream          websocket feed of dispatched changes
//	GET    /metrics             Prometheus exposition
//
// Reads go straight to the engine's registry. Writes are dispatched
// synchronously, so a 200 response means the event was journaled and
// reduced.
package api
