package timeline

import (
	"strings"

	"github.com/roach88/feedline/internal/ir"
)

// PendingPrefix marks ids of posts the server has not confirmed yet.
// The leading character keeps it clear of numeric server ids.
const PendingPrefix = "末pending-"

// PendingID returns the placeholder id for an idempotency key.
func PendingID(idempotencyKey string) ir.StatusID {
	return ir.StatusID(PendingPrefix + idempotencyKey)
}

// IsPending reports whether id is a placeholder.
func IsPending(id ir.StatusID) bool {
	return strings.HasPrefix(string(id), PendingPrefix)
}

// EnqueuePending queues a placeholder in every timeline the submitted post
// targets and returns the number of queued ids evicted to make room.
func EnqueuePending(r *Registry, params ir.StatusParams, idempotencyKey string) int {
	id := PendingID(idempotencyKey)
	evicted := 0
	for _, key := range TimelinesForParams(params) {
		r.update(key, func(s State) State {
			s, n := s.Enqueue(id, r.limits)
			evicted += n
			return s
		})
	}
	return evicted
}

// ReplacePending swaps the placeholder for realID wherever it still sits,
// keeping its position. It returns the number of timelines that held it.
// A placeholder that was already evicted is silently ignored.
func ReplacePending(r *Registry, idempotencyKey string, realID ir.StatusID) int {
	pending := PendingID(idempotencyKey)
	replaced := 0
	for _, key := range r.Keys() {
		r.updateExisting(key, func(s State) State {
			s, ok := s.ReplaceID(pending, realID)
			if ok {
				replaced++
			}
			return s
		})
	}
	return replaced
}

// ImportCreated inserts a confirmed status into the timelines it targets.
func ImportCreated(r *Registry, status ir.Status) {
	for _, key := range TimelinesForStatus(status) {
		r.update(key, func(s State) State {
			return s.InsertOne(status.ID, r.limits)
		})
	}
}
