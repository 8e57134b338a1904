package timeline

import (
	"maps"
	"slices"

	"github.com/roach88/feedline/internal/ir"
)

// Registry is the keyed store of timeline states.
//
// Keys are never declared up front: the first transition that addresses a
// key materializes its default state. A Registry is not safe for concurrent
// use; the engine serializes access.
type Registry struct {
	limits  Limits
	states  map[ir.TimelineKey]State
	touched map[ir.TimelineKey]struct{}
}

// NewRegistry returns an empty registry enforcing limits.
func NewRegistry(limits Limits) *Registry {
	return &Registry{
		limits: limits,
		states: make(map[ir.TimelineKey]State),
	}
}

// Limits returns the limits the registry enforces.
func (r *Registry) Limits() Limits {
	return r.limits
}

// Get returns the state of key, or the default state if the key has never
// been addressed. It does not materialize the key.
func (r *Registry) Get(key ir.TimelineKey) State {
	if s, ok := r.states[key]; ok {
		return s
	}
	return NewState()
}

// Lookup returns the state of key and whether it exists.
func (r *Registry) Lookup(key ir.TimelineKey) (State, bool) {
	s, ok := r.states[key]
	return s, ok
}

// Keys returns every materialized key in sorted order.
func (r *Registry) Keys() []ir.TimelineKey {
	return sortedKeys(r.states)
}

// Len returns the number of materialized timelines.
func (r *Registry) Len() int {
	return len(r.states)
}

// Reset drops every timeline.
func (r *Registry) Reset() {
	clear(r.states)
	r.touched = nil
}

// Snapshot returns a copy of every timeline state.
func (r *Registry) Snapshot() map[ir.TimelineKey]State {
	return maps.Clone(r.states)
}

// Clone returns an independent registry with the same states.
// States share their immutable sets.
func (r *Registry) Clone() *Registry {
	return &Registry{
		limits: r.limits,
		states: maps.Clone(r.states),
	}
}

// Fingerprint hashes the canonical encoding of every timeline.
// Registries holding the same states in the same order share a fingerprint.
func (r *Registry) Fingerprint() (string, error) {
	return ir.Fingerprint(r.states)
}

// update applies fn to the state of key, materializing it if needed.
func (r *Registry) update(key ir.TimelineKey, fn func(State) State) {
	prev, existed := r.states[key]
	if !existed {
		prev = NewState()
	}
	next := fn(prev)
	r.states[key] = next
	if !existed || !next.Equal(prev) {
		r.touch(key)
	}
}

// updateExisting applies fn only to keys that are already materialized.
func (r *Registry) updateExisting(key ir.TimelineKey, fn func(State) State) {
	if _, ok := r.states[key]; !ok {
		return
	}
	r.update(key, fn)
}

func (r *Registry) touch(key ir.TimelineKey) {
	if r.touched != nil {
		r.touched[key] = struct{}{}
	}
}

// begin starts tracking which keys a transition changes.
func (r *Registry) begin() {
	r.touched = make(map[ir.TimelineKey]struct{})
}

// end returns the keys changed since begin, sorted.
func (r *Registry) end() []ir.TimelineKey {
	keys := sortedKeys(r.touched)
	r.touched = nil
	return keys
}

func sortedKeys[V any](m map[ir.TimelineKey]V) []ir.TimelineKey {
	keys := make([]ir.TimelineKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
