package harness

import (
	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/timeline"
)

// TraceEvent records one dispatched event and what it changed.
// Event ids are omitted; seq and kind identify the event.
type TraceEvent struct {
	Step      int              `json:"step"`
	Seq       int64            `json:"seq"`
	Kind      event.Kind       `json:"kind"`
	Timelines []ir.TimelineKey `json:"timelines"`
	Evicted   int              `json:"evicted,omitempty"`
	Removed   int              `json:"removed,omitempty"`
	Replaced  int              `json:"replaced,omitempty"`
	Skipped   bool             `json:"skipped,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step behaved as expected and all assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every dispatched event in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state of every materialized timeline.
	State map[ir.TimelineKey]timeline.State `json:"state"`

	// Fingerprint hashes State. A journal replay must reproduce it.
	Fingerprint string `json:"fingerprint"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[ir.TimelineKey]timeline.State),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a dispatched change to the trace.
func (r *Result) AddTrace(step int, c engine.Change) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:      step,
		Seq:       c.Seq,
		Kind:      c.Kind,
		Timelines: c.Timelines,
		Evicted:   c.Evicted,
		Removed:   c.Removed,
		Replaced:  c.Replaced,
		Skipped:   c.Skipped,
	})
}

// Timeline returns the final state of key, or the default state if no
// event ever addressed it.
func (r *Result) Timeline(key ir.TimelineKey) timeline.State {
	if s, ok := r.State[key]; ok {
		return s
	}
	return timeline.NewState()
}
