package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/ledger"
	"github.com/roach88/feedline/internal/metrics"
	"github.com/roach88/feedline/internal/store"
	"github.com/roach88/feedline/internal/timeline"
)

// Change describes one dispatched event and its effect on the registry.
type Change struct {
	Seq       int64            `json:"seq"`
	ID        string           `json:"id"`
	Kind      event.Kind       `json:"kind"`
	Timelines []ir.TimelineKey `json:"timelines"`
	Evicted   int              `json:"evicted,omitempty"`
	Removed   int              `json:"removed,omitempty"`
	Replaced  int              `json:"replaced,omitempty"`
	Skipped   bool             `json:"skipped,omitempty"`
}

// Engine is the single-writer owner of the timeline registry.
//
// Every event is validated, stamped with a seq from the logical clock,
// journaled (when a store is attached) and only then reduced. Dispatch calls
// are serialized, so transitions apply in dispatch order; reads take a
// shared lock and may run from any goroutine.
//
// Thread-safety model:
//   - Dispatch(): safe from any goroutine, serialized internally
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - read methods: safe from any goroutine
type Engine struct {
	dispatchMu sync.Mutex
	mu         sync.RWMutex
	registry   *timeline.Registry

	store   *store.Store
	ledger  ledger.Reader
	clock   *Clock
	queue   *eventQueue
	keys    KeyGenerator
	metrics *metrics.Collectors

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore journals every event to s before it is reduced.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLedger sets the status ledger used to resolve deletes and filters.
func WithLedger(l ledger.Reader) Option {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithMetrics records dispatch metrics on c.
func WithMetrics(c *metrics.Collectors) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithKeyGenerator sets the idempotency key source for SubmitStatus.
// Default: UUIDv7Generator.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(e *Engine) {
		e.keys = g
	}
}

// WithClock starts the engine at a given clock position.
// Used for replay to resume from the journal's last seq.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine with an empty registry enforcing limits.
// Without WithLedger, the engine starts with an empty in-memory ledger.
func New(limits timeline.Limits, opts ...Option) *Engine {
	e := newEngine(limits, opts...)
	if e.ledger == nil {
		e.ledger = ledger.NewMemory()
	}
	return e
}

func newEngine(limits timeline.Limits, opts ...Option) *Engine {
	e := &Engine{
		registry: timeline.NewRegistry(limits),
		clock:    NewClock(),
		queue:    newEventQueue(),
		keys:     UUIDv7Generator{},
		subs:     make(map[int]chan Change),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Dispatch validates, journals and reduces ev, then notifies subscribers.
//
// A journal failure leaves the registry untouched and returns a
// JOURNAL_FAILED error; the clock still advances, so seq values may have
// gaps but never repeat.
func (e *Engine) Dispatch(ctx context.Context, ev event.Event) (Change, error) {
	if e.queue.Closed() {
		return Change{}, &DispatchError{Code: ErrCodeEngineStopped}
	}
	return e.dispatch(ctx, ev)
}

func (e *Engine) dispatch(ctx context.Context, ev event.Event) (Change, error) {
	if err := event.Validate(ev); err != nil {
		de := &DispatchError{Code: ErrCodeInvalidEvent, Err: err}
		if ev != nil {
			de.Kind = ev.Kind()
		}
		return Change{}, de
	}

	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	seq := e.clock.Next()
	rec, err := store.NewEventRecord(seq, ev)
	if err != nil {
		return Change{}, &DispatchError{Code: ErrCodeInvalidEvent, Kind: ev.Kind(), Seq: seq, Err: err}
	}
	// The canonical encoding normalizes strings, so the registry reduces the
	// journaled form of ev. Replay then sees byte-identical input.
	journaled, err := rec.Event()
	if err != nil {
		return Change{}, &DispatchError{Code: ErrCodeInvalidEvent, Kind: ev.Kind(), Seq: seq, Err: err}
	}

	if e.store != nil {
		inserted, err := e.store.AppendEvent(ctx, rec)
		if err != nil {
			if e.metrics != nil {
				e.metrics.ObserveJournalError()
			}
			return Change{}, &DispatchError{Code: ErrCodeJournalFailed, Kind: rec.Kind, Seq: seq, Err: err}
		}
		if !inserted {
			slog.Warn("event already journaled", "kind", rec.Kind, "seq", seq, "id", rec.ID)
		}
	}

	e.mu.Lock()
	out := timeline.Apply(e.registry, journaled)
	timelines := e.registry.Len()
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ObserveDispatch(string(rec.Kind), out.Evicted, out.Removed, timelines)
	}

	change := Change{
		Seq:       seq,
		ID:        rec.ID,
		Kind:      rec.Kind,
		Timelines: out.Timelines,
		Evicted:   out.Evicted,
		Removed:   out.Removed,
		Replaced:  out.Replaced,
		Skipped:   out.Skipped,
	}
	e.notify(change)

	slog.Debug("event dispatched",
		"kind", rec.Kind,
		"seq", seq,
		"timelines", len(out.Timelines),
		"skipped", out.Skipped,
	)

	return change, nil
}

// Enqueue submits an event for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev event.Event) bool {
	return e.queue.Enqueue(ev)
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called; events already
// queued when Stop is called are still processed.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: On dispatch failure, the error is logged with the event
// and processing continues. Retrying would reorder events relative to
// their seq, so a failed event is left for manual replay.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			if _, err := e.dispatch(ctx, ev); err != nil {
				logEventError(ev, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which makes this case fire immediately.
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the event queue. Run returns once the queue is drained and
// further Dispatch calls fail with ENGINE_STOPPED.
func (e *Engine) Stop() {
	e.queue.Close()
}

// QueueLen returns the number of events waiting for the Run loop.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Limits returns the registry limits.
func (e *Engine) Limits() timeline.Limits {
	return e.registry.Limits()
}

// Ledger returns the status ledger the engine reads.
func (e *Engine) Ledger() ledger.Reader {
	return e.ledger
}

// Timeline returns the state of key and whether it has been materialized.
func (e *Engine) Timeline(key ir.TimelineKey) (timeline.State, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Lookup(key)
}

// Keys returns every materialized timeline key, sorted.
func (e *Engine) Keys() []ir.TimelineKey {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Keys()
}

// Snapshot returns a copy of every timeline state.
func (e *Engine) Snapshot() map[ir.TimelineKey]timeline.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Snapshot()
}

// Fingerprint hashes the current registry.
func (e *Engine) Fingerprint() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Fingerprint()
}

// Subscribe returns a channel receiving every subsequent Change and a
// function that cancels the subscription. Slow subscribers miss changes
// rather than block dispatch.
func (e *Engine) Subscribe(buffer int) (<-chan Change, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan Change, buffer)
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			delete(e.subs, id)
			close(ch)
		})
	}
}

func (e *Engine) notify(c Change) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, ch := range e.subs {
		select {
		case ch <- c:
		default:
			slog.Warn("subscriber lagging, change dropped", "subscriber", id, "seq", c.Seq)
		}
	}
}

// logEventError logs a dispatch failure with the event's kind and payload.
func logEventError(ev event.Event, err error) {
	kind, payload, encErr := event.Encode(ev)
	if encErr != nil {
		slog.Error("event processing failed", "error", err, "encode_error", encErr)
		return
	}
	slog.Error("event processing failed",
		"error", err,
		"kind", kind,
		"payload", string(payload),
	)
}
