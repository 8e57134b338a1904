package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/ledger"
	"github.com/roach88/feedline/internal/store"
	"github.com/roach88/feedline/internal/testutil"
)

// Harness is the test execution engine.
// It runs one scenario against a real engine journaling to an in-memory
// store, with sequential idempotency keys.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	ledger *ledger.Memory
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and seed the ledger
// 2. Execute steps, recording every dispatched change
// 3. Capture the final timelines and their fingerprint
// 4. Rebuild the registry from the journal and compare fingerprints
// 5. Evaluate assertions
//
// A returned error means the scenario could not run at all (a step whose
// payload does not decode, or a store failure). Behavioral mismatches are
// reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	limits := scenario.TimelineLimits()

	statuses := make([]ir.Status, len(scenario.Ledger))
	for i, s := range scenario.Ledger {
		statuses[i] = s.Status()
	}
	mem := ledger.NewMemory(statuses...)

	eng := engine.New(limits,
		engine.WithStore(st),
		engine.WithLedger(mem),
		engine.WithKeyGenerator(testutil.NewSequentialKeyGenerator("key")),
	)

	h := &Harness{
		store:  st,
		engine: eng,
		ledger: mem,
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	result.State = eng.Snapshot()
	result.Fingerprint, err = eng.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	rebuilt, _, err := engine.Rebuild(ctx, st, limits)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	replayed, err := rebuilt.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	if replayed != result.Fingerprint {
		result.AddError(fmt.Sprintf("journal replay diverged: live %s, replayed %s", result.Fingerprint, replayed))
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one step, Repeat times.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	times := step.Repeat
	if times == 0 {
		times = 1
	}

	for i := 1; i <= times; i++ {
		if step.Op == OpPutStatus {
			// Ledger writes are not events: nothing is journaled.
			status := step.Status.Status()
			status.ID = ir.StatusID(substitute(string(status.ID), i))
			h.ledger.Put(status)
			continue
		}

		change, err := h.dispatch(ctx, step, i)
		if step.ExpectError != "" {
			h.checkExpectedError(n, step.ExpectError, err, result)
			continue
		}
		if err != nil {
			return err
		}
		if err := h.clock.Expect(change.Seq); err != nil {
			result.AddError(fmt.Sprintf("step %d: %v", n, err))
		}
		result.AddTrace(n, change)

		h.logger.Info("step completed",
			"step", n,
			"repetition", i,
			"kind", change.Kind,
			"seq", change.Seq,
			"timelines", len(change.Timelines),
		)
	}
	return nil
}

// checkExpectedError compares a step's error with the code it expects.
// A payload the codec rejects counts as INVALID_EVENT.
func (h *Harness) checkExpectedError(n int, code string, err error, result *Result) {
	if err == nil {
		// The event was dispatched, so its seq was consumed.
		h.clock.Next()
		result.AddError(fmt.Sprintf("step %d: expected %s, dispatch succeeded", n, code))
		return
	}

	var de *engine.DispatchError
	switch {
	case errors.As(err, &de) && string(de.Code) == code:
	case code == string(engine.ErrCodeInvalidEvent) && event.IsDecodeError(err):
	default:
		result.AddError(fmt.Sprintf("step %d: expected %s, got %v", n, code, err))
	}
}

// dispatch runs repetition i of step through the engine.
func (h *Harness) dispatch(ctx context.Context, step Step, i int) (engine.Change, error) {
	if step.Kind != "" {
		ev, err := decodeStep(step, i)
		if err != nil {
			return engine.Change{}, err
		}
		return h.engine.Dispatch(ctx, ev)
	}

	switch step.Op {
	case OpDeleteStatus:
		return h.engine.DeleteFromTimelines(ctx, ir.StatusID(substitute(step.StatusID, i)))
	case OpBlock:
		return h.engine.ApplyRelationship(ctx, ir.Relationship{ID: step.AccountID, Blocking: true}, event.ActionBlock)
	case OpMute:
		return h.engine.ApplyRelationship(ctx, ir.Relationship{ID: step.AccountID, Muting: true}, event.ActionMute)
	case OpUnfollow:
		return h.engine.ApplyRelationship(ctx, ir.Relationship{ID: step.AccountID}, event.ActionUnfollow)
	case OpSubmit:
		_, change, err := h.engine.SubmitStatus(ctx, step.Params.Params())
		return change, err
	case OpConfirm:
		status := step.Status.Status()
		status.ID = ir.StatusID(substitute(string(status.ID), i))
		return h.engine.ConfirmStatus(ctx, status, step.Key, step.Editing)
	default:
		return engine.Change{}, fmt.Errorf("unknown op %q", step.Op)
	}
}

// decodeStep encodes the YAML payload as JSON, substitutes the repetition
// index and decodes it with the strict event codec.
func decodeStep(step Step, i int) (event.Event, error) {
	payload := step.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	ev, err := event.Decode(event.Kind(step.Kind), []byte(substitute(string(raw), i)))
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// substitute replaces every "{i}" with the repetition index.
func substitute(s string, i int) string {
	return strings.ReplaceAll(s, "{i}", strconv.Itoa(i))
}
