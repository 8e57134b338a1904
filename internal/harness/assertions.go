package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/timeline"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Timeline string       // Timeline inspected, if any
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Timeline != "" {
		fmt.Fprintf(&buf, " [%s]", e.Timeline)
	}
	buf.WriteByte('\n')

	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s %v\n", ev.Seq, ev.Step, ev.Kind, ev.Timelines)
		}
	}

	return buf.String()
}

// assertSequence checks that got equals the expected ids, in order.
func assertSequence(typ string, key ir.TimelineKey, got []ir.StatusID, want []string) error {
	if slices.Equal(toStrings(got), want) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Timeline: string(key),
		Expected: formatIDs(want),
		Actual:   formatIDs(toStrings(got)),
	}
}

// assertContains checks that every expected id is in the selected list.
func assertContains(key ir.TimelineKey, s timeline.State, a Assertion) error {
	list, name := s.Items, "items"
	if a.In == "queue" {
		list, name = s.QueuedItems, "queue"
	}
	for _, id := range a.IDs {
		if !list.Has(ir.StatusID(id)) {
			return &AssertionError{
				Type:     AssertContains,
				Timeline: string(key),
				Expected: fmt.Sprintf("%s contains %s", name, id),
				Actual:   formatIDs(toStrings(list.Slice())),
			}
		}
	}
	return nil
}

// assertAbsent checks that no expected id is listed or queued.
func assertAbsent(key ir.TimelineKey, s timeline.State, a Assertion) error {
	for _, id := range a.IDs {
		sid := ir.StatusID(id)
		if s.Items.Has(sid) || s.QueuedItems.Has(sid) {
			return &AssertionError{
				Type:     AssertAbsent,
				Timeline: string(key),
				Expected: fmt.Sprintf("%s neither listed nor queued", id),
				Actual: fmt.Sprintf("items %s, queue %s",
					formatIDs(toStrings(s.Items.Slice())), formatIDs(toStrings(s.QueuedItems.Slice()))),
			}
		}
	}
	return nil
}

// assertCount compares a numeric state field.
func assertCount(typ string, key ir.TimelineKey, got, want int) error {
	if got == want {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Timeline: string(key),
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
	}
}

// assertFlag compares a boolean state field.
func assertFlag(key ir.TimelineKey, s timeline.State, a Assertion) error {
	flag, ok := stateFlags[a.Flag]
	if !ok {
		return fmt.Errorf("unknown flag %q", a.Flag)
	}
	got := flag(s)
	if got == *a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertFlag,
		Timeline: string(key),
		Expected: fmt.Sprintf("%s = %t", a.Flag, *a.Value),
		Actual:   fmt.Sprintf("%s = %t", a.Flag, got),
	}
}

// assertTraceCount checks that the kind was dispatched exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == event.Kind(a.Kind) {
			count++
		}
	}

	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func toStrings(ids []ir.StatusID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func formatIDs(ids []string) string {
	return "[" + strings.Join(ids, " ") + "]"
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		key := ir.TimelineKey(a.Timeline)
		s := result.Timeline(key)

		var err error
		switch a.Type {
		case AssertItems:
			err = assertSequence(AssertItems, key, s.Items.Slice(), a.IDs)
		case AssertQueue:
			err = assertSequence(AssertQueue, key, s.QueuedItems.Slice(), a.IDs)
		case AssertContains:
			err = assertContains(key, s, a)
		case AssertAbsent:
			err = assertAbsent(key, s, a)
		case AssertItemsSize:
			err = assertCount(AssertItemsSize, key, s.Items.Len(), *a.Count)
		case AssertQueueSize:
			err = assertCount(AssertQueueSize, key, s.QueuedItems.Len(), *a.Count)
		case AssertTotalQueued:
			err = assertCount(AssertTotalQueued, key, s.TotalQueuedItemsCount, *a.Count)
		case AssertUnread:
			err = assertCount(AssertUnread, key, s.Unread, *a.Count)
		case AssertFlag:
			err = assertFlag(key, s, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
