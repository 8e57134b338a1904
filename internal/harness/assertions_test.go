package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/timeline"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func sampleResult() *Result {
	result := NewResult()
	s := timeline.NewState()
	s.Items = timeline.NewOrderedSet("3", "2", "1")
	s.QueuedItems = timeline.NewOrderedSet("5", "4")
	s.TotalQueuedItemsCount = 2
	s.Unread = 1
	s.Online = true
	result.State[ir.TimelineHome] = s
	result.Trace = []TraceEvent{
		{Step: 1, Seq: 1, Kind: event.KindUpdate},
		{Step: 2, Seq: 2, Kind: event.KindUpdate},
		{Step: 3, Seq: 3, Kind: event.KindUpdateQueue},
	}
	return result
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertItems, Timeline: "home", IDs: []string{"3", "2", "1"}},
		{Type: AssertQueue, Timeline: "home", IDs: []string{"5", "4"}},
		{Type: AssertContains, Timeline: "home", IDs: []string{"1", "3"}},
		{Type: AssertContains, Timeline: "home", IDs: []string{"4"}, In: "queue"},
		{Type: AssertAbsent, Timeline: "home", IDs: []string{"9"}},
		{Type: AssertItemsSize, Timeline: "home", Count: intPtr(3)},
		{Type: AssertQueueSize, Timeline: "home", Count: intPtr(2)},
		{Type: AssertTotalQueued, Timeline: "home", Count: intPtr(2)},
		{Type: AssertUnread, Timeline: "home", Count: intPtr(1)},
		{Type: AssertFlag, Timeline: "home", Flag: "online", Value: boolPtr(true)},
		{Type: AssertFlag, Timeline: "home", Flag: "is_loading", Value: boolPtr(false)},
		{Type: AssertTraceCount, Kind: "TIMELINE_UPDATE", Count: intPtr(2)},
	}

	errs := EvaluateAssertions(sampleResult(), assertions)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_UnseenTimelineUsesDefaults(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertItems, Timeline: "public", IDs: []string{}},
		{Type: AssertFlag, Timeline: "public", Flag: "top", Value: boolPtr(true)},
		{Type: AssertFlag, Timeline: "public", Flag: "has_more", Value: boolPtr(true)},
	}

	assert.Empty(t, EvaluateAssertions(sampleResult(), assertions))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      []string
	}{
		{
			name:      "items order",
			assertion: Assertion{Type: AssertItems, Timeline: "home", IDs: []string{"1", "2", "3"}},
			want:      []string{"Assertion failed: items [home]", "Expected: [1 2 3]", "Actual: [3 2 1]"},
		},
		{
			name:      "queue",
			assertion: Assertion{Type: AssertQueue, Timeline: "home", IDs: []string{"5"}},
			want:      []string{"Assertion failed: queue [home]", "Actual: [5 4]"},
		},
		{
			name:      "contains in items",
			assertion: Assertion{Type: AssertContains, Timeline: "home", IDs: []string{"4"}},
			want:      []string{"items contains 4"},
		},
		{
			name:      "absent but queued",
			assertion: Assertion{Type: AssertAbsent, Timeline: "home", IDs: []string{"5"}},
			want:      []string{"5 neither listed nor queued", "queue [5 4]"},
		},
		{
			name:      "unread",
			assertion: Assertion{Type: AssertUnread, Timeline: "home", Count: intPtr(0)},
			want:      []string{"Assertion failed: unread [home]", "Expected: 0", "Actual: 1"},
		},
		{
			name:      "flag",
			assertion: Assertion{Type: AssertFlag, Timeline: "home", Flag: "online", Value: boolPtr(false)},
			want:      []string{"Expected: online = false", "Actual: online = true"},
		},
		{
			name:      "unknown flag",
			assertion: Assertion{Type: AssertFlag, Timeline: "home", Flag: "sticky", Value: boolPtr(true)},
			want:      []string{`unknown flag "sticky"`},
		},
		{
			name:      "trace count",
			assertion: Assertion{Type: AssertTraceCount, Kind: "TIMELINE_DEQUEUE", Count: intPtr(1)},
			want:      []string{"1 occurrences of TIMELINE_DEQUEUE", "Actual: 0 occurrences", "Full trace:", "[3] step 3 TIMELINE_UPDATE_QUEUE"},
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "final_state"},
			want:      []string{`assertion[0]: unknown assertion type "final_state"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			for _, want := range tt.want {
				assert.Contains(t, errs[0], want)
			}
		})
	}
}

func TestEvaluateAssertions_CollectsAllFailures(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertItemsSize, Timeline: "home", Count: intPtr(0)},
		{Type: AssertItems, Timeline: "home", IDs: []string{"3", "2", "1"}},
		{Type: AssertQueueSize, Timeline: "home", Count: intPtr(0)},
	}

	errs := EvaluateAssertions(sampleResult(), assertions)
	assert.Len(t, errs, 2)
}
