package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/timeline"
)

// Scenario defines a conformance test scenario.
// Scenarios drive the engine through a sequence of steps and assert on the
// resulting timelines.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Principles lists the engine guarantees this scenario demonstrates.
	// Every name must be in Principles.
	Principles []string `yaml:"principles,omitempty"`

	// Limits overrides the default 40 / 40 / 20 limits.
	Limits *LimitsSpec `yaml:"limits,omitempty"`

	// Ledger seeds the status ledger before the first step.
	Ledger []StatusSpec `yaml:"ledger,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final timelines.
	Assertions []Assertion `yaml:"assertions"`
}

// LimitsSpec mirrors timeline.Limits in scenario files.
type LimitsSpec struct {
	MaxQueuedItems  int `yaml:"max_queued_items"`
	TruncateCeiling int `yaml:"truncate_ceiling"`
	TruncateFloor   int `yaml:"truncate_floor"`
}

// StatusSpec is a ledger status in scenario files.
type StatusSpec struct {
	ID          string `yaml:"id"`
	AccountID   string `yaml:"account_id"`
	Visibility  string `yaml:"visibility"`
	GroupID     string `yaml:"group_id,omitempty"`
	ReblogOf    string `yaml:"reblog_of,omitempty"`
	ScheduledAt string `yaml:"scheduled_at,omitempty"`
}

// Status converts the scenario entry to a ledger status.
func (s StatusSpec) Status() ir.Status {
	return ir.Status{
		ID:          ir.StatusID(s.ID),
		AccountID:   s.AccountID,
		Visibility:  ir.Visibility(s.Visibility),
		GroupID:     s.GroupID,
		ReblogOf:    ir.StatusID(s.ReblogOf),
		ScheduledAt: s.ScheduledAt,
	}
}

// ParamsSpec is a submitted post in scenario files.
type ParamsSpec struct {
	Visibility  string `yaml:"visibility"`
	GroupID     string `yaml:"group_id,omitempty"`
	ScheduledAt string `yaml:"scheduled_at,omitempty"`
}

// Params converts the scenario entry to submission parameters.
func (p ParamsSpec) Params() ir.StatusParams {
	return ir.StatusParams{
		Visibility:  ir.Visibility(p.Visibility),
		GroupID:     p.GroupID,
		ScheduledAt: p.ScheduledAt,
	}
}

// Step is either a raw event (Kind + Payload) or an engine operation (Op).
//
// Raw events are decoded with the same strict codec the journal uses, so a
// payload with a misspelled field fails the scenario.
type Step struct {
	// Kind is an event kind such as TIMELINE_UPDATE.
	Kind string `yaml:"kind,omitempty"`

	// Payload is the event payload. String values may contain "{i}",
	// replaced by the 1-based repetition index.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Op is one of the Op* operations.
	Op string `yaml:"op,omitempty"`

	// StatusID is the status deleted by delete_status.
	StatusID string `yaml:"status_id,omitempty"`

	// AccountID is the target of block, mute and unfollow.
	AccountID string `yaml:"account_id,omitempty"`

	// Params are the submitted post of submit.
	Params *ParamsSpec `yaml:"params,omitempty"`

	// Key is the idempotency key confirmed by confirm.
	// Keys are handed out as key-1, key-2, ... in submission order.
	Key string `yaml:"key,omitempty"`

	// Status is the confirmed status of confirm, or the status stored by
	// put_status.
	Status *StatusSpec `yaml:"status,omitempty"`

	// Editing marks a confirm as an edit of an existing status.
	Editing bool `yaml:"editing,omitempty"`

	// Repeat runs the step this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// ExpectError is the dispatch error code the step must fail with,
	// such as INVALID_EVENT.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Engine operations a step can run.
const (
	OpDeleteStatus = "delete_status"
	OpBlock        = "block"
	OpMute         = "mute"
	OpUnfollow     = "unfollow"
	OpSubmit       = "submit"
	OpConfirm      = "confirm"
	OpPutStatus    = "put_status"
)

// Assertion validates the trace or one timeline's final state.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// Timeline is the key the state assertions inspect.
	Timeline string `yaml:"timeline,omitempty"`

	// IDs are the expected ids (items, queue, contains, absent).
	IDs []string `yaml:"ids,omitempty"`

	// In selects the list contains inspects: "items" (default) or "queue".
	In string `yaml:"in,omitempty"`

	// Count is the expected size or counter value.
	Count *int `yaml:"count,omitempty"`

	// Flag names a boolean state field (used by flag).
	Flag string `yaml:"flag,omitempty"`

	// Value is the expected flag value (used by flag).
	Value *bool `yaml:"value,omitempty"`

	// Kind is the event kind counted by trace_count.
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertItems       = "items"
	AssertQueue       = "queue"
	AssertContains    = "contains"
	AssertAbsent      = "absent"
	AssertItemsSize   = "items_size"
	AssertQueueSize   = "queue_size"
	AssertTotalQueued = "total_queued"
	AssertUnread      = "unread"
	AssertFlag        = "flag"
	AssertTraceCount  = "trace_count"
)

// Flags understood by the flag assertion.
var stateFlags = map[string]func(timeline.State) bool{
	"top":            func(s timeline.State) bool { return s.Top },
	"online":         func(s timeline.State) bool { return s.Online },
	"is_loading":     func(s timeline.State) bool { return s.IsLoading },
	"has_more":       func(s timeline.State) bool { return s.HasMore },
	"loading_failed": func(s timeline.State) bool { return s.LoadingFailed },
	"is_partial":     func(s timeline.State) bool { return s.IsPartial },
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files directly under dir whose
// base name (without extension) matches the glob filter, sorted by path.
// An empty filter matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// TimelineLimits returns the scenario's limits, or the defaults.
func (s *Scenario) TimelineLimits() timeline.Limits {
	if s.Limits == nil {
		return timeline.DefaultLimits()
	}
	return timeline.Limits{
		MaxQueuedItems:  s.Limits.MaxQueuedItems,
		TruncateCeiling: s.Limits.TruncateCeiling,
		TruncateFloor:   s.Limits.TruncateFloor,
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, name := range s.Principles {
		if _, ok := LookupPrinciple(name); !ok {
			return &UnknownPrincipleError{Scenario: s.Name, Principle: name}
		}
	}

	if l := s.Limits; l != nil {
		if l.MaxQueuedItems <= 0 || l.TruncateFloor <= 0 || l.TruncateFloor >= l.TruncateCeiling {
			return fmt.Errorf("limits: need max_queued_items > 0 and 0 < truncate_floor < truncate_ceiling")
		}
	}

	for i, st := range s.Ledger {
		if st.ID == "" {
			return fmt.Errorf("ledger[%d]: id is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that a step is either a known event kind or a known
// operation with the fields it needs.
func validateStep(index int, st *Step) error {
	if st.Repeat < 0 {
		return fmt.Errorf("steps[%d]: repeat must be non-negative", index)
	}

	switch {
	case st.Kind != "" && st.Op != "":
		return fmt.Errorf("steps[%d]: kind and op are mutually exclusive", index)
	case st.Kind != "":
		if !event.Kind(st.Kind).Known() {
			return fmt.Errorf("steps[%d]: unknown event kind %q", index, st.Kind)
		}
		return nil
	case st.Op == "":
		return fmt.Errorf("steps[%d]: kind or op is required", index)
	}

	switch st.Op {
	case OpDeleteStatus:
		if st.StatusID == "" {
			return fmt.Errorf("steps[%d]: status_id is required for %s", index, st.Op)
		}
	case OpBlock, OpMute, OpUnfollow:
		if st.AccountID == "" {
			return fmt.Errorf("steps[%d]: account_id is required for %s", index, st.Op)
		}
	case OpSubmit:
		if st.Params == nil {
			return fmt.Errorf("steps[%d]: params is required for %s", index, st.Op)
		}
	case OpConfirm:
		if st.Key == "" || st.Status == nil {
			return fmt.Errorf("steps[%d]: key and status are required for %s", index, st.Op)
		}
	case OpPutStatus:
		if st.Status == nil || st.Status.ID == "" {
			return fmt.Errorf("steps[%d]: status.id is required for %s", index, st.Op)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertItems, AssertQueue:
		if a.Timeline == "" {
			return fmt.Errorf("assertions[%d]: timeline is required for %s", index, a.Type)
		}
	case AssertContains, AssertAbsent:
		if a.Timeline == "" || len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: timeline and ids are required for %s", index, a.Type)
		}
		if a.In != "" && a.In != "items" && a.In != "queue" {
			return fmt.Errorf("assertions[%d]: in must be items or queue", index)
		}
	case AssertItemsSize, AssertQueueSize, AssertTotalQueued, AssertUnread:
		if a.Timeline == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: timeline and count are required for %s", index, a.Type)
		}
	case AssertFlag:
		if a.Timeline == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: timeline and value are required for flag", index)
		}
		if _, ok := stateFlags[a.Flag]; !ok {
			return fmt.Errorf("assertions[%d]: unknown flag %q", index, a.Flag)
		}
	case AssertTraceCount:
		if a.Kind == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: kind and count are required for trace_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
