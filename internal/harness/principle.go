package harness

import (
	"fmt"
	"sort"
)

// Principle is a guarantee of the timeline engine that scenarios
// demonstrate. A scenario lists the principles it covers; Coverage reports
// the ones no scenario covers.
type Principle struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Principles is the catalog of engine guarantees.
var Principles = []Principle{
	{
		Name:        "idempotent_insert",
		Description: "dispatching the same TIMELINE_UPDATE twice leaves items as after the first",
	},
	{
		Name:        "queue_bound",
		Description: "the queue never exceeds max_queued_items while total_queued_items_count counts every arrival",
	},
	{
		Name:        "truncation",
		Description: "at the top, inserting past the ceiling keeps the most recent truncate_floor items",
	},
	{
		Name:        "merge_direction",
		Description: "append keeps existing items first, prepend puts the batch first, both deduplicated",
	},
	{
		Name:        "cascade_depth",
		Description: "deleting a status removes it and its direct reposts, never reposts of reposts",
	},
	{
		Name:        "placeholder_position",
		Description: "confirming a post puts the real id where its placeholder was",
	},
	{
		Name:        "filter_exclusion",
		Description: "block and mute purge an account everywhere except its own profile timelines",
	},
	{
		Name:        "pinned_replace",
		Description: "pinned timelines are replaced by every batch, never merged",
	},
}

// UnknownPrincipleError is returned when a scenario claims a principle that
// is not in the catalog.
type UnknownPrincipleError struct {
	Scenario  string
	Principle string
}

// Error implements the error interface.
func (e *UnknownPrincipleError) Error() string {
	return fmt.Sprintf("scenario %q claims unknown principle %q", e.Scenario, e.Principle)
}

// LookupPrinciple finds a principle by name.
func LookupPrinciple(name string) (Principle, bool) {
	for _, p := range Principles {
		if p.Name == name {
			return p, true
		}
	}
	return Principle{}, false
}

// Coverage maps each principle to the scenarios that claim it and lists the
// principles no scenario claims, in catalog order.
func Coverage(scenarios []*Scenario) (covered map[string][]string, missing []string) {
	covered = make(map[string][]string)
	for _, s := range scenarios {
		for _, name := range s.Principles {
			covered[name] = append(covered[name], s.Name)
		}
	}
	for name := range covered {
		sort.Strings(covered[name])
	}

	missing = []string{}
	for _, p := range Principles {
		if len(covered[p.Name]) == 0 {
			missing = append(missing, p.Name)
		}
	}
	return covered, missing
}
