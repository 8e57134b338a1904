package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedline/internal/timeline"
)

const minimalScenario = `
name: minimal
description: "One insert"
steps:
  - kind: TIMELINE_UPDATE
    payload: { timeline: home, status_id: "1" }
assertions:
  - type: items
    timeline: home
    ids: ["1"]
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "One insert", scenario.Description)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, "TIMELINE_UPDATE", scenario.Steps[0].Kind)
	assert.Equal(t, "1", scenario.Steps[0].Payload["status_id"])
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, []string{"1"}, scenario.Assertions[0].IDs)
	assert.Equal(t, timeline.DefaultLimits(), scenario.TimelineLimits())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Limits(t *testing.T) {
	scenario, err := ParseScenario([]byte(minimalScenario +
		"limits: { max_queued_items: 5, truncate_ceiling: 10, truncate_floor: 4 }\n"))
	require.NoError(t, err)

	assert.Equal(t, timeline.Limits{MaxQueuedItems: 5, TruncateCeiling: 10, TruncateFloor: 4}, scenario.TimelineLimits())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
description: d
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "description is required",
		},
		{
			name: "no steps",
			yaml: `
name: n
description: d
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown kind",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_EXPLODE }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: `unknown event kind "TIMELINE_EXPLODE"`,
		},
		{
			name: "kind and op",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_CLEAR, op: block, account_id: a }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "empty step",
			yaml: `
name: n
description: d
steps: [{ repeat: 2 }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "kind or op is required",
		},
		{
			name: "unknown op",
			yaml: `
name: n
description: d
steps: [{ op: follow }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: `unknown op "follow"`,
		},
		{
			name: "block without account",
			yaml: `
name: n
description: d
steps: [{ op: block }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "account_id is required for block",
		},
		{
			name: "confirm without status",
			yaml: `
name: n
description: d
steps: [{ op: confirm, key: key-1 }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "key and status are required",
		},
		{
			name: "bad limits",
			yaml: `
name: n
description: d
limits: { max_queued_items: 5, truncate_ceiling: 10, truncate_floor: 10 }
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: "limits",
		},
		{
			name: "size without count",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: queue_size, timeline: home }]
`,
			wantErr: "timeline and count are required",
		},
		{
			name: "unknown flag",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: flag, timeline: home, flag: sticky, value: true }]
`,
			wantErr: `unknown flag "sticky"`,
		},
		{
			name: "bad in",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: contains, timeline: home, ids: ["1"], in: both }]
`,
			wantErr: "in must be items or queue",
		},
		{
			name: "unknown assertion",
			yaml: `
name: n
description: d
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: final_state }]
`,
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name: "unknown principle",
			yaml: `
name: n
description: d
principles: [eventual_consistency]
steps: [{ kind: TIMELINE_CLEAR, payload: { timeline: home } }]
assertions: [{ type: items, timeline: home }]
`,
			wantErr: `unknown principle "eventual_consistency"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "c.txt", "queue_bound.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden.yaml"), 0755))

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "queue_bound.yaml"),
	}, files)

	files, err = FindScenarios(dir, "queue_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "queue_bound.yaml")}, files)

	_, err = FindScenarios(dir, "[")
	assert.Error(t, err)

	_, err = FindScenarios(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}
