package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldform/draftsync/internal/engine"
	"github.com/fieldform/draftsync/internal/snapshot"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenarioFile(t, `
name: load-test
description: loads a minimal scenario
initial:
  site: "plant 7"
debounce_ms: 1500
steps:
  - edit:
      site: "plant 8"
  - advance_ms: 1500
assertions:
  - type: save_count
    count: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "load-test", s.Name)
	assert.Equal(t, 1500, s.DebounceMS)
	assert.Len(t, s.Steps, 2)
	assert.Len(t, s.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown field",
			content: `
name: x
description: d
initial: {}
steps:
  - edit: {a: 1}
assertion:
  - type: save_count
`,
			wantErr: "field assertion not found",
		},
		{
			name: "missing name",
			content: `
description: d
initial: {}
steps:
  - edit: {a: 1}
assertions:
  - type: save_count
`,
			wantErr: "name is required",
		},
		{
			name: "missing initial",
			content: `
name: x
description: d
steps:
  - edit: {a: 1}
assertions:
  - type: save_count
`,
			wantErr: "initial snapshot is required",
		},
		{
			name: "step with two actions",
			content: `
name: x
description: d
initial: {}
steps:
  - edit: {a: 1}
    save_now: true
assertions:
  - type: save_count
`,
			wantErr: "exactly one action per step",
		},
		{
			name: "step with no action",
			content: `
name: x
description: d
initial: {}
steps:
  - advance_ms: 0
assertions:
  - type: save_count
`,
			wantErr: "no action set",
		},
		{
			name: "unknown assertion type",
			content: `
name: x
description: d
initial: {}
steps:
  - edit: {a: 1}
assertions:
  - type: saves_happened
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "payload assertion without payload",
			content: `
name: x
description: d
initial: {}
steps:
  - edit: {a: 1}
assertions:
  - type: last_payload
`,
			wantErr: "payload is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_ObservesEngineSurface(t *testing.T) {
	s := &Scenario{
		Name:        "programmatic",
		Description: "burst then flush",
		Initial:     map[string]any{"site": "plant 7"},
		Steps: []Step{
			{Edit: map[string]any{"site": "plant 9"}},
			{SaveNow: true},
		},
		Assertions: []Assertion{
			{Type: AssertSaveCount, Count: 1},
			{Type: AssertStatus, Status: "saved"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Passed, "assertion failures: %v", result.Errors)
	assert.Equal(t, 1, result.SaveCount)
	assert.Equal(t, engine.StatusSaved, result.FinalState.Status)

	want := snapshot.Object{"site": snapshot.String("plant 9")}
	assert.True(t, snapshot.Equal(want, result.LastPayload))

	require.NotNil(t, result.BackupDraft, "backup survives a successful save")
	assert.True(t, snapshot.Equal(want, result.BackupDraft.Snapshot))

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "edit", result.Trace[0].Kind)
	assert.Equal(t, "pending", result.Trace[0].Status)
	assert.Equal(t, "save_now", result.Trace[1].Kind)
	assert.Equal(t, "saved", result.Trace[1].Status)
}

func TestRun_FailedAssertionReported(t *testing.T) {
	s := &Scenario{
		Name:        "failing",
		Description: "expects a save that never happens",
		Initial:     map[string]any{"site": "plant 7"},
		Steps: []Step{
			{Edit: map[string]any{"site": "plant 8"}},
		},
		Assertions: []Assertion{
			{Type: AssertSaveCount, Count: 1},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected 1 save calls, got 0")
}

func TestEvaluateAssertions_PayloadMismatch(t *testing.T) {
	s := &Scenario{
		Assertions: []Assertion{
			{Type: AssertLastPayload, Payload: map[string]any{"a": 1}},
		},
	}
	result := NewResult()
	result.LastPayload = snapshot.Object{"a": snapshot.Number(2)}

	failures := EvaluateAssertions(s, result)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "payload mismatch")
}

func TestEvaluateAssertions_BackupAbsent(t *testing.T) {
	s := &Scenario{
		Assertions: []Assertion{
			{Type: AssertBackupAbsent},
		},
	}

	result := NewResult()
	assert.Empty(t, EvaluateAssertions(s, result))

	result.BackupDraft = nil
	assert.Empty(t, EvaluateAssertions(s, result))
}
