package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/fieldform/draftsync/internal/snapshot"
)

// TraceSnapshot is the golden-file payload for a scenario execution.
// Serialized canonically so key order and number formatting never churn
// the fixtures.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario, fails the test on any assertion
// failure, and compares the trace against testdata/golden/{name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	traceJSON, err := marshalTrace(&TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	})
	if err != nil {
		t.Fatalf("scenario %s: marshal trace: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)
}

// marshalTrace canonicalizes the trace snapshot. Round-tripping through
// JSON turns the struct into snapshot values so the canonical marshaler's
// sorting and formatting rules apply.
func marshalTrace(ts *TraceSnapshot) ([]byte, error) {
	plain, err := json.Marshal(ts)
	if err != nil {
		return nil, err
	}
	v, err := snapshot.FromJSON(plain)
	if err != nil {
		return nil, fmt.Errorf("trace not canonicalizable: %w", err)
	}
	return snapshot.MarshalCanonical(v)
}
