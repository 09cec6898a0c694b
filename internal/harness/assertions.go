package harness

import (
	"fmt"

	"github.com/fieldform/draftsync/internal/snapshot"
)

// EvaluateAssertions checks every scenario assertion against the observed
// result. Returns one message per failed assertion; empty means all held.
func EvaluateAssertions(scenario *Scenario, result *Result) []string {
	var failures []string
	for i, a := range scenario.Assertions {
		if msg := evaluateAssertion(&a, result); msg != "" {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

// evaluateAssertion checks one assertion. Returns "" on success.
func evaluateAssertion(a *Assertion, result *Result) string {
	switch a.Type {
	case AssertSaveCount:
		if result.SaveCount != a.Count {
			return fmt.Sprintf("expected %d save calls, got %d", a.Count, result.SaveCount)
		}

	case AssertLastPayload:
		if result.LastPayload == nil {
			return "expected a saved payload, but nothing was saved"
		}
		return comparePayload(a.Payload, result.LastPayload)

	case AssertStatus:
		got := result.FinalState.Status.String()
		if got != a.Status {
			return fmt.Sprintf("expected status %q, got %q", a.Status, got)
		}

	case AssertBackupEquals:
		if result.BackupDraft == nil {
			return "expected a backup entry, but none exists"
		}
		return comparePayload(a.Payload, result.BackupDraft.Snapshot)

	case AssertBackupAbsent:
		if result.BackupDraft != nil {
			canonical, _ := snapshot.MarshalCanonical(result.BackupDraft.Snapshot)
			return fmt.Sprintf("expected no backup entry, found %s", canonical)
		}

	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
	return ""
}

// comparePayload checks an expected YAML payload against an observed
// snapshot using canonical equality.
func comparePayload(expected map[string]any, got snapshot.Value) string {
	want, err := toSnapshot(expected)
	if err != nil {
		return fmt.Sprintf("expected payload not convertible: %v", err)
	}
	if !snapshot.Equal(want, got) {
		wantJSON, _ := snapshot.MarshalCanonical(want)
		gotJSON, _ := snapshot.MarshalCanonical(got)
		return fmt.Sprintf("payload mismatch:\n  want %s\n  got  %s", wantJSON, gotJSON)
	}
	return ""
}
