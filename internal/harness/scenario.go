package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines an autosave conformance scenario: an editing session
// replayed as a deterministic timeline.
type Scenario struct {
	// Name uniquely identifies this scenario (also the golden file name).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is the server-authoritative snapshot the session loads with.
	Initial map[string]any `yaml:"initial"`

	// DebounceMS overrides the debounce delay. 0 uses the engine default.
	DebounceMS int `yaml:"debounce_ms,omitempty"`

	// Steps is the session timeline, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final observed behavior.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one timeline action. Exactly one field must be set.
type Step struct {
	// Edit feeds a new snapshot to the engine.
	Edit map[string]any `yaml:"edit,omitempty"`

	// AdvanceMS moves the fake clock forward, firing due timers.
	AdvanceMS int `yaml:"advance_ms,omitempty"`

	// SaveNow flushes immediately.
	SaveNow bool `yaml:"save_now,omitempty"`

	// Suspend disables scheduling (read-only/finalizing transition).
	Suspend bool `yaml:"suspend,omitempty"`

	// Resume re-enables scheduling.
	Resume bool `yaml:"resume,omitempty"`

	// FailNextSave scripts the next save call to fail with this message.
	FailNextSave string `yaml:"fail_next_save,omitempty"`

	// RejectNextSave scripts the next save call to fail as a rejection
	// (validation/auth) with this message.
	RejectNextSave string `yaml:"reject_next_save,omitempty"`
}

// Assertion validates observed behavior after the timeline completes.
type Assertion struct {
	// Type specifies the assertion:
	// - "save_count": exactly Count save calls were made
	// - "last_payload": the most recent save carried Payload
	// - "status": the final engine status equals Status
	// - "backup_equals": the backup store holds Payload
	// - "backup_absent": the backup store holds nothing for the session
	Type string `yaml:"type"`

	// Count is the expected save count (save_count).
	Count int `yaml:"count,omitempty"`

	// Payload is the expected snapshot (last_payload, backup_equals).
	Payload map[string]any `yaml:"payload,omitempty"`

	// Status is the expected final status (status).
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertSaveCount    = "save_count"
	AssertLastPayload  = "last_payload"
	AssertStatus       = "status"
	AssertBackupEquals = "backup_equals"
	AssertBackupAbsent = "backup_absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Initial == nil {
		return fmt.Errorf("initial snapshot is required (use empty map for a blank form)")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must be non-negative")
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

// validateStep checks that exactly one action is set.
func validateStep(index int, s *Step) error {
	set := 0
	if s.Edit != nil {
		set++
	}
	if s.AdvanceMS > 0 {
		set++
	}
	if s.SaveNow {
		set++
	}
	if s.Suspend {
		set++
	}
	if s.Resume {
		set++
	}
	if s.FailNextSave != "" {
		set++
	}
	if s.RejectNextSave != "" {
		set++
	}

	if set == 0 {
		return fmt.Errorf("steps[%d]: no action set", index)
	}
	if set > 1 {
		return fmt.Errorf("steps[%d]: exactly one action per step", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertSaveCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertLastPayload, AssertBackupEquals:
		if a.Payload == nil {
			return fmt.Errorf("assertions[%d]: payload is required for %s", index, a.Type)
		}
	case AssertStatus:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required", index)
		}
	case AssertBackupAbsent:
		// No fields required.
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
