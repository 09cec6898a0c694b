package harness

import (
	"github.com/fieldform/draftsync/internal/backup"
	"github.com/fieldform/draftsync/internal/engine"
	"github.com/fieldform/draftsync/internal/snapshot"
)

// TraceEvent records the observable engine surface after one timeline step.
type TraceEvent struct {
	// Step is the zero-based index of the step that produced this event.
	Step int `json:"step"`

	// Kind names the step action: "edit", "advance", "save_now", "suspend",
	// "resume", "fail_next_save", or "reject_next_save".
	Kind string `json:"kind"`

	// Detail carries step-specific context: the advance duration, the
	// scripted failure message.
	Detail string `json:"detail,omitempty"`

	// Status is the engine status after the step settled.
	Status string `json:"status"`

	// SaveCount is the cumulative number of save calls after the step.
	SaveCount int `json:"save_count"`
}

// Result captures everything a scenario execution observed.
type Result struct {
	// Passed is true when every assertion held.
	Passed bool

	// Errors lists assertion failures (empty when Passed).
	Errors []string

	// Trace is the per-step observation log, compared against golden files.
	Trace []TraceEvent

	// FinalState is the engine state after the last step settled.
	FinalState engine.State

	// SaveCount is the total number of save calls.
	SaveCount int

	// LastPayload is the most recent saved snapshot, nil if nothing saved.
	LastPayload snapshot.Value

	// BackupDraft is the session's backup entry after the run, nil if absent.
	BackupDraft *backup.Draft
}

// NewResult creates an empty result that starts passing.
func NewResult() *Result {
	return &Result{Passed: true}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Passed = false
	r.Errors = append(r.Errors, msg)
}
