package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldform/draftsync/internal/backup"
	"github.com/fieldform/draftsync/internal/engine"
	"github.com/fieldform/draftsync/internal/snapshot"
	"github.com/fieldform/draftsync/internal/testutil"
)

// sessionKey namespaces the scenario's backup entry. One session per run.
const sessionKey = "scenario-session"

// scenarioEpoch is the fake clock's start time. Fixed so traces and
// timestamps are reproducible across runs.
var scenarioEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// settleTimeout bounds the wait for an asynchronous save to finish. Saves
// in a scenario complete immediately once released, so hitting this means
// the engine wedged.
const settleTimeout = 2 * time.Second

// Harness executes one scenario against a real engine wired to
// deterministic test doubles.
type Harness struct {
	store  *backup.Store
	engine *engine.Engine
	clock  *testutil.FakeClock
	saver  *testutil.SpySaver
	logger *slog.Logger
}

// Run executes a scenario and returns the observed result.
//
// Each scenario runs against a fresh temporary backup database, a fake
// clock pinned to a fixed epoch, and an instrumented save function, so
// execution is fully deterministic and isolated.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "draftsync-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := backup.Open(filepath.Join(dir, "drafts.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open backup store: %w", err)
	}
	defer st.Close()

	initial, err := toSnapshot(scenario.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	clock := testutil.NewFakeClock(scenarioEpoch)
	saver := testutil.NewSpySaver()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // quiet under test

	opts := []engine.Option{
		engine.WithClock(clock),
		engine.WithLogger(logger),
	}
	if scenario.DebounceMS > 0 {
		opts = append(opts, engine.WithDebounce(time.Duration(scenario.DebounceMS)*time.Millisecond))
	}

	h := &Harness{
		store:  st,
		engine: engine.New(st, sessionKey, initial, saver.Save, opts...),
		clock:  clock,
		saver:  saver,
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, event)
	}

	// Let any save triggered by the final step settle before observing.
	if err := h.waitSettled(); err != nil {
		return nil, err
	}

	result.FinalState = h.engine.State()
	result.SaveCount = h.saver.Calls()
	result.LastPayload = h.saver.LastPayload()

	draft, err := st.Get(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup entry: %w", err)
	}
	result.BackupDraft = draft

	for _, msg := range EvaluateAssertions(scenario, result) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep performs one timeline action, waits for the engine to
// settle, and records the resulting trace event.
func (h *Harness) executeStep(ctx context.Context, index int, step Step) (TraceEvent, error) {
	event := TraceEvent{Step: index}

	switch {
	case step.Edit != nil:
		event.Kind = "edit"
		snap, err := toSnapshot(step.Edit)
		if err != nil {
			return event, fmt.Errorf("edit snapshot: %w", err)
		}
		h.engine.Update(ctx, snap)

	case step.AdvanceMS > 0:
		event.Kind = "advance"
		event.Detail = fmt.Sprintf("%dms", step.AdvanceMS)
		h.clock.Advance(time.Duration(step.AdvanceMS) * time.Millisecond)

	case step.SaveNow:
		event.Kind = "save_now"
		h.engine.SaveNow(ctx)

	case step.Suspend:
		event.Kind = "suspend"
		h.engine.Suspend()

	case step.Resume:
		event.Kind = "resume"
		h.engine.Resume()

	case step.FailNextSave != "":
		event.Kind = "fail_next_save"
		event.Detail = step.FailNextSave
		h.saver.FailNext(errors.New(step.FailNextSave))

	case step.RejectNextSave != "":
		event.Kind = "reject_next_save"
		event.Detail = step.RejectNextSave
		h.saver.FailNext(engine.NewRejectedError(step.RejectNextSave, nil))

	default:
		return event, fmt.Errorf("no action set")
	}

	if err := h.waitSettled(); err != nil {
		return event, err
	}

	state := h.engine.State()
	event.Status = state.Status.String()
	event.SaveCount = h.saver.Calls()
	return event, nil
}

// waitSettled blocks until no save is in flight. Step actions start saves
// on a goroutine; the trace must observe the settled state, not a race.
func (h *Harness) waitSettled() error {
	deadline := time.Now().Add(settleTimeout)
	for h.engine.State().Saving {
		if time.Now().After(deadline) {
			return fmt.Errorf("save did not settle within %v", settleTimeout)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// toSnapshot converts a YAML-parsed map into a snapshot value. Routing
// through JSON reuses the snapshot package's decoding rules rather than
// duplicating the type switch here.
func toSnapshot(m map[string]any) (snapshot.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return snapshot.FromJSON(data)
}
