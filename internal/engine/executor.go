package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldform/draftsync/internal/snapshot"
)

// saveAttempt is the ephemeral record of one outstanding save. At most one
// exists per engine at any instant.
type saveAttempt struct {
	id   string // UUID for log correlation
	snap snapshot.Value
	hash string // snapshot content hash, "" if uncomputable
}

// startSaveLocked begins a save of the current snapshot. Caller holds e.mu
// and has verified no save is in flight.
//
// The guard flag is set here, before the executor call, and cleared in
// settle() on every exit path. The executor itself never retries - retry
// policy belongs to the scheduler, triggered by the next edit or flush.
func (e *Engine) startSaveLocked() {
	e.inFlight = true
	e.flushQueued = false
	e.status = StatusSaving
	e.lastErr = nil

	attempt := saveAttempt{
		id:   uuid.NewString(),
		snap: e.current,
	}
	if h, err := snapshot.Hash(attempt.snap); err == nil {
		attempt.hash = h
	}

	e.logger.Debug("save started",
		"session_key", e.key,
		"attempt_id", attempt.id,
		"snapshot_hash", attempt.hash,
	)

	go e.runSave(attempt)
}

// runSave executes the host save function outside the lock and delivers the
// settlement. Uses a background context: suspension and close must not
// abort an in-flight save, so no caller context is threaded through.
func (e *Engine) runSave(attempt saveAttempt) {
	err := e.save(context.Background(), attempt.snap)
	e.settle(attempt, err)
}

// settle records the outcome of a save and decides the next move. This is
// the only place the in-flight guard is cleared.
func (e *Engine) settle(attempt saveAttempt, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inFlight = false

	if err != nil {
		saveErr := classify(err)
		e.status = StatusError
		e.lastErr = saveErr
		// Snapshot and backup stay untouched so a retry can reuse them.
		// A queued flush is dropped: re-firing the same payload immediately
		// would fail the same way; the next edit or explicit SaveNow retries.
		if e.flushQueued {
			e.logger.Debug("dropping queued flush after failed save",
				"session_key", e.key,
				"attempt_id", attempt.id,
			)
			e.flushQueued = false
		}
		e.logger.Warn("save failed",
			"session_key", e.key,
			"attempt_id", attempt.id,
			"code", string(saveErr.Code),
			"error", saveErr,
		)
		return
	}

	e.lastPersisted = attempt.snap
	e.lastSavedAt = e.clock.Now()

	e.logger.Info("save succeeded",
		"session_key", e.key,
		"attempt_id", attempt.id,
		"snapshot_hash", attempt.hash,
	)

	changedSince := snapshot.Changed(e.lastPersisted, e.current)

	if !changedSince {
		e.flushQueued = false
		e.status = StatusSaved
		return
	}

	if e.closed || e.suspended {
		// The newer snapshot is already in the backup store; nothing may be
		// scheduled past close/suspend.
		e.flushQueued = false
		e.status = StatusSaved
		return
	}

	if e.flushQueued {
		// SaveNow arrived mid-save: exactly one follow-up of the latest
		// snapshot, immediately.
		e.startSaveLocked()
		return
	}

	// A plain edit arrived mid-save: hand it back to the scheduler.
	e.status = StatusPending
	e.armTimerLocked()
}
