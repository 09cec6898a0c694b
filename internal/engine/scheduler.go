package engine

import "github.com/fieldform/draftsync/internal/snapshot"

// Debounce scheduling. A classic debounce, not a throttle: every change
// resets the delay, so a burst of edits collapses into one save per pause.
//
// Timer callbacks run on their own goroutine (time.AfterFunc semantics), so
// a fire can race a cancel. The generation counter makes stale fires
// harmless: cancelTimerLocked bumps the generation, and a callback whose
// generation no longer matches returns without doing anything.

// armTimerLocked (re)starts the debounce timer. Caller holds e.mu.
func (e *Engine) armTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timerGen++
	gen := e.timerGen
	e.timer = e.clock.AfterFunc(e.debounce, func() {
		e.onTimerFire(gen)
	})
}

// cancelTimerLocked stops any pending timer and invalidates in-progress
// fires. Caller holds e.mu.
func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
}

// onTimerFire runs when the debounce delay elapses with no further edits.
func (e *Engine) onTimerFire(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.timerGen {
		// Stale fire: the timer was reset or cancelled after this callback
		// was already scheduled.
		return
	}
	e.timer = nil

	if e.closed || e.suspended {
		return
	}

	if e.inFlight {
		// Should not happen (arming is skipped while in flight), but the
		// guard keeps the single-flight invariant structural.
		e.flushQueued = true
		return
	}

	if !snapshot.Changed(e.lastPersisted, e.current) {
		e.status = StatusIdle
		return
	}

	e.startSaveLocked()
}
