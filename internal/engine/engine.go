package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldform/draftsync/internal/backup"
	"github.com/fieldform/draftsync/internal/snapshot"
)

// SaveFunc performs the network upsert of a snapshot. Supplied by the host;
// internally it issues a partial-update request against the report-update
// endpoint. Return a *SaveError to classify the failure; any other error is
// treated as transient.
type SaveFunc func(ctx context.Context, snap snapshot.Value) error

// DefaultDebounce is the delay between the last edit in a burst and the
// save it triggers. A fast typist produces one save per pause, not one per
// keystroke.
const DefaultDebounce = 2 * time.Second

// State is the read-only surface the consuming UI observes.
type State struct {
	Status      Status
	LastSavedAt time.Time // zero until the first successful save
	Err         error     // *SaveError when Status is StatusError, else nil
	Saving      bool
}

// Engine is the autosave controller for one editing session.
//
// All exported methods are safe for concurrent use. Mutable state is
// guarded by a single mutex; the debounce timer callback and the save
// goroutine re-enter through it.
type Engine struct {
	store    *backup.Store
	key      string
	save     SaveFunc
	clock    Clock
	logger   *slog.Logger
	debounce time.Duration

	mu            sync.Mutex
	status        Status
	lastSavedAt   time.Time
	lastErr       *SaveError
	current       snapshot.Value // latest snapshot seen from the host
	lastPersisted snapshot.Value // last snapshot the server accepted
	timer         Timer
	timerGen      uint64 // invalidates stale timer fires
	inFlight      bool   // single-flight guard: set before the executor call,
	// cleared on every settle path
	flushQueued bool // SaveNow arrived mid-save; fire once on settle
	suspended   bool
	closed      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce sets the debounce delay. Values <= 0 keep the default.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithClock injects a clock. Used by tests to drive the debounce timer
// deterministically.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger injects a logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an autosave engine for one editing session.
//
// sessionKey namespaces the backup store entry (derived from the entity's
// identifier by the host). initial is the server-authoritative snapshot the
// session loaded with - it seeds the comparator baseline, so the first
// Update that matches it is a no-op.
func New(store *backup.Store, sessionKey string, initial snapshot.Value, save SaveFunc, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		key:           sessionKey,
		save:          save,
		clock:         SystemClock(),
		logger:        slog.Default(),
		debounce:      DefaultDebounce,
		status:        StatusIdle,
		current:       initial,
		lastPersisted: initial,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// State returns a snapshot of the observable surface.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Status:      e.status,
		LastSavedAt: e.lastSavedAt,
		Saving:      e.inFlight,
	}
	if e.lastErr != nil {
		st.Err = e.lastErr
	}
	return st
}

// Update feeds the engine the host form's current snapshot. Call it after
// every edit; unchanged snapshots are a no-op.
//
// Ordering guarantee: the backup write happens synchronously inside this
// call, so the backup store reflects the latest snapshot the instant any
// edit lands. Backup failures are soft-logged and swallowed - losing the
// safety net must never block data entry.
func (e *Engine) Update(ctx context.Context, snap snapshot.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	if !snapshot.Changed(e.current, snap) {
		return
	}
	e.current = snap

	e.writeBackupLocked(ctx, snap)

	if e.suspended {
		// Suspended edits still hit the backup store, but nothing schedules.
		return
	}

	if e.inFlight {
		// Recorded, backed up, and coalesced: the scheduler picks it up once
		// the in-flight save settles. No second network call starts now.
		return
	}

	e.status = StatusPending
	e.lastErr = nil
	e.armTimerLocked()
}

// SaveNow cancels any pending timer and saves immediately ("save now").
// If a save is already in flight, at most one follow-up save of the latest
// snapshot is queued to fire after it settles - never more.
func (e *Engine) SaveNow(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.suspended {
		return
	}

	e.cancelTimerLocked()

	if !snapshot.Changed(e.lastPersisted, e.current) {
		return
	}

	if e.inFlight {
		e.flushQueued = true
		return
	}

	e.startSaveLocked()
}

// Suspend stops the timer and blocks new scheduling. Used when the session
// turns read-only, starts finalizing, or is disabled by the host's
// enablement predicate. A pending-but-unfired save is cancelled; an
// in-flight save is left to settle normally.
func (e *Engine) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspended {
		return
	}
	e.suspended = true
	e.cancelTimerLocked()
}

// Resume re-enables scheduling. If an unsynced change accumulated while
// suspended, the pipeline re-arms from pending.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.suspended || e.closed {
		return
	}
	e.suspended = false

	if e.inFlight {
		return
	}
	if snapshot.Changed(e.lastPersisted, e.current) {
		e.status = StatusPending
		e.lastErr = nil
		e.armTimerLocked()
	}
}

// Close shuts the engine down on session unmount. Cancels any pending
// timer; an in-flight save is allowed to complete and update status
// normally, since aborting a half-sent write risks inconsistent server
// state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.cancelTimerLocked()
}

// LoadDraftBackup reads this session's backup entry. Used by the host at
// mount to drive the recovery flow. Returns nil when absent or corrupt.
func (e *Engine) LoadDraftBackup(ctx context.Context) (*backup.Draft, error) {
	return e.store.Get(ctx, e.key)
}

// ClearDraftBackup removes this session's backup entry. The host calls it
// when the user dismisses a recovery offer or when the session reaches a
// terminal, successfully-synced state.
func (e *Engine) ClearDraftBackup(ctx context.Context) error {
	return e.store.Clear(ctx, e.key)
}

// writeBackupLocked persists the snapshot to the backup store. Failures
// degrade the engine to network-only autosave for this cycle.
func (e *Engine) writeBackupLocked(ctx context.Context, snap snapshot.Value) {
	if err := e.store.Put(ctx, e.key, snap, e.clock.Now()); err != nil {
		e.logger.Warn("draft backup write failed, continuing without local safety copy",
			"session_key", e.key,
			"error", err,
		)
	}
}
