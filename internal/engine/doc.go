// Package engine implements the autosave controller for a report-editing
// session.
//
// The engine watches the host form's in-memory snapshot, keeps a durable
// local backup of every edit, coalesces bursts of edits into debounced
// network saves, and exposes a single observable status to the consuming UI.
//
// ARCHITECTURE:
//
// Edit pipeline:
//  1. Host calls Update() with the rebuilt snapshot after every edit
//  2. Comparator detects a value-level diff (reference equality is useless -
//     snapshots are rebuilt objects)
//  3. Backup store is written synchronously and unconditionally
//  4. Debounce timer is (re)armed; status becomes "pending"
//  5. Timer fire or SaveNow() starts the save executor; status "saving"
//  6. Settlement moves status to "saved" or "error"
//
// Single-flight:
// At most one save is in flight per engine at any instant. The guard is an
// explicit boolean set before the executor call and cleared on every settle
// path. Edits arriving mid-save are backed up and coalesced; SaveNow()
// mid-save queues at most one follow-up save of the latest snapshot.
//
// Suspension:
// Suspend() cancels any pending timer and blocks new scheduling. It never
// aborts an in-flight save - a half-sent write aborted midway risks an
// inconsistent server state, so in-flight saves always settle normally.
// Suspended edits still hit the backup store.
//
// The backup is NOT cleared on successful save. It is cleared only by
// explicit recovery dismissal or when the host marks the session terminally
// complete, so a crash immediately after a save still leaves a safety copy.
//
// All mutable state is guarded by one mutex; the only asynchronous
// activities are the debounce timer callback and the save goroutine, both
// of which re-enter through that mutex.
package engine
