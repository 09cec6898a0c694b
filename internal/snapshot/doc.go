// Package snapshot defines the form snapshot value model shared by the
// autosave engine and the draft backup store.
//
// A snapshot is the complete in-memory value of the form being edited at a
// point in time. The engine never interprets field semantics - it only needs
// three things from a snapshot:
//
//  1. Deep structural equality (the change comparator)
//  2. A stable serialization (the backup store payload)
//  3. A content hash (cheap change detection and log correlation)
//
// All three are built on one canonical serialization: object keys sorted,
// strings NFC-normalized, no HTML escaping. Two snapshots are equal exactly
// when their canonical bytes are equal. The same canonical bytes are what the
// backup store persists, so host and engine agree on format without the
// engine understanding field semantics.
//
// Unlike a content-addressed event log, form snapshots carry user-entered
// numeric readings, so Number is a full float64 - the canonical form uses
// the shortest round-trippable representation.
package snapshot
