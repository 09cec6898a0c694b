// Package backup implements the local draft backup store.
//
// The store keeps one durable safety copy of the form snapshot per editing
// session, independent of network state. It is the crash/reload recovery
// net: every edit overwrites the session's slot synchronously, so after any
// interruption the most recent local work can be offered back to the user.
//
// Storage is a per-profile SQLite database with WAL mode. One row per
// session key, last writer wins - the store never merges two snapshots.
//
// Failure posture: callers treat write failures as soft (logged, never
// blocking data entry) and corrupt rows as absent. Losing the safety net is
// preferable to blocking the form.
package backup
