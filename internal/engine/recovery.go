package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldform/draftsync/internal/backup"
	"github.com/fieldform/draftsync/internal/snapshot"
)

// RecoveryOffer is a pending binary decision surfaced to the user when a
// local backup diverges from the freshly loaded server snapshot: recover
// the local work, or dismiss it and keep the server state. No automatic
// merge is attempted - the two sources can diverge in unpredictable ways
// (someone else may have completed the report from another device).
type RecoveryOffer struct {
	store *backup.Store
	key   string
	draft backup.Draft
}

// DetectRecovery checks the backup store for orphaned local work. Call it
// on session initialization, after the server-authoritative snapshot has
// loaded.
//
// Returns nil when there is no backup, the backup matches the server
// snapshot, or the store cannot be read (a storage failure degrades to "no
// offer" with a warning - it never blocks session start).
func DetectRecovery(ctx context.Context, store *backup.Store, sessionKey string, server snapshot.Value) *RecoveryOffer {
	draft, err := store.Get(ctx, sessionKey)
	if err != nil {
		slog.Warn("recovery detection skipped: backup store unreadable",
			"session_key", sessionKey,
			"error", err,
		)
		return nil
	}
	if draft == nil {
		return nil
	}

	if !snapshot.Changed(server, draft.Snapshot) {
		// Backup is identical to what the server already has; nothing to
		// offer. The entry stays - only dismissal or terminal completion
		// deletes it.
		return nil
	}

	return &RecoveryOffer{
		store: store,
		key:   sessionKey,
		draft: *draft,
	}
}

// Snapshot returns the backed-up form state. The recover path: the host
// overwrites its in-memory state with this value and feeds it back through
// Update, letting normal autosave push it to the server on the next cycle.
// The backup store is left untouched.
func (o *RecoveryOffer) Snapshot() snapshot.Value {
	return o.draft.Snapshot
}

// SavedAt returns when the backup was written, for display in the offer.
func (o *RecoveryOffer) SavedAt() time.Time {
	return o.draft.SavedAt
}

// Dismiss discards the backup and keeps the server snapshot.
func (o *RecoveryOffer) Dismiss(ctx context.Context) error {
	return o.store.Clear(ctx, o.key)
}
