package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldform/draftsync/internal/snapshot"
)

// Draft is one persisted backup entry: the session's latest snapshot plus
// the wall-clock time it was written. There is no engine-added envelope
// beyond saved_at - the stored payload is the snapshot's own canonical form.
type Draft struct {
	SessionKey string
	Snapshot   snapshot.Value
	SavedAt    time.Time
}

// Put writes the backup for a session key, overwriting any prior entry.
// Last writer wins - the store never merges two snapshots.
//
// Returns an error if the snapshot cannot be serialized or the write fails.
// Callers (the engine) soft-log and swallow these errors so a full disk or
// locked database never blocks data entry.
func (s *Store) Put(ctx context.Context, key string, snap snapshot.Value, savedAt time.Time) error {
	if key == "" {
		return fmt.Errorf("put draft: empty session key")
	}

	payload, err := snapshot.MarshalCanonical(snap)
	if err != nil {
		return fmt.Errorf("put draft %s: marshal snapshot: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (session_key, snapshot, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			snapshot = excluded.snapshot,
			saved_at = excluded.saved_at
	`, key, string(payload), savedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put draft %s: %w", key, err)
	}

	return nil
}

// Get returns the backup for a session key, or nil if none exists.
//
// A row whose snapshot no longer parses is treated as absent, not as an
// error state: the corrupt entry is logged and nil is returned, so recovery
// detection degrades quietly instead of surfacing a broken offer.
func (s *Store) Get(ctx context.Context, key string) (*Draft, error) {
	var (
		payload string
		savedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot, saved_at FROM drafts WHERE session_key = ?
	`, key).Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", key, err)
	}

	snap, err := snapshot.FromJSON([]byte(payload))
	if err != nil {
		slog.Warn("draft backup corrupt, treating as absent",
			"session_key", key,
			"error", err,
		)
		return nil, nil
	}

	return &Draft{
		SessionKey: key,
		Snapshot:   snap,
		SavedAt:    time.UnixMilli(savedAt),
	}, nil
}

// Clear removes the backup for a session key. Idempotent - clearing a key
// with no entry is not an error.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE session_key = ?`, key)
	if err != nil {
		return fmt.Errorf("clear draft %s: %w", key, err)
	}
	return nil
}

// List returns all stored drafts ordered by most recent first.
// Corrupt rows are skipped with a warning. Used by the CLI inspection
// commands; the engine itself only ever touches its own session key.
func (s *Store) List(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_key, snapshot, saved_at
		FROM drafts
		ORDER BY saved_at DESC, session_key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var (
			key     string
			payload string
			savedAt int64
		)
		if err := rows.Scan(&key, &payload, &savedAt); err != nil {
			return nil, fmt.Errorf("list drafts: scan: %w", err)
		}

		snap, err := snapshot.FromJSON([]byte(payload))
		if err != nil {
			slog.Warn("skipping corrupt draft backup",
				"session_key", key,
				"error", err,
			)
			continue
		}

		drafts = append(drafts, Draft{
			SessionKey: key,
			Snapshot:   snap,
			SavedAt:    time.UnixMilli(savedAt),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drafts: iterate: %w", err)
	}

	if drafts == nil {
		drafts = []Draft{}
	}

	return drafts, nil
}
