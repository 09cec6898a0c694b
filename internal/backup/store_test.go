package backup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldform/draftsync/internal/snapshot"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir + "/drafts.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/drafts.db"

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestPut_Get_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	snap := snapshot.Object{
		"section_roof": snapshot.Object{"condition": snapshot.String("good")},
		"score":        snapshot.Number(4),
	}
	savedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	require.NoError(t, s.Put(ctx, "report-1001", snap, savedAt))

	draft, err := s.Get(ctx, "report-1001")
	require.NoError(t, err)
	require.NotNil(t, draft)

	assert.Equal(t, "report-1001", draft.SessionKey)
	assert.True(t, snapshot.Equal(snap, draft.Snapshot))
	assert.Equal(t, savedAt.UnixMilli(), draft.SavedAt.UnixMilli())
}

func TestPut_LastWriterWins(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := snapshot.Object{"a": snapshot.Number(1)}
	second := snapshot.Object{"a": snapshot.Number(2)}

	require.NoError(t, s.Put(ctx, "k", first, time.Now()))
	require.NoError(t, s.Put(ctx, "k", second, time.Now()))

	draft, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.True(t, snapshot.Equal(second, draft.Snapshot))
}

func TestPut_EmptyKey(t *testing.T) {
	s := setupTestStore(t)
	err := s.Put(context.Background(), "", snapshot.Object{}, time.Now())
	assert.Error(t, err)
}

func TestGet_Absent(t *testing.T) {
	s := setupTestStore(t)

	draft, err := s.Get(context.Background(), "never-written")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestGet_CorruptRowTreatedAsAbsent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Inject a row whose payload is not valid JSON.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (session_key, snapshot, saved_at) VALUES (?, ?, ?)
	`, "corrupt", "{not json", time.Now().UnixMilli())
	require.NoError(t, err)

	draft, err := s.Get(ctx, "corrupt")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestClear_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", snapshot.Object{"a": snapshot.Number(1)}, time.Now()))
	require.NoError(t, s.Clear(ctx, "k"))

	draft, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, draft)

	// Clearing again is not an error.
	require.NoError(t, s.Clear(ctx, "k"))
}

func TestList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(ctx, "older", snapshot.Object{"a": snapshot.Number(1)}, base))
	require.NoError(t, s.Put(ctx, "newer", snapshot.Object{"b": snapshot.Number(2)}, base.Add(time.Hour)))

	drafts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	// Most recent first.
	assert.Equal(t, "newer", drafts[0].SessionKey)
	assert.Equal(t, "older", drafts[1].SessionKey)
}

func TestList_SkipsCorruptRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "good", snapshot.Object{"a": snapshot.Number(1)}, time.Now()))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (session_key, snapshot, saved_at) VALUES (?, ?, ?)
	`, "bad", "][", time.Now().UnixMilli())
	require.NoError(t, err)

	drafts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "good", drafts[0].SessionKey)
}

func TestList_Empty(t *testing.T) {
	s := setupTestStore(t)

	drafts, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, drafts)
	assert.Len(t, drafts, 0)
}

func TestSessionKeysDoNotCollide(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := snapshot.Object{"form": snapshot.String("a")}
	b := snapshot.Object{"form": snapshot.String("b")}

	require.NoError(t, s.Put(ctx, "report-1", a, time.Now()))
	require.NoError(t, s.Put(ctx, "report-2", b, time.Now()))
	require.NoError(t, s.Clear(ctx, "report-1"))

	draft, err := s.Get(ctx, "report-2")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.True(t, snapshot.Equal(b, draft.Snapshot))
}
