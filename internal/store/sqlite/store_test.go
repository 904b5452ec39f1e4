package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sync.db")
	s, err := Open(dbPath, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	require.NoError(t, s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name))
	assert.Equal(t, store.NamespaceSync, s.Namespace())
}

func TestOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sync.db")
	ctx := context.Background()

	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, domain.DefaultSettings().Values()))
	require.NoError(t, s.Close())

	// Schema is idempotent and values survive a reopen.
	s2, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer s2.Close()

	values, err := s2.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, values, len(domain.SettingsKeys))
}

func TestStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]any{domain.KeyPlaybackSpeed: 1.5}))
	require.NoError(t, s.Set(ctx, map[string]any{domain.KeyPlaybackSpeed: 2.0, domain.KeyIsRunning: true}))

	values, err := s.Get(ctx, domain.KeyPlaybackSpeed, domain.KeyIsRunning, domain.KeyVideoLimit)
	require.NoError(t, err)
	assert.Len(t, values, 2)

	var speed float64
	found, err := store.Decode(values, domain.KeyPlaybackSpeed, &speed)
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 2.0, speed, 0.0001)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]any{"a": 1, "b": 2}))
	require.NoError(t, s.Remove(ctx, "a", "zzz"))

	values, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Contains(t, values, "b")
	assert.NotContains(t, values, "a")
}

func TestStore_UpdatedAt(t *testing.T) {
	s := newTestStore(t)
	fixed := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]any{domain.KeyVideoLimit: 4}))

	at, found, err := s.UpdatedAt(ctx, domain.KeyVideoLimit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, fixed.Equal(at))

	_, found, err = s.UpdatedAt(ctx, "never")
	require.NoError(t, err)
	assert.False(t, found)
}
