package store_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/sse"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt, ok := event.(sse.Event); ok {
		r.events = append(r.events, evt)
	}
}

func (r *recordingEmitter) snapshot() []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sse.Event(nil), r.events...)
}

func setupTestStore(t *testing.T, emitter store.EventEmitter) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "coursepilot-local-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "local"), nil, emitter)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})
	return s
}

func TestStore_SetAndGet(t *testing.T) {
	s := setupTestStore(t, store.NewNoopEmitter())
	ctx := context.Background()

	stats := domain.NewStats()
	stats.VideosWatched = 3
	require.NoError(t, s.Set(ctx, map[string]any{
		domain.KeyStats:       stats,
		domain.KeyActivityLog: []domain.ActivityEntry{{Type: "automation_start"}},
	}))

	values, err := s.Get(ctx, domain.KeyStats, "missing")
	require.NoError(t, err)
	assert.Len(t, values, 1)

	var got domain.Stats
	found, err := store.Decode(values, domain.KeyStats, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.VideosWatched)

	found, err = store.Decode(values, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, store.NamespaceLocal, s.Namespace())
}

func TestStore_GetAll(t *testing.T) {
	s := setupTestStore(t, store.NewNoopEmitter())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]any{"a": 1, "b": "two"}))

	values, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, values, 2)
	assert.JSONEq(t, `"two"`, string(values["b"]))
}

func TestStore_Remove(t *testing.T) {
	s := setupTestStore(t, store.NewNoopEmitter())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]any{domain.KeyPendingNote: map[string]any{"timestamp": 12}}))
	require.NoError(t, s.Remove(ctx, domain.KeyPendingNote, "never-set"))

	var pending domain.PendingNote
	found, err := store.Load(ctx, s, domain.KeyPendingNote, &pending)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_EmitsStorageChanged(t *testing.T) {
	rec := &recordingEmitter{}
	s := setupTestStore(t, rec)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]any{"b": 1, "a": 2}))
	require.NoError(t, s.Remove(ctx, "a"))

	events := rec.snapshot()
	require.Len(t, events, 2)

	first, ok := events[0].Data.(sse.StorageChangedEventData)
	require.True(t, ok)
	assert.Equal(t, sse.EventStorageChanged, events[0].Type)
	assert.Equal(t, "local", first.Namespace)
	assert.Equal(t, []string{"a", "b"}, first.Keys)
	assert.False(t, first.Removed)

	second, ok := events[1].Data.(sse.StorageChangedEventData)
	require.True(t, ok)
	assert.True(t, second.Removed)
}

func TestStore_SetRejectsUnencodable(t *testing.T) {
	rec := &recordingEmitter{}
	s := setupTestStore(t, rec)

	err := s.Set(context.Background(), map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
	assert.Empty(t, rec.snapshot())
}

func TestStore_CanceledContext(t *testing.T) {
	s := setupTestStore(t, store.NewNoopEmitter())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Set(ctx, map[string]any{"a": 1}), context.Canceled)
}
