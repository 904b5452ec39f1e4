package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestEnv(t)

	_, err := src.services.Summaries.Generate(ctx, domain.VideoInfo{Title: "Go Channels", URL: "https://y/ch", Platform: "youtube"})
	require.NoError(t, err)
	note, err := src.services.Notes.Create(ctx, domain.NoteInput{VideoURL: "https://y/ch", NoteText: "buffered vs unbuffered"})
	require.NoError(t, err)

	exporter := NewSyncService(src.services.Summaries, src.services.Notes, logger.Discard())
	exporter.now = func() time.Time { return time.Date(2026, 3, 2, 8, 4, 5, 0, time.UTC) }

	dir := t.TempDir()
	path, err := exporter.Export(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sync_package_20260302_080405.json"), path)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	dst := newTestEnv(t)
	importer := NewSyncService(dst.services.Summaries, dst.services.Notes, logger.Discard())

	res, err := importer.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SummariesImported)
	assert.Equal(t, 1, res.NotesImported)
	assert.Equal(t, "2026-03-02T08:04:05Z", res.ExportedAt)

	notes, err := dst.services.Notes.List(ctx, domain.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)

	// Importing again adds no duplicate notes.
	res, err = importer.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, res.NotesImported)
}

func TestSyncService_ImportLegacyPackage(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSyncService(env.services.Summaries, env.services.Notes, logger.Discard())

	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{"exported_at": "2025-01-01T10:00:00.123456", "summaries": {"https://y/x": {"title": "Legacy", "url": "https://y/x"}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	res, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SummariesImported)
	assert.Equal(t, "2025-01-01T10:00:00.123456", res.ExportedAt)
}

func TestSyncService_ImportInvalid(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSyncService(env.services.Summaries, env.services.Notes, logger.Discard())

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := svc.ImportFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	res, err := svc.Import(context.Background(), SyncPackage{})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", res.ExportedAt)
}
