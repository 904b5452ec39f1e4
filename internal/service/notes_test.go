package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noteEpoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func setupTestNotes(t *testing.T) (*NoteService, *memKV, *recordingNotifier) {
	t.Helper()
	kv := newMemKV(store.NamespaceLocal)
	n := &recordingNotifier{}
	svc := NewNoteService(kv, validation.New(), n, logger.Discard())
	svc.now = fixedClock(noteEpoch, time.Minute)
	return svc, kv, n
}

func mustCreate(t *testing.T, svc *NoteService, in domain.NoteInput) domain.Note {
	t.Helper()
	note, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return note
}

func TestNoteService_CreateDefaults(t *testing.T) {
	svc, _, n := setupTestNotes(t)

	note := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "remember this"})

	assert.Regexp(t, regexp.MustCompile(`^note_\d+_[0-9a-z]{9}$`), note.ID)
	assert.Equal(t, domain.DefaultFormattedTime, note.FormattedTime)
	assert.Equal(t, domain.DefaultVideoTitle, note.VideoTitle)
	assert.Equal(t, domain.DefaultPlatform, note.Platform)
	assert.Equal(t, []string{}, note.Tags)
	assert.Equal(t, 0.0, note.Timestamp)
	assert.Equal(t, noteEpoch, note.CreatedAt)
	assert.Equal(t, note.CreatedAt, note.UpdatedAt)
	assert.Equal(t, []string{domain.ActionNoteAdded}, n.actions())
}

func TestNoteService_CreateValidation(t *testing.T) {
	svc, kv, _ := setupTestNotes(t)
	ctx := context.Background()

	tests := []domain.NoteInput{
		{NoteText: "x"},
		{VideoURL: "https://y/1"},
		{VideoURL: "https://y/1", NoteText: "<script>alert(1)</script>", Format: domain.NoteFormatHTML},
		{VideoURL: "https://y/1", NoteText: "   "},
	}
	for _, in := range tests {
		_, err := svc.Create(ctx, in)
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	}
	assert.False(t, kv.has(domain.KeyVideoNotes))
}

func TestNoteService_CreateKeepsListSorted(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()
	url := "https://u/lecture/1"

	for _, ts := range []float64{120, 5, 60, 5} {
		mustCreate(t, svc, domain.NoteInput{VideoURL: url, NoteText: "n", Timestamp: ts})
	}

	notes, err := svc.load(ctx)
	require.NoError(t, err)
	list := notes[url]
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Timestamp, list[i].Timestamp)
	}
	// Stable: the earlier of the two 5s notes stays first.
	assert.True(t, list[0].CreatedAt.Before(list[1].CreatedAt))
}

func TestNoteService_ListFilters(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	a := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "a", Platform: "youtube", Tags: []string{"go"}})
	b := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://u/2", NoteText: "b", Platform: "udemy", Tags: []string{"rust", "go"}})
	c := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "c", Platform: "youtube"})

	all, err := svc.List(ctx, domain.NoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(all))

	byVideo, err := svc.List(ctx, domain.NoteFilter{VideoURL: "https://y/1"})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, ids(byVideo))

	byPlatform, err := svc.List(ctx, domain.NoteFilter{Platform: "udemy"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(byPlatform))

	byTag, err := svc.List(ctx, domain.NoteFilter{Tags: []string{"go", "python"}})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(byTag))

	for _, n := range all {
		assert.NotEmpty(t, n.VideoURL)
	}
}

func TestNoteService_DeleteLastNoteRemovesKey(t *testing.T) {
	svc, _, n := setupTestNotes(t)
	ctx := context.Background()
	url := "https://y/1"

	first := mustCreate(t, svc, domain.NoteInput{VideoURL: url, NoteText: "one"})
	second := mustCreate(t, svc, domain.NoteInput{VideoURL: url, NoteText: "two"})

	ok, err := svc.Delete(ctx, url, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, url, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	notes, err := svc.load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, notes, url)

	list, err := svc.List(ctx, domain.NoteFilter{VideoURL: url})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, []string{domain.ActionNoteAdded, domain.ActionNoteAdded, domain.ActionNoteDeleted, domain.ActionNoteDeleted}, n.actions())
}

func TestNoteService_DeleteMissing(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()
	note := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "one"})

	ok, err := svc.Delete(ctx, "https://y/none", note.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Delete(ctx, "https://y/1", "note_0_missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoteService_Search(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	a := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "useEffect cleanup", VideoTitle: "React Hooks"})
	b := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/2", NoteText: "ownership rules", Tags: []string{"Borrowing"}})
	c := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/3", NoteText: "<p>Hooks <em>order</em> matters</p>", Format: domain.NoteFormatHTML})

	for _, q := range []string{"", "   "} {
		got, err := svc.Search(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	got, err := svc.Search(ctx, "HOOKS")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, ids(got))

	got, err = svc.Search(ctx, "borrowing")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(got))

	got, err = svc.Search(ctx, "order matters")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(got))
}

func TestNoteService_Update(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()
	note := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "draft", Tags: []string{"a"}})

	updated, err := svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{NoteText: ptr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.NoteText)
	assert.Equal(t, []string{"a"}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))

	updated, err = svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{SetTags: true})
	require.NoError(t, err)
	assert.Equal(t, []string{}, updated.Tags)
	assert.Equal(t, "final", updated.NoteText)

	_, err = svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{NoteText: ptr("  ")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = svc.Update(ctx, "https://y/none", note.ID, domain.NoteUpdate{NoteText: ptr("x")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = svc.Update(ctx, "https://y/1", "note_0_missing", domain.NoteUpdate{NoteText: ptr("x")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestNoteService_Statistics(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	empty, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.AverageNotesPerVideo)
	assert.Equal(t, []string{}, empty.Tags)

	mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "a", Platform: "youtube", Tags: []string{"go", "tips"}})
	mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "b", Platform: "youtube"})
	mustCreate(t, svc, domain.NoteInput{VideoURL: "https://u/2", NoteText: "c", Platform: "udemy", Tags: []string{"go"}})
	mustCreate(t, svc, domain.NoteInput{VideoURL: "https://c/3", NoteText: "d", Platform: "coursera"})

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalNotes)
	assert.Equal(t, 3, stats.TotalVideos)
	assert.Equal(t, 1.33, stats.AverageNotesPerVideo)
	assert.Equal(t, map[string]int{"youtube": 2, "udemy": 1, "coursera": 1}, stats.Platforms)
	assert.Equal(t, 2, stats.TotalTags)
	assert.Equal(t, []string{"go", "tips"}, stats.Tags)
}

func TestNoteService_ExportMarkdown(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	mustCreate(t, svc, domain.NoteInput{
		VideoURL: "https://u/react", NoteText: "<strong>deps</strong> array", Format: domain.NoteFormatHTML, FormattedTime: "1:05",
		VideoTitle: "React Hooks", Platform: "udemy", Tags: []string{"react", "hooks"},
	})

	out, err := svc.Export(ctx, domain.ExportMarkdown, "")
	require.NoError(t, err)

	want := "# Video Notes\n\n" +
		"## React Hooks\n" +
		"**Platform:** Udemy\n" +
		"**URL:** https://u/react\n\n" +
		"### [1:05] **deps** array\n" +
		"*Tags: react, hooks*\n\n" +
		"---\n\n"
	assert.Equal(t, want, out)
}

func TestNoteService_ExportText(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	mustCreate(t, svc, domain.NoteInput{
		VideoURL: "https://y/go", NoteText: "<p>close channels</p>", Format: domain.NoteFormatHTML, FormattedTime: "2:00",
		VideoTitle: "Go Channels", Platform: "youtube",
	})

	out, err := svc.Export(ctx, domain.ExportText, "https://y/go")
	require.NoError(t, err)

	want := "VIDEO NOTES\n" +
		"==================================================\n\n" +
		"[2:00] close channels\n" +
		"Video: Go Channels\n" +
		"Platform: youtube\n" +
		"Created: 2026-03-01T10:00:00Z\n" +
		"--------------------------------------------------\n\n"
	assert.Equal(t, want, out)
}

func TestNoteService_ExportJSON(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()
	note := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "a"})

	out, err := svc.Export(ctx, domain.ExportJSON, "")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  {")

	var decoded []domain.Note
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, note.ID, decoded[0].ID)
}

func TestNoteService_ExportUnknownFormat(t *testing.T) {
	svc, _, _ := setupTestNotes(t)

	_, err := svc.Export(context.Background(), "pdf", "")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestNoteService_Merge(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()
	existing := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "a", Timestamp: 50})

	added, err := svc.merge(ctx, domain.VideoNotes{
		"https://y/1": {existing, {ID: "note_1_imported", NoteText: "b", Timestamp: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	list, err := svc.List(ctx, domain.NoteFilter{VideoURL: "https://y/1"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	notes, err := svc.load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "note_1_imported", notes["https://y/1"][0].ID)
}

func ids(notes []domain.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestNoteService_CreateDerivesFormattedTime(t *testing.T) {
	svc, _, _ := setupTestNotes(t)

	note := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "x", Timestamp: 3725})
	assert.Equal(t, "1:02:05", note.FormattedTime)

	note = mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "y", Timestamp: 65, FormattedTime: "custom"})
	assert.Equal(t, "custom", note.FormattedTime)
}

func TestNoteService_PlainTextKeptVerbatim(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	texts := []string{
		"if a<b then swap",
		"loop while i<j and j>k",
		"use <vector> header",
		"x<y",
		"Tom & Jerry &amp; friends",
	}
	for i, text := range texts {
		url := fmt.Sprintf("https://y/%d", i)
		note := mustCreate(t, svc, domain.NoteInput{VideoURL: url, NoteText: text})
		assert.Equal(t, text, note.NoteText)
		assert.False(t, note.IsHTML())

		list, err := svc.List(ctx, domain.NoteFilter{VideoURL: url})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, text, list[0].NoteText)

		found, err := svc.Search(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, []string{note.ID}, ids(found), "search %q", text)
	}

	out, err := svc.Export(ctx, domain.ExportText, "https://y/1")
	require.NoError(t, err)
	assert.Contains(t, out, "loop while i<j and j>k\n")

	out, err = svc.Export(ctx, domain.ExportMarkdown, "https://y/2")
	require.NoError(t, err)
	assert.Contains(t, out, "use <vector> header\n")
}

func TestNoteService_UpdateKeepsPlainText(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()
	note := mustCreate(t, svc, domain.NoteInput{VideoURL: "https://y/1", NoteText: "draft"})

	updated, err := svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{NoteText: ptr("map<string, int> beats i<j")})
	require.NoError(t, err)
	assert.Equal(t, "map<string, int> beats i<j", updated.NoteText)

	list, err := svc.List(ctx, domain.NoteFilter{VideoURL: "https://y/1"})
	require.NoError(t, err)
	assert.Equal(t, "map<string, int> beats i<j", list[0].NoteText)
}

func TestNoteService_HTMLFormatIsSanitised(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	note := mustCreate(t, svc, domain.NoteInput{
		VideoURL: "https://y/1",
		NoteText: `<b>bold</b><script>alert(1)</script>`,
		Format:   domain.NoteFormatHTML,
	})
	assert.Equal(t, "<b>bold</b>", note.NoteText)
	assert.True(t, note.IsHTML())
	assert.Equal(t, "bold", NotePlainText(note))

	// The stored format carries over when an update omits it.
	updated, err := svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{NoteText: ptr(`<i>x</i><img src=x onerror=boom()>`)})
	require.NoError(t, err)
	assert.NotContains(t, updated.NoteText, "onerror")
	assert.True(t, updated.IsHTML())

	// Switching to text keeps the markup as literal characters.
	updated, err = svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{NoteText: ptr("<i>x</i>"), Format: domain.NoteFormatText})
	require.NoError(t, err)
	assert.Equal(t, "<i>x</i>", updated.NoteText)
	assert.False(t, updated.IsHTML())

	_, err = svc.Update(ctx, "https://y/1", note.ID, domain.NoteUpdate{Format: "pdf"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestNoteService_MergeKeepsPlainText(t *testing.T) {
	svc, _, _ := setupTestNotes(t)
	ctx := context.Background()

	added, err := svc.merge(ctx, domain.VideoNotes{
		"https://y/1": {
			{ID: "note_1_plain", NoteText: "a<b && c>d", Timestamp: 1},
			{ID: "note_2_rich", NoteText: "<p onclick=x()>hi</p>", Format: domain.NoteFormatHTML, Timestamp: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	list, err := svc.List(ctx, domain.NoteFilter{VideoURL: "https://y/1"})
	require.NoError(t, err)
	byID := map[string]domain.Note{}
	for _, n := range list {
		byID[n.ID] = n
	}
	assert.Equal(t, "a<b && c>d", byID["note_1_plain"].NoteText)
	assert.Equal(t, "<p>hi</p>", byID["note_2_rich"].NoteText)
}
