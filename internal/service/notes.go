package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/id"
	"github.com/coursepilot/coursepilot/internal/richtext"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/validation"
)

// NoteService manages per-video note lists under the videoNotes key.
//
// Each list is kept sorted ascending by playback timestamp, and a video
// whose last note is deleted loses its key.
type NoteService struct {
	kv        store.KV
	validator *validation.Validator
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewNoteService creates a new note service over the local tier.
func NewNoteService(kv store.KV, v *validation.Validator, notifier Notifier, logger *slog.Logger) *NoteService {
	return &NoteService{
		kv:        kv,
		validator: v,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores a new note and returns it with defaults filled in.
func (s *NoteService) Create(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	if err := s.validator.Validate(in); err != nil {
		return domain.Note{}, err
	}
	text, format := prepareText(in.NoteText, in.Format)
	if strings.TrimSpace(text) == "" {
		return domain.Note{}, domainerrors.ValidationWithDetails("noteText is required",
			map[string]string{"noteText": "is required"})
	}

	now := s.now().UTC()
	noteID, err := id.NoteID(now)
	if err != nil {
		return domain.Note{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate note id")
	}

	formatted := in.FormattedTime
	if formatted == "" && in.Timestamp > 0 {
		formatted = domain.FormatTime(in.Timestamp)
	}

	note := domain.Note{
		ID:            noteID,
		Timestamp:     in.Timestamp,
		FormattedTime: cmp.Or(formatted, domain.DefaultFormattedTime),
		NoteText:      text,
		Format:        format,
		VideoTitle:    cmp.Or(in.VideoTitle, domain.DefaultVideoTitle),
		VideoURL:      in.VideoURL,
		Platform:      cmp.Or(in.Platform, domain.DefaultPlatform),
		Tags:          cleanTags(in.Tags),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	notes, err := s.load(ctx)
	if err == nil {
		list := append(notes[note.VideoURL], note)
		sortByTimestamp(list)
		notes[note.VideoURL] = list
		err = s.save(ctx, notes)
	}
	s.mu.Unlock()
	if err != nil {
		return domain.Note{}, err
	}

	s.logger.Info("note created", "note_id", note.ID, "video_url", note.VideoURL)
	notifySurfaces(s.notifier, s.logger, domain.ActionNoteAdded, map[string]any{"note": note})
	return note, nil
}

// List returns notes matching filter, newest first by creation time.
func (s *NoteService) List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []domain.Note
	if filter.VideoURL != "" {
		candidates = notes[filter.VideoURL]
	} else {
		candidates = flatten(notes)
	}

	out := make([]domain.Note, 0, len(candidates))
	for _, n := range candidates {
		if filter.Platform != "" && n.Platform != filter.Platform {
			continue
		}
		if len(filter.Tags) > 0 && !n.HasAnyTag(filter.Tags) {
			continue
		}
		out = append(out, n)
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes one note. It reports false when the video has no notes or
// the id is unknown.
func (s *NoteService) Delete(ctx context.Context, videoURL, noteID string) (bool, error) {
	s.mu.Lock()
	removed, err := s.delete(ctx, videoURL, noteID)
	s.mu.Unlock()
	if err != nil || !removed {
		return false, err
	}

	s.logger.Info("note deleted", "note_id", noteID, "video_url", videoURL)
	notifySurfaces(s.notifier, s.logger, domain.ActionNoteDeleted, map[string]any{"noteId": noteID, "videoUrl": videoURL})
	return true, nil
}

func (s *NoteService) delete(ctx context.Context, videoURL, noteID string) (bool, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	list, ok := notes[videoURL]
	if !ok {
		return false, nil
	}
	kept := slices.DeleteFunc(slices.Clone(list), func(n domain.Note) bool { return n.ID == noteID })
	if len(kept) == len(list) {
		return false, nil
	}
	if len(kept) == 0 {
		delete(notes, videoURL)
	} else {
		notes[videoURL] = kept
	}
	return true, s.save(ctx, notes)
}

// Search matches query case-insensitively against note text, video title
// and tags. A blank query matches nothing.
func (s *NoteService) Search(ctx context.Context, query string) ([]domain.Note, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.Note{}, nil
	}
	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	needle := richtext.Fold(query)
	out := []domain.Note{}
	for _, n := range flatten(notes) {
		haystack := strings.Join([]string{
			NotePlainText(n),
			n.VideoTitle,
			strings.Join(n.Tags, " "),
		}, " ")
		if strings.Contains(richtext.Fold(haystack), needle) {
			out = append(out, n)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Update changes the text and/or tags of a note and bumps UpdatedAt.
func (s *NoteService) Update(ctx context.Context, videoURL, noteID string, upd domain.NoteUpdate) (domain.Note, error) {
	if err := s.validator.Validate(upd); err != nil {
		return domain.Note{}, err
	}
	if upd.NoteText != nil && strings.TrimSpace(*upd.NoteText) == "" {
		return domain.Note{}, domainerrors.ValidationWithDetails("noteText must not be empty",
			map[string]string{"noteText": "must not be empty"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	list, ok := notes[videoURL]
	if !ok {
		return domain.Note{}, domainerrors.NotFoundf("no notes for video %s", videoURL)
	}
	i := slices.IndexFunc(list, func(n domain.Note) bool { return n.ID == noteID })
	if i < 0 {
		return domain.Note{}, domainerrors.NotFoundf("note %s not found", noteID)
	}

	note := list[i]
	if upd.NoteText != nil || upd.Format != "" {
		text := note.NoteText
		if upd.NoteText != nil {
			text = *upd.NoteText
		}
		text, format := prepareText(text, cmp.Or(upd.Format, note.Format))
		if strings.TrimSpace(text) == "" {
			return domain.Note{}, domainerrors.ValidationWithDetails("noteText must not be empty",
				map[string]string{"noteText": "must not be empty"})
		}
		note.NoteText, note.Format = text, format
	}
	if upd.SetTags || upd.Tags != nil {
		note.Tags = cleanTags(upd.Tags)
	}
	note.UpdatedAt = s.now().UTC()
	list[i] = note

	if err := s.save(ctx, notes); err != nil {
		return domain.Note{}, err
	}
	s.logger.Info("note updated", "note_id", noteID, "video_url", videoURL)
	return note, nil
}

// prepareText sanitises HTML notes and keeps plain text exactly as typed.
// Plain text is stored with an empty format.
func prepareText(text string, format domain.NoteFormat) (string, domain.NoteFormat) {
	if format == domain.NoteFormatHTML {
		return richtext.Sanitize(text), domain.NoteFormatHTML
	}
	return text, ""
}

// NotePlainText returns the note text with any markup removed.
func NotePlainText(n domain.Note) string {
	if n.IsHTML() {
		return richtext.ToPlainText(n.NoteText)
	}
	return n.NoteText
}

// Statistics summarises the whole note collection.
func (s *NoteService) Statistics(ctx context.Context) (domain.NoteStatistics, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return domain.NoteStatistics{}, err
	}

	stats := domain.NoteStatistics{
		TotalVideos: len(notes),
		Platforms:   make(map[string]int),
		Tags:        []string{},
	}
	tags := make(map[string]struct{})
	for _, list := range notes {
		stats.TotalNotes += len(list)
		for _, n := range list {
			stats.Platforms[n.Platform]++
			for _, t := range n.Tags {
				tags[t] = struct{}{}
			}
		}
	}
	for t := range tags {
		stats.Tags = append(stats.Tags, t)
	}
	slices.Sort(stats.Tags)
	stats.TotalTags = len(stats.Tags)
	if stats.TotalVideos > 0 {
		avg := float64(stats.TotalNotes) / float64(stats.TotalVideos)
		stats.AverageNotesPerVideo = math.Round(avg*100) / 100
	}
	return stats, nil
}

func (s *NoteService) load(ctx context.Context) (domain.VideoNotes, error) {
	notes := domain.VideoNotes{}
	if _, err := store.Load(ctx, s.kv, domain.KeyVideoNotes, &notes); err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	if notes == nil {
		notes = domain.VideoNotes{}
	}
	return notes, nil
}

func (s *NoteService) save(ctx context.Context, notes domain.VideoNotes) error {
	if err := s.kv.Set(ctx, map[string]any{domain.KeyVideoNotes: notes}); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

// flatten returns every note, each annotated with the video it is filed
// under. Videos are visited in URL order so ties sort deterministically.
func flatten(notes domain.VideoNotes) []domain.Note {
	urls := make([]string, 0, len(notes))
	for u := range notes {
		urls = append(urls, u)
	}
	slices.Sort(urls)

	var out []domain.Note
	for _, u := range urls {
		for _, n := range notes[u] {
			n.VideoURL = u
			out = append(out, n)
		}
	}
	return out
}

func sortByTimestamp(list []domain.Note) {
	slices.SortStableFunc(list, func(a, b domain.Note) int { return cmp.Compare(a.Timestamp, b.Timestamp) })
}

func sortNewestFirst(list []domain.Note) {
	slices.SortStableFunc(list, func(a, b domain.Note) int { return b.CreatedAt.Compare(a.CreatedAt) })
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// merge adds incoming notes whose ids are not already stored and re-sorts
// every touched list. It returns the number of notes added.
func (s *NoteService) merge(ctx context.Context, incoming domain.VideoNotes) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{})
	for _, list := range notes {
		for _, n := range list {
			known[n.ID] = struct{}{}
		}
	}

	added := 0
	for url, list := range incoming {
		if url == "" {
			continue
		}
		for _, n := range list {
			if _, dup := known[n.ID]; dup || n.ID == "" {
				continue
			}
			n.VideoURL = url
			n.NoteText, n.Format = prepareText(n.NoteText, n.Format)
			n.Tags = cleanTags(n.Tags)
			notes[url] = append(notes[url], n)
			known[n.ID] = struct{}{}
			added++
		}
		if len(notes[url]) > 0 {
			sortByTimestamp(notes[url])
		}
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.save(ctx, notes)
}
