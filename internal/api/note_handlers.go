package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/domain"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes",
		Summary:     "List notes",
		Description: "Returns notes filtered by video, platform or tags",
		Tags:        []string{"Notes"},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/notes",
		Summary:       "Create note",
		Description:   "Stores a timestamped note for a video",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Update note",
		Description: "Changes the text or tags of a note",
		Tags:        []string{"Notes"},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNote",
		Method:      http.MethodDelete,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Delete note",
		Description: "Deletes a note; deleted is false when nothing matched",
		Tags:        []string{"Notes"},
	}, s.handleDeleteNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/search",
		Summary:     "Search notes",
		Description: "Case-insensitive search across note text, video title and tags",
		Tags:        []string{"Notes"},
	}, s.handleSearchNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNoteStatistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/statistics",
		Summary:     "Note statistics",
		Description: "Returns totals per video, platform and tag",
		Tags:        []string{"Notes"},
	}, s.handleNoteStatistics)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/export",
		Summary:     "Export notes",
		Description: "Renders notes as markdown, text or json",
		Tags:        []string{"Notes"},
	}, s.handleExportNotes)
}

// ListNotesInput contains note filters.
type ListNotesInput struct {
	VideoURL string `query:"videoUrl" doc:"Only notes of this video"`
	Platform string `query:"platform" doc:"Only notes from this platform"`
	Tags     string `query:"tags" doc:"Comma separated; a note matches if it has any"`
}

// NotesResponse lists notes.
type NotesResponse struct {
	Notes []domain.Note `json:"notes" doc:"Matching notes"`
}

// NotesOutput wraps a note list for Huma.
type NotesOutput struct {
	Body NotesResponse
}

// CreateNoteRequest is the body of a new note.
type CreateNoteRequest struct {
	VideoURL      string   `json:"videoUrl" doc:"Video the note belongs to"`
	NoteText      string   `json:"noteText" doc:"Note text, stored as given unless format is html"`
	Format        string   `json:"format,omitempty" enum:"text,html" doc:"text (default) or html; html is sanitized"`
	Timestamp     float64  `json:"timestamp,omitempty" minimum:"0" doc:"Seconds into the video"`
	FormattedTime string   `json:"formattedTime,omitempty" doc:"Display time; derived from timestamp when empty"`
	VideoTitle    string   `json:"videoTitle,omitempty" doc:"Video title"`
	Platform      string   `json:"platform,omitempty" doc:"Learning platform"`
	Tags          []string `json:"tags,omitempty" doc:"Tags"`
}

// CreateNoteInput wraps a new note for Huma.
type CreateNoteInput struct {
	Body CreateNoteRequest
}

// NoteOutput wraps one note for Huma.
type NoteOutput struct {
	Body domain.Note
}

// UpdateNoteRequest is the body of a note update. Absent fields are kept.
type UpdateNoteRequest struct {
	VideoURL string    `json:"videoUrl" minLength:"1" doc:"Video the note belongs to"`
	NoteText *string   `json:"noteText,omitempty" doc:"New note text"`
	Format   string    `json:"format,omitempty" enum:"text,html" doc:"New text format; empty keeps the stored one"`
	Tags     *[]string `json:"tags,omitempty" doc:"Replacement tag list"`
}

// UpdateNoteInput wraps a note update for Huma.
type UpdateNoteInput struct {
	ID   string `path:"id" doc:"Note ID"`
	Body UpdateNoteRequest
}

// DeleteNoteInput identifies a note to delete.
type DeleteNoteInput struct {
	ID       string `path:"id" doc:"Note ID"`
	VideoURL string `query:"videoUrl" required:"true" doc:"Video the note belongs to"`
}

// DeleteNoteResponse reports whether a note was removed.
type DeleteNoteResponse struct {
	Deleted bool `json:"deleted" doc:"False when no note matched"`
}

// DeleteNoteOutput wraps the delete result for Huma.
type DeleteNoteOutput struct {
	Body DeleteNoteResponse
}

// SearchInput is a free-text query.
type SearchInput struct {
	Query string `query:"q" doc:"Search text; blank returns nothing"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results, where supported"`
}

// NoteStatisticsOutput wraps note statistics for Huma.
type NoteStatisticsOutput struct {
	Body domain.NoteStatistics
}

// ExportNotesInput selects the export format and scope.
type ExportNotesInput struct {
	Format   string `query:"format" enum:"markdown,text,json" default:"markdown" doc:"Output format"`
	VideoURL string `query:"videoUrl" doc:"Only this video; empty exports all"`
}

// ExportResponse carries rendered notes.
type ExportResponse struct {
	Format  string `json:"format" doc:"Format used"`
	Content string `json:"content" doc:"Rendered notes"`
}

// ExportOutput wraps an export for Huma.
type ExportOutput struct {
	Body ExportResponse
}

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*NotesOutput, error) {
	filter := domain.NoteFilter{
		VideoURL: input.VideoURL,
		Platform: input.Platform,
		Tags:     splitList(input.Tags),
	}
	notes, err := s.services.Notes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &NotesOutput{Body: NotesResponse{Notes: notes}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	b := input.Body
	note, err := s.services.Notes.Create(ctx, domain.NoteInput{
		VideoURL:      b.VideoURL,
		NoteText:      b.NoteText,
		Format:        domain.NoteFormat(b.Format),
		Timestamp:     b.Timestamp,
		FormattedTime: b.FormattedTime,
		VideoTitle:    b.VideoTitle,
		Platform:      b.Platform,
		Tags:          b.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	upd := domain.NoteUpdate{NoteText: input.Body.NoteText, Format: domain.NoteFormat(input.Body.Format)}
	if input.Body.Tags != nil {
		upd.Tags = *input.Body.Tags
		upd.SetTags = true
	}
	note, err := s.services.Notes.Update(ctx, input.Body.VideoURL, input.ID, upd)
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *DeleteNoteInput) (*DeleteNoteOutput, error) {
	deleted, err := s.services.Notes.Delete(ctx, input.VideoURL, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteNoteOutput{Body: DeleteNoteResponse{Deleted: deleted}}, nil
}

func (s *Server) handleSearchNotes(ctx context.Context, input *SearchInput) (*NotesOutput, error) {
	notes, err := s.services.Notes.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	return &NotesOutput{Body: NotesResponse{Notes: notes}}, nil
}

func (s *Server) handleNoteStatistics(ctx context.Context, _ *struct{}) (*NoteStatisticsOutput, error) {
	stats, err := s.services.Notes.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	return &NoteStatisticsOutput{Body: stats}, nil
}

func (s *Server) handleExportNotes(ctx context.Context, input *ExportNotesInput) (*ExportOutput, error) {
	content, err := s.services.Notes.Export(ctx, domain.ExportFormat(input.Format), input.VideoURL)
	if err != nil {
		return nil, err
	}
	return &ExportOutput{Body: ExportResponse{Format: input.Format, Content: content}}, nil
}

// splitList parses a comma separated query value, dropping blanks.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
