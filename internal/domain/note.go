package domain

import "time"

// Note field defaults applied on create.
const (
	DefaultFormattedTime = "00:00"
	DefaultVideoTitle    = "Untitled Video"
	DefaultPlatform      = "unknown"
)

// NoteFormat says how NoteText is encoded.
type NoteFormat string

// Note formats. The empty format is plain text.
const (
	NoteFormatText NoteFormat = "text"
	NoteFormatHTML NoteFormat = "html"
)

// Note is a timestamped note on a video.
type Note struct {
	ID            string     `json:"id"`
	Timestamp     float64    `json:"timestamp"` // seconds into the video
	FormattedTime string     `json:"formattedTime"`
	NoteText      string     `json:"noteText"`
	Format        NoteFormat `json:"format,omitempty"` // empty means plain text
	VideoTitle    string     `json:"videoTitle"`
	VideoURL      string     `json:"videoUrl"`
	Platform      string     `json:"platform"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsHTML reports whether NoteText holds sanitised markup.
func (n Note) IsHTML() bool { return n.Format == NoteFormatHTML }

// HasAnyTag reports whether the note carries at least one of tags.
func (n Note) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range n.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// VideoNotes maps a video URL to its notes, sorted ascending by Timestamp.
type VideoNotes map[string][]Note

// NoteInput is the payload of a create request.
type NoteInput struct {
	VideoURL      string     `json:"videoUrl" validate:"required"`
	NoteText      string     `json:"noteText" validate:"required"`
	Format        NoteFormat `json:"format,omitempty" validate:"omitempty,oneof=text html"`
	Timestamp     float64    `json:"timestamp" validate:"gte=0"`
	FormattedTime string     `json:"formattedTime,omitempty"`
	VideoTitle    string     `json:"videoTitle,omitempty"`
	Platform      string     `json:"platform,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

// NoteFilter narrows a note listing. Zero values match everything.
type NoteFilter struct {
	VideoURL string   `json:"videoUrl,omitempty"`
	Platform string   `json:"platform,omitempty"`
	Tags     []string `json:"tags,omitempty"` // any-of
}

// NoteUpdate changes the text and/or tags of an existing note.
type NoteUpdate struct {
	NoteText *string    `json:"noteText,omitempty"`
	Format   NoteFormat `json:"format,omitempty" validate:"omitempty,oneof=text html"` // empty keeps the stored format
	Tags     []string   `json:"tags,omitempty"`
	// SetTags distinguishes "replace tags with an empty list" from "leave tags".
	SetTags bool `json:"-"`
}

// NoteStatistics aggregates the note collection.
type NoteStatistics struct {
	TotalNotes           int            `json:"total_notes"`
	TotalVideos          int            `json:"total_videos"`
	AverageNotesPerVideo float64        `json:"average_notes_per_video"`
	Platforms            map[string]int `json:"platforms"`
	TotalTags            int            `json:"total_tags"`
	Tags                 []string       `json:"tags"`
}

// ExportFormat selects the note export rendering.
type ExportFormat string

// Export formats.
const (
	ExportMarkdown ExportFormat = "markdown"
	ExportText     ExportFormat = "text"
	ExportJSON     ExportFormat = "json"
)
