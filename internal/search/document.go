// Package search keeps a Bleve full-text index over generated video
// summaries so surfaces can find past lectures by topic.
package search

import (
	"github.com/coursepilot/coursepilot/internal/domain"
)

// SummaryDocument is the indexed projection of a domain.VideoSummary.
// Documents are keyed by video URL, matching the summary cache.
type SummaryDocument struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	QuickSummary string   `json:"quick_summary"`
	Topics       []string `json:"topics"`
	Takeaways    []string `json:"takeaways"`
	Platform     string   `json:"platform"`
	Difficulty   string   `json:"difficulty"`
	GeneratedAt  int64    `json:"generated_at"` // Unix millis
}

// NewSummaryDocument projects s into its index document.
func NewSummaryDocument(s domain.VideoSummary) *SummaryDocument {
	return &SummaryDocument{
		URL:          s.URL,
		Title:        s.Title,
		QuickSummary: s.QuickSummary,
		Topics:       s.TopicsCovered,
		Takeaways:    s.KeyTakeaways,
		Platform:     s.Platform,
		Difficulty:   string(s.Difficulty),
		GeneratedAt:  s.Timestamp.UnixMilli(),
	}
}

// ToMap converts the document to a map keyed by the mapped field names.
// Bleve would otherwise index the Go field names.
func (d *SummaryDocument) ToMap() map[string]any {
	m := map[string]any{
		"url":           d.URL,
		"title":         d.Title,
		"quick_summary": d.QuickSummary,
		"platform":      d.Platform,
		"difficulty":    d.Difficulty,
		"generated_at":  d.GeneratedAt,
	}
	if len(d.Topics) > 0 {
		m["topics"] = d.Topics
	}
	if len(d.Takeaways) > 0 {
		m["takeaways"] = d.Takeaways
	}
	return m
}
