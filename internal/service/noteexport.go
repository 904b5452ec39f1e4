package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/richtext"
)

const ruleWidth = 50

// Export renders the notes of one video, or all notes, in format.
func (s *NoteService) Export(ctx context.Context, format domain.ExportFormat, videoURL string) (string, error) {
	if err := s.validator.Var("format", string(format), "oneof=markdown text json"); err != nil {
		return "", err
	}

	notes, err := s.List(ctx, domain.NoteFilter{VideoURL: videoURL})
	if err != nil {
		return "", err
	}

	switch format {
	case domain.ExportJSON:
		data, err := json.MarshalIndent(notes, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode notes: %w", err)
		}
		return string(data), nil
	case domain.ExportMarkdown:
		return exportMarkdown(notes), nil
	default:
		return exportText(notes), nil
	}
}

func exportMarkdown(notes []domain.Note) string {
	var b strings.Builder
	b.WriteString("# Video Notes\n\n")

	// Group by video, in order of first appearance.
	var order []string
	groups := make(map[string][]domain.Note)
	for _, n := range notes {
		if _, seen := groups[n.VideoURL]; !seen {
			order = append(order, n.VideoURL)
		}
		groups[n.VideoURL] = append(groups[n.VideoURL], n)
	}

	for _, url := range order {
		group := groups[url]
		first := group[0]
		fmt.Fprintf(&b, "## %s\n", first.VideoTitle)
		fmt.Fprintf(&b, "**Platform:** %s\n", richtext.Title(first.Platform))
		fmt.Fprintf(&b, "**URL:** %s\n\n", url)

		for _, n := range group {
			fmt.Fprintf(&b, "### [%s] %s\n", n.FormattedTime, noteMarkdown(n))
			if len(n.Tags) > 0 {
				fmt.Fprintf(&b, "*Tags: %s*\n", strings.Join(n.Tags, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

func exportText(notes []domain.Note) string {
	var b strings.Builder
	b.WriteString("VIDEO NOTES\n" + strings.Repeat("=", ruleWidth) + "\n\n")

	for _, n := range notes {
		fmt.Fprintf(&b, "[%s] %s\n", n.FormattedTime, NotePlainText(n))
		fmt.Fprintf(&b, "Video: %s\n", n.VideoTitle)
		fmt.Fprintf(&b, "Platform: %s\n", n.Platform)
		if len(n.Tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(n.Tags, ", "))
		}
		fmt.Fprintf(&b, "Created: %s\n", n.CreatedAt.Format(time.RFC3339))
		b.WriteString(strings.Repeat("-", ruleWidth) + "\n\n")
	}
	return b.String()
}

func noteMarkdown(n domain.Note) string {
	if n.IsHTML() {
		return richtext.ToMarkdown(n.NoteText)
	}
	return n.NoteText
}
