package summary

import (
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"Complete Guide to React Hooks Tutorial", []string{"react", "hooks"}},
		{"", []string{}},
		{"Intro: Go (Golang) - channels_and_goroutines!", []string{"intro", "golang", "channels", "goroutines"}},
		{"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty",
			[]string{"three", "four", "five", "seven", "eight", "nine", "eleven", "twelve", "thirteen", "fourteen"}},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.title))
		})
	}
}

func TestEstimateDifficulty(t *testing.T) {
	assert.Equal(t, domain.Advanced, EstimateDifficulty("Advanced Kubernetes Deep Dive"))
	assert.Equal(t, domain.Beginner, EstimateDifficulty("Python for Beginners 101"))
	assert.Equal(t, domain.Intermediate, EstimateDifficulty("Building REST APIs"))
	// Beginner markers are checked first.
	assert.Equal(t, domain.Beginner, EstimateDifficulty("Introduction to Advanced Topics"))
}

func TestDurationMinutes(t *testing.T) {
	assert.Equal(t, 10, DurationMinutes(600))
	assert.Equal(t, 1, DurationMinutes(90))
	assert.Equal(t, 0, DurationMinutes(29))
	assert.Equal(t, 0, DurationMinutes(0))
}

func TestKeyTakeaways_Capped(t *testing.T) {
	got := KeyTakeaways("T", []string{"a1", "b2", "c3", "d4", "e5"})
	require.Len(t, got, 7)
	assert.Equal(t, "Understanding of T", got[0])
	assert.Equal(t, "Key concepts related to d4", got[6])

	assert.Len(t, KeyTakeaways("T", nil), 3)
}

func TestGenerate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := domain.VideoInfo{
		Title:    "Complete Guide to React Hooks Tutorial",
		URL:      "https://www.udemy.com/course/react/learn/lecture/1",
		Platform: "udemy",
		Duration: 1260,
	}

	s := Generate(info, now)

	assert.Equal(t, `This 21-minute udemy video "Complete Guide to React Hooks Tutorial" provides comprehensive coverage of its topic. `+
		`The content is structured to deliver key concepts and practical knowledge. `+
		`Viewers can expect to gain actionable insights and understanding of the subject matter.`, s.QuickSummary)
	assert.Equal(t, []string{"react", "hooks"}, s.TopicsCovered)
	assert.Len(t, s.KeyTakeaways, 5)
	assert.Equal(t, ActionItems, s.ActionItems)
	assert.Equal(t, domain.Advanced, s.Difficulty)
	require.Len(t, s.QuizQuestions, 3)
	assert.Equal(t, `What is the main topic covered in "Complete Guide to React Hooks Tutorial"?`, s.QuizQuestions[0].Question)
	assert.Equal(t, "text", s.QuizQuestions[2].Type)
	assert.Equal(t, 21, s.DurationMinutes)
	assert.Equal(t, "udemy", s.Platform)
	assert.Equal(t, now, s.Timestamp)
	assert.Equal(t, domain.SummaryMethod, s.Method)
}

func TestGenerate_Deterministic(t *testing.T) {
	now := time.Now()
	info := domain.VideoInfo{Title: "Rust Ownership", URL: "u", Platform: "youtube", Duration: 300}
	assert.Equal(t, Generate(info, now), Generate(info, now))
}
