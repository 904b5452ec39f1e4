package domain

import "time"

// Difficulty is the estimated level of a video.
type Difficulty string

// Difficulty levels.
const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// SummaryMethod identifies how a summary was produced.
const SummaryMethod = "local_analysis"

// QuizQuestion is a fixed-shape review prompt.
type QuizQuestion struct {
	Question string `json:"question"`
	Type     string `json:"type"`
	Hint     string `json:"hint"`
}

// VideoSummary is the templated summary cached per video URL.
type VideoSummary struct {
	Title           string         `json:"title"`
	URL             string         `json:"url"`
	QuickSummary    string         `json:"quick_summary"`
	KeyTakeaways    []string       `json:"key_takeaways"`
	TopicsCovered   []string       `json:"topics_covered"`
	ActionItems     []string       `json:"action_items"`
	Difficulty      Difficulty     `json:"difficulty"`
	QuizQuestions   []QuizQuestion `json:"quiz_questions"`
	DurationMinutes int            `json:"duration_minutes"`
	Platform        string         `json:"platform"`
	Timestamp       time.Time      `json:"timestamp"`
	Method          string         `json:"method"`
}

// VideoInfo is what the generator needs to know about a video.
type VideoInfo struct {
	Title    string  `json:"title"`
	URL      string  `json:"url" validate:"required"`
	Platform string  `json:"platform"`
	Duration float64 `json:"duration"` // seconds
}

// VideoSummaries maps a video URL to its summary.
type VideoSummaries map[string]VideoSummary
