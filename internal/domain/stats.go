package domain

import "time"

// Local namespace keys.
const (
	KeyStats          = "stats"
	KeyActivityLog    = "activityLog"
	KeyVideoSummaries = "videoSummaries"
	KeyVideoNotes     = "videoNotes"
	KeyPendingNote    = "pendingNote"
)

// MaxVideoHistory caps Stats.Videos.
const MaxVideoHistory = 100

// VideoRecord is one completed video in the stats history.
type VideoRecord struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Duration    float64   `json:"duration"`
	Speed       float64   `json:"speed"`
	Platform    string    `json:"platform"`
	CompletedAt time.Time `json:"completedAt"`
}

// Stats aggregates completed-video events.
type Stats struct {
	VideosWatched    int           `json:"videosWatched"`
	TotalTimeSeconds float64       `json:"totalTimeSeconds"`
	TotalSpeedUsed   float64       `json:"totalSpeedUsed"`
	SpeedCount       int           `json:"speedCount"`
	Videos           []VideoRecord `json:"videos"` // newest first
}

// NewStats returns zeroed stats with an empty history.
func NewStats() Stats {
	return Stats{Videos: []VideoRecord{}}
}

// AverageSpeed is TotalSpeedUsed / SpeedCount, or 1.0 before any completion.
func (s Stats) AverageSpeed() float64 {
	if s.SpeedCount == 0 {
		return 1.0
	}
	return s.TotalSpeedUsed / float64(s.SpeedCount)
}

// TimeSavedSeconds is the wall-clock time saved by watching faster than 1x.
func (s Stats) TimeSavedSeconds() float64 {
	avg := s.AverageSpeed()
	if avg == 0 {
		return 0
	}
	return s.TotalTimeSeconds - s.TotalTimeSeconds/avg
}

// StatsView is Stats plus its derived metrics, as shown to display surfaces.
type StatsView struct {
	Stats
	AverageSpeed     float64 `json:"averageSpeed"`
	TimeSavedSeconds float64 `json:"timeSavedSeconds"`
}

// View returns s with derived metrics filled in.
func (s Stats) View() StatsView {
	return StatsView{
		Stats:            s,
		AverageSpeed:     s.AverageSpeed(),
		TimeSavedSeconds: s.TimeSavedSeconds(),
	}
}

// Insights summarises learning habits from the stats history and activity log.
type Insights struct {
	Platforms     map[string]int `json:"platforms"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
	LastActivity  string         `json:"lastActivity,omitempty"` // YYYY-MM-DD
	DailyActions  map[string]int `json:"dailyActions"`           // YYYY-MM-DD -> count, last 30 days
}
