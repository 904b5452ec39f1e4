package domain

import (
	"fmt"
	"math"
)

// TimestampInfo describes the current playback position of a tab.
type TimestampInfo struct {
	Timestamp     float64 `json:"timestamp"`
	FormattedTime string  `json:"formattedTime"`
	VideoTitle    string  `json:"videoTitle"`
	VideoURL      string  `json:"videoUrl"`
	Platform      string  `json:"platform"`
}

// PendingNote is a captured timestamp waiting for a note-entry surface.
type PendingNote struct {
	TimestampInfo
	TimestampTrigger int64 `json:"timestamp_trigger"` // unix ms
}

// Progress is the periodic playback report of a controller.
type Progress struct {
	Title       string `json:"title"`
	Progress    int    `json:"progress"` // rounded percent
	CurrentTime string `json:"currentTime"`
	Duration    string `json:"duration"`
}

// Completion is a finished video reported by a controller. Nil Duration
// and Speed mean the page did not report them.
type Completion struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Duration       *float64 `json:"duration,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	Platform       string   `json:"platform"`
	RequestSummary bool     `json:"requestSummary,omitempty"`
}

// DurationOrZero returns the reported duration, or 0.
func (c Completion) DurationOrZero() float64 {
	if c.Duration == nil {
		return 0
	}
	return *c.Duration
}

// SpeedOrDefault returns the reported speed, or 1.0.
func (c Completion) SpeedOrDefault() float64 {
	if c.Speed == nil {
		return 1.0
	}
	return *c.Speed
}

// Notice is a user-visible message pushed to display surfaces.
type Notice struct {
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

// FormatTime renders seconds as h:mm:ss, or m:ss under an hour.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
