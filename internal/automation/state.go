package automation

import (
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
)

// Phase is where a controller is in its lifecycle.
type Phase int

// Controller phases.
const (
	PhaseIdle Phase = iota
	PhaseMonitoring
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMonitoring:
		return "monitoring"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// VideoInstance identifies one play-through of a video. Generation is
// bumped on navigation and on replay so a rewatched video can complete again.
type VideoInstance struct {
	URL        string
	Title      string
	Generation int
}

// State holds every per-controller flag. It is owned by one controller and
// only touched with the controller's lock held.
type State struct {
	Running  bool
	Phase    Phase
	Settings domain.Settings

	// UserPaused suppresses auto-resume until playback restarts or the
	// page navigates.
	UserPaused bool
	LastPlay   time.Time
	// Playing is the playback state observed on the previous progress tick.
	Playing bool

	Watched     int
	EndReported bool
	Video       VideoInstance
	LastURL     string

	Skip SkipAttempt
}

// SkipAttempt tracks the controller stepping over one quiz or project page.
type SkipAttempt struct {
	Since     time.Time // first tick on the page
	LastClick time.Time
	Clicks    int
}

// newInstance moves to a new play-through on url.
func (s *State) newInstance(url string) {
	s.Video = VideoInstance{URL: url, Generation: s.Video.Generation + 1}
	s.EndReported = false
	s.Playing = false
	s.Skip = SkipAttempt{}
}
