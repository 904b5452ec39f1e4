package automation

import (
	"context"
	"errors"
	"math"
)

// ErrNoVideo is returned by Page.Video when the page has no video element
// yet. Controllers treat it as transient and retry on the next tick.
var ErrNoVideo = errors.New("no video element")

// VideoState is a snapshot of the page's video element.
type VideoState struct {
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"` // 0 while unknown
	Paused       bool    `json:"paused"`
	Ended        bool    `json:"ended"`
	PlaybackRate float64 `json:"playbackRate"`
}

// Playing reports whether the video is advancing.
func (v VideoState) Playing() bool {
	return !v.Paused && !v.Ended
}

// Progress is the rounded percentage played, or 0 while the duration is unknown.
func (v VideoState) Progress() int {
	if v.Duration <= 0 {
		return 0
	}
	return int(math.Round(v.CurrentTime / v.Duration * 100))
}

// Page is the controller's view of a browser tab.
type Page interface {
	// Video returns the state of the first video element, or ErrNoVideo.
	Video(ctx context.Context) (VideoState, error)
	SetPlaybackRate(ctx context.Context, rate float64) error
	Seek(ctx context.Context, seconds float64) error
	Play(ctx context.Context) error
	// URL returns the current location.href.
	URL(ctx context.Context) (string, error)
	// Text returns the trimmed text of the first selector with non-empty text.
	Text(ctx context.Context, selectors ...string) (string, error)
	// ClickVisible clicks the first visible, enabled match and reports
	// whether anything was clicked.
	ClickVisible(ctx context.Context, selectors ...string) (bool, error)
	// ClickAllVisible clicks every visible, enabled match of every selector
	// and returns how many were clicked.
	ClickAllVisible(ctx context.Context, selectors ...string) (int, error)
	// Attribute returns the attribute of the first match, or "".
	Attribute(ctx context.Context, selector, name string) (string, error)
	// Title returns document.title.
	Title(ctx context.Context) (string, error)
}
