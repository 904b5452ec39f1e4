package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=1", "youtube"},
		{"https://youtu.be/abc", "youtube"},
		{"https://www.udemy.com/course/go/learn/lecture/1", "udemy"},
		{"https://www.coursera.org/learn/ml/lecture/x", "coursera"},
		{"https://www.linkedin.com/learning/go-essential", "linkedin"},
		{"https://www.skillshare.com/en/classes/design/123", "skillshare"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p, ok := Detect(tt.url)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Name())
		})
	}

	_, ok := Detect("https://example.com/watch")
	assert.False(t, ok)
	_, ok = Detect("https://notyoutube.com/watch")
	assert.False(t, ok)
}

func TestPlatform_IsWatchPage(t *testing.T) {
	yt := mustPlatform(t, "youtube")
	assert.True(t, yt.IsWatchPage("https://www.youtube.com/watch?v=1"))
	assert.False(t, yt.IsWatchPage("https://www.youtube.com/feed/subscriptions"))

	udemy := mustPlatform(t, "udemy")
	assert.True(t, udemy.IsWatchPage("https://www.udemy.com/course/go/learn/lecture/1"))
	assert.False(t, udemy.IsWatchPage("https://www.udemy.com/course/go/learn/quiz/2"))
}

func TestPlatform_IsInterstitial(t *testing.T) {
	tests := []struct {
		platform string
		url      string
		want     bool
	}{
		{"udemy", "https://www.udemy.com/course/go/learn/quiz/2", true},
		{"udemy", "https://www.udemy.com/course/go/learn/lecture/1", false},
		{"coursera", "https://www.coursera.org/learn/ml/quiz/abc/check", true},
		{"coursera", "https://www.coursera.org/learn/ml/exam/final", true},
		{"coursera", "https://www.coursera.org/learn/ml/lecture/xyz", false},
		{"linkedin", "https://www.linkedin.com/learning/go-essential/quiz", true},
		{"linkedin", "https://www.linkedin.com/learning/go-essential/chapter-assessment", true},
		{"linkedin", "https://www.linkedin.com/learning/go-essential/maps", false},
		{"skillshare", "https://www.skillshare.com/en/classes/design/123/projects", true},
		{"youtube", "https://www.youtube.com/watch?v=quiz", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, mustPlatform(t, tt.platform).IsInterstitial(tt.url))
		})
	}
}

func TestPlatform_SkipInterstitial(t *testing.T) {
	ctx := context.Background()
	page := newFakePage(udemyQuiz)
	page.visible[".curriculum-item-link.active + .curriculum-item-link"] = true

	ok, err := mustPlatform(t, "udemy").SkipInterstitial(ctx, page)
	require.NoError(t, err)
	assert.True(t, ok)

	page.visible[`button[data-purpose="next-item"]`] = true
	_, err = mustPlatform(t, "udemy").SkipInterstitial(ctx, page)
	require.NoError(t, err)
	assert.True(t, page.clicked(`button[data-purpose="next-item"]`), "earlier selectors win")

	ok, err = mustPlatform(t, "youtube").SkipInterstitial(ctx, page)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlatform_DismissClosesEveryPrompt(t *testing.T) {
	page := newFakePage(udemyLecture)
	page.visible[`[data-purpose="modal-close"]`] = true
	page.visible[`[data-purpose="dismiss-button"]`] = true

	require.NoError(t, mustPlatform(t, "udemy").Dismiss(context.Background(), page))
	assert.True(t, page.clicked(`[data-purpose="modal-close"]`))
	assert.True(t, page.clicked(`[data-purpose="dismiss-button"]`))
	assert.False(t, page.clicked(".ud-modal-close"))
}

func TestPlatform_Flags(t *testing.T) {
	udemy := mustPlatform(t, "udemy")
	assert.True(t, udemy.RequestSummary())
	assert.True(t, udemy.AutoResume())
	assert.False(t, udemy.ManualAdvance())

	yt := mustPlatform(t, "youtube")
	assert.False(t, yt.RequestSummary())
	assert.False(t, yt.AutoResume())
}

func TestPlatform_VideoTitle(t *testing.T) {
	ctx := context.Background()
	udemy := mustPlatform(t, "udemy")

	page := newFakePage(udemyLecture)
	page.title = "Goroutines | Udemy"
	assert.Equal(t, "Goroutines", udemy.VideoTitle(ctx, page))

	page.texts[".ud-heading-xl"] = "Select Statements"
	assert.Equal(t, "Select Statements", udemy.VideoTitle(ctx, page))
}

func TestPlatform_EnableAutoplay(t *testing.T) {
	ctx := context.Background()
	yt := mustPlatform(t, "youtube")

	page := newFakePage(youtubeWatch)
	page.visible[".ytp-autonav-toggle-button"] = true
	page.attrs[".ytp-autonav-toggle-button@aria-checked"] = "true"

	enabled, err := yt.EnableAutoplay(ctx, page)
	require.NoError(t, err)
	assert.False(t, enabled, "already on")

	page.attrs[".ytp-autonav-toggle-button@aria-checked"] = "false"
	enabled, err = yt.EnableAutoplay(ctx, page)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestPlatform_ResumeFallsBackToPlay(t *testing.T) {
	page := newFakePage(courseraVideo)
	page.video = &VideoState{Paused: true}

	require.NoError(t, mustPlatform(t, "coursera").Resume(context.Background(), page))
	assert.Equal(t, 1, page.playCount())
	assert.False(t, page.video.Paused)
}

func TestPlatform_Advance(t *testing.T) {
	page := newFakePage(udemyLecture)
	page.visible[`[data-purpose="go-to-next"]`] = true

	ok, err := mustPlatform(t, "udemy").Advance(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mustPlatform(t, "youtube").Advance(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParsePlatforms_Invalid(t *testing.T) {
	_, err := ParsePlatforms([]byte("platforms:\n  - name: nohosts\n"))
	require.Error(t, err)

	_, err = ParsePlatforms([]byte("platforms: [unterminated"))
	require.Error(t, err)
}

func TestVideoState_Progress(t *testing.T) {
	assert.Equal(t, 0, VideoState{CurrentTime: 5}.Progress())
	assert.Equal(t, 33, VideoState{CurrentTime: 1, Duration: 3}.Progress())
	assert.Equal(t, 100, VideoState{CurrentTime: 60, Duration: 60}.Progress())
}
