package automation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/stretchr/testify/require"
)

// fakePage is an in-memory Page. A nil video means no element.
type fakePage struct {
	mu      sync.Mutex
	url     string
	title   string
	video   *VideoState
	texts   map[string]string
	attrs   map[string]string // selector + "@" + name
	visible map[string]bool
	onClick map[string]func(p *fakePage)

	playRefused bool
	plays       int
	clicks      []string
	seeks       []float64
}

func newFakePage(url string) *fakePage {
	return &fakePage{
		url:     url,
		texts:   map[string]string{},
		attrs:   map[string]string{},
		visible: map[string]bool{},
		onClick: map[string]func(p *fakePage){},
	}
}

func (p *fakePage) Video(context.Context) (VideoState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.video == nil {
		return VideoState{}, ErrNoVideo
	}
	return *p.video, nil
}

func (p *fakePage) SetPlaybackRate(_ context.Context, rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.video != nil {
		p.video.PlaybackRate = rate
	}
	return nil
}

func (p *fakePage) Seek(_ context.Context, seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	if p.video != nil {
		p.video.CurrentTime = seconds
	}
	return nil
}

func (p *fakePage) Play(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	if p.video != nil && !p.playRefused {
		p.video.Paused = false
	}
	return nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Text(_ context.Context, selectors ...string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		if t := p.texts[s]; t != "" {
			return t, nil
		}
	}
	return "", nil
}

func (p *fakePage) ClickVisible(_ context.Context, selectors ...string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		if p.visible[s] {
			p.clicks = append(p.clicks, s)
			if fn := p.onClick[s]; fn != nil {
				fn(p)
			}
			return true, nil
		}
	}
	return false, nil
}

// ClickAllVisible counts each visible selector as one element.
func (p *fakePage) ClickAllVisible(_ context.Context, selectors ...string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range selectors {
		if p.visible[s] {
			n++
			p.clicks = append(p.clicks, s)
			if fn := p.onClick[s]; fn != nil {
				fn(p)
			}
		}
	}
	return n, nil
}

func (p *fakePage) Attribute(_ context.Context, selector, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attrs[selector+"@"+name], nil
}

func (p *fakePage) Title(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *fakePage) update(fn func(p *fakePage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakePage) clicked(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clicks {
		if c == selector {
			return true
		}
	}
	return false
}

func (p *fakePage) clickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == selector {
			n++
		}
	}
	return n
}

func (p *fakePage) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

// fakeBackground records everything sent to the background context.
type fakeBackground struct {
	mu       sync.Mutex
	msgs     []bus.Message
	settings domain.Settings
}

func (f *fakeBackground) handle(_ context.Context, msg bus.Message) bus.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	if msg.Action == domain.ActionGetSettings {
		return bus.OK(f.settings)
	}
	return bus.OK(nil)
}

func (f *fakeBackground) byAction(action string) []bus.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bus.Message
	for _, m := range f.msgs {
		if m.Action == action {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeBackground) activityTypes() []string {
	var out []string
	for _, m := range f.byAction(domain.ActionLogActivity) {
		var entry domain.ActivityEntry
		if err := m.Bind(&entry); err == nil {
			out = append(out, entry.Type)
		}
	}
	return out
}

func (f *fakeBackground) countActivity(typ string) int {
	n := 0
	for _, t := range f.activityTypes() {
		if t == typ {
			n++
		}
	}
	return n
}

func testIntervals() Intervals {
	return Intervals{
		Progress:    10 * time.Millisecond,
		Speed:       15 * time.Millisecond,
		Resume:      20 * time.Millisecond,
		AdSkip:      10 * time.Millisecond,
		ResumeAfter: 30 * time.Millisecond,
		SkipSettle:  20 * time.Millisecond,
	}
}

type harness struct {
	bus  *bus.Bus
	bg   *fakeBackground
	page *fakePage
	ctrl *Controller
}

func setupController(t *testing.T, platform string, page *fakePage) *harness {
	t.Helper()
	log := logger.Discard()
	b := bus.New(log)
	t.Cleanup(b.Close)

	bg := &fakeBackground{settings: domain.DefaultSettings()}
	bctx, err := b.Attach(bus.KindBackground, bus.BackgroundID)
	require.NoError(t, err)
	bctx.Fallback(bg.handle)

	p := mustPlatform(t, platform)
	ctrl, err := New(Options{
		TabID:     "1",
		Page:      page,
		Platform:  p,
		Bus:       b,
		Logger:    log,
		Intervals: testIntervals(),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	return &harness{bus: b, bg: bg, page: page, ctrl: ctrl}
}

func mustPlatform(t *testing.T, name string) Platform {
	t.Helper()
	platforms, err := Platforms()
	require.NoError(t, err)
	for _, p := range platforms {
		if p.Name() == name {
			return p
		}
	}
	t.Fatalf("no platform %q", name)
	return nil
}

func (h *harness) request(t *testing.T, action string, payload any) bus.Reply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return h.bus.Request(ctx, bus.Tab("1"), bus.MustMessage(action, payload))
}
