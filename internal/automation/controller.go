// Package automation drives video playback in one browser tab: it keeps the
// configured speed, skips ads, resumes stalled videos and reports progress
// and completions to the background context over the bus.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
)

// LimitNotice is shown when the video limit stops automation.
const LimitNotice = "Video limit reached! Automation stopped."

// SkipNotice is shown when a quiz or project page offers nothing to click.
const SkipNotice = "Cannot skip this page. Complete it manually, then start again."

// maxSkipClicks bounds the clicks spent on one interstitial page before
// automation gives up on it.
const maxSkipClicks = 5

// speedTolerance is how far the playback rate may drift before it is re-applied.
const speedTolerance = 0.01

// Intervals are the tick periods of the independent controller loops.
type Intervals struct {
	Progress time.Duration
	Speed    time.Duration
	Resume   time.Duration
	AdSkip   time.Duration
	// ResumeAfter is how long a video must sit paused before auto-resume.
	ResumeAfter time.Duration
	// SkipSettle is how long a quiz or project page gets to render before
	// each skip click.
	SkipSettle time.Duration
}

// DefaultIntervals returns the production tick periods.
func DefaultIntervals() Intervals {
	return Intervals{
		Progress:    time.Second,
		Speed:       3 * time.Second,
		Resume:      4 * time.Second,
		AdSkip:      500 * time.Millisecond,
		ResumeAfter: 3 * time.Second,
		SkipSettle:  1500 * time.Millisecond,
	}
}

// Options configures a Controller.
type Options struct {
	TabID     string
	Page      Page
	Platform  Platform
	Bus       *bus.Bus
	Logger    *slog.Logger
	Intervals Intervals
	Now       func() time.Time
}

// Controller automates one tab. Its ticks and bus handlers run under a
// single lock, so they never interleave.
type Controller struct {
	tabID     string
	page      Page
	platform  Platform
	reporter  *Reporter
	bctx      *bus.Context
	intervals Intervals
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	state  State
	run    int
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New attaches a controller for opts.TabID to the bus.
func New(opts Options) (*Controller, error) {
	if opts.Page == nil || opts.Platform == nil || opts.Bus == nil {
		return nil, errors.New("automation: page, platform and bus are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Intervals == (Intervals{}) {
		opts.Intervals = DefaultIntervals()
	}
	if opts.Intervals.SkipSettle == 0 {
		opts.Intervals.SkipSettle = DefaultIntervals().SkipSettle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	bctx, err := opts.Bus.Attach(bus.KindTab, opts.TabID)
	if err != nil {
		return nil, fmt.Errorf("attach tab %s: %w", opts.TabID, err)
	}

	logger := opts.Logger.With("tab_id", opts.TabID, "platform", opts.Platform.Name())
	c := &Controller{
		tabID:     opts.TabID,
		page:      opts.Page,
		platform:  opts.Platform,
		reporter:  NewReporter(opts.Bus, opts.TabID, logger),
		bctx:      bctx,
		intervals: opts.Intervals,
		logger:    logger,
		now:       opts.Now,
		state:     State{Settings: domain.DefaultSettings()},
	}

	bctx.Handle(domain.ActionStart, c.handleStart)
	bctx.Handle(domain.ActionStop, c.handleStop)
	bctx.Handle(domain.ActionSetSpeed, c.handleSetSpeed)
	bctx.Handle(domain.ActionGetCurrentTimestamp, c.handleGetCurrentTimestamp)
	bctx.Handle(domain.ActionJumpToTimestamp, c.handleJumpToTimestamp)

	return c, nil
}

// Resume asks the background for the settings and starts automation if it
// was left running, as when a tab is reopened mid-session.
func (c *Controller) Resume(ctx context.Context) error {
	reply := c.bctx.Bus().Request(ctx, bus.Background(), bus.MustMessage(domain.ActionGetSettings, nil))
	if !reply.Success {
		return reply.Err()
	}
	var settings domain.Settings
	if err := reply.Bind(&settings); err != nil {
		return err
	}
	if settings.IsRunning {
		c.Start(ctx, settings)
	}
	return nil
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins automation with settings. Starting a running controller
// replaces its settings and restarts the loops when AutoNext or
// AutoSkipAds changed.
func (c *Controller) Start(ctx context.Context, settings domain.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := &c.state
	prev := st.Settings
	st.Settings = settings
	if st.Running {
		c.applySpeed(ctx, st)
		if prev.AutoNext == settings.AutoNext && prev.AutoSkipAds == settings.AutoSkipAds {
			return
		}
		if settings.AutoNext && !prev.AutoNext {
			c.enableAutoplay(ctx)
		}
		c.logger.Info("automation loops restarted", "auto_next", settings.AutoNext, "auto_skip_ads", settings.AutoSkipAds)
		c.startLoops(settings)
		return
	}

	st.Running = true
	st.Phase = PhaseIdle
	st.Watched = 0
	st.Skip = SkipAttempt{}
	st.LastURL, _ = c.page.URL(ctx)
	c.logger.Info("automation started", "speed", settings.PlaybackSpeed, "video_limit", settings.VideoLimit)
	c.reporter.Activity(domain.ActivityAutomationStart, "Automation started on "+c.platform.Name(), st.LastURL)

	c.applySpeed(ctx, st)
	if settings.AutoNext {
		c.enableAutoplay(ctx)
	}
	c.startLoops(settings)
}

// startLoops replaces the running tickers with the set settings call for.
// Tickers of the previous run exit on cancel and skip any tick in flight.
func (c *Controller) startLoops(settings domain.Settings) {
	if c.cancel != nil {
		c.cancel()
	}
	c.run++
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.spawn(runCtx, c.run, c.intervals.Progress, c.progressTick)
	c.spawn(runCtx, c.run, c.intervals.Speed, c.speedTick)
	if c.platform.AutoResume() && settings.AutoNext {
		c.spawn(runCtx, c.run, c.intervals.Resume, c.resumeTick)
	}
	if settings.AutoSkipAds {
		c.spawn(runCtx, c.run, c.intervals.AdSkip, c.adTick)
	}
}

func (c *Controller) enableAutoplay(ctx context.Context) {
	if enabled, err := c.platform.EnableAutoplay(ctx, c.page); err != nil {
		c.logger.Debug("autoplay toggle failed", "error", err)
	} else if enabled {
		c.logger.Info("autoplay enabled")
	}
}

// Stop ends automation. Tickers exit at their next tick.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopLocked(&c.state) {
		c.reporter.Activity(domain.ActivityAutomationStop, "Automation stopped", c.state.Video.URL)
	}
}

// Close stops automation, waits for the tickers and detaches from the bus.
func (c *Controller) Close() {
	c.Stop()
	c.wg.Wait()
	c.bctx.Detach()
}

func (c *Controller) stopLocked(st *State) bool {
	if !st.Running {
		return false
	}
	st.Running = false
	st.Phase = PhaseIdle
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.logger.Info("automation stopped", "watched", st.Watched)
	return true
}

// tickFunc handles one tick. A returned completion is reported after the
// lock is released.
type tickFunc func(ctx context.Context, st *State) *domain.Completion

func (c *Controller) spawn(ctx context.Context, run int, every time.Duration, fn tickFunc) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tick(ctx, run, fn)
			}
		}
	}()
}

func (c *Controller) tick(ctx context.Context, run int, fn tickFunc) {
	c.mu.Lock()
	if !c.state.Running || run != c.run {
		c.mu.Unlock()
		return
	}
	completed := fn(ctx, &c.state)
	c.mu.Unlock()

	if completed != nil {
		// A limit stop cancels ctx; the completion must still be recorded.
		reply := c.reporter.Completed(context.WithoutCancel(ctx), *completed)
		if reply.Success {
			c.logger.Info("video completed", "video_url", completed.URL, "summary_requested", completed.RequestSummary)
		}
	}
}

// progressTick follows navigation, finds the video, reports progress and
// detects user pauses and completion.
func (c *Controller) progressTick(ctx context.Context, st *State) *domain.Completion {
	url, err := c.page.URL(ctx)
	if err != nil {
		c.logger.Debug("read location failed", "error", err)
		return nil
	}
	if url != st.LastURL {
		c.navigated(st, url)
	}
	if c.platform.IsInterstitial(url) {
		c.skipInterstitial(ctx, st, url)
		return nil
	}
	if !c.platform.IsWatchPage(url) {
		return nil
	}

	v, err := c.page.Video(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoVideo) {
			c.logger.Debug("read video failed", "error", err)
		}
		// Keep waiting for the element.
		if st.Phase == PhaseMonitoring {
			st.Phase = PhaseIdle
		}
		return nil
	}

	now := c.now()
	if st.Phase == PhaseIdle {
		c.beginMonitoring(ctx, st, url, v)
	}
	c.trackPlayback(st, v, now)

	if v.Duration > 0 {
		c.reporter.Progress(domain.Progress{
			Title:       st.Video.Title,
			Progress:    v.Progress(),
			CurrentTime: domain.FormatTime(v.CurrentTime),
			Duration:    domain.FormatTime(v.Duration),
		})
	}

	switch {
	case v.Ended && !st.EndReported:
		return c.complete(ctx, st, v)
	case !v.Ended && st.EndReported && v.Playing():
		// Replayed after finishing: a new play-through.
		title := st.Video.Title
		st.newInstance(url)
		st.Video.Title = title
		st.Phase = PhaseMonitoring
		st.Playing = true
	}
	return nil
}

func (c *Controller) navigated(st *State, url string) {
	c.logger.Info("page navigated", "url", url)
	st.LastURL = url
	st.UserPaused = false
	st.newInstance(url)
	st.Phase = PhaseIdle
}

// skipInterstitial steps over a quiz or project page. Each click waits for
// the page to settle first; when no skip control is left, automation stops
// and the user is told to finish the page by hand.
func (c *Controller) skipInterstitial(ctx context.Context, st *State, url string) {
	sk := &st.Skip
	now := c.now()
	if sk.Since.IsZero() {
		sk.Since = now
		c.logger.Info("interstitial page detected", "url", url)
	}
	settled := sk.Since
	if !sk.LastClick.IsZero() {
		settled = sk.LastClick
	}
	if now.Sub(settled) < c.intervals.SkipSettle {
		return
	}

	if sk.Clicks < maxSkipClicks {
		clicked, err := c.platform.SkipInterstitial(ctx, c.page)
		if err != nil {
			c.logger.Debug("skip interstitial failed", "error", err)
			return
		}
		if clicked {
			sk.Clicks++
			sk.LastClick = now
			c.logger.Info("interstitial skipped", "url", url, "clicks", sk.Clicks)
			c.reporter.Activity(domain.ActivityPageSkipped, "Skipped quiz or project page", url)
			return
		}
	}

	c.logger.Info("interstitial cannot be skipped", "url", url, "clicks", sk.Clicks)
	c.stopLocked(st)
	c.reporter.Activity(domain.ActivityAutomationStop, SkipNotice, url)
	c.reporter.Stopped()
	c.reporter.Notice(SkipNotice)
}

func (c *Controller) beginMonitoring(ctx context.Context, st *State, url string, v VideoState) {
	st.Phase = PhaseMonitoring
	st.Video.URL = url
	st.Video.Title = c.platform.VideoTitle(ctx, c.page)
	if st.Video.Title == "" {
		st.Video.Title = "Unknown Video"
	}
	st.LastPlay = c.now()
	c.logger.Info("monitoring video", "title", st.Video.Title, "generation", st.Video.Generation)

	c.applySpeed(ctx, st)
	if v.Paused && !v.Ended && !st.UserPaused {
		if err := c.page.Play(ctx); err != nil {
			c.logger.Debug("autoplay refused", "error", err)
		}
	}
}

// trackPlayback maintains the user-pause flag. A pause the controller did
// not cause sets it; any resumed playback clears it.
func (c *Controller) trackPlayback(st *State, v VideoState, now time.Time) {
	playing := v.Playing()
	switch {
	case playing:
		if !st.Playing && st.UserPaused {
			c.logger.Info("playback resumed by user")
		}
		st.UserPaused = false
		st.LastPlay = now
	case st.Playing && v.Paused && !v.Ended && v.CurrentTime > 0:
		st.UserPaused = true
		c.logger.Info("video paused by user, auto-resume suspended")
	}
	st.Playing = playing
}

func (c *Controller) complete(ctx context.Context, st *State, v VideoState) *domain.Completion {
	st.EndReported = true
	st.Phase = PhaseCompleted
	st.Watched++

	duration := v.Duration
	speed := st.Settings.PlaybackSpeed
	done := &domain.Completion{
		Title:          st.Video.Title,
		URL:            st.Video.URL,
		Duration:       &duration,
		Speed:          &speed,
		Platform:       c.platform.Name(),
		RequestSummary: c.platform.RequestSummary(),
	}
	c.reporter.Activity(domain.ActivityVideoCompleted, "Completed: "+st.Video.Title, st.Video.URL)

	if st.Settings.LimitReached(st.Watched) {
		c.logger.Info("video limit reached", "watched", st.Watched, "limit", st.Settings.VideoLimit)
		c.stopLocked(st)
		c.reporter.Activity(domain.ActivityLimitReached, LimitNotice, st.Video.URL)
		c.reporter.Stopped()
		c.reporter.Notice(LimitNotice)
		return done
	}

	if c.platform.ManualAdvance() && st.Settings.AutoNext {
		if ok, err := c.platform.Advance(ctx, c.page); err != nil || !ok {
			c.logger.Debug("no next item", "error", err)
		}
	}
	return done
}

// speedTick re-applies the configured speed when the page has reset it and
// closes interrupting prompts.
func (c *Controller) speedTick(ctx context.Context, st *State) *domain.Completion {
	c.applySpeed(ctx, st)
	if err := c.platform.Dismiss(ctx, c.page); err != nil {
		c.logger.Debug("dismiss prompts failed", "error", err)
	}
	return nil
}

// resumeTick restarts a video that stalled without the user pausing it.
func (c *Controller) resumeTick(ctx context.Context, st *State) *domain.Completion {
	if st.UserPaused {
		return nil
	}
	v, err := c.page.Video(ctx)
	if err != nil || !v.Paused || v.Ended {
		return nil
	}
	if c.now().Sub(st.LastPlay) <= c.intervals.ResumeAfter {
		return nil
	}
	if err := c.platform.Resume(ctx, c.page); err != nil {
		c.logger.Debug("auto-resume failed", "error", err)
		return nil
	}
	c.reporter.Activity(domain.ActivityAutoResumed, "Resumed stalled video", st.Video.URL)
	c.logger.Info("auto-resumed stalled video")
	return nil
}

func (c *Controller) adTick(ctx context.Context, st *State) *domain.Completion {
	skipped, err := c.platform.SkipAds(ctx, c.page)
	if err != nil {
		c.logger.Debug("ad skip failed", "error", err)
		return nil
	}
	if skipped {
		c.logger.Info("ad skipped")
		c.reporter.Activity(domain.ActivityAdSkipped, "Ad skipped automatically", st.LastURL)
	}
	return nil
}

func (c *Controller) applySpeed(ctx context.Context, st *State) {
	v, err := c.page.Video(ctx)
	if err != nil {
		return
	}
	want := st.Settings.PlaybackSpeed
	if want <= 0 || math.Abs(v.PlaybackRate-want) <= speedTolerance {
		return
	}
	if err := c.page.SetPlaybackRate(ctx, want); err != nil {
		c.logger.Debug("set playback rate failed", "error", err)
		return
	}
	c.logger.Debug("playback rate applied", "speed", want)
}

func (c *Controller) handleStart(ctx context.Context, msg bus.Message) bus.Reply {
	var req struct {
		Settings *domain.Settings `json:"settings"`
	}
	if err := msg.Bind(&req); err != nil {
		return bus.Fail(err)
	}
	settings := domain.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	c.Start(ctx, settings)
	return bus.OK(nil)
}

func (c *Controller) handleStop(_ context.Context, _ bus.Message) bus.Reply {
	c.Stop()
	return bus.OK(nil)
}

func (c *Controller) handleSetSpeed(ctx context.Context, msg bus.Message) bus.Reply {
	var req struct {
		Speed *float64 `json:"speed"`
	}
	if err := msg.Bind(&req); err != nil {
		return bus.Fail(err)
	}
	if req.Speed == nil || *req.Speed < domain.MinPlaybackSpeed || *req.Speed > domain.MaxPlaybackSpeed {
		return bus.Fail(domainerrors.Validationf("speed must be between %g and %g", domain.MinPlaybackSpeed, domain.MaxPlaybackSpeed))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Settings.PlaybackSpeed = *req.Speed
	c.applySpeed(ctx, &c.state)
	return bus.OK(nil)
}

func (c *Controller) handleGetCurrentTimestamp(ctx context.Context, _ bus.Message) bus.Reply {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.page.Video(ctx)
	if err != nil {
		return bus.Fail(domainerrors.NotFound("No video found"))
	}
	url, err := c.page.URL(ctx)
	if err != nil {
		return bus.Fail(domainerrors.Wrap(err, domainerrors.CodeInternal, "read location"))
	}
	ts := math.Floor(v.CurrentTime)
	return bus.OK(domain.TimestampInfo{
		Timestamp:     ts,
		FormattedTime: domain.FormatTime(ts),
		VideoTitle:    c.platform.VideoTitle(ctx, c.page),
		VideoURL:      url,
		Platform:      c.platform.Name(),
	})
}

func (c *Controller) handleJumpToTimestamp(ctx context.Context, msg bus.Message) bus.Reply {
	var req struct {
		Timestamp *float64 `json:"timestamp"`
	}
	if err := msg.Bind(&req); err != nil {
		return bus.Fail(err)
	}
	if req.Timestamp == nil || *req.Timestamp < 0 {
		return bus.Fail(domainerrors.Validation("Cannot jump to timestamp"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.page.Video(ctx); err != nil {
		return bus.Fail(domainerrors.NotFound("No video found"))
	}
	if err := c.page.Seek(ctx, *req.Timestamp); err != nil {
		return bus.Fail(domainerrors.Wrap(err, domainerrors.CodeInternal, "seek"))
	}
	return bus.OK(nil)
}
