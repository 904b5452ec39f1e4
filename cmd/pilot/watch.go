package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursepilot/coursepilot/internal/automation"
	"github.com/coursepilot/coursepilot/internal/automation/rodpage"
	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/domain"
)

// watchTabID is the bus id of the single tab the CLI drives.
const watchTabID = "1"

type watchOptions struct {
	platform string
	profile  string
	remote   string
	headful  bool
	speed    float64
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Open a course page and automate playback until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.platform, "platform", "", "Platform name; detected from the URL when empty")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "TOML file with settings to apply before starting")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "DevTools WebSocket URL of a running browser")
	cmd.Flags().BoolVar(&opts.headful, "headful", false, "Show the browser window")
	cmd.Flags().Float64Var(&opts.speed, "speed", 0, "Playback speed override")
	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts *watchOptions, pageURL string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	platform, err := choosePlatform(opts.platform, pageURL)
	if err != nil {
		return err
	}

	patch := domain.SettingsPatch{}
	if opts.profile != "" {
		p, err := loadProfile(opts.profile)
		if err != nil {
			return err
		}
		patch = p.patch()
	}
	if opts.speed > 0 {
		patch.PlaybackSpeed = &opts.speed
	}
	running := true
	patch.IsRunning = &running

	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.settings.Update(ctx, patch)
	if err != nil {
		return err
	}
	// Leave isRunning false for the next session whatever happens below.
	defer func() {
		if _, err := a.settings.SetRunning(context.WithoutCancel(ctx), false); err != nil {
			a.log.Warn("failed to clear running flag", "error", err)
		}
	}()

	browser, err := rodpage.Launch(rodpage.Config{
		RemoteURL:   cmp.Or(opts.remote, a.cfg.Browser.RemoteURL),
		Headless:    !(opts.headful || a.cfg.Browser.Headful),
		UserDataDir: filepath.Join(a.cfg.Storage.DataPath, "browser"),
		Stealth:     a.cfg.Browser.Stealth,
		Logger:      a.log.Logger,
	})
	if err != nil {
		return err
	}
	defer browser.Close()

	page, err := browser.Open(ctx, pageURL)
	if err != nil {
		return err
	}

	ctrl, err := automation.New(automation.Options{
		TabID:     watchTabID,
		Page:      page,
		Platform:  platform,
		Bus:       a.bus,
		Logger:    a.log.Logger,
		Intervals: intervals(a.cfg),
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctrl.Start(ctx, settings)
	fmt.Fprintf(out, "Watching on %s at %.2fx. Press Ctrl+C to stop.\n", platform.Name(), settings.PlaybackSpeed)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for watching := true; watching; {
		select {
		case <-ctx.Done():
			watching = false
		case <-ticker.C:
			if !ctrl.Snapshot().Running {
				fmt.Fprintln(out, "Automation stopped.")
				watching = false
			}
		}
	}

	stats, err := a.stats.Get(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Session complete: %d videos watched in total.\n", stats.VideosWatched)
	return nil
}

func choosePlatform(name, pageURL string) (automation.Platform, error) {
	if name == "" {
		p, ok := automation.Detect(pageURL)
		if !ok {
			return nil, fmt.Errorf("no platform matches %s; pass --platform", pageURL)
		}
		return p, nil
	}

	platforms, err := automation.Platforms()
	if err != nil {
		return nil, err
	}
	for _, p := range platforms {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown platform %q", name)
}

func intervals(cfg *config.Config) automation.Intervals {
	iv := automation.DefaultIntervals()
	a := cfg.Automation
	if a.ProgressInterval > 0 {
		iv.Progress = a.ProgressInterval
	}
	if a.SpeedInterval > 0 {
		iv.Speed = a.SpeedInterval
	}
	if a.ResumeInterval > 0 {
		iv.Resume = a.ResumeInterval
	}
	if a.AdSkipInterval > 0 {
		iv.AdSkip = a.AdSkipInterval
	}
	return iv
}
