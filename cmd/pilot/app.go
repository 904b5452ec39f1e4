package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/search"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/store/sqlite"
	"github.com/coursepilot/coursepilot/internal/validation"
)

// app is the in-process stack a command runs against: both store tiers, the
// summary index, the bus and the background coordinator.
type app struct {
	cfg *config.Config
	log *logger.Logger

	local  *store.Store
	synced *sqlite.Store
	index  *search.SearchIndex
	bus    *bus.Bus

	settings  *service.SettingsService
	stats     *service.StatsService
	notes     *service.NoteService
	summaries *service.SummaryService
	sync      *service.SyncService
	coord     *service.Coordinator
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if opts.dataPath != "" {
		abs, err := filepath.Abs(opts.dataPath)
		if err != nil {
			return nil, fmt.Errorf("invalid data path: %w", err)
		}
		cfg.Storage.DataPath = abs
		if os.Getenv("SYNC_OUTBOX") == "" {
			cfg.Sync.OutboxPath = filepath.Join(abs, "sync", "outbox")
		}
	}
	if opts.logLevel != "" {
		cfg.Logger.Level = opts.logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})
}

// openApp opens the data directory. The server holds the same store locks,
// so the two cannot share a directory at the same time.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)
	a := &app{cfg: cfg, log: log}

	emitter := store.NewNoopEmitter()
	if a.local, err = store.New(cfg.LocalStorePath(), log.Logger, emitter); err != nil {
		return nil, fmt.Errorf("open local store (is the server using %s?): %w", cfg.Storage.DataPath, err)
	}
	if a.synced, err = sqlite.Open(cfg.SyncStorePath(), log.Logger); err != nil {
		a.Close()
		return nil, err
	}
	if a.index, err = search.NewSearchIndex(search.Options{DataPath: cfg.SearchPath(), Logger: log.Logger}); err != nil {
		a.Close()
		return nil, err
	}

	v := validation.New()
	a.bus = bus.New(log.Logger)
	a.settings = service.NewSettingsService(a.synced, emitter, v, log.Logger)
	a.stats = service.NewStatsService(a.local, a.bus, log.Logger)
	a.notes = service.NewNoteService(a.local, v, a.bus, log.Logger)
	a.summaries = service.NewSummaryService(a.local, a.index, v, log.Logger)
	a.sync = service.NewSyncService(a.summaries, a.notes, log.Logger)

	if err := errors.Join(
		a.settings.InstallDefaults(ctx),
		a.stats.Initialize(ctx),
		a.summaries.EnsureIndex(ctx),
	); err != nil {
		a.Close()
		return nil, err
	}

	a.coord, err = service.NewCoordinator(a.bus, service.Services{
		Settings:  a.settings,
		Stats:     a.stats,
		Activity:  service.NewActivityService(a.local, log.Logger),
		Notes:     a.notes,
		Summaries: a.summaries,
		Commands:  service.NewCommandService(a.local, a.settings, a.bus, log.Logger),
	}, log.Logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases everything openApp acquired, in reverse order.
func (a *app) Close() {
	if a.coord != nil {
		a.coord.Close()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.synced != nil {
		_ = a.synced.Close()
	}
	if a.local != nil {
		_ = a.local.Close()
	}
}
