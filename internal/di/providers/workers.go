package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/scheduler"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/coursepilot/coursepilot/internal/watcher"
)

// syncExportJob is the scheduler name of the periodic sync export.
const syncExportJob = "sync-export"

// InboxWatcherHandle wraps the sync inbox with shutdown capability.
type InboxWatcherHandle struct {
	*watcher.Inbox
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *InboxWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Inbox.Close()
}

// ProvideInboxWatcher watches the sync inbox and imports every package
// dropped into it.
func ProvideInboxWatcher(i do.Injector) (*InboxWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	syncService := do.MustInvoke[*service.SyncService](i)

	importFile := func(ctx context.Context, path string) error {
		_, err := syncService.ImportFile(ctx, path)
		return err
	}

	inbox, err := watcher.NewInbox(cfg.Sync.InboxPath, importFile, log.Logger, watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := inbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Sync inbox stopped", "error", err)
		}
	}()

	log.Info("Sync inbox watching", "path", inbox.Dir())

	return &InboxWatcherHandle{Inbox: inbox, cancel: cancel}, nil
}

// SchedulerHandle wraps the cron scheduler with shutdown capability.
type SchedulerHandle struct {
	*scheduler.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *SchedulerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideScheduler provides the cron scheduler with the periodic sync
// export registered when a schedule is configured.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	syncService := do.MustInvoke[*service.SyncService](i)

	s := scheduler.New(log.Logger)

	if cfg.Sync.ExportSchedule != "" {
		outbox := cfg.Sync.OutboxPath
		err := s.Add(syncExportJob, cfg.Sync.ExportSchedule, func(ctx context.Context) error {
			_, err := syncService.Export(ctx, outbox)
			return err
		})
		if err != nil {
			return nil, err
		}
		log.Info("Scheduled sync export", "schedule", cfg.Sync.ExportSchedule, "outbox", outbox)
	}

	s.Start()
	return &SchedulerHandle{Scheduler: s}, nil
}
