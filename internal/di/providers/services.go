package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/coursepilot/coursepilot/internal/validation"
)

// BusHandle wraps the message bus with shutdown capability.
type BusHandle struct {
	*bus.Bus
}

// Shutdown implements do.Shutdownable.
func (h *BusHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBus provides the in-process message bus.
func ProvideBus(i do.Injector) (*BusHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &BusHandle{Bus: bus.New(log.Logger)}, nil
}

// ProvideSettingsService provides the settings service and installs
// missing defaults.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	syncHandle := do.MustInvoke[*SyncStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSettingsService(syncHandle.Store, sseHandle.Manager, v, log.Logger)
	if err := svc.InstallDefaults(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideStatsService provides the viewing stats service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	localHandle := do.MustInvoke[*LocalStoreHandle](i)
	busHandle := do.MustInvoke[*BusHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewStatsService(localHandle.Store, busHandle.Bus, log.Logger)
	if err := svc.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideActivityService provides the activity log service.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	localHandle := do.MustInvoke[*LocalStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityService(localHandle.Store, log.Logger), nil
}

// ProvideNoteService provides the timestamped note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	localHandle := do.MustInvoke[*LocalStoreHandle](i)
	busHandle := do.MustInvoke[*BusHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(localHandle.Store, v, busHandle.Bus, log.Logger), nil
}

// ProvideSummaryService provides the summary cache and generator.
func ProvideSummaryService(i do.Injector) (*service.SummaryService, error) {
	localHandle := do.MustInvoke[*LocalStoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSummaryService(localHandle.Store, indexHandle.SearchIndex, v, log.Logger), nil
}

// ProvideCommandService provides the keyboard command service.
func ProvideCommandService(i do.Injector) (*service.CommandService, error) {
	localHandle := do.MustInvoke[*LocalStoreHandle](i)
	settings := do.MustInvoke[*service.SettingsService](i)
	busHandle := do.MustInvoke[*BusHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommandService(localHandle.Store, settings, busHandle.Bus, log.Logger), nil
}

// ProvideSyncService provides sync package import and export.
func ProvideSyncService(i do.Injector) (*service.SyncService, error) {
	summaries := do.MustInvoke[*service.SummaryService](i)
	notes := do.MustInvoke[*service.NoteService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSyncService(summaries, notes, log.Logger), nil
}

// CoordinatorHandle owns the background context and the SSE surface relay.
type CoordinatorHandle struct {
	*service.Coordinator
	relay *service.SurfaceRelay
}

// Shutdown implements do.Shutdownable.
func (h *CoordinatorHandle) Shutdown() error {
	h.relay.Close()
	h.Close()
	return nil
}

// ProvideCoordinator attaches the background coordinator and the SSE relay
// surface to the bus.
func ProvideCoordinator(i do.Injector) (*CoordinatorHandle, error) {
	busHandle := do.MustInvoke[*BusHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	coord, err := service.NewCoordinator(busHandle.Bus, service.Services{
		Settings:  do.MustInvoke[*service.SettingsService](i),
		Stats:     do.MustInvoke[*service.StatsService](i),
		Activity:  do.MustInvoke[*service.ActivityService](i),
		Notes:     do.MustInvoke[*service.NoteService](i),
		Summaries: do.MustInvoke[*service.SummaryService](i),
		Commands:  do.MustInvoke[*service.CommandService](i),
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	relay, err := service.NewSurfaceRelay(busHandle.Bus, sseHandle.Manager, log.Logger)
	if err != nil {
		coord.Close()
		return nil, err
	}

	log.Info("Background coordinator attached")
	return &CoordinatorHandle{Coordinator: coord, relay: relay}, nil
}
