// Package di provides dependency injection configuration for the CoursePilot server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/di/providers"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/coursepilot/coursepilot/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideLocalStore)
	do.Provide(injector, providers.ProvideSyncStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Messaging and services
	do.Provide(injector, providers.ProvideBus)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideNoteService)
	do.Provide(injector, providers.ProvideSummaryService)
	do.Provide(injector, providers.ProvideCommandService)
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideCoordinator)

	// Workers
	do.Provide(injector, providers.ProvideInboxWatcher)
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is listening.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	for _, invoke := range []func(do.Injector) error{
		invokeAs[*providers.SSEManagerHandle],
		invokeAs[*providers.LocalStoreHandle],
		invokeAs[*providers.SyncStoreHandle],
		invokeAs[*providers.SearchIndexHandle],
		invokeAs[*providers.BusHandle],
		invokeAs[*service.SettingsService],
		invokeAs[*service.StatsService],
		invokeAs[*service.SummaryService],
		invokeAs[*service.SyncService],
		invokeAs[*providers.CoordinatorHandle],
		invokeAs[*providers.InboxWatcherHandle],
		invokeAs[*providers.SchedulerHandle],
		invokeAs[*providers.HTTPServerHandle],
	} {
		if err := invoke(injector); err != nil {
			return err
		}
	}

	providers.TriggerSummaryReindexIfNeeded(injector)
	return nil
}

func invokeAs[T any](i do.Injector) error {
	_, err := do.Invoke[T](i)
	return err
}
