package api

import "github.com/coursepilot/coursepilot/internal/service"

// Services groups the business services the handlers call.
type Services struct {
	Settings  *service.SettingsService
	Stats     *service.StatsService
	Activity  *service.ActivityService
	Notes     *service.NoteService
	Summaries *service.SummaryService
	Commands  *service.CommandService
	Sync      *service.SyncService
}
