package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/domain"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns the synced automation settings",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/settings",
		Summary:     "Update settings",
		Description: "Updates the settings fields present in the body",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get stats",
		Description: "Returns completion stats with average speed and time saved",
		Tags:        []string{"Stats"},
	}, s.handleGetStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInsights",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/insights",
		Summary:     "Get insights",
		Description: "Returns platform counts, streaks and daily activity",
		Tags:        []string{"Stats"},
	}, s.handleGetInsights)

	huma.Register(s.api, huma.Operation{
		OperationID: "listActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/activity",
		Summary:     "List activity",
		Description: "Returns the activity log, newest first",
		Tags:        []string{"Stats"},
	}, s.handleListActivity)
}

// SettingsOutput wraps settings for Huma.
type SettingsOutput struct {
	Body domain.Settings
}

// UpdateSettingsInput wraps a settings patch for Huma.
type UpdateSettingsInput struct {
	Body domain.SettingsPatch
}

// StatsOutput wraps stats for Huma.
type StatsOutput struct {
	Body domain.StatsView
}

// InsightsOutput wraps insights for Huma.
type InsightsOutput struct {
	Body domain.Insights
}

// ListActivityInput contains parameters for listing activity.
type ListActivityInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" doc:"Maximum entries; 0 returns all"`
}

// ActivityResponse lists activity entries.
type ActivityResponse struct {
	Entries []domain.ActivityEntry `json:"entries" doc:"Activity entries, newest first"`
}

// ActivityOutput wraps the activity list for Huma.
type ActivityOutput struct {
	Body ActivityResponse
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Update(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.services.Stats.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: stats.View()}, nil
}

func (s *Server) handleGetInsights(ctx context.Context, _ *struct{}) (*InsightsOutput, error) {
	insights, err := s.services.Stats.Insights(ctx)
	if err != nil {
		return nil, err
	}
	return &InsightsOutput{Body: insights}, nil
}

func (s *Server) handleListActivity(ctx context.Context, input *ListActivityInput) (*ActivityOutput, error) {
	entries, err := s.services.Activity.List(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &ActivityOutput{Body: ActivityResponse{Entries: entries}}, nil
}
