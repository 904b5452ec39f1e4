package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
)

func (s *Server) registerSummaryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/summaries",
		Summary:     "Get summary",
		Description: "Returns the cached summary of a video",
		Tags:        []string{"Summaries"},
	}, s.handleGetSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateSummary",
		Method:      http.MethodPost,
		Path:        "/api/v1/summaries",
		Summary:     "Generate summary",
		Description: "Generates and caches the summary of a video, replacing any earlier one",
		Tags:        []string{"Summaries"},
	}, s.handleGenerateSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "recentSummaries",
		Method:      http.MethodGet,
		Path:        "/api/v1/summaries/recent",
		Summary:     "Recent summaries",
		Description: "Returns the most recently generated summaries",
		Tags:        []string{"Summaries"},
	}, s.handleRecentSummaries)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchSummaries",
		Method:      http.MethodGet,
		Path:        "/api/v1/summaries/search",
		Summary:     "Search summaries",
		Description: "Full-text search over summary titles, topics and takeaways",
		Tags:        []string{"Summaries"},
	}, s.handleSearchSummaries)
}

// GetSummaryInput identifies a video.
type GetSummaryInput struct {
	URL string `query:"url" required:"true" doc:"Video URL"`
}

// SummaryOutput wraps one summary for Huma.
type SummaryOutput struct {
	Body domain.VideoSummary
}

// GenerateSummaryRequest describes the video to summarise.
type GenerateSummaryRequest struct {
	URL      string  `json:"url" minLength:"1" doc:"Video URL"`
	Title    string  `json:"title,omitempty" doc:"Video title"`
	Platform string  `json:"platform,omitempty" doc:"Learning platform"`
	Duration float64 `json:"duration,omitempty" minimum:"0" doc:"Length in seconds"`
}

// GenerateSummaryInput wraps a summary request for Huma.
type GenerateSummaryInput struct {
	Body GenerateSummaryRequest
}

// RecentSummariesInput bounds the recent list.
type RecentSummariesInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results; 0 uses the default"`
}

// SummariesResponse lists summaries.
type SummariesResponse struct {
	Summaries []domain.VideoSummary `json:"summaries" doc:"Summaries"`
}

// SummariesOutput wraps a summary list for Huma.
type SummariesOutput struct {
	Body SummariesResponse
}

func (s *Server) handleGetSummary(ctx context.Context, input *GetSummaryInput) (*SummaryOutput, error) {
	sum, err := s.services.Summaries.Get(ctx, input.URL)
	if err != nil {
		return nil, err
	}
	if sum == nil {
		return nil, domainerrors.NotFoundf("no summary for %s", input.URL)
	}
	return &SummaryOutput{Body: *sum}, nil
}

func (s *Server) handleGenerateSummary(ctx context.Context, input *GenerateSummaryInput) (*SummaryOutput, error) {
	sum, err := s.services.Summaries.Generate(ctx, domain.VideoInfo{
		URL:      input.Body.URL,
		Title:    input.Body.Title,
		Platform: input.Body.Platform,
		Duration: input.Body.Duration,
	})
	if err != nil {
		return nil, err
	}
	return &SummaryOutput{Body: sum}, nil
}

func (s *Server) handleRecentSummaries(ctx context.Context, input *RecentSummariesInput) (*SummariesOutput, error) {
	list, err := s.services.Summaries.Recent(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SummariesOutput{Body: SummariesResponse{Summaries: list}}, nil
}

func (s *Server) handleSearchSummaries(ctx context.Context, input *SearchInput) (*SummariesOutput, error) {
	list, err := s.services.Summaries.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SummariesOutput{Body: SummariesResponse{Summaries: list}}, nil
}
