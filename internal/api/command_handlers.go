package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
)

func (s *Server) registerCommandRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "runCommand",
		Method:      http.MethodPost,
		Path:        "/api/v1/commands/{name}",
		Summary:     "Run keyboard command",
		Description: "Runs toggle-automation or take-note against a tab",
		Tags:        []string{"Commands"},
	}, s.handleRunCommand)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPendingNote",
		Method:      http.MethodGet,
		Path:        "/api/v1/pending-note",
		Summary:     "Get pending note",
		Description: "Returns the captured playback position waiting for note entry",
		Tags:        []string{"Commands"},
	}, s.handleGetPendingNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearPendingNote",
		Method:        http.MethodDelete,
		Path:          "/api/v1/pending-note",
		Summary:       "Clear pending note",
		Description:   "Discards the pending note",
		Tags:          []string{"Commands"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearPendingNote)
}

// RunCommandInput names a command and its target tab.
type RunCommandInput struct {
	Name string `path:"name" enum:"toggle-automation,take-note" doc:"Command name"`
	Tab  string `query:"tab" doc:"Tab id; empty targets the first attached tab"`
}

// CommandOutput wraps a command result for Huma.
type CommandOutput struct {
	Body service.CommandResult
}

// PendingNoteResponse holds the pending note, if any.
type PendingNoteResponse struct {
	PendingNote *domain.PendingNote `json:"pendingNote" doc:"Null when nothing is pending"`
}

// PendingNoteOutput wraps the pending note for Huma.
type PendingNoteOutput struct {
	Body PendingNoteResponse
}

func (s *Server) handleRunCommand(ctx context.Context, input *RunCommandInput) (*CommandOutput, error) {
	res, err := s.services.Commands.Run(ctx, input.Name, input.Tab)
	if err != nil {
		return nil, err
	}
	return &CommandOutput{Body: res}, nil
}

func (s *Server) handleGetPendingNote(ctx context.Context, _ *struct{}) (*PendingNoteOutput, error) {
	p, err := s.services.Commands.PendingNote(ctx)
	if err != nil {
		return nil, err
	}
	return &PendingNoteOutput{Body: PendingNoteResponse{PendingNote: p}}, nil
}

func (s *Server) handleClearPendingNote(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Commands.ClearPendingNote(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}
