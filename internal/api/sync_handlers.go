package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/service"
)

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportSyncPackage",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/export",
		Summary:     "Export sync package",
		Description: "Writes summaries and notes to a package file in the sync outbox",
		Tags:        []string{"Sync"},
	}, s.handleSyncExport)

	huma.Register(s.api, huma.Operation{
		OperationID: "importSyncPackage",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/import",
		Summary:     "Import sync package",
		Description: "Merges a package: summaries overwrite by URL, notes are added unless their id exists",
		Tags:        []string{"Sync"},
	}, s.handleSyncImport)
}

// SyncExportResponse describes a written package.
type SyncExportResponse struct {
	Path string `json:"path" doc:"Package file path"`
}

// SyncExportOutput wraps the export result for Huma.
type SyncExportOutput struct {
	Body SyncExportResponse
}

// SyncImportInput wraps a package for Huma.
type SyncImportInput struct {
	Body service.SyncPackage
}

// SyncImportOutput wraps the import result for Huma.
type SyncImportOutput struct {
	Body service.ImportResult
}

func (s *Server) handleSyncExport(ctx context.Context, _ *struct{}) (*SyncExportOutput, error) {
	if s.cfg.SyncOutbox == "" {
		return nil, domainerrors.Unsupported("sync outbox not configured")
	}
	path, err := s.services.Sync.Export(ctx, s.cfg.SyncOutbox)
	if err != nil {
		return nil, err
	}
	return &SyncExportOutput{Body: SyncExportResponse{Path: path}}, nil
}

func (s *Server) handleSyncImport(ctx context.Context, input *SyncImportInput) (*SyncImportOutput, error) {
	res, err := s.services.Sync.Import(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SyncImportOutput{Body: res}, nil
}
