package service

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
)

// syncPackagePrefix starts every exported package file name.
const syncPackagePrefix = "sync_package_"

// SyncPackage is the portable bundle of summaries and notes.
type SyncPackage struct {
	ExportedAt string                `json:"exported_at"` // RFC 3339
	Summaries  domain.VideoSummaries `json:"summaries"`
	Notes      domain.VideoNotes     `json:"notes,omitempty"`
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	SummariesImported int    `json:"summaries_imported"`
	NotesImported     int    `json:"notes_imported"`
	ExportedAt        string `json:"exported_at"`
}

// SyncService moves summaries and notes between installations as JSON
// package files.
type SyncService struct {
	summaries *SummaryService
	notes     *NoteService
	logger    *slog.Logger
	now       func() time.Time
}

// NewSyncService creates a new sync service.
func NewSyncService(summaries *SummaryService, notes *NoteService, logger *slog.Logger) *SyncService {
	return &SyncService{
		summaries: summaries,
		notes:     notes,
		logger:    logger,
		now:       time.Now,
	}
}

// Package collects the current summaries and notes.
func (s *SyncService) Package(ctx context.Context) (SyncPackage, error) {
	summaries, err := s.summaries.All(ctx)
	if err != nil {
		return SyncPackage{}, err
	}
	notes, err := s.notes.load(ctx)
	if err != nil {
		return SyncPackage{}, err
	}
	return SyncPackage{
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Summaries:  summaries,
		Notes:      notes,
	}, nil
}

// Export writes a package into dir as sync_package_YYYYMMDD_HHMMSS.json and
// returns its path.
func (s *SyncService) Export(ctx context.Context, dir string) (string, error) {
	stamp := s.now()
	pkg, err := s.Package(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create sync dir: %w", err)
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sync package: %w", err)
	}

	name := syncPackagePrefix + stamp.Format("20060102_150405") + ".json"
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write sync package: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize sync package: %w", err)
	}

	s.logger.Info("sync package exported",
		"path", path,
		"summaries", len(pkg.Summaries),
		"videos", len(pkg.Notes),
	)
	return path, nil
}

// ImportFile reads and imports a package file.
func (s *SyncService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read sync package: %w", err)
	}
	var pkg SyncPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ImportResult{}, domainerrors.Validationf("invalid sync package %s: %v", filepath.Base(path), err)
	}
	res, err := s.Import(ctx, pkg)
	if err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("sync package imported",
		"path", path,
		"summaries_imported", res.SummariesImported,
		"notes_imported", res.NotesImported,
	)
	return res, nil
}

// Import merges pkg into the store. Summaries overwrite by URL; notes are
// added unless a note with the same id already exists.
func (s *SyncService) Import(ctx context.Context, pkg SyncPackage) (ImportResult, error) {
	res := ImportResult{ExportedAt: cmp.Or(pkg.ExportedAt, "Unknown")}

	n, err := s.summaries.Import(ctx, pkg.Summaries)
	if err != nil {
		return ImportResult{}, err
	}
	res.SummariesImported = n

	if len(pkg.Notes) > 0 {
		n, err := s.notes.merge(ctx, pkg.Notes)
		if err != nil {
			return ImportResult{}, err
		}
		res.NotesImported = n
	}
	return res, nil
}
