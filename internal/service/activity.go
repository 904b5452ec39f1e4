package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/store"
)

// ActivityService keeps the bounded, newest-first activity log.
type ActivityService struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewActivityService creates a new activity service.
func NewActivityService(kv store.KV, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

// Log stamps entry with the current time and prepends it to the log.
func (s *ActivityService) Log(ctx context.Context, entry domain.ActivityEntry) (domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return domain.ActivityEntry{}, err
	}

	entry.Timestamp = s.now().UTC()
	entries = prependCapped(entries, entry, domain.MaxActivityLog)

	if err := s.kv.Set(ctx, map[string]any{domain.KeyActivityLog: entries}); err != nil {
		return domain.ActivityEntry{}, fmt.Errorf("save activity log: %w", err)
	}

	s.logger.Debug("activity logged", "type", entry.Type, "video_url", entry.URL)
	return entry, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *ActivityService) List(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *ActivityService) load(ctx context.Context) ([]domain.ActivityEntry, error) {
	entries := []domain.ActivityEntry{}
	if _, err := store.Load(ctx, s.kv, domain.KeyActivityLog, &entries); err != nil {
		return nil, fmt.Errorf("load activity log: %w", err)
	}
	return entries, nil
}
