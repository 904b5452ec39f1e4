package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/search"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/summary"
	"github.com/coursepilot/coursepilot/internal/validation"
)

// DefaultRecentSummaries is the Recent limit when none is given.
const DefaultRecentSummaries = 10

// SummaryService caches generated summaries per video URL and keeps the
// full-text index in step with the cache.
type SummaryService struct {
	kv        store.KV
	index     *search.SearchIndex
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewSummaryService creates a new summary service.
func NewSummaryService(kv store.KV, index *search.SearchIndex, v *validation.Validator, logger *slog.Logger) *SummaryService {
	return &SummaryService{
		kv:        kv,
		index:     index,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate builds a summary for info and caches it, replacing any earlier
// summary for the same URL.
func (s *SummaryService) Generate(ctx context.Context, info domain.VideoInfo) (domain.VideoSummary, error) {
	if err := s.validator.Validate(info); err != nil {
		return domain.VideoSummary{}, err
	}
	sum := summary.Generate(info, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return domain.VideoSummary{}, err
	}
	all[info.URL] = sum
	if err := s.save(ctx, all); err != nil {
		return domain.VideoSummary{}, err
	}

	if err := s.index.Index(search.NewSummaryDocument(sum)); err != nil {
		s.logger.Warn("failed to index summary", "video_url", info.URL, "error", err)
	}
	s.logger.Info("summary generated", "video_url", info.URL, "difficulty", sum.Difficulty)
	return sum, nil
}

// Get returns the cached summary for url, or nil. It never generates.
func (s *SummaryService) Get(ctx context.Context, url string) (*domain.VideoSummary, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sum, ok := all[url]
	if !ok {
		return nil, nil
	}
	return &sum, nil
}

// All returns every cached summary.
func (s *SummaryService) All(ctx context.Context) (domain.VideoSummaries, error) {
	return s.load(ctx)
}

// Recent returns up to limit summaries, newest generation first.
func (s *SummaryService) Recent(ctx context.Context, limit int) ([]domain.VideoSummary, error) {
	if limit <= 0 {
		limit = DefaultRecentSummaries
	}
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VideoSummary, 0, len(all))
	for _, sum := range all {
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b domain.VideoSummary) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.URL, b.URL)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search returns cached summaries matching query, best match first.
func (s *SummaryService) Search(ctx context.Context, query string, limit int) ([]domain.VideoSummary, error) {
	res, err := s.index.Search(ctx, search.SearchParams{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("search summaries: %w", err)
	}
	if len(res.Hits) == 0 {
		return []domain.VideoSummary{}, nil
	}

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VideoSummary, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if sum, ok := all[hit.URL]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

// Import merges summaries into the cache, overwriting by URL, and indexes
// them. It returns how many were written.
func (s *SummaryService) Import(ctx context.Context, incoming domain.VideoSummaries) (int, error) {
	if len(incoming) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	docs := make([]*search.SummaryDocument, 0, len(incoming))
	for url, sum := range incoming {
		if url == "" {
			continue
		}
		sum.URL = url
		all[url] = sum
		docs = append(docs, search.NewSummaryDocument(sum))
	}
	if err := s.save(ctx, all); err != nil {
		return 0, err
	}
	if err := s.index.IndexAll(docs); err != nil {
		s.logger.Warn("failed to index imported summaries", "count", len(docs), "error", err)
	}
	return len(docs), nil
}

// EnsureIndex refills the search index from the cache when it was created
// empty, e.g. after a mapping change.
func (s *SummaryService) EnsureIndex(ctx context.Context) error {
	if !s.index.Fresh() {
		return nil
	}
	return s.Reindex(ctx)
}

// Reindex rebuilds the search index from the cache.
func (s *SummaryService) Reindex(ctx context.Context) error {
	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	docs := make([]*search.SummaryDocument, 0, len(all))
	for _, sum := range all {
		docs = append(docs, search.NewSummaryDocument(sum))
	}
	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild summary index: %w", err)
	}
	return nil
}

func (s *SummaryService) load(ctx context.Context) (domain.VideoSummaries, error) {
	all := domain.VideoSummaries{}
	if _, err := store.Load(ctx, s.kv, domain.KeyVideoSummaries, &all); err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	if all == nil {
		all = domain.VideoSummaries{}
	}
	return all, nil
}

func (s *SummaryService) save(ctx context.Context, all domain.VideoSummaries) error {
	if err := s.kv.Set(ctx, map[string]any{domain.KeyVideoSummaries: all}); err != nil {
		return fmt.Errorf("save summaries: %w", err)
	}
	return nil
}
