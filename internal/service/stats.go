package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/store"
)

// insightWindowDays is how far back DailyActions reaches.
const insightWindowDays = 30

const dayLayout = "2006-01-02"

// StatsService folds completed videos into the running stats record.
type StatsService struct {
	kv       store.KV
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewStatsService creates a new stats service over the local tier.
func NewStatsService(kv store.KV, notifier Notifier, logger *slog.Logger) *StatsService {
	return &StatsService{
		kv:       kv,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Initialize writes empty stats if none exist yet.
func (s *StatsService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing domain.Stats
	found, err := store.Load(ctx, s.kv, domain.KeyStats, &existing)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if found {
		return nil
	}
	return s.kv.Set(ctx, map[string]any{domain.KeyStats: domain.NewStats()})
}

// Get returns the current stats, or zeroed stats if none were recorded.
func (s *StatsService) Get(ctx context.Context) (domain.Stats, error) {
	stats := domain.NewStats()
	if _, err := store.Load(ctx, s.kv, domain.KeyStats, &stats); err != nil {
		return domain.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	if stats.Videos == nil {
		stats.Videos = []domain.VideoRecord{}
	}
	return stats, nil
}

// RecordCompletion adds one completed video to the counters and history.
// A missing duration counts as 0 and a missing speed as 1.0.
func (s *StatsService) RecordCompletion(ctx context.Context, c domain.Completion) (domain.StatsView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.Get(ctx)
	if err != nil {
		return domain.StatsView{}, err
	}

	rec := domain.VideoRecord{
		Title:       c.Title,
		URL:         c.URL,
		Duration:    c.DurationOrZero(),
		Speed:       c.SpeedOrDefault(),
		Platform:    c.Platform,
		CompletedAt: s.now().UTC(),
	}

	stats.VideosWatched++
	stats.TotalTimeSeconds += rec.Duration
	stats.TotalSpeedUsed += rec.Speed
	stats.SpeedCount++
	stats.Videos = prependCapped(stats.Videos, rec, domain.MaxVideoHistory)

	if err := s.kv.Set(ctx, map[string]any{domain.KeyStats: stats}); err != nil {
		return domain.StatsView{}, fmt.Errorf("save stats: %w", err)
	}

	s.logger.Info("video completion recorded",
		"video_url", rec.URL,
		"platform", rec.Platform,
		"videos_watched", stats.VideosWatched,
	)

	view := stats.View()
	notifySurfaces(s.notifier, s.logger, domain.ActionStatsUpdated, map[string]any{"stats": view})
	return view, nil
}

// Insights derives the platform mix, learning streaks and recent daily
// activity from the stats history and the activity log.
func (s *StatsService) Insights(ctx context.Context) (domain.Insights, error) {
	values, err := s.kv.Get(ctx, domain.KeyStats, domain.KeyActivityLog)
	if err != nil {
		return domain.Insights{}, fmt.Errorf("load insights data: %w", err)
	}
	stats := domain.NewStats()
	if _, err := store.Decode(values, domain.KeyStats, &stats); err != nil {
		return domain.Insights{}, err
	}
	var log []domain.ActivityEntry
	if _, err := store.Decode(values, domain.KeyActivityLog, &log); err != nil {
		return domain.Insights{}, err
	}

	insights := domain.Insights{
		Platforms:    make(map[string]int),
		DailyActions: make(map[string]int),
	}
	for _, v := range stats.Videos {
		insights.Platforms[v.Platform]++
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -(insightWindowDays - 1))

	active := make(map[string]struct{})
	for _, e := range log {
		if e.Timestamp.IsZero() {
			continue
		}
		day := e.Timestamp.UTC().Truncate(24 * time.Hour)
		key := day.Format(dayLayout)
		active[key] = struct{}{}
		if !day.Before(windowStart) && !day.After(today) {
			insights.DailyActions[key]++
		}
	}

	insights.CurrentStreak, insights.LongestStreak, insights.LastActivity = streaks(active, today)
	return insights, nil
}

// streaks computes the current and longest run of consecutive active days.
// The current streak only counts if the latest active day is today or yesterday.
func streaks(active map[string]struct{}, today time.Time) (current, longest int, last string) {
	if len(active) == 0 {
		return 0, 0, ""
	}

	days := make([]time.Time, 0, len(active))
	for k := range active {
		d, err := time.Parse(dayLayout, k)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })

	latest := days[0]
	last = latest.Format(dayLayout)

	if gap := today.Sub(latest); gap <= 24*time.Hour {
		current = 1
		for i := 1; i < len(days) && days[i-1].Sub(days[i]) == 24*time.Hour; i++ {
			current++
		}
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	return current, longest, last
}

// prependCapped inserts v at the front and truncates to limit entries.
func prependCapped[T any](list []T, v T, limit int) []T {
	out := make([]T, 0, min(len(list)+1, limit))
	out = append(out, v)
	for _, e := range list {
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out
}
