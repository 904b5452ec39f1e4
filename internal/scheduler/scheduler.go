// Package scheduler runs named jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// DefaultStopTimeout bounds waiting for running jobs on Stop.
const DefaultStopTimeout = 5 * time.Second

// JobFunc is one scheduled unit of work.
type JobFunc func(ctx context.Context) error

// Status is the outcome of a job's last run.
type Status struct {
	Name      string
	Schedule  string
	LastRun   time.Time
	LastError string
	Next      time.Time
}

type job struct {
	name     string
	schedule string
	fn       JobFunc
	entry    rcron.EntryID
	lastRun  time.Time
	lastErr  error
}

// Scheduler wraps robfig/cron with context cancellation and per-job status.
type Scheduler struct {
	cron   *rcron.Cron
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	jobs   map[string]*job
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler using standard five-field expressions and the
// @daily family of descriptors.
func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   rcron.New(),
		logger: logger,
		now:    time.Now,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under name. Names are unique.
func (s *Scheduler) Add(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}

	j := &job{name: name, schedule: schedule, fn: fn}
	id, err := s.cron.AddFunc(schedule, func() { s.run(j) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	j.entry = id
	s.jobs[name] = j
	s.logger.Info("job scheduled", "job", name, "schedule", schedule)
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them up to DefaultStopTimeout.
func (s *Scheduler) Stop() {
	s.cancel()
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(DefaultStopTimeout):
		s.logger.Warn("scheduler stop timed out waiting for running jobs")
	}
}

// RunNow runs a job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	return s.run(j)
}

// Jobs reports every job's last outcome and next run.
func (s *Scheduler) Jobs() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.jobs))
	for _, j := range s.jobs {
		st := Status{
			Name:     j.name,
			Schedule: j.schedule,
			LastRun:  j.lastRun,
			Next:     s.cron.Entry(j.entry).Next,
		}
		if j.lastErr != nil {
			st.LastError = j.lastErr.Error()
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) run(j *job) error {
	start := s.now()
	err := j.fn(s.ctx)

	s.mu.Lock()
	j.lastRun = start
	j.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		return err
	}
	s.logger.Info("scheduled job finished", "job", j.name, "duration", time.Since(start))
	return nil
}
