// Package scheduler triggers digest runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"inboxbrief/internal/logger"
)

// Job is one scheduled digest run.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron expression in a fixed timezone. A run that
// is still going when the next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	entryID  cron.EntryID
	location *time.Location
	ctx      context.Context
}

// New creates a Scheduler in the given timezone (UTC when empty).
func New(ctx context.Context, timezone string) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	log := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	return &Scheduler{cron: c, location: loc, ctx: ctx}, nil
}

// Schedule registers job under a standard five-field cron expression. A
// valid expression replaces any previous registration.
func (s *Scheduler) Schedule(expr string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(expr, func() {
		started := time.Now()
		logger.Info("Scheduled run starting", "cron", expr)
		if err := job(s.ctx); err != nil {
			logger.Error("Scheduled run failed", err, "cron", expr)
			return
		}
		logger.Info("Scheduled run finished", "duration", time.Since(started).String())
	})
	if err != nil {
		return fmt.Errorf("adding cron entry: %w", err)
	}

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	s.entryID = entryID
	logger.Info("Digest scheduled", "cron", expr, "timezone", s.location.String())
	return nil
}

// Next returns the next time the job fires, or the zero time before the
// scheduler is started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entry(s.entryID).Next
}

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// NextAfter returns the next activation of expr after t, in loc.
func NextAfter(expr string, t time.Time, loc *time.Location) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return sched.Next(t.In(loc)), nil
}

// cronLogger routes cron's internal logging through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, err, keysAndValues...)
}
