// Package scheduler runs the periodic loan maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/fiducialend/internal/config"
)

const jobTimeout = 5 * time.Minute

// Jobs is the work the scheduler triggers.
type Jobs interface {
	MarkOverdue(ctx context.Context) (int, error)
	SendReminders(ctx context.Context, window time.Duration) (int, error)
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	window time.Duration
}

// New registers the overdue sweep and the reminder job on their cron specs
// (with a seconds field), evaluated in loc.
func New(jobs Jobs, cfg config.SchedulerConfig, loc *time.Location) (*Scheduler, error) {
	logger := cronLogger{log: slog.Default().With("component", "scheduler")}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs:   jobs,
		window: cfg.ReminderWindow,
	}

	if _, err := s.cron.AddFunc(cfg.OverdueSpec, func() { s.RunOverdueSweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule overdue sweep %q: %w", cfg.OverdueSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.ReminderSpec, func() { s.RunReminders(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", cfg.ReminderSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once running jobs end.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunOverdueSweep moves past-due Active loans to Overdue.
func (s *Scheduler) RunOverdueSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	marked, err := s.jobs.MarkOverdue(ctx)
	if err != nil {
		slog.Error("overdue sweep failed", "marked", marked, "error", err)
		return
	}
	slog.Info("overdue sweep complete", "marked", marked, "duration", time.Since(start))
}

// RunReminders emits reminders for installments due within the window.
func (s *Scheduler) RunReminders(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	sent, err := s.jobs.SendReminders(ctx, s.window)
	if err != nil {
		slog.Error("payment reminders failed", "error", err)
		return
	}
	slog.Info("payment reminders sent", "count", sent, "window", s.window)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
