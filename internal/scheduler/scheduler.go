// Package scheduler triggers the periodic deadline sweep. The task engine never
// schedules itself; this package owns the clock-driven side.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs one deadline sweep and reports how many tasks changed.
// service.TaskService satisfies it.
type Sweeper interface {
	SweepDeadlines(ctx context.Context) (int, error)
}

// DeadlineScheduler runs the deadline sweep on a cron schedule.
type DeadlineScheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	logger  *slog.Logger
}

// NewDeadlineScheduler registers sweeper under spec, which accepts standard
// five-field cron expressions and descriptors such as "@every 1m".
// Overlapping runs are skipped. The returned scheduler is not started.
func NewDeadlineScheduler(spec string, sweeper Sweeper, logger *slog.Logger) (*DeadlineScheduler, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "deadline_scheduler"))

	s := &DeadlineScheduler{
		sweeper: sweeper,
		timeout: time.Minute,
		logger:  logger,
	}
	s.cron = cron.New(
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: logger}), cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid deadline sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *DeadlineScheduler) Start() {
	s.cron.Start()
	s.logger.Info("deadline scheduler started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end.
func (s *DeadlineScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("deadline scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("deadline scheduler stop timed out")
	}
}

// run is one scheduled sweep.
func (s *DeadlineScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	updated, err := s.sweeper.SweepDeadlines(ctx)
	if err != nil {
		s.logger.Error("deadline sweep failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("deadline sweep ran", slog.Int("updated", updated))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
