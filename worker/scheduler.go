package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Runner is the single dispatch entry point shared by every trigger
type Runner interface {
	RunToExhaustion(ctx context.Context) RunReport
}

// Scheduler fires dispatch runs on a cron schedule. A tick that lands while
// a run is still going is dropped by the runner's guard.
type Scheduler struct {
	runner Runner
	spec   string
	logger *logrus.Entry

	mu sync.Mutex
	c  *cron.Cron
}

func NewScheduler(runner Runner, spec string) *Scheduler {
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logrus.WithField("component", "scheduler"),
	}
}

// Start registers the dispatch job and starts the cron loop. Runs use ctx,
// which should only be cancelled at shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logrus.StandardLogger()))),
	)
	if _, err := c.AddFunc(s.spec, func() {
		if ctx.Err() != nil {
			return
		}
		report := s.runner.RunToExhaustion(ctx)
		if report.AlreadyRunning {
			s.logger.Debug("Scheduled run skipped, dispatch already running")
		}
	}); err != nil {
		return fmt.Errorf("invalid dispatch schedule %q: %w", s.spec, err)
	}

	s.c = c
	s.c.Start()
	s.logger.WithField("schedule", s.spec).Info("Dispatch scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running job or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}

	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out waiting for running job")
	}
	s.c = nil
	s.logger.Info("Dispatch scheduler stopped")
}

// ValidateSchedule reports whether spec parses as a dispatch schedule
func ValidateSchedule(spec string) error {
	_, err := scheduleParser.Parse(spec)
	return err
}
