package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mailcast/utils"

	"github.com/sirupsen/logrus"
)

// PassRunner runs one dispatch pass
type PassRunner interface {
	RunOnePass(ctx context.Context) PassResult
}

// RunReport summarises one run, i.e. every pass until exhaustion
type RunReport struct {
	AlreadyRunning bool
	Passes         int
	Sent           int
	Failed         int
	Skipped        int
	QuotaReached   bool
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

type CoordinatorConfig struct {
	// PassPause separates consecutive passes of one run
	PassPause time.Duration
	// Progress receives every pass result when set
	Progress *ProgressHub
}

// Coordinator drives the dispatcher until there is nothing left to do. At most
// one run is in flight; concurrent callers are turned away, not queued.
type Coordinator struct {
	dispatcher PassRunner
	pause      time.Duration
	progress   *ProgressHub
	logger     *logrus.Entry

	running atomic.Bool

	// background runs started by Trigger
	baseCtx context.Context
	wg      sync.WaitGroup

	mu   sync.Mutex
	last *RunReport
}

func NewCoordinator(ctx context.Context, dispatcher PassRunner, cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		dispatcher: dispatcher,
		pause:      cfg.PassPause,
		progress:   cfg.Progress,
		logger:     logrus.WithField("component", "coordinator"),
		baseCtx:    ctx,
	}
}

// RunToExhaustion repeats dispatch passes until the quota is reached, a pass
// fails, or a pass finds no work. It never panics or returns an error to the
// caller; failures are reported in the RunReport.
func (c *Coordinator) RunToExhaustion(ctx context.Context) RunReport {
	if !c.acquire() {
		return RunReport{AlreadyRunning: true}
	}
	defer c.running.Store(false)
	return c.run(ctx)
}

func (c *Coordinator) acquire() bool {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Info("Dispatch run already in progress, skipping")
		return false
	}
	return true
}

// run does the passes of a run whose guard is already held
func (c *Coordinator) run(ctx context.Context) (report RunReport) {
	report.StartedAt = time.Now()
	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("dispatch run panicked: %v", r)
			utils.LogError("dispatch_panic", report.Err, nil)
		}
		report.FinishedAt = time.Now()
		c.remember(report)
	}()

	for {
		res := c.dispatcher.RunOnePass(ctx)
		report.Passes++
		report.Sent += res.Sent
		report.Failed += res.Failed
		report.Skipped += res.Skipped
		if c.progress != nil {
			c.progress.Publish(res)
		}

		if res.Err != nil {
			report.Err = res.Err
			utils.LogError("dispatch_pass", res.Err, map[string]interface{}{
				"pass":   report.Passes,
				"sent":   res.Sent,
				"failed": res.Failed,
			})
			break
		}
		if res.QuotaReached {
			report.QuotaReached = true
			c.logger.Info("Daily quota reached. Will resume tomorrow.")
			break
		}
		if res.Processed() == 0 {
			break
		}

		if !c.sleep(ctx) {
			report.Err = ctx.Err()
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"passes":  report.Passes,
		"sent":    report.Sent,
		"failed":  report.Failed,
		"skipped": report.Skipped,
	}).Info("Dispatch run finished")
	return report
}

// Trigger starts a run in the background and returns immediately. It reports
// false, and starts nothing, when a run is already in flight.
func (c *Coordinator) Trigger() bool {
	if !c.acquire() {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.running.Store(false)
		c.run(c.baseCtx)
	}()
	return true
}

// Wait blocks until every run started by Trigger has returned
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Running reports whether a run is in flight
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// LastReport returns the most recent finished run, if any
func (c *Coordinator) LastReport() (RunReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return RunReport{}, false
	}
	return *c.last, true
}

func (c *Coordinator) remember(report RunReport) {
	c.mu.Lock()
	c.last = &report
	c.mu.Unlock()
}

func (c *Coordinator) sleep(ctx context.Context) bool {
	if c.pause <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
