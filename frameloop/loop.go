// Package frameloop drives a timing.Scheduler from wall-clock time.
//
// The scheduler core only consumes elapsed-time values; something has to
// produce them. A Loop is that something for programs without an engine
// of their own: it ticks Update at a configured rate, FixedUpdate on a
// fixed-step accumulator, and LateUpdate after each Update, all from one
// OS-thread-locked goroutine. That goroutine becomes the scheduler's
// designated driving thread, so any registration or control call after
// Run starts must happen inside a coroutine.
package frameloop

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/go-logr/logr"

	"github.com/croxit/timing"
)

// A Loop owns the wall-clock cadence of one scheduler.
type Loop struct {
	cfg    Config
	sch    *timing.Scheduler
	logger logr.Logger
}

// New creates a loop that will drive sch with the given cadence.
func New(sch *timing.Scheduler, cfg Config) (*Loop, error) {
	if sch == nil {
		return nil, errors.New("frameloop: nil scheduler")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loop{cfg: cfg, sch: sch, logger: logr.Discard()}, nil
}

// SetLogger routes the loop's own diagnostics, such as dropped fixed-step
// backlogs. The scheduler's logger is configured separately.
func (l *Loop) SetLogger(logger logr.Logger) {
	l.logger = logger
}

// Scheduler returns the scheduler the loop drives.
func (l *Loop) Scheduler() *timing.Scheduler {
	return l.sch
}

// Run ticks the scheduler until ctx is done and returns ctx's error.
// The calling goroutine is locked to its OS thread for the duration and
// is the scheduler's driving thread while Run is active.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	interval := time.Duration(float64(time.Second) / l.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	var backlog float64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now

			backlog += delta
			steps := 0
			for backlog >= l.cfg.FixedStep && steps < l.cfg.MaxCatchUp {
				l.sch.Tick(timing.FixedUpdate, l.cfg.FixedStep)
				backlog -= l.cfg.FixedStep
				steps++
			}
			if backlog >= l.cfg.FixedStep {
				l.logger.Info("dropping fixed-step backlog",
					"backlog", backlog, "steps", steps)
				backlog = 0
			}

			l.sch.Tick(timing.Update, delta)
			l.sch.Tick(timing.LateUpdate, delta)
		}
	}
}
