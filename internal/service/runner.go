package service

import (
	"context"
	"sync"
	"time"

	"github.com/scorebox-project/scorebox/pkg/logging"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// CycleFunc runs one evaluation cycle.
type CycleFunc func(ctx context.Context, trigger string) (*model.Report, error)

// Observer receives the outcome of each completed cycle. Exactly one of
// report and err is set.
type Observer func(report *model.Report, err error)

// Runner drives cycles from an interval ticker and explicit triggers.
// All cycles run on the runner's own goroutine, so at most one is ever
// in flight; a trigger arriving mid-cycle coalesces into a single
// follow-up run. The last successful report is published by replacement
// and is safe to read from any goroutine.
type Runner struct {
	cycle    CycleFunc
	interval time.Duration
	log      *logging.Logger

	mu       sync.Mutex
	last     *model.Report
	lastErr  error
	observer Observer

	trigger chan struct{}
}

// NewRunner builds a runner over a cycle function.
func NewRunner(cycle CycleFunc, interval time.Duration, log *logging.Logger) *Runner {
	return &Runner{
		cycle:    cycle,
		interval: interval,
		log:      log.Component("runner"),
		trigger:  make(chan struct{}, 1),
	}
}

// SetObserver registers the single observer notified after each cycle.
// A later registration replaces the earlier one.
func (r *Runner) SetObserver(obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = obs
}

// TriggerNow requests an immediate cycle. Never blocks: if a trigger is
// already pending the request coalesces into it.
func (r *Runner) TriggerNow() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Last returns the most recent cycle outcome. The report is replaced
// whole after each successful cycle, never mutated in place.
func (r *Runner) Last() (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.lastErr
}

// Run blocks, executing cycles until ctx is cancelled. It runs one
// cycle immediately on start.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, "interval")
		case <-r.trigger:
			r.runOnce(ctx, "manual")
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, trigger string) {
	report, err := r.cycle(ctx, trigger)

	r.mu.Lock()
	if err == nil {
		r.last = report
	}
	// A failed cycle keeps the previous report authoritative but still
	// surfaces the error to readers.
	r.lastErr = err
	obs := r.observer
	r.mu.Unlock()

	if err != nil {
		r.log.ErrorErr("cycle failed", err, map[string]any{"trigger": trigger})
	}
	if obs != nil {
		obs(report, err)
	}
}
