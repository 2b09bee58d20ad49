package service

import (
	"context"
	"time"

	"github.com/scorebox-project/scorebox/internal/engine"
	"github.com/scorebox-project/scorebox/internal/history"
	"github.com/scorebox-project/scorebox/internal/snapshot"
	"github.com/scorebox-project/scorebox/internal/store"
	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/logging"
	"github.com/scorebox-project/scorebox/pkg/metrics"
	"github.com/scorebox-project/scorebox/pkg/model"
	"github.com/scorebox-project/scorebox/pkg/webhook"
)

// Checker runs one full evaluation cycle: load rubric, collect
// snapshot, evaluate, persist carryover, append history.
type Checker struct {
	stateDir string
	store    *store.EncryptedStore
	provider snapshot.Provider
	history  *history.Log
	hooks    *webhook.Client
	log      *logging.Logger
}

// NewChecker wires a checker over an opened store and provider.
func NewChecker(stateDir string, st *store.EncryptedStore, provider snapshot.Provider, log *logging.Logger) *Checker {
	return &Checker{
		stateDir: stateDir,
		store:    st,
		provider: provider,
		history:  history.NewLog(stateDir),
		log:      log.Component("checker"),
	}
}

// SetNotifier attaches a webhook client. Notifications are queued, not
// sent inline, so a slow endpoint never stalls a cycle.
func (c *Checker) SetNotifier(hooks *webhook.Client) {
	c.hooks = hooks
}

// RunCycle executes one evaluation. A cycle that cannot produce a
// report returns an error and leaves all persisted state untouched, so
// the previous report stays authoritative.
func (c *Checker) RunCycle(ctx context.Context, trigger string) (*model.Report, error) {
	start := time.Now()
	report, err := c.runCycle(ctx, trigger)
	if err != nil {
		metrics.Default().RecordCycle(false, time.Since(start), 0, 0)
		return nil, err
	}
	metrics.Default().RecordCycle(true, time.Since(start), report.CurrentPoints, report.MaxPoints)
	return report, nil
}

func (c *Checker) runCycle(ctx context.Context, trigger string) (*model.Report, error) {
	rubric, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if rubric == nil {
		return nil, errclass.ErrEvaluationSkipped.WithMessage("no rubric configured")
	}

	snap, err := c.provider.Collect(ctx, rubric)
	if err != nil {
		if c.hooks != nil {
			_ = c.hooks.SendCheckFailed(trigger, err.Error(), true)
		}
		return nil, err
	}

	carry, err := LoadCarryover(c.stateDir)
	if err != nil {
		return nil, err
	}

	report, nextCarry := engine.Aggregate(rubric, snap, carry)

	if err := SaveCarryover(c.stateDir, nextCarry); err != nil {
		return nil, err
	}

	digest, err := engine.Digest(report)
	if err != nil {
		return nil, err
	}
	if _, err := c.history.Append(trigger, report, digest); err != nil {
		// History is an audit trail, not the result channel. Log and
		// carry on with the report.
		c.log.ErrorErr("history append failed", err)
	}

	if c.hooks != nil {
		_ = c.hooks.SendScoreUpdated(trigger, report.CurrentPoints, report.MaxPoints, true)
	}

	c.log.Info("cycle complete", map[string]any{
		"trigger": trigger,
		"points":  report.CurrentPoints,
		"max":     report.MaxPoints,
		"items":   len(report.Items),
	})
	return report, nil
}
