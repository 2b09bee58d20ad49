// Package metrics tracks in-process counters for evaluation cycles.
// The counters reset with the process; long-term numbers live in the
// history log.
package metrics

import (
	"sync"
	"time"
)

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// Registry accumulates evaluation counters.
type Registry struct {
	mu sync.Mutex

	cyclesRun     int64
	cyclesFailed  int64
	lastPoints    int
	lastMax       int
	lastDuration  time.Duration
	answerCorrect int64
	answerWrong   int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RecordCycle records one evaluation cycle.
func (r *Registry) RecordCycle(success bool, duration time.Duration, points, max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cyclesRun++
	r.lastDuration = duration
	if !success {
		r.cyclesFailed++
		return
	}
	r.lastPoints = points
	r.lastMax = max
}

// RecordAnswer records a forensic answer attempt.
func (r *Registry) RecordAnswer(correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if correct {
		r.answerCorrect++
	} else {
		r.answerWrong++
	}
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	CyclesRun         int64         `json:"cycles_run"`
	CyclesFailed      int64         `json:"cycles_failed"`
	LastPoints        int           `json:"last_points"`
	LastMaxPoints     int           `json:"last_max_points"`
	LastCycleDuration time.Duration `json:"last_cycle_duration_ns"`
	AnswersCorrect    int64         `json:"answers_correct"`
	AnswersWrong      int64         `json:"answers_wrong"`
}

// Snapshot returns a copy of the current counters.
func (r *Registry) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		CyclesRun:         r.cyclesRun,
		CyclesFailed:      r.cyclesFailed,
		LastPoints:        r.lastPoints,
		LastMaxPoints:     r.lastMax,
		LastCycleDuration: r.lastDuration,
		AnswersCorrect:    r.answerCorrect,
		AnswersWrong:      r.answerWrong,
	}
}
