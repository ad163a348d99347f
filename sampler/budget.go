// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"fmt"
	"time"
)

// RunBudgetConfig contains the hard resource limits of a run. A zero value
// disables the corresponding limit.
type RunBudgetConfig struct {
	MaxCalls      int64         // Maximum likelihood evaluations
	MaxIterations int64         // Maximum eviction iterations
	TimeLimit     time.Duration // Wall clock limit
}

// RunBudget tracks resource consumption during a run. Exceeding any limit is
// not an error: the run stops gracefully and the Result is marked incomplete.
//
// Thread Safety: NOT safe for concurrent use; consulted between iterations
// by the control loop only, so an in-flight likelihood batch always
// completes before a stop is honored.
type RunBudget struct {
	config    RunBudgetConfig
	startTime time.Time

	iterations int64

	exhausted   bool
	exhaustedBy string
}

// NewRunBudget creates a budget tracker starting now.
func NewRunBudget(config RunBudgetConfig) *RunBudget {
	return &RunBudget{
		config:    config,
		startTime: time.Now(),
	}
}

// Config returns the budget configuration.
func (b *RunBudget) Config() RunBudgetConfig {
	return b.config
}

// Iterations returns the number of recorded iterations.
func (b *RunBudget) Iterations() int64 {
	return b.iterations
}

// RecordIteration counts one eviction iteration.
func (b *RunBudget) RecordIteration() int64 {
	b.iterations++
	return b.iterations
}

// Elapsed returns the wall-clock time since the budget was created.
func (b *RunBudget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Check evaluates all limits against the given call count and returns the
// first exceeded one, latching the exhaustion reason.
//
// Inputs:
//   - calls: Likelihood evaluations performed so far.
//
// Outputs:
//   - error: ErrCallLimitExceeded, ErrIterationLimitExceeded,
//     ErrTimeLimitExceeded, or nil while within budget.
func (b *RunBudget) Check(calls int64) error {
	if b.exhausted {
		return b.exhaustionErr()
	}
	if b.config.MaxCalls > 0 && calls >= b.config.MaxCalls {
		b.exhausted = true
		b.exhaustedBy = "calls"
		return ErrCallLimitExceeded
	}
	if b.config.MaxIterations > 0 && b.iterations >= b.config.MaxIterations {
		b.exhausted = true
		b.exhaustedBy = "iterations"
		return ErrIterationLimitExceeded
	}
	if b.config.TimeLimit > 0 && time.Since(b.startTime) >= b.config.TimeLimit {
		b.exhausted = true
		b.exhaustedBy = "time"
		return ErrTimeLimitExceeded
	}
	return nil
}

// Exhausted reports whether a limit has been hit.
func (b *RunBudget) Exhausted() bool {
	return b.exhausted
}

// ExhaustedBy returns which limit caused exhaustion (empty if none).
func (b *RunBudget) ExhaustedBy() string {
	return b.exhaustedBy
}

func (b *RunBudget) exhaustionErr() error {
	switch b.exhaustedBy {
	case "calls":
		return ErrCallLimitExceeded
	case "iterations":
		return ErrIterationLimitExceeded
	case "time":
		return ErrTimeLimitExceeded
	default:
		return nil
	}
}

// String returns a human-readable budget status.
func (b *RunBudget) String() string {
	status := ""
	if b.exhausted {
		status = fmt.Sprintf(" [EXHAUSTED by %s]", b.exhaustedBy)
	}
	return fmt.Sprintf("Budget{iters=%d/%d, time=%v/%v}%s",
		b.iterations, b.config.MaxIterations,
		b.Elapsed().Round(time.Second), b.config.TimeLimit,
		status)
}
