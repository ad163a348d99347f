// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import "math"

// StopReason identifies which criterion terminated the run.
type StopReason string

const (
	// StopNone means no criterion is satisfied yet.
	StopNone StopReason = ""

	// StopBudget means a hard resource limit was hit; the Result is
	// valid but incomplete.
	StopBudget StopReason = "budget_exhausted"

	// StopESS means the effective sample size target was reached.
	StopESS StopReason = "ess_reached"

	// StopEvidence means the estimated remaining evidence fell below the
	// fractional tolerance of the accumulated evidence.
	StopEvidence StopReason = "evidence_converged"

	// StopCanceled means the caller's context was canceled between
	// iterations.
	StopCanceled StopReason = "canceled"
)

// Converged reports whether the reason represents a quality-based stop
// rather than an exhausted budget or cancellation.
func (r StopReason) Converged() bool {
	return r == StopESS || r == StopEvidence
}

// LoopState is the monitor's view of the run after an iteration.
type LoopState struct {
	Iteration    int64
	Calls        int64
	LogZ         float64
	RemainingLog float64 // upper bound on unaccumulated log-evidence
	ESS          float64
}

// ConvergenceMonitor evaluates stopping criteria after each iteration, in
// priority order: hard budget first (always stops, Result marked
// incomplete), then ESS target, then remaining-evidence fraction.
//
// Thread Safety: NOT safe for concurrent use; owned by the control loop.
type ConvergenceMonitor struct {
	budget      *RunBudget
	minESS      float64
	evidenceTol float64
}

// NewConvergenceMonitor creates a monitor.
//
// Inputs:
//   - budget: Hard limits, checked first.
//   - minESS: Target effective sample size; 0 disables the criterion.
//   - evidenceTol: Tolerance on the remaining log-evidence contribution
//     (dlogz-style); 0 disables the criterion.
func NewConvergenceMonitor(budget *RunBudget, minESS, evidenceTol float64) *ConvergenceMonitor {
	return &ConvergenceMonitor{
		budget:      budget,
		minESS:      minESS,
		evidenceTol: evidenceTol,
	}
}

// ShouldStop evaluates the criteria against the current state.
//
// Outputs:
//   - StopReason: The satisfied criterion, or StopNone.
//   - bool: True if the run should stop.
func (m *ConvergenceMonitor) ShouldStop(st LoopState) (StopReason, bool) {
	if err := m.budget.Check(st.Calls); err != nil {
		return StopBudget, true
	}
	if m.minESS > 0 && st.ESS >= m.minESS {
		return StopESS, true
	}
	if m.evidenceTol > 0 && m.deltaLogZ(st) < m.evidenceTol {
		return StopEvidence, true
	}
	return StopNone, false
}

// deltaLogZ is the increase in log Z if all remaining evidence were added.
func (m *ConvergenceMonitor) deltaLogZ(st LoopState) float64 {
	if math.IsInf(st.LogZ, -1) {
		return math.Inf(1)
	}
	return logAddExp(st.LogZ, st.RemainingLog) - st.LogZ
}
