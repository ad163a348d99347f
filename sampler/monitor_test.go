// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"math"
	"testing"
)

func TestStopReason_Converged(t *testing.T) {
	if !StopESS.Converged() || !StopEvidence.Converged() {
		t.Error("ESS and evidence stops are convergence")
	}
	if StopBudget.Converged() || StopCanceled.Converged() || StopNone.Converged() {
		t.Error("budget, cancel and none are not convergence")
	}
}

func TestConvergenceMonitor_NoCriterionMet(t *testing.T) {
	m := NewConvergenceMonitor(NewRunBudget(RunBudgetConfig{}), 1000, 0.01)
	reason, stop := m.ShouldStop(LoopState{
		Iteration:    10,
		LogZ:         -5,
		RemainingLog: -4, // huge remaining contribution
		ESS:          50,
	})
	if stop || reason != StopNone {
		t.Errorf("ShouldStop = (%v, %v), want (StopNone, false)", reason, stop)
	}
}

func TestConvergenceMonitor_ESSTarget(t *testing.T) {
	m := NewConvergenceMonitor(NewRunBudget(RunBudgetConfig{}), 100, 0)
	reason, stop := m.ShouldStop(LoopState{ESS: 150, LogZ: -5, RemainingLog: 0})
	if !stop || reason != StopESS {
		t.Errorf("ShouldStop = (%v, %v), want (StopESS, true)", reason, stop)
	}
}

func TestConvergenceMonitor_EvidenceTolerance(t *testing.T) {
	m := NewConvergenceMonitor(NewRunBudget(RunBudgetConfig{}), 0, 0.1)

	// Remaining contribution far below the accumulated evidence.
	reason, stop := m.ShouldStop(LoopState{LogZ: -5, RemainingLog: -20})
	if !stop || reason != StopEvidence {
		t.Errorf("converged case = (%v, %v), want (StopEvidence, true)", reason, stop)
	}

	// Remaining comparable to the accumulated evidence: keep going.
	if reason, stop := m.ShouldStop(LoopState{LogZ: -5, RemainingLog: -5}); stop {
		t.Errorf("unconverged case = (%v, %v), want no stop", reason, stop)
	}
}

func TestConvergenceMonitor_NoEvidenceYet(t *testing.T) {
	// -Inf logZ (no evidence accumulated) must never satisfy the tolerance.
	m := NewConvergenceMonitor(NewRunBudget(RunBudgetConfig{}), 0, 0.5)
	if reason, stop := m.ShouldStop(LoopState{LogZ: math.Inf(-1), RemainingLog: -3}); stop {
		t.Errorf("empty integral = (%v, %v), want no stop", reason, stop)
	}
}

func TestConvergenceMonitor_BudgetWinsOverQuality(t *testing.T) {
	budget := NewRunBudget(RunBudgetConfig{MaxCalls: 10})
	m := NewConvergenceMonitor(budget, 100, 0.1)

	// State satisfies the ESS target AND the call budget: budget first.
	reason, stop := m.ShouldStop(LoopState{Calls: 10, ESS: 500, LogZ: -5, RemainingLog: -20})
	if !stop || reason != StopBudget {
		t.Errorf("ShouldStop = (%v, %v), want (StopBudget, true)", reason, stop)
	}
}

func TestConvergenceMonitor_DisabledCriteria(t *testing.T) {
	m := NewConvergenceMonitor(NewRunBudget(RunBudgetConfig{}), 0, 0)
	reason, stop := m.ShouldStop(LoopState{ESS: 1e9, LogZ: -5, RemainingLog: -100})
	if stop || reason != StopNone {
		t.Errorf("disabled criteria = (%v, %v), want (StopNone, false)", reason, stop)
	}
}
