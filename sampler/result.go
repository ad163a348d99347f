// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Status describes how a run ended.
type Status string

const (
	// StatusConverged means a convergence criterion (ESS or evidence
	// tolerance) was satisfied.
	StatusConverged Status = "converged"
	// StatusBudgetExhausted means a resource budget stopped the run before
	// convergence. The result is still usable but incomplete.
	StatusBudgetExhausted Status = "budget_exhausted"
	// StatusCanceled means the caller's context was canceled.
	StatusCanceled Status = "canceled"
)

// Sample is one weighted posterior sample.
type Sample struct {
	// Physical holds the parameter values in physical space.
	Physical []float64 `json:"physical"`
	// LogL is the log-likelihood at the point.
	LogL float64 `json:"logl"`
	// Weight is the normalized posterior weight; weights sum to 1.
	Weight float64 `json:"weight"`
}

// ParamSummary holds the weighted posterior mean and standard deviation of
// one parameter.
type ParamSummary struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Diagnostics carries sampling health counters for a completed run.
type Diagnostics struct {
	// TieRejections counts candidates rejected for not strictly improving
	// on the worst live point. A large count suggests a plateau in the
	// likelihood; adding jitter to the likelihood breaks the plateau.
	TieRejections int64 `json:"tie_rejections"`
	// StuckProposals counts slice walks abandoned after bracket collapse.
	StuckProposals int64 `json:"stuck_proposals"`
	// SamplerSwitched reports whether the run fell back from direct
	// rejection sampling to slice sampling.
	SamplerSwitched bool `json:"sampler_switched"`
	// SwitchIteration is the iteration at which the switch happened, or 0.
	SwitchIteration int64 `json:"switch_iteration,omitempty"`
	// OrderZScore is the final insertion-order U-test z-score. Values
	// beyond roughly +-3 indicate biased constrained sampling.
	OrderZScore float64 `json:"order_zscore"`
	// OrderInserts is the total number of replacements the order
	// diagnostic has seen. It equals the iteration count: only candidates
	// that entered the live set are recorded.
	OrderInserts int64 `json:"order_inserts"`
	// OrderRunLengths lists run segment lengths between 3-sigma order
	// violations. Empty means no violation was seen.
	OrderRunLengths []int64 `json:"order_run_lengths,omitempty"`
}

// Result is the output of a nested sampling run.
//
// Thread Safety: immutable after construction; safe to share.
type Result struct {
	// RunID uniquely identifies the run, for correlating logs and metrics.
	RunID string `json:"run_id"`
	// Status reports how the run ended.
	Status Status `json:"status"`
	// StopReason is the specific stopping criterion that fired.
	StopReason StopReason `json:"stop_reason"`

	// LogZ is the log-evidence estimate.
	LogZ float64 `json:"logz"`
	// LogZErr is the statistical uncertainty on LogZ.
	LogZErr float64 `json:"logz_err"`
	// Information is the KL divergence from prior to posterior, in nats.
	Information float64 `json:"information"`
	// ESS is the effective sample size of the weighted samples.
	ESS float64 `json:"ess"`

	// Samples holds the weighted posterior samples in discovery order.
	Samples []Sample `json:"samples"`
	// Summaries holds per-parameter posterior moments, in space order.
	Summaries []ParamSummary `json:"summaries"`

	// Iterations is the number of replacement iterations performed.
	Iterations int64 `json:"iterations"`
	// Calls is the total number of likelihood evaluations.
	Calls int64 `json:"calls"`
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Converged reports whether the run satisfied a convergence criterion.
func (r *Result) Converged() bool {
	return r.Status == StatusConverged
}

// Efficiency returns accepted iterations per likelihood call.
func (r *Result) Efficiency() float64 {
	if r.Calls == 0 {
		return 0
	}
	return float64(r.Iterations) / float64(r.Calls)
}

// String renders a one-line summary fit for logs.
func (r *Result) String() string {
	return fmt.Sprintf("Result{status=%s logz=%.4f+-%.4f ess=%.0f iters=%d calls=%d}",
		r.Status, r.LogZ, r.LogZErr, r.ESS, r.Iterations, r.Calls)
}

// summarize computes weighted posterior moments for each parameter.
func summarize(space *ParameterSpace, samples []Sample) []ParamSummary {
	names := space.Names()
	out := make([]ParamSummary, len(names))
	values := make([]float64, len(samples))
	weights := make([]float64, len(samples))
	// Rescale so weights sum to n: the unbiased weighted variance divides
	// by (sum of weights - 1), which is zero for normalized weights.
	for j, s := range samples {
		weights[j] = s.Weight * float64(len(samples))
	}
	for i, name := range names {
		for j, s := range samples {
			values[j] = s.Physical[i]
		}
		mean, std := stat.MeanStdDev(values, weights)
		if math.IsNaN(std) || math.IsInf(std, 0) {
			std = 0
		}
		out[i] = ParamSummary{Name: name, Mean: mean, StdDev: std}
	}
	return out
}

// ResampleEqual converts weighted samples into an equally weighted set by
// systematic resampling. Samples with large weights appear multiple times.
//
// Inputs:
//   - samples: Weighted posterior samples; weights should sum to 1.
//   - rng: Source of the single uniform offset. Must not be nil.
//
// Outputs:
//   - []Sample: len(samples) draws, each with Weight 1/len(samples).
func ResampleEqual(samples []Sample, rng *rand.Rand) []Sample {
	n := len(samples)
	if n == 0 {
		return nil
	}
	out := make([]Sample, 0, n)
	w := 1.0 / float64(n)
	u := rng.Float64() * w
	var cum float64
	j := 0
	for i := 0; i < n; i++ {
		target := u + float64(i)*w
		for j < n-1 && cum+samples[j].Weight < target {
			cum += samples[j].Weight
			j++
		}
		s := samples[j]
		out = append(out, Sample{
			Physical: append([]float64(nil), s.Physical...),
			LogL:     s.LogL,
			Weight:   w,
		})
	}
	return out
}
