// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// deadRecord is one term of the evidence integral: a dead point and its
// unnormalized log posterior weight.
type deadRecord struct {
	point  *LivePoint
	logWt  float64
	logVol float64 // log prior volume remaining after this eviction
}

// Integrator accumulates the evidence estimate, its variance and the
// posterior weights from the ordered sequence of dead points. The prior
// volume above the i-th threshold is modeled as the shrinking sequence
// X_i = exp(-sum(1/N_j)), with N_j the live-point count at step j, so a
// growing live set is handled naturally.
//
// All arithmetic is in log space; contributions use the trapezoidal rule
// over the shrinking volume sequence. The evidence variance follows the
// information-based formula var(ln Z) ~ H/N, accumulated incrementally.
//
// Thread Safety: NOT safe for concurrent use; owned by the control loop.
type Integrator struct {
	logZ    float64
	logZVar float64
	info    float64 // information H in nats
	logVol  float64 // log of the remaining prior volume
	prevL   float64 // log-likelihood of the previous dead point

	records   []deadRecord
	finalized bool
}

// NewIntegrator creates an integrator with the full prior volume remaining.
func NewIntegrator() *Integrator {
	return &Integrator{
		logZ:   math.Inf(-1),
		logVol: 0,
		prevL:  math.Inf(-1),
	}
}

// Record consumes one dead point, shrinking the volume by 1/nlive and
// adding the trapezoidal contribution to the evidence.
//
// Inputs:
//   - dead: The evicted point. Ownership passes to the integrator.
//   - nlive: Live-point count at the moment of eviction.
func (it *Integrator) Record(dead *LivePoint, nlive int) {
	dlv := 1.0 / float64(nlive)
	it.accumulate(dead, it.logVol+log1mexp(-dlv), it.logVol-dlv)
}

// Finalize drains the remaining live points into the integral, spreading the
// remaining prior volume evenly over them in ascending likelihood order, and
// freezes the estimate. Must be called exactly once, after the main loop.
//
// Inputs:
//   - live: The remaining live points. Ownership passes to the integrator.
func (it *Integrator) Finalize(live []*LivePoint) {
	if it.finalized {
		return
	}
	sortPointsAscending(live)

	n := len(live)
	if n > 0 {
		logDVol := it.logVol - math.Log(float64(n))
		for i, p := range live {
			// Remaining volume after this point: (n-1-i)/n of it.
			var logVolAfter float64
			if i == n-1 {
				logVolAfter = math.Inf(-1)
			} else {
				logVolAfter = it.logVol + math.Log(float64(n-1-i)/float64(n))
			}
			it.accumulate(p, logDVol, logVolAfter)
		}
	}
	it.logVol = math.Inf(-1)
	it.finalized = true
}

// accumulate adds one term with shell log-volume logDVol, then sets the
// remaining volume to logVolAfter.
func (it *Integrator) accumulate(p *LivePoint, logDVol, logVolAfter float64) {
	// Trapezoid over the likelihood: average of the previous and current
	// levels, in log space.
	logLMid := logAddExp(it.prevL, p.LogL) - math.Ln2
	logWt := logDVol + logLMid

	logZNew := logAddExp(it.logZ, logWt)
	hNew := it.info
	if !math.IsInf(logZNew, -1) {
		hNew = math.Exp(logWt-logZNew)*logLMid +
			math.Exp(it.logZ-logZNew)*(it.info+it.logZ) - logZNew
		if math.IsNaN(hNew) || math.IsInf(hNew, 0) {
			hNew = it.info
		}
	}

	// Incremental variance accumulation: d(var) = 2 dH dlogvol.
	dVol := it.logVol - logVolAfter
	if math.IsInf(dVol, 1) {
		dVol = 0 // the closing shell carries no volume beyond it
	}
	if dh := hNew - it.info; dh > 0 && dVol > 0 {
		it.logZVar += 2 * dh * dVol
	}

	it.info = hNew
	it.logZ = logZNew
	it.logVol = logVolAfter
	it.prevL = p.LogL
	it.records = append(it.records, deadRecord{point: p, logWt: logWt, logVol: logVolAfter})
}

// LogZ returns the current evidence estimate in log space.
func (it *Integrator) LogZ() float64 {
	return it.logZ
}

// LogZErr returns the standard error of LogZ.
func (it *Integrator) LogZErr() float64 {
	if it.logZVar <= 0 {
		return 0
	}
	return math.Sqrt(it.logZVar)
}

// Information returns the accumulated information H in nats.
func (it *Integrator) Information() float64 {
	return it.info
}

// Iterations returns how many dead points have been recorded.
func (it *Integrator) Iterations() int {
	return len(it.records)
}

// RemainingLogZ returns an upper bound on the evidence still unaccounted
// for: the best live log-likelihood times the remaining prior volume.
func (it *Integrator) RemainingLogZ(maxLiveLogL float64) float64 {
	return maxLiveLogL + it.logVol
}

// ESS returns the effective sample size 1/sum(p_i^2) of the normalized
// posterior weights accumulated so far. O(n) in the number of dead points.
func (it *Integrator) ESS() float64 {
	if len(it.records) == 0 {
		return 0
	}
	logWts := make([]float64, len(it.records))
	for i, r := range it.records {
		logWts[i] = r.logWt
	}
	logTotal := floats.LogSumExp(logWts)
	if math.IsInf(logTotal, -1) {
		return 0
	}
	sumSq := 0.0
	for _, lw := range logWts {
		sumSq += math.Exp(2 * (lw - logTotal))
	}
	if sumSq == 0 {
		return 0
	}
	return 1 / sumSq
}

// Weights returns the dead points with normalized posterior weights, in
// eviction order. Weights sum to one up to floating-point error.
func (it *Integrator) Weights() ([]*LivePoint, []float64) {
	points := make([]*LivePoint, len(it.records))
	weights := make([]float64, len(it.records))
	logWts := make([]float64, len(it.records))
	for i, r := range it.records {
		points[i] = r.point
		logWts[i] = r.logWt
	}
	logTotal := floats.LogSumExp(logWts)
	for i, lw := range logWts {
		weights[i] = math.Exp(lw - logTotal)
	}
	return points, weights
}

// logAddExp returns log(exp(a)+exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// log1mexp returns log(1-exp(x)) for x < 0.
func log1mexp(x float64) float64 {
	return math.Log(-math.Expm1(x))
}
