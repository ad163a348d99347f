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
)

// OrderAccumulator runs a Mann-Whitney-Wilcoxon U test on the insertion
// ranks of replacement points. Under correct constrained sampling each
// replacement's rank among the live points is uniform; a biased step
// sampler (too few steps, bad mixing) shows up as a drifting z-score.
//
// To quantify how long sampling proceeds without a detectable order
// problem, the accumulator resets itself whenever the z-score exceeds the
// reset threshold and records the length of the run segment; short run
// lengths are a convergence warning.
//
// Thread Safety: NOT safe for concurrent use; owned by the control loop.
type OrderAccumulator struct {
	histogram []uint32
	u         float64

	resetZ     float64
	runLengths []int64
}

// orderResetZ is the z-score at which the accumulator resets and records a
// run length. Three sigma, following standard practice for this test.
const orderResetZ = 3.0

// NewOrderAccumulator creates an accumulator sized for n live points. The
// histogram grows automatically if the population grows.
func NewOrderAccumulator(n int) *OrderAccumulator {
	if n < 1 {
		n = 1
	}
	return &OrderAccumulator{
		histogram: make([]uint32, n),
		resetZ:    orderResetZ,
	}
}

// Add records the insertion rank of one replacement among n live points.
//
// Inputs:
//   - rank: Number of live points below the replacement, in [0, n].
//   - n: Live-point count at insertion time (may vary over the run).
//
// Outputs:
//   - error: Non-nil if rank is outside [0, n].
func (a *OrderAccumulator) Add(rank, n int) error {
	if rank < 0 || rank > n {
		return fmt.Errorf("sampler: insertion rank %d out of %d invalid", rank, n)
	}
	if rank >= len(a.histogram) {
		grown := make([]uint32, rank+1)
		copy(grown, a.histogram)
		a.histogram = grown
	}
	a.u += (float64(rank) + 0.5) / float64(n)
	a.histogram[rank]++

	if z := a.ZScore(); math.Abs(z) > a.resetZ {
		a.runLengths = append(a.runLengths, a.Len())
		a.Reset()
	}
	return nil
}

// ZScore returns the U-test z-score against a uniform rank distribution.
func (a *OrderAccumulator) ZScore() float64 {
	n := a.Len()
	if n == 0 {
		return 0
	}
	mean := float64(n) * 0.5
	sigma := math.Sqrt(float64(n) / 12.0)
	return (a.u - mean) / sigma
}

// Len returns the number of ranks accumulated since the last reset.
func (a *OrderAccumulator) Len() int64 {
	var total int64
	for _, c := range a.histogram {
		total += int64(c)
	}
	return total
}

// Inserts returns the total number of ranks recorded over the whole run,
// completed segments included.
func (a *OrderAccumulator) Inserts() int64 {
	total := a.Len()
	for _, r := range a.runLengths {
		total += r
	}
	return total
}

// Reset zeroes the counters, starting a new run segment.
func (a *OrderAccumulator) Reset() {
	for i := range a.histogram {
		a.histogram[i] = 0
	}
	a.u = 0
}

// RunLengths returns the lengths of completed segments, each terminated by
// a 3-sigma order violation. An empty slice means no violation so far.
func (a *OrderAccumulator) RunLengths() []int64 {
	return append([]int64(nil), a.runLengths...)
}
