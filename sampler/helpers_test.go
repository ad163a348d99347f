// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"math"
	"math/rand/v2"
	"testing"
)

func mustSpace(t *testing.T, names ...string) *ParameterSpace {
	t.Helper()
	space, err := NewParameterSpace(names...)
	if err != nil {
		t.Fatalf("NewParameterSpace(%v): %v", names, err)
	}
	return space
}

// boxTransform maps the unit cube onto [lo, hi]^d.
func boxTransform(lo, hi float64) TransformFunc {
	return func(u []float64) []float64 {
		x := make([]float64, len(u))
		for i, v := range u {
			x[i] = lo + (hi-lo)*v
		}
		return x
	}
}

// stdNormalLogLike is an isotropic unit normal, the standard analytic check:
// on a [-5,5]^d box prior the log-evidence is -d*ln(10).
func stdNormalLogLike(x []float64) float64 {
	total := -0.5 * float64(len(x)) * math.Log(2*math.Pi)
	for _, v := range x {
		total -= 0.5 * v * v
	}
	return total
}

func newGaussianProblem(t *testing.T, dim int, opts ...ProblemOption) *Problem {
	t.Helper()
	names := make([]string, dim)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	problem, err := NewProblem(mustSpace(t, names...), boxTransform(-5, 5), stdNormalLogLike, opts...)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	return problem
}

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// mkPoint builds a live point with the given log-likelihood; coordinates are
// irrelevant for ordering tests.
func mkPoint(logl float64) *LivePoint {
	return &LivePoint{Unit: []float64{0.5}, Physical: []float64{0}, LogL: logl}
}
