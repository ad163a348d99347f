// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"context"
	"errors"
	"math"
	"testing"
)

// populateLive fills a live set with direct prior draws above threshold.
func populateLive(t *testing.T, problem *Problem, n int, seed uint64) *LiveSet {
	t.Helper()
	live := NewLiveSet()
	d := NewDirectSampler(problem, testRNG(seed), DefaultDirectConfig())
	for i := 0; i < n; i++ {
		p, err := d.Propose(context.Background(), math.Inf(-1))
		if err != nil {
			t.Fatalf("populate %d: %v", i, err)
		}
		live.Add(p)
	}
	return live
}

func TestSliceSampler_ProposeAboveThreshold(t *testing.T) {
	problem := newGaussianProblem(t, 2)
	live := populateLive(t, problem, 50, 21)
	s := NewSliceSampler(problem, live, testRNG(22), DefaultSliceConfig())

	threshold := live.Worst().LogL
	for i := 0; i < 100; i++ {
		p, err := s.Propose(context.Background(), threshold)
		if err != nil {
			t.Fatalf("Propose %d: %v", i, err)
		}
		if !(p.LogL > threshold) {
			t.Fatalf("proposal %d logl=%v not above threshold %v", i, p.LogL, threshold)
		}
		if err := problem.Space().CheckUnit(p.Unit); err != nil {
			t.Fatalf("proposal %d outside unit cube: %v", i, err)
		}
	}
	if s.StuckCount() != 0 {
		t.Errorf("StuckCount() = %d on a smooth likelihood", s.StuckCount())
	}
}

func TestSliceSampler_DefaultNSteps(t *testing.T) {
	problem := newGaussianProblem(t, 3)
	live := populateLive(t, problem, 10, 23)
	s := NewSliceSampler(problem, live, testRNG(24), DefaultSliceConfig())
	if s.NSteps() != 6 {
		t.Errorf("NSteps() = %d, want 2*dim = 6", s.NSteps())
	}
}

func TestSliceSampler_WrappedProposalsStayInRange(t *testing.T) {
	space := mustSpace(t, "phase")
	if err := space.Wrap("phase"); err != nil {
		t.Fatal(err)
	}
	// Smooth periodic likelihood over the wrapped coordinate.
	problem, err := NewProblem(space,
		func(u []float64) []float64 { return u },
		func(x []float64) float64 { return math.Cos(2 * math.Pi * x[0]) })
	if err != nil {
		t.Fatal(err)
	}
	live := populateLive(t, problem, 20, 25)
	s := NewSliceSampler(problem, live, testRNG(26), DefaultSliceConfig())

	for i := 0; i < 2000; i++ {
		p, err := s.Propose(context.Background(), -0.99)
		if err != nil {
			t.Fatalf("Propose %d: %v", i, err)
		}
		if p.Unit[0] < 0 || p.Unit[0] >= 1 {
			t.Fatalf("wrapped proposal %d = %v outside [0,1)", i, p.Unit[0])
		}
	}
}

func TestSliceSampler_StepWrapsPeriodicDims(t *testing.T) {
	space := mustSpace(t, "a", "phase")
	if err := space.Wrap("phase"); err != nil {
		t.Fatal(err)
	}
	problem, err := NewProblem(space,
		func(u []float64) []float64 { return u },
		func(x []float64) float64 { return 0 })
	if err != nil {
		t.Fatal(err)
	}
	s := NewSliceSampler(problem, NewLiveSet(), testRNG(27), DefaultSliceConfig())

	// Step off the top edge along the wrapped axis: wraps.
	p, in := s.step([]float64{0.5, 0.9}, []float64{0, 1}, 0.3)
	if !in {
		t.Fatal("wrapped step reported out of cube")
	}
	if math.Abs(p[1]-0.2) > 1e-12 {
		t.Errorf("wrapped coordinate = %v, want 0.2", p[1])
	}

	// Same move on the non-wrapped axis: out of cube.
	if _, in := s.step([]float64{0.9, 0.5}, []float64{1, 0}, 0.3); in {
		t.Error("non-wrapped step off the edge should be out of cube")
	}
}

func TestSliceSampler_PlateauReportsStuck(t *testing.T) {
	// Constant likelihood with a threshold at that constant: no proposal
	// can strictly improve, every bracket collapses.
	space := mustSpace(t, "x")
	problem, err := NewProblem(space,
		func(u []float64) []float64 { return u },
		func(x []float64) float64 { return 1 })
	if err != nil {
		t.Fatal(err)
	}
	live := NewLiveSet()
	for i := 0; i < 5; i++ {
		live.Add(&LivePoint{Unit: []float64{0.1 * float64(i+1)}, Physical: []float64{0}, LogL: 1})
	}
	config := DefaultSliceConfig()
	config.MaxReseeds = 3
	s := NewSliceSampler(problem, live, testRNG(28), config)

	_, err = s.Propose(context.Background(), 1)
	if !errors.Is(err, ErrProposalStuck) {
		t.Fatalf("err = %v, want ErrProposalStuck", err)
	}
	if s.StuckCount() != 3 {
		t.Errorf("StuckCount() = %d, want 3 (one per reseed)", s.StuckCount())
	}
}

func TestSliceSampler_EmptyLiveSet(t *testing.T) {
	problem := newGaussianProblem(t, 1)
	s := NewSliceSampler(problem, NewLiveSet(), testRNG(29), DefaultSliceConfig())
	if _, err := s.Propose(context.Background(), 0); !errors.Is(err, ErrEmptyLiveSet) {
		t.Errorf("err = %v, want ErrEmptyLiveSet", err)
	}
}

func TestSliceSampler_ScaleAdaptation(t *testing.T) {
	problem := newGaussianProblem(t, 2)
	s := NewSliceSampler(problem, NewLiveSet(), testRNG(30), DefaultSliceConfig())

	// Heavy contraction shrinks the bracket scale.
	before := s.Scale()
	s.adapt(&walkState{steps: 4, shrinks: 40})
	if s.Scale() >= before {
		t.Errorf("Scale() = %v, want below %v after heavy contraction", s.Scale(), before)
	}

	// Near-free acceptance grows it back, capped at the cube scale.
	for i := 0; i < 100; i++ {
		s.adapt(&walkState{steps: 4, shrinks: 0})
	}
	if s.Scale() != maxScale {
		t.Errorf("Scale() = %v, want capped at %v", s.Scale(), maxScale)
	}
}

func TestSliceSampler_NStepsAdaptation(t *testing.T) {
	problem := newGaussianProblem(t, 2)
	config := DefaultSliceConfig()
	config.AdaptSteps = true
	config.MaxNSteps = 6
	s := NewSliceSampler(problem, NewLiveSet(), testRNG(31), config)

	before := s.NSteps()
	for i := 0; i < 10; i++ {
		s.adapt(&walkState{steps: 4, shrinks: 100})
	}
	if s.NSteps() <= before {
		t.Errorf("NSteps() = %d, want growth beyond %d under heavy contraction", s.NSteps(), before)
	}
	if s.NSteps() > config.MaxNSteps {
		t.Errorf("NSteps() = %d exceeds cap %d", s.NSteps(), config.MaxNSteps)
	}
}
