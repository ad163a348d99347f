// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arclight-ai/nestor/sampler"
)

// buildProblem constructs one of the built-in demonstration problems.
//
// gaussian: a unit normal in d dimensions on a [-5, 5]^d box prior. The
// analytic log-evidence is -d*ln(10), up to the negligible truncated tail,
// which makes it the standard correctness check.
//
// eggbox: a strongly multimodal 2-D surface with 18 identical modes,
// exercising the slice sampler's ability to keep a multimodal population.
//
// rosenbrock: a curved degenerate 2-D ridge, the classic hard case for
// axis-aligned steps.
func buildProblem(name string, d, par int) (*sampler.Problem, error) {
	switch name {
	case "gaussian":
		return gaussianProblem(d, par)
	case "eggbox":
		return eggboxProblem(par)
	case "rosenbrock":
		return rosenbrockProblem(par)
	default:
		return nil, fmt.Errorf("unknown problem %q (want gaussian, eggbox, or rosenbrock)", name)
	}
}

func gaussianProblem(d, par int) (*sampler.Problem, error) {
	if d < 1 {
		return nil, fmt.Errorf("gaussian dimension must be positive, got %d", d)
	}
	names := make([]string, d)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	space, err := sampler.NewParameterSpace(names...)
	if err != nil {
		return nil, err
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	transform := func(u []float64) []float64 {
		x := make([]float64, len(u))
		for i, v := range u {
			x[i] = -5 + 10*v
		}
		return x
	}
	loglike := func(x []float64) float64 {
		var total float64
		for _, v := range x {
			total += normal.LogProb(v)
		}
		return total
	}
	return sampler.NewProblem(space, transform, loglike, sampler.WithParallelism(par))
}

func eggboxProblem(par int) (*sampler.Problem, error) {
	space, err := sampler.NewParameterSpace("x", "y")
	if err != nil {
		return nil, err
	}
	transform := func(u []float64) []float64 {
		return []float64{u[0] * 10 * math.Pi, u[1] * 10 * math.Pi}
	}
	loglike := func(x []float64) float64 {
		t := 2 + math.Cos(x[0]/2)*math.Cos(x[1]/2)
		return 5 * math.Log(t)
	}
	return sampler.NewProblem(space, transform, loglike, sampler.WithParallelism(par))
}

func rosenbrockProblem(par int) (*sampler.Problem, error) {
	space, err := sampler.NewParameterSpace("x", "y")
	if err != nil {
		return nil, err
	}
	transform := func(u []float64) []float64 {
		return []float64{-5 + 10*u[0], -5 + 10*u[1]}
	}
	loglike := func(x []float64) float64 {
		a := x[1] - x[0]*x[0]
		b := 1 - x[0]
		return -(100*a*a + b*b) / 20
	}
	return sampler.NewProblem(space, transform, loglike, sampler.WithParallelism(par))
}
