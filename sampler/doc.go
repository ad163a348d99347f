// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sampler implements nested sampling for Bayesian evidence and
// posterior estimation.
//
// A Problem pairs a prior transform (unit hypercube to physical space)
// with a log-likelihood. The ReactiveController maintains a population of
// live points, repeatedly replaces the worst one with a draw from the
// prior constrained to higher likelihood, and accumulates the evidence
// integral from the resulting shrinkage sequence. Constrained draws come
// from direct rejection sampling while it is efficient, falling back to a
// slice step sampler once the constrained region is a small fraction of
// the prior. The live population grows reactively when the effective
// sample size target lags behind evidence convergence.
//
// Minimal usage:
//
//	space, _ := sampler.NewParameterSpace("x", "y")
//	problem, _ := sampler.NewProblem(space, transform, loglike)
//	ctrl, _ := sampler.NewReactiveController(problem, sampler.DefaultConfig())
//	result, err := ctrl.Run(ctx)
package sampler
