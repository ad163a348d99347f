// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// TransformFunc maps a unit-cube point to physical parameter space. It must
// be defined for all of [0,1]^d and return a slice of the same length.
type TransformFunc func(unit []float64) []float64

// LogLikelihoodFunc evaluates the log-likelihood at a physical point. It must
// return a finite value or exactly -Inf, never NaN or +Inf.
type LogLikelihoodFunc func(physical []float64) float64

// Problem wraps the user-supplied prior transform and log-likelihood with
// contract enforcement and batched, order-preserving evaluation.
//
// The transform and likelihood are treated as pure functions of their input
// and may be invoked concurrently; all other engine state is confined to the
// control loop. Problem only adds an atomic call counter, so it is safe for
// concurrent use.
type Problem struct {
	space     *ParameterSpace
	transform TransformFunc
	loglike   LogLikelihoodFunc

	// Parallelism degree for batched evaluation. 1 means serial.
	parallelism int

	calls  atomic.Int64
	logger *slog.Logger
}

// ProblemOption configures a Problem during creation.
type ProblemOption func(*Problem)

// WithParallelism sets the number of concurrent likelihood evaluations used
// for batches. Values below 1 are treated as 1.
func WithParallelism(n int) ProblemOption {
	return func(p *Problem) {
		if n < 1 {
			n = 1
		}
		p.parallelism = n
	}
}

// WithProblemLogger sets the logger.
func WithProblemLogger(logger *slog.Logger) ProblemOption {
	return func(p *Problem) {
		p.logger = logger
	}
}

// NewProblem creates a Problem for the given space and callables.
//
// Inputs:
//   - space: Parameter space describing dimension and wrapped flags.
//   - transform: Prior transform, unit cube to physical space.
//   - loglike: Log-likelihood over physical space.
//   - opts: Optional configuration functions.
//
// Outputs:
//   - *Problem: The adapter, ready to use.
//   - error: Non-nil if any required input is nil.
func NewProblem(space *ParameterSpace, transform TransformFunc, loglike LogLikelihoodFunc, opts ...ProblemOption) (*Problem, error) {
	if space == nil {
		return nil, fmt.Errorf("%w: nil parameter space", ErrInvalidConfig)
	}
	if transform == nil {
		return nil, fmt.Errorf("%w: nil prior transform", ErrInvalidConfig)
	}
	if loglike == nil {
		return nil, fmt.Errorf("%w: nil log-likelihood", ErrInvalidConfig)
	}

	p := &Problem{
		space:       space,
		transform:   transform,
		loglike:     loglike,
		parallelism: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Space returns the parameter space.
func (p *Problem) Space() *ParameterSpace {
	return p.space
}

// Dim returns the number of parameters.
func (p *Problem) Dim() int {
	return p.space.Dim()
}

// Calls returns the number of likelihood evaluations performed so far.
func (p *Problem) Calls() int64 {
	return p.calls.Load()
}

// Evaluate transforms and evaluates a single unit-cube point.
//
// Inputs:
//   - ctx: Context checked before the evaluation starts.
//   - unit: Point in [0,1]^d. Not retained; contents are copied.
//
// Outputs:
//   - physical: The transformed point.
//   - logl: The log-likelihood, finite or -Inf.
//   - error: ErrInvalidUnitPoint, ErrInvalidTransform or ErrInvalidLikelihood
//     on contract violation; the context error if ctx is done.
func (p *Problem) Evaluate(ctx context.Context, unit []float64) (physical []float64, logl float64, err error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := p.space.CheckUnit(unit); err != nil {
		return nil, 0, err
	}

	physical = p.transform(append([]float64(nil), unit...))
	if len(physical) != p.space.Dim() {
		p.logger.Error("prior transform dimension mismatch",
			"got", len(physical),
			"want", p.space.Dim())
		return nil, 0, fmt.Errorf("%w: got %d values, want %d", ErrInvalidTransform, len(physical), p.space.Dim())
	}

	logl = p.loglike(physical)
	p.calls.Add(1)
	likelihoodCallsTotal.Inc()

	if math.IsNaN(logl) || math.IsInf(logl, 1) {
		// Clipping here would silently corrupt the evidence integral,
		// so the contract violation is fatal.
		p.logger.Error("invalid log-likelihood value",
			"logl", logl,
			"physical", physical)
		return nil, 0, fmt.Errorf("%w: got %v at %v", ErrInvalidLikelihood, logl, physical)
	}
	return physical, logl, nil
}

// Evaluation is the result of evaluating one unit-cube point in a batch.
type Evaluation struct {
	Unit     []float64
	Physical []float64
	LogL     float64
}

// EvaluateBatch transforms and evaluates a batch of unit-cube points,
// preserving input order in the output. Evaluations run concurrently up to
// the configured parallelism degree. Cancellation is checked once before the
// batch starts; a batch in flight always runs to completion so that the call
// counter and diagnostics stay deterministic.
//
// Inputs:
//   - ctx: Context checked before the batch starts.
//   - units: Points in [0,1]^d.
//
// Outputs:
//   - []Evaluation: One entry per input point, in input order.
//   - error: First contract violation or the context error if ctx was
//     already done.
func (p *Problem) EvaluateBatch(ctx context.Context, units [][]float64) ([]Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Detach so an in-flight batch is never interrupted mid-evaluation.
	batchCtx := context.WithoutCancel(ctx)

	results := make([]Evaluation, len(units))

	if p.parallelism <= 1 || len(units) == 1 {
		for i, u := range units {
			physical, logl, err := p.Evaluate(batchCtx, u)
			if err != nil {
				return nil, fmt.Errorf("batch point %d: %w", i, err)
			}
			results[i] = Evaluation{Unit: append([]float64(nil), u...), Physical: physical, LogL: logl}
		}
		return results, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(p.parallelism)
	for i, u := range units {
		g.Go(func() error {
			physical, logl, err := p.Evaluate(batchCtx, u)
			if err != nil {
				return fmt.Errorf("batch point %d: %w", i, err)
			}
			results[i] = Evaluation{Unit: append([]float64(nil), u...), Physical: physical, LogL: logl}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
