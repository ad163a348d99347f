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
	"math/rand/v2"
)

// Sampler produces a replacement live point above a log-likelihood threshold.
// The Controller switches between implementations at run time, so this is an
// interface rather than a compile-time choice.
type Sampler interface {
	// Propose returns a point whose log-likelihood strictly exceeds
	// threshold, or an error explaining why it could not.
	Propose(ctx context.Context, threshold float64) (*LivePoint, error)

	// Name identifies the sampler in logs and metrics.
	Name() string
}

// DirectConfig configures the direct (rejection) sampler.
type DirectConfig struct {
	// BatchSize is how many unit-cube draws are evaluated per batch.
	// Batches are how the parallel evaluation boundary is exercised.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxConsecutiveRejects bounds the rejection loop. When this many
	// proposals in a row fall below the threshold the sampler reports
	// ErrEfficiencyCollapsed instead of spinning; the controller then
	// switches to the step sampler.
	MaxConsecutiveRejects int `json:"max_consecutive_rejects" yaml:"max_consecutive_rejects"`
}

// DefaultDirectConfig returns sensible defaults. The reject bound is an
// empirically tuned constant: 400 consecutive misses puts the acceptance
// rate well below the ~1% regime where rejection sampling stops paying.
func DefaultDirectConfig() DirectConfig {
	return DirectConfig{
		BatchSize:             16,
		MaxConsecutiveRejects: 400,
	}
}

// DirectSampler draws replacement candidates uniformly from the unit cube
// and accepts the first one above the threshold. This is the default
// sampler; it is exact but its efficiency decays exponentially as the
// constrained region shrinks.
//
// Thread Safety: NOT safe for concurrent use; driven by the control loop.
type DirectSampler struct {
	problem *Problem
	rng     *rand.Rand
	config  DirectConfig
	logger  *slog.Logger

	proposed int64
	accepted int64
}

// NewDirectSampler creates a direct sampler.
//
// Inputs:
//   - problem: Evaluation adapter.
//   - rng: Seeded generator owned by the control loop.
//   - config: Sampler configuration.
//
// Outputs:
//   - *DirectSampler: Ready to use sampler.
func NewDirectSampler(problem *Problem, rng *rand.Rand, config DirectConfig) *DirectSampler {
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return &DirectSampler{
		problem: problem,
		rng:     rng,
		config:  config,
		logger:  slog.Default(),
	}
}

// WithDirectLogger sets the logger.
func (d *DirectSampler) WithDirectLogger(logger *slog.Logger) *DirectSampler {
	d.logger = logger
	return d
}

// Name implements Sampler.
func (d *DirectSampler) Name() string { return "direct" }

// Efficiency returns the lifetime acceptance rate, or 1 before any proposal.
func (d *DirectSampler) Efficiency() float64 {
	if d.proposed == 0 {
		return 1
	}
	return float64(d.accepted) / float64(d.proposed)
}

// Propose implements Sampler by rejection sampling from the unit cube.
//
// Draws are evaluated in batches through the Problem adapter so likelihood
// calls can run in parallel. The first draw in batch order above the
// threshold is accepted, keeping results independent of the parallelism
// degree. With threshold -Inf this is an accept-any-finite draw, which is
// how the live set is initialized.
//
// Outputs:
//   - *LivePoint: Accepted point with LogL > threshold.
//   - error: ErrEfficiencyCollapsed after MaxConsecutiveRejects misses,
//     ErrInvalidLikelihood on a contract violation, or the context error.
func (d *DirectSampler) Propose(ctx context.Context, threshold float64) (*LivePoint, error) {
	dim := d.problem.Dim()
	rejects := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := make([][]float64, d.config.BatchSize)
		for i := range batch {
			u := make([]float64, dim)
			for j := range u {
				u[j] = d.rng.Float64()
			}
			batch[i] = u
		}

		evals, err := d.problem.EvaluateBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("direct proposal: %w", err)
		}

		for _, ev := range evals {
			d.proposed++
			if ev.LogL > threshold {
				d.accepted++
				return &LivePoint{Unit: ev.Unit, Physical: ev.Physical, LogL: ev.LogL}, nil
			}
			rejects++
			if d.config.MaxConsecutiveRejects > 0 && rejects >= d.config.MaxConsecutiveRejects {
				d.logger.Debug("direct sampler efficiency collapsed",
					slog.Int("consecutive_rejects", rejects),
					slog.Float64("threshold", threshold),
					slog.Float64("efficiency", d.Efficiency()))
				return nil, ErrEfficiencyCollapsed
			}
		}
	}
}
