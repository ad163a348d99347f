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
	"math/rand/v2"
)

// SliceConfig configures the slice step sampler.
type SliceConfig struct {
	// NSteps is the number of accepted moves per walk. More steps means
	// the returned point is more independent of its seed; too few
	// reintroduces correlation and biases the posterior. 0 means 2*dim.
	NSteps int `json:"nsteps" yaml:"nsteps"`

	// RandomDirectionProb is the probability of proposing along a random
	// unit vector instead of a coordinate axis. Mixing the two avoids
	// pathologies on strongly correlated likelihoods.
	RandomDirectionProb float64 `json:"random_direction_prob" yaml:"random_direction_prob"`

	// Scale is the initial bracket half-width in unit-cube coordinates.
	// Adapted between walks from the observed contraction rate.
	Scale float64 `json:"scale" yaml:"scale"`

	// AdaptSteps enables growing NSteps when the average contraction per
	// accepted move indicates insufficient mixing.
	AdaptSteps bool `json:"adapt_steps" yaml:"adapt_steps"`

	// MaxNSteps caps adaptive growth of NSteps.
	MaxNSteps int `json:"max_nsteps" yaml:"max_nsteps"`

	// MaxReseeds bounds how many times a collapsed bracket may restart
	// the walk from a different live point before giving up.
	MaxReseeds int `json:"max_reseeds" yaml:"max_reseeds"`
}

// DefaultSliceConfig returns sensible defaults. The numeric constants are
// empirically tuned; comparable engines expose them rather than fixing them.
func DefaultSliceConfig() SliceConfig {
	return SliceConfig{
		NSteps:              0, // resolved to 2*dim at construction
		RandomDirectionProb: 0.5,
		Scale:               1.0,
		AdaptSteps:          false,
		MaxNSteps:           128,
		MaxReseeds:          10,
	}
}

// bracketFloor terminates contraction on likelihood plateaus: once the
// bracket is narrower than this the walk is declared stuck and re-seeded.
const bracketFloor = 1e-10

// Scale adaptation coefficients, applied between walks.
const (
	scaleShrink      = 0.9
	scaleGrow        = 1.1
	targetShrinksPer = 4.0 // acceptable contractions per accepted move
	minScale         = 1e-8
	maxScale         = 1.0
)

// walkState is the transient per-walk state: current position, accepted-move
// count, contraction statistics and the last accepted direction. It lives
// only for the duration of one Propose walk.
type walkState struct {
	unit    []float64
	logl    float64
	steps   int
	shrinks int
	lastDir []float64
}

// SliceSampler generates replacement points by a multi-step slice-sampling
// random walk seeded from a surviving live point. It is swapped in by the
// controller when direct rejection sampling becomes too inefficient.
//
// Thread Safety: NOT safe for concurrent use; driven by the control loop.
type SliceSampler struct {
	problem *Problem
	live    *LiveSet
	rng     *rand.Rand
	config  SliceConfig
	wrapped []bool
	logger  *slog.Logger

	nsteps     int
	scale      float64
	stuckCount int64
}

// NewSliceSampler creates a slice sampler walking over the given live set.
//
// Inputs:
//   - problem: Evaluation adapter.
//   - live: Live set to seed walks from.
//   - rng: Seeded generator owned by the control loop.
//   - config: Sampler configuration.
//
// Outputs:
//   - *SliceSampler: Ready to use sampler.
func NewSliceSampler(problem *Problem, live *LiveSet, rng *rand.Rand, config SliceConfig) *SliceSampler {
	if config.NSteps <= 0 {
		config.NSteps = 2 * problem.Dim()
	}
	if config.Scale <= 0 || config.Scale > maxScale {
		config.Scale = 1.0
	}
	if config.MaxReseeds < 1 {
		config.MaxReseeds = 1
	}
	return &SliceSampler{
		problem: problem,
		live:    live,
		rng:     rng,
		config:  config,
		wrapped: problem.Space().WrappedMask(),
		logger:  slog.Default(),
		nsteps:  config.NSteps,
		scale:   config.Scale,
	}
}

// WithSliceLogger sets the logger.
func (s *SliceSampler) WithSliceLogger(logger *slog.Logger) *SliceSampler {
	s.logger = logger
	return s
}

// Name implements Sampler.
func (s *SliceSampler) Name() string { return "slice" }

// StuckCount returns how many walks were abandoned to a collapsed bracket.
func (s *SliceSampler) StuckCount() int64 {
	return s.stuckCount
}

// NSteps returns the current (possibly adapted) accepted-move count per walk.
func (s *SliceSampler) NSteps() int {
	return s.nsteps
}

// Scale returns the current adapted bracket half-width.
func (s *SliceSampler) Scale() float64 {
	return s.scale
}

// Propose implements Sampler with a slice-sampling random walk.
//
// Each walk seeds from a uniformly random surviving live point, then repeats:
// pick a direction (axis or random unit vector), bracket [-scale, +scale]
// along it, draw a position in the bracket, and either accept (log-likelihood
// strictly above threshold, inside the cube) or contract the bracket toward
// the origin and redraw. After NSteps accepted moves the final position is
// the replacement. A bracket that contracts below the floor (a likelihood
// plateau) abandons the walk, logs a stuck-proposal warning and re-seeds
// from a different live point.
//
// Outputs:
//   - *LivePoint: Replacement with LogL > threshold.
//   - error: ErrProposalStuck when every reseed collapsed,
//     ErrInvalidLikelihood on a contract violation, or the context error.
func (s *SliceSampler) Propose(ctx context.Context, threshold float64) (*LivePoint, error) {
	for reseed := 0; reseed < s.config.MaxReseeds; reseed++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seed := s.live.Random(s.rng)
		if seed == nil {
			return nil, ErrEmptyLiveSet
		}

		walk := &walkState{
			unit: append([]float64(nil), seed.Unit...),
			logl: seed.LogL,
		}

		point, stuck, err := s.walk(ctx, walk, threshold)
		if err != nil {
			return nil, err
		}
		if stuck {
			s.stuckCount++
			stuckProposalsTotal.Inc()
			s.logger.Warn("slice bracket collapsed, re-seeding walk",
				slog.Int("reseed", reseed),
				slog.Float64("threshold", threshold),
				slog.Int("accepted_steps", walk.steps))
			continue
		}

		s.adapt(walk)
		return point, nil
	}
	return nil, fmt.Errorf("%w: after %d reseeds", ErrProposalStuck, s.config.MaxReseeds)
}

// walk runs one random walk to completion. It returns stuck=true when a
// bracket contracted below the floor before reaching nsteps accepted moves.
func (s *SliceSampler) walk(ctx context.Context, walk *walkState, threshold float64) (*LivePoint, bool, error) {
	dim := s.problem.Dim()
	var physical []float64

	for walk.steps < s.nsteps {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		dir := s.direction(dim)
		lo, hi := -s.scale, s.scale

		for {
			t := lo + s.rng.Float64()*(hi-lo)
			proposal, inCube := s.step(walk.unit, dir, t)
			if inCube {
				phys, logl, err := s.problem.Evaluate(ctx, proposal)
				if err != nil {
					return nil, false, fmt.Errorf("slice proposal: %w", err)
				}
				if logl > threshold {
					walk.unit = proposal
					walk.logl = logl
					walk.steps++
					walk.lastDir = dir
					physical = phys
					break
				}
			}

			// Contract the bracket toward the current point.
			if t < 0 {
				lo = t
			} else {
				hi = t
			}
			walk.shrinks++
			if hi-lo < bracketFloor {
				return nil, true, nil
			}
		}
	}

	if physical == nil {
		// nsteps == 0 never happens (normalized at construction), but a
		// walk that somehow accepted no move must not return the seed.
		return nil, true, nil
	}
	return &LivePoint{Unit: walk.unit, Physical: physical, LogL: walk.logl}, false, nil
}

// direction draws a proposal direction: a coordinate axis, a random unit
// vector, or (when available) a perturbation of the last accepted direction.
func (s *SliceSampler) direction(dim int) []float64 {
	dir := make([]float64, dim)
	if s.rng.Float64() >= s.config.RandomDirectionProb {
		dir[s.rng.IntN(dim)] = 1
		return dir
	}

	norm := 0.0
	for i := range dir {
		dir[i] = s.rng.NormFloat64()
		norm += dir[i] * dir[i]
	}
	if norm == 0 {
		dir[0] = 1
		return dir
	}
	norm = math.Sqrt(norm)
	for i := range dir {
		dir[i] /= norm
	}
	return dir
}

// step moves along dir by t, wrapping periodic dimensions modulo 1. It
// reports inCube=false when a non-wrapped coordinate leaves [0,1].
func (s *SliceSampler) step(unit, dir []float64, t float64) (proposal []float64, inCube bool) {
	proposal = make([]float64, len(unit))
	for i := range unit {
		v := unit[i] + t*dir[i]
		if s.wrapped[i] {
			v = wrapUnit(v)
		} else if v < 0 || v > 1 {
			return nil, false
		}
		proposal[i] = v
	}
	return proposal, true
}

// adapt updates the bracket scale (and optionally nsteps) from the finished
// walk's contraction statistics.
func (s *SliceSampler) adapt(walk *walkState) {
	if walk.steps == 0 {
		return
	}
	shrinksPer := float64(walk.shrinks) / float64(walk.steps)
	if shrinksPer > targetShrinksPer {
		s.scale *= scaleShrink
		if s.scale < minScale {
			s.scale = minScale
		}
	} else if shrinksPer < 1 {
		s.scale *= scaleGrow
		if s.scale > maxScale {
			s.scale = maxScale
		}
	}

	if s.config.AdaptSteps && shrinksPer > 2*targetShrinksPer && s.nsteps < s.config.MaxNSteps {
		// Heavy contraction means each accepted move travels a short
		// distance; take more of them to stay independent of the seed.
		s.nsteps++
	}
}
