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
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// defaultSeedStream is the PCG stream selector; the caller's seed picks the
// sequence within it.
const defaultSeedStream uint64 = 0x9e3779b97f4a7c15

// ReactiveController drives a full nested sampling run: it initializes the
// live population, iterates worst-point replacement, switches from the
// direct rejection sampler to the slice sampler when rejection efficiency
// collapses, grows the live population when the effective sample size lags
// behind evidence convergence, and assembles the final Result.
//
// Thread Safety: NOT safe for concurrent use. One controller per run;
// likelihood parallelism happens inside Problem.EvaluateBatch.
type ReactiveController struct {
	problem *Problem
	config  Config
	logger  *slog.Logger
	runID   string
}

// ControllerOption configures a ReactiveController.
type ControllerOption func(*ReactiveController)

// WithControllerLogger sets a custom logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *ReactiveController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewReactiveController creates a controller for the given problem.
//
// Inputs:
//   - problem: The inference problem. Must not be nil.
//   - config: Run configuration; validated against the problem dimension.
//
// Outputs:
//   - *ReactiveController: Ready to Run.
//   - error: ErrInvalidConfig if the configuration is unusable.
func NewReactiveController(problem *Problem, config Config, opts ...ControllerOption) (*ReactiveController, error) {
	if problem == nil {
		return nil, fmt.Errorf("%w: problem is nil", ErrInvalidConfig)
	}
	if err := config.Validate(problem.Dim()); err != nil {
		return nil, err
	}
	c := &ReactiveController{
		problem: problem,
		config:  config,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("run_id", c.runID)
	return c, nil
}

// RunID returns the unique identifier of this run.
func (c *ReactiveController) RunID() string {
	return c.runID
}

// Run executes the nested sampling loop until a convergence criterion or a
// resource budget fires.
//
// Cancellation is consulted between iterations only; an in-flight
// likelihood batch always completes. A canceled run still returns its
// partial Result alongside the context error.
//
// Inputs:
//   - ctx: Controls cancellation between iterations.
//
// Outputs:
//   - *Result: The evidence estimate, weighted samples, and diagnostics.
//     Non-nil whenever at least the initialization succeeded.
//   - error: ErrInitialization if the live set cannot be populated,
//     ErrProposalStuck or ErrEfficiencyCollapsed on unrecoverable sampler
//     failure, ErrTieRejected on a likelihood plateau, or the context
//     error on cancellation.
func (c *ReactiveController) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	rng := rand.New(rand.NewPCG(c.config.Seed, defaultSeedStream))
	budget := NewRunBudget(RunBudgetConfig{
		MaxCalls:      c.config.MaxCalls,
		MaxIterations: c.config.MaxIterations,
		TimeLimit:     c.config.TimeLimit,
	})
	monitor := NewConvergenceMonitor(budget, c.config.MinESS, c.config.EvidenceTol)
	integrator := NewIntegrator()
	order := NewOrderAccumulator(c.config.MinLivePoints)

	live := NewLiveSet()
	direct := NewDirectSampler(c.problem, rng, c.config.Direct).WithDirectLogger(c.logger)
	slice := NewSliceSampler(c.problem, live, rng, c.config.Slice).WithSliceLogger(c.logger)

	c.logger.Info("nested sampling run starting",
		"dim", c.problem.Dim(),
		"min_live_points", c.config.MinLivePoints,
		"max_live_points", c.config.MaxLivePoints,
		"min_ess", c.config.MinESS,
		"evidence_tol", c.config.EvidenceTol,
		"seed", c.config.Seed)

	if err := c.initialize(ctx, live, direct); err != nil {
		return nil, err
	}
	livePointsGauge.Set(float64(live.Len()))

	var active Sampler = direct
	if c.config.ForceStepSampler {
		active = slice
	}

	var (
		switched        bool
		switchIteration int64
		lastESS         float64
		stopReason      StopReason
		runErr          error
	)

	for {
		if err := ctx.Err(); err != nil {
			stopReason = StopCanceled
			runErr = err
			break
		}

		worst := live.Worst()
		candidate, err := active.Propose(ctx, worst.LogL)
		if err != nil {
			// Cancellation surfacing through a proposal is still a
			// graceful stop with a partial result.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stopReason = StopCanceled
				runErr = err
				break
			}
			if errors.Is(err, ErrEfficiencyCollapsed) && !switched && !c.config.DisableStepSampler {
				switched = true
				switchIteration = budget.Iterations()
				active = slice
				samplerSwitchesTotal.Inc()
				c.logger.Info("rejection efficiency collapsed, switching sampler",
					"iteration", switchIteration,
					"efficiency", direct.Efficiency(),
					"to", active.Name())
				continue
			}
			c.logger.Error("proposal failed", "sampler", active.Name(), "error", err)
			return nil, err
		}

		// Rank against the pre-replacement population; recorded only once
		// the candidate actually enters it, so tie-rejected candidates
		// cannot skew the order statistic.
		rank := live.InsertionRank(candidate.LogL)

		if _, err := live.Replace(candidate); err != nil {
			if errors.Is(err, ErrTieRejected) {
				if live.TieRejections() >= c.config.MaxTieRejections {
					c.logger.Error("likelihood plateau detected, aborting",
						"tie_rejections", live.TieRejections(),
						"hint", "add small jitter to the log-likelihood to break ties")
					return nil, fmt.Errorf("%w: %d tied candidates refused, likelihood appears flat",
						ErrTieRejected, live.TieRejections())
				}
				continue
			}
			return nil, err
		}
		if err := order.Add(rank, live.Len()); err != nil {
			return nil, err
		}
		integrator.Record(worst, live.Len())
		iter := budget.RecordIteration()
		iterationsTotal.Inc()

		if c.config.ESSCheckInterval > 0 && iter%c.config.ESSCheckInterval == 0 {
			lastESS = integrator.ESS()
		}

		st := LoopState{
			Iteration:    iter,
			Calls:        c.problem.Calls(),
			LogZ:         integrator.LogZ(),
			RemainingLog: integrator.RemainingLogZ(live.MaxLogL()),
			ESS:          lastESS,
		}

		c.maybeGrow(ctx, live, active, st)

		if c.config.ProgressInterval > 0 && iter%c.config.ProgressInterval == 0 {
			c.logger.Info("run progress",
				"iteration", iter,
				"calls", st.Calls,
				"logz", st.LogZ,
				"remaining_logz", st.RemainingLog,
				"ess", lastESS,
				"live_points", live.Len(),
				"sampler", active.Name(),
				"threshold", worst.LogL)
		}

		if reason, stop := monitor.ShouldStop(st); stop {
			stopReason = reason
			break
		}
	}

	integrator.Finalize(live.Points())
	result := c.buildResult(integrator, live, slice, order, budget, stopReason, switched, switchIteration, startTime)
	recordRunMetrics(result.Status, startTime)
	livePointsGauge.Set(0)

	c.logger.Info("nested sampling run finished",
		"status", string(result.Status),
		"stop_reason", string(result.StopReason),
		"logz", result.LogZ,
		"logz_err", result.LogZErr,
		"ess", result.ESS,
		"iterations", result.Iterations,
		"calls", result.Calls,
		"elapsed", result.Elapsed,
		"order_zscore", result.Diagnostics.OrderZScore)
	return result, runErr
}

// initialize fills the live set with prior draws. Each point comes from the
// rejection sampler at an open threshold, so a likelihood returning -Inf
// everywhere exhausts the reject budget instead of hanging.
func (c *ReactiveController) initialize(ctx context.Context, live *LiveSet, direct *DirectSampler) error {
	for live.Len() < c.config.MinLivePoints {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInitialization, err)
		}
		p, err := direct.Propose(ctx, math.Inf(-1))
		if err != nil {
			c.logger.Error("live set initialization failed",
				"populated", live.Len(),
				"wanted", c.config.MinLivePoints,
				"error", err)
			return fmt.Errorf("%w: %v", ErrInitialization, err)
		}
		live.Add(p)
	}
	c.logger.Debug("live set initialized", "live_points", live.Len())
	return nil
}

// maybeGrow adds live points once the run is close to evidence convergence
// but the effective sample size target is still unmet. New points must
// clear the current threshold, so the population stays consistent with the
// shrinkage record.
func (c *ReactiveController) maybeGrow(ctx context.Context, live *LiveSet, active Sampler, st LoopState) {
	if c.config.MinESS <= 0 || st.ESS >= c.config.MinESS {
		return
	}
	if live.Len() >= c.config.MaxLivePoints {
		return
	}
	delta := logAddExp(st.LogZ, st.RemainingLog) - st.LogZ
	if math.IsInf(st.LogZ, -1) || delta > c.config.GrowthTriggerDlogz {
		return
	}

	k := c.config.GrowthStep
	if live.Len()+k > c.config.MaxLivePoints {
		k = c.config.MaxLivePoints - live.Len()
	}
	added, err := live.Grow(ctx, k, active)
	if err != nil {
		c.logger.Warn("live set growth aborted", "added", added, "error", err)
	}
	if added > 0 {
		livePointsGauge.Set(float64(live.Len()))
		c.logger.Info("live set grown",
			"iteration", st.Iteration,
			"live_points", live.Len(),
			"added", added,
			"remaining_logz", st.RemainingLog)
	}
}

func (c *ReactiveController) buildResult(integrator *Integrator, live *LiveSet, slice *SliceSampler, order *OrderAccumulator, budget *RunBudget, reason StopReason, switched bool, switchIteration int64, startTime time.Time) *Result {
	points, weights := integrator.Weights()
	samples := make([]Sample, len(points))
	for i, p := range points {
		samples[i] = Sample{
			Physical: append([]float64(nil), p.Physical...),
			LogL:     p.LogL,
			Weight:   weights[i],
		}
	}

	status := StatusBudgetExhausted
	switch {
	case reason.Converged():
		status = StatusConverged
	case reason == StopCanceled:
		status = StatusCanceled
	}

	return &Result{
		RunID:       c.runID,
		Status:      status,
		StopReason:  reason,
		LogZ:        integrator.LogZ(),
		LogZErr:     integrator.LogZErr(),
		Information: integrator.Information(),
		ESS:         integrator.ESS(),
		Samples:     samples,
		Summaries:   summarize(c.problem.Space(), samples),
		Iterations:  budget.Iterations(),
		Calls:       c.problem.Calls(),
		Elapsed:     time.Since(startTime),
		Diagnostics: Diagnostics{
			TieRejections:   live.TieRejections(),
			StuckProposals:  slice.StuckCount(),
			SamplerSwitched: switched,
			SwitchIteration: switchIteration,
			OrderZScore:     order.ZScore(),
			OrderInserts:    order.Inserts(),
			OrderRunLengths: order.RunLengths(),
		},
	}
}
