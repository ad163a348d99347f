// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arclight-ai/nestor/pkg/logging"
	"github.com/arclight-ai/nestor/sampler"
)

// runProblem is the RunE for "nestor run".
func runProblem(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "nestor",
		Quiet:   jsonOutput && !verbose,
	})
	defer logger.Close()

	config, err := sampler.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(&config)

	problem, err := buildProblem(args[0], dim, config.Parallelism)
	if err != nil {
		return err
	}

	ctrl, err := sampler.NewReactiveController(problem, config,
		sampler.WithControllerLogger(logger.Slog()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := ctrl.Run(ctx)
	if err != nil && result == nil {
		return err
	}

	if jsonOutput {
		if equalWeighted {
			rng := rand.New(rand.NewPCG(config.Seed, 1))
			result.Samples = sampler.ResampleEqual(result.Samples, rng)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
	} else {
		printSummary(result)
	}
	return err
}

// applyFlagOverrides layers explicit CLI flags over the loaded config.
func applyFlagOverrides(config *sampler.Config) {
	if livePoints > 0 {
		config.MinLivePoints = livePoints
		// Keep derived defaults consistent with the override.
		config.MaxLivePoints = 0
		config.GrowthStep = 0
	}
	if maxLivePoints > 0 {
		config.MaxLivePoints = maxLivePoints
	}
	if minESS > 0 {
		config.MinESS = minESS
	}
	if evidenceTol > 0 {
		config.EvidenceTol = evidenceTol
	}
	if maxCalls > 0 {
		config.MaxCalls = maxCalls
	}
	if maxIterations > 0 {
		config.MaxIterations = maxIterations
	}
	if parallelism > 0 {
		config.Parallelism = parallelism
	}
	if seed != 0 {
		config.Seed = seed
	}
	if forceStep {
		config.ForceStepSampler = true
	}
}

func printSummary(r *sampler.Result) {
	fmt.Printf("run %s: %s (%s)\n", r.RunID, r.Status, r.StopReason)
	fmt.Printf("  log-evidence: %.4f +- %.4f\n", r.LogZ, r.LogZErr)
	fmt.Printf("  information:  %.3f nats\n", r.Information)
	fmt.Printf("  ESS:          %.0f from %d samples\n", r.ESS, len(r.Samples))
	fmt.Printf("  iterations:   %d (%d likelihood calls, %.1f%% efficient)\n",
		r.Iterations, r.Calls, 100*r.Efficiency())
	fmt.Printf("  elapsed:      %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Println("  posterior:")
	for _, s := range r.Summaries {
		fmt.Printf("    %-12s %10.5f +- %.5f\n", s.Name, s.Mean, s.StdDev)
	}
	d := r.Diagnostics
	if d.SamplerSwitched {
		fmt.Printf("  switched to slice sampling at iteration %d\n", d.SwitchIteration)
	}
	if d.TieRejections > 0 || d.StuckProposals > 0 {
		fmt.Printf("  warnings: %d tie rejections, %d stuck proposals\n",
			d.TieRejections, d.StuckProposals)
	}
	fmt.Printf("  insertion-order z-score: %+.2f\n", d.OrderZScore)
}
