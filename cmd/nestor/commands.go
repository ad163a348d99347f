// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configPath     string
	dim            int
	livePoints     int
	maxLivePoints  int
	minESS         float64
	evidenceTol    float64
	maxCalls       int64
	maxIterations  int64
	parallelism    int
	seed           uint64
	forceStep      bool
	jsonOutput     bool
	verbose        bool
	equalWeighted  bool

	rootCmd = &cobra.Command{
		Use:   "nestor",
		Short: "A nested sampling engine for Bayesian evidence and posterior estimation",
		Long: `Nestor estimates Bayesian evidence and posterior samples with nested
sampling: a live population of points shrinks through nested likelihood
shells, trading direct rejection sampling for slice stepping as the
constrained region tightens.`,
	}

	runCmd = &cobra.Command{
		Use:       "run [problem]",
		Short:     "Run nested sampling on a built-in problem (gaussian, eggbox, rosenbrock)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gaussian", "eggbox", "rosenbrock"},
		RunE:      runProblem, // Defined in cmd_run.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the nestor version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nestor %s\n", version)
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML/JSON config file")
	runCmd.Flags().IntVar(&dim, "dim", 2, "problem dimension (gaussian only)")
	runCmd.Flags().IntVar(&livePoints, "live-points", 0, "minimum live population size")
	runCmd.Flags().IntVar(&maxLivePoints, "max-live-points", 0, "reactive growth cap on the live population")
	runCmd.Flags().Float64Var(&minESS, "min-ess", 0, "target effective sample size")
	runCmd.Flags().Float64Var(&evidenceTol, "evidence-tol", 0, "remaining log-evidence tolerance")
	runCmd.Flags().Int64Var(&maxCalls, "max-calls", 0, "likelihood call budget (0 = unbounded)")
	runCmd.Flags().Int64Var(&maxIterations, "max-iterations", 0, "iteration budget (0 = unbounded)")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 0, "likelihood evaluation concurrency")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = fixed default)")
	runCmd.Flags().BoolVar(&forceStep, "force-step", false, "start with the slice sampler")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full result as JSON")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	runCmd.Flags().BoolVar(&equalWeighted, "equal-weighted", false, "resample to equally weighted posterior draws (JSON output)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
