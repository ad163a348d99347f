// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// iterationsTotal counts eviction iterations across all runs.
	iterationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "iterations_total",
			Help:      "Total nested sampling eviction iterations",
		},
	)

	// likelihoodCallsTotal counts likelihood evaluations.
	likelihoodCallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "likelihood_calls_total",
			Help:      "Total likelihood evaluations",
		},
	)

	// samplerSwitchesTotal counts direct-to-slice sampler fallbacks.
	samplerSwitchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "sampler_switches_total",
			Help:      "Total direct-to-step sampler switches",
		},
	)

	// stuckProposalsTotal counts abandoned slice walks.
	stuckProposalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "stuck_proposals_total",
			Help:      "Total slice walks abandoned to a collapsed bracket",
		},
	)

	// tieRejectionsTotal counts replacements refused for ties.
	tieRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "tie_rejections_total",
			Help:      "Total replacements refused for non-strict improvement",
		},
	)

	// livePointsGauge tracks the current live population size.
	livePointsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "live_points",
			Help:      "Current live point count",
		},
	)

	// runsTotal counts completed runs by terminal status.
	//
	// Labels:
	//   - status: "converged" or "budget_exhausted"
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "runs_total",
			Help:      "Completed runs by terminal status",
		},
		[]string{"status"},
	)

	// runDurationSeconds measures full-run wall-clock time.
	runDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nestor",
			Subsystem: "sampler",
			Name:      "run_duration_seconds",
			Help:      "Nested sampling run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
		},
	)
)

// recordRunMetrics records terminal metrics for a finished run.
func recordRunMetrics(status Status, startTime time.Time) {
	runsTotal.WithLabelValues(string(status)).Inc()
	runDurationSeconds.Observe(time.Since(startTime).Seconds())
}
