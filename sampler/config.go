// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all run-time options for a nested sampling run.
// Immutable for the duration of the run once handed to the controller.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after use.
type Config struct {
	// MinLivePoints is the initial and minimum live population size.
	// Must be at least twice the dimension for stable volume estimation.
	MinLivePoints int `json:"min_live_points" yaml:"min_live_points"`

	// MaxLivePoints caps reactive growth of the population. 0 means
	// 4x MinLivePoints.
	MaxLivePoints int `json:"max_live_points" yaml:"max_live_points"`

	// MinESS is the target effective sample size. 0 disables the
	// criterion.
	MinESS float64 `json:"min_ess" yaml:"min_ess"`

	// EvidenceTol is the dlogz-style tolerance on the remaining
	// log-evidence contribution. 0 disables the criterion.
	EvidenceTol float64 `json:"evidence_tol" yaml:"evidence_tol"`

	// MaxCalls is the hard likelihood call budget. 0 means unbounded.
	MaxCalls int64 `json:"max_calls" yaml:"max_calls"`

	// MaxIterations bounds eviction iterations. 0 means unbounded.
	MaxIterations int64 `json:"max_iterations" yaml:"max_iterations"`

	// TimeLimit bounds wall-clock time. 0 means unbounded.
	TimeLimit time.Duration `json:"time_limit" yaml:"time_limit"`

	// Parallelism is the likelihood evaluation concurrency degree.
	Parallelism int `json:"parallelism" yaml:"parallelism"`

	// Seed seeds the run's random generator. 0 means a fixed default,
	// keeping runs reproducible unless the caller opts into a new seed.
	Seed uint64 `json:"seed" yaml:"seed"`

	// ForceStepSampler starts with the slice sampler instead of waiting
	// for direct sampling efficiency to collapse.
	ForceStepSampler bool `json:"force_step_sampler" yaml:"force_step_sampler"`

	// DisableStepSampler forbids the direct-to-slice fallback; efficiency
	// collapse then aborts the run.
	DisableStepSampler bool `json:"disable_step_sampler" yaml:"disable_step_sampler"`

	// Direct configures the rejection sampler.
	Direct DirectConfig `json:"direct" yaml:"direct"`

	// Slice configures the step sampler.
	Slice SliceConfig `json:"slice" yaml:"slice"`

	// GrowthStep is how many live points a reactive growth adds.
	// 0 means MinLivePoints/4.
	GrowthStep int `json:"growth_step" yaml:"growth_step"`

	// GrowthTriggerDlogz enables growth once the remaining evidence
	// contribution falls below this many nats while the ESS target is
	// still unmet. Empirically tuned; exposed rather than hard-coded.
	GrowthTriggerDlogz float64 `json:"growth_trigger_dlogz" yaml:"growth_trigger_dlogz"`

	// ESSCheckInterval is how many iterations pass between effective
	// sample size recomputations (an O(n) scan of the dead points).
	ESSCheckInterval int64 `json:"ess_check_interval" yaml:"ess_check_interval"`

	// ProgressInterval is how many iterations pass between progress
	// records. 0 disables them.
	ProgressInterval int64 `json:"progress_interval" yaml:"progress_interval"`

	// MaxTieRejections aborts the run after this many refused ties,
	// with a recommendation to jitter the likelihood. 0 means 100.
	MaxTieRejections int64 `json:"max_tie_rejections" yaml:"max_tie_rejections"`
}

// DefaultConfig returns the default configuration.
//
// Outputs:
//   - Config: Defaults suitable for smooth low-dimensional problems.
func DefaultConfig() Config {
	return Config{
		MinLivePoints:      400,
		MaxLivePoints:      0, // resolved to 4x MinLivePoints
		MinESS:             400,
		EvidenceTol:        0.5,
		MaxCalls:           0,
		MaxIterations:      0,
		TimeLimit:          0,
		Parallelism:        1,
		Seed:               0,
		Direct:             DefaultDirectConfig(),
		Slice:              DefaultSliceConfig(),
		GrowthStep:         0, // resolved to MinLivePoints/4
		GrowthTriggerDlogz: 5.0,
		ESSCheckInterval:   50,
		ProgressInterval:   200,
		MaxTieRejections:   100,
	}
}

// LoadConfig loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to a YAML/JSON config file (optional, may be empty;
//     a missing file falls back to defaults).
//
// Outputs:
//   - Config: Merged configuration. Not yet validated against a problem
//     dimension; the controller does that.
//   - error: Non-nil if the file exists but cannot be parsed.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)
	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON.
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadConfigFromEnv(config *Config) {
	if v := os.Getenv("NESTOR_MIN_LIVE_POINTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.MinLivePoints = i
		}
	}
	if v := os.Getenv("NESTOR_MAX_LIVE_POINTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.MaxLivePoints = i
		}
	}
	if v := os.Getenv("NESTOR_MIN_ESS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.MinESS = f
		}
	}
	if v := os.Getenv("NESTOR_EVIDENCE_TOL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.EvidenceTol = f
		}
	}
	if v := os.Getenv("NESTOR_MAX_CALLS"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxCalls = i
		}
	}
	if v := os.Getenv("NESTOR_MAX_ITERATIONS"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxIterations = i
		}
	}
	if v := os.Getenv("NESTOR_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.TimeLimit = d
		}
	}
	if v := os.Getenv("NESTOR_PARALLELISM"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Parallelism = i
		}
	}
	if v := os.Getenv("NESTOR_SEED"); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Seed = u
		}
	}
	if v := os.Getenv("NESTOR_FORCE_STEP_SAMPLER"); v != "" {
		config.ForceStepSampler = v == "true" || v == "1"
	}
	if v := os.Getenv("NESTOR_SLICE_NSTEPS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Slice.NSteps = i
		}
	}
}

// Validate checks the configuration against a problem of the given
// dimension and resolves derived defaults (MaxLivePoints, GrowthStep).
//
// Inputs:
//   - dim: The problem dimension.
//
// Outputs:
//   - error: Non-nil if the configuration is unusable.
func (c *Config) Validate(dim int) error {
	if dim < 1 {
		return fmt.Errorf("%w: dimension must be >= 1", ErrInvalidConfig)
	}
	if c.MinLivePoints < 2*dim {
		return fmt.Errorf("%w: min_live_points=%d must be >= 2x dimension (%d)",
			ErrInvalidConfig, c.MinLivePoints, 2*dim)
	}
	if c.MaxLivePoints == 0 {
		c.MaxLivePoints = 4 * c.MinLivePoints
	}
	if c.MaxLivePoints < c.MinLivePoints {
		return fmt.Errorf("%w: max_live_points=%d below min_live_points=%d",
			ErrInvalidConfig, c.MaxLivePoints, c.MinLivePoints)
	}
	if c.MinESS < 0 {
		return fmt.Errorf("%w: min_ess must be >= 0", ErrInvalidConfig)
	}
	if c.EvidenceTol < 0 {
		return fmt.Errorf("%w: evidence_tol must be >= 0", ErrInvalidConfig)
	}
	if c.MinESS == 0 && c.EvidenceTol == 0 && c.MaxCalls == 0 && c.MaxIterations == 0 && c.TimeLimit == 0 {
		return fmt.Errorf("%w: no stopping criterion configured", ErrInvalidConfig)
	}
	if c.Parallelism < 1 {
		c.Parallelism = 1
	}
	if c.ForceStepSampler && c.DisableStepSampler {
		return fmt.Errorf("%w: force_step_sampler conflicts with disable_step_sampler", ErrInvalidConfig)
	}
	if c.GrowthStep == 0 {
		c.GrowthStep = c.MinLivePoints / 4
	}
	if c.ESSCheckInterval < 1 {
		c.ESSCheckInterval = 50
	}
	if c.MaxTieRejections == 0 {
		c.MaxTieRejections = 100
	}
	return nil
}
