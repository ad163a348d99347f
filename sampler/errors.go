// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import "errors"

// Sentinel errors for the sampler package.
var (
	// Initialization errors
	ErrInitialization = errors.New("sampler: could not initialize live points within attempt budget")
	ErrEmptyLiveSet   = errors.New("sampler: live set is empty")

	// Likelihood contract errors
	ErrInvalidLikelihood = errors.New("sampler: likelihood returned NaN or +Inf")
	ErrInvalidTransform  = errors.New("sampler: prior transform output has wrong dimension")
	ErrInvalidUnitPoint  = errors.New("sampler: unit-cube coordinate outside [0,1]")

	// Proposal errors
	ErrEfficiencyCollapsed = errors.New("sampler: rejection sampling efficiency collapsed")
	ErrProposalStuck       = errors.New("sampler: slice bracket collapsed on every seed")
	ErrTieRejected         = errors.New("sampler: replacement does not strictly improve on worst live point")

	// Budget errors
	ErrCallLimitExceeded      = errors.New("sampler: likelihood call limit exceeded")
	ErrIterationLimitExceeded = errors.New("sampler: iteration limit exceeded")
	ErrTimeLimitExceeded      = errors.New("sampler: time limit exceeded")

	// Configuration errors
	ErrInvalidConfig = errors.New("sampler: invalid configuration")
)
