// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import "fmt"

// LivePoint is one member of the active population: a unit-cube position, its
// image under the prior transform, and the log-likelihood evaluated there.
//
// Ownership is strictly one-way: a LivePoint is owned by the LiveSet while
// live, and handed to the Integrator as a dead point when replaced. The
// insertion sequence number is assigned by the LiveSet and breaks
// log-likelihood ties deterministically.
type LivePoint struct {
	// Unit is the position in [0,1]^d, the sampler's native coordinates.
	Unit []float64

	// Physical is the image of Unit under the prior transform.
	Physical []float64

	// LogL is the log-likelihood at Physical. Finite or -Inf, never NaN.
	LogL float64

	// seq is the LiveSet insertion sequence, used for deterministic
	// tie-breaking when ordering by LogL.
	seq uint64
}

// String returns a short human-readable representation.
func (p *LivePoint) String() string {
	return fmt.Sprintf("LivePoint{logl=%.6g, dim=%d, seq=%d}", p.LogL, len(p.Unit), p.seq)
}
