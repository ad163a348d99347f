// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"fmt"
	"math"
)

// ParameterSpace describes the geometry of the sampling problem: how many
// parameters there are, what they are called, and which of them are periodic
// ("wrapped") on the unit interval.
//
// A ParameterSpace is pure data. It is immutable after the configuration
// phase and safe to share between components.
type ParameterSpace struct {
	names   []string
	wrapped []bool
}

// NewParameterSpace creates a space with one dimension per name.
//
// Inputs:
//   - names: Parameter names, one per dimension. Must be non-empty.
//
// Outputs:
//   - *ParameterSpace: The created space.
//   - error: Non-nil if no names were given or a name is duplicated.
func NewParameterSpace(names ...string) (*ParameterSpace, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: parameter space needs at least one dimension", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%w: empty parameter name", ErrInvalidConfig)
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: duplicate parameter name %q", ErrInvalidConfig, n)
		}
		seen[n] = true
	}
	return &ParameterSpace{
		names:   append([]string(nil), names...),
		wrapped: make([]bool, len(names)),
	}, nil
}

// Wrap flags a parameter as periodic. Step proposals on a wrapped parameter
// move modulo 1 on the unit-cube coordinate instead of reflecting or clipping
// at the boundary.
//
// Inputs:
//   - name: The parameter to flag. Must exist in the space.
//
// Outputs:
//   - error: Non-nil if the name is unknown.
func (s *ParameterSpace) Wrap(name string) error {
	for i, n := range s.names {
		if n == name {
			s.wrapped[i] = true
			return nil
		}
	}
	return fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfig, name)
}

// Dim returns the number of parameters.
func (s *ParameterSpace) Dim() int {
	return len(s.names)
}

// Names returns a copy of the parameter names.
func (s *ParameterSpace) Names() []string {
	return append([]string(nil), s.names...)
}

// IsWrapped reports whether dimension i is periodic.
func (s *ParameterSpace) IsWrapped(i int) bool {
	return s.wrapped[i]
}

// WrappedMask returns a copy of the per-dimension periodic flags.
func (s *ParameterSpace) WrappedMask() []bool {
	return append([]bool(nil), s.wrapped...)
}

// CheckUnit validates that u is a point in [0,1]^d for this space.
//
// Outputs:
//   - error: Non-nil if the dimension is wrong or a coordinate is outside
//     the closed unit interval (NaN counts as outside).
func (s *ParameterSpace) CheckUnit(u []float64) error {
	if len(u) != len(s.names) {
		return fmt.Errorf("%w: got %d coordinates, want %d", ErrInvalidUnitPoint, len(u), len(s.names))
	}
	for i, v := range u {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: coordinate %d (%s) = %v", ErrInvalidUnitPoint, i, s.names[i], v)
		}
	}
	return nil
}

// wrapUnit maps v onto [0,1) preserving its position modulo 1.
func wrapUnit(v float64) float64 {
	v -= math.Floor(v)
	if v >= 1 { // -1e-20 floors to -1 and wraps to exactly 1
		v = 0
	}
	return v
}
