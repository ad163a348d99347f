// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"errors"
	"math"
	"testing"
)

func TestNewParameterSpace(t *testing.T) {
	space := mustSpace(t, "mass", "radius", "phase")
	if space.Dim() != 3 {
		t.Errorf("Dim() = %d, want 3", space.Dim())
	}
	names := space.Names()
	if len(names) != 3 || names[0] != "mass" || names[2] != "phase" {
		t.Errorf("Names() = %v", names)
	}
}

func TestNewParameterSpace_Empty(t *testing.T) {
	_, err := NewParameterSpace()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty space error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewParameterSpace_Duplicate(t *testing.T) {
	_, err := NewParameterSpace("x", "y", "x")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("duplicate name error = %v, want ErrInvalidConfig", err)
	}
}

func TestParameterSpace_Wrap(t *testing.T) {
	space := mustSpace(t, "amp", "phase")
	if err := space.Wrap("phase"); err != nil {
		t.Fatalf("Wrap(phase): %v", err)
	}
	if space.IsWrapped(0) {
		t.Error("amp should not be wrapped")
	}
	if !space.IsWrapped(1) {
		t.Error("phase should be wrapped")
	}
	mask := space.WrappedMask()
	if mask[0] || !mask[1] {
		t.Errorf("WrappedMask() = %v", mask)
	}
}

func TestParameterSpace_WrapUnknown(t *testing.T) {
	space := mustSpace(t, "x")
	if err := space.Wrap("nope"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Wrap(nope) = %v, want ErrInvalidConfig", err)
	}
}

func TestParameterSpace_CheckUnit(t *testing.T) {
	space := mustSpace(t, "x", "y")

	if err := space.CheckUnit([]float64{0, 1}); err != nil {
		t.Errorf("boundary point rejected: %v", err)
	}
	if err := space.CheckUnit([]float64{0.5}); !errors.Is(err, ErrInvalidUnitPoint) {
		t.Errorf("wrong dimension = %v, want ErrInvalidUnitPoint", err)
	}
	if err := space.CheckUnit([]float64{0.5, 1.1}); !errors.Is(err, ErrInvalidUnitPoint) {
		t.Errorf("out of range = %v, want ErrInvalidUnitPoint", err)
	}
	if err := space.CheckUnit([]float64{math.NaN(), 0.5}); !errors.Is(err, ErrInvalidUnitPoint) {
		t.Errorf("NaN = %v, want ErrInvalidUnitPoint", err)
	}
}

func TestWrapUnit(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{0.25, 0.25},
		{1, 0},
		{1.25, 0.25},
		{-0.25, 0.75},
		{-1e-20, 0}, // floors to -1; must wrap to 0, not 1
		{2.5, 0.5},
	}
	for _, c := range cases {
		got := wrapUnit(c.in)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("wrapUnit(%v) = %v, want %v", c.in, got, c.want)
		}
		if got < 0 || got >= 1 {
			t.Errorf("wrapUnit(%v) = %v outside [0,1)", c.in, got)
		}
	}
}
