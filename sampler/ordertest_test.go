// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderAccumulator_UniformRanksNearZero(t *testing.T) {
	const n = 100
	acc := NewOrderAccumulator(n)

	// A balanced sweep over all ranks is exactly uniform. Low and high
	// ranks alternate so no partial prefix looks biased either.
	for pass := 0; pass < 10; pass++ {
		for i := 0; i < n/2; i++ {
			require.NoError(t, acc.Add(i, n))
			require.NoError(t, acc.Add(n-1-i, n))
		}
	}
	assert.InDelta(t, 0, acc.ZScore(), 0.2)
	assert.Equal(t, int64(10*n), acc.Len())
	assert.Empty(t, acc.RunLengths(), "uniform ranks must not trip the reset")
}

func TestOrderAccumulator_BiasedRanksTripReset(t *testing.T) {
	const n = 100
	acc := NewOrderAccumulator(n)

	// Always inserting at the bottom is maximal bias; the z-score crosses
	// -3 within a handful of inserts and resets the segment.
	for i := 0; i < 50; i++ {
		require.NoError(t, acc.Add(0, n))
	}
	lengths := acc.RunLengths()
	assert.NotEmpty(t, lengths, "biased ranks must record run segments")
	for _, l := range lengths {
		assert.Less(t, l, int64(20), "biased segments should be short")
	}
}

func TestOrderAccumulator_ZScoreSign(t *testing.T) {
	const n = 100

	low := NewOrderAccumulator(n)
	for i := 0; i < 5; i++ {
		require.NoError(t, low.Add(0, n))
	}
	assert.Negative(t, low.ZScore(), "bottom-heavy ranks give a negative z")

	high := NewOrderAccumulator(n)
	for i := 0; i < 5; i++ {
		require.NoError(t, high.Add(n-1, n))
	}
	assert.Positive(t, high.ZScore(), "top-heavy ranks give a positive z")
}

func TestOrderAccumulator_InvalidRank(t *testing.T) {
	acc := NewOrderAccumulator(10)
	assert.Error(t, acc.Add(-1, 10))
	assert.Error(t, acc.Add(11, 10))
	assert.NoError(t, acc.Add(10, 10), "rank == n is a valid top insertion")
}

func TestOrderAccumulator_GrowsWithPopulation(t *testing.T) {
	acc := NewOrderAccumulator(10)
	// Population grew beyond the initial histogram size.
	require.NoError(t, acc.Add(25, 50))
	assert.Equal(t, int64(1), acc.Len())
}

func TestOrderAccumulator_EmptyZScore(t *testing.T) {
	acc := NewOrderAccumulator(10)
	assert.Equal(t, 0.0, acc.ZScore())
	assert.False(t, math.IsNaN(acc.ZScore()))
}

func TestOrderAccumulator_InsertsSpanResets(t *testing.T) {
	acc := NewOrderAccumulator(50)

	// Biased low ranks force at least one reset.
	for i := 0; i < 20; i++ {
		require.NoError(t, acc.Add(0, 50))
	}
	require.NotEmpty(t, acc.RunLengths())

	// The total count covers completed segments plus the current one.
	assert.Equal(t, int64(20), acc.Inserts())
}
