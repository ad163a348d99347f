// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sampler

import (
	"container/heap"
	"context"
	"math"
	"math/rand/v2"
	"sort"
)

// pointHeap orders live points by (LogL, insertion sequence) ascending, so
// the minimum-likelihood point is uniquely identified even under exact
// log-likelihood ties.
type pointHeap []*LivePoint

func (h pointHeap) Len() int { return len(h) }

func (h pointHeap) Less(i, j int) bool {
	if h[i].LogL != h[j].LogL {
		return h[i].LogL < h[j].LogL
	}
	return h[i].seq < h[j].seq
}

func (h pointHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pointHeap) Push(x any) { *h = append(*h, x.(*LivePoint)) }

func (h *pointHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return p
}

// LiveSet is the mutable population of live points, maintained as a min-heap
// so the worst point is available in O(log n). It owns every point it holds;
// Replace transfers ownership of the evicted point to the caller.
//
// Thread Safety: NOT safe for concurrent use. The LiveSet is accessed only
// from the single control-loop goroutine.
type LiveSet struct {
	h       pointHeap
	nextSeq uint64

	// tieRejections counts Replace calls refused for non-strict improvement.
	tieRejections int64
}

// NewLiveSet creates an empty live set.
func NewLiveSet() *LiveSet {
	return &LiveSet{}
}

// Len returns the current population size.
func (s *LiveSet) Len() int {
	return len(s.h)
}

// Add inserts a point, assigning its insertion sequence number.
func (s *LiveSet) Add(p *LivePoint) {
	p.seq = s.nextSeq
	s.nextSeq++
	heap.Push(&s.h, p)
}

// Worst returns the minimum-likelihood point without removing it, or nil if
// the set is empty. Ties are broken by insertion order.
func (s *LiveSet) Worst() *LivePoint {
	if len(s.h) == 0 {
		return nil
	}
	return s.h[0]
}

// Replace atomically evicts the current worst point and inserts candidate.
//
// The candidate must strictly improve on the worst point's log-likelihood.
// A tie (or regression) is refused with ErrTieRejected and counted, because
// admitting it would corrupt the shrinkage model the evidence estimate is
// built on.
//
// Inputs:
//   - candidate: Replacement point. Takes the next insertion sequence.
//
// Outputs:
//   - *LivePoint: The evicted (dead) point; ownership passes to the caller.
//   - error: ErrEmptyLiveSet or ErrTieRejected.
func (s *LiveSet) Replace(candidate *LivePoint) (*LivePoint, error) {
	if len(s.h) == 0 {
		return nil, ErrEmptyLiveSet
	}
	worst := s.h[0]
	if !(candidate.LogL > worst.LogL) {
		s.tieRejections++
		tieRejectionsTotal.Inc()
		return nil, ErrTieRejected
	}
	dead := heap.Pop(&s.h).(*LivePoint)
	s.Add(candidate)
	return dead, nil
}

// Grow adds up to k points drawn from src at the current worst-point
// threshold, so the enlarged population stays consistent with the shrinkage
// record. Growth stops at the first proposal failure.
//
// Inputs:
//   - ctx: Passed through to the sampler's proposals.
//   - k: How many points to add.
//   - src: Sampler used to draw the new points.
//
// Outputs:
//   - int: Number of points actually added.
//   - error: ErrEmptyLiveSet, or the first proposal error.
func (s *LiveSet) Grow(ctx context.Context, k int, src Sampler) (int, error) {
	if len(s.h) == 0 {
		return 0, ErrEmptyLiveSet
	}
	threshold := s.h[0].LogL
	for added := 0; added < k; added++ {
		p, err := src.Propose(ctx, threshold)
		if err != nil {
			return added, err
		}
		s.Add(p)
	}
	return k, nil
}

// Random returns a uniformly random member, or nil if the set is empty.
func (s *LiveSet) Random(rng *rand.Rand) *LivePoint {
	if len(s.h) == 0 {
		return nil
	}
	return s.h[rng.IntN(len(s.h))]
}

// MaxLogL returns the maximum log-likelihood in the set, or -Inf if empty.
func (s *LiveSet) MaxLogL() float64 {
	maxL := math.Inf(-1)
	for _, p := range s.h {
		if p.LogL > maxL {
			maxL = p.LogL
		}
	}
	return maxL
}

// InsertionRank returns how many live points have log-likelihood strictly
// below logl. Under correct sampling the rank of each replacement is uniform
// on [0, Len()], which the order diagnostic tests for.
func (s *LiveSet) InsertionRank(logl float64) int {
	rank := 0
	for _, p := range s.h {
		if p.LogL < logl {
			rank++
		}
	}
	return rank
}

// Points returns the live points in ascending (LogL, insertion) order.
// The returned slice is freshly allocated; the points are shared.
func (s *LiveSet) Points() []*LivePoint {
	out := append([]*LivePoint(nil), s.h...)
	// Heap order is only partial; sort for callers that need the full order.
	sortPointsAscending(out)
	return out
}

// TieRejections returns how many replacements were refused for ties.
func (s *LiveSet) TieRejections() int64 {
	return s.tieRejections
}

// sortPointsAscending sorts by (LogL, seq) ascending.
func sortPointsAscending(ps []*LivePoint) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].LogL != ps[j].LogL {
			return ps[i].LogL < ps[j].LogL
		}
		return ps[i].seq < ps[j].seq
	})
}
