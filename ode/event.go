// ode/event.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ode

import (
	gomath "math"
)

type Direction int

const (
	Increasing Direction = iota // g goes from negative to non-negative
	Decreasing                  // g goes from positive to non-positive
	Either
)

func (d Direction) String() string {
	return [...]string{"increasing", "decreasing", "either"}[d]
}

type Action int

const (
	Continue Action = iota
	Stop
)

// Event is a switching function g(t, y) whose zero crossing in the given
// direction triggers Handle. Active is consulted at the start of each
// step; an inactive event is not checked during that step. Handle may
// modify y; the modified state is used from then on.
type Event struct {
	Name      string
	G         func(t float64, y []float64) float64
	Direction Direction
	Active    func(t float64, y []float64) bool
	Handle    func(t float64, y []float64) Action
}

func (e *Event) active(t float64, y []float64) bool {
	return e.Active == nil || e.Active(t, y)
}

func (e *Event) crosses(g0, g1 float64) bool {
	switch e.Direction {
	case Increasing:
		return g0 < 0 && g1 >= 0
	case Decreasing:
		return g0 > 0 && g1 <= 0
	default:
		return (g0 < 0 && g1 >= 0) || (g0 > 0 && g1 <= 0)
	}
}

// evalEvents returns the switching function values at the start of a
// step; inactive events get NaN so that they cannot fire in the step.
func (s *Solver) evalEvents(t float64, y []float64) []float64 {
	g := make([]float64, len(s.events))
	for i, e := range s.events {
		if e.active(t, y) {
			g[i] = e.G(t, y)
		} else {
			g[i] = gomath.NaN()
		}
	}
	return g
}

// locate checks every event for a crossing over the step [t, t+h] and
// returns the indices of the events whose roots coincide with the earliest
// one, in registration order, along with the root time. Roots are bisected
// with steps of the exact trial length, so the state recomputed at the
// returned time is always past the crossing.
func (s *Solver) locate(t, h float64, y0, f0, y1 []float64, g0 []float64) ([]int, float64) {
	type root struct {
		i int
		t float64
	}
	var roots []root
	ya, fa := s.scratch[0], s.scratch[1]

	for i, e := range s.events {
		if gomath.IsNaN(g0[i]) {
			continue
		}
		g1 := e.G(t+h, y1)
		if !e.crosses(g0[i], g1) {
			continue
		}

		// lo stays before the crossing and hi after it.
		lo, hi := 0., h
		glo := g0[i]
		for hi-lo > s.cfg.EventTol {
			mid := (lo + hi) / 2
			s.step(t, mid, y0, f0, ya, fa)
			gm := e.G(t+mid, ya)
			if e.crosses(glo, gm) {
				hi = mid
			} else {
				lo, glo = mid, gm
			}
		}
		roots = append(roots, root{i: i, t: hi})
	}
	if len(roots) == 0 {
		return nil, 0
	}

	first := roots[0].t
	for _, r := range roots[1:] {
		first = min(first, r.t)
	}
	var fired []int
	for _, r := range roots {
		if r.t-first <= 2*s.cfg.EventTol {
			fired = append(fired, r.i)
		}
	}
	return fired, first
}
