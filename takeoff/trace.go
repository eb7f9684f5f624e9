// takeoff/trace.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"slices"
)

// Sample is the state of a run at one instant along with the forces
// acting then.
type Sample struct {
	Time  float64
	State State
	Phase Phase
	ForceSet
	Theta float64 // pitch attitude, gamma + alpha
}

func (rc *RunContext) sample(t float64, x State) Sample {
	f := Forces(rc, t, x)
	return Sample{
		Time:     t,
		State:    x,
		Phase:    rc.Phase(t),
		ForceSet: f,
		Theta:    x[Gamma] + f.Alpha,
	}
}

// Trace is the time history of a run: a sample at the start, after every
// accepted integration step and at every event. Traces returned by the
// Simulator are shared and must not be modified.
type Trace []Sample

func (tr Trace) Final() Sample {
	return tr[len(tr)-1]
}

// At returns the first sample in the given phase.
func (tr Trace) At(p Phase) (Sample, bool) {
	i := slices.IndexFunc(tr, func(s Sample) bool { return s.Phase == p })
	if i == -1 {
		return Sample{}, false
	}
	return tr[i], true
}

// AtTime returns the first sample at or after t.
func (tr Trace) AtTime(t float64) (Sample, bool) {
	i, _ := slices.BinarySearchFunc(tr, t, func(s Sample, t float64) int {
		switch {
		case s.Time < t:
			return -1
		case s.Time > t:
			return 1
		default:
			return 0
		}
	})
	if i == len(tr) {
		return Sample{}, false
	}
	return tr[i], true
}

// Column extracts one quantity from every sample.
func (tr Trace) Column(f func(Sample) float64) []float64 {
	v := make([]float64, len(tr))
	for i, s := range tr {
		v[i] = f(s)
	}
	return v
}

func (tr Trace) Times() []float64 {
	return tr.Column(func(s Sample) float64 { return s.Time })
}

func (tr Trace) Distances() []float64 {
	return tr.Column(func(s Sample) float64 { return s.State[Distance] })
}
