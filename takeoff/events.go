// takeoff/events.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"github.com/fieldlength/takeoff/ode"
)

// Event names; the terminal ones appear in ode.Result.Event.
const (
	EventFailure     = "failure"
	EventRotation    = "rotation"
	EventRotationEnd = "rotation end"
	EventHoldStart   = "hold start"
	EventHoldEnd     = "hold end"
	EventClimb       = "climb"
	EventBrakes      = "brakes"
	EventObstacle    = "obstacle"
	EventStop        = "stop"
)

func unset(v float64) bool { return v == Never }

// events returns the switching functions for the run. They are added to
// the solver in this order, which is also the order in which
// simultaneous events fire. Aborted runs get no rotation events so that
// the aircraft stays on the ground.
func (rc *RunContext) events() []*ode.Event {
	s := &rc.Config.Spec
	ts := &rc.Timestamps

	state := func(y []float64) State { return State(y) }

	ev := []*ode.Event{{
		Name:      EventFailure,
		G:         func(t float64, y []float64) float64 { return y[Speed] - rc.FailureSpeed },
		Direction: ode.Increasing,
		Active: func(t float64, y []float64) bool {
			return rc.HasFailure && unset(ts.Failure) && t < ts.Recognition
		},
		Handle: func(t float64, y []float64) ode.Action {
			rc.set(&ts.Failure, t)
			if rc.Aborted && s.RecognitionDelay == 0 {
				rc.set(&ts.Recognition, t)
			}
			return ode.Continue
		},
	}}

	if !rc.Aborted {
		ev = append(ev,
			&ode.Event{
				Name:      EventRotation,
				G:         func(t float64, y []float64) float64 { return y[Speed] - rc.Config.vRot },
				Direction: ode.Increasing,
				Active:    func(t float64, y []float64) bool { return unset(ts.RotationStart) },
				Handle: func(t float64, y []float64) ode.Action {
					rc.set(&ts.RotationStart, t)
					return ode.Continue
				},
			},
			&ode.Event{
				Name: EventRotationEnd,
				G: func(t float64, y []float64) float64 {
					return Forces(rc, t, state(y)).LoadFactor - 1
				},
				Direction: ode.Increasing,
				Active: func(t float64, y []float64) bool {
					return !unset(ts.RotationStart) && unset(ts.RotationEnd)
				},
				Handle: func(t float64, y []float64) ode.Action {
					rc.set(&ts.RotationEnd, t)
					rc.VLO = y[Speed]
					return ode.Continue
				},
			},
			&ode.Event{
				Name: EventHoldStart,
				G: func(t float64, y []float64) float64 {
					return Forces(rc, t, state(y)).CL - s.KCLMax*s.CLMax
				},
				Direction: ode.Increasing,
				Active: func(t float64, y []float64) bool {
					return !unset(ts.RotationEnd) && unset(ts.HoldStart)
				},
				Handle: func(t float64, y []float64) ode.Action {
					rc.set(&ts.HoldStart, t)
					if s.HoldDuration == 0 {
						rc.set(&ts.HoldEnd, t)
					}
					return ode.Continue
				},
			},
			&ode.Event{
				Name:      EventHoldEnd,
				G:         func(t float64, y []float64) float64 { return t - (ts.HoldStart + s.HoldDuration) },
				Direction: ode.Increasing,
				Active: func(t float64, y []float64) bool {
					return !unset(ts.HoldStart) && unset(ts.HoldEnd)
				},
				Handle: func(t float64, y []float64) ode.Action {
					rc.set(&ts.HoldEnd, t)
					return ode.Continue
				},
			},
			&ode.Event{
				// The load factor falls back through one once the pitch
				// reduction takes effect.
				Name: EventClimb,
				G: func(t float64, y []float64) float64 {
					return 1 - Forces(rc, t, state(y)).LoadFactor
				},
				Direction: ode.Increasing,
				Active: func(t float64, y []float64) bool {
					return !unset(ts.HoldEnd) && unset(ts.ClimbStart)
				},
				Handle: func(t float64, y []float64) ode.Action {
					rc.set(&ts.ClimbStart, t)
					return ode.Continue
				},
			},
			&ode.Event{
				Name:      EventObstacle,
				G:         func(t float64, y []float64) float64 { return y[Altitude] - s.Obstacle },
				Direction: ode.Increasing,
				Handle: func(t float64, y []float64) ode.Action {
					rc.V2 = y[Speed]
					return ode.Stop
				},
			})
		return ev
	}

	return append(ev,
		&ode.Event{
			Name:      EventBrakes,
			G:         func(t float64, y []float64) float64 { return t - (ts.Failure + s.RecognitionDelay) },
			Direction: ode.Increasing,
			Active: func(t float64, y []float64) bool {
				return !unset(ts.Failure) && unset(ts.Recognition)
			},
			Handle: func(t float64, y []float64) ode.Action {
				rc.set(&ts.Recognition, t)
				return ode.Continue
			},
		},
		&ode.Event{
			Name:      EventStop,
			G:         func(t float64, y []float64) float64 { return y[Speed] },
			Direction: ode.Decreasing,
			Active:    func(t float64, y []float64) bool { return !unset(ts.Failure) },
			Handle: func(t float64, y []float64) ode.Action {
				rc.set(&ts.Stop, t)
				y[Speed] = 0
				return ode.Stop
			},
		})
}
