// takeoff/context.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"fmt"
	gomath "math"
)

// State is the integrated state of a run.
type State [4]float64

const (
	Distance = iota // ground distance, m
	Speed           // ground speed, m/s
	Gamma           // flight path angle, deg
	Altitude        // m
)

// RunContext holds everything a single run reads and writes: the shared
// configuration, the run's parameters, and the timestamps and speeds
// recorded by its events. Each run owns its RunContext.
type RunContext struct {
	Config *Configuration

	// FailureSpeed is the speed at which one engine fails; HasFailure is
	// false for an all-engines run.
	FailureSpeed float64
	HasFailure   bool
	Aborted      bool
	// AlphaReduction is the rate (deg/s, <= 0) at which the angle of
	// attack is reduced after the bar hold ends.
	AlphaReduction float64

	Timestamps EventTimestamps
	VLO        float64 // speed at the end of rotation (liftoff)
	V2         float64 // speed at the obstacle

	// errs collects event bookkeeping failures; they are reported once
	// the integrator returns.
	errs []error
}

func NewRunContext(c *Configuration, failureSpeed *float64, aborted bool, alphaRed float64) (*RunContext, error) {
	rc := &RunContext{
		Config:         c,
		Aborted:        aborted,
		AlphaReduction: alphaRed,
		Timestamps:     NewEventTimestamps(),
	}
	if failureSpeed != nil {
		if !(*failureSpeed > 0) {
			return nil, fmt.Errorf("failure speed %g must be positive: %w", *failureSpeed, ErrInvalidRun)
		}
		rc.FailureSpeed, rc.HasFailure = *failureSpeed, true
	}
	if aborted && !rc.HasFailure {
		return nil, fmt.Errorf("aborted takeoff without an engine failure: %w", ErrInvalidRun)
	}
	if alphaRed > 0 {
		return nil, fmt.Errorf("alpha reduction %g must not be positive: %w", alphaRed, ErrInvalidRun)
	}
	return rc, nil
}

func (rc *RunContext) Phase(t float64) Phase {
	return PhaseAt(t, &rc.Timestamps, rc.Aborted)
}

// Airborne reports whether the airborne equations apply at t.
func (rc *RunContext) Airborne(t float64) bool {
	return !rc.Aborted && t >= rc.Timestamps.RotationEnd
}

// set records a timestamp; a repeated event is a bookkeeping error that
// fails the run.
func (rc *RunContext) set(field *float64, t float64) {
	if err := rc.Timestamps.Set(field, t); err != nil {
		rc.errs = append(rc.errs, err)
	}
}

// validate checks the recorded timestamps. On top of their own ordering,
// a failure below the rotation speed must precede the rotation.
func (rc *RunContext) validate() error {
	ts := &rc.Timestamps
	if err := ts.Validate(); err != nil {
		return err
	}
	if rc.HasFailure && rc.FailureSpeed < rc.Config.vRot && !unset(ts.Failure) &&
		!unset(ts.RotationStart) && ts.Failure > ts.RotationStart {
		return fmt.Errorf("failure at %.2f m/s recorded at %.4fs after rotation start at %.4fs: %w",
			rc.FailureSpeed, ts.Failure, ts.RotationStart, ErrTimestampOrder)
	}
	return nil
}

// rotationAlpha is the angle of attack t seconds into the rotation. The
// pitch rate decays as alpha grows: dalpha/dt = rate * (1 - k*alpha).
func (rc *RunContext) rotationAlpha(dt float64) float64 {
	s := &rc.Config.Spec
	if s.KAlphaDot == 0 {
		return s.AlphaGround + s.RotationRate*dt
	}
	inv := 1 / s.KAlphaDot
	return inv - (inv-s.AlphaGround)*gomath.Exp(-s.RotationRate*s.KAlphaDot*dt)
}

// Alpha returns the angle of attack (deg) and its rate (deg/s) at t.
func (rc *RunContext) Alpha(t float64) (alpha, alphaDot float64) {
	s := &rc.Config.Spec
	ts := &rc.Timestamps
	if rc.Aborted || t < ts.RotationStart {
		return s.AlphaGround, 0
	}

	if t < ts.HoldStart {
		alpha = rc.rotationAlpha(t - ts.RotationStart)
		return alpha, s.RotationRate * (1 - s.KAlphaDot*alpha)
	}

	hold := rc.rotationAlpha(ts.HoldStart - ts.RotationStart)
	switch {
	case t < ts.HoldEnd:
		return hold, 0
	case t < ts.ClimbStart:
		return hold + rc.AlphaReduction*(t-ts.HoldEnd), rc.AlphaReduction
	default:
		return hold + rc.AlphaReduction*(ts.ClimbStart-ts.HoldEnd), 0
	}
}
