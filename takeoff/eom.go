// takeoff/eom.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	gomath "math"

	"github.com/fieldlength/takeoff/aviation"
	"github.com/fieldlength/takeoff/math"
)

// Conversion used for the flight path angle rate.
const degPerRad = 57.3

// ForceSet is the breakdown of the forces and coefficients acting on the
// aircraft at one instant. Forces are in newtons, angles in degrees.
type ForceSet struct {
	Alpha, AlphaDot float64
	CL, CD          float64
	Lift, Drag      float64

	Thrust           float64 // total of the operating engines
	ThrustHorizontal float64
	ThrustVertical   float64
	Friction         float64
	// Total is the net force along the flight path (along the runway on
	// the ground).
	Total        float64
	Acceleration float64 // m/s^2
	GammaDot     float64 // deg/s
	LoadFactor   float64
	RateOfClimb  float64 // m/s
}

// Forces evaluates the aerodynamic, propulsive and ground forces for the
// run at (t, x).
func Forces(rc *RunContext, t float64, x State) ForceSet {
	c := rc.Config
	s := &c.Spec
	ts := &rc.Timestamps
	w := c.weight

	var f ForceSet
	v := x[Speed]
	cosG, sinG := math.CosDeg(x[Gamma]), math.SinDeg(x[Gamma])
	f.Alpha, f.AlphaDot = rc.Alpha(t)

	if t < ts.ClimbStart {
		f.CL = s.CL0 + s.CLAlpha*(f.Alpha+s.Incidence)
	} else {
		// Quasi-steady climb: lift balances the weight component.
		f.CL = 2 * w * cosG / (c.rho * s.WingArea * v * v)
	}
	f.CD = s.CD0 + s.DeltaCD0Flap + s.DeltaCD0Gear +
		c.kGround*f.CL*f.CL/(gomath.Pi*s.AspectRatio*s.Oswald)
	if t >= ts.Recognition {
		f.CD += s.DragEngineFailure
	}

	airspeed := v + s.Wind*cosG
	q := 0.5 * c.rho * airspeed * airspeed * s.WingArea
	f.Lift = q * f.CL
	f.Drag = q * f.CD

	engines := float64(s.Engines)
	if t >= ts.Failure {
		engines--
	}
	f.Thrust = engines * c.EngineThrust(v)
	if rc.Aborted && t >= ts.Recognition {
		f.Thrust *= c.GroundIdleThrottle(v)
	}

	if rc.Airborne(t) {
		f.ThrustHorizontal = f.Thrust * math.CosDeg(f.Alpha)
		f.ThrustVertical = f.Thrust * math.SinDeg(f.Alpha)
		f.Total = f.ThrustHorizontal - f.Drag - w*sinG
		f.GammaDot = degPerRad * aviation.G0 / (w * v) * (f.Lift + f.ThrustVertical - w*cosG)
	} else {
		mu := c.Friction(v)
		if rc.Aborted && t >= ts.Recognition {
			mu = c.BrakingFriction(v)
		}
		f.ThrustHorizontal = f.Thrust
		f.Friction = mu * math.Max(0, w-f.Lift)
		f.Total = f.Thrust - f.Drag - f.Friction
	}
	f.Acceleration = aviation.G0 / w * f.Total
	f.LoadFactor = f.Lift / (w * cosG)
	f.RateOfClimb = v * sinG
	return f
}

// Derivatives returns the time derivative of the state.
func Derivatives(rc *RunContext, t float64, x State) State {
	f := Forces(rc, t, x)
	return State{
		Distance: x[Speed],
		Speed:    f.Acceleration,
		Gamma:    f.GammaDot,
		Altitude: f.RateOfClimb,
	}
}
