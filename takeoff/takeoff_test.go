// takeoff/takeoff_test.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"testing"

	"github.com/fieldlength/takeoff/model"
)

// a320Spec is a medium twin whose all-engines V2 ratio crosses the
// target at a moderate pitch reduction.
func a320Spec() Spec {
	s := DefaultSpec()
	s.Name = "a320-like"
	s.Mass = 73500
	s.WingArea = 122.6
	s.AspectRatio = 9.5
	s.Oswald = 0.8
	s.WingHeight = 3
	s.CD0 = 0.02
	s.DeltaCD0Flap = 0.03
	s.DeltaCD0Gear = 0.015
	s.CL0 = 0.8
	s.CLAlpha = 0.1
	s.CLMax = 2
	s.Incidence = 2
	s.Engines = 2
	s.Thrust = model.ThrustSpec{Model: "turbofan", StaticThrust: 110000}
	return s
}

// lightTwinSpec has plenty of thrust with both engines and crosses the
// target with one engine out.
func lightTwinSpec() Spec {
	s := a320Spec()
	s.Name = "light-twin"
	s.Mass = 60000
	s.Thrust.StaticThrust = 135000
	s.DeltaCD0Flap = 0.02
	s.DeltaCD0Gear = 0.01
	s.KCLMax = 0.85
	return s
}

func mustConfiguration(t *testing.T, s Spec) *Configuration {
	t.Helper()
	c, err := NewConfiguration(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

// newTestSimulator returns a simulator without a run cache so that every
// call integrates.
func newTestSimulator(t *testing.T, s Spec, opts Options) *Simulator {
	t.Helper()
	if opts.CacheSize == 0 {
		opts.CacheSize = -1
	}
	return NewSimulator(mustConfiguration(t, s), opts, nil)
}

func ptr(v float64) *float64 { return &v }
