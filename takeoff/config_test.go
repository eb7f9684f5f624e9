// takeoff/config_test.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"errors"
	"strings"
	"testing"

	"github.com/fieldlength/takeoff/math"
	"github.com/fieldlength/takeoff/model"
)

func TestConfigurationDerived(t *testing.T) {
	c := mustConfiguration(t, a320Spec())

	for _, tc := range []struct {
		name           string
		got, want, tol float64
	}{
		{"weight", c.Weight(), 73500 * 9.80665, 1e-6},
		{"density", c.Density(), 1.225, 1e-9},
		{"stall speed", c.StallSpeed(), 69.2773, 1e-3},
		{"rotation speed", c.RotationSpeed(), 1.05 * 69.2773, 1e-3},
		{"ground effect", c.GroundEffect(), 0.2534, 1e-3},
		{"CL ground", c.CLGround(), 1.0, 1e-12},
		{"span", c.WingSpan(), 34.128, 1e-3},
		{"static thrust", c.EngineThrust(0), 110000, 1e-9},
		{"friction", c.Friction(50), 0.025, 1e-12},
		{"braking friction", c.BrakingFriction(50), 0.3, 1e-12},
		{"idle throttle", c.GroundIdleThrottle(50), 0, 0},
	} {
		if !math.Close(tc.got, tc.want, tc.tol) {
			t.Errorf("%s: got %.6g, expected %.6g", tc.name, tc.got, tc.want)
		}
	}

	s := a320Spec()
	s.WingHeight = 0
	if c := mustConfiguration(t, s); c.GroundEffect() != 1 {
		t.Errorf("ground effect without wing height: got %g, expected 1", c.GroundEffect())
	}
}

func TestConfigurationValidation(t *testing.T) {
	s := a320Spec()
	s.Mass = 0
	s.Oswald = 1.5
	s.Engines = 0
	s.Friction = model.TableSpec{Speeds: []float64{0, 30, 20}, Values: []float64{0.02, 0.03, 0.04}}
	s.BrakingFriction = model.TableSpec{Speeds: []float64{0, 10}, Values: []float64{0.3}}
	s.Thrust = model.ThrustSpec{Model: "rocket"}

	_, err := NewConfiguration(s)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("got %v, expected %v", err, ErrInvalidConfiguration)
	}
	for _, want := range []string{"mass_kg", "oswald", "engines", "\nfriction: ", "not strictly increasing",
		"braking_friction", "differ in length", "thrust", "unknown thrust model"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}

	s = a320Spec()
	s.Friction = model.ConstantSpec(-0.1)
	if _, err := NewConfiguration(s); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("negative friction: got %v, expected %v", err, ErrInvalidConfiguration)
	}
}

func TestConfigurationImmutable(t *testing.T) {
	s := a320Spec()
	s.Friction = model.TableSpec{Speeds: []float64{0, 100}, Values: []float64{0.02, 0.04}}
	c := mustConfiguration(t, s)

	s.Friction.Values[1] = 0.5
	s.Mass = 1
	if c.Spec.Friction.Values[1] != 0.04 || c.Spec.Mass != 73500 {
		t.Errorf("configuration shares storage with the spec it was built from")
	}
	if got := c.Friction(50); !math.Close(got, 0.03, 1e-12) {
		t.Errorf("friction at 50: got %g, expected 0.03", got)
	}
}

func TestParseSpec(t *testing.T) {
	s, err := LoadSpec("testdata/a320.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := a320Spec()
	if s.Name != want.Name || s.Mass != want.Mass || s.Thrust.StaticThrust != want.Thrust.StaticThrust || s.CLMax != want.CLMax {
		t.Errorf("got %+v, expected %+v", s, want)
	}
	// Absent keys keep their defaults.
	if s.KRotation != 1.05 || s.RecognitionDelay != 3 || !math.Close(s.Obstacle, 10.668, 1e-9) {
		t.Errorf("defaults not applied: %+v", s)
	}
	c := mustConfiguration(t, s)
	if !math.Close(c.StallSpeed(), mustConfiguration(t, want).StallSpeed(), 1e-12) {
		t.Errorf("loaded spec gives a different stall speed")
	}
	if c.Friction(20) != 0.025 || c.BrakingFriction(60) != 0.3 {
		t.Errorf("friction tables not decoded")
	}

	for _, tc := range []struct {
		json, msg string
	}{
		{`{"mass_kg": 1, "mass_kg": 2}`, "duplicate keys mass_kg"},
		{`{"mass_kgs": 1}`, "unknown field"},
		{`{"mass_kg": "heavy"}`, "line 1"},
		{`{"friction": {"speeds": [0], "values": [0.1], "extra": 1}}`, "extra"},
	} {
		_, err := ParseSpec([]byte(tc.json))
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: got %v, expected %v", tc.json, err, ErrInvalidConfiguration)
		} else if !strings.Contains(err.Error(), tc.msg) {
			t.Errorf("%s: error %q does not mention %q", tc.json, err, tc.msg)
		}
	}

	if _, err := LoadSpec("testdata/missing.json"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestSpecClone(t *testing.T) {
	s := lightTwinSpec()
	s.Friction = model.TableSpec{Speeds: []float64{0, 50}, Values: []float64{0.02, 0.03}}
	c := s.Clone()
	c.Friction.Values[0] = 1
	c.Wind = 5
	if s.Friction.Values[0] != 0.02 || s.Wind != 0 {
		t.Errorf("clone shares storage with the original")
	}
}
