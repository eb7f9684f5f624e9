// takeoff/phase_test.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"errors"
	"testing"
)

func TestPhaseAt(t *testing.T) {
	ts := NewEventTimestamps()
	ts.RotationStart, ts.RotationEnd, ts.HoldStart, ts.HoldEnd = 30, 32, 33, 33.5

	for _, tc := range []struct {
		t    float64
		want Phase
	}{
		{0, GroundRoll},
		{29.999, GroundRoll},
		{30, Rotation},
		{32.5, Rotation},
		{33, BarHold},
		{33.4, BarHold},
		{33.5, ClimbOut},
		{40, ClimbOut},
	} {
		if got := PhaseAt(tc.t, &ts, false); got != tc.want {
			t.Errorf("continued at %g: got %s, expected %s", tc.t, got, tc.want)
		}
	}

	ts = NewEventTimestamps()
	ts.Failure, ts.Recognition, ts.Stop = 20, 23, 45
	for _, tc := range []struct {
		t    float64
		want Phase
	}{
		{0, GroundRoll},
		{20, AbortedRoll},
		{22.9, AbortedRoll},
		{23, Braking},
		{45, Stopped},
	} {
		got := PhaseAt(tc.t, &ts, true)
		if got != tc.want {
			t.Errorf("aborted at %g: got %s, expected %s", tc.t, got, tc.want)
		}
		if got.Aborted() != (got >= AbortedRoll) {
			t.Errorf("%s: inconsistent Aborted()", got)
		}
	}

	// Nothing recorded: the whole run is ground roll.
	ts = NewEventTimestamps()
	if p := PhaseAt(99, &ts, true); p != GroundRoll {
		t.Errorf("got %s, expected %s", p, GroundRoll)
	}
}

func TestEventTimestamps(t *testing.T) {
	ts := NewEventTimestamps()
	if err := ts.Validate(); err != nil {
		t.Errorf("fresh timestamps: unexpected error %v", err)
	}

	if err := ts.Set(&ts.RotationStart, 30); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ts.Set(&ts.RotationStart, 31); !errors.Is(err, ErrTimestampSet) {
		t.Errorf("second set: got %v, expected %v", err, ErrTimestampSet)
	}
	if ts.RotationStart != 30 {
		t.Errorf("second set changed the timestamp to %g", ts.RotationStart)
	}

	for _, tc := range []struct {
		name  string
		set   func(ts *EventTimestamps)
		valid bool
	}{
		{"ordered", func(ts *EventTimestamps) { ts.RotationEnd, ts.HoldStart, ts.HoldEnd = 32, 33, 33.5 }, true},
		{"gap", func(ts *EventTimestamps) { ts.HoldEnd = 40 }, true},
		{"equal", func(ts *EventTimestamps) { ts.RotationEnd, ts.HoldStart = 30, 30 }, true},
		{"hold before rotation end", func(ts *EventTimestamps) { ts.RotationEnd, ts.HoldStart = 32, 31 }, false},
		{"rotation end before start", func(ts *EventTimestamps) { ts.RotationEnd = 29 }, false},
		{"aborted", func(ts *EventTimestamps) { ts.Failure, ts.Recognition, ts.Stop = 10, 13, 40 }, true},
		{"stop before recognition", func(ts *EventTimestamps) { ts.Failure, ts.Recognition, ts.Stop = 10, 13, 12 }, false},
		// The chains are independent: a failure after rotation is fine.
		{"failure after rotation", func(ts *EventTimestamps) { ts.Failure = 35 }, true},
	} {
		c := ts
		tc.set(&c)
		err := c.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		} else if !tc.valid && !errors.Is(err, ErrTimestampOrder) {
			t.Errorf("%s: got %v, expected %v", tc.name, err, ErrTimestampOrder)
		}
	}
}

func TestRunContextFailureOrder(t *testing.T) {
	c := mustConfiguration(t, a320Spec())
	vr := c.RotationSpeed()
	for _, tc := range []struct {
		name                   string
		fs                     float64
		failure, rotationStart float64
		valid                  bool
	}{
		{"failure before rotation", 0.8 * vr, 20, 30, true},
		{"failure at rotation", vr, 30, 30, true},
		{"slow failure after rotation", 0.8 * vr, 31, 30, false},
		{"fast failure after rotation", 1.05 * vr, 31, 30, true},
		{"no rotation yet", 0.8 * vr, 20, Never, true},
	} {
		rc, err := NewRunContext(c, ptr(tc.fs), false, 0)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		rc.Timestamps.Failure, rc.Timestamps.RotationStart = tc.failure, tc.rotationStart
		err = rc.validate()
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		} else if !tc.valid && !errors.Is(err, ErrTimestampOrder) {
			t.Errorf("%s: got %v, expected %v", tc.name, err, ErrTimestampOrder)
		}
	}
}
