// takeoff/phase.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"fmt"
)

// Never is the value of an event timestamp that has not been recorded.
// It is far beyond any run's time limit so that "t < ts.X" holds for the
// whole of a run in which X does not happen.
const Never = 10000.

// EventTimestamps records the times (s) at which the discrete events of a
// run happened. Each is Never until set, and is set at most once.
type EventTimestamps struct {
	Failure       float64 `json:"failure"`
	Recognition   float64 `json:"recognition"`
	RotationStart float64 `json:"rotation_start"`
	RotationEnd   float64 `json:"rotation_end"`
	HoldStart     float64 `json:"hold_start"`
	HoldEnd       float64 `json:"hold_end"`
	ClimbStart    float64 `json:"climb_start"`
	Stop          float64 `json:"stop"`
}

func NewEventTimestamps() EventTimestamps {
	return EventTimestamps{
		Failure:       Never,
		Recognition:   Never,
		RotationStart: Never,
		RotationEnd:   Never,
		HoldStart:     Never,
		HoldEnd:       Never,
		ClimbStart:    Never,
		Stop:          Never,
	}
}

// Set records t in *ts unless it was already recorded.
func (ts *EventTimestamps) Set(field *float64, t float64) error {
	if *field != Never {
		return fmt.Errorf("%s: %w", ts.name(field), ErrTimestampSet)
	}
	*field = t
	return nil
}

func (ts *EventTimestamps) name(field *float64) string {
	switch field {
	case &ts.Failure:
		return "failure"
	case &ts.Recognition:
		return "recognition"
	case &ts.RotationStart:
		return "rotation start"
	case &ts.RotationEnd:
		return "rotation end"
	case &ts.HoldStart:
		return "hold start"
	case &ts.HoldEnd:
		return "hold end"
	case &ts.ClimbStart:
		return "climb start"
	case &ts.Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Validate checks that the recorded timestamps are ordered: rotation
// start, rotation end, hold start, hold end and climb start for the
// continued takeoff, and failure, recognition and stop for the aborted
// one. Unrecorded timestamps are skipped.
func (ts EventTimestamps) Validate() error {
	check := func(names []string, chain ...float64) error {
		prev, prevName := -1., ""
		for i, t := range chain {
			if t == Never {
				continue
			}
			if t < 0 || t < prev {
				return fmt.Errorf("%s at %.4fs precedes %s at %.4fs: %w", names[i], t, prevName, prev,
					ErrTimestampOrder)
			}
			prev, prevName = t, names[i]
		}
		return nil
	}

	if err := check([]string{"rotation start", "rotation end", "hold start", "hold end", "climb start"},
		ts.RotationStart, ts.RotationEnd, ts.HoldStart, ts.HoldEnd, ts.ClimbStart); err != nil {
		return err
	}
	return check([]string{"failure", "recognition", "stop"}, ts.Failure, ts.Recognition, ts.Stop)
}

///////////////////////////////////////////////////////////////////////////
// Phase

type Phase int

const (
	GroundRoll Phase = iota
	Rotation
	BarHold
	ClimbOut
	AbortedRoll
	Braking
	Stopped
)

func (p Phase) String() string {
	return [...]string{"ground roll", "rotation", "bar hold", "climb out", "aborted roll", "braking",
		"stopped"}[p]
}

func (p Phase) Aborted() bool {
	return p >= AbortedRoll
}

// PhaseAt returns the phase of a run at time t given the timestamps
// recorded so far.
func PhaseAt(t float64, ts *EventTimestamps, aborted bool) Phase {
	if aborted {
		switch {
		case t >= ts.Stop:
			return Stopped
		case t >= ts.Recognition:
			return Braking
		case t >= ts.Failure:
			return AbortedRoll
		default:
			return GroundRoll
		}
	}

	switch {
	case t >= ts.HoldEnd:
		return ClimbOut
	case t >= ts.HoldStart:
		return BarHold
	case t >= ts.RotationStart:
		return Rotation
	default:
		return GroundRoll
	}
}
