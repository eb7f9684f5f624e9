// takeoff/errors.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidRun           = errors.New("invalid run request")
	ErrNonConvergent        = errors.New("run did not converge")
	ErrAlphaNotConverged    = fmt.Errorf("alpha reduction search exceeded its iteration limit: %w", ErrNonConvergent)
	ErrAlphaNotBracketed    = fmt.Errorf("V2 ratio target out of reach of the alpha reduction search: %w", ErrNonConvergent)
	ErrDomainViolation      = errors.New("failure speed outside the reachable speed range")
	ErrNoIntersection       = errors.New("continued and aborted distance curves do not cross")
	ErrInsufficientSamples  = errors.New("too few valid failure speed samples")
	ErrTimestampOrder       = errors.New("event timestamps out of order")
	ErrTimestampSet         = errors.New("event timestamp already set")
)

// RunError reports a single run that ended without reaching a terminal
// event, along with where it was when it gave up.
type RunError struct {
	Time  float64
	State State
	Phase Phase
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("t=%.3fs %s, distance %.1fm, speed %.2fm/s, altitude %.2fm: %v", e.Time, e.Phase,
		e.State[Distance], e.State[Speed], e.State[Altitude], e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
