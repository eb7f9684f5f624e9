// ode/ode.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ode integrates systems of first-order ordinary differential
// equations with an adaptive Dormand-Prince 5(4) method and locates the
// zero crossings of event switching functions along the way.
package ode

import (
	"context"
	"errors"
	"fmt"
	gomath "math"

	"github.com/fieldlength/takeoff/math"
)

var (
	ErrStepSizeUnderflow = errors.New("step size underflow")
	ErrMaxSteps          = errors.New("maximum step count exceeded")
	ErrNonFinite         = errors.New("non-finite state")
	ErrInvalidConfig     = errors.New("invalid solver configuration")
)

// Func evaluates dy/dt at (t, y) into dy. It must not retain y or dy.
type Func func(t float64, y, dy []float64)

// Config controls step size selection. Zero fields take the values of
// DefaultConfig.
type Config struct {
	InitialStep float64 `json:"initial_step"`
	MinStep     float64 `json:"min_step"`
	MaxStep     float64 `json:"max_step"`
	RelTol      float64 `json:"rel_tol"`
	AbsTol      float64 `json:"abs_tol"`
	MaxSteps    int     `json:"max_steps"`
	// EventTol is the width of the time interval in which event roots are
	// located; events whose roots fall within it of each other fire
	// together.
	EventTol float64 `json:"event_tol"`
}

var DefaultConfig = Config{
	InitialStep: 1e-2,
	MinStep:     1e-12,
	MaxStep:     0.5,
	RelTol:      1e-8,
	AbsTol:      1e-8,
	MaxSteps:    200000,
	EventTol:    1e-10,
}

func (c Config) withDefaults() Config {
	d := DefaultConfig
	if c.InitialStep > 0 {
		d.InitialStep = c.InitialStep
	}
	if c.MinStep > 0 {
		d.MinStep = c.MinStep
	}
	if c.MaxStep > 0 {
		d.MaxStep = c.MaxStep
	}
	if c.RelTol > 0 {
		d.RelTol = c.RelTol
	}
	if c.AbsTol > 0 {
		d.AbsTol = c.AbsTol
	}
	if c.MaxSteps > 0 {
		d.MaxSteps = c.MaxSteps
	}
	if c.EventTol > 0 {
		d.EventTol = c.EventTol
	}
	return d
}

// Stats counts the work done by an integration.
type Stats struct {
	Steps       int `json:"steps"`
	Rejected    int `json:"rejected"`
	Evaluations int `json:"evaluations"`
	Events      int `json:"events"`
}

// Result describes how an integration ended.
type Result struct {
	T       float64
	Y       []float64
	Stopped bool   // a handler returned Stop
	Event   string // name of the stopping event
	Stats   Stats
}

// Solver integrates a single system. A Solver is not safe for concurrent
// use, but independent Solvers may run in parallel.
type Solver struct {
	cfg    Config
	f      Func
	n      int
	events []*Event
	// OnStep, if set, is called after every accepted step and after every
	// event with the current time and state. y must not be retained.
	OnStep func(t float64, y []float64)

	stats   Stats
	k       [7][]float64
	ytmp    []float64
	scratch [2][]float64
}

func NewSolver(cfg Config, dim int, f Func) (*Solver, error) {
	cfg = cfg.withDefaults()
	if dim <= 0 || cfg.MinStep > cfg.MaxStep || cfg.InitialStep > cfg.MaxStep {
		return nil, fmt.Errorf("dimension %d, steps [%g, %g], initial %g: %w", dim, cfg.MinStep,
			cfg.MaxStep, cfg.InitialStep, ErrInvalidConfig)
	}

	s := &Solver{cfg: cfg, f: f, n: dim, ytmp: make([]float64, dim)}
	for i := range s.k {
		s.k[i] = make([]float64, dim)
	}
	for i := range s.scratch {
		s.scratch[i] = make([]float64, dim)
	}
	return s, nil
}

// AddEvent registers an event; events are checked, and fire, in the order
// in which they were added.
func (s *Solver) AddEvent(e *Event) {
	s.events = append(s.events, e)
}

func (s *Solver) Config() Config { return s.cfg }

///////////////////////////////////////////////////////////////////////////
// Dormand-Prince 5(4) tableau

const (
	c2, c3, c4, c5 = 1. / 5, 3. / 10, 4. / 5, 8. / 9

	a21 = 1. / 5

	a31, a32 = 3. / 40, 9. / 40

	a41, a42, a43 = 44. / 45, -56. / 15, 32. / 9

	a51, a52, a53, a54 = 19372. / 6561, -25360. / 2187, 64448. / 6561, -212. / 729

	a61, a62, a63, a64, a65 = 9017. / 3168, -355. / 33, 46732. / 5247, 49. / 176, -5103. / 18656

	a71, a73, a74, a75, a76 = 35. / 384, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84

	// fifth order weights minus the embedded fourth order ones
	e1, e3, e4, e5, e6, e7 = 71. / 57600, -71. / 16695, 71. / 1920, -17253. / 339200, 22. / 525, -1. / 40
)

// step takes a single step of size h from (t, y) where f0 = f(t, y). The
// new state goes to y1 and its derivative to f1. It returns the scaled
// error norm.
func (s *Solver) step(t, h float64, y, f0, y1, f1 []float64) float64 {
	k := &s.k
	yt := s.ytmp
	copy(k[0], f0)

	for i := range yt {
		yt[i] = y[i] + h*a21*k[0][i]
	}
	s.eval(t+c2*h, yt, k[1])

	for i := range yt {
		yt[i] = y[i] + h*(a31*k[0][i]+a32*k[1][i])
	}
	s.eval(t+c3*h, yt, k[2])

	for i := range yt {
		yt[i] = y[i] + h*(a41*k[0][i]+a42*k[1][i]+a43*k[2][i])
	}
	s.eval(t+c4*h, yt, k[3])

	for i := range yt {
		yt[i] = y[i] + h*(a51*k[0][i]+a52*k[1][i]+a53*k[2][i]+a54*k[3][i])
	}
	s.eval(t+c5*h, yt, k[4])

	for i := range yt {
		yt[i] = y[i] + h*(a61*k[0][i]+a62*k[1][i]+a63*k[2][i]+a64*k[3][i]+a65*k[4][i])
	}
	s.eval(t+h, yt, k[5])

	for i := range y1 {
		y1[i] = y[i] + h*(a71*k[0][i]+a73*k[2][i]+a74*k[3][i]+a75*k[4][i]+a76*k[5][i])
	}
	s.eval(t+h, y1, f1)
	copy(k[6], f1)

	var sum float64
	for i := range y1 {
		ei := h * (e1*k[0][i] + e3*k[2][i] + e4*k[3][i] + e5*k[4][i] + e6*k[5][i] + e7*k[6][i])
		sc := s.cfg.AbsTol + s.cfg.RelTol*math.Max(math.Abs(y[i]), math.Abs(y1[i]))
		sum += math.Sqr(ei / sc)
	}
	err := gomath.Sqrt(sum / float64(len(y1)))
	if !math.AllFinite(y1...) || !math.IsFinite(err) {
		return gomath.Inf(1)
	}
	return err
}

func (s *Solver) eval(t float64, y, dy []float64) {
	s.stats.Evaluations++
	s.f(t, y, dy)
}

///////////////////////////////////////////////////////////////////////////
// Integrate

// Integrate advances the system from (t0, y0) until an event handler
// stops it or tEnd is reached. y0 is not modified. Reaching tEnd is not
// an error; callers check Result.Stopped.
func (s *Solver) Integrate(ctx context.Context, t0 float64, y0 []float64, tEnd float64) (Result, error) {
	if len(y0) != s.n {
		return Result{}, fmt.Errorf("state has %d components, expected %d: %w", len(y0), s.n, ErrInvalidConfig)
	}
	if !math.AllFinite(y0...) {
		return Result{}, ErrNonFinite
	}

	s.stats = Stats{}
	t := t0
	y := append([]float64(nil), y0...)
	f0 := make([]float64, s.n)
	y1 := make([]float64, s.n)
	f1 := make([]float64, s.n)
	s.eval(t, y, f0)

	res := func(stopped bool, name string) Result {
		return Result{T: t, Y: y, Stopped: stopped, Event: name, Stats: s.stats}
	}

	if s.OnStep != nil {
		s.OnStep(t, y)
	}
	g0 := s.evalEvents(t, y)

	h := s.cfg.InitialStep
	facMax := 5.
	for t < tEnd {
		if err := ctx.Err(); err != nil {
			return res(false, ""), err
		}
		if s.stats.Steps >= s.cfg.MaxSteps {
			return res(false, ""), fmt.Errorf("t=%g: %w", t, ErrMaxSteps)
		}

		h = math.Min(h, s.cfg.MaxStep)
		last := false
		if t+h >= tEnd {
			h = tEnd - t
			last = true
		}

		err := s.step(t, h, y, f0, y1, f1)
		if err > 1 {
			s.stats.Rejected++
			if gomath.IsInf(err, 1) {
				h *= 0.1
			} else {
				h *= math.Max(0.2, 0.9*gomath.Pow(err, -0.2))
			}
			facMax = 1
			if h < s.cfg.MinStep {
				if gomath.IsInf(err, 1) {
					return res(false, ""), fmt.Errorf("t=%g: %w", t, ErrNonFinite)
				}
				return res(false, ""), fmt.Errorf("t=%g, h=%g: %w", t, h, ErrStepSizeUnderflow)
			}
			continue
		}
		s.stats.Steps++

		// Look for event roots within the step before accepting it.
		if fired, dt := s.locate(t, h, y, f0, y1, g0); len(fired) > 0 {
			s.stats.Events += len(fired)
			s.step(t, dt, y, f0, y1, f1)
			t += dt
			copy(y, y1)

			stop, name := false, ""
			for _, i := range fired {
				e := s.events[i]
				if e.Handle != nil && e.Handle(t, y) == Stop && !stop {
					stop, name = true, e.Name
				}
			}
			if s.OnStep != nil {
				s.OnStep(t, y)
			}
			if stop {
				return res(true, name), nil
			}

			// Dynamics may have changed; restart from the event state. Events
			// that just fired sit out the next step so that a root found
			// within the tolerance but not yet crossed does not fire twice.
			s.eval(t, y, f0)
			g0 = s.evalEvents(t, y)
			for _, i := range fired {
				g0[i] = gomath.NaN()
			}
			facMax = 5
			continue
		}

		t += h
		if last {
			t = tEnd
		}
		copy(y, y1)
		copy(f0, f1)
		if s.OnStep != nil {
			s.OnStep(t, y)
		}
		g0 = s.evalEvents(t, y)

		fac := facMax
		if err > 0 {
			fac = math.Min(facMax, math.Max(0.2, 0.9*gomath.Pow(err, -0.2)))
		}
		h *= fac
		facMax = 5
	}

	return res(false, ""), nil
}
