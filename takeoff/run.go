// takeoff/run.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package takeoff simulates the takeoff of a fixed-wing aircraft: single
// runs with or without an engine failure, the search for the pitch
// reduction that gives the target climb-out speed, and the balanced
// field length.
package takeoff

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/fieldlength/takeoff/log"
	"github.com/fieldlength/takeoff/ode"

	"github.com/shirou/gopsutil/v3/cpu"
)

const DefaultTimeLimit = 100 // s

type Options struct {
	Solver ode.Config `json:"solver"`
	// TimeLimit is the simulated time after which a run that has reached
	// neither the obstacle nor a stop is reported as non-convergent.
	TimeLimit   float64             `json:"time_limit_s"`
	AlphaSearch AlphaSearchStrategy `json:"alpha_search"`
	// Workers bounds the balanced field solver's parallelism; zero uses
	// every logical CPU.
	Workers int `json:"workers"`
	// Samples is the number of failure speeds sampled for the balanced
	// field length.
	Samples int `json:"samples"`
	// CacheSize is the number of runs memoized; negative disables the
	// cache.
	CacheSize int `json:"cache_size"`
}

func (o Options) withDefaults() Options {
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.Workers <= 0 {
		if n, err := cpu.Counts(true); err == nil && n > 0 {
			o.Workers = n
		} else {
			o.Workers = runtime.NumCPU()
		}
	}
	if o.Samples <= 0 {
		o.Samples = DefaultBFLSamples
	}
	return o
}

// Simulator runs takeoffs of a single configuration. It is safe for
// concurrent use.
type Simulator struct {
	Config *Configuration
	opts   Options
	lg     *log.Logger
	cache  *runCache

	// sample computes one point of the balanced field curves.
	sample func(ctx context.Context, failureSpeed float64) (*FieldSample, error)
}

func NewSimulator(c *Configuration, opts Options, lg *log.Logger) *Simulator {
	opts = opts.withDefaults()
	s := &Simulator{
		Config: c,
		opts:   opts,
		lg:     lg.With("aircraft", c.Name()),
		cache:  newRunCache(opts.CacheSize),
	}
	s.sample = s.fieldSample
	return s
}

func (s *Simulator) Options() Options { return s.opts }

// Outcome is the terminal event of a completed run.
type Outcome int

const (
	ReachedObstacle Outcome = iota + 1
	ReachedStop
)

func (o Outcome) String() string {
	switch o {
	case ReachedObstacle:
		return "reached obstacle"
	case ReachedStop:
		return "stopped"
	default:
		return "unknown"
	}
}

// RunResult is a completed run. It is shared through the run cache and
// must be treated as read-only.
type RunResult struct {
	FailureSpeed   float64 // Never for an all-engines run
	Aborted        bool
	AlphaReduction float64

	Trace      Trace
	Timestamps EventTimestamps
	Outcome    Outcome
	VLO, V2    float64
	Stats      ode.Stats
}

// Distance is the ground distance at the end of the run.
func (r *RunResult) Distance() float64 {
	return r.Trace.Final().State[Distance]
}

func (r *RunResult) Duration() float64 {
	return r.Trace.Final().Time
}

// distanceAt returns the ground distance when the given event happened
// or the final distance if it did not.
func (r *RunResult) distanceAt(t float64) float64 {
	if t == Never {
		return r.Distance()
	}
	if s, ok := r.Trace.AtTime(t); ok {
		return s.State[Distance]
	}
	return r.Distance()
}

// Segments splits the distance into the ground roll before rotation, the
// rotation up to liftoff, and the airborne segment to the obstacle.
func (r *RunResult) Segments() (groundRoll, rotation, airborne float64) {
	ts := &r.Timestamps
	groundRoll = r.distanceAt(ts.RotationStart)
	lo := r.distanceAt(ts.RotationEnd)
	return groundRoll, lo - groundRoll, r.Distance() - lo
}

// Run integrates a single takeoff. failureSpeed is nil for an
// all-engines takeoff; aborted selects the rejected takeoff, which
// requires a failure. alphaRed is the post-hold pitch reduction rate
// (deg/s, <= 0).
func (s *Simulator) Run(ctx context.Context, failureSpeed *float64, aborted bool, alphaRed float64) (*RunResult, error) {
	key := makeRunKey(failureSpeed, aborted, alphaRed)
	kind := runKind(aborted)
	if r, ok := s.cache.get(key); ok {
		runsTotal.WithLabelValues(kind, "cached").Inc()
		return r, nil
	}

	rc, err := NewRunContext(s.Config, failureSpeed, aborted, alphaRed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	r, err := s.integrate(ctx, rc)
	runSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		runsTotal.WithLabelValues(kind, "error").Inc()
		s.lg.Debug("run failed", "kind", kind, "failure_speed", key.failureSpeed, "alpha_red", alphaRed,
			"error", err)
		return nil, err
	}

	runsTotal.WithLabelValues(kind, "ok").Inc()
	runSteps.Observe(float64(r.Stats.Steps))
	s.lg.Debug("run", "kind", kind, "failure_speed", key.failureSpeed, "alpha_red", alphaRed,
		"outcome", r.Outcome, "distance", r.Distance(), "time", r.Duration(), "steps", r.Stats.Steps)

	s.cache.add(key, r)
	return r, nil
}

func (s *Simulator) integrate(ctx context.Context, rc *RunContext) (*RunResult, error) {
	solver, err := ode.NewSolver(s.opts.Solver, len(State{}), func(t float64, y, dy []float64) {
		d := Derivatives(rc, t, State(y))
		copy(dy, d[:])
	})
	if err != nil {
		return nil, err
	}
	for _, e := range rc.events() {
		solver.AddEvent(e)
	}

	var trace Trace
	solver.OnStep = func(t float64, y []float64) {
		trace = append(trace, rc.sample(t, State(y)))
	}

	res, err := solver.Integrate(ctx, 0, make([]float64, len(State{})), s.opts.TimeLimit)

	runErr := func(err error) *RunError {
		re := &RunError{Time: res.T, Phase: rc.Phase(res.T), Err: err}
		if len(res.Y) == len(State{}) {
			re.State = State(res.Y)
		}
		return re
	}

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return nil, err
	case err != nil:
		return nil, runErr(fmt.Errorf("%w: %w", ErrNonConvergent, err))
	case len(rc.errs) > 0:
		return nil, runErr(fmt.Errorf("%w: %w", ErrNonConvergent, errors.Join(rc.errs...)))
	case rc.HasFailure && unset(rc.Timestamps.Failure):
		return nil, runErr(fmt.Errorf("%.2f m/s never reached: %w", rc.FailureSpeed, ErrDomainViolation))
	case !res.Stopped:
		return nil, runErr(fmt.Errorf("time limit of %gs reached: %w", s.opts.TimeLimit, ErrNonConvergent))
	}
	if err := rc.validate(); err != nil {
		return nil, runErr(fmt.Errorf("%w: %w", ErrNonConvergent, err))
	}

	r := &RunResult{
		FailureSpeed:   Never,
		Aborted:        rc.Aborted,
		AlphaReduction: rc.AlphaReduction,
		Trace:          trace,
		Timestamps:     rc.Timestamps,
		VLO:            rc.VLO,
		V2:             rc.V2,
		Stats:          res.Stats,
	}
	if rc.HasFailure {
		r.FailureSpeed = rc.FailureSpeed
	}
	switch res.Event {
	case EventObstacle:
		r.Outcome = ReachedObstacle
	case EventStop:
		r.Outcome = ReachedStop
	}
	return r, nil
}
