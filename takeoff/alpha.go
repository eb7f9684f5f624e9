// takeoff/alpha.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlength/takeoff/math"
)

const (
	TargetV2Ratio      = 1.2   // V2 / Vstall
	V2RatioTolerance   = 0.005
	AlphaStep          = 0.1   // deg/s
	MaxAlphaIterations = 200
	// The bracketed search gives up if the ratio is still below the
	// target at this reduction rate (deg/s).
	MinAlphaReduction = -25.
)

// AlphaSearchStrategy selects how SearchAlphaReduction moves the pitch
// reduction rate between runs.
type AlphaSearchStrategy int

const (
	// AlphaSearchBracketed steps away from zero with a growing step until
	// the target ratio is bracketed and then bisects.
	AlphaSearchBracketed AlphaSearchStrategy = iota
	// AlphaSearchFixedStep moves by AlphaStep toward the target after
	// every run.
	AlphaSearchFixedStep
)

func (a AlphaSearchStrategy) String() string {
	switch a {
	case AlphaSearchBracketed:
		return "bracketed"
	case AlphaSearchFixedStep:
		return "fixed"
	default:
		return fmt.Sprintf("AlphaSearchStrategy(%d)", int(a))
	}
}

func ParseAlphaSearchStrategy(s string) (AlphaSearchStrategy, error) {
	switch strings.ToLower(s) {
	case "bracketed", "":
		return AlphaSearchBracketed, nil
	case "fixed", "fixed-step":
		return AlphaSearchFixedStep, nil
	default:
		return 0, fmt.Errorf("%q: unknown alpha search strategy", s)
	}
}

func (a AlphaSearchStrategy) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AlphaSearchStrategy) UnmarshalText(b []byte) error {
	var err error
	*a, err = ParseAlphaSearchStrategy(string(b))
	return err
}

type AlphaIteration struct {
	AlphaReduction float64
	Ratio          float64
}

// AlphaResult is the outcome of SearchAlphaReduction. Run is the
// continued takeoff at the final reduction rate.
type AlphaResult struct {
	AlphaReduction float64
	Ratio          float64
	Run            *RunResult
	Iterations     []AlphaIteration
	// Bounded is set when the ratio exceeds the target even without any
	// pitch reduction; the result is then the run at zero reduction.
	Bounded bool
}

// SearchAlphaReduction finds the post-hold pitch reduction rate for which
// the continued takeoff reaches the obstacle at V2/Vstall = 1.2. It is
// deterministic for a given configuration and strategy.
func (s *Simulator) SearchAlphaReduction(ctx context.Context, failureSpeed *float64) (*AlphaResult, error) {
	search := alphaSearch{s: s, failureSpeed: failureSpeed}

	var res *AlphaResult
	var err error
	switch s.opts.AlphaSearch {
	case AlphaSearchFixedStep:
		res, err = search.fixedStep(ctx)
	default:
		res, err = search.bracketed(ctx)
	}

	alphaIterations.Observe(float64(len(search.iterations)))
	if err != nil {
		s.lg.Debug("alpha search failed", "iterations", len(search.iterations), "error", err)
		return nil, err
	}
	res.Iterations = search.iterations
	s.lg.Debug("alpha search", "alpha_red", res.AlphaReduction, "ratio", res.Ratio,
		"iterations", len(res.Iterations), "bounded", res.Bounded)
	return res, nil
}

type alphaSearch struct {
	s            *Simulator
	failureSpeed *float64
	iterations   []AlphaIteration
}

// eval runs the continued takeoff at the given reduction rate and returns
// V2/Vstall minus the target.
func (a *alphaSearch) eval(ctx context.Context, alphaRed float64) (*RunResult, float64, error) {
	if len(a.iterations) >= MaxAlphaIterations {
		return nil, 0, fmt.Errorf("%d runs: %w", len(a.iterations), ErrAlphaNotConverged)
	}
	r, err := a.s.Run(ctx, a.failureSpeed, false, alphaRed)
	if err != nil {
		return nil, 0, fmt.Errorf("alpha reduction %g: %w", alphaRed, err)
	}
	ratio := r.V2 / a.s.Config.StallSpeed()
	a.iterations = append(a.iterations, AlphaIteration{AlphaReduction: alphaRed, Ratio: ratio})
	a.s.lg.Debug("alpha iteration", "alpha_red", alphaRed, "ratio", ratio)
	return r, ratio - TargetV2Ratio, nil
}

func converged(delta float64) bool {
	return math.Abs(delta) < V2RatioTolerance
}

func result(r *RunResult, delta float64, bounded bool) *AlphaResult {
	return &AlphaResult{
		AlphaReduction: r.AlphaReduction,
		Ratio:          delta + TargetV2Ratio,
		Run:            r,
		Bounded:        bounded,
	}
}

// fixedStep reduces the rate by AlphaStep while the ratio is below the
// target and relaxes it while it is above. The rate is kept as an integer
// number of steps so that it lands on zero exactly.
func (a *alphaSearch) fixedStep(ctx context.Context) (*AlphaResult, error) {
	k := 0
	for {
		r, delta, err := a.eval(ctx, float64(k)*AlphaStep)
		if err != nil {
			return nil, err
		}
		if converged(delta) {
			return result(r, delta, false), nil
		}
		if delta >= 0 {
			k++
		} else {
			k--
		}
		if k > 0 {
			return result(r, delta, true), nil
		}
	}
}

func (a *alphaSearch) bracketed(ctx context.Context) (*AlphaResult, error) {
	r, delta, err := a.eval(ctx, 0)
	if err != nil {
		return nil, err
	}
	if converged(delta) {
		return result(r, delta, false), nil
	}
	if delta > 0 {
		return result(r, delta, true), nil
	}

	// More reduction raises V2; step down until the ratio is at or above
	// the target.
	hi, dhi := 0., delta // below the target
	var lo, dlo float64
	step := AlphaStep
	for {
		if hi <= MinAlphaReduction {
			return nil, fmt.Errorf("ratio %.4f at %g deg/s: %w", dhi+TargetV2Ratio, hi, ErrAlphaNotBracketed)
		}
		lo = max(hi-step, MinAlphaReduction)
		if r, dlo, err = a.eval(ctx, lo); err != nil {
			return nil, err
		}
		if converged(dlo) {
			return result(r, dlo, false), nil
		}
		if dlo > 0 {
			break
		}
		hi, dhi = lo, dlo
		step *= 2
	}

	for {
		// Bisect, falling back from the secant estimate when it lands
		// near the ends of the bracket.
		mid := hi - dhi*(lo-hi)/(dlo-dhi)
		if w := hi - lo; mid < lo+0.1*w || mid > hi-0.1*w || !math.IsFinite(mid) {
			mid = (lo + hi) / 2
		}
		r, dm, err := a.eval(ctx, mid)
		if err != nil {
			return nil, err
		}
		if converged(dm) {
			return result(r, dm, false), nil
		}
		if dm > 0 {
			lo, dlo = mid, dm
		} else {
			hi, dhi = mid, dm
		}
	}
}
