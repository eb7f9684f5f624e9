// takeoff/bfl.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/fieldlength/takeoff/log"
	"github.com/fieldlength/takeoff/math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

const (
	DefaultBFLSamples = 4
	// Number of points at which the fitted distance curves are compared.
	BFLResolution = 1000
	// Slack allowed when checking that the sampled distances are monotone.
	monotoneTolerance = 1e-6 // m
)

// FieldSample is the pair of distances for one failure speed.
type FieldSample struct {
	FailureSpeed   float64 `json:"failure_speed"`
	Continued      float64 `json:"continued"`
	Aborted        float64 `json:"aborted"`
	AlphaReduction float64 `json:"alpha_reduction"` // of the continued run
}

type CurvePoint struct {
	FailureSpeed float64 `json:"failure_speed"`
	Continued    float64 `json:"continued"`
	Aborted      float64 `json:"aborted"`
}

// BalancedField is the result of the balanced field length computation.
// V1 is the failure speed at which the continued and aborted distances
// are equal, and Length is that distance.
type BalancedField struct {
	Samples   []FieldSample `json:"samples"`
	Discarded []float64     `json:"discarded"`
	Curve     []CurvePoint  `json:"-"`
	V1        float64       `json:"v1"`
	Length    float64       `json:"length"`
	// Monotone is false if the continued distances increase or the
	// aborted distances decrease with failure speed somewhere.
	Monotone bool `json:"monotone"`
}

// BalancedFieldLength samples failure speeds between half the stall
// speed and the rotation speed, runs the continued and aborted takeoff
// for each in parallel, and intersects the fitted distance curves.
// Samples whose runs fail are discarded.
func (s *Simulator) BalancedFieldLength(ctx context.Context) (*BalancedField, error) {
	if s.opts.Samples < 2 {
		return nil, fmt.Errorf("%d samples requested: %w", s.opts.Samples, ErrInsufficientSamples)
	}
	speeds := math.Linspace(0.5*s.Config.StallSpeed(), s.Config.RotationSpeed(), s.opts.Samples)

	samples := make([]*FieldSample, len(speeds))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Workers)
	for i, vf := range speeds {
		eg.Go(func() error {
			fs, err := s.sample(gctx, vf)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.lg.Warn("discarding failure speed sample", "failure_speed", vf, "error", err)
				bflDiscarded.Inc()
				return nil
			}
			samples[i] = fs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var valid []FieldSample
	var discarded []float64
	for i, fs := range samples {
		if fs == nil {
			discarded = append(discarded, speeds[i])
		} else {
			valid = append(valid, *fs)
		}
	}

	bf, err := SolveBalancedField(valid, s.lg)
	if err != nil {
		return nil, err
	}
	bf.Discarded = discarded
	lastDistance.WithLabelValues("bfl").Set(bf.Length)
	s.lg.Info("balanced field", "v1", bf.V1, "length", bf.Length, "samples", len(valid),
		"discarded", len(discarded), "monotone", bf.Monotone)
	return bf, nil
}

func (s *Simulator) fieldSample(ctx context.Context, vf float64) (*FieldSample, error) {
	cont, err := s.SearchAlphaReduction(ctx, &vf)
	if err != nil {
		return nil, fmt.Errorf("continued: %w", err)
	}
	abrt, err := s.Run(ctx, &vf, true, 0)
	if err != nil {
		return nil, fmt.Errorf("aborted: %w", err)
	}
	return &FieldSample{
		FailureSpeed:   vf,
		Continued:      cont.Run.Distance(),
		Aborted:        abrt.Distance(),
		AlphaReduction: cont.AlphaReduction,
	}, nil
}

// SolveBalancedField fits monotone cubics through the continued and
// aborted distances (straight lines for two samples), resamples them on
// a common grid over the sampled speeds and returns their first
// intersection.
func SolveBalancedField(samples []FieldSample, lg *log.Logger) (*BalancedField, error) {
	samples = slices.Clone(samples)
	slices.SortFunc(samples, func(a, b FieldSample) int {
		switch {
		case a.FailureSpeed < b.FailureSpeed:
			return -1
		case a.FailureSpeed > b.FailureSpeed:
			return 1
		default:
			return 0
		}
	})
	samples = slices.CompactFunc(samples, func(a, b FieldSample) bool { return a.FailureSpeed == b.FailureSpeed })
	if len(samples) < 2 {
		return nil, fmt.Errorf("%d valid: %w", len(samples), ErrInsufficientSamples)
	}

	n := len(samples)
	xs, cont, abrt := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, fs := range samples {
		xs[i], cont[i], abrt[i] = fs.FailureSpeed, fs.Continued, fs.Aborted
		if !math.AllFinite(fs.FailureSpeed, fs.Continued, fs.Aborted) {
			return nil, fmt.Errorf("non-finite sample %+v: %w", fs, ErrInsufficientSamples)
		}
	}

	bf := &BalancedField{
		Samples: samples,
		Monotone: math.IsNonIncreasing(cont, monotoneTolerance) &&
			math.IsNonDecreasing(abrt, monotoneTolerance),
	}
	if !bf.Monotone {
		lg.Warn("balanced field distances are not monotone in failure speed", "speeds", xs,
			"continued", cont, "aborted", abrt)
	}

	fit := func(ys []float64) (interp.Predictor, error) {
		if n == 2 {
			var pl interp.PiecewiseLinear
			return &pl, pl.Fit(xs, ys)
		}
		var fb interp.FritschButland
		return &fb, fb.Fit(xs, ys)
	}
	pc, err := fit(cont)
	if err != nil {
		return nil, fmt.Errorf("continued distance fit: %w", err)
	}
	pa, err := fit(abrt)
	if err != nil {
		return nil, fmt.Errorf("aborted distance fit: %w", err)
	}

	grid := floats.Span(make([]float64, BFLResolution), xs[0], xs[n-1])
	cc, ac := make([]float64, len(grid)), make([]float64, len(grid))
	bf.Curve = make([]CurvePoint, len(grid))
	for i, x := range grid {
		cc[i], ac[i] = pc.Predict(x), pa.Predict(x)
		bf.Curve[i] = CurvePoint{FailureSpeed: x, Continued: cc[i], Aborted: ac[i]}
	}

	bf.V1, bf.Length, err = math.Crossing(grid, cc, ac)
	if errors.Is(err, math.ErrNoCrossing) {
		lg.Warn("no balanced field length", "continued", [2]float64{floats.Min(cc), floats.Max(cc)},
			"aborted", [2]float64{floats.Min(ac), floats.Max(ac)})
		return nil, fmt.Errorf("failure speeds %.2f-%.2f m/s: %w", xs[0], xs[n-1], ErrNoIntersection)
	} else if err != nil {
		return nil, err
	}
	return bf, nil
}
