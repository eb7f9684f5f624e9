// takeoff/bfl_test.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/fieldlength/takeoff/math"
)

func TestSolveBalancedField(t *testing.T) {
	// Given out of order: the solver sorts by failure speed.
	samples := []FieldSample{
		{FailureSpeed: 60, Continued: 1500, Aborted: 2000},
		{FailureSpeed: 40, Continued: 2000, Aborted: 1000},
	}
	bf, err := SolveBalancedField(samples, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.Close(bf.V1, 160./3, 1e-6) || !math.Close(bf.Length, 5000./3, 1e-4) {
		t.Errorf("got V1 %g length %g, expected %g %g", bf.V1, bf.Length, 160./3, 5000./3)
	}
	if !bf.Monotone {
		t.Errorf("monotone samples reported as non-monotone")
	}
	if len(bf.Curve) != BFLResolution || bf.Curve[0].FailureSpeed != 40 || bf.Curve[len(bf.Curve)-1].FailureSpeed != 60 {
		t.Errorf("curve has %d points", len(bf.Curve))
	}
	if samples[0].FailureSpeed != 60 {
		t.Errorf("caller's samples were reordered")
	}

	// Monotone cubic fit through more samples of the same lines.
	samples = nil
	for _, v := range []float64{40, 45, 50, 55, 60} {
		samples = append(samples, FieldSample{FailureSpeed: v, Continued: 2000 - 25*(v-40), Aborted: 1000 + 50*(v-40)})
	}
	if bf, err = SolveBalancedField(samples, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.Close(bf.V1, 160./3, 1e-3) || !math.Close(bf.Length, 5000./3, 0.1) {
		t.Errorf("cubic fit: got V1 %g length %g, expected %g %g", bf.V1, bf.Length, 160./3, 5000./3)
	}
}

func TestSolveBalancedFieldErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		samples []FieldSample
		err     error
	}{
		{"empty", nil, ErrInsufficientSamples},
		{"single", []FieldSample{{FailureSpeed: 40, Continued: 2000, Aborted: 1000}}, ErrInsufficientSamples},
		{"duplicate speeds", []FieldSample{
			{FailureSpeed: 40, Continued: 2000, Aborted: 1000},
			{FailureSpeed: 40, Continued: 1900, Aborted: 1100},
		}, ErrInsufficientSamples},
		{"aborted always shorter", []FieldSample{
			{FailureSpeed: 40, Continued: 2000, Aborted: 1000},
			{FailureSpeed: 60, Continued: 1800, Aborted: 1500},
		}, ErrNoIntersection},
	} {
		if _, err := SolveBalancedField(tc.samples, nil); !errors.Is(err, tc.err) {
			t.Errorf("%s: got %v, expected %v", tc.name, err, tc.err)
		}
	}
}

func TestSolveBalancedFieldNonMonotone(t *testing.T) {
	samples := []FieldSample{
		{FailureSpeed: 40, Continued: 2000, Aborted: 1000},
		{FailureSpeed: 50, Continued: 2100, Aborted: 1200},
		{FailureSpeed: 60, Continued: 1500, Aborted: 2000},
	}
	bf, err := SolveBalancedField(samples, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bf.Monotone {
		t.Errorf("non-monotone continued distances not flagged")
	}
	if bf.V1 <= 50 || bf.V1 >= 60 {
		t.Errorf("V1 %g outside (50, 60)", bf.V1)
	}
}

func TestBalancedFieldLength(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the alpha search at every failure speed")
	}

	sim := newTestSimulator(t, lightTwinSpec(), Options{Workers: 2})
	bf, err := sim.BalancedFieldLength(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bf.Samples) != DefaultBFLSamples || len(bf.Discarded) != 0 {
		t.Errorf("got %d samples and %d discarded, expected %d and 0", len(bf.Samples), len(bf.Discarded),
			DefaultBFLSamples)
	}
	c := sim.Config
	if !math.Close(bf.Samples[0].FailureSpeed, 0.5*c.StallSpeed(), 1e-9) ||
		!math.Close(bf.Samples[len(bf.Samples)-1].FailureSpeed, c.RotationSpeed(), 1e-9) {
		t.Errorf("sampled %g-%g, expected %g-%g", bf.Samples[0].FailureSpeed,
			bf.Samples[len(bf.Samples)-1].FailureSpeed, 0.5*c.StallSpeed(), c.RotationSpeed())
	}
	if !bf.Monotone {
		t.Errorf("distances not monotone: %+v", bf.Samples)
	}
	if bf.V1 < 54 || bf.V1 > 66 {
		t.Errorf("V1 %g outside [54, 66]", bf.V1)
	}
	if bf.Length < 1270 || bf.Length > 1390 {
		t.Errorf("balanced field length %g outside [1270, 1390]", bf.Length)
	}
	for _, s := range bf.Samples {
		if s.AlphaReduction > 0 {
			t.Errorf("failure at %g: positive alpha reduction %g", s.FailureSpeed, s.AlphaReduction)
		}
	}

	// Fewer than two samples cannot be intersected.
	one := newTestSimulator(t, lightTwinSpec(), Options{Samples: 1})
	if _, err := one.BalancedFieldLength(context.Background()); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("one sample: got %v, expected %v", err, ErrInsufficientSamples)
	}
}

func TestBalancedFieldLengthCanceled(t *testing.T) {
	sim := newTestSimulator(t, lightTwinSpec(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.BalancedFieldLength(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, expected %v", err, context.Canceled)
	}
}

func TestBalancedFieldLengthDiscarded(t *testing.T) {
	sim := newTestSimulator(t, a320Spec(), Options{Workers: 2})
	c := sim.Config
	speeds := math.Linspace(0.5*c.StallSpeed(), c.RotationSpeed(), DefaultBFLSamples)
	mid := (speeds[0] + speeds[len(speeds)-1]) / 2

	// Straight distance curves crossing at mid; the failure speeds in
	// drop fail as if they could not be reached.
	withDropped := func(drop ...float64) {
		sim.sample = func(ctx context.Context, vf float64) (*FieldSample, error) {
			if slices.Contains(drop, vf) {
				return nil, fmt.Errorf("continued: %w", &RunError{Err: ErrDomainViolation})
			}
			return &FieldSample{FailureSpeed: vf, Continued: 2000 - 10*(vf-mid), Aborted: 2000 + 10*(vf-mid)}, nil
		}
	}

	withDropped(speeds[0])
	bf, err := sim.BalancedFieldLength(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bf.Samples) != len(speeds)-1 || !slices.Equal(bf.Discarded, speeds[:1]) {
		t.Errorf("got %d samples, discarded %v, expected %d and %v", len(bf.Samples), bf.Discarded,
			len(speeds)-1, speeds[:1])
	}
	if !math.Close(bf.V1, mid, 1e-6) || !math.Close(bf.Length, 2000, 1e-4) {
		t.Errorf("got V1 %g length %g, expected %g 2000", bf.V1, bf.Length, mid)
	}

	withDropped(speeds[1:]...)
	if _, err := sim.BalancedFieldLength(context.Background()); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("one left: got %v, expected %v", err, ErrInsufficientSamples)
	}
	withDropped(speeds...)
	if _, err := sim.BalancedFieldLength(context.Background()); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("none left: got %v, expected %v", err, ErrInsufficientSamples)
	}
}

func TestBalancedFieldLengthUnreachableTarget(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the alpha search at every failure speed")
	}
	// Every continued a320 run falls short of the V2 target.
	sim := newTestSimulator(t, a320Spec(), Options{Workers: 2})
	if _, err := sim.BalancedFieldLength(context.Background()); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("got %v, expected %v", err, ErrInsufficientSamples)
	}
}
