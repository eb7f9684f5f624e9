// takeoff/summary.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// SummaryVersion identifies the results a Summary holds; it should be
// bumped whenever a change alters them or the Summary's layout so that
// stored summaries are not reused.
const SummaryVersion = 1

// The regulatory takeoff distance is the all-engines distance with this
// margin.
const FAR25Factor = 1.15

// Summary collects the scalar results for a configuration. Distances are
// in meters, speeds in m/s.
type Summary struct {
	Name string `json:"name"`

	GroundRoll float64 `json:"ground_roll"`
	Rotation   float64 `json:"rotation"`
	Airborne   float64 `json:"airborne"`
	AEO        float64 `json:"aeo"`
	FAR25      float64 `json:"far25"`
	Duration   float64 `json:"duration"`

	VStall    float64 `json:"vstall"`
	VRot      float64 `json:"vrot"`
	VLO       float64 `json:"vlo"`
	V2        float64 `json:"v2"`
	VRotRatio float64 `json:"vrot_ratio"`
	VLORatio  float64 `json:"vlo_ratio"`
	V2Ratio   float64 `json:"v2_ratio"`

	AlphaReduction float64 `json:"alpha_reduction"`
	Bounded        bool    `json:"bounded"`

	HasBFL bool    `json:"has_bfl"`
	V1     float64 `json:"v1,omitempty"`
	BFL    float64 `json:"bfl,omitempty"`
	// Why the requested balanced field length could not be found.
	BFLError string `json:"bfl_error,omitempty"`

	// The runs behind the summary; they are not cached or serialized.
	Run           *RunResult     `json:"-" msgpack:"-"`
	BalancedField *BalancedField `json:"-" msgpack:"-"`
}

// Calculate runs the all-engines takeoff with the pitch reduction found
// by SearchAlphaReduction and, if withBFL is set, the balanced field
// length. A balanced field that cannot be found leaves HasBFL unset and
// the reason in BFLError; the rest of the summary is still returned.
func (s *Simulator) Calculate(ctx context.Context, withBFL bool) (*Summary, error) {
	c := s.Config
	ar, err := s.SearchAlphaReduction(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: all engines: %w", c.Name(), err)
	}
	r := ar.Run
	gr, rot, air := r.Segments()

	sum := &Summary{
		Name:           c.Name(),
		GroundRoll:     gr,
		Rotation:       rot,
		Airborne:       air,
		AEO:            r.Distance(),
		FAR25:          FAR25Factor * r.Distance(),
		Duration:       r.Duration(),
		VStall:         c.StallSpeed(),
		VRot:           c.RotationSpeed(),
		VLO:            r.VLO,
		V2:             r.V2,
		VRotRatio:      c.RotationSpeed() / c.StallSpeed(),
		VLORatio:       r.VLO / c.StallSpeed(),
		V2Ratio:        r.V2 / c.StallSpeed(),
		AlphaReduction: ar.AlphaReduction,
		Bounded:        ar.Bounded,
		Run:            r,
	}
	lastDistance.WithLabelValues("aeo").Set(sum.AEO)
	lastDistance.WithLabelValues("far25").Set(sum.FAR25)
	if ar.Bounded {
		s.lg.Warn("V2 ratio above target without pitch reduction", "ratio", ar.Ratio)
	}

	if withBFL {
		bf, err := s.BalancedFieldLength(ctx)
		switch {
		case errors.Is(err, ErrNoIntersection) || errors.Is(err, ErrInsufficientSamples):
			s.lg.Warn("no balanced field length", "error", err)
			sum.BFLError = err.Error()
		case err != nil:
			return nil, fmt.Errorf("%s: balanced field: %w", c.Name(), err)
		default:
			sum.HasBFL, sum.V1, sum.BFL, sum.BalancedField = true, bf.V1, bf.Length, bf
		}
	}
	return sum, nil
}

// Print writes a human-readable report.
func (sum *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "%s\n", sum.Name)
	fmt.Fprintf(w, "  ground roll      %9.1f m\n", sum.GroundRoll)
	fmt.Fprintf(w, "  rotation         %9.1f m\n", sum.Rotation)
	fmt.Fprintf(w, "  airborne         %9.1f m\n", sum.Airborne)
	fmt.Fprintf(w, "  AEO distance     %9.1f m\n", sum.AEO)
	fmt.Fprintf(w, "  FAR-25 distance  %9.1f m\n", sum.FAR25)
	fmt.Fprintf(w, "  duration         %9.2f s\n", sum.Duration)
	fmt.Fprintf(w, "  Vstall           %9.2f m/s\n", sum.VStall)
	fmt.Fprintf(w, "  Vrot             %9.2f m/s  (%.3f Vstall)\n", sum.VRot, sum.VRotRatio)
	fmt.Fprintf(w, "  VLO              %9.2f m/s  (%.3f Vstall)\n", sum.VLO, sum.VLORatio)
	fmt.Fprintf(w, "  V2               %9.2f m/s  (%.3f Vstall)\n", sum.V2, sum.V2Ratio)
	fmt.Fprintf(w, "  alpha reduction  %9.2f deg/s", sum.AlphaReduction)
	if sum.Bounded {
		fmt.Fprintf(w, "  (bounded)")
	}
	fmt.Fprintln(w)
	if sum.HasBFL {
		fmt.Fprintf(w, "  V1               %9.2f m/s\n", sum.V1)
		fmt.Fprintf(w, "  balanced field   %9.1f m\n", sum.BFL)
	} else if sum.BFLError != "" {
		fmt.Fprintf(w, "  no balanced field length: %s\n", sum.BFLError)
	}
}
