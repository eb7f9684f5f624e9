// export/json.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package export

import (
	"encoding/json"
	"io"

	"github.com/fieldlength/takeoff/takeoff"

	"github.com/iancoleman/orderedmap"
)

// SummaryMap returns the summary as an ordered map whose keys follow the
// order of the printed report: distances, then speeds, then the pitch
// reduction and the balanced field.
func SummaryMap(sum *takeoff.Summary) *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.SetEscapeHTML(false)
	o.Set("name", sum.Name)

	dist := orderedmap.New()
	dist.Set("ground_roll", sum.GroundRoll)
	dist.Set("rotation", sum.Rotation)
	dist.Set("airborne", sum.Airborne)
	dist.Set("aeo", sum.AEO)
	dist.Set("far25", sum.FAR25)
	o.Set("distances_m", dist)
	o.Set("duration_s", sum.Duration)

	speeds := orderedmap.New()
	speeds.Set("vstall", sum.VStall)
	speeds.Set("vrot", sum.VRot)
	speeds.Set("vlo", sum.VLO)
	speeds.Set("v2", sum.V2)
	o.Set("speeds_mps", speeds)

	ratios := orderedmap.New()
	ratios.Set("vrot", sum.VRotRatio)
	ratios.Set("vlo", sum.VLORatio)
	ratios.Set("v2", sum.V2Ratio)
	o.Set("ratios_to_vstall", ratios)

	o.Set("alpha_reduction_deg_s", sum.AlphaReduction)
	o.Set("bounded", sum.Bounded)

	if sum.HasBFL {
		bfl := orderedmap.New()
		bfl.Set("v1_mps", sum.V1)
		bfl.Set("length_m", sum.BFL)
		if bf := sum.BalancedField; bf != nil {
			bfl.Set("monotone", bf.Monotone)
			bfl.Set("samples", bf.Samples)
			if len(bf.Discarded) > 0 {
				bfl.Set("discarded", bf.Discarded)
			}
		}
		o.Set("balanced_field", bfl)
	} else if sum.BFLError != "" {
		bfl := orderedmap.New()
		bfl.Set("error", sum.BFLError)
		o.Set("balanced_field", bfl)
	}
	return o
}

// WriteSummaryJSON writes the indented ordered summary.
func WriteSummaryJSON(w io.Writer, sum *takeoff.Summary) error {
	b, err := json.MarshalIndent(SummaryMap(sum), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
