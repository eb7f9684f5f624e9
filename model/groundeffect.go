// model/groundeffect.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package model

import (
	gomath "math"

	"github.com/fieldlength/takeoff/math"
)

// GroundEffect returns McCormick's induced drag factor for a wing at
// height h above the ground with the given span. The factor multiplies
// the induced drag coefficient; it is 1 when h is not positive.
func GroundEffect(h, span float64) float64 {
	if h <= 0 || span <= 0 {
		return 1
	}
	hb := h / (gomath.Pi / 4 * span)
	k := -622.44*gomath.Pow(hb, 5) + 624.46*gomath.Pow(hb, 4) - 255.24*gomath.Pow(hb, 3) +
		47.105*math.Sqr(hb) - 0.6378*hb + 0.0055
	// The fit is only meaningful for small h/b.
	return math.Clamp(k, 0, 1)
}
