// aviation/aviation.go
// Copyright(c) 2022-2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	gomath "math"

	"github.com/fieldlength/takeoff/math"
)

///////////////////////////////////////////////////////////////////////////
// Units

const (
	G0             = 9.80665 // standard gravity, m/s^2
	MetersPerFoot  = 0.3048
	MetersPerNM    = 1852
	MPSPerKnot     = MetersPerNM / 3600.
	SeaLevelTemp   = 288.15   // K
	SeaLevelPress  = 101325   // Pa
	SeaLevelRho    = 1.225    // kg/m^3
	GasConstantAir = 287.0529 // J/(kg K)
	LapseRate      = 0.0065   // K/m, troposphere
	Gamma          = 1.4
	TropopauseM    = 11000
)

func FeetToMeters(ft float64) float64  { return ft * MetersPerFoot }
func MetersToFeet(m float64) float64   { return m / MetersPerFoot }
func KnotsToMPS(kt float64) float64    { return kt * MPSPerKnot }
func MPSToKnots(mps float64) float64   { return mps / MPSPerKnot }
func NewtonsToKgf(n float64) float64   { return n / G0 }
func KgToNewtons(mass float64) float64 { return mass * G0 }

///////////////////////////////////////////////////////////////////////////
// ISA atmosphere

// Atmosphere holds ISA properties at a geopotential altitude.
type Atmosphere struct {
	Altitude     float64 // m
	Temperature  float64 // K
	Pressure     float64 // Pa
	Density      float64 // kg/m^3
	SpeedOfSound float64 // m/s
}

// ISA returns standard atmosphere properties at the given altitude in
// meters. Altitudes above the tropopause use the isothermal layer.
func ISA(alt float64) Atmosphere {
	alt = math.Clamp(alt, -1000, 20000)

	var temp, press float64
	if alt <= TropopauseM {
		temp = SeaLevelTemp - LapseRate*alt
		press = SeaLevelPress * gomath.Pow(temp/SeaLevelTemp, G0/(LapseRate*GasConstantAir))
	} else {
		temp = SeaLevelTemp - LapseRate*TropopauseM
		p11 := SeaLevelPress * gomath.Pow(temp/SeaLevelTemp, G0/(LapseRate*GasConstantAir))
		press = p11 * gomath.Exp(-G0*(alt-TropopauseM)/(GasConstantAir*temp))
	}

	return Atmosphere{
		Altitude:     alt,
		Temperature:  temp,
		Pressure:     press,
		Density:      press / (GasConstantAir * temp),
		SpeedOfSound: gomath.Sqrt(Gamma * GasConstantAir * temp),
	}
}

// DensityAtAltitude returns the ISA air density in kg/m^3.
func DensityAtAltitude(alt float64) float64 {
	return ISA(alt).Density
}

// DensityRatioAtAltitude returns sigma = rho/rho0 for the ISA.
func DensityRatioAtAltitude(alt float64) float64 {
	return DensityAtAltitude(alt) / ISA(0).Density
}

func SpeedOfSound(alt float64) float64 {
	return ISA(alt).SpeedOfSound
}

// Mach returns the Mach number for a true airspeed in m/s.
func Mach(tas, alt float64) float64 {
	return tas / SpeedOfSound(alt)
}

func EASToTAS(eas, altitude float64) float64 {
	return eas / gomath.Sqrt(DensityRatioAtAltitude(altitude))
}

func TASToEAS(tas, altitude float64) float64 {
	return tas * gomath.Sqrt(DensityRatioAtAltitude(altitude))
}

///////////////////////////////////////////////////////////////////////////
// Performance

// StallSpeed returns the speed at which lift at clMax balances the
// given weight (N) for a wing of area s (m^2) in air of density rho.
func StallSpeed(weight, rho, s, clMax float64) float64 {
	return gomath.Sqrt(2 * weight / (rho * s * clMax))
}

// WingSpan returns the span of a wing with reference area s and aspect
// ratio ar.
func WingSpan(s, ar float64) float64 {
	return gomath.Sqrt(s * ar)
}
