// model/thrust.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package model

import (
	"errors"
	"fmt"

	"github.com/fieldlength/takeoff/aviation"
)

var ErrUnknownThrustModel = errors.New("unknown thrust model")

// ThrustModel gives the net thrust of a single engine in newtons.
type ThrustModel interface {
	Thrust(speed, altitude float64) float64
}

// Turbofan is a simplified high-bypass turbofan lapse with speed.
type Turbofan struct {
	StaticThrust float64 // N, per engine
}

func (tf Turbofan) Thrust(speed, altitude float64) float64 {
	ratio := 1 - 0.00252*speed + 0.00000434*speed*speed
	return tf.StaticThrust * ratio
}

// MachTable interpolates per-engine thrust against Mach number.
type MachTable struct {
	Table *Table
}

func (mt MachTable) Thrust(speed, altitude float64) float64 {
	return mt.Table.At(aviation.Mach(speed, altitude))
}

// ThrustSpec is the JSON description of a thrust model.
type ThrustSpec struct {
	Model        string    `json:"model"`
	StaticThrust float64   `json:"static_thrust_n,omitempty"`
	Mach         []float64 `json:"mach,omitempty"`
	Thrust       []float64 `json:"thrust_n,omitempty"`
}

func (s ThrustSpec) Build() (ThrustModel, error) {
	switch s.Model {
	case "turbofan", "":
		if !(s.StaticThrust > 0) {
			return nil, fmt.Errorf("turbofan static thrust %g must be positive", s.StaticThrust)
		}
		return Turbofan{StaticThrust: s.StaticThrust}, nil

	case "mach_table":
		t, err := NewTable(s.Mach, s.Thrust)
		if err != nil {
			return nil, fmt.Errorf("thrust table: %w", err)
		}
		if t.Min() < 0 {
			return nil, fmt.Errorf("thrust table has negative thrust %g", t.Min())
		}
		return MachTable{Table: t}, nil

	default:
		return nil, fmt.Errorf("%q: %w", s.Model, ErrUnknownThrustModel)
	}
}
