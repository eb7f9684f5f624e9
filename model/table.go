// model/table.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package model provides the scalar models consumed by the takeoff
// simulator: speed-indexed tables, thrust models and ground effect.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldlength/takeoff/math"

	"gonum.org/v1/gonum/interp"
)

var (
	ErrEmptyTable        = errors.New("table has no points")
	ErrTableLength       = errors.New("table abscissae and values differ in length")
	ErrNonMonotonicTable = errors.New("table abscissae are not strictly increasing")
	ErrNonFiniteTable    = errors.New("table contains a non-finite value")
)

// Single-point tables are widened to this speed range (m/s) so that the
// interpolant always has two points.
const (
	ConstantTableLow  = 0
	ConstantTableHigh = 10000
)

// Table is a one-dimensional piecewise-linear interpolant. Outside its
// domain it returns the value at the nearest end point. A Table is
// immutable once built and safe for concurrent use.
type Table struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

// NewTable validates the points and fits the interpolant. xs must be
// strictly increasing; a single point gives a constant table.
func NewTable(xs, ys []float64) (*Table, error) {
	if len(xs) == 0 {
		return nil, ErrEmptyTable
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%d abscissae, %d values: %w", len(xs), len(ys), ErrTableLength)
	}
	if !math.AllFinite(xs...) || !math.AllFinite(ys...) {
		return nil, ErrNonFiniteTable
	}
	if len(xs) == 1 {
		return ConstantTable(ys[0]), nil
	}
	if !math.IsStrictlyIncreasing(xs) {
		return nil, fmt.Errorf("%v: %w", xs, ErrNonMonotonicTable)
	}

	t := &Table{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	// Fit panics on bad input; everything it checks was validated above.
	if err := t.pl.Fit(t.xs, t.ys); err != nil {
		return nil, err
	}
	return t, nil
}

// ConstantTable returns a table that evaluates to v everywhere.
func ConstantTable(v float64) *Table {
	t := &Table{
		xs: []float64{ConstantTableLow, ConstantTableHigh},
		ys: []float64{v, v},
	}
	_ = t.pl.Fit(t.xs, t.ys)
	return t
}

// MustTable is like NewTable but panics on error; it is intended for
// tables defined in code.
func MustTable(xs, ys []float64) *Table {
	t, err := NewTable(xs, ys)
	if err != nil {
		panic(err)
	}
	return t
}

// At returns the interpolated value at x.
func (t *Table) At(x float64) float64 {
	return t.pl.Predict(x)
}

// Points returns copies of the table's abscissae and values.
func (t *Table) Points() (xs, ys []float64) {
	return append([]float64(nil), t.xs...), append([]float64(nil), t.ys...)
}

// Min and Max return the extreme values of the table.
func (t *Table) Min() float64 {
	m := t.ys[0]
	for _, y := range t.ys[1:] {
		m = math.Min(m, y)
	}
	return m
}

func (t *Table) Max() float64 {
	m := t.ys[0]
	for _, y := range t.ys[1:] {
		m = math.Max(m, y)
	}
	return m
}

///////////////////////////////////////////////////////////////////////////
// TableSpec

// TableSpec is the JSON form of a table: either a bare number for a
// constant or an object with matching "speeds" and "values" arrays.
type TableSpec struct {
	Speeds []float64 `json:"speeds"`
	Values []float64 `json:"values"`
}

func (s *TableSpec) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		var v float64
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = TableSpec{Values: []float64{v}, Speeds: []float64{ConstantTableLow}}
		return nil
	}

	type plain TableSpec // avoid recursion
	var p plain
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*s = TableSpec(p)
	return nil
}

// IsZero reports whether the spec is unset.
func (s TableSpec) IsZero() bool {
	return len(s.Speeds) == 0 && len(s.Values) == 0
}

// Build returns the table described by the spec, or ConstantTable(def)
// if the spec is unset.
func (s TableSpec) Build(def float64) (*Table, error) {
	if s.IsZero() {
		return ConstantTable(def), nil
	}
	return NewTable(s.Speeds, s.Values)
}

// ConstantSpec returns the spec of a constant table.
func ConstantSpec(v float64) TableSpec {
	return TableSpec{Speeds: []float64{ConstantTableLow}, Values: []float64{v}}
}
