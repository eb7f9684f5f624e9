// math/sampling.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

var ErrParallelSegments = errors.New("segments are parallel")
var ErrNoCrossing = errors.New("curves do not cross")

// Linspace returns n evenly spaced values over [a, b]; the first and last
// values are exactly a and b.
func Linspace(a, b float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{a}
	}
	v := floats.Span(make([]float64, n), a, b)
	v[n-1] = b
	return v
}

// SegmentIntersection returns the point where the lines through
// (x0, a0)-(x1, a1) and (x0, b0)-(x1, b1) meet. Both lines share the
// abscissae, which is the case when two curves are sampled on a common
// grid.
func SegmentIntersection(x0, x1, a0, a1, b0, b1 float64) (x, y float64, err error) {
	// d(x) = a(x) - b(x) is linear; find its root.
	d0, d1 := a0-b0, a1-b1
	if d0 == d1 {
		return 0, 0, ErrParallelSegments
	}
	f := d0 / (d0 - d1)
	x = Lerp(f, x0, x1)
	y = Lerp(f, a0, a1)
	return x, y, nil
}

// Crossing finds the first sign change of a-b over the common grid xs and
// returns the intersection point refined on that grid segment.
func Crossing(xs, a, b []float64) (x, y float64, err error) {
	if len(xs) != len(a) || len(xs) != len(b) {
		return 0, 0, errors.New("mismatched slice lengths")
	}
	for i := range xs {
		d := a[i] - b[i]
		if d == 0 {
			return xs[i], a[i], nil
		}
		if i > 0 && Sign(d) != Sign(a[i-1]-b[i-1]) {
			return SegmentIntersection(xs[i-1], xs[i], a[i-1], a[i], b[i-1], b[i])
		}
	}
	return 0, 0, ErrNoCrossing
}

// IsNonDecreasing reports whether v never decreases by more than tol
// between consecutive elements.
func IsNonDecreasing(v []float64, tol float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] < v[i-1]-tol {
			return false
		}
	}
	return true
}

// IsNonIncreasing reports whether v never increases by more than tol
// between consecutive elements.
func IsNonIncreasing(v []float64, tol float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] > v[i-1]+tol {
			return false
		}
	}
	return true
}

// IsStrictlyIncreasing reports whether each element of v is larger than
// the one before it.
func IsStrictlyIncreasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}
