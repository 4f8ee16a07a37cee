// Package interval implements the half-open, signed-infinity-aware 1-D
// ranges that box.Box is built from.
package interval

import "math"

// Interval is a half-open range [Lo, Hi) over the extended reals.
// The universal interval is (-Inf, +Inf).
type Interval struct {
	Lo float64
	Hi float64
}

// Universal is the interval spanning every possible value.
var Universal = Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}

// New constructs an interval, panicking if lo >= hi.
//
// Construction errors are a programmer error (spec: "invalid state"), not a
// recoverable condition: every interval that reaches this constructor is
// either a literal feature threshold or the result of Split/Intersect, both
// of which already enforce lo < hi.
func New(lo, hi float64) Interval {
	if lo >= hi {
		panic("interval: lo must be strictly less than hi")
	}
	return Interval{Lo: lo, Hi: hi}
}

// IsUniversal reports whether i spans the entire real line.
func (i Interval) IsUniversal() bool {
	return math.IsInf(i.Lo, -1) && math.IsInf(i.Hi, 1)
}

// Contains reports whether v falls in [Lo, Hi).
func (i Interval) Contains(v float64) bool {
	return i.Lo <= v && v < i.Hi
}

// Overlaps reports whether the two half-open ranges share any point.
func (i Interval) Overlaps(o Interval) bool {
	return i.Lo < o.Hi && o.Lo < i.Hi
}

// Intersect returns the elementwise-tightest interval consistent with both
// i and o, and false if the intersection is empty (bounds cross).
func (i Interval) Intersect(o Interval) (Interval, bool) {
	lo := math.Max(i.Lo, o.Lo)
	hi := math.Min(i.Hi, o.Hi)
	if lo >= hi {
		return Interval{}, false
	}
	return Interval{Lo: lo, Hi: hi}, true
}

// Split divides i at v into a left half [Lo, v) and right half [v, Hi).
// v must lie strictly inside (Lo, Hi); calling Split outside that range is a
// programmer error, mirroring the decision-tree split semantics that are the
// only caller of this operation (x < v goes left, otherwise right).
func (i Interval) Split(v float64) (left, right Interval) {
	if v <= i.Lo || v >= i.Hi {
		panic("interval: split value out of range")
	}
	return Interval{Lo: i.Lo, Hi: v}, Interval{Lo: v, Hi: i.Hi}
}

// Equal reports exact equality of bounds.
func (i Interval) Equal(o Interval) bool {
	return i.Lo == o.Lo && i.Hi == o.Hi
}
