// Package box implements sparse, axis-aligned regions of input space: an
// ordered sequence of (feature, interval) pairs, strictly increasing by
// feature id, where an absent feature means "unconstrained" (universal).
package box

import (
	"sort"

	"github.com/dtaikl/treeverify/interval"
)

// FeatureID identifies an input dimension.
type FeatureID int32

// Pair is one constrained dimension of a Box.
type Pair struct {
	Feature  FeatureID
	Interval interval.Interval
}

// Box is a read-only, sorted, sparse set of Pairs. Pairs are kept strictly
// increasing by Feature, and no Pair ever carries the universal interval
// (an unconstrained dimension is simply absent).
//
// Box is a value-level view over a caller-owned slice; it does not itself
// own storage. boxstore.Store is the arena that gives these slices a home
// with stable lifetime.
type Box []Pair

// Empty is the box with no constraints (the universal region).
var Empty = Box(nil)

// Get returns the interval for feature f, or interval.Universal if absent.
func (b Box) Get(f FeatureID) interval.Interval {
	i := b.search(f)
	if i < len(b) && b[i].Feature == f {
		return b[i].Interval
	}
	return interval.Universal
}

func (b Box) search(f FeatureID) int {
	return sort.Search(len(b), func(i int) bool { return b[i].Feature >= f })
}

// Valid reports whether b is strictly sorted, has unique feature ids, and
// carries no universal pair.
func (b Box) Valid() bool {
	for i, p := range b {
		if p.Interval.IsUniversal() {
			return false
		}
		if i > 0 && b[i-1].Feature >= p.Feature {
			return false
		}
	}
	return true
}

// Overlaps reports whether a and b are simultaneously satisfiable: every
// shared dimension's intervals overlap, and missing dimensions are
// universal, so they trivially overlap anything.
func (a Box) Overlaps(b Box) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Feature < b[j].Feature:
			i++
		case a[i].Feature > b[j].Feature:
			j++
		default:
			if !a[i].Interval.Overlaps(b[j].Interval) {
				return false
			}
			i++
			j++
		}
	}
	return true
}

// Contains reports whether every constraint in b is implied by a, i.e. a is
// at least as tight as b on every dimension b constrains.
func (a Box) Contains(b Box) bool {
	i := 0
	for _, pb := range b {
		for i < len(a) && a[i].Feature < pb.Feature {
			i++
		}
		if i >= len(a) || a[i].Feature != pb.Feature {
			// a is universal on this feature: a contains b's constraint
			// only if b's constraint is itself universal, which Valid()
			// never allows, so a does not contain it.
			return false
		}
		ai := a[i].Interval
		if ai.Lo < pb.Interval.Lo || ai.Hi > pb.Interval.Hi {
			return false
		}
	}
	return true
}

// Intersect writes the elementwise intersection of a and b into dst[:0],
// returning the grown slice and true, or dst[:0] and false if any shared
// dimension intersects empty. dst is reused as scratch storage by the
// caller (normally boxstore.Store's workspace) so this never allocates on
// the fast path.
func Intersect(dst []Pair, a, b Box) (Box, bool) {
	dst = dst[:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Feature < b[j].Feature:
			dst = append(dst, a[i])
			i++
		case a[i].Feature > b[j].Feature:
			dst = append(dst, b[j])
			j++
		default:
			iv, ok := a[i].Interval.Intersect(b[j].Interval)
			if !ok {
				return dst[:0], false
			}
			dst = append(dst, Pair{Feature: a[i].Feature, Interval: iv})
			i++
			j++
		}
	}
	dst = append(dst, a[i:]...)
	dst = append(dst, b[j:]...)
	return dst, true
}

// RefineWith folds a single split constraint (feature f, interval c) into
// dst, intersecting with any existing pair for f or inserting a new one in
// sorted position. Reports false if the refinement is empty.
func RefineWith(dst []Pair, f FeatureID, c interval.Interval) (Box, bool) {
	i := sort.Search(len(dst), func(i int) bool { return dst[i].Feature >= f })
	if i < len(dst) && dst[i].Feature == f {
		iv, ok := dst[i].Interval.Intersect(c)
		if !ok {
			return dst, false
		}
		dst[i].Interval = iv
		return dst, true
	}
	dst = append(dst, Pair{})
	copy(dst[i+1:], dst[i:])
	dst[i] = Pair{Feature: f, Interval: c}
	return dst, true
}
