package constraints

import "github.com/dtaikl/treeverify/box"

// OneOutOfK asserts that among a group of one-hot-encoded boolean features,
// at most one (or, if Strict, exactly one) is "active" — its box excludes
// the false value 0 — mirroring the original box-adjuster's
// one-out-of-k handling for one-hot feature groups.
type OneOutOfK struct {
	Features []box.FeatureID
	Strict   bool
}

// classify is shared by OneOutOfK and AtMostK: it classifies each feature
// in ids as pinned-active, pinned-inactive, or unpinned (universal), then
// lets the caller fold the counts into a verdict.
func classify(b box.Box, ids []box.FeatureID) (active, pinned int) {
	for _, f := range ids {
		d := b.Get(f)
		if d.IsUniversal() {
			continue
		}
		pinned++
		if !d.Contains(0) {
			active++
		}
	}
	return active, pinned
}

func (c OneOutOfK) Evaluate(b box.Box) Status {
	active, pinned := classify(b, c.Features)
	if active > 1 {
		return Violated
	}
	if pinned < len(c.Features) {
		return Unknown
	}
	if c.Strict && active != 1 {
		return Violated
	}
	return Satisfiable
}

// AtMostK asserts that at most K features in the group are active.
type AtMostK struct {
	Features []box.FeatureID
	K        int
}

func (c AtMostK) Evaluate(b box.Box) Status {
	active, pinned := classify(b, c.Features)
	if active > c.K {
		return Violated
	}
	if pinned < len(c.Features) {
		return Unknown
	}
	return Satisfiable
}
