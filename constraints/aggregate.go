package constraints

import (
	"math"

	"github.com/dtaikl/treeverify/box"
)

// Sum bounds the sum of a group of features from above: Σ feature <= Bound.
// Evaluated against the achievable range of the sum given each feature's
// current box, not just its midpoint, so the verdict stays admissible while
// features are still partially pinned.
type Sum struct {
	Features []box.FeatureID
	Bound    float64
}

func (c Sum) Evaluate(b box.Box) Status {
	min, max := sumRange(b, c.Features)
	return boundedAbove(min, max, c.Bound)
}

func sumRange(b box.Box, ids []box.FeatureID) (min, max float64) {
	for _, f := range ids {
		d := b.Get(f)
		if d.IsUniversal() {
			return math.Inf(-1), math.Inf(1)
		}
		min += d.Lo
		max += d.Hi
	}
	return min, max
}

func boundedAbove(min, max, bound float64) Status {
	if max <= bound {
		return Satisfiable
	}
	if min > bound {
		return Violated
	}
	return Unknown
}

// Norm bounds the P-norm of a group of features' displacement from the
// origin implicit in their intervals, used for perturbation-budget
// robustness queries (the min-distance-to-example heuristic's natural
// counterpart expressed as a hard constraint instead of a search bias).
type Norm struct {
	Features []box.FeatureID
	P        float64
	Bound    float64
}

func (c Norm) Evaluate(b box.Box) Status {
	var min, max float64
	for _, f := range c.Features {
		d := b.Get(f)
		if d.IsUniversal() {
			return Unknown
		}
		lo, hi := math.Abs(d.Lo), math.Abs(d.Hi)
		if hi < lo {
			lo, hi = hi, lo
		}
		contribMin := 0.0
		if d.Lo > 0 || d.Hi < 0 {
			contribMin = math.Pow(lo, c.P)
		}
		min += contribMin
		max += math.Pow(hi, c.P)
	}
	boundP := math.Pow(c.Bound, c.P)
	return boundedAbove(min, max, boundP)
}
