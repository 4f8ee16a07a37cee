package heuristic

import (
	"math"

	"github.com/dtaikl/treeverify/box"
)

// MinDistToExample searches for the cheapest (in L1 distance from a
// reference point) box that still achieves a target output. G tracks the
// accumulated true output, H the remaining achievable output (same
// admissible bound as MaxOutput, so the engine's generic completion check
// stays heuristic-agnostic), and D — this heuristic's own scratch field —
// the accumulated distance from X to the state's box.
type MinDistToExample struct {
	X             map[box.FeatureID]float64
	OutputThresh float64
}

func (h MinDistToExample) Update(eng Engine, child, parent *State, leafValue float64) {
	child.G = parent.G + leafValue
	child.H = 0
	for ti := child.IndepSet + 1; ti < eng.NumSets(); ti++ {
		if v, ok := eng.MaxCompatibleOutput(ti, child.Box); ok {
			child.H += v
		}
	}
	child.D = h.distance(child.Box)
}

func (h MinDistToExample) distance(b box.Box) float64 {
	var d float64
	for _, p := range b {
		x, ok := h.X[p.Feature]
		if !ok {
			continue
		}
		if p.Interval.Contains(x) {
			continue
		}
		d += math.Min(math.Abs(x-p.Interval.Lo), math.Abs(x-p.Interval.Hi))
	}
	return d
}

// Feasible reports whether s can still reach the output threshold, i.e.
// whether the admissible completion bound holds. The engine prunes states
// failing this before they're ever pushed onto the open list.
func (h MinDistToExample) Feasible(s *State) bool {
	return s.G+s.H >= h.OutputThresh
}

// OpenScore is a max-heap over negative distance: the closest candidate to
// the reference point ranks highest.
func (MinDistToExample) OpenScore(_ float64, s *State) float64 { return -s.D }

// FocalScore prefers the smallest current distance.
func (MinDistToExample) FocalScore(s *State) float64 { return -s.D }

func (MinDistToExample) CompareOpen(a, b *State) int { return a.IndepSet - b.IndepSet }
