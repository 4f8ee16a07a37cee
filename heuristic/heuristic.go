// Package heuristic defines the capability contract the search engine
// requires from a scoring strategy, plus two concrete heuristics:
// max-output and min-distance-to-example.
package heuristic

import "github.com/dtaikl/treeverify/box"

// State is the minimal shape a heuristic needs to read from and write onto
// a search state; search.State embeds it so heuristics never need to know
// about the engine's internal bookkeeping (open-heap index, parent link,
// etc).
type State struct {
	IndepSet int     // index of the last independent set chosen
	G        float64 // accumulated true output so far
	H        float64 // heuristic estimate of the remaining output
	D        float64 // heuristic-specific scratch (e.g. accumulated distance)
	Box      box.Box // the state's current constraint box (materialized view)
}

// F returns the open-list score g + eps*h.
func (s State) F(eps float64) float64 { return s.G + eps*s.H }

// Engine is the slice of the search engine a heuristic is allowed to read:
// enough to compute residual bounds without coupling the heuristic package
// to search's internal types.
type Engine interface {
	NumSets() int
	// MaxCompatibleOutput returns, for tree index ti, the maximum Output
	// among that tree's vertices whose box overlaps b. Ok is false if no
	// vertex is compatible (an infeasible continuation).
	MaxCompatibleOutput(ti int, b box.Box) (value float64, ok bool)
}

// Heuristic is the capability contract a scoring strategy must satisfy: an
// admissible h(s), a (possibly inadmissible) focal score, a comparator
// establishing a partial order on open scores, a feasibility test, and an
// update rule for freshly expanded children.
type Heuristic interface {
	// Update sets G, H (and any heuristic-specific fields) on child given
	// its parent and the leaf value just added.
	Update(eng Engine, child, parent *State, leafValue float64)

	// Feasible reports whether s can still reach this heuristic's target
	// (e.g. a robustness query's score threshold). The engine prunes a
	// state before it ever reaches the open list if this returns false,
	// and never emits a completed state as a solution if this returns
	// false for it. A heuristic with no threshold to prune against
	// (MaxOutput) always returns true.
	Feasible(s *State) bool

	// OpenScore is the max-heap key for the open list.
	OpenScore(eps float64, s *State) float64

	// FocalScore ranks states within the focal window; larger is expanded
	// first. May be inadmissible.
	FocalScore(s *State) float64

	// CompareOpen breaks ties among equal OpenScore values: larger
	// IndepSet first, then by insertion order (handled by the caller).
	CompareOpen(a, b *State) int
}
