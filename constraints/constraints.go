// Package constraints encodes declarative domain knowledge about the input
// space — one-hot exclusivity, feature ordering, weighted sums, perturbation
// norms — directly into graph pruning and search-time expansion, rather than
// leaving it to be discovered the slow way by the bound-propagation search.
package constraints

import "github.com/dtaikl/treeverify/box"

// Status is the three-way verdict a Constraint reports against a candidate
// box: a box that doesn't yet pin enough features to decide is Unknown, not
// Satisfiable — treating it as satisfiable would let a later, more
// constrained descendant silently violate the constraint.
type Status int

const (
	Violated Status = iota
	Unknown
	Satisfiable
)

// Constraint evaluates a box against one piece of declarative domain
// knowledge.
type Constraint interface {
	Evaluate(b box.Box) Status
}

// Set is an ordered collection of constraints, evaluated independently; a
// box survives only if no constraint reports Violated.
type Set struct {
	constraints []Constraint
}

// NewSet returns an empty constraint set.
func NewSet() *Set { return &Set{} }

// Add appends a constraint.
func (s *Set) Add(c Constraint) { s.constraints = append(s.constraints, c) }

// Len reports how many constraints are registered.
func (s *Set) Len() int { return len(s.constraints) }

// Evaluate folds every constraint's verdict into one: Violated wins over
// everything, Unknown wins over Satisfiable.
func (s *Set) Evaluate(b box.Box) Status {
	out := Satisfiable
	for _, c := range s.constraints {
		switch c.Evaluate(b) {
		case Violated:
			return Violated
		case Unknown:
			out = Unknown
		}
	}
	return out
}

// Keep reports whether b should survive pruning: anything short of a
// definite Violated verdict is kept, since pruning is a cheap early filter,
// not the final word — a box that is still Unknown may resolve either way
// once more features are pinned.
func (s *Set) Keep(b box.Box) bool {
	return s.Evaluate(b) != Violated
}
