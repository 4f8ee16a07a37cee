package ensemble

import (
	"fmt"

	"github.com/dtaikl/treeverify/box"
)

// AddTree is an ordered sequence of trees plus a base score: the ensemble's
// output on a row is BaseScore + Σ tree(row).
type AddTree struct {
	Trees     []*Tree
	BaseScore float64
}

// NewAddTree wraps trees with a base score. Zero trees is a legal ensemble
// (the constant function BaseScore, with one trivial solution and
// current_bounds reporting (BaseScore, BaseScore, BaseScore)) — ErrEmptyEnsemble
// is reserved for a tree with no nodes, which NewTree itself rejects.
func NewAddTree(trees []*Tree, baseScore float64) (*AddTree, error) {
	return &AddTree{Trees: trees, BaseScore: baseScore}, nil
}

// NumTrees returns the number of trees in the ensemble.
func (a *AddTree) NumTrees() int { return len(a.Trees) }

// Eval walks every tree with row (a feature-id -> value lookup) and sums
// base score plus each tree's reached leaf value. Used by tests and by
// callers validating a found solution's true output against the graph's
// propagated bound.
func (a *AddTree) Eval(row func(box.FeatureID) (float64, bool)) float64 {
	out := a.BaseScore
	for _, t := range a.Trees {
		out += t.eval(row)
	}
	return out
}

func (t *Tree) eval(row func(box.FeatureID) (float64, bool)) float64 {
	id := t.RootID()
	for !t.IsLeaf(id) {
		f, v := t.Split(id)
		x, ok := row(f)
		if !ok {
			// Unconstrained/unknown feature value: the original's DFS
			// convention treats a missing domain as universal, which
			// for a single concrete row has no single branch — callers
			// evaluating a concrete row are expected to supply every
			// feature the ensemble splits on.
			panic(fmt.Sprintf("ensemble: eval: missing value for feature %d", f))
		}
		if x < v {
			id = t.Left(id)
		} else {
			id = t.Right(id)
		}
	}
	return t.LeafValue(id)
}
