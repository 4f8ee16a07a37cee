// Package graph builds and manipulates the k-partite graph of tree leaves:
// one IndependentSet per tree (plus an optional base-score singleton),
// where a solution is a clique of mutually box-compatible vertices, one per
// set.
package graph

import (
	"context"
	"fmt"
	"math"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/ensemble"
)

// Vertex is one leaf candidate: its box, its standalone output, and (after
// PropagateBounds) the tightest admissible bounds on the best completion
// reachable by choosing it.
type Vertex struct {
	Box       boxstore.BoxRef
	Output    float64
	MinBound  float64
	MaxBound  float64
	TreeIndex int // -1 for the synthetic base-score vertex or a merged vertex
	NodeID    ensemble.NodeID
}

// IndependentSet is one partite class of the graph: vertices that are
// mutually exclusive (a solution picks exactly one).
type IndependentSet struct {
	Vertices []Vertex
}

// Graph is the full k-partite graph, ordered tree-0-first (with an optional
// leading base-score singleton).
type Graph struct {
	Sets  []IndependentSet
	store *boxstore.Store
}

// NumSets returns len(Sets).
func (g *Graph) NumSets() int { return len(g.Sets) }

// Store returns the backing box store used to materialize vertex boxes.
func (g *Graph) Store() *boxstore.Store { return g.store }

// Build constructs the k-partite graph for an ensemble: one independent set
// per tree, produced by DFS-order leaf iteration over that tree's
// precomputed leaf boxes, optionally preceded by a singleton base-score set.
func Build(ctx context.Context, at *ensemble.AddTree, store *boxstore.Store) (*Graph, error) {
	g := &Graph{store: store}

	if at.BaseScore != 0 {
		g.Sets = append(g.Sets, IndependentSet{
			Vertices: []Vertex{{Box: boxstore.Null, Output: at.BaseScore, TreeIndex: -1}},
		})
	}

	for ti, tree := range at.Trees {
		refs, err := ensemble.PrecomputeLeafBoxes(ctx, tree, store)
		if err != nil {
			return nil, fmt.Errorf("graph: build: tree %d: %w", ti, err)
		}

		var it ensemble.LeafIterator
		it.Reset(tree, nil)

		var set IndependentSet
		for {
			id, ok := it.Next()
			if !ok {
				break
			}
			set.Vertices = append(set.Vertices, Vertex{
				Box:       refs[id],
				Output:    tree.LeafValue(id),
				TreeIndex: ti,
				NodeID:    id,
			})
		}
		g.Sets = append(g.Sets, set)
	}

	return g, nil
}

// PruneByBox intersects every vertex's box with B, dropping vertices whose
// intersection is empty and replacing survivors' boxes with the intersected
// box. Legal only before the first search step.
func (g *Graph) PruneByBox(ctx context.Context, b box.Box) error {
	var scratch []box.Pair
	for si := range g.Sets {
		vs := g.Sets[si].Vertices
		out := vs[:0]
		for _, v := range vs {
			merged, ok := box.Intersect(scratch[:0], g.store.Get(v.Box), b)
			scratch = merged
			if !ok {
				continue
			}
			ref, err := g.store.PushPairs(ctx, merged)
			if err != nil {
				return fmt.Errorf("graph: prune by box: %w", err)
			}
			v.Box = ref
			out = append(out, v)
		}
		g.Sets[si].Vertices = out
	}
	return nil
}

// PropagateBounds runs the last-set-to-first dynamic program: for every
// vertex, the tightest admissible [min,max] bounds on the best completion
// assuming that vertex is chosen. A vertex with no box-compatible successor
// ends up with MinBound = +Inf, MaxBound = -Inf, marking it infeasible.
func (g *Graph) PropagateBounds() {
	n := len(g.Sets)
	if n == 0 {
		return
	}

	last := g.Sets[n-1].Vertices
	for i := range last {
		last[i].MinBound = last[i].Output
		last[i].MaxBound = last[i].Output
	}

	for i := n - 2; i >= 0; i-- {
		cur := g.Sets[i].Vertices
		next := g.Sets[i+1].Vertices
		for vi := range cur {
			v := &cur[vi]
			vBox := g.store.Get(v.Box)

			aggMin, aggMax := math.Inf(1), math.Inf(-1)
			for wi := range next {
				w := &next[wi]
				if !vBox.Overlaps(g.store.Get(w.Box)) {
					continue
				}
				if w.MinBound < aggMin {
					aggMin = w.MinBound
				}
				if w.MaxBound > aggMax {
					aggMax = w.MaxBound
				}
			}
			v.MinBound = v.Output + aggMin
			v.MaxBound = v.Output + aggMax
		}
	}
}

// OverallBounds reduces over the first set: lo is the smallest MinBound and
// hi the largest MaxBound among vertices with a feasible (non -Inf) bound.
// feasible is false iff every vertex in the first set is infeasible, in
// which case the ensemble admits no consistent choice under the graph's
// current constraints (an infeasible problem).
func (g *Graph) OverallBounds() (lo, hi float64, feasible bool) {
	if len(g.Sets) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.Sets[0].Vertices {
		if v.MaxBound == math.Inf(-1) {
			continue
		}
		feasible = true
		if v.MinBound < lo {
			lo = v.MinBound
		}
		if v.MaxBound > hi {
			hi = v.MaxBound
		}
	}
	if !feasible {
		return math.Inf(1), math.Inf(-1), false
	}
	return lo, hi, true
}
