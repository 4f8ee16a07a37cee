package graph

import (
	"context"
	"fmt"

	"github.com/dtaikl/treeverify/boxstore"
)

// MergeK combines every K consecutive independent sets into one via the
// Cartesian product restricted to box-overlapping pairs: a combined vertex
// carries the intersected box and summed output. Trades graph width (fewer,
// larger sets) against per-step combination work in the search engine.
// Call before PropagateBounds: merging after would let a wider
// propagation over the unmerged sets undo the bound tightening the merge
// itself produces.
func (g *Graph) MergeK(ctx context.Context, k int) (*Graph, error) {
	if k <= 1 {
		return g, nil
	}

	merged := &Graph{store: g.store}
	for i := 0; i < len(g.Sets); i += k {
		end := i + k
		if end > len(g.Sets) {
			end = len(g.Sets)
		}
		set, err := mergeConsecutive(ctx, g.store, g.Sets[i:end])
		if err != nil {
			return nil, fmt.Errorf("graph: merge sets [%d:%d]: %w", i, end, err)
		}
		merged.Sets = append(merged.Sets, set)
	}
	return merged, nil
}

// mergeConsecutive pairwise-reduces sets left to right: acc starts as
// sets[0], then each subsequent set is combined in via overlap-restricted
// Cartesian product.
func mergeConsecutive(ctx context.Context, store *boxstore.Store, sets []IndependentSet) (IndependentSet, error) {
	acc := sets[0]
	for _, next := range sets[1:] {
		var combined IndependentSet
		for _, v := range acc.Vertices {
			vBox := store.Get(v.Box)
			for _, w := range next.Vertices {
				if !vBox.Overlaps(store.Get(w.Box)) {
					continue
				}
				ref, ok, err := store.CombineAndPush(ctx, v.Box, w.Box)
				if err != nil {
					return IndependentSet{}, err
				}
				if !ok {
					continue
				}
				combined.Vertices = append(combined.Vertices, Vertex{
					Box:       ref,
					Output:    v.Output + w.Output,
					TreeIndex: -1,
				})
			}
		}
		acc = combined
	}
	return acc, nil
}
