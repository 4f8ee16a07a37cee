package constraints

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/graph"
)

// Prune evaluates every vertex in set against s, removes the violated ones
// from set.Vertices in place, and returns a bitmap of their indices in the
// original vertex order (for callers — e.g.
// a redistribution handshake — that want to report what got dropped without
// re-scanning). Large one-hot feature groups evaluated across a wide set
// make per-vertex violated/active bookkeeping worth tracking as a bitmap
// rather than rescanning box pairs per constraint.
func (s *Set) Prune(store *boxstore.Store, set *graph.IndependentSet) *roaring.Bitmap {
	violated := roaring.New()
	vs := set.Vertices
	out := vs[:0]
	for i, v := range vs {
		b := store.Get(v.Box)
		if s.Evaluate(b) == Violated {
			violated.Add(uint32(i)) //nolint:gosec
			continue
		}
		out = append(out, v)
	}
	set.Vertices = out
	return violated
}
