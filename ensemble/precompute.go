package ensemble

import (
	"context"
	"fmt"
	"math"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/interval"
)

func lowerThan(v float64) interval.Interval { return interval.New(math.Inf(-1), v) }
func atLeast(v float64) interval.Interval   { return interval.New(v, math.Inf(1)) }

// frame is one entry of the explicit DFS stack used by PrecomputeLeafBoxes.
// path holds the intersection of every split constraint from the root down
// to (and not including) node — each child frame's path is derived from its
// parent's by refining in exactly one more split, never mutating the
// parent's slice, so sibling subtrees never alias each other's boxes.
type frame struct {
	node NodeID
	path box.Box
}

// PrecomputeLeafBoxes walks t from the root with an explicit stack (no
// recursion, so no node ever owns another node's path box) and commits each
// leaf's root-to-leaf path box to store. The returned slice is indexed by
// NodeID; internal-node entries are boxstore.Null.
func PrecomputeLeafBoxes(ctx context.Context, t *Tree, store *boxstore.Store) ([]boxstore.BoxRef, error) {
	refs := make([]boxstore.BoxRef, t.NumNodes())

	stack := []frame{{node: t.RootID(), path: nil}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.IsLeaf(f.node) {
			ref, err := store.PushPairs(ctx, f.path)
			if err != nil {
				return nil, fmt.Errorf("ensemble: precompute leaf %d: %w", f.node, err)
			}
			refs[f.node] = ref
			continue
		}

		feat, val := t.Split(f.node)

		leftPath, leftOK := refinePath(f.path, feat, lowerThan(val))
		if leftOK {
			stack = append(stack, frame{node: t.Left(f.node), path: leftPath})
		}
		rightPath, rightOK := refinePath(f.path, feat, atLeast(val))
		if rightOK {
			stack = append(stack, frame{node: t.Right(f.node), path: rightPath})
		}
	}

	return refs, nil
}

// refinePath returns a fresh copy of parent with (feat, c) folded in,
// leaving parent itself untouched.
func refinePath(parent box.Box, feat box.FeatureID, c interval.Interval) (box.Box, bool) {
	dst := make([]box.Pair, len(parent), len(parent)+1)
	copy(dst, parent)
	refined, ok := box.RefineWith(dst, feat, c)
	return box.Box(refined), ok
}
