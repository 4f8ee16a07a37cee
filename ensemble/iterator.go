package ensemble

import "github.com/dtaikl/treeverify/box"

// LeafIterator walks a Tree depth-first, yielding every leaf whose
// root-to-leaf path is consistent with a constraint box: at an internal
// node split on (f, v), the right subtree is descended iff C[f].hi >= v,
// and the left subtree iff C[f].lo < v. A feature absent from the
// constraint box is universal, so both branches are always viable for it.
//
// The stack is reused across Reset calls so a caller doing one iterator per
// independent-set build avoids per-call allocation.
type LeafIterator struct {
	tree  *Tree
	box   box.Box
	stack []NodeID
}

// Reset rewinds the iterator to walk t constrained by c. c may be nil/empty
// for the universal box.
func (it *LeafIterator) Reset(t *Tree, c box.Box) {
	it.tree = t
	it.box = c
	it.stack = append(it.stack[:0], t.RootID())
}

// Next returns the next reachable leaf id, or (0, false) once exhausted.
func (it *LeafIterator) Next() (NodeID, bool) {
	for len(it.stack) > 0 {
		id := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if it.tree.IsLeaf(id) {
			return id, true
		}

		f, v := it.tree.Split(id)
		d := it.box.Get(f)
		if d.Hi >= v {
			it.stack = append(it.stack, it.tree.Right(id))
		}
		if d.Lo < v {
			it.stack = append(it.stack, it.tree.Left(id))
		}
	}
	return 0, false
}

// CountReachableLeaves drains a fresh iterator over t constrained by c,
// returning how many leaves are reachable. Used by ensemble-size bookkeeping
// and tests; not on the search hot path.
func CountReachableLeaves(t *Tree, c box.Box) int {
	var it LeafIterator
	it.Reset(t, c)
	n := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		n++
	}
	return n
}
