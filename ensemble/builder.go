package ensemble

import "github.com/dtaikl/treeverify/box"

// Builder assembles a Tree node-by-node, assigning dense ids in insertion
// order and wiring Parent/IsLeftOf automatically. This mirrors how the
// exporters that feed this package construct a tree bottom-up from a
// trained model's node list.
type Builder struct {
	nodes []Node
}

// NewBuilder returns a Builder with a single, unfinished root placeholder.
func NewBuilder() *Builder {
	return &Builder{nodes: []Node{{Parent: noChild}}}
}

// SetLeaf turns id into a leaf with the given value.
func (b *Builder) SetLeaf(id NodeID, value float64) {
	n := &b.nodes[id]
	n.leaf = true
	n.LeafValue = value
	n.Left, n.Right = noChild, noChild
}

// SetSplit turns id into an internal node on (feature, value) and allocates
// its two children, returning their freshly assigned ids.
func (b *Builder) SetSplit(id NodeID, feature box.FeatureID, value float64) (left, right NodeID) {
	n := &b.nodes[id]
	n.leaf = false
	n.Feature = feature
	n.SplitValue = value

	left = NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{Parent: id, IsLeftOf: true})
	right = NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{Parent: id, IsLeftOf: false})

	n.Left, n.Right = left, right
	return left, right
}

// Build finalizes and validates the tree.
func (b *Builder) Build() (*Tree, error) {
	return NewTree(b.nodes)
}
