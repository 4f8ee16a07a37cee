package ensemble

import "errors"

// Sentinel errors for malformed-input construction failures.
var (
	// ErrEmptyEnsemble is returned when a Tree has no nodes. A zero-tree
	// AddTree is not an error: it is the constant function BaseScore.
	ErrEmptyEnsemble = errors.New("ensemble: empty tree")

	// ErrNonBinaryNode is returned when an internal node's children are
	// missing or out of range.
	ErrNonBinaryNode = errors.New("ensemble: internal node does not have exactly two children")

	// ErrCyclicTree is returned when a node graph contains a cycle.
	ErrCyclicTree = errors.New("ensemble: tree contains a cycle")
)
