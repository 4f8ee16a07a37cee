package search

import (
	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/heuristic"
)

// state is one partial clique: a materialized box, the heuristic's scoring
// fields, and enough bookkeeping to reconstruct provenance and break open
// list ties deterministically.
type state struct {
	heuristic.State
	ref    boxstore.BoxRef
	parent int // index into Search.states, -1 for the synthetic root
	seq    uint64
}
