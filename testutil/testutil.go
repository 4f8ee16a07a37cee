// Package testutil provides deterministic random fixtures for exercising
// the ensemble/graph/search packages in tests, grounded on the reference
// RNG wrapper (a thread-safe *rand.Rand with a remembered seed for
// Reset).
package testutil

import (
	"math/rand"
	"sync"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/ensemble"
)

// RNG encapsulates a seeded random source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed)), seed: seed}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FloatRange returns a pseudo-random number in [lo,hi).
func (r *RNG) FloatRange(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// RandomTree grows a random binary decision tree by repeatedly splitting a
// random leaf, up to maxDepth levels, splitting on a random feature in
// [0,numFeatures) at a random threshold in [0,100) and assigning each final
// leaf a random value in [-1,1).
func (r *RNG) RandomTree(numFeatures, maxDepth int) *ensemble.Tree {
	b := ensemble.NewBuilder()
	type pending struct {
		id    ensemble.NodeID
		depth int
	}
	stack := []pending{{id: 0, depth: 0}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.depth >= maxDepth || r.Float64() < 0.3 {
			b.SetLeaf(p.id, r.FloatRange(-1, 1))
			continue
		}

		feat := box.FeatureID(r.Intn(numFeatures))
		value := r.FloatRange(0, 100)
		left, right := b.SetSplit(p.id, feat, value)
		stack = append(stack, pending{id: left, depth: p.depth + 1}, pending{id: right, depth: p.depth + 1})
	}
	tree, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tree
}

// RandomAddTree builds an ensemble of numTrees random trees over
// numFeatures features, plus a random base score in [-1,1).
func (r *RNG) RandomAddTree(numTrees, numFeatures, maxDepth int) *ensemble.AddTree {
	trees := make([]*ensemble.Tree, numTrees)
	for i := range trees {
		trees[i] = r.RandomTree(numFeatures, maxDepth)
	}
	at, err := ensemble.NewAddTree(trees, r.FloatRange(-1, 1))
	if err != nil {
		panic(err)
	}
	return at
}

// RandomRow returns a feature-value lookup over [0,numFeatures) with values
// in [0,100), suitable for ensemble.AddTree.Eval.
func (r *RNG) RandomRow(numFeatures int) func(box.FeatureID) (float64, bool) {
	values := make([]float64, numFeatures)
	for i := range values {
		values[i] = r.FloatRange(0, 100)
	}
	return func(f box.FeatureID) (float64, bool) {
		if int(f) < 0 || int(f) >= len(values) {
			return 0, false
		}
		return values[f], true
	}
}
