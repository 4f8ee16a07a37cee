package treeverify

import (
	"context"
	"testing"
	"time"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/ensemble"
	"github.com/dtaikl/treeverify/heuristic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStump(t *testing.T, feat box.FeatureID, left, right float64) *ensemble.Tree {
	b := ensemble.NewBuilder()
	l, r := b.SetSplit(0, feat, 5)
	b.SetLeaf(l, left)
	b.SetLeaf(r, right)
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func twoTreeEnsemble(t *testing.T) *ensemble.AddTree {
	t1 := buildStump(t, 0, -1.0, 3.0)
	t2 := buildStump(t, 1, -2.0, 4.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0.5)
	require.NoError(t, err)
	return at
}

func TestNewSingleSessionFindsOptimum(t *testing.T) {
	at := twoTreeEnsemble(t)
	metrics := &BasicMetricsCollector{}

	sess, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer sess.Close()

	assert.False(t, sess.Pooled())

	sess.StepFor(context.Background(), time.Second, 1000)
	require.Greater(t, sess.NumSolutions(), 0)

	best, ok := sess.BestSolution()
	require.True(t, ok)
	assert.InDelta(t, 0.5+3.0+4.0, best.Output, 1e-9)

	stats := metrics.GetStats()
	assert.Greater(t, stats.StepCount, int64(0))
	assert.Greater(t, stats.SolutionCount, int64(0))
}

func TestNewPooledSessionFindsOptimum(t *testing.T) {
	at := twoTreeEnsemble(t)

	sess, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, WithWorkerCount(2))
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, sess.Pooled())

	sess.StepFor(context.Background(), time.Second, 1000)

	best, ok := sess.BestSolution()
	require.True(t, ok)
	assert.InDelta(t, 0.5+3.0+4.0, best.Output, 1e-9)
}

func TestSessionZeroTreeEnsembleIsConstantBaseScore(t *testing.T) {
	at, err := ensemble.NewAddTree(nil, 5.0)
	require.NoError(t, err)

	sess, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{})
	require.NoError(t, err)
	defer sess.Close()

	sess.StepFor(context.Background(), time.Second, 1000)

	lo, hi := sess.CurrentBounds()
	assert.InDelta(t, 5.0, lo, 1e-9)
	assert.InDelta(t, 5.0, hi, 1e-9)

	require.Equal(t, 1, sess.NumSolutions())
	best, ok := sess.BestSolution()
	require.True(t, ok)
	assert.InDelta(t, 5.0, best.Output, 1e-9)
}

func TestSessionCurrentBoundsConverge(t *testing.T) {
	at := twoTreeEnsemble(t)

	sess, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, WithSearchOptions())
	require.NoError(t, err)
	defer sess.Close()

	sess.StepFor(context.Background(), time.Second, 1000)

	lo, hi := sess.CurrentBounds()
	assert.InDelta(t, lo, hi, 1e-9)
}
