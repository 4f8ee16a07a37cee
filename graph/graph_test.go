package graph

import (
	"context"
	"math"
	"testing"

	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/ensemble"
)

// buildTree constructs a single split on feature 0 at 5, with leaves -1.0
// (left, x<5) and 1.0 (right, x>=5).
func buildTree(t *testing.T) *ensemble.Tree {
	b := ensemble.NewBuilder()
	left, right := b.SetSplit(0, 0, 5)
	b.SetLeaf(left, -1.0)
	b.SetLeaf(right, 1.0)
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func newStore(t *testing.T) *boxstore.Store {
	s, err := boxstore.New(8192, nil)
	if err != nil {
		t.Fatalf("boxstore.New: %v", err)
	}
	t.Cleanup(s.Free)
	return s
}

func TestBuildTwoTreeGraph(t *testing.T) {
	store := newStore(t)
	t1 := buildTree(t)
	t2 := buildTree(t)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	if err != nil {
		t.Fatal(err)
	}

	g, err := Build(context.Background(), at, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NumSets() != 2 {
		t.Fatalf("expected 2 independent sets, got %d", g.NumSets())
	}
	for si, set := range g.Sets {
		if len(set.Vertices) != 2 {
			t.Errorf("set %d: expected 2 vertices, got %d", si, len(set.Vertices))
		}
	}
}

func TestBuildPrependsBaseScoreSingleton(t *testing.T) {
	store := newStore(t)
	t1 := buildTree(t)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1}, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	g, err := Build(context.Background(), at, store)
	if err != nil {
		t.Fatal(err)
	}
	if g.NumSets() != 2 {
		t.Fatalf("expected base-score set + 1 tree set, got %d", g.NumSets())
	}
	if len(g.Sets[0].Vertices) != 1 || g.Sets[0].Vertices[0].Output != 2.5 {
		t.Errorf("expected singleton base-score vertex, got %+v", g.Sets[0])
	}
}

func TestPropagateBoundsAllCompatible(t *testing.T) {
	store := newStore(t)
	t1 := buildTree(t)
	t2 := buildTree(t)
	at, _ := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	g, err := Build(context.Background(), at, store)
	if err != nil {
		t.Fatal(err)
	}
	g.PropagateBounds()

	lo, hi, feasible := g.OverallBounds()
	if !feasible {
		t.Fatal("expected feasible problem")
	}
	// Both trees split feature 0 at the same value, so a vertex overlaps only
	// the other tree's vertex on the same side of the split: achievable
	// totals are -2 and 2.
	if lo != -2 || hi != 2 {
		t.Errorf("expected bounds [-2,2], got [%v,%v]", lo, hi)
	}
}

func TestPropagateBoundsInfeasibleWhenPruned(t *testing.T) {
	store := newStore(t)
	t1 := buildTree(t)
	t2 := buildTree(t)
	at, _ := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	g, err := Build(context.Background(), at, store)
	if err != nil {
		t.Fatal(err)
	}

	// Empty the second set entirely: every vertex in the first set now has
	// no box-compatible successor at all.
	g.Sets[1].Vertices = nil

	g.PropagateBounds()
	_, _, feasible := g.OverallBounds()
	if feasible {
		t.Error("expected infeasible problem after incompatible pruning")
	}
}

func TestSortByOutputDescending(t *testing.T) {
	store := newStore(t)
	t1 := buildTree(t)
	at, _ := ensemble.NewAddTree([]*ensemble.Tree{t1}, 0)
	g, err := Build(context.Background(), at, store)
	if err != nil {
		t.Fatal(err)
	}
	g.SortByOutput(false)
	vs := g.Sets[0].Vertices
	for i := 1; i < len(vs); i++ {
		if vs[i-1].Output < vs[i].Output {
			t.Errorf("not sorted descending: %v", vs)
		}
	}
}

func TestMergeKCombinesPairwise(t *testing.T) {
	store := newStore(t)
	t1 := buildTree(t)
	t2 := buildTree(t)
	at, _ := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	g, err := Build(context.Background(), at, store)
	if err != nil {
		t.Fatal(err)
	}

	merged, err := g.MergeK(context.Background(), 2)
	if err != nil {
		t.Fatalf("MergeK: %v", err)
	}
	if merged.NumSets() != 1 {
		t.Fatalf("expected 1 merged set, got %d", merged.NumSets())
	}
	if len(merged.Sets[0].Vertices) != 2 {
		t.Errorf("expected 2 overlapping-pair vertices, got %d", len(merged.Sets[0].Vertices))
	}
	for _, v := range merged.Sets[0].Vertices {
		if math.Abs(v.Output) != 0 && math.Abs(v.Output) != 2 {
			t.Errorf("unexpected merged output %v", v.Output)
		}
	}
}
