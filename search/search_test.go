package search

import (
	"context"
	"math"
	"testing"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/ensemble"
	"github.com/dtaikl/treeverify/heuristic"
)

// buildStump returns a tree split on feature id at value 5, with the given
// left/right leaf values.
func buildStump(t *testing.T, feat box.FeatureID, left, right float64) *ensemble.Tree {
	b := ensemble.NewBuilder()
	l, r := b.SetSplit(0, feat, 5)
	b.SetLeaf(l, left)
	b.SetLeaf(r, right)
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func TestSearchFindsGlobalMaximum(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	t2 := buildStump(t, 1, -2.0, 4.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	s, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, nil, WithAutoEps(false), WithEps(1.0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	reason := s.Steps(context.Background(), 1000)
	if reason != StopNoMoreOpen {
		t.Fatalf("expected StopNoMoreOpen, got %v", reason)
	}
	if s.NumSolutions() == 0 {
		t.Fatal("expected at least one solution")
	}

	best, err := s.GetSolution(0)
	if err != nil {
		t.Fatal(err)
	}
	want := 0.5 + 3.0 + 4.0
	if math.Abs(best.Output-want) > 1e-9 {
		t.Errorf("best solution output = %v, want %v", best.Output, want)
	}
}

func TestSearchSolutionsSortedDescending(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	t2 := buildStump(t, 1, -2.0, 4.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, nil, WithAutoEps(false), WithEps(1.0))
	if err != nil {
		t.Fatal(err)
	}
	s.Steps(context.Background(), 1000)

	for i := 1; i < s.NumSolutions(); i++ {
		prev, _ := s.GetSolution(i - 1)
		cur, _ := s.GetSolution(i)
		if prev.Output < cur.Output {
			t.Errorf("solutions not sorted descending at %d: %v then %v", i, prev.Output, cur.Output)
		}
	}
}

func TestSearchRejectSolutionFilter(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, nil,
		WithAutoEps(false), WithEps(1.0), WithRejectSolutionWhenOutputLessThan(0))
	if err != nil {
		t.Fatal(err)
	}
	s.Steps(context.Background(), 1000)
	for i := 0; i < s.NumSolutions(); i++ {
		sol, _ := s.GetSolution(i)
		if sol.Output < 0 {
			t.Errorf("solution %d has output %v, should have been rejected", i, sol.Output)
		}
	}
}

func TestGetOutputForBoxRequiresUniqueLeafPerTree(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetOutputForBox(nil); err == nil {
		t.Error("expected error for unconstrained box selecting both leaves")
	}
}

func TestMinDistFeasibilityPrunesBelowThreshold(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	t2 := buildStump(t, 1, -2.0, 4.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	h := heuristic.MinDistToExample{
		X:            map[box.FeatureID]float64{0: 10, 1: 10},
		OutputThresh: 100,
	}
	s, err := New[heuristic.MinDistToExample](context.Background(), at, h, nil, WithAutoEps(false), WithEps(1.0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Steps(context.Background(), 1000)
	if s.NumSolutions() != 0 {
		t.Errorf("expected no solutions reachable above an unreachable threshold, got %d", s.NumSolutions())
	}
}

func TestMinDistFeasibilityAdmitsReachableThreshold(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	t2 := buildStump(t, 1, -2.0, 4.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	h := heuristic.MinDistToExample{
		X:            map[box.FeatureID]float64{0: 10, 1: 10},
		OutputThresh: 5,
	}
	s, err := New[heuristic.MinDistToExample](context.Background(), at, h, nil, WithAutoEps(false), WithEps(1.0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Steps(context.Background(), 1000)
	if s.NumSolutions() == 0 {
		t.Fatal("expected at least one solution above a reachable threshold")
	}
	for i := 0; i < s.NumSolutions(); i++ {
		sol, _ := s.GetSolution(i)
		if sol.Output < 5 {
			t.Errorf("solution %d has output %v below threshold 5", i, sol.Output)
		}
	}
}

func TestPickFocalAdmitsWithinEpsOfTop(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	t2 := buildStump(t, 1, -2.0, 4.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1, t2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, nil, WithAutoEps(false), WithEps(0.5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	topIdx, has := s.open.top()
	if !has {
		t.Fatal("expected a non-empty open list right after seeding")
	}
	topF := s.heuristic.OpenScore(s.eps.value, &s.states[topIdx].State)

	_, pos, ok := s.pickFocal()
	if !ok {
		t.Fatal("pickFocal returned no candidate")
	}
	pickedIdx := s.open.a[pos]
	pickedF := s.heuristic.OpenScore(s.eps.value, &s.states[pickedIdx].State)
	if pickedF < s.eps.value*topF {
		t.Errorf("picked state's open score %v is below the focal admission threshold %v", pickedF, s.eps.value*topF)
	}
}

func TestPruneByBoxFailsAfterFirstStep(t *testing.T) {
	t1 := buildStump(t, 0, -1.0, 3.0)
	at, err := ensemble.NewAddTree([]*ensemble.Tree{t1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New[heuristic.MaxOutput](context.Background(), at, heuristic.MaxOutput{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Step(context.Background())

	if err := s.PruneByBox(context.Background(), nil); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}
