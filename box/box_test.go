package box

import (
	"testing"

	"github.com/dtaikl/treeverify/interval"
)

func mk(pairs ...Pair) Box { return Box(pairs) }

func TestGetAbsentIsUniversal(t *testing.T) {
	b := mk(Pair{Feature: 2, Interval: interval.New(0, 1)})
	if !b.Get(0).IsUniversal() {
		t.Error("expected absent feature to read as universal")
	}
	if b.Get(2) != interval.New(0, 1) {
		t.Error("expected present feature to read back exactly")
	}
}

func TestOverlapsMissingDimensionIsUniversal(t *testing.T) {
	a := mk(Pair{Feature: 0, Interval: interval.New(0, 1)})
	b := mk(Pair{Feature: 1, Interval: interval.New(5, 6)})
	if !a.Overlaps(b) {
		t.Error("disjoint-feature boxes should always overlap")
	}
}

func TestOverlapsConflicting(t *testing.T) {
	a := mk(Pair{Feature: 0, Interval: interval.New(0, 1)})
	b := mk(Pair{Feature: 0, Interval: interval.New(2, 3)})
	if a.Overlaps(b) {
		t.Error("disjoint same-feature intervals should not overlap")
	}
}

func TestIntersectIdempotent(t *testing.T) {
	a := mk(
		Pair{Feature: 0, Interval: interval.New(0, 5)},
		Pair{Feature: 2, Interval: interval.New(-1, 1)},
	)
	got, ok := Intersect(nil, a, a)
	if !ok {
		t.Fatal("self-intersect should not be empty")
	}
	if len(got) != len(a) {
		t.Fatalf("got %d pairs, want %d", len(got), len(a))
	}
	for i := range a {
		if got[i] != a[i] {
			t.Errorf("pair %d: got %v want %v", i, got[i], a[i])
		}
	}
}

func TestIntersectCommutative(t *testing.T) {
	a := mk(Pair{Feature: 0, Interval: interval.New(-5, 5)})
	b := mk(Pair{Feature: 0, Interval: interval.New(-1, 3)}, Pair{Feature: 1, Interval: interval.New(0, 1)})
	ab, ok1 := Intersect(nil, a, b)
	ba, ok2 := Intersect(nil, b, a)
	if ok1 != ok2 {
		t.Fatalf("emptiness disagreement: %v vs %v", ok1, ok2)
	}
	if len(ab) != len(ba) {
		t.Fatalf("length mismatch: %d vs %d", len(ab), len(ba))
	}
	for _, p := range ab {
		if ba.Get(p.Feature) != p.Interval {
			t.Errorf("feature %d: ab=%v ba=%v", p.Feature, p.Interval, ba.Get(p.Feature))
		}
	}
}

func TestIntersectEmpty(t *testing.T) {
	a := mk(Pair{Feature: 0, Interval: interval.New(0, 1)})
	b := mk(Pair{Feature: 0, Interval: interval.New(1, 2)})
	got, ok := Intersect(nil, a, b)
	if ok {
		t.Error("expected empty intersection")
	}
	if len(got) != 0 {
		t.Error("expected cleared destination on empty intersection")
	}
}

func TestRefineWithInsertsSorted(t *testing.T) {
	dst := []Pair{{Feature: 0, Interval: interval.New(0, 10)}, {Feature: 5, Interval: interval.New(0, 10)}}
	dst, ok := RefineWith(dst, 2, interval.New(1, 2))
	if !ok {
		t.Fatal("unexpected empty refinement")
	}
	if len(dst) != 3 || dst[0].Feature != 0 || dst[1].Feature != 2 || dst[2].Feature != 5 {
		t.Errorf("pairs not sorted after insert: %v", dst)
	}
}

func TestValid(t *testing.T) {
	good := mk(Pair{Feature: 0, Interval: interval.New(0, 1)}, Pair{Feature: 1, Interval: interval.New(0, 1)})
	if !good.Valid() {
		t.Error("expected valid box to validate")
	}

	unsorted := mk(Pair{Feature: 1, Interval: interval.New(0, 1)}, Pair{Feature: 0, Interval: interval.New(0, 1)})
	if unsorted.Valid() {
		t.Error("expected unsorted box to be invalid")
	}

	universal := mk(Pair{Feature: 0, Interval: interval.Universal})
	if universal.Valid() {
		t.Error("expected box carrying a universal pair to be invalid")
	}
}
