package search

import (
	"container/heap"

	"github.com/dtaikl/treeverify/heuristic"
)

// openHeap is a container/heap.Interface over indices into Search.states,
// max-ordered by the heuristic's current-eps OpenScore, tie-broken by the
// heuristic's CompareOpen and finally by insertion order. Re-heapified
// (heap.Init) whenever eps changes, since OpenScore depends on it.
type openHeap[H heuristic.Heuristic] struct {
	s *Search[H]
	a []int
}

func (h *openHeap[H]) Len() int { return len(h.a) }

func (h *openHeap[H]) Less(i, j int) bool {
	si, sj := &h.s.states[h.a[i]], &h.s.states[h.a[j]]
	fi := h.s.heuristic.OpenScore(h.s.eps.value, &si.State)
	fj := h.s.heuristic.OpenScore(h.s.eps.value, &sj.State)
	if fi != fj {
		return fi > fj
	}
	if c := h.s.heuristic.CompareOpen(&si.State, &sj.State); c != 0 {
		return c > 0
	}
	return si.seq < sj.seq
}

func (h *openHeap[H]) Swap(i, j int) { h.a[i], h.a[j] = h.a[j], h.a[i] }

func (h *openHeap[H]) Push(x any) { h.a = append(h.a, x.(int)) }

func (h *openHeap[H]) Pop() any {
	n := len(h.a)
	v := h.a[n-1]
	h.a = h.a[:n-1]
	return v
}

func (h *openHeap[H]) top() (int, bool) {
	if len(h.a) == 0 {
		return 0, false
	}
	return h.a[0], true
}

func (h *openHeap[H]) reheapify() { heap.Init(h) }

// removeAt removes the heap element currently at array position pos.
func (h *openHeap[H]) removeAt(pos int) int { return heap.Remove(h, pos).(int) }

func (h *openHeap[H]) push(stateIdx int) { heap.Push(h, stateIdx) }
