// Package search implements a best-first engine over partial cliques in a
// k-partite graph: an open/focal list, ARA*-style adaptive epsilon, and
// pluggable heuristics.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/constraints"
	"github.com/dtaikl/treeverify/ensemble"
	"github.com/dtaikl/treeverify/graph"
	"github.com/dtaikl/treeverify/heuristic"
	"github.com/dtaikl/treeverify/internal/arena"
	"github.com/dtaikl/treeverify/persistence/codec"
	"github.com/dtaikl/treeverify/resource"
	"github.com/google/uuid"
)

// defaultChunkBytes is the box store arena's growth unit; unrelated to the
// overall memory ceiling, which is enforced by the MemoryAcquirer.
const defaultChunkBytes = 1 << 20

// Search runs one single-threaded best-first session over an ensemble's
// k-partite graph under heuristic H.
type Search[H heuristic.Heuristic] struct {
	at        *ensemble.AddTree
	graph     *graph.Graph
	store     *boxstore.Store
	heuristic H
	opts      options
	sessionID string

	states []state
	open   *openHeap[H]

	solutions []Solution
	snapshots []Snapshot

	numSteps        int
	numNewSolutions int
	started         bool
	stopReason      StopReason

	eps       *epsController
	startTime time.Time
	seqNext   uint64
}

// New builds the k-partite graph for at, seeds the initial open list from
// its first independent set, and runs bound propagation once up front.
func New[H heuristic.Heuristic](ctx context.Context, at *ensemble.AddTree, h H, acquirer arena.MemoryAcquirer, opts ...Option) (*Search[H], error) {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	o.eps = clampEps(o.eps)

	if acquirer == nil && o.memCapacity > 0 {
		acquirer = resource.NewController(resource.Config{MemoryLimitBytes: o.memCapacity})
	}

	store, err := boxstore.New(defaultChunkBytes, acquirer)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	g, err := graph.Build(ctx, at, store)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if o.constraints != nil {
		for i := range g.Sets {
			o.constraints.Prune(store, &g.Sets[i])
		}
	}
	g.PropagateBounds()

	s := &Search[H]{
		at:        at,
		graph:     g,
		store:     store,
		heuristic: h,
		opts:      o,
		sessionID: uuid.New().String(),
		eps:       newEpsController(o.eps, o.autoEps),
		startTime: time.Now(),
	}
	s.open = &openHeap[H]{s: s}
	s.seedOpen()
	return s, nil
}

func clampEps(eps float64) float64 {
	if eps < 0.5 {
		return 0.5
	}
	if eps > 1.0 {
		return 1.0
	}
	return eps
}

// NumSets implements heuristic.Engine.
func (s *Search[H]) NumSets() int { return s.graph.NumSets() }

// MaxCompatibleOutput implements heuristic.Engine by scanning tree ti's
// independent set for the best output compatible with b.
func (s *Search[H]) MaxCompatibleOutput(ti int, b box.Box) (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, w := range s.graph.Sets[ti].Vertices {
		if !b.Overlaps(s.store.Get(w.Box)) {
			continue
		}
		found = true
		if w.Output > best {
			best = w.Output
		}
	}
	return best, found
}

func (s *Search[H]) seedOpen() {
	s.states = s.states[:0]
	s.open.a = s.open.a[:0]

	if s.graph.NumSets() == 0 {
		return
	}
	root := heuristic.State{IndepSet: -1, Box: box.Empty}
	for _, v := range s.graph.Sets[0].Vertices {
		st := state{ref: v.Box, parent: -1, seq: s.nextSeq()}
		st.State.IndepSet = 0
		st.State.Box = s.store.Get(v.Box)
		s.heuristic.Update(s, &st.State, &root, v.Output)
		if !s.heuristic.Feasible(&st.State) {
			continue
		}
		s.states = append(s.states, st)
		s.open.push(len(s.states) - 1)
	}
}

func (s *Search[H]) nextSeq() uint64 { s.seqNext++; return s.seqNext }

// Step advances the search by one expansion, returning StopNone unless a
// terminal condition was reached.
func (s *Search[H]) Step(ctx context.Context) StopReason {
	s.started = true
	if s.stopReason != StopNone {
		return s.stopReason
	}

	popIdx, pos, ok := s.pickFocal()
	if !ok {
		s.stopReason = StopNoMoreOpen
		s.opts.logger.LogStep(ctx, s.numSteps, s.stopReason.String(), nil)
		return s.stopReason
	}
	s.open.removeAt(pos)

	cur := s.states[popIdx]
	if cur.IndepSet == s.graph.NumSets()-1 {
		s.emitSolution(ctx, cur)
		s.numSteps++
		s.opts.metrics.RecordStep(false)
		s.stopReason = s.checkStopConditions()
		s.opts.logger.LogStep(ctx, s.numSteps, s.stopReason.String(), nil)
		return s.stopReason
	}

	if err := s.expand(ctx, popIdx, cur); err != nil {
		s.stopReason = StopMemoryCeiling
		s.opts.metrics.RecordStep(true)
		s.opts.logger.LogStep(ctx, s.numSteps, s.stopReason.String(), err)
		return s.stopReason
	}

	s.numSteps++
	s.opts.metrics.RecordStep(false)
	s.stopReason = s.checkStopConditions()
	s.opts.logger.LogStep(ctx, s.numSteps, s.stopReason.String(), nil)
	return s.stopReason
}

func (s *Search[H]) expand(ctx context.Context, parentIdx int, cur state) error {
	nextSet := cur.IndepSet + 1
	for _, v := range s.graph.Sets[nextSet].Vertices {
		wBox := s.store.Get(v.Box)
		if !cur.Box.Overlaps(wBox) {
			continue
		}
		mergedRef, ok, err := s.store.CombineAndPush(ctx, cur.ref, v.Box)
		if err != nil {
			return translateError(s.numSteps, err)
		}
		if !ok {
			continue
		}

		child := state{ref: mergedRef, parent: parentIdx, seq: s.nextSeq()}
		child.State.IndepSet = nextSet
		child.State.Box = s.store.Get(mergedRef)
		s.heuristic.Update(s, &child.State, &cur.State, v.Output)

		if !s.heuristic.Feasible(&child.State) {
			continue
		}
		if s.opts.constraints != nil && s.opts.constraints.Evaluate(child.State.Box) == constraints.Violated {
			continue
		}

		s.states = append(s.states, child)
		s.open.push(len(s.states) - 1)
	}
	return nil
}

// emitSolution records cur as a solution. cur.G is already the fully
// accumulated output: the synthetic base-score vertex (if any) is the first
// independent set, so it contributes to G like any other chosen leaf.
// A completed state that fails the heuristic's feasibility test (e.g. a
// robustness query whose reachable score never cleared the threshold) is
// dropped silently rather than recorded.
func (s *Search[H]) emitSolution(ctx context.Context, cur state) {
	if !s.heuristic.Feasible(&cur.State) {
		return
	}

	sol := Solution{
		Time:   time.Since(s.startTime),
		Eps:    s.eps.value,
		Output: cur.G,
		Box:    cur.Box,
	}

	if s.opts.rejectSolutionWhenOutputLessThan != nil && sol.Output < *s.opts.rejectSolutionWhenOutputLessThan {
		return
	}
	s.opts.metrics.RecordSolution()

	i := sort.Search(len(s.solutions), func(i int) bool { return s.solutions[i].Output <= sol.Output })
	s.solutions = append(s.solutions, Solution{})
	copy(s.solutions[i+1:], s.solutions[i:])
	s.solutions[i] = sol
	s.opts.logger.LogSolution(ctx, i, sol.Output, sol.Eps)

	s.numNewSolutions++
	if s.eps.onSolutionEmitted(time.Now()) {
		s.open.reheapify()
	}
}

func (s *Search[H]) checkStopConditions() StopReason {
	if s.eps.maybeDecrease(time.Now()) {
		s.open.reheapify()
	}

	lo, hi, _ := s.CurrentBounds()

	if s.opts.stopWhenNumSolutionsExceeds > 0 && len(s.solutions) > s.opts.stopWhenNumSolutionsExceeds {
		return StopNumSolutionsExceeded
	}
	if s.opts.stopWhenNumNewSolutionsExceeds > 0 && s.numNewSolutions > s.opts.stopWhenNumNewSolutionsExceeds {
		return StopNumNewSolutionsExceeded
	}
	if s.opts.stopWhenLowerGreaterThan != nil && lo > *s.opts.stopWhenLowerGreaterThan {
		return StopLowerGreaterThan
	}
	if s.opts.stopWhenUpperLessThan != nil && hi < *s.opts.stopWhenUpperLessThan {
		return StopUpperLessThan
	}
	if s.opts.stopWhenOptimal && s.eps.value == 1.0 && lo == hi && len(s.solutions) > 0 {
		return StopOptimal
	}
	if s.open.Len() == 0 {
		return StopNoMoreOpen
	}
	return StopNone
}

// pickFocal scans up to MaxFocalSize raw heap-array entries for states
// meeting the focal admission threshold f(s) >= eps*f(top) (within a factor
// 1/eps of the best open score), and returns the one with the best focal
// score.
func (s *Search[H]) pickFocal() (stateIdx, arrayPos int, ok bool) {
	topIdx, has := s.open.top()
	if !has {
		return 0, 0, false
	}
	topF := s.heuristic.OpenScore(s.eps.value, &s.states[topIdx].State)
	threshold := s.eps.value * topF

	bestPos, bestScore := 0, math.Inf(-1)
	found := false
	n := len(s.open.a)
	if s.opts.maxFocalSize > 0 && s.opts.maxFocalSize < n {
		n = s.opts.maxFocalSize
	}
	for i := 0; i < n; i++ {
		idx := s.open.a[i]
		f := s.heuristic.OpenScore(s.eps.value, &s.states[idx].State)
		if f < threshold {
			continue
		}
		fs := s.heuristic.FocalScore(&s.states[idx].State)
		if !found || fs > bestScore {
			found = true
			bestScore = fs
			bestPos = i
		}
	}
	if !found {
		bestPos = 0
	}
	return s.open.a[bestPos], bestPos, true
}

// Steps runs up to n successful steps, stopping early on any non-None
// reason, and appends one Snapshot afterward.
func (s *Search[H]) Steps(ctx context.Context, n int) StopReason {
	reason := StopNone
	for i := 0; i < n; i++ {
		reason = s.Step(ctx)
		if reason != StopNone {
			break
		}
	}
	s.appendSnapshot()
	return reason
}

// StepFor runs steps until d elapses or maxSteps is reached, checking the
// deadline every 100 steps (micro-batches), and appends one Snapshot.
func (s *Search[H]) StepFor(ctx context.Context, d time.Duration, maxSteps int) StopReason {
	deadline := time.Now().Add(d)
	reason := StopNone
	steps := 0
	for maxSteps <= 0 || steps < maxSteps {
		for b := 0; b < 100 && (maxSteps <= 0 || steps < maxSteps); b++ {
			reason = s.Step(ctx)
			steps++
			if reason != StopNone {
				s.appendSnapshot()
				return reason
			}
		}
		if time.Now().After(deadline) {
			break
		}
	}
	s.appendSnapshot()
	return reason
}

func (s *Search[H]) appendSnapshot() {
	lo, hi, _ := s.CurrentBounds()
	avgFocal := float64(s.opts.maxFocalSize)
	if open := float64(s.open.Len()); open < avgFocal {
		avgFocal = open
	}
	s.snapshots = append(s.snapshots, Snapshot{
		SessionID:    s.sessionID,
		Time:         time.Since(s.startTime),
		NumSteps:     s.numSteps,
		NumSolutions: len(s.solutions),
		NumOpen:      s.open.Len(),
		Eps:          s.eps.value,
		Lo:           lo,
		Hi:           hi,
		AvgFocalSize: avgFocal,
	})
}

// CurrentBounds returns (lo, hi, top): lo is the best emitted solution's
// score (-Inf if none), top is f(open.top), and hi = max(top, lo).
func (s *Search[H]) CurrentBounds() (lo, hi, top float64) {
	lo = math.Inf(-1)
	if len(s.solutions) > 0 {
		lo = s.solutions[0].Output
	}
	if idx, ok := s.open.top(); ok {
		top = s.heuristic.OpenScore(s.eps.value, &s.states[idx].State)
	} else {
		top = lo
	}
	hi = math.Max(top, lo)
	return lo, hi, top
}

// NumSolutions, NumOpen, TimeSinceStart, and Snapshots expose read-only
// progress state.
func (s *Search[H]) NumSolutions() int             { return len(s.solutions) }
func (s *Search[H]) NumOpen() int                  { return s.open.Len() }
func (s *Search[H]) TimeSinceStart() time.Duration { return time.Since(s.startTime) }
func (s *Search[H]) Snapshots() []Snapshot         { return s.snapshots }

// SessionID identifies this search session, stamped onto every snapshot and
// solution-ledger entry it writes.
func (s *Search[H]) SessionID() string { return s.sessionID }

// Codec returns the codec configured via WithCodec, the one a
// persistence.Exporter or SolutionLedger built over this session should use
// to serialize its snapshots and solutions.
func (s *Search[H]) Codec() codec.Codec { return s.opts.codec }

// GetSolution returns the i'th best emitted solution (0 = best).
func (s *Search[H]) GetSolution(i int) (Solution, error) {
	if i < 0 || i >= len(s.solutions) {
		return Solution{}, fmt.Errorf("search: solution index %d out of range [0,%d)", i, len(s.solutions))
	}
	return s.solutions[i], nil
}

// GetOutputForBox returns the exact ensemble output selected by b, if b
// pins exactly one reachable leaf per tree; otherwise an error.
func (s *Search[H]) GetOutputForBox(b box.Box) (float64, error) {
	out := s.at.BaseScore
	for ti, tree := range s.at.Trees {
		n := ensemble.CountReachableLeaves(tree, b)
		if n != 1 {
			return 0, fmt.Errorf("search: box selects %d leaves in tree %d, want exactly 1", n, ti)
		}
		var it ensemble.LeafIterator
		it.Reset(tree, b)
		id, _ := it.Next()
		out += tree.LeafValue(id)
	}
	return out, nil
}

// PruneByBox intersects every vertex's box with b and re-seeds the open
// list. Legal only before the first Step.
func (s *Search[H]) PruneByBox(ctx context.Context, b box.Box) error {
	if s.started {
		return ErrAlreadyStarted
	}
	if err := s.graph.PruneByBox(ctx, b); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	s.graph.PropagateBounds()
	s.seedOpen()
	return nil
}

// CurrentEps returns the eps value currently in force.
func (s *Search[H]) CurrentEps() float64 { return s.eps.value }

// SetEps pins eps to the given value, clamped to [0.5, 1.0], and reheapifies
// the open list. Used by the driver to unify eps across workers to the
// minimum in the pool at a redistribution handshake point.
func (s *Search[H]) SetEps(eps float64) {
	s.eps.value = clampEps(eps)
	s.open.reheapify()
}

// Store exposes the backing box store, used by driver workers that need to
// materialize boxes for redistribution or snapshot export.
func (s *Search[H]) Store() *boxstore.Store { return s.store }

// ExportOpen copies every open-list state's heuristic state out of this
// worker, defensively copying each Box so it outlives this Store across a
// Reset. Used by the driver's redistribution handshake: the states it
// returns carry no arena-local references, only plain (g, h, d, box) data.
func (s *Search[H]) ExportOpen() []heuristic.State {
	out := make([]heuristic.State, len(s.open.a))
	for i, idx := range s.open.a {
		st := s.states[idx].State
		st.Box = append(box.Box(nil), st.Box...)
		out[i] = st
	}
	return out
}

// ImportOpen discards this worker's current open list and states, resets
// its arena, and re-seeds from states, re-committing each Box into this
// worker's own store. Intended for use only at a redistribution quiescent
// point, never mid-expansion.
func (s *Search[H]) ImportOpen(ctx context.Context, states []heuristic.State) error {
	s.store.Reset()
	s.states = s.states[:0]
	s.open.a = s.open.a[:0]

	for _, in := range states {
		ref, err := s.store.PushPairs(ctx, in.Box)
		if err != nil {
			return translateError(s.numSteps, err)
		}
		st := state{ref: ref, parent: -1, seq: s.nextSeq()}
		st.State = in
		st.State.Box = s.store.Get(ref)
		s.states = append(s.states, st)
		s.open.push(len(s.states) - 1)
	}
	return nil
}
