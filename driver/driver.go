// Package driver runs a fixed pool of search.Search sessions in parallel
// over disjoint shards of one ensemble's initial open list, periodically
// re-sharding the combined pool. Grounded on
// original_source/src/cpp/graph.h's KPartiteGraphParOpt/Worker pair and on
// engine.WorkerPool's goroutine-pool mechanics.
package driver

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/dtaikl/treeverify/ensemble"
	"github.com/dtaikl/treeverify/heuristic"
	"github.com/dtaikl/treeverify/internal/arena"
	"github.com/dtaikl/treeverify/internal/bitset"
	"github.com/dtaikl/treeverify/persistence/codec"
	"github.com/dtaikl/treeverify/search"
	"github.com/google/uuid"
)

// Driver owns one search.Search[H] per worker, all built against the same
// ensemble, each with its own arena and open heap. Workers are coordinated
// only at StepFor call boundaries: there is no work-stealing at the
// granularity of a single step.
type Driver[H heuristic.Heuristic] struct {
	workers   []*search.Search[H]
	pool      *pool
	opts      options
	sessionID string

	mu               sync.Mutex
	lastRedistribute time.Time

	// quiesced tracks which workers have reached the current StepFor
	// call's handshake point (returned from their goroutine), so
	// redistribute never runs against a worker still mutating its open
	// list. Each worker's goroutine sets its own bit directly; BitSet's
	// segments are atomic.Uint64 so this needs no extra mutex.
	quiesced *bitset.BitSet
}

// New builds one independent search session per worker, then shards the
// first worker's freshly seeded open list round-robin across the pool
// (k = worker count), mirroring the reference engine's "take every k-th
// state from the initial engine's open list" seeding rule.
func New[H heuristic.Heuristic](ctx context.Context, at *ensemble.AddTree, h H, opts ...Option) (*Driver[H], error) {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	n := o.workerCount
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	var acquirer arena.MemoryAcquirer
	if o.controller != nil {
		acquirer = o.controller
	}

	workers := make([]*search.Search[H], n)
	for i := 0; i < n; i++ {
		s, err := search.New[H](ctx, at, h, acquirer, o.searchOpts...)
		if err != nil {
			return nil, fmt.Errorf("driver: worker %d: %w", i, err)
		}
		workers[i] = s
	}

	if n > 1 {
		seed := workers[0].ExportOpen()
		shards := shard(seed, n)
		for i, s := range workers {
			if err := s.ImportOpen(ctx, shards[i]); err != nil {
				return nil, fmt.Errorf("driver: sharding worker %d: %w", i, err)
			}
		}
	}

	return &Driver[H]{
		workers:          workers,
		pool:             newPool(n),
		opts:             o,
		sessionID:        uuid.New().String(),
		lastRedistribute: time.Now(),
		quiesced:         bitset.New(uint64(n)),
	}, nil
}

// SessionID identifies this worker pool, stamped onto every pool-level
// snapshot and solution-ledger entry it writes.
func (d *Driver[H]) SessionID() string { return d.sessionID }

// Codec returns the codec the pool's workers were configured with via
// search.WithCodec (forwarded through WithSearchOptions), the one a
// persistence.Exporter or SolutionLedger built over this pool should use.
func (d *Driver[H]) Codec() codec.Codec {
	if len(d.workers) == 0 {
		return codec.Default
	}
	return d.workers[0].Codec()
}

func shard[T any](items []T, n int) [][]T {
	shards := make([][]T, n)
	for i, it := range items {
		shards[i%n] = append(shards[i%n], it)
	}
	return shards
}

// NumWorkers returns the fixed worker-pool size.
func (d *Driver[H]) NumWorkers() int { return len(d.workers) }

// StepFor runs every worker's local engine concurrently until dur elapses
// or maxSteps per worker is reached, waits for all to quiesce, and
// redistributes open-list state across the pool if the redistribute
// interval has elapsed. Returns the most severe StopReason any worker
// reported, per the error > out-of-memory > thresholds > optimal >
// no-more-open > none ordering.
func (d *Driver[H]) StepFor(ctx context.Context, dur time.Duration, maxSteps int) search.StopReason {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.quiesced.ClearAll()
	reasons := make([]search.StopReason, len(d.workers))
	var wg sync.WaitGroup
	wg.Add(len(d.workers))
	for i, s := range d.workers {
		i, s := i, s
		if err := d.pool.submit(ctx, func() {
			defer wg.Done()
			reasons[i] = s.StepFor(ctx, dur, maxSteps)
			d.quiesced.Set(uint64(i))
		}); err != nil {
			reasons[i] = search.StopError
			wg.Done()
		}
	}
	wg.Wait()

	agg := search.StopNone
	for _, r := range reasons {
		agg = search.MaxStopReason(agg, r)
	}

	if d.quiesced.Count() == len(d.workers) &&
		(agg == search.StopNone || agg == search.StopNoMoreOpen) &&
		time.Since(d.lastRedistribute) >= d.opts.redistributeInterval {
		if err := d.redistribute(ctx); err != nil {
			agg = search.StopError
		} else {
			d.opts.metrics.RecordRedistribute()
		}
		d.lastRedistribute = time.Now()
	}
	return agg
}

// QuiescedWorkers reports how many workers reached the handshake point in
// the most recent StepFor call.
func (d *Driver[H]) QuiescedWorkers() int {
	return d.quiesced.Count()
}

// redistribute copies every worker's current open-list elements into a
// shared pool, re-shards them round-robin, and unifies eps to the minimum
// across the pool. Workers must be quiescent (not concurrently stepping)
// when this runs — StepFor only calls it between Wait()-synchronized
// batches. Returns the first worker-import error encountered (a translated
// memory-ceiling error); that worker's arena has already been reset by
// ImportOpen, so a non-nil return is fatal for the pool, not retryable.
func (d *Driver[H]) redistribute(ctx context.Context) error {
	if len(d.workers) < 2 {
		return nil
	}
	minEps := d.workers[0].CurrentEps()
	var pooled []heuristic.State
	for _, s := range d.workers {
		if e := s.CurrentEps(); e < minEps {
			minEps = e
		}
		pooled = append(pooled, s.ExportOpen()...)
	}

	shards := shard(pooled, len(d.workers))
	var firstErr error
	for i, s := range d.workers {
		s.SetEps(minEps)
		if err := s.ImportOpen(ctx, shards[i]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("driver: redistribute: worker %d: %w", i, err)
		}
	}
	d.opts.logger.LogRedistribute(ctx, len(d.workers), len(pooled), firstErr)
	return firstErr
}

// NumSolutions returns the total number of solutions emitted across all
// workers.
func (d *Driver[H]) NumSolutions() int {
	total := 0
	for _, s := range d.workers {
		total += s.NumSolutions()
	}
	return total
}

// NumCandidateCliques returns the combined open-list size across all
// workers.
func (d *Driver[H]) NumCandidateCliques() int {
	total := 0
	for _, s := range d.workers {
		total += s.NumOpen()
	}
	return total
}

// CurrentBounds returns the pool-wide (lo, hi): the best lo any worker has
// found, and the best hi any worker can still promise.
func (d *Driver[H]) CurrentBounds() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(-1)
	for _, s := range d.workers {
		l, h, _ := s.CurrentBounds()
		if l > lo {
			lo = l
		}
		if h > hi {
			hi = h
		}
	}
	return lo, hi
}

// CurrentMemory returns each worker's box-store arena usage as a
// per-worker memory-accounting snapshot.
func (d *Driver[H]) CurrentMemory() []arena.Stats {
	out := make([]arena.Stats, len(d.workers))
	for i, s := range d.workers {
		out[i] = s.Store().Stats()
	}
	return out
}

// BestSolution returns the best solution found by any worker, if any.
func (d *Driver[H]) BestSolution() (search.Solution, bool) {
	var best search.Solution
	found := false
	for _, s := range d.workers {
		if s.NumSolutions() == 0 {
			continue
		}
		sol, _ := s.GetSolution(0)
		if !found || sol.Output > best.Output {
			best = sol
			found = true
		}
	}
	return best, found
}

// Close shuts the worker pool down and releases every worker's arena.
func (d *Driver[H]) Close() {
	d.pool.close()
	for _, s := range d.workers {
		s.Store().Free()
	}
}
