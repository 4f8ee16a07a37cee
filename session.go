// Package treeverify verifies properties of additive tree ensembles
// (gradient-boosted forests) by best-first search over the ensemble's
// k-partite graph of per-tree leaves: every solution the search emits is a
// consistent choice of one leaf per tree whose combined output is provably
// within eps of optimal at the time it was found.
//
// New builds a Session from an ensemble.AddTree and a heuristic.Heuristic;
// StepFor advances it; BestSolution and NumSolutions report progress.
package treeverify

import (
	"context"
	"time"

	"github.com/dtaikl/treeverify/driver"
	"github.com/dtaikl/treeverify/ensemble"
	"github.com/dtaikl/treeverify/heuristic"
	"github.com/dtaikl/treeverify/persistence"
	"github.com/dtaikl/treeverify/persistence/codec"
	"github.com/dtaikl/treeverify/search"
)

// Session is the top-level handle on a running verification session: a
// single search.Search worker by default, or a driver.Driver pool when
// WithWorkerCount selects more than one. Exactly one of single/pool is
// non-nil.
type Session[H heuristic.Heuristic] struct {
	single *search.Search[H]
	pool   *driver.Driver[H]
	logger *Logger

	exporter           *persistence.Exporter
	ledger             *persistence.SolutionLedger
	checkpointInterval time.Duration
	lastCheckpoint     time.Time
	checkpointSeq      int
}

// New builds a Session over at under heuristic h. With no options it runs a
// single in-process search.Search worker; WithWorkerCount(n) for n > 1
// builds an n-worker driver.Driver pool instead.
func New[H heuristic.Heuristic](ctx context.Context, at *ensemble.AddTree, h H, optFns ...Option) (*Session[H], error) {
	o := applyOptions(optFns)

	searchOpts := o.searchOpts
	if o.metricsCollector != nil {
		searchOpts = append(searchOpts, search.WithMetricsCollector(o.metricsCollector))
	}

	if o.workerCount > 1 {
		driverOpts := append([]driver.Option{driver.WithWorkerCount(o.workerCount), driver.WithSearchOptions(searchOpts...)}, o.driverOpts...)
		d, err := driver.New[H](ctx, at, h, driverOpts...)
		if err != nil {
			return nil, translateError(err)
		}
		o.logger.LogStep(ctx, 0, "pool-started", nil)
		sess := &Session[H]{pool: d, logger: o.logger}
		sess.wireCheckpointing(&o, d.Codec())
		return sess, nil
	}

	s, err := search.New[H](ctx, at, h, nil, searchOpts...)
	if err != nil {
		return nil, translateError(err)
	}
	o.logger.LogStep(ctx, 0, "started", nil)
	sess := &Session[H]{single: s, logger: o.logger}
	sess.wireCheckpointing(&o, s.Codec())
	return sess, nil
}

// wireCheckpointing builds an Exporter/SolutionLedger over o's checkpoint
// store, if one was set via WithCheckpointing, using the underlying search
// session's own codec so a checkpoint decodes with whatever codec the
// session was configured to run with.
func (sess *Session[H]) wireCheckpointing(o *options, c codec.Codec) {
	if o.checkpointStore == nil {
		return
	}
	sess.exporter = persistence.NewExporter(o.checkpointStore, c, o.checkpointPrefix)
	sess.ledger = persistence.NewSolutionLedger(o.checkpointStore, c, o.ledgerKey)
	sess.checkpointInterval = o.checkpointInterval
	sess.lastCheckpoint = time.Now()
}

// Pooled reports whether this session is running a driver.Driver pool
// rather than a single worker.
func (sess *Session[H]) Pooled() bool { return sess.pool != nil }

// Single returns the underlying single-worker session and true, or the
// zero value and false if this session is pooled.
func (sess *Session[H]) Single() (*search.Search[H], bool) { return sess.single, sess.single != nil }

// Pool returns the underlying worker pool and true, or the zero value and
// false if this session is a single worker.
func (sess *Session[H]) Pool() (*driver.Driver[H], bool) { return sess.pool, sess.pool != nil }

// StepFor runs the session for up to dur, or up to maxSteps steps per
// worker, whichever comes first, and returns the most informative
// search.StopReason reached. If WithCheckpointing was set and the
// checkpoint interval has elapsed, it also writes a snapshot and posts the
// current best solution to the ledger before returning.
func (sess *Session[H]) StepFor(ctx context.Context, dur time.Duration, maxSteps int) search.StopReason {
	var reason search.StopReason
	if sess.pool != nil {
		reason = sess.pool.StepFor(ctx, dur, maxSteps)
	} else {
		reason = sess.single.StepFor(ctx, dur, maxSteps)
		sess.logger.LogStep(ctx, sess.single.NumSolutions(), reason.String(), nil)
	}
	sess.maybeCheckpoint(ctx)
	return reason
}

// buildSnapshot reports the most recent progress sample: the single-worker
// case reads it straight off search.Search's own per-StepFor Snapshots;
// the pooled case, which has no single combined Snapshot, synthesizes one
// from the pool-wide aggregates.
func (sess *Session[H]) buildSnapshot() search.Snapshot {
	if sess.single != nil {
		if snaps := sess.single.Snapshots(); len(snaps) > 0 {
			return snaps[len(snaps)-1]
		}
		return search.Snapshot{SessionID: sess.single.SessionID()}
	}
	lo, hi := sess.pool.CurrentBounds()
	return search.Snapshot{
		SessionID:    sess.pool.SessionID(),
		NumSolutions: sess.pool.NumSolutions(),
		NumOpen:      sess.pool.NumCandidateCliques(),
		Lo:           lo,
		Hi:           hi,
	}
}

// maybeCheckpoint writes a persistence.Snapshot and posts the current best
// solution to the solution ledger, if WithCheckpointing was set and the
// configured interval has elapsed since the last write.
func (sess *Session[H]) maybeCheckpoint(ctx context.Context) {
	if sess.exporter == nil || time.Since(sess.lastCheckpoint) < sess.checkpointInterval {
		return
	}
	sess.lastCheckpoint = time.Now()
	sess.checkpointSeq++

	progress := sess.buildSnapshot()
	snap := persistence.Snapshot{
		SessionID: progress.SessionID,
		Taken:     time.Now(),
		Progress:  progress,
	}
	entry := persistence.LedgerEntry{
		SessionID: progress.SessionID,
		Posted:    snap.Taken,
		Lo:        progress.Lo,
		Hi:        progress.Hi,
	}
	if sol, ok := sess.BestSolution(); ok {
		snap.Solutions = []search.Solution{sol}
		entry.Solution = sol
	}

	err := sess.exporter.WriteCheckpoint(ctx, snap, sess.checkpointSeq)
	sess.logger.LogCheckpoint(ctx, snap.SessionID, err)
	if err == nil {
		ledgerErr := sess.ledger.PostIfBetter(ctx, entry)
		sess.logger.LogLedgerPost(ctx, snap.SessionID, ledgerErr)
	}
}

// NumSolutions returns the total number of solutions emitted so far.
func (sess *Session[H]) NumSolutions() int {
	if sess.pool != nil {
		return sess.pool.NumSolutions()
	}
	return sess.single.NumSolutions()
}

// CurrentBounds returns the session-wide (lo, hi) bound interval.
func (sess *Session[H]) CurrentBounds() (lo, hi float64) {
	if sess.pool != nil {
		return sess.pool.CurrentBounds()
	}
	lo, hi, _ = sess.single.CurrentBounds()
	return lo, hi
}

// BestSolution returns the highest-scoring solution found so far, if any.
func (sess *Session[H]) BestSolution() (search.Solution, bool) {
	if sess.pool != nil {
		return sess.pool.BestSolution()
	}
	if sess.single.NumSolutions() == 0 {
		return search.Solution{}, false
	}
	sol, err := sess.single.GetSolution(0)
	return sol, err == nil
}

// Close releases every arena the session holds. A pooled session also
// shuts down its worker goroutines.
func (sess *Session[H]) Close() {
	if sess.pool != nil {
		sess.pool.Close()
		return
	}
	sess.single.Store().Free()
}
