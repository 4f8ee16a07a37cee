package treeverify

import (
	"log/slog"
	"time"

	"github.com/dtaikl/treeverify/blobstore"
	"github.com/dtaikl/treeverify/driver"
	"github.com/dtaikl/treeverify/search"
)

type options struct {
	workerCount      int
	metricsCollector MetricsCollector
	logger           *Logger
	searchOpts       []search.Option
	driverOpts       []driver.Option

	checkpointStore    blobstore.BlobStore
	checkpointPrefix   string
	checkpointInterval time.Duration
	ledgerKey          string
}

// Option configures New's session-construction behavior.
//
// Today options primarily exist to avoid exploding the API surface with
// separate constructors for a single-threaded vs. pooled session.
type Option func(*options)

// WithWorkerCount selects how many parallel search.Search workers the
// session runs. workerCount <= 1 (the default) builds a plain single
// session; anything higher builds a driver.Driver pool of that many
// workers, each with its own arena.
//
// Benefits of a pool over a single worker:
//   - Near-linear throughput scaling up to the ensemble's first
//     independent-set width, since initial sharding is round-robin over
//     that set
//   - Periodic redistribution keeps per-worker open-list sizes balanced
//     as some branches of the search space prove denser than others
//
// Trade-offs:
//   - N independent arenas instead of one: memory overhead scales with
//     worker count unless a shared WithResourceController is also passed
//     via WithDriverOptions
//   - Redistribution pauses every worker briefly; very short StepFor
//     batches spend proportionally more time synchronized than stepping
func WithWorkerCount(workerCount int) Option {
	return func(o *options) { o.workerCount = workerCount }
}

// WithMetricsCollector configures a metrics collector for monitoring
// session operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &treeverify.BasicMetricsCollector{}
//	sess, _ := treeverify.New(ctx, at, h, treeverify.WithMetricsCollector(metrics))
//	// ... run steps ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) { o.metricsCollector = mc }
}

// WithLogger configures structured logging for session operations. Pass
// nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogLevel creates a text logger at the given level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithSearchOptions forwards options to every worker's underlying
// search.New call: eps, max focal size, per-worker memory ceiling,
// constraints, codec, stop conditions.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *options) { o.searchOpts = append(o.searchOpts, opts...) }
}

// WithDriverOptions forwards options to driver.New when WithWorkerCount
// selects a pooled session (ignored for a single-worker session):
// redistribute interval, a shared resource.Controller, a driver-level
// metrics collector.
func WithDriverOptions(opts ...driver.Option) Option {
	return func(o *options) { o.driverOpts = append(o.driverOpts, opts...) }
}

// WithCheckpointing periodically writes a persistence.Snapshot of session
// progress to store (every interval, checked at each StepFor call) and
// posts the current best solution to a persistence.SolutionLedger at the
// same cadence, both under prefix. Snapshots and ledger entries are
// serialized with the codec configured via search.WithCodec (forwarded
// through WithSearchOptions/WithDriverOptions); a session with no codec
// option set uses codec.Default.
func WithCheckpointing(store blobstore.BlobStore, interval time.Duration, prefix string) Option {
	return func(o *options) {
		o.checkpointStore = store
		o.checkpointInterval = interval
		o.checkpointPrefix = prefix
	}
}

// WithLedgerKey overrides the SolutionLedger's key (default "CURRENT")
// within the checkpoint prefix set by WithCheckpointing.
func WithLedgerKey(key string) Option {
	return func(o *options) { o.ledgerKey = key }
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
