package driver

import (
	"time"

	"github.com/dtaikl/treeverify/internal/obslog"
	"github.com/dtaikl/treeverify/resource"
	"github.com/dtaikl/treeverify/search"
)

type options struct {
	workerCount          int
	redistributeInterval time.Duration
	searchOpts           []search.Option
	controller           *resource.Controller
	metrics              MetricsCollector
	logger               *obslog.Logger
}

func defaultOptions() options {
	return options{
		redistributeInterval: 2 * time.Second,
		metrics:              noopMetrics{},
		logger:               obslog.New(nil),
	}
}

// Option configures a Driver.
type Option func(*options)

// WithWorkerCount sets the fixed worker-pool size. n <= 0 means
// runtime.GOMAXPROCS(0), matching WorkerPool's own default.
func WithWorkerCount(n int) Option { return func(o *options) { o.workerCount = n } }

// WithRedistributeInterval sets how often StepFor reshards the pool's open
// list after a quiescent batch.
func WithRedistributeInterval(d time.Duration) Option {
	return func(o *options) { o.redistributeInterval = d }
}

// WithSearchOptions forwards options to every worker's underlying
// search.New call (eps, max focal size, per-worker memory ceiling,
// constraints, codec, logger, …).
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *options) { o.searchOpts = append(o.searchOpts, opts...) }
}

// WithResourceController shares one memory/IO/background-worker ceiling
// across every worker's search session, instead of each worker enforcing
// its own independent per-session WithMemCapacity. Use this so a pool-wide
// memory budget is respected even though each worker owns its own arena.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

// WithLogger attaches a structured logger for the pool's redistribution
// handshake: a warning on every successful redistribute, an error if a
// worker failed to re-import its new shard. Pass obslog.Noop() to silence
// it.
func WithLogger(l *obslog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetricsCollector wires a redistribution counter (in addition to each
// worker's own step/solution counters, set separately via
// WithSearchOptions(search.WithMetricsCollector(...))). Pass nil to
// disable (the default is a no-op collector).
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = noopMetrics{}
		}
		o.metrics = mc
	}
}
