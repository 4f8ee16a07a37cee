package search

import (
	"github.com/dtaikl/treeverify/constraints"
	"github.com/dtaikl/treeverify/internal/obslog"
	"github.com/dtaikl/treeverify/persistence/codec"
)

type options struct {
	eps           float64
	autoEps       bool
	maxFocalSize  int
	memCapacity   int64

	stopWhenNumSolutionsExceeds    int
	stopWhenNumNewSolutionsExceeds int
	stopWhenOptimal                bool
	stopWhenLowerGreaterThan       *float64
	stopWhenUpperLessThan          *float64

	rejectSolutionWhenOutputLessThan *float64

	logger      *obslog.Logger
	codec       codec.Codec
	constraints *constraints.Set
	metrics     MetricsCollector
}

func defaultOptions() options {
	return options{
		eps:          0.5,
		autoEps:      true,
		maxFocalSize: 100,
		memCapacity:  256 << 20,
		logger:       obslog.New(nil),
		codec:        codec.Default,
		metrics:      noopMetrics{},
	}
}

// Option configures a Search session, mirroring the functional-options
// pattern used throughout this codebase's ambient configuration surface.
type Option func(*options)

// WithEps sets the initial eps (clamped by the engine to [0.5, 1.0] on use).
func WithEps(eps float64) Option { return func(o *options) { o.eps = eps } }

// WithAutoEps toggles the ARA*-style adaptive eps schedule.
func WithAutoEps(auto bool) Option { return func(o *options) { o.autoEps = auto } }

// WithMaxFocalSize bounds the per-step focal-list scan.
func WithMaxFocalSize(n int) Option { return func(o *options) { o.maxFocalSize = n } }

// WithMemCapacity sets the box-store arena's memory ceiling in bytes.
func WithMemCapacity(bytes int64) Option { return func(o *options) { o.memCapacity = bytes } }

// WithStopWhenNumSolutionsExceeds stops the session once the total emitted
// solution count exceeds n.
func WithStopWhenNumSolutionsExceeds(n int) Option {
	return func(o *options) { o.stopWhenNumSolutionsExceeds = n }
}

// WithStopWhenNumNewSolutionsExceeds stops once the count of solutions
// emitted by this session exceeds n. The count is never reset, neither
// between stop-condition checks nor between Step, Steps or StepFor calls.
func WithStopWhenNumNewSolutionsExceeds(n int) Option {
	return func(o *options) { o.stopWhenNumNewSolutionsExceeds = n }
}

// WithStopWhenOptimal stops as soon as the engine can prove optimality.
func WithStopWhenOptimal(stop bool) Option { return func(o *options) { o.stopWhenOptimal = stop } }

// WithStopWhenLowerGreaterThan stops once the best emitted solution's score
// exceeds v.
func WithStopWhenLowerGreaterThan(v float64) Option {
	return func(o *options) { o.stopWhenLowerGreaterThan = &v }
}

// WithStopWhenUpperLessThan stops once the open list's best admissible
// bound drops below v — no remaining state can beat the current solutions.
func WithStopWhenUpperLessThan(v float64) Option {
	return func(o *options) { o.stopWhenUpperLessThan = &v }
}

// WithRejectSolutionWhenOutputLessThan filters emitted solutions below v
// from the solutions list without otherwise altering the search.
func WithRejectSolutionWhenOutputLessThan(v float64) Option {
	return func(o *options) { o.rejectSolutionWhenOutputLessThan = &v }
}

// WithLogger attaches a structured logger for step/solution/stop events,
// logged as they happen from Step and emitSolution. Pass obslog.Noop() (or
// the root package's NoopLogger()) to silence it.
func WithLogger(l *obslog.Logger) Option { return func(o *options) { o.logger = l } }

// WithCodec selects the codec a persistence.Exporter or SolutionLedger
// built over this session should use to serialize its snapshots and
// solutions; read back via Search.Codec.
func WithCodec(c codec.Codec) Option { return func(o *options) { o.codec = c } }

// WithConstraints wires a declarative constraint set into graph pruning and
// per-step expansion.
func WithConstraints(s *constraints.Set) Option { return func(o *options) { o.constraints = s } }

// WithMetricsCollector wires a step/solution counter into the session. Pass
// nil to disable (the default is a no-op collector).
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = noopMetrics{}
		}
		o.metrics = mc
	}
}
