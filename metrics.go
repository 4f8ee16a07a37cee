package treeverify

import "sync/atomic"

// MetricsCollector collects operational metrics for a search session or
// driver, generalized from insert/search/delete counters to
// search-step counters.
type MetricsCollector interface {
	// RecordStep is called after each engine step.
	RecordStep(oom bool)

	// RecordSolution is called whenever a solution is emitted.
	RecordSolution()

	// RecordRedistribute is called after each driver redistribution round.
	RecordRedistribute()
}

// NoopMetricsCollector discards all recorded metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordStep(bool)     {}
func (NoopMetricsCollector) RecordSolution()     {}
func (NoopMetricsCollector) RecordRedistribute() {}

// BasicMetricsCollector provides simple in-memory metrics collection,
// mirroring the reference BasicMetricsCollector shape.
type BasicMetricsCollector struct {
	StepCount         atomic.Int64
	OOMStopCount      atomic.Int64
	SolutionCount     atomic.Int64
	RedistributeCount atomic.Int64
}

// RecordStep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStep(oom bool) {
	b.StepCount.Add(1)
	if oom {
		b.OOMStopCount.Add(1)
	}
}

// RecordSolution implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSolution() { b.SolutionCount.Add(1) }

// RecordRedistribute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRedistribute() { b.RedistributeCount.Add(1) }

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		StepCount:         b.StepCount.Load(),
		OOMStopCount:      b.OOMStopCount.Load(),
		SolutionCount:     b.SolutionCount.Load(),
		RedistributeCount: b.RedistributeCount.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	StepCount         int64
	OOMStopCount      int64
	SolutionCount     int64
	RedistributeCount int64
}
