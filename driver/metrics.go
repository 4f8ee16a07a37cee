package driver

import "github.com/dtaikl/treeverify/search"

// MetricsCollector extends search.MetricsCollector with a pool-wide
// redistribution counter. Satisfied structurally by
// treeverify.BasicMetricsCollector (which implements RecordRedistribute
// alongside RecordStep/RecordSolution).
type MetricsCollector interface {
	search.MetricsCollector
	RecordRedistribute()
}

type noopMetrics struct{}

func (noopMetrics) RecordStep(bool)     {}
func (noopMetrics) RecordSolution()     {}
func (noopMetrics) RecordRedistribute() {}
