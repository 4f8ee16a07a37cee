package search

import (
	"time"

	"github.com/dtaikl/treeverify/box"
)

// Solution is one fully-chosen clique: true output, the eps in force when
// it was discovered, and the box that selects it.
type Solution struct {
	Time   time.Duration
	Eps    float64
	Output float64
	Box    box.Box
}

// Snapshot is one point-in-time sample of search progress, appended once
// per Steps/StepFor call.
type Snapshot struct {
	SessionID    string
	Time         time.Duration
	NumSteps     int
	NumSolutions int
	NumOpen      int
	Eps          float64
	Lo, Hi       float64
	AvgFocalSize float64
}

// StopReason is the terminal (or non-terminal, for StopNone) state of a
// Step call.
type StopReason int

const (
	StopNone StopReason = iota
	StopNoMoreOpen
	StopNumSolutionsExceeded
	StopNumNewSolutionsExceeded
	StopOptimal
	StopUpperLessThan
	StopLowerGreaterThan
	StopMemoryCeiling
	StopError
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopNoMoreOpen:
		return "no-more-open"
	case StopNumSolutionsExceeded:
		return "num-solutions-exceeded"
	case StopNumNewSolutionsExceeded:
		return "num-new-solutions-exceeded"
	case StopOptimal:
		return "optimal"
	case StopUpperLessThan:
		return "upper-lt"
	case StopLowerGreaterThan:
		return "lower-gt"
	case StopMemoryCeiling:
		return "memory-ceiling"
	case StopError:
		return "error"
	default:
		return "unknown"
	}
}

// severity ranks stop reasons for the driver's aggregation: errors >
// out-of-memory > thresholds > optimal > no-more-open > none.
func (r StopReason) severity() int {
	switch r {
	case StopError:
		return 7
	case StopMemoryCeiling:
		return 6
	case StopNumSolutionsExceeded, StopNumNewSolutionsExceeded, StopUpperLessThan, StopLowerGreaterThan:
		return 5
	case StopOptimal:
		return 4
	case StopNoMoreOpen:
		return 3
	case StopNone:
		return 1
	default:
		return 0
	}
}

// MaxStopReason returns whichever of a, b is the more informative reason.
func MaxStopReason(a, b StopReason) StopReason {
	if a.severity() >= b.severity() {
		return a
	}
	return b
}
