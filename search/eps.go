package search

import "time"

// epsController runs the ARA*-style adaptive eps schedule: eps starts at a
// user-set value, is nudged up each time a solution is emitted, and nudged
// back down if the interval since the last solution grows past twice the
// running average interval between updates.
type epsController struct {
	value     float64
	auto      bool
	increment float64

	lastUpdate  time.Time
	haveUpdate  bool
	avgInterval time.Duration
}

func newEpsController(initial float64, auto bool) *epsController {
	return &epsController{
		value:       initial,
		auto:        auto,
		increment:   0.05,
		avgInterval: 20 * time.Millisecond,
	}
}

// onSolutionEmitted increases eps, doubling the step size if updates are
// arriving faster than the running average (a burst of easy solutions), the
// same heuristic the reference engine uses.
func (e *epsController) onSolutionEmitted(now time.Time) (changed bool) {
	if !e.auto {
		return false
	}
	if e.haveUpdate {
		sincePrev := now.Sub(e.lastUpdate)
		if sincePrev*2 < e.avgInterval {
			e.increment *= 2
		}
		e.avgInterval = time.Duration(0.2*float64(e.avgInterval) + 0.8*float64(sincePrev))
	}
	e.lastUpdate = now
	e.haveUpdate = true

	old := e.value
	e.value = min(1.0, e.value+e.increment)
	return old != e.value
}

// maybeDecrease relaxes eps back down if the interval since the last update
// has grown past twice the running average — solutions have gotten scarce,
// so bias back toward the admissible heuristic.
func (e *epsController) maybeDecrease(now time.Time) (changed bool) {
	if !e.auto || !e.haveUpdate {
		return false
	}
	sincePrev := now.Sub(e.lastUpdate)
	if sincePrev <= 2*e.avgInterval {
		return false
	}

	e.avgInterval = time.Duration(0.2*float64(e.avgInterval) + 0.8*float64(sincePrev))
	e.increment = max(0.01, e.increment/2)
	e.lastUpdate = now

	old := e.value
	e.value = max(0.5, e.value-e.increment)
	return old != e.value
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
