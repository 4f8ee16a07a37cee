package treeverify

import (
	"errors"
	"fmt"

	"github.com/dtaikl/treeverify/boxstore"
	"github.com/dtaikl/treeverify/ensemble"
	"github.com/dtaikl/treeverify/internal/arena"
	"github.com/dtaikl/treeverify/search"
)

// Malformed-input sentinels, re-exported from ensemble: they fail
// construction, never a running step.
var (
	// ErrEmptyEnsemble is returned when a Tree has no nodes. A zero-tree
	// AddTree is not an error: it is the constant function BaseScore.
	ErrEmptyEnsemble = ensemble.ErrEmptyEnsemble

	// ErrNonBinaryNode is returned when an internal node's children are
	// missing or out of range.
	ErrNonBinaryNode = ensemble.ErrNonBinaryNode

	// ErrCyclicTree is returned when a node graph contains a cycle.
	ErrCyclicTree = ensemble.ErrCyclicTree
)

// ErrMemoryCeilingExceeded wraps an arena or box-store capacity failure
// with session-level context. A step that hits this stops the session
// (search.StopMemoryCeiling) but leaves every already-emitted solution and
// bound valid; nothing is retried.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrMemoryCeilingExceeded struct {
	cause error
}

func (e *ErrMemoryCeilingExceeded) Error() string {
	return fmt.Sprintf("treeverify: memory ceiling exceeded: %v", e.cause)
}

func (e *ErrMemoryCeilingExceeded) Unwrap() error { return e.cause }

// ErrInvalidState reports a programmer error: a call made outside the
// operation's legal window (PruneByBox after the first step, a build left
// outstanding on a workspace a caller tries to reuse).
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidState struct {
	Op     string
	Reason string
	cause  error
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("treeverify: invalid state in %s: %s", e.Op, e.Reason)
}

func (e *ErrInvalidState) Unwrap() error { return e.cause }

// ErrInfeasible marks an ensemble/constraint combination under which bound
// propagation leaves every vertex in the first independent set with no
// compatible successor. It is never itself returned from Step: an
// infeasible session simply empties its open list on the first step and
// reports search.StopNoMoreOpen with zero solutions, matching the "no
// solution" terminal state rather than an error. It exists so callers that
// want to detect infeasibility ahead of spending a step on it have a named
// error to compare against.
var ErrInfeasible = errors.New("treeverify: ensemble admits no consistent choice under its current constraints")

// translateError unifies lower-package failures into the sentinels and
// typed errors above via a two-pass Is/As walk, the same structure the
// package this module grew from used for its own error unification.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, boxstore.ErrCapacityExceeded) || errors.Is(err, arena.ErrAllocationFailed) || errors.Is(err, arena.ErrMaxChunksExceeded) {
		return &ErrMemoryCeilingExceeded{cause: err}
	}
	var ceil *search.ErrMemoryCeilingExceeded
	if errors.As(err, &ceil) {
		return &ErrMemoryCeilingExceeded{cause: err}
	}

	if errors.Is(err, search.ErrAlreadyStarted) {
		return &ErrInvalidState{Op: "PruneByBox", Reason: "search has already taken a step", cause: err}
	}
	if errors.Is(err, boxstore.ErrWorkspaceBusy) {
		return &ErrInvalidState{Op: "CombineAndPush", Reason: "workspace has an outstanding build", cause: err}
	}

	return err
}
