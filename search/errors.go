package search

import (
	"errors"
	"fmt"

	"github.com/dtaikl/treeverify/boxstore"
)

// ErrAlreadyStarted is returned by PruneByBox once any step has run:
// pruning by box is only legal before the first step.
var ErrAlreadyStarted = errors.New("search: prune_by_box is only legal before the first step")

// ErrMemoryCeilingExceeded wraps the box store's capacity error with the
// search-level context of which step failed.
type ErrMemoryCeilingExceeded struct {
	Step  int
	cause error
}

func (e *ErrMemoryCeilingExceeded) Error() string {
	return fmt.Sprintf("search: memory ceiling exceeded at step %d: %v", e.Step, e.cause)
}

func (e *ErrMemoryCeilingExceeded) Unwrap() error { return e.cause }

// translateError unifies boxstore-level failures into search's own error
// kinds, the same two-pass structure the ambient error-handling layer uses
// elsewhere in this module.
func translateError(step int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, boxstore.ErrCapacityExceeded) {
		return &ErrMemoryCeilingExceeded{Step: step, cause: err}
	}
	return err
}
