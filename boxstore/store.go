// Package boxstore is the arena-backed home for box.Box values built during
// a search session. It packs (feature, interval) pairs into append-only
// blocks and exposes a single scratch workspace used to build a box
// incrementally before committing it to a stable BoxRef.
package boxstore

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/dtaikl/treeverify/box"
	"github.com/dtaikl/treeverify/internal/arena"
)

// ErrCapacityExceeded is returned when committing a workspace would exceed
// the store's configured memory ceiling. This is the arena-level half of the
// "out of memory" error kind: it fails the current step, not the
// session; already-committed BoxRefs remain valid.
var ErrCapacityExceeded = errors.New("boxstore: memory capacity exceeded")

// ErrWorkspaceBusy is returned by CombineInWorkspace when it would start a
// new build on top of one already outstanding. Only one workspace is
// logically live at a time; this is a programmer-error guard, not a
// concurrency primitive.
var ErrWorkspaceBusy = errors.New("boxstore: workspace already has an outstanding build")

// BoxRef is a stable, read-only handle into a Store: a (block, offset,
// length) triple. It is never a raw pointer, and remains valid for the
// lifetime of the owning Store because blocks are never relocated.
type BoxRef struct {
	block  uint32
	offset uint32
	length uint32
}

// IsNull reports whether r refers to the empty (universal) box.
func (r BoxRef) IsNull() bool { return r.length == 0 }

// Null is the BoxRef for the empty, universal box.
var Null = BoxRef{}

// Store owns the arena of committed boxes plus one scratch workspace.
type Store struct {
	pairArena *arena.Arena
	workspace []box.Pair
	building  bool
}

const pairSize = int(unsafe.Sizeof(box.Pair{}))

// New creates a Store whose underlying arena grows in chunks of chunkBytes
// (rounded up to a power of two by the arena). If acquirer is non-nil
// (typically a *resource.Controller), every chunk allocation is gated by its
// memory ceiling, realizing the memory-capacity stop condition a search
// session enforces.
func New(chunkBytes int, acquirer arena.MemoryAcquirer) (*Store, error) {
	var opts []arena.Option
	if acquirer != nil {
		opts = append(opts, arena.WithMemoryAcquirer(acquirer))
	}
	a, err := arena.New(chunkBytes, opts...)
	if err != nil {
		return nil, fmt.Errorf("boxstore: %w", err)
	}
	return &Store{pairArena: a}, nil
}

// RefineWorkspace folds a single split constraint into the workspace,
// optionally remapping the tree-local feature id through featMap (nil means
// identity — used when the ensemble's feature ids are already the store's
// feature space). Safe to call repeatedly to refine the same outstanding
// build; use CombineInWorkspace to start a different kind of build instead.
func (s *Store) RefineWorkspace(f box.FeatureID, c box.Pair, featMap func(box.FeatureID) box.FeatureID) bool {
	s.building = true
	feat := c.Feature
	if featMap != nil {
		feat = featMap(feat)
	}
	refined, ok := box.RefineWith(s.workspace, feat, c.Interval)
	s.workspace = refined
	return ok
}

// CombineInWorkspace merges two committed boxes into the workspace via a
// two-finger intersection, leaving the workspace cleared (and returning
// false) if the boxes are incompatible. Returns ErrWorkspaceBusy without
// touching the workspace if an earlier build (RefineWorkspace or a previous
// CombineInWorkspace) hasn't yet been committed via PushWorkspace or
// discarded via ClearWorkspace — starting a combine on top of it would
// silently overwrite work still in progress.
func (s *Store) CombineInWorkspace(a, b BoxRef) (bool, error) {
	if s.building {
		return false, ErrWorkspaceBusy
	}
	s.building = true
	merged, ok := box.Intersect(s.workspace[:0], s.Get(a), s.Get(b))
	s.workspace = merged
	if !ok {
		s.building = false
	}
	return ok, nil
}

// ClearWorkspace discards the current workspace contents without
// committing them, and marks the build no longer outstanding.
func (s *Store) ClearWorkspace() {
	s.workspace = s.workspace[:0]
	s.building = false
}

// PushWorkspace commits the current workspace to the arena as a new,
// stable BoxRef, clears the workspace, and marks the build no longer
// outstanding.
func (s *Store) PushWorkspace(ctx context.Context) (BoxRef, error) {
	ref, err := s.push(ctx, s.workspace)
	s.workspace = s.workspace[:0]
	s.building = false
	return ref, err
}

// CombineAndPush is the common case of CombineInWorkspace followed by
// PushWorkspace, returning Null and false if the boxes don't overlap.
func (s *Store) CombineAndPush(ctx context.Context, a, b BoxRef) (BoxRef, bool, error) {
	ok, err := s.CombineInWorkspace(a, b)
	if err != nil {
		return Null, false, err
	}
	if !ok {
		return Null, false, nil
	}
	ref, err := s.PushWorkspace(ctx)
	if err != nil {
		return Null, false, err
	}
	return ref, true, nil
}

// push commits an arbitrary pair slice (used internally and by ensemble
// precompute, which builds leaf boxes directly rather than through the
// per-step workspace).
func (s *Store) push(ctx context.Context, pairs []box.Pair) (BoxRef, error) {
	if len(pairs) == 0 {
		return Null, nil
	}

	offset, raw, err := s.pairArena.AllocContext(ctx, len(pairs)*pairSize)
	if err != nil {
		if errors.Is(err, arena.ErrMaxChunksExceeded) {
			return Null, fmt.Errorf("%w: %v", ErrCapacityExceeded, err)
		}
		return Null, fmt.Errorf("boxstore: commit: %w", err)
	}

	dst := unsafe.Slice((*box.Pair)(unsafe.Pointer(&raw[0])), len(pairs)) //nolint:gosec
	copy(dst, pairs)

	return s.refFromOffset(offset, len(pairs)), nil
}

// PushPairs commits an externally-built, already-sorted pair slice directly,
// bypassing the workspace. Used by ensemble leaf-box precompute, which
// builds each node's box via its own DFS stack rather than the shared
// per-step workspace.
func (s *Store) PushPairs(ctx context.Context, pairs []box.Pair) (BoxRef, error) {
	return s.push(ctx, pairs)
}

// Get materializes the box.Box view for a committed BoxRef. The returned
// slice aliases arena memory and must not be retained past the Store's
// lifetime or a Reset.
func (s *Store) Get(ref BoxRef) box.Box {
	if ref.IsNull() {
		return box.Empty
	}
	const split = 32
	globalOffset := uint64(ref.block)<<split | uint64(ref.offset)
	ptr := s.pairArena.Get(globalOffset)
	return box.Box(unsafe.Slice((*box.Pair)(ptr), ref.length)) //nolint:gosec
}

// Stats exposes the underlying arena's usage for memory-ceiling monitoring.
func (s *Store) Stats() arena.Stats { return s.pairArena.Stats() }

// Reset clears all committed boxes and the workspace, retaining the first
// chunk for reuse. Used between redistribution rounds when a worker's boxes
// are being rebuilt from a shared pool, and between independent search
// sessions reusing a Store.
func (s *Store) Reset() {
	s.pairArena.Reset()
	s.workspace = s.workspace[:0]
	s.building = false
}

// Free releases all arena memory.
func (s *Store) Free() { s.pairArena.Free() }

func (s *Store) refFromOffset(globalOffset uint64, length int) BoxRef {
	// The arena's global offset already encodes (chunkIndex << chunkBits) |
	// chunkOffset; boxstore doesn't need to know that geometry, it only
	// needs a value round-trippable through Get, so block/offset here are
	// simply the high/low halves of the arena's opaque uint64 offset.
	const split = 32
	return BoxRef{
		block:  uint32(globalOffset >> split),
		offset: uint32(globalOffset),
		length: uint32(length), //nolint:gosec
	}
}
