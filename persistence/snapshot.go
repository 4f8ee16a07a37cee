// Package persistence checkpoints a running search session to a
// blobstore.BlobStore and lets distributed workers discover each other's
// best solution through a SolutionLedger: a production search session that
// runs for hours across a worker pool needs a way to survive a restart and
// a way to report out.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dtaikl/treeverify/blobstore"
	"github.com/dtaikl/treeverify/persistence/codec"
	"github.com/dtaikl/treeverify/search"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a durable point-in-time capture of one search session: its
// progress summary plus every solution it had emitted at capture time.
type Snapshot struct {
	SessionID string
	Taken     time.Time
	Progress  search.Snapshot
	Solutions []search.Solution
}

// Exporter writes Snapshots to a blobstore.BlobStore and maintains a
// "latest" pointer alongside a sequence-numbered archive copy of each one, so a
// reader can always find the most recent checkpoint without listing.
type Exporter struct {
	store blobstore.BlobStore
	codec codec.Codec
	// Prefix namespaces this exporter's keys, so several sessions can
	// share one bucket ("sessions/<id>/").
	Prefix string
}

// NewExporter builds an Exporter over store. A nil codec uses
// codec.Default (JSON+zstd).
func NewExporter(store blobstore.BlobStore, c codec.Codec, prefix string) *Exporter {
	if c == nil {
		c = codec.Default
	}
	return &Exporter{store: store, codec: c, Prefix: prefix}
}

func (e *Exporter) latestKey(sessionID string) string {
	return fmt.Sprintf("%s%s/latest.%s", e.Prefix, sessionID, e.codec.Name())
}

func (e *Exporter) archiveKey(sessionID string, seq int) string {
	return fmt.Sprintf("%s%s/snapshot-%06d.%s", e.Prefix, sessionID, seq, e.codec.Name())
}

// WriteCheckpoint writes snap to both its archive slot (numbered by seq) and the
// session's "latest" pointer, concurrently: the two writes are independent
// and a reader following "latest" never needs the archive to exist.
func (e *Exporter) WriteCheckpoint(ctx context.Context, snap Snapshot, seq int) error {
	raw, err := e.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}
	data := checksumFrame(raw)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.store.Put(ctx, e.archiveKey(snap.SessionID, seq), data)
	})
	g.Go(func() error {
		return e.store.Put(ctx, e.latestKey(snap.SessionID), data)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("persistence: write checkpoint: %w", err)
	}
	return nil
}

// ReadLatest returns the most recent checkpoint written for sessionID.
func (e *Exporter) ReadLatest(ctx context.Context, sessionID string) (Snapshot, error) {
	return e.read(ctx, e.latestKey(sessionID))
}

// ReadArchived returns the seq'th checkpoint written for sessionID.
func (e *Exporter) ReadArchived(ctx context.Context, sessionID string, seq int) (Snapshot, error) {
	return e.read(ctx, e.archiveKey(sessionID, seq))
}

func (e *Exporter) read(ctx context.Context, key string) (Snapshot, error) {
	b, err := e.store.Open(ctx, key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("persistence: open %s: %w", key, err)
	}
	defer b.Close()

	framed := make([]byte, b.Size())
	if _, err := b.ReadAt(ctx, framed, 0); err != nil {
		return Snapshot{}, fmt.Errorf("persistence: read %s: %w", key, err)
	}
	data, err := checksumUnframe(framed)
	if err != nil {
		return Snapshot{}, fmt.Errorf("persistence: %s: %w", key, err)
	}

	var snap Snapshot
	if err := e.codec.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("persistence: unmarshal %s: %w", key, err)
	}
	return snap, nil
}
