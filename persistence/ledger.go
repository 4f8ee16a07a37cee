package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtaikl/treeverify/blobstore"
	"github.com/dtaikl/treeverify/persistence/codec"
	"github.com/dtaikl/treeverify/search"
)

// ErrNoEntry is returned when a SolutionLedger has never been posted to.
var ErrNoEntry = errors.New("persistence: solution ledger has no entry")

// LedgerEntry is one worker's report of its current best solution, posted
// to a SolutionLedger for other workers (or operators) to discover.
type LedgerEntry struct {
	SessionID string
	Posted    time.Time
	Solution  search.Solution
	Lo, Hi    float64
}

// SolutionLedger is a shared "current best" pointer multiple search
// sessions verifying shards of one ensemble can post to and read from,
// adapted from blobstore/s3's DynamoDB-backed commit scheme:
// a blobstore.BlobStore whose "CURRENT" key (or equivalent, backed by
// s3.DDBCommitStore) gives atomic conditional writes. Any plain
// blobstore.BlobStore works too; it just loses the atomicity guarantee
// and PostIfBetter's retry loop degenerates to last-writer-wins.
type SolutionLedger struct {
	store blobstore.BlobStore
	codec codec.Codec
	key   string
}

// NewSolutionLedger builds a SolutionLedger over store's key. A nil codec
// uses codec.Default.
func NewSolutionLedger(store blobstore.BlobStore, c codec.Codec, key string) *SolutionLedger {
	if c == nil {
		c = codec.Default
	}
	if key == "" {
		key = "CURRENT"
	}
	return &SolutionLedger{store: store, codec: c, key: key}
}

// Post unconditionally overwrites the ledger with entry.
func (l *SolutionLedger) Post(ctx context.Context, entry LedgerEntry) error {
	raw, err := l.codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("persistence: marshal ledger entry: %w", err)
	}
	return l.store.Put(ctx, l.key, checksumFrame(raw))
}

// Current returns the ledger's current entry, or ErrNoEntry if nothing has
// been posted yet.
func (l *SolutionLedger) Current(ctx context.Context) (LedgerEntry, error) {
	b, err := l.store.Open(ctx, l.key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return LedgerEntry{}, ErrNoEntry
		}
		return LedgerEntry{}, fmt.Errorf("persistence: open ledger: %w", err)
	}
	defer b.Close()

	framed := make([]byte, b.Size())
	if _, err := b.ReadAt(ctx, framed, 0); err != nil {
		return LedgerEntry{}, fmt.Errorf("persistence: read ledger: %w", err)
	}
	data, err := checksumUnframe(framed)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("persistence: ledger: %w", err)
	}

	var entry LedgerEntry
	if err := l.codec.Unmarshal(data, &entry); err != nil {
		return LedgerEntry{}, fmt.Errorf("persistence: unmarshal ledger entry: %w", err)
	}
	return entry, nil
}

// PostIfBetter posts entry only if no entry exists yet or entry's solution
// output exceeds the current one. On a backend that surfaces
// blobstore.ErrConcurrentModification for a racing writer (s3.DDBCommitStore),
// it re-reads and retries rather than clobbering a concurrently-posted,
// possibly-better entry; the ledger itself never retries against any other
// failure.
func (l *SolutionLedger) PostIfBetter(ctx context.Context, entry LedgerEntry) error {
	for {
		cur, err := l.Current(ctx)
		if err != nil && !errors.Is(err, ErrNoEntry) {
			return err
		}
		if err == nil && cur.Solution.Output >= entry.Solution.Output {
			return nil
		}

		err = l.Post(ctx, entry)
		if err == nil {
			return nil
		}
		if errors.Is(err, blobstore.ErrConcurrentModification) {
			continue
		}
		return err
	}
}
