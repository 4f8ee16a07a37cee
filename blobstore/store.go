package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrConcurrentModification is returned by a Put to a backend that gives a
// key atomic conditional-write semantics (e.g. s3.DDBCommitStore's
// "CURRENT" pointer) when another writer committed first. The caller is
// expected to re-read the current value and retry, not the store itself.
var ErrConcurrentModification = errors.New("blobstore: key was concurrently modified, re-read and retry")

// BlobStore is an abstraction for reading and writing checkpoint/export
// blobs (snapshots, solution-ledger manifests).
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create opens a blob for streaming writes. The blob is not visible to
	// Open/List until Close succeeds.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically in one call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns every blob name with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadAt reads len(p) bytes starting at off, the same contract as
	// io.ReaderAt but context-aware for remote backends.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over [off, off+length), clamped to the
	// blob's size, without the caller providing its own buffer — avoids
	// a copy on backends (local mmap, S3 range-GET) that can stream
	// directly into the returned reader.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a handle to a blob being written. Write may be called any
// number of times before Close; the blob is only durable once Close
// returns without error.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes buffered writes without closing the blob.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}
