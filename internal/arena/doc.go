// Package arena provides an off-heap memory allocator for box-store data.
//
// The arena allocator eliminates GC pressure by using mmap-backed memory.
// It provides stable addresses for allocated records, enabling lock-free
// concurrent access.
//
// # Features
//
//   - Off-heap allocation via mmap (no GC pressure)
//   - 1MB default chunk size (DefaultChunkSize) for cache locality
//   - Generation tracking for safe memory reclamation
//   - ~4.2ns per allocation
//
// # Safety
//
// Allocation methods return errors instead of panicking. Get panics on a
// stale or out-of-range offset; GetSafe returns nil for a Ref whose
// generation is stale.
package arena
