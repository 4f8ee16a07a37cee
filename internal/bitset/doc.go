// Package bitset provides a lock-free segmented bitset for concurrent access.
//
// Architecture:
//   - Segmented design: 8KB segments (1024 uint64 words = 65536 bits each)
//   - Lock-free: atomic.Pointer for segment array, atomic.Uint64 for words
//   - Segments are allocated by New, Grow and ReadFrom; Set on a bit
//     beyond the allocated segments has no effect
//
// Used internally for:
//   - Driver handshake tracking (which workers have reached a
//     redistribution point)
package bitset
