// Package alloc provides the physical memory substrate beneath the module
// loader: a flat, fixed-size address space carved out by a first-fit arena.
//
// There is no virtual memory. Allocate hands back a contiguous, aligned
// Block addressed by a 32-bit byte address inside the arena; Free returns
// any previously allocated subrange, which is what lets the loader release
// a module's cold tail while the resident head stays put.
//
// Recorder wraps an Allocator and counts calls, for tests that assert the
// loader's no-leak guarantees.
package alloc
