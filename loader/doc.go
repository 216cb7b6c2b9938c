// Package loader drives relocatable module images through their lifecycle:
// validate, allocate, load, relocate, publish symbols, initialize, and
// eventually discard the init-only region or unload entirely.
//
// # Main Types
//
//   - Loader: owns the allocator, the symbol registry, and every module
//     instance it produced
//   - Module: one loaded instance, addressable by the handle Load returns
//   - Invoker: executes a module's init and cleanup entry points
//
// # Lifecycle
//
//	Discovered → Validated → Allocated → Loaded → Relocated →
//	SymbolsPublished → Resident → Unloading → Freed
//
// Failed is reachable from every non-terminal state. On any failure the
// loader unwinds completed steps in reverse: symbols revoked, memory freed.
// A failed load leaves no allocation and no registry entry behind.
//
// # Thread Safety
//
// Loader serializes lifecycle transitions; Resolve may be called
// concurrently with them and observes each module's symbols all-or-nothing.
package loader
