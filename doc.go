// Package modruntime is the root of a runtime loader for relocatable module
// images.
//
// A module image is a single self-describing file: a fixed header, payload
// laid out in 16-byte units, a relocation table, an export table, and an
// optional init entry. The loader validates an image, places it in a managed
// arena, patches its base-relative references, publishes its exports, runs
// its init entry, and can later release the init-only tail or unload the
// module entirely.
//
// The packages are organized by lifecycle responsibility:
//
//	mod-runtime/
//	├── mod/        Image format: header, tables, checksums, a test builder
//	├── alloc/      Arena allocation over a flat address space
//	├── symbol/     Atomic publication and lookup of exported symbols
//	├── loader/     Lifecycle control from validation to unload
//	├── entrywasm/  WebAssembly entry point execution via wazero
//	├── source/     Filesystem image sources and discovery
//	├── config/     HCL host configuration
//	├── errors/     Structured phase and kind errors
//	└── cmd/modload CLI and interactive TUI
//
// # Quick Start
//
//	l := loader.New(&loader.Config{Invoker: entrywasm.New()})
//
//	src, err := source.Open("pktdrv.mod")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := l.Load(ctx, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	addr, ok := l.Resolve("API")
//
//	// Once the module is up, its init-only region can be released.
//	err = l.DiscardCold(m)
//
// Every failure path unwinds completely: a rejected image leaves no
// allocation and no published symbol behind.
package modruntime
