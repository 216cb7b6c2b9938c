// Package entrywasm runs module entry points that ship as WebAssembly.
//
// An entry payload is embedded in the module image at the header's init
// entry offset: a 4-byte little-endian length followed by a wasm binary.
// The binary must export an `init` function of type () -> i32 and may
// export a `cleanup` function of the same type. A zero result means
// success.
//
// Entry code reaches the host through the "host" import module:
//
//	resolve(ptr, len u32) -> u32   look up a published symbol by name
//	log(ptr, len u32)              write a message through the host logger
//
// Placing the payload in the image's cold region lets the whole entry
// machinery be discarded once the module is resident.
package entrywasm
