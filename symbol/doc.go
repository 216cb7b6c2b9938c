// Package symbol implements the global symbol registry: one sorted table of
// every routine exported by every resident module.
//
// Publication is atomic per module: either every export in the batch enters
// the table or none does, so a module is never resolvable by half its
// interface. Lookup is a binary search. Revocation removes a module's whole
// batch, used during unload.
//
// # Thread Safety
//
// Registry is safe for concurrent use. Lookups from resident modules may
// race with a publish or revoke and will observe the table either entirely
// before or entirely after the mutation.
package symbol
