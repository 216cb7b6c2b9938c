package loader

import (
	"context"

	"go.uber.org/zap"
)

// ServicesVersion is the version of the service table handed to module
// entry points. Entry code that needs a newer table than the loader
// provides must fail its init rather than guess.
const ServicesVersion uint16 = 1

// Status is the integer result of a module entry point. Zero means success;
// any other value aborts the load (for init) or is logged (for cleanup).
type Status int32

// StatusOK is the success result of an entry point.
const StatusOK Status = 0

// EntryKind distinguishes the two entry points a module image can declare.
type EntryKind uint8

const (
	// EntryInit is the one-shot initialization entry.
	EntryInit EntryKind = iota
	// EntryCleanup is the optional pre-unload entry.
	EntryCleanup
)

func (k EntryKind) String() string {
	if k == EntryCleanup {
		return "cleanup"
	}
	return "init"
}

// Services is the fixed core service table passed to entry code. Entry
// points receive the whole table; there is no per-module negotiation.
type Services struct {
	// Version lets entry code verify it understands the table layout.
	Version uint16
	// Resolve looks up a published symbol by name.
	Resolve func(name string) (uint32, bool)
	// Log is the host logger the entry may write through.
	Log *zap.Logger
}

// EntryCall carries everything an Invoker needs to run one entry point.
type EntryCall struct {
	Kind EntryKind

	// ModuleID and ModuleName identify the instance being initialized.
	ModuleID   uint32
	ModuleName string

	// Memory is the module's own block, relocated and BSS-zeroed. For an
	// init call it still includes the cold region; for cleanup it may not.
	Memory []byte
	// Base is the address Memory starts at.
	Base uint32
	// Offset is the entry point's position within Memory.
	Offset uint32

	Services *Services
}

// Invoker executes module entry points. The loader itself has no opinion on
// what an entry payload looks like; an Invoker interprets the bytes at
// EntryCall.Offset and returns the entry's status.
type Invoker interface {
	Invoke(ctx context.Context, call EntryCall) (Status, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, call EntryCall) (Status, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, call EntryCall) (Status, error) {
	return f(ctx, call)
}
