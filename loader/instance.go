package loader

import (
	"github.com/modware/mod-runtime/alloc"
	"github.com/modware/mod-runtime/mod"
)

// State identifies where a module instance stands in its lifecycle.
type State uint8

const (
	// StateDiscovered means the instance exists but its image has not been
	// inspected yet.
	StateDiscovered State = iota
	// StateValidated means the header and image passed every structural check.
	StateValidated
	// StateAllocated means a memory block of the image's total size is held.
	StateAllocated
	// StateLoaded means the image bytes are in place and BSS is zero-filled.
	StateLoaded
	// StateRelocated means every relocation entry has been applied.
	StateRelocated
	// StateSymbolsPublished means the instance's exports are resolvable.
	StateSymbolsPublished
	// StateResident means the init entry completed and the module is live.
	StateResident
	// StateUnloading means teardown is in progress.
	StateUnloading
	// StateFreed is terminal: symbols revoked, memory returned.
	StateFreed
	// StateFailed is terminal: a lifecycle step failed and every completed
	// step was unwound.
	StateFailed
)

var stateNames = [...]string{
	StateDiscovered:       "discovered",
	StateValidated:        "validated",
	StateAllocated:        "allocated",
	StateLoaded:           "loaded",
	StateRelocated:        "relocated",
	StateSymbolsPublished: "symbols_published",
	StateResident:         "resident",
	StateUnloading:        "unloading",
	StateFreed:            "freed",
	StateFailed:           "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// terminal reports whether no further transition can leave s.
func (s State) terminal() bool {
	return s == StateFreed || s == StateFailed
}

// Footprint is a module's memory demand in 16-byte units.
type Footprint struct {
	// TotalUnits is what the module occupies right now. After a cold
	// discard it shrinks to ResidentUnits.
	TotalUnits uint16
	// ResidentUnits is what the module keeps for its whole lifetime.
	ResidentUnits uint16
}

// Module is a handle to one loaded instance. All mutation goes through the
// owning Loader; the handle itself only exposes read access.
type Module struct {
	id    uint32
	name  string
	state State

	header *mod.Header
	block  alloc.Block

	published bool
	discarded bool

	// cleanupOffset is the image offset of the cleanup entry export, or 0
	// when the module declared none.
	cleanupOffset uint32
	hasCleanup    bool
}

// ID returns the instance identifier the loader assigned.
func (m *Module) ID() uint32 { return m.id }

// Name returns the source name the instance was loaded from.
func (m *Module) Name() string { return m.name }

// State returns the instance's current lifecycle state.
func (m *Module) State() State { return m.state }

// Base returns the address the module's image was placed at. It is only
// meaningful once the instance reached StateAllocated.
func (m *Module) Base() uint32 { return m.block.Base }

// Discarded reports whether the module's cold region has been released.
func (m *Module) Discarded() bool { return m.discarded }

func (m *Module) footprint() Footprint {
	f := Footprint{
		TotalUnits:    m.header.TotalUnits,
		ResidentUnits: m.header.ResidentUnits,
	}
	if m.discarded {
		f.TotalUnits = m.header.ResidentUnits
	}
	return f
}
