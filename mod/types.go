package mod

import "bytes"

// Header is the parsed 40-byte module header.
//
// The layout invariant TotalUnits == ResidentUnits + ColdUnits holds for any
// header accepted by ParseHeader. BSSUnits counts zero-filled space at the
// end of the resident region; it occupies file space but its content is
// ignored and rewritten at load.
type Header struct {
	Version           uint16
	TotalUnits        uint16
	ResidentUnits     uint16
	ColdUnits         uint16
	BSSUnits          uint16
	AlignmentUnits    uint16
	RelocCount        uint16
	RelocTableOffset  uint32
	ExportCount       uint16
	ExportTableOffset uint32
	InitEntryOffset   uint32
	HeaderChecksum    uint32
	ImageChecksum     uint32
}

// TotalBytes returns the full image size in bytes.
func (h *Header) TotalBytes() uint32 {
	return uint32(h.TotalUnits) * UnitSize
}

// ResidentBytes returns the size of the region retained after discard.
func (h *Header) ResidentBytes() uint32 {
	return uint32(h.ResidentUnits) * UnitSize
}

// ColdBytes returns the size of the init-only region freed after discard.
func (h *Header) ColdBytes() uint32 {
	return uint32(h.ColdUnits) * UnitSize
}

// BSSBytes returns the size of the zero-filled region.
func (h *Header) BSSBytes() uint32 {
	return uint32(h.BSSUnits) * UnitSize
}

// AlignmentBytes returns the required allocation alignment in bytes.
func (h *Header) AlignmentBytes() uint32 {
	return uint32(h.AlignmentUnits) * UnitSize
}

// RelocationEntry is one parsed relocation table entry.
type RelocationEntry struct {
	PatchOffset uint32
	Kind        RelocKind
}

// ExportEntry is one parsed export table entry. RawName keeps the on-disk
// fixed-width bytes; Name trims at the first NUL.
type ExportEntry struct {
	RawName [ExportNameSize]byte
	Offset  uint16
	Flags   uint16
}

// Name returns the export's symbol name, truncated at the first NUL byte.
func (e *ExportEntry) Name() string {
	if i := bytes.IndexByte(e.RawName[:], 0); i >= 0 {
		return string(e.RawName[:i])
	}
	return string(e.RawName[:])
}

// IsCleanup reports whether this export is the module's cleanup entry.
func (e *ExportEntry) IsCleanup() bool {
	return e.Flags&SymbolFlagCleanup != 0
}
