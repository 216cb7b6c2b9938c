package mod

// Image format constants.
const (
	// Signature identifies a module image. Stored at offset 0.
	Signature = "MD64"

	// Version is the current format version. The major version (high byte)
	// must match for an image to load.
	Version uint16 = 0x0100

	// UnitSize is the allocation unit granularity in bytes. All sizes and
	// alignments in the header are expressed in these units.
	UnitSize = 16

	// HeaderSize is the fixed size of the on-disk header in bytes.
	HeaderSize = 40

	// RelocEntrySize is the on-disk stride of one relocation entry:
	// 4-byte patch offset, 1-byte kind, 3 pad bytes.
	RelocEntrySize = 8

	// ExportEntrySize is the on-disk stride of one export entry:
	// 8-byte name, 2-byte offset, 2-byte flags.
	ExportEntrySize = 12

	// ExportNameSize is the fixed width of an export name on disk.
	ExportNameSize = 8
)

// Header checksum field positions, needed to zero them during checksumming.
const (
	headerChecksumOffset = 32
	imageChecksumOffset  = 36
)

// RelocKind identifies how a relocation entry patches the image.
type RelocKind uint8

const (
	// RelocBaseAndOffset patches the base word of a 4-byte far pointer
	// (module-relative offset word followed by base word). The offset word
	// is left untouched.
	RelocBaseAndOffset RelocKind = 1

	// RelocBaseOnly patches a bare 2-byte base word.
	RelocBaseOnly RelocKind = 2

	// RelocOffsetOnly is a no-op: module-relative offsets need no patching.
	// Entries of this kind exist so the table is a complete record of every
	// address-bearing field.
	RelocOffsetOnly RelocKind = 3
)

func (k RelocKind) String() string {
	switch k {
	case RelocBaseAndOffset:
		return "base+offset"
	case RelocBaseOnly:
		return "base"
	case RelocOffsetOnly:
		return "offset"
	default:
		return "unknown"
	}
}

// Known reports whether k is a defined relocation kind.
func (k RelocKind) Known() bool {
	return k >= RelocBaseAndOffset && k <= RelocOffsetOnly
}

// Width returns the byte width of the patched field, used for bounds and
// overlap checks. OffsetOnly writes nothing but still names a 2-byte field.
func (k RelocKind) Width() uint32 {
	if k == RelocBaseAndOffset {
		return 4
	}
	return 2
}

// writes reports whether applying k modifies the image.
func (k RelocKind) writes() bool {
	return k == RelocBaseAndOffset || k == RelocBaseOnly
}

// Export symbol flags.
const (
	SymbolFlagFunction uint16 = 0x0001 // symbol is a routine
	SymbolFlagData     uint16 = 0x0002 // symbol is data
	SymbolFlagCleanup  uint16 = 0x0004 // symbol is the module's cleanup entry
)
