package mod

import (
	"encoding/binary"

	"github.com/modware/mod-runtime/errors"
)

// Builder assembles a well-formed module image: it lays out the payload,
// export table, and relocation table, then fixes up both checksums. It is
// used by the inspection tooling and by tests that need crafted images.
//
// Tables are placed at the tail of the cold region so they are discarded
// with it after init. A module without a cold region gets its tables at the
// tail of the resident region, just before the BSS (which is zero-filled at
// load and would wipe them).
type Builder struct {
	version         uint16
	totalUnits      uint16
	residentUnits   uint16
	coldUnits       uint16
	bssUnits        uint16
	alignmentUnits  uint16
	initEntryOffset uint32

	writes  []payloadWrite
	relocs  []RelocationEntry
	exports []ExportEntry
	err     error
}

type payloadWrite struct {
	offset uint32
	data   []byte
}

// NewBuilder creates a Builder with a minimal single-unit layout.
func NewBuilder() *Builder {
	return &Builder{
		version:        Version,
		totalUnits:     4,
		residentUnits:  4,
		alignmentUnits: 1,
	}
}

// SetLayout sets the image's unit geometry. total must equal resident+cold.
func (b *Builder) SetLayout(total, resident, cold, bss, alignment uint16) *Builder {
	b.totalUnits = total
	b.residentUnits = resident
	b.coldUnits = cold
	b.bssUnits = bss
	b.alignmentUnits = alignment
	return b
}

// SetVersion overrides the format version written to the header.
func (b *Builder) SetVersion(v uint16) *Builder {
	b.version = v
	return b
}

// SetInitEntry sets the init entry point offset. Zero means no init entry.
func (b *Builder) SetInitEntry(offset uint32) *Builder {
	b.initEntryOffset = offset
	return b
}

// Write places payload bytes at the given image offset.
func (b *Builder) Write(offset uint32, data []byte) *Builder {
	b.writes = append(b.writes, payloadWrite{offset, data})
	return b
}

// AddExport appends an export table entry. Names longer than the fixed
// on-disk width are rejected, not truncated.
func (b *Builder) AddExport(name string, offset, flags uint16) *Builder {
	if b.err == nil {
		if name == "" || len(name) > ExportNameSize {
			b.err = errors.New(errors.PhaseValidate, errors.KindBadSymbolName).
				Symbol(name).
				Detail("export names must be 1..%d bytes", ExportNameSize).
				Build()
			return b
		}
	}
	var e ExportEntry
	copy(e.RawName[:], name)
	e.Offset = offset
	e.Flags = flags
	b.exports = append(b.exports, e)
	return b
}

// AddRelocation appends a relocation table entry.
func (b *Builder) AddRelocation(patchOffset uint32, kind RelocKind) *Builder {
	b.relocs = append(b.relocs, RelocationEntry{PatchOffset: patchOffset, Kind: kind})
	return b
}

// Build assembles the image and verifies it round-trips through the
// validator.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	h := Header{
		Version:         b.version,
		TotalUnits:      b.totalUnits,
		ResidentUnits:   b.residentUnits,
		ColdUnits:       b.coldUnits,
		BSSUnits:        b.bssUnits,
		AlignmentUnits:  b.alignmentUnits,
		InitEntryOffset: b.initEntryOffset,
		RelocCount:      uint16(len(b.relocs)),
		ExportCount:     uint16(len(b.exports)),
	}

	total := h.TotalBytes()

	// Tables sit at the end of the discardable region, or before the BSS
	// when there is nothing to discard.
	tablesEnd := total
	if b.coldUnits == 0 {
		tablesEnd = h.ResidentBytes() - h.BSSBytes()
	}
	relocSize := uint32(len(b.relocs)) * RelocEntrySize
	exportSize := uint32(len(b.exports)) * ExportEntrySize
	if relocSize+exportSize > tablesEnd || tablesEnd-relocSize-exportSize < HeaderSize {
		return nil, errors.BadLayout("tables of %d bytes do not fit the image layout", relocSize+exportSize)
	}
	h.RelocTableOffset = tablesEnd - relocSize
	h.ExportTableOffset = h.RelocTableOffset - exportSize
	if len(b.relocs) == 0 {
		h.RelocTableOffset = 0
	}
	if len(b.exports) == 0 {
		h.ExportTableOffset = 0
	}

	img := make([]byte, total)
	b.encodeHeader(&h, img)

	tablesStart := tablesEnd - relocSize - exportSize
	for _, w := range b.writes {
		end := uint64(w.offset) + uint64(len(w.data))
		if w.offset < HeaderSize || end > uint64(tablesStart) {
			return nil, errors.BadLayout("payload write [%d, %d) collides with header or tables", w.offset, end)
		}
		copy(img[w.offset:], w.data)
	}

	off := h.ExportTableOffset
	for i := range b.exports {
		copy(img[off:], b.exports[i].RawName[:])
		binary.LittleEndian.PutUint16(img[off+8:], b.exports[i].Offset)
		binary.LittleEndian.PutUint16(img[off+10:], b.exports[i].Flags)
		off += ExportEntrySize
	}
	off = h.RelocTableOffset
	for i := range b.relocs {
		binary.LittleEndian.PutUint32(img[off:], b.relocs[i].PatchOffset)
		img[off+4] = byte(b.relocs[i].Kind)
		off += RelocEntrySize
	}

	binary.LittleEndian.PutUint32(img[headerChecksumOffset:], ChecksumHeader(img))
	binary.LittleEndian.PutUint32(img[imageChecksumOffset:], ChecksumImage(img))

	parsed, err := ParseHeader(img)
	if err != nil {
		return nil, err
	}
	if err := ValidateImage(parsed, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (b *Builder) encodeHeader(h *Header, img []byte) {
	copy(img, Signature)
	binary.LittleEndian.PutUint16(img[4:], h.Version)
	binary.LittleEndian.PutUint16(img[6:], h.TotalUnits)
	binary.LittleEndian.PutUint16(img[8:], h.ResidentUnits)
	binary.LittleEndian.PutUint16(img[10:], h.ColdUnits)
	binary.LittleEndian.PutUint16(img[12:], h.BSSUnits)
	binary.LittleEndian.PutUint16(img[14:], h.AlignmentUnits)
	binary.LittleEndian.PutUint16(img[16:], h.RelocCount)
	binary.LittleEndian.PutUint32(img[18:], h.RelocTableOffset)
	binary.LittleEndian.PutUint16(img[22:], h.ExportCount)
	binary.LittleEndian.PutUint32(img[24:], h.ExportTableOffset)
	binary.LittleEndian.PutUint32(img[28:], h.InitEntryOffset)
	// Checksum fields filled in after the full image is laid out.
}
