package mod

import (
	"sort"

	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/mod/internal/binary"
)

// ValidateImage checks the parts of an image that require the full bytes:
// declared length, image checksum, export names, and relocation overlap.
// Out-of-bounds patch offsets and unknown relocation kinds are deliberately
// left to the relocation engine, which reports them as relocation errors.
func ValidateImage(h *Header, data []byte) error {
	if uint32(len(data)) != h.TotalBytes() {
		return errors.BadLayout("source length %d does not match declared %d bytes", len(data), h.TotalBytes())
	}

	if got := ChecksumImage(data); got != h.ImageChecksum {
		return errors.ChecksumMismatch(errors.PhaseValidate, "image", h.ImageChecksum, got)
	}

	exports, err := ParseExports(h, data)
	if err != nil {
		return err
	}
	for i := range exports {
		if exports[i].Name() == "" {
			return errors.New(errors.PhaseValidate, errors.KindBadSymbolName).
				Detail("export %d has an empty name", i).Build()
		}
		if uint32(exports[i].Offset) >= h.TotalBytes() {
			return errors.BadLayout("export %q offset %d outside image of %d bytes",
				exports[i].Name(), exports[i].Offset, h.TotalBytes())
		}
	}

	relocs, err := ParseRelocations(h, data)
	if err != nil {
		return err
	}
	return checkRelocOverlap(relocs)
}

// checkRelocOverlap rejects any two writing entries whose patched field
// ranges intersect. The format leaves overlapping targets undefined, so they
// are refused here, before any patch is applied. OffsetOnly entries never
// write and never conflict. Entries with unknown kinds are skipped; the
// relocation engine rejects them itself.
func checkRelocOverlap(relocs []RelocationEntry) error {
	type span struct {
		start, end uint32
		index      int
	}
	spans := make([]span, 0, len(relocs))
	for i, re := range relocs {
		if !re.Kind.Known() || !re.Kind.writes() {
			continue
		}
		start, end := re.patchedRange()
		spans = append(spans, span{start, end, i})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return errors.New(errors.PhaseValidate, errors.KindOverlap).
				Detail("relocation entries %d and %d patch overlapping fields at offset %d",
					spans[i-1].index, spans[i].index, spans[i].start).
				Build()
		}
	}
	return nil
}

// patchedRange returns the byte range the entry's patch writes to.
func (e *RelocationEntry) patchedRange() (start, end uint32) {
	if e.Kind == RelocBaseAndOffset {
		// Far pointer: offset word untouched, base word at +2.
		return e.PatchOffset + 2, e.PatchOffset + 4
	}
	return e.PatchOffset, e.PatchOffset + e.Kind.Width()
}

// ParseRelocations reads the relocation table from the image in file order.
func ParseRelocations(h *Header, data []byte) ([]RelocationEntry, error) {
	if h.RelocCount == 0 {
		return nil, nil
	}
	r := binary.NewReader(data)
	if err := r.Seek(int(h.RelocTableOffset)); err != nil {
		return nil, r.WrapError("relocation table", err)
	}

	relocs := make([]RelocationEntry, h.RelocCount)
	for i := range relocs {
		off, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("relocation table", err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("relocation table", err)
		}
		if err := r.Skip(3); err != nil {
			return nil, r.WrapError("relocation table", err)
		}
		relocs[i] = RelocationEntry{PatchOffset: off, Kind: RelocKind(kind)}
	}
	return relocs, nil
}

// ParseExports reads the export table from the image in file order.
func ParseExports(h *Header, data []byte) ([]ExportEntry, error) {
	if h.ExportCount == 0 {
		return nil, nil
	}
	r := binary.NewReader(data)
	if err := r.Seek(int(h.ExportTableOffset)); err != nil {
		return nil, r.WrapError("export table", err)
	}

	exports := make([]ExportEntry, h.ExportCount)
	for i := range exports {
		name, err := r.ReadBytes(ExportNameSize)
		if err != nil {
			return nil, r.WrapError("export table", err)
		}
		copy(exports[i].RawName[:], name)
		if exports[i].Offset, err = r.ReadU16(); err != nil {
			return nil, r.WrapError("export table", err)
		}
		if exports[i].Flags, err = r.ReadU16(); err != nil {
			return nil, r.WrapError("export table", err)
		}
	}
	return exports, nil
}
