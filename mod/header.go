package mod

import (
	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/mod/internal/binary"
)

// ParseHeader parses and sanity-checks a module header. It is a pure
// function of the first HeaderSize bytes of data: no allocation beyond the
// returned struct, no side effects. The image checksum is NOT verified here
// because the full image may not be available yet; use ValidateImage once
// it is.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, errors.BadLayout("header requires %d bytes, have %d", HeaderSize, len(data))
	}

	r := binary.NewReader(data[:HeaderSize])

	sig, _ := r.ReadBytes(4)
	if string(sig) != Signature {
		return nil, errors.BadSignature(sig)
	}

	h := &Header{}
	h.Version, _ = r.ReadU16()
	h.TotalUnits, _ = r.ReadU16()
	h.ResidentUnits, _ = r.ReadU16()
	h.ColdUnits, _ = r.ReadU16()
	h.BSSUnits, _ = r.ReadU16()
	h.AlignmentUnits, _ = r.ReadU16()
	h.RelocCount, _ = r.ReadU16()
	h.RelocTableOffset, _ = r.ReadU32()
	h.ExportCount, _ = r.ReadU16()
	h.ExportTableOffset, _ = r.ReadU32()
	h.InitEntryOffset, _ = r.ReadU32()
	h.HeaderChecksum, _ = r.ReadU32()
	h.ImageChecksum, _ = r.ReadU32()

	if got := ChecksumHeader(data); got != h.HeaderChecksum {
		return nil, errors.ChecksumMismatch(errors.PhaseValidate, "header", h.HeaderChecksum, got)
	}

	if h.Version>>8 != Version>>8 {
		return nil, errors.BadVersion(h.Version)
	}

	if err := h.checkLayout(); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Header) checkLayout() error {
	if h.TotalUnits == 0 || h.ResidentUnits == 0 {
		return errors.BadLayout("total_units and resident_units must be non-zero")
	}
	if uint32(h.ResidentUnits)+uint32(h.ColdUnits) != uint32(h.TotalUnits) {
		return errors.BadLayout("total_units %d != resident_units %d + cold_units %d",
			h.TotalUnits, h.ResidentUnits, h.ColdUnits)
	}
	if h.BSSUnits > h.ResidentUnits {
		return errors.BadLayout("bss_units %d exceeds resident_units %d", h.BSSUnits, h.ResidentUnits)
	}
	if h.AlignmentUnits == 0 || h.AlignmentUnits&(h.AlignmentUnits-1) != 0 {
		return errors.BadLayout("alignment_units %d is not a power of two", h.AlignmentUnits)
	}

	total := h.TotalBytes()
	if h.ResidentBytes() < HeaderSize {
		return errors.BadLayout("resident region of %d bytes cannot hold the header", h.ResidentBytes())
	}
	if h.RelocCount > 0 {
		end := uint64(h.RelocTableOffset) + uint64(h.RelocCount)*RelocEntrySize
		if h.RelocTableOffset < HeaderSize || end > uint64(total) {
			return errors.BadLayout("relocation table [%d, %d) outside image of %d bytes",
				h.RelocTableOffset, end, total)
		}
	}
	if h.ExportCount > 0 {
		end := uint64(h.ExportTableOffset) + uint64(h.ExportCount)*ExportEntrySize
		if h.ExportTableOffset < HeaderSize || end > uint64(total) {
			return errors.BadLayout("export table [%d, %d) outside image of %d bytes",
				h.ExportTableOffset, end, total)
		}
	}
	if h.InitEntryOffset != 0 && h.InitEntryOffset >= total {
		return errors.BadLayout("init entry offset %d outside image of %d bytes", h.InitEntryOffset, total)
	}
	return nil
}
