package loader

import (
	"encoding/binary"

	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/mod"
)

// applyRelocations patches data in place so the image works at baseUnits.
// Entries are applied in table order; the first bad entry aborts and earlier
// patches are not rolled back, since the caller discards the block on error.
func applyRelocations(data []byte, baseUnits uint16, relocs []mod.RelocationEntry) error {
	size := uint32(len(data))
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], baseUnits)

	for i, re := range relocs {
		if !re.Kind.Known() {
			return errors.UnknownRelocKind(i, uint8(re.Kind))
		}
		w := re.Kind.Width()
		if re.PatchOffset > size || size-re.PatchOffset < w {
			return errors.RelocOutOfBounds(i, re.PatchOffset, w, size)
		}
		switch re.Kind {
		case mod.RelocBaseAndOffset:
			// Far reference: offset word stays, base word follows it.
			copy(data[re.PatchOffset+2:re.PatchOffset+4], buf[:])
		case mod.RelocBaseOnly:
			copy(data[re.PatchOffset:re.PatchOffset+2], buf[:])
		case mod.RelocOffsetOnly:
			// Offsets are position independent within the image.
		}
	}
	return nil
}
