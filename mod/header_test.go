package mod_test

import (
	"encoding/binary"
	"testing"

	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/mod"
)

func buildMinimal(t *testing.T) []byte {
	t.Helper()
	img, err := mod.NewBuilder().SetLayout(10, 6, 4, 0, 1).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return img
}

func TestParseHeaderMinimal(t *testing.T) {
	img := buildMinimal(t)
	h, err := mod.ParseHeader(img)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.TotalUnits != 10 || h.ResidentUnits != 6 || h.ColdUnits != 4 {
		t.Errorf("layout = %d/%d/%d, want 10/6/4", h.TotalUnits, h.ResidentUnits, h.ColdUnits)
	}
	if h.TotalBytes() != 160 {
		t.Errorf("TotalBytes = %d, want 160", h.TotalBytes())
	}
}

func TestParseHeaderTooShort(t *testing.T) {
	_, err := mod.ParseHeader(make([]byte, 10))
	if !errors.IsKind(err, errors.KindBadLayout) {
		t.Errorf("expected bad_layout, got %v", err)
	}
}

func TestParseHeaderBadSignature(t *testing.T) {
	img := buildMinimal(t)
	img[0] = 'X'
	_, err := mod.ParseHeader(img)
	if !errors.IsKind(err, errors.KindBadSignature) {
		t.Errorf("expected bad_signature, got %v", err)
	}
}

func TestParseHeaderBadVersion(t *testing.T) {
	img, err := mod.NewBuilder().SetLayout(4, 4, 0, 0, 1).SetVersion(0x0200).Build()
	if err == nil {
		_, err = mod.ParseHeader(img)
	}
	if !errors.IsKind(err, errors.KindBadVersion) {
		t.Errorf("expected bad_version, got %v", err)
	}
}

func TestParseHeaderChecksumCorruption(t *testing.T) {
	img := buildMinimal(t)
	// Flip a header byte without fixing up the checksum.
	img[6] ^= 0xFF
	_, err := mod.ParseHeader(img)
	if !errors.IsKind(err, errors.KindChecksumMismatch) {
		t.Errorf("expected checksum_mismatch, got %v", err)
	}
}

func TestParseHeaderLayoutErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(img []byte)
	}{
		{"total != resident+cold", func(img []byte) {
			binary.LittleEndian.PutUint16(img[8:], 7) // resident_units
		}},
		{"bss > resident", func(img []byte) {
			binary.LittleEndian.PutUint16(img[12:], 9) // bss_units
		}},
		{"alignment not power of two", func(img []byte) {
			binary.LittleEndian.PutUint16(img[14:], 3)
		}},
		{"zero alignment", func(img []byte) {
			binary.LittleEndian.PutUint16(img[14:], 0)
		}},
		{"init entry outside image", func(img []byte) {
			binary.LittleEndian.PutUint32(img[28:], 4096)
		}},
		{"reloc table outside image", func(img []byte) {
			binary.LittleEndian.PutUint16(img[16:], 1)   // reloc_count
			binary.LittleEndian.PutUint32(img[18:], 200) // reloc_table_offset
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := buildMinimal(t)
			tt.mutate(img)
			binary.LittleEndian.PutUint32(img[32:], mod.ChecksumHeader(img))
			_, err := mod.ParseHeader(img)
			if !errors.IsKind(err, errors.KindBadLayout) {
				t.Errorf("expected bad_layout, got %v", err)
			}
		})
	}
}

func TestChecksumsIgnoreChecksumFields(t *testing.T) {
	img := buildMinimal(t)
	before := mod.ChecksumImage(img)
	binary.LittleEndian.PutUint32(img[32:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(img[36:], 0xFFFFFFFF)
	if mod.ChecksumImage(img) != before {
		t.Error("image checksum must not cover the checksum fields")
	}
}
