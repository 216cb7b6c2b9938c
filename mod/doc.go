// Package mod implements the relocatable module image format.
//
// A module image is a flat binary with a fixed 40-byte little-endian header
// followed by code, data, the export table, and the relocation table. Sizes
// and alignments are expressed in 16-byte allocation units. The header
// carries two CRC-32 checksums: one over the header alone and one over the
// whole image, each computed with the checksum fields zeroed.
//
// # Parsing
//
//	hdr, err := mod.ParseHeader(data)       // header checks only, pure
//	err = mod.ValidateImage(hdr, data)      // length, image checksum, tables
//	relocs, err := mod.ParseRelocations(hdr, data)
//	exports, err := mod.ParseExports(hdr, data)
//
// # Building
//
// Builder assembles well-formed images, fixing up table offsets and both
// checksums:
//
//	b := mod.NewBuilder()
//	b.SetLayout(10, 6, 4, 1, 1)
//	b.AddExport("FOO", 0x40, mod.SymbolFlagFunction)
//	b.AddRelocation(0x20, mod.RelocBaseOnly)
//	img, err := b.Build()
package mod
