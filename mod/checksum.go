package mod

import "hash/crc32"

var zeroChecksums [8]byte

// ChecksumHeader computes the CRC-32 of the first HeaderSize bytes of data
// with both checksum fields treated as zero. data must hold at least
// HeaderSize bytes.
func ChecksumHeader(data []byte) uint32 {
	crc := crc32.ChecksumIEEE(data[:headerChecksumOffset])
	return crc32.Update(crc, crc32.IEEETable, zeroChecksums[:])
}

// ChecksumImage computes the CRC-32 of the whole image with both checksum
// fields treated as zero. data must hold at least HeaderSize bytes.
func ChecksumImage(data []byte) uint32 {
	crc := crc32.ChecksumIEEE(data[:headerChecksumOffset])
	crc = crc32.Update(crc, crc32.IEEETable, zeroChecksums[:])
	return crc32.Update(crc, crc32.IEEETable, data[HeaderSize:])
}
