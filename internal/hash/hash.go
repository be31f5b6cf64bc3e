package hash

import (
	"encoding/binary"
	"hash"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// Bytes returns the xxhash of b.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// String returns the xxhash of s without copying it.
func String(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Uint64 returns the xxhash of the little-endian encoding of v.
func Uint64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

// Combine mixes h2 into h1. The result depends on argument order.
func Combine(h1, h2 uint64) uint64 {
	// boost::hash_combine, widened to 64 bits.
	return h1 ^ (h2 + 0x9e3779b97f4a7c15 + (h1 << 6) + (h1 >> 2))
}
