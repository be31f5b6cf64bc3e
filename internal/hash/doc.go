// Package hash provides the hashing utilities of the store.
//
// # Content hashes
//
// Content hashes feed the hash index and only need to be stable within one
// process. They use xxhash (github.com/cespare/xxhash/v2):
//
//	h := hash.Bytes(data)
//	h = hash.Combine(h, hash.String(name))
//
// # Checksums
//
// Snapshot frames are protected with CRC32-Castagnoli, which Go's hash/crc32
// accelerates on x86 (SSE4.2) and ARM (CRC extension):
//
//	sum := hash.CRC32C(body)
package hash
