// Package bitset provides the word bitset and free-slot list used by slot tables.
//
// Architecture:
//   - BitSet: plain []uint64 words, grown by doubling, with highest/lowest set-bit
//     queries built on math/bits.
//   - FreeList: a BitSet plus a cursor at the highest free index, so that
//     TakeHighest is O(1) amortized and reuse prefers the top of the table.
//
// Neither type is safe for concurrent mutation; slot tables are single-writer.
package bitset
