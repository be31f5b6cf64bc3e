package bitset

import (
	"iter"
	"math/bits"
)

const (
	wordBits  = 64
	wordShift = 6
	wordMask  = wordBits - 1

	// minWords is the initial word count allocated on first Set.
	minWords = 2
)

// BitSet is a growable, non-thread-safe bitset.
type BitSet struct {
	words []uint64
	count int
}

// New creates a BitSet able to hold at least size bits without growing.
func New(size int) *BitSet {
	b := &BitSet{}
	if size > 0 {
		b.words = make([]uint64, (size+wordMask)>>wordShift)
	}
	return b
}

// Set sets bit i, growing the word storage by doubling if needed.
// It reports whether the bit was previously clear.
func (b *BitSet) Set(i uint32) bool {
	w := int(i >> wordShift)
	if w >= len(b.words) {
		b.grow(w + 1)
	}
	mask := uint64(1) << (i & wordMask)
	if b.words[w]&mask != 0 {
		return false
	}
	b.words[w] |= mask
	b.count++
	return true
}

// Clear clears bit i and reports whether it was previously set.
func (b *BitSet) Clear(i uint32) bool {
	w := int(i >> wordShift)
	if w >= len(b.words) {
		return false
	}
	mask := uint64(1) << (i & wordMask)
	if b.words[w]&mask == 0 {
		return false
	}
	b.words[w] &^= mask
	b.count--
	return true
}

// Test returns true if bit i is set.
func (b *BitSet) Test(i uint32) bool {
	w := int(i >> wordShift)
	if w >= len(b.words) {
		return false
	}
	return b.words[w]&(uint64(1)<<(i&wordMask)) != 0
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	return b.count
}

// Len returns the number of bits the current storage can hold.
func (b *BitSet) Len() int {
	return len(b.words) << wordShift
}

// Highest returns the highest set bit at or below i.
func (b *BitSet) Highest(i uint32) (uint32, bool) {
	if b.count == 0 {
		return 0, false
	}
	w := int(i >> wordShift)
	if w >= len(b.words) {
		w = len(b.words) - 1
	} else {
		// Keep bits [0, i%64] of the starting word.
		shift := wordMask - (i & wordMask)
		if v := b.words[w] << shift >> shift; v != 0 {
			return uint32(w<<wordShift) + uint32(wordMask-bits.LeadingZeros64(v)), true
		}
		w--
	}
	for ; w >= 0; w-- {
		if v := b.words[w]; v != 0 {
			return uint32(w<<wordShift) + uint32(wordMask-bits.LeadingZeros64(v)), true
		}
	}
	return 0, false
}

// Lowest returns the lowest set bit at or above i.
func (b *BitSet) Lowest(i uint32) (uint32, bool) {
	w := int(i >> wordShift)
	if b.count == 0 || w >= len(b.words) {
		return 0, false
	}
	// Mask out bits before i%64.
	if v := b.words[w] >> (i & wordMask) << (i & wordMask); v != 0 {
		return uint32(w<<wordShift) + uint32(bits.TrailingZeros64(v)), true
	}
	for w++; w < len(b.words); w++ {
		if v := b.words[w]; v != 0 {
			return uint32(w<<wordShift) + uint32(bits.TrailingZeros64(v)), true
		}
	}
	return 0, false
}

// Ascending yields every set bit strictly below limit in ascending order.
func (b *BitSet) Ascending(limit uint32) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for w, v := range b.words {
			base := uint32(w << wordShift)
			if base >= limit {
				return
			}
			for v != 0 {
				i := base + uint32(bits.TrailingZeros64(v))
				if i >= limit {
					return
				}
				if !yield(i) {
					return
				}
				v &= v - 1
			}
		}
	}
}

// Reset clears all bits and releases the word storage.
func (b *BitSet) Reset() {
	b.words = nil
	b.count = 0
}

func (b *BitSet) grow(newLen int) {
	newCap := max(len(b.words)*2, minWords)
	for newCap < newLen {
		newCap *= 2
	}
	newWords := make([]uint64, newCap)
	copy(newWords, b.words)
	b.words = newWords
}
