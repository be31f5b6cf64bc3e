package bitset

import "iter"

// FreeList tracks reclaimed slot indices and hands out the highest one first.
//
// The zero value is an empty list.
type FreeList struct {
	bits    BitSet
	highest uint32
	any     bool
}

// MarkFree adds i to the free set.
// It reports false if i was already free.
func (f *FreeList) MarkFree(i uint32) bool {
	if !f.bits.Set(i) {
		return false
	}
	if !f.any || i > f.highest {
		f.highest = i
		f.any = true
	}
	return true
}

// TakeHighest removes and returns the highest free index.
func (f *FreeList) TakeHighest() (uint32, bool) {
	if !f.any {
		return 0, false
	}
	taken := f.highest
	f.bits.Clear(taken)
	if taken == 0 {
		f.any = false
		return taken, true
	}
	f.highest, f.any = f.bits.Highest(taken - 1)
	return taken, true
}

// Highest returns the current highest free index without taking it.
func (f *FreeList) Highest() (uint32, bool) {
	return f.highest, f.any
}

// IsFree returns true if i is currently in the free set.
func (f *FreeList) IsFree(i uint32) bool {
	return f.bits.Test(i)
}

// Len returns the number of free indices.
func (f *FreeList) Len() int {
	return f.bits.Count()
}

// Ascending yields the free indices below limit in ascending order.
func (f *FreeList) Ascending(limit uint32) iter.Seq[uint32] {
	return f.bits.Ascending(limit)
}

// Reset empties the free set.
func (f *FreeList) Reset() {
	f.bits.Reset()
	f.highest = 0
	f.any = false
}
