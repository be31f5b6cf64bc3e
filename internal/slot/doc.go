// Package slot implements the per-type slot table of the shared value store.
//
// A Table keeps three parallel slices (values, reference counts, versions) and a
// bitset.FreeList of reclaimed indices. Allocation reuses the highest free index
// before appending, and appends grow capacity by doubling.
//
// Tables are not safe for concurrent mutation. Slices returned by growth replace
// the previous backing arrays, so callers must re-read through an index after any
// Allocate.
package slot
