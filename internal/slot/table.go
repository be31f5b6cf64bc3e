package slot

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/hupe1980/sharedcomp/internal/bitset"
)

const (
	// MaxSlots is the largest number of slots a table can address with a 32-bit index.
	MaxSlots = math.MaxUint32

	// DefaultCapacity is the initial capacity of a table allocated on first use.
	DefaultCapacity = 16

	maxLimit = min(MaxSlots, math.MaxInt)
)

var (
	// ErrCapacityExceeded is returned when a table has no free slot and is at its limit.
	ErrCapacityExceeded = errors.New("slot table capacity exceeded")

	// ErrRefCountUnderflow indicates a reference was released more often than taken.
	ErrRefCountUnderflow = errors.New("reference count underflow")

	// ErrRefCountOverflow indicates more references than a 32-bit count can hold.
	ErrRefCountOverflow = errors.New("reference count overflow")

	// ErrFreeSlot indicates an operation addressed a slot that is not live.
	ErrFreeSlot = errors.New("slot is not live")
)

// GrowFunc is called after the table grew its backing storage.
type GrowFunc func(newCapacity int)

// Table is dense storage for the values of one registered type.
type Table[T any] struct {
	values    []T
	refCounts []uint32
	versions  []uint32
	free      bitset.FreeList

	initialCapacity int
	limit           int
	onGrow          GrowFunc
}

// Options configures a Table.
type Options struct {
	// InitialCapacity is the capacity reserved on the first append.
	// If 0, DefaultCapacity is used.
	InitialCapacity int

	// Limit is the maximum number of slots. If 0 or above MaxSlots, MaxSlots is used
	// (capped at math.MaxInt on 32-bit platforms).
	Limit int

	// OnGrow is invoked after every capacity doubling. May be nil.
	OnGrow GrowFunc
}

// New creates an empty table.
func New[T any](opts Options) *Table[T] {
	if opts.InitialCapacity <= 0 {
		opts.InitialCapacity = DefaultCapacity
	}
	if opts.Limit <= 0 || opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}
	return &Table[T]{
		initialCapacity: min(opts.InitialCapacity, opts.Limit),
		limit:           opts.Limit,
		onGrow:          opts.OnGrow,
	}
}

// Allocate stores v in a free or new slot with refcount 1 and version 1.
func (t *Table[T]) Allocate(v T) (uint32, error) {
	if i, ok := t.free.TakeHighest(); ok {
		t.values[i] = v
		t.refCounts[i] = 1
		t.versions[i] = 1
		return i, nil
	}

	n := len(t.values)
	if n >= t.limit {
		return 0, fmt.Errorf("%w: %d slots", ErrCapacityExceeded, t.limit)
	}
	if n == cap(t.values) {
		t.grow()
	}
	t.values = append(t.values, v)
	t.refCounts = append(t.refCounts, 1)
	t.versions = append(t.versions, 1)
	return uint32(n), nil
}

func (t *Table[T]) grow() {
	newCap := max(cap(t.values)*2, t.initialCapacity)
	newCap = min(newCap, t.limit)

	values := make([]T, len(t.values), newCap)
	copy(values, t.values)
	refCounts := make([]uint32, len(t.refCounts), newCap)
	copy(refCounts, t.refCounts)
	versions := make([]uint32, len(t.versions), newCap)
	copy(versions, t.versions)

	t.values, t.refCounts, t.versions = values, refCounts, versions

	if t.onGrow != nil {
		t.onGrow(newCap)
	}
}

// Free returns slot i to the free list. Its refcount must already be 0.
func (t *Table[T]) Free(i uint32) error {
	if err := t.checkIndex(i); err != nil {
		return err
	}
	if t.refCounts[i] != 0 {
		return fmt.Errorf("free of slot %d with refcount %d", i, t.refCounts[i])
	}
	if !t.free.MarkFree(i) {
		return fmt.Errorf("%w: slot %d already free", ErrFreeSlot, i)
	}
	var zero T
	t.values[i] = zero
	t.versions[i] = 0
	return nil
}

// Get returns the value stored in slot i.
func (t *Table[T]) Get(i uint32) T {
	return t.values[i]
}

// RefCount returns the reference count of slot i.
func (t *Table[T]) RefCount(i uint32) uint32 {
	return t.refCounts[i]
}

// Version returns the change version of slot i.
func (t *Table[T]) Version(i uint32) uint32 {
	return t.versions[i]
}

// IncrementVersion bumps the change version of slot i. The version saturates
// at math.MaxUint32.
func (t *Table[T]) IncrementVersion(i uint32) {
	if t.versions[i] < math.MaxUint32 {
		t.versions[i]++
	}
}

// IncrementRefCount adds n references to slot i. The count is left unchanged
// if it would exceed math.MaxUint32.
func (t *Table[T]) IncrementRefCount(i uint32, n uint32) error {
	if t.refCounts[i] > math.MaxUint32-n {
		return fmt.Errorf("%w: slot %d has %d, adding %d", ErrRefCountOverflow, i, t.refCounts[i], n)
	}
	t.refCounts[i] += n
	return nil
}

// ReleaseRefCount removes n references from slot i and returns the new count.
func (t *Table[T]) ReleaseRefCount(i uint32, n uint32) (uint32, error) {
	if t.refCounts[i] < n {
		return 0, fmt.Errorf("%w: slot %d has %d, releasing %d", ErrRefCountUnderflow, i, t.refCounts[i], n)
	}
	t.refCounts[i] -= n
	return t.refCounts[i], nil
}

// IsLive returns true if i addresses an allocated, non-free slot.
func (t *Table[T]) IsLive(i uint32) bool {
	return int(i) < len(t.values) && !t.free.IsFree(i)
}

// Len returns the number of slots ever allocated (live plus free).
func (t *Table[T]) Len() int {
	return len(t.values)
}

// Cap returns the capacity of the backing storage.
func (t *Table[T]) Cap() int {
	return cap(t.values)
}

// FreeCount returns the number of free slots.
func (t *Table[T]) FreeCount() int {
	return t.free.Len()
}

// LiveCount returns the number of live slots.
func (t *Table[T]) LiveCount() int {
	return len(t.values) - t.free.Len()
}

// Live yields every live slot in ascending index order.
//
// The slot count is captured when iteration starts. Mutating the table during
// iteration is unsupported.
func (t *Table[T]) Live() iter.Seq2[uint32, T] {
	return func(yield func(uint32, T) bool) {
		n := uint32(len(t.values))
		next := uint32(0)
		for hole := range t.free.Ascending(n) {
			for ; next < hole; next++ {
				if !yield(next, t.values[next]) {
					return
				}
			}
			next = hole + 1
		}
		for ; next < n; next++ {
			if !yield(next, t.values[next]) {
				return
			}
		}
	}
}

// Reset drops all slots and the free list, keeping no storage.
func (t *Table[T]) Reset() {
	t.values = nil
	t.refCounts = nil
	t.versions = nil
	t.free.Reset()
}

func (t *Table[T]) checkIndex(i uint32) error {
	if int(i) >= len(t.values) {
		return fmt.Errorf("%w: slot %d out of range [0, %d)", ErrFreeSlot, i, len(t.values))
	}
	return nil
}
