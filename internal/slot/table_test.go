package slot

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *Table[T]) []uint32 {
	var out []uint32
	for i := range t.Live() {
		out = append(out, i)
	}
	return out
}

func TestTable_AllocateAppends(t *testing.T) {
	tbl := New[string](Options{InitialCapacity: 2})

	for i, v := range []string{"a", "b", "c"} {
		idx, err := tbl.Allocate(v)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), idx)
		assert.Equal(t, v, tbl.Get(idx))
		assert.Equal(t, uint32(1), tbl.RefCount(idx))
		assert.Equal(t, uint32(1), tbl.Version(idx))
	}

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 4, tbl.Cap(), "capacity doubles from the initial 2")
	assert.Equal(t, 3, tbl.LiveCount())
}

func TestTable_GrowCallback(t *testing.T) {
	var grown []int
	tbl := New[int](Options{InitialCapacity: 1, OnGrow: func(c int) { grown = append(grown, c) }})

	for i := range 5 {
		_, err := tbl.Allocate(i)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 2, 4, 8}, grown)
}

func TestTable_ReuseHighestFree(t *testing.T) {
	tbl := New[string](Options{})
	for _, v := range []string{"a", "b", "c", "d"} {
		_, err := tbl.Allocate(v)
		require.NoError(t, err)
	}

	for _, i := range []uint32{1, 2} {
		n, err := tbl.ReleaseRefCount(i, 1)
		require.NoError(t, err)
		require.Zero(t, n)
		require.NoError(t, tbl.Free(i))
	}
	assert.Equal(t, 2, tbl.FreeCount())
	assert.False(t, tbl.IsLive(2))

	tbl.IncrementVersion(3)

	idx, err := tbl.Allocate("x")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx, "highest free index is reused first")
	assert.Equal(t, uint32(1), tbl.Version(idx))
	assert.Equal(t, uint32(2), tbl.Version(3))

	idx, err = tbl.Allocate("y")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	idx, err = tbl.Allocate("z")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), idx, "append once the free list is drained")
	assert.Equal(t, 5, tbl.Len())
}

func TestTable_RefCounts(t *testing.T) {
	tbl := New[int](Options{})
	idx, err := tbl.Allocate(7)
	require.NoError(t, err)

	require.NoError(t, tbl.IncrementRefCount(idx, 2))
	assert.Equal(t, uint32(3), tbl.RefCount(idx))

	err = tbl.Free(idx)
	require.Error(t, err, "free with live references must fail")

	for want := uint32(2); ; want-- {
		n, err := tbl.ReleaseRefCount(idx, 1)
		require.NoError(t, err)
		require.Equal(t, want, n)
		if n == 0 {
			break
		}
	}

	_, err = tbl.ReleaseRefCount(idx, 1)
	require.ErrorIs(t, err, ErrRefCountUnderflow)

	require.NoError(t, tbl.Free(idx))
	require.ErrorIs(t, tbl.Free(idx), ErrFreeSlot)
	require.ErrorIs(t, tbl.Free(99), ErrFreeSlot)
}

func TestTable_Limit(t *testing.T) {
	tbl := New[int](Options{InitialCapacity: 8, Limit: 2})
	_, err := tbl.Allocate(1)
	require.NoError(t, err)
	_, err = tbl.Allocate(2)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Cap(), "capacity is clamped to the limit")

	_, err = tbl.Allocate(3)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = tbl.ReleaseRefCount(0, 1)
	require.NoError(t, err)
	require.NoError(t, tbl.Free(0))

	idx, err := tbl.Allocate(3)
	require.NoError(t, err, "a free slot is still usable at the limit")
	assert.Equal(t, uint32(0), idx)
}

func TestTable_LiveSkipsHoles(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		freed []uint32
	}{
		{"none", 5, nil},
		{"leading", 5, []uint32{0, 1}},
		{"trailing", 5, []uint32{3, 4}},
		{"interior", 7, []uint32{2, 3, 5}},
		{"alternating", 8, []uint32{0, 2, 4, 6}},
		{"all", 4, []uint32{0, 1, 2, 3}},
		{"word boundary", 130, []uint32{62, 63, 64, 65, 127, 128, 129}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New[int](Options{})
			for i := range tt.size {
				_, err := tbl.Allocate(i * 10)
				require.NoError(t, err)
			}
			for _, i := range tt.freed {
				_, err := tbl.ReleaseRefCount(i, 1)
				require.NoError(t, err)
				require.NoError(t, tbl.Free(i))
			}

			var want []uint32
			for i := range uint32(tt.size) {
				if !slices.Contains(tt.freed, i) {
					want = append(want, i)
				}
			}

			for i, v := range tbl.Live() {
				assert.Equal(t, int(i)*10, v)
			}
			assert.Equal(t, want, collect(tbl))
			assert.Equal(t, len(want), tbl.LiveCount())

			// A second call starts over.
			assert.Equal(t, want, collect(tbl))
		})
	}
}

func TestTable_LiveEarlyStop(t *testing.T) {
	tbl := New[int](Options{})
	for i := range 10 {
		_, err := tbl.Allocate(i)
		require.NoError(t, err)
	}
	_, _ = tbl.ReleaseRefCount(1, 1)
	require.NoError(t, tbl.Free(1))

	var seen []uint32
	for i := range tbl.Live() {
		seen = append(seen, i)
		if len(seen) == 3 {
			break
		}
	}
	assert.Equal(t, []uint32{0, 2, 3}, seen)
}

func TestTable_Reset(t *testing.T) {
	tbl := New[int](Options{})
	for i := range 3 {
		_, err := tbl.Allocate(i)
		require.NoError(t, err)
	}
	_, _ = tbl.ReleaseRefCount(2, 1)
	require.NoError(t, tbl.Free(2))

	tbl.Reset()
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.FreeCount())
	assert.Empty(t, collect(tbl))

	idx, err := tbl.Allocate(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)
}

func TestTable_ReleaseMany(t *testing.T) {
	tbl := New[string](Options{})
	idx, err := tbl.Allocate("a")
	require.NoError(t, err)
	require.NoError(t, tbl.IncrementRefCount(idx, 4))

	_, err = tbl.ReleaseRefCount(idx, 6)
	require.ErrorIs(t, err, ErrRefCountUnderflow)
	assert.Equal(t, uint32(5), tbl.RefCount(idx), "a failed release leaves the count untouched")

	n, err := tbl.ReleaseRefCount(idx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)
}

func TestTable_RefCountOverflow(t *testing.T) {
	tbl := New[int](Options{})
	idx, err := tbl.Allocate(5)
	require.NoError(t, err)

	err = tbl.IncrementRefCount(idx, math.MaxUint32)
	require.ErrorIs(t, err, ErrRefCountOverflow)
	assert.Equal(t, uint32(1), tbl.RefCount(idx), "a failed increment leaves the count untouched")
	assert.True(t, tbl.IsLive(idx))

	require.NoError(t, tbl.IncrementRefCount(idx, math.MaxUint32-1))
	assert.Equal(t, uint32(math.MaxUint32), tbl.RefCount(idx))
	require.ErrorIs(t, tbl.IncrementRefCount(idx, 1), ErrRefCountOverflow)
}

func TestTable_VersionSaturates(t *testing.T) {
	tbl := New[int](Options{})
	idx, err := tbl.Allocate(5)
	require.NoError(t, err)

	tbl.versions[idx] = math.MaxUint32 - 1
	tbl.IncrementVersion(idx)
	assert.Equal(t, uint32(math.MaxUint32), tbl.Version(idx))
	tbl.IncrementVersion(idx)
	assert.Equal(t, uint32(math.MaxUint32), tbl.Version(idx))
}
