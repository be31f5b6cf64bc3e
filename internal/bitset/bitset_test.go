package bitset

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitSet(t *testing.T) {
	b := New(100)
	assert.Equal(t, 128, b.Len())

	assert.True(t, b.Set(10))
	assert.False(t, b.Set(10), "second Set must report already set")
	assert.True(t, b.Test(10))
	assert.Equal(t, 1, b.Count())

	assert.True(t, b.Clear(10))
	assert.False(t, b.Clear(10))
	assert.False(t, b.Test(10))
	assert.Equal(t, 0, b.Count())

	b.Set(10)
	b.Set(20)
	b.Set(30)
	assert.Equal(t, 3, b.Count())

	b.Reset()
	assert.Equal(t, 0, b.Count())
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.Test(20))
}

func TestBitSet_Grow(t *testing.T) {
	var b BitSet
	b.Set(5)

	b.Set(99999)
	assert.True(t, b.Test(5), "bit 5 must persist after grow")
	assert.True(t, b.Test(99999))
	assert.GreaterOrEqual(t, b.Len(), 100000)
	assert.False(t, b.Clear(1<<30), "clearing past storage is a no-op")
}

func TestBitSet_Highest(t *testing.T) {
	var b BitSet
	_, ok := b.Highest(1000)
	assert.False(t, ok)

	for _, i := range []uint32{0, 63, 64, 130, 700} {
		b.Set(i)
	}

	tests := []struct {
		from     uint32
		expected uint32
		found    bool
	}{
		{1 << 20, 700, true},
		{700, 700, true},
		{699, 130, true},
		{130, 130, true},
		{129, 64, true},
		{64, 64, true},
		{63, 63, true},
		{62, 0, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		got, found := b.Highest(tt.from)
		assert.Equal(t, tt.found, found, "Highest(%d)", tt.from)
		if found {
			assert.Equal(t, tt.expected, got, "Highest(%d)", tt.from)
		}
	}

	b.Clear(0)
	_, ok = b.Highest(62)
	assert.False(t, ok)
}

func TestBitSet_Lowest(t *testing.T) {
	var b BitSet
	b.Set(10)
	b.Set(20)
	b.Set(100)

	tests := []struct {
		from     uint32
		expected uint32
		found    bool
	}{
		{0, 10, true},
		{10, 10, true},
		{11, 20, true},
		{20, 20, true},
		{21, 100, true},
		{100, 100, true},
		{101, 0, false},
		{1 << 20, 0, false},
	}
	for _, tt := range tests {
		got, found := b.Lowest(tt.from)
		assert.Equal(t, tt.found, found, "Lowest(%d)", tt.from)
		if found {
			assert.Equal(t, tt.expected, got, "Lowest(%d)", tt.from)
		}
	}
}

func TestBitSet_Ascending(t *testing.T) {
	var b BitSet
	for _, i := range []uint32{1, 2, 63, 64, 65, 200} {
		b.Set(i)
	}

	assert.Equal(t, []uint32{1, 2, 63, 64, 65, 200}, slices.Collect(b.Ascending(1000)))
	assert.Equal(t, []uint32{1, 2, 63, 64}, slices.Collect(b.Ascending(65)))
	assert.Empty(t, slices.Collect(b.Ascending(1)))

	var first []uint32
	for i := range b.Ascending(1000) {
		first = append(first, i)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []uint32{1, 2}, first)
}

func TestFreeList_TakeHighest(t *testing.T) {
	var f FreeList
	_, ok := f.TakeHighest()
	require.False(t, ok)

	for _, i := range []uint32{3, 70, 5, 128} {
		require.True(t, f.MarkFree(i))
	}
	require.False(t, f.MarkFree(5), "double free must be reported")
	assert.Equal(t, 4, f.Len())

	h, ok := f.Highest()
	require.True(t, ok)
	assert.Equal(t, uint32(128), h)

	var taken []uint32
	for {
		i, ok := f.TakeHighest()
		if !ok {
			break
		}
		taken = append(taken, i)
	}
	assert.Equal(t, []uint32{128, 70, 5, 3}, taken)
	assert.Equal(t, 0, f.Len())
}

func TestFreeList_Zero(t *testing.T) {
	var f FreeList
	f.MarkFree(0)
	i, ok := f.TakeHighest()
	require.True(t, ok)
	assert.Equal(t, uint32(0), i)

	_, ok = f.TakeHighest()
	assert.False(t, ok)

	f.MarkFree(0)
	f.MarkFree(1)
	i, _ = f.TakeHighest()
	assert.Equal(t, uint32(1), i)
	i, _ = f.TakeHighest()
	assert.Equal(t, uint32(0), i)
}

func TestFreeList_CursorTracksLowerInsert(t *testing.T) {
	var f FreeList
	f.MarkFree(10)
	f.MarkFree(2)

	h, _ := f.Highest()
	assert.Equal(t, uint32(10), h, "cursor must not move down on a lower MarkFree")
	assert.True(t, f.IsFree(2))
	assert.False(t, f.IsFree(3))

	f.Reset()
	_, ok := f.Highest()
	assert.False(t, ok)
	assert.False(t, f.IsFree(10))
}

func TestFreeList_Ascending(t *testing.T) {
	var f FreeList
	for _, i := range []uint32{0, 1, 9, 10} {
		f.MarkFree(i)
	}
	assert.Equal(t, []uint32{0, 1, 9}, slices.Collect(f.Ascending(10)))
}
