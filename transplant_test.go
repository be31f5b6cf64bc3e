package sharedcomp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransplant(t *testing.T) {
	t.Run("PreservesValuesAndCounts", func(t *testing.T) {
		reg := NewRegistry()
		ints := MustRegister[int](reg, "int", TraitsFunc[int]{
			EqualFunc: func(a, b int) bool { return a == b },
			HashFunc:  func(v int) uint64 { return uint64(v) },
		})
		strs, err := RegisterComparable[string](reg, "string")
		require.NoError(t, err)

		m := &BasicMetricsCollector{}
		dst := New(reg, WithMetricsCollector(m))
		defer dst.Close()
		src := New(reg)
		defer src.Close()

		d5, err := Insert(dst, ints, 5)
		require.NoError(t, err)
		dst.AddReferences(d5, 2)

		s5, err := Insert(src, ints, 5)
		require.NoError(t, err)
		src.AddReference(s5)
		s7, err := Insert(src, ints, 7)
		require.NoError(t, err)
		sx, err := Insert(src, strs, "x")
		require.NoError(t, err)

		remap, err := dst.Transplant(src)
		require.NoError(t, err)

		assert.True(t, src.IsEmpty())
		assert.Len(t, remap, 4)

		to, ok := remap.Lookup(DefaultHandle)
		require.True(t, ok)
		assert.Equal(t, DefaultHandle, to)

		assert.Equal(t, d5, remap[s5])
		assert.Equal(t, uint32(3+2), dst.RefCount(d5))
		assert.Equal(t, 7, Get(dst, ints, remap[s7]))
		assert.Equal(t, uint32(1), dst.RefCount(remap[s7]))
		assert.Equal(t, "x", Get(dst, strs, remap[sx]))

		require.NoError(t, dst.CheckIntegrity(map[Handle]int{
			d5:        5,
			remap[s7]: 1,
			remap[sx]: 1,
		}))

		st := m.GetStats()
		assert.Equal(t, int64(1), st.Transplants)
		assert.Equal(t, int64(3), st.TransplantedValues)
	})

	t.Run("SourceReusable", func(t *testing.T) {
		dst, ints, _ := newTestStore(t)
		src := New(dst.Registry())
		defer src.Close()

		_, err := Insert(src, ints, 1)
		require.NoError(t, err)
		_, err = dst.Transplant(src)
		require.NoError(t, err)

		h, err := Insert(src, ints, 2)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), h.Slot())
		src.PrepareForDeserialize()
	})

	t.Run("VersionsNotCarried", func(t *testing.T) {
		dst, ints, _ := newTestStore(t)
		src := New(dst.Registry())
		defer src.Close()

		h, err := Insert(src, ints, 1)
		require.NoError(t, err)
		src.IncrementVersion(h)

		remap, err := dst.Transplant(src)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), dst.Version(remap[h]))
	})

	t.Run("RegistryMismatch", func(t *testing.T) {
		dst, _, _ := newTestStore(t)
		src, _, _ := newTestStore(t)

		_, err := dst.Transplant(src)
		require.ErrorIs(t, err, ErrRegistryMismatch)

		_, err = dst.Transplant(dst)
		require.ErrorIs(t, err, ErrSameStore)
	})

	t.Run("RollbackOnCapacity", func(t *testing.T) {
		reg := NewRegistry()
		ints, err := RegisterComparable[int](reg, "int")
		require.NoError(t, err)

		dst := New(reg, WithMaxSlotsPerType(3))
		defer dst.Close()
		src := New(reg)
		defer src.Close()

		d1, err := Insert(dst, ints, 1)
		require.NoError(t, err)
		d2, err := Insert(dst, ints, 2)
		require.NoError(t, err)

		var srcHandles []Handle
		for _, v := range []int{1, 3, 4} {
			h, err := Insert(src, ints, v)
			require.NoError(t, err)
			src.AddReference(h)
			srcHandles = append(srcHandles, h)
		}

		_, err = dst.Transplant(src)
		require.ErrorIs(t, err, ErrCapacityExceeded)

		assert.Equal(t, uint32(1), dst.RefCount(d1))
		assert.Equal(t, uint32(1), dst.RefCount(d2))
		assert.Equal(t, 2, dst.Count(ints.ID()))
		_, ok := Find(dst, ints, 3)
		assert.False(t, ok)
		require.NoError(t, dst.CheckIntegrity(map[Handle]int{d1: 1, d2: 1}))

		assert.Equal(t, 3, src.Count(ints.ID()))
		for _, h := range srcHandles {
			assert.Equal(t, uint32(2), src.RefCount(h))
		}
	})

	t.Run("RollbackOnRefCountOverflow", func(t *testing.T) {
		reg := NewRegistry()
		ints, err := RegisterComparable[int](reg, "int")
		require.NoError(t, err)

		dst := New(reg)
		defer dst.Close()
		src := New(reg)
		defer src.Close()

		d2, err := Insert(dst, ints, 2)
		require.NoError(t, err)
		dst.AddReferences(d2, math.MaxUint32-1)

		s3, err := Insert(src, ints, 3)
		require.NoError(t, err)
		s2, err := Insert(src, ints, 2)
		require.NoError(t, err)

		_, err = dst.Transplant(src)
		require.ErrorIs(t, err, ErrCapacityExceeded)

		assert.Equal(t, uint32(math.MaxUint32), dst.RefCount(d2))
		assert.Equal(t, 1, dst.Count(ints.ID()))
		_, ok := Find(dst, ints, 3)
		assert.False(t, ok)

		assert.Equal(t, uint32(1), src.RefCount(s3))
		assert.Equal(t, uint32(1), src.RefCount(s2))
	})
}

func TestRemapCompose(t *testing.T) {
	a := Remap{DefaultHandle: DefaultHandle, MakeHandle(1, 0): MakeHandle(1, 5), MakeHandle(1, 1): MakeHandle(1, 6)}
	b := Remap{DefaultHandle: DefaultHandle, MakeHandle(1, 5): MakeHandle(1, 9)}

	c := a.Compose(b)
	assert.Equal(t, Remap{DefaultHandle: DefaultHandle, MakeHandle(1, 0): MakeHandle(1, 9)}, c)

	_, ok := c.Lookup(MakeHandle(1, 1))
	assert.False(t, ok)
}

func TestPrepareForDeserialize(t *testing.T) {
	s, ints, _ := newTestStore(t)

	h, err := Insert(s, ints, 1)
	require.NoError(t, err)
	assert.PanicsWithError(t, "store is not empty: 1 live values", func() { s.PrepareForDeserialize() })

	s.RemoveReference(h)
	s.PrepareForDeserialize()
	assert.True(t, s.IsEmpty())

	st := s.Stats()
	require.Len(t, st.Types, 1)
	assert.Equal(t, 0, st.Types[0].Slots)
	assert.Equal(t, 0, st.Types[0].Free)

	h, err = InsertAssumeNonDefault(s, ints, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), h.Slot())
}
