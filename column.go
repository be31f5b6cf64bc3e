package sharedcomp

import (
	"iter"

	"github.com/hupe1980/sharedcomp/internal/slot"
)

// column is the type-erased face of one type's slot table.
type column interface {
	anyType() AnyType
	table() tableStats
	isLive(slot uint32) bool
	refCount(slot uint32) uint32
	addRefs(slot uint32, n uint32) error
	release(slot uint32, n uint32) (uint32, error)
	version(slot uint32) uint32
	bumpVersion(slot uint32)
	hashOf(slot uint32) uint64
	free(slot uint32) error
	boxed(slot uint32) any
	live() iter.Seq2[uint32, any]
	liveSlots() iter.Seq2[uint32, uint32]
	moveInto(dst *Store, remap Remap, moved *[]movedValue) error
	reset()
}

type tableStats interface {
	Len() int
	Cap() int
	FreeCount() int
	LiveCount() int
}

type movedValue struct {
	handle Handle
	refs   uint32
}

type typedColumn[T any] struct {
	typ *Type[T]
	tbl *slot.Table[T]
}

func newTypedColumn[T any](s *Store, t *Type[T]) *typedColumn[T] {
	name := t.name
	log := s.logger.WithType(name)
	return &typedColumn[T]{
		typ: t,
		tbl: slot.New[T](slot.Options{
			InitialCapacity: s.opts.initialCapacity,
			Limit:           s.opts.maxSlots,
			OnGrow: func(capacity int) {
				s.opts.metricsCollector.RecordGrow(name, capacity)
				s.growLog.Do(func() {
					log.LogGrow(capacity)
				})
			},
		}),
	}
}

// find returns the slot holding a value equal to v.
func (c *typedColumn[T]) find(s *Store, v T, h uint64) (uint32, bool) {
	for i := range s.index.Candidates(uint32(c.typ.id), h) {
		if c.typ.traits.Equal(c.tbl.Get(i), v) {
			return i, true
		}
	}
	return 0, false
}

func (c *typedColumn[T]) anyType() AnyType                    { return c.typ }
func (c *typedColumn[T]) table() tableStats                   { return c.tbl }
func (c *typedColumn[T]) isLive(i uint32) bool                { return c.tbl.IsLive(i) }
func (c *typedColumn[T]) refCount(i uint32) uint32            { return c.tbl.RefCount(i) }
func (c *typedColumn[T]) addRefs(i uint32, n uint32) error    { return c.tbl.IncrementRefCount(i, n) }
func (c *typedColumn[T]) release(i, n uint32) (uint32, error) { return c.tbl.ReleaseRefCount(i, n) }
func (c *typedColumn[T]) version(i uint32) uint32             { return c.tbl.Version(i) }
func (c *typedColumn[T]) bumpVersion(i uint32)                { c.tbl.IncrementVersion(i) }
func (c *typedColumn[T]) hashOf(i uint32) uint64              { return c.typ.traits.Hash(c.tbl.Get(i)) }
func (c *typedColumn[T]) free(i uint32) error                 { return c.tbl.Free(i) }
func (c *typedColumn[T]) boxed(i uint32) any                  { return c.tbl.Get(i) }
func (c *typedColumn[T]) reset()                              { c.tbl.Reset() }

func (c *typedColumn[T]) live() iter.Seq2[uint32, any] {
	return func(yield func(uint32, any) bool) {
		for i, v := range c.tbl.Live() {
			if !yield(i, v) {
				return
			}
		}
	}
}

func (c *typedColumn[T]) liveSlots() iter.Seq2[uint32, uint32] {
	return func(yield func(uint32, uint32) bool) {
		for i := range c.tbl.Live() {
			if !yield(i, c.tbl.RefCount(i)) {
				return
			}
		}
	}
}

// moveInto inserts every live value into dst with its full reference count and
// records the old-to-new mapping. Values moved before an error are appended to
// moved so the caller can roll dst back.
func (c *typedColumn[T]) moveInto(dst *Store, remap Remap, moved *[]movedValue) error {
	dc := typed(dst, c.typ)
	for i, v := range c.tbl.Live() {
		refs := c.tbl.RefCount(i)
		h, _, err := dc.insert(dst, v, c.typ.traits.Hash(v), refs)
		if err != nil {
			return err
		}
		*moved = append(*moved, movedValue{handle: h, refs: refs})
		remap[MakeHandle(c.typ.id, i)] = h
	}
	return nil
}

// insert adds refs references to v, allocating a slot if no equal value is stored.
func (c *typedColumn[T]) insert(s *Store, v T, h uint64, refs uint32) (Handle, bool, error) {
	if i, ok := c.find(s, v, h); ok {
		if err := c.tbl.IncrementRefCount(i, refs); err != nil {
			return DefaultHandle, true, translateError(err)
		}
		return MakeHandle(c.typ.id, i), true, nil
	}
	i, err := c.tbl.Allocate(v)
	if err != nil {
		return DefaultHandle, false, translateError(err)
	}
	if refs > 1 {
		// A fresh slot holds 1, so refs-1 more always fits.
		_ = c.tbl.IncrementRefCount(i, refs-1)
	}
	s.index.Insert(uint32(c.typ.id), h, i)
	return MakeHandle(c.typ.id, i), false, nil
}
