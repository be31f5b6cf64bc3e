package sharedcomp

import (
	"fmt"
	"iter"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/sharedcomp/internal/hashindex"
)

// Store interns shared values of registered types and reference counts them.
//
// Inserting a value equal to one already stored returns the existing handle and
// takes another reference. Releasing the last reference recycles the slot, and a
// later insert of a different value may reuse it.
//
// A Store is not safe for concurrent use. Callers own synchronization.
type Store struct {
	reg     *Registry
	columns []column
	index   *hashindex.Index
	opts    options
	logger  *Logger
	growLog rate.Sometimes
	closed  bool
}

// New creates an empty store for types registered in reg.
func New(reg *Registry, optFns ...Option) *Store {
	opts := applyOptions(optFns)
	s := &Store{
		reg:     reg,
		index:   hashindex.New(opts.initialCapacity),
		opts:    opts,
		logger:  opts.logger,
		growLog: rate.Sometimes{First: 16, Interval: time.Second},
	}
	if opts.eagerTables {
		for t := range reg.Types() {
			s.columnAt(t)
		}
	}
	return s
}

// Registry returns the registry the store was created with.
func (s *Store) Registry() *Registry {
	return s.reg
}

func (s *Store) checkOpen() {
	if s.closed {
		panic(ErrClosed)
	}
}

// columnAt returns the column for t, creating it on first use.
func (s *Store) columnAt(t AnyType) column {
	i := int(t.ID()) - 1
	if i < len(s.columns) {
		if c := s.columns[i]; c != nil {
			if c.anyType() != t {
				panic(fmt.Errorf("%w: %s is not registered with this store's registry", ErrTypeMismatch, t.Name()))
			}
			return c
		}
	}
	if rt, ok := s.reg.Type(t.ID()); !ok || rt != t {
		panic(fmt.Errorf("%w: %s is not registered with this store's registry", ErrTypeMismatch, t.Name()))
	}
	for len(s.columns) <= i {
		s.columns = append(s.columns, nil)
	}
	c := t.newColumn(s)
	s.columns[i] = c
	return c
}

// existing returns the column for id without creating it.
func (s *Store) existing(id TypeID) column {
	i := int(id) - 1
	if i < 0 || i >= len(s.columns) {
		return nil
	}
	return s.columns[i]
}

// resolve returns the column and slot addressed by a non-default handle.
func (s *Store) resolve(h Handle) (column, uint32) {
	c := s.existing(h.Type())
	if c == nil || !c.isLive(h.Slot()) {
		panic(fmt.Errorf("%w: %s", ErrInvalidHandle, h))
	}
	return c, h.Slot()
}

func typed[T any](s *Store, t *Type[T]) *typedColumn[T] {
	return s.columnAt(t).(*typedColumn[T])
}

func existingTyped[T any](s *Store, t *Type[T]) *typedColumn[T] {
	c := s.existing(t.id)
	if c == nil {
		return nil
	}
	tc, ok := c.(*typedColumn[T])
	if !ok || tc.typ != t {
		panic(fmt.Errorf("%w: %s is not registered with this store's registry", ErrTypeMismatch, t.name))
	}
	return tc
}

// Insert stores v and returns its handle, taking one reference.
//
// A value equal to the type's default returns DefaultHandle without touching
// the store. A value equal to a stored one returns the existing handle.
func Insert[T any](s *Store, t *Type[T], v T) (Handle, error) {
	s.checkOpen()
	if t.traits.Equal(v, t.def) {
		return DefaultHandle, nil
	}
	return InsertAssumeNonDefault(s, t, v)
}

// InsertAssumeNonDefault is Insert for callers that know v differs from the
// type's default. Passing the default stores it as an ordinary value.
func InsertAssumeNonDefault[T any](s *Store, t *Type[T], v T) (Handle, error) {
	s.checkOpen()
	h, dedup, err := typed(s, t).insert(s, v, t.traits.Hash(v), 1)
	if err != nil {
		return DefaultHandle, err
	}
	s.opts.metricsCollector.RecordInsert(t.name, dedup)
	return h, nil
}

// Get returns the value addressed by h. DefaultHandle yields the registered default.
func Get[T any](s *Store, t *Type[T], h Handle) T {
	s.checkOpen()
	if h.IsDefault() {
		return t.def
	}
	if h.Type() != t.id {
		panic(fmt.Errorf("%w: handle %s read as %s", ErrTypeMismatch, h, t.name))
	}
	c := existingTyped(s, t)
	if c == nil || !c.tbl.IsLive(h.Slot()) {
		panic(fmt.Errorf("%w: %s", ErrInvalidHandle, h))
	}
	return c.tbl.Get(h.Slot())
}

// Find returns the handle of a stored value equal to v without taking a
// reference. The default value is always found as DefaultHandle.
func Find[T any](s *Store, t *Type[T], v T) (Handle, bool) {
	s.checkOpen()
	if t.traits.Equal(v, t.def) {
		return DefaultHandle, true
	}
	c := existingTyped(s, t)
	if c == nil {
		return DefaultHandle, false
	}
	i, ok := c.find(s, v, t.traits.Hash(v))
	if !ok {
		return DefaultHandle, false
	}
	return MakeHandle(t.id, i), true
}

// VersionOf returns the version of the stored value equal to v, or 0 if v is
// the default or not stored.
func VersionOf[T any](s *Store, t *Type[T], v T) uint32 {
	h, ok := Find(s, t, v)
	if !ok || h.IsDefault() {
		return 0
	}
	return s.Version(h)
}

// Enumerate yields the default first as (DefaultHandle, default), then every
// live value of t in ascending slot order.
//
// Each call starts from the store's current state. Mutating the store during
// iteration is unsupported.
func Enumerate[T any](s *Store, t *Type[T]) iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		s.checkOpen()
		if !yield(DefaultHandle, t.def) {
			return
		}
		c := existingTyped(s, t)
		if c == nil {
			return
		}
		for i, v := range c.tbl.Live() {
			if !yield(MakeHandle(t.id, i), v) {
				return
			}
		}
	}
}

// UniqueValues returns the default followed by every live value of t.
func UniqueValues[T any](s *Store, t *Type[T]) []T {
	out := make([]T, 0, s.Count(t.id)+1)
	for _, v := range Enumerate(s, t) {
		out = append(out, v)
	}
	return out
}

// AddReference takes another reference to h. DefaultHandle is ignored.
func (s *Store) AddReference(h Handle) {
	s.AddReferences(h, 1)
}

// AddReferences takes n more references to h. DefaultHandle is ignored.
//
// A count that would exceed math.MaxUint32 panics with ErrCapacityExceeded and
// leaves the count unchanged.
func (s *Store) AddReferences(h Handle, n uint32) {
	s.checkOpen()
	if h.IsDefault() || n == 0 {
		return
	}
	c, i := s.resolve(h)
	if err := c.addRefs(i, n); err != nil {
		panic(translateError(err))
	}
}

// RemoveReference releases one reference to h. When the last reference goes
// away the value is removed from the hash index and its slot is recycled.
// DefaultHandle is ignored.
//
// Releasing more references than were taken panics with ErrInvariant.
func (s *Store) RemoveReference(h Handle) {
	s.checkOpen()
	if h.IsDefault() {
		return
	}
	c, i := s.resolve(h)
	n, err := c.release(i, 1)
	if err != nil {
		fatal(err)
	}
	freed := n == 0
	if freed {
		s.drop(h, c, i)
	}
	s.opts.metricsCollector.RecordRemove(c.anyType().Name(), freed)
}

// drop unlinks a slot whose refcount reached zero.
func (s *Store) drop(h Handle, c column, i uint32) {
	if err := s.index.RemoveExact(uint32(h.Type()), c.hashOf(i), i); err != nil {
		fatal(err)
	}
	if err := c.free(i); err != nil {
		fatal(err)
	}
}

// Version returns the change version of h. DefaultHandle has version 0.
func (s *Store) Version(h Handle) uint32 {
	s.checkOpen()
	if h.IsDefault() {
		return 0
	}
	c, i := s.resolve(h)
	return c.version(i)
}

// IncrementVersion bumps the change version of h. DefaultHandle is ignored.
func (s *Store) IncrementVersion(h Handle) {
	s.checkOpen()
	if h.IsDefault() {
		return
	}
	c, i := s.resolve(h)
	c.bumpVersion(i)
}

// RefCount returns the number of references to h. DefaultHandle reports 0.
func (s *Store) RefCount(h Handle) uint32 {
	s.checkOpen()
	if h.IsDefault() {
		return 0
	}
	c, i := s.resolve(h)
	return c.refCount(i)
}

// Boxed returns the value addressed by h as an interface. DefaultHandle
// returns nil since it carries no type.
func (s *Store) Boxed(h Handle) any {
	s.checkOpen()
	if h.IsDefault() {
		return nil
	}
	c, i := s.resolve(h)
	return c.boxed(i)
}

// EnumerateLive yields every live value of the type with id, boxed, in
// ascending slot order. The default is not included.
func (s *Store) EnumerateLive(id TypeID) iter.Seq2[Handle, any] {
	return func(yield func(Handle, any) bool) {
		s.checkOpen()
		c := s.existing(id)
		if c == nil {
			return
		}
		for i, v := range c.live() {
			if !yield(MakeHandle(id, i), v) {
				return
			}
		}
	}
}

// Count returns the number of distinct live values of the type with id.
func (s *Store) Count(id TypeID) int {
	s.checkOpen()
	c := s.existing(id)
	if c == nil {
		return 0
	}
	return c.table().LiveCount()
}

// IsEmpty reports whether no type holds a live value.
func (s *Store) IsEmpty() bool {
	s.checkOpen()
	for _, c := range s.columns {
		if c != nil && c.table().LiveCount() != 0 {
			return false
		}
	}
	return true
}

// TypeStats describes one type's slot table.
type TypeStats struct {
	Type     TypeID
	Name     string
	Live     int
	Free     int
	Slots    int
	Capacity int
}

// Stats is a point-in-time summary of a store.
type Stats struct {
	Types        []TypeStats
	IndexEntries int
	IndexChains  int
}

// Stats summarizes every type that has a slot table.
func (s *Store) Stats() Stats {
	s.checkOpen()
	st := Stats{
		IndexEntries: s.index.Len(),
		IndexChains:  s.index.Keys(),
	}
	for _, c := range s.columns {
		if c == nil {
			continue
		}
		t, tbl := c.anyType(), c.table()
		st.Types = append(st.Types, TypeStats{
			Type:     t.ID(),
			Name:     t.Name(),
			Live:     tbl.LiveCount(),
			Free:     tbl.FreeCount(),
			Slots:    tbl.Len(),
			Capacity: tbl.Cap(),
		})
	}
	return st
}
