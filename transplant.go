package sharedcomp

import (
	"fmt"
	"time"
)

// Remap maps handles of a transplanted source store to their handles in the
// destination. It always contains DefaultHandle -> DefaultHandle.
type Remap map[Handle]Handle

// Lookup returns the destination handle for h.
func (m Remap) Lookup(h Handle) (Handle, bool) {
	if h.IsDefault() {
		return DefaultHandle, true
	}
	n, ok := m[h]
	return n, ok
}

// Compose returns a remap applying m then next. Entries of m whose target is
// missing from next are dropped.
func (m Remap) Compose(next Remap) Remap {
	out := make(Remap, len(m))
	for from, via := range m {
		if to, ok := next.Lookup(via); ok {
			out[from] = to
		}
	}
	out[DefaultHandle] = DefaultHandle
	return out
}

// Transplant moves every live value of src into s, deduplicating against values
// already in s, and carries each value's full reference count. Versions are not
// carried: merged values keep their destination version and new values start at 1.
//
// On success src is left empty and reusable, and the returned remap translates
// every handle src ever returned for a live value. On error src is unchanged
// and s holds the same values and reference counts as before.
func (s *Store) Transplant(src *Store) (Remap, error) {
	s.checkOpen()
	src.checkOpen()
	if src == s {
		return nil, ErrSameStore
	}
	if src.reg != s.reg {
		return nil, ErrRegistryMismatch
	}

	start := time.Now()
	remap := Remap{DefaultHandle: DefaultHandle}
	var moved []movedValue

	for _, c := range src.columns {
		if c == nil {
			continue
		}
		if err := c.moveInto(s, remap, &moved); err != nil {
			s.rollback(moved)
			err = fmt.Errorf("transplant %s: %w", c.anyType().Name(), err)
			s.logger.LogTransplant(len(moved), time.Since(start), err)
			s.opts.metricsCollector.RecordTransplant(len(moved), time.Since(start), err)
			return nil, err
		}
	}

	src.reset()

	elapsed := time.Since(start)
	s.logger.LogTransplant(len(moved), elapsed, nil)
	s.opts.metricsCollector.RecordTransplant(len(moved), elapsed, nil)
	return remap, nil
}

// rollback releases references added by a failed transplant.
func (s *Store) rollback(moved []movedValue) {
	for i := len(moved) - 1; i >= 0; i-- {
		m := moved[i]
		c, slot := s.resolve(m.handle)
		n, err := c.release(slot, m.refs)
		if err != nil {
			fatal(err)
		}
		if n == 0 {
			s.drop(m.handle, c, slot)
		}
	}
}

// PrepareForDeserialize clears the store's free lists and slot tables so that
// a deserializer can repopulate it. The store must be empty.
func (s *Store) PrepareForDeserialize() {
	s.checkOpen()
	if !s.IsEmpty() {
		panic(fmt.Errorf("%w: %d live values", ErrNotEmpty, s.liveCount()))
	}
	s.reset()
}

func (s *Store) liveCount() int {
	n := 0
	for _, c := range s.columns {
		if c != nil {
			n += c.table().LiveCount()
		}
	}
	return n
}

// reset drops every slot, free list and index entry without the emptiness check.
func (s *Store) reset() {
	types := 0
	for _, c := range s.columns {
		if c != nil {
			c.reset()
			types++
		}
	}
	s.index.Clear()
	s.logger.LogReset(types)
}
