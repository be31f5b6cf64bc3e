package sharedcomp

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// CheckIntegrity compares every live value's reference count against owners,
// the number of references the caller believes it holds per handle.
//
// Handles in owners that are not live, live values missing from owners, and
// count mismatches are all reported. Live values and hash index entries are
// also checked against each other. DefaultHandle entries in owners are ignored.
// The result is nil or an *IntegrityError.
func (s *Store) CheckIntegrity(owners map[Handle]int) error {
	s.checkOpen()

	var problems []IntegrityProblem
	owned := make(map[TypeID]*roaring.Bitmap)

	for h, n := range owners {
		if h.IsDefault() {
			continue
		}
		c := s.existing(h.Type())
		if c == nil || !c.isLive(h.Slot()) {
			problems = append(problems, IntegrityProblem{Handle: h, Owners: n, Reason: "owned handle is not live"})
			continue
		}
		bm, ok := owned[h.Type()]
		if !ok {
			bm = roaring.New()
			owned[h.Type()] = bm
		}
		bm.Add(h.Slot())

		if rc := c.refCount(h.Slot()); int64(rc) != int64(n) {
			problems = append(problems, IntegrityProblem{Handle: h, RefCount: rc, Owners: n, Reason: "reference count mismatch"})
		}
	}

	for _, c := range s.columns {
		if c == nil {
			continue
		}
		id := c.anyType().ID()

		live := roaring.New()
		for i, rc := range c.liveSlots() {
			live.Add(i)
			if rc == 0 {
				problems = append(problems, IntegrityProblem{Handle: MakeHandle(id, i), Reason: "live slot with zero references"})
			}
		}

		unowned := live
		if bm, ok := owned[id]; ok {
			unowned = roaring.AndNot(live, bm)
		}
		it := unowned.Iterator()
		for it.HasNext() {
			i := it.Next()
			problems = append(problems, IntegrityProblem{Handle: MakeHandle(id, i), RefCount: c.refCount(i), Reason: "live value has no owner"})
		}

		if entries := s.index.Count(uint32(id)); entries != int(live.GetCardinality()) {
			problems = append(problems, IntegrityProblem{
				Handle: MakeHandle(id, 0),
				Reason: fmt.Sprintf("%s has %d hash index entries for %d live values", c.anyType().Name(), entries, live.GetCardinality()),
			})
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.SortFunc(problems, func(a, b IntegrityProblem) int {
		return cmp.Compare(a.Handle, b.Handle)
	})
	return &IntegrityError{Problems: problems}
}
