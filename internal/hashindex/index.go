// Package hashindex maps (type, content hash) keys to the slots holding values
// with that hash.
//
// Several slots may share a key when distinct values collide, so every key owns a
// short chain of slot indices. Candidates must be re-checked for equality by the
// caller.
package hashindex

import (
	"errors"
	"fmt"
	"iter"

	"github.com/cockroachdb/swiss"
)

// ErrEntryNotFound is returned by RemoveExact when no entry matches.
// It means the index and the slot tables have diverged.
var ErrEntryNotFound = errors.New("hash index entry not found")

// Key identifies a chain: a registered type and a content hash.
type Key struct {
	Type uint32
	Hash uint64
}

// Index is a multi-map from Key to slot indices. Not safe for concurrent mutation.
type Index struct {
	chains          *swiss.Map[Key, []uint32]
	entries         int
	initialCapacity int
}

// New creates an empty index sized for roughly initialCapacity keys.
func New(initialCapacity int) *Index {
	return &Index{
		chains:          swiss.New[Key, []uint32](initialCapacity),
		initialCapacity: initialCapacity,
	}
}

// Insert records that slot holds a value of typ with the given hash.
func (x *Index) Insert(typ uint32, hash uint64, slot uint32) {
	k := Key{Type: typ, Hash: hash}
	chain, _ := x.chains.Get(k)
	x.chains.Put(k, append(chain, slot))
	x.entries++
}

// RemoveExact removes the entry (typ, hash) -> slot.
func (x *Index) RemoveExact(typ uint32, hash uint64, slot uint32) error {
	k := Key{Type: typ, Hash: hash}
	chain, ok := x.chains.Get(k)
	if !ok {
		return fmt.Errorf("%w: type %d hash %#x slot %d (no chain)", ErrEntryNotFound, typ, hash, slot)
	}
	for i, s := range chain {
		if s != slot {
			continue
		}
		last := len(chain) - 1
		chain[i] = chain[last]
		chain = chain[:last]
		if len(chain) == 0 {
			x.chains.Delete(k)
		} else {
			x.chains.Put(k, chain)
		}
		x.entries--
		return nil
	}
	return fmt.Errorf("%w: type %d hash %#x slot %d (chain of %d)", ErrEntryNotFound, typ, hash, slot, len(chain))
}

// Candidates yields the slots recorded under (typ, hash).
//
// The chain is captured when iteration starts; callers may Insert or Remove after
// they stop iterating.
func (x *Index) Candidates(typ uint32, hash uint64) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		chain, ok := x.chains.Get(Key{Type: typ, Hash: hash})
		if !ok {
			return
		}
		for _, s := range chain {
			if !yield(s) {
				return
			}
		}
	}
}

// Len returns the total number of entries.
func (x *Index) Len() int {
	return x.entries
}

// Keys returns the number of distinct keys.
func (x *Index) Keys() int {
	return x.chains.Len()
}

// Count returns the number of entries recorded for typ.
func (x *Index) Count(typ uint32) int {
	n := 0
	x.chains.All(func(k Key, chain []uint32) bool {
		if k.Type == typ {
			n += len(chain)
		}
		return true
	})
	return n
}

// Clear removes every entry.
func (x *Index) Clear() {
	x.chains = swiss.New[Key, []uint32](x.initialCapacity)
	x.entries = 0
}
