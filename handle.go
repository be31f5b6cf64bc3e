package sharedcomp

import "fmt"

// TypeID identifies a registered type within its Registry. IDs start at 1.
type TypeID uint32

// Handle addresses a stored shared value: the type ID in the high 32 bits and the
// slot index in the low 32 bits.
//
// The zero Handle is the default sentinel. It is never stored or reference
// counted and resolves to the registered default of whatever type the caller
// reads it as. Because type IDs start at 1, no stored value encodes to 0.
type Handle uint64

// DefaultHandle is the sentinel for "the type's default value".
const DefaultHandle Handle = 0

const slotBits = 32

// MakeHandle encodes a (type, slot) pair.
func MakeHandle(id TypeID, slot uint32) Handle {
	return Handle(uint64(id)<<slotBits | uint64(slot))
}

// Type returns the type ID encoded in h (0 for the default sentinel).
func (h Handle) Type() TypeID {
	return TypeID(h >> slotBits)
}

// Slot returns the slot index encoded in h.
func (h Handle) Slot() uint32 {
	return uint32(h)
}

// IsDefault reports whether h is the default sentinel.
func (h Handle) IsDefault() bool {
	return h == DefaultHandle
}

func (h Handle) String() string {
	if h.IsDefault() {
		return "default"
	}
	return fmt.Sprintf("%d:%d", h.Type(), h.Slot())
}
