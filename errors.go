package sharedcomp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/sharedcomp/internal/hashindex"
	"github.com/hupe1980/sharedcomp/internal/slot"
)

var (
	// ErrCapacityExceeded is returned when a type's slot table cannot grow
	// further or a reference count would exceed 32 bits.
	ErrCapacityExceeded = errors.New("slot capacity exceeded")

	// ErrRegistryMismatch is returned when two stores built on different
	// registries are combined.
	ErrRegistryMismatch = errors.New("stores use different registries")

	// ErrSameStore is returned when a store is transplanted into itself.
	ErrSameStore = errors.New("source and destination are the same store")

	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("type already registered")

	// ErrInvalidType is returned for malformed registrations.
	ErrInvalidType = errors.New("invalid type registration")

	// ErrIntegrity is matched by *IntegrityError.
	ErrIntegrity = errors.New("integrity check failed")
)

// Fatal conditions. Operations panic with an error wrapping one of these; the
// store is not usable afterwards.
var (
	// ErrInvariant indicates internal corruption, such as a reference count
	// underflow or a hash index entry missing for a live value.
	ErrInvariant = errors.New("store invariant violated")

	// ErrInvalidHandle indicates a handle that does not address a live value.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrTypeMismatch indicates a handle or value used with the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotEmpty indicates PrepareForDeserialize on a store with live values.
	ErrNotEmpty = errors.New("store is not empty")

	// ErrClosed indicates use of a closed store.
	ErrClosed = errors.New("store is closed")
)

// IntegrityProblem describes one handle whose reference count disagrees with
// the number of owners supplied to CheckIntegrity.
type IntegrityProblem struct {
	Handle   Handle
	RefCount uint32
	Owners   int
	Reason   string
}

func (p IntegrityProblem) String() string {
	return fmt.Sprintf("%s: %s (refcount %d, owners %d)", p.Handle, p.Reason, p.RefCount, p.Owners)
}

// IntegrityError lists every problem found by CheckIntegrity.
type IntegrityError struct {
	Problems []IntegrityProblem
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integrity check failed: %d problem(s)", len(e.Problems))
	for i, p := range e.Problems {
		if i == 8 {
			fmt.Fprintf(&b, "; ...")
			break
		}
		b.WriteString("; ")
		b.WriteString(p.String())
	}
	return b.String()
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, slot.ErrCapacityExceeded) || errors.Is(err, slot.ErrRefCountOverflow) {
		return fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	}
	if errors.Is(err, slot.ErrRefCountUnderflow) ||
		errors.Is(err, slot.ErrFreeSlot) ||
		errors.Is(err, hashindex.ErrEntryNotFound) {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}

	return err
}

// fatal panics with err normalized to one of the fatal sentinels.
func fatal(err error) {
	err = translateError(err)
	if !errors.Is(err, ErrInvariant) {
		err = fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	panic(err)
}
