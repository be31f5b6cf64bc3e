package snapshot

import "errors"

var (
	// ErrCorrupt is returned when a snapshot fails validation.
	ErrCorrupt = errors.New("snapshot corrupt")

	// ErrIncompatibleFormat is returned for snapshots written with an unknown
	// version, compression or codec.
	ErrIncompatibleFormat = errors.New("incompatible snapshot format")

	// ErrUnknownType is returned when a snapshot holds a type that is not
	// registered with the destination store.
	ErrUnknownType = errors.New("unknown shared value type")
)
