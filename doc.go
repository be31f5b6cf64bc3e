// Package sharedcomp interns shared component values for an entity component
// system and reference counts them.
//
// Many entities often carry identical values of a shared component (a material,
// a mesh reference, a team tag). A Store keeps one copy of each distinct value
// per registered type and hands out compact Handles. Entities then store the
// handle instead of the value.
//
// # Quick Start
//
//	reg := sharedcomp.NewRegistry()
//	team, _ := sharedcomp.RegisterComparable[string](reg, "team")
//
//	s := sharedcomp.New(reg)
//	defer s.Close()
//
//	red, _ := sharedcomp.Insert(s, team, "red")   // refcount 1
//	again, _ := sharedcomp.Insert(s, team, "red") // same handle, refcount 2
//	_ = red == again
//
//	s.RemoveReference(red)
//	s.RemoveReference(again) // slot recycled
//
// # Defaults
//
// Every type has a registered default (the zero value unless WithDefault is
// used). Inserting the default returns DefaultHandle, which is never stored,
// never counted and reads back as the default of whatever type is asked.
//
// # Handles
//
// A Handle packs the type ID into its high 32 bits and the slot index into its
// low 32 bits. Handles stay valid while the value has references. After the last
// reference is released the slot may be reused by a different value.
//
// Freed slots are reused highest index first, which keeps tables dense at the
// low end.
//
// # Versions
//
// Each stored value carries a version starting at 1. IncrementVersion lets a
// caller mark a value as changed for change detection. Versions are not carried
// across Transplant or snapshots.
//
// # Moving Stores
//
// Transplant moves every value of one store into another built on the same
// Registry and returns a Remap from old to new handles. Package snapshot
// serializes a store to a blobstore and loads it back through Transplant.
//
// # Errors
//
// Recoverable conditions (capacity, registry mismatch, duplicate registration)
// are returned as errors. Contract violations and internal corruption (releasing
// too many references, stale handles, using a closed store) panic with an error
// wrapping ErrInvariant, ErrInvalidHandle, ErrTypeMismatch, ErrNotEmpty or
// ErrClosed.
//
// # Concurrency
//
// A Store is not safe for concurrent use.
package sharedcomp
