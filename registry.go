package sharedcomp

import (
	"fmt"
	"hash/maphash"
	"iter"
	"sync"

	"github.com/hupe1980/sharedcomp/internal/hash"
)

// Traits supplies content equality and content hashing for a registered type.
//
// Equal values must hash equally. Hashes only need to be stable for the lifetime
// of the process.
type Traits[T any] interface {
	Equal(a, b T) bool
	Hash(v T) uint64
}

// TraitsFunc adapts a pair of functions to Traits.
type TraitsFunc[T any] struct {
	EqualFunc func(a, b T) bool
	HashFunc  func(v T) uint64
}

// Equal implements Traits.
func (f TraitsFunc[T]) Equal(a, b T) bool { return f.EqualFunc(a, b) }

// Hash implements Traits.
func (f TraitsFunc[T]) Hash(v T) uint64 { return f.HashFunc(v) }

// Hashable is implemented by values that know their own equality and hash.
type Hashable[T any] interface {
	Equal(other T) bool
	Hash() uint64
}

type hashableTraits[T Hashable[T]] struct{}

func (hashableTraits[T]) Equal(a, b T) bool { return a.Equal(b) }
func (hashableTraits[T]) Hash(v T) uint64   { return v.Hash() }

// comparableTraits uses == and the runtime hash of T. Floating point NaN fields
// never compare equal, so values containing NaN are never deduplicated.
type comparableTraits[T comparable] struct {
	seed maphash.Seed
}

func (c comparableTraits[T]) Equal(a, b T) bool { return a == b }
func (c comparableTraits[T]) Hash(v T) uint64   { return maphash.Comparable(c.seed, v) }

// HashBytes returns a content hash of b, for use in custom Traits.
func HashBytes(b []byte) uint64 { return hash.Bytes(b) }

// HashString returns a content hash of s, for use in custom Traits.
func HashString(s string) uint64 { return hash.String(s) }

// HashCombine mixes h2 into h1, for hashing multi-field values.
func HashCombine(h1, h2 uint64) uint64 { return hash.Combine(h1, h2) }

// AnyType is the type-erased view of a registered type.
type AnyType interface {
	// ID returns the type's registry ID.
	ID() TypeID
	// Name returns the unique registration name.
	Name() string
	// New returns a pointer to a fresh zero value, suitable for decoding into.
	New() any
	// IsDefault reports whether v (a T or *T) equals the registered default.
	IsDefault(v any) bool
	// InsertBoxed inserts v (a T or *T) as if by InsertAssumeNonDefault.
	InsertBoxed(s *Store, v any) (Handle, error)

	newColumn(s *Store) column
}

// Type is a registered shared value type.
type Type[T any] struct {
	id     TypeID
	name   string
	traits Traits[T]
	def    T
}

var _ AnyType = (*Type[int])(nil)

// TypeOption configures a Type at registration.
type TypeOption[T any] func(*Type[T])

// WithDefault sets the registered default value. Without it the zero value is used.
func WithDefault[T any](v T) TypeOption[T] {
	return func(t *Type[T]) {
		t.def = v
	}
}

// ID returns the type's registry ID.
func (t *Type[T]) ID() TypeID { return t.id }

// Name returns the registration name.
func (t *Type[T]) Name() string { return t.name }

// Default returns the registered default value.
func (t *Type[T]) Default() T { return t.def }

// Equal reports content equality of a and b.
func (t *Type[T]) Equal(a, b T) bool { return t.traits.Equal(a, b) }

// Hash returns the content hash of v.
func (t *Type[T]) Hash(v T) uint64 { return t.traits.Hash(v) }

// New implements AnyType.
func (t *Type[T]) New() any { return new(T) }

// IsDefault implements AnyType.
func (t *Type[T]) IsDefault(v any) bool {
	return t.traits.Equal(t.unbox(v), t.def)
}

// InsertBoxed implements AnyType.
func (t *Type[T]) InsertBoxed(s *Store, v any) (Handle, error) {
	return InsertAssumeNonDefault(s, t, t.unbox(v))
}

func (t *Type[T]) unbox(v any) T {
	switch x := v.(type) {
	case T:
		return x
	case *T:
		return *x
	}
	panic(fmt.Errorf("%w: %T is not a %s value", ErrTypeMismatch, v, t.name))
}

func (t *Type[T]) newColumn(s *Store) column {
	return newTypedColumn(s, t)
}

// Registry assigns stable IDs to shared value types.
//
// Types are registered once, before the stores using them insert values of that
// type. Stores that exchange values through Transplant must share a Registry.
type Registry struct {
	mu     sync.RWMutex
	types  []AnyType
	byName map[string]TypeID
	seed   maphash.Seed
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]TypeID),
		seed:   maphash.MakeSeed(),
	}
}

// Register adds a type with the given traits and returns its handle-typed view.
func Register[T any](r *Registry, name string, traits Traits[T], opts ...TypeOption[T]) (*Type[T], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidType)
	}
	if traits == nil {
		return nil, fmt.Errorf("%w: %q has no traits", ErrInvalidType, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}

	t := &Type[T]{
		id:     TypeID(len(r.types) + 1),
		name:   name,
		traits: traits,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(t)
		}
	}

	r.types = append(r.types, t)
	r.byName[name] = t.id
	return t, nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry, name string, traits Traits[T], opts ...TypeOption[T]) *Type[T] {
	t, err := Register(r, name, traits, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// RegisterComparable registers T using == for equality and the runtime hash of T.
func RegisterComparable[T comparable](r *Registry, name string, opts ...TypeOption[T]) (*Type[T], error) {
	return Register[T](r, name, comparableTraits[T]{seed: r.seed}, opts...)
}

// RegisterHashable registers T using its own Equal and Hash methods.
func RegisterHashable[T Hashable[T]](r *Registry, name string, opts ...TypeOption[T]) (*Type[T], error) {
	return Register[T](r, name, hashableTraits[T]{}, opts...)
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (AnyType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.types[id-1], true
}

// Type returns the type registered with id.
func (r *Registry) Type(id TypeID) (AnyType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == 0 || int(id) > len(r.types) {
		return nil, false
	}
	return r.types[id-1], true
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Types yields registered types in registration order.
func (r *Registry) Types() iter.Seq[AnyType] {
	r.mu.RLock()
	types := r.types[:len(r.types):len(r.types)]
	r.mu.RUnlock()

	return func(yield func(AnyType) bool) {
		for _, t := range types {
			if !yield(t) {
				return
			}
		}
	}
}
