package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Known answer for the standard check input.
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))

	h := NewCRC32C()
	_, _ = h.Write([]byte("12345"))
	_, _ = h.Write([]byte("6789"))
	assert.Equal(t, CRC32C([]byte("123456789")), h.Sum32())
}

func TestContentHashes(t *testing.T) {
	assert.Equal(t, Bytes([]byte("material")), String("material"))
	assert.NotEqual(t, String("a"), String("b"))
	assert.NotEqual(t, Uint64(1), Uint64(2))
	assert.Equal(t, Uint64(42), Uint64(42))
}

func TestCombine(t *testing.T) {
	a, b := String("a"), String("b")
	assert.NotEqual(t, Combine(a, b), Combine(b, a))
	assert.Equal(t, Combine(a, b), Combine(a, b))
}
