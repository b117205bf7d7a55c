package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBytesCapacity(t *testing.T) {
	for _, size := range []int{0, 1, 100, 128, 129, 4096} {
		b := GetBytes(size)
		require.NotNil(t, b)
		assert.Zero(t, len(*b))
		assert.GreaterOrEqual(t, cap(*b), size)
		assert.Zero(t, cap(*b)&(cap(*b)-1), "capacity %d is not a power of two", cap(*b))
		FreeBytes(b)
	}
}

func TestFreeBytesResets(t *testing.T) {
	b := GetBytes(64)
	*b = append(*b, 1, 2, 3)
	FreeBytes(b)

	got := GetBytes(64)
	assert.Zero(t, len(*got))
	FreeBytes(got)
}

func TestOversizedBufferDropped(t *testing.T) {
	b := GetBytes(maxPooledSize * 2)
	require.GreaterOrEqual(t, cap(*b), maxPooledSize*2)
	FreeBytes(b) // must not panic
	FreeBytes(nil)
}
