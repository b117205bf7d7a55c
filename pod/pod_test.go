package pod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunk is a hand-declared Plain type: all fields fixed width, offsets
// 0/4/8, total 12 bytes, no padding.
type chunk struct {
	Tag  [4]byte
	Off  uint32
	Used uint32
}

func (chunk) PodPlain() {}

func TestBytesLength(t *testing.T) {
	var c chunk
	assert.Equal(t, 12, Size[chunk]())
	assert.Len(t, Bytes(&c), 12)
}

func TestBytesAliases(t *testing.T) {
	c := chunk{Tag: [4]byte{'p', 'o', 'd', '0'}}
	b := Bytes(&c)

	// The view reads the live value.
	c.Tag[3] = '1'
	assert.Equal(t, byte('1'), b[3])

	// Writes through the view mutate the value.
	b[0] = 'q'
	assert.Equal(t, byte('q'), c.Tag[0])
}

func TestRoundTrip(t *testing.T) {
	c := chunk{Tag: [4]byte{0xde, 0xad, 0xbe, 0xef}, Off: 0x01020304, Used: 42}

	got, err := FromBytes[chunk](Bytes(&c))
	require.NoError(t, err)
	assert.Equal(t, c, got)

	got2, err := FromBytes[chunk](Clone(&c))
	require.NoError(t, err)
	assert.Equal(t, c, got2)
}

func TestLengthMismatch(t *testing.T) {
	_, err := FromBytes[chunk](make([]byte, 11))
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromBytes[chunk](make([]byte, 13))
	require.ErrorIs(t, err, ErrLengthMismatch)

	var c chunk
	c.Off = 7
	err = Read(make([]byte, 0), &c)
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Equal(t, uint32(7), c.Off, "failed Read must not touch the value")
}

func TestAppend(t *testing.T) {
	c := chunk{Off: 1}
	b := Append([]byte{0xff}, &c)
	require.Len(t, b, 13)
	assert.Equal(t, byte(0xff), b[0])

	got, err := FromBytes[chunk](b[1:])
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
