package codec

import (
	"errors"
	"io"
	"math"

	"github.com/kanengo/podgen/endian"
)

// Decoder reads primitive values from an io.Reader. Every read demands the
// exact byte count of the requested primitive; a stream that ends earlier
// surfaces io.ErrUnexpectedEOF. Like the Encoder, primitives panic with a
// codec-tagged error and CatchPanics recovers it.
type Decoder struct {
	r       io.Reader
	off     int64
	scratch [16]byte
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Offset reports the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.off
}

// read fills and returns n bytes of scratch space, n <= 16.
func (d *Decoder) read(n int) []byte {
	b := d.scratch[:n]
	d.fill(b)
	return b
}

func (d *Decoder) fill(b []byte) {
	if len(b) == 0 {
		return
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) {
			// A clean EOF still means the stream ended before the bytes
			// this value requires.
			err = io.ErrUnexpectedEOF
		}
		panic(makeCodecError("read %d bytes at offset %d: %w", len(b), d.off, err))
	}
	d.off += int64(len(b))
}

func (d *Decoder) Uint8() uint8 {
	return d.read(1)[0]
}

func (d *Decoder) Byte() byte {
	return d.Uint8()
}

func (d *Decoder) Int8() int8 {
	return int8(d.Uint8())
}

func (d *Decoder) Bool() bool {
	return d.Uint8() != 0
}

func (d *Decoder) Uint16(o endian.Order) uint16 {
	return endian.Uint16(d.read(2), o)
}

func (d *Decoder) Uint32(o endian.Order) uint32 {
	return endian.Uint32(d.read(4), o)
}

func (d *Decoder) Uint64(o endian.Order) uint64 {
	return endian.Uint64(d.read(8), o)
}

func (d *Decoder) Int16(o endian.Order) int16 {
	return int16(d.Uint16(o))
}

func (d *Decoder) Int32(o endian.Order) int32 {
	return int32(d.Uint32(o))
}

func (d *Decoder) Int64(o endian.Order) int64 {
	return int64(d.Uint64(o))
}

func (d *Decoder) Float32(o endian.Order) float32 {
	return math.Float32frombits(d.Uint32(o))
}

func (d *Decoder) Float64(o endian.Order) float64 {
	return math.Float64frombits(d.Uint64(o))
}

func (d *Decoder) Complex64(o endian.Order) complex64 {
	re := d.Float32(o)
	im := d.Float32(o)
	return complex(re, im)
}

func (d *Decoder) Complex128(o endian.Order) complex128 {
	re := d.Float64(o)
	im := d.Float64(o)
	return complex(re, im)
}

// Raw fills dst with exactly len(dst) bytes. The zero-copy path of Plain
// types goes through here.
func (d *Decoder) Raw(dst []byte) {
	d.fill(dst)
}

// Skip discards n bytes (the `skip=N` tag option).
func (d *Decoder) Skip(n int) {
	for n > 0 {
		chunk := n
		if chunk > len(d.scratch) {
			chunk = len(d.scratch)
		}
		d.fill(d.scratch[:chunk])
		n -= chunk
	}
}

// AlignTo discards bytes until the stream offset is a multiple of n (the
// `align=N` tag option).
func (d *Decoder) AlignTo(n int) {
	if n <= 1 {
		return
	}
	if pad := int(d.off % int64(n)); pad != 0 {
		d.Skip(n - pad)
	}
}
