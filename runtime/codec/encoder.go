package codec

import (
	"io"
	"math"

	"github.com/kanengo/podgen/endian"
	"github.com/kanengo/podgen/runtime/pool"
)

// Encoder writes primitive values to an io.Writer. Field writes are
// coalesced in a pooled buffer and pushed to the writer when the buffer
// fills or Flush is called; nothing is retracted on failure, so a sink
// observing a partial message after an error is expected (wrap the sink if
// atomicity is needed).
//
// Primitives panic with a codec-tagged error on I/O failure; CatchPanics
// recovers it. The Encode entry point handles both ends of that contract.
type Encoder struct {
	w   io.Writer
	buf *[]byte
	off int64 // bytes encoded since NewEncoder, flushed or not
}

const encoderBufSize = 512

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, buf: pool.GetBytes(encoderBufSize)}
}

// Offset reports the number of bytes encoded so far. Alignment padding is
// computed against this stream offset.
func (e *Encoder) Offset() int64 {
	return e.off
}

// Flush pushes buffered bytes to the writer. It panics with a codec-tagged
// error if the writer fails or accepts a short count.
func (e *Encoder) Flush() {
	if len(*e.buf) == 0 {
		return
	}
	e.writeAll(*e.buf)
	*e.buf = (*e.buf)[:0]
}

// free returns the coalescing buffer to the pool. The Encoder must not be
// used afterwards.
func (e *Encoder) free() {
	pool.FreeBytes(e.buf)
	e.buf = nil
}

func (e *Encoder) writeAll(b []byte) {
	n, err := e.w.Write(b)
	if err != nil {
		panic(makeCodecError("write at offset %d: %w", e.off-int64(len(b)), err))
	}
	if n < len(b) {
		panic(makeCodecError("write at offset %d accepted %d of %d bytes: %w",
			e.off-int64(len(b)), n, len(b), io.ErrShortWrite))
	}
}

// room makes space for n more buffered bytes, flushing first if needed.
func (e *Encoder) room(n int) {
	if len(*e.buf)+n > cap(*e.buf) {
		e.Flush()
	}
}

func (e *Encoder) Uint8(v uint8) {
	e.room(1)
	*e.buf = append(*e.buf, v)
	e.off += 1
}

func (e *Encoder) Byte(v byte) {
	e.Uint8(v)
}

func (e *Encoder) Int8(v int8) {
	e.Uint8(uint8(v))
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint8(1)
	} else {
		e.Uint8(0)
	}
}

func (e *Encoder) Uint16(v uint16, o endian.Order) {
	e.room(2)
	*e.buf = endian.AppendUint16(*e.buf, v, o)
	e.off += 2
}

func (e *Encoder) Uint32(v uint32, o endian.Order) {
	e.room(4)
	*e.buf = endian.AppendUint32(*e.buf, v, o)
	e.off += 4
}

func (e *Encoder) Uint64(v uint64, o endian.Order) {
	e.room(8)
	*e.buf = endian.AppendUint64(*e.buf, v, o)
	e.off += 8
}

func (e *Encoder) Int16(v int16, o endian.Order) {
	e.Uint16(uint16(v), o)
}

func (e *Encoder) Int32(v int32, o endian.Order) {
	e.Uint32(uint32(v), o)
}

func (e *Encoder) Int64(v int64, o endian.Order) {
	e.Uint64(uint64(v), o)
}

func (e *Encoder) Float32(v float32, o endian.Order) {
	e.Uint32(math.Float32bits(v), o)
}

func (e *Encoder) Float64(v float64, o endian.Order) {
	e.Uint64(math.Float64bits(v), o)
}

func (e *Encoder) Complex64(v complex64, o endian.Order) {
	e.Float32(real(v), o)
	e.Float32(imag(v), o)
}

func (e *Encoder) Complex128(v complex128, o endian.Order) {
	e.Float64(real(v), o)
	e.Float64(imag(v), o)
}

// Raw writes b as-is. The zero-copy path of Plain types goes through here.
func (e *Encoder) Raw(b []byte) {
	if len(b) > cap(*e.buf) {
		e.Flush()
		e.off += int64(len(b))
		e.writeAll(b)
		return
	}
	e.room(len(b))
	*e.buf = append(*e.buf, b...)
	e.off += int64(len(b))
}

// Zero writes n zero bytes (the `skip=N` tag option).
func (e *Encoder) Zero(n int) {
	for n > 0 {
		chunk := n
		if free := cap(*e.buf) - len(*e.buf); chunk > free {
			chunk = free
			if chunk == 0 {
				e.Flush()
				continue
			}
		}
		*e.buf = append(*e.buf, make([]byte, chunk)...)
		e.off += int64(chunk)
		n -= chunk
	}
}

// AlignTo writes zero bytes until the stream offset is a multiple of n
// (the `align=N` tag option). Offsets count from the start of the stream,
// so nested values align relative to the outermost message.
func (e *Encoder) AlignTo(n int) {
	if n <= 1 {
		return
	}
	if pad := int(e.off % int64(n)); pad != 0 {
		e.Zero(n - pad)
	}
}
