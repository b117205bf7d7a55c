package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanengo/podgen/endian"
)

// header mirrors the shape of generated code for
//
//	type header struct {
//		Seq    uint32 `pod:"big"`
//		Flag   uint8
//		Window uint16 `pod:"little"`
//	}
type header struct {
	Seq    uint32
	Flag   uint8
	Window uint16
}

func (x *header) PodEncode(enc *Encoder) {
	enc.Uint32(x.Seq, endian.Big)
	enc.Uint8(x.Flag)
	enc.Uint16(x.Window, endian.Little)
}

func (x *header) PodDecode(dec *Decoder) {
	x.Seq = dec.Uint32(endian.Big)
	x.Flag = dec.Uint8()
	x.Window = dec.Uint16(endian.Little)
}

func (x *header) PodSize() int {
	return 7
}

var headerWire = []byte{0x01, 0x02, 0x03, 0x04, 0xFF, 0x0B, 0x0A}

func TestEncodeWireFormat(t *testing.T) {
	h := header{Seq: 0x01020304, Flag: 0xFF, Window: 0x0A0B}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &h))
	assert.Equal(t, headerWire, buf.Bytes())
}

func TestDecodeWireFormat(t *testing.T) {
	got, err := Unmarshal[header](headerWire)
	require.NoError(t, err)
	assert.Equal(t, header{Seq: 0x01020304, Flag: 0xFF, Window: 0x0A0B}, got)
}

func TestMarshalRoundTrip(t *testing.T) {
	h := header{Seq: 42, Flag: 1, Window: 65535}

	data, err := Marshal(&h)
	require.NoError(t, err)
	require.Len(t, data, h.PodSize())

	got, err := Unmarshal[header](data)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeTruncated(t *testing.T) {
	for n := 0; n < len(headerWire); n++ {
		got, err := Unmarshal[header](headerWire[:n])
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "with %d bytes", n)
		assert.Zero(t, got, "no partial value may escape with %d bytes", n)
	}
}

// failWriter accepts the first n bytes and then refuses to write more.
type failWriter struct {
	n   int
	err error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if len(p) <= w.n {
		w.n -= len(p)
		return len(p), nil
	}
	n := w.n
	w.n = 0
	return n, w.err
}

func TestEncodeWriteError(t *testing.T) {
	sinkErr := errors.New("sink is full")
	h := header{Seq: 1}

	err := Encode(&failWriter{n: 3, err: sinkErr}, &h)
	require.ErrorIs(t, err, sinkErr)
}

func TestEncodeShortWrite(t *testing.T) {
	h := header{Seq: 1}

	// A writer that reports partial success without an error.
	err := Encode(&failWriter{n: 3, err: nil}, &h)
	require.ErrorIs(t, err, io.ErrShortWrite)
}

type failReader struct{ err error }

func (r failReader) Read([]byte) (int, error) { return 0, r.err }

func TestDecodeUnderlyingError(t *testing.T) {
	srcErr := errors.New("connection reset")
	_, err := Decode[header](failReader{err: srcErr})
	require.ErrorIs(t, err, srcErr)
}

// capped decodes like header but rejects windows above 1024.
type capped struct {
	header
}

func (x *capped) PodDecode(dec *Decoder) { x.header.PodDecode(dec) }

func (x *capped) Validate() error {
	if x.Window > 1024 {
		return errors.New("window out of range")
	}
	return nil
}

func TestDecodeValidate(t *testing.T) {
	got, err := Unmarshal[capped](headerWire)
	require.Error(t, err)
	assert.Zero(t, got)

	ok := header{Seq: 5, Window: 100}
	data, err := Marshal(&ok)
	require.NoError(t, err)
	v, err := Unmarshal[capped](data)
	require.NoError(t, err)
	assert.Equal(t, ok, v.header)
}

// padded exercises the skip and align emissions.
type padded struct {
	A uint8
	B uint16
}

func (x *padded) PodEncode(enc *Encoder) {
	enc.Uint8(x.A)
	enc.Zero(1)
	enc.AlignTo(4)
	enc.Uint16(x.B, endian.Big)
}

func (x *padded) PodDecode(dec *Decoder) {
	x.A = dec.Uint8()
	dec.Skip(1)
	dec.AlignTo(4)
	x.B = dec.Uint16(endian.Big)
}

func TestSkipAndAlign(t *testing.T) {
	p := padded{A: 0xAA, B: 0x0102}

	data, err := Marshal(&p)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x00, 0x00, 0x00, 0x01, 0x02}, data)

	got, err := Unmarshal[padded](data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRawLargeWrite(t *testing.T) {
	big := bytes.Repeat([]byte{0x5A}, 4096)

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Uint8(1)
	enc.Raw(big)
	enc.Flush()

	require.Equal(t, 1+len(big), buf.Len())
	assert.Equal(t, big, buf.Bytes()[1:])
	assert.Equal(t, int64(1+len(big)), enc.Offset())
}

func TestDecoderOffsets(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(headerWire))
	_ = dec.Uint32(endian.Big)
	assert.Equal(t, int64(4), dec.Offset())
	_ = dec.Uint8()
	_ = dec.Uint16(endian.Little)
	assert.Equal(t, int64(7), dec.Offset())
}

func TestPrimitiveRoundTrips(t *testing.T) {
	for _, o := range []endian.Order{endian.Little, endian.Big, endian.Native} {
		var buf bytes.Buffer
		enc := NewEncoder(&buf)
		enc.Bool(true)
		enc.Int8(-8)
		enc.Int16(-1616, o)
		enc.Int32(-323232, o)
		enc.Int64(-64646464, o)
		enc.Float32(3.5, o)
		enc.Float64(-2.25, o)
		enc.Complex64(complex(1, -2), o)
		enc.Complex128(complex(-3, 4), o)
		enc.Flush()

		dec := NewDecoder(&buf)
		assert.Equal(t, true, dec.Bool())
		assert.Equal(t, int8(-8), dec.Int8())
		assert.Equal(t, int16(-1616), dec.Int16(o))
		assert.Equal(t, int32(-323232), dec.Int32(o))
		assert.Equal(t, int64(-64646464), dec.Int64(o))
		assert.Equal(t, float32(3.5), dec.Float32(o))
		assert.Equal(t, float64(-2.25), dec.Float64(o))
		assert.Equal(t, complex64(complex(1, -2)), dec.Complex64(o))
		assert.Equal(t, complex(-3, 4), dec.Complex128(o))
	}
}

func TestCatchPanicsPassesForeignPanics(t *testing.T) {
	assert.Panics(t, func() {
		defer func() { _ = CatchPanics(recover()) }()
		panic("not a codec failure")
	})
	assert.NoError(t, CatchPanics(nil))
}
