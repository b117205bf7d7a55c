// Package codec is the runtime half of podgen's generated codecs: a
// minimal synchronous stream capability (Encoder/Decoder over io.Writer
// and io.Reader) and the entry points that run a generated
// PodEncode/PodDecode walk with a single failure-stops-all policy.
//
// The package never retries, never skips a failed field and never returns
// a partially-decoded value. Blocking, timeouts and cancellation belong to
// the underlying reader/writer; a failure there propagates unchanged
// inside the returned error chain.
package codec

import (
	"bytes"
	"fmt"
	"io"
)

// Marshaler is implemented by generated code (or by hand, in the same
// shape) to write a value's wire representation.
type Marshaler interface {
	PodEncode(*Encoder)
}

// Unmarshaler fills a value from its wire representation.
type Unmarshaler interface {
	PodDecode(*Decoder)
}

// Binary combines both directions; generated types satisfy it.
type Binary interface {
	Marshaler
	Unmarshaler
}

// Sizer reports a value's exact encoded size in bytes. Generated PodSize
// methods implement it; Marshal uses it to pre-size buffers.
type Sizer interface {
	PodSize() int
}

// Validator lets a type assert invariants stricter than "any bit pattern
// is legal". Decode and Unmarshal call it after a successful wire read and
// fail the decode if it errors.
type Validator interface {
	Validate() error
}

// Ptr constrains P to a pointer to T carrying the generated decode method.
type Ptr[T any] interface {
	*T
	Unmarshaler
}

// Encode writes v to w. Fields are written in declaration order; on the
// first failing field the error is returned and bytes already pushed to w
// stay there.
func Encode(w io.Writer, v Marshaler) (err error) {
	enc := NewEncoder(w)
	defer enc.free()
	defer func() {
		if e := CatchPanics(recover()); e != nil {
			err = e
		}
	}()

	v.PodEncode(enc)
	enc.Flush()

	return nil
}

// Decode reads one value of T from r. On any failure the partially-decoded
// value is discarded and only the error is returned. If T implements
// Validator the decoded value is validated before being handed out.
func Decode[T any, P Ptr[T]](r io.Reader) (v T, err error) {
	defer func() {
		if e := CatchPanics(recover()); e != nil {
			var zero T
			v, err = zero, e
		}
	}()

	P(&v).PodDecode(NewDecoder(r))

	if val, ok := any(&v).(Validator); ok {
		if verr := val.Validate(); verr != nil {
			var zero T
			return zero, fmt.Errorf("codec: validate %T: %w", v, verr)
		}
	}

	return v, nil
}

// Marshal encodes v into a new byte slice, pre-sized when v reports its
// encoded size.
func Marshal(v Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	if s, ok := v.(Sizer); ok {
		buf.Grow(s.PodSize())
	}
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one value of T from data. Trailing bytes after the
// value are not an error; the format carries no framing.
func Unmarshal[T any, P Ptr[T]](data []byte) (T, error) {
	return Decode[T, P](bytes.NewReader(data))
}
