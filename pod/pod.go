// Package pod implements the Plain Old Data capability: safe
// reinterpretation of a value's in-memory representation as a byte slice,
// and reconstruction of a value from such a slice.
//
// The capability is gated by the Plain interface. Its marker method is
// implemented by code that `podgen generate` emits for structs embedding
// podgen.Plain, after the generator has verified that the layout is
// fixed-width, padding-free and holds no reference members. A hand-written
// PodPlain method is the auditable escape hatch for types the generator
// cannot see; writing one asserts the same properties.
package pod

import (
	"errors"
	"fmt"
	"unsafe"
)

// Plain is the per-type POD capability. A type implementing Plain promises
// that every bit pattern of its size is a well-defined value: no pointers,
// no slices, maps, strings or interfaces, and no padding bytes anywhere in
// its layout.
type Plain interface {
	PodPlain()
}

// ErrLengthMismatch is returned when a buffer's length does not equal the
// size of the target type. It is the only failure the conversion
// operations report; callers decide how to react.
var ErrLengthMismatch = errors.New("pod: buffer length does not match type size")

// Size returns the in-memory (and byte view) size of T.
func Size[T Plain]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// Bytes returns a byte slice aliasing v's memory. The slice has length
// exactly Size[T]() and remains valid only while v is. Writes through the
// slice mutate v directly; since every bit pattern is a legal value of a
// Plain type, no write can produce an invalid value.
func Bytes[T Plain](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// Read copies b into *v. It fails with ErrLengthMismatch unless
// len(b) == Size[T](); on failure *v is left unchanged.
func Read[T Plain](b []byte, v *T) error {
	if len(b) != int(unsafe.Sizeof(*v)) {
		return fmt.Errorf("%w: have %d bytes, %T needs %d",
			ErrLengthMismatch, len(b), *v, unsafe.Sizeof(*v))
	}
	copy(Bytes(v), b)
	return nil
}

// FromBytes constructs a new T from b. It fails with ErrLengthMismatch
// unless len(b) == Size[T]().
func FromBytes[T Plain](b []byte) (T, error) {
	var v T
	if err := Read(b, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Append appends a copy of v's byte representation to dst.
func Append[T Plain](dst []byte, v *T) []byte {
	return append(dst, Bytes(v)...)
}

// Clone returns an owned copy of v's byte representation.
func Clone[T Plain](v *T) []byte {
	b := make([]byte, unsafe.Sizeof(*v))
	copy(b, Bytes(v))
	return b
}
