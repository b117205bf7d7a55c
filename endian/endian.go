// Package endian provides byte order primitives for binary encoding and
// decoding. Byte order is always an explicit argument; nothing in this
// package infers a default from the platform.
package endian

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Engine combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary. binary.LittleEndian and binary.BigEndian both satisfy
// it, so an Engine can be passed anywhere the standard interfaces are
// expected.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Order selects the byte order of a multi-byte primitive.
type Order uint8

const (
	// Little stores the least significant byte first.
	Little Order = iota
	// Big stores the most significant byte first.
	Big
	// Native resolves to the byte order of the host, probed once at init.
	// A value serialized with Native is not portable across hosts of
	// different endianness.
	Native
)

// hostEngine probes the host byte order with a fixed integer value. For a
// little-endian host the low byte of 0x0100 is stored first.
var hostEngine Engine = func() Engine {
	var x uint16 = 0x0100
	if *(*byte)(unsafe.Pointer(&x)) == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}()

func (o Order) String() string {
	switch o {
	case Little:
		return "little"
	case Big:
		return "big"
	case Native:
		return "native"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// Engine returns the binary engine for o. It panics on an Order value
// outside the declared constants; that is a programming error, not an I/O
// condition.
func (o Order) Engine() Engine {
	switch o {
	case Little:
		return binary.LittleEndian
	case Big:
		return binary.BigEndian
	case Native:
		return hostEngine
	default:
		panic(fmt.Sprintf("endian: invalid order %d", uint8(o)))
	}
}

// ParseOrder maps the textual spellings used in `pod:"..."` struct tags and
// podgen.toml to an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "little":
		return Little, nil
	case "big":
		return Big, nil
	case "native":
		return Native, nil
	default:
		return Little, fmt.Errorf("endian: unknown byte order %q", s)
	}
}

func PutUint16(b []byte, v uint16, o Order) { o.Engine().PutUint16(b, v) }
func PutUint32(b []byte, v uint32, o Order) { o.Engine().PutUint32(b, v) }
func PutUint64(b []byte, v uint64, o Order) { o.Engine().PutUint64(b, v) }

func Uint16(b []byte, o Order) uint16 { return o.Engine().Uint16(b) }
func Uint32(b []byte, o Order) uint32 { return o.Engine().Uint32(b) }
func Uint64(b []byte, o Order) uint64 { return o.Engine().Uint64(b) }

func AppendUint16(b []byte, v uint16, o Order) []byte { return o.Engine().AppendUint16(b, v) }
func AppendUint32(b []byte, v uint32, o Order) []byte { return o.Engine().AppendUint32(b, v) }
func AppendUint64(b []byte, v uint64, o Order) []byte { return o.Engine().AppendUint64(b, v) }
