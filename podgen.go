// Package podgen provides plain-old-data byte views and generated binary
// codecs for Go structs.
//
// A struct opts in to code generation by embedding one of the marker types
// below and running `podgen generate` over its package. The generator writes
// a podgen_gen.go file containing PodEncode/PodDecode/PodSize methods that
// serialize the struct field by field, in declaration order, with no padding
// bytes, no length prefixes and no type tags. The byte order of every
// multi-byte field is explicit, declared with a `pod:"..."` struct tag:
//
//	type Header struct {
//		podgen.AutoBinary
//
//		Seq    uint32 `pod:"big"`
//		Flag   uint8
//		Window uint16 `pod:"little"`
//	}
//
// Fields without an order tag use the package default order (podgen.toml
// `default_order`, little-endian if unset). The wire format is defined
// entirely by the type declaration; reordering fields, changing widths or
// changing byte order changes the format incompatibly.
package podgen

// AutoBinary marks a struct for codec generation. Embed it in a struct and
// run `podgen generate`; every field must resolve to a fixed-width basic
// type, a nested struct that itself has generated (or hand-written) codec
// methods, or a fixed-size array of a resolvable element type. Anything
// else is a generation-time error.
type AutoBinary struct{}

// Plain marks a struct as Plain Old Data in addition to requesting codec
// generation. The generator verifies the claim: every member must be
// fixed-width down to primitives, the layout must contain no padding bytes,
// and the type must hold no pointers, slices, maps, strings, interfaces or
// other reference members. Only when verification passes does the generated
// code implement pod.Plain, unlocking the zero-copy byte view operations in
// the pod package.
//
// Embed the marker as the first field. A zero-size marker in the last
// position forces trailing padding and the verification will reject it.
type Plain struct{}
