package codec

import (
	"errors"
	"fmt"
)

// codecError tags failures raised inside Encoder/Decoder primitives so that
// CatchPanics can tell them apart from genuine programming panics. The
// wrapped chain always ends in the triggering condition: io.ErrUnexpectedEOF
// for exhausted readers, io.ErrShortWrite for sinks that refuse bytes, or
// the error surfaced by the underlying reader/writer.
type codecError struct {
	err error
}

func (e codecError) Error() string {
	if e.err == nil {
		return "codec:"
	}
	return "codec: " + e.err.Error()
}

func (e codecError) Unwrap() error {
	return e.err
}

func makeCodecError(format string, args ...any) codecError {
	return codecError{err: fmt.Errorf(format, args...)}
}

// CatchPanics converts a panic raised by an Encoder or Decoder primitive
// back into its error. Any other panic value is re-raised. Use it in a
// recover handler around generated PodEncode/PodDecode calls; the Encode
// and Decode entry points already do.
func CatchPanics(r any) error {
	if r == nil {
		return nil
	}

	err, ok := r.(error)
	if !ok {
		panic(r)
	}

	var ce codecError
	if errors.As(err, &ce) {
		return err
	}

	panic(r)
}
