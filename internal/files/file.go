// Package files writes generated source atomically: output goes to a
// temporary file in the destination directory and is renamed into place on
// Close, so a crashed or failed generation never leaves a torn
// podgen_gen.go behind.
package files

import (
	"fmt"
	"os"
	"path/filepath"
)

type Writer struct {
	dst     string   // name of the destination file
	tmp     *os.File // temporary file data is written to
	tmpName string
	err     error
}

func NewWriter(file string) *Writer {
	w := &Writer{dst: file}
	dir, base := filepath.Dir(file), filepath.Base(file)
	w.tmp, w.err = os.CreateTemp(dir, base+".tmp*")
	if w.err == nil {
		w.tmpName = w.tmp.Name()
	}
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.tmp == nil {
		return 0, fmt.Errorf("file %s already cleaned up", w.dst)
	}

	n, err := w.tmp.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}

// Close renames the temporary file onto the destination. On any error the
// temporary file is removed and the destination is untouched.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.tmp == nil {
		return fmt.Errorf("file %s already cleaned up", w.dst)
	}

	err := w.tmp.Close()
	w.tmp = nil
	if err != nil {
		_ = os.Remove(w.tmpName)
		return err
	}

	if err := os.Rename(w.tmpName, w.dst); err != nil {
		_ = os.Remove(w.tmpName)
		return err
	}
	return nil
}

// Cleanup discards the temporary file. Calling it after a successful Close
// is a no-op; defer it alongside NewWriter.
func (w *Writer) Cleanup() {
	if w.tmp == nil {
		return
	}
	_ = w.tmp.Close()
	w.tmp = nil
	_ = os.Remove(w.tmpName)
}
