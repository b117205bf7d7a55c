package codegen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/kanengo/podgen/endian"
)

// configFile is looked up in the directory `podgen generate` runs from.
const configFile = "podgen.toml"

// Options configures a generation run. All fields are optional; the zero
// config generates little-endian codecs checked against the host
// architecture's layout rules.
type Options struct {
	// DefaultOrder is the byte order of multi-byte fields that carry no
	// order in their `pod:"..."` tag: "little", "big" or "native".
	DefaultOrder string `toml:"default_order"`

	// Arch selects the architecture whose sizes and alignments the POD
	// layout verification runs against, e.g. "amd64" or "arm64".
	Arch string `toml:"arch"`

	// BuildTag is the negative build constraint stamped on generated
	// files so the generator can reload a package without them.
	BuildTag string `toml:"build_tag"`
}

func defaultOptions() Options {
	return Options{
		DefaultOrder: "little",
		Arch:         runtime.GOARCH,
		BuildTag:     "ignorePodGen",
	}
}

// LoadOptions reads podgen.toml from dir if present and validates it.
func LoadOptions(dir string) (Options, error) {
	opts := defaultOptions()

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return opts, err
	}

	if _, err := toml.Decode(string(data), &opts); err != nil {
		return opts, fmt.Errorf("parse %s: %w", configFile, err)
	}
	if _, err := endian.ParseOrder(opts.DefaultOrder); err != nil {
		return opts, fmt.Errorf("%s: default_order: %w", configFile, err)
	}
	if opts.BuildTag == "" {
		return opts, fmt.Errorf("%s: build_tag must not be empty", configFile)
	}
	return opts, nil
}

// order resolves the configured default order. LoadOptions validated the
// spelling already.
func (o Options) order() endian.Order {
	ord, err := endian.ParseOrder(o.DefaultOrder)
	if err != nil {
		panic(err)
	}
	return ord
}
