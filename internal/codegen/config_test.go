package codegen

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := LoadOptions(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	want := Options{DefaultOrder: "little", Arch: runtime.GOARCH, BuildTag: "ignorePodGen"}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options diff (-want +got):\n%s", diff)
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	cfg := `
default_order = "big"
arch = "arm64"
build_tag = "nogen"
`
	if err := os.WriteFile(filepath.Join(dir, configFile), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := Options{DefaultOrder: "big", Arch: "arm64", BuildTag: "nogen"}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options diff (-want +got):\n%s", diff)
	}
}

func TestLoadOptionsRejects(t *testing.T) {
	for name, cfg := range map[string]string{
		"badOrder":    `default_order = "middle"`,
		"emptyTag":    `build_tag = ""`,
		"invalidToml": `default_order = `,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, configFile), []byte(cfg), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadOptions(dir); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
