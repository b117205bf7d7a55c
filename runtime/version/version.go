// Package version carries the podgen tool version. The generator stamps it
// into generated file headers so stale output is identifiable.
package version

import "fmt"

const (
	Major = 0
	Minor = 1
	Patch = 0
)

var ToolVersion = SemVer{Major, Minor, Patch}

type SemVer struct {
	Major int
	Minor int
	Patch int
}

func (v SemVer) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}
