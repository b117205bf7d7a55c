package codegen

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

const podgenPackagePath = "github.com/kanengo/podgen"

// typeSet holds the type and import bookkeeping one package's generation
// needs. Imports are registered lazily: a package shows up in the generated
// file's import block only if some emitted expression qualified a name
// through it.
type typeSet struct {
	pkg            *packages.Package
	imported       []importPkg
	importedByPath map[string]importPkg
	importedByName map[string]importPkg
}

// importPkg is a package imported by the generated code.
type importPkg struct {
	path  string // e.g., "github.com/kanengo/podgen/endian"
	pkg   string // e.g., "endian"
	alias string // e.g., foo in `import foo "endian"`
	local bool   // is this the package being generated?
}

func (i importPkg) name() string {
	if i.local {
		return ""
	} else if i.alias != "" {
		return i.alias
	}
	return i.pkg
}

func (i importPkg) qualify(member string) string {
	if i.local {
		return member
	}
	return fmt.Sprintf("%s.%s", i.name(), member)
}

func newTypeSet(pkg *packages.Package) *typeSet {
	return &typeSet{
		pkg:            pkg,
		imported:       []importPkg{},
		importedByPath: make(map[string]importPkg),
		importedByName: make(map[string]importPkg),
	}
}

func (tSet *typeSet) importPackage(path, pkg string) importPkg {
	newImportPkg := func(path, pkg, alias string, local bool) importPkg {
		i := importPkg{path: path, pkg: pkg, alias: alias, local: local}
		tSet.imported = append(tSet.imported, i)
		tSet.importedByPath[i.path] = i
		tSet.importedByName[i.name()] = i
		return i
	}

	if imp, ok := tSet.importedByPath[path]; ok {
		return imp
	}

	if _, ok := tSet.importedByName[pkg]; !ok {
		return newImportPkg(path, pkg, "", path == tSet.pkg.PkgPath)
	}

	var alias string
	counter := 1
	for {
		alias = fmt.Sprintf("%s%d", pkg, counter)
		if _, ok := tSet.importedByName[alias]; !ok {
			break
		}
		counter += 1
	}

	return newImportPkg(path, pkg, alias, path == tSet.pkg.PkgPath)
}

// genTypeString returns the Go source spelling of t inside the generated
// file, registering imports for foreign packages as a side effect.
func (tSet *typeSet) genTypeString(t types.Type) string {
	qualifier := func(p *types.Package) string {
		if p == tSet.pkg.Types {
			return ""
		}
		return tSet.importPackage(p.Path(), p.Name()).name()
	}
	return types.TypeString(t, qualifier)
}

func isPodgenType(t types.Type, name string) bool {
	named, ok := t.(*types.Named)
	return ok &&
		named.Obj().Pkg() != nil &&
		named.Obj().Pkg().Path() == podgenPackagePath &&
		named.Obj().Name() == name
}

// isAutoBinaryMarker reports whether t is podgen.AutoBinary.
func isAutoBinaryMarker(t types.Type) bool {
	return isPodgenType(t, "AutoBinary")
}

// isPlainMarker reports whether t is podgen.Plain.
func isPlainMarker(t types.Type) bool {
	return isPodgenType(t, "Plain")
}

func isMarker(t types.Type) bool {
	return isAutoBinaryMarker(t) || isPlainMarker(t)
}

func isInvalid(t types.Type) bool {
	return t.String() == "invalid type"
}

// fixedWidth returns the wire width in bytes of a fixed-width basic kind,
// or -1 for kinds the format cannot carry (platform-width integers,
// strings, unsafe pointers).
func fixedWidth(k types.BasicKind) int {
	switch k {
	case types.Bool, types.Int8, types.Uint8:
		return 1
	case types.Int16, types.Uint16:
		return 2
	case types.Int32, types.Uint32, types.Float32:
		return 4
	case types.Int64, types.Uint64, types.Float64, types.Complex64:
		return 8
	case types.Complex128:
		return 16
	default:
		return -1
	}
}

// hasCodecMethods reports whether n already carries
// PodEncode/PodDecode/PodSize, hand-written or generated by an earlier run
// in another package.
func hasCodecMethods(n *types.Named) bool {
	var enc, dec, size bool
	for i := 0; i < n.NumMethods(); i++ {
		switch n.Method(i).Name() {
		case "PodEncode":
			enc = true
		case "PodDecode":
			dec = true
		case "PodSize":
			size = true
		}
	}
	return enc && dec && size
}

// hasPlainMethod reports whether n implements pod.Plain.
func hasPlainMethod(n *types.Named) bool {
	for i := 0; i < n.NumMethods(); i++ {
		if n.Method(i).Name() == "PodPlain" {
			return true
		}
	}
	return false
}
