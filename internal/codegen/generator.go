// Package codegen generates binary codec methods for struct types that
// embed the podgen marker types.
package codegen

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/kanengo/podgen/endian"
	"github.com/kanengo/podgen/internal/files"
	"github.com/kanengo/podgen/runtime/version"
)

const (
	generatedCodeFile = "podgen_gen.go"

	Usage = `Generate binary codec methods for marked struct types.
Usage:
  podgen generate [packages]

Description:
  Scans the provided packages for struct types that embed podgen.AutoBinary
  or podgen.Plain and writes PodEncode/PodDecode/PodSize methods for them to
  a podgen_gen.go file in each package directory. Byte order, padding and
  layout verification are configured through an optional podgen.toml in the
  directory the command runs from.

Examples:
  # Generate code for the package in the current directory.
  podgen generate

  # Generate code for the package in the ./foo directory.
  podgen generate ./foo

  # Generate code for all packages under the current directory.
  podgen generate ./...`
)

// markedType is a struct type that embeds one of the marker types.
type markedType struct {
	n     *types.Named
	plain bool // embeds podgen.Plain rather than podgen.AutoBinary
	pos   token.Pos
}

type generator struct {
	tSet    *typeSet
	fileSet *token.FileSet
	pkg     *packages.Package
	opts    Options
	sizes   types.Sizes

	marked  *typeutil.Map // marked struct types in this package, *types.Named -> markedType
	layouts []*typeLayout

	helpersNeeded typeutil.Map // array types needing enc/dec helper functions
	helperDone    typeutil.Map
}

// Generate loads the named packages rooted at dir and writes a
// podgen_gen.go next to each package that contains marked types.
func Generate(dir string, pkgs []string) error {
	opts, err := LoadOptions(dir)
	if err != nil {
		return err
	}
	sizes := types.SizesFor("gc", opts.Arch)
	if sizes == nil {
		return fmt.Errorf("%s: unknown architecture %q", configFile, opts.Arch)
	}

	fSet := token.NewFileSet()
	cfg := &packages.Config{
		Mode:       packages.NeedName | packages.NeedSyntax | packages.NeedImports | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:        dir,
		BuildFlags: []string{"--tags=" + opts.BuildTag},
		Fset:       fSet,
		ParseFile:  parseNonPodGenFile,
	}

	pkgList, err := packages.Load(cfg, pkgs...)
	if err != nil {
		return fmt.Errorf("packages.Load: %w", err)
	}

	var errs []error
	for _, pkg := range pkgList {
		g, err := newGenerator(pkg, fSet, opts, sizes)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := g.generate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// parseNonPodGenFile parses every package file except a previously
// generated one, which is reduced to its package clause so that stale
// output never feeds back into generation.
func parseNonPodGenFile(fSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if filepath.Base(filename) == generatedCodeFile {
		return parser.ParseFile(fSet, filename, src, parser.PackageClauseOnly)
	}
	return parser.ParseFile(fSet, filename, src, parser.ParseComments|parser.DeclarationErrors)
}

func newGenerator(pkg *packages.Package, fSet *token.FileSet, opts Options, sizes types.Sizes) (*generator, error) {
	var errs []error
	for _, err := range pkg.Errors {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	g := &generator{
		tSet:    newTypeSet(pkg),
		fileSet: fSet,
		pkg:     pkg,
		opts:    opts,
		sizes:   sizes,
		marked:  &typeutil.Map{},
	}

	var all []markedType
	for _, file := range pkg.Syntax {
		filename := fSet.Position(file.Package).Filename
		if filepath.Base(filename) == generatedCodeFile {
			continue
		}
		ms, err := findMarkedTypes(pkg, file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, m := range ms {
			g.marked.Set(m.n, m)
			all = append(all, m)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Embedding a marker is a claim, not a fact; verify the layout of every
	// candidate before generating anything.
	for _, m := range all {
		l, err := g.buildLayout(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.layouts = append(g.layouts, l)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return g, nil
}

// findMarkedTypes returns the struct types declared in file that embed
// podgen.AutoBinary or podgen.Plain.
func findMarkedTypes(pkg *packages.Package, file *ast.File) ([]markedType, error) {
	var found []markedType
	var errs []error

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				panic(errorf(pkg.Fset, spec.Pos(), "type declaration has non-TypeSpec spec: %v", spec))
			}

			def, ok := pkg.TypesInfo.Defs[typeSpec.Name]
			if !ok {
				panic(errorf(pkg.Fset, spec.Pos(), "name %v not found", typeSpec.Name))
			}
			n, ok := def.Type().(*types.Named)
			if !ok {
				// Type aliases have no methods to attach; ignore them.
				continue
			}
			s, ok := pkg.TypesInfo.Types[typeSpec.Type].Type.(*types.Struct)
			if !ok {
				continue
			}

			var auto, plain bool
			for i := 0; i < s.NumFields(); i++ {
				f := s.Field(i)
				if !f.Embedded() {
					continue
				}
				switch {
				case isAutoBinaryMarker(f.Type()):
					auto = true
				case isPlainMarker(f.Type()):
					plain = true
				}
			}
			if !auto && !plain {
				continue
			}

			if n.TypeParams() != nil {
				errs = append(errs, errorf(pkg.Fset, spec.Pos(),
					"generic struct %v cannot embed a podgen marker",
					formatType(pkg, n)))
				continue
			}

			found = append(found, markedType{n: n, plain: plain, pos: n.Obj().Pos()})
		}
	}

	return found, errors.Join(errs...)
}

type printFn func(format string, args ...any)

func (g *generator) generate() error {
	if len(g.layouts) == 0 {
		return nil
	}

	sort.Slice(g.layouts, func(i, j int) bool {
		return g.layouts[i].name() < g.layouts[j].name()
	})

	var body bytes.Buffer
	{
		p := func(format string, args ...any) {
			_, _ = fmt.Fprintln(&body, fmt.Sprintf(format, args...))
		}
		for _, l := range g.layouts {
			g.generateCodecMethods(p, l)
		}

		if g.helpersNeeded.Len() > 0 {
			p(``)
			p(`// Array helpers.`)
			for g.helpersNeeded.Len() > 0 {
				keys := g.helpersNeeded.Keys()
				sort.Slice(keys, func(i, j int) bool {
					return uniqueName(keys[i]) < uniqueName(keys[j])
				})
				for _, t := range keys {
					g.helpersNeeded.Delete(t)
					g.generateArrayHelpers(p, t.(*types.Array))
				}
			}
		}
	}

	var header bytes.Buffer
	{
		p := func(format string, args ...any) {
			_, _ = fmt.Fprintln(&header, fmt.Sprintf(format, args...))
		}
		g.generateImports(p)
	}

	filename := filepath.Join(g.pkgDir(), generatedCodeFile)
	dst := files.NewWriter(filename)
	defer dst.Cleanup()

	src := append(header.Bytes(), body.Bytes()...)
	formatted, err := format.Source(src)
	if err != nil {
		return fmt.Errorf("format.Source: %w", err)
	}
	if _, err := io.Copy(dst, bytes.NewReader(formatted)); err != nil {
		return err
	}
	return dst.Close()
}

func (g *generator) generateImports(p printFn) {
	p(`// Code generated by "podgen generate" %s. DO NOT EDIT.`, version.ToolVersion)
	p(`//go:build !%s`, g.opts.BuildTag)
	p(``)
	p(`package %s`, g.pkg.Name)
	p(``)
	p(`import (`)
	for _, imp := range g.tSet.imported {
		switch {
		case imp.local:
		case imp.alias == "":
			p(`	%s`, strconv.Quote(imp.path))
		default:
			p(`	%s %s`, imp.alias, strconv.Quote(imp.path))
		}
	}
	p(`)`)
}

// codec imports and returns the runtime codec package.
func (g *generator) codec() importPkg {
	return g.tSet.importPackage(podgenPackagePath+"/runtime/codec", "codec")
}

// endian imports and returns the byte order package.
func (g *generator) endian() importPkg {
	return g.tSet.importPackage(podgenPackagePath+"/endian", "endian")
}

// pod imports and returns the zero-copy runtime package.
func (g *generator) pod() importPkg {
	return g.tSet.importPackage(podgenPackagePath+"/pod", "pod")
}

// orderExpr returns the source spelling of a byte order value.
func (g *generator) orderExpr(o endian.Order) string {
	switch o {
	case endian.Little:
		return g.endian().qualify("Little")
	case endian.Big:
		return g.endian().qualify("Big")
	default:
		return g.endian().qualify("Native")
	}
}

func (g *generator) generateCodecMethods(p printFn, l *typeLayout) {
	ts := g.tSet.genTypeString
	t := l.named

	p(``)
	p(`var _ %s = (*%s)(nil)`, g.codec().qualify("Binary"), ts(t))

	p(``)
	p(`func (x *%s) PodEncode(enc *%s) {`, ts(t), g.codec().qualify("Encoder"))
	if l.raw {
		p(`	enc.Raw(%s(x))`, g.pod().qualify("Bytes"))
	} else {
		for _, f := range l.fields {
			if f.skip > 0 {
				p(`	enc.Zero(%d)`, f.skip)
			}
			if f.align > 0 {
				p(`	enc.AlignTo(%d)`, f.align)
			}
			p(`	%s`, g.encode("x."+f.name, f.typ, g.orderExpr(f.order)))
		}
	}
	p(`}`)

	p(``)
	p(`func (x *%s) PodDecode(dec *%s) {`, ts(t), g.codec().qualify("Decoder"))
	if l.raw {
		p(`	dec.Raw(%s(x))`, g.pod().qualify("Bytes"))
	} else {
		for _, f := range l.fields {
			if f.skip > 0 {
				p(`	dec.Skip(%d)`, f.skip)
			}
			if f.align > 0 {
				p(`	dec.AlignTo(%d)`, f.align)
			}
			p(`	%s`, g.decode("x."+f.name, f.typ, g.orderExpr(f.order)))
		}
	}
	p(`}`)

	p(``)
	p(`func (x *%s) PodSize() int {`, ts(t))
	p(`	size := 0`)
	for _, f := range l.fields {
		if f.skip > 0 {
			p(`	size += %d`, f.skip)
		}
		if f.align > 0 {
			p(`	size += (%d - size%%%d) %% %d`, f.align, f.align, f.align)
		}
		p(`	%s`, g.size("x."+f.name, f.typ))
	}
	p(`	return size`)
	p(`}`)

	if l.plain {
		p(``)
		p(`var _ %s = %s{}`, g.pod().qualify("Plain"), ts(t))
		p(``)
		p(`func (%s) PodPlain() {}`, ts(t))
	}
}

// encode returns the statement that writes e, a value of type t, to enc.
// ord is the source spelling of the byte order to use for multi-byte
// primitives reached from t.
func (g *generator) encode(e string, t types.Type, ord string) string {
	switch x := t.(type) {
	case *types.Basic:
		switch x.Kind() {
		case types.Bool:
			return fmt.Sprintf("enc.Bool(%s)", e)
		case types.Int8:
			return fmt.Sprintf("enc.Int8(%s)", e)
		case types.Uint8:
			return fmt.Sprintf("enc.Uint8(%s)", e)
		case types.Int16:
			return fmt.Sprintf("enc.Int16(%s, %s)", e, ord)
		case types.Uint16:
			return fmt.Sprintf("enc.Uint16(%s, %s)", e, ord)
		case types.Int32:
			return fmt.Sprintf("enc.Int32(%s, %s)", e, ord)
		case types.Uint32:
			return fmt.Sprintf("enc.Uint32(%s, %s)", e, ord)
		case types.Int64:
			return fmt.Sprintf("enc.Int64(%s, %s)", e, ord)
		case types.Uint64:
			return fmt.Sprintf("enc.Uint64(%s, %s)", e, ord)
		case types.Float32:
			return fmt.Sprintf("enc.Float32(%s, %s)", e, ord)
		case types.Float64:
			return fmt.Sprintf("enc.Float64(%s, %s)", e, ord)
		case types.Complex64:
			return fmt.Sprintf("enc.Complex64(%s, %s)", e, ord)
		case types.Complex128:
			return fmt.Sprintf("enc.Complex128(%s, %s)", e, ord)
		}
	case *types.Named:
		switch u := x.Underlying().(type) {
		case *types.Basic:
			return g.encode(fmt.Sprintf("%s(%s)", u.Name(), e), u, ord)
		case *types.Struct:
			return fmt.Sprintf("%s.PodEncode(enc)", e)
		case *types.Array:
			g.needHelper(u)
			return fmt.Sprintf("%s(enc, (*%s)(&%s), %s)",
				encHelperName(u), g.tSet.genTypeString(u), e, ord)
		}
	case *types.Array:
		g.needHelper(x)
		return fmt.Sprintf("%s(enc, &%s, %s)", encHelperName(x), e, ord)
	}
	panic(fmt.Sprintf("encode: unexpected type: %v", t))
}

// decode returns the statement that reads a value of type t from dec into e.
func (g *generator) decode(e string, t types.Type, ord string) string {
	switch x := t.(type) {
	case *types.Basic:
		return fmt.Sprintf("%s = %s", e, basicDecodeExpr(x.Kind(), ord))
	case *types.Named:
		switch u := x.Underlying().(type) {
		case *types.Basic:
			return fmt.Sprintf("%s = %s(%s)", e, g.tSet.genTypeString(x), basicDecodeExpr(u.Kind(), ord))
		case *types.Struct:
			return fmt.Sprintf("%s.PodDecode(dec)", e)
		case *types.Array:
			g.needHelper(u)
			return fmt.Sprintf("%s(dec, (*%s)(&%s), %s)",
				decHelperName(u), g.tSet.genTypeString(u), e, ord)
		}
	case *types.Array:
		g.needHelper(x)
		return fmt.Sprintf("%s(dec, &%s, %s)", decHelperName(x), e, ord)
	}
	panic(fmt.Sprintf("decode: unexpected type: %v", t))
}

func basicDecodeExpr(k types.BasicKind, ord string) string {
	switch k {
	case types.Bool:
		return "dec.Bool()"
	case types.Int8:
		return "dec.Int8()"
	case types.Uint8:
		return "dec.Uint8()"
	case types.Int16:
		return fmt.Sprintf("dec.Int16(%s)", ord)
	case types.Uint16:
		return fmt.Sprintf("dec.Uint16(%s)", ord)
	case types.Int32:
		return fmt.Sprintf("dec.Int32(%s)", ord)
	case types.Uint32:
		return fmt.Sprintf("dec.Uint32(%s)", ord)
	case types.Int64:
		return fmt.Sprintf("dec.Int64(%s)", ord)
	case types.Uint64:
		return fmt.Sprintf("dec.Uint64(%s)", ord)
	case types.Float32:
		return fmt.Sprintf("dec.Float32(%s)", ord)
	case types.Float64:
		return fmt.Sprintf("dec.Float64(%s)", ord)
	case types.Complex64:
		return fmt.Sprintf("dec.Complex64(%s)", ord)
	case types.Complex128:
		return fmt.Sprintf("dec.Complex128(%s)", ord)
	}
	panic(fmt.Sprintf("basicDecodeExpr: unexpected kind: %v", k))
}

// size returns the statement that adds the wire size of e, a value of type
// t, to the size accumulator.
func (g *generator) size(e string, t types.Type) string {
	if w, ok := staticWireSize(t); ok {
		return fmt.Sprintf("size += %d", w)
	}
	switch x := t.(type) {
	case *types.Named:
		switch u := x.Underlying().(type) {
		case *types.Struct:
			return fmt.Sprintf("size += %s.PodSize()", e)
		case *types.Array:
			g.needHelper(u)
			return fmt.Sprintf("size += %s((*%s)(&%s))",
				sizeHelperName(u), g.tSet.genTypeString(u), e)
		}
	case *types.Array:
		g.needHelper(x)
		return fmt.Sprintf("size += %s(&%s)", sizeHelperName(x), e)
	}
	panic(fmt.Sprintf("size: unexpected type: %v", t))
}

func (g *generator) needHelper(a *types.Array) {
	if g.helperDone.At(a) != nil {
		return
	}
	g.helperDone.Set(a, true)
	g.helpersNeeded.Set(a, true)
}

func encHelperName(a *types.Array) string {
	return "podgenEnc_" + sanitize(a)
}

func decHelperName(a *types.Array) string {
	return "podgenDec_" + sanitize(a)
}

func sizeHelperName(a *types.Array) string {
	return "podgenSize_" + sanitize(a)
}

// generateArrayHelpers emits the per-element encode and decode functions
// for one array type, plus a size function when the element size is not a
// compile-time constant. Every helper takes the byte order so that two
// fields of the same array type but different orders can share it.
func (g *generator) generateArrayHelpers(p printFn, a *types.Array) {
	ts := g.tSet.genTypeString

	p(``)
	p(`func %s(enc *%s, a *%s, o %s) {`,
		encHelperName(a), g.codec().qualify("Encoder"), ts(a), g.endian().qualify("Order"))
	p(`	for i := range a {`)
	p(`		%s`, g.encode("a[i]", a.Elem(), "o"))
	p(`	}`)
	p(`}`)

	p(``)
	p(`func %s(dec *%s, a *%s, o %s) {`,
		decHelperName(a), g.codec().qualify("Decoder"), ts(a), g.endian().qualify("Order"))
	p(`	for i := range a {`)
	p(`		%s`, g.decode("a[i]", a.Elem(), "o"))
	p(`	}`)
	p(`}`)

	if _, ok := staticWireSize(a); !ok {
		p(``)
		p(`func %s(a *%s) int {`, sizeHelperName(a), ts(a))
		p(`	size := 0`)
		p(`	for i := range a {`)
		p(`		%s`, g.size("a[i]", a.Elem()))
		p(`	}`)
		p(`	return size`)
		p(`}`)
	}
}

func (g *generator) pkgDir() string {
	if len(g.pkg.Syntax) == 0 {
		panic(fmt.Errorf("package %v has no source files", g.pkg))
	}
	f := g.pkg.Syntax[0]
	return filepath.Dir(g.fileSet.Position(f.Package).Filename)
}

func errorf(fSet *token.FileSet, pos token.Pos, format string, args ...any) error {
	position := fSet.Position(pos)
	if cwd, err := filepath.Abs("."); err == nil {
		if filename, err := filepath.Rel(cwd, position.Filename); err == nil {
			position.Filename = filename
		}
	}
	return fmt.Errorf("%s: %w", position.String(), fmt.Errorf(format, args...))
}

func formatType(currentPackage *packages.Package, t types.Type) string {
	qualifier := func(pkg *types.Package) string {
		if pkg == currentPackage.Types {
			return ""
		}
		return pkg.Name()
	}
	return types.TypeString(t, qualifier)
}

// uniqueName returns a representation of t that differs whenever the types
// differ, unlike types.TypeString which collapses shadowed names.
func uniqueName(t types.Type) string {
	switch x := t.(type) {
	case *types.Array:
		return fmt.Sprintf("[%d]%s", x.Len(), uniqueName(x.Elem()))
	case *types.Named:
		return fmt.Sprintf("Named(%s.%s)", x.Obj().Pkg().Path(), x.Obj().Name())
	case *types.Basic:
		return x.Name()
	}
	panic(fmt.Sprintf("uniqueName: unsupported type %v (%T)", t, t))
}

// sanitize turns a field type into a valid identifier suffix, e.g.
// [4]uint16 -> array_4_uint16_589aebd1. The hash keeps suffixes unique when
// two distinct types share a pretty-printed spelling.
func sanitize(t types.Type) string {
	var pretty func(types.Type) string
	pretty = func(t types.Type) string {
		switch x := t.(type) {
		case *types.Array:
			return fmt.Sprintf("array_%d_%s", x.Len(), pretty(x.Elem()))
		case *types.Named:
			return x.Obj().Name()
		case *types.Basic:
			return x.Name()
		}
		panic(fmt.Sprintf("sanitize: unsupported type %v (%T)", t, t))
	}

	hash := sha256.Sum256([]byte(uniqueName(t)))
	return fmt.Sprintf("%s_%x", pretty(t), hash[:4])
}
