package codegen

import (
	"errors"
	"fmt"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"github.com/kanengo/podgen/endian"
)

// fieldLayout is one entry of a type layout descriptor: a field of a
// marked struct together with its byte-order policy and padding options.
// The slice order is declaration order, which is also wire order.
type fieldLayout struct {
	name  string
	typ   types.Type
	order endian.Order
	skip  int // zero bytes emitted before the field
	align int // pad the stream offset to a multiple before the field
}

// typeLayout is the layout descriptor of one marked struct type. It is
// built once when the type is processed and never mutated afterwards; it
// exists only for the duration of generation.
type typeLayout struct {
	named  *types.Named
	fields []fieldLayout
	plain  bool // carries the podgen.Plain marker, layout verified
	raw    bool // wire format equals memory layout; codec may copy raw bytes
}

func (l *typeLayout) name() string {
	return l.named.Obj().Name()
}

// tagOpts is the parsed form of a `pod:"..."` struct tag.
type tagOpts struct {
	order    endian.Order
	hasOrder bool
	skip     int
	align    int
}

// parseFieldTag parses the pod key of a struct tag. Accepted options are a
// byte order ("big", "little", "native"), "skip=N" and "align=N",
// comma-separated. Anything else is an error; field options are part of
// the wire contract and must not be silently ignored.
func parseFieldTag(tag string) (tagOpts, error) {
	var opts tagOpts

	val, ok := reflect.StructTag(tag).Lookup("pod")
	if !ok {
		return opts, nil
	}

	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if ord, err := endian.ParseOrder(part); err == nil {
			if opts.hasOrder {
				return opts, fmt.Errorf("duplicate byte order option %q", part)
			}
			opts.order, opts.hasOrder = ord, true
			continue
		}

		key, num, found := strings.Cut(part, "=")
		if !found {
			return opts, fmt.Errorf("unknown option %q", part)
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("option %q needs a positive integer", part)
		}
		switch key {
		case "skip":
			opts.skip = n
		case "align":
			opts.align = n
		default:
			return opts, fmt.Errorf("unknown option %q", part)
		}
	}

	return opts, nil
}

// buildLayout constructs the layout descriptor for a marked type, checking
// that every field resolves to one of the three encodable shapes: a
// fixed-width basic type, a nested composite with codec methods, or a
// fixed-size array of a resolvable element type.
func (g *generator) buildLayout(m markedType) (*typeLayout, error) {
	s := m.n.Underlying().(*types.Struct)
	l := &typeLayout{named: m.n, plain: m.plain}

	var errs []error
	for i := 0; i < s.NumFields(); i++ {
		f := s.Field(i)
		if f.Embedded() && isMarker(f.Type()) {
			continue
		}

		path := fmt.Sprintf("%s.%s", l.name(), f.Name())

		opts, err := parseFieldTag(s.Tag(i))
		if err != nil {
			errs = append(errs, errorf(g.fileSet, f.Pos(), "%s: %v", path, err))
			continue
		}
		if !opts.hasOrder {
			opts.order = g.opts.order()
		}

		if ferrs := g.checkEncodable(f.Type(), path); len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}

		l.fields = append(l.fields, fieldLayout{
			name:  f.Name(),
			typ:   f.Type(),
			order: opts.order,
			skip:  opts.skip,
			align: opts.align,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if l.plain {
		if err := g.verifyPlain(m.n); err != nil {
			return nil, errorf(g.fileSet, m.pos,
				"type %s declares podgen.Plain but is not plain old data: %v",
				l.name(), err)
		}
		l.raw = g.rawEligible(l)
	}

	return l, nil
}

// checkEncodable rejects field types the wire format cannot resolve.
// Failures are fatal for the whole type; nothing is skipped silently.
// Note that value-recursive composites cannot arise: Go forbids a struct
// containing itself by value, and the indirections that would permit a
// cycle (pointers, slices, maps, interfaces) are all rejected here.
func (g *generator) checkEncodable(t types.Type, path string) []error {
	var errs []error
	add := func(t types.Type, format string, args ...any) {
		reason := fmt.Sprintf(format, args...)
		errs = append(errs, fmt.Errorf("%s (type %s): %s", path, formatType(g.pkg, t), reason))
	}

	var check func(t types.Type, path string)
	check = func(t types.Type, path string) {
		switch x := t.(type) {
		case *types.Basic:
			if isInvalid(x) {
				add(x, "invalid type; maybe you forgot to run `go mod tidy`")
				return
			}
			if fixedWidth(x.Kind()) >= 0 {
				return
			}
			switch x.Kind() {
			case types.Int, types.Uint, types.Uintptr:
				add(x, "width is platform-dependent; use a sized integer")
			case types.String:
				add(x, "variable-size type; the format has no length prefixes")
			default:
				add(x, "unsupported basic type")
			}
		case *types.Named:
			switch u := x.Underlying().(type) {
			case *types.Basic:
				check(u, path)
			case *types.Struct:
				if g.marked.At(x) != nil || hasCodecMethods(x) {
					return
				}
				add(x, "struct type without codec methods; embed podgen.AutoBinary in it")
			default:
				check(u, path)
			}
		case *types.Array:
			check(x.Elem(), path+"[0]")
		case *types.Pointer:
			add(x, "reference field type: pointer")
		case *types.Slice:
			add(x, "variable-size field type: slice")
		case *types.Map:
			add(x, "reference field type: map")
		case *types.Interface:
			add(x, "interface fields have no fixed layout")
		case *types.Chan:
			add(x, "reference field type: channel")
		case *types.Signature:
			add(x, "reference field type: function")
		case *types.Struct:
			add(x, "anonymous struct fields are not supported; declare a named type")
		case *types.TypeParam:
			add(x, "unconstrained type parameter")
		default:
			add(x, "unsupported field type")
		}
	}
	check(t, path)

	return errs
}

// verifyPlain checks the podgen.Plain claim: every member fixed-width down
// to primitives, no reference members, and no padding bytes anywhere in
// the layout under the configured architecture's sizing rules.
func (g *generator) verifyPlain(n *types.Named) error {
	var check func(t types.Type, path string) error
	var checkStruct func(t types.Type, s *types.Struct, path string) error

	check = func(t types.Type, path string) error {
		switch x := t.(type) {
		case *types.Basic:
			if fixedWidth(x.Kind()) < 0 {
				return fmt.Errorf("%s: %s is not fixed-width", path, x)
			}
			return nil
		case *types.Named:
			switch u := x.Underlying().(type) {
			case *types.Basic:
				return check(u, path)
			case *types.Struct:
				if info, ok := g.marked.At(x).(markedType); ok && info.plain {
					return checkStruct(x, u, path)
				}
				if hasPlainMethod(x) {
					return checkStruct(x, u, path)
				}
				return fmt.Errorf("%s: %s does not declare podgen.Plain", path, formatType(g.pkg, x))
			default:
				return check(u, path)
			}
		case *types.Array:
			return check(x.Elem(), path+"[0]")
		default:
			return fmt.Errorf("%s: %s is a reference or variable-size member", path, formatType(g.pkg, x))
		}
	}

	checkStruct = func(t types.Type, s *types.Struct, path string) error {
		fields := make([]*types.Var, s.NumFields())
		for i := range fields {
			fields[i] = s.Field(i)
		}

		offsets := g.sizes.Offsetsof(fields)
		var sum int64
		for i, f := range fields {
			if offsets[i] != sum {
				return fmt.Errorf("%s: %d padding byte(s) before field %s on %s",
					path, offsets[i]-sum, f.Name(), g.opts.Arch)
			}
			if f.Embedded() && isMarker(f.Type()) {
				continue
			}
			if err := check(f.Type(), path+"."+f.Name()); err != nil {
				return err
			}
			sum += g.sizes.Sizeof(f.Type())
		}
		if total := g.sizes.Sizeof(t); total != sum {
			return fmt.Errorf("%s: %d trailing padding byte(s) on %s (is a zero-size marker the last field?)",
				path, total-sum, g.opts.Arch)
		}
		return nil
	}

	return checkStruct(n, n.Underlying().(*types.Struct), n.Obj().Name())
}

// rawEligible reports whether a verified Plain type's wire format is
// byte-for-byte its memory image, making the zero-copy codec path valid on
// every host: all members single-byte (order cannot matter) and no
// skip/align padding.
func (g *generator) rawEligible(l *typeLayout) bool {
	var rawWire func(t types.Type) bool
	rawWire = func(t types.Type) bool {
		switch x := t.(type) {
		case *types.Basic:
			return fixedWidth(x.Kind()) == 1
		case *types.Array:
			return rawWire(x.Elem())
		case *types.Named:
			if u, ok := x.Underlying().(*types.Basic); ok {
				return fixedWidth(u.Kind()) == 1
			}
			return false
		default:
			return false
		}
	}

	for _, f := range l.fields {
		if f.skip != 0 || f.align != 0 {
			return false
		}
		if !rawWire(f.typ) {
			return false
		}
	}
	return true
}

// staticWireSize returns the wire size of t when it is derivable without
// calling into another type's PodSize, along with whether it is.
func staticWireSize(t types.Type) (int64, bool) {
	switch x := t.(type) {
	case *types.Basic:
		if w := fixedWidth(x.Kind()); w >= 0 {
			return int64(w), true
		}
		return 0, false
	case *types.Named:
		if u, ok := x.Underlying().(*types.Basic); ok {
			return staticWireSize(u)
		}
		return 0, false
	case *types.Array:
		w, ok := staticWireSize(x.Elem())
		if !ok {
			return 0, false
		}
		return x.Len() * w, true
	default:
		return 0, false
	}
}
