package kdl

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// MapFormat selects how map entries are written.
type MapFormat int

const (
	// MapInfer writes each entry as an anonymous `-` node holding a `key`
	// and a `value` field.
	MapInfer MapFormat = iota
	// MapTuple writes each entry as a two-element positional tuple.
	MapTuple
	// MapStruct writes each entry's key and value as `key` and `value`
	// fields of the map node itself.
	MapStruct
)

func (m MapFormat) String() string {
	switch m {
	case MapInfer:
		return "infer"
	case MapTuple:
		return "tuple"
	case MapStruct:
		return "struct"
	default:
		return fmt.Sprintf("MapFormat(%d)", int(m))
	}
}

// ParseMapFormat parses the textual form of a MapFormat.
func ParseMapFormat(s string) (MapFormat, error) {
	switch strings.ToLower(s) {
	case "", "infer":
		return MapInfer, nil
	case "tuple", "flat", "flattened":
		return MapTuple, nil
	case "struct":
		return MapStruct, nil
	default:
		return MapInfer, fmt.Errorf("invalid map format %q: must be one of infer, tuple, struct", s)
	}
}

// Naming converts Go struct field names that carry no explicit `kdl` tag.
type Naming int

const (
	// NamingAsIs keeps the Go field name.
	NamingAsIs Naming = iota
	// NamingKebab writes field names in kebab-case, the KDL convention.
	NamingKebab
	NamingSnake
	NamingCamel
	NamingLowerCamel
)

var namings = []struct {
	name string
	n    Naming
}{
	{"as-is", NamingAsIs},
	{"kebab", NamingKebab},
	{"snake", NamingSnake},
	{"camel", NamingCamel},
	{"lower-camel", NamingLowerCamel},
}

func (n Naming) String() string {
	for _, e := range namings {
		if e.n == n {
			return e.name
		}
	}

	return fmt.Sprintf("Naming(%d)", int(n))
}

// ParseNaming parses the textual form of a Naming.
func ParseNaming(s string) (Naming, error) {
	if s == "" {
		return NamingAsIs, nil
	}

	for _, e := range namings {
		if strings.EqualFold(e.name, s) {
			return e.n, nil
		}
	}

	return NamingAsIs, fmt.Errorf("invalid field naming %q: must be one of as-is, kebab, snake, camel, lower-camel", s)
}

// Apply converts a Go field name.
func (n Naming) Apply(name string) string {
	switch n {
	case NamingKebab:
		return strcase.ToKebab(name)
	case NamingSnake:
		return strcase.ToSnake(name)
	case NamingCamel:
		return strcase.ToCamel(name)
	case NamingLowerCamel:
		return strcase.ToLowerCamel(name)
	default:
		return name
	}
}

// Options is the set of representation policies for one encoding. It is
// copied when an encoding starts and never changes during it.
type Options struct {
	// OptionAsEnum writes absent/present optionals as the variants
	// `(None)` and `(Some)` instead of null and the bare value.
	OptionAsEnum bool
	// UnitAsTuple writes unit values as an empty tuple instead of null.
	UnitAsTuple bool
	// NewtypeAsTuple writes single-field wrappers as one-element tuples
	// instead of the wrapped value.
	NewtypeAsTuple bool
	// MapFormat selects the map entry layout.
	MapFormat MapFormat
	// WrapRoot keeps the root value inside a `-` node in human layout
	// instead of promoting its children to top-level nodes.
	WrapRoot bool
	// TypeAnnotations also writes informational annotations: struct and
	// newtype names and KDL's numeric type tags such as (u8) and (f64).
	TypeAnnotations bool
	// FieldNaming converts untagged struct field names.
	FieldNaming Naming
}

// DefaultOptions returns the default policies.
func DefaultOptions() Options {
	return Options{MapFormat: MapInfer, FieldNaming: NamingAsIs}
}

// Option configures an encoding. Use the With* functions to create Options.
type Option func(*Options)

// WithOptions replaces every policy with o.
func WithOptions(o Options) Option {
	return func(dst *Options) { *dst = o }
}

// WithOptionAsEnum writes optionals as `None`/`Some` variants.
func WithOptionAsEnum() Option {
	return func(o *Options) { o.OptionAsEnum = true }
}

// WithUnitAsTuple writes unit values as empty tuples.
func WithUnitAsTuple() Option {
	return func(o *Options) { o.UnitAsTuple = true }
}

// WithNewtypeAsTuple writes newtypes as one-element tuples.
func WithNewtypeAsTuple() Option {
	return func(o *Options) { o.NewtypeAsTuple = true }
}

// WithMapFormat selects the map entry layout.
func WithMapFormat(m MapFormat) Option {
	return func(o *Options) { o.MapFormat = m }
}

// WithWrapRoot disables root elision in human layout.
func WithWrapRoot() Option {
	return func(o *Options) { o.WrapRoot = true }
}

// WithTypeAnnotations writes informational type annotations too.
func WithTypeAnnotations() Option {
	return func(o *Options) { o.TypeAnnotations = true }
}

// WithFieldNaming sets the conversion for untagged struct field names.
func WithFieldNaming(n Naming) Option {
	return func(o *Options) { o.FieldNaming = n }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
