package kdl

import (
	"cmp"
	"encoding"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"sync"
)

var (
	marshalerType     = reflect.TypeFor[Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	bigIntType        = reflect.TypeFor[big.Int]()
)

// encode writes any Go value through the Serializer protocol.
func (s *serializer) encode(v any) error {
	if v == nil {
		return s.SerializeNone()
	}

	return s.value(reflect.ValueOf(v))
}

func (s *serializer) value(rv reflect.Value) error {
	s.depth++
	defer func() { s.depth-- }()

	if s.depth > maxDepth {
		return &UnsupportedValueError{Str: fmt.Sprintf("nesting deeper than %d levels", maxDepth)}
	}

	if !rv.IsValid() {
		return s.SerializeNone()
	}

	t := rv.Type()

	// A pointer to a value-receiver marshaler is still an option around
	// that value.
	if t.Kind() == reflect.Pointer && !rv.IsNil() && t != reflect.PointerTo(bigIntType) &&
		(t.Elem().Implements(marshalerType) || (t.Elem().Implements(textMarshalerType) && !t.Implements(marshalerType))) {
		return s.some(func() error { return s.value(rv.Elem()) })
	}

	if t.Kind() != reflect.Pointer && rv.CanAddr() && reflect.PointerTo(t).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalKDL(s)
	}

	if t.Implements(marshalerType) {
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return s.SerializeNone()
		}

		return rv.Interface().(Marshaler).MarshalKDL(s)
	}

	switch {
	case t == bigIntType:
		n := rv.Interface().(big.Int)
		return s.bigInt(&n)
	case t == reflect.PointerTo(bigIntType):
		if rv.IsNil() {
			return s.SerializeNone()
		}

		return s.some(func() error { return s.bigInt(rv.Interface().(*big.Int)) })
	case t.Implements(textMarshalerType):
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return s.SerializeNone()
		}

		text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return &Error{Msg: fmt.Sprintf("marshaling %s as text: %v", t, err)}
		}

		return s.SerializeString(string(text))
	}

	switch t.Kind() {
	case reflect.Bool:
		return s.SerializeBool(rv.Bool())
	case reflect.Int8:
		return s.SerializeInt8(int8(rv.Int()))
	case reflect.Int16:
		return s.SerializeInt16(int16(rv.Int()))
	case reflect.Int32:
		return s.SerializeInt32(int32(rv.Int()))
	case reflect.Int, reflect.Int64:
		return s.SerializeInt64(rv.Int())
	case reflect.Uint8:
		return s.SerializeUint8(uint8(rv.Uint()))
	case reflect.Uint16:
		return s.SerializeUint16(uint16(rv.Uint()))
	case reflect.Uint32:
		return s.SerializeUint32(uint32(rv.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return s.SerializeUint64(rv.Uint())
	case reflect.Float32:
		return s.SerializeFloat32(float32(rv.Float()))
	case reflect.Float64:
		return s.SerializeFloat64(rv.Float())
	case reflect.String:
		return s.SerializeString(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return s.SerializeNone()
		}

		return s.some(func() error { return s.value(rv.Elem()) })
	case reflect.Interface:
		if rv.IsNil() {
			return s.SerializeNone()
		}

		return s.value(rv.Elem())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return s.SerializeBytes(rv.Bytes())
		}

		return s.sequence(rv)
	case reflect.Array:
		return s.sequence(rv)
	case reflect.Map:
		return s.mapping(rv)
	case reflect.Struct:
		return s.structure(rv)
	default:
		return &UnsupportedTypeError{Type: t}
	}
}

func (s *serializer) bigInt(n *big.Int) error {
	if n.Sign() < 0 {
		return s.SerializeInt128(n)
	}

	return s.SerializeUint128(n)
}

func (s *serializer) sequence(rv reflect.Value) error {
	var (
		w   SeqWriter
		err error
	)

	if rv.Kind() == reflect.Array {
		w, err = s.SerializeTuple(rv.Len())
	} else {
		w, err = s.SerializeSeq(rv.Len())
	}

	if err != nil {
		return err
	}

	sw := w.(*seqWriter)

	for i := range rv.Len() {
		elem := rv.Index(i)
		if err := sw.element(func() error { return s.value(elem) }); err != nil {
			return err
		}
	}

	return w.End()
}

func (s *serializer) mapping(rv reflect.Value) error {
	w, err := s.SerializeMap(rv.Len())
	if err != nil {
		return err
	}

	mw := w.(*mapWriter)

	keys := rv.MapKeys()
	slices.SortFunc(keys, compareKeys)

	for _, k := range keys {
		if err := mw.key(func() error { return s.value(k) }); err != nil {
			return err
		}

		v := rv.MapIndex(k)
		if err := mw.value(func() error { return s.value(v) }); err != nil {
			return err
		}
	}

	return w.End()
}

// compareKeys orders map keys: strings lexically, numbers numerically and
// anything else by its formatted text.
func compareKeys(a, b reflect.Value) int {
	if a.Kind() == reflect.Interface {
		a, b = a.Elem(), b.Elem()
		if !a.IsValid() || !b.IsValid() {
			return cmp.Compare(boolRank(a.IsValid()), boolRank(b.IsValid()))
		}

		if a.Kind() != b.Kind() {
			return cmp.Compare(a.Type().String(), b.Type().String())
		}
	}

	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Bool:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	default:
		return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}

	return 0
}

func (s *serializer) structure(rv reflect.Value) error {
	t := rv.Type()
	fields := cachedFields(t, s.opts.FieldNaming)

	if len(fields) == 0 {
		return s.SerializeUnitStruct(t.Name())
	}

	w, err := s.SerializeStruct(t.Name(), len(fields))
	if err != nil {
		return err
	}

	sw := w.(*structWriter)

	for _, f := range fields {
		fv, ok := fieldByIndex(rv, f.index)
		if !ok || (f.omitEmpty && isEmptyValue(fv)) {
			continue
		}

		if err := sw.field(f.name, func() error { return s.value(fv) }); err != nil {
			return err
		}
	}

	return w.End()
}

// fieldByIndex is reflect.Value.FieldByIndex that reports false instead of
// panicking when an embedded pointer on the path is nil.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}

			v = v.Elem()
		}

		v = v.Field(x)
	}

	return v, true
}

type zeroer interface {
	IsZero() bool
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	case reflect.Struct:
		if z, ok := v.Interface().(zeroer); ok {
			return z.IsZero()
		}
	}

	return false
}

type field struct {
	name      string
	index     []int
	omitEmpty bool
}

type fieldsKey struct {
	t      reflect.Type
	naming Naming
}

var fieldCache sync.Map // map[fieldsKey][]field

func cachedFields(t reflect.Type, naming Naming) []field {
	key := fieldsKey{t: t, naming: naming}
	if f, ok := fieldCache.Load(key); ok {
		return f.([]field)
	}

	f, _ := fieldCache.LoadOrStore(key, typeFields(t, naming))

	return f.([]field)
}

// typeFields lists the encodable fields of a struct type in declaration
// order. Untagged embedded structs contribute their fields in place; when
// two fields share a name the first one wins.
func typeFields(t reflect.Type, naming Naming) []field {
	var (
		fields []field
		seen   = map[string]bool{}
		walk   func(t reflect.Type, index []int, visiting map[reflect.Type]bool)
	)

	walk = func(t reflect.Type, index []int, visiting map[reflect.Type]bool) {
		if visiting[t] {
			return
		}

		visiting[t] = true
		defer delete(visiting, t)

		for i := range t.NumField() {
			sf := t.Field(i)

			tag := sf.Tag.Get("kdl")
			if tag == "-" {
				continue
			}

			name, opts, _ := strings.Cut(tag, ",")
			path := append(slices.Clone(index), i)

			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}

				if ft.Kind() == reflect.Struct {
					walk(ft, path, visiting)
					continue
				}
			}

			if !sf.IsExported() {
				continue
			}

			if name == "" {
				name = naming.Apply(sf.Name)
			}

			if seen[name] {
				continue
			}

			seen[name] = true

			fields = append(fields, field{
				name:      name,
				index:     path,
				omitEmpty: slices.Contains(strings.Split(opts, ","), "omitempty"),
			})
		}
	}

	walk(t, nil, map[reflect.Type]bool{})

	return fields
}
