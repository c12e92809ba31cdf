package kdl

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/hupe1980/kdlgen/internal/format"
)

// Marshaler is implemented by types that describe their own shape to the
// encoder, such as enums and newtypes.
type Marshaler interface {
	MarshalKDL(s Serializer) error
}

// Serializer is the visiting protocol a value uses to describe itself.
// Call exactly one method per value. Methods that open a group return a
// writer that must be closed with End exactly once.
//
// Values passed as any are encoded recursively through the same protocol.
// Misusing a writer (writing after End, a map value before its key) panics.
type Serializer interface {
	SerializeBool(v bool) error
	SerializeInt8(v int8) error
	SerializeInt16(v int16) error
	SerializeInt32(v int32) error
	SerializeInt64(v int64) error
	// SerializeInt128 writes a signed integer of up to 128 bits.
	SerializeInt128(v *big.Int) error
	SerializeUint8(v uint8) error
	SerializeUint16(v uint16) error
	SerializeUint32(v uint32) error
	SerializeUint64(v uint64) error
	// SerializeUint128 writes an unsigned integer of up to 128 bits.
	SerializeUint128(v *big.Int) error
	SerializeFloat32(v float32) error
	SerializeFloat64(v float64) error
	SerializeChar(v rune) error
	SerializeString(v string) error
	SerializeBytes(v []byte) error

	SerializeNone() error
	SerializeSome(v any) error
	SerializeUnit() error
	SerializeUnitStruct(name string) error
	SerializeUnitVariant(name string, index uint32, variant string) error
	SerializeNewtypeStruct(name string, v any) error
	SerializeNewtypeVariant(name string, index uint32, variant string, v any) error

	SerializeSeq(length int) (SeqWriter, error)
	SerializeTuple(length int) (SeqWriter, error)
	SerializeTupleStruct(name string, length int) (SeqWriter, error)
	SerializeTupleVariant(name string, index uint32, variant string, length int) (SeqWriter, error)
	SerializeMap(length int) (MapWriter, error)
	SerializeStruct(name string, length int) (StructWriter, error)
	SerializeStructVariant(name string, index uint32, variant string, length int) (StructWriter, error)
}

// SeqWriter writes the elements of a sequence, tuple or tuple variant.
type SeqWriter interface {
	Element(v any) error
	End() error
}

// MapWriter writes map entries. Each Key must be followed by its Value.
type MapWriter interface {
	Key(k any) error
	Value(v any) error
	// Entry writes a key and its value.
	Entry(k, v any) error
	End() error
}

// StructWriter writes the named fields of a struct or struct variant.
type StructWriter interface {
	Field(name string, v any) error
	End() error
}

// maxDepth bounds recursion so cyclic values fail instead of overflowing
// the stack.
const maxDepth = 1000

var (
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// serializer adapts the visiting protocol to a Formatter, applying the
// representation policies of Options.
type serializer struct {
	f     format.Formatter
	opts  Options
	depth int
	// bare is set while the tag of a transparent newtype variant is pending
	// and nothing has been written for its payload yet.
	bare bool
}

func newSerializer(f format.Formatter, opts Options) *serializer {
	return &serializer{f: f, opts: opts}
}

// run encodes v as the whole document.
func (s *serializer) run(v any) error {
	if err := s.encode(v); err != nil {
		return err
	}

	return wrapIO(s.f.Finish())
}

// provide offers a type name as an informational annotation. Anonymous
// types have no name to offer.
func (s *serializer) provide(name string) {
	if name != "" {
		s.f.ProvideTypeAnnotation(name)
	}
}

func (s *serializer) SerializeBool(v bool) error {
	s.bare = false
	return wrapIO(s.f.WriteBool(v))
}

func (s *serializer) signed(tag string, v int64) error {
	s.bare = false
	s.f.ProvideTypeAnnotation(tag)
	return wrapIO(s.f.WriteInt(v))
}

func (s *serializer) unsigned(tag string, v uint64) error {
	s.bare = false
	s.f.ProvideTypeAnnotation(tag)
	return wrapIO(s.f.WriteUint(v))
}

func (s *serializer) SerializeInt8(v int8) error   { return s.signed("i8", int64(v)) }
func (s *serializer) SerializeInt16(v int16) error { return s.signed("i16", int64(v)) }
func (s *serializer) SerializeInt32(v int32) error { return s.signed("i32", int64(v)) }
func (s *serializer) SerializeInt64(v int64) error { return s.signed("i64", v) }

func (s *serializer) SerializeUint8(v uint8) error   { return s.unsigned("u8", uint64(v)) }
func (s *serializer) SerializeUint16(v uint16) error { return s.unsigned("u16", uint64(v)) }
func (s *serializer) SerializeUint32(v uint32) error { return s.unsigned("u32", uint64(v)) }
func (s *serializer) SerializeUint64(v uint64) error { return s.unsigned("u64", v) }

func (s *serializer) SerializeInt128(v *big.Int) error {
	if v == nil || v.Cmp(minInt128) < 0 || v.Cmp(maxInt128) > 0 {
		return &UnsupportedValueError{Str: "i128 out of range: " + v.String()}
	}

	s.bare = false
	s.f.ProvideTypeAnnotation("i128")

	return wrapIO(s.f.WriteBigInt(v))
}

func (s *serializer) SerializeUint128(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxUint128) > 0 {
		return &UnsupportedValueError{Str: "u128 out of range: " + v.String()}
	}

	s.bare = false
	s.f.ProvideTypeAnnotation("u128")

	return wrapIO(s.f.WriteBigInt(v))
}

func (s *serializer) float(tag string, v float64, bitSize int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &UnsupportedValueError{Str: tag + " " + strconv.FormatFloat(v, 'g', -1, bitSize)}
	}

	s.bare = false
	s.f.ProvideTypeAnnotation(tag)

	return wrapIO(s.f.WriteFloat(v, bitSize))
}

func (s *serializer) SerializeFloat32(v float32) error { return s.float("f32", float64(v), 32) }
func (s *serializer) SerializeFloat64(v float64) error { return s.float("f64", v, 64) }

func (s *serializer) SerializeChar(v rune) error {
	return s.SerializeString(string(v))
}

func (s *serializer) SerializeString(v string) error {
	s.bare = false
	return wrapIO(s.f.WriteString(v))
}

func (s *serializer) SerializeBytes(v []byte) error {
	s.bare = false
	s.f.ProvideTypeAnnotation("base64")
	return wrapIO(s.f.WriteBytes(v))
}

func (s *serializer) SerializeNone() error {
	if s.opts.OptionAsEnum {
		return s.SerializeUnitVariant("Option", 0, "None")
	}

	s.bare = false

	return wrapIO(s.f.WriteNull())
}

func (s *serializer) SerializeSome(v any) error {
	return s.some(func() error { return s.encode(v) })
}

func (s *serializer) some(inner func() error) error {
	if s.opts.OptionAsEnum {
		return s.newtypeVariant("Some", inner)
	}

	return inner()
}

func (s *serializer) SerializeUnit() error {
	s.bare = false

	if s.opts.UnitAsTuple {
		if err := s.f.BeginTuple(); err != nil {
			return wrapIO(err)
		}

		return wrapIO(s.f.EndTuple())
	}

	return wrapIO(s.f.WriteNull())
}

func (s *serializer) SerializeUnitStruct(name string) error {
	s.provide(name)
	return s.SerializeUnit()
}

func (s *serializer) SerializeUnitVariant(_ string, _ uint32, variant string) error {
	unwrap, err := s.tag(variant)
	if err != nil {
		return err
	}

	if err := s.SerializeUnit(); err != nil {
		return err
	}

	return unwrap()
}

func (s *serializer) SerializeNewtypeStruct(name string, v any) error {
	return s.newtypeStruct(name, func() error { return s.encode(v) })
}

func (s *serializer) newtypeStruct(name string, inner func() error) error {
	s.provide(name)

	if s.opts.NewtypeAsTuple {
		return s.singleton(inner)
	}

	return inner()
}

func (s *serializer) SerializeNewtypeVariant(_ string, _ uint32, variant string, v any) error {
	return s.newtypeVariant(variant, func() error { return s.encode(v) })
}

func (s *serializer) newtypeVariant(variant string, inner func() error) error {
	unwrap, err := s.tag(variant)
	if err != nil {
		return err
	}

	if s.opts.NewtypeAsTuple {
		err = s.singleton(inner)
	} else {
		s.bare = true
		err = inner()
	}

	if err != nil {
		return err
	}

	return unwrap()
}

// tag requires a variant tag on the next value. If the tag of an enclosing
// transparent newtype variant is still pending, the value is first wrapped
// in a one-element tuple so each tag lands on its own node; unwrap closes
// that tuple after the value.
func (s *serializer) tag(variant string) (unwrap func() error, err error) {
	if !s.bare {
		s.f.RequireTypeAnnotation(variant)
		return noUnwrap, nil
	}

	s.bare = false

	if err := beginAll(s.f.BeginTuple, s.f.BeginElement); err != nil {
		return nil, wrapIO(err)
	}

	s.f.RequireTypeAnnotation(variant)

	return func() error { return wrapIO(beginAll(s.f.EndElement, s.f.EndTuple)) }, nil
}

func noUnwrap() error { return nil }

// singleton writes inner as the only element of a tuple.
func (s *serializer) singleton(inner func() error) error {
	w, err := s.SerializeTuple(1)
	if err != nil {
		return err
	}

	if err := w.(*seqWriter).element(inner); err != nil {
		return err
	}

	return w.End()
}

func (s *serializer) SerializeSeq(_ int) (SeqWriter, error) {
	s.bare = false

	if err := s.f.BeginTuple(); err != nil {
		return nil, wrapIO(err)
	}

	return &seqWriter{s: s, unwrap: noUnwrap}, nil
}

func (s *serializer) SerializeTuple(length int) (SeqWriter, error) {
	return s.SerializeSeq(length)
}

func (s *serializer) SerializeTupleStruct(name string, length int) (SeqWriter, error) {
	s.provide(name)
	return s.SerializeTuple(length)
}

func (s *serializer) SerializeTupleVariant(_ string, _ uint32, variant string, length int) (SeqWriter, error) {
	unwrap, err := s.tag(variant)
	if err != nil {
		return nil, err
	}

	w, err := s.SerializeTuple(length)
	if err != nil {
		return nil, err
	}

	w.(*seqWriter).unwrap = unwrap

	return w, nil
}

func (s *serializer) SerializeMap(_ int) (MapWriter, error) {
	s.bare = false

	var err error

	switch s.opts.MapFormat {
	case MapTuple:
		err = s.f.BeginTuple()
	case MapStruct:
		err = s.f.BeginEntryStruct()
	default:
		err = s.f.BeginMap()
	}

	if err != nil {
		return nil, wrapIO(err)
	}

	return &mapWriter{s: s, mode: s.opts.MapFormat}, nil
}

func (s *serializer) SerializeStruct(name string, _ int) (StructWriter, error) {
	s.bare = false
	s.provide(name)

	if err := s.f.BeginStruct(); err != nil {
		return nil, wrapIO(err)
	}

	return &structWriter{s: s, unwrap: noUnwrap}, nil
}

func (s *serializer) SerializeStructVariant(_ string, _ uint32, variant string, _ int) (StructWriter, error) {
	unwrap, err := s.tag(variant)
	if err != nil {
		return nil, err
	}

	if err := s.f.BeginStruct(); err != nil {
		return nil, wrapIO(err)
	}

	return &structWriter{s: s, unwrap: unwrap}, nil
}

type seqWriter struct {
	s      *serializer
	unwrap func() error
	done   bool
}

func (w *seqWriter) Element(v any) error {
	return w.element(func() error { return w.s.encode(v) })
}

func (w *seqWriter) element(inner func() error) error {
	if w.done {
		violation("element written after End")
	}

	if err := w.s.f.BeginElement(); err != nil {
		return wrapIO(err)
	}

	if err := inner(); err != nil {
		return err
	}

	return wrapIO(w.s.f.EndElement())
}

func (w *seqWriter) End() error {
	if w.done {
		violation("sequence ended twice")
	}

	w.done = true

	if err := w.s.f.EndTuple(); err != nil {
		return wrapIO(err)
	}

	return w.unwrap()
}

type mapWriter struct {
	s        *serializer
	mode     MapFormat
	keyReady bool
	done     bool
}

func (w *mapWriter) Key(k any) error {
	return w.key(func() error { return w.s.encode(k) })
}

func (w *mapWriter) key(inner func() error) error {
	if w.done {
		violation("map key written after End")
	}

	if w.keyReady {
		violation("map key written while the previous key has no value")
	}

	w.keyReady = true
	f := w.s.f

	var err error

	switch w.mode {
	case MapTuple:
		err = beginAll(f.BeginElement, f.BeginTuple, f.BeginElement)
	case MapStruct:
		err = f.BeginField("key")
	default:
		err = f.BeginKey()
	}

	if err != nil {
		return wrapIO(err)
	}

	if err := inner(); err != nil {
		return err
	}

	switch w.mode {
	case MapTuple:
		err = f.EndElement()
	case MapStruct:
		err = f.EndField()
	default:
		err = f.EndKey()
	}

	return wrapIO(err)
}

func (w *mapWriter) Value(v any) error {
	return w.value(func() error { return w.s.encode(v) })
}

func (w *mapWriter) value(inner func() error) error {
	if !w.keyReady {
		violation("map value written without a preceding key")
	}

	w.keyReady = false
	f := w.s.f

	var err error

	switch w.mode {
	case MapTuple:
		err = f.BeginElement()
	case MapStruct:
		err = f.BeginField("value")
	default:
		err = f.BeginValue()
	}

	if err != nil {
		return wrapIO(err)
	}

	if err := inner(); err != nil {
		return err
	}

	switch w.mode {
	case MapTuple:
		err = beginAll(f.EndElement, f.EndTuple, f.EndElement)
	case MapStruct:
		err = f.EndField()
	default:
		err = f.EndValue()
	}

	return wrapIO(err)
}

func (w *mapWriter) Entry(k, v any) error {
	if err := w.Key(k); err != nil {
		return err
	}

	return w.Value(v)
}

func (w *mapWriter) End() error {
	if w.done {
		violation("map ended twice")
	}

	if w.keyReady {
		violation("map ended with a key that has no value")
	}

	w.done = true

	switch w.mode {
	case MapTuple:
		return wrapIO(w.s.f.EndTuple())
	case MapStruct:
		return wrapIO(w.s.f.EndStruct())
	default:
		return wrapIO(w.s.f.EndMap())
	}
}

type structWriter struct {
	s      *serializer
	unwrap func() error
	done   bool
}

func (w *structWriter) Field(name string, v any) error {
	return w.field(name, func() error { return w.s.encode(v) })
}

func (w *structWriter) field(name string, inner func() error) error {
	if w.done {
		violation("field %q written after End", name)
	}

	if err := w.s.f.BeginField(name); err != nil {
		return wrapIO(err)
	}

	if err := inner(); err != nil {
		return err
	}

	return wrapIO(w.s.f.EndField())
}

func (w *structWriter) End() error {
	if w.done {
		violation("struct ended twice")
	}

	w.done = true

	if err := w.s.f.EndStruct(); err != nil {
		return wrapIO(err)
	}

	return w.unwrap()
}

// violation aborts on misuse of a writer returned by Serializer.
func violation(format string, args ...any) {
	panic(fmt.Sprintf("kdl: "+format, args...))
}

// beginAll runs formatter calls in order, stopping at the first error.
func beginAll(calls ...func() error) error {
	for _, call := range calls {
		if err := call(); err != nil {
			return err
		}
	}

	return nil
}
