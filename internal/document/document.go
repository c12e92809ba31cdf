// Package document provides an ordered, format-neutral tree for decoded
// input files. Every node implements kdl.Marshaler so a tree encodes
// without going through reflection, keeping the key order of the source.
package document

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/kdlgen/pkg/kdl"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindTime
	KindBytes
	KindSequence
	KindMapping
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one node of a document tree.
type Value interface {
	kdl.Marshaler
	Kind() Kind
}

type (
	// Null is an explicit absence of a value.
	Null struct{}
	Bool bool
	Int  int64
	// Uint holds unsigned integers that do not fit in an Int.
	Uint   uint64
	Float  float64
	String string
	// Time is a timestamp. It encodes as an RFC 3339 string carrying the
	// date-time type name.
	Time  time.Time
	Bytes []byte
	// Sequence is an ordered list of values.
	Sequence []Value
)

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Uint) Kind() Kind     { return KindUint }
func (Float) Kind() Kind    { return KindFloat }
func (String) Kind() Kind   { return KindString }
func (Time) Kind() Kind     { return KindTime }
func (Bytes) Kind() Kind    { return KindBytes }
func (Sequence) Kind() Kind { return KindSequence }

func (Null) MarshalKDL(s kdl.Serializer) error     { return s.SerializeNone() }
func (v Bool) MarshalKDL(s kdl.Serializer) error   { return s.SerializeBool(bool(v)) }
func (v Int) MarshalKDL(s kdl.Serializer) error    { return s.SerializeInt64(int64(v)) }
func (v Uint) MarshalKDL(s kdl.Serializer) error   { return s.SerializeUint64(uint64(v)) }
func (v Float) MarshalKDL(s kdl.Serializer) error  { return s.SerializeFloat64(float64(v)) }
func (v String) MarshalKDL(s kdl.Serializer) error { return s.SerializeString(string(v)) }
func (v Bytes) MarshalKDL(s kdl.Serializer) error  { return s.SerializeBytes(v) }

func (v Time) MarshalKDL(s kdl.Serializer) error {
	return s.SerializeNewtypeStruct("date-time", time.Time(v).Format(time.RFC3339Nano))
}

func (v Sequence) MarshalKDL(s kdl.Serializer) error {
	w, err := s.SerializeSeq(len(v))
	if err != nil {
		return err
	}

	for _, item := range v {
		if err := w.Element(item); err != nil {
			return err
		}
	}

	return w.End()
}

// Pair is one mapping entry.
type Pair struct {
	Key   Value
	Value Value
}

// Mapping is an ordered list of key/value pairs. Keys are unique.
//
// A mapping whose keys are all strings encodes as a node with one field per
// key, which is how configuration reads in KDL. Any other key makes it a
// map, laid out according to the encoder's map format.
type Mapping struct {
	pairs []Pair
	index map[any]int
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{index: map[any]int{}}
}

func (*Mapping) Kind() Kind { return KindMapping }

// identity returns the comparable form of a key.
func identity(k Value) any {
	switch v := k.(type) {
	case Bytes:
		return "bytes:" + string(v)
	case Sequence, *Mapping:
		return fmt.Sprintf("%T:%p", v, v)
	default:
		return k
	}
}

// Set adds a pair, or replaces the value of an existing key in place.
func (m *Mapping) Set(key, value Value) {
	id := identity(key)
	if i, ok := m.index[id]; ok {
		m.pairs[i].Value = value
		return
	}

	m.index[id] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Mapping) Get(key Value) (Value, bool) {
	i, ok := m.index[identity(key)]
	if !ok {
		return nil, false
	}

	return m.pairs[i].Value, true
}

// Len returns the number of pairs.
func (m *Mapping) Len() int { return len(m.pairs) }

// Pairs returns the pairs in order. The slice must not be modified.
func (m *Mapping) Pairs() []Pair { return m.pairs }

// SortKeys orders the pairs by key. Decoders of formats without a defined
// key order use it to make output reproducible.
func (m *Mapping) SortKeys() {
	m.SortFunc(func(a, b Pair) int { return compareKeys(a.Key, b.Key) })
}

// SortFunc orders the pairs with a stable sort.
func (m *Mapping) SortFunc(cmp func(a, b Pair) int) {
	slices.SortStableFunc(m.pairs, cmp)

	for i, p := range m.pairs {
		m.index[identity(p.Key)] = i
	}
}

func compareKeys(a, b Value) int {
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}

	switch x := a.(type) {
	case String:
		return cmp.Compare(x, b.(String))
	case Int:
		return cmp.Compare(x, b.(Int))
	case Uint:
		return cmp.Compare(x, b.(Uint))
	case Float:
		return cmp.Compare(x, b.(Float))
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func (m *Mapping) fieldNames() bool {
	for _, p := range m.pairs {
		if _, ok := p.Key.(String); !ok {
			return false
		}
	}

	return true
}

func (m *Mapping) MarshalKDL(s kdl.Serializer) error {
	if m.fieldNames() {
		w, err := s.SerializeStruct("", len(m.pairs))
		if err != nil {
			return err
		}

		for _, p := range m.pairs {
			if err := w.Field(string(p.Key.(String)), p.Value); err != nil {
				return err
			}
		}

		return w.End()
	}

	w, err := s.SerializeMap(len(m.pairs))
	if err != nil {
		return err
	}

	for _, p := range m.pairs {
		if err := w.Entry(p.Key, p.Value); err != nil {
			return err
		}
	}

	return w.End()
}
