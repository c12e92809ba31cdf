package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kdlgen/pkg/kdl"
)

func TestMapping_KeepsInsertionOrder(t *testing.T) {
	m := NewMapping()
	m.Set(String("zeta"), Int(1))
	m.Set(String("alpha"), Int(2))
	m.Set(String("zeta"), Int(3))

	require.Equal(t, 2, m.Len())
	assert.Equal(t, String("zeta"), m.Pairs()[0].Key)
	assert.Equal(t, Int(3), m.Pairs()[0].Value)

	v, ok := m.Get(String("alpha"))
	require.True(t, ok)
	assert.Equal(t, Int(2), v)

	_, ok = m.Get(String("missing"))
	assert.False(t, ok)
}

func TestMapping_SortKeys(t *testing.T) {
	m := NewMapping()
	m.Set(String("b"), Null{})
	m.Set(Int(10), Null{})
	m.Set(String("a"), Null{})
	m.Set(Int(2), Null{})
	m.SortKeys()

	var keys []Value
	for _, p := range m.Pairs() {
		keys = append(keys, p.Key)
	}

	assert.Equal(t, []Value{Int(2), Int(10), String("a"), String("b")}, keys)

	v, ok := m.Get(String("a"))
	require.True(t, ok)
	assert.Equal(t, Null{}, v)
}

func TestMapping_StringKeysEncodeAsFields(t *testing.T) {
	pkg := NewMapping()
	pkg.Set(String("name"), String("kdl"))
	pkg.Set(String("authors"), Sequence{String("Kat")})

	root := NewMapping()
	root.Set(String("package"), pkg)

	out, err := kdl.Marshal(root)
	require.NoError(t, err)

	want := `package name=r"kdl" {
    authors r"Kat"
}
`
	assert.Equal(t, want, string(out))
}

func TestMapping_OtherKeysEncodeAsMap(t *testing.T) {
	m := NewMapping()
	m.Set(Int(1), String("one"))
	m.Set(Bool(true), String("yes"))

	out, err := kdl.MarshalCompact(m)
	require.NoError(t, err)
	assert.Equal(t, `- { - { key 1; value r"one"; }; - { key true; value r"yes"; }; }`, string(out))

	out, err = kdl.MarshalCompact(m, kdl.WithMapFormat(kdl.MapTuple))
	require.NoError(t, err)
	assert.Equal(t, `- { - { - 1; - r"one"; }; - { - true; - r"yes"; }; }`, string(out))
}

func TestScalars(t *testing.T) {
	ts := Time(time.Date(1979, 5, 27, 7, 32, 0, 0, time.UTC))

	tests := []struct {
		name  string
		value Value
		opts  []kdl.Option
		want  string
	}{
		{"null", Null{}, nil, "- null"},
		{"null as option", Null{}, []kdl.Option{kdl.WithOptionAsEnum()}, "(None)- null"},
		{"bool", Bool(false), nil, "- false"},
		{"int", Int(-3), []kdl.Option{kdl.WithTypeAnnotations()}, "(i64)- -3"},
		{"uint", Uint(18446744073709551615), nil, "- 18446744073709551615"},
		{"float", Float(2), nil, "- 2.0"},
		{"string", String("hi"), nil, `- r"hi"`},
		{"bytes", Bytes("KDL"), nil, `- "S0RM"`},
		{"time", ts, nil, `- r"1979-05-27T07:32:00Z"`},
		{"annotated time", ts, []kdl.Option{kdl.WithTypeAnnotations()}, `(date-time)- r"1979-05-27T07:32:00Z"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := kdl.MarshalCompact(tt.value, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "mapping", NewMapping().Kind().String())
	assert.Equal(t, "sequence", Sequence{}.Kind().String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
