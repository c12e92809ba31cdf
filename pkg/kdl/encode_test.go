package kdl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestEncoder_Compact(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewEncoder(&buf).Encode(structSample))
	assert.Equal(t, "(Struct)- { field 1; }", buf.String())
}

func TestEncoder_Human(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewEncoder(&buf, WithWrapRoot()).Human().Encode(map[string]int{"a": 1}))
	assert.Equal(t, "- {\n    - key=r\"a\" value=1\n}\n", buf.String())
}

func TestEncoder_IsOneShot(t *testing.T) {
	var buf bytes.Buffer

	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(1))
	assert.ErrorIs(t, enc.Encode(2), ErrEncoderUsed)
	assert.Equal(t, "- 1", buf.String())
}

func TestMarshalString(t *testing.T) {
	s, err := MarshalString([]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "- 1\n- 2\n- 3\n", s)
}

func TestMarshal_ErrorReturnsNoOutput(t *testing.T) {
	out, err := Marshal([]any{1, make(chan int)})
	require.Error(t, err)
	assert.Nil(t, out)
}

func TestParseMapFormat(t *testing.T) {
	for in, want := range map[string]MapFormat{"": MapInfer, "Tuple": MapTuple, "flattened": MapTuple, "struct": MapStruct} {
		got, err := ParseMapFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMapFormat("list")
	assert.Error(t, err)
}

func TestParseNaming(t *testing.T) {
	got, err := ParseNaming("Kebab")
	require.NoError(t, err)
	assert.Equal(t, NamingKebab, got)

	_, err = ParseNaming("screaming")
	assert.Error(t, err)
}
