package kdl

import (
	"bytes"
	"io"
	"strings"

	"github.com/hupe1980/kdlgen/internal/format"
)

// Marshal returns the human layout of v: indented nodes with scalar fields
// as properties, ending in a newline.
func Marshal(v any, opts ...Option) ([]byte, error) {
	s, err := marshalHuman(v, buildOptions(opts))
	if err != nil {
		return nil, err
	}

	return []byte(s), nil
}

// MarshalString is Marshal returning a string.
func MarshalString(v any, opts ...Option) (string, error) {
	return marshalHuman(v, buildOptions(opts))
}

// MarshalCompact returns the compact layout of v: a single line of KDL
// with every group braced.
func MarshalCompact(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer

	o := buildOptions(opts)
	if err := newSerializer(format.NewCompact(&buf, o.TypeAnnotations), o).run(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func marshalHuman(v any, o Options) (string, error) {
	var buf strings.Builder

	if err := newSerializer(format.NewHuman(&buf, o.TypeAnnotations, o.WrapRoot), o).run(v); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Encoder writes one KDL document to an io.Writer.
type Encoder struct {
	w     io.Writer
	opts  Options
	human bool
	used  bool
}

// NewEncoder returns an Encoder writing compact KDL to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: buildOptions(opts)}
}

// Human switches the Encoder to the human layout. The document is built in
// memory and written to w in one call.
func (e *Encoder) Human() *Encoder {
	e.human = true
	return e
}

// Encode writes v. An Encoder encodes exactly one value; later calls return
// ErrEncoderUsed. On error, output already written to w is incomplete.
func (e *Encoder) Encode(v any) error {
	if e.used {
		return ErrEncoderUsed
	}

	e.used = true

	if !e.human {
		return newSerializer(format.NewCompact(e.w, e.opts.TypeAnnotations), e.opts).run(v)
	}

	s, err := marshalHuman(v, e.opts)
	if err != nil {
		return err
	}

	_, err = io.WriteString(e.w, s)

	return wrapIO(err)
}
