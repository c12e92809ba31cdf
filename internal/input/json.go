package input

import (
	"bytes"
	"encoding/json"
	"io"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/kdlgen/internal/document"
)

// useNumber keeps JSON integers exact instead of decoding them as float64.
func useNumber(d *json.Decoder) *json.Decoder {
	d.UseNumber()
	return d
}

// decodeJSON reads a JSON document. Objects have no key order, so their
// keys come out sorted.
func decodeJSON(r io.Reader) (document.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	var v any
	if err := sigsyaml.Unmarshal(data, &v, useNumber); err != nil {
		return nil, err
	}

	return fromAny(v, nil, nil)
}
