package input

import (
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hupe1980/kdlgen/internal/document"
)

// decodeMsgpack reads one MessagePack value. Maps may have keys of any
// type and come out sorted.
func decodeMsgpack(r io.Reader) (document.Value, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeUntypedMap()
	})

	v, err := dec.DecodeInterface()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}

	if err != nil {
		return nil, err
	}

	return fromAny(v, nil, nil)
}
