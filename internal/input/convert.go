package input

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/hupe1980/kdlgen/internal/document"
)

// timestampLayouts are the YAML 1.1 timestamp forms, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999 -07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// keyOrder ranks the key of a mapping at path by its position in the
// source document. Unknown keys report false.
type keyOrder func(path []string, key string) (int, bool)

// fromAny converts the generic values produced by encoding/json style
// decoders into a document tree. Mapping keys are sorted unless order
// supplies the source order.
func fromAny(v any, path []string, order keyOrder) (document.Value, error) {
	switch x := v.(type) {
	case nil:
		return document.Null{}, nil
	case bool:
		return document.Bool(x), nil
	case string:
		return document.String(x), nil
	case []byte:
		return document.Bytes(x), nil
	case json.Number:
		return fromNumber(x)
	case int:
		return document.Int(int64(x)), nil
	case int8:
		return document.Int(int64(x)), nil
	case int16:
		return document.Int(int64(x)), nil
	case int32:
		return document.Int(int64(x)), nil
	case int64:
		return document.Int(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return document.Int(int64(x)), nil
	case uint16:
		return document.Int(int64(x)), nil
	case uint32:
		return document.Int(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return document.Float(float64(x)), nil
	case float64:
		return document.Float(x), nil
	case time.Time:
		return document.Time(x), nil
	case []any:
		return fromSlice(x, path, order)
	case map[string]any:
		return fromStringMap(x, path, order)
	case map[any]any:
		return fromAnyMap(x, path, order)
	}

	// Typed slices such as []map[string]any.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}

		return fromSlice(items, path, order)
	}

	return nil, fmt.Errorf("unsupported value of type %T", v)
}

func fromUint(u uint64) document.Value {
	if u <= 1<<63-1 {
		return document.Int(int64(u))
	}

	return document.Uint(u)
}

// fromNumber keeps integers exact and falls back to float for the rest.
func fromNumber(n json.Number) (document.Value, error) {
	if i, err := n.Int64(); err == nil {
		return document.Int(i), nil
	}

	if b, ok := new(big.Int).SetString(n.String(), 10); ok && b.IsUint64() {
		return document.Uint(b.Uint64()), nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n, err)
	}

	return document.Float(f), nil
}

func fromSlice(items []any, path []string, order keyOrder) (document.Value, error) {
	seq := make(document.Sequence, 0, len(items))

	for _, item := range items {
		v, err := fromAny(item, path, order)
		if err != nil {
			return nil, err
		}

		seq = append(seq, v)
	}

	return seq, nil
}

func fromStringMap(m map[string]any, path []string, order keyOrder) (document.Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	out := document.NewMapping()

	for _, k := range keys {
		child := append(path[:len(path):len(path)], k)

		v, err := fromAny(m[k], child, order)
		if err != nil {
			return nil, err
		}

		out.Set(document.String(k), v)
	}

	out.SortKeys()

	if order != nil {
		out.SortFunc(func(a, b document.Pair) int {
			return compareRank(order, path, string(a.Key.(document.String)), string(b.Key.(document.String)))
		})
	}

	return out, nil
}

// compareRank orders known keys by source position ahead of unknown ones.
func compareRank(order keyOrder, path []string, a, b string) int {
	ra, okA := order(path, a)
	rb, okB := order(path, b)

	switch {
	case okA && okB:
		return cmp.Compare(ra, rb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

func fromAnyMap(m map[any]any, path []string, order keyOrder) (document.Value, error) {
	out := document.NewMapping()

	for k, val := range m {
		key, err := fromAny(k, path, nil)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}

		v, err := fromAny(val, append(path[:len(path):len(path)], fmt.Sprint(k)), order)
		if err != nil {
			return nil, err
		}

		out.Set(key, v)
	}

	out.SortKeys()

	return out, nil
}
