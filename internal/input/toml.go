package input

import (
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/kdlgen/internal/document"
)

// decodeTOML reads a TOML document, keeping keys in the order they appear.
func decodeTOML(r io.Reader) (document.Value, error) {
	var v map[string]any

	md, err := toml.NewDecoder(r).Decode(&v)
	if err != nil {
		return nil, err
	}

	rank := make(map[string]int)
	for i, k := range md.Keys() {
		id := strings.Join(k, "\x00")
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}

	order := func(path []string, key string) (int, bool) {
		i, ok := rank[strings.Join(append(path[:len(path):len(path)], key), "\x00")]
		return i, ok
	}

	return fromAny(v, nil, order)
}
