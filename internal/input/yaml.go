package input

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/kdlgen/internal/document"
)

const (
	// maxAliasDepth bounds alias nesting so self-referencing documents fail.
	maxAliasDepth = 100

	// aliasExpansionRatio bounds how many nodes alias expansion may produce
	// relative to the source, which stops exponentially nested aliases.
	aliasExpansionRatio = 100

	// minExpansionLimit keeps small documents with a few aliases working.
	minExpansionLimit = 10_000
)

// decodeYAML reads every document in r. A single document is returned as
// is; a multi-document stream becomes a sequence of documents.
func decodeYAML(r io.Reader) (document.Value, error) {
	dec := yaml.NewDecoder(r)

	var docs document.Sequence

	for {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		v, err := newYAMLWalker(&node).value(&node, 0)
		if err != nil {
			return nil, err
		}

		docs = append(docs, v)
	}

	switch len(docs) {
	case 0:
		return nil, ErrEmpty
	case 1:
		return docs[0], nil
	default:
		return docs, nil
	}
}

// yamlWalker converts one YAML document into a document value while
// counting every node it visits, aliased copies included.
type yamlWalker struct {
	visited int
	limit   int
}

func newYAMLWalker(root *yaml.Node) *yamlWalker {
	return &yamlWalker{limit: max(countYAMLNodes(root)*aliasExpansionRatio, minExpansionLimit)}
}

// countYAMLNodes counts the nodes of the source tree without following
// aliases.
func countYAMLNodes(n *yaml.Node) int {
	total := 1
	for _, c := range n.Content {
		total += countYAMLNodes(c)
	}

	return total
}

func (w *yamlWalker) visit(n *yaml.Node) error {
	w.visited++
	if w.visited > w.limit {
		return fmt.Errorf("line %d: alias expansion exceeds %d nodes", n.Line, w.limit)
	}

	return nil
}

func (w *yamlWalker) value(n *yaml.Node, aliases int) (document.Value, error) {
	if err := w.visit(n); err != nil {
		return nil, err
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return document.Null{}, nil
		}

		return w.value(n.Content[0], aliases)
	case yaml.AliasNode:
		if aliases >= maxAliasDepth {
			return nil, fmt.Errorf("line %d: aliases nested deeper than %d", n.Line, maxAliasDepth)
		}

		return w.value(n.Alias, aliases+1)
	case yaml.SequenceNode:
		seq := make(document.Sequence, 0, len(n.Content))

		for _, c := range n.Content {
			v, err := w.value(c, aliases)
			if err != nil {
				return nil, err
			}

			seq = append(seq, v)
		}

		return seq, nil
	case yaml.MappingNode:
		m := document.NewMapping()
		if err := w.merge(m, n, aliases); err != nil {
			return nil, err
		}

		return m, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unexpected YAML node kind %d", n.Line, n.Kind)
	}
}

// merge adds the pairs of mapping node n to m. Merge keys (<<) pull in
// the pairs of the referenced mappings; explicit keys take precedence.
func (w *yamlWalker) merge(m *document.Mapping, n *yaml.Node, aliases int) error {
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}

		key, err := w.value(k, aliases)
		if err != nil {
			return err
		}

		val, err := w.value(v, aliases)
		if err != nil {
			return err
		}

		m.Set(key, val)
	}

	for _, src := range merges {
		if err := w.mergeFrom(m, src, aliases); err != nil {
			return err
		}
	}

	return nil
}

func (w *yamlWalker) mergeFrom(m *document.Mapping, src *yaml.Node, aliases int) error {
	for src.Kind == yaml.AliasNode {
		if aliases >= maxAliasDepth {
			return fmt.Errorf("line %d: aliases nested deeper than %d", src.Line, maxAliasDepth)
		}

		src = src.Alias
		aliases++
	}

	if err := w.visit(src); err != nil {
		return err
	}

	switch src.Kind {
	case yaml.MappingNode:
		merged := document.NewMapping()
		if err := w.merge(merged, src, aliases); err != nil {
			return err
		}

		for _, p := range merged.Pairs() {
			if _, exists := m.Get(p.Key); !exists {
				m.Set(p.Key, p.Value)
			}
		}

		return nil
	case yaml.SequenceNode:
		for _, c := range src.Content {
			if err := w.mergeFrom(m, c, aliases); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
	}
}

func yamlScalar(n *yaml.Node) (document.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return document.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}

		return document.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return document.Int(i), nil
		}

		var u uint64
		if err := n.Decode(&u); err == nil {
			return document.Uint(u), nil
		}

		return document.String(n.Value), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}

		return document.Float(f), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid !!binary: %w", n.Line, err)
		}

		return document.Bytes(b), nil
	case "!!timestamp":
		if t, ok := parseTimestamp(n.Value); ok {
			return document.Time(t), nil
		}

		return document.String(n.Value), nil
	default:
		return document.String(n.Value), nil
	}
}
