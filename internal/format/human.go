package format

import (
	"encoding/base64"
	"math/big"
	"strconv"
	"strings"

	"github.com/hupe1980/kdlgen/internal/lexical"
)

const (
	// IndentWidth is the number of columns each open child block indents by.
	IndentWidth = 4
	// MaxIndentDepth is the deepest nesting that still indents further.
	// Deeper blocks stay balanced but share this indentation.
	MaxIndentDepth = 63
)

// frame is one open group.
type frame struct {
	// document frames are the top level of the file: no braces and children
	// at the current indentation.
	document bool
	// block is set once the group's `{` has been written; until then the
	// node line is still open and takes properties and arguments.
	block bool
}

// Human lays KDL out for reading. Scalar fields of a group become
// `name=value` properties and scalar elements become positional arguments
// on the group's node line, until the first nested group opens an indented
// child block. It writes to an in-memory buffer because where a value goes
// depends on the state of the enclosing groups.
//
// The first group of the document is elided when nothing is annotating it:
// its children become the top-level nodes of the file.
type Human struct {
	buf      *strings.Builder
	p        pending
	stack    []frame
	depth    int
	wrapRoot bool
	started  bool
	rootSeen bool
}

// NewHuman returns a Human formatter writing to buf. annotate enables
// informational type annotations; wrapRoot disables root elision.
func NewHuman(buf *strings.Builder, annotate, wrapRoot bool) *Human {
	return &Human{
		buf:      buf,
		p:        newPending(annotate),
		stack:    []frame{{document: true, block: true}},
		wrapRoot: wrapRoot,
	}
}

func (h *Human) top() *frame {
	return &h.stack[len(h.stack)-1]
}

// newline starts a node line at the current indentation.
func (h *Human) newline() {
	if h.started {
		h.buf.WriteByte('\n')
	}

	h.started = true
	h.buf.WriteString(strings.Repeat(" ", min(h.depth, MaxIndentDepth)*IndentWidth))
}

// openBlock turns the open node line of f into a child block.
func (h *Human) openBlock(f *frame) {
	h.buf.WriteString(" {")
	f.block = true
	h.depth++
}

func annotated(ty string, ok bool) string {
	if !ok {
		return ""
	}

	return "(" + lexical.Name(ty) + ")"
}

// value places a scalar literal: as an argument or property on an open node
// line, otherwise as a child node of its own.
func (h *Human) value(lit string) error {
	h.rootSeen = true

	ty, hasTy := h.p.takeAnnotation()
	name, element := h.p.takeField()
	parent := h.top()

	if !parent.block {
		h.buf.WriteByte(' ')

		if !element {
			h.buf.WriteString(lexical.Name(name))
			h.buf.WriteByte('=')
		}

		h.buf.WriteString(annotated(ty, hasTy))
		h.buf.WriteString(lit)

		return nil
	}

	h.newline()
	h.buf.WriteString(annotated(ty, hasTy))
	h.buf.WriteString(lexical.Name(name))
	h.buf.WriteByte(' ')
	h.buf.WriteString(lit)

	return nil
}

// open starts a group. With inline set, scalars may still join its node
// line; otherwise its child block opens immediately.
func (h *Human) open(inline bool) error {
	if !h.rootSeen && !h.wrapRoot && !h.p.hasAnnotation() {
		h.rootSeen = true
		h.p.takeField()
		h.stack = append(h.stack, frame{document: true, block: true})

		return nil
	}

	h.rootSeen = true

	ty, hasTy := h.p.takeAnnotation()
	name, _ := h.p.takeField()

	if parent := h.top(); !parent.block {
		h.openBlock(parent)
	}

	h.newline()
	h.buf.WriteString(annotated(ty, hasTy))
	h.buf.WriteString(lexical.Name(name))
	h.stack = append(h.stack, frame{})

	if !inline {
		h.openBlock(h.top())
	}

	return nil
}

func (h *Human) close() error {
	if len(h.stack) == 1 {
		violation("group closed more often than opened")
	}

	f := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]

	if f.document || !f.block {
		return nil
	}

	h.depth--
	h.newline()
	h.buf.WriteByte('}')

	return nil
}

func (h *Human) ProvideTypeAnnotation(name string) { h.p.provide(name) }

func (h *Human) RequireTypeAnnotation(name string) { h.p.require(name) }

func (h *Human) WriteBool(v bool) error { return h.value(strconv.FormatBool(v)) }

func (h *Human) WriteInt(v int64) error { return h.value(strconv.FormatInt(v, 10)) }

func (h *Human) WriteUint(v uint64) error { return h.value(strconv.FormatUint(v, 10)) }

func (h *Human) WriteBigInt(v *big.Int) error { return h.value(v.String()) }

func (h *Human) WriteFloat(v float64, bitSize int) error {
	return h.value(floatLiteral(v, bitSize))
}

func (h *Human) WriteString(v string) error { return h.value(lexical.Quote(v)) }

func (h *Human) WriteBytes(v []byte) error {
	return h.value(`"` + base64.StdEncoding.EncodeToString(v) + `"`)
}

func (h *Human) WriteNull() error { return h.value("null") }

func (h *Human) BeginTuple() error { return h.open(true) }

func (h *Human) BeginElement() error {
	h.p.setElement()
	return nil
}

func (h *Human) EndElement() error { return nil }

func (h *Human) EndTuple() error { return h.close() }

func (h *Human) BeginStruct() error { return h.open(true) }

// BeginEntryStruct never folds fields into properties: repeated property
// names would overwrite each other.
func (h *Human) BeginEntryStruct() error { return h.open(false) }

func (h *Human) BeginField(name string) error {
	h.p.setField(name)
	return nil
}

func (h *Human) EndField() error { return nil }

func (h *Human) EndStruct() error { return h.close() }

func (h *Human) BeginMap() error { return h.open(true) }

func (h *Human) BeginKey() error {
	h.p.setElement()

	if err := h.open(true); err != nil {
		return err
	}

	h.p.setField("key")

	return nil
}

func (h *Human) EndKey() error { return nil }

func (h *Human) BeginValue() error {
	h.p.setField("value")
	return nil
}

func (h *Human) EndValue() error { return h.close() }

func (h *Human) EndMap() error { return h.close() }

// Finish checks every group was closed and ends the last line.
func (h *Human) Finish() error {
	if len(h.stack) != 1 {
		violation("document finished with %d open group(s)", len(h.stack)-1)
	}

	if h.p.state != noPending {
		violation("document finished with %s pending", h.p.state)
	}

	if h.started {
		h.buf.WriteByte('\n')
	}

	return nil
}
