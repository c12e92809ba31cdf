package format

import (
	"encoding/base64"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/hupe1980/kdlgen/internal/lexical"
)

// Compact writes KDL in a single pass straight to its sink. Every group
// becomes a `{ ... }` block with `;` separated children on one line. The
// output is valid KDL but not meant for people.
type Compact struct {
	w io.Writer
	p pending
}

// NewCompact returns a Compact formatter writing to w. When annotate is set,
// informational type annotations are written as well as required ones.
func NewCompact(w io.Writer, annotate bool) *Compact {
	return &Compact{w: w, p: newPending(annotate)}
}

func (c *Compact) write(s string) error {
	_, err := io.WriteString(c.w, s)
	return err
}

// head writes the pending annotation and field name that precede a value.
func (c *Compact) head() error {
	var b strings.Builder

	if ty, ok := c.p.takeAnnotation(); ok {
		b.WriteByte('(')
		b.WriteString(lexical.Name(ty))
		b.WriteByte(')')
	}

	name, _ := c.p.takeField()
	b.WriteString(lexical.Name(name))
	b.WriteByte(' ')

	return c.write(b.String())
}

func (c *Compact) value(lit string) error {
	if err := c.head(); err != nil {
		return err
	}

	return c.write(lit)
}

func (c *Compact) ProvideTypeAnnotation(name string) { c.p.provide(name) }

func (c *Compact) RequireTypeAnnotation(name string) { c.p.require(name) }

func (c *Compact) WriteBool(v bool) error { return c.value(strconv.FormatBool(v)) }

func (c *Compact) WriteInt(v int64) error { return c.value(strconv.FormatInt(v, 10)) }

func (c *Compact) WriteUint(v uint64) error { return c.value(strconv.FormatUint(v, 10)) }

func (c *Compact) WriteBigInt(v *big.Int) error { return c.value(v.String()) }

func (c *Compact) WriteFloat(v float64, bitSize int) error {
	return c.value(floatLiteral(v, bitSize))
}

func (c *Compact) WriteString(v string) error { return c.value(lexical.Quote(v)) }

func (c *Compact) WriteNull() error { return c.value("null") }

// WriteBytes streams v through a base64 encoder so the encoded form is
// never held in memory.
func (c *Compact) WriteBytes(v []byte) error {
	if err := c.value(`"`); err != nil {
		return err
	}

	enc := base64.NewEncoder(base64.StdEncoding, c.w)
	if _, err := enc.Write(v); err != nil {
		return err
	}

	if err := enc.Close(); err != nil {
		return err
	}

	return c.write(`"`)
}

func (c *Compact) open() error {
	if err := c.head(); err != nil {
		return err
	}

	return c.write("{ ")
}

func (c *Compact) close() error { return c.write("}") }

func (c *Compact) BeginTuple() error { return c.open() }

func (c *Compact) BeginElement() error {
	c.p.setElement()
	return nil
}

func (c *Compact) EndElement() error { return c.write("; ") }

func (c *Compact) EndTuple() error { return c.close() }

func (c *Compact) BeginStruct() error { return c.open() }

func (c *Compact) BeginEntryStruct() error { return c.open() }

func (c *Compact) BeginField(name string) error {
	c.p.setField(name)
	return nil
}

func (c *Compact) EndField() error { return c.write("; ") }

func (c *Compact) EndStruct() error { return c.close() }

func (c *Compact) BeginMap() error { return c.open() }

// BeginKey opens an anonymous entry node holding `key` and `value` fields.
func (c *Compact) BeginKey() error {
	c.p.setElement()

	if err := c.open(); err != nil {
		return err
	}

	c.p.setField("key")

	return nil
}

func (c *Compact) EndKey() error { return c.write("; ") }

func (c *Compact) BeginValue() error {
	c.p.setField("value")
	return nil
}

func (c *Compact) EndValue() error { return c.write("; }; ") }

func (c *Compact) EndMap() error { return c.close() }

func (c *Compact) Finish() error {
	if c.p.state != noPending {
		violation("document finished with %s pending", c.p.state)
	}

	return nil
}

// floatLiteral spells a float the traversal has already checked is finite.
func floatLiteral(v float64, bitSize int) string {
	lit, ok := lexical.FormatFloat(v, bitSize)
	if !ok {
		violation("non-finite float %v reached the formatter", v)
	}

	return lit
}
