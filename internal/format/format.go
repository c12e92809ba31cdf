// Package format turns a stream of structural write calls into KDL text.
//
// A [Formatter] receives flat begin/end calls for groups, fields, map
// entries and scalars, in traversal order, and decides how each one is laid
// out. Two layouts exist: [Compact], which streams dense single-line KDL to
// any io.Writer, and [Human], which keeps enough local state to produce
// indented KDL with node properties.
package format

import (
	"fmt"
	"math/big"
)

// Placeholder is the node name used for values that carry no name of their
// own, such as sequence elements and the document root.
const Placeholder = "-"

// Formatter is the operation set shared by every layout. Every Begin call
// must be paired with its End call and groups nest strictly. Errors returned
// by a Formatter are always failures of the underlying sink.
type Formatter interface {
	// ProvideTypeAnnotation offers an informational annotation for the next
	// value. Layouts may ignore it.
	ProvideTypeAnnotation(name string)
	// RequireTypeAnnotation sets an annotation the next value must carry.
	// Requiring a second one before a value consumes the first panics.
	RequireTypeAnnotation(name string)

	WriteBool(v bool) error
	WriteInt(v int64) error
	WriteUint(v uint64) error
	WriteBigInt(v *big.Int) error
	// WriteFloat writes a finite float; bitSize is 32 or 64.
	WriteFloat(v float64, bitSize int) error
	WriteString(v string) error
	// WriteBytes writes v base64 encoded inside a quoted string.
	WriteBytes(v []byte) error
	WriteNull() error

	BeginTuple() error
	BeginElement() error
	EndElement() error
	EndTuple() error

	BeginStruct() error
	// BeginEntryStruct opens a named-field group whose field names repeat,
	// as produced by maps written as key/value fields. Close it with
	// EndStruct.
	BeginEntryStruct() error
	BeginField(name string) error
	EndField() error
	EndStruct() error

	BeginMap() error
	BeginKey() error
	EndKey() error
	BeginValue() error
	EndValue() error
	EndMap() error

	// Finish completes the document once the root value has been written.
	Finish() error
}

var (
	_ Formatter = (*Compact)(nil)
	_ Formatter = (*Human)(nil)
)

// violation aborts on a broken call sequence. These are bugs in the caller,
// not bad input, so they are never reported as errors.
func violation(format string, args ...any) {
	panic(fmt.Sprintf("kdl: "+format+" (this is a bug in the traversal driving the formatter)", args...))
}
