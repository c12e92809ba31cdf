// Package kdl encodes Go values as KDL documents.
//
// Ordinary values are walked by reflection: structs become nodes with one
// field per exported struct field, slices and arrays become sequences of
// `-` nodes, maps become key/value entries, and pointers are optional.
// Types that need a specific shape, such as enums, implement [Marshaler]
// and describe themselves through the [Serializer] protocol:
//
//	func (c Color) MarshalKDL(s kdl.Serializer) error {
//		return s.SerializeUnitVariant("Color", uint32(c), c.String())
//	}
//
// Two layouts are available. [Marshal] produces indented, human-oriented
// KDL where scalar fields become node properties and the root value's
// fields become top-level nodes. [MarshalCompact] and [Encoder] stream a
// dense single-line form that braces every group. [Options] selects how
// ambiguous shapes such as optionals, unit values and maps are written.
package kdl
