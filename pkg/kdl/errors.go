package kdl

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrEncoderUsed is returned when an Encoder is asked to encode a second
// value.
var ErrEncoderUsed = errors.New("kdl: encoder already used")

// IOError reports that writing to the sink failed. Output written before
// the failure is incomplete and should be discarded.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return "kdl: writing output: " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Error is a value-level failure: a value refused to be encoded.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return "kdl: " + e.Msg
}

// Errorf returns an *Error. Marshalers use it to reject their value.
func Errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedTypeError is returned for Go types that have no KDL shape,
// such as channels and functions.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "kdl: unsupported type: " + e.Type.String()
}

// UnsupportedValueError is returned for values of a supported type that
// KDL cannot express, such as NaN or integers outside 128 bits.
type UnsupportedValueError struct {
	Str string
}

func (e *UnsupportedValueError) Error() string {
	return "kdl: unsupported value: " + e.Str
}

// wrapIO marks an error from the formatter as a sink failure.
func wrapIO(err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Err: err}
}
