// Package marshal decodes the Ruby Marshal 4.8 object-graph format served by
// the registry's dependency endpoint.
//
// Only plain data is accepted: nil, booleans, integers, floats, strings,
// symbols, arrays and hashes (with string or symbol keys), plus the links the
// format uses to share them. Class instances, user-defined dumps, modules and
// the like are rejected instead of being instantiated, so untrusted input can
// never construct anything but these values.
//
// Decoded values map onto Go types as follows:
//
//	nil            nil
//	true/false     bool
//	Fixnum         int64
//	Bignum         *big.Int
//	Float          float64
//	String         string
//	Symbol         Symbol
//	Array          []any
//	Hash           map[string]any
//
// Callers are expected to validate the shape of the result before trusting
// any field; see [Unmarshaler].
package marshal

import (
	"errors"
	"fmt"
)

const (
	majorVersion = 4
	minorVersion = 8

	// maxDepth bounds nesting of arrays and hashes.
	maxDepth = 64
)

var (
	ErrVersion         = errors.New("unsupported marshal version")
	ErrTruncated       = errors.New("unexpected end of input")
	ErrUnsupportedType = errors.New("unsupported marshal type")
	ErrMalformed       = errors.New("malformed marshal data")
	ErrTooDeep         = errors.New("marshal data nested too deeply")
)

// Symbol is a decoded Ruby symbol.
type Symbol string

// Unmarshaler is implemented by types that build themselves from a decoded
// object graph. Implementations must check every type assertion.
type Unmarshaler interface {
	UnmarshalMarshal(v any) error
}

// SyntaxError reports where in the input decoding failed.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("marshal: offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Unmarshal decodes data, which must hold exactly one marshaled value.
func Unmarshal(data []byte) (any, error) {
	d := decoder{data: data}

	if err := d.header(); err != nil {
		return nil, d.fail(err)
	}

	v, err := d.value(0)
	if err != nil {
		return nil, d.fail(err)
	}

	if d.pos != len(d.data) {
		return nil, d.fail(fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(d.data)-d.pos))
	}

	return v, nil
}

// UnmarshalTo decodes data and hands the result to dst.
func UnmarshalTo(data []byte, dst Unmarshaler) error {
	v, err := Unmarshal(data)
	if err != nil {
		return err
	}

	return dst.UnmarshalMarshal(v)
}

// AsString returns v as a string when it is a string or a symbol.
func AsString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case Symbol:
		return string(s), true
	default:
		return "", false
	}
}
