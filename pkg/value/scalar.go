// Package value implements the Vertex value model: tagged Scalars, typed
// Collections with constant, mutable and define-once policies, and the
// arithmetic, comparison and conversion rules the interpreter applies to
// them.
package value

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/vertex/pkg/bytecode"
)

var (
	// ErrTypeMismatch is returned when a payload does not match its datatype,
	// or when operands of incompatible datatypes are combined.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUndefined is returned when reading or undefining an undefined Scalar.
	ErrUndefined = errors.New("scalar is undefined")

	// ErrAlreadyDefined is returned when defining a Scalar twice.
	ErrAlreadyDefined = errors.New("scalar is already defined")
)

// Scalar is a datatype-tagged value. The datatype never changes after
// construction; the payload is either present (defined) or absent.
type Scalar struct {
	dt      bytecode.Datatype
	payload any
	defined bool
}

// New creates a defined Scalar. The Go type of v must be the host type of
// dt exactly (see package bytecode).
func New(dt bytecode.Datatype, v any) (Scalar, error) {
	if err := check(dt, v); err != nil {
		return Scalar{}, err
	}
	return Scalar{dt: dt, payload: v, defined: true}, nil
}

// MustNew is like New but panics on a mismatch. For literals in Go code.
func MustNew(dt bytecode.Datatype, v any) Scalar {
	s, err := New(dt, v)
	if err != nil {
		panic(err)
	}
	return s
}

// Undefined creates a placeholder of datatype dt awaiting a value.
func Undefined(dt bytecode.Datatype) Scalar {
	return Scalar{dt: dt}
}

// Convenience constructors for the default types.

func Bool(v bool) Scalar     { return Scalar{dt: bytecode.Boolean, payload: v, defined: true} }
func Int(v int64) Scalar     { return Scalar{dt: bytecode.Integer, payload: v, defined: true} }
func Float(v float64) Scalar { return Scalar{dt: bytecode.Float, payload: v, defined: true} }
func Str(v string) Scalar    { return Scalar{dt: bytecode.String, payload: v, defined: true} }
func Char(v bytecode.Char) Scalar {
	return Scalar{dt: bytecode.Character, payload: v, defined: true}
}

// Datatype returns the fixed datatype of s.
func (s Scalar) Datatype() bytecode.Datatype { return s.dt }

// Defined reports whether s holds a value.
func (s Scalar) Defined() bool { return s.defined }

// Value returns the payload, failing if s is undefined.
func (s Scalar) Value() (any, error) {
	if !s.defined {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, s.dt)
	}
	return s.payload, nil
}

// Define sets the payload of an undefined Scalar.
func (s *Scalar) Define(v any) error {
	if s.defined {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, s.dt)
	}
	if err := check(s.dt, v); err != nil {
		return err
	}
	s.payload = v
	s.defined = true
	return nil
}

// Undefine clears the payload of a defined Scalar.
func (s *Scalar) Undefine() error {
	if !s.defined {
		return fmt.Errorf("%w: %s", ErrUndefined, s.dt)
	}
	s.payload = nil
	s.defined = false
	return nil
}

// AsBool returns the payload of a defined Boolean.
func (s Scalar) AsBool() (bool, error) {
	v, err := s.typed(bytecode.Boolean)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// AsString returns the payload of a defined String.
func (s Scalar) AsString() (string, error) {
	v, err := s.typed(bytecode.String)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// AsInt returns the payload of a defined LongSigned.
func (s Scalar) AsInt() (int64, error) {
	v, err := s.typed(bytecode.Integer)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// AsFloat returns the payload of a defined FloatDouble.
func (s Scalar) AsFloat() (float64, error) {
	v, err := s.typed(bytecode.Float)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (s Scalar) typed(dt bytecode.Datatype) (any, error) {
	if s.dt != dt {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, s.dt, dt)
	}
	return s.Value()
}

// String renders s for diagnostics.
func (s Scalar) String() string {
	if !s.defined {
		return fmt.Sprintf("%s(undefined)", s.dt)
	}
	return fmt.Sprintf("%s(%s)", s.dt, Format(s))
}

// Format renders the payload the way console output shows it. Undefined
// scalars render as the empty string.
func Format(s Scalar) string {
	if !s.defined {
		return ""
	}
	switch v := s.payload.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bytecode.Char:
		return string(rune(v))
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// check verifies that v is the host type of dt.
func check(dt bytecode.Datatype, v any) error {
	ok := false
	switch dt {
	case bytecode.Boolean:
		_, ok = v.(bool)
	case bytecode.TinySigned:
		_, ok = v.(int8)
	case bytecode.TinyUnsigned:
		_, ok = v.(uint8)
	case bytecode.ShortSigned:
		_, ok = v.(int16)
	case bytecode.ShortUnsigned:
		_, ok = v.(uint16)
	case bytecode.MediumSigned:
		_, ok = v.(int32)
	case bytecode.MediumUnsigned:
		_, ok = v.(uint32)
	case bytecode.LongSigned:
		_, ok = v.(int64)
	case bytecode.LongUnsigned:
		_, ok = v.(uint64)
	case bytecode.FloatSingle:
		_, ok = v.(float32)
	case bytecode.FloatDouble:
		_, ok = v.(float64)
	case bytecode.Character:
		_, ok = v.(bytecode.Char)
	case bytecode.String:
		_, ok = v.(string)
	}
	if !ok {
		return fmt.Errorf("%w: %T is not a %s", ErrTypeMismatch, v, dt)
	}
	return nil
}
