package value

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/vertex/pkg/bytecode"
)

// ErrDivisionByZero is returned by Divide and Modulus for a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

type operator uint8

const (
	opAdd operator = iota
	opSubtract
	opMultiply
	opDivide
	opModulus
)

var operatorNames = [...]string{"add", "subtract", "multiply", "divide", "modulus"}

func (op operator) String() string { return operatorNames[op] }

// Add returns a + b. Two Strings concatenate.
func Add(a, b Scalar) (Scalar, error) { return arithmetic(opAdd, a, b) }

// Subtract returns a - b.
func Subtract(a, b Scalar) (Scalar, error) { return arithmetic(opSubtract, a, b) }

// Multiply returns a * b. A String and an integer repeat the string.
func Multiply(a, b Scalar) (Scalar, error) { return arithmetic(opMultiply, a, b) }

// Divide returns a / b. Integer division truncates toward zero.
func Divide(a, b Scalar) (Scalar, error) { return arithmetic(opDivide, a, b) }

// Modulus returns the remainder of a / b, with the sign of a.
func Modulus(a, b Scalar) (Scalar, error) { return arithmetic(opModulus, a, b) }

func arithmetic(op operator, a, b Scalar) (Scalar, error) {
	av, err := a.Value()
	if err != nil {
		return Scalar{}, err
	}
	bv, err := b.Value()
	if err != nil {
		return Scalar{}, err
	}

	switch {
	case op == opAdd && a.dt == bytecode.String && b.dt == bytecode.String:
		return Str(av.(string) + bv.(string)), nil
	case op == opMultiply && a.dt == bytecode.String && b.dt.IsInteger():
		return repeat(av.(string), b)
	case op == opMultiply && a.dt.IsInteger() && b.dt == bytecode.String:
		return repeat(bv.(string), a)
	}

	if !a.dt.IsNumeric() || !b.dt.IsNumeric() {
		return Scalar{}, mismatch(op, a, b)
	}
	if a.dt == b.dt {
		return sameType(op, a.dt, av, bv)
	}

	// Mixed operands: integers promote to the float operand's type and
	// single precision promotes to double.
	var target bytecode.Datatype
	switch {
	case a.dt.IsFloat() && b.dt.IsFloat():
		target = bytecode.FloatDouble
	case a.dt.IsFloat() && b.dt.IsInteger():
		target = a.dt
	case a.dt.IsInteger() && b.dt.IsFloat():
		target = b.dt
	default:
		return Scalar{}, mismatch(op, a, b)
	}
	x, y := toFloat64(av), toFloat64(bv)
	if target == bytecode.FloatSingle {
		return applyFloat[float32](op, target, float32(x), float32(y))
	}
	return applyFloat[float64](op, target, x, y)
}

func mismatch(op operator, a, b Scalar) error {
	return fmt.Errorf("%w: cannot %s %s and %s", ErrTypeMismatch, op, a.dt, b.dt)
}

func repeat(s string, count Scalar) (Scalar, error) {
	n, err := integerValue(count)
	if err != nil {
		return Scalar{}, err
	}
	out, err := Repeat(s, n)
	if err != nil {
		return Scalar{}, err
	}
	return Str(out), nil
}

// Repeat returns count copies of s. A negative count, or one whose result
// would not fit in memory addressing, returns ErrOutOfRange.
func Repeat(s string, count int64) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("%w: negative repeat count %d", ErrOutOfRange, count)
	}
	if len(s) > 0 && count > int64(math.MaxInt/len(s)) {
		return "", fmt.Errorf("%w: repeating %d bytes %d times", ErrOutOfRange, len(s), count)
	}
	return strings.Repeat(s, int(count)), nil
}

func sameType(op operator, dt bytecode.Datatype, x, y any) (Scalar, error) {
	switch dt {
	case bytecode.TinySigned:
		return applyInt[int8](op, dt, x, y)
	case bytecode.TinyUnsigned:
		return applyInt[uint8](op, dt, x, y)
	case bytecode.ShortSigned:
		return applyInt[int16](op, dt, x, y)
	case bytecode.ShortUnsigned:
		return applyInt[uint16](op, dt, x, y)
	case bytecode.MediumSigned:
		return applyInt[int32](op, dt, x, y)
	case bytecode.MediumUnsigned:
		return applyInt[uint32](op, dt, x, y)
	case bytecode.LongSigned:
		return applyInt[int64](op, dt, x, y)
	case bytecode.LongUnsigned:
		return applyInt[uint64](op, dt, x, y)
	case bytecode.FloatSingle:
		return applyFloat(op, dt, x.(float32), y.(float32))
	default:
		return applyFloat(op, dt, x.(float64), y.(float64))
	}
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func applyInt[T integer](op operator, dt bytecode.Datatype, x, y any) (Scalar, error) {
	a, b := x.(T), y.(T)
	var r T
	switch op {
	case opAdd:
		r = a + b
	case opSubtract:
		r = a - b
	case opMultiply:
		r = a * b
	case opDivide:
		if b == 0 {
			return Scalar{}, ErrDivisionByZero
		}
		r = a / b
	case opModulus:
		if b == 0 {
			return Scalar{}, ErrDivisionByZero
		}
		r = a % b
	}
	return Scalar{dt: dt, payload: r, defined: true}, nil
}

func applyFloat[T float32 | float64](op operator, dt bytecode.Datatype, a, b T) (Scalar, error) {
	var r T
	switch op {
	case opAdd:
		r = a + b
	case opSubtract:
		r = a - b
	case opMultiply:
		r = a * b
	case opDivide:
		if b == 0 {
			return Scalar{}, ErrDivisionByZero
		}
		r = a / b
	case opModulus:
		if b == 0 {
			return Scalar{}, ErrDivisionByZero
		}
		r = T(math.Mod(float64(a), float64(b)))
	}
	return Scalar{dt: dt, payload: r, defined: true}, nil
}

// Compare orders two defined Scalars of the same numeric, Character or
// String datatype, returning -1, 0 or +1.
func Compare(a, b Scalar) (int, error) {
	av, bv, err := operands(a, b)
	if err != nil {
		return 0, err
	}
	switch x := av.(type) {
	case int8:
		return cmp.Compare(x, bv.(int8)), nil
	case uint8:
		return cmp.Compare(x, bv.(uint8)), nil
	case int16:
		return cmp.Compare(x, bv.(int16)), nil
	case uint16:
		return cmp.Compare(x, bv.(uint16)), nil
	case int32:
		return cmp.Compare(x, bv.(int32)), nil
	case uint32:
		return cmp.Compare(x, bv.(uint32)), nil
	case int64:
		return cmp.Compare(x, bv.(int64)), nil
	case uint64:
		return cmp.Compare(x, bv.(uint64)), nil
	case float32:
		return cmp.Compare(x, bv.(float32)), nil
	case float64:
		return cmp.Compare(x, bv.(float64)), nil
	case bytecode.Char:
		return cmp.Compare(x, bv.(bytecode.Char)), nil
	case string:
		return cmp.Compare(x, bv.(string)), nil
	}
	return 0, fmt.Errorf("%w: %s has no ordering", ErrTypeMismatch, a.dt)
}

// Equal reports whether two defined Scalars of the same datatype are equal.
// Unlike Compare it accepts Booleans.
func Equal(a, b Scalar) (bool, error) {
	av, bv, err := operands(a, b)
	if err != nil {
		return false, err
	}
	return av == bv, nil
}

func operands(a, b Scalar) (any, any, error) {
	if a.dt != b.dt {
		return nil, nil, fmt.Errorf("%w: cannot compare %s and %s", ErrTypeMismatch, a.dt, b.dt)
	}
	av, err := a.Value()
	if err != nil {
		return nil, nil, err
	}
	bv, err := b.Value()
	if err != nil {
		return nil, nil, err
	}
	return av, bv, nil
}

// integerValue widens any defined integer Scalar to int64.
func integerValue(s Scalar) (int64, error) {
	v, err := s.Value()
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int8:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows LongSigned", ErrOutOfRange, x)
		}
		return int64(x), nil
	}
	return 0, fmt.Errorf("%w: %s is not an integer", ErrTypeMismatch, s.dt)
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case int8:
		return float64(x)
	case uint8:
		return float64(x)
	case int16:
		return float64(x)
	case uint16:
		return float64(x)
	case int32:
		return float64(x)
	case uint32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return math.NaN()
}
