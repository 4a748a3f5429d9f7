package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/chazu/vertex/pkg/bytecode"
)

var (
	// ErrNoConversion is returned when the conversion table has no entry for
	// a pair of datatypes.
	ErrNoConversion = errors.New("no conversion")

	// ErrOutOfRange is returned when a value cannot be represented in the
	// target datatype.
	ErrOutOfRange = errors.New("value out of range")
)

// CanConvert reports whether the conversion table has an entry for
// from -> to. An entry means Convert may succeed; some values (out of
// range numbers, unparsable strings) still fail.
//
//	from \ to   Boolean  integers  floats  Character  String
//	Boolean     =        0/1       0/1     -          yes
//	integers    0/1      range     yes     range      yes
//	floats      0/1      truncate  yes     -          yes
//	Character   -        yes       -       =          yes
//	String      parse    parse     parse   1 unit     =
func CanConvert(from, to bytecode.Datatype) bool {
	if !from.IsValue() || !to.IsValue() {
		return false
	}
	if from == to || to == bytecode.String {
		return true
	}
	switch {
	case from == bytecode.Boolean:
		return to.IsNumeric()
	case from.IsInteger():
		return to == bytecode.Boolean || to.IsNumeric() || to == bytecode.Character
	case from.IsFloat():
		return to == bytecode.Boolean || to.IsNumeric()
	case from == bytecode.Character:
		return to.IsInteger()
	case from == bytecode.String:
		return to == bytecode.Boolean || to.IsNumeric() || to == bytecode.Character
	}
	return false
}

// Convert returns s converted to target.
func Convert(s Scalar, target bytecode.Datatype) (Scalar, error) {
	if !CanConvert(s.dt, target) {
		return Scalar{}, fmt.Errorf("%w: %s to %s", ErrNoConversion, s.dt, target)
	}
	v, err := s.Value()
	if err != nil {
		return Scalar{}, err
	}
	if s.dt == target {
		return s, nil
	}
	if target == bytecode.String {
		return Str(Format(s)), nil
	}

	switch {
	case s.dt == bytecode.Boolean:
		var n uint64
		if v.(bool) {
			n = 1
		}
		return fromInteger(target, false, n)
	case s.dt == bytecode.Character:
		return fromInteger(target, false, uint64(v.(bytecode.Char)))
	case s.dt.IsInteger():
		neg, mag := integerParts(v)
		if target == bytecode.Boolean {
			return boolFromNumber(!neg && mag <= 1, mag == 1, s)
		}
		return fromInteger(target, neg, mag)
	case s.dt.IsFloat():
		return fromFloat(target, toFloat64(v), s)
	default:
		return parse(v.(string), target)
	}
}

func boolFromNumber(ok, truth bool, s Scalar) (Scalar, error) {
	if !ok {
		return Scalar{}, fmt.Errorf("%w: %s is neither 0 nor 1", ErrOutOfRange, s)
	}
	return Bool(truth), nil
}

// integerParts splits an integer payload into sign and magnitude.
func integerParts(v any) (neg bool, mag uint64) {
	switch x := v.(type) {
	case int8:
		return signed(int64(x))
	case int16:
		return signed(int64(x))
	case int32:
		return signed(int64(x))
	case int64:
		return signed(x)
	case uint8:
		return false, uint64(x)
	case uint16:
		return false, uint64(x)
	case uint32:
		return false, uint64(x)
	case uint64:
		return false, x
	}
	return false, 0
}

func signed(x int64) (bool, uint64) {
	if x < 0 {
		return true, uint64(-(x + 1)) + 1
	}
	return false, uint64(x)
}

func fromInteger(target bytecode.Datatype, neg bool, mag uint64) (Scalar, error) {
	switch {
	case target.IsFloat():
		f := float64(mag)
		if neg {
			f = -f
		}
		if target == bytecode.FloatSingle {
			return Scalar{dt: target, payload: float32(f), defined: true}, nil
		}
		return Float(f), nil
	case target == bytecode.Character:
		if neg || mag > math.MaxUint16 {
			return Scalar{}, fmt.Errorf("%w: %s", ErrOutOfRange, target)
		}
		return Char(bytecode.Char(mag)), nil
	}

	bits := uint(8 * target.Width())
	if target.IsSigned() {
		limit := uint64(1) << (bits - 1)
		if (neg && mag > limit) || (!neg && mag >= limit) {
			return Scalar{}, fmt.Errorf("%w: %s", ErrOutOfRange, target)
		}
	} else {
		if neg && mag != 0 {
			return Scalar{}, fmt.Errorf("%w: negative value for %s", ErrOutOfRange, target)
		}
		if bits < 64 && mag >= uint64(1)<<bits {
			return Scalar{}, fmt.Errorf("%w: %s", ErrOutOfRange, target)
		}
	}
	raw := mag
	if neg {
		raw = -mag
	}
	return Scalar{dt: target, payload: bytecode.IntegerFromBits(target, raw), defined: true}, nil
}

func fromFloat(target bytecode.Datatype, f float64, s Scalar) (Scalar, error) {
	switch {
	case target == bytecode.Boolean:
		return boolFromNumber(f == 0 || f == 1, f == 1, s)
	case target == bytecode.FloatSingle:
		return Scalar{dt: target, payload: float32(f), defined: true}, nil
	case target == bytecode.FloatDouble:
		return Float(f), nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Scalar{}, fmt.Errorf("%w: %s to %s", ErrOutOfRange, s, target)
	}
	t := math.Trunc(f)
	mag := math.Abs(t)
	if mag >= 1<<64 {
		return Scalar{}, fmt.Errorf("%w: %s to %s", ErrOutOfRange, s, target)
	}
	return fromInteger(target, t < 0, uint64(mag))
}

func parse(text string, target bytecode.Datatype) (Scalar, error) {
	trimmed := strings.TrimSpace(text)
	fail := func(err error) (Scalar, error) {
		return Scalar{}, fmt.Errorf("%w: %q to %s: %v", ErrOutOfRange, text, target, err)
	}

	switch {
	case target == bytecode.Boolean:
		switch {
		case strings.EqualFold(trimmed, "true"):
			return Bool(true), nil
		case strings.EqualFold(trimmed, "false"):
			return Bool(false), nil
		}
		return fail(errors.New("not true or false"))
	case target == bytecode.Character:
		units := utf16.Encode([]rune(text))
		if len(units) != 1 {
			return fail(fmt.Errorf("%d code units", len(units)))
		}
		return Char(bytecode.Char(units[0])), nil
	case target.IsFloat():
		size := 64
		if target == bytecode.FloatSingle {
			size = 32
		}
		f, err := strconv.ParseFloat(trimmed, size)
		if err != nil {
			return fail(err)
		}
		if target == bytecode.FloatSingle {
			return Scalar{dt: target, payload: float32(f), defined: true}, nil
		}
		return Float(f), nil
	case target.IsSigned():
		n, err := strconv.ParseInt(trimmed, 10, 8*target.Width())
		if err != nil {
			return fail(err)
		}
		return Scalar{dt: target, payload: bytecode.IntegerFromBits(target, uint64(n)), defined: true}, nil
	default:
		n, err := strconv.ParseUint(trimmed, 10, 8*target.Width())
		if err != nil {
			return fail(err)
		}
		return Scalar{dt: target, payload: bytecode.IntegerFromBits(target, n), defined: true}, nil
	}
}
