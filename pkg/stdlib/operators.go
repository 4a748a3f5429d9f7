package stdlib

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/value"
)

func installOperators(r *Registry) {
	const pkg = "std.opr"

	def1(r, pkg, "neg", func(b bool) (bool, error) { return !b, nil })
	def1(r, pkg, "neg", func(n int64) (int64, error) { return -n, nil })
	def1(r, pkg, "neg", func(f float64) (float64, error) { return -f, nil })

	def1(r, pkg, "to_dec", parseHex)
	def1(r, pkg, "to_hex", func(n int64) (string, error) {
		return strings.ToUpper(strconv.FormatUint(uint64(n), 16)), nil
	})

	arith := []struct {
		name string
		fn   func(a, b value.Scalar) (value.Scalar, error)
	}{
		{"add", value.Add},
		{"sub", value.Subtract},
		{"mul", value.Multiply},
		{"div", value.Divide},
		{"mod", value.Modulus},
	}
	for _, op := range arith {
		for _, dt := range types(bytecode.Integer, bytecode.Float) {
			r.mustRegister(pkg, op.name, dt, types(dt, dt), scalarBinary(op.fn))
		}
	}

	powers := []struct {
		name string
		fn   func(a, b float64) float64
	}{
		{"pow", math.Pow},
		{"root", func(a, b float64) float64 { return math.Pow(a, 1/b) }},
		{"log", func(a, b float64) float64 { return math.Log(a) / math.Log(b) }},
	}
	for _, op := range powers {
		def2(r, pkg, op.name, func(a, b int64) (float64, error) { return op.fn(float64(a), float64(b)), nil })
		def2(r, pkg, op.name, func(a, b float64) (float64, error) { return op.fn(a, b), nil })
	}
}

// parseHex reads a hexadecimal string, with or without a 0x prefix, as a
// two's complement 64-bit value.
func parseHex(s string) (int64, error) {
	digits := strings.TrimSpace(s)
	digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("to_dec(%q): %w", s, value.ErrOutOfRange)
	}
	return int64(n), nil
}

func installComparisons(r *Registry) {
	const pkg = "std.cmp"

	for _, dt := range types(bytecode.Boolean, bytecode.Integer, bytecode.Float, bytecode.String) {
		r.mustRegister(pkg, "eq", bytecode.Boolean, types(dt, dt), scalarBinary(func(a, b value.Scalar) (value.Scalar, error) {
			eq, err := value.Equal(a, b)
			return value.Bool(eq), err
		}))
	}

	orderings := []struct {
		name string
		test func(c int) bool
	}{
		{"gt", func(c int) bool { return c > 0 }},
		{"lt", func(c int) bool { return c < 0 }},
		{"ge", func(c int) bool { return c >= 0 }},
		{"le", func(c int) bool { return c <= 0 }},
	}
	for _, o := range orderings {
		for _, dt := range types(bytecode.Integer, bytecode.Float, bytecode.String) {
			r.mustRegister(pkg, o.name, bytecode.Boolean, types(dt, dt), scalarBinary(func(a, b value.Scalar) (value.Scalar, error) {
				c, err := value.Compare(a, b)
				return value.Bool(o.test(c)), err
			}))
		}
	}
}

func installMath(r *Registry) {
	const pkg = "std.mth"

	def1(r, pkg, "abs", func(n int64) (int64, error) {
		if n == math.MinInt64 {
			return 0, fmt.Errorf("abs(%d): %w", n, value.ErrOutOfRange)
		}
		if n < 0 {
			return -n, nil
		}
		return n, nil
	})
	def1(r, pkg, "abs", func(f float64) (float64, error) { return math.Abs(f), nil })
	def2(r, pkg, "max", func(a, b int64) (int64, error) { return max(a, b), nil })
	def2(r, pkg, "max", func(a, b float64) (float64, error) { return math.Max(a, b), nil })
	def2(r, pkg, "min", func(a, b int64) (int64, error) { return min(a, b), nil })
	def2(r, pkg, "min", func(a, b float64) (float64, error) { return math.Min(a, b), nil })
	def1(r, pkg, "sqrt", func(f float64) (float64, error) { return math.Sqrt(f), nil })
	def0(r, pkg, "pi", func(*host.Host) (float64, error) { return math.Pi, nil })
}

func installErrors(r *Registry) {
	const pkg = "std.err"

	raise := func(kind string, args ...string) (none, error) {
		e, err := Raise(kind, args...)
		if err != nil {
			return none{}, err
		}
		return none{}, e
	}
	def0(r, pkg, "inv_op", func(*host.Host) (none, error) { return raise(KindInvalidOperation) })
	def1(r, pkg, "inv_op", func(msg string) (none, error) { return raise(KindInvalidOperation, msg) })
	def1(r, pkg, "arg", func(msg string) (none, error) { return raise(KindArgument, msg) })
	def1(r, pkg, "arg_range", func(param string) (none, error) { return raise(KindArgumentOutOfRange, param) })
}
