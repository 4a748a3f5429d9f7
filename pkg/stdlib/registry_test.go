package stdlib

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/value"
)

var (
	tStr   = bytecode.String
	tInt   = bytecode.Integer
	tFloat = bytecode.Float
	tBool  = bytecode.Boolean
)

func testHost(input string) (*host.Host, *bytes.Buffer) {
	var out bytes.Buffer
	h := host.New(strings.NewReader(input), &out)
	h.Clock = func() time.Time { return time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC) }
	return h, &out
}

func call(t *testing.T, h *host.Host, qualified string, ret bytecode.Datatype, args ...value.Scalar) value.Scalar {
	t.Helper()
	params := make([]bytecode.Datatype, len(args))
	for i, a := range args {
		params[i] = a.Datatype()
	}
	got, ok, err := Default().FindAndCall(h, qualified, ret, params, args)
	if err != nil {
		t.Fatalf("%s: %v", qualified, err)
	}
	if ok != (ret != bytecode.Void) {
		t.Fatalf("%s: produced value = %v for return type %s", qualified, ok, ret)
	}
	return got
}

func TestDefaultPackages(t *testing.T) {
	want := []string{"std.cmp", "std.cst", "std.env", "std.err", "std.fio", "std.mth", "std.opr", "std.sfn", "std.sio"}
	pkgs := Default().Packages()
	if len(pkgs) != len(want) {
		t.Fatalf("got %d packages, want %d", len(pkgs), len(want))
	}
	for i, p := range pkgs {
		if p.Name() != want[i] {
			t.Errorf("package %d = %s, want %s", i, p.Name(), want[i])
		}
		if !p.IsNative() {
			t.Errorf("%s is not native", p.Name())
		}
	}
	if Default() != Default() {
		t.Error("Default() should return the same registry")
	}
}

func TestStringFunctions(t *testing.T) {
	h, _ := testHost("")
	tests := []struct {
		name string
		ret  bytecode.Datatype
		args []value.Scalar
		want value.Scalar
	}{
		{"std.sfn::cat", tStr, []value.Scalar{value.Str("Hello, "), value.Str("World!")}, value.Str("Hello, World!")},
		{"std.sfn::len", tInt, []value.Scalar{value.Str("abc")}, value.Int(3)},
		{"std.sfn::char", tStr, []value.Scalar{value.Str("abc"), value.Int(1)}, value.Str("b")},
		{"std.sfn::is_emp", tBool, []value.Scalar{value.Str(" \t")}, value.Bool(true)},
		{"std.sfn::rep", tStr, []value.Scalar{value.Str("ab"), value.Int(2)}, value.Str("abab")},
		{"std.sfn::sub", tStr, []value.Scalar{value.Str("Hello"), value.Int(1)}, value.Str("ello")},
		{"std.sfn::sub", tStr, []value.Scalar{value.Str("Hello"), value.Int(1), value.Int(3)}, value.Str("ell")},
		{"std.sfn::rem", tStr, []value.Scalar{value.Str("Hello"), value.Int(2)}, value.Str("He")},
		{"std.sfn::rem", tStr, []value.Scalar{value.Str("Hello"), value.Int(1), value.Int(3)}, value.Str("Ho")},
	}
	for _, tt := range tests {
		if got := call(t, h, tt.name, tt.ret, tt.args...); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestStringFunctionRanges(t *testing.T) {
	h, _ := testHost("")
	tests := []struct {
		name string
		args []value.Scalar
	}{
		{"std.sfn::char", []value.Scalar{value.Str("abc"), value.Int(3)}},
		{"std.sfn::sub", []value.Scalar{value.Str("abc"), value.Int(4)}},
		{"std.sfn::sub", []value.Scalar{value.Str("abc"), value.Int(1), value.Int(3)}},
		{"std.sfn::sub", []value.Scalar{value.Str("abc"), value.Int(1), value.Int(math.MaxInt64)}},
		{"std.sfn::sub", []value.Scalar{value.Str("abc"), value.Int(math.MaxInt64), value.Int(1)}},
		{"std.sfn::rem", []value.Scalar{value.Str("abc"), value.Int(-1)}},
		{"std.sfn::rem", []value.Scalar{value.Str("abc"), value.Int(1), value.Int(math.MaxInt64)}},
		{"std.sfn::rep", []value.Scalar{value.Str("ab"), value.Int(-1)}},
		{"std.sfn::rep", []value.Scalar{value.Str("ab"), value.Int(math.MaxInt64)}},
	}
	for _, tt := range tests {
		params := make([]bytecode.Datatype, len(tt.args))
		for i, a := range tt.args {
			params[i] = a.Datatype()
		}
		_, _, err := Default().FindAndCall(h, tt.name, tStr, params, tt.args)
		var raised *RaisedError
		if !errors.As(err, &raised) || raised.Kind != KindArgumentOutOfRange {
			t.Errorf("%s%v error = %v, want ArgumentOutOfRangeException", tt.name, tt.args, err)
		}
	}
}

func TestOverloadsAreExact(t *testing.T) {
	h, _ := testHost("")
	if got := call(t, h, "std.cst::to_bl", tBool, value.Int(1)); got != value.Bool(true) {
		t.Errorf("to_bl(Integer 1) = %v", got)
	}
	if got := call(t, h, "std.cst::to_bl", tBool, value.Str("false")); got != value.Bool(false) {
		t.Errorf("to_bl(String false) = %v", got)
	}
	if got := call(t, h, "std.cst::to_str", tStr, value.Int(23)); got != value.Str("23") {
		t.Errorf("to_str(23) = %v", got)
	}
	if got := call(t, h, "std.cst::to_int", tInt, value.Float(-2.7)); got != value.Int(-2) {
		t.Errorf("to_int(-2.7) = %v", got)
	}

	// No promotion from Character to String.
	_, _, err := Default().FindAndCall(h, "std.sfn::len", tInt, []bytecode.Datatype{bytecode.Character},
		[]value.Scalar{value.Char('a')})
	if !errors.Is(err, ErrNoStandardFunction) {
		t.Errorf("len(Character) error = %v, want ErrNoStandardFunction", err)
	}
	// Return type is part of the key.
	if _, err := Default().Lookup("std.sfn::len", tFloat, []bytecode.Datatype{tStr}); !errors.Is(err, ErrNoStandardFunction) {
		t.Errorf("len -> Float error = %v, want ErrNoStandardFunction", err)
	}
	if _, err := Default().Lookup("std.nope::len", tInt, []bytecode.Datatype{tStr}); !errors.Is(err, ErrNoStandardFunction) {
		t.Errorf("unknown package error = %v, want ErrNoStandardFunction", err)
	}
}

func TestOperatorsAndComparisons(t *testing.T) {
	h, _ := testHost("")
	tests := []struct {
		name string
		ret  bytecode.Datatype
		args []value.Scalar
		want value.Scalar
	}{
		{"std.opr::div", tInt, []value.Scalar{value.Int(7), value.Int(2)}, value.Int(3)},
		{"std.opr::mod", tInt, []value.Scalar{value.Int(7), value.Int(2)}, value.Int(1)},
		{"std.opr::div", tFloat, []value.Scalar{value.Float(7), value.Float(2)}, value.Float(3.5)},
		{"std.opr::neg", tBool, []value.Scalar{value.Bool(true)}, value.Bool(false)},
		{"std.opr::neg", tInt, []value.Scalar{value.Int(4)}, value.Int(-4)},
		{"std.opr::to_hex", tStr, []value.Scalar{value.Int(255)}, value.Str("FF")},
		{"std.opr::to_dec", tInt, []value.Scalar{value.Str("0x1f")}, value.Int(31)},
		{"std.opr::pow", tFloat, []value.Scalar{value.Int(2), value.Int(10)}, value.Float(1024)},
		{"std.opr::root", tFloat, []value.Scalar{value.Float(9), value.Float(2)}, value.Float(3)},
		{"std.cmp::eq", tBool, []value.Scalar{value.Str("a"), value.Str("a")}, value.Bool(true)},
		{"std.cmp::gt", tBool, []value.Scalar{value.Int(3), value.Int(2)}, value.Bool(true)},
		{"std.cmp::le", tBool, []value.Scalar{value.Float(3), value.Float(2)}, value.Bool(false)},
		{"std.mth::max", tInt, []value.Scalar{value.Int(3), value.Int(9)}, value.Int(9)},
		{"std.mth::abs", tFloat, []value.Scalar{value.Float(-1.5)}, value.Float(1.5)},
	}
	for _, tt := range tests {
		if got := call(t, h, tt.name, tt.ret, tt.args...); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.args, got, tt.want)
		}
	}

	_, _, err := Default().FindAndCall(h, "std.opr::div", tInt, []bytecode.Datatype{tInt, tInt},
		[]value.Scalar{value.Int(1), value.Int(0)})
	if !errors.Is(err, value.ErrDivisionByZero) {
		t.Errorf("div by zero error = %v", err)
	}
}

func TestConsoleAndEnv(t *testing.T) {
	h, out := testHost("typed line\n")
	call(t, h, "std.sio::write", bytecode.Void, value.Str("a"))
	call(t, h, "std.sio::writeln", bytecode.Void, value.Str("b"))
	if got := call(t, h, "std.sio::readln", tStr); got != value.Str("typed line") {
		t.Errorf("readln = %v", got)
	}
	if got := out.String(); got != "ab"+host.LineSeparator() {
		t.Errorf("output = %q", got)
	}
	if got := call(t, h, "std.env::date", tStr); got != value.Str("2024-03-01") {
		t.Errorf("date = %v", got)
	}
	if got := call(t, h, "std.env::time", tStr); got != value.Str("09:05:07") {
		t.Errorf("time = %v", got)
	}

	_, _, err := Default().FindAndCall(h, "std.env::exit", bytecode.Void, []bytecode.Datatype{tInt}, []value.Scalar{value.Int(3)})
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Errorf("exit(3) error = %v, want ExitError{3}", err)
	}
}

func TestErrorPackageAlwaysRaises(t *testing.T) {
	h, _ := testHost("")
	tests := []struct {
		name string
		args []value.Scalar
		kind string
	}{
		{"std.err::inv_op", nil, KindInvalidOperation},
		{"std.err::inv_op", []value.Scalar{value.Str("bad state")}, KindInvalidOperation},
		{"std.err::arg", []value.Scalar{value.Str("bad arg")}, KindArgument},
		{"std.err::arg_range", []value.Scalar{value.Str("index")}, KindArgumentOutOfRange},
	}
	for _, tt := range tests {
		params := make([]bytecode.Datatype, len(tt.args))
		for i := range params {
			params[i] = tStr
		}
		_, _, err := Default().FindAndCall(h, tt.name, bytecode.Void, params, tt.args)
		var raised *RaisedError
		if !errors.As(err, &raised) || raised.Kind != tt.kind {
			t.Errorf("%s error = %v, want kind %s", tt.name, err, tt.kind)
		}
	}
}

func TestFindAndCallChecksArguments(t *testing.T) {
	h, _ := testHost("")
	_, _, err := Default().FindAndCall(h, "std.sfn::len", tInt, []bytecode.Datatype{tStr}, []value.Scalar{value.Int(1)})
	if !errors.Is(err, value.ErrTypeMismatch) {
		t.Errorf("mismatched argument error = %v, want ErrTypeMismatch", err)
	}
	_, _, err = Default().FindAndCall(h, "std.sfn::len", tInt, []bytecode.Datatype{tStr}, nil)
	if err == nil {
		t.Error("missing argument should fail")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	def1(r, "std.test", "id", func(s string) (string, error) { return s, nil })
	err := r.Register("std.test", "id", tStr, []bytecode.Datatype{tStr}, nil)
	if err == nil {
		t.Error("duplicate signature registered")
	}
	if err := r.Register("user", "id", tStr, nil, nil); err == nil {
		t.Error("package without std. prefix registered")
	}
}

func TestIsStandard(t *testing.T) {
	tests := map[string]bool{
		"std.sio::writeln":          true,
		"app::helper":               false,
		"helper":                    false,
		"$System.Console.WriteLine": false,
	}
	for name, want := range tests {
		if got := IsStandard(name); got != want {
			t.Errorf("IsStandard(%q) = %v, want %v", name, got, want)
		}
	}
}
