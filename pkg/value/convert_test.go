package value

import (
	"errors"
	"testing"

	"github.com/chazu/vertex/pkg/bytecode"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		in     Scalar
		target bytecode.Datatype
		want   Scalar
	}{
		{Int(23), bytecode.String, Str("23")},
		{Bool(true), bytecode.String, Str("true")},
		{Float(2.5), bytecode.String, Str("2.5")},
		{Int(1), bytecode.Boolean, Bool(true)},
		{Int(0), bytecode.Boolean, Bool(false)},
		{Float(1), bytecode.Boolean, Bool(true)},
		{Bool(true), bytecode.LongSigned, Int(1)},
		{Bool(false), bytecode.FloatDouble, Float(0)},
		{Int(-5), bytecode.FloatDouble, Float(-5)},
		{Float(-3.9), bytecode.LongSigned, Int(-3)},
		{Int(-128), bytecode.TinySigned, MustNew(bytecode.TinySigned, int8(-128))},
		{Int(255), bytecode.TinyUnsigned, MustNew(bytecode.TinyUnsigned, uint8(255))},
		{Int(65), bytecode.Character, Char('A')},
		{Char('A'), bytecode.LongSigned, Int(65)},
		{Char('A'), bytecode.String, Str("A")},
		{Str(" 42 "), bytecode.LongSigned, Int(42)},
		{Str("2.5"), bytecode.FloatDouble, Float(2.5)},
		{Str("TRUE"), bytecode.Boolean, Bool(true)},
		{Str("z"), bytecode.Character, Char('z')},
		{Str("x"), bytecode.String, Str("x")},
		{MustNew(bytecode.LongSigned, int64(-1<<63)), bytecode.FloatDouble, Float(-9223372036854775808)},
	}
	for _, tt := range tests {
		got, err := Convert(tt.in, tt.target)
		if err != nil {
			t.Errorf("Convert(%v, %s): %v", tt.in, tt.target, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Convert(%v, %s) = %v, want %v", tt.in, tt.target, got, tt.want)
		}
	}
}

func TestConvertFailures(t *testing.T) {
	tests := []struct {
		in     Scalar
		target bytecode.Datatype
		want   error
	}{
		{Int(2), bytecode.Boolean, ErrOutOfRange},
		{Int(-1), bytecode.Boolean, ErrOutOfRange},
		{Float(0.5), bytecode.Boolean, ErrOutOfRange},
		{Int(128), bytecode.TinySigned, ErrOutOfRange},
		{Int(-1), bytecode.LongUnsigned, ErrOutOfRange},
		{Int(70000), bytecode.Character, ErrOutOfRange},
		{Str("abc"), bytecode.LongSigned, ErrOutOfRange},
		{Str("yes"), bytecode.Boolean, ErrOutOfRange},
		{Str("ab"), bytecode.Character, ErrOutOfRange},
		{Float(1e30), bytecode.LongSigned, ErrOutOfRange},
		{Bool(true), bytecode.Character, ErrNoConversion},
		{Char('a'), bytecode.FloatDouble, ErrNoConversion},
		{Int(1), bytecode.Void, ErrNoConversion},
		{Undefined(bytecode.LongSigned), bytecode.String, ErrUndefined},
	}
	for _, tt := range tests {
		if _, err := Convert(tt.in, tt.target); !errors.Is(err, tt.want) {
			t.Errorf("Convert(%v, %s) error = %v, want %v", tt.in, tt.target, err, tt.want)
		}
	}
}

func TestCanConvertTable(t *testing.T) {
	for _, from := range bytecode.AllDatatypes() {
		for _, to := range bytecode.AllDatatypes() {
			got := CanConvert(from, to)
			switch {
			case from == bytecode.Void || to == bytecode.Void:
				if got {
					t.Errorf("CanConvert(%s, %s) = true, Void never converts", from, to)
				}
			case to == bytecode.String || from == to:
				if !got {
					t.Errorf("CanConvert(%s, %s) = false, want true", from, to)
				}
			}
		}
	}
}
