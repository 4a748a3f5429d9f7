package stdlib

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/chazu/vertex/pkg/value"
)

// String positions and lengths count UTF-16 code units, the unit of the
// Character datatype.

func units(s string) []uint16 { return utf16.Encode([]rune(s)) }

func fromUnits(u []uint16) string { return string(utf16.Decode(u)) }

func outOfRange(fn, param, detail string) error {
	e, _ := Raise(KindArgumentOutOfRange, param, fmt.Sprintf("%s: %s", fn, detail))
	return e
}

func installStrings(r *Registry) {
	const pkg = "std.sfn"

	def1(r, pkg, "len", func(s string) (int64, error) {
		return int64(len(units(s))), nil
	})
	def2(r, pkg, "char", func(s string, i int64) (string, error) {
		u := units(s)
		if i < 0 || i >= int64(len(u)) {
			return "", outOfRange("char", "index", fmt.Sprintf("%d not in [0, %d)", i, len(u)))
		}
		return fromUnits(u[i : i+1]), nil
	})
	def1(r, pkg, "is_emp", func(s string) (bool, error) {
		return strings.TrimSpace(s) == "", nil
	})
	def2(r, pkg, "cat", func(a, b string) (string, error) {
		return a + b, nil
	})
	def2(r, pkg, "rep", func(s string, n int64) (string, error) {
		out, err := value.Repeat(s, n)
		if err != nil {
			return "", outOfRange("rep", "count", err.Error())
		}
		return out, nil
	})
	def2(r, pkg, "sub", func(s string, start int64) (string, error) {
		u := units(s)
		if start < 0 || start > int64(len(u)) {
			return "", outOfRange("sub", "start", fmt.Sprintf("%d not in [0, %d]", start, len(u)))
		}
		return fromUnits(u[start:]), nil
	})
	def3(r, pkg, "sub", func(s string, start, length int64) (string, error) {
		u := units(s)
		if start < 0 || length < 0 || start > int64(len(u)) || length > int64(len(u))-start {
			return "", outOfRange("sub", "length", fmt.Sprintf("%d units from %d exceed length %d", length, start, len(u)))
		}
		return fromUnits(u[start : start+length]), nil
	})
	def2(r, pkg, "rem", func(s string, start int64) (string, error) {
		u := units(s)
		if start < 0 || start > int64(len(u)) {
			return "", outOfRange("rem", "start", fmt.Sprintf("%d not in [0, %d]", start, len(u)))
		}
		return fromUnits(u[:start]), nil
	})
	def3(r, pkg, "rem", func(s string, start, count int64) (string, error) {
		u := units(s)
		if start < 0 || count < 0 || start > int64(len(u)) || count > int64(len(u))-start {
			return "", outOfRange("rem", "count", fmt.Sprintf("%d units from %d exceed length %d", count, start, len(u)))
		}
		out := append(append([]uint16(nil), u[:start]...), u[start+count:]...)
		return fromUnits(out), nil
	})
}
