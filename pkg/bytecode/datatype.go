package bytecode

import (
	"fmt"
	"slices"
	"strings"
)

// Datatype is the one-byte tag identifying a primitive kind.
// Tag values are part of the wire format and must not be reordered.
type Datatype byte

const (
	Void           Datatype = 0x00 // Return-type marker only, never a value tag
	Boolean        Datatype = 0x01
	TinySigned     Datatype = 0x02 // int8
	TinyUnsigned   Datatype = 0x03 // uint8
	ShortSigned    Datatype = 0x04 // int16
	ShortUnsigned  Datatype = 0x05 // uint16
	MediumSigned   Datatype = 0x06 // int32
	MediumUnsigned Datatype = 0x07 // uint32
	LongSigned     Datatype = 0x08 // int64
	LongUnsigned   Datatype = 0x09 // uint64
	FloatSingle    Datatype = 0x0A // float32
	FloatDouble    Datatype = 0x0B // float64
	Character      Datatype = 0x0C // one UTF-16 code unit
	String         Datatype = 0x0D
)

// Integer and Float are the default numeric types used by the standard
// library.
const (
	Integer = LongSigned
	Float   = FloatDouble
)

// Char is the host representation of a Character value.
type Char uint16

type datatypeInfo struct {
	name   string
	width  int // encoded width in bytes, 0 for variable or none
	signed bool
}

var datatypeTable = [...]datatypeInfo{
	Void:           {"Void", 0, false},
	Boolean:        {"Boolean", 1, false},
	TinySigned:     {"TinySigned", 1, true},
	TinyUnsigned:   {"TinyUnsigned", 1, false},
	ShortSigned:    {"ShortSigned", 2, true},
	ShortUnsigned:  {"ShortUnsigned", 2, false},
	MediumSigned:   {"MediumSigned", 4, true},
	MediumUnsigned: {"MediumUnsigned", 4, false},
	LongSigned:     {"LongSigned", 8, true},
	LongUnsigned:   {"LongUnsigned", 8, false},
	FloatSingle:    {"FloatSingle", 4, true},
	FloatDouble:    {"FloatDouble", 8, true},
	Character:      {"Character", 2, false},
	String:         {"String", 0, false},
}

// Valid reports whether dt is a known tag.
func (dt Datatype) Valid() bool {
	return int(dt) < len(datatypeTable)
}

// String returns the name of the datatype.
func (dt Datatype) String() string {
	if !dt.Valid() {
		return fmt.Sprintf("Datatype(0x%02X)", byte(dt))
	}
	return datatypeTable[dt].name
}

// Width returns the fixed encoded width in bytes. Strings and Void report 0.
func (dt Datatype) Width() int {
	if !dt.Valid() {
		return 0
	}
	return datatypeTable[dt].width
}

// IsInteger reports whether dt is one of the eight integer kinds.
func (dt Datatype) IsInteger() bool {
	return dt >= TinySigned && dt <= LongUnsigned
}

// IsSigned reports whether dt is a signed integer or a float.
func (dt Datatype) IsSigned() bool {
	return dt.Valid() && datatypeTable[dt].signed
}

// IsFloat reports whether dt is FloatSingle or FloatDouble.
func (dt Datatype) IsFloat() bool {
	return dt == FloatSingle || dt == FloatDouble
}

// IsNumeric reports whether dt is an integer or float kind.
func (dt Datatype) IsNumeric() bool {
	return dt.IsInteger() || dt.IsFloat()
}

// IsValue reports whether dt may tag a value. Void may not.
func (dt Datatype) IsValue() bool {
	return dt.Valid() && dt != Void
}

// ParseDatatype looks up a datatype by name, case-insensitively.
// The aliases "Integer" and "Float" are accepted.
func ParseDatatype(name string) (Datatype, error) {
	switch strings.ToLower(name) {
	case "integer":
		return Integer, nil
	case "float":
		return Float, nil
	}
	for i, info := range datatypeTable {
		if strings.EqualFold(info.name, name) {
			return Datatype(i), nil
		}
	}
	return Void, fmt.Errorf("%w: %q", ErrUnknownDatatype, name)
}

// AllDatatypes returns every defined datatype in tag order.
func AllDatatypes() []Datatype {
	dts := make([]Datatype, len(datatypeTable))
	for i := range datatypeTable {
		dts[i] = Datatype(i)
	}
	return dts
}

// FormatDatatypes renders a datatype list as "(A, B)".
func FormatDatatypes(dts []Datatype) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, dt := range dts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(dt.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// EqualDatatypes reports whether two datatype lists are identical.
func EqualDatatypes(a, b []Datatype) bool {
	return slices.Equal(a, b)
}
