package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf16"
)

// MaxLength is the largest string, identifier or datatype list the one-byte
// length prefix can describe.
const MaxLength = 255

var (
	// ErrBufferOverrun is returned when a read extends past the end of the buffer.
	ErrBufferOverrun = errors.New("buffer overrun")

	// ErrUnknownOpcode is returned when an opcode byte is not defined.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrUnknownDatatype is returned when a datatype tag is not defined.
	ErrUnknownDatatype = errors.New("unknown datatype")

	// ErrTooLong is returned when a length-prefixed field exceeds MaxLength.
	ErrTooLong = errors.New("exceeds 255-unit length limit")

	// ErrInvalidIdentifier is returned for identifiers containing non-ASCII bytes.
	ErrInvalidIdentifier = errors.New("identifier is not ASCII")

	// ErrInvalidWidth is returned for integer or float widths the format does not define.
	ErrInvalidWidth = errors.New("invalid field width")

	// ErrLiteralType is returned when a host value does not match its datatype.
	ErrLiteralType = errors.New("literal does not match datatype")
)

// Buffer is an append-only instruction stream. Writes are sequential;
// reads are random access at a caller-supplied position and report how
// many bytes they consumed.
type Buffer struct {
	data []byte
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, 64)}
}

// BufferFrom creates a buffer holding a copy of data.
func BufferFrom(data []byte) *Buffer {
	return &Buffer{data: append([]byte(nil), data...)}
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// ============================================================================
// Writers
// ============================================================================

// WriteByte appends a single byte. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.data = append(b.data, c)
	return nil
}

// Write appends raw bytes, making Buffer an io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// WriteOpcode appends an opcode byte.
func (b *Buffer) WriteOpcode(op Opcode) {
	b.data = append(b.data, byte(op))
}

// WriteDatatype appends a datatype tag.
func (b *Buffer) WriteDatatype(dt Datatype) {
	b.data = append(b.data, byte(dt))
}

// WriteBoolean appends a boolean as 0 or 1.
func (b *Buffer) WriteBoolean(v bool) {
	if v {
		b.data = append(b.data, 1)
	} else {
		b.data = append(b.data, 0)
	}
}

// WriteInteger appends the low width bytes of bits. Width is 1, 2, 4 or 8.
func (b *Buffer) WriteInteger(width int, bits uint64) error {
	switch width {
	case 1:
		b.data = append(b.data, byte(bits))
	case 2:
		b.data = binary.LittleEndian.AppendUint16(b.data, uint16(bits))
	case 4:
		b.data = binary.LittleEndian.AppendUint32(b.data, uint32(bits))
	case 8:
		b.data = binary.LittleEndian.AppendUint64(b.data, bits)
	default:
		return fmt.Errorf("%w: integer width %d", ErrInvalidWidth, width)
	}
	return nil
}

// WriteFloat appends f as an IEEE-754 value of the given width (4 or 8).
func (b *Buffer) WriteFloat(width int, f float64) error {
	switch width {
	case 4:
		b.data = binary.LittleEndian.AppendUint32(b.data, math.Float32bits(float32(f)))
	case 8:
		b.data = binary.LittleEndian.AppendUint64(b.data, math.Float64bits(f))
	default:
		return fmt.Errorf("%w: float width %d", ErrInvalidWidth, width)
	}
	return nil
}

// WriteCharacter appends one UTF-16 code unit.
func (b *Buffer) WriteCharacter(c Char) {
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(c))
}

// WriteString appends a length byte followed by the UTF-16 code units of s.
func (b *Buffer) WriteString(s string) error {
	units := utf16.Encode([]rune(s))
	if len(units) > MaxLength {
		return fmt.Errorf("string of %d units: %w", len(units), ErrTooLong)
	}
	b.data = append(b.data, byte(len(units)))
	for _, u := range units {
		b.data = binary.LittleEndian.AppendUint16(b.data, u)
	}
	return nil
}

// WriteIdentifier appends a length byte followed by the ASCII bytes of name.
func (b *Buffer) WriteIdentifier(name string) error {
	if len(name) > MaxLength {
		return fmt.Errorf("identifier of %d bytes: %w", len(name), ErrTooLong)
	}
	for i := 0; i < len(name); i++ {
		if name[i] > 0x7F {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	b.data = append(b.data, byte(len(name)))
	b.data = append(b.data, name...)
	return nil
}

// WriteIndex appends a one-byte collection index.
func (b *Buffer) WriteIndex(index int) error {
	if index < 0 || index > MaxLength {
		return fmt.Errorf("index %d: %w", index, ErrTooLong)
	}
	b.data = append(b.data, byte(index))
	return nil
}

// WriteDatatypeList appends a count byte followed by one tag per datatype.
func (b *Buffer) WriteDatatypeList(dts []Datatype) error {
	if len(dts) > MaxLength {
		return fmt.Errorf("datatype list of %d: %w", len(dts), ErrTooLong)
	}
	b.data = append(b.data, byte(len(dts)))
	for _, dt := range dts {
		b.data = append(b.data, byte(dt))
	}
	return nil
}

// WriteLiteral appends v encoded at dt's width. The Go type of v must be
// the host type of dt exactly.
func (b *Buffer) WriteLiteral(dt Datatype, v any) error {
	enc, err := EncodeLiteral(dt, v)
	if err != nil {
		return err
	}
	b.data = append(b.data, enc...)
	return nil
}

// ============================================================================
// Readers
// ============================================================================

func (b *Buffer) need(pos, n int, what string) error {
	if pos < 0 || n < 0 || pos+n > len(b.data) {
		return fmt.Errorf("%w: reading %s at %d (len %d)", ErrBufferOverrun, what, pos, len(b.data))
	}
	return nil
}

// ReadByteAt reads one raw byte.
func (b *Buffer) ReadByteAt(pos int) (byte, int, error) {
	if err := b.need(pos, 1, "byte"); err != nil {
		return 0, 0, err
	}
	return b.data[pos], 1, nil
}

// ReadOpcode reads and validates an opcode byte.
func (b *Buffer) ReadOpcode(pos int) (Opcode, int, error) {
	if err := b.need(pos, 1, "opcode"); err != nil {
		return 0, 0, err
	}
	op := Opcode(b.data[pos])
	if !op.Valid() {
		return 0, 0, fmt.Errorf("%w: 0x%02X at %d", ErrUnknownOpcode, byte(op), pos)
	}
	return op, 1, nil
}

// ReadDatatype reads and validates a datatype tag.
func (b *Buffer) ReadDatatype(pos int) (Datatype, int, error) {
	if err := b.need(pos, 1, "datatype"); err != nil {
		return 0, 0, err
	}
	dt := Datatype(b.data[pos])
	if !dt.Valid() {
		return 0, 0, fmt.Errorf("%w: 0x%02X at %d", ErrUnknownDatatype, byte(dt), pos)
	}
	return dt, 1, nil
}

// ReadBoolean reads a one-byte boolean. Any non-zero byte is true.
func (b *Buffer) ReadBoolean(pos int) (bool, int, error) {
	if err := b.need(pos, 1, "boolean"); err != nil {
		return false, 0, err
	}
	return b.data[pos] != 0, 1, nil
}

// ReadInteger reads width bytes as an unsigned little-endian integer.
// Callers sign-extend by converting to the signed type of the same width.
func (b *Buffer) ReadInteger(pos, width int) (uint64, int, error) {
	if err := b.need(pos, width, "integer"); err != nil {
		return 0, 0, err
	}
	p := b.data[pos:]
	switch width {
	case 1:
		return uint64(p[0]), 1, nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(p)), 2, nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(p)), 4, nil
	case 8:
		return binary.LittleEndian.Uint64(p), 8, nil
	default:
		return 0, 0, fmt.Errorf("%w: integer width %d", ErrInvalidWidth, width)
	}
}

// ReadFloat reads an IEEE-754 value of the given width (4 or 8).
func (b *Buffer) ReadFloat(pos, width int) (float64, int, error) {
	if err := b.need(pos, width, "float"); err != nil {
		return 0, 0, err
	}
	p := b.data[pos:]
	switch width {
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p))), 4, nil
	case 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(p)), 8, nil
	default:
		return 0, 0, fmt.Errorf("%w: float width %d", ErrInvalidWidth, width)
	}
}

// ReadCharacter reads one UTF-16 code unit.
func (b *Buffer) ReadCharacter(pos int) (Char, int, error) {
	if err := b.need(pos, 2, "character"); err != nil {
		return 0, 0, err
	}
	return Char(binary.LittleEndian.Uint16(b.data[pos:])), 2, nil
}

// ReadString reads a length-prefixed UTF-16 string.
func (b *Buffer) ReadString(pos int) (string, int, error) {
	if err := b.need(pos, 1, "string length"); err != nil {
		return "", 0, err
	}
	n := int(b.data[pos])
	if err := b.need(pos+1, 2*n, "string"); err != nil {
		return "", 0, err
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b.data[pos+1+2*i:])
	}
	return string(utf16.Decode(units)), 1 + 2*n, nil
}

// ReadIdentifier reads a length-prefixed ASCII identifier.
func (b *Buffer) ReadIdentifier(pos int) (string, int, error) {
	if err := b.need(pos, 1, "identifier length"); err != nil {
		return "", 0, err
	}
	n := int(b.data[pos])
	if err := b.need(pos+1, n, "identifier"); err != nil {
		return "", 0, err
	}
	return string(b.data[pos+1 : pos+1+n]), 1 + n, nil
}

// ReadIndex reads a one-byte collection index.
func (b *Buffer) ReadIndex(pos int) (int, int, error) {
	if err := b.need(pos, 1, "index"); err != nil {
		return 0, 0, err
	}
	return int(b.data[pos]), 1, nil
}

// ReadDatatypeList reads a count-prefixed list of datatype tags.
func (b *Buffer) ReadDatatypeList(pos int) ([]Datatype, int, error) {
	if err := b.need(pos, 1, "datatype list count"); err != nil {
		return nil, 0, err
	}
	n := int(b.data[pos])
	if err := b.need(pos+1, n, "datatype list"); err != nil {
		return nil, 0, err
	}
	dts := make([]Datatype, n)
	for i := range dts {
		dt := Datatype(b.data[pos+1+i])
		if !dt.Valid() {
			return nil, 0, fmt.Errorf("%w: 0x%02X at %d", ErrUnknownDatatype, byte(dt), pos+1+i)
		}
		dts[i] = dt
	}
	return dts, 1 + n, nil
}

// ReadLiteral reads a value of datatype dt and returns it as its host type.
func (b *Buffer) ReadLiteral(pos int, dt Datatype) (any, int, error) {
	switch dt {
	case Boolean:
		return b.ReadBoolean(pos)
	case TinySigned, ShortSigned, MediumSigned, LongSigned,
		TinyUnsigned, ShortUnsigned, MediumUnsigned, LongUnsigned:
		bits, n, err := b.ReadInteger(pos, dt.Width())
		if err != nil {
			return nil, 0, err
		}
		return IntegerFromBits(dt, bits), n, nil
	case FloatSingle:
		f, n, err := b.ReadFloat(pos, 4)
		return float32(f), n, err
	case FloatDouble:
		return b.ReadFloat(pos, 8)
	case Character:
		return b.ReadCharacter(pos)
	case String:
		return b.ReadString(pos)
	default:
		return nil, 0, fmt.Errorf("%w: no literal encoding for %s", ErrUnknownDatatype, dt)
	}
}

// IntegerFromBits truncates two's complement bits to the host type of the
// integer datatype dt.
func IntegerFromBits(dt Datatype, bits uint64) any {
	switch dt {
	case TinySigned:
		return int8(bits)
	case TinyUnsigned:
		return uint8(bits)
	case ShortSigned:
		return int16(bits)
	case ShortUnsigned:
		return uint16(bits)
	case MediumSigned:
		return int32(bits)
	case MediumUnsigned:
		return uint32(bits)
	case LongSigned:
		return int64(bits)
	default:
		return bits
	}
}

// ============================================================================
// Literal encoding
// ============================================================================

// EncodeLiteral encodes a host value at the width of dt.
func EncodeLiteral(dt Datatype, v any) ([]byte, error) {
	var b Buffer
	mismatch := func() error {
		return fmt.Errorf("%w: %T for %s", ErrLiteralType, v, dt)
	}
	var err error
	switch dt {
	case Boolean:
		x, ok := v.(bool)
		if !ok {
			return nil, mismatch()
		}
		b.WriteBoolean(x)
	case TinySigned, ShortSigned, MediumSigned, LongSigned,
		TinyUnsigned, ShortUnsigned, MediumUnsigned, LongUnsigned:
		bits, ok := IntegerBits(dt, v)
		if !ok {
			return nil, mismatch()
		}
		err = b.WriteInteger(dt.Width(), bits)
	case FloatSingle:
		x, ok := v.(float32)
		if !ok {
			return nil, mismatch()
		}
		err = b.WriteFloat(4, float64(x))
	case FloatDouble:
		x, ok := v.(float64)
		if !ok {
			return nil, mismatch()
		}
		err = b.WriteFloat(8, x)
	case Character:
		x, ok := v.(Char)
		if !ok {
			return nil, mismatch()
		}
		b.WriteCharacter(x)
	case String:
		x, ok := v.(string)
		if !ok {
			return nil, mismatch()
		}
		err = b.WriteString(x)
	default:
		return nil, fmt.Errorf("%w: no literal encoding for %s", ErrUnknownDatatype, dt)
	}
	if err != nil {
		return nil, err
	}
	return b.data, nil
}

// DecodeLiteral decodes a whole byte slice as one value of datatype dt.
func DecodeLiteral(dt Datatype, data []byte) (any, error) {
	b := Buffer{data: data}
	v, n, err := b.ReadLiteral(0, dt)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%s literal: %d trailing bytes", dt, len(data)-n)
	}
	return v, nil
}

// IntegerBits returns the two's complement bits of an integer host value,
// reporting false when v is not the host type of dt.
func IntegerBits(dt Datatype, v any) (uint64, bool) {
	switch dt {
	case TinySigned:
		x, ok := v.(int8)
		return uint64(x), ok
	case TinyUnsigned:
		x, ok := v.(uint8)
		return uint64(x), ok
	case ShortSigned:
		x, ok := v.(int16)
		return uint64(x), ok
	case ShortUnsigned:
		x, ok := v.(uint16)
		return uint64(x), ok
	case MediumSigned:
		x, ok := v.(int32)
		return uint64(x), ok
	case MediumUnsigned:
		x, ok := v.(uint32)
		return uint64(x), ok
	case LongSigned:
		x, ok := v.(int64)
		return uint64(x), ok
	case LongUnsigned:
		x, ok := v.(uint64)
		return x, ok
	}
	return 0, false
}
