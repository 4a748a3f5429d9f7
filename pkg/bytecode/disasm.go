package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the buffer.
func (b *Buffer) Disassemble() string {
	return b.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header. Decoding stops
// at the first malformed instruction, which is reported inline.
func (b *Buffer) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; %d bytes\n", b.Len()))

	for pos := 0; pos < b.Len(); {
		in, err := b.Scan(pos)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%04X  ; error: %v\n", pos, err))
			break
		}
		sb.WriteString(FormatInstruction(in))
		sb.WriteByte('\n')
		pos = in.Next()
	}
	return sb.String()
}

// FormatInstruction renders a single decoded instruction.
func FormatInstruction(in Instruction) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%04X  %-13s", in.Pos, in.Op))
	for _, kind := range GetOpcodeInfo(in.Op).Operands {
		sb.WriteByte(' ')
		switch kind {
		case OperandDatatype:
			sb.WriteString(in.Datatype.String())
		case OperandIdentifier:
			sb.WriteString(in.Name)
		case OperandDatatypeList:
			sb.WriteString(FormatDatatypes(in.Datatypes))
		case OperandIndex:
			sb.WriteString(fmt.Sprintf("#%d", in.Index))
		case OperandLiteral:
			sb.WriteString(formatLiteral(in.Literal))
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

func formatLiteral(v any) string {
	switch x := v.(type) {
	case string:
		display := x
		if len(display) > 40 {
			display = display[:37] + "..."
		}
		return fmt.Sprintf("%q", display)
	case Char:
		return fmt.Sprintf("'%c'", rune(x))
	default:
		return fmt.Sprintf("%v", x)
	}
}
