package bytecode

import "fmt"

// Instruction is one decoded instruction. Only the fields named by the
// opcode's operand layout are populated.
type Instruction struct {
	Op        Opcode
	Pos       int        // Offset of the opcode byte
	Len       int        // Total length including operands
	Datatype  Datatype   // OperandDatatype
	Name      string     // OperandIdentifier
	Datatypes []Datatype // OperandDatatypeList
	Index     int        // OperandIndex
	Literal   any        // OperandLiteral, decoded at Datatype
}

// Next returns the position of the following instruction.
func (in Instruction) Next() int {
	return in.Pos + in.Len
}

// Scan decodes the whole instruction starting at pos.
func (b *Buffer) Scan(pos int) (Instruction, error) {
	op, n, err := b.ReadOpcode(pos)
	if err != nil {
		return Instruction{}, err
	}
	in := Instruction{Op: op, Pos: pos}
	at := pos + n
	for _, kind := range GetOpcodeInfo(op).Operands {
		switch kind {
		case OperandDatatype:
			in.Datatype, n, err = b.ReadDatatype(at)
		case OperandIdentifier:
			in.Name, n, err = b.ReadIdentifier(at)
		case OperandDatatypeList:
			in.Datatypes, n, err = b.ReadDatatypeList(at)
		case OperandIndex:
			in.Index, n, err = b.ReadIndex(at)
		case OperandLiteral:
			in.Literal, n, err = b.ReadLiteral(at, in.Datatype)
		default:
			err = fmt.Errorf("operand kind %s not decodable", kind)
		}
		if err != nil {
			return Instruction{}, fmt.Errorf("%s at %d: %w", op, pos, err)
		}
		at += n
	}
	in.Len = at - pos
	return in, nil
}

// Instructions decodes the buffer from start to end.
func (b *Buffer) Instructions() ([]Instruction, error) {
	var out []Instruction
	for pos := 0; pos < b.Len(); {
		in, err := b.Scan(pos)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		pos = in.Next()
	}
	return out, nil
}
