// Package bytecode defines the Vertex instruction format: the Datatype and
// Opcode enumerations, the append-only Buffer with its typed positional
// readers and writers, an instruction scanner and a disassembler.
//
// The format is designed for:
//   - Exact byte widths (every field has one fixed encoding)
//   - Random access (readers take an explicit position, never a cursor)
//   - Simple storage (a Buffer is a plain byte slice)
//
// # Wire Format
//
// All multi-byte values are little-endian.
//
//   - Opcode: 1 byte
//   - Datatype tag: 1 byte
//   - Boolean: 1 byte (0 or 1)
//   - Integers: 1, 2, 4 or 8 bytes, two's complement when signed
//   - FloatSingle, FloatDouble: 4 or 8 bytes IEEE-754
//   - Character: 2 bytes (one UTF-16 code unit)
//   - String: 1 length byte followed by that many 2-byte code units
//   - Identifier: 1 length byte followed by that many ASCII bytes
//   - Datatype list: 1 count byte followed by that many datatype tags
//   - Index: 1 byte
//
// The one-byte length prefix limits strings, identifiers and datatype lists
// to 255 units. This is a hard format limit; writers reject longer values
// with ErrTooLong rather than truncating them.
//
// # Instructions
//
// Each instruction is an opcode followed by its inline operands. The operand
// layout of every opcode is recorded in its OpcodeInfo, so Scan can decode
// any instruction without knowing its meaning:
//
//	LOAD_LITERAL  <datatype> <literal>
//	CALL          <datatype> <identifier> <datatype list>
//	THROW         <identifier> <datatype list>
//	JUMP_TRUE     <identifier>
//	LOAD_LOCAL    <index>
//
// Jump targets are label names, resolved by the function that owns the
// buffer rather than by the buffer itself.
package bytecode
