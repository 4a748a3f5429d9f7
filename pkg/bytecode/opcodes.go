package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Byte values are part of the wire format and must not be reordered.
type Opcode byte

const (
	// ========================================================================
	// Control flow (0x00-0x06)
	// ========================================================================

	OpNoOperation Opcode = 0x00 // No operation
	OpJumpAlways  Opcode = 0x01 // Jump to label: OpJumpAlways <label:ident>
	OpJumpTrue    Opcode = 0x02 // Pop Boolean, jump if true: OpJumpTrue <label:ident>
	OpJumpFalse   Opcode = 0x03 // Pop Boolean, jump if false: OpJumpFalse <label:ident>
	OpCall        Opcode = 0x04 // OpCall <return:dt> <name:ident> <params:dtlist>
	OpThrow       Opcode = 0x05 // Raise a fatal error: OpThrow <kind:ident> <params:dtlist>
	OpReturn      Opcode = 0x06 // Stop executing the current function

	// ========================================================================
	// Types (0x07-0x08)
	// ========================================================================

	OpCast      Opcode = 0x07 // Convert top of stack: OpCast <target:dt>
	OpCheckType Opcode = 0x08 // Pop value, push Boolean type test: OpCheckType <dt>

	// ========================================================================
	// Stack manipulation (0x09-0x0C)
	// ========================================================================

	OpPop       Opcode = 0x09 // Pop top of stack
	OpClear     Opcode = 0x0A // Discard the whole stack
	OpDuplicate Opcode = 0x0B // Duplicate top of stack
	OpRotate    Opcode = 0x0C // Swap top two stack elements

	// ========================================================================
	// Loads and stores (0x0D-0x13)
	// ========================================================================

	OpLoadLiteral   Opcode = 0x0D // OpLoadLiteral <dt> <literal>
	OpLoadGlobal    Opcode = 0x0E // OpLoadGlobal <index:u8>
	OpLoadParameter Opcode = 0x0F // OpLoadParameter <index:u8>
	OpLoadConstant  Opcode = 0x10 // OpLoadConstant <index:u8>
	OpLoadLocal     Opcode = 0x11 // OpLoadLocal <index:u8>
	OpSetParameter  Opcode = 0x12 // Pop and store: OpSetParameter <index:u8>
	OpSetLocal      Opcode = 0x13 // Pop and store: OpSetLocal <index:u8>

	// ========================================================================
	// Arithmetic (0x14-0x18)
	// ========================================================================

	OpAdd      Opcode = 0x14 // Pop two, push sum or concatenation
	OpSubtract Opcode = 0x15 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x16 // Pop two, push product or repetition
	OpDivide   Opcode = 0x17 // Pop two, push quotient
	OpModulus  Opcode = 0x18 // Pop two, push remainder

	// ========================================================================
	// Conditional blocks (0x19-0x1B)
	// ========================================================================

	OpEqual Opcode = 0x19 // Pop two, enter the true or else branch
	OpElse  Opcode = 0x1A // Start of the else branch
	OpEndIf Opcode = 0x1B // End of the conditional block
)

// OperandKind describes one inline operand field.
type OperandKind uint8

const (
	OperandDatatype     OperandKind = iota // 1-byte datatype tag
	OperandIdentifier                      // length-prefixed ASCII name
	OperandDatatypeList                    // count-prefixed datatype tags
	OperandIndex                           // 1-byte collection index
	OperandLiteral                         // value encoded at the preceding datatype
)

// String returns a short name for the operand kind.
func (k OperandKind) String() string {
	switch k {
	case OperandDatatype:
		return "datatype"
	case OperandIdentifier:
		return "identifier"
	case OperandDatatypeList:
		return "datatype-list"
	case OperandIndex:
		return "index"
	case OperandLiteral:
		return "literal"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name      string        // Human-readable name
	StackPop  int           // How many values popped from stack (-1 = variable)
	StackPush int           // How many values pushed to stack (-1 = variable)
	Operands  []OperandKind // Inline operand layout, in order
}

var (
	noOperands   []OperandKind
	labelOperand = []OperandKind{OperandIdentifier}
	indexOperand = []OperandKind{OperandIndex}
	typeOperand  = []OperandKind{OperandDatatype}
)

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Control flow
	OpNoOperation: {"NOP", 0, 0, noOperands},
	OpJumpAlways:  {"JUMP", 0, 0, labelOperand},
	OpJumpTrue:    {"JUMP_TRUE", 1, 0, labelOperand},
	OpJumpFalse:   {"JUMP_FALSE", 1, 0, labelOperand},
	OpCall:        {"CALL", -1, -1, []OperandKind{OperandDatatype, OperandIdentifier, OperandDatatypeList}},
	OpThrow:       {"THROW", -1, 0, []OperandKind{OperandIdentifier, OperandDatatypeList}},
	OpReturn:      {"RETURN", 0, 0, noOperands},

	// Types
	OpCast:      {"CAST", 1, 1, typeOperand},
	OpCheckType: {"CHECK_TYPE", 1, 1, typeOperand},

	// Stack manipulation
	OpPop:       {"POP", 1, 0, noOperands},
	OpClear:     {"CLEAR", -1, 0, noOperands},
	OpDuplicate: {"DUP", 1, 2, noOperands},
	OpRotate:    {"ROT", 2, 2, noOperands},

	// Loads and stores
	OpLoadLiteral:   {"LOAD_LITERAL", 0, 1, []OperandKind{OperandDatatype, OperandLiteral}},
	OpLoadGlobal:    {"LOAD_GLOBAL", 0, 1, indexOperand},
	OpLoadParameter: {"LOAD_PARAM", 0, 1, indexOperand},
	OpLoadConstant:  {"LOAD_CONST", 0, 1, indexOperand},
	OpLoadLocal:     {"LOAD_LOCAL", 0, 1, indexOperand},
	OpSetParameter:  {"SET_PARAM", 1, 0, indexOperand},
	OpSetLocal:      {"SET_LOCAL", 1, 0, indexOperand},

	// Arithmetic
	OpAdd:      {"ADD", 2, 1, noOperands},
	OpSubtract: {"SUB", 2, 1, noOperands},
	OpMultiply: {"MUL", 2, 1, noOperands},
	OpDivide:   {"DIV", 2, 1, noOperands},
	OpModulus:  {"MOD", 2, 1, noOperands},

	// Conditional blocks
	OpEqual: {"EQUAL", 2, 0, noOperands},
	OpElse:  {"ELSE", 0, 0, noOperands},
	OpEndIf: {"END_IF", 0, 0, noOperands},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsJump returns true if this opcode is a label jump.
func (op Opcode) IsJump() bool {
	return op >= OpJumpAlways && op <= OpJumpFalse
}

// IsArithmetic returns true for the binary arithmetic opcodes.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpModulus
}

// IsConditional returns true for the Equal, Else and EndIf markers.
func (op Opcode) IsConditional() bool {
	return op >= OpEqual && op <= OpEndIf
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
