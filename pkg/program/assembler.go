package program

import (
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/value"
)

// Assembler emits instructions into an interpreted function's buffer.
// The first error is kept and every later call becomes a no-op; check Err
// once when done.
type Assembler struct {
	f   *Function
	buf *bytecode.Buffer
	err error
}

// Assemble returns an assembler writing to f.
func Assemble(f *Function) *Assembler {
	a := &Assembler{f: f}
	if err := f.mutable(); err != nil {
		a.err = err
		return a
	}
	a.buf = f.code
	return a
}

// Err returns the first error encountered.
func (a *Assembler) Err() error { return a.err }

// Pos returns the offset the next instruction will be written at.
func (a *Assembler) Pos() int {
	if a.buf == nil {
		return 0
	}
	return a.buf.Len()
}

func (a *Assembler) fail(err error) {
	if a.err == nil && err != nil {
		a.err = fmt.Errorf("assembling %s at %d: %w", a.f.name, a.Pos(), err)
	}
}

// Op emits an opcode without operands.
func (a *Assembler) Op(op bytecode.Opcode) {
	if a.err != nil {
		return
	}
	if n := len(bytecode.GetOpcodeInfo(op).Operands); n != 0 || !op.Valid() {
		a.fail(fmt.Errorf("%s needs %d operands", op, n))
		return
	}
	a.buf.WriteOpcode(op)
}

// Raw appends pre-encoded instructions. They are validated when the
// function is sealed.
func (a *Assembler) Raw(code []byte) {
	if a.err != nil {
		return
	}
	_, err := a.buf.Write(code)
	a.fail(err)
}

// Literal emits LOAD_LITERAL for a defined scalar.
func (a *Assembler) Literal(s value.Scalar) {
	if a.err != nil {
		return
	}
	v, err := s.Value()
	if err != nil {
		a.fail(err)
		return
	}
	if _, err := bytecode.EncodeLiteral(s.Datatype(), v); err != nil {
		a.fail(err)
		return
	}
	a.buf.WriteOpcode(bytecode.OpLoadLiteral)
	a.buf.WriteDatatype(s.Datatype())
	a.fail(a.buf.WriteLiteral(s.Datatype(), v))
}

// Index emits one of the load/store opcodes taking a one-byte index.
func (a *Assembler) Index(op bytecode.Opcode, index int) {
	if a.err != nil {
		return
	}
	info := bytecode.GetOpcodeInfo(op)
	if len(info.Operands) != 1 || info.Operands[0] != bytecode.OperandIndex {
		a.fail(fmt.Errorf("%s does not take an index", op))
		return
	}
	a.buf.WriteOpcode(op)
	a.fail(a.buf.WriteIndex(index))
}

// Jump emits a jump to the named label.
func (a *Assembler) Jump(op bytecode.Opcode, label string) {
	if a.err != nil {
		return
	}
	if !op.IsJump() {
		a.fail(fmt.Errorf("%s is not a jump", op))
		return
	}
	a.buf.WriteOpcode(op)
	a.fail(a.buf.WriteIdentifier(label))
}

// Label places a label at the current position.
func (a *Assembler) Label(name string) {
	if a.err != nil {
		return
	}
	a.fail(a.f.AddLabel(name, a.Pos()))
}

// Call emits a call to qualified with the given signature.
func (a *Assembler) Call(ret bytecode.Datatype, qualified string, params ...bytecode.Datatype) {
	if a.err != nil {
		return
	}
	a.buf.WriteOpcode(bytecode.OpCall)
	a.buf.WriteDatatype(ret)
	a.fail(a.buf.WriteIdentifier(qualified))
	if a.err == nil {
		a.fail(a.buf.WriteDatatypeList(params))
	}
}

// Throw emits a raise of the named error kind with the given argument types.
func (a *Assembler) Throw(kind string, params ...bytecode.Datatype) {
	if a.err != nil {
		return
	}
	a.buf.WriteOpcode(bytecode.OpThrow)
	a.fail(a.buf.WriteIdentifier(kind))
	if a.err == nil {
		a.fail(a.buf.WriteDatatypeList(params))
	}
}

// Cast emits a conversion of the top of stack to dt.
func (a *Assembler) Cast(dt bytecode.Datatype) { a.typed(bytecode.OpCast, dt) }

// CheckType emits a type test of the top of stack against dt.
func (a *Assembler) CheckType(dt bytecode.Datatype) { a.typed(bytecode.OpCheckType, dt) }

func (a *Assembler) typed(op bytecode.Opcode, dt bytecode.Datatype) {
	if a.err != nil {
		return
	}
	a.buf.WriteOpcode(op)
	a.buf.WriteDatatype(dt)
}
