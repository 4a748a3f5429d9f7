package vm

import (
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/stdlib"
	"github.com/chazu/vertex/pkg/value"
)

// execute runs fr from its current position until RETURN or the end of the
// code. Any failure is returned as a *RuntimeError for the failing
// instruction.
func (v *VM) execute(fr *frame) error {
	for fr.pos < fr.code.Len() {
		in, err := fr.code.Scan(fr.pos)
		if err != nil {
			op, _, _ := fr.code.ReadOpcode(fr.pos)
			return v.fault(fr, fr.pos, op, err)
		}
		if v.trace {
			v.log.Debugf("[%s] %s@%04X %s  stack=%d", v.runID, fr.fn.Name(), in.Pos, bytecode.FormatInstruction(in), len(fr.stack))
		}
		fr.pos = in.Next()

		done, err := v.step(fr, in)
		if err != nil {
			return v.fault(fr, in.Pos, in.Op, err)
		}
		if done {
			return nil
		}
	}
	return nil
}

func (v *VM) fault(fr *frame, pos int, op bytecode.Opcode, err error) error {
	return &RuntimeError{Function: fr.fn.Signature(), Position: pos, Op: op, Err: err}
}

// step executes one decoded instruction. It reports true when the frame
// has returned.
func (v *VM) step(fr *frame, in bytecode.Instruction) (bool, error) {
	switch in.Op {
	case bytecode.OpNoOperation, bytecode.OpEndIf:

	case bytecode.OpJumpAlways:
		return false, v.jump(fr, in.Name)

	case bytecode.OpJumpTrue, bytecode.OpJumpFalse:
		s, err := fr.pop()
		if err != nil {
			return false, err
		}
		cond, err := s.AsBool()
		if err != nil {
			return false, err
		}
		if cond == (in.Op == bytecode.OpJumpTrue) {
			return false, v.jump(fr, in.Name)
		}

	case bytecode.OpCall:
		return false, v.call(fr, in)

	case bytecode.OpThrow:
		return false, v.throw(fr, in)

	case bytecode.OpReturn:
		return true, nil

	case bytecode.OpCast:
		s, err := fr.pop()
		if err != nil {
			return false, err
		}
		out, err := value.Convert(s, in.Datatype)
		if err != nil {
			return false, err
		}
		fr.push(out)

	case bytecode.OpCheckType:
		s, err := fr.pop()
		if err != nil {
			return false, err
		}
		fr.push(value.Bool(s.Datatype() == in.Datatype))

	case bytecode.OpPop:
		_, err := fr.pop()
		return false, err

	case bytecode.OpClear:
		clear(fr.stack)
		fr.stack = fr.stack[:0]

	case bytecode.OpDuplicate:
		s, err := fr.pop()
		if err != nil {
			return false, err
		}
		fr.push(s)
		fr.push(s)

	case bytecode.OpRotate:
		pair, err := fr.popN(2)
		if err != nil {
			return false, err
		}
		fr.push(pair[1])
		fr.push(pair[0])

	case bytecode.OpLoadLiteral:
		s, err := value.New(in.Datatype, in.Literal)
		if err != nil {
			return false, err
		}
		fr.push(s)

	case bytecode.OpLoadGlobal:
		globals, err := v.pkg.Globals()
		if err != nil {
			return false, err
		}
		return false, load(fr, globals, in.Index)

	case bytecode.OpLoadParameter:
		return false, load(fr, fr.params, in.Index)

	case bytecode.OpLoadConstant:
		return false, load(fr, fr.constants, in.Index)

	case bytecode.OpLoadLocal:
		return false, load(fr, fr.locals, in.Index)

	case bytecode.OpSetParameter:
		return false, store(fr, fr.params, in.Index)

	case bytecode.OpSetLocal:
		return false, store(fr, fr.locals, in.Index)

	case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide, bytecode.OpModulus:
		pair, err := fr.popN(2)
		if err != nil {
			return false, err
		}
		out, err := arithmetic[in.Op](pair[0], pair[1])
		if err != nil {
			return false, err
		}
		fr.push(out)

	case bytecode.OpEqual:
		pair, err := fr.popN(2)
		if err != nil {
			return false, err
		}
		eq, err := value.Equal(pair[0], pair[1])
		if err != nil {
			return false, err
		}
		br, ok := fr.fn.Branch(in.Pos)
		if !ok {
			return false, fmt.Errorf("no branch table entry")
		}
		switch {
		case eq:
		case br.HasElse():
			fr.pos = br.Else
		default:
			fr.pos = br.End
		}

	case bytecode.OpElse:
		// Reached only at the end of a taken true branch.
		br, ok := fr.fn.Branch(in.Pos)
		if !ok {
			return false, fmt.Errorf("no branch table entry")
		}
		fr.pos = br.End

	default:
		return false, fmt.Errorf("%w: 0x%02X", bytecode.ErrUnknownOpcode, byte(in.Op))
	}
	return false, nil
}

var arithmetic = map[bytecode.Opcode]func(a, b value.Scalar) (value.Scalar, error){
	bytecode.OpAdd:      value.Add,
	bytecode.OpSubtract: value.Subtract,
	bytecode.OpMultiply: value.Multiply,
	bytecode.OpDivide:   value.Divide,
	bytecode.OpModulus:  value.Modulus,
}

func (v *VM) jump(fr *frame, name string) error {
	l, err := fr.fn.Label(name)
	if err != nil {
		return err
	}
	fr.pos = l.Position
	return nil
}

func load(fr *frame, c *value.Collection, index int) error {
	s, err := c.Load(index)
	if err != nil {
		return err
	}
	fr.push(s)
	return nil
}

func store(fr *frame, c *value.Collection, index int) error {
	s, err := fr.pop()
	if err != nil {
		return err
	}
	return c.UpdateAt(index, s)
}

// call pops the arguments of a CALL, runs the target and pushes its result.
func (v *VM) call(fr *frame, in bytecode.Instruction) error {
	t, err := v.resolve(fr.fn, in)
	if err != nil {
		return err
	}
	args, err := fr.popN(len(in.Datatypes))
	if err != nil {
		return err
	}

	var (
		result  value.Scalar
		hasItem bool
	)
	switch t.kind {
	case targetLocal:
		result, hasItem, err = v.invoke(t.fn, args)
	default:
		result, hasItem, err = stdlib.Call(v.host, t.fn, args)
	}
	if err != nil {
		return err
	}
	if in.Datatype != bytecode.Void && hasItem {
		fr.push(result)
	}
	return nil
}

// throw raises the catalog error named by a THROW. Its String arguments
// are popped in left-to-right order.
func (v *VM) throw(fr *frame, in bytecode.Instruction) error {
	if !stdlib.IsThrowKind(in.Name) {
		return fmt.Errorf("%w: %q", ErrUnknownThrowKind, in.Name)
	}
	for i, dt := range in.Datatypes {
		if dt != bytecode.String {
			return fmt.Errorf("THROW %s argument %d is %s: %w", in.Name, i, dt, value.ErrTypeMismatch)
		}
	}
	popped, err := fr.popN(len(in.Datatypes))
	if err != nil {
		return err
	}
	args := make([]string, len(popped))
	for i, s := range popped {
		if args[i], err = s.AsString(); err != nil {
			return err
		}
	}
	raised, err := stdlib.Raise(in.Name, args...)
	if err != nil {
		return err
	}
	return raised
}
