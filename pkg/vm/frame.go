package vm

import (
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

// frame is the volatile state of one invocation: bound parameters, locals
// and the evaluation stack. Frames live in an arena indexed by call depth
// and are reused by later calls at the same depth.
type frame struct {
	fn        *program.Function
	code      *bytecode.Buffer
	constants *value.Collection
	params    *value.Collection
	locals    *value.Collection
	stack     []value.Scalar
	pos       int
}

// enter takes the frame for the next depth and shapes it for fn.
func (v *VM) enter(fn *program.Function) (*frame, error) {
	if v.depth >= v.maxDepth {
		return nil, fmt.Errorf("%w: %d", ErrCallDepth, v.maxDepth)
	}
	code, err := fn.Code()
	if err != nil {
		return nil, err
	}
	constants, err := fn.Constants()
	if err != nil {
		return nil, err
	}
	locals, err := fn.Locals()
	if err != nil {
		return nil, err
	}

	if v.depth == len(v.frames) {
		v.frames = append(v.frames, &frame{
			params: value.NewCollection(value.Mutable),
			locals: value.NewCollection(value.Mutable),
		})
	}
	fr := v.frames[v.depth]
	if err := fr.params.Reset(fn.Parameters()); err != nil {
		return nil, err
	}
	if err := fr.locals.Reset(locals); err != nil {
		return nil, err
	}
	fr.fn = fn
	fr.code = code
	fr.constants = constants
	fr.pos = 0
	fr.stack = fr.stack[:0]
	v.depth++
	return fr, nil
}

// leave resets the top frame and pops it off the arena.
func (v *VM) leave(fr *frame) {
	fr.params.UndefineAll()
	fr.locals.UndefineAll()
	clear(fr.stack)
	fr.stack = fr.stack[:0]
	fr.fn = nil
	v.depth--
}

func (fr *frame) push(s value.Scalar) {
	fr.stack = append(fr.stack, s)
}

func (fr *frame) pop() (value.Scalar, error) {
	n := len(fr.stack)
	if n == 0 {
		return value.Scalar{}, ErrStackUnderflow
	}
	s := fr.stack[n-1]
	fr.stack[n-1] = value.Scalar{}
	fr.stack = fr.stack[:n-1]
	return s, nil
}

// popN pops n values and returns them in push order.
func (fr *frame) popN(n int) ([]value.Scalar, error) {
	if len(fr.stack) < n {
		return nil, fmt.Errorf("%w: need %d values, have %d", ErrStackUnderflow, n, len(fr.stack))
	}
	base := len(fr.stack) - n
	out := append([]value.Scalar(nil), fr.stack[base:]...)
	clear(fr.stack[base:])
	fr.stack = fr.stack[:base]
	return out, nil
}

func (fr *frame) top() (value.Scalar, bool) {
	if len(fr.stack) == 0 {
		return value.Scalar{}, false
	}
	return fr.stack[len(fr.stack)-1], true
}
