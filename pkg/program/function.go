// Package program holds the structural side of a Vertex program: Functions
// (interpreted or native), the Packages that group them, and the labels and
// conditional side tables compiled when a Package is sealed.
//
// Functions and Packages carry no execution state. Parameters, locals and
// evaluation stacks belong to activation frames owned by the interpreter,
// so a sealed Package may be run by any number of interpreters at once.
package program

import (
	"errors"
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/value"
)

var (
	// ErrNativeFunction is returned when asking a native function for
	// interpreted structure (code, constants, locals, labels).
	ErrNativeFunction = errors.New("native function has no bytecode structure")

	// ErrSealed is returned when modifying a sealed function or package.
	ErrSealed = errors.New("sealed")

	// ErrLabelNotFound is returned when a label name is not defined.
	ErrLabelNotFound = errors.New("label not found")

	// ErrDuplicateLabel is returned when a label name is defined twice.
	ErrDuplicateLabel = errors.New("duplicate label")

	// ErrBadLabel is returned when a label does not point at an instruction.
	ErrBadLabel = errors.New("label does not point at an instruction")

	// ErrMalformedConditional is returned by Seal for a nested, unclosed or
	// stray Equal/Else/EndIf.
	ErrMalformedConditional = errors.New("malformed conditional block")

	// ErrTooMany is returned when a parameter, local or constant index would
	// not fit the one-byte operand.
	ErrTooMany = errors.New("too many slots for a one-byte index")
)

// NativeFunc is the host callable behind a native Function. args holds one
// Scalar per declared parameter, in declaration order. Functions returning
// Void return the zero Scalar.
type NativeFunc func(h *host.Host, args []value.Scalar) (value.Scalar, error)

// Label is a named jump target inside a function's buffer.
type Label struct {
	Name     string
	Position int
}

// Branch is the side-table entry for an Equal or Else marker.
type Branch struct {
	Else int // position just past the Else marker, -1 if there is none
	End  int // position just past the EndIf marker
}

// HasElse reports whether the conditional has an else branch.
func (b Branch) HasElse() bool { return b.Else >= 0 }

// Function is a callable unit, either interpreted or native.
type Function struct {
	name   string
	ret    bytecode.Datatype
	params []bytecode.Datatype

	// Native functions
	native NativeFunc

	// Interpreted functions
	locals    []bytecode.Datatype
	constants *value.Collection
	code      *bytecode.Buffer
	labels    []Label
	branches  map[int]Branch

	sealed bool
}

// NewFunction creates an empty interpreted function.
func NewFunction(name string, ret bytecode.Datatype) *Function {
	return &Function{
		name:      name,
		ret:       ret,
		constants: value.NewCollection(value.Constant),
		code:      bytecode.NewBuffer(),
	}
}

// NewNativeFunction wraps a host callable. Native functions are sealed on
// creation.
func NewNativeFunction(name string, ret bytecode.Datatype, params []bytecode.Datatype, fn NativeFunc) *Function {
	return &Function{
		name:   name,
		ret:    ret,
		params: append([]bytecode.Datatype(nil), params...),
		native: fn,
		sealed: true,
	}
}

func (f *Function) Name() string                  { return f.name }
func (f *Function) ReturnType() bytecode.Datatype { return f.ret }
func (f *Function) IsNative() bool                { return f.native != nil }
func (f *Function) Sealed() bool                  { return f.sealed }

// Parameters returns the ordered parameter datatypes.
func (f *Function) Parameters() []bytecode.Datatype {
	return append([]bytecode.Datatype(nil), f.params...)
}

// Signature renders the function as name(A, B) Ret.
func (f *Function) Signature() string {
	return fmt.Sprintf("%s%s %s", f.name, bytecode.FormatDatatypes(f.params), f.ret)
}

// Native returns the host callable of a native function, or nil.
func (f *Function) Native() NativeFunc { return f.native }

// Code returns the instruction buffer.
func (f *Function) Code() (*bytecode.Buffer, error) {
	if f.IsNative() {
		return nil, fmt.Errorf("%s: %w", f.name, ErrNativeFunction)
	}
	return f.code, nil
}

// Constants returns the literal constant collection.
func (f *Function) Constants() (*value.Collection, error) {
	if f.IsNative() {
		return nil, fmt.Errorf("%s: %w", f.name, ErrNativeFunction)
	}
	return f.constants, nil
}

// Locals returns the ordered local datatypes.
func (f *Function) Locals() ([]bytecode.Datatype, error) {
	if f.IsNative() {
		return nil, fmt.Errorf("%s: %w", f.name, ErrNativeFunction)
	}
	return append([]bytecode.Datatype(nil), f.locals...), nil
}

// Labels returns the label table.
func (f *Function) Labels() ([]Label, error) {
	if f.IsNative() {
		return nil, fmt.Errorf("%s: %w", f.name, ErrNativeFunction)
	}
	return append([]Label(nil), f.labels...), nil
}

// Label looks up a label by name.
func (f *Function) Label(name string) (Label, error) {
	if f.IsNative() {
		return Label{}, fmt.Errorf("%s: %w", f.name, ErrNativeFunction)
	}
	for _, l := range f.labels {
		if l.Name == name {
			return l, nil
		}
	}
	return Label{}, fmt.Errorf("%s: %w: %q", f.name, ErrLabelNotFound, name)
}

// Branch returns the side-table entry for the Equal or Else marker at pos.
// Only valid after Seal.
func (f *Function) Branch(pos int) (Branch, bool) {
	b, ok := f.branches[pos]
	return b, ok
}

// ============================================================================
// Building
// ============================================================================

func (f *Function) mutable() error {
	if f.IsNative() {
		return fmt.Errorf("%s: %w", f.name, ErrNativeFunction)
	}
	if f.sealed {
		return fmt.Errorf("function %s: %w", f.name, ErrSealed)
	}
	return nil
}

// AddParameter appends a parameter and returns its index.
func (f *Function) AddParameter(dt bytecode.Datatype) (int, error) {
	if err := f.mutable(); err != nil {
		return 0, err
	}
	if !dt.IsValue() {
		return 0, fmt.Errorf("%s: parameter of type %s: %w", f.name, dt, value.ErrTypeMismatch)
	}
	if len(f.params) > bytecode.MaxLength {
		return 0, fmt.Errorf("%s: parameters: %w", f.name, ErrTooMany)
	}
	f.params = append(f.params, dt)
	return len(f.params) - 1, nil
}

// AddLocal appends a local variable slot and returns its index.
func (f *Function) AddLocal(dt bytecode.Datatype) (int, error) {
	if err := f.mutable(); err != nil {
		return 0, err
	}
	if !dt.IsValue() {
		return 0, fmt.Errorf("%s: local of type %s: %w", f.name, dt, value.ErrTypeMismatch)
	}
	if len(f.locals) > bytecode.MaxLength {
		return 0, fmt.Errorf("%s: locals: %w", f.name, ErrTooMany)
	}
	f.locals = append(f.locals, dt)
	return len(f.locals) - 1, nil
}

// AddConstant appends a defined literal and returns its index.
func (f *Function) AddConstant(s value.Scalar) (int, error) {
	if err := f.mutable(); err != nil {
		return 0, err
	}
	if !s.Defined() {
		return 0, fmt.Errorf("%s: constant: %w", f.name, value.ErrUndefined)
	}
	if f.constants.Len() > bytecode.MaxLength {
		return 0, fmt.Errorf("%s: constants: %w", f.name, ErrTooMany)
	}
	if err := f.constants.Append(s); err != nil {
		return 0, err
	}
	return f.constants.Len() - 1, nil
}

// AddLabel records a jump target.
func (f *Function) AddLabel(name string, pos int) error {
	if err := f.mutable(); err != nil {
		return err
	}
	for _, l := range f.labels {
		if l.Name == name {
			return fmt.Errorf("%s: %w: %q", f.name, ErrDuplicateLabel, name)
		}
	}
	f.labels = append(f.labels, Label{Name: name, Position: pos})
	return nil
}

// Seal validates the buffer, compiles the conditional side table and makes
// the function immutable. Sealing twice is a no-op.
func (f *Function) Seal() error {
	if f.sealed {
		return nil
	}
	ins, err := f.code.Instructions()
	if err != nil {
		return fmt.Errorf("function %s: %w", f.name, err)
	}

	starts := make(map[int]bool, len(ins)+1)
	for _, in := range ins {
		starts[in.Pos] = true
	}
	starts[f.code.Len()] = true
	for _, l := range f.labels {
		if !starts[l.Position] {
			return fmt.Errorf("function %s: %w: %q at %d", f.name, ErrBadLabel, l.Name, l.Position)
		}
	}

	branches, err := compileBranches(ins)
	if err != nil {
		return fmt.Errorf("function %s: %w", f.name, err)
	}

	f.branches = branches
	f.constants.Freeze()
	f.sealed = true
	return nil
}

// compileBranches pairs every Equal with its optional Else and its EndIf.
// Conditionals may follow one another but may not nest.
func compileBranches(ins []bytecode.Instruction) (map[int]Branch, error) {
	branches := make(map[int]Branch)
	open, elseAt := -1, -1
	for _, in := range ins {
		switch in.Op {
		case bytecode.OpEqual:
			if open >= 0 {
				return nil, fmt.Errorf("%w: nested EQUAL at %d inside block opened at %d", ErrMalformedConditional, in.Pos, open)
			}
			open, elseAt = in.Pos, -1
		case bytecode.OpElse:
			if open < 0 {
				return nil, fmt.Errorf("%w: ELSE at %d outside a block", ErrMalformedConditional, in.Pos)
			}
			if elseAt >= 0 {
				return nil, fmt.Errorf("%w: second ELSE at %d", ErrMalformedConditional, in.Pos)
			}
			elseAt = in.Pos
		case bytecode.OpEndIf:
			if open < 0 {
				return nil, fmt.Errorf("%w: END_IF at %d outside a block", ErrMalformedConditional, in.Pos)
			}
			end := in.Next()
			b := Branch{Else: -1, End: end}
			if elseAt >= 0 {
				b.Else = elseAt + 1
				branches[elseAt] = Branch{Else: -1, End: end}
			}
			branches[open] = b
			open = -1
		}
	}
	if open >= 0 {
		return nil, fmt.Errorf("%w: EQUAL at %d is never closed", ErrMalformedConditional, open)
	}
	return branches, nil
}
