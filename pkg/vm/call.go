package vm

import (
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/stdlib"
)

// targetKind says where a CALL lands.
type targetKind uint8

const (
	targetLocal targetKind = iota
	targetStandard
	targetPrimitive
)

func (k targetKind) String() string {
	switch k {
	case targetLocal:
		return "local"
	case targetStandard:
		return "standard"
	case targetPrimitive:
		return "primitive"
	}
	return fmt.Sprintf("targetKind(%d)", uint8(k))
}

// callTarget is a resolved CALL. Interpreted local functions run in a new
// frame; everything else is native and runs through stdlib.Call.
type callTarget struct {
	kind targetKind
	fn   *program.Function
}

// callSite identifies one CALL instruction.
type callSite struct {
	fn  *program.Function
	pos int
}

// resolve returns the target of the CALL at in, resolving and caching it on
// first use.
func (v *VM) resolve(caller *program.Function, in bytecode.Instruction) (callTarget, error) {
	site := callSite{fn: caller, pos: in.Pos}
	if t, ok := v.sites[site]; ok {
		return t, nil
	}
	t, err := v.lookup(in.Name, in.Datatype, in.Datatypes)
	if err != nil {
		return callTarget{}, fmt.Errorf("%w: %s %s%s: %w", ErrUnresolvedCall,
			in.Datatype, in.Name, bytecode.FormatDatatypes(in.Datatypes), err)
	}
	v.log.Debugf("call site %s@%04X resolved to %s %s", caller.Name(), in.Pos, t.kind, t.fn.Signature())
	v.sites[site] = t
	return t, nil
}

func (v *VM) lookup(name string, ret bytecode.Datatype, params []bytecode.Datatype) (callTarget, error) {
	if stdlib.IsPrimitive(name) {
		fn, err := stdlib.LookupPrimitive(name, ret, params)
		if err != nil {
			return callTarget{}, err
		}
		return callTarget{kind: targetPrimitive, fn: fn}, nil
	}

	if stdlib.IsStandard(name) {
		fn, err := v.registry.Lookup(name, ret, params)
		if err != nil {
			return callTarget{}, err
		}
		return callTarget{kind: targetStandard, fn: fn}, nil
	}

	pkg, local := program.SplitQualified(name)
	if pkg != "" && pkg != v.pkg.Name() {
		return callTarget{}, fmt.Errorf("package %q is not loaded", pkg)
	}
	fn, err := v.pkg.Resolve(local, ret, params)
	if err != nil {
		return callTarget{}, err
	}
	return callTarget{kind: targetLocal, fn: fn}, nil
}
