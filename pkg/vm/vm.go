// Package vm is the Vertex interpreter. It executes the interpreted
// functions of a sealed program.Package, dispatching CALL instructions to
// other functions of the package, to the standard library or to the legacy
// console primitives.
//
// A VM is single-threaded and not safe for concurrent use. Several VMs may
// run the same Package at once: all per-call state lives in the VM's own
// activation frames.
package vm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/stdlib"
	"github.com/chazu/vertex/pkg/value"
)

// DefaultMaxDepth is the default limit on nested calls.
const DefaultMaxDepth = 1024

// EntryName is the function Run starts from.
const EntryName = "main"

// VM executes one package.
type VM struct {
	pkg      *program.Package
	registry *stdlib.Registry
	host     *host.Host
	log      commonlog.Logger
	trace    bool
	maxDepth int

	frames []*frame
	depth  int
	sites  map[callSite]callTarget
	runID  string
}

// Option configures a VM.
type Option func(*VM)

// WithRegistry replaces the standard library. Defaults to stdlib.Default().
func WithRegistry(r *stdlib.Registry) Option {
	return func(v *VM) { v.registry = r }
}

// WithHost sets the console, clock and terminal. Defaults to host.Standard().
func WithHost(h *host.Host) Option {
	return func(v *VM) { v.host = h }
}

// WithMaxDepth limits nested calls.
func WithMaxDepth(n int) Option {
	return func(v *VM) {
		if n > 0 {
			v.maxDepth = n
		}
	}
}

// WithLogger sets the logger. Defaults to the "vertex.vm" logger.
func WithLogger(l commonlog.Logger) Option {
	return func(v *VM) { v.log = l }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(on bool) Option {
	return func(v *VM) { v.trace = on }
}

// New seals pkg and returns a VM for it. Any number of VMs may be created
// for the same package, from any goroutine.
func New(pkg *program.Package, opts ...Option) (*VM, error) {
	if err := pkg.Seal(); err != nil {
		return nil, err
	}
	v := &VM{
		pkg:      pkg,
		maxDepth: DefaultMaxDepth,
		sites:    make(map[callSite]callTarget),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.registry == nil {
		v.registry = stdlib.Default()
	}
	if v.host == nil {
		v.host = host.Standard()
	}
	if v.log == nil {
		v.log = commonlog.GetLogger("vertex.vm")
	}
	return v, nil
}

// Package returns the package the VM runs.
func (v *VM) Package() *program.Package { return v.pkg }

// RunID identifies the most recent run in log output.
func (v *VM) RunID() string { return v.runID }

// Run executes the zero-argument Void function named main.
func (v *VM) Run() error {
	return v.RunEntry(EntryName)
}

// RunEntry executes a zero-argument Void function of the package.
func (v *VM) RunEntry(name string) error {
	fn, err := v.pkg.Resolve(name, bytecode.Void, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoEntry, name, err)
	}
	_, err = v.Invoke(fn, nil)
	return err
}

// Invoke calls fn with args and returns its result, which is undefined
// for Void functions. fn must belong to the VM's package.
func (v *VM) Invoke(fn *program.Function, args []value.Scalar) (value.Scalar, error) {
	if v.depth != 0 {
		return value.Scalar{}, fmt.Errorf("vm: Invoke called while running")
	}
	v.runID = uuid.NewString()
	start := time.Now()
	v.log.Info("run started", "run", v.runID, "package", v.pkg.Name(), "function", fn.Signature())

	result, _, err := v.invoke(fn, args)

	elapsed := time.Since(start)
	if err != nil {
		v.log.Error("run failed", "run", v.runID, "elapsed", elapsed, "error", err)
		return value.Scalar{}, err
	}
	v.log.Info("run finished", "run", v.runID, "elapsed", elapsed)
	return result, nil
}

// invoke runs fn to completion in a fresh frame.
func (v *VM) invoke(fn *program.Function, args []value.Scalar) (value.Scalar, bool, error) {
	if fn.IsNative() {
		return stdlib.Call(v.host, fn, args)
	}

	params := fn.Parameters()
	if len(args) != len(params) {
		return value.Scalar{}, false, fmt.Errorf("%s: got %d arguments, want %d", fn.Signature(), len(args), len(params))
	}
	fr, err := v.enter(fn)
	if err != nil {
		return value.Scalar{}, false, err
	}
	defer v.leave(fr)

	for i, a := range args {
		if err := fr.params.UpdateAt(i, a); err != nil {
			return value.Scalar{}, false, fmt.Errorf("%s: argument %d: %w", fn.Signature(), i, err)
		}
	}

	if err := v.execute(fr); err != nil {
		return value.Scalar{}, false, err
	}

	ret := fn.ReturnType()
	if ret == bytecode.Void {
		return value.Scalar{}, false, nil
	}
	result, ok := fr.top()
	if !ok || result.Datatype() != ret || !result.Defined() {
		return value.Scalar{}, false, fmt.Errorf("%w: %s left %v", ErrMissingReturn, fn.Signature(), result)
	}
	return result, true, nil
}
