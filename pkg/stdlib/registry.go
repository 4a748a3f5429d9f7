// Package stdlib is the Vertex standard library: a process-wide registry of
// native packages published under the "std." qualifier, the fixed set of
// legacy console primitives reached through the "$" prefix, and the catalog
// of error kinds a program may raise.
//
// Every native function is registered explicitly under its exact signature
// (qualified name, return type, parameter types). Overloads differ only by
// that key; there is no implicit promotion between them.
package stdlib

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

// Prefix is the package prefix of every standard-library package.
const Prefix = "std."

// ErrNoStandardFunction is returned when no registered function matches.
var ErrNoStandardFunction = errors.New("no matching standard-library function")

// Registry maps exact signatures to native functions, grouped by package.
type Registry struct {
	mu       sync.RWMutex
	packages map[string]*program.Package
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{packages: make(map[string]*program.Package)}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide standard library, building it on first
// use. The returned registry must not be modified.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		for _, install := range []func(*Registry){
			installEnv,
			installCast,
			installOperators,
			installComparisons,
			installStrings,
			installMath,
			installErrors,
			installConsole,
			installFiles,
		} {
			install(r)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// IsStandard reports whether a qualified name targets the standard library.
func IsStandard(qualified string) bool {
	pkg, _ := program.SplitQualified(qualified)
	return strings.HasPrefix(pkg, Prefix)
}

// Register adds a native function to package pkg, creating the package on
// first use. Registering the same signature twice is an error.
func (r *Registry) Register(pkg, name string, ret bytecode.Datatype, params []bytecode.Datatype, fn program.NativeFunc) error {
	if !strings.HasPrefix(pkg, Prefix) {
		return fmt.Errorf("%w: package %q lacks the %q prefix", program.ErrInvalidName, pkg, Prefix)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.packages[pkg]
	if !ok {
		p = program.NewNativePackage(pkg)
		r.packages[pkg] = p
	}
	if _, err := p.Resolve(name, ret, params); err == nil {
		return fmt.Errorf("%s::%s%s %s already registered", pkg, name, bytecode.FormatDatatypes(params), ret)
	}
	return p.Add(program.NewNativeFunction(name, ret, params, fn))
}

// mustRegister is Register for the built-in catalog, where a failure is a
// programming error.
func (r *Registry) mustRegister(pkg, name string, ret bytecode.Datatype, params []bytecode.Datatype, fn program.NativeFunc) {
	if err := r.Register(pkg, name, ret, params, fn); err != nil {
		panic(err)
	}
}

// Package returns a registered package by name.
func (r *Registry) Package(name string) (*program.Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packages[name]
	return p, ok
}

// Packages returns every package sorted by name.
func (r *Registry) Packages() []*program.Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*program.Package, 0, len(r.packages))
	for _, p := range r.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Lookup finds the function registered under the exact signature.
func (r *Registry) Lookup(qualified string, ret bytecode.Datatype, params []bytecode.Datatype) (*program.Function, error) {
	pkgName, name := program.SplitQualified(qualified)
	p, ok := r.Package(pkgName)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s %s (no package %q)", ErrNoStandardFunction, qualified, bytecode.FormatDatatypes(params), ret, pkgName)
	}
	f, err := p.Resolve(name, ret, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoStandardFunction, err)
	}
	return f, nil
}

// FindAndCall looks up the exact signature and invokes it with args, which
// must match the parameter types one for one. The boolean result reports
// whether a value was produced (false for Void functions).
func (r *Registry) FindAndCall(h *host.Host, qualified string, ret bytecode.Datatype, params []bytecode.Datatype, args []value.Scalar) (value.Scalar, bool, error) {
	f, err := r.Lookup(qualified, ret, params)
	if err != nil {
		return value.Scalar{}, false, err
	}
	return Call(h, f, args)
}

// Call binds args into a define-once collection shaped by the function's
// parameters, invokes it, and checks the produced value against the
// declared return type.
func Call(h *host.Host, f *program.Function, args []value.Scalar) (value.Scalar, bool, error) {
	fn := f.Native()
	if fn == nil {
		return value.Scalar{}, false, fmt.Errorf("%s: not a native function", f.Name())
	}
	params := f.Parameters()
	if len(args) != len(params) {
		return value.Scalar{}, false, fmt.Errorf("%s: got %d arguments, want %d", f.Signature(), len(args), len(params))
	}
	bound := value.Shape(value.DefineOnce, params)
	for i, a := range args {
		if err := bound.UpdateAt(i, a); err != nil {
			return value.Scalar{}, false, fmt.Errorf("%s: argument %d: %w", f.Signature(), i, err)
		}
	}

	result, err := fn(h, bound.Scalars())
	if err != nil {
		return value.Scalar{}, false, err
	}
	if f.ReturnType() == bytecode.Void {
		return value.Scalar{}, false, nil
	}
	if result.Datatype() != f.ReturnType() || !result.Defined() {
		return value.Scalar{}, false, fmt.Errorf("%s: returned %v: %w", f.Signature(), result, value.ErrTypeMismatch)
	}
	return result, true, nil
}
