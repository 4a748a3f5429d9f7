package program

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/value"
)

// QualifierSeparator splits a qualified name into package and function.
const QualifierSeparator = "::"

var (
	// ErrNoMatch is returned when no function matches a signature.
	ErrNoMatch = errors.New("no function matches signature")

	// ErrAmbiguous is returned when several functions match a signature.
	ErrAmbiguous = errors.New("signature is ambiguous")

	// ErrInvalidName is returned for malformed package or function names.
	ErrInvalidName = errors.New("invalid name")

	// ErrNativePackage is returned when asking a native package for globals.
	ErrNativePackage = errors.New("native package has no globals")
)

// Package is a named registry of functions. Building a package is not
// safe for concurrent use; Seal is, and a sealed package is read-only.
type Package struct {
	mu        sync.Mutex
	name      string
	functions []*Function
	globals   *value.Collection // nil for native packages
	sealed    bool
}

// NewPackage creates a user package with an empty globals collection.
func NewPackage(name string) *Package {
	return &Package{name: name, globals: value.NewCollection(value.Constant)}
}

// NewNativePackage creates a package of native functions without globals.
func NewNativePackage(name string) *Package {
	return &Package{name: name}
}

func (p *Package) Name() string   { return p.name }
func (p *Package) IsNative() bool { return p.globals == nil }

// Sealed reports whether Seal has completed.
func (p *Package) Sealed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sealed
}

// Functions returns the functions in insertion order.
func (p *Package) Functions() []*Function {
	return append([]*Function(nil), p.functions...)
}

// Globals returns the package's constant globals.
func (p *Package) Globals() (*value.Collection, error) {
	if p.IsNative() {
		return nil, fmt.Errorf("%s: %w", p.name, ErrNativePackage)
	}
	return p.globals, nil
}

// AddGlobal appends a defined global and returns its index.
func (p *Package) AddGlobal(s value.Scalar) (int, error) {
	if p.IsNative() {
		return 0, fmt.Errorf("%s: %w", p.name, ErrNativePackage)
	}
	if p.sealed {
		return 0, fmt.Errorf("package %s: %w", p.name, ErrSealed)
	}
	if !s.Defined() {
		return 0, fmt.Errorf("%s: global: %w", p.name, value.ErrUndefined)
	}
	if p.globals.Len() > bytecode.MaxLength {
		return 0, fmt.Errorf("%s: globals: %w", p.name, ErrTooMany)
	}
	if err := p.globals.Append(s); err != nil {
		return 0, err
	}
	return p.globals.Len() - 1, nil
}

// Add appends a function. Native packages accept only native functions.
func (p *Package) Add(f *Function) error {
	if p.sealed {
		return fmt.Errorf("package %s: %w", p.name, ErrSealed)
	}
	if err := ValidateName(f.name); err != nil {
		return err
	}
	if p.IsNative() && !f.IsNative() {
		return fmt.Errorf("package %s: %s is not native", p.name, f.name)
	}
	p.functions = append(p.functions, f)
	return nil
}

// Resolve finds the single function whose name, return type and parameter
// types all match exactly.
func (p *Package) Resolve(name string, ret bytecode.Datatype, params []bytecode.Datatype) (*Function, error) {
	var found *Function
	matches := 0
	for _, f := range p.functions {
		if f.name == name && f.ret == ret && bytecode.EqualDatatypes(f.params, params) {
			found = f
			matches++
		}
	}
	switch matches {
	case 0:
		return nil, fmt.Errorf("%w: %s::%s%s %s", ErrNoMatch, p.name, name, bytecode.FormatDatatypes(params), ret)
	case 1:
		return found, nil
	default:
		return nil, fmt.Errorf("%w: %d functions match %s::%s%s %s", ErrAmbiguous, matches, p.name, name, bytecode.FormatDatatypes(params), ret)
	}
}

// Seal seals every function and freezes the globals. Concurrent callers
// wait for the first to finish.
func (p *Package) Seal() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed {
		return nil
	}
	for _, f := range p.functions {
		if err := f.Seal(); err != nil {
			return fmt.Errorf("package %s: %w", p.name, err)
		}
	}
	if p.globals != nil {
		p.globals.Freeze()
	}
	p.sealed = true
	return nil
}

// ValidateName checks a function name: an ASCII letter followed by
// letters, digits, dots or underscores.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if i == 0 && !letter {
			return fmt.Errorf("%w: %q must start with a letter", ErrInvalidName, name)
		}
		if !letter && !(c >= '0' && c <= '9') && c != '.' && c != '_' {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// SplitQualified splits "pkg::fn" into its parts. A name without a
// qualifier returns an empty package.
func SplitQualified(qualified string) (pkg, fn string) {
	if before, after, ok := strings.Cut(qualified, QualifierSeparator); ok {
		return before, after
	}
	return "", qualified
}

// Qualify joins a package and function name.
func Qualify(pkg, fn string) string {
	if pkg == "" {
		return fn
	}
	return pkg + QualifierSeparator + fn
}
