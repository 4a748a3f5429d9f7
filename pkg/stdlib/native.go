package stdlib

import (
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

// none stands for Void in native signatures.
type none = struct{}

// hostValue lists the Go types native functions exchange with programs.
type hostValue interface {
	bool | int64 | float64 | string | bytecode.Char | none
}

// datatypeOf maps a host type to its datatype.
func datatypeOf[T hostValue]() bytecode.Datatype {
	var zero T
	switch any(zero).(type) {
	case bool:
		return bytecode.Boolean
	case int64:
		return bytecode.Integer
	case float64:
		return bytecode.Float
	case string:
		return bytecode.String
	case bytecode.Char:
		return bytecode.Character
	default:
		return bytecode.Void
	}
}

func arg[T hostValue](args []value.Scalar, i int) (T, error) {
	var zero T
	v, err := args[i].Value()
	if err != nil {
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("argument %d: %w: %T is not %s", i, value.ErrTypeMismatch, v, datatypeOf[T]())
	}
	return x, nil
}

func result[R hostValue](r R, err error) (value.Scalar, error) {
	if err != nil {
		return value.Scalar{}, err
	}
	dt := datatypeOf[R]()
	if dt == bytecode.Void {
		return value.Scalar{}, nil
	}
	return value.New(dt, any(r))
}

// The def* helpers register a typed Go function, deriving the signature
// from its parameter and result types.

func def0[R hostValue](r *Registry, pkg, name string, f func(*host.Host) (R, error)) {
	r.mustRegister(pkg, name, datatypeOf[R](), nil,
		func(h *host.Host, _ []value.Scalar) (value.Scalar, error) {
			return result(f(h))
		})
}

func def1[A, R hostValue](r *Registry, pkg, name string, f func(A) (R, error)) {
	r.mustRegister(pkg, name, datatypeOf[R](), []bytecode.Datatype{datatypeOf[A]()},
		func(_ *host.Host, args []value.Scalar) (value.Scalar, error) {
			a, err := arg[A](args, 0)
			if err != nil {
				return value.Scalar{}, err
			}
			return result(f(a))
		})
}

func def2[A, B, R hostValue](r *Registry, pkg, name string, f func(A, B) (R, error)) {
	r.mustRegister(pkg, name, datatypeOf[R](), []bytecode.Datatype{datatypeOf[A](), datatypeOf[B]()},
		func(_ *host.Host, args []value.Scalar) (value.Scalar, error) {
			a, err := arg[A](args, 0)
			if err != nil {
				return value.Scalar{}, err
			}
			b, err := arg[B](args, 1)
			if err != nil {
				return value.Scalar{}, err
			}
			return result(f(a, b))
		})
}

func def3[A, B, C, R hostValue](r *Registry, pkg, name string, f func(A, B, C) (R, error)) {
	r.mustRegister(pkg, name, datatypeOf[R](), []bytecode.Datatype{datatypeOf[A](), datatypeOf[B](), datatypeOf[C]()},
		func(_ *host.Host, args []value.Scalar) (value.Scalar, error) {
			a, err := arg[A](args, 0)
			if err != nil {
				return value.Scalar{}, err
			}
			b, err := arg[B](args, 1)
			if err != nil {
				return value.Scalar{}, err
			}
			c, err := arg[C](args, 2)
			if err != nil {
				return value.Scalar{}, err
			}
			return result(f(a, b, c))
		})
}

// defHost1 registers a one-argument function that needs the host.
func defHost1[A, R hostValue](r *Registry, pkg, name string, f func(*host.Host, A) (R, error)) {
	r.mustRegister(pkg, name, datatypeOf[R](), []bytecode.Datatype{datatypeOf[A]()},
		func(h *host.Host, args []value.Scalar) (value.Scalar, error) {
			a, err := arg[A](args, 0)
			if err != nil {
				return value.Scalar{}, err
			}
			return result(f(h, a))
		})
}

// Scalar-level helpers for functions defined directly on value operations.

func scalarUnary(f func(value.Scalar) (value.Scalar, error)) program.NativeFunc {
	return func(_ *host.Host, args []value.Scalar) (value.Scalar, error) {
		return f(args[0])
	}
}

func scalarBinary(f func(a, b value.Scalar) (value.Scalar, error)) program.NativeFunc {
	return func(_ *host.Host, args []value.Scalar) (value.Scalar, error) {
		return f(args[0], args[1])
	}
}

func types(dts ...bytecode.Datatype) []bytecode.Datatype { return dts }
