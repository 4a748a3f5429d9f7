package stdlib

import (
	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

// The cast package shares the conversion table of the CAST opcode.
func installCast(r *Registry) {
	const pkg = "std.cst"

	conversions := []struct {
		name   string
		target bytecode.Datatype
		from   []bytecode.Datatype
	}{
		{"to_bl", bytecode.Boolean, types(bytecode.Integer, bytecode.Float, bytecode.String)},
		{"to_int", bytecode.Integer, types(bytecode.Boolean, bytecode.Float, bytecode.String)},
		{"to_fl", bytecode.Float, types(bytecode.Boolean, bytecode.Integer, bytecode.String)},
		{"to_str", bytecode.String, types(bytecode.Boolean, bytecode.Integer, bytecode.Float, bytecode.Character)},
	}
	for _, c := range conversions {
		for _, from := range c.from {
			r.mustRegister(pkg, c.name, c.target, types(from), convertTo(c.target))
		}
	}
}

func convertTo(target bytecode.Datatype) program.NativeFunc {
	return func(_ *host.Host, args []value.Scalar) (value.Scalar, error) {
		return value.Convert(args[0], target)
	}
}
