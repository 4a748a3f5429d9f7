package stdlib

import (
	"fmt"
	"strings"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

func installConsole(r *Registry) {
	const pkg = "std.sio"

	def0(r, pkg, "ln_str", func(*host.Host) (string, error) {
		return host.LineSeparator(), nil
	})
	def0(r, pkg, "clear", func(h *host.Host) (none, error) {
		return none{}, h.Clear()
	})
	def0(r, pkg, "read", func(h *host.Host) (none, error) {
		_, err := h.ReadKey()
		return none{}, err
	})
	def0(r, pkg, "readln", func(h *host.Host) (string, error) {
		return h.ReadLine()
	})
	defHost1(r, pkg, "write", func(h *host.Host, s string) (none, error) {
		return none{}, h.Write(s)
	})
	defHost1(r, pkg, "writeln", func(h *host.Host, s string) (none, error) {
		return none{}, h.WriteLine(s)
	})
}

// ============================================================================
// Legacy console primitives
// ============================================================================

// PrimitivePrefix marks a call target as a legacy console primitive.
const PrimitivePrefix = "$"

// Legacy primitive names.
const (
	ConsoleWrite     = "$System.Console.Write"
	ConsoleWriteLine = "$System.Console.WriteLine"
	ConsoleRead      = "$System.Console.Read"
	ConsoleReadLine  = "$System.Console.ReadLine"
)

// IsPrimitive reports whether a call target names a legacy primitive.
func IsPrimitive(name string) bool {
	return strings.HasPrefix(name, PrimitivePrefix)
}

type primitiveKey struct {
	name  string
	ret   bytecode.Datatype
	first bytecode.Datatype // Void when there are no parameters
}

var primitives = buildPrimitives()

func buildPrimitives() map[primitiveKey]*program.Function {
	table := make(map[primitiveKey]*program.Function)
	add := func(name string, ret bytecode.Datatype, params []bytecode.Datatype, fn program.NativeFunc) {
		key := primitiveKey{name: name, ret: ret, first: bytecode.Void}
		if len(params) > 0 {
			key.first = params[0]
		}
		table[key] = program.NewNativeFunction(name, ret, params, fn)
	}

	// Write and WriteLine accept any single value.
	for _, dt := range bytecode.AllDatatypes() {
		if !dt.IsValue() {
			continue
		}
		add(ConsoleWrite, bytecode.Void, types(dt), func(h *host.Host, args []value.Scalar) (value.Scalar, error) {
			return value.Scalar{}, h.Write(value.Format(args[0]))
		})
		add(ConsoleWriteLine, bytecode.Void, types(dt), func(h *host.Host, args []value.Scalar) (value.Scalar, error) {
			return value.Scalar{}, h.WriteLine(value.Format(args[0]))
		})
	}
	add(ConsoleWriteLine, bytecode.Void, nil, func(h *host.Host, _ []value.Scalar) (value.Scalar, error) {
		return value.Scalar{}, h.WriteLine("")
	})
	add(ConsoleRead, bytecode.Void, nil, func(h *host.Host, _ []value.Scalar) (value.Scalar, error) {
		_, err := h.ReadKey()
		return value.Scalar{}, err
	})
	add(ConsoleReadLine, bytecode.String, nil, func(h *host.Host, _ []value.Scalar) (value.Scalar, error) {
		line, err := h.ReadLine()
		return value.Str(line), err
	})
	return table
}

// LookupPrimitive matches a legacy primitive on its name, return type and
// first parameter type. Primitives take at most one parameter.
func LookupPrimitive(name string, ret bytecode.Datatype, params []bytecode.Datatype) (*program.Function, error) {
	key := primitiveKey{name: name, ret: ret, first: bytecode.Void}
	if len(params) > 0 {
		key.first = params[0]
	}
	f, ok := primitives[key]
	if !ok || len(params) != len(f.Parameters()) {
		return nil, fmt.Errorf("%w: primitive %s%s %s", ErrNoStandardFunction, name, bytecode.FormatDatatypes(params), ret)
	}
	return f, nil
}
