// Interpreter benchmarks
//
// These benchmarks measure the performance of:
// - Instruction dispatch and arithmetic
// - Loops driven by jumps and standard-library comparisons
// - Conditional blocks
// - Local and standard-library calls, including recursion
//
// Run: go test -bench=. ./pkg/vm/...
// Run with memory stats: go test -bench=. -benchmem ./pkg/vm/...
package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

func benchVM(b *testing.B, pkg *program.Package) *VM {
	b.Helper()
	v, err := New(pkg, WithHost(host.New(strings.NewReader(""), &bytes.Buffer{})))
	if err != nil {
		b.Fatal(err)
	}
	return v
}

func benchInvoke(b *testing.B, v *VM, f *program.Function, args []value.Scalar) {
	b.Helper()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Invoke(f, args); err != nil {
			b.Fatal(err)
		}
	}
}

// sumFunction adds 0..n-1 with a jump loop.
func sumFunction(b *testing.B, pkg *program.Package) *program.Function {
	return fn(b, pkg, "sum", I, []bytecode.Datatype{I}, []bytecode.Datatype{I, I}, func(a *program.Assembler) {
		a.Literal(value.Int(0))
		a.Index(bytecode.OpSetLocal, 0)
		a.Literal(value.Int(0))
		a.Index(bytecode.OpSetLocal, 1)
		a.Label("loop")
		a.Index(bytecode.OpLoadLocal, 1)
		a.Index(bytecode.OpLoadParameter, 0)
		a.Call(B, "std.cmp::lt", I, I)
		a.Jump(bytecode.OpJumpFalse, "done")
		a.Index(bytecode.OpLoadLocal, 0)
		a.Index(bytecode.OpLoadLocal, 1)
		a.Op(bytecode.OpAdd)
		a.Index(bytecode.OpSetLocal, 0)
		a.Index(bytecode.OpLoadLocal, 1)
		a.Literal(value.Int(1))
		a.Op(bytecode.OpAdd)
		a.Index(bytecode.OpSetLocal, 1)
		a.Jump(bytecode.OpJumpAlways, "loop")
		a.Label("done")
		a.Index(bytecode.OpLoadLocal, 0)
	})
}

// ============================================================
// Execution Benchmarks
// ============================================================

// BenchmarkExecuteAddition measures a two-parameter addition
func BenchmarkExecuteAddition(b *testing.B) {
	pkg := program.NewPackage("bench")
	f := fn(b, pkg, "add", I, []bytecode.Datatype{I, I}, nil, func(a *program.Assembler) {
		a.Index(bytecode.OpLoadParameter, 0)
		a.Index(bytecode.OpLoadParameter, 1)
		a.Op(bytecode.OpAdd)
	})
	benchInvoke(b, benchVM(b, pkg), f, []value.Scalar{value.Int(10), value.Int(20)})
}

// BenchmarkExecuteArithmetic measures (a + b) * (c - d) with a float divisor
func BenchmarkExecuteArithmetic(b *testing.B) {
	pkg := program.NewPackage("bench")
	f := fn(b, pkg, "calc", F, []bytecode.Datatype{I, I, I, I}, nil, func(a *program.Assembler) {
		a.Index(bytecode.OpLoadParameter, 0)
		a.Index(bytecode.OpLoadParameter, 1)
		a.Op(bytecode.OpAdd)
		a.Index(bytecode.OpLoadParameter, 2)
		a.Index(bytecode.OpLoadParameter, 3)
		a.Op(bytecode.OpSubtract)
		a.Op(bytecode.OpMultiply)
		a.Literal(value.Float(2.5))
		a.Op(bytecode.OpDivide)
	})
	args := []value.Scalar{value.Int(10), value.Int(20), value.Int(100), value.Int(50)}
	benchInvoke(b, benchVM(b, pkg), f, args)
}

func benchmarkLoop(b *testing.B, n int64) {
	pkg := program.NewPackage("bench")
	f := sumFunction(b, pkg)
	benchInvoke(b, benchVM(b, pkg), f, []value.Scalar{value.Int(n)})
}

// BenchmarkExecuteLoop10 measures a loop with 10 iterations
func BenchmarkExecuteLoop10(b *testing.B) { benchmarkLoop(b, 10) }

// BenchmarkExecuteLoop100 measures a loop with 100 iterations
func BenchmarkExecuteLoop100(b *testing.B) { benchmarkLoop(b, 100) }

// BenchmarkExecuteLoop1000 measures a loop with 1000 iterations
func BenchmarkExecuteLoop1000(b *testing.B) { benchmarkLoop(b, 1000) }

// BenchmarkExecuteConditional alternates between both branches of a block
func BenchmarkExecuteConditional(b *testing.B) {
	pkg := program.NewPackage("bench")
	f := fn(b, pkg, "sign", I, []bytecode.Datatype{I}, nil, func(a *program.Assembler) {
		a.Index(bytecode.OpLoadParameter, 0)
		a.Literal(value.Int(0))
		a.Op(bytecode.OpEqual)
		a.Literal(value.Int(0))
		a.Op(bytecode.OpElse)
		a.Literal(value.Int(1))
		a.Op(bytecode.OpEndIf)
	})
	v := benchVM(b, pkg)
	args := [][]value.Scalar{{value.Int(0)}, {value.Int(5)}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Invoke(f, args[i%2]); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRecursion measures local calls through the frame arena
func BenchmarkRecursion(b *testing.B) {
	pkg := program.NewPackage("bench")
	f := fn(b, pkg, "fact", I, []bytecode.Datatype{I}, nil, func(a *program.Assembler) {
		a.Index(bytecode.OpLoadParameter, 0)
		a.Literal(value.Int(0))
		a.Op(bytecode.OpEqual)
		a.Literal(value.Int(1))
		a.Op(bytecode.OpElse)
		a.Index(bytecode.OpLoadParameter, 0)
		a.Literal(value.Int(1))
		a.Op(bytecode.OpSubtract)
		a.Call(I, "fact", I)
		a.Index(bytecode.OpLoadParameter, 0)
		a.Op(bytecode.OpMultiply)
		a.Op(bytecode.OpEndIf)
	})
	benchInvoke(b, benchVM(b, pkg), f, []value.Scalar{value.Int(20)})
}

// BenchmarkStringConcat measures standard-library string calls
func BenchmarkStringConcat(b *testing.B) {
	pkg := program.NewPackage("bench")
	f := fn(b, pkg, "greet", S, []bytecode.Datatype{S}, nil, func(a *program.Assembler) {
		a.Literal(value.Str("Hello, "))
		a.Index(bytecode.OpLoadParameter, 0)
		a.Call(S, "std.sfn::cat", S, S)
		a.Literal(value.Str("!"))
		a.Op(bytecode.OpAdd)
	})
	benchInvoke(b, benchVM(b, pkg), f, []value.Scalar{value.Str("World")})
}

// BenchmarkVMCreate measures building a fresh VM for every run
func BenchmarkVMCreate(b *testing.B) {
	pkg := program.NewPackage("bench")
	f := sumFunction(b, pkg)
	args := []value.Scalar{value.Int(10)}
	if err := pkg.Seal(); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := benchVM(b, pkg)
		if _, err := v.Invoke(f, args); err != nil {
			b.Fatal(err)
		}
	}
}
