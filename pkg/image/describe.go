package image

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

// Summary is the human-readable outline of a package.
type Summary struct {
	Package   string            `yaml:"package"`
	Globals   []string          `yaml:"globals,omitempty"`
	Functions []FunctionSummary `yaml:"functions"`
}

// FunctionSummary outlines one function.
type FunctionSummary struct {
	Signature    string         `yaml:"signature"`
	Native       bool           `yaml:"native,omitempty"`
	Locals       []string       `yaml:"locals,omitempty"`
	Constants    []string       `yaml:"constants,omitempty"`
	Labels       map[string]int `yaml:"labels,omitempty"`
	CodeSize     int            `yaml:"code_size"`
	Instructions int            `yaml:"instructions"`
	Calls        []string       `yaml:"calls,omitempty"`
}

// Summarize builds the outline of pkg.
func Summarize(pkg *program.Package) (Summary, error) {
	sum := Summary{Package: pkg.Name()}
	if !pkg.IsNative() {
		globals, err := pkg.Globals()
		if err != nil {
			return Summary{}, err
		}
		sum.Globals = describeScalars(globals.Scalars())
	}
	for _, f := range pkg.Functions() {
		fs, err := summarizeFunction(f)
		if err != nil {
			return Summary{}, fmt.Errorf("%s: %w", f.Name(), err)
		}
		sum.Functions = append(sum.Functions, fs)
	}
	return sum, nil
}

func summarizeFunction(f *program.Function) (FunctionSummary, error) {
	fs := FunctionSummary{Signature: f.Signature()}
	if f.IsNative() {
		fs.Native = true
		return fs, nil
	}

	code, _ := f.Code()
	locals, _ := f.Locals()
	constants, _ := f.Constants()
	labels, _ := f.Labels()

	ins, err := code.Instructions()
	if err != nil {
		return FunctionSummary{}, err
	}
	fs.CodeSize = code.Len()
	fs.Instructions = len(ins)
	for _, dt := range locals {
		fs.Locals = append(fs.Locals, dt.String())
	}
	fs.Constants = describeScalars(constants.Scalars())
	if len(labels) > 0 {
		fs.Labels = make(map[string]int, len(labels))
		for _, l := range labels {
			fs.Labels[l.Name] = l.Position
		}
	}
	for _, in := range ins {
		if in.Op == bytecode.OpCall {
			fs.Calls = append(fs.Calls, fmt.Sprintf("%s%s %s", in.Name, bytecode.FormatDatatypes(in.Datatypes), in.Datatype))
		}
	}
	return fs, nil
}

func describeScalars(scalars []value.Scalar) []string {
	out := make([]string, 0, len(scalars))
	for _, s := range scalars {
		out = append(out, s.String())
	}
	return out
}

// Describe renders the outline of pkg as YAML.
func Describe(pkg *program.Package) ([]byte, error) {
	sum, err := Summarize(pkg)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(&sum)
}
