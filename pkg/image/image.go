// Package image persists sealed packages. An image is a canonical CBOR
// record of a package's globals and interpreted functions; Store keeps
// images in SQLite and Describe renders a YAML summary.
package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/value"
)

const (
	// Magic identifies a Vertex image.
	Magic = "VRTX"

	// Version is the current image format version.
	Version = 1

	// Extension is the conventional file extension for images.
	Extension = ".vxi"
)

var (
	// ErrBadMagic is returned when data is not a Vertex image.
	ErrBadMagic = errors.New("not a vertex image")

	// ErrVersion is returned for images written by an unsupported format version.
	ErrVersion = errors.New("unsupported image version")
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type record struct {
	Magic     string           `cbor:"magic"`
	Version   uint             `cbor:"version"`
	Package   string           `cbor:"package"`
	Globals   []scalarRecord   `cbor:"globals,omitempty"`
	Functions []functionRecord `cbor:"functions"`
}

type functionRecord struct {
	Name      string              `cbor:"name"`
	Return    bytecode.Datatype   `cbor:"return"`
	Params    []bytecode.Datatype `cbor:"params,omitempty"`
	Locals    []bytecode.Datatype `cbor:"locals,omitempty"`
	Constants []scalarRecord      `cbor:"constants,omitempty"`
	Code      []byte              `cbor:"code"`
	Labels    []labelRecord       `cbor:"labels,omitempty"`
}

// scalarRecord stores a defined scalar as its tag and literal encoding.
type scalarRecord struct {
	_    struct{} `cbor:",toarray"`
	Type bytecode.Datatype
	Data []byte
}

type labelRecord struct {
	_        struct{} `cbor:",toarray"`
	Name     string
	Position int
}

// Encode seals pkg and serializes it. Native packages cannot be encoded.
func Encode(pkg *program.Package) ([]byte, error) {
	if pkg.IsNative() {
		return nil, fmt.Errorf("image: %s: %w", pkg.Name(), program.ErrNativePackage)
	}
	if err := pkg.Seal(); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	globals, err := pkg.Globals()
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	r := record{Magic: Magic, Version: Version, Package: pkg.Name()}
	if r.Globals, err = encodeScalars(globals.Scalars()); err != nil {
		return nil, fmt.Errorf("image: globals: %w", err)
	}
	for _, f := range pkg.Functions() {
		fr, err := encodeFunction(f)
		if err != nil {
			return nil, fmt.Errorf("image: function %s: %w", f.Name(), err)
		}
		r.Functions = append(r.Functions, fr)
	}
	return encMode.Marshal(&r)
}

func encodeFunction(f *program.Function) (functionRecord, error) {
	code, err := f.Code()
	if err != nil {
		return functionRecord{}, err
	}
	locals, _ := f.Locals()
	constants, _ := f.Constants()
	labels, _ := f.Labels()

	fr := functionRecord{
		Name:   f.Name(),
		Return: f.ReturnType(),
		Params: f.Parameters(),
		Locals: locals,
		Code:   code.Bytes(),
	}
	if fr.Constants, err = encodeScalars(constants.Scalars()); err != nil {
		return functionRecord{}, err
	}
	for _, l := range labels {
		fr.Labels = append(fr.Labels, labelRecord{Name: l.Name, Position: l.Position})
	}
	return fr, nil
}

func encodeScalars(scalars []value.Scalar) ([]scalarRecord, error) {
	var out []scalarRecord
	for i, s := range scalars {
		v, err := s.Value()
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		data, err := bytecode.EncodeLiteral(s.Datatype(), v)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		out = append(out, scalarRecord{Type: s.Datatype(), Data: data})
	}
	return out, nil
}

// Decode rebuilds a sealed package from an image.
func Decode(data []byte) (*program.Package, error) {
	var r record
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if r.Magic != Magic {
		return nil, ErrBadMagic
	}
	if r.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, r.Version)
	}

	pkg := program.NewPackage(r.Package)
	globals, err := decodeScalars(r.Globals)
	if err != nil {
		return nil, fmt.Errorf("image: globals: %w", err)
	}
	for _, g := range globals {
		if _, err := pkg.AddGlobal(g); err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}
	for _, fr := range r.Functions {
		f, err := decodeFunction(fr)
		if err != nil {
			return nil, fmt.Errorf("image: function %s: %w", fr.Name, err)
		}
		if err := pkg.Add(f); err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}
	if err := pkg.Seal(); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	return pkg, nil
}

func decodeFunction(fr functionRecord) (*program.Function, error) {
	f := program.NewFunction(fr.Name, fr.Return)
	for _, dt := range fr.Params {
		if _, err := f.AddParameter(dt); err != nil {
			return nil, err
		}
	}
	for _, dt := range fr.Locals {
		if _, err := f.AddLocal(dt); err != nil {
			return nil, err
		}
	}
	constants, err := decodeScalars(fr.Constants)
	if err != nil {
		return nil, err
	}
	for _, c := range constants {
		if _, err := f.AddConstant(c); err != nil {
			return nil, err
		}
	}
	for _, l := range fr.Labels {
		if err := f.AddLabel(l.Name, l.Position); err != nil {
			return nil, err
		}
	}
	a := program.Assemble(f)
	a.Raw(fr.Code)
	return f, a.Err()
}

func decodeScalars(records []scalarRecord) ([]value.Scalar, error) {
	out := make([]value.Scalar, 0, len(records))
	for i, sr := range records {
		v, err := bytecode.DecodeLiteral(sr.Type, sr.Data)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		s, err := value.New(sr.Type, v)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// WriteFile encodes pkg to path, creating parent directories.
func WriteFile(path string, pkg *program.Package) error {
	data, err := Encode(pkg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile decodes the image at path.
func ReadFile(path string) (*program.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	pkg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkg, nil
}
