// Package manifest handles vertex.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "vertex.toml"

// Defaults applied to fields the manifest leaves empty.
const (
	DefaultEntry     = "main"
	DefaultMaxDepth  = 1024
	DefaultVerbosity = 0
	DefaultStorePath = ".vertex/images.db"
)

// ErrInvalid is returned for manifests with out-of-range settings.
var ErrInvalid = errors.New("invalid manifest")

// Manifest represents a vertex.toml project configuration.
type Manifest struct {
	Program Program `toml:"program"`
	Runtime Runtime `toml:"runtime"`
	Log     Log     `toml:"log"`
	Store   Store   `toml:"store"`

	// Dir is the directory containing the vertex.toml file (set at load time).
	Dir string `toml:"-"`
}

// Program selects what to run.
type Program struct {
	Image string `toml:"image"`
	Entry string `toml:"entry"`
}

// Runtime configures the interpreter.
type Runtime struct {
	MaxDepth int  `toml:"max-depth"`
	Trace    bool `toml:"trace"`
}

// Log configures logging. Verbosity is handed to commonlog, where 2
// enables debug output. An empty File logs to stderr.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Store locates the image database.
type Store struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no manifest exists.
func Default(dir string) *Manifest {
	return &Manifest{
		Program: Program{Entry: DefaultEntry},
		Runtime: Runtime{MaxDepth: DefaultMaxDepth},
		Log:     Log{Verbosity: DefaultVerbosity},
		Store:   Store{Path: DefaultStorePath},
		Dir:     dir,
	}
}

// Load parses a vertex.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	// Keys absent from the file keep their defaults.
	m := Default("")
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s: unknown key %s", ErrInvalid, path, undecoded[0])
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	switch {
	case m.Program.Entry == "":
		return nil, fmt.Errorf("%w: %s: program.entry is empty", ErrInvalid, path)
	case m.Runtime.MaxDepth <= 0:
		return nil, fmt.Errorf("%w: %s: runtime.max-depth must be positive", ErrInvalid, path)
	case m.Store.Path == "":
		return nil, fmt.Errorf("%w: %s: store.path is empty", ErrInvalid, path)
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a vertex.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// resolve makes p absolute relative to the manifest directory.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ImagePath returns the absolute path of the configured program image,
// or "" when none is configured.
func (m *Manifest) ImagePath() string {
	return m.resolve(m.Program.Image)
}

// StorePath returns the absolute path of the image database.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LogFile returns the absolute path of the log file, or "" for stderr.
func (m *Manifest) LogFile() string {
	return m.resolve(m.Log.File)
}
