package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[program]
image = "build/app.vxi"
entry = "start"

[runtime]
max-depth = 64
trace = true

[log]
verbosity = 2
file = "logs/vertex.log"

[store]
path = "/var/lib/vertex/images.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Program.Entry != "start" {
		t.Errorf("program entry = %q, want start", m.Program.Entry)
	}
	if m.Runtime.MaxDepth != 64 || !m.Runtime.Trace {
		t.Errorf("runtime = %+v, want max-depth 64 with trace", m.Runtime)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got, want := m.ImagePath(), filepath.Join(m.Dir, "build", "app.vxi"); got != want {
		t.Errorf("ImagePath = %q, want %q", got, want)
	}
	if got, want := m.LogFile(), filepath.Join(m.Dir, "logs", "vertex.log"); got != want {
		t.Errorf("LogFile = %q, want %q", got, want)
	}
	if got := m.StorePath(); got != "/var/lib/vertex/images.db" {
		t.Errorf("StorePath = %q, absolute paths must be kept", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[runtime]
trace = true
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Program.Entry != DefaultEntry {
		t.Errorf("entry = %q, want %q", m.Program.Entry, DefaultEntry)
	}
	if m.Runtime.MaxDepth != DefaultMaxDepth {
		t.Errorf("max-depth = %d, want %d", m.Runtime.MaxDepth, DefaultMaxDepth)
	}
	if m.Log.Verbosity != DefaultVerbosity {
		t.Errorf("verbosity = %d, want %d", m.Log.Verbosity, DefaultVerbosity)
	}
	if got, want := m.StorePath(), filepath.Join(m.Dir, DefaultStorePath); got != want {
		t.Errorf("StorePath = %q, want %q", got, want)
	}
	if m.ImagePath() != "" || m.LogFile() != "" {
		t.Errorf("unset paths resolved to %q, %q", m.ImagePath(), m.LogFile())
	}
}

func TestLoadManifestQuietVerbosity(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log]\nverbosity = -2\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Log.Verbosity != -2 {
		t.Errorf("verbosity = %d, want -2", m.Log.Verbosity)
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "[runtime]\nspeed = 3\n"},
		{"zero depth", "[runtime]\nmax-depth = 0\n"},
		{"empty entry", "[program]\nentry = \"\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)
			if _, err := Load(dir); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[program\n")
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[program]\nentry = \"boot\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Program.Entry != "boot" {
		t.Errorf("entry = %q, want boot", m.Program.Entry)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no vertex.toml exists")
	}
}

func TestDefault(t *testing.T) {
	m := Default("/app")
	if m.Program.Entry != DefaultEntry || m.Runtime.MaxDepth != DefaultMaxDepth {
		t.Errorf("Default = %+v", m)
	}
	if got := m.StorePath(); got != filepath.Join("/app", DefaultStorePath) {
		t.Errorf("StorePath = %q", got)
	}
}
