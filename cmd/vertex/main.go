// Vertex CLI - runs, inspects and stores Vertex package images
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/vertex/manifest"
	"github.com/chazu/vertex/pkg/host"
	"github.com/chazu/vertex/pkg/image"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/stdlib"
	"github.com/chazu/vertex/pkg/vm"
)

func main() {
	os.Exit(run(os.Args[1:], host.Standard()))
}

type options struct {
	verbose   bool
	trace     bool
	dis       bool
	describe  bool
	put       bool
	list      bool
	remove    string
	fromStore string
	storePath string
	entry     string
	maxDepth  int
}

// run executes the CLI and returns the process exit code.
func run(args []string, h *host.Host) int {
	stderr := h.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("vertex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.BoolVar(&o.trace, "trace", false, "Log every executed instruction")
	fs.BoolVar(&o.dis, "dis", false, "Disassemble every function instead of running")
	fs.BoolVar(&o.describe, "describe", false, "Print a YAML outline of the package instead of running")
	fs.BoolVar(&o.put, "put", false, "Store the image in the image database")
	fs.BoolVar(&o.list, "list", false, "List the images in the image database")
	fs.StringVar(&o.remove, "rm", "", "Delete the named image from the image database")
	fs.StringVar(&o.fromStore, "from-store", "", "Load the named package from the image database")
	fs.StringVar(&o.storePath, "store", "", "Image database path (default from vertex.toml)")
	fs.StringVar(&o.entry, "entry", "", "Entry function (default from vertex.toml, else main)")
	fs.IntVar(&o.maxDepth, "max-depth", 0, "Maximum call depth (default from vertex.toml)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: vertex [options] [image]\n\n")
		fmt.Fprintf(stderr, "Runs a Vertex package image. Without an image argument the image named\n")
		fmt.Fprintf(stderr, "by program.image in the nearest vertex.toml is used.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  vertex build/app.vxi            # Run main\n")
		fmt.Fprintf(stderr, "  vertex -entry setup app.vxi     # Run another entry function\n")
		fmt.Fprintf(stderr, "  vertex -dis app.vxi             # Disassemble\n")
		fmt.Fprintf(stderr, "  vertex -put app.vxi             # Store the image\n")
		fmt.Fprintf(stderr, "  vertex -from-store app          # Run a stored image\n")
		fmt.Fprintf(stderr, "  vertex -list                    # List stored images\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	m, err := loadManifest()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(m, &o)
	configureLogging(m)

	if err := execute(m, &o, fs.Args(), h); err != nil {
		var exit *stdlib.ExitError
		if errors.As(err, &exit) {
			return exit.Code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadManifest() (*manifest.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default(wd)
	}
	return m, nil
}

// applyFlags lets command-line flags override the manifest.
func applyFlags(m *manifest.Manifest, o *options) {
	if o.entry != "" {
		m.Program.Entry = o.entry
	}
	if o.maxDepth > 0 {
		m.Runtime.MaxDepth = o.maxDepth
	}
	if o.storePath != "" {
		m.Store.Path = o.storePath
	}
	if o.trace {
		m.Runtime.Trace = true
	}
	if o.verbose {
		m.Log.Verbosity = max(m.Log.Verbosity, 1)
	}
	if m.Runtime.Trace {
		m.Log.Verbosity = max(m.Log.Verbosity, 2)
	}
}

func configureLogging(m *manifest.Manifest) {
	if file := m.LogFile(); file != "" {
		commonlog.Configure(m.Log.Verbosity, &file)
		return
	}
	commonlog.Configure(m.Log.Verbosity, nil)
}

func execute(m *manifest.Manifest, o *options, args []string, h *host.Host) error {
	if len(args) > 1 {
		return fmt.Errorf("expected at most one image, got %d", len(args))
	}

	if o.list || o.remove != "" {
		return manageStore(m, o, h.Stdout)
	}

	pkg, err := loadPackage(m, o, args)
	if err != nil {
		return err
	}

	inspected := false
	if o.put {
		if err := putImage(m, pkg, h.Stdout); err != nil {
			return err
		}
		inspected = true
	}
	if o.dis {
		disassemble(pkg, h.Stdout)
		inspected = true
	}
	if o.describe {
		data, err := image.Describe(pkg)
		if err != nil {
			return err
		}
		if _, err := h.Stdout.Write(data); err != nil {
			return err
		}
		inspected = true
	}
	if inspected {
		return nil
	}

	machine, err := vm.New(pkg,
		vm.WithHost(h),
		vm.WithMaxDepth(m.Runtime.MaxDepth),
		vm.WithTrace(m.Runtime.Trace),
	)
	if err != nil {
		return err
	}
	return machine.RunEntry(m.Program.Entry)
}

func loadPackage(m *manifest.Manifest, o *options, args []string) (*program.Package, error) {
	if o.fromStore != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("-from-store cannot be combined with an image argument")
		}
		store, err := image.Open(m.StorePath())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Get(o.fromStore)
	}

	path := m.ImagePath()
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return nil, fmt.Errorf("no image given and %s names none", manifest.FileName)
	}
	return image.ReadFile(path)
}

func putImage(m *manifest.Manifest, pkg *program.Package, out io.Writer) error {
	store, err := image.Open(m.StorePath())
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Put(pkg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "stored %s (%d bytes, sha256 %s)\n", e.Name, e.Size, e.Hash)
	return nil
}

func manageStore(m *manifest.Manifest, o *options, out io.Writer) error {
	store, err := image.Open(m.StorePath())
	if err != nil {
		return err
	}
	defer store.Close()

	if o.remove != "" {
		if err := store.Delete(o.remove); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", o.remove)
	}
	if !o.list {
		return nil
	}

	entries, err := store.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tSHA256\tSTORED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%.12s\t%s\n", e.Name, e.Size, e.Hash, e.StoredAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func disassemble(pkg *program.Package, out io.Writer) {
	for _, f := range pkg.Functions() {
		code, err := f.Code()
		if err != nil {
			continue
		}
		fmt.Fprintln(out, code.DisassembleWithName(f.Signature()))
	}
}
