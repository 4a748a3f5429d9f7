// Package host binds the console, clock and terminal that native functions
// operate on. Programs never touch os.Stdin or os.Stdout directly; tests
// substitute buffers.
package host

import (
	"bufio"
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const clearScreen = "\x1b[H\x1b[2J"

// Host is the collaborator behind console, clock and file operations.
type Host struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	once   sync.Once
	reader *bufio.Reader
}

// Standard returns a Host bound to the process streams.
func Standard() *Host {
	return &Host{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// New returns a Host reading from in and writing to out. Stderr is
// discarded.
func New(in io.Reader, out io.Writer) *Host {
	return &Host{Stdin: in, Stdout: out, Stderr: io.Discard}
}

func (h *Host) input() *bufio.Reader {
	h.once.Do(func() {
		in := h.Stdin
		if in == nil {
			in = strings.NewReader("")
		}
		h.reader = bufio.NewReader(in)
	})
	return h.reader
}

func (h *Host) output() io.Writer {
	if h.Stdout == nil {
		return io.Discard
	}
	return h.Stdout
}

// Now returns the host's current time.
func (h *Host) Now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// LineSeparator returns the platform line terminator.
func LineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Write writes s to standard output.
func (h *Host) Write(s string) error {
	_, err := io.WriteString(h.output(), s)
	return err
}

// WriteLine writes s followed by the line separator.
func (h *Host) WriteLine(s string) error {
	return h.Write(s + LineSeparator())
}

// ReadLine reads one line of input without its terminator. At end of input
// it returns whatever was read, possibly the empty string.
func (h *Host) ReadLine() (string, error) {
	line, err := h.input().ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadKey reads a single key. When stdin is a terminal it is switched to
// raw mode for the read so the key is not echoed or line-buffered.
func (h *Host) ReadKey() (rune, error) {
	if f, ok := h.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return 0, err
		}
		defer term.Restore(int(f.Fd()), state)
	}
	r, _, err := h.input().ReadRune()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	return r, err
}

// IsTerminal reports whether standard output is an interactive terminal.
func (h *Host) IsTerminal() bool {
	f, ok := h.Stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Clear clears the terminal. It does nothing when output is not a terminal.
func (h *Host) Clear() error {
	if !h.IsTerminal() {
		return nil
	}
	return h.Write(clearScreen)
}
