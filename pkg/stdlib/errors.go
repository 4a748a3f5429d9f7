package stdlib

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds a program may raise with THROW or the std.err package.
const (
	KindException          = "$System.Exception"
	KindInvalidOperation   = "$System.InvalidOperationException"
	KindArgument           = "$System.ArgumentException"
	KindArgumentNull       = "$System.ArgumentNullException"
	KindArgumentOutOfRange = "$System.ArgumentOutOfRangeException"
)

var (
	// ErrUnknownThrowKind is returned for an error kind outside the catalog.
	ErrUnknownThrowKind = errors.New("unknown error kind")

	// ErrThrowArity is returned when a kind is raised with too many arguments.
	ErrThrowArity = errors.New("wrong number of error arguments")
)

// throwKind describes one entry of the raise catalog.
type throwKind struct {
	maxArgs        int
	defaultMessage string
	// paramFirst is set for kinds whose arguments are (parameter, message)
	// rather than (message, parameter). A single argument is the parameter
	// name for these kinds.
	paramFirst bool
}

var throwKinds = map[string]throwKind{
	KindException:          {1, "Exception of type 'System.Exception' was thrown.", false},
	KindInvalidOperation:   {1, "Operation is not valid due to the current state of the object.", false},
	KindArgument:           {2, "Value does not fall within the expected range.", false},
	KindArgumentNull:       {2, "Value cannot be null.", true},
	KindArgumentOutOfRange: {2, "Specified argument was out of the range of valid values.", true},
}

// RaisedError is an error raised explicitly by a program. It is always
// fatal: the language has no catch construct.
type RaisedError struct {
	Kind    string
	Message string
	Param   string // offending parameter name, if given
}

func (e *RaisedError) Error() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimPrefix(e.Kind, "$"))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Param != "" {
		fmt.Fprintf(&sb, " (parameter '%s')", e.Param)
	}
	return sb.String()
}

// IsThrowKind reports whether kind is in the raise catalog.
func IsThrowKind(kind string) bool {
	_, ok := throwKinds[kind]
	return ok
}

// Raise builds the error for kind from up to two string arguments given in
// left-to-right order.
func Raise(kind string, args ...string) (*RaisedError, error) {
	k, ok := throwKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownThrowKind, kind)
	}
	if len(args) > k.maxArgs {
		return nil, fmt.Errorf("%w: %s takes at most %d, got %d", ErrThrowArity, kind, k.maxArgs, len(args))
	}

	e := &RaisedError{Kind: kind, Message: k.defaultMessage}
	switch {
	case len(args) == 1 && k.paramFirst:
		e.Param = args[0]
	case len(args) == 1:
		e.Message = args[0]
	case len(args) == 2 && k.paramFirst:
		e.Param, e.Message = args[0], args[1]
	case len(args) == 2:
		e.Message, e.Param = args[0], args[1]
	}
	return e, nil
}

// ExitError is returned by std.env::exit. The embedding host decides
// whether to terminate the process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
