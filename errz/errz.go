// Package errz defines the structured error records produced by the analyzer,
// the compiler, and the virtual machine. Errors carry a kind, a source
// location, and optional call-stack context; human-readable rendering is
// layered on top and never replaces the structured form.
package errz

import (
	"bytes"
	"fmt"
	"strings"
)

// Kind represents the category of an error.
type Kind int

const (
	// InternalError indicates a defect in the runtime itself.
	InternalError Kind = iota

	// SyntaxError indicates a tokenization or parsing failure.
	SyntaxError

	// Analysis kinds. All are fatal to compilation; no partial program runs.

	// DuplicateBinding indicates a name declared twice in the same scope.
	DuplicateBinding
	// UseOfUninitialized indicates a binding read on a control path that
	// does not initialize it.
	UseOfUninitialized
	// ConflictingBorrow indicates an exclusive borrow overlapping another
	// live borrow of the same binding.
	ConflictingBorrow
	// UseAfterMove indicates a binding used after being moved out.
	UseAfterMove
	// AssignToImmutable indicates assignment to an initialized non-mut binding.
	AssignToImmutable
	// EffectViolation indicates an impure operation inside a pure func.
	EffectViolation
	// UndefinedVariable indicates a reference to an undeclared name.
	UndefinedVariable
	// InvalidControlFlow indicates break or continue outside any loop.
	InvalidControlFlow

	// Runtime kinds. All are fatal to the current execution; the language
	// has no user-level recovery construct.

	// TypeError indicates an operation applied to operands of the wrong kind.
	TypeError
	// NoMatchingArm indicates a cond scrutinee matched no arm.
	NoMatchingArm
	// NoMatchingOverload indicates call arguments matched no declared clause.
	NoMatchingOverload
	// StackOverflow indicates call-frame depth was exhausted.
	StackOverflow
	// OutOfMemory indicates the heap limit was exhausted.
	OutOfMemory
	// DivisionByZero indicates integer division or modulo by zero.
	DivisionByZero
	// IndexError indicates an array index outside the array's bounds.
	IndexError

	// InvalidUnit indicates a bytecode unit that failed self-consistency
	// validation at load time.
	InvalidUnit
)

// String returns the human-readable name of the error kind.
func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case DuplicateBinding:
		return "duplicate binding"
	case UseOfUninitialized:
		return "use of uninitialized"
	case ConflictingBorrow:
		return "conflicting borrow"
	case UseAfterMove:
		return "use after move"
	case AssignToImmutable:
		return "assign to immutable"
	case EffectViolation:
		return "effect violation"
	case UndefinedVariable:
		return "undefined variable"
	case InvalidControlFlow:
		return "invalid control flow"
	case TypeError:
		return "type error"
	case NoMatchingArm:
		return "no matching arm"
	case NoMatchingOverload:
		return "no matching overload"
	case StackOverflow:
		return "stack overflow"
	case OutOfMemory:
		return "out of memory"
	case DivisionByZero:
		return "division by zero"
	case IndexError:
		return "index error"
	case InvalidUnit:
		return "invalid unit"
	default:
		return "internal error"
	}
}

// IsAnalysis reports whether the kind is produced before any code runs.
func (k Kind) IsAnalysis() bool {
	return k >= DuplicateBinding && k <= InvalidControlFlow
}

// IsRuntime reports whether the kind is produced during execution.
func (k Kind) IsRuntime() bool {
	return k >= TypeError && k <= IndexError
}

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Source   string // the line of source code
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	Location SourceLocation
}

// String returns a formatted string representation of the stack frame.
func (f StackFrame) String() string {
	if f.Function != "" {
		return fmt.Sprintf("at %s (%s)", f.Function, f.Location.String())
	}
	return fmt.Sprintf("at %s", f.Location.String())
}

// FormatStackTrace formats a slice of stack frames as a human-readable string.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Error is the structured error record shared by all components: a kind, a
// message, an optional source location, and optional stack context.
type Error struct {
	Message  string
	Kind     Kind
	Location SourceLocation
	Stack    []StackFrame
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (%d:%d)", e.Kind.String(), e.Message, e.Location.Line, e.Location.Column)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// FriendlyErrorMessage returns a human-friendly error message with visual
// context including a source snippet and any stack trace.
func (e *Error) FriendlyErrorMessage() string {
	var msg bytes.Buffer

	if e.Location.IsZero() {
		msg.WriteString(fmt.Sprintf("%s: %s\n", e.Kind.String(), e.Message))
	} else {
		msg.WriteString(fmt.Sprintf("%s: %s (%d:%d)\n", e.Kind.String(), e.Message, e.Location.Line, e.Location.Column))
	}

	if e.Location.Source != "" {
		msg.WriteString(" | ")
		msg.WriteString(e.Location.Source)
		msg.WriteString("\n")
		if e.Location.Column > 0 {
			msg.WriteString(" | ")
			msg.WriteString(strings.Repeat(" ", e.Location.Column-1))
			msg.WriteString("^\n")
		}
	}

	if len(e.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(e.Stack))
	}

	return msg.String()
}

// New creates a new Error with the given parameters.
func New(kind Kind, message string, loc SourceLocation) *Error {
	return &Error{Message: message, Kind: kind, Location: loc}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, loc SourceLocation, format string, args ...any) *Error {
	return &Error{
		Message:  fmt.Sprintf(format, args...),
		Kind:     kind,
		Location: loc,
	}
}

// WithStack attaches stack frames to the error.
func (e *Error) WithStack(stack []StackFrame) *Error {
	e.Stack = stack
	return e
}

// FriendlyError is an interface for errors that have a human friendly message
// in addition to the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}
