package errz

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(TypeError, "unsupported operation: int + string", SourceLocation{
		Filename: "main.tarn",
		Line:     3,
		Column:   7,
	})
	require.Equal(t, "type error: unsupported operation: int + string (3:7)", err.Error())

	bare := New(OutOfMemory, "heap limit exceeded", SourceLocation{})
	require.Equal(t, "out of memory: heap limit exceeded", bare.Error())
}

func TestKindClassification(t *testing.T) {
	analysis := []Kind{
		DuplicateBinding, UseOfUninitialized, ConflictingBorrow, UseAfterMove,
		AssignToImmutable, EffectViolation, UndefinedVariable, InvalidControlFlow,
	}
	for _, k := range analysis {
		require.True(t, k.IsAnalysis(), k.String())
		require.False(t, k.IsRuntime(), k.String())
	}
	runtime := []Kind{
		TypeError, NoMatchingArm, NoMatchingOverload, StackOverflow,
		OutOfMemory, DivisionByZero, IndexError,
	}
	for _, k := range runtime {
		require.True(t, k.IsRuntime(), k.String())
		require.False(t, k.IsAnalysis(), k.String())
	}
}

func TestKindStrings(t *testing.T) {
	require.Equal(t, "duplicate binding", DuplicateBinding.String())
	require.Equal(t, "no matching arm", NoMatchingArm.String())
	require.Equal(t, "no matching overload", NoMatchingOverload.String())
	require.Equal(t, "stack overflow", StackOverflow.String())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := New(InternalError, "wrapped", SourceLocation{}).WithCause(cause)
	require.ErrorIs(t, err, cause)
}

func TestFriendlyErrorMessage(t *testing.T) {
	err := New(UseOfUninitialized, `"x" may be used before it is initialized`, SourceLocation{
		Filename: "main.tarn",
		Line:     2,
		Column:   5,
		Source:   "let y = x + 1",
	})
	msg := err.FriendlyErrorMessage()
	require.Contains(t, msg, "use of uninitialized")
	require.Contains(t, msg, "let y = x + 1")
	require.Contains(t, msg, "^")
}

func TestFriendlyErrorStack(t *testing.T) {
	err := New(TypeError, "unsupported operand", SourceLocation{Line: 9, Column: 2})
	err.WithStack([]StackFrame{
		{Function: "inner", Location: SourceLocation{Filename: "m.tarn", Line: 9, Column: 2}},
		{Function: "outer", Location: SourceLocation{Filename: "m.tarn", Line: 14, Column: 1}},
	})
	msg := err.FriendlyErrorMessage()
	require.Contains(t, msg, "Stack trace:")
	require.Contains(t, msg, "at inner (m.tarn:9:2)")
}

func TestFormatterPlain(t *testing.T) {
	f := NewFormatter(false)
	err := New(DuplicateBinding, `"x" is already declared in this scope`, SourceLocation{
		Filename: "dup.tarn",
		Line:     4,
		Column:   9,
		Source:   "    let x = 2",
	})
	out := f.Format(err)
	require.True(t, strings.HasPrefix(out, "error: duplicate binding"))
	require.Contains(t, out, "--> dup.tarn:4:9")
	require.Contains(t, out, "   4 |     let x = 2")
	require.NotContains(t, out, "\033[") // no ANSI codes without color
}

func TestFormatAllNumbersBatch(t *testing.T) {
	f := NewFormatter(false)
	errs := []*Error{
		New(DuplicateBinding, "first", SourceLocation{Line: 1, Column: 1}),
		New(UseAfterMove, "second", SourceLocation{Line: 2, Column: 1}),
	}
	out := f.FormatAll(errs)
	require.Contains(t, out, "[1/2]")
	require.Contains(t, out, "[2/2]")
}
