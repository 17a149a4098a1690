package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/parser"
)

// analyzeSource parses input and runs analysis over the result. The input
// must be syntactically valid; analysis errors are returned for inspection.
func analyzeSource(t *testing.T, input string) (*ast.Program, *Info, error) {
	t.Helper()
	program, err := parser.Parse(context.Background(), input)
	require.NoError(t, err, "parse failed for input: %s", input)
	info, err := Analyze(program, Config{Source: input})
	return program, info, err
}

// mustAnalyze asserts that input passes every check.
func mustAnalyze(t *testing.T, input string) (*ast.Program, *Info) {
	t.Helper()
	program, info, err := analyzeSource(t, input)
	require.NoError(t, err)
	require.NotNil(t, info)
	return program, info
}

// analysisErrors unpacks the aggregate error into its structured parts.
func analysisErrors(t *testing.T, err error) []*errz.Error {
	t.Helper()
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr), "expected a multierror, got %T", err)
	out := make([]*errz.Error, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var ee *errz.Error
		require.True(t, errors.As(e, &ee), "expected an errz.Error, got %T", e)
		out = append(out, ee)
	}
	return out
}

// requireViolation asserts that analysis of input reports at least one error
// of the given kind whose message contains the given fragment.
func requireViolation(t *testing.T, input string, kind errz.Kind, contains string) {
	t.Helper()
	_, info, err := analyzeSource(t, input)
	require.Error(t, err, "expected a %s error for input: %s", kind, input)
	require.Nil(t, info)
	require.Contains(t, err.Error(), contains)
	for _, ee := range analysisErrors(t, err) {
		if ee.Kind == kind {
			return
		}
	}
	t.Fatalf("no %s error reported for input %q: %v", kind, input, err)
}

func TestDuplicateBinding(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "let twice in one scope",
			input:   "let x = 1\nlet x = 2",
			wantErr: `variable "x" is already declared in this scope`,
		},
		{
			name:    "let shadowing a parameter",
			input:   "func f(a) { let a = 1\na }",
			wantErr: `variable "a" is already declared`,
		},
		{
			name:    "duplicate parameter names",
			input:   "func f(a, a) => a",
			wantErr: `variable "a" is already declared`,
		},
		{
			name:    "function name collides with let",
			input:   "let x = 1\nfunc x() => 1",
			wantErr: `variable "x" is already declared`,
		},
		{
			name:    "function declared twice",
			input:   "func f() => 1\nfunc f() => 2",
			wantErr: `variable "f" is already declared`,
		},
		{
			name:    "loop variable shadowed by body let",
			input:   "let xs = [1]\nfor item in xs { let item = 2\nitem }",
			wantErr: `variable "item" is already declared`,
		},
		{
			name:    "record pattern matches a field twice",
			input:   "let p = {a: 1}\ncond p { {a, a} => a\n_ => 0 }",
			wantErr: `field "a" is matched twice in record pattern`,
		},
		{
			name:    "duplicate record literal field",
			input:   "let r = {a: 1, a: 2}",
			wantErr: `duplicate field "a" in record literal`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireViolation(t, tt.input, errz.DuplicateBinding, tt.wantErr)
		})
	}
}

func TestShadowingAllowed(t *testing.T) {
	valid := []string{
		"let x = 1\nscope { let x = 2\nx }\nx",
		"let x = 1\nif true { let x = 2\nx }",
		"let x = 1\nfunc f() { let x = 2\nx }\nf()",
		"let x = 1\nwhile false { let x = 2\nx }",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			mustAnalyze(t, input)
		})
	}
}

func TestBlankIdentifier(t *testing.T) {
	valid := []string{
		"let _ = 1\nlet _ = 2",
		"func f(_, _) => 1\nf(1, 2)",
		"let xs = [1]\nfor _ in xs { 0 }",
		"let v = 1\ncond v { _ => 0 }",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			mustAnalyze(t, input)
		})
	}

	// The blank identifier discards; it never names a readable binding.
	requireViolation(t, "_", errz.UndefinedVariable, `undefined variable "_"`)
}

func TestUndefinedVariable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "bare read",
			input:   "y",
			wantErr: `undefined variable "y"`,
		},
		{
			name:    "read inside function body",
			input:   "func f() { missing }",
			wantErr: `undefined variable "missing"`,
		},
		{
			name:    "set of undeclared name",
			input:   "set y = 1",
			wantErr: `undefined variable "y"`,
		},
		{
			name:    "disown of undeclared name",
			input:   "disown y",
			wantErr: `undefined variable "y"`,
		},
		{
			name:    "borrow of undeclared name",
			input:   "proc f(&a) { }\nf(&y)",
			wantErr: `undefined variable "y"`,
		},
		{
			name:    "block binding not visible after block",
			input:   "scope { let inner = 1\ninner }\ninner",
			wantErr: `undefined variable "inner"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireViolation(t, tt.input, errz.UndefinedVariable, tt.wantErr)
		})
	}
}

func TestUndefinedVariableSuggestion(t *testing.T) {
	requireViolation(t, "let count = 1\ncounts", errz.UndefinedVariable,
		`undefined variable "counts" (did you mean "count"?)`)
}

func TestInvalidControlFlow(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "break at top level",
			input:   "break",
			wantErr: "break statement outside of a loop",
		},
		{
			name:    "continue at top level",
			input:   "continue",
			wantErr: "continue statement outside of a loop",
		},
		{
			name:    "break in plain if",
			input:   "if true { break }",
			wantErr: "break statement outside of a loop",
		},
		{
			name:    "break in function body",
			input:   "func f() { break }",
			wantErr: "break statement outside of a loop",
		},
		{
			name:    "break cannot cross a closure boundary",
			input:   "loop { let f = func() { break }\nbreak }",
			wantErr: "break statement outside of a loop",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireViolation(t, tt.input, errz.InvalidControlFlow, tt.wantErr)
		})
	}

	valid := []string{
		"while true { break }",
		"while true { continue }",
		"let xs = [1]\nfor x in xs { continue }",
		"loop { break }",
		"loop { loop { break }\nbreak }",
		"loop { if true { break } }",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			mustAnalyze(t, input)
		})
	}
}

func TestEffectViolations(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "pure function calls a proc",
			input:   "proc p() { }\nfunc f() => p()",
			wantErr: `pure function cannot call proc "p"`,
		},
		{
			name:    "pure function assigns to outer variable",
			input:   "let mut g = 1\nfunc f() { set g = 2 }",
			wantErr: `pure function cannot assign to outer variable "g"`,
		},
		{
			name:    "pure function disowns outer variable",
			input:   "let g = [1]\nfunc f() { disown g }",
			wantErr: `pure function cannot disown outer variable "g"`,
		},
		{
			name:    "closure calls a proc",
			input:   "proc p() { }\nlet f = func() { p() }",
			wantErr: `pure function cannot call proc "p"`,
		},
		{
			name:    "closure assigns to captured variable",
			input:   "let mut n = 0\nlet bump = func() { set n = 1 }",
			wantErr: `pure function cannot assign to outer variable "n"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireViolation(t, tt.input, errz.EffectViolation, tt.wantErr)
		})
	}

	valid := []string{
		// Top-level statements are effectful.
		"proc p() { }\np()",
		// Procs may call procs and mutate outer bindings.
		"proc p() { }\nproc q() { p() }\nq()",
		"let mut g = 1\nproc p() { set g = 2 }\np()",
		// A function may freely mutate its own locals.
		"func f() { let mut a = 1\nset a = 2\na }\nf()",
		"func a() => 1\nfunc b() => a()\nb()",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			mustAnalyze(t, input)
		})
	}
}

func TestMultipleViolationsReported(t *testing.T) {
	input := "let x = 1\nlet x = 2\nmissing\nbreak"
	_, _, err := analyzeSource(t, input)
	require.Error(t, err)

	kinds := map[errz.Kind]bool{}
	for _, ee := range analysisErrors(t, err) {
		kinds[ee.Kind] = true
	}
	require.True(t, kinds[errz.DuplicateBinding])
	require.True(t, kinds[errz.UndefinedVariable])
	require.True(t, kinds[errz.InvalidControlFlow])
}

func TestErrorLocations(t *testing.T) {
	input := "let x = 1\nlet x = 2"
	program, err := parser.Parse(context.Background(), input)
	require.NoError(t, err)

	_, err = Analyze(program, Config{Filename: "main.tarn", Source: input})
	require.Error(t, err)

	var ee *errz.Error
	require.True(t, errors.As(err, &ee))
	require.Equal(t, errz.DuplicateBinding, ee.Kind)
	require.Equal(t, "main.tarn", ee.Location.Filename)
	require.Equal(t, 2, ee.Location.Line)
	require.Equal(t, 5, ee.Location.Column)
	require.Equal(t, "let x = 2", ee.Location.Source)
}

// Analysis runs over whatever the parser recovered; placeholder statements
// from syntax errors are skipped without complaint.
func TestAnalyzeAfterParseRecovery(t *testing.T) {
	program, err := parser.Parse(context.Background(), "let x = 1\n?\nx")
	require.Error(t, err)
	require.NotNil(t, program)

	info, err := Analyze(program, Config{})
	require.NoError(t, err)
	require.NotNil(t, info)
}
