package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarn-lang/tarn/ast"
)

func TestIntLiterals(t *testing.T) {
	tests := []struct {
		input string
		value int64
	}{
		{"5", 5},
		{"42", 42},
		{"0", 0},
		{"0x10", 16},
		{"0XfF", 255},
		{"0b101", 5},
		{"0B11", 3},
		{"9223372036854775807", math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := mustParse(t, tt.input)
			lit, ok := program.First().(*ast.ExprStmt).X.(*ast.Int)
			require.True(t, ok)
			require.Equal(t, tt.value, lit.Value)
			require.Equal(t, tt.input, lit.Literal)
		})
	}

	err := parseError(t, "9223372036854775808")
	require.Contains(t, err.Error(), "invalid integer")
}

func TestFloatLiterals(t *testing.T) {
	tests := []struct {
		input string
		value float64
	}{
		{"1.5", 1.5},
		{"0.25", 0.25},
		{"1e-9", 1e-9},
		{"2E+4", 20000.0},
		{"3e2", 300.0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := mustParse(t, tt.input)
			lit, ok := program.First().(*ast.ExprStmt).X.(*ast.Float)
			require.True(t, ok)
			require.Equal(t, tt.value, lit.Value)
		})
	}
}

func TestStringLiterals(t *testing.T) {
	program := mustParse(t, `"hello"`)
	lit, ok := program.First().(*ast.ExprStmt).X.(*ast.String)
	require.True(t, ok)
	require.Equal(t, "hello", lit.Value)
	require.Equal(t, `"hello"`, lit.Literal)

	// The literal keeps the source spelling; the value is interpreted.
	program = mustParse(t, `"tab\tend"`)
	lit = program.First().(*ast.ExprStmt).X.(*ast.String)
	require.Equal(t, "tab\tend", lit.Value)
	require.Equal(t, `"tab\tend"`, lit.Literal)

	program = mustParse(t, `"\x41é"`)
	lit = program.First().(*ast.ExprStmt).X.(*ast.String)
	require.Equal(t, "Aé", lit.Value)

	program = mustParse(t, `"héllo ⺟"`)
	lit = program.First().(*ast.ExprStmt).X.(*ast.String)
	require.Equal(t, "héllo ⺟", lit.Value)

	err := parseError(t, `"unterminated`)
	require.Contains(t, err.Error(), "unterminated string literal")
}

func TestBoolNilLiterals(t *testing.T) {
	program := mustParse(t, "true")
	b, ok := program.First().(*ast.ExprStmt).X.(*ast.Bool)
	require.True(t, ok)
	require.True(t, b.Value)

	program = mustParse(t, "false")
	b = program.First().(*ast.ExprStmt).X.(*ast.Bool)
	require.False(t, b.Value)

	program = mustParse(t, "nil")
	_, ok = program.First().(*ast.ExprStmt).X.(*ast.Nil)
	require.True(t, ok)
}

func TestArrayLiterals(t *testing.T) {
	program := mustParse(t, "[]")
	arr, ok := program.First().(*ast.ExprStmt).X.(*ast.Array)
	require.True(t, ok)
	require.Empty(t, arr.Elems)

	program = mustParse(t, "[1, 2 * 2, 3 + 3]")
	arr = program.First().(*ast.ExprStmt).X.(*ast.Array)
	require.Len(t, arr.Elems, 3)
	require.Equal(t, "1", arr.Elems[0].String())
	require.Equal(t, "(2 * 2)", arr.Elems[1].String())
	require.Equal(t, "(3 + 3)", arr.Elems[2].String())

	program = mustParse(t, "[[1], [2]]")
	arr = program.First().(*ast.ExprStmt).X.(*ast.Array)
	require.Len(t, arr.Elems, 2)
	_, ok = arr.Elems[0].(*ast.Array)
	require.True(t, ok)

	program = mustParse(t, "[1, 2,]")
	arr = program.First().(*ast.ExprStmt).X.(*ast.Array)
	require.Len(t, arr.Elems, 2)

	program = mustParse(t, `[1, "two", true, nil, [3]]`)
	arr = program.First().(*ast.ExprStmt).X.(*ast.Array)
	require.Len(t, arr.Elems, 5)

	program = mustParse(t, "[\n1,\n2\n]")
	arr = program.First().(*ast.ExprStmt).X.(*ast.Array)
	require.Len(t, arr.Elems, 2)
}

func TestArrayLiteralErrors(t *testing.T) {
	err := parseError(t, "[1, 2")
	require.Contains(t, err.Error(), `expected "]"`)

	err = parseError(t, "[,]")
	require.Contains(t, err.Error(), "invalid syntax")
}

func TestRecordLiterals(t *testing.T) {
	program := mustParse(t, "{}")
	rec, ok := program.First().(*ast.ExprStmt).X.(*ast.Record)
	require.True(t, ok)
	require.Empty(t, rec.Fields)

	program = mustParse(t, "{a: 1, b: 2}")
	rec = program.First().(*ast.ExprStmt).X.(*ast.Record)
	require.Len(t, rec.Fields, 2)
	require.Equal(t, "a", rec.Fields[0].Name)
	require.Equal(t, "1", rec.Fields[0].Value.String())
	require.Equal(t, "b", rec.Fields[1].Name)

	program = mustParse(t, "{p: {x: 1}}")
	rec = program.First().(*ast.ExprStmt).X.(*ast.Record)
	_, ok = rec.Fields[0].Value.(*ast.Record)
	require.True(t, ok)

	program = mustParse(t, "{sum: 1 + 2}")
	rec = program.First().(*ast.ExprStmt).X.(*ast.Record)
	require.Equal(t, "(1 + 2)", rec.Fields[0].Value.String())

	program = mustParse(t, "{xs: [1, 2], n: 3,}")
	rec = program.First().(*ast.ExprStmt).X.(*ast.Record)
	require.Len(t, rec.Fields, 2)

	// Field order is source order.
	program = mustParse(t, "{z: 1, a: 2, m: 3}")
	rec = program.First().(*ast.ExprStmt).X.(*ast.Record)
	require.Equal(t, "z", rec.Fields[0].Name)
	require.Equal(t, "a", rec.Fields[1].Name)
	require.Equal(t, "m", rec.Fields[2].Name)

	// Duplicate field names are a semantic error, not a parse error.
	program = mustParse(t, "{a: 1, a: 2}")
	rec = program.First().(*ast.ExprStmt).X.(*ast.Record)
	require.Len(t, rec.Fields, 2)
}

func TestRecordLiteralErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{"{a 1}", `expected ":"`},
		{"{1: 2}", "expected a field name in record literal"},
		{"{a: }", "invalid syntax"},
		{"{a: 1", `expected "}"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := parseError(t, tt.input)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
