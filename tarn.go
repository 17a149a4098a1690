// Package tarn is the embedding API for the Tarn language: parse, check,
// compile, and evaluate Tarn source from Go.
//
// The typical entry point is Eval, which runs a source string and returns
// the value of its last expression as a native Go value:
//
//	result, err := tarn.Eval(ctx, "1 + 2")
//
// Compile returns a Program instead, which can be run repeatedly; each run
// gets a fresh heap and fresh global state.
package tarn

import (
	"context"

	"github.com/tarn-lang/tarn/analyzer"
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/compiler"
	"github.com/tarn-lang/tarn/object"
	"github.com/tarn-lang/tarn/parser"
)

// Parse parses source and returns the syntax tree without analyzing it.
func Parse(ctx context.Context, source string, opts ...Option) (*ast.Program, error) {
	o := collectOptions(opts...)
	return parser.Parse(ctx, source, o.parserOpts()...)
}

// Check parses and analyzes source. The returned error aggregates every
// diagnostic the analyzer found; the Info is non-nil only when the program
// passed all checks.
func Check(ctx context.Context, source string, opts ...Option) (*analyzer.Info, error) {
	o := collectOptions(opts...)
	program, err := parser.Parse(ctx, source, o.parserOpts()...)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(program, analyzer.Config{
		Filename: o.filename,
		Source:   source,
	})
}

// Compile parses, analyzes, and compiles source into a Program. The
// Program is immutable and can be run any number of times.
func Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)
	program, err := parser.Parse(ctx, source, o.parserOpts()...)
	if err != nil {
		return nil, err
	}
	info, err := analyzer.Analyze(program, analyzer.Config{
		Filename: o.filename,
		Source:   source,
	})
	if err != nil {
		return nil, err
	}
	unit, err := compiler.Compile(program, info, compiler.Config{
		Filename: o.filename,
		Source:   source,
	})
	if err != nil {
		return nil, err
	}
	return &Program{unit: unit, source: source, filename: o.filename}, nil
}

// Eval compiles and runs source, returning the value of the program's last
// expression as a native Go value.
func Eval(ctx context.Context, source string, opts ...Option) (any, error) {
	program, err := Compile(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return program.Run(ctx, opts...)
}

// goValue converts a runtime value into its Go representation: nil, bool,
// int64, float64, string, []any, or map[string]any. Closures and cells
// have no Go equivalent and convert to their Inspect string.
func goValue(v object.Value) any {
	switch v.Kind() {
	case object.KindNil:
		return nil
	case object.KindBool:
		return v.Bool()
	case object.KindInt:
		return v.Int()
	case object.KindFloat:
		return v.Float()
	case object.KindString:
		return v.Ref().StringValue()
	case object.KindArray:
		arr := v.Ref()
		out := make([]any, arr.ArrayLen())
		for i := range out {
			out[i] = goValue(arr.ArrayElem(i))
		}
		return out
	case object.KindRecord:
		rec := v.Ref()
		shape := rec.Shape()
		out := make(map[string]any, shape.FieldCount())
		for i := 0; i < shape.FieldCount(); i++ {
			out[shape.FieldAt(i)] = goValue(rec.RecordField(i))
		}
		return out
	default:
		return v.Inspect()
	}
}
