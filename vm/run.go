package vm

import (
	"context"

	"github.com/tarn-lang/tarn/analyzer"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/compiler"
	"github.com/tarn-lang/tarn/object"
	"github.com/tarn-lang/tarn/parser"
)

// Run parses, checks, compiles, and executes source in a fresh VM,
// returning the value of the program's last expression.
func Run(ctx context.Context, source string, options ...Option) (object.Value, error) {
	unit, err := compileSource(ctx, source)
	if err != nil {
		return object.Nil, err
	}
	machine, err := New(unit, options...)
	if err != nil {
		return object.Nil, err
	}
	return machine.Run(ctx)
}

func compileSource(ctx context.Context, source string) (*bytecode.Unit, error) {
	program, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	info, err := analyzer.Analyze(program, analyzer.Config{Source: source})
	if err != nil {
		return nil, err
	}
	return compiler.Compile(program, info, compiler.Config{Source: source})
}
