package compiler

import (
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/op"

	"github.com/tarn-lang/tarn/analyzer"
)

// loopContext tracks one loop being compiled. Break and continue emit
// placeholder jumps recorded here and patched when the loop's start and end
// offsets are known.
type loopContext struct {
	breakPos    []int
	continuePos []int
}

// fragment accumulates the instructions of one function while its body is
// compiled. The compiler keeps a stack of fragments: compiling a nested
// function declaration or closure literal pushes a fresh fragment and pops
// it into a *bytecode.Function template.
type fragment struct {
	name         string
	proc         bool
	info         *analyzer.FunctionInfo
	instructions []op.Code
	locations    []bytecode.SourceLocation
	clauses      []bytecode.Clause
	loops        []*loopContext
}

func (f *fragment) currentLoop() *loopContext {
	if len(f.loops) == 0 {
		return nil
	}
	return f.loops[len(f.loops)-1]
}

func (f *fragment) pushLoop() *loopContext {
	loop := &loopContext{}
	f.loops = append(f.loops, loop)
	return loop
}

func (f *fragment) popLoop() {
	f.loops = f.loops[:len(f.loops)-1]
}

// build finalizes the fragment into an immutable function template.
func (f *fragment) build() *bytecode.Function {
	return bytecode.NewFunction(bytecode.FunctionParams{
		Name:         f.name,
		Proc:         f.proc,
		Clauses:      f.clauses,
		LocalsCount:  f.info.LocalsCount,
		CellSlots:    f.info.CellSlots,
		Captures:     f.info.Captures,
		Instructions: f.instructions,
		Locations:    f.locations,
		LocalNames:   f.info.LocalNames,
	})
}
