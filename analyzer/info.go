package analyzer

import (
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/bytecode"
)

// FunctionInfo summarizes the frame layout of one function: a declared
// function, a closure literal, or the implicit function wrapping the
// program's top-level statements.
type FunctionInfo struct {
	// LocalsCount is the number of frame slots the function needs, counting
	// every clause's bindings and any hidden temporaries.
	LocalsCount int

	// CellSlots lists the local slots that must be boxed into fresh cells
	// when a frame is activated, because a nested closure captures them.
	CellSlots []int

	// Captures describes how each of the function's own free variables is
	// obtained from the enclosing frame when a closure is created.
	Captures []bytecode.Capture

	// LocalNames maps each frame slot to the binding it holds. Slots
	// introduced for hidden temporaries have empty names.
	LocalNames []string
}

// LoopSlots identifies the hidden frame slots a for-in loop uses to hold
// the array being iterated and the current element index.
type LoopSlots struct {
	Array int
	Index int
}

// Info is the product of analysis: everything compilation needs to emit
// code without re-deriving scope or binding facts.
type Info struct {
	resolutions map[ast.Node]*Resolution
	functions   map[ast.Node]*FunctionInfo
	condSlots   map[*ast.Cond]int
	loopSlots   map[*ast.ForIn]LoopSlots
	globals     []string
	globalFuncs []*ast.FuncDecl
}

func newInfo() *Info {
	return &Info{
		resolutions: map[ast.Node]*Resolution{},
		functions:   map[ast.Node]*FunctionInfo{},
		condSlots:   map[*ast.Cond]int{},
		loopSlots:   map[*ast.ForIn]LoopSlots{},
	}
}

// ResolutionOf returns how the identifier or pattern binding at node
// reaches its symbol.
func (i *Info) ResolutionOf(node ast.Node) (*Resolution, bool) {
	res, ok := i.resolutions[node]
	return res, ok
}

// FunctionOf returns frame facts for a function declaration, a closure
// literal, or the program root.
func (i *Info) FunctionOf(node ast.Node) (*FunctionInfo, bool) {
	fn, ok := i.functions[node]
	return fn, ok
}

// CondSlot returns the hidden frame slot holding the scrutinee of the given
// cond expression while its arms are tested.
func (i *Info) CondSlot(c *ast.Cond) (int, bool) {
	slot, ok := i.condSlots[c]
	return slot, ok
}

// ForLoopSlots returns the hidden frame slots used by a for-in loop.
func (i *Info) ForLoopSlots(f *ast.ForIn) (LoopSlots, bool) {
	slots, ok := i.loopSlots[f]
	return slots, ok
}

// GlobalNames returns the unit-wide global bindings in slot order.
func (i *Info) GlobalNames() []string { return i.globals }

// GlobalFunctions returns the function declarations made at the top level,
// in source order. These are the unit's callable entry points.
func (i *Info) GlobalFunctions() []*ast.FuncDecl { return i.globalFuncs }
