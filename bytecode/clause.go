package bytecode

// Clause describes one parameter-pattern alternative of a function. A call
// dispatches to the first clause whose arity matches the argument count and
// whose patterns all match the arguments, tested in declaration order.
type Clause struct {
	NumParams      int   // Number of parameters this clause accepts
	PatternIndices []int // Constant-pool index of each parameter pattern
	Entry          int   // Instruction offset where the clause body begins
}

// Capture describes how one free variable of a closure is obtained from the
// enclosing frame when the closure is created.
type Capture struct {
	Name  string // Variable name (for disassembly and diagnostics)
	Local bool   // True if the cell lives in a local slot of the enclosing frame
	Index int    // Enclosing local slot index, or enclosing free-cell index
}
