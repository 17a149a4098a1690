package bytecode

// Stats contains statistics about a compiled unit.
// This is useful for auditing scripts before execution.
type Stats struct {
	// InstructionCount is the total number of instruction words across all
	// functions, including the main function.
	InstructionCount int

	// ConstantCount is the number of constants in the pool.
	ConstantCount int

	// GlobalCount is the number of global variable slots.
	GlobalCount int

	// FunctionCount is the number of function templates in the pool.
	FunctionCount int

	// PatternCount is the number of compiled patterns in the pool.
	PatternCount int

	// SourceBytes is the size of the original source code in bytes.
	SourceBytes int
}
