package bytecode

import (
	"bytes"
	"fmt"

	"github.com/tarn-lang/tarn/op"
)

// Function represents a compiled function or procedure template.
// It is immutable after creation and contains all the static information
// needed to dispatch calls and create closures at runtime.
type Function struct {
	name         string
	proc         bool
	clauses      []Clause
	localsCount  int
	cellSlots    []int
	captures     []Capture
	instructions []op.Code
	locations    []SourceLocation
	localNames   []string
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	Name         string
	Proc         bool
	Clauses      []Clause
	LocalsCount  int
	CellSlots    []int // Local slots that must be boxed into cells at activation
	Captures     []Capture
	Instructions []op.Code
	Locations    []SourceLocation
	LocalNames   []string // For debugging and disassembly
}

// NewFunction creates a new immutable Function from the given parameters.
// Input slices are copied to ensure immutability.
func NewFunction(params FunctionParams) *Function {
	clauses := make([]Clause, len(params.Clauses))
	for i, clause := range params.Clauses {
		clauses[i] = Clause{
			NumParams:      clause.NumParams,
			PatternIndices: copyInts(clause.PatternIndices),
			Entry:          clause.Entry,
		}
	}
	captures := make([]Capture, len(params.Captures))
	copy(captures, params.Captures)
	return &Function{
		name:         params.Name,
		proc:         params.Proc,
		clauses:      clauses,
		localsCount:  params.LocalsCount,
		cellSlots:    copyInts(params.CellSlots),
		captures:     captures,
		instructions: copyInstructions(params.Instructions),
		locations:    copyLocations(params.Locations),
		localNames:   copyStrings(params.LocalNames),
	}
}

// Name returns the function name, or empty string for anonymous closures.
func (f *Function) Name() string {
	return f.name
}

// IsProc returns true if this is a procedure, which may perform effects.
// Pure functions may not call procedures or mutate enclosing bindings.
func (f *Function) IsProc() bool {
	return f.proc
}

// ClauseCount returns the number of dispatch clauses.
func (f *Function) ClauseCount() int {
	return len(f.clauses)
}

// ClauseAt returns the dispatch clause at the given index. The returned
// Clause shares its PatternIndices slice with the Function; callers must
// not modify it.
func (f *Function) ClauseAt(index int) Clause {
	return f.clauses[index]
}

// LocalsCount returns the number of local variable slots.
func (f *Function) LocalsCount() int {
	return f.localsCount
}

// CellSlotCount returns the number of local slots boxed at activation.
func (f *Function) CellSlotCount() int {
	return len(f.cellSlots)
}

// CellSlotAt returns the boxed local slot at the given index.
func (f *Function) CellSlotAt(index int) int {
	return f.cellSlots[index]
}

// CaptureCount returns the number of free variables the function captures.
func (f *Function) CaptureCount() int {
	return len(f.captures)
}

// CaptureAt returns the capture descriptor at the given index.
func (f *Function) CaptureAt(index int) Capture {
	return f.captures[index]
}

// InstructionCount returns the number of instruction words.
func (f *Function) InstructionCount() int {
	return len(f.instructions)
}

// InstructionAt returns the instruction word at the given offset.
func (f *Function) InstructionAt(offset int) op.Code {
	return f.instructions[offset]
}

// LocationCount returns the number of recorded source locations.
func (f *Function) LocationCount() int {
	return len(f.locations)
}

// LocationAt returns the source location for the instruction word at the
// given offset. Out-of-range offsets return the zero location.
func (f *Function) LocationAt(offset int) SourceLocation {
	if offset < 0 || offset >= len(f.locations) {
		return SourceLocation{}
	}
	return f.locations[offset]
}

// LocalNameCount returns the number of recorded local variable names.
func (f *Function) LocalNameCount() int {
	return len(f.localNames)
}

// LocalNameAt returns the local variable name at the given slot index.
// Returns an empty string if the index is out of range or unnamed.
func (f *Function) LocalNameAt(index int) string {
	if index < 0 || index >= len(f.localNames) {
		return ""
	}
	return f.localNames[index]
}

// String returns a short description of the function template.
func (f *Function) String() string {
	var out bytes.Buffer
	if f.proc {
		out.WriteString("proc")
	} else {
		out.WriteString("func")
	}
	if f.name != "" {
		out.WriteString(" " + f.name)
	}
	if len(f.clauses) == 1 {
		fmt.Fprintf(&out, "/%d", f.clauses[0].NumParams)
	} else {
		fmt.Fprintf(&out, " (%d clauses)", len(f.clauses))
	}
	return out.String()
}
