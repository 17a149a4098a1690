package bytecode

import (
	"sort"
	"strings"
)

// FormatVersion is the serialization format version written by Marshal.
// Units carry no cross-version compatibility guarantee: Unmarshal rejects
// any other version.
const FormatVersion = 1

// Unit is an immutable compilation unit: the bundle passed from the
// compiler to the VM. It holds the main (top-level) function, a constant
// pool shared by every function in the unit, and a table of global function
// entry points keyed by name.
type Unit struct {
	id            string
	formatVersion int
	main          *Function
	constants     []any
	names         []string
	globalNames   []string
	entryPoints   map[string]int
	filename      string
	source        string
}

// UnitParams contains parameters for creating a new Unit.
type UnitParams struct {
	ID          string
	Main        *Function
	Constants   []any // nil, bool, int64, float64, string, *Function, *Pattern, *RecordShape
	Names       []string
	GlobalNames []string
	EntryPoints map[string]int // Function name to constant-pool index
	Filename    string
	Source      string
}

// NewUnit creates a new immutable Unit from the given parameters.
// Input slices and maps are copied to ensure immutability.
func NewUnit(params UnitParams) *Unit {
	entryPoints := make(map[string]int, len(params.EntryPoints))
	for name, index := range params.EntryPoints {
		entryPoints[name] = index
	}
	return &Unit{
		id:            params.ID,
		formatVersion: FormatVersion,
		main:          params.Main,
		constants:     copyAny(params.Constants),
		names:         copyStrings(params.Names),
		globalNames:   copyStrings(params.GlobalNames),
		entryPoints:   entryPoints,
		filename:      params.Filename,
		source:        params.Source,
	}
}

// ID returns the unique identifier assigned to this unit at compile time.
func (u *Unit) ID() string {
	return u.id
}

// FormatVersion returns the serialization format version.
func (u *Unit) FormatVersion() int {
	return u.formatVersion
}

// Main returns the top-level function executed by a plain run of the unit.
func (u *Unit) Main() *Function {
	return u.main
}

// ConstantCount returns the number of constants in the pool.
func (u *Unit) ConstantCount() int {
	return len(u.constants)
}

// ConstantAt returns the constant at the given pool index.
func (u *Unit) ConstantAt(index int) any {
	return u.constants[index]
}

// NameCount returns the number of field names used by the unit.
func (u *Unit) NameCount() int {
	return len(u.names)
}

// NameAt returns the field name at the given index.
func (u *Unit) NameAt(index int) string {
	return u.names[index]
}

// GlobalNameCount returns the number of global variable slots.
func (u *Unit) GlobalNameCount() int {
	return len(u.globalNames)
}

// GlobalNameAt returns the global variable name at the given slot index.
// Returns an empty string if the index is out of range.
func (u *Unit) GlobalNameAt(index int) string {
	if index < 0 || index >= len(u.globalNames) {
		return ""
	}
	return u.globalNames[index]
}

// GlobalNames returns a copy of all global variable names, in slot order.
func (u *Unit) GlobalNames() []string {
	if len(u.globalNames) == 0 {
		return nil
	}
	names := make([]string, len(u.globalNames))
	copy(names, u.globalNames)
	return names
}

// EntryPoint returns the constant-pool index of the named global function.
func (u *Unit) EntryPoint(name string) (int, bool) {
	index, ok := u.entryPoints[name]
	return index, ok
}

// EntryPointCount returns the number of named entry points.
func (u *Unit) EntryPointCount() int {
	return len(u.entryPoints)
}

// EntryPointNames returns the names of all entry points, sorted.
func (u *Unit) EntryPointNames() []string {
	names := make([]string, 0, len(u.entryPoints))
	for name := range u.entryPoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filename returns the source filename.
func (u *Unit) Filename() string {
	return u.filename
}

// Source returns the source code the unit was compiled from.
func (u *Unit) Source() string {
	return u.source
}

// GetSourceLine returns the source code line at the given 1-based line
// number, or an empty string if the line is out of range.
func (u *Unit) GetSourceLine(lineNum int) string {
	if u.source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(u.source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Functions returns the main function followed by every function template
// in the constant pool, in pool order. The returned slice is newly
// allocated.
func (u *Unit) Functions() []*Function {
	fns := make([]*Function, 0, 1+len(u.constants))
	if u.main != nil {
		fns = append(fns, u.main)
	}
	for _, constant := range u.constants {
		if fn, ok := constant.(*Function); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Stats returns statistics about this unit.
func (u *Unit) Stats() Stats {
	var stats Stats
	for _, constant := range u.constants {
		switch constant.(type) {
		case *Function:
			stats.FunctionCount++
		case *Pattern:
			stats.PatternCount++
		}
	}
	for _, fn := range u.Functions() {
		stats.InstructionCount += fn.InstructionCount()
	}
	stats.ConstantCount = len(u.constants)
	stats.GlobalCount = len(u.globalNames)
	stats.SourceBytes = len(u.source)
	return stats
}
