package bytecode

import (
	"testing"

	"github.com/tarn-lang/tarn/op"
)

func TestNewUnitImmutability(t *testing.T) {
	main := NewFunction(FunctionParams{
		Name:         "main",
		Clauses:      []Clause{{NumParams: 0, Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})

	constants := []any{int64(42), "hello"}
	names := []string{"x", "y"}
	globalNames := []string{"counter"}
	entryPoints := map[string]int{"f": 0}

	unit := NewUnit(UnitParams{
		ID:          "test",
		Main:        main,
		Constants:   constants,
		Names:       names,
		GlobalNames: globalNames,
		EntryPoints: entryPoints,
	})

	// Modify the original inputs
	constants[0] = int64(99)
	names[0] = "modified"
	globalNames[0] = "modified_global"
	entryPoints["f"] = 7

	// Verify the unit was not affected by the modifications
	if unit.ConstantAt(0) != int64(42) {
		t.Errorf("expected constant 0 to be 42, got %v", unit.ConstantAt(0))
	}
	if unit.NameAt(0) != "x" {
		t.Errorf("expected name 0 to be 'x', got %v", unit.NameAt(0))
	}
	if unit.GlobalNameAt(0) != "counter" {
		t.Errorf("expected global name 0 to be 'counter', got %v", unit.GlobalNameAt(0))
	}
	if index, _ := unit.EntryPoint("f"); index != 0 {
		t.Errorf("expected entry point 'f' to be 0, got %v", index)
	}
}

func TestNewFunctionImmutability(t *testing.T) {
	instructions := []op.Code{op.LoadFast, 0, op.ReturnValue}
	clauses := []Clause{{NumParams: 1, PatternIndices: []int{0}, Entry: 0}}
	cellSlots := []int{0}
	captures := []Capture{{Name: "n", Local: true, Index: 2}}

	fn := NewFunction(FunctionParams{
		Name:         "f",
		Clauses:      clauses,
		LocalsCount:  1,
		CellSlots:    cellSlots,
		Captures:     captures,
		Instructions: instructions,
	})

	instructions[0] = op.Nil
	clauses[0].PatternIndices[0] = 9
	cellSlots[0] = 9
	captures[0].Index = 9

	if fn.InstructionAt(0) != op.LoadFast {
		t.Errorf("expected instruction 0 to be LoadFast, got %v", fn.InstructionAt(0))
	}
	if fn.ClauseAt(0).PatternIndices[0] != 0 {
		t.Errorf("expected pattern index 0, got %v", fn.ClauseAt(0).PatternIndices[0])
	}
	if fn.CellSlotAt(0) != 0 {
		t.Errorf("expected cell slot 0, got %v", fn.CellSlotAt(0))
	}
	if fn.CaptureAt(0).Index != 2 {
		t.Errorf("expected capture index 2, got %v", fn.CaptureAt(0).Index)
	}
}

func TestUnitAccessors(t *testing.T) {
	main := NewFunction(FunctionParams{
		Name:         "main",
		Proc:         true,
		Clauses:      []Clause{{NumParams: 0, Entry: 0}},
		LocalsCount:  2,
		Instructions: []op.Code{op.Nil, op.ReturnValue},
		LocalNames:   []string{"a", "b"},
	})
	helper := NewFunction(FunctionParams{
		Name:         "helper",
		Clauses:      []Clause{{NumParams: 0, Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})

	unit := NewUnit(UnitParams{
		ID:          "unit-1",
		Main:        main,
		Constants:   []any{helper, int64(7)},
		Names:       []string{"x"},
		GlobalNames: []string{"helper"},
		EntryPoints: map[string]int{"helper": 0},
		Filename:    "test.tarn",
		Source:      "let a = 7",
	})

	if unit.ID() != "unit-1" {
		t.Errorf("expected ID 'unit-1', got %v", unit.ID())
	}
	if unit.FormatVersion() != FormatVersion {
		t.Errorf("expected format version %d, got %v", FormatVersion, unit.FormatVersion())
	}
	if unit.Main() != main {
		t.Error("expected Main to return the main function")
	}
	if unit.ConstantCount() != 2 {
		t.Errorf("expected 2 constants, got %v", unit.ConstantCount())
	}
	if unit.NameCount() != 1 || unit.NameAt(0) != "x" {
		t.Errorf("unexpected names: count=%d", unit.NameCount())
	}
	if unit.GlobalNameCount() != 1 {
		t.Errorf("expected 1 global, got %v", unit.GlobalNameCount())
	}
	if unit.GlobalNameAt(5) != "" {
		t.Error("expected empty string for out-of-range global index")
	}
	if unit.Filename() != "test.tarn" {
		t.Errorf("expected filename 'test.tarn', got %v", unit.Filename())
	}
	index, ok := unit.EntryPoint("helper")
	if !ok || index != 0 {
		t.Errorf("expected entry point 'helper' at 0, got %v/%v", index, ok)
	}
	if _, ok := unit.EntryPoint("missing"); ok {
		t.Error("expected no entry point for 'missing'")
	}
	if names := unit.EntryPointNames(); len(names) != 1 || names[0] != "helper" {
		t.Errorf("unexpected entry point names: %v", names)
	}

	fns := unit.Functions()
	if len(fns) != 2 || fns[0] != main || fns[1] != helper {
		t.Errorf("unexpected Functions() result: %v", fns)
	}

	if main.LocalNameAt(0) != "a" || main.LocalNameAt(1) != "b" {
		t.Error("unexpected local names")
	}
	if main.LocalNameAt(9) != "" {
		t.Error("expected empty string for out-of-range local name")
	}
	if !main.IsProc() {
		t.Error("expected main to be a proc")
	}
	if helper.IsProc() {
		t.Error("expected helper to be a func")
	}
}

func TestUnitGetSourceLine(t *testing.T) {
	main := NewFunction(FunctionParams{
		Clauses:      []Clause{{Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})
	unit := NewUnit(UnitParams{
		Main:   main,
		Source: "line one\nline two\nline three",
	})

	tests := []struct {
		lineNum  int
		expected string
	}{
		{1, "line one"},
		{2, "line two"},
		{3, "line three"},
		{0, ""},  // out of range
		{4, ""},  // out of range
		{-1, ""}, // negative
	}

	for _, tt := range tests {
		result := unit.GetSourceLine(tt.lineNum)
		if result != tt.expected {
			t.Errorf("GetSourceLine(%d) = %q, expected %q", tt.lineNum, result, tt.expected)
		}
	}
}

func TestUnitStats(t *testing.T) {
	main := NewFunction(FunctionParams{
		Name:         "main",
		Clauses:      []Clause{{Entry: 0}},
		Instructions: []op.Code{op.LoadConst, 0, op.ReturnValue},
	})
	fn := NewFunction(FunctionParams{
		Name:         "f",
		Clauses:      []Clause{{Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})
	unit := NewUnit(UnitParams{
		Main:        main,
		Constants:   []any{int64(1), fn, NewWildcardPattern(), NewRecordShape([]string{"x"})},
		GlobalNames: []string{"f"},
		Source:      "test source",
	})

	stats := unit.Stats()
	if stats.InstructionCount != 5 {
		t.Errorf("expected InstructionCount 5, got %v", stats.InstructionCount)
	}
	if stats.ConstantCount != 4 {
		t.Errorf("expected ConstantCount 4, got %v", stats.ConstantCount)
	}
	if stats.GlobalCount != 1 {
		t.Errorf("expected GlobalCount 1, got %v", stats.GlobalCount)
	}
	if stats.FunctionCount != 1 {
		t.Errorf("expected FunctionCount 1, got %v", stats.FunctionCount)
	}
	if stats.PatternCount != 1 {
		t.Errorf("expected PatternCount 1, got %v", stats.PatternCount)
	}
	if stats.SourceBytes != 11 {
		t.Errorf("expected SourceBytes 11, got %v", stats.SourceBytes)
	}
}

func TestFunctionLocationAt(t *testing.T) {
	fn := NewFunction(FunctionParams{
		Clauses:      []Clause{{Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
		Locations: []SourceLocation{
			{Line: 1, Column: 1},
			{Line: 2, Column: 5},
		},
	})

	if loc := fn.LocationAt(0); loc.Line != 1 || loc.Column != 1 {
		t.Errorf("expected {1, 1}, got {%d, %d}", loc.Line, loc.Column)
	}
	if loc := fn.LocationAt(1); loc.Line != 2 || loc.Column != 5 {
		t.Errorf("expected {2, 5}, got {%d, %d}", loc.Line, loc.Column)
	}
	if loc := fn.LocationAt(-1); !loc.IsZero() {
		t.Errorf("expected zero location for -1, got %v", loc)
	}
	if loc := fn.LocationAt(100); !loc.IsZero() {
		t.Errorf("expected zero location for 100, got %v", loc)
	}
}

func TestPatternString(t *testing.T) {
	tests := []struct {
		pattern  *Pattern
		expected string
	}{
		{NewLiteralPattern(int64(42)), "42"},
		{NewLiteralPattern("hi"), `"hi"`},
		{NewLiteralPattern(nil), "nil"},
		{NewLiteralPattern(true), "true"},
		{NewWildcardPattern(), "_"},
		{NewBindingPattern("n", 0, false), "n"},
		{NewRecordPattern([]PatternField{
			{Name: "x", Pattern: NewLiteralPattern(int64(0))},
			{Name: "y", Pattern: NewBindingPattern("y", 1, false)},
		}), "{x: 0, y}"},
	}
	for _, tt := range tests {
		if got := tt.pattern.String(); got != tt.expected {
			t.Errorf("Pattern.String() = %q, expected %q", got, tt.expected)
		}
	}
}

func TestRecordShape(t *testing.T) {
	shape := NewRecordShape([]string{"x", "y"})
	if shape.FieldCount() != 2 {
		t.Errorf("expected 2 fields, got %v", shape.FieldCount())
	}
	if shape.FieldAt(0) != "x" || shape.FieldAt(1) != "y" {
		t.Error("unexpected field names")
	}
	index, ok := shape.IndexOf("y")
	if !ok || index != 1 {
		t.Errorf("expected IndexOf('y') = 1, got %v/%v", index, ok)
	}
	if _, ok := shape.IndexOf("z"); ok {
		t.Error("expected IndexOf('z') to report absence")
	}
	if shape.String() != "{x, y}" {
		t.Errorf("unexpected shape string: %v", shape.String())
	}
}

func TestFunctionString(t *testing.T) {
	single := NewFunction(FunctionParams{
		Name:         "add",
		Clauses:      []Clause{{NumParams: 2, PatternIndices: []int{0, 1}, Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})
	if single.String() != "func add/2" {
		t.Errorf("unexpected function string: %v", single.String())
	}
	multi := NewFunction(FunctionParams{
		Name: "fib",
		Proc: true,
		Clauses: []Clause{
			{NumParams: 1, PatternIndices: []int{0}, Entry: 0},
			{NumParams: 1, PatternIndices: []int{1}, Entry: 2},
		},
		Instructions: []op.Code{op.Nil, op.ReturnValue, op.Nil, op.ReturnValue},
	})
	if multi.String() != "proc fib (2 clauses)" {
		t.Errorf("unexpected function string: %v", multi.String())
	}
}
