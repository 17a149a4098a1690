package bytecode

import (
	"bytes"
	"testing"

	"github.com/tarn-lang/tarn/op"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	inner := NewFunction(FunctionParams{
		Name:        "double",
		Clauses:     []Clause{{NumParams: 1, PatternIndices: []int{2}, Entry: 0}},
		LocalsCount: 1,
		Instructions: []op.Code{
			op.LoadFast, 0,
			op.LoadConst, 0,
			op.BinaryOp, op.Code(op.Multiply),
			op.ReturnValue,
		},
		Locations: []SourceLocation{
			{Line: 1, Column: 1}, {Line: 1, Column: 1},
			{Line: 1, Column: 5}, {Line: 1, Column: 5},
			{Line: 1, Column: 3}, {Line: 1, Column: 3},
			{Line: 1, Column: 1},
		},
		LocalNames: []string{"x"},
	})
	main := NewFunction(FunctionParams{
		Name:        "main",
		Proc:        true,
		Clauses:     []Clause{{NumParams: 0, Entry: 0}},
		LocalsCount: 1,
		Instructions: []op.Code{
			op.LoadGlobal, 0,
			op.LoadConst, 0,
			op.Call, 1,
			op.ReturnValue,
		},
	})
	unit := NewUnit(UnitParams{
		ID:          "unit-42",
		Main:        main,
		Constants:   []any{int64(2), inner, NewBindingPattern("x", 0, false)},
		Names:       []string{"field"},
		GlobalNames: []string{"double"},
		EntryPoints: map[string]int{"double": 1},
		Filename:    "test.tarn",
		Source:      "proc main () => { double(2) }",
	})

	data, err := Marshal(unit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.ID() != "unit-42" {
		t.Errorf("expected ID 'unit-42', got %v", restored.ID())
	}
	if restored.Filename() != "test.tarn" {
		t.Errorf("expected filename 'test.tarn', got %v", restored.Filename())
	}
	if restored.Source() != unit.Source() {
		t.Errorf("unexpected source: %v", restored.Source())
	}
	if restored.ConstantCount() != 3 {
		t.Fatalf("expected 3 constants, got %v", restored.ConstantCount())
	}
	if restored.ConstantAt(0) != int64(2) {
		t.Errorf("expected constant 0 to be 2, got %v", restored.ConstantAt(0))
	}

	restoredMain := restored.Main()
	if restoredMain == nil {
		t.Fatal("expected main function")
	}
	if restoredMain.Name() != "main" || !restoredMain.IsProc() {
		t.Errorf("unexpected main: %v", restoredMain)
	}
	if restoredMain.InstructionCount() != 7 {
		t.Errorf("expected 7 instruction words, got %v", restoredMain.InstructionCount())
	}

	restoredInner, ok := restored.ConstantAt(1).(*Function)
	if !ok {
		t.Fatalf("expected constant 1 to be *Function, got %T", restored.ConstantAt(1))
	}
	if restoredInner.Name() != "double" {
		t.Errorf("expected function name 'double', got %v", restoredInner.Name())
	}
	if restoredInner.ClauseCount() != 1 {
		t.Fatalf("expected 1 clause, got %v", restoredInner.ClauseCount())
	}
	clause := restoredInner.ClauseAt(0)
	if clause.NumParams != 1 || clause.PatternIndices[0] != 2 || clause.Entry != 0 {
		t.Errorf("unexpected clause: %+v", clause)
	}
	if loc := restoredInner.LocationAt(2); loc.Line != 1 || loc.Column != 5 {
		t.Errorf("unexpected location: %v", loc)
	}
	if restoredInner.LocalNameAt(0) != "x" {
		t.Errorf("expected local name 'x', got %v", restoredInner.LocalNameAt(0))
	}

	restoredPattern, ok := restored.ConstantAt(2).(*Pattern)
	if !ok {
		t.Fatalf("expected constant 2 to be *Pattern, got %T", restored.ConstantAt(2))
	}
	if restoredPattern.Kind() != PatternBinding || restoredPattern.Name() != "x" {
		t.Errorf("unexpected pattern: %v", restoredPattern)
	}

	index, ok := restored.EntryPoint("double")
	if !ok || index != 1 {
		t.Errorf("expected entry point 'double' at 1, got %v/%v", index, ok)
	}
}

func TestMarshalUnmarshalConstantTypes(t *testing.T) {
	main := NewFunction(FunctionParams{
		Name:         "main",
		Clauses:      []Clause{{Entry: 0}},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})
	unit := NewUnit(UnitParams{
		Main: main,
		Constants: []any{
			nil,
			true,
			false,
			int64(42),
			3.14,
			"hello",
		},
	})

	data, err := Marshal(unit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.ConstantCount() != 6 {
		t.Fatalf("expected 6 constants, got %v", restored.ConstantCount())
	}
	if restored.ConstantAt(0) != nil {
		t.Errorf("expected constant 0 to be nil, got %v", restored.ConstantAt(0))
	}
	if restored.ConstantAt(1) != true {
		t.Errorf("expected constant 1 to be true, got %v", restored.ConstantAt(1))
	}
	if restored.ConstantAt(2) != false {
		t.Errorf("expected constant 2 to be false, got %v", restored.ConstantAt(2))
	}
	if restored.ConstantAt(3) != int64(42) {
		t.Errorf("expected constant 3 to be 42, got %v (%T)",
			restored.ConstantAt(3), restored.ConstantAt(3))
	}
	if restored.ConstantAt(4) != 3.14 {
		t.Errorf("expected constant 4 to be 3.14, got %v", restored.ConstantAt(4))
	}
	if restored.ConstantAt(5) != "hello" {
		t.Errorf("expected constant 5 to be 'hello', got %v", restored.ConstantAt(5))
	}
}

func TestMarshalUnmarshalPatterns(t *testing.T) {
	nested := NewRecordPattern([]PatternField{
		{Name: "x", Pattern: NewLiteralPattern(int64(0))},
		{Name: "y", Pattern: NewBindingPattern("y", 0, true)},
		{Name: "inner", Pattern: NewRecordPattern([]PatternField{
			{Name: "z", Pattern: NewWildcardPattern()},
		})},
	})
	main := NewFunction(FunctionParams{
		Name:        "main",
		Clauses:     []Clause{{Entry: 0}},
		LocalsCount: 1,
		Instructions: []op.Code{
			op.Nil,
			op.StoreFast, 0,
			op.MatchPattern, 0, 0,
			op.PopTop,
			op.Nil,
			op.ReturnValue,
		},
	})
	unit := NewUnit(UnitParams{Main: main, Constants: []any{nested}})

	data, err := Marshal(unit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	pattern, ok := restored.ConstantAt(0).(*Pattern)
	if !ok {
		t.Fatalf("expected *Pattern, got %T", restored.ConstantAt(0))
	}
	if pattern.Kind() != PatternRecord || pattern.FieldCount() != 3 {
		t.Fatalf("unexpected pattern: %v", pattern)
	}
	if f := pattern.FieldAt(0); f.Name != "x" || f.Pattern.Literal() != int64(0) {
		t.Errorf("unexpected field 0: %v", f)
	}
	if f := pattern.FieldAt(1); !f.Pattern.Boxed() || f.Pattern.Slot() != 0 {
		t.Errorf("unexpected field 1: %v", f)
	}
	if f := pattern.FieldAt(2); f.Pattern.Kind() != PatternRecord ||
		f.Pattern.FieldAt(0).Pattern.Kind() != PatternWildcard {
		t.Errorf("unexpected field 2: %v", f)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	unit := validUnit(t)
	first, err := Marshal(unit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := Marshal(unit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected canonical encoding to be deterministic")
	}
}

func TestUnmarshalRejectsBadVersion(t *testing.T) {
	def := unitDef{
		FormatVersion: 99,
		Main:          &functionDef{Clauses: []clauseDef{{}}},
	}
	data, err := cborEncMode.Marshal(&def)
	if err != nil {
		t.Fatalf("marshal wire struct: %v", err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected version error")
	}
}

func TestUnmarshalValidates(t *testing.T) {
	// A structurally well-formed envelope whose bytecode is not
	// self-consistent must be rejected at Unmarshal time.
	main := NewFunction(FunctionParams{
		Name:         "main",
		Clauses:      []Clause{{Entry: 0}},
		Instructions: []op.Code{op.LoadConst, 9, op.ReturnValue},
	})
	unit := NewUnit(UnitParams{Main: main})
	data, err := Marshal(unit)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
