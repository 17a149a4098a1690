package object

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/op"
)

func TestValueKinds(t *testing.T) {
	require.Equal(t, KindNil, Nil.Kind())
	require.True(t, Nil.IsNil())
	require.False(t, Nil.IsRef())

	require.Equal(t, KindBool, True.Kind())
	require.True(t, True.Bool())
	require.False(t, False.Bool())
	require.Equal(t, True, NewBool(true))
	require.Equal(t, False, NewBool(false))

	i := NewInt(-42)
	require.Equal(t, KindInt, i.Kind())
	require.Equal(t, int64(-42), i.Int())
	require.True(t, i.IsNumber())

	f := NewFloat(2.5)
	require.Equal(t, KindFloat, f.Kind())
	require.Equal(t, 2.5, f.Float())
	require.True(t, f.IsNumber())

	require.False(t, True.IsNumber())
	require.False(t, Nil.IsNumber())
}

func TestZeroValueIsNil(t *testing.T) {
	var v Value
	require.True(t, v.IsNil())
	require.Equal(t, "nil", v.Inspect())
}

func TestNewRefMirrorsKind(t *testing.T) {
	s := NewRef(NewString("hi"))
	require.Equal(t, KindString, s.Kind())
	require.True(t, s.IsRef())
	require.Equal(t, "hi", s.Ref().StringValue())

	c := NewRef(NewCell(NewInt(1)))
	require.Equal(t, KindCell, c.Kind())
}

func TestAsFloat(t *testing.T) {
	require.Equal(t, 3.0, NewInt(3).AsFloat())
	require.Equal(t, 3.5, NewFloat(3.5).AsFloat())
}

func TestInspect(t *testing.T) {
	shape := bytecode.NewRecordShape([]string{"x", "y"})
	rec := NewRef(NewRecord(shape, []Value{NewInt(1), NewFloat(2.5)}))
	arr := NewRef(NewArray([]Value{NewInt(1), NewRef(NewString("a")), Nil}))

	tests := []struct {
		value Value
		want  string
	}{
		{Nil, "nil"},
		{True, "true"},
		{False, "false"},
		{NewInt(42), "42"},
		{NewFloat(3.14), "3.14"},
		{NewFloat(2), "2"},
		{NewRef(NewString("he\"y")), `"he\"y"`},
		{arr, `[1, "a", nil]`},
		{rec, "{x: 1, y: 2.5}"},
		{NewRef(NewCell(NewInt(7))), "cell(7)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.value.Inspect())
	}

	clo := NewRef(NewClosure(testFunction(t), nil))
	require.Equal(t, "func f/0", clo.Inspect())
}

func TestValueString(t *testing.T) {
	require.Equal(t, "hey", NewRef(NewString("hey")).String())
	require.Equal(t, "42", NewInt(42).String())
}

func TestHeapObjectSizes(t *testing.T) {
	require.Equal(t, BaseObjectSize+3, NewString("abc").Size())
	require.Equal(t, BaseObjectSize, NewString("").Size())

	arr := NewArray([]Value{NewInt(1), NewInt(2)})
	require.Equal(t, BaseObjectSize+2*ValueSlotSize, arr.Size())

	shape := bytecode.NewRecordShape([]string{"x"})
	rec := NewRecord(shape, []Value{NewInt(1)})
	require.Equal(t, BaseObjectSize+ValueSlotSize, rec.Size())

	cell := NewCell(Nil)
	require.Equal(t, BaseObjectSize, cell.Size())

	clo := NewClosure(testFunction(t), []*HeapObject{cell})
	require.Equal(t, BaseObjectSize+ValueSlotSize, clo.Size())
}

func TestArrayAccessors(t *testing.T) {
	arr := NewArray([]Value{NewInt(10), NewInt(20)})
	require.Equal(t, KindArray, arr.Kind())
	require.Equal(t, 2, arr.ArrayLen())
	require.Equal(t, int64(20), arr.ArrayElem(1).Int())
}

func TestRecordAccessors(t *testing.T) {
	shape := bytecode.NewRecordShape([]string{"x", "y"})
	rec := NewRecord(shape, []Value{NewInt(1), NewInt(2)})
	require.Equal(t, KindRecord, rec.Kind())
	require.Equal(t, shape, rec.Shape())
	require.Equal(t, int64(2), rec.RecordField(1).Int())

	v, ok := rec.RecordGet("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.Int())

	_, ok = rec.RecordGet("z")
	require.False(t, ok)
}

func TestClosureAccessors(t *testing.T) {
	fn := testFunction(t)
	cell := NewCell(NewInt(1))
	clo := NewClosure(fn, []*HeapObject{cell})
	require.Equal(t, KindClosure, clo.Kind())
	require.Equal(t, fn, clo.Function())
	require.Equal(t, 1, clo.FreeVarCount())
	require.Equal(t, cell, clo.FreeVar(0))
}

func TestCellMutation(t *testing.T) {
	cell := NewCell(NewInt(1))
	require.Equal(t, int64(1), cell.CellValue().Int())

	cell.SetCellValue(NewRef(NewString("swapped")))
	require.Equal(t, "swapped", cell.CellValue().Ref().StringValue())
	require.Equal(t, BaseObjectSize, cell.Size())
}

func TestEachRef(t *testing.T) {
	str := NewString("s")
	inner := NewArray([]Value{NewRef(str)})
	arr := NewArray([]Value{NewInt(1), NewRef(inner), Nil})

	var seen []*HeapObject
	arr.EachRef(func(o *HeapObject) { seen = append(seen, o) })
	require.Equal(t, []*HeapObject{inner}, seen)

	seen = nil
	cell := NewCell(NewRef(str))
	cell.EachRef(func(o *HeapObject) { seen = append(seen, o) })
	require.Equal(t, []*HeapObject{str}, seen)

	seen = nil
	clo := NewClosure(testFunction(t), []*HeapObject{cell})
	clo.EachRef(func(o *HeapObject) { seen = append(seen, o) })
	require.Equal(t, []*HeapObject{cell}, seen)

	seen = nil
	str.EachRef(func(o *HeapObject) { seen = append(seen, o) })
	require.Empty(t, seen)

	seen = nil
	emptyCell := NewCell(NewInt(3))
	emptyCell.EachRef(func(o *HeapObject) { seen = append(seen, o) })
	require.Empty(t, seen)
}

func TestInitRecyclesObject(t *testing.T) {
	obj := NewString("hello")
	require.Equal(t, BaseObjectSize+5, obj.Size())

	obj.InitArray([]Value{NewInt(1)})
	require.Equal(t, KindArray, obj.Kind())
	require.Equal(t, BaseObjectSize+ValueSlotSize, obj.Size())
	require.Equal(t, "", obj.StringValue())

	obj.InitCell(Nil)
	require.Equal(t, KindCell, obj.Kind())
	require.Equal(t, 0, obj.ArrayLen())
}

func testFunction(t *testing.T) *bytecode.Function {
	t.Helper()
	return bytecode.NewFunction(bytecode.FunctionParams{
		Name: "f",
		Clauses: []bytecode.Clause{
			{NumParams: 0, Entry: 0},
		},
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})
}
