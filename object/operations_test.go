package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/op"
)

func TestBinaryOpInts(t *testing.T) {
	tests := []struct {
		op   op.BinaryOpType
		a, b int64
		want int64
	}{
		{op.Add, 2, 3, 5},
		{op.Subtract, 2, 3, -1},
		{op.Multiply, 4, 3, 12},
		{op.Divide, 7, 2, 3},
		{op.Divide, -7, 2, -3},
		{op.Modulo, 7, 2, 1},
		{op.Modulo, -7, 2, -1},
		{op.Xor, 6, 3, 5},
		{op.LShift, 1, 4, 16},
		{op.RShift, 16, 2, 4},
		{op.BitwiseAnd, 6, 3, 2},
		{op.BitwiseOr, 6, 3, 7},
	}
	for _, tt := range tests {
		got, err := BinaryOp(tt.op, NewInt(tt.a), NewInt(tt.b))
		require.NoError(t, err, "%d %s %d", tt.a, tt.op, tt.b)
		require.Equal(t, KindInt, got.Kind())
		require.Equal(t, tt.want, got.Int(), "%d %s %d", tt.a, tt.op, tt.b)
	}
}

func TestBinaryOpFloats(t *testing.T) {
	tests := []struct {
		op   op.BinaryOpType
		a, b Value
		want float64
	}{
		{op.Add, NewFloat(2.5), NewFloat(1.5), 4.0},
		{op.Add, NewInt(2), NewFloat(1.5), 3.5},
		{op.Subtract, NewFloat(2.5), NewInt(1), 1.5},
		{op.Multiply, NewFloat(1.5), NewFloat(2.0), 3.0},
		{op.Divide, NewFloat(7), NewInt(2), 3.5},
	}
	for _, tt := range tests {
		got, err := BinaryOp(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		require.Equal(t, KindFloat, got.Kind())
		require.Equal(t, tt.want, got.Float())
	}
}

func TestBinaryOpDivisionByZero(t *testing.T) {
	_, err := BinaryOp(op.Divide, NewInt(1), NewInt(0))
	require.ErrorIs(t, err, ErrDivisionByZero)

	_, err = BinaryOp(op.Modulo, NewInt(1), NewInt(0))
	require.ErrorIs(t, err, ErrDivisionByZero)

	// Float division follows IEEE 754 instead of failing.
	got, err := BinaryOp(op.Divide, NewFloat(1), NewFloat(0))
	require.NoError(t, err)
	require.True(t, math.IsInf(got.Float(), 1))
}

func TestBinaryOpIntOnly(t *testing.T) {
	intOnly := []op.BinaryOpType{
		op.Modulo, op.Xor, op.LShift, op.RShift, op.BitwiseAnd, op.BitwiseOr,
	}
	for _, opType := range intOnly {
		_, err := BinaryOp(opType, NewFloat(1), NewInt(2))
		require.ErrorContains(t, err, "unsupported operand types")
	}
}

func TestBinaryOpTypeErrors(t *testing.T) {
	s := NewRef(NewString("a"))
	_, err := BinaryOp(op.Add, s, NewInt(1))
	require.ErrorContains(t, err, "unsupported operand types for +: string and int")

	_, err = BinaryOp(op.Add, NewInt(1), Nil)
	require.ErrorContains(t, err, "int and nil")

	_, err = BinaryOp(op.Multiply, True, True)
	require.Error(t, err)
}

func TestBinaryOpNegativeShift(t *testing.T) {
	_, err := BinaryOp(op.LShift, NewInt(1), NewInt(-1))
	require.ErrorContains(t, err, "negative shift count")

	_, err = BinaryOp(op.RShift, NewInt(1), NewInt(-1))
	require.ErrorContains(t, err, "negative shift count")
}

func TestCompareOrdering(t *testing.T) {
	tests := []struct {
		op   op.CompareOpType
		a, b Value
		want bool
	}{
		{op.LessThan, NewInt(1), NewInt(2), true},
		{op.LessThan, NewInt(2), NewInt(2), false},
		{op.LessThanOrEqual, NewInt(2), NewInt(2), true},
		{op.GreaterThan, NewInt(3), NewInt(2), true},
		{op.GreaterThanOrEqual, NewInt(1), NewInt(2), false},
		{op.LessThan, NewInt(1), NewFloat(1.5), true},
		{op.GreaterThan, NewFloat(2.5), NewInt(2), true},
		{op.LessThanOrEqual, NewFloat(2.0), NewInt(2), true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		require.Equal(t, KindBool, got.Kind())
		require.Equal(t, tt.want, got.Bool(), "%s %s %s", tt.a.Inspect(), tt.op, tt.b.Inspect())
	}
}

func TestCompareOrderingNaN(t *testing.T) {
	nan := NewFloat(math.NaN())
	for _, opType := range []op.CompareOpType{
		op.LessThan, op.LessThanOrEqual, op.GreaterThan, op.GreaterThanOrEqual,
	} {
		got, err := Compare(opType, nan, NewFloat(1))
		require.NoError(t, err)
		require.False(t, got.Bool())
	}
}

func TestCompareOrderingTypeError(t *testing.T) {
	a := NewRef(NewString("a"))
	b := NewRef(NewString("b"))
	_, err := Compare(op.LessThan, a, b)
	require.ErrorContains(t, err, "unsupported operand types for <: string and string")

	_, err = Compare(op.GreaterThan, Nil, NewInt(1))
	require.Error(t, err)
}

func TestCompareEquality(t *testing.T) {
	eq, err := Compare(op.Equal, NewInt(1), NewFloat(1.0))
	require.NoError(t, err)
	require.True(t, eq.Bool())

	ne, err := Compare(op.NotEqual, NewInt(1), NewRef(NewString("1")))
	require.NoError(t, err)
	require.True(t, ne.Bool())

	// Equality never fails, even for kinds with no ordering.
	eq, err = Compare(op.Equal, Nil, Nil)
	require.NoError(t, err)
	require.True(t, eq.Bool())
}

func TestEquals(t *testing.T) {
	a1 := NewRef(NewArray([]Value{NewInt(1), NewInt(2)}))
	a2 := NewRef(NewArray([]Value{NewInt(1), NewInt(2)}))
	a3 := NewRef(NewArray([]Value{NewInt(1)}))
	nested1 := NewRef(NewArray([]Value{a1, NewRef(NewString("x"))}))
	nested2 := NewRef(NewArray([]Value{a2, NewRef(NewString("x"))}))

	tests := []struct {
		a, b Value
		want bool
	}{
		{Nil, Nil, true},
		{Nil, False, false},
		{True, True, true},
		{True, False, false},
		{True, NewInt(1), false},
		{NewInt(1), NewInt(1), true},
		{NewInt(1), NewFloat(1.0), true},
		{NewFloat(1.5), NewFloat(1.5), true},
		{NewInt(1), NewInt(2), false},
		{NewRef(NewString("a")), NewRef(NewString("a")), true},
		{NewRef(NewString("a")), NewRef(NewString("b")), false},
		{NewRef(NewString("1")), NewInt(1), false},
		{a1, a2, true},
		{a1, a1, true},
		{a1, a3, false},
		{nested1, nested2, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Equals(tt.a, tt.b),
			"%s == %s", tt.a.Inspect(), tt.b.Inspect())
	}
}

func TestEqualsRecordsIgnoreFieldOrder(t *testing.T) {
	xy := bytecode.NewRecordShape([]string{"x", "y"})
	yx := bytecode.NewRecordShape([]string{"y", "x"})
	xz := bytecode.NewRecordShape([]string{"x", "z"})

	r1 := NewRef(NewRecord(xy, []Value{NewInt(1), NewInt(2)}))
	r2 := NewRef(NewRecord(yx, []Value{NewInt(2), NewInt(1)}))
	r3 := NewRef(NewRecord(xy, []Value{NewInt(1), NewInt(3)}))
	r4 := NewRef(NewRecord(xz, []Value{NewInt(1), NewInt(2)}))

	require.True(t, Equals(r1, r2))
	require.False(t, Equals(r1, r3))
	require.False(t, Equals(r1, r4))
}

func TestEqualsClosuresAndCellsByIdentity(t *testing.T) {
	fn := testFunction(t)
	c1 := NewRef(NewClosure(fn, nil))
	c2 := NewRef(NewClosure(fn, nil))
	require.True(t, Equals(c1, c1))
	require.False(t, Equals(c1, c2))

	cell1 := NewRef(NewCell(NewInt(1)))
	cell2 := NewRef(NewCell(NewInt(1)))
	require.True(t, Equals(cell1, cell1))
	require.False(t, Equals(cell1, cell2))
}
