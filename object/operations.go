package object

import (
	"errors"
	"fmt"

	"github.com/tarn-lang/tarn/op"
)

// ErrDivisionByZero is returned by BinaryOp for integer division or modulo
// with a zero divisor. Float division follows IEEE 754 instead.
var ErrDivisionByZero = errors.New("division by zero")

// BinaryOp applies an arithmetic or bitwise operation to two values. Both
// operands must be numbers; modulo, shifts, and the bitwise operations
// additionally require integers. Mixed int/float operands promote to float,
// and integer division truncates toward zero.
func BinaryOp(opType op.BinaryOpType, a, b Value) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return Nil, unsupportedOperands(opType.String(), a, b)
	}
	if a.kind == KindInt && b.kind == KindInt {
		return intBinaryOp(opType, a.i, b.i)
	}
	switch opType {
	case op.Modulo, op.Xor, op.LShift, op.RShift, op.BitwiseAnd, op.BitwiseOr:
		return Nil, unsupportedOperands(opType.String(), a, b)
	}
	return floatBinaryOp(opType, a.AsFloat(), b.AsFloat())
}

func intBinaryOp(opType op.BinaryOpType, a, b int64) (Value, error) {
	switch opType {
	case op.Add:
		return NewInt(a + b), nil
	case op.Subtract:
		return NewInt(a - b), nil
	case op.Multiply:
		return NewInt(a * b), nil
	case op.Divide:
		if b == 0 {
			return Nil, ErrDivisionByZero
		}
		return NewInt(a / b), nil
	case op.Modulo:
		if b == 0 {
			return Nil, ErrDivisionByZero
		}
		return NewInt(a % b), nil
	case op.Xor:
		return NewInt(a ^ b), nil
	case op.LShift:
		if b < 0 {
			return Nil, fmt.Errorf("negative shift count: %d", b)
		}
		return NewInt(a << uint64(b)), nil
	case op.RShift:
		if b < 0 {
			return Nil, fmt.Errorf("negative shift count: %d", b)
		}
		return NewInt(a >> uint64(b)), nil
	case op.BitwiseAnd:
		return NewInt(a & b), nil
	case op.BitwiseOr:
		return NewInt(a | b), nil
	default:
		return Nil, fmt.Errorf("unknown binary operation: %d", opType)
	}
}

func floatBinaryOp(opType op.BinaryOpType, a, b float64) (Value, error) {
	switch opType {
	case op.Add:
		return NewFloat(a + b), nil
	case op.Subtract:
		return NewFloat(a - b), nil
	case op.Multiply:
		return NewFloat(a * b), nil
	case op.Divide:
		return NewFloat(a / b), nil
	default:
		return Nil, fmt.Errorf("unknown binary operation: %d", opType)
	}
}

// Compare applies a comparison to two values. Equality and inequality are
// defined for every kind; the ordering comparisons require numbers.
func Compare(opType op.CompareOpType, a, b Value) (Value, error) {
	switch opType {
	case op.Equal:
		return NewBool(Equals(a, b)), nil
	case op.NotEqual:
		return NewBool(!Equals(a, b)), nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return Nil, unsupportedOperands(opType.String(), a, b)
	}
	if a.kind == KindInt && b.kind == KindInt {
		return compareInts(opType, a.i, b.i)
	}
	return compareFloats(opType, a.AsFloat(), b.AsFloat())
}

func compareInts(opType op.CompareOpType, a, b int64) (Value, error) {
	switch opType {
	case op.LessThan:
		return NewBool(a < b), nil
	case op.LessThanOrEqual:
		return NewBool(a <= b), nil
	case op.GreaterThan:
		return NewBool(a > b), nil
	case op.GreaterThanOrEqual:
		return NewBool(a >= b), nil
	default:
		return Nil, fmt.Errorf("unknown comparison operation: %d", opType)
	}
}

func compareFloats(opType op.CompareOpType, a, b float64) (Value, error) {
	switch opType {
	case op.LessThan:
		return NewBool(a < b), nil
	case op.LessThanOrEqual:
		return NewBool(a <= b), nil
	case op.GreaterThan:
		return NewBool(a > b), nil
	case op.GreaterThanOrEqual:
		return NewBool(a >= b), nil
	default:
		return Nil, fmt.Errorf("unknown comparison operation: %d", opType)
	}
}

// Equals reports whether two values are equal. Numbers compare by value
// across int and float, strings by content, arrays element-wise, and
// records field-wise by name without regard to field order. Closures and
// cells compare by identity. Arrays and records are immutable once built,
// so neither can contain itself and the recursion always terminates.
func Equals(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.i == b.i
		}
		return a.AsFloat() == b.AsFloat()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.i == b.i
	case KindString:
		return a.ref.str == b.ref.str
	case KindArray:
		if a.ref == b.ref {
			return true
		}
		if len(a.ref.elems) != len(b.ref.elems) {
			return false
		}
		for i, elem := range a.ref.elems {
			if !Equals(elem, b.ref.elems[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if a.ref == b.ref {
			return true
		}
		as, bs := a.ref.shape, b.ref.shape
		if as.FieldCount() != bs.FieldCount() {
			return false
		}
		for i := 0; i < as.FieldCount(); i++ {
			bv, ok := b.ref.RecordGet(as.FieldAt(i))
			if !ok || !Equals(a.ref.fields[i], bv) {
				return false
			}
		}
		return true
	default:
		return a.ref == b.ref
	}
}

func unsupportedOperands(opName string, a, b Value) error {
	return fmt.Errorf("unsupported operand types for %s: %s and %s",
		opName, a.kind, b.kind)
}
