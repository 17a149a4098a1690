// Package object defines the runtime value model shared by the compiler,
// the virtual machine, and the garbage collector.
//
// A Value is a small tagged struct passed by copy. Nil, booleans, integers,
// and floats are stored immediately in the Value itself; strings, arrays,
// records, closures, and cells are stored as a pointer to a HeapObject
// managed by the collector. Two Values are interchangeable whenever they
// hold the same immediate payload or point at the same HeapObject.
package object

import (
	"strconv"
	"strings"
)

// Kind identifies the runtime type of a Value or HeapObject.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindRecord
	KindClosure
	KindCell
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	case KindClosure:
		return "closure"
	case KindCell:
		return "cell"
	default:
		return "unknown"
	}
}

// Value is a single runtime value. The zero Value is nil.
type Value struct {
	kind Kind
	i    int64
	f    float64
	ref  *HeapObject
}

// Canonical immediate values.
var (
	Nil   = Value{kind: KindNil}
	True  = Value{kind: KindBool, i: 1}
	False = Value{kind: KindBool}
)

// NewBool returns the canonical boolean Value for b.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewInt returns an integer Value.
func NewInt(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// NewFloat returns a float Value.
func NewFloat(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// NewRef wraps a heap object in a Value. The Value's kind mirrors the
// object's kind so callers can switch on v.Kind() without checking IsRef.
func NewRef(obj *HeapObject) Value {
	return Value{kind: obj.kind, ref: obj}
}

// Kind returns the runtime type tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsRef reports whether the value points at a heap object.
func (v Value) IsRef() bool { return v.ref != nil }

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Bool returns the boolean payload. The caller must have checked that the
// kind is KindBool.
func (v Value) Bool() bool { return v.i != 0 }

// Int returns the integer payload. The caller must have checked that the
// kind is KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload. The caller must have checked that the
// kind is KindFloat.
func (v Value) Float() float64 { return v.f }

// AsFloat returns the value as a float64, converting integers. The caller
// must have checked IsNumber.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Ref returns the heap object the value points at, or nil for immediates.
func (v Value) Ref() *HeapObject { return v.ref }

// Inspect returns a printable representation of the value. Strings are
// quoted; arrays and records render their elements recursively. Arrays and
// records are immutable once built, so neither can contain itself and the
// recursion always terminates.
func (v Value) Inspect() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return strconv.Quote(v.ref.str)
	case KindArray:
		var sb strings.Builder
		sb.WriteString("[")
		for i, elem := range v.ref.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(elem.Inspect())
		}
		sb.WriteString("]")
		return sb.String()
	case KindRecord:
		var sb strings.Builder
		sb.WriteString("{")
		for i, field := range v.ref.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.ref.shape.FieldAt(i))
			sb.WriteString(": ")
			sb.WriteString(field.Inspect())
		}
		sb.WriteString("}")
		return sb.String()
	case KindClosure:
		return v.ref.fn.String()
	case KindCell:
		return "cell(" + v.ref.cell.Inspect() + ")"
	default:
		return "unknown"
	}
}

// String returns the unquoted text for strings and Inspect output for
// everything else. It is the representation used when printing values.
func (v Value) String() string {
	if v.kind == KindString {
		return v.ref.str
	}
	return v.Inspect()
}
