// Package op defines opcodes used by the Tarn compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	Halt        Code = 2
	Call        Code = 3
	ReturnValue Code = 4

	// Jump
	JumpBackward          Code = 10
	JumpForward           Code = 11
	PopJumpForwardIfFalse Code = 12
	PopJumpForwardIfTrue  Code = 13

	// Load
	LoadConst    Code = 20
	LoadFast     Code = 21
	LoadGlobal   Code = 22
	LoadCell     Code = 23 // read through the cell held in a local slot
	LoadFree     Code = 24 // read through a captured environment cell
	LoadFreeCell Code = 25 // push a captured environment cell itself
	LoadField    Code = 26 // read a named record field
	LoadIndex    Code = 27 // read an array element

	// Store
	StoreFast   Code = 30
	StoreGlobal Code = 31
	StoreCell   Code = 32 // write through the cell held in a local slot
	StoreFree   Code = 33 // write through a captured environment cell

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryNot      Code = 43

	// Build
	BuildArray  Code = 50
	BuildRecord Code = 51

	// Stack
	Swap   Code = 60
	Copy   Code = 61
	PopTop Code = 62
	Length Code = 63 // pop an array or string, push its length

	// Push constants
	Nil   Code = 70
	False Code = 71
	True  Code = 72

	// Closures
	LoadClosure Code = 80

	// Pattern matching
	MatchPattern Code = 90 // test a pattern against a scrutinee slot
	MatchFail    Code = 91 // trap: no cond arm matched
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add        BinaryOpType = 1
	Subtract   BinaryOpType = 2
	Multiply   BinaryOpType = 3
	Divide     BinaryOpType = 4
	Modulo     BinaryOpType = 5
	Xor        BinaryOpType = 6
	LShift     BinaryOpType = 7
	RShift     BinaryOpType = 8
	BitwiseAnd BinaryOpType = 9
	BitwiseOr  BinaryOpType = 10
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case Xor:
		return "^"
	case LShift:
		return "<<"
	case RShift:
		return ">>"
	case BitwiseAnd:
		return "&"
	case BitwiseOr:
		return "|"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", 1},
		{BuildArray, "BUILD_ARRAY", 1},
		{BuildRecord, "BUILD_RECORD", 1},
		{Call, "CALL", 1},
		{CompareOp, "COMPARE_OP", 1},
		{Copy, "COPY", 1},
		{False, "FALSE", 0},
		{Halt, "HALT", 0},
		{JumpBackward, "JUMP_BACKWARD", 1},
		{JumpForward, "JUMP_FORWARD", 1},
		{LoadCell, "LOAD_CELL", 1},
		{LoadClosure, "LOAD_CLOSURE", 2},
		{LoadConst, "LOAD_CONST", 1},
		{LoadFast, "LOAD_FAST", 1},
		{LoadField, "LOAD_FIELD", 1},
		{LoadFree, "LOAD_FREE", 1},
		{LoadFreeCell, "LOAD_FREE_CELL", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{LoadIndex, "LOAD_INDEX", 0},
		{Length, "LENGTH", 0},
		{MatchFail, "MATCH_FAIL", 0},
		{MatchPattern, "MATCH_PATTERN", 2},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1},
		{PopJumpForwardIfTrue, "POP_JUMP_FORWARD_IF_TRUE", 1},
		{PopTop, "POP_TOP", 0},
		{ReturnValue, "RETURN_VALUE", 0},
		{StoreCell, "STORE_CELL", 1},
		{StoreFast, "STORE_FAST", 1},
		{StoreFree, "STORE_FREE", 1},
		{StoreGlobal, "STORE_GLOBAL", 1},
		{Swap, "SWAP", 1},
		{True, "TRUE", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}
