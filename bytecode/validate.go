package bytecode

import (
	"fmt"

	"github.com/tarn-lang/tarn/op"
)

// Validate checks that the unit is internally self-consistent: every jump
// target lands on an instruction boundary within its function, every
// constant, name, global, local and free-variable index resolves within the
// unit's own tables, and every entry point refers to a function in the pool.
// A unit that fails validation must not be executed.
func (u *Unit) Validate() error {
	if u.main == nil {
		return fmt.Errorf("invalid unit: missing main function")
	}
	if u.formatVersion != FormatVersion {
		return fmt.Errorf("invalid unit: unsupported format version %d", u.formatVersion)
	}
	for name, index := range u.entryPoints {
		if index < 0 || index >= len(u.constants) {
			return fmt.Errorf("invalid unit: entry point %q: constant index %d out of range", name, index)
		}
		if _, ok := u.constants[index].(*Function); !ok {
			return fmt.Errorf("invalid unit: entry point %q: constant %d is not a function", name, index)
		}
	}
	for _, fn := range u.Functions() {
		if err := u.validateFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

type jumpSite struct {
	offset int
	target int
}

func (u *Unit) validateFunction(fn *Function) error {
	name := fn.Name()
	if name == "" {
		name = "<anonymous>"
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("invalid unit: function %s: %s", name, fmt.Sprintf(format, args...))
	}

	if len(fn.clauses) == 0 {
		return fail("no dispatch clauses")
	}
	count := len(fn.instructions)

	// First pass: walk instruction boundaries, checking operand presence and
	// all table indices. Jump targets are collected and checked afterwards,
	// once the full set of valid offsets is known.
	offsets := make(map[int]bool, count/2+1)
	var jumps []jumpSite
	for ip := 0; ip < count; {
		offsets[ip] = true
		opcode := fn.instructions[ip]
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return fail("unknown opcode %d at offset %d", opcode, ip)
		}
		next := ip + 1 + info.OperandCount
		if next > count {
			return fail("truncated %s at offset %d", info.Name, ip)
		}
		operand := func(i int) int {
			return int(fn.instructions[ip+1+i])
		}
		switch opcode {
		case op.LoadConst:
			index := operand(0)
			if index >= len(u.constants) {
				return fail("constant index %d out of range at offset %d", index, ip)
			}
			switch u.constants[index].(type) {
			case nil, bool, int64, float64, string:
			default:
				return fail("constant %d is not a loadable value at offset %d", index, ip)
			}
		case op.LoadFast, op.StoreFast, op.LoadCell, op.StoreCell:
			if slot := operand(0); slot >= fn.localsCount {
				return fail("local slot %d out of range at offset %d", slot, ip)
			}
		case op.LoadGlobal, op.StoreGlobal:
			if index := operand(0); index >= len(u.globalNames) {
				return fail("global index %d out of range at offset %d", index, ip)
			}
		case op.LoadFree, op.StoreFree, op.LoadFreeCell:
			if index := operand(0); index >= len(fn.captures) {
				return fail("free variable index %d out of range at offset %d", index, ip)
			}
		case op.LoadField:
			if index := operand(0); index >= len(u.names) {
				return fail("field name index %d out of range at offset %d", index, ip)
			}
		case op.LoadClosure:
			index := operand(0)
			if index >= len(u.constants) {
				return fail("constant index %d out of range at offset %d", index, ip)
			}
			target, ok := u.constants[index].(*Function)
			if !ok {
				return fail("constant %d is not a function at offset %d", index, ip)
			}
			if freeCount := operand(1); freeCount != target.CaptureCount() {
				return fail("closure at offset %d pushes %d cells, function captures %d",
					ip, freeCount, target.CaptureCount())
			}
		case op.MatchPattern:
			index := operand(0)
			if index >= len(u.constants) {
				return fail("constant index %d out of range at offset %d", index, ip)
			}
			pattern, ok := u.constants[index].(*Pattern)
			if !ok {
				return fail("constant %d is not a pattern at offset %d", index, ip)
			}
			if err := validatePattern(pattern, fn.localsCount); err != nil {
				return fail("%v at offset %d", err, ip)
			}
			if slot := operand(1); slot >= fn.localsCount {
				return fail("scrutinee slot %d out of range at offset %d", slot, ip)
			}
		case op.BuildRecord:
			index := operand(0)
			if index >= len(u.constants) {
				return fail("constant index %d out of range at offset %d", index, ip)
			}
			if _, ok := u.constants[index].(*RecordShape); !ok {
				return fail("constant %d is not a record shape at offset %d", index, ip)
			}
		case op.BinaryOp:
			if op.BinaryOpType(operand(0)).String() == "" {
				return fail("unknown binary operator %d at offset %d", operand(0), ip)
			}
		case op.CompareOp:
			if op.CompareOpType(operand(0)).String() == "" {
				return fail("unknown comparison operator %d at offset %d", operand(0), ip)
			}
		case op.JumpForward, op.PopJumpForwardIfFalse, op.PopJumpForwardIfTrue:
			jumps = append(jumps, jumpSite{offset: ip, target: ip + operand(0)})
		case op.JumpBackward:
			jumps = append(jumps, jumpSite{offset: ip, target: ip - operand(0)})
		}
		ip = next
	}

	// A jump may land on any instruction boundary or one past the final
	// instruction, which ends execution of the function.
	for _, jump := range jumps {
		if jump.target == count || offsets[jump.target] {
			continue
		}
		return fail("jump at offset %d targets %d, not an instruction boundary",
			jump.offset, jump.target)
	}

	for i, clause := range fn.clauses {
		if clause.NumParams != len(clause.PatternIndices) {
			return fail("clause %d declares %d parameters but has %d patterns",
				i, clause.NumParams, len(clause.PatternIndices))
		}
		for _, index := range clause.PatternIndices {
			if index < 0 || index >= len(u.constants) {
				return fail("clause %d: pattern index %d out of range", i, index)
			}
			pattern, ok := u.constants[index].(*Pattern)
			if !ok {
				return fail("clause %d: constant %d is not a pattern", i, index)
			}
			if err := validatePattern(pattern, fn.localsCount); err != nil {
				return fail("clause %d: %v", i, err)
			}
		}
		if !offsets[clause.Entry] {
			return fail("clause %d entry %d is not an instruction boundary", i, clause.Entry)
		}
	}

	for _, slot := range fn.cellSlots {
		if slot < 0 || slot >= fn.localsCount {
			return fail("cell slot %d out of range", slot)
		}
	}
	for i, capture := range fn.captures {
		if capture.Index < 0 {
			return fail("capture %d has negative index", i)
		}
	}
	return nil
}

func validatePattern(p *Pattern, localsCount int) error {
	if p == nil {
		return fmt.Errorf("nil pattern")
	}
	switch p.kind {
	case PatternLiteral:
		switch p.literal.(type) {
		case nil, bool, int64, float64, string:
			return nil
		default:
			return fmt.Errorf("literal pattern holds unsupported value %T", p.literal)
		}
	case PatternWildcard:
		return nil
	case PatternBinding:
		if p.slot < 0 || p.slot >= localsCount {
			return fmt.Errorf("binding pattern %q slot %d out of range", p.name, p.slot)
		}
		return nil
	case PatternRecord:
		for _, field := range p.fields {
			if err := validatePattern(field.Pattern, localsCount); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown pattern kind %d", p.kind)
	}
}
