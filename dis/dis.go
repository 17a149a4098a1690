// Package dis supports inspection of Tarn bytecode by disassembling it.
// It works with the opcodes defined in the op package and the function
// templates stored in a bytecode unit.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/internal/table"
	"github.com/tarn-lang/tarn/op"
)

// Instruction represents a single decoded instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   any
}

var (
	boldText   = color.New(color.Bold)
	numberText = color.New(color.FgYellow)
	stringText = color.New(color.FgGreen)
	funcText   = color.New(color.FgMagenta)
	annoText   = color.New(color.FgCyan)
)

// Disassemble decodes one function of the unit into instructions. The
// unit's tables provide the annotations: local, global, and field names,
// constant values, and pattern descriptions.
func Disassemble(unit *bytecode.Unit, fn *bytecode.Function) ([]Instruction, error) {
	var instructions []Instruction
	for offset := 0; offset < fn.InstructionCount(); {
		opcode := fn.InstructionAt(offset)
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", opcode, offset)
		}
		if offset+1+info.OperandCount > fn.InstructionCount() {
			return nil, fmt.Errorf("truncated %s at offset %d", info.Name, offset)
		}
		operands := make([]op.Code, info.OperandCount)
		for i := range operands {
			operands[i] = fn.InstructionAt(offset + 1 + i)
		}
		instr := Instruction{
			Offset:   offset,
			Name:     info.Name,
			Opcode:   opcode,
			Operands: operands,
		}
		if err := annotate(&instr, unit, fn); err != nil {
			return nil, err
		}
		instructions = append(instructions, instr)
		offset += 1 + info.OperandCount
	}
	return instructions, nil
}

func annotate(instr *Instruction, unit *bytecode.Unit, fn *bytecode.Function) error {
	operand := func(i int) int { return int(instr.Operands[i]) }
	switch instr.Opcode {
	case op.LoadFast, op.StoreFast, op.LoadCell, op.StoreCell:
		name, err := localName(fn, operand(0))
		if err != nil {
			return err
		}
		instr.Annotation = name
	case op.LoadGlobal, op.StoreGlobal:
		if operand(0) >= unit.GlobalNameCount() {
			return fmt.Errorf("global index out of range: %d", operand(0))
		}
		instr.Annotation = unit.GlobalNameAt(operand(0))
	case op.LoadFree, op.StoreFree, op.LoadFreeCell:
		if operand(0) >= fn.CaptureCount() {
			return fmt.Errorf("free variable index out of range: %d", operand(0))
		}
		instr.Annotation = fn.CaptureAt(operand(0)).Name
	case op.LoadField:
		if operand(0) >= unit.NameCount() {
			return fmt.Errorf("name index out of range: %d", operand(0))
		}
		instr.Annotation = unit.NameAt(operand(0))
	case op.BinaryOp:
		instr.Annotation = op.BinaryOpType(operand(0)).String()
	case op.CompareOp:
		instr.Annotation = op.CompareOpType(operand(0)).String()
	case op.LoadConst:
		c, err := constantAt(unit, operand(0))
		if err != nil {
			return err
		}
		instr.Constant = c
		instr.Annotation = fmt.Sprintf("%v", c)
	case op.LoadClosure:
		c, err := constantAt(unit, operand(0))
		if err != nil {
			return err
		}
		instr.Constant = c
	case op.BuildRecord:
		c, err := constantAt(unit, operand(0))
		if err != nil {
			return err
		}
		if shape, ok := c.(*bytecode.RecordShape); ok {
			instr.Annotation = shape.String()
		}
	case op.MatchPattern:
		c, err := constantAt(unit, operand(0))
		if err != nil {
			return err
		}
		if pattern, ok := c.(*bytecode.Pattern); ok {
			instr.Annotation = pattern.String()
		}
	}
	return nil
}

// Print writes a table listing of the given instructions.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		values := []string{
			fmt.Sprintf("%d", instr.Offset),
			boldText.Sprint(instr.Name),
			formatOperands(instr.Operands),
		}
		if instr.Constant != nil {
			switch c := instr.Constant.(type) {
			case int64:
				values = append(values, numberText.Sprintf("%d", c))
			case float64:
				values = append(values, numberText.Sprintf("%v", c))
			case string:
				if len(c) > 80 {
					c = c[:77] + "..."
				}
				values = append(values, stringText.Sprintf("%q", c))
			case *bytecode.Function:
				name := c.Name()
				if name == "" {
					name = "<anonymous>"
				}
				values = append(values, funcText.Sprintf("func:%s", name))
			default:
				values = append(values, boldText.Sprintf("%v", c))
			}
		} else if instr.Annotation != "" {
			values = append(values, annoText.Sprint(instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// PrintUnit writes a full listing of the unit: the main function followed
// by every other function template in the constant pool, each introduced
// by a heading with its name and clause table.
func PrintUnit(unit *bytecode.Unit, writer io.Writer) error {
	if err := printFunction(unit, unit.Main(), "main", writer); err != nil {
		return err
	}
	for _, fn := range unit.Functions() {
		if fn == unit.Main() {
			continue
		}
		name := fn.Name()
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintln(writer)
		if err := printFunction(unit, fn, name, writer); err != nil {
			return err
		}
	}
	return nil
}

func printFunction(unit *bytecode.Unit, fn *bytecode.Function, name string, writer io.Writer) error {
	fmt.Fprintf(writer, "%s\n", boldText.Sprintf("== %s ==", name))
	if fn.ClauseCount() > 1 || fn != unit.Main() {
		for i := 0; i < fn.ClauseCount(); i++ {
			clause := fn.ClauseAt(i)
			patterns := make([]string, 0, len(clause.PatternIndices))
			for _, index := range clause.PatternIndices {
				c, err := constantAt(unit, index)
				if err != nil {
					return err
				}
				pattern, ok := c.(*bytecode.Pattern)
				if !ok {
					return fmt.Errorf("clause %d: constant %d is not a pattern", i, index)
				}
				patterns = append(patterns, pattern.String())
			}
			fmt.Fprintf(writer, "clause %d: (%s) entry=%d\n",
				i, strings.Join(patterns, ", "), clause.Entry)
		}
	}
	instructions, err := Disassemble(unit, fn)
	if err != nil {
		return err
	}
	Print(instructions, writer)
	return nil
}

func formatOperands(operands []op.Code) string {
	var sb strings.Builder
	for i, o := range operands {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", o)
	}
	return sb.String()
}

func localName(fn *bytecode.Function, index int) (string, error) {
	if index >= fn.LocalsCount() {
		return "", fmt.Errorf("local slot out of range: %d", index)
	}
	if index < fn.LocalNameCount() {
		if name := fn.LocalNameAt(index); name != "" {
			return name, nil
		}
	}
	return fmt.Sprintf("local_%d", index), nil
}

func constantAt(unit *bytecode.Unit, index int) (any, error) {
	if index >= unit.ConstantCount() {
		return nil, fmt.Errorf("constant index out of range: %d", index)
	}
	return unit.ConstantAt(index), nil
}
