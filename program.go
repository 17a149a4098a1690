package tarn

import (
	"context"
	"fmt"
	"sort"

	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/object"
	"github.com/tarn-lang/tarn/vm"
)

// Program is the compiled representation of Tarn source code. It is
// immutable after creation; every Run builds a fresh VM with its own heap
// and globals, so a Program may be run concurrently from many goroutines.
type Program struct {
	unit     *bytecode.Unit
	source   string
	filename string
}

// Source returns the original source code that was compiled.
func (p *Program) Source() string {
	return p.source
}

// Filename returns the filename associated with this program, if any.
func (p *Program) Filename() string {
	return p.filename
}

// GlobalNames returns the names of the program's global bindings.
func (p *Program) GlobalNames() []string {
	return p.unit.GlobalNames()
}

// EntryPoints returns the names of the program's top-level function
// declarations, which are callable via Call.
func (p *Program) EntryPoints() []string {
	return p.unit.EntryPointNames()
}

// Unit returns the underlying bytecode unit, for disassembly and
// serialization.
func (p *Program) Unit() *bytecode.Unit {
	return p.unit
}

// Run executes the program in a fresh VM and returns the value of its last
// expression as a native Go value.
func (p *Program) Run(ctx context.Context, opts ...Option) (any, error) {
	o := collectOptions(opts...)
	machine, err := vm.New(p.unit, o.vmOpts()...)
	if err != nil {
		return nil, err
	}
	result, err := machine.Run(ctx)
	if err != nil {
		return nil, err
	}
	return goValue(result), nil
}

// Call runs the program, then invokes the named top-level function with
// the given Go arguments. Arguments may be nil, bool, int, int64, float64,
// string, []any, or map[string]any.
func (p *Program) Call(ctx context.Context, name string, args []any, opts ...Option) (any, error) {
	o := collectOptions(opts...)
	machine, err := vm.New(p.unit, o.vmOpts()...)
	if err != nil {
		return nil, err
	}
	if _, err := machine.Run(ctx); err != nil {
		return nil, err
	}
	values := make([]object.Value, len(args))
	for i, arg := range args {
		values[i], err = tarnValue(machine, arg)
		if err != nil {
			return nil, err
		}
	}
	result, err := machine.Call(ctx, name, values)
	if err != nil {
		return nil, err
	}
	return goValue(result), nil
}

// tarnValue converts a Go value into a runtime value on the machine's
// heap.
func tarnValue(machine *vm.VM, arg any) (object.Value, error) {
	switch arg := arg.(type) {
	case nil:
		return object.Nil, nil
	case bool:
		return object.NewBool(arg), nil
	case int:
		return object.NewInt(int64(arg)), nil
	case int64:
		return object.NewInt(arg), nil
	case float64:
		return object.NewFloat(arg), nil
	case string:
		return machine.NewString(arg)
	case []any:
		elems := make([]object.Value, len(arg))
		for i, elem := range arg {
			v, err := tarnValue(machine, elem)
			if err != nil {
				return object.Nil, err
			}
			elems[i] = v
		}
		obj, err := machine.Heap().AllocArray(elems)
		if err != nil {
			return object.Nil, err
		}
		return object.NewRef(obj), nil
	case map[string]any:
		names := make([]string, 0, len(arg))
		for name := range arg {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]object.Value, len(names))
		for i, name := range names {
			v, err := tarnValue(machine, arg[name])
			if err != nil {
				return object.Nil, err
			}
			fields[i] = v
		}
		shape := bytecode.NewRecordShape(names)
		obj, err := machine.Heap().AllocRecord(shape, fields)
		if err != nil {
			return object.Nil, err
		}
		return object.NewRef(obj), nil
	default:
		return object.Nil, fmt.Errorf("unsupported argument type %T", arg)
	}
}
