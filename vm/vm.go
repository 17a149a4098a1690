// Package vm provides a VM that executes compiled Tarn bytecode units.
package vm

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/gc"
	"github.com/tarn-lang/tarn/object"
	"github.com/tarn-lang/tarn/op"
)

const (
	// MaxArgs is the largest argument count a single call may pass.
	MaxArgs = 256

	// MaxFrameDepth caps call nesting. Exceeding it is a StackOverflow
	// runtime error, not a Go panic.
	MaxFrameDepth = 1024

	// StopSignal is a return-address sentinel marking the bottom frame of
	// an execution. Returning from such a frame ends the run.
	StopSignal = -1

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done().
	DefaultContextCheckInterval = 1000

	initialStackSize = 256
)

// ErrGlobalNotFound is returned by Call when the named entry point does not
// exist in the unit.
var ErrGlobalNotFound = errors.New("global not found")

// VM executes one bytecode unit. It owns the operand stack, the frame
// stack, the global bindings, and the heap, and it enumerates all of them
// as collection roots. A VM is single-threaded; one execution at a time.
type VM struct {
	ip          int // instruction pointer
	sp          int // stack pointer: index of the top value, -1 when empty
	fp          int // frame pointer: index of the active frame
	base        int // offset of the instruction being executed, for locations
	unit        *bytecode.Unit
	consts      []object.Value
	globals     []object.Value
	globalSlots map[string]int
	heap        *gc.Heap
	log         zerolog.Logger
	runID       string
	ranMain     bool
	running     bool

	// contextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Zero disables the check.
	contextCheckInterval int

	activeFrame *frame
	activeFn    *bytecode.Function
	tmp         [MaxArgs]object.Value
	stack       []object.Value
	frames      [MaxFrameDepth]frame
}

// New creates a VM for the given unit. The unit is validated before any
// setup; a unit that fails validation is never executed. String constants
// are interned on the heap once, up front, so LoadConst never allocates.
func New(unit *bytecode.Unit, options ...Option) (*VM, error) {
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	vm := &VM{
		unit:                 unit,
		sp:                   -1,
		fp:                   -1,
		runID:                id.String(),
		log:                  zerolog.Nop(),
		contextCheckInterval: DefaultContextCheckInterval,
		stack:                make([]object.Value, initialStackSize),
	}
	for _, opt := range options {
		opt(vm)
	}
	if vm.heap == nil {
		vm.heap = gc.New(gc.Config{Logger: &vm.log})
	}
	if err := vm.loadConstants(); err != nil {
		return nil, err
	}
	vm.globals = make([]object.Value, unit.GlobalNameCount())
	vm.globalSlots = make(map[string]int, unit.GlobalNameCount())
	for i := 0; i < unit.GlobalNameCount(); i++ {
		vm.globalSlots[unit.GlobalNameAt(i)] = i
	}
	return vm, nil
}

// loadConstants converts the unit's scalar constants into runtime values.
// Function, pattern, and shape constants stay in the unit's pool and are
// read through it directly; their slots here are never loaded.
func (vm *VM) loadConstants() error {
	vm.consts = make([]object.Value, vm.unit.ConstantCount())
	for i := 0; i < vm.unit.ConstantCount(); i++ {
		switch c := vm.unit.ConstantAt(i).(type) {
		case nil:
			vm.consts[i] = object.Nil
		case bool:
			vm.consts[i] = object.NewBool(c)
		case int64:
			vm.consts[i] = object.NewInt(c)
		case float64:
			vm.consts[i] = object.NewFloat(c)
		case string:
			obj, err := vm.heap.InternString(c)
			if err != nil {
				return err
			}
			vm.consts[i] = object.NewRef(obj)
		}
	}
	return nil
}

// Heap returns the VM's heap, for stats and embedding.
func (vm *VM) Heap() *gc.Heap { return vm.heap }

// Global returns the current value of a global binding by name.
func (vm *VM) Global(name string) (object.Value, bool) {
	slot, ok := vm.globalSlots[name]
	if !ok {
		return object.Nil, false
	}
	return vm.globals[slot], true
}

// NewString allocates a string value on the VM's heap. Useful when building
// arguments for Call from Go.
func (vm *VM) NewString(s string) (object.Value, error) {
	obj, err := vm.heap.AllocString(s)
	if err != nil {
		return object.Nil, vm.oom(err)
	}
	return object.NewRef(obj), nil
}

// Run executes the unit's main function and returns the value of its last
// expression. Top-level function declarations are installed as globals as a
// side effect, so Call can be used afterwards.
func (vm *VM) Run(ctx context.Context) (object.Value, error) {
	if vm.running {
		return object.Nil, errors.New("vm: already running")
	}
	vm.running = true
	defer func() { vm.running = false }()

	start := time.Now()
	vm.log.Debug().
		Str("run_id", vm.runID).
		Str("unit_id", vm.unit.ID()).
		Msg("run starting")

	vm.sp = -1
	vm.fp = 0
	vm.ip = 0
	main := vm.unit.Main()
	f := &vm.frames[0]
	f.returnAddr = StopSignal
	f.returnSp = -1
	f.callSiteIP = 0
	if err := f.activate(main, nil, vm.heap); err != nil {
		return object.Nil, vm.oom(err)
	}
	vm.activeFrame = f
	vm.activeFn = main

	result, err := vm.eval(ctx)
	vm.ranMain = err == nil

	evt := vm.log.Debug().
		Str("run_id", vm.runID).
		Dur("elapsed", time.Since(start)).
		Int("gc_cycles", vm.heap.Stats().Cycles)
	if err != nil {
		evt.Err(err).Msg("run failed")
	} else {
		evt.Str("result_kind", result.Kind().String()).Msg("run finished")
	}
	return result, err
}

// Call invokes a named top-level function with the given arguments. Run
// must have completed first, since globals are bound by executing main.
func (vm *VM) Call(ctx context.Context, name string, args []object.Value) (object.Value, error) {
	if vm.running {
		return object.Nil, errors.New("vm: already running")
	}
	if !vm.ranMain {
		return object.Nil, errors.New("vm: run the unit before calling entry points")
	}
	if len(args) > MaxArgs {
		return object.Nil, errors.New("vm: too many arguments")
	}
	slot, ok := vm.globalSlots[name]
	if !ok {
		return object.Nil, ErrGlobalNotFound
	}
	callee := vm.globals[slot]
	if callee.Kind() != object.KindClosure {
		return object.Nil, ErrGlobalNotFound
	}
	vm.running = true
	defer func() { vm.running = false }()

	vm.sp = -1
	vm.fp = -1
	vm.base = 0
	if err := vm.call(callee.Ref(), args, StopSignal); err != nil {
		return object.Nil, err
	}
	return vm.eval(ctx)
}

// EachRoot reports every heap object reachable from the VM's own state:
// global bindings, the live portion of the operand stack, and the locals
// and closures of every active frame. This is the collector's root set.
func (vm *VM) EachRoot(visit func(*object.HeapObject)) {
	for _, v := range vm.globals {
		if ref := v.Ref(); ref != nil {
			visit(ref)
		}
	}
	for _, v := range vm.consts {
		if ref := v.Ref(); ref != nil {
			visit(ref)
		}
	}
	for i := 0; i <= vm.sp; i++ {
		if ref := vm.stack[i].Ref(); ref != nil {
			visit(ref)
		}
	}
	for i := 0; i <= vm.fp; i++ {
		f := &vm.frames[i]
		if f.closure != nil {
			visit(f.closure)
		}
		for _, v := range f.locals {
			if ref := v.Ref(); ref != nil {
				visit(ref)
			}
		}
	}
}

// eval is the fetch-dispatch loop. It runs until the bottom frame returns,
// the context is cancelled, or a runtime error occurs. Collection happens
// only here, between instructions, when the heap requests it.
func (vm *VM) eval(ctx context.Context) (object.Value, error) {
	steps := 0
	for {
		if vm.heap.ShouldCollect() {
			vm.heap.Collect(vm)
		}
		if vm.contextCheckInterval > 0 {
			steps++
			if steps >= vm.contextCheckInterval {
				steps = 0
				select {
				case <-ctx.Done():
					return object.Nil, ctx.Err()
				default:
				}
			}
		}

		vm.base = vm.ip
		opcode := vm.activeFn.InstructionAt(vm.ip)
		vm.ip++

		switch opcode {

		case op.Nop:

		case op.Halt:
			if vm.sp >= 0 {
				return vm.pop(), nil
			}
			return object.Nil, nil

		case op.LoadConst:
			vm.push(vm.consts[vm.fetch()])

		case op.Nil:
			vm.push(object.Nil)

		case op.True:
			vm.push(object.True)

		case op.False:
			vm.push(object.False)

		case op.LoadFast:
			vm.push(vm.activeFrame.locals[vm.fetch()])

		case op.StoreFast:
			vm.activeFrame.locals[vm.fetch()] = vm.pop()

		case op.LoadGlobal:
			vm.push(vm.globals[vm.fetch()])

		case op.StoreGlobal:
			vm.globals[vm.fetch()] = vm.pop()

		case op.LoadCell:
			vm.push(vm.activeFrame.locals[vm.fetch()].Ref().CellValue())

		case op.StoreCell:
			vm.activeFrame.locals[vm.fetch()].Ref().SetCellValue(vm.pop())

		case op.LoadFree:
			vm.push(vm.activeFrame.closure.FreeVar(int(vm.fetch())).CellValue())

		case op.StoreFree:
			vm.activeFrame.closure.FreeVar(int(vm.fetch())).SetCellValue(vm.pop())

		case op.LoadFreeCell:
			vm.push(object.NewRef(vm.activeFrame.closure.FreeVar(int(vm.fetch()))))

		case op.LoadClosure:
			constIndex := vm.fetch()
			freeCount := int(vm.fetch())
			fn := vm.unit.ConstantAt(int(constIndex)).(*bytecode.Function)
			free := make([]*object.HeapObject, freeCount)
			for i := freeCount - 1; i >= 0; i-- {
				free[i] = vm.pop().Ref()
			}
			obj, err := vm.heap.AllocClosure(fn, free)
			if err != nil {
				return object.Nil, vm.oom(err)
			}
			vm.push(object.NewRef(obj))

		case op.Call:
			argc := int(vm.fetch())
			args := vm.tmp[:argc]
			for i := argc - 1; i >= 0; i-- {
				args[i] = vm.pop()
			}
			callee := vm.pop()
			if callee.Kind() != object.KindClosure {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"%s is not callable", callee.Kind())
			}
			if err := vm.call(callee.Ref(), args, vm.ip); err != nil {
				return object.Nil, err
			}

		case op.ReturnValue:
			result := vm.pop()
			f := vm.activeFrame
			vm.sp = f.returnSp
			if f.returnAddr == StopSignal {
				return result, nil
			}
			vm.ip = f.returnAddr
			vm.fp--
			vm.activeFrame = &vm.frames[vm.fp]
			vm.activeFn = vm.activeFrame.fn
			vm.push(result)

		case op.JumpForward:
			delta := int(vm.fetch())
			vm.ip = vm.base + delta

		case op.JumpBackward:
			delta := int(vm.fetch())
			vm.ip = vm.base - delta

		case op.PopJumpForwardIfFalse:
			delta := int(vm.fetch())
			cond := vm.pop()
			if cond.Kind() != object.KindBool {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"condition must be a bool, got %s", cond.Kind())
			}
			if !cond.Bool() {
				vm.ip = vm.base + delta
			}

		case op.PopJumpForwardIfTrue:
			delta := int(vm.fetch())
			cond := vm.pop()
			if cond.Kind() != object.KindBool {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"condition must be a bool, got %s", cond.Kind())
			}
			if cond.Bool() {
				vm.ip = vm.base + delta
			}

		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				if errors.Is(err, object.ErrDivisionByZero) {
					return object.Nil, vm.runtimeError(errz.DivisionByZero,
						"division by zero")
				}
				return object.Nil, vm.runtimeError(errz.TypeError, "%s", err)
			}
			vm.push(result)

		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return object.Nil, vm.runtimeError(errz.TypeError, "%s", err)
			}
			vm.push(result)

		case op.UnaryNegative:
			v := vm.pop()
			switch v.Kind() {
			case object.KindInt:
				vm.push(object.NewInt(-v.Int()))
			case object.KindFloat:
				vm.push(object.NewFloat(-v.Float()))
			default:
				return object.Nil, vm.runtimeError(errz.TypeError,
					"cannot negate %s", v.Kind())
			}

		case op.UnaryNot:
			v := vm.pop()
			if v.Kind() != object.KindBool {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"operand of ! must be a bool, got %s", v.Kind())
			}
			vm.push(object.NewBool(!v.Bool()))

		case op.BuildArray:
			count := int(vm.fetch())
			elems := make([]object.Value, count)
			for i := count - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			obj, err := vm.heap.AllocArray(elems)
			if err != nil {
				return object.Nil, vm.oom(err)
			}
			vm.push(object.NewRef(obj))

		case op.BuildRecord:
			shape := vm.unit.ConstantAt(int(vm.fetch())).(*bytecode.RecordShape)
			count := shape.FieldCount()
			fields := make([]object.Value, count)
			for i := count - 1; i >= 0; i-- {
				fields[i] = vm.pop()
			}
			obj, err := vm.heap.AllocRecord(shape, fields)
			if err != nil {
				return object.Nil, vm.oom(err)
			}
			vm.push(object.NewRef(obj))

		case op.LoadField:
			name := vm.unit.NameAt(int(vm.fetch()))
			v := vm.pop()
			if v.Kind() != object.KindRecord {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"cannot read field %q of %s", name, v.Kind())
			}
			field, ok := v.Ref().RecordGet(name)
			if !ok {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"record has no field %q", name)
			}
			vm.push(field)

		case op.LoadIndex:
			index := vm.pop()
			v := vm.pop()
			if v.Kind() != object.KindArray {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"cannot index %s", v.Kind())
			}
			if index.Kind() != object.KindInt {
				return object.Nil, vm.runtimeError(errz.TypeError,
					"array index must be an int, got %s", index.Kind())
			}
			arr := v.Ref()
			i := index.Int()
			if i < 0 || i >= int64(arr.ArrayLen()) {
				return object.Nil, vm.runtimeError(errz.IndexError,
					"index %d out of range for array of length %d", i, arr.ArrayLen())
			}
			vm.push(arr.ArrayElem(int(i)))

		case op.Length:
			v := vm.pop()
			switch v.Kind() {
			case object.KindArray:
				vm.push(object.NewInt(int64(v.Ref().ArrayLen())))
			case object.KindString:
				vm.push(object.NewInt(int64(len(v.Ref().StringValue()))))
			default:
				return object.Nil, vm.runtimeError(errz.TypeError,
					"%s has no length", v.Kind())
			}

		case op.MatchPattern:
			pattern := vm.unit.ConstantAt(int(vm.fetch())).(*bytecode.Pattern)
			slot := int(vm.fetch())
			scrutinee := vm.activeFrame.locals[slot]
			vm.push(object.NewBool(vm.matchBind(pattern, scrutinee, vm.activeFrame)))

		case op.MatchFail:
			return object.Nil, vm.runtimeError(errz.NoMatchingArm,
				"no arm matched the scrutinee")

		case op.PopTop:
			vm.sp--

		case op.Copy:
			offset := int(vm.fetch())
			vm.push(vm.stack[vm.sp-offset])

		case op.Swap:
			offset := int(vm.fetch())
			vm.stack[vm.sp], vm.stack[vm.sp-offset] = vm.stack[vm.sp-offset], vm.stack[vm.sp]

		default:
			return object.Nil, vm.runtimeError(errz.InternalError,
				"unknown opcode %d", opcode)
		}
	}
}

// call activates a frame for the callee and dispatches over its clause
// table: the first clause whose arity matches and whose patterns all match
// the arguments, in declaration order, receives control. Pattern bindings
// write directly into the fresh frame's local slots.
func (vm *VM) call(callee *object.HeapObject, args []object.Value, returnAddr int) error {
	if vm.fp+1 >= MaxFrameDepth {
		return vm.runtimeError(errz.StackOverflow,
			"call depth exceeded %d frames", MaxFrameDepth)
	}
	fn := callee.Function()
	f := &vm.frames[vm.fp+1]
	f.returnAddr = returnAddr
	f.returnSp = vm.sp
	f.callSiteIP = vm.base
	if err := f.activate(fn, callee, vm.heap); err != nil {
		return vm.oom(err)
	}
	entry, ok := vm.dispatch(f, fn, args)
	if !ok {
		return vm.runtimeError(errz.NoMatchingOverload,
			"no clause of %s matches (%s)", functionName(fn), describeArgs(args))
	}
	vm.fp++
	vm.activeFrame = f
	vm.activeFn = fn
	vm.ip = entry
	return nil
}

// dispatch finds the first matching clause and returns its entry offset.
// A clause that fails partway may have bound some slots already; that is
// harmless, since each clause owns distinct parameter slots and the frame
// is fresh.
func (vm *VM) dispatch(f *frame, fn *bytecode.Function, args []object.Value) (int, bool) {
	for i := 0; i < fn.ClauseCount(); i++ {
		clause := fn.ClauseAt(i)
		if clause.NumParams != len(args) {
			continue
		}
		matched := true
		for j, patternIndex := range clause.PatternIndices {
			pattern := vm.unit.ConstantAt(patternIndex).(*bytecode.Pattern)
			if !vm.matchBind(pattern, args[j], f) {
				matched = false
				break
			}
		}
		if matched {
			return clause.Entry, true
		}
	}
	return 0, false
}

// matchBind tests a pattern against a value, binding names into the frame
// as it goes. Bindings are unconditional: by the time a binding pattern is
// reached, the match of that subterm has already succeeded.
func (vm *VM) matchBind(p *bytecode.Pattern, v object.Value, f *frame) bool {
	switch p.Kind() {
	case bytecode.PatternWildcard:
		return true
	case bytecode.PatternBinding:
		f.storeSlot(p.Slot(), p.Boxed(), v)
		return true
	case bytecode.PatternLiteral:
		return matchLiteral(p.Literal(), v)
	case bytecode.PatternRecord:
		if v.Kind() != object.KindRecord {
			return false
		}
		rec := v.Ref()
		for i := 0; i < p.FieldCount(); i++ {
			field := p.FieldAt(i)
			fv, ok := rec.RecordGet(field.Name)
			if !ok {
				return false
			}
			if !vm.matchBind(field.Pattern, fv, f) {
				return false
			}
		}
		return true
	}
	return false
}

// matchLiteral compares a pooled literal with a runtime value. Numeric
// literals compare across int and float, matching the equality operator.
func matchLiteral(literal any, v object.Value) bool {
	switch literal := literal.(type) {
	case nil:
		return v.IsNil()
	case bool:
		return v.Kind() == object.KindBool && v.Bool() == literal
	case int64:
		switch v.Kind() {
		case object.KindInt:
			return v.Int() == literal
		case object.KindFloat:
			return v.Float() == float64(literal)
		}
		return false
	case float64:
		switch v.Kind() {
		case object.KindInt:
			return float64(v.Int()) == literal
		case object.KindFloat:
			return v.Float() == literal
		}
		return false
	case string:
		return v.Kind() == object.KindString && v.Ref().StringValue() == literal
	}
	return false
}

func (vm *VM) push(v object.Value) {
	vm.sp++
	if vm.sp == len(vm.stack) {
		vm.stack = append(vm.stack, v)
		return
	}
	vm.stack[vm.sp] = v
}

func (vm *VM) pop() object.Value {
	v := vm.stack[vm.sp]
	vm.sp--
	return v
}

// fetch reads the next operand word and advances the instruction pointer.
func (vm *VM) fetch() uint16 {
	operand := vm.activeFn.InstructionAt(vm.ip)
	vm.ip++
	return uint16(operand)
}

// oom converts a heap allocation failure into a located runtime error.
func (vm *VM) oom(err error) error {
	if errors.Is(err, gc.ErrHeapFull) {
		e := vm.runtimeError(errz.OutOfMemory, "heap limit exceeded")
		return e.WithCause(err)
	}
	return err
}

func (vm *VM) runtimeError(kind errz.Kind, format string, args ...any) *errz.Error {
	loc := errz.SourceLocation{Filename: vm.unit.Filename()}
	if vm.activeFn != nil {
		loc = vm.location(vm.activeFn, vm.base)
	}
	e := errz.Newf(kind, loc, format, args...)
	return e.WithStack(vm.captureStack())
}

func (vm *VM) location(fn *bytecode.Function, offset int) errz.SourceLocation {
	loc := fn.LocationAt(offset)
	return errz.SourceLocation{
		Filename: vm.unit.Filename(),
		Line:     loc.Line,
		Column:   loc.Column,
		Source:   vm.unit.GetSourceLine(loc.Line),
	}
}

// captureStack snapshots the call chain, innermost frame first. Each outer
// frame is reported at its call instruction.
func (vm *VM) captureStack() []errz.StackFrame {
	if vm.fp < 0 {
		return nil
	}
	stack := make([]errz.StackFrame, 0, vm.fp+1)
	offset := vm.base
	for i := vm.fp; i >= 0; i-- {
		f := &vm.frames[i]
		stack = append(stack, errz.StackFrame{
			Function: functionName(f.fn),
			Location: vm.location(f.fn, offset),
		})
		offset = f.callSiteIP
	}
	return stack
}

func functionName(fn *bytecode.Function) string {
	if name := fn.Name(); name != "" {
		return name
	}
	return "<anonymous>"
}

func describeArgs(args []object.Value) string {
	out := ""
	for i, arg := range args {
		if i > 0 {
			out += ", "
		}
		out += arg.Kind().String()
	}
	return out
}
