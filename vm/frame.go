package vm

import (
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/gc"
	"github.com/tarn-lang/tarn/object"
)

const (
	// DefaultFrameLocals is the number of local slots stored directly in
	// the frame's fixed array, avoiding a slice allocation for small
	// functions.
	DefaultFrameLocals = 8

	// MinExtendedLocalsCapacity is the minimum capacity allocated when a
	// function needs more locals than the fixed array holds. The headroom
	// reduces allocation churn when the frame is reused for functions with
	// varying local counts.
	MinExtendedLocalsCapacity = 32
)

type frame struct {
	returnAddr     int
	returnSp       int
	callSiteIP     int // offset of the call instruction in the caller, for stack traces
	fn             *bytecode.Function
	closure        *object.HeapObject
	storage        [DefaultFrameLocals]object.Value
	locals         []object.Value
	extendedLocals []object.Value
}

// activate prepares the frame to run fn. Every local slot is reset to nil
// and every cell slot is boxed with a fresh heap cell, so captures created
// later in the body always go through a cell, even before the slot's
// declaration executes.
func (f *frame) activate(fn *bytecode.Function, closure *object.HeapObject, heap *gc.Heap) error {
	f.fn = fn
	f.closure = closure

	count := fn.LocalsCount()
	if count > DefaultFrameLocals {
		if cap(f.extendedLocals) >= count {
			f.extendedLocals = f.extendedLocals[:count]
			for i := range f.extendedLocals {
				f.extendedLocals[i] = object.Nil
			}
		} else {
			allocSize := count
			if allocSize < MinExtendedLocalsCapacity {
				allocSize = MinExtendedLocalsCapacity
			}
			f.extendedLocals = make([]object.Value, count, allocSize)
		}
		f.locals = f.extendedLocals
	} else {
		f.locals = f.storage[:count]
		for i := range f.locals {
			f.locals[i] = object.Nil
		}
	}

	for i := 0; i < fn.CellSlotCount(); i++ {
		cell, err := heap.AllocCell(object.Nil)
		if err != nil {
			return err
		}
		f.locals[fn.CellSlotAt(i)] = object.NewRef(cell)
	}
	return nil
}

// storeSlot writes v into a local slot, going through the slot's cell when
// the slot is boxed.
func (f *frame) storeSlot(slot int, boxed bool, v object.Value) {
	if boxed {
		f.locals[slot].Ref().SetCellValue(v)
	} else {
		f.locals[slot] = v
	}
}
