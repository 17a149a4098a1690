package object

import "github.com/tarn-lang/tarn/bytecode"

// NewClosure allocates a closure object pairing compiled code with the
// cells it captured. Every entry of free must be a cell object. The slice
// is retained, not copied.
func NewClosure(fn *bytecode.Function, free []*HeapObject) *HeapObject {
	obj := &HeapObject{}
	obj.InitClosure(fn, free)
	return obj
}

// InitClosure turns obj into a closure object, replacing any previous
// payload. The collector uses it to recycle swept objects.
func (o *HeapObject) InitClosure(fn *bytecode.Function, free []*HeapObject) {
	o.reset(KindClosure, BaseObjectSize+len(free)*ValueSlotSize)
	o.fn = fn
	o.free = free
}

// Function returns the compiled code the closure runs. The caller must
// have checked that the kind is KindClosure.
func (o *HeapObject) Function() *bytecode.Function { return o.fn }

// FreeVarCount returns the number of captured cells.
func (o *HeapObject) FreeVarCount() int { return len(o.free) }

// FreeVar returns the captured cell at index i. The caller must have
// checked the kind and that i is in range.
func (o *HeapObject) FreeVar(i int) *HeapObject { return o.free[i] }
