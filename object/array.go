package object

// NewArray allocates an array object holding elems. The slice is retained,
// not copied; the caller must not modify it afterwards.
func NewArray(elems []Value) *HeapObject {
	obj := &HeapObject{}
	obj.InitArray(elems)
	return obj
}

// InitArray turns obj into an array object, replacing any previous payload.
// The collector uses it to recycle swept objects.
func (o *HeapObject) InitArray(elems []Value) {
	o.reset(KindArray, BaseObjectSize+len(elems)*ValueSlotSize)
	o.elems = elems
}

// ArrayLen returns the number of elements. The caller must have checked
// that the kind is KindArray.
func (o *HeapObject) ArrayLen() int { return len(o.elems) }

// ArrayElem returns the element at index i. The caller must have checked
// the kind and that i is in range.
func (o *HeapObject) ArrayElem(i int) Value { return o.elems[i] }
