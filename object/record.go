package object

import "github.com/tarn-lang/tarn/bytecode"

// NewRecord allocates a record object with the given shape and field
// values. The values slice must be parallel to the shape's field names; it
// is retained, not copied.
func NewRecord(shape *bytecode.RecordShape, fields []Value) *HeapObject {
	obj := &HeapObject{}
	obj.InitRecord(shape, fields)
	return obj
}

// InitRecord turns obj into a record object, replacing any previous
// payload. The collector uses it to recycle swept objects.
func (o *HeapObject) InitRecord(shape *bytecode.RecordShape, fields []Value) {
	o.reset(KindRecord, BaseObjectSize+len(fields)*ValueSlotSize)
	o.shape = shape
	o.fields = fields
}

// Shape returns the record's field layout. The caller must have checked
// that the kind is KindRecord.
func (o *HeapObject) Shape() *bytecode.RecordShape { return o.shape }

// RecordField returns the value of the field at index i in shape order.
// The caller must have checked the kind and that i is in range.
func (o *HeapObject) RecordField(i int) Value { return o.fields[i] }

// RecordGet looks up a field by name. It returns false if the record's
// shape has no such field.
func (o *HeapObject) RecordGet(name string) (Value, bool) {
	i, ok := o.shape.IndexOf(name)
	if !ok {
		return Nil, false
	}
	return o.fields[i], true
}
