package object

// NewString allocates a string object. The accounted size is the base
// object cost plus one byte per byte of text.
func NewString(s string) *HeapObject {
	obj := &HeapObject{}
	obj.InitString(s)
	return obj
}

// InitString turns obj into a string object, replacing any previous
// payload. The collector uses it to recycle swept objects.
func (o *HeapObject) InitString(s string) {
	o.reset(KindString, BaseObjectSize+len(s))
	o.str = s
}

// StringValue returns the text payload. The caller must have checked that
// the kind is KindString.
func (o *HeapObject) StringValue() string { return o.str }
