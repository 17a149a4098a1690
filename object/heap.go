package object

import "github.com/tarn-lang/tarn/bytecode"

// Heap accounting sizes. Live-byte statistics and collection thresholds are
// measured with these fixed per-object costs rather than real allocator
// sizes, so the accounting is exact and platform-independent.
const (
	// BaseObjectSize is charged once for every heap object.
	BaseObjectSize = 64

	// ValueSlotSize is charged per payload slot of arrays, records, and
	// closure capture lists. String payloads are charged one byte per byte.
	ValueSlotSize = 32
)

// HeapObject is the collector-managed representation of strings, arrays,
// records, closures, and cells. One struct serves all five kinds; the kind
// tag selects which payload fields are meaningful.
//
// Strings, arrays, and records are immutable after construction. Closures
// are immutable after construction as well, though the cells they capture
// are not. Cells are the single mutable kind: SetCellValue rebinds the
// contents while the object identity and accounted size stay fixed.
type HeapObject struct {
	kind   Kind
	marked bool
	size   int
	next   *HeapObject

	str    string
	elems  []Value
	shape  *bytecode.RecordShape
	fields []Value
	fn     *bytecode.Function
	free   []*HeapObject
	cell   Value
}

// Kind returns the object's runtime type tag.
func (o *HeapObject) Kind() Kind { return o.kind }

// Size returns the accounted size of the object in bytes. The size is fixed
// at construction and never changes, even for cells whose contents change.
func (o *HeapObject) Size() int { return o.size }

// Marked reports the object's mark bit. Used by the garbage collector.
func (o *HeapObject) Marked() bool { return o.marked }

// SetMarked sets the object's mark bit. Used by the garbage collector.
func (o *HeapObject) SetMarked(m bool) { o.marked = m }

// NextObject returns the next object in the collector's intrusive list.
// Used by the garbage collector.
func (o *HeapObject) NextObject() *HeapObject { return o.next }

// SetNextObject links the object into the collector's intrusive list.
// Used by the garbage collector.
func (o *HeapObject) SetNextObject(next *HeapObject) { o.next = next }

// EachRef calls visit once for every heap object directly reachable from
// this object's payload. The collector uses it to trace the object graph;
// the mark bit and list link are not touched.
func (o *HeapObject) EachRef(visit func(*HeapObject)) {
	switch o.kind {
	case KindArray:
		for _, elem := range o.elems {
			if elem.ref != nil {
				visit(elem.ref)
			}
		}
	case KindRecord:
		for _, field := range o.fields {
			if field.ref != nil {
				visit(field.ref)
			}
		}
	case KindClosure:
		for _, cell := range o.free {
			visit(cell)
		}
	case KindCell:
		if o.cell.ref != nil {
			visit(o.cell.ref)
		}
	}
}

// Recycle drops the payload so a swept object does not retain references to
// its children while it waits on the collector's free list. A later Init
// call puts the object back into service.
func (o *HeapObject) Recycle() {
	o.reset(KindNil, 0)
}

// reset clears the payload fields so a recycled object does not pin the
// previous occupant's references. The mark bit and list link belong to the
// collector and are left alone.
func (o *HeapObject) reset(kind Kind, size int) {
	o.kind = kind
	o.size = size
	o.str = ""
	o.elems = nil
	o.shape = nil
	o.fields = nil
	o.fn = nil
	o.free = nil
	o.cell = Nil
}
