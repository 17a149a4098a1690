package object

// NewCell allocates a cell holding contents. Cells box local variables that
// closures capture: the frame slot and every capturing closure share one
// cell, so rebinding through any of them is visible to all.
func NewCell(contents Value) *HeapObject {
	obj := &HeapObject{}
	obj.InitCell(contents)
	return obj
}

// InitCell turns obj into a cell object, replacing any previous payload.
// The collector uses it to recycle swept objects.
func (o *HeapObject) InitCell(contents Value) {
	o.reset(KindCell, BaseObjectSize)
	o.cell = contents
}

// CellValue returns the cell's contents. The caller must have checked that
// the kind is KindCell.
func (o *HeapObject) CellValue() Value { return o.cell }

// SetCellValue rebinds the cell's contents. Cells are the only heap objects
// mutated after construction; the accounted size does not change.
func (o *HeapObject) SetCellValue(v Value) { o.cell = v }
