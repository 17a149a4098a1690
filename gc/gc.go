// Package gc implements the tracing collector that owns every Tarn heap
// object. It is a non-moving, stop-the-world mark-sweep collector over a
// single intrusive object list.
//
// Allocation and collection are strictly separated: the Alloc methods only
// account bytes and link objects, they never start a cycle. The virtual
// machine polls ShouldCollect at instruction boundaries (safepoints) and
// runs Collect there, where its frames, operand stack, and globals form a
// complete root set. Collecting anywhere else would sweep values an
// instruction still holds in Go locals.
package gc

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/object"
)

// ErrHeapFull is returned by the Alloc methods when an allocation would
// push the heap past Config.MaxHeapBytes. The collector never recovers from
// it on its own; callers treat it as out of memory.
var ErrHeapFull = errors.New("heap full")

// Default collection tuning, used when Config leaves the fields zero.
const (
	DefaultInitialThreshold = 512 * 1024
	DefaultGrowthFactor     = 2.0
)

// pressureHeadroom is how close the heap may get to MaxHeapBytes before a
// collection is requested at the next safepoint, ahead of the threshold.
const pressureHeadroom = 16 * 1024

// Config tunes a Heap. The zero value selects the defaults: a 512 KiB
// initial threshold that doubles after each cycle, no hard cap, and no
// logging.
type Config struct {
	// InitialThreshold is the number of allocated bytes after which the
	// first collection is requested.
	InitialThreshold int

	// GrowthFactor multiplies the threshold after every cycle, amortizing
	// collection cost as the program's live set grows. Values below 1 fall
	// back to DefaultGrowthFactor.
	GrowthFactor float64

	// MaxHeapBytes is a hard cap on accounted bytes, zero for unbounded.
	// Allocations that would exceed it fail with ErrHeapFull.
	MaxHeapBytes int

	// StressMode requests a collection at every safepoint. Slow; intended
	// for tests that need allocation lifetimes exercised aggressively.
	StressMode bool

	// Logger receives one debug event per cycle. Nil disables logging.
	Logger *zerolog.Logger
}

// RootSource enumerates the heap objects that must survive a collection.
// The virtual machine implements it over its frame locals, operand stack,
// and global bindings.
type RootSource interface {
	EachRoot(visit func(*object.HeapObject))
}

// Stats is a snapshot of heap accounting, exact at every safepoint.
type Stats struct {
	Cycles         int
	LiveBytes      int
	ImmortalBytes  int
	TotalAllocated int64
	LastMarked     int
	LastSwept      int
	LastPause      time.Duration
	NextThreshold  int
}

// Heap owns all collectable objects of one VM instance. It is not safe for
// concurrent use; execution is single-threaded by construction.
type Heap struct {
	cfg Config
	log zerolog.Logger

	objects  *object.HeapObject // every collectable object, intrusively linked
	freeList *object.HeapObject // swept objects awaiting reuse
	work     []*object.HeapObject

	liveBytes      int
	immortalBytes  int
	totalAllocated int64
	sinceCollect   int
	threshold      int
	pressure       bool

	cycles     int
	lastMarked int
	lastSwept  int
	lastPause  time.Duration
}

// New creates an empty heap with the given configuration.
func New(cfg Config) *Heap {
	if cfg.InitialThreshold <= 0 {
		cfg.InitialThreshold = DefaultInitialThreshold
	}
	if cfg.GrowthFactor < 1 {
		cfg.GrowthFactor = DefaultGrowthFactor
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Heap{
		cfg:       cfg,
		log:       log,
		threshold: cfg.InitialThreshold,
	}
}

// AllocString allocates a collectable string object.
func (h *Heap) AllocString(s string) (*object.HeapObject, error) {
	obj := h.recycleOrNew()
	obj.InitString(s)
	return h.adopt(obj)
}

// AllocArray allocates an array object. The elems slice is retained.
func (h *Heap) AllocArray(elems []object.Value) (*object.HeapObject, error) {
	obj := h.recycleOrNew()
	obj.InitArray(elems)
	return h.adopt(obj)
}

// AllocRecord allocates a record object. The fields slice is retained and
// must be parallel to the shape.
func (h *Heap) AllocRecord(shape *bytecode.RecordShape, fields []object.Value) (*object.HeapObject, error) {
	obj := h.recycleOrNew()
	obj.InitRecord(shape, fields)
	return h.adopt(obj)
}

// AllocClosure allocates a closure object. The free slice of captured cells
// is retained.
func (h *Heap) AllocClosure(fn *bytecode.Function, free []*object.HeapObject) (*object.HeapObject, error) {
	obj := h.recycleOrNew()
	obj.InitClosure(fn, free)
	return h.adopt(obj)
}

// AllocCell allocates a cell object boxing contents.
func (h *Heap) AllocCell(contents object.Value) (*object.HeapObject, error) {
	obj := h.recycleOrNew()
	obj.InitCell(contents)
	return h.adopt(obj)
}

// InternString allocates an immortal string object. Immortal objects live
// outside the sweep list and are never reclaimed; the loader uses this for
// a unit's string constants, which stay reachable for the whole run anyway.
// The constant pool arrives deduplicated, so no intern table is kept.
func (h *Heap) InternString(s string) (*object.HeapObject, error) {
	size := object.BaseObjectSize + len(s)
	if h.cfg.MaxHeapBytes > 0 && h.liveBytes+h.immortalBytes+size > h.cfg.MaxHeapBytes {
		return nil, ErrHeapFull
	}
	obj := object.NewString(s)
	// Permanently marked: the mark phase skips it without tracing.
	obj.SetMarked(true)
	h.immortalBytes += size
	h.totalAllocated += int64(size)
	h.updatePressure()
	return obj, nil
}

// ShouldCollect reports whether the caller should run Collect at its next
// safepoint: the allocation threshold was crossed, the heap is close to its
// hard cap, or StressMode is on.
func (h *Heap) ShouldCollect() bool {
	if h.cfg.StressMode || h.pressure {
		return true
	}
	return h.sinceCollect > h.threshold
}

// Collect runs one stop-the-world mark-sweep cycle. Everything reachable
// from roots survives; everything else is recycled onto the free list. The
// caller must guarantee roots is complete, which is why only the VM's
// safepoint poll calls this.
func (h *Heap) Collect(roots RootSource) {
	start := time.Now()
	marked := h.mark(roots)
	swept := h.sweep()

	h.cycles++
	h.lastMarked = marked
	h.lastSwept = swept
	h.lastPause = time.Since(start)
	h.sinceCollect = 0
	h.threshold = int(float64(h.threshold) * h.cfg.GrowthFactor)
	h.pressure = false
	h.updatePressure()

	h.log.Debug().
		Int("cycle", h.cycles).
		Int("marked", marked).
		Int("swept", swept).
		Int("live_bytes", h.liveBytes).
		Int("next_threshold", h.threshold).
		Dur("pause", h.lastPause).
		Msg("gc cycle")
}

// Stats returns a snapshot of the heap's accounting.
func (h *Heap) Stats() Stats {
	return Stats{
		Cycles:         h.cycles,
		LiveBytes:      h.liveBytes,
		ImmortalBytes:  h.immortalBytes,
		TotalAllocated: h.totalAllocated,
		LastMarked:     h.lastMarked,
		LastSwept:      h.lastSwept,
		LastPause:      h.lastPause,
		NextThreshold:  h.threshold,
	}
}

// mark traces the object graph from the roots with an explicit work list,
// bounding native stack depth regardless of how deep the object graph is.
// Mark bits make revisits (and cycles through closure cells) no-ops.
func (h *Heap) mark(roots RootSource) int {
	marked := 0
	work := h.work[:0]
	push := func(obj *object.HeapObject) {
		if obj == nil || obj.Marked() {
			return
		}
		obj.SetMarked(true)
		marked++
		work = append(work, obj)
	}
	roots.EachRoot(push)
	for len(work) > 0 {
		obj := work[len(work)-1]
		work = work[:len(work)-1]
		obj.EachRef(push)
	}
	h.work = work[:0]
	return marked
}

// sweep rebuilds the object list from the marked survivors, recycles the
// rest onto the free list, clears mark bits, and recomputes live bytes
// exactly from the survivors.
func (h *Heap) sweep() int {
	var live *object.HeapObject
	liveBytes, swept := 0, 0
	obj := h.objects
	for obj != nil {
		next := obj.NextObject()
		if obj.Marked() {
			obj.SetMarked(false)
			obj.SetNextObject(live)
			live = obj
			liveBytes += obj.Size()
		} else {
			obj.Recycle()
			obj.SetNextObject(h.freeList)
			h.freeList = obj
			swept++
		}
		obj = next
	}
	h.objects = live
	h.liveBytes = liveBytes
	return swept
}

// adopt links a freshly initialized object into the collectable list and
// charges its size, failing if the hard cap would be exceeded.
func (h *Heap) adopt(obj *object.HeapObject) (*object.HeapObject, error) {
	size := obj.Size()
	if h.cfg.MaxHeapBytes > 0 && h.liveBytes+h.immortalBytes+size > h.cfg.MaxHeapBytes {
		obj.Recycle()
		obj.SetNextObject(h.freeList)
		h.freeList = obj
		return nil, ErrHeapFull
	}
	obj.SetNextObject(h.objects)
	h.objects = obj
	h.liveBytes += size
	h.sinceCollect += size
	h.totalAllocated += int64(size)
	h.updatePressure()
	return obj, nil
}

// recycleOrNew pops a swept object off the free list, or allocates a fresh
// one when the list is empty.
func (h *Heap) recycleOrNew() *object.HeapObject {
	obj := h.freeList
	if obj == nil {
		return &object.HeapObject{}
	}
	h.freeList = obj.NextObject()
	obj.SetNextObject(nil)
	return obj
}

func (h *Heap) updatePressure() {
	if h.cfg.MaxHeapBytes <= 0 {
		return
	}
	remaining := h.cfg.MaxHeapBytes - h.liveBytes - h.immortalBytes
	if remaining < pressureHeadroom {
		h.pressure = true
	}
}
