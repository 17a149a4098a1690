package analyzer

import "fmt"

// Scope classifies where a resolved name lives at runtime.
type Scope int

const (
	// Global names live in the unit-wide globals array.
	Global Scope = iota
	// Local names live in a slot of the current frame.
	Local
	// Free names are declared in an enclosing function and reach the
	// current frame through the closure's captured cells.
	Free
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case Local:
		return "local"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// AccessMode records how a binding holds its value. Owned bindings may be
// moved; borrowed bindings may not, since the lender still owns the value.
type AccessMode int

const (
	Owned AccessMode = iota
	SharedBorrow
	ExclusiveBorrow
)

func (m AccessMode) String() string {
	switch m {
	case SharedBorrow:
		return "shared borrow"
	case ExclusiveBorrow:
		return "exclusive borrow"
	default:
		return "owned"
	}
}

// Symbol is one declared binding: a let, a function declaration, a
// parameter, a loop variable, or a pattern binding. Shadowing declarations
// produce distinct symbols even when they share a name.
type Symbol struct {
	name    string
	index   uint16
	global  bool
	mutable bool
	proc    bool
	fn      bool
	cell    bool
	mode    AccessMode

	// Lexically live borrows of this binding. Maintained while resolution
	// walks the borrow's extent and consulted when the binding is moved.
	sharedBorrows    int
	exclusiveBorrows int
}

// Name returns the source spelling of the binding.
func (s *Symbol) Name() string { return s.name }

// Index returns the frame slot for local symbols or the globals index for
// global symbols.
func (s *Symbol) Index() int { return int(s.index) }

// IsGlobal reports whether the symbol lives in the unit-wide globals array.
func (s *Symbol) IsGlobal() bool { return s.global }

// IsMutable reports whether the binding was declared with "mut".
func (s *Symbol) IsMutable() bool { return s.mutable }

// IsProc reports whether the binding names a declared procedure.
func (s *Symbol) IsProc() bool { return s.proc }

// IsFunction reports whether the binding was introduced by a func or proc
// declaration. Declared functions are constants: they are copied rather
// than moved when passed by name.
func (s *Symbol) IsFunction() bool { return s.fn }

// IsCell reports whether some closure captures this binding, requiring its
// slot to be boxed into a cell when the declaring frame is activated.
func (s *Symbol) IsCell() bool { return s.cell }

// Mode returns how the binding holds its value.
func (s *Symbol) Mode() AccessMode { return s.mode }

func (s *Symbol) borrowed() bool {
	return s.sharedBorrows > 0 || s.exclusiveBorrows > 0
}

// Resolution records how one identifier occurrence reaches its symbol.
type Resolution struct {
	symbol    *Symbol
	scope     Scope
	freeIndex int
}

// Symbol returns the binding the identifier resolved to.
func (r *Resolution) Symbol() *Symbol { return r.symbol }

// Scope returns where the binding lives relative to the use site.
func (r *Resolution) Scope() Scope { return r.scope }

// FreeIndex returns the index into the enclosing closure's cell list for
// Free resolutions, and -1 otherwise.
func (r *Resolution) FreeIndex() int { return r.freeIndex }

// Slot returns the frame slot (Local) or globals index (Global) of the
// resolved symbol.
func (r *Resolution) Slot() int { return int(r.symbol.index) }

// IsCell reports whether a Local resolution refers to a boxed slot. Captured
// locals are boxed at frame activation so closures observe later updates.
func (r *Resolution) IsCell() bool { return r.scope == Local && r.symbol.cell }

func (r *Resolution) String() string {
	return fmt.Sprintf("%s %q (slot %d)", r.scope, r.symbol.name, r.symbol.index)
}
