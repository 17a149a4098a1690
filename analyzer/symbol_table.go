package analyzer

import "github.com/tarn-lang/tarn/bytecode"

// BlankIdentifier is the reserved name that discards a value. It can be
// declared any number of times and never resolves.
const BlankIdentifier = "_"

// freeVariable records one binding a function captures from an enclosing
// frame, along with how the cell is obtained when a closure is created.
type freeVariable struct {
	symbol  *Symbol
	capture bytecode.Capture
}

// SymbolTable tracks the bindings visible at one lexical scope. Tables form
// a tree: function tables own a frame's slot space, and block tables nest
// inside a function, shadowing names while sharing the enclosing frame.
type SymbolTable struct {
	parent  *SymbolTable
	isBlock bool
	byName  map[string]*Symbol

	// Free variables captured by this function, in cell order. Populated
	// only on function tables.
	free      []freeVariable
	freeBySym map[*Symbol]int
}

// NewSymbolTable creates the root table holding unit-wide globals.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName:    map[string]*Symbol{},
		freeBySym: map[*Symbol]int{},
	}
}

// NewChild creates a scope for a nested function body. Names resolved past
// this boundary become free variables of the function.
func (t *SymbolTable) NewChild() *SymbolTable {
	return &SymbolTable{
		parent:    t,
		byName:    map[string]*Symbol{},
		freeBySym: map[*Symbol]int{},
	}
}

// NewBlock creates a scope for a braced block within the same function.
// Bindings declared here shadow enclosing scopes but occupy slots of the
// enclosing function's frame.
func (t *SymbolTable) NewBlock() *SymbolTable {
	return &SymbolTable{
		parent:  t,
		isBlock: true,
		byName:  map[string]*Symbol{},
	}
}

// Parent returns the enclosing scope, or nil for the root table.
func (t *SymbolTable) Parent() *SymbolTable { return t.parent }

// IsDefined reports whether name is declared directly in this scope, not
// counting enclosing scopes.
func (t *SymbolTable) IsDefined(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Insert declares a symbol in this scope, replacing any previous symbol
// with the same name. Callers check IsDefined first and report duplicates.
func (t *SymbolTable) Insert(sym *Symbol) {
	t.byName[sym.name] = sym
}

// Get looks up name in this scope only.
func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// Lookup finds name in this scope or the nearest enclosing scope that
// declares it, returning the symbol and its declaring table.
func (t *SymbolTable) Lookup(name string) (*Symbol, *SymbolTable, bool) {
	for s := t; s != nil; s = s.parent {
		if sym, ok := s.byName[name]; ok {
			return sym, s, true
		}
	}
	return nil, nil, false
}

// VisibleNames returns every binding name reachable from this scope,
// including shadowed ones. Used for did-you-mean hints.
func (t *SymbolTable) VisibleNames() []string {
	var names []string
	for s := t; s != nil; s = s.parent {
		for name := range s.byName {
			if name != BlankIdentifier {
				names = append(names, name)
			}
		}
	}
	return names
}

// FunctionRoot returns the nearest enclosing function table, which may be
// the table itself. Block tables delegate capture bookkeeping to it.
func (t *SymbolTable) FunctionRoot() *SymbolTable {
	root := t
	for root.isBlock {
		root = root.parent
	}
	return root
}

// captureFree records that this function obtains sym's cell as described by
// cap, and returns the cell's index in the function's capture list. Capturing
// the same symbol twice reuses the original cell.
func (t *SymbolTable) captureFree(sym *Symbol, cap bytecode.Capture) int {
	if idx, ok := t.freeBySym[sym]; ok {
		return idx
	}
	t.free = append(t.free, freeVariable{symbol: sym, capture: cap})
	idx := len(t.free) - 1
	t.freeBySym[sym] = idx
	return idx
}

// FreeCount returns the number of distinct bindings this function captures.
func (t *SymbolTable) FreeCount() int { return len(t.free) }

// Captures returns how each captured cell is obtained from the enclosing
// frame, in cell order.
func (t *SymbolTable) Captures() []bytecode.Capture {
	if len(t.free) == 0 {
		return nil
	}
	captures := make([]bytecode.Capture, len(t.free))
	for i, fv := range t.free {
		captures[i] = fv.capture
	}
	return captures
}
