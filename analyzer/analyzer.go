// Package analyzer checks a parsed program and resolves every name to a
// frame slot, a global index, or a captured cell. It rejects programs that
// redeclare bindings, read uninitialized or moved values, conflict over
// borrows, perform effects inside pure functions, or misplace control flow.
// Analysis reports every violation it finds rather than stopping at the
// first.
//
// Analysis runs as two linear passes. The resolution pass builds scopes,
// assigns slots, wires closure captures, and enforces the lexical rules.
// The flow pass then walks the resolved program tracking how initialized
// each binding is along every control-flow path.
package analyzer

import (
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/token"
)

// Config adjusts analysis.
type Config struct {
	// Filename is attached to error locations.
	Filename string

	// Source is the original source text, used to quote the offending line
	// in error messages.
	Source string
}

// Analyze checks program and computes the binding facts compilation needs.
// The returned error is nil only when the program passed every check;
// otherwise it aggregates one errz.Error per violation.
func Analyze(program *ast.Program, cfg Config) (*Info, error) {
	a := &analysis{
		filename: cfg.Filename,
		info:     newInfo(),
	}
	if cfg.Source != "" {
		a.lines = strings.Split(cfg.Source, "\n")
	}
	r := &resolver{
		analysis: a,
		hoisted:  map[*ast.FuncDecl]*Symbol{},
	}
	r.program(program)
	f := &flowChecker{analysis: a, report: true}
	f.program(program)
	if a.errs != nil {
		return nil, a.errs.ErrorOrNil()
	}
	return a.info, nil
}

// analysis carries the state shared by the resolution and flow passes.
type analysis struct {
	filename string
	lines    []string
	info     *Info
	errs     *multierror.Error
}

func (a *analysis) errorf(kind errz.Kind, pos token.Position, format string, args ...any) {
	a.errs = multierror.Append(a.errs, errz.Newf(kind, a.location(pos), format, args...))
}

func (a *analysis) location(pos token.Position) errz.SourceLocation {
	loc := errz.SourceLocation{
		Filename: a.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
	if pos.Line >= 0 && pos.Line < len(a.lines) {
		loc.Source = a.lines[pos.Line]
	}
	return loc
}

// funcScope tracks one function being resolved: the table that owns its
// frame, slot usage, loop nesting, and whether the function may perform
// effects. The program's top level is itself a funcScope and is effectful.
type funcScope struct {
	node    ast.Node
	table   *SymbolTable
	proc    bool
	depth   int
	locals  []string
	symbols []*Symbol
}

// borrowRelease undoes one lexical borrow when the scope that created it
// closes.
type borrowRelease struct {
	sym       *Symbol
	exclusive bool
}

type resolver struct {
	*analysis
	scope    *SymbolTable
	funcs    []*funcScope
	releases [][]borrowRelease
	hoisted  map[*ast.FuncDecl]*Symbol
}

func (r *resolver) fn() *funcScope {
	return r.funcs[len(r.funcs)-1]
}

func (r *resolver) atTopLevel() bool {
	return len(r.funcs) == 1 && r.scope == r.fn().table
}

// claimSlot reserves one frame slot in the current function. Hidden
// temporaries pass an empty name.
func (r *resolver) claimSlot(name string, pos token.Position) (uint16, bool) {
	fs := r.fn()
	if len(fs.locals) >= math.MaxUint16 {
		r.errorf(errz.InternalError, pos, "function requires too many frame slots")
		return 0, false
	}
	idx := uint16(len(fs.locals))
	fs.locals = append(fs.locals, name)
	return idx, true
}

func releaseBorrows(releases []borrowRelease) {
	for _, rel := range releases {
		if rel.exclusive {
			rel.sym.exclusiveBorrows--
		} else {
			rel.sym.sharedBorrows--
		}
	}
}

func (r *resolver) pushBlock() {
	r.scope = r.scope.NewBlock()
	r.releases = append(r.releases, nil)
}

func (r *resolver) popBlock() {
	last := len(r.releases) - 1
	releaseBorrows(r.releases[last])
	r.releases = r.releases[:last]
	r.scope = r.scope.Parent()
}

func (r *resolver) pushFunction(node ast.Node, proc bool) {
	r.scope = r.scope.NewChild()
	r.funcs = append(r.funcs, &funcScope{node: node, table: r.scope, proc: proc})
	r.releases = append(r.releases, nil)
}

// popFunction finalizes the function's frame facts. By this point every
// capture of the function's bindings has been resolved, since capture sites
// are lexically inside the function body.
func (r *resolver) popFunction() {
	fs := r.fn()
	info := &FunctionInfo{
		LocalsCount: len(fs.locals),
		Captures:    fs.table.Captures(),
		LocalNames:  fs.locals,
	}
	for _, sym := range fs.symbols {
		if sym.cell && !sym.global {
			info.CellSlots = append(info.CellSlots, int(sym.index))
		}
	}
	r.info.functions[fs.node] = info

	last := len(r.releases) - 1
	releaseBorrows(r.releases[last])
	r.releases = r.releases[:last]
	r.funcs = r.funcs[:len(r.funcs)-1]
	r.scope = r.scope.Parent()
}

type declOpts struct {
	mutable bool
	proc    bool
	fn      bool
	mode    AccessMode
}

// declare introduces a binding in the current scope. Top-level declarations
// made directly at program scope become globals; everything else occupies a
// frame slot of the current function. Declaring the blank identifier
// discards the binding and returns nil.
func (r *resolver) declare(name string, pos token.Position, opts declOpts) *Symbol {
	if name == BlankIdentifier {
		return nil
	}
	if r.scope.IsDefined(name) {
		r.errorf(errz.DuplicateBinding, pos, "variable %q is already declared in this scope", name)
	}
	sym := &Symbol{
		name:    name,
		mutable: opts.mutable,
		proc:    opts.proc,
		fn:      opts.fn,
		mode:    opts.mode,
	}
	if r.atTopLevel() {
		sym.global = true
		sym.index = uint16(len(r.info.globals))
		r.info.globals = append(r.info.globals, name)
	} else {
		idx, ok := r.claimSlot(name, pos)
		if !ok {
			return nil
		}
		sym.index = idx
	}
	r.scope.Insert(sym)
	r.fn().symbols = append(r.fn().symbols, sym)
	return sym
}

// bind records the resolution for a declaration site, where the symbol is
// always directly visible.
func (r *resolver) bind(node ast.Node, sym *Symbol) {
	if sym == nil {
		return
	}
	scope := Local
	if sym.global {
		scope = Global
	}
	r.info.resolutions[node] = &Resolution{symbol: sym, scope: scope, freeIndex: -1}
}

// resolve finds the binding for a name used at node and records how the
// current function reaches it. Names that cross a function boundary are
// registered as captures on every function between the declaration and the
// use, so closures created at any depth carry the cells they need.
func (r *resolver) resolve(name string, node ast.Node) *Resolution {
	sym, defTable, ok := r.scope.Lookup(name)
	if !ok {
		if hints := errz.Suggest(name, r.scope.VisibleNames()); len(hints) > 0 {
			r.errorf(errz.UndefinedVariable, node.Pos(),
				"undefined variable %q (did you mean %q?)", name, hints[0])
		} else {
			r.errorf(errz.UndefinedVariable, node.Pos(), "undefined variable %q", name)
		}
		return nil
	}
	res := &Resolution{symbol: sym, freeIndex: -1}
	switch {
	case sym.global:
		res.scope = Global
	case defTable.FunctionRoot() == r.scope.FunctionRoot():
		res.scope = Local
	default:
		res.scope = Free
		res.freeIndex = r.capture(sym, defTable)
	}
	r.info.resolutions[node] = res
	return res
}

// capture threads sym through every function between its declaration and
// the current function, innermost last, and returns the cell index in the
// current function's capture list. The declaring function will box the
// symbol's slot at activation.
func (r *resolver) capture(sym *Symbol, defTable *SymbolTable) int {
	sym.cell = true
	defFunc := defTable.FunctionRoot()
	var chain []*SymbolTable
	for f := r.scope.FunctionRoot(); f != defFunc; f = f.Parent().FunctionRoot() {
		chain = append(chain, f)
	}
	freeIndex := -1
	for i := len(chain) - 1; i >= 0; i-- {
		capture := bytecode.Capture{Name: sym.name}
		if i == len(chain)-1 {
			capture.Local = true
			capture.Index = int(sym.index)
		} else {
			capture.Index = freeIndex
		}
		freeIndex = chain[i].captureFree(sym, capture)
	}
	return freeIndex
}

// registerBorrow checks a new borrow of sym against the borrows already
// live and records it. The caller arranges the matching release.
func (r *resolver) registerBorrow(sym *Symbol, exclusive bool, pos token.Position) {
	if exclusive {
		if sym.borrowed() {
			r.errorf(errz.ConflictingBorrow, pos,
				"cannot borrow %q exclusively while it is already borrowed", sym.name)
		}
		sym.exclusiveBorrows++
	} else {
		if sym.exclusiveBorrows > 0 {
			r.errorf(errz.ConflictingBorrow, pos,
				"cannot borrow %q while it is exclusively borrowed", sym.name)
		}
		sym.sharedBorrows++
	}
}

// scopedBorrow registers a borrow that lives until the current block
// closes, as a borrow bound by let does.
func (r *resolver) scopedBorrow(sym *Symbol, exclusive bool, pos token.Position) {
	r.registerBorrow(sym, exclusive, pos)
	last := len(r.releases) - 1
	r.releases[last] = append(r.releases[last], borrowRelease{sym: sym, exclusive: exclusive})
}

// checkMove enforces the lexical half of the move rules: a binding cannot
// be moved while borrows of it are live, and a borrowed binding cannot be
// moved at all. Whether the binding currently holds a value is the flow
// pass's concern.
func (r *resolver) checkMove(sym *Symbol, pos token.Position, what string) {
	if sym.mode != Owned {
		r.errorf(errz.ConflictingBorrow, pos, "cannot %s borrowed binding %q", what, sym.name)
		return
	}
	if sym.borrowed() {
		r.errorf(errz.ConflictingBorrow, pos, "cannot %s %q while it is borrowed", what, sym.name)
	}
}

// checkMutationScope enforces the effect rule for set and disown: a pure
// function may not mutate bindings declared outside itself. Procedures and
// the top level are unrestricted.
func (r *resolver) checkMutationScope(res *Resolution, pos token.Position, what string) {
	if r.fn().proc {
		return
	}
	if res.scope == Free || res.scope == Global {
		r.errorf(errz.EffectViolation, pos,
			"pure function cannot %s outer variable %q", what, res.symbol.name)
	}
}

func (r *resolver) program(p *ast.Program) {
	root := NewSymbolTable()
	r.scope = root
	r.funcs = []*funcScope{{node: p, table: root, proc: true}}
	r.releases = [][]borrowRelease{nil}

	// Function declarations at the top level are visible to every other
	// top-level statement, so mutually recursive declarations resolve. The
	// flow pass still rejects calls that run before the declaration.
	for _, stmt := range p.Stmts {
		decl, ok := stmt.(*ast.FuncDecl)
		if !ok {
			continue
		}
		sym := r.declare(decl.Name.Name, decl.Name.Pos(), declOpts{fn: true, proc: decl.Proc})
		if sym != nil {
			r.hoisted[decl] = sym
			r.info.globalFuncs = append(r.info.globalFuncs, decl)
		}
	}
	for _, stmt := range p.Stmts {
		r.stmt(stmt)
	}
	r.popFunction()
}

func (r *resolver) stmt(stmt ast.Stmt) {
	switch node := stmt.(type) {
	case *ast.Let:
		r.letStmt(node)
	case *ast.Set:
		r.setStmt(node)
	case *ast.Disown:
		r.disownStmt(node)
	case *ast.FuncDecl:
		r.funcDecl(node)
	case *ast.Return:
		if node.Value != nil {
			r.expr(node.Value)
		}
	case *ast.Break:
		if r.fn().depth == 0 {
			r.errorf(errz.InvalidControlFlow, node.Pos(), "break statement outside of a loop")
		}
	case *ast.Continue:
		if r.fn().depth == 0 {
			r.errorf(errz.InvalidControlFlow, node.Pos(), "continue statement outside of a loop")
		}
	case *ast.While:
		r.expr(node.Cond)
		r.fn().depth++
		r.block(node.Body)
		r.fn().depth--
	case *ast.ForIn:
		r.forIn(node)
	case *ast.Loop:
		r.fn().depth++
		r.block(node.Body)
		r.fn().depth--
	case *ast.Scope:
		r.block(node.Body)
	case *ast.If:
		r.ifStmt(node)
	case *ast.ElseBlock:
		r.block(node.Body)
	case *ast.ExprStmt:
		r.expr(node.X)
	case *ast.BadStmt:
		// The parser already reported it.
	}
}

func (r *resolver) block(b *ast.Block) {
	r.pushBlock()
	for _, stmt := range b.Stmts {
		r.stmt(stmt)
	}
	r.popBlock()
}

// inlineBlock resolves a block's statements without opening a new scope.
// Function and loop bodies share the scope of their parameters so that a
// let cannot redeclare a parameter or loop variable.
func (r *resolver) inlineBlock(b *ast.Block) {
	for _, stmt := range b.Stmts {
		r.stmt(stmt)
	}
}

func (r *resolver) letStmt(node *ast.Let) {
	if node.Value != nil {
		r.expr(node.Value)
	}
	mode := Owned
	borrow, borrowed := node.Value.(*ast.Borrow)
	if borrowed {
		if borrow.Exclusive {
			mode = ExclusiveBorrow
		} else {
			mode = SharedBorrow
		}
	}
	sym := r.declare(node.Name.Name, node.Name.Pos(), declOpts{mutable: node.Mutable, mode: mode})
	r.bind(node.Name, sym)
	if borrowed {
		// The borrow stays live for the new binding's entire scope.
		if res, ok := r.info.resolutions[borrow.Name]; ok {
			r.scopedBorrow(res.symbol, borrow.Exclusive, borrow.Pos())
		}
	}
}

func (r *resolver) setStmt(node *ast.Set) {
	r.expr(node.Value)
	res := r.resolve(node.Name.Name, node.Name)
	if res == nil {
		return
	}
	r.checkMutationScope(res, node.Pos(), "assign to")
	// Within the declaring function the flow pass decides whether an
	// assignment initializes or illegally reassigns. When the assignment
	// crosses a function boundary a single initializing assignment cannot
	// be proven, so immutability is enforced outright.
	crossing := res.scope == Free || (res.scope == Global && len(r.funcs) > 1)
	if crossing && !res.symbol.mutable {
		r.errorf(errz.AssignToImmutable, node.Pos(),
			"cannot assign to immutable variable %q", res.symbol.name)
	}
}

func (r *resolver) disownStmt(node *ast.Disown) {
	res := r.resolve(node.Name.Name, node.Name)
	if res == nil {
		return
	}
	r.checkMutationScope(res, node.Pos(), "disown")
	r.checkMove(res.symbol, node.Pos(), "disown")
}

func (r *resolver) funcDecl(node *ast.FuncDecl) {
	sym, hoisted := r.hoisted[node]
	if !hoisted {
		sym = r.declare(node.Name.Name, node.Name.Pos(), declOpts{fn: true, proc: node.Proc})
	}
	r.bind(node.Name, sym)
	r.pushFunction(node, node.Proc)
	for _, clause := range node.Clauses {
		r.clause(clause)
	}
	r.popFunction()
}

// clause resolves one parameter-pattern alternative. Parameters and body
// statements share a scope, so a body let cannot redeclare a parameter.
func (r *resolver) clause(clause *ast.Clause) {
	r.pushBlock()
	for _, param := range clause.Params {
		mode := Owned
		switch param.Mode {
		case ast.ModeShared:
			mode = SharedBorrow
		case ast.ModeExclusive:
			mode = ExclusiveBorrow
		}
		r.bindPattern(param.Pattern, mode)
	}
	r.inlineBlock(clause.Body)
	r.popBlock()
}

// bindPattern declares every name a pattern binds. Bindings inside record
// patterns are owned values copied out of the matched record; only whole
// parameters carry borrow modes.
func (r *resolver) bindPattern(pat ast.Pattern, mode AccessMode) {
	switch p := pat.(type) {
	case *ast.PatternName:
		if p.IsWildcard() {
			return
		}
		sym := r.declare(p.Name, p.Pos(), declOpts{mode: mode})
		r.bind(p, sym)
	case *ast.PatternLiteral:
		// Literal patterns bind nothing.
	case *ast.PatternRecord:
		seen := map[string]bool{}
		for _, field := range p.Fields {
			if seen[field.Name] {
				r.errorf(errz.DuplicateBinding, field.Pos(),
					"field %q is matched twice in record pattern", field.Name)
				continue
			}
			seen[field.Name] = true
			if field.Value != nil {
				r.bindPattern(field.Value, Owned)
				continue
			}
			sym := r.declare(field.Name, field.Pos(), declOpts{mode: Owned})
			r.bind(field, sym)
		}
	}
}

func (r *resolver) forIn(node *ast.ForIn) {
	r.expr(node.Iterable)
	arr, ok := r.claimSlot("", node.Pos())
	if !ok {
		return
	}
	idx, ok := r.claimSlot("", node.Pos())
	if !ok {
		return
	}
	r.info.loopSlots[node] = LoopSlots{Array: int(arr), Index: int(idx)}
	r.pushBlock()
	if node.Name.Name != BlankIdentifier {
		sym := r.declare(node.Name.Name, node.Name.Pos(), declOpts{})
		r.bind(node.Name, sym)
	}
	r.fn().depth++
	r.inlineBlock(node.Body)
	r.fn().depth--
	r.popBlock()
}

func (r *resolver) ifStmt(node *ast.If) {
	r.expr(node.Cond)
	r.block(node.Consequence)
	if node.Alternative != nil {
		r.stmt(node.Alternative)
	}
}

func (r *resolver) expr(expr ast.Expr) {
	switch node := expr.(type) {
	case *ast.Ident:
		r.resolve(node.Name, node)
	case *ast.Int, *ast.Float, *ast.String, *ast.Bool, *ast.Nil:
		// Literals resolve nothing.
	case *ast.Prefix:
		r.expr(node.X)
	case *ast.Infix:
		r.expr(node.X)
		r.expr(node.Y)
	case *ast.Call:
		r.call(node)
	case *ast.Index:
		r.expr(node.X)
		r.expr(node.Idx)
	case *ast.Field:
		r.expr(node.X)
	case *ast.Array:
		for _, elem := range node.Elems {
			r.expr(elem)
		}
	case *ast.Record:
		r.record(node)
	case *ast.Closure:
		r.closure(node)
	case *ast.Cond:
		r.cond(node)
	case *ast.Borrow:
		r.resolve(node.Name.Name, node.Name)
	case *ast.BadExpr:
		// The parser already reported it.
	}
}

// call resolves a call expression and applies the call-site ownership
// rules: a bare identifier argument moves the binding, while a sigiled
// argument borrows it for the duration of the call.
func (r *resolver) call(node *ast.Call) {
	r.expr(node.Fn)
	if ident, ok := node.Fn.(*ast.Ident); ok && !r.fn().proc {
		if res, found := r.info.resolutions[ident]; found && res.symbol.proc {
			r.errorf(errz.EffectViolation, node.Pos(),
				"pure function cannot call proc %q", ident.Name)
		}
	}
	var transient []borrowRelease
	for _, arg := range node.Args {
		switch a := arg.(type) {
		case *ast.Borrow:
			r.expr(a)
			if res, ok := r.info.resolutions[a.Name]; ok {
				r.registerBorrow(res.symbol, a.Exclusive, a.Pos())
				transient = append(transient, borrowRelease{sym: res.symbol, exclusive: a.Exclusive})
			}
		case *ast.Ident:
			r.expr(a)
			if res, ok := r.info.resolutions[a]; ok && !res.symbol.fn {
				r.checkMove(res.symbol, a.Pos(), "move")
			}
		default:
			r.expr(arg)
		}
	}
	releaseBorrows(transient)
}

func (r *resolver) record(node *ast.Record) {
	seen := map[string]bool{}
	for _, field := range node.Fields {
		if seen[field.Name] {
			r.errorf(errz.DuplicateBinding, field.Pos(),
				"duplicate field %q in record literal", field.Name)
		}
		seen[field.Name] = true
		r.expr(field.Value)
	}
}

// closure resolves an anonymous function literal. Closures are pure: the
// effect rules of a func body apply.
func (r *resolver) closure(node *ast.Closure) {
	r.pushFunction(node, false)
	r.pushBlock()
	for _, param := range node.Params {
		mode := Owned
		switch param.Mode {
		case ast.ModeShared:
			mode = SharedBorrow
		case ast.ModeExclusive:
			mode = ExclusiveBorrow
		}
		r.bindPattern(param.Pattern, mode)
	}
	r.inlineBlock(node.Body)
	r.popBlock()
	r.popFunction()
}

// cond resolves a match expression. The scrutinee is evaluated once into a
// hidden slot; each arm opens its own scope for pattern bindings.
func (r *resolver) cond(node *ast.Cond) {
	r.expr(node.Scrutinee)
	slot, ok := r.claimSlot("", node.Pos())
	if !ok {
		return
	}
	r.info.condSlots[node] = int(slot)
	for _, arm := range node.Arms {
		r.pushBlock()
		r.bindPattern(arm.Pattern, Owned)
		r.inlineBlock(arm.Body)
		r.popBlock()
	}
}
