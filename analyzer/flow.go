package analyzer

import (
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/errz"
)

// bindState is how much of a value a binding is known to hold at one point
// in the program. States are ordered: a merge of two control-flow paths
// keeps the weaker state.
type bindState uint8

const (
	stateUninit bindState = iota
	stateMoved
	stateInit
)

// flowMap holds the state of every binding tracked in the current function.
// A nil map marks the current program point unreachable. Bindings declared
// in enclosing functions are absent and assumed initialized: their state
// cannot be known without seeing every call.
type flowMap map[*Symbol]bindState

func (m flowMap) clone() flowMap {
	if m == nil {
		return nil
	}
	out := make(flowMap, len(m))
	for sym, st := range m {
		out[sym] = st
	}
	return out
}

func (m flowMap) equal(o flowMap) bool {
	if (m == nil) != (o == nil) || len(m) != len(o) {
		return false
	}
	for sym, st := range m {
		if other, ok := o[sym]; !ok || other != st {
			return false
		}
	}
	return true
}

// meetFlow joins the states of two control-flow paths, keeping the weakest
// knowledge of each binding. An unreachable path imposes nothing.
func meetFlow(a, b flowMap) flowMap {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := make(flowMap, len(a))
	for sym, sa := range a {
		if sb, ok := b[sym]; ok && sb < sa {
			out[sym] = sb
		} else {
			out[sym] = sa
		}
	}
	for sym, sb := range b {
		if _, ok := a[sym]; !ok {
			out[sym] = sb
		}
	}
	return out
}

// loopFlow collects the states flowing out of a loop through break, and
// back to its top through continue.
type loopFlow struct {
	breaks    []flowMap
	continues []flowMap
}

// flowChecker implements the flow pass: it verifies along every
// control-flow path that reads see an initialized binding, that moved
// bindings are not used until reassigned, and that immutable bindings are
// assigned at most once. Loop bodies are walked to a fixed point with
// reporting suppressed, then walked once more with the stable entry state
// to report errors.
type flowChecker struct {
	*analysis
	report bool
	state  flowMap
	loops  []*loopFlow
}

func (f *flowChecker) program(p *ast.Program) {
	f.state = flowMap{}
	// Top-level function names are resolvable everywhere for mutual
	// recursion, but calling one before its declaration statement runs is
	// still an error.
	for _, stmt := range p.Stmts {
		if decl, ok := stmt.(*ast.FuncDecl); ok {
			if res, found := f.info.resolutions[decl.Name]; found {
				f.state[res.symbol] = stateUninit
			}
		}
	}
	for _, stmt := range p.Stmts {
		f.stmt(stmt)
	}
}

func (f *flowChecker) stmt(stmt ast.Stmt) {
	switch node := stmt.(type) {
	case *ast.Let:
		f.letStmt(node)
	case *ast.Set:
		f.setStmt(node)
	case *ast.Disown:
		f.disownStmt(node)
	case *ast.FuncDecl:
		f.funcDecl(node)
	case *ast.Return:
		if node.Value != nil {
			f.expr(node.Value)
		}
		f.state = nil
	case *ast.Break:
		if len(f.loops) > 0 && f.state != nil {
			lf := f.loops[len(f.loops)-1]
			lf.breaks = append(lf.breaks, f.state.clone())
		}
		f.state = nil
	case *ast.Continue:
		if len(f.loops) > 0 && f.state != nil {
			lf := f.loops[len(f.loops)-1]
			lf.continues = append(lf.continues, f.state.clone())
		}
		f.state = nil
	case *ast.While:
		f.whileStmt(node)
	case *ast.ForIn:
		f.forIn(node)
	case *ast.Loop:
		f.loopStmt(node)
	case *ast.Scope:
		f.block(node.Body)
	case *ast.If:
		f.ifStmt(node)
	case *ast.ElseBlock:
		f.block(node.Body)
	case *ast.ExprStmt:
		f.expr(node.X)
	}
}

func (f *flowChecker) block(b *ast.Block) {
	for _, stmt := range b.Stmts {
		f.stmt(stmt)
	}
}

func (f *flowChecker) letStmt(node *ast.Let) {
	if node.Value != nil {
		f.expr(node.Value)
	}
	res, ok := f.info.resolutions[node.Name]
	if !ok || f.state == nil {
		return
	}
	if node.Value != nil {
		f.state[res.symbol] = stateInit
	} else {
		f.state[res.symbol] = stateUninit
	}
}

func (f *flowChecker) setStmt(node *ast.Set) {
	f.expr(node.Value)
	res, ok := f.info.resolutions[node.Name]
	if !ok || f.state == nil {
		return
	}
	st, tracked := f.state[res.symbol]
	if !tracked {
		// Declared in an enclosing function; the resolution pass enforced
		// mutability for cross-function assignment.
		return
	}
	if st == stateInit && !res.symbol.mutable && f.report {
		f.errorf(errz.AssignToImmutable, node.Pos(),
			"cannot assign to immutable variable %q", res.symbol.name)
	}
	f.state[res.symbol] = stateInit
}

func (f *flowChecker) disownStmt(node *ast.Disown) {
	f.read(node.Name.Name, node.Name)
	res, ok := f.info.resolutions[node.Name]
	if !ok || f.state == nil {
		return
	}
	if _, tracked := f.state[res.symbol]; tracked {
		f.state[res.symbol] = stateMoved
	}
}

// funcDecl initializes the declared name at the declaration statement, then
// checks each clause body in a fresh context where only the parameters are
// known.
func (f *flowChecker) funcDecl(node *ast.FuncDecl) {
	if res, ok := f.info.resolutions[node.Name]; ok && f.state != nil {
		f.state[res.symbol] = stateInit
	}
	saved, savedLoops := f.state, f.loops
	for _, clause := range node.Clauses {
		f.state = flowMap{}
		f.loops = nil
		for _, param := range clause.Params {
			f.bindPattern(param.Pattern)
		}
		f.block(clause.Body)
	}
	f.state, f.loops = saved, savedLoops
}

func (f *flowChecker) whileStmt(node *ast.While) {
	pre := f.state.clone()
	entry := pre.clone()
	saved := f.report
	f.report = false
	for {
		f.state = entry.clone()
		f.loops = append(f.loops, &loopFlow{})
		f.expr(node.Cond)
		f.block(node.Body)
		lf := f.loops[len(f.loops)-1]
		f.loops = f.loops[:len(f.loops)-1]
		back := f.state
		for _, c := range lf.continues {
			back = meetFlow(back, c)
		}
		next := meetFlow(pre, back)
		if next.equal(entry) {
			break
		}
		entry = next
	}
	f.report = saved

	f.state = entry.clone()
	f.loops = append(f.loops, &loopFlow{})
	f.expr(node.Cond)
	exit := f.state.clone() // the path where the condition is false
	f.block(node.Body)
	lf := f.loops[len(f.loops)-1]
	f.loops = f.loops[:len(f.loops)-1]
	for _, b := range lf.breaks {
		exit = meetFlow(exit, b)
	}
	f.state = exit
}

func (f *flowChecker) loopStmt(node *ast.Loop) {
	pre := f.state.clone()
	entry := pre.clone()
	saved := f.report
	f.report = false
	for {
		f.state = entry.clone()
		f.loops = append(f.loops, &loopFlow{})
		f.block(node.Body)
		lf := f.loops[len(f.loops)-1]
		f.loops = f.loops[:len(f.loops)-1]
		back := f.state
		for _, c := range lf.continues {
			back = meetFlow(back, c)
		}
		next := meetFlow(pre, back)
		if next.equal(entry) {
			break
		}
		entry = next
	}
	f.report = saved

	f.state = entry.clone()
	f.loops = append(f.loops, &loopFlow{})
	f.block(node.Body)
	lf := f.loops[len(f.loops)-1]
	f.loops = f.loops[:len(f.loops)-1]
	// A loop statement only exits through break; without one, the code
	// after the loop is unreachable.
	var exit flowMap
	for _, b := range lf.breaks {
		exit = meetFlow(exit, b)
	}
	f.state = exit
}

func (f *flowChecker) forIn(node *ast.ForIn) {
	f.expr(node.Iterable)
	pre := f.state.clone()
	entry := pre.clone()
	saved := f.report
	f.report = false
	for {
		f.state = entry.clone()
		f.loops = append(f.loops, &loopFlow{})
		f.bindLoopVar(node)
		f.block(node.Body)
		lf := f.loops[len(f.loops)-1]
		f.loops = f.loops[:len(f.loops)-1]
		back := f.state
		for _, c := range lf.continues {
			back = meetFlow(back, c)
		}
		next := meetFlow(pre, back)
		if next.equal(entry) {
			break
		}
		entry = next
	}
	f.report = saved

	f.state = entry.clone()
	f.loops = append(f.loops, &loopFlow{})
	f.bindLoopVar(node)
	f.block(node.Body)
	lf := f.loops[len(f.loops)-1]
	f.loops = f.loops[:len(f.loops)-1]
	exit := pre // the array may be empty
	for _, b := range lf.breaks {
		exit = meetFlow(exit, b)
	}
	f.state = exit
}

func (f *flowChecker) bindLoopVar(node *ast.ForIn) {
	if f.state == nil {
		return
	}
	if res, ok := f.info.resolutions[node.Name]; ok {
		f.state[res.symbol] = stateInit
	}
}

func (f *flowChecker) ifStmt(node *ast.If) {
	f.expr(node.Cond)
	pre := f.state.clone()
	f.block(node.Consequence)
	thenState := f.state
	if node.Alternative != nil {
		f.state = pre.clone()
		f.stmt(node.Alternative)
		f.state = meetFlow(thenState, f.state)
		return
	}
	f.state = meetFlow(thenState, pre)
}

func (f *flowChecker) expr(expr ast.Expr) {
	switch node := expr.(type) {
	case *ast.Ident:
		f.read(node.Name, node)
	case *ast.Int, *ast.Float, *ast.String, *ast.Bool, *ast.Nil:
		// Literals carry no flow.
	case *ast.Prefix:
		f.expr(node.X)
	case *ast.Infix:
		f.expr(node.X)
		f.expr(node.Y)
	case *ast.Call:
		f.call(node)
	case *ast.Index:
		f.expr(node.X)
		f.expr(node.Idx)
	case *ast.Field:
		f.expr(node.X)
	case *ast.Array:
		for _, elem := range node.Elems {
			f.expr(elem)
		}
	case *ast.Record:
		for _, field := range node.Fields {
			f.expr(field.Value)
		}
	case *ast.Closure:
		f.closure(node)
	case *ast.Cond:
		f.cond(node)
	case *ast.Borrow:
		f.read(node.Name.Name, node.Name)
	}
}

// call applies the call-site ownership transfers: borrowed arguments are
// reads, and a bare identifier argument leaves its binding moved. Declared
// functions are constants and are copied, not moved.
func (f *flowChecker) call(node *ast.Call) {
	f.expr(node.Fn)
	for _, arg := range node.Args {
		switch a := arg.(type) {
		case *ast.Borrow:
			f.read(a.Name.Name, a.Name)
		case *ast.Ident:
			f.read(a.Name, a)
			res, ok := f.info.resolutions[a]
			if !ok || res.symbol.fn || f.state == nil {
				continue
			}
			if _, tracked := f.state[res.symbol]; tracked {
				f.state[res.symbol] = stateMoved
			}
		default:
			f.expr(arg)
		}
	}
}

// closure checks the body in a fresh context. Captured bindings are not
// tracked across the closure boundary: the closure may run at any later
// point, so their state at creation proves nothing.
func (f *flowChecker) closure(node *ast.Closure) {
	saved, savedLoops := f.state, f.loops
	f.state = flowMap{}
	f.loops = nil
	for _, param := range node.Params {
		f.bindPattern(param.Pattern)
	}
	f.block(node.Body)
	f.state, f.loops = saved, savedLoops
}

// cond joins the arms as alternative paths. Dispatch picks exactly one arm
// at runtime, so the state after the cond is the meet over the arm exits;
// the no-match case raises and contributes nothing.
func (f *flowChecker) cond(node *ast.Cond) {
	f.expr(node.Scrutinee)
	if len(node.Arms) == 0 {
		return
	}
	pre := f.state.clone()
	var merged flowMap
	for _, arm := range node.Arms {
		f.state = pre.clone()
		f.bindPattern(arm.Pattern)
		f.block(arm.Body)
		merged = meetFlow(merged, f.state)
	}
	f.state = merged
}

func (f *flowChecker) bindPattern(pat ast.Pattern) {
	if f.state == nil {
		return
	}
	switch p := pat.(type) {
	case *ast.PatternName:
		if res, ok := f.info.resolutions[p]; ok {
			f.state[res.symbol] = stateInit
		}
	case *ast.PatternLiteral:
		// Literal patterns bind nothing.
	case *ast.PatternRecord:
		for _, field := range p.Fields {
			if field.Value != nil {
				f.bindPattern(field.Value)
				continue
			}
			if res, ok := f.info.resolutions[field]; ok {
				f.state[res.symbol] = stateInit
			}
		}
	}
}

// read checks that a binding holds a value at this point. Bindings declared
// in enclosing functions are not tracked and pass unchecked.
func (f *flowChecker) read(name string, node ast.Node) {
	res, ok := f.info.resolutions[node]
	if !ok || f.state == nil {
		return
	}
	st, tracked := f.state[res.symbol]
	if !tracked || !f.report {
		return
	}
	switch st {
	case stateUninit:
		f.errorf(errz.UseOfUninitialized, node.Pos(), "variable %q may be uninitialized", name)
	case stateMoved:
		f.errorf(errz.UseAfterMove, node.Pos(), "use of moved variable %q", name)
	}
}
