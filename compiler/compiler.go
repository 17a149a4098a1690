// Package compiler lowers an analyzed Tarn program into a bytecode unit.
//
// Compilation is a single deterministic pass over the AST. The analyzer has
// already resolved every name to a slot and computed every function's frame
// layout, so the compiler only emits instructions: expressions compile to
// stack-effect-balanced runs, control flow compiles to relative jumps with
// placeholder patching, and functions compile to templates stored in the
// unit's constant pool.
//
// The compiler never runs on an unanalyzed program. Passing an AST that did
// not come through analyzer.Analyze is a contract violation and the results
// are undefined; most violations surface as missing-resolution internal
// errors.
package compiler

import (
	"fmt"
	"math"

	"github.com/gofrs/uuid"

	"github.com/tarn-lang/tarn/analyzer"
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/bytecode"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/op"
	"github.com/tarn-lang/tarn/token"
)

// Placeholder is the operand written at a jump's emit site before its
// target is known. Every placeholder is patched before compilation returns.
const Placeholder = math.MaxUint16

// MaxConstants is the size limit of the unit's constant pool, fixed by the
// width of instruction operands.
const MaxConstants = math.MaxUint16

// Config contains compilation options.
type Config struct {
	// Filename is the name of the source file, recorded on the unit.
	Filename string

	// Source is the source code text, recorded on the unit so runtime
	// errors can quote the offending line.
	Source string
}

// Compile lowers an analyzed program into a bytecode unit. The info must be
// the product of analyzing the same program.
func Compile(program *ast.Program, info *analyzer.Info, cfg Config) (*bytecode.Unit, error) {
	c := &Compiler{
		filename:    cfg.Filename,
		source:      cfg.Source,
		info:        info,
		scalarIndex: map[any]uint16{},
		nameIndex:   map[string]uint16{},
		entryPoints: map[string]int{},
		globalDecls: map[*ast.FuncDecl]bool{},
	}
	for _, decl := range info.GlobalFunctions() {
		c.globalDecls[decl] = true
	}
	main, err := c.compileProgram(program)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	unit := bytecode.NewUnit(bytecode.UnitParams{
		ID:          id.String(),
		Main:        main,
		Constants:   c.constants,
		Names:       c.names,
		GlobalNames: info.GlobalNames(),
		EntryPoints: c.entryPoints,
		Filename:    cfg.Filename,
		Source:      cfg.Source,
	})
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	return unit, nil
}

// Compiler holds the state of one compilation: the shared constant and name
// tables, the fragment stack, and the entry-point table under construction.
type Compiler struct {
	filename    string
	source      string
	info        *analyzer.Info
	constants   []any
	scalarIndex map[any]uint16
	names       []string
	nameIndex   map[string]uint16
	entryPoints map[string]int
	globalDecls map[*ast.FuncDecl]bool
	current     *fragment
	stack       []*fragment
	node        ast.Node
}

// clauseSrc is one parameter-pattern alternative as it appears in source:
// a declared clause, or the single implicit clause of a closure literal.
type clauseSrc struct {
	params []*ast.Param
	body   *ast.Block
}

func (c *Compiler) compileProgram(program *ast.Program) (*bytecode.Function, error) {
	info, ok := c.info.FunctionOf(program)
	if !ok {
		return nil, c.errorf(program.Pos(), "program has no frame information")
	}
	c.pushFragment(&fragment{name: "", proc: true, info: info})
	c.current.clauses = []bytecode.Clause{{NumParams: 0, Entry: 0}}
	if err := c.compileStmts(program.Stmts, true); err != nil {
		return nil, err
	}
	c.emit(op.ReturnValue)
	return c.popFragment().build(), nil
}

func (c *Compiler) pushFragment(f *fragment) {
	c.stack = append(c.stack, f)
	c.current = f
}

func (c *Compiler) popFragment() *fragment {
	f := c.current
	c.stack = c.stack[:len(c.stack)-1]
	if len(c.stack) > 0 {
		c.current = c.stack[len(c.stack)-1]
	} else {
		c.current = nil
	}
	return f
}

// ---------------------------------------------------------------------------
// Statements

func (c *Compiler) stmt(stmt ast.Stmt) error {
	c.node = stmt
	switch node := stmt.(type) {
	case *ast.Let:
		return c.letStmt(node)
	case *ast.Set:
		return c.setStmt(node)
	case *ast.Disown:
		return c.disownStmt(node)
	case *ast.FuncDecl:
		return c.funcDecl(node)
	case *ast.Return:
		return c.returnStmt(node)
	case *ast.Break:
		loop := c.current.currentLoop()
		if loop == nil {
			return c.errorf(node.Pos(), "break outside of a loop survived analysis")
		}
		loop.breakPos = append(loop.breakPos, c.emit(op.JumpForward, Placeholder))
		return nil
	case *ast.Continue:
		loop := c.current.currentLoop()
		if loop == nil {
			return c.errorf(node.Pos(), "continue outside of a loop survived analysis")
		}
		loop.continuePos = append(loop.continuePos, c.emit(op.JumpForward, Placeholder))
		return nil
	case *ast.While:
		return c.whileStmt(node)
	case *ast.ForIn:
		return c.forInStmt(node)
	case *ast.Loop:
		return c.loopStmt(node)
	case *ast.Scope:
		return c.compileStmts(node.Body.Stmts, false)
	case *ast.If:
		return c.ifStmt(node)
	case *ast.ElseBlock:
		return c.compileStmts(node.Body.Stmts, false)
	case *ast.ExprStmt:
		if err := c.expr(node.X); err != nil {
			return err
		}
		c.emit(op.PopTop)
		return nil
	default:
		return c.errorf(stmt.Pos(), "unsupported statement type %T", stmt)
	}
}

// compileStmts compiles a statement sequence. When valued is true the
// sequence leaves one value on the stack: the value of its trailing
// expression statement, or nil when the sequence ends some other way.
// Function bodies, cond arms, and the program's top level are valued;
// loop bodies and branch arms are not.
func (c *Compiler) compileStmts(stmts []ast.Stmt, valued bool) error {
	for i, stmt := range stmts {
		last := i == len(stmts)-1
		if last && valued {
			if es, ok := stmt.(*ast.ExprStmt); ok {
				c.node = stmt
				return c.expr(es.X)
			}
		}
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	if valued {
		c.emit(op.Nil)
	}
	return nil
}

func (c *Compiler) compileBlock(block *ast.Block, valued bool) error {
	return c.compileStmts(block.Stmts, valued)
}

func (c *Compiler) letStmt(node *ast.Let) error {
	if node.Value == nil {
		// Declared uninitialized: the slot already holds nil and the flow
		// checker guarantees no read happens before the first assignment.
		return nil
	}
	if err := c.expr(node.Value); err != nil {
		return err
	}
	c.node = node
	res, ok := c.info.ResolutionOf(node.Name)
	if !ok {
		// Binding the blank identifier evaluates and discards.
		c.emit(op.PopTop)
		return nil
	}
	c.emitStore(res)
	return nil
}

func (c *Compiler) setStmt(node *ast.Set) error {
	if err := c.expr(node.Value); err != nil {
		return err
	}
	c.node = node
	res, ok := c.info.ResolutionOf(node.Name)
	if !ok {
		return c.errorf(node.Pos(), "unresolved assignment target %q", node.Name.Name)
	}
	c.emitStore(res)
	return nil
}

// disownStmt clears the binding's slot so the collector can reclaim the old
// referent. The analyzer has already arranged that the binding is never
// read again without reinitialization.
func (c *Compiler) disownStmt(node *ast.Disown) error {
	res, ok := c.info.ResolutionOf(node.Name)
	if !ok {
		return c.errorf(node.Pos(), "unresolved disown target %q", node.Name.Name)
	}
	c.node = node
	c.emit(op.Nil)
	c.emitStore(res)
	return nil
}

func (c *Compiler) returnStmt(node *ast.Return) error {
	if node.Value != nil {
		if err := c.expr(node.Value); err != nil {
			return err
		}
	} else {
		c.emit(op.Nil)
	}
	c.node = node
	c.emit(op.ReturnValue)
	return nil
}

func (c *Compiler) whileStmt(node *ast.While) error {
	start := c.position()
	if err := c.expr(node.Cond); err != nil {
		return err
	}
	c.node = node
	exitPos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	loop := c.current.pushLoop()
	if err := c.compileBlock(node.Body, false); err != nil {
		return err
	}
	c.current.popLoop()
	c.node = node
	c.patchJump(c.emit(op.JumpForward, Placeholder), start)
	end := c.position()
	c.patchJump(exitPos, end)
	for _, pos := range loop.breakPos {
		c.patchJump(pos, end)
	}
	for _, pos := range loop.continuePos {
		c.patchJump(pos, start)
	}
	return nil
}

// forInStmt lowers array iteration onto two hidden frame slots: one holding
// the array, one the running index. Continue jumps to the increment, break
// past the loop.
func (c *Compiler) forInStmt(node *ast.ForIn) error {
	slots, ok := c.info.ForLoopSlots(node)
	if !ok {
		return c.errorf(node.Pos(), "for loop has no slot information")
	}
	if err := c.expr(node.Iterable); err != nil {
		return err
	}
	c.node = node
	c.emit(op.StoreFast, uint16(slots.Array))
	zero, err := c.constant(node.Pos(), int64(0))
	if err != nil {
		return err
	}
	c.emit(op.LoadConst, zero)
	c.emit(op.StoreFast, uint16(slots.Index))

	start := c.position()
	c.emit(op.LoadFast, uint16(slots.Index))
	c.emit(op.LoadFast, uint16(slots.Array))
	c.emit(op.Length)
	c.emit(op.CompareOp, uint16(op.LessThan))
	exitPos := c.emit(op.PopJumpForwardIfFalse, Placeholder)

	if res, bound := c.info.ResolutionOf(node.Name); bound {
		c.emit(op.LoadFast, uint16(slots.Array))
		c.emit(op.LoadFast, uint16(slots.Index))
		c.emit(op.LoadIndex)
		c.emitStore(res)
	}

	loop := c.current.pushLoop()
	if err := c.compileBlock(node.Body, false); err != nil {
		return err
	}
	c.current.popLoop()

	c.node = node
	increment := c.position()
	c.emit(op.LoadFast, uint16(slots.Index))
	one, err := c.constant(node.Pos(), int64(1))
	if err != nil {
		return err
	}
	c.emit(op.LoadConst, one)
	c.emit(op.BinaryOp, uint16(op.Add))
	c.emit(op.StoreFast, uint16(slots.Index))
	c.patchJump(c.emit(op.JumpForward, Placeholder), start)

	end := c.position()
	c.patchJump(exitPos, end)
	for _, pos := range loop.breakPos {
		c.patchJump(pos, end)
	}
	for _, pos := range loop.continuePos {
		c.patchJump(pos, increment)
	}
	return nil
}

func (c *Compiler) loopStmt(node *ast.Loop) error {
	start := c.position()
	loop := c.current.pushLoop()
	if err := c.compileBlock(node.Body, false); err != nil {
		return err
	}
	c.current.popLoop()
	c.node = node
	c.patchJump(c.emit(op.JumpForward, Placeholder), start)
	end := c.position()
	for _, pos := range loop.breakPos {
		c.patchJump(pos, end)
	}
	for _, pos := range loop.continuePos {
		c.patchJump(pos, start)
	}
	return nil
}

func (c *Compiler) ifStmt(node *ast.If) error {
	if err := c.expr(node.Cond); err != nil {
		return err
	}
	c.node = node
	elsePos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compileBlock(node.Consequence, false); err != nil {
		return err
	}
	if node.Alternative == nil {
		c.patchJump(elsePos, c.position())
		return nil
	}
	c.node = node
	endPos := c.emit(op.JumpForward, Placeholder)
	c.patchJump(elsePos, c.position())
	if err := c.stmt(node.Alternative); err != nil {
		return err
	}
	c.patchJump(endPos, c.position())
	return nil
}

// ---------------------------------------------------------------------------
// Functions and closures

// funcDecl compiles a declared function: every clause body goes into one
// template, and the declaration site creates the callable closure value and
// stores it into the declared binding. Top-level declarations also become
// named entry points of the unit.
func (c *Compiler) funcDecl(node *ast.FuncDecl) error {
	clauses := make([]clauseSrc, 0, len(node.Clauses))
	for _, clause := range node.Clauses {
		clauses = append(clauses, clauseSrc{params: clause.Params, body: clause.Body})
	}
	constIndex, captures, err := c.compileFunction(node, node.Name.Name, node.Proc, clauses)
	if err != nil {
		return err
	}
	c.node = node
	if err := c.emitClosure(node.Pos(), constIndex, captures); err != nil {
		return err
	}
	res, ok := c.info.ResolutionOf(node.Name)
	if !ok {
		return c.errorf(node.Pos(), "unresolved function name %q", node.Name.Name)
	}
	c.emitStore(res)
	if c.globalDecls[node] {
		c.entryPoints[node.Name.Name] = int(constIndex)
	}
	return nil
}

func (c *Compiler) closureExpr(node *ast.Closure) error {
	constIndex, captures, err := c.compileFunction(node, "", false,
		[]clauseSrc{{params: node.Params, body: node.Body}})
	if err != nil {
		return err
	}
	c.node = node
	return c.emitClosure(node.Pos(), constIndex, captures)
}

// compileFunction compiles clause bodies into a fresh fragment and pools
// the finished template. It returns the template's constant index and the
// capture list the creation site must push.
func (c *Compiler) compileFunction(node ast.Node, name string, proc bool, clauses []clauseSrc) (uint16, []bytecode.Capture, error) {
	info, ok := c.info.FunctionOf(node)
	if !ok {
		return 0, nil, c.errorf(node.Pos(), "function %q has no frame information", name)
	}
	c.pushFragment(&fragment{name: name, proc: proc, info: info})
	for _, clause := range clauses {
		entry := c.position()
		indices := make([]int, 0, len(clause.params))
		for _, param := range clause.params {
			index, err := c.pattern(param.Pattern)
			if err != nil {
				c.popFragment()
				return 0, nil, err
			}
			indices = append(indices, int(index))
		}
		c.current.clauses = append(c.current.clauses, bytecode.Clause{
			NumParams:      len(clause.params),
			PatternIndices: indices,
			Entry:          entry,
		})
		if err := c.compileBlock(clause.body, true); err != nil {
			c.popFragment()
			return 0, nil, err
		}
		c.node = node
		c.emit(op.ReturnValue)
	}
	fn := c.popFragment().build()
	index, err := c.addConstant(node.Pos(), fn)
	if err != nil {
		return 0, nil, err
	}
	return index, info.Captures, nil
}

// emitClosure pushes the cells a closure captures and creates the closure.
// A capture of the enclosing frame's local is the cell stored in that boxed
// slot; a capture of a variable from further out is a cell of the enclosing
// closure's own environment.
func (c *Compiler) emitClosure(pos token.Position, constIndex uint16, captures []bytecode.Capture) error {
	for _, capture := range captures {
		if capture.Index > math.MaxUint16 {
			return c.errorf(pos, "capture index %d out of range", capture.Index)
		}
		if capture.Local {
			c.emit(op.LoadFast, uint16(capture.Index))
		} else {
			c.emit(op.LoadFreeCell, uint16(capture.Index))
		}
	}
	c.emit(op.LoadClosure, constIndex, uint16(len(captures)))
	return nil
}

// ---------------------------------------------------------------------------
// Expressions

func (c *Compiler) expr(expr ast.Expr) error {
	c.node = expr
	switch node := expr.(type) {
	case *ast.Nil:
		c.emit(op.Nil)
		return nil
	case *ast.Bool:
		if node.Value {
			c.emit(op.True)
		} else {
			c.emit(op.False)
		}
		return nil
	case *ast.Int:
		return c.constExpr(node.Pos(), node.Value)
	case *ast.Float:
		return c.constExpr(node.Pos(), node.Value)
	case *ast.String:
		return c.constExpr(node.Pos(), node.Value)
	case *ast.Ident:
		return c.identExpr(node)
	case *ast.Borrow:
		// Borrows have no runtime representation: the analyzer enforced the
		// aliasing rules and the borrow compiles to a plain load.
		return c.identExpr(node.Name)
	case *ast.Prefix:
		return c.prefixExpr(node)
	case *ast.Infix:
		return c.infixExpr(node)
	case *ast.Call:
		return c.callExpr(node)
	case *ast.Index:
		return c.indexExpr(node)
	case *ast.Field:
		return c.fieldExpr(node)
	case *ast.Array:
		return c.arrayExpr(node)
	case *ast.Record:
		return c.recordExpr(node)
	case *ast.Closure:
		return c.closureExpr(node)
	case *ast.Cond:
		return c.condExpr(node)
	default:
		return c.errorf(expr.Pos(), "unsupported expression type %T", expr)
	}
}

func (c *Compiler) identExpr(node *ast.Ident) error {
	res, ok := c.info.ResolutionOf(node)
	if !ok {
		return c.errorf(node.Pos(), "unresolved variable %q", node.Name)
	}
	c.node = node
	c.emitLoad(res)
	return nil
}

func (c *Compiler) prefixExpr(node *ast.Prefix) error {
	if err := c.expr(node.X); err != nil {
		return err
	}
	c.node = node
	switch node.Op {
	case "-":
		c.emit(op.UnaryNegative)
	case "!":
		c.emit(op.UnaryNot)
	default:
		return c.errorf(node.Pos(), "unsupported prefix operator %q", node.Op)
	}
	return nil
}

func (c *Compiler) infixExpr(node *ast.Infix) error {
	switch node.Op {
	case "&&":
		return c.andExpr(node)
	case "||":
		return c.orExpr(node)
	}
	if err := c.expr(node.X); err != nil {
		return err
	}
	if err := c.expr(node.Y); err != nil {
		return err
	}
	c.node = node
	switch node.Op {
	case "+":
		c.emit(op.BinaryOp, uint16(op.Add))
	case "-":
		c.emit(op.BinaryOp, uint16(op.Subtract))
	case "*":
		c.emit(op.BinaryOp, uint16(op.Multiply))
	case "/":
		c.emit(op.BinaryOp, uint16(op.Divide))
	case "%":
		c.emit(op.BinaryOp, uint16(op.Modulo))
	case "^":
		c.emit(op.BinaryOp, uint16(op.Xor))
	case "<<":
		c.emit(op.BinaryOp, uint16(op.LShift))
	case ">>":
		c.emit(op.BinaryOp, uint16(op.RShift))
	case "&":
		c.emit(op.BinaryOp, uint16(op.BitwiseAnd))
	case "|":
		c.emit(op.BinaryOp, uint16(op.BitwiseOr))
	case "<":
		c.emit(op.CompareOp, uint16(op.LessThan))
	case "<=":
		c.emit(op.CompareOp, uint16(op.LessThanOrEqual))
	case "==":
		c.emit(op.CompareOp, uint16(op.Equal))
	case "!=":
		c.emit(op.CompareOp, uint16(op.NotEqual))
	case ">":
		c.emit(op.CompareOp, uint16(op.GreaterThan))
	case ">=":
		c.emit(op.CompareOp, uint16(op.GreaterThanOrEqual))
	default:
		return c.errorf(node.Pos(), "unsupported infix operator %q", node.Op)
	}
	return nil
}

// andExpr compiles && as control flow: when the left operand is false it is
// the result and the right operand never evaluates.
func (c *Compiler) andExpr(node *ast.Infix) error {
	if err := c.expr(node.X); err != nil {
		return err
	}
	c.node = node
	c.emit(op.Copy, 0)
	endPos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	c.emit(op.PopTop)
	if err := c.expr(node.Y); err != nil {
		return err
	}
	c.patchJump(endPos, c.position())
	return nil
}

// orExpr is symmetric: a true left operand short-circuits.
func (c *Compiler) orExpr(node *ast.Infix) error {
	if err := c.expr(node.X); err != nil {
		return err
	}
	c.node = node
	c.emit(op.Copy, 0)
	endPos := c.emit(op.PopJumpForwardIfTrue, Placeholder)
	c.emit(op.PopTop)
	if err := c.expr(node.Y); err != nil {
		return err
	}
	c.patchJump(endPos, c.position())
	return nil
}

func (c *Compiler) callExpr(node *ast.Call) error {
	if err := c.expr(node.Fn); err != nil {
		return err
	}
	for _, arg := range node.Args {
		if err := c.expr(arg); err != nil {
			return err
		}
	}
	c.node = node
	if len(node.Args) > math.MaxUint16 {
		return c.errorf(node.Pos(), "too many call arguments")
	}
	c.emit(op.Call, uint16(len(node.Args)))
	return nil
}

func (c *Compiler) indexExpr(node *ast.Index) error {
	if err := c.expr(node.X); err != nil {
		return err
	}
	if err := c.expr(node.Idx); err != nil {
		return err
	}
	c.node = node
	c.emit(op.LoadIndex)
	return nil
}

func (c *Compiler) fieldExpr(node *ast.Field) error {
	if err := c.expr(node.X); err != nil {
		return err
	}
	c.node = node
	c.emit(op.LoadField, c.name(node.Name))
	return nil
}

func (c *Compiler) arrayExpr(node *ast.Array) error {
	for _, elem := range node.Elems {
		if err := c.expr(elem); err != nil {
			return err
		}
	}
	c.node = node
	if len(node.Elems) > math.MaxUint16 {
		return c.errorf(node.Pos(), "too many array elements")
	}
	c.emit(op.BuildArray, uint16(len(node.Elems)))
	return nil
}

// recordExpr compiles a record literal. Each literal site gets one shape
// constant carrying its ordered field names; the instruction pops one value
// per field.
func (c *Compiler) recordExpr(node *ast.Record) error {
	fields := make([]string, 0, len(node.Fields))
	for _, field := range node.Fields {
		fields = append(fields, field.Name)
		if err := c.expr(field.Value); err != nil {
			return err
		}
	}
	c.node = node
	shapeIndex, err := c.addConstant(node.Pos(), bytecode.NewRecordShape(fields))
	if err != nil {
		return err
	}
	c.emit(op.BuildRecord, shapeIndex)
	return nil
}

// condExpr evaluates the scrutinee once into its hidden slot, then tests
// each arm's pattern in source order. The first matching arm's body
// produces the cond's value; exhausting the arms traps NoMatchingArm unless
// some arm is irrefutable.
func (c *Compiler) condExpr(node *ast.Cond) error {
	if err := c.expr(node.Scrutinee); err != nil {
		return err
	}
	c.node = node
	slot, ok := c.info.CondSlot(node)
	if !ok {
		return c.errorf(node.Pos(), "cond has no scrutinee slot")
	}
	c.emit(op.StoreFast, uint16(slot))

	irrefutable := false
	var endJumps []int
	for _, arm := range node.Arms {
		c.node = arm.Pattern
		patternIndex, err := c.pattern(arm.Pattern)
		if err != nil {
			return err
		}
		c.emit(op.MatchPattern, patternIndex, uint16(slot))
		nextPos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
		if err := c.compileBlock(arm.Body, true); err != nil {
			return err
		}
		c.node = arm.Pattern
		endJumps = append(endJumps, c.emit(op.JumpForward, Placeholder))
		c.patchJump(nextPos, c.position())
		if isIrrefutable(arm.Pattern) {
			irrefutable = true
		}
	}
	c.node = node
	if !irrefutable {
		c.emit(op.MatchFail)
	}
	end := c.position()
	for _, pos := range endJumps {
		c.patchJump(pos, end)
	}
	return nil
}

// isIrrefutable reports whether a pattern matches every scrutinee: the
// wildcard and bare name bindings do, literals and record patterns do not.
func isIrrefutable(pat ast.Pattern) bool {
	_, ok := pat.(*ast.PatternName)
	return ok
}

// ---------------------------------------------------------------------------
// Patterns

// pattern compiles an AST pattern into an immutable pattern constant and
// returns its pool index. Binding slots and boxed flags come from the
// analyzer's resolutions.
func (c *Compiler) pattern(pat ast.Pattern) (uint16, error) {
	compiled, err := c.buildPattern(pat)
	if err != nil {
		return 0, err
	}
	return c.addConstant(pat.Pos(), compiled)
}

func (c *Compiler) buildPattern(pat ast.Pattern) (*bytecode.Pattern, error) {
	switch p := pat.(type) {
	case *ast.PatternName:
		if p.IsWildcard() {
			return bytecode.NewWildcardPattern(), nil
		}
		res, ok := c.info.ResolutionOf(p)
		if !ok {
			return nil, c.errorf(p.Pos(), "unresolved pattern binding %q", p.Name)
		}
		return bytecode.NewBindingPattern(p.Name, res.Slot(), res.IsCell()), nil
	case *ast.PatternLiteral:
		value, err := c.literalValue(p.X)
		if err != nil {
			return nil, err
		}
		return bytecode.NewLiteralPattern(value), nil
	case *ast.PatternRecord:
		fields := make([]bytecode.PatternField, 0, len(p.Fields))
		for _, field := range p.Fields {
			sub, err := c.buildFieldPattern(field)
			if err != nil {
				return nil, err
			}
			fields = append(fields, bytecode.PatternField{Name: field.Name, Pattern: sub})
		}
		return bytecode.NewRecordPattern(fields), nil
	default:
		return nil, c.errorf(pat.Pos(), "unsupported pattern type %T", pat)
	}
}

// buildFieldPattern compiles one field of a record pattern. The shorthand
// form {name} binds the field's value to a binding of the same spelling,
// resolved at the field node.
func (c *Compiler) buildFieldPattern(field *ast.PatternField) (*bytecode.Pattern, error) {
	if field.Value != nil {
		return c.buildPattern(field.Value)
	}
	res, ok := c.info.ResolutionOf(field)
	if !ok {
		return nil, c.errorf(field.Pos(), "unresolved field binding %q", field.Name)
	}
	return bytecode.NewBindingPattern(field.Name, res.Slot(), res.IsCell()), nil
}

// literalValue evaluates the constant expression of a literal pattern.
func (c *Compiler) literalValue(expr ast.Expr) (any, error) {
	switch node := expr.(type) {
	case *ast.Nil:
		return nil, nil
	case *ast.Bool:
		return node.Value, nil
	case *ast.Int:
		return node.Value, nil
	case *ast.Float:
		return node.Value, nil
	case *ast.String:
		return node.Value, nil
	case *ast.Prefix:
		if node.Op != "-" {
			return nil, c.errorf(node.Pos(), "unsupported literal pattern operator %q", node.Op)
		}
		switch x := node.X.(type) {
		case *ast.Int:
			return -x.Value, nil
		case *ast.Float:
			return -x.Value, nil
		}
		return nil, c.errorf(node.Pos(), "negation of a non-numeric pattern literal")
	default:
		return nil, c.errorf(expr.Pos(), "unsupported literal pattern %T", expr)
	}
}

// ---------------------------------------------------------------------------
// Emission

// emit appends one instruction and its operands, recording the source
// location of the node currently being compiled for every emitted word.
// It returns the instruction's offset, which jump patching uses.
func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	info := op.GetInfo(opcode)
	if len(operands) != info.OperandCount {
		panic(fmt.Sprintf("compile error: %s takes %d operands, got %d",
			info.Name, info.OperandCount, len(operands)))
	}
	f := c.current
	pos := len(f.instructions)
	f.instructions = append(f.instructions, opcode)
	for _, operand := range operands {
		f.instructions = append(f.instructions, op.Code(operand))
	}
	loc := c.location()
	for i := 0; i <= len(operands); i++ {
		f.locations = append(f.locations, loc)
	}
	return pos
}

// emitLoad emits the load matching the resolution: captured local slots are
// read through their cells, free variables through the closure environment.
func (c *Compiler) emitLoad(res *analyzer.Resolution) {
	switch res.Scope() {
	case analyzer.Global:
		c.emit(op.LoadGlobal, uint16(res.Slot()))
	case analyzer.Local:
		if res.IsCell() {
			c.emit(op.LoadCell, uint16(res.Slot()))
		} else {
			c.emit(op.LoadFast, uint16(res.Slot()))
		}
	case analyzer.Free:
		c.emit(op.LoadFree, uint16(res.FreeIndex()))
	}
}

// emitStore is the mirror of emitLoad.
func (c *Compiler) emitStore(res *analyzer.Resolution) {
	switch res.Scope() {
	case analyzer.Global:
		c.emit(op.StoreGlobal, uint16(res.Slot()))
	case analyzer.Local:
		if res.IsCell() {
			c.emit(op.StoreCell, uint16(res.Slot()))
		} else {
			c.emit(op.StoreFast, uint16(res.Slot()))
		}
	case analyzer.Free:
		c.emit(op.StoreFree, uint16(res.FreeIndex()))
	}
}

func (c *Compiler) position() int {
	return len(c.current.instructions)
}

// patchJump rewrites the placeholder jump at pos to land on target. The
// opcode was emitted as JumpForward; a backward target rewrites it in
// place, and conditional jumps only ever patch forward.
func (c *Compiler) patchJump(pos, target int) {
	ins := c.current.instructions
	if target >= pos {
		ins[pos+1] = op.Code(target - pos)
		return
	}
	if ins[pos] != op.JumpForward {
		panic("compile error: conditional jump cannot target an earlier offset")
	}
	ins[pos] = op.JumpBackward
	ins[pos+1] = op.Code(pos - target)
}

// constExpr emits a LoadConst for a scalar literal.
func (c *Compiler) constExpr(pos token.Position, value any) error {
	index, err := c.constant(pos, value)
	if err != nil {
		return err
	}
	c.emit(op.LoadConst, index)
	return nil
}

// constant pools a deduplicated scalar constant.
func (c *Compiler) constant(pos token.Position, value any) (uint16, error) {
	if index, ok := c.scalarIndex[value]; ok {
		return index, nil
	}
	if len(c.constants) >= MaxConstants {
		return 0, c.errorf(pos, "constant pool limit of %d exceeded", MaxConstants)
	}
	index := uint16(len(c.constants))
	c.constants = append(c.constants, value)
	c.scalarIndex[value] = index
	return index, nil
}

// addConstant pools a non-scalar constant: a function template, a pattern,
// or a record shape. These are unique per site and are not deduplicated.
func (c *Compiler) addConstant(pos token.Position, value any) (uint16, error) {
	if len(c.constants) >= MaxConstants {
		return 0, c.errorf(pos, "constant pool limit of %d exceeded", MaxConstants)
	}
	index := uint16(len(c.constants))
	c.constants = append(c.constants, value)
	return index, nil
}

// name pools a deduplicated field name.
func (c *Compiler) name(name string) uint16 {
	if index, ok := c.nameIndex[name]; ok {
		return index
	}
	index := uint16(len(c.names))
	c.names = append(c.names, name)
	c.nameIndex[name] = index
	return index
}

func (c *Compiler) location() bytecode.SourceLocation {
	if c.node == nil {
		return bytecode.SourceLocation{}
	}
	pos := c.node.Pos()
	return bytecode.SourceLocation{
		Line:   pos.LineNumber(),
		Column: pos.ColumnNumber(),
	}
}

func (c *Compiler) errorf(pos token.Position, format string, args ...any) error {
	return errz.Newf(errz.InternalError, errz.SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}, format, args...)
}
