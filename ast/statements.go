package ast

import (
	"bytes"
	"strings"

	"github.com/tarn-lang/tarn/token"
)

// Block is a sequence of statements enclosed in braces. The value of a block,
// where one is required, is the value of its trailing expression statement.
type Block struct {
	Lbrace token.Position // position of "{"
	Stmts  []Stmt         // statements in the block
	Rbrace token.Position // position of "}"
}

func (x *Block) Pos() token.Position { return x.Lbrace }
func (x *Block) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, stmt := range x.Stmts {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(stmt.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Let is a statement node that declares a binding, optionally mutable and
// optionally initialized.
type Let struct {
	LetPos  token.Position // position of "let" keyword
	Mutable bool           // declared with "mut"
	Name    *Ident         // binding name
	Value   Expr           // initializer; nil when declared uninitialized
}

func (x *Let) stmtNode() {}

func (x *Let) Pos() token.Position { return x.LetPos }
func (x *Let) End() token.Position {
	if x.Value != nil {
		return x.Value.End()
	}
	return x.Name.End()
}

func (x *Let) String() string {
	var out bytes.Buffer
	out.WriteString("let ")
	if x.Mutable {
		out.WriteString("mut ")
	}
	out.WriteString(x.Name.String())
	if x.Value != nil {
		out.WriteString(" = ")
		out.WriteString(x.Value.String())
	}
	return out.String()
}

// Set is a statement node that assigns a new value to an existing binding.
type Set struct {
	SetPos token.Position // position of "set" keyword
	Name   *Ident         // binding name
	Value  Expr           // assigned value
}

func (x *Set) stmtNode() {}

func (x *Set) Pos() token.Position { return x.SetPos }
func (x *Set) End() token.Position { return x.Value.End() }

func (x *Set) String() string {
	return "set " + x.Name.String() + " = " + x.Value.String()
}

// Disown is a statement node that moves a binding out: the binding becomes
// unusable and its slot is cleared.
type Disown struct {
	DisownPos token.Position // position of "disown" keyword
	Name      *Ident         // binding name
}

func (x *Disown) stmtNode() {}

func (x *Disown) Pos() token.Position { return x.DisownPos }
func (x *Disown) End() token.Position { return x.Name.End() }

func (x *Disown) String() string { return "disown " + x.Name.String() }

// Mode is the access mode of a function parameter.
type Mode int

const (
	ModeOwned     Mode = iota // bare parameter: call-site argument is moved
	ModeShared                // &parameter: shared borrow for the call
	ModeExclusive             // ~parameter: exclusive borrow for the call
)

func (m Mode) String() string {
	switch m {
	case ModeShared:
		return "&"
	case ModeExclusive:
		return "~"
	}
	return ""
}

// Param is one function parameter: an optional access-mode sigil and a pattern.
type Param struct {
	ModePos token.Position // position of the mode sigil, if any
	Mode    Mode           // access mode
	Pattern Pattern        // parameter pattern
}

func (x *Param) Pos() token.Position {
	if x.Mode != ModeOwned {
		return x.ModePos
	}
	return x.Pattern.Pos()
}

func (x *Param) End() token.Position { return x.Pattern.End() }

func (x *Param) String() string { return x.Mode.String() + x.Pattern.String() }

// Clause is one parameter-pattern alternative of a function declaration,
// pairing a parameter tuple with a body.
type Clause struct {
	Lparen token.Position // position of "("
	Params []*Param       // parameter patterns
	Arrow  token.Position // position of "=>" (zero for single-clause sugar)
	Body   *Block         // clause body
}

func (x *Clause) Pos() token.Position { return x.Lparen }
func (x *Clause) End() token.Position { return x.Body.End() }

func (x *Clause) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		params = append(params, p.String())
	}
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") => ")
	out.WriteString(x.Body.String())
	return out.String()
}

// FuncDecl is a statement node declaring a named function or procedure with
// one or more ordered clause alternatives.
type FuncDecl struct {
	FuncPos token.Position // position of "func" or "proc" keyword
	Proc    bool           // declared with "proc"
	Name    *Ident         // declared name
	Clauses []*Clause      // ordered clause alternatives
}

func (x *FuncDecl) stmtNode() {}

func (x *FuncDecl) Pos() token.Position { return x.FuncPos }
func (x *FuncDecl) End() token.Position {
	return x.Clauses[len(x.Clauses)-1].End()
}

// Keyword returns the declaration keyword, "func" or "proc".
func (x *FuncDecl) Keyword() string {
	if x.Proc {
		return "proc"
	}
	return "func"
}

func (x *FuncDecl) String() string {
	var out bytes.Buffer
	out.WriteString(x.Keyword())
	out.WriteString(" ")
	out.WriteString(x.Name.String())
	out.WriteString(" ")
	if len(x.Clauses) == 1 {
		out.WriteString(x.Clauses[0].String())
	} else {
		out.WriteString("{ ")
		for i, c := range x.Clauses {
			if i > 0 {
				out.WriteString("; ")
			}
			out.WriteString(c.String())
		}
		out.WriteString(" }")
	}
	return out.String()
}

// Return is a statement node that returns a value from the enclosing function.
type Return struct {
	ReturnPos token.Position // position of "return" keyword
	Value     Expr           // return value; nil returns nil
}

func (x *Return) stmtNode() {}

func (x *Return) Pos() token.Position { return x.ReturnPos }
func (x *Return) End() token.Position {
	if x.Value != nil {
		return x.Value.End()
	}
	return x.ReturnPos.Advance(len("return"))
}

func (x *Return) String() string {
	if x.Value != nil {
		return "return " + x.Value.String()
	}
	return "return"
}

// Break is a statement node that exits the innermost enclosing loop.
type Break struct {
	BreakPos token.Position // position of "break" keyword
}

func (x *Break) stmtNode() {}

func (x *Break) Pos() token.Position { return x.BreakPos }
func (x *Break) End() token.Position { return x.BreakPos.Advance(len("break")) }
func (x *Break) String() string      { return "break" }

// Continue is a statement node that jumps to the next iteration of the
// innermost enclosing loop.
type Continue struct {
	ContinuePos token.Position // position of "continue" keyword
}

func (x *Continue) stmtNode() {}

func (x *Continue) Pos() token.Position { return x.ContinuePos }
func (x *Continue) End() token.Position { return x.ContinuePos.Advance(len("continue")) }
func (x *Continue) String() string      { return "continue" }

// While is a statement node that repeats its body while a condition holds.
type While struct {
	WhilePos token.Position // position of "while" keyword
	Cond     Expr           // loop condition
	Body     *Block         // loop body
}

func (x *While) stmtNode() {}

func (x *While) Pos() token.Position { return x.WhilePos }
func (x *While) End() token.Position { return x.Body.End() }

func (x *While) String() string {
	return "while " + x.Cond.String() + " " + x.Body.String()
}

// ForIn is a statement node that iterates over the elements of an array.
type ForIn struct {
	ForPos   token.Position // position of "for" keyword
	Name     *Ident         // iteration variable
	Iterable Expr           // array expression
	Body     *Block         // loop body
}

func (x *ForIn) stmtNode() {}

func (x *ForIn) Pos() token.Position { return x.ForPos }
func (x *ForIn) End() token.Position { return x.Body.End() }

func (x *ForIn) String() string {
	return "for " + x.Name.String() + " in " + x.Iterable.String() + " " + x.Body.String()
}

// Loop is a statement node that repeats its body until a break or return
// executes.
type Loop struct {
	LoopPos token.Position // position of "loop" keyword
	Body    *Block         // loop body
}

func (x *Loop) stmtNode() {}

func (x *Loop) Pos() token.Position { return x.LoopPos }
func (x *Loop) End() token.Position { return x.Body.End() }

func (x *Loop) String() string { return "loop " + x.Body.String() }

// Scope is a statement node introducing an explicit nested block scope.
type Scope struct {
	ScopePos token.Position // position of "scope" keyword
	Body     *Block         // scoped statements
}

func (x *Scope) stmtNode() {}

func (x *Scope) Pos() token.Position { return x.ScopePos }
func (x *Scope) End() token.Position { return x.Body.End() }

func (x *Scope) String() string { return "scope " + x.Body.String() }

// If is a statement node that executes one of two branches based on a
// boolean condition.
type If struct {
	IfPos       token.Position // position of "if" keyword
	Cond        Expr           // condition
	Consequence *Block         // then branch
	Alternative Stmt           // *ElseBlock or a chained *If; nil if absent
}

func (x *If) stmtNode() {}

func (x *If) Pos() token.Position { return x.IfPos }
func (x *If) End() token.Position {
	if x.Alternative != nil {
		return x.Alternative.End()
	}
	return x.Consequence.End()
}

func (x *If) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(x.Cond.String())
	out.WriteString(" ")
	out.WriteString(x.Consequence.String())
	if x.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(x.Alternative.String())
	}
	return out.String()
}

// ElseBlock is the statement wrapper for a plain else branch.
type ElseBlock struct {
	Body *Block
}

func (x *ElseBlock) stmtNode() {}

func (x *ElseBlock) Pos() token.Position { return x.Body.Pos() }
func (x *ElseBlock) End() token.Position { return x.Body.End() }
func (x *ElseBlock) String() string      { return x.Body.String() }

// ExprStmt is a statement node that wraps an expression evaluated for its
// value or effects. A trailing ExprStmt provides a block's value.
type ExprStmt struct {
	X Expr // the wrapped expression
}

func (x *ExprStmt) stmtNode() {}

func (x *ExprStmt) Pos() token.Position { return x.X.Pos() }
func (x *ExprStmt) End() token.Position { return x.X.End() }
func (x *ExprStmt) String() string      { return x.X.String() }
