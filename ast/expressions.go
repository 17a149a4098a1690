package ast

import (
	"bytes"
	"strings"

	"github.com/tarn-lang/tarn/token"
)

// Ident is an expression node that refers to a variable by name.
type Ident struct {
	NamePos token.Position // position of identifier
	Name    string         // identifier name
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

// Prefix is an operator expression where the operator precedes the operand.
// Examples include "!false" and "-x".
type Prefix struct {
	OpPos token.Position // position of operator
	Op    string         // operator: "!", "-"
	X     Expr           // operand
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }

func (x *Prefix) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.Op)
	out.WriteString(x.X.String())
	out.WriteString(")")
	return out.String()
}

// Infix is an operator expression where the operator is between the operands.
// Examples include "x + y" and "5 - 1".
type Infix struct {
	X     Expr           // left operand
	OpPos token.Position // position of operator
	Op    string         // operator: "+", "-", "*", "/", etc.
	Y     Expr           // right operand
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }

func (x *Infix) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.X.String())
	out.WriteString(" " + x.Op + " ")
	out.WriteString(x.Y.String())
	out.WriteString(")")
	return out.String()
}

// Call is an expression node that calls a function or procedure.
type Call struct {
	Fn     Expr           // callee
	Lparen token.Position // position of "("
	Args   []Expr         // call arguments
	Rparen token.Position // position of ")"
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fn.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) String() string {
	var out bytes.Buffer
	out.WriteString(x.Fn.String())
	out.WriteString("(")
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

// Index is an expression node that reads one element of an array.
type Index struct {
	X        Expr           // array expression
	Lbracket token.Position // position of "["
	Idx      Expr           // index expression
	Rbracket token.Position // position of "]"
}

func (x *Index) exprNode() {}

func (x *Index) Pos() token.Position { return x.X.Pos() }
func (x *Index) End() token.Position { return x.Rbracket.Advance(1) }

func (x *Index) String() string {
	return x.X.String() + "[" + x.Idx.String() + "]"
}

// Field is an expression node that reads one named field of a record.
type Field struct {
	X       Expr           // record expression
	Dot     token.Position // position of "."
	Name    string         // field name
	NamePos token.Position // position of field name
}

func (x *Field) exprNode() {}

func (x *Field) Pos() token.Position { return x.X.Pos() }
func (x *Field) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Field) String() string { return x.X.String() + "." + x.Name }

// Closure is an expression node producing an anonymous function value.
type Closure struct {
	FuncPos token.Position // position of "func" keyword
	Params  []*Param       // parameter patterns
	Body    *Block         // function body
}

func (x *Closure) exprNode() {}

func (x *Closure) Pos() token.Position { return x.FuncPos }
func (x *Closure) End() token.Position { return x.Body.End() }

func (x *Closure) String() string {
	var out bytes.Buffer
	out.WriteString("func(")
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		params = append(params, p.String())
	}
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") ")
	out.WriteString(x.Body.String())
	return out.String()
}

// CondArm is one arm of a cond expression: a pattern and its body.
type CondArm struct {
	Pattern Pattern        // arm pattern
	Arrow   token.Position // position of "=>"
	Body    *Block         // arm body
}

func (x *CondArm) Pos() token.Position { return x.Pattern.Pos() }
func (x *CondArm) End() token.Position { return x.Body.End() }

func (x *CondArm) String() string {
	return x.Pattern.String() + " => " + x.Body.String()
}

// Cond is an expression node that evaluates a scrutinee once and selects the
// first arm whose pattern matches it.
type Cond struct {
	CondPos   token.Position // position of "cond" keyword
	Scrutinee Expr           // value being matched
	Lbrace    token.Position // position of "{"
	Arms      []*CondArm     // ordered arms
	Rbrace    token.Position // position of "}"
}

func (x *Cond) exprNode() {}

func (x *Cond) Pos() token.Position { return x.CondPos }
func (x *Cond) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Cond) String() string {
	var out bytes.Buffer
	out.WriteString("cond ")
	out.WriteString(x.Scrutinee.String())
	out.WriteString(" { ")
	for i, arm := range x.Arms {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(arm.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Borrow is an expression node that borrows a binding: "&x" shared or
// "~x" exclusive. Borrows have no runtime representation; they direct the
// analyzer and compile to plain loads.
type Borrow struct {
	SigilPos  token.Position // position of "&" or "~"
	Exclusive bool           // true for "~"
	Name      *Ident         // borrowed binding
}

func (x *Borrow) exprNode() {}

func (x *Borrow) Pos() token.Position { return x.SigilPos }
func (x *Borrow) End() token.Position { return x.Name.End() }

func (x *Borrow) String() string {
	if x.Exclusive {
		return "~" + x.Name.String()
	}
	return "&" + x.Name.String()
}
