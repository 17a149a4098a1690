package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tarn-lang/tarn/token"
)

// Int is an expression node that holds an integer literal.
type Int struct {
	ValuePos token.Position // position of the literal
	Literal  string         // the literal text (e.g., "42")
	Value    int64          // the parsed value
}

func (x *Int) exprNode() {}

func (x *Int) Pos() token.Position { return x.ValuePos }
func (x *Int) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Int) String() string { return x.Literal }

// Float is an expression node that holds a floating point literal.
type Float struct {
	ValuePos token.Position // position of the literal
	Literal  string         // the literal text
	Value    float64        // the parsed value
}

func (x *Float) exprNode() {}

func (x *Float) Pos() token.Position { return x.ValuePos }
func (x *Float) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Float) String() string { return x.Literal }

// Nil is an expression node that holds a nil literal.
type Nil struct {
	NilPos token.Position // position of "nil" keyword
}

func (x *Nil) exprNode() {}

func (x *Nil) Pos() token.Position { return x.NilPos }
func (x *Nil) End() token.Position { return x.NilPos.Advance(3) } // len("nil")

func (x *Nil) String() string { return "nil" }

// Bool is an expression node that holds a boolean literal.
type Bool struct {
	ValuePos token.Position // position of "true" or "false"
	Literal  string         // "true" or "false"
	Value    bool           // the boolean value
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }
func (x *Bool) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Bool) String() string { return x.Literal }

// String is an expression node that holds a string literal.
type String struct {
	ValuePos token.Position // position of the opening quote
	Literal  string         // the literal text including quotes
	Value    string         // the interpreted value
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *String) String() string { return fmt.Sprintf("%q", x.Value) }

// Array is an expression node that holds an array literal.
type Array struct {
	Lbracket token.Position // position of "["
	Elems    []Expr         // element expressions in order
	Rbracket token.Position // position of "]"
}

func (x *Array) exprNode() {}

func (x *Array) Pos() token.Position { return x.Lbracket }
func (x *Array) End() token.Position { return x.Rbracket.Advance(1) }

func (x *Array) String() string {
	var out bytes.Buffer
	out.WriteString("[")
	elems := make([]string, 0, len(x.Elems))
	for _, e := range x.Elems {
		elems = append(elems, e.String())
	}
	out.WriteString(strings.Join(elems, ", "))
	out.WriteString("]")
	return out.String()
}

// RecordField is one field of a record literal.
type RecordField struct {
	Name    string         // field name
	NamePos token.Position // position of field name
	Value   Expr           // field value
}

func (x *RecordField) Pos() token.Position { return x.NamePos }
func (x *RecordField) End() token.Position { return x.Value.End() }

func (x *RecordField) String() string {
	return x.Name + ": " + x.Value.String()
}

// Record is an expression node that holds a record literal. Field order is
// source order and is part of the record's identity.
type Record struct {
	Lbrace token.Position // position of "{"
	Fields []*RecordField // ordered fields
	Rbrace token.Position // position of "}"
}

func (x *Record) exprNode() {}

func (x *Record) Pos() token.Position { return x.Lbrace }
func (x *Record) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Record) String() string {
	var out bytes.Buffer
	out.WriteString("{")
	fields := make([]string, 0, len(x.Fields))
	for _, f := range x.Fields {
		fields = append(fields, f.String())
	}
	out.WriteString(strings.Join(fields, ", "))
	out.WriteString("}")
	return out.String()
}
