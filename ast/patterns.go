package ast

import (
	"bytes"
	"strings"

	"github.com/tarn-lang/tarn/token"
)

// PatternName is a pattern that binds the matched value to a name. The
// reserved name "_" is the wildcard: it matches anything and binds nothing.
type PatternName struct {
	NamePos token.Position // position of the name
	Name    string         // binding name, or "_"
}

func (x *PatternName) patternNode() {}

func (x *PatternName) Pos() token.Position { return x.NamePos }
func (x *PatternName) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *PatternName) String() string { return x.Name }

// IsWildcard reports whether this pattern is the "_" wildcard.
func (x *PatternName) IsWildcard() bool { return x.Name == "_" }

// PatternLiteral is a pattern that matches when the scrutinee equals a
// literal value.
type PatternLiteral struct {
	X Expr // *Int, *Float, *String, *Bool, *Nil, or a negated *Prefix of those
}

func (x *PatternLiteral) patternNode() {}

func (x *PatternLiteral) Pos() token.Position { return x.X.Pos() }
func (x *PatternLiteral) End() token.Position { return x.X.End() }

func (x *PatternLiteral) String() string { return x.X.String() }

// PatternField is one field of a record pattern. A nil Value is the
// shorthand form "{name}", binding the field to a name of the same spelling.
type PatternField struct {
	Name    string         // field name
	NamePos token.Position // position of field name
	Value   Pattern        // sub-pattern; nil for shorthand binding
}

func (x *PatternField) Pos() token.Position { return x.NamePos }
func (x *PatternField) End() token.Position {
	if x.Value != nil {
		return x.Value.End()
	}
	return x.NamePos.Advance(len(x.Name))
}

func (x *PatternField) String() string {
	if x.Value == nil {
		return x.Name
	}
	return x.Name + ": " + x.Value.String()
}

// PatternRecord is a pattern that destructures a record. The scrutinee must
// be a record carrying at least the listed fields; each listed field is
// matched recursively. Extra fields are ignored.
type PatternRecord struct {
	Lbrace token.Position  // position of "{"
	Fields []*PatternField // listed fields
	Rbrace token.Position  // position of "}"
}

func (x *PatternRecord) patternNode() {}

func (x *PatternRecord) Pos() token.Position { return x.Lbrace }
func (x *PatternRecord) End() token.Position { return x.Rbrace.Advance(1) }

func (x *PatternRecord) String() string {
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
