package bytecode

import (
	"fmt"
	"strings"
)

// PatternKind identifies the variant of a compiled pattern.
type PatternKind uint8

const (
	// PatternLiteral matches when the scrutinee equals a constant value.
	PatternLiteral PatternKind = iota
	// PatternWildcard matches any scrutinee and binds nothing.
	PatternWildcard
	// PatternBinding matches any scrutinee and binds it to a local slot.
	PatternBinding
	// PatternRecord matches a record that has all the named fields and
	// whose field values match the corresponding sub-patterns.
	PatternRecord
)

// String returns the name of the pattern kind.
func (k PatternKind) String() string {
	switch k {
	case PatternLiteral:
		return "literal"
	case PatternWildcard:
		return "wildcard"
	case PatternBinding:
		return "binding"
	case PatternRecord:
		return "record"
	default:
		return "invalid"
	}
}

// PatternField pairs a record field name with the sub-pattern its value
// must match.
type PatternField struct {
	Name    string
	Pattern *Pattern
}

// Pattern is a compiled match pattern. Patterns live in the unit's constant
// pool and are immutable after creation. A pattern is a tree: record patterns
// hold sub-patterns for their fields.
type Pattern struct {
	kind    PatternKind
	literal any    // PatternLiteral: nil, bool, int64, float64 or string
	name    string // PatternBinding: the bound variable name
	slot    int    // PatternBinding: local slot that receives the value
	boxed   bool   // PatternBinding: the slot holds a cell (captured variable)
	fields  []PatternField
}

// NewLiteralPattern returns a pattern that matches the given constant value.
func NewLiteralPattern(value any) *Pattern {
	return &Pattern{kind: PatternLiteral, literal: value}
}

// NewWildcardPattern returns a pattern that matches anything.
func NewWildcardPattern() *Pattern {
	return &Pattern{kind: PatternWildcard}
}

// NewBindingPattern returns a pattern that matches anything and binds the
// scrutinee to the given local slot. If boxed is true, the slot holds a cell
// and the value is written through it.
func NewBindingPattern(name string, slot int, boxed bool) *Pattern {
	return &Pattern{kind: PatternBinding, name: name, slot: slot, boxed: boxed}
}

// NewRecordPattern returns a pattern that matches records containing all of
// the given fields. Extra fields on the scrutinee are ignored. The input
// slice is copied.
func NewRecordPattern(fields []PatternField) *Pattern {
	copied := make([]PatternField, len(fields))
	copy(copied, fields)
	return &Pattern{kind: PatternRecord, fields: copied}
}

// Kind returns the pattern variant.
func (p *Pattern) Kind() PatternKind {
	return p.kind
}

// Literal returns the constant value for a literal pattern.
func (p *Pattern) Literal() any {
	return p.literal
}

// Name returns the bound variable name for a binding pattern.
func (p *Pattern) Name() string {
	return p.name
}

// Slot returns the local slot index for a binding pattern.
func (p *Pattern) Slot() int {
	return p.slot
}

// Boxed returns true if a binding pattern writes through a cell.
func (p *Pattern) Boxed() bool {
	return p.boxed
}

// FieldCount returns the number of fields in a record pattern.
func (p *Pattern) FieldCount() int {
	return len(p.fields)
}

// FieldAt returns the record pattern field at the given index.
func (p *Pattern) FieldAt(index int) PatternField {
	return p.fields[index]
}

// String returns a source-like rendering of the pattern.
func (p *Pattern) String() string {
	switch p.kind {
	case PatternLiteral:
		if s, ok := p.literal.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		if p.literal == nil {
			return "nil"
		}
		return fmt.Sprintf("%v", p.literal)
	case PatternWildcard:
		return "_"
	case PatternBinding:
		return p.name
	case PatternRecord:
		parts := make([]string, 0, len(p.fields))
		for _, f := range p.fields {
			if f.Pattern != nil && f.Pattern.kind == PatternBinding && f.Pattern.name == f.Name {
				parts = append(parts, f.Name)
			} else {
				parts = append(parts, f.Name+": "+f.Pattern.String())
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid pattern>"
	}
}

// RecordShape is the ordered field layout of a record literal. Records built
// from the same literal site share one shape; the shape is not heap-managed.
type RecordShape struct {
	fields []string
}

// NewRecordShape creates a shape with the given field names, in order.
// The input slice is copied.
func NewRecordShape(fields []string) *RecordShape {
	return &RecordShape{fields: copyStrings(fields)}
}

// FieldCount returns the number of fields in the shape.
func (s *RecordShape) FieldCount() int {
	return len(s.fields)
}

// FieldAt returns the field name at the given index.
func (s *RecordShape) FieldAt(index int) string {
	return s.fields[index]
}

// IndexOf returns the index of the named field, or false if absent.
func (s *RecordShape) IndexOf(name string) (int, bool) {
	for i, f := range s.fields {
		if f == name {
			return i, true
		}
	}
	return 0, false
}

// String returns a source-like rendering of the shape.
func (s *RecordShape) String() string {
	return "{" + strings.Join(s.fields, ", ") + "}"
}
