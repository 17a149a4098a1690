package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/tarn-lang/tarn/op"
)

// Units are serialized as CBOR with canonical encoding, so the same unit
// always marshals to the same bytes. The wire structs below use integer keys
// to keep the encoding compact.

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

const (
	constNil uint8 = iota
	constBool
	constInt
	constFloat
	constString
	constFunction
	constPattern
	constShape
)

type unitDef struct {
	FormatVersion int            `cbor:"1,keyasint"`
	ID            string         `cbor:"2,keyasint,omitempty"`
	Main          *functionDef   `cbor:"3,keyasint"`
	Constants     []constantDef  `cbor:"4,keyasint,omitempty"`
	Names         []string       `cbor:"5,keyasint,omitempty"`
	GlobalNames   []string       `cbor:"6,keyasint,omitempty"`
	EntryPoints   map[string]int `cbor:"7,keyasint,omitempty"`
	Filename      string         `cbor:"8,keyasint,omitempty"`
	Source        string         `cbor:"9,keyasint,omitempty"`
}

type constantDef struct {
	Kind     uint8        `cbor:"1,keyasint"`
	Bool     bool         `cbor:"2,keyasint,omitempty"`
	Int      int64        `cbor:"3,keyasint,omitempty"`
	Float    float64      `cbor:"4,keyasint,omitempty"`
	Str      string       `cbor:"5,keyasint,omitempty"`
	Function *functionDef `cbor:"6,keyasint,omitempty"`
	Pattern  *patternDef  `cbor:"7,keyasint,omitempty"`
	Shape    []string     `cbor:"8,keyasint,omitempty"`
}

type functionDef struct {
	Name         string        `cbor:"1,keyasint,omitempty"`
	Proc         bool          `cbor:"2,keyasint,omitempty"`
	Clauses      []clauseDef   `cbor:"3,keyasint,omitempty"`
	LocalsCount  int           `cbor:"4,keyasint,omitempty"`
	CellSlots    []int         `cbor:"5,keyasint,omitempty"`
	Captures     []captureDef  `cbor:"6,keyasint,omitempty"`
	Instructions []uint16      `cbor:"7,keyasint,omitempty"`
	Locations    []locationDef `cbor:"8,keyasint,omitempty"`
	LocalNames   []string      `cbor:"9,keyasint,omitempty"`
}

type clauseDef struct {
	NumParams      int   `cbor:"1,keyasint,omitempty"`
	PatternIndices []int `cbor:"2,keyasint,omitempty"`
	Entry          int   `cbor:"3,keyasint,omitempty"`
}

type captureDef struct {
	Name  string `cbor:"1,keyasint,omitempty"`
	Local bool   `cbor:"2,keyasint,omitempty"`
	Index int    `cbor:"3,keyasint,omitempty"`
}

type patternDef struct {
	Kind    uint8             `cbor:"1,keyasint"`
	Literal *constantDef      `cbor:"2,keyasint,omitempty"`
	Name    string            `cbor:"3,keyasint,omitempty"`
	Slot    int               `cbor:"4,keyasint,omitempty"`
	Boxed   bool              `cbor:"5,keyasint,omitempty"`
	Fields  []patternFieldDef `cbor:"6,keyasint,omitempty"`
}

type patternFieldDef struct {
	Name    string      `cbor:"1,keyasint,omitempty"`
	Pattern *patternDef `cbor:"2,keyasint,omitempty"`
}

type locationDef struct {
	Line   int `cbor:"1,keyasint,omitempty"`
	Column int `cbor:"2,keyasint,omitempty"`
}

// Marshal serializes a unit to CBOR bytes. The encoding is canonical:
// marshaling the same unit always produces the same bytes.
func Marshal(u *Unit) ([]byte, error) {
	def, err := unitToWire(u)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(def)
}

// Unmarshal deserializes a unit from CBOR bytes and validates it.
func Unmarshal(data []byte) (*Unit, error) {
	var def unitDef
	if err := cbor.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal unit: %w", err)
	}
	if def.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("bytecode: unsupported format version %d (want %d)",
			def.FormatVersion, FormatVersion)
	}
	unit, err := unitFromWire(&def)
	if err != nil {
		return nil, err
	}
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	return unit, nil
}

func unitToWire(u *Unit) (*unitDef, error) {
	if u.main == nil {
		return nil, fmt.Errorf("bytecode: cannot marshal unit without main function")
	}
	constants := make([]constantDef, len(u.constants))
	for i, constant := range u.constants {
		def, err := constantToWire(constant)
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", i, err)
		}
		constants[i] = def
	}
	var entryPoints map[string]int
	if len(u.entryPoints) > 0 {
		entryPoints = make(map[string]int, len(u.entryPoints))
		for name, index := range u.entryPoints {
			entryPoints[name] = index
		}
	}
	return &unitDef{
		FormatVersion: u.formatVersion,
		ID:            u.id,
		Main:          functionToWire(u.main),
		Constants:     constants,
		Names:         u.names,
		GlobalNames:   u.globalNames,
		EntryPoints:   entryPoints,
		Filename:      u.filename,
		Source:        u.source,
	}, nil
}

func unitFromWire(def *unitDef) (*Unit, error) {
	if def.Main == nil {
		return nil, fmt.Errorf("bytecode: unit is missing main function")
	}
	constants := make([]any, len(def.Constants))
	for i, constant := range def.Constants {
		value, err := constantFromWire(constant)
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", i, err)
		}
		constants[i] = value
	}
	return NewUnit(UnitParams{
		ID:          def.ID,
		Main:        functionFromWire(def.Main),
		Constants:   constants,
		Names:       def.Names,
		GlobalNames: def.GlobalNames,
		EntryPoints: def.EntryPoints,
		Filename:    def.Filename,
		Source:      def.Source,
	}), nil
}

func constantToWire(constant any) (constantDef, error) {
	switch value := constant.(type) {
	case nil:
		return constantDef{Kind: constNil}, nil
	case bool:
		return constantDef{Kind: constBool, Bool: value}, nil
	case int64:
		return constantDef{Kind: constInt, Int: value}, nil
	case float64:
		return constantDef{Kind: constFloat, Float: value}, nil
	case string:
		return constantDef{Kind: constString, Str: value}, nil
	case *Function:
		return constantDef{Kind: constFunction, Function: functionToWire(value)}, nil
	case *Pattern:
		return constantDef{Kind: constPattern, Pattern: patternToWire(value)}, nil
	case *RecordShape:
		fields := make([]string, value.FieldCount())
		for i := range fields {
			fields[i] = value.FieldAt(i)
		}
		return constantDef{Kind: constShape, Shape: fields}, nil
	default:
		return constantDef{}, fmt.Errorf("unsupported constant type %T", constant)
	}
}

func constantFromWire(def constantDef) (any, error) {
	switch def.Kind {
	case constNil:
		return nil, nil
	case constBool:
		return def.Bool, nil
	case constInt:
		return def.Int, nil
	case constFloat:
		return def.Float, nil
	case constString:
		return def.Str, nil
	case constFunction:
		if def.Function == nil {
			return nil, fmt.Errorf("function constant has no body")
		}
		return functionFromWire(def.Function), nil
	case constPattern:
		if def.Pattern == nil {
			return nil, fmt.Errorf("pattern constant has no body")
		}
		return patternFromWire(def.Pattern)
	case constShape:
		return NewRecordShape(def.Shape), nil
	default:
		return nil, fmt.Errorf("unknown constant kind %d", def.Kind)
	}
}

func functionToWire(fn *Function) *functionDef {
	clauses := make([]clauseDef, len(fn.clauses))
	for i, clause := range fn.clauses {
		clauses[i] = clauseDef{
			NumParams:      clause.NumParams,
			PatternIndices: clause.PatternIndices,
			Entry:          clause.Entry,
		}
	}
	captures := make([]captureDef, len(fn.captures))
	for i, capture := range fn.captures {
		captures[i] = captureDef(capture)
	}
	instructions := make([]uint16, len(fn.instructions))
	for i, inst := range fn.instructions {
		instructions[i] = uint16(inst)
	}
	locations := make([]locationDef, len(fn.locations))
	for i, loc := range fn.locations {
		locations[i] = locationDef{Line: loc.Line, Column: loc.Column}
	}
	return &functionDef{
		Name:         fn.name,
		Proc:         fn.proc,
		Clauses:      clauses,
		LocalsCount:  fn.localsCount,
		CellSlots:    fn.cellSlots,
		Captures:     captures,
		Instructions: instructions,
		Locations:    locations,
		LocalNames:   fn.localNames,
	}
}

func functionFromWire(def *functionDef) *Function {
	clauses := make([]Clause, len(def.Clauses))
	for i, clause := range def.Clauses {
		clauses[i] = Clause{
			NumParams:      clause.NumParams,
			PatternIndices: clause.PatternIndices,
			Entry:          clause.Entry,
		}
	}
	captures := make([]Capture, len(def.Captures))
	for i, capture := range def.Captures {
		captures[i] = Capture(capture)
	}
	instructions := make([]op.Code, len(def.Instructions))
	for i, inst := range def.Instructions {
		instructions[i] = op.Code(inst)
	}
	locations := make([]SourceLocation, len(def.Locations))
	for i, loc := range def.Locations {
		locations[i] = SourceLocation{Line: loc.Line, Column: loc.Column}
	}
	return NewFunction(FunctionParams{
		Name:         def.Name,
		Proc:         def.Proc,
		Clauses:      clauses,
		LocalsCount:  def.LocalsCount,
		CellSlots:    def.CellSlots,
		Captures:     captures,
		Instructions: instructions,
		Locations:    locations,
		LocalNames:   def.LocalNames,
	})
}

func patternToWire(p *Pattern) *patternDef {
	def := &patternDef{
		Kind:  uint8(p.kind),
		Name:  p.name,
		Slot:  p.slot,
		Boxed: p.boxed,
	}
	if p.kind == PatternLiteral {
		literal, err := constantToWire(p.literal)
		if err != nil {
			// Literals are restricted to scalars by construction; a pattern
			// holding anything else was built by bypassing the constructors.
			panic(fmt.Sprintf("bytecode: %v", err))
		}
		def.Literal = &literal
	}
	if len(p.fields) > 0 {
		def.Fields = make([]patternFieldDef, len(p.fields))
		for i, field := range p.fields {
			def.Fields[i] = patternFieldDef{
				Name:    field.Name,
				Pattern: patternToWire(field.Pattern),
			}
		}
	}
	return def
}

func patternFromWire(def *patternDef) (*Pattern, error) {
	switch PatternKind(def.Kind) {
	case PatternLiteral:
		if def.Literal == nil {
			return nil, fmt.Errorf("literal pattern has no value")
		}
		literal, err := constantFromWire(*def.Literal)
		if err != nil {
			return nil, err
		}
		switch literal.(type) {
		case nil, bool, int64, float64, string:
			return NewLiteralPattern(literal), nil
		default:
			return nil, fmt.Errorf("literal pattern holds unsupported value %T", literal)
		}
	case PatternWildcard:
		return NewWildcardPattern(), nil
	case PatternBinding:
		return NewBindingPattern(def.Name, def.Slot, def.Boxed), nil
	case PatternRecord:
		fields := make([]PatternField, len(def.Fields))
		for i, field := range def.Fields {
			if field.Pattern == nil {
				return nil, fmt.Errorf("record pattern field %q has no sub-pattern", field.Name)
			}
			sub, err := patternFromWire(field.Pattern)
			if err != nil {
				return nil, err
			}
			fields[i] = PatternField{Name: field.Name, Pattern: sub}
		}
		return NewRecordPattern(fields), nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %d", def.Kind)
	}
}
