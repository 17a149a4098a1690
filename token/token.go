// Package token defines language keywords and tokens used when lexing source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Value     rune
	Char      int
	LineStart int
	Line      int
	Column    int
	File      string
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns the position n characters further along the same line.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	AMPERSAND = "&"
	AND       = "&&"
	ARROW     = "=>"
	ASSIGN    = "="
	ASTERISK  = "*"
	BANG      = "!"
	BREAK     = "BREAK"
	CARET     = "^"
	COLON     = ":"
	COMMA     = ","
	COND      = "COND"
	CONTINUE  = "CONTINUE"
	DISOWN    = "DISOWN"
	ELSE      = "ELSE"
	EOF       = "EOF"
	EQ        = "=="
	FALSE     = "FALSE"
	FLOAT     = "FLOAT"
	FOR       = "FOR"
	FUNC      = "FUNC"
	GT        = ">"
	GT_EQUALS = ">="
	GT_GT     = ">>"
	IDENT     = "IDENT"
	IF        = "IF"
	ILLEGAL   = "ILLEGAL"
	IN        = "IN"
	INT       = "INT"
	LBRACE    = "{"
	LBRACKET  = "["
	LET       = "LET"
	LOOP      = "LOOP"
	LPAREN    = "("
	LT        = "<"
	LT_EQUALS = "<="
	LT_LT     = "<<"
	MINUS     = "-"
	MOD       = "%"
	MUT       = "MUT"
	NEWLINE   = "EOL"
	NIL       = "nil"
	NOT_EQ    = "!="
	OR        = "||"
	PERIOD    = "."
	PIPE      = "|"
	PLUS      = "+"
	PROC      = "PROC"
	RBRACE    = "}"
	RBRACKET  = "]"
	RETURN    = "RETURN"
	RPAREN    = ")"
	SCOPE     = "SCOPE"
	SEMICOLON = ";"
	SET       = "SET"
	SLASH     = "/"
	STRING    = "STRING"
	TILDE     = "~"
	TRUE      = "TRUE"
	WHILE     = "WHILE"
)

// Reserved keywords
var keywords = map[string]Type{
	"break":    BREAK,
	"cond":     COND,
	"continue": CONTINUE,
	"disown":   DISOWN,
	"else":     ELSE,
	"false":    FALSE,
	"for":      FOR,
	"func":     FUNC,
	"if":       IF,
	"in":       IN,
	"let":      LET,
	"loop":     LOOP,
	"mut":      MUT,
	"nil":      NIL,
	"proc":     PROC,
	"return":   RETURN,
	"scope":    SCOPE,
	"set":      SET,
	"true":     TRUE,
	"while":    WHILE,
}

// LookupIdentifier checks whether the given string is a reserved keyword and
// returns the corresponding token type, or IDENT if it is a plain name.
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}
