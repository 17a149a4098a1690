// Package lexer converts Tarn source text into a stream of tokens.
//
// The lexer is pull-based: the parser calls Next repeatedly until it
// receives an EOF token. Newlines are significant statement terminators
// and are emitted as NEWLINE tokens rather than skipped.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tarn-lang/tarn/token"
)

// Option is a configuration function for a Lexer.
type Option func(*Lexer)

// WithFile sets the file name that appears in token positions.
func WithFile(filename string) Option {
	return func(l *Lexer) {
		l.filename = filename
	}
}

// State captures the cursor of a Lexer so that it can be rewound. Used by
// the parser for bounded lookahead across newlines.
type State struct {
	pos       int
	ch        rune
	line      int
	lineStart int
	last      token.Position
}

// Lexer tokenizes Tarn source code.
type Lexer struct {
	// input is the full source text, as runes so that positions count
	// characters rather than bytes
	input []rune

	// pos is the index of the current character
	pos int

	// ch is the current character, or 0 at end of input
	ch rune

	// line is the 0-indexed current line
	line int

	// lineStart is the index at which the current line begins
	lineStart int

	// last is the position of the most recently consumed character
	last token.Position

	// filename is stamped onto every token position
	filename string
}

// New returns a Lexer for the given input.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{input: []rune(input)}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.input) > 0 {
		l.ch = l.input[0]
	}
	return l
}

// Filename returns the file name associated with this input, if any.
func (l *Lexer) Filename() string {
	return l.filename
}

// SetFilename sets the file name that appears in token positions.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Position returns the position of the current character.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Value:     l.ch,
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.filename,
	}
}

// SaveState captures the current cursor so it can be restored later.
func (l *Lexer) SaveState() State {
	return State{
		pos:       l.pos,
		ch:        l.ch,
		line:      l.line,
		lineStart: l.lineStart,
		last:      l.last,
	}
}

// RestoreState rewinds the Lexer to a previously saved cursor.
func (l *Lexer) RestoreState(s State) {
	l.pos = s.pos
	l.ch = s.ch
	l.line = s.line
	l.lineStart = s.lineStart
	l.last = s.last
}

// GetLineText returns the text of the line on which the given token appears,
// for use in error messages. For a token on an empty final line (such as EOF
// after a trailing newline) the previous line is returned as context.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start > len(l.input) {
		start = len(l.input)
	}
	end := start
	for end < len(l.input) && l.input[end] != '\n' {
		end++
	}
	if end == start && start > 0 {
		// Empty line: return the previous line as context.
		prevEnd := start - 1
		prevStart := prevEnd
		for prevStart > 0 && l.input[prevStart-1] != '\n' {
			prevStart--
		}
		return string(l.input[prevStart:prevEnd])
	}
	return string(l.input[start:end])
}

// Next returns the next token from the input. After the input is exhausted,
// Next returns EOF tokens indefinitely. A returned error indicates malformed
// input at the token being read; the cursor always advances past the
// offending text so that the caller can attempt to continue.
func (l *Lexer) Next() (token.Token, error) {
	l.skipSpaceAndComments()

	start := l.Position()

	switch l.ch {
	case 0:
		return l.emit(token.EOF, "", start, start), nil
	case '\n':
		l.advance()
		return l.emit(token.NEWLINE, "\n", start, start), nil
	case '=':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.emit(token.EQ, "==", start, start.Advance(1)), nil
		}
		if l.peek() == '>' {
			l.advance()
			l.advance()
			return l.emit(token.ARROW, "=>", start, start.Advance(1)), nil
		}
		l.advance()
		return l.emit(token.ASSIGN, "=", start, start), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.emit(token.NOT_EQ, "!=", start, start.Advance(1)), nil
		}
		l.advance()
		return l.emit(token.BANG, "!", start, start), nil
	case '<':
		if l.peek() == '<' {
			l.advance()
			l.advance()
			return l.emit(token.LT_LT, "<<", start, start.Advance(1)), nil
		}
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.emit(token.LT_EQUALS, "<=", start, start.Advance(1)), nil
		}
		l.advance()
		return l.emit(token.LT, "<", start, start), nil
	case '>':
		if l.peek() == '>' {
			l.advance()
			l.advance()
			return l.emit(token.GT_GT, ">>", start, start.Advance(1)), nil
		}
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return l.emit(token.GT_EQUALS, ">=", start, start.Advance(1)), nil
		}
		l.advance()
		return l.emit(token.GT, ">", start, start), nil
	case '&':
		if l.peek() == '&' {
			l.advance()
			l.advance()
			return l.emit(token.AND, "&&", start, start.Advance(1)), nil
		}
		l.advance()
		return l.emit(token.AMPERSAND, "&", start, start), nil
	case '|':
		if l.peek() == '|' {
			l.advance()
			l.advance()
			return l.emit(token.OR, "||", start, start.Advance(1)), nil
		}
		l.advance()
		return l.emit(token.PIPE, "|", start, start), nil
	case '~':
		l.advance()
		return l.emit(token.TILDE, "~", start, start), nil
	case '^':
		l.advance()
		return l.emit(token.CARET, "^", start, start), nil
	case '+':
		l.advance()
		return l.emit(token.PLUS, "+", start, start), nil
	case '-':
		l.advance()
		return l.emit(token.MINUS, "-", start, start), nil
	case '*':
		l.advance()
		return l.emit(token.ASTERISK, "*", start, start), nil
	case '/':
		l.advance()
		return l.emit(token.SLASH, "/", start, start), nil
	case '%':
		l.advance()
		return l.emit(token.MOD, "%", start, start), nil
	case '(':
		l.advance()
		return l.emit(token.LPAREN, "(", start, start), nil
	case ')':
		l.advance()
		return l.emit(token.RPAREN, ")", start, start), nil
	case '{':
		l.advance()
		return l.emit(token.LBRACE, "{", start, start), nil
	case '}':
		l.advance()
		return l.emit(token.RBRACE, "}", start, start), nil
	case '[':
		l.advance()
		return l.emit(token.LBRACKET, "[", start, start), nil
	case ']':
		l.advance()
		return l.emit(token.RBRACKET, "]", start, start), nil
	case ',':
		l.advance()
		return l.emit(token.COMMA, ",", start, start), nil
	case ';':
		l.advance()
		return l.emit(token.SEMICOLON, ";", start, start), nil
	case ':':
		l.advance()
		return l.emit(token.COLON, ":", start, start), nil
	case '.':
		l.advance()
		return l.emit(token.PERIOD, ".", start, start), nil
	case '"':
		return l.readString(start)
	}

	if isDigit(l.ch) {
		return l.readNumber(start)
	}
	// Printable non-ASCII runes that cannot start an identifier are still
	// consumed by the identifier scanner so the error names the whole
	// malformed word rather than one stray character.
	if isIdentStart(l.ch) || l.ch > unicode.MaxASCII && unicode.IsGraphic(l.ch) {
		return l.readIdentifier(start)
	}

	bad := l.ch
	l.advance()
	if unicode.IsPrint(bad) {
		return l.emit(token.ILLEGAL, string(bad), start, start),
			fmt.Errorf("unexpected character: %q", string(bad))
	}
	return l.emit(token.ILLEGAL, string(bad), start, start),
		fmt.Errorf("unexpected character: %U", bad)
}

// advance consumes the current character.
func (l *Lexer) advance() {
	l.last = l.Position()
	if l.ch == '\n' {
		l.line++
		l.lineStart = l.pos + 1
	}
	l.pos++
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
}

// peek returns the character after the current one without consuming anything.
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) emit(typ token.Type, literal string, start, end token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   end,
	}
}

// skipSpaceAndComments consumes horizontal whitespace and // comments.
// Newlines are not consumed; they are emitted as NEWLINE tokens.
func (l *Lexer) skipSpaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.advance()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier(start token.Position) (token.Token, error) {
	var sb strings.Builder
	for isIdentPart(l.ch) {
		sb.WriteRune(l.ch)
		l.advance()
	}
	// A character that can neither continue an identifier nor begin another
	// token indicates a malformed name, e.g. an identifier containing a
	// symbol character.
	if l.ch != 0 && !isTokenBoundary(l.ch) {
		sb.WriteRune(l.ch)
		l.advance()
		lit := sb.String()
		return l.emit(token.ILLEGAL, lit, start, l.last),
			fmt.Errorf("invalid identifier: %s", lit)
	}
	lit := sb.String()
	return l.emit(token.LookupIdentifier(lit), lit, start, l.last), nil
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	var sb strings.Builder
	for isDigit(l.ch) || isIdentPart(l.ch) {
		sb.WriteRune(l.ch)
		l.advance()
	}
	// A dot continues the literal only when a digit follows: "1.5" is a
	// float, while a trailing "1." or "1.x" is malformed rather than a
	// field access (numbers have no fields).
	if l.ch == '.' {
		sb.WriteRune(l.ch)
		l.advance()
		for isDigit(l.ch) || isIdentPart(l.ch) {
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
	// An exponent may carry a sign: "1e-9".
	if s := sb.String(); (strings.HasSuffix(s, "e") || strings.HasSuffix(s, "E")) &&
		!strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0b") &&
		(l.ch == '+' || l.ch == '-') {
		sb.WriteRune(l.ch)
		l.advance()
		for isDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
	lit := sb.String()
	typ, ok := classifyNumber(lit)
	if !ok {
		return l.emit(token.ILLEGAL, lit, start, l.last),
			fmt.Errorf("invalid number literal: %s", lit)
	}
	return l.emit(typ, lit, start, l.last), nil
}

// classifyNumber reports whether the literal is a well formed INT or FLOAT.
func classifyNumber(lit string) (token.Type, bool) {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		digits := lit[2:]
		if digits == "" {
			return token.INT, false
		}
		for _, r := range digits {
			if !isHexDigit(r) {
				return token.INT, false
			}
		}
		return token.INT, true
	}
	if strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B") {
		digits := lit[2:]
		if digits == "" {
			return token.INT, false
		}
		for _, r := range digits {
			if r != '0' && r != '1' {
				return token.INT, false
			}
		}
		return token.INT, true
	}
	// Decimal integer or float: digits [ "." digits ] [ ("e"|"E") [sign] digits ]
	i, n := 0, len(lit)
	digits := func() bool {
		begin := i
		for i < n && lit[i] >= '0' && lit[i] <= '9' {
			i++
		}
		return i > begin
	}
	if !digits() {
		return token.INT, false
	}
	isFloat := false
	if i < n && lit[i] == '.' {
		isFloat = true
		i++
		if !digits() {
			return token.FLOAT, false
		}
	}
	if i < n && (lit[i] == 'e' || lit[i] == 'E') {
		isFloat = true
		i++
		if i < n && (lit[i] == '+' || lit[i] == '-') {
			i++
		}
		if !digits() {
			return token.FLOAT, false
		}
	}
	if i != n {
		return token.INT, false
	}
	if isFloat {
		return token.FLOAT, true
	}
	return token.INT, true
}

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	l.advance() // consume the opening quote
	var sb strings.Builder
	for {
		switch l.ch {
		case 0, '\n':
			return l.emit(token.ILLEGAL, sb.String(), start, l.last),
				fmt.Errorf("unterminated string literal")
		case '"':
			l.advance() // consume the closing quote
			return l.emit(token.STRING, sb.String(), start, l.last), nil
		case '\\':
			r, isByte, err := l.readEscape()
			if err != nil {
				return l.emit(token.ILLEGAL, sb.String(), start, l.last), err
			}
			if isByte {
				sb.WriteByte(byte(r))
			} else {
				sb.WriteRune(r)
			}
		default:
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
}

// readEscape consumes a backslash escape sequence and returns the value it
// denotes. Octal and \x escapes are byte-valued: the caller must append
// them as single bytes, not as UTF-8-encoded runes.
func (l *Lexer) readEscape() (rune, bool, error) {
	l.advance() // consume the backslash
	ch := l.ch
	switch ch {
	case 'a':
		l.advance()
		return '\a', false, nil
	case 'b':
		l.advance()
		return '\b', false, nil
	case 'e':
		l.advance()
		return '\x1B', false, nil
	case 'f':
		l.advance()
		return '\f', false, nil
	case 'n':
		l.advance()
		return '\n', false, nil
	case 'r':
		l.advance()
		return '\r', false, nil
	case 't':
		l.advance()
		return '\t', false, nil
	case 'v':
		l.advance()
		return '\v', false, nil
	case '\\':
		l.advance()
		return '\\', false, nil
	case '"':
		l.advance()
		return '"', false, nil
	case 'x':
		l.advance()
		value, err := l.readHexEscape(2)
		return value, true, err
	case 'u':
		l.advance()
		value, err := l.readHexEscape(4)
		return value, false, err
	case 'U':
		l.advance()
		value, err := l.readHexEscape(8)
		return value, false, err
	case '0', '1', '2', '3':
		value, err := l.readOctalEscape()
		return value, true, err
	case 0, '\n':
		return 0, false, fmt.Errorf("unterminated string literal")
	}
	l.advance()
	return 0, false, fmt.Errorf("invalid escape sequence: \\%s", string(ch))
}

func (l *Lexer) readHexEscape(width int) (rune, error) {
	var value rune
	for i := 0; i < width; i++ {
		d := hexValue(l.ch)
		if d < 0 {
			return 0, fmt.Errorf("invalid escape sequence: expected %d hex characters", width)
		}
		value = value*16 + d
		l.advance()
	}
	if !utf8Valid(value) {
		return 0, fmt.Errorf("invalid escape sequence: not a valid character")
	}
	return value, nil
}

func (l *Lexer) readOctalEscape() (rune, error) {
	var value rune
	for i := 0; i < 3; i++ {
		if l.ch < '0' || l.ch > '7' {
			return 0, fmt.Errorf("invalid escape sequence: expected 3 octal characters")
		}
		value = value*8 + (l.ch - '0')
		l.advance()
	}
	return value, nil
}

func hexValue(ch rune) rune {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10
	}
	return -1
}

func utf8Valid(r rune) bool {
	return r >= 0 && r <= unicode.MaxRune && !(r >= 0xD800 && r <= 0xDFFF)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return hexValue(ch) >= 0
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// isTokenBoundary reports whether ch may legally follow an identifier:
// whitespace or any character that begins an operator or delimiter.
func isTokenBoundary(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\n',
		'=', '!', '<', '>', '&', '|', '~', '^',
		'+', '-', '*', '/', '%',
		'(', ')', '{', '}', '[', ']',
		',', ';', ':', '.', '"':
		return true
	}
	return false
}
