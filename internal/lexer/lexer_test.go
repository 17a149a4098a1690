package lexer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarn-lang/tarn/token"
)

func TestNil(t *testing.T) {
	input := "let a = nil;"
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.LET, "let"},
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.NIL, "nil"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong, expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong, expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := "%=+(){},;|| &&=>~&^<< >><=>===!=!*-/.|:"
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.MOD, "%"},
		{token.ASSIGN, "="},
		{token.PLUS, "+"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.COMMA, ","},
		{token.SEMICOLON, ";"},
		{token.OR, "||"},
		{token.AND, "&&"},
		{token.ARROW, "=>"},
		{token.TILDE, "~"},
		{token.AMPERSAND, "&"},
		{token.CARET, "^"},
		{token.LT_LT, "<<"},
		{token.GT_GT, ">>"},
		{token.LT_EQUALS, "<="},
		{token.GT_EQUALS, ">="},
		{token.EQ, "=="},
		{token.NOT_EQ, "!="},
		{token.BANG, "!"},
		{token.ASTERISK, "*"},
		{token.MINUS, "-"},
		{token.SLASH, "/"},
		{token.PERIOD, "."},
		{token.PIPE, "|"},
		{token.COLON, ":"},
		{token.EOF, ""},
	}
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong, expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong, expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestProgram(t *testing.T) {
	input := `let mut five = 5
let ten = 10
proc add(x, y) {
  x + y
}
let result = add(five, ten)
if result >= 10 {
	return true
} else {
	return false
}
cond result {
	15 => "fifteen"
	_ => "other"
}
for item in [1, 2] {
	disown item
}
`
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.LET, "let"},
		{token.MUT, "mut"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.NEWLINE, "\n"},
		{token.LET, "let"},
		{token.IDENT, "ten"},
		{token.ASSIGN, "="},
		{token.INT, "10"},
		{token.NEWLINE, "\n"},
		{token.PROC, "proc"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.NEWLINE, "\n"},
		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},
		{token.LET, "let"},
		{token.IDENT, "result"},
		{token.ASSIGN, "="},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "five"},
		{token.COMMA, ","},
		{token.IDENT, "ten"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.IF, "if"},
		{token.IDENT, "result"},
		{token.GT_EQUALS, ">="},
		{token.INT, "10"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},
		{token.RETURN, "return"},
		{token.TRUE, "true"},
		{token.NEWLINE, "\n"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},
		{token.RETURN, "return"},
		{token.FALSE, "false"},
		{token.NEWLINE, "\n"},
		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},
		{token.COND, "cond"},
		{token.IDENT, "result"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},
		{token.INT, "15"},
		{token.ARROW, "=>"},
		{token.STRING, "fifteen"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "_"},
		{token.ARROW, "=>"},
		{token.STRING, "other"},
		{token.NEWLINE, "\n"},
		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},
		{token.FOR, "for"},
		{token.IDENT, "item"},
		{token.IN, "in"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RBRACKET, "]"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},
		{token.DISOWN, "disown"},
		{token.IDENT, "item"},
		{token.NEWLINE, "\n"},
		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong, expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong, expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input        string
		expectedType token.Type
	}{
		{"break", token.BREAK},
		{"cond", token.COND},
		{"continue", token.CONTINUE},
		{"disown", token.DISOWN},
		{"else", token.ELSE},
		{"false", token.FALSE},
		{"for", token.FOR},
		{"func", token.FUNC},
		{"if", token.IF},
		{"in", token.IN},
		{"let", token.LET},
		{"loop", token.LOOP},
		{"mut", token.MUT},
		{"nil", token.NIL},
		{"proc", token.PROC},
		{"return", token.RETURN},
		{"scope", token.SCOPE},
		{"set", token.SET},
		{"true", token.TRUE},
		{"while", token.WHILE},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			tok, err := l.Next()
			require.NoError(t, err)
			require.Equal(t, tt.expectedType, tok.Type)
			require.Equal(t, tt.input, tok.Literal)
		})
	}
}

func TestBorrowSigils(t *testing.T) {
	input := "swap(~a, &b)"
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.IDENT, "swap"},
		{token.LPAREN, "("},
		{token.TILDE, "~"},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.AMPERSAND, "&"},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	}
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, tt.expectedType, tok.Type, "tests[%d]", i)
		require.Equal(t, tt.expectedLiteral, tok.Literal, "tests[%d]", i)
	}
}

func TestLineNumbers(t *testing.T) {
	l := New("ab + cd\n set foo = 111")
	tests := []struct {
		expectedType     token.Type
		expectedLiteral  string
		expectedLine     int
		expectedStartPos int
		expectedEndPos   int
	}{
		{token.IDENT, "ab", 0, 0, 1},
		{token.PLUS, "+", 0, 3, 3},
		{token.IDENT, "cd", 0, 5, 6},
		{token.NEWLINE, "\n", 0, 7, 7},
		{token.SET, "set", 1, 1, 3},
		{token.IDENT, "foo", 1, 5, 7},
		{token.ASSIGN, "=", 1, 9, 9},
		{token.INT, "111", 1, 11, 13},
		{token.EOF, "", 1, 14, 14},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			tok, err := l.Next()
			require.NoError(t, err)
			require.Equal(t, tt.expectedType, tok.Type)
			require.Equal(t, tt.expectedLiteral, tok.Literal)
			require.Equal(t, tt.expectedLine, tok.StartPosition.Line)
			require.Equal(t, tt.expectedStartPos, tok.StartPosition.Column)
			require.Equal(t, tt.expectedEndPos, tok.EndPosition.Column)
		})
	}
}

func TestTokenLengths(t *testing.T) {
	tests := []struct {
		input            string
		expectedType     token.Type
		expectedLiteral  string
		expectedStartPos int
		expectedEndPos   int
	}{
		{"abc", token.IDENT, "abc", 0, 2},
		{"111", token.INT, "111", 0, 2},
		{"1.1", token.FLOAT, "1.1", 0, 2},
		{`"b"`, token.STRING, "b", 0, 2},
		{"let", token.LET, "let", 0, 2},
		{"false", token.FALSE, "false", 0, 4},
		{">=", token.GT_EQUALS, ">=", 0, 1},
		{"=>", token.ARROW, "=>", 0, 1},
		{" \n", token.NEWLINE, "\n", 1, 1},
		{" {", token.LBRACE, "{", 1, 1},
		{" ~", token.TILDE, "~", 1, 1},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			tok, err := l.Next()
			require.NoError(t, err)
			require.Equal(t, tt.expectedType, tok.Type)
			require.Equal(t, tt.expectedLiteral, tok.Literal)
			require.Equal(t, tt.expectedStartPos, tok.StartPosition.Column)
			require.Equal(t, tt.expectedEndPos, tok.EndPosition.Column)
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input           string
		expectedType    token.Type
		expectedLiteral string
	}{
		{"0", token.INT, "0"},
		{"42", token.INT, "42"},
		{"0x10", token.INT, "0x10"},
		{"0xFF", token.INT, "0xFF"},
		{"0b101", token.INT, "0b101"},
		{"1.5", token.FLOAT, "1.5"},
		{"0.25", token.FLOAT, "0.25"},
		{"1e9", token.FLOAT, "1e9"},
		{"1.5e3", token.FLOAT, "1.5e3"},
		{"1e-9", token.FLOAT, "1e-9"},
		{"2E+4", token.FLOAT, "2E+4"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			tok, err := l.Next()
			require.NoError(t, err)
			require.Equal(t, tt.expectedType, tok.Type)
			require.Equal(t, tt.expectedLiteral, tok.Literal)
		})
	}
}

func TestInvalidNumbers(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"4.f", "invalid number literal: 4.f"},
		{"4a", "invalid number literal: 4a"},
		{"0x", "invalid number literal: 0x"},
		{"0x.1", "invalid number literal: 0x.1"},
		{"0b2", "invalid number literal: 0b2"},
		{"1.", "invalid number literal: 1."},
		{"1e", "invalid number literal: 1e"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			_, err := l.Next()
			require.Error(t, err)
			require.Equal(t, tt.err, err.Error())
		})
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		input           string
		expectedType    token.Type
		expectedLiteral string
	}{
		{"abc", token.IDENT, "abc"},
		{"a1_", token.IDENT, "a1_"},
		{"__c__", token.IDENT, "__c__"},
		{"_", token.IDENT, "_"},
		{" d-f ", token.IDENT, "d"},
		{" in ", token.IN, "in"},
		{"  ", token.EOF, ""},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			tok, err := l.Next()
			require.NoError(t, err)
			require.Equal(t, tt.expectedType, tok.Type)
			require.Equal(t, tt.expectedLiteral, tok.Literal)
		})
	}
}

func TestInvalidIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"⺶", "invalid identifier: ⺶"},
		{"foo⺶bar", "invalid identifier: foo⺶"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			_, err := l.Next()
			require.Error(t, err)
			require.Equal(t, tt.err, err.Error())
		})
	}
}

func TestEscapeSequences(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedLiteral string
	}{
		{"alert", `"\a"`, "\a"},
		{"backspace", `"\b"`, "\b"},
		{"form feed", `"\f"`, "\f"},
		{"new line", `"\n"`, "\n"},
		{"carriage return", `"\r"`, "\r"},
		{"horizontal tab", `"\t"`, "\t"},
		{"vertical tab", `"\v"`, "\v"},
		{"backslash", `"\\"`, "\\"},
		{"escape", `"\e"`, "\x1B"},
		{"quote", `"\""`, "\""},
		{"hex", `"\x41"`, "A"},
		{"unicode16", `"本"`, "本"},
		{"unicode32", `"\U0001F63C"`, "\U0001F63C"},
		{"octal", `"\141"`, "a"},
		{"octalmax", `"\377"`, "\377"},
		{"hexbyte", `"\xff"`, "\xff"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.name), func(t *testing.T) {
			l := New(tt.input)
			tok, err := l.Next()
			require.NoError(t, err)
			require.Equal(t, token.Type(token.STRING), tok.Type)
			require.Equal(t, tt.expectedLiteral, tok.Literal)
		})
	}
}

func TestInvalidEscapeSequences(t *testing.T) {
	tests := []struct {
		input string
	}{
		{`"\P"`},     // unknown escape code
		{`"\u12_3"`}, // non-hex chars
		{`"\x4"`},    // too few chars
		{`"\378"`},   // invalid char '8' in octal
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			tok, err := l.Next()
			require.Error(t, err, "unexpected result: token=%s, literal=%q", tok.Type, tok.Literal)
		})
	}
}

func TestComments(t *testing.T) {
	input := "let x = 1 // trailing comment\n// full line comment\nx"
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.LET, "let"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "x"},
		{token.EOF, ""},
	}
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, tt.expectedType, tok.Type, "tests[%d]", i)
		require.Equal(t, tt.expectedLiteral, tok.Literal, "tests[%d]", i)
	}
}

func TestTokenLineText(t *testing.T) {
	l := New(` let x = 32; set foo = bar
set bar = baz
`)
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.LET), tok.Type)

	line := l.GetLineText(tok)
	require.Equal(t, " let x = 32; set foo = bar", line)
}

func TestLineTextAtEOF(t *testing.T) {
	t.Run("EOF without trailing newline", func(t *testing.T) {
		l := New("x")
		l.Next() // x
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, token.Type(token.EOF), tok.Type)
		require.Equal(t, "x", l.GetLineText(tok))
	})

	t.Run("EOF on empty line", func(t *testing.T) {
		// GetLineText for EOF after a trailing newline returns the previous
		// line's content as context rather than an empty string.
		l := New("x\n")
		l.Next() // x
		l.Next() // newline
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, token.Type(token.EOF), tok.Type)
		require.Equal(t, "x", l.GetLineText(tok))
	})
}

func TestInvalids(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{`"foo`, "unterminated string literal"},
		{"\"foo\nbar\"", "unterminated string literal"},
		{"?", `unexpected character: "?"`},
		{"@", `unexpected character: "@"`},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d-%s", i, tt.input), func(t *testing.T) {
			l := New(tt.input)
			_, err := l.Next()
			require.Error(t, err)
			require.Equal(t, tt.err, err.Error())
		})
	}
}

func TestStateSaveRestore(t *testing.T) {
	input := "let x = 1 + 2"
	l := New(input)

	tok1, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.LET), tok1.Type)

	tok2, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.IDENT), tok2.Type)
	require.Equal(t, "x", tok2.Literal)

	state := l.SaveState()

	tok3, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.ASSIGN), tok3.Type)

	tok4, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.INT), tok4.Type)
	require.Equal(t, "1", tok4.Literal)

	l.RestoreState(state)

	tok3Again, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.ASSIGN), tok3Again.Type)
	require.Equal(t, tok3.Literal, tok3Again.Literal)

	tok4Again, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.INT), tok4Again.Type)
	require.Equal(t, "1", tok4Again.Literal)

	tok5, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.PLUS), tok5.Type)

	tok6, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.INT), tok6.Type)
	require.Equal(t, "2", tok6.Literal)
}

func TestStateSaveRestoreWithNewlines(t *testing.T) {
	input := "x\n\n\ny"
	l := New(input)

	tok1, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.IDENT), tok1.Type)
	require.Equal(t, "x", tok1.Literal)

	state := l.SaveState()

	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, token.Type(token.NEWLINE), tok.Type, "newline %d", i)
	}
	tok5, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.IDENT), tok5.Type)
	require.Equal(t, "y", tok5.Literal)

	l.RestoreState(state)

	tok2Again, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.NEWLINE), tok2Again.Type)
	require.Equal(t, 0, tok2Again.StartPosition.Line)
}

func TestFilenameOption(t *testing.T) {
	t.Run("WithFile option", func(t *testing.T) {
		l := New("x", WithFile("test.tarn"))
		require.Equal(t, "test.tarn", l.Filename())

		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, "test.tarn", tok.StartPosition.File)
		require.Equal(t, "test.tarn", tok.EndPosition.File)
	})

	t.Run("SetFilename method", func(t *testing.T) {
		l := New("x")
		require.Equal(t, "", l.Filename())

		l.SetFilename("updated.tarn")
		require.Equal(t, "updated.tarn", l.Filename())

		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, "updated.tarn", tok.StartPosition.File)
	})

	t.Run("Position method includes file", func(t *testing.T) {
		l := New("x", WithFile("pos.tarn"))
		pos := l.Position()
		require.Equal(t, "pos.tarn", pos.File)
	})
}

func TestErrorRecovery(t *testing.T) {
	// The cursor advances past offending text so callers may continue.
	l := New("? let")
	_, err := l.Next()
	require.Error(t, err)

	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, token.Type(token.LET), tok.Type)
}

func TestUnicodeStrings(t *testing.T) {
	l := New(`"世界" "plain"`)
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, "世界", tok.Literal)

	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, "plain", tok.Literal)
	require.Equal(t, token.Type(token.STRING), tok.Type)
}
