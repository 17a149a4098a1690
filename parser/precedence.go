package parser

import "github.com/tarn-lang/tarn/token"

// Precedence order for operators, low to high.
const (
	_ int = iota
	LOWEST
	OR          // ||
	AND         // &&
	COMPARE     // == != < <= > >=
	BITWISE     // | ^ &
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	CALL        // f(x)
	INDEX       // a[i] r.name
)

// Precedences for each token type.
var precedences = map[token.Type]int{
	token.OR:        OR,
	token.AND:       AND,
	token.EQ:        COMPARE,
	token.NOT_EQ:    COMPARE,
	token.LT:        COMPARE,
	token.LT_EQUALS: COMPARE,
	token.GT:        COMPARE,
	token.GT_EQUALS: COMPARE,
	token.PIPE:      BITWISE,
	token.CARET:     BITWISE,
	token.AMPERSAND: BITWISE,
	token.LT_LT:     SHIFT,
	token.GT_GT:     SHIFT,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.ASTERISK:  PRODUCT,
	token.SLASH:     PRODUCT,
	token.MOD:       PRODUCT,
	token.LPAREN:    CALL,
	token.LBRACKET:  INDEX,
	token.PERIOD:    INDEX,
}
