// Package parser turns Tarn source code into an abstract syntax tree.
//
// A parser is created by calling New() with a lexer as input, and should be
// used only once, by calling its Parse() method to produce the AST. The
// Parse() shorthand in this package does both.
package parser

import (
	"context"

	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/internal/lexer"
	"github.com/tarn-lang/tarn/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// statementTerminators defines tokens that can end a statement.
//
// NEWLINE HANDLING POLICY:
//  1. Trailing operators continue expressions: "x +\ny" parses as one
//     expression, while "x\n+ y" is two statements.
//  2. Newlines are allowed after "(" and before ")", and after commas
//     inside parentheses, brackets, and braces.
//  3. Newlines are allowed after "=>" and "." so that long clauses and
//     chained field access can wrap. The value of a "let" or "set" must
//     begin on the same line as its "=".
//  4. "else" must appear on the same line as the closing brace of the
//     preceding block.
//  5. A "{" opening a block must appear on the same line as its statement
//     keyword (if, while, for, loop, scope, func, proc, cond).
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.RBRACE:    true,
	token.EOF:       true,
}

// Parse the provided input as Tarn source code and return the AST. This is a
// shorthand way to create a Lexer and a Parser and then call Parse on that.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	// Extract the filename from options before creating the parser, so that
	// lexer errors in the first tokens have proper location context.
	var filename string
	for _, opt := range options {
		var probe Parser
		opt(&probe)
		if probe.filename != "" {
			filename = probe.filename
			break
		}
	}

	l := lexer.New(input)
	if filename != "" {
		l.SetFilename(filename)
	}

	p := New(l, options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name used in error locations.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser. This prevents
// stack overflow on deeply nested input. The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// Parser object
type Parser struct {
	// the Context supplied in the Parse() call
	ctx context.Context

	// l is our lexer
	l *lexer.Lexer

	// prevToken holds the previous token, which we already processed.
	prevToken token.Token

	// curToken holds the current token from the lexer.
	curToken token.Token

	// peekToken holds the next token from the lexer.
	peekToken token.Token

	// parsing errors collected during parsing
	errors []*errz.Error

	// stmtErrorCount tracks the error count at the start of the current
	// statement. Inner methods use it to detect whether an error was added
	// while parsing this statement.
	stmtErrorCount int

	// prefixParseFns maps token types to parsing methods for prefix position.
	prefixParseFns map[token.Type]prefixParseFn

	// infixParseFns maps token types to parsing methods for infix position.
	infixParseFns map[token.Type]infixParseFn

	// The filename of the input
	filename string

	// Current recursion depth
	depth int

	// Maximum allowed recursion depth
	maxDepth int

	// controlDepth is nonzero while parsing the header expression of a
	// control statement (if/while/for/cond), where a brace opens the body
	// block rather than a record literal.
	controlDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename != "" {
		l.SetFilename(p.filename)
	}

	// Prime the token pump
	p.nextToken() // makes curToken=<empty>, peekToken=token[0]
	p.nextToken() // makes curToken=token[0], peekToken=token[1]

	// Register prefix functions
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NIL, p.parseNil)
	p.registerPrefix(token.LBRACKET, p.parseArray)
	p.registerPrefix(token.LBRACE, p.parseRecord)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.FUNC, p.parseClosure)
	p.registerPrefix(token.PROC, p.parseProcMisuse)
	p.registerPrefix(token.COND, p.parseCond)
	p.registerPrefix(token.AMPERSAND, p.parseBorrowMisuse)
	p.registerPrefix(token.TILDE, p.parseBorrowMisuse)
	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)

	// Register infix functions
	p.registerInfix(token.OR, p.parseInfixExpr)
	p.registerInfix(token.AND, p.parseInfixExpr)
	p.registerInfix(token.EQ, p.parseInfixExpr)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(token.LT, p.parseInfixExpr)
	p.registerInfix(token.LT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.GT, p.parseInfixExpr)
	p.registerInfix(token.GT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.PIPE, p.parseInfixExpr)
	p.registerInfix(token.CARET, p.parseInfixExpr)
	p.registerInfix(token.AMPERSAND, p.parseInfixExpr)
	p.registerInfix(token.LT_LT, p.parseInfixExpr)
	p.registerInfix(token.GT_GT, p.parseInfixExpr)
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.SLASH, p.parseInfixExpr)
	p.registerInfix(token.MOD, p.parseInfixExpr)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.PERIOD, p.parseField)

	return p
}

// advanceToken moves to the next token from the lexer without error checking.
// Used internally by synchronize() during error recovery.
func (p *Parser) advanceToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, _ = p.l.Next()
}

// nextToken moves to the next token from the lexer, updating all of
// prevToken, curToken, and peekToken.
func (p *Parser) nextToken() error {
	var err error
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, err = p.l.Next()
	if err == nil {
		return nil
	}
	// The lexer encountered an error. All lexer errors are syntax errors
	// and parsing is now considered broken.
	p.addError(errz.New(errz.SyntaxError, err.Error(), p.tokenLocation(p.peekToken)))
	return err
}

// Parse the program that is provided via the lexer.
// Returns the AST and any errors encountered. If there are errors, the AST
// may be partial, containing only successfully parsed statements.
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	// It's possible for errors to already exist because we read tokens from
	// the lexer in the constructor.
	if p.hasErrors() {
		return nil, p.combinedErrors()
	}
	// Parse the entire input program as a series of statements. When a
	// statement fails, synchronize and continue to collect more errors.
	var statements []ast.Stmt
	for p.curToken.Type != token.EOF {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		// Track the error count for this statement so inner methods can
		// detect new errors.
		p.stmtErrorCount = len(p.errors)
		from := p.curToken.StartPosition
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			p.synchronize()
			statements = append(statements, &ast.BadStmt{From: from, To: p.curToken.StartPosition})
		}
		p.nextToken()
	}
	program := &ast.Program{Stmts: statements}
	if p.hasErrors() {
		return program, p.combinedErrors()
	}
	return program, nil
}

// registerPrefix registers a function for handling a prefix-position token.
func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers a function for handling an infix-position token.
func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// synchronize skips tokens until a statement boundary is reached.
// This is used for error recovery to continue parsing after an error.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		if statementTerminators[p.curToken.Type] {
			return
		}
		// Stop at statement-starting keywords
		switch p.curToken.Type {
		case token.LET, token.SET, token.DISOWN, token.FUNC, token.PROC,
			token.RETURN, token.BREAK, token.CONTINUE, token.IF,
			token.WHILE, token.FOR, token.LOOP, token.SCOPE, token.COND:
			return
		}
		prevPos := p.curToken.StartPosition
		p.advanceToken()
		// Safety: if we didn't advance (lexer stuck), bail out
		if p.curToken.StartPosition == prevPos {
			return
		}
	}
}

// cancelled checks whether the parsing context has been cancelled.
// Returns true if cancelled, in which case parsing should stop. The
// cancellation itself is reported by the top-level Parse loop.
func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return true
	default:
		return false
	}
}

// parseStatementStrict parses one statement and verifies that it is followed
// by a statement terminator.
func (p *Parser) parseStatementStrict() ast.Stmt {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	// The statement should end with a semicolon, or the next token should be
	// a statement terminator.
	if !p.curTokenIs(token.SEMICOLON) && !statementTerminators[p.peekToken.Type] {
		p.setTokenError(p.curToken, "unexpected token %q following statement", p.peekToken.Literal)
		return nil
	}
	return stmt
}

func (p *Parser) parseStatement() ast.Stmt {
	p.depth++
	if p.depth > p.maxDepth {
		p.setTokenError(p.curToken, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	var stmt ast.Stmt
	switch p.curToken.Type {
	case token.LET:
		stmt = p.parseLet()
	case token.SET:
		stmt = p.parseSet()
	case token.DISOWN:
		stmt = p.parseDisown()
	case token.FUNC:
		// A name after "func" begins a declaration; otherwise this is an
		// anonymous function in expression position.
		if p.peekTokenIs(token.IDENT) {
			stmt = p.parseFuncDecl()
		} else {
			stmt = p.parseExpressionStatement()
		}
	case token.PROC:
		stmt = p.parseFuncDecl()
	case token.RETURN:
		stmt = p.parseReturn()
	case token.BREAK:
		stmt = p.parseBreak()
	case token.CONTINUE:
		stmt = p.parseContinue()
	case token.WHILE:
		stmt = p.parseWhile()
	case token.FOR:
		stmt = p.parseForIn()
	case token.LOOP:
		stmt = p.parseLoop()
	case token.SCOPE:
		stmt = p.parseScope()
	case token.IF:
		stmt = p.parseIf()
	case token.NEWLINE:
		stmt = nil
	default:
		stmt = p.parseExpressionStatement()
	}
	// Consume a trailing semicolon if present
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Stmt {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		// Only add an error if none was added during parsing
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid syntax")
		}
		return nil
	}
	return &ast.ExprStmt{X: expr}
}

// parseExpression parses an expression with operator precedence climbing.
// On entry curToken is the first token of the expression; on exit curToken
// is its last token.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	if p.curToken.Type == token.EOF || p.hadNewError() {
		return nil
	}
	p.depth++
	if p.depth > p.maxDepth {
		p.setTokenError(p.curToken, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	left := prefix()
	if p.hadNewError() || left == nil {
		return nil
	}
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
		left = infix(left)
		if p.hadNewError() || left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) illegalToken() ast.Expr {
	p.setTokenError(p.curToken, "illegal token %s", tokenDescription(p.curToken))
	return nil
}

// newIdent creates a new Ident node from a token.
func (p *Parser) newIdent(tok token.Token) *ast.Ident {
	return &ast.Ident{NamePos: tok.StartPosition, Name: tok.Literal}
}

// tokenText returns the raw source text of a single-line token. Used for
// string literals, whose token Literal holds the interpreted value.
func (p *Parser) tokenText(tok token.Token) string {
	line := []rune(p.l.GetLineText(tok))
	start, end := tok.StartPosition.Column, tok.EndPosition.Column
	if start < 0 || end >= len(line) || end < start {
		return tok.Literal
	}
	return string(line[start : end+1])
}

// curTokenIs returns true if the current token has the given type.
func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

// peekTokenIs returns true if the next token has the given type.
func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek validates that the next token is of the given type, and advances
// if it is. If it's a different type, an error is stored.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(context, t, p.peekToken)
	return false
}

// peekPrecedence returns the precedence of the next token.
func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// currentPrecedence returns the precedence of the current token.
func (p *Parser) currentPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			return
		}
	}
}

// skipNewlinesAndPeek checks whether the given token type appears after
// optional newlines. If found, it skips the newlines and returns true (with
// peekToken now being the target). If not found, it returns false without
// consuming any tokens.
func (p *Parser) skipNewlinesAndPeek(targetType token.Type) bool {
	if p.peekTokenIs(targetType) {
		return true
	}
	if !p.peekTokenIs(token.NEWLINE) {
		return false
	}
	// Save the parser and lexer state
	savedCur := p.curToken
	savedPeek := p.peekToken
	savedLexer := p.l.SaveState()

	for p.peekTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			p.curToken = savedCur
			p.peekToken = savedPeek
			p.l.RestoreState(savedLexer)
			return false
		}
	}
	if p.peekTokenIs(targetType) {
		// Success: keep the new state, newlines consumed
		return true
	}
	// Target not found: restore state
	p.curToken = savedCur
	p.peekToken = savedPeek
	p.l.RestoreState(savedLexer)
	return false
}

// parseControlExpr parses the header expression of a control statement.
// While the header is being parsed, a "{" opens the statement body rather
// than a record literal; parenthesize a record to use one here.
func (p *Parser) parseControlExpr(context string) ast.Expr {
	p.controlDepth++
	expr := p.parseExpression(LOWEST)
	p.controlDepth--
	if expr == nil && !p.hadNewError() {
		p.setTokenError(p.curToken, "missing expression in %s", context)
	}
	return expr
}

// suspendControl re-enables record literals inside a bracketed subexpression
// of a control header. The returned function restores the previous state.
func (p *Parser) suspendControl() func() {
	saved := p.controlDepth
	p.controlDepth = 0
	return func() { p.controlDepth = saved }
}
