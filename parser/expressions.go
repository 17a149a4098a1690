package parser

import (
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/token"
)

func (p *Parser) parseIdent() ast.Expr {
	if p.curToken.Literal == "" {
		p.setTokenError(p.curToken, "invalid identifier")
		return nil
	}
	return p.newIdent(p.curToken)
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	if err := p.nextToken(); err != nil {
		return nil
	}
	x := p.parseExpression(PREFIX)
	if x == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid prefix expression")
		}
		return nil
	}
	return &ast.Prefix{OpPos: opPos, Op: op, X: x}
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	precedence := p.currentPrecedence()
	if err := p.nextToken(); err != nil {
		return nil
	}
	// A trailing operator continues the expression on the next line.
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid expression")
		}
		return nil
	}
	return &ast.Infix{X: left, OpPos: opPos, Op: op, Y: right}
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	restore := p.suspendControl()
	defer restore()
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		p.setTokenError(p.curToken, "empty parentheses are not an expression")
		return nil
	}
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid expression inside parentheses")
		}
		return nil
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.peekError("grouped expression", token.RPAREN, p.peekToken)
		return nil
	}
	p.nextToken()
	return expr
}

// parseCall parses a call on the given callee expression. The current token
// is the opening parenthesis.
func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	lparen := p.curToken.StartPosition
	restore := p.suspendControl()
	args, ok := p.parseCallArgs()
	restore()
	if !ok {
		return nil
	}
	return &ast.Call{Fn: fn, Lparen: lparen, Args: args, Rparen: p.curToken.StartPosition}
}

// parseCallArgs parses a parenthesized argument list, leaving the current
// token on the closing parenthesis. Arguments may be borrows.
func (p *Parser) parseCallArgs() ([]ast.Expr, bool) {
	args := []ast.Expr{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, true
	}
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		return args, true
	}
	arg := p.parseCallArg()
	if arg == nil {
		return nil, false
	}
	args = append(args, arg)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if err := p.nextToken(); err != nil {
			return nil, false
		}
		p.eatNewlines()
		if p.curTokenIs(token.RPAREN) {
			return args, true // trailing comma
		}
		arg := p.parseCallArg()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.peekError("call arguments", token.RPAREN, p.peekToken)
		return nil, false
	}
	p.nextToken()
	return args, true
}

func (p *Parser) parseCallArg() ast.Expr {
	if p.curTokenIs(token.AMPERSAND) || p.curTokenIs(token.TILDE) {
		return p.parseBorrow()
	}
	arg := p.parseExpression(LOWEST)
	if arg == nil && !p.hadNewError() {
		p.setTokenError(p.curToken, "invalid call argument")
	}
	return arg
}

// parseBorrow parses "&name" or "~name". The current token is the sigil.
func (p *Parser) parseBorrow() ast.Expr {
	sigilPos := p.curToken.StartPosition
	exclusive := p.curTokenIs(token.TILDE)
	if !p.expectPeek("borrow expression", token.IDENT) {
		return nil
	}
	return &ast.Borrow{SigilPos: sigilPos, Exclusive: exclusive, Name: p.newIdent(p.curToken)}
}

// parseBorrowMisuse reports a borrow sigil in a position where borrows are
// not allowed. Real borrows are handled by parseCallArg and parseLet.
func (p *Parser) parseBorrowMisuse() ast.Expr {
	p.setTokenError(p.curToken, "borrow expression is only permitted as a call argument or let initializer")
	return nil
}

// parseProcMisuse reports "proc" used in expression position. There is no
// anonymous procedure form: closures are always pure.
func (p *Parser) parseProcMisuse() ast.Expr {
	p.setTokenError(p.curToken, "anonymous procedures are not supported; declare a named proc instead")
	return nil
}

// parseIndex parses an array index on the given expression. The current
// token is the opening bracket.
func (p *Parser) parseIndex(x ast.Expr) ast.Expr {
	lbracket := p.curToken.StartPosition
	restore := p.suspendControl()
	defer restore()
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	idx := p.parseExpression(LOWEST)
	if idx == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid index expression")
		}
		return nil
	}
	if !p.skipNewlinesAndPeek(token.RBRACKET) {
		p.peekError("index expression", token.RBRACKET, p.peekToken)
		return nil
	}
	p.nextToken()
	return &ast.Index{X: x, Lbracket: lbracket, Idx: idx, Rbracket: p.curToken.StartPosition}
}

// parseField parses record field access: expr.name. Newlines are allowed
// after the dot so chained access can wrap.
func (p *Parser) parseField(x ast.Expr) ast.Expr {
	dot := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if !p.curTokenIs(token.IDENT) {
		p.setTokenError(p.curToken, "expected an identifier after %q", ".")
		return nil
	}
	return &ast.Field{X: x, Dot: dot, Name: p.curToken.Literal, NamePos: p.curToken.StartPosition}
}

// parseCond parses a cond expression:
//
//	cond value {
//	    0 => "zero"
//	    {kind: "point", x} => x
//	    _ => "other"
//	}
func (p *Parser) parseCond() ast.Expr {
	condPos := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	scrutinee := p.parseControlExpr("cond expression")
	if scrutinee == nil {
		return nil
	}
	if !p.expectPeek("cond expression", token.LBRACE) {
		return nil
	}
	lbrace := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	var arms []*ast.CondArm
	for !p.curTokenIs(token.RBRACE) {
		for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			if err := p.nextToken(); err != nil {
				return nil
			}
		}
		if p.curTokenIs(token.RBRACE) {
			break
		}
		if p.curTokenIs(token.EOF) {
			p.setTokenError(p.curToken, "unterminated cond expression")
			return nil
		}
		pattern := p.parsePattern()
		if pattern == nil {
			return nil
		}
		if !p.expectPeek("cond arm", token.ARROW) {
			return nil
		}
		arrow := p.curToken.StartPosition
		body := p.parseClauseBody()
		if body == nil {
			return nil
		}
		arms = append(arms, &ast.CondArm{Pattern: pattern, Arrow: arrow, Body: body})
		// Arms are separated by newlines or semicolons.
		if !statementTerminators[p.peekToken.Type] {
			p.setTokenError(p.curToken, "unexpected token %q following cond arm", p.peekToken.Literal)
			return nil
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
	}
	if len(arms) == 0 {
		p.setTokenError(p.curToken, "cond expression requires at least one arm")
		return nil
	}
	return &ast.Cond{
		CondPos:   condPos,
		Scrutinee: scrutinee,
		Lbrace:    lbrace,
		Arms:      arms,
		Rbrace:    p.curToken.StartPosition,
	}
}

// parseClosure parses an anonymous function. The body may be a braced
// block or "=>" expression sugar, the same two forms named single-clause
// declarations accept: func(x) { x * 2 } or func(x) => x * 2.
func (p *Parser) parseClosure() ast.Expr {
	funcPos := p.curToken.StartPosition
	if !p.expectPeek("function literal", token.LPAREN) {
		return nil
	}
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	// curToken is the closing parenthesis.
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		body := p.parseClauseBody()
		if body == nil {
			return nil
		}
		return &ast.Closure{FuncPos: funcPos, Params: params, Body: body}
	}
	if !p.expectPeek("function literal", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.Closure{FuncPos: funcPos, Params: params, Body: body}
}

// parseClauseBody parses the body following "=>": either a braced block or a
// single expression, which is wrapped in a one-statement block. A "{" after
// "=>" always opens a block; parenthesize a record literal to produce one.
func (p *Parser) parseClauseBody() *ast.Block {
	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		return p.parseBlock()
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid clause body")
		}
		return nil
	}
	return &ast.Block{
		Lbrace: expr.Pos(),
		Stmts:  []ast.Stmt{&ast.ExprStmt{X: expr}},
		Rbrace: p.curToken.EndPosition,
	}
}
