package parser

import (
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/token"
)

// parseLet parses a binding declaration:
//
//	let x = 5
//	let mut count = 0
//	let pending          // declared uninitialized
//	let view = &items    // scoped borrow
func (p *Parser) parseLet() ast.Stmt {
	letPos := p.curToken.StartPosition
	mutable := false
	if p.peekTokenIs(token.MUT) {
		p.nextToken()
		mutable = true
	}
	if !p.expectPeek("let statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.peekTokenIs(token.ASSIGN) {
		// Declared without a value; usable only after a later set.
		return &ast.Let{LetPos: letPos, Mutable: mutable, Name: name}
	}
	p.nextToken()
	assignTok := p.curToken
	// The value must begin on the same line as the "=".
	if statementTerminators[p.peekToken.Type] {
		p.setTokenError(assignTok, "let statement is missing a value")
		return nil
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	var value ast.Expr
	if p.curTokenIs(token.AMPERSAND) || p.curTokenIs(token.TILDE) {
		// A borrow is legal as a whole initializer, not as an operand.
		value = p.parseBorrow()
	} else {
		value = p.parseExpression(LOWEST)
	}
	if value == nil {
		if !p.hadNewError() {
			p.setTokenError(assignTok, "let statement is missing a value")
		}
		return nil
	}
	return &ast.Let{LetPos: letPos, Mutable: mutable, Name: name, Value: value}
}

// parseSet parses an assignment to an existing binding: set x = 5
func (p *Parser) parseSet() ast.Stmt {
	setPos := p.curToken.StartPosition
	if !p.expectPeek("set statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if p.peekTokenIs(token.PERIOD) || p.peekTokenIs(token.LBRACKET) {
		p.setTokenError(p.peekToken, "cannot assign to a field or index; set rebinds a name")
		return nil
	}
	if !p.expectPeek("set statement", token.ASSIGN) {
		return nil
	}
	assignTok := p.curToken
	// The value must begin on the same line as the "=".
	if statementTerminators[p.peekToken.Type] {
		p.setTokenError(assignTok, "set statement is missing a value")
		return nil
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	value := p.parseExpression(LOWEST)
	if value == nil {
		if !p.hadNewError() {
			p.setTokenError(assignTok, "set statement is missing a value")
		}
		return nil
	}
	return &ast.Set{SetPos: setPos, Name: name, Value: value}
}

// parseDisown parses an explicit move-out of a binding: disown x
func (p *Parser) parseDisown() ast.Stmt {
	disownPos := p.curToken.StartPosition
	if !p.expectPeek("disown statement", token.IDENT) {
		return nil
	}
	return &ast.Disown{DisownPos: disownPos, Name: p.newIdent(p.curToken)}
}

// parseFuncDecl parses a named function or procedure declaration. Two forms
// are accepted: single-clause sugar with the parameter list following the
// name directly, and the braced multi-clause form where each clause pairs a
// parameter pattern tuple with "=>" and a body.
//
//	func double(x) { x * 2 }
//	func fib {
//	    (0) => 0
//	    (1) => 1
//	    (n) => fib(n - 1) + fib(n - 2)
//	}
func (p *Parser) parseFuncDecl() ast.Stmt {
	funcPos := p.curToken.StartPosition
	proc := p.curTokenIs(token.PROC)
	keyword := p.curToken.Literal
	if !p.expectPeek(keyword+" declaration", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)

	if p.peekTokenIs(token.LPAREN) {
		// Single-clause sugar: the body may be a block or "=>" expression.
		p.nextToken()
		clause := p.parseClause(true)
		if clause == nil {
			return nil
		}
		return &ast.FuncDecl{
			FuncPos: funcPos,
			Proc:    proc,
			Name:    name,
			Clauses: []*ast.Clause{clause},
		}
	}

	if !p.peekTokenIs(token.LBRACE) {
		p.peekError(keyword+" declaration", token.LPAREN, p.peekToken)
		return nil
	}
	p.nextToken() // onto "{"
	if err := p.nextToken(); err != nil {
		return nil
	}

	var clauses []*ast.Clause
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
			p.setTokenError(p.curToken, "unterminated %s declaration", keyword)
			return nil
		}
		if !p.curTokenIs(token.LPAREN) {
			p.setTokenError(p.curToken, "expected a clause starting with %q in %s declaration", "(", keyword)
			return nil
		}
		clause := p.parseClause(false)
		if clause == nil {
			return nil
		}
		clauses = append(clauses, clause)
		// Clauses are separated by newlines or semicolons.
		if !statementTerminators[p.peekToken.Type] {
			p.setTokenError(p.curToken, "unexpected token %q following clause", p.peekToken.Literal)
			return nil
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
	}
	if len(clauses) == 0 {
		p.setTokenError(p.curToken, "%s declaration requires at least one clause", keyword)
		return nil
	}
	return &ast.FuncDecl{FuncPos: funcPos, Proc: proc, Name: name, Clauses: clauses}
}

// parseClause parses one "(params) => body" clause. The current token must
// be the opening parenthesis. In the single-clause sugar form the arrow may
// be omitted when the body is a braced block.
func (p *Parser) parseClause(arrowOptional bool) *ast.Clause {
	lparen := p.curToken.StartPosition
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	// curToken is now the closing parenthesis
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		arrow := p.curToken.StartPosition
		body := p.parseClauseBody()
		if body == nil {
			return nil
		}
		return &ast.Clause{Lparen: lparen, Params: params, Arrow: arrow, Body: body}
	}
	if arrowOptional {
		if !p.expectPeek("function declaration", token.LBRACE) {
			return nil
		}
		body := p.parseBlock()
		if body == nil {
			return nil
		}
		return &ast.Clause{Lparen: lparen, Params: params, Body: body}
	}
	p.peekError("function clause", token.ARROW, p.peekToken)
	return nil
}

// parseReturn parses a return statement with an optional value.
func (p *Parser) parseReturn() ast.Stmt {
	returnPos := p.curToken.StartPosition
	if statementTerminators[p.peekToken.Type] {
		return &ast.Return{ReturnPos: returnPos}
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	value := p.parseExpression(LOWEST)
	if value == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid return value")
		}
		return nil
	}
	return &ast.Return{ReturnPos: returnPos, Value: value}
}

func (p *Parser) parseBreak() ast.Stmt {
	return &ast.Break{BreakPos: p.curToken.StartPosition}
}

func (p *Parser) parseContinue() ast.Stmt {
	return &ast.Continue{ContinuePos: p.curToken.StartPosition}
}

// parseWhile parses a while loop: while cond { ... }
func (p *Parser) parseWhile() ast.Stmt {
	whilePos := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	cond := p.parseControlExpr("while condition")
	if cond == nil {
		return nil
	}
	if !p.expectPeek("while statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.While{WhilePos: whilePos, Cond: cond, Body: body}
}

// parseForIn parses iteration over an array: for item in items { ... }
func (p *Parser) parseForIn() ast.Stmt {
	forPos := p.curToken.StartPosition
	if !p.expectPeek("for statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.expectPeek("for statement", token.IN) {
		return nil
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	iterable := p.parseControlExpr("for statement")
	if iterable == nil {
		return nil
	}
	if !p.expectPeek("for statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.ForIn{ForPos: forPos, Name: name, Iterable: iterable, Body: body}
}

// parseLoop parses an unconditional loop: loop { ... }
func (p *Parser) parseLoop() ast.Stmt {
	loopPos := p.curToken.StartPosition
	if !p.expectPeek("loop statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.Loop{LoopPos: loopPos, Body: body}
}

// parseScope parses an explicit nested scope: scope { ... }
func (p *Parser) parseScope() ast.Stmt {
	scopePos := p.curToken.StartPosition
	if !p.expectPeek("scope statement", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.Scope{ScopePos: scopePos, Body: body}
}

// parseIf parses a conditional with optional "else" and "else if" chains.
// The "else" keyword must appear on the same line as the preceding "}".
func (p *Parser) parseIf() ast.Stmt {
	ifPos := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	cond := p.parseControlExpr("if condition")
	if cond == nil {
		return nil
	}
	if !p.expectPeek("if statement", token.LBRACE) {
		return nil
	}
	consequence := p.parseBlock()
	if consequence == nil {
		return nil
	}
	stmt := &ast.If{IfPos: ifPos, Cond: cond, Consequence: consequence}
	if !p.peekTokenIs(token.ELSE) {
		return stmt
	}
	p.nextToken() // onto "else"
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		alt := p.parseIf()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
		return stmt
	}
	if !p.expectPeek("else clause", token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	stmt.Alternative = &ast.ElseBlock{Body: body}
	return stmt
}

// parseBlock parses a braced statement sequence. The current token must be
// the opening brace; on success the current token is the closing brace.
func (p *Parser) parseBlock() *ast.Block {
	// Statements inside the block are ordinary context even when the block
	// itself appears within a control header (a closure body, for example).
	restore := p.suspendControl()
	defer restore()

	lbrace := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	var statements []ast.Stmt
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.setTokenError(p.curToken, "unterminated block statement")
			return nil
		}
		if p.cancelled() || p.tooManyErrors() {
			return nil
		}
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			return nil
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
	}
	return &ast.Block{Lbrace: lbrace, Stmts: statements, Rbrace: p.curToken.StartPosition}
}
