package parser

import (
	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/token"
)

// parsePattern parses one pattern: a literal, a binding name, the wildcard
// "_", or a record destructuring.
func (p *Parser) parsePattern() ast.Pattern {
	switch p.curToken.Type {
	case token.IDENT:
		return &ast.PatternName{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	case token.INT:
		return p.literalPattern(p.parseInt())
	case token.FLOAT:
		return p.literalPattern(p.parseFloat())
	case token.STRING:
		return p.literalPattern(p.parseString())
	case token.TRUE, token.FALSE:
		return p.literalPattern(p.parseBoolean())
	case token.NIL:
		return p.literalPattern(p.parseNil())
	case token.MINUS:
		return p.parseNegatedPattern()
	case token.LBRACE:
		return p.parsePatternRecord()
	default:
		p.setTokenError(p.curToken, "invalid pattern (unexpected %s)", tokenDescription(p.curToken))
		return nil
	}
}

func (p *Parser) literalPattern(x ast.Expr) ast.Pattern {
	if x == nil {
		return nil
	}
	return &ast.PatternLiteral{X: x}
}

// parseNegatedPattern parses a negated numeric literal pattern such as "-1".
func (p *Parser) parseNegatedPattern() ast.Pattern {
	opPos := p.curToken.StartPosition
	if !p.peekTokenIs(token.INT) && !p.peekTokenIs(token.FLOAT) {
		p.setTokenError(p.curToken, "expected a numeric literal after %q in pattern", "-")
		return nil
	}
	p.nextToken()
	var lit ast.Expr
	if p.curTokenIs(token.INT) {
		lit = p.parseInt()
	} else {
		lit = p.parseFloat()
	}
	if lit == nil {
		return nil
	}
	return &ast.PatternLiteral{X: &ast.Prefix{OpPos: opPos, Op: "-", X: lit}}
}

// parsePatternRecord parses a record destructuring pattern such as
// {kind: "point", x, y}. An empty pattern {} matches any record.
func (p *Parser) parsePatternRecord() ast.Pattern {
	lbrace := p.curToken.StartPosition
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.PatternRecord{Lbrace: lbrace, Rbrace: p.curToken.StartPosition}
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if p.curTokenIs(token.RBRACE) {
		return &ast.PatternRecord{Lbrace: lbrace, Rbrace: p.curToken.StartPosition}
	}
	var fields []*ast.PatternField
	field := p.parsePatternField()
	if field == nil {
		return nil
	}
	fields = append(fields, field)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if err := p.nextToken(); err != nil {
			return nil
		}
		p.eatNewlines()
		if p.curTokenIs(token.RBRACE) {
			return &ast.PatternRecord{Lbrace: lbrace, Fields: fields, Rbrace: p.curToken.StartPosition}
		}
		field := p.parsePatternField()
		if field == nil {
			return nil
		}
		fields = append(fields, field)
	}
	if !p.skipNewlinesAndPeek(token.RBRACE) {
		p.peekError("record pattern", token.RBRACE, p.peekToken)
		return nil
	}
	p.nextToken()
	return &ast.PatternRecord{Lbrace: lbrace, Fields: fields, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parsePatternField() *ast.PatternField {
	if !p.curTokenIs(token.IDENT) {
		p.setTokenError(p.curToken, "expected a field name in record pattern")
		return nil
	}
	name := p.curToken.Literal
	namePos := p.curToken.StartPosition
	if !p.peekTokenIs(token.COLON) {
		// Shorthand {name} binds the field to a name of the same spelling.
		return &ast.PatternField{Name: name, NamePos: namePos}
	}
	p.nextToken()
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	value := p.parsePattern()
	if value == nil {
		return nil
	}
	return &ast.PatternField{Name: name, NamePos: namePos, Value: value}
}

// parseParams parses a parenthesized parameter list, leaving the current
// token on the closing parenthesis.
func (p *Parser) parseParams() ([]*ast.Param, bool) {
	params := []*ast.Param{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		return params, true
	}
	param := p.parseParam()
	if param == nil {
		return nil, false
	}
	params = append(params, param)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if err := p.nextToken(); err != nil {
			return nil, false
		}
		p.eatNewlines()
		if p.curTokenIs(token.RPAREN) {
			return params, true // trailing comma
		}
		param := p.parseParam()
		if param == nil {
			return nil, false
		}
		params = append(params, param)
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.peekError("parameter list", token.RPAREN, p.peekToken)
		return nil, false
	}
	p.nextToken()
	return params, true
}

// parseParam parses one parameter: an optional access-mode sigil followed
// by a pattern. "&" takes the argument as a shared borrow, "~" as an
// exclusive borrow, and a bare pattern takes ownership.
func (p *Parser) parseParam() *ast.Param {
	mode := ast.ModeOwned
	var modePos token.Position
	switch p.curToken.Type {
	case token.AMPERSAND:
		mode = ast.ModeShared
		modePos = p.curToken.StartPosition
		if err := p.nextToken(); err != nil {
			return nil
		}
	case token.TILDE:
		mode = ast.ModeExclusive
		modePos = p.curToken.StartPosition
		if err := p.nextToken(); err != nil {
			return nil
		}
	}
	pattern := p.parsePattern()
	if pattern == nil {
		return nil
	}
	return &ast.Param{ModePos: modePos, Mode: mode, Pattern: pattern}
}
