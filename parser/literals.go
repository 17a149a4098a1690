package parser

import (
	"strconv"

	"github.com/tarn-lang/tarn/ast"
	"github.com/tarn-lang/tarn/token"
)

func (p *Parser) parseInt() ast.Expr {
	lit := p.curToken.Literal
	base := 10
	digits := lit
	if len(lit) > 2 {
		switch lit[:2] {
		case "0x", "0X":
			base, digits = 16, lit[2:]
		case "0b", "0B":
			base, digits = 2, lit[2:]
		}
	}
	value, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		p.setTokenError(p.curToken, "invalid integer: %s", lit)
		return nil
	}
	return &ast.Int{ValuePos: p.curToken.StartPosition, Literal: lit, Value: value}
}

func (p *Parser) parseFloat() ast.Expr {
	lit := p.curToken.Literal
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.setTokenError(p.curToken, "invalid float: %s", lit)
		return nil
	}
	return &ast.Float{ValuePos: p.curToken.StartPosition, Literal: lit, Value: value}
}

func (p *Parser) parseBoolean() ast.Expr {
	return &ast.Bool{
		ValuePos: p.curToken.StartPosition,
		Literal:  p.curToken.Literal,
		Value:    p.curTokenIs(token.TRUE),
	}
}

func (p *Parser) parseNil() ast.Expr {
	return &ast.Nil{NilPos: p.curToken.StartPosition}
}

func (p *Parser) parseString() ast.Expr {
	return &ast.String{
		ValuePos: p.curToken.StartPosition,
		Literal:  p.tokenText(p.curToken),
		Value:    p.curToken.Literal,
	}
}

func (p *Parser) parseArray() ast.Expr {
	lbracket := p.curToken.StartPosition
	restore := p.suspendControl()
	elems, ok := p.parseExprList("array literal", token.RBRACKET)
	restore()
	if !ok {
		return nil
	}
	return &ast.Array{Lbracket: lbracket, Elems: elems, Rbracket: p.curToken.StartPosition}
}

// parseExprList parses a comma-separated expression list, leaving the
// current token on the closing delimiter. Newlines are allowed after the
// opening delimiter, after commas, and before the closing delimiter. A
// trailing comma is allowed.
func (p *Parser) parseExprList(context string, end token.Type) ([]ast.Expr, bool) {
	list := []ast.Expr{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	if p.curTokenIs(end) {
		return list, true
	}
	item := p.parseExpression(LOWEST)
	if item == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid expression in %s", context)
		}
		return nil, false
	}
	list = append(list, item)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if err := p.nextToken(); err != nil {
			return nil, false
		}
		p.eatNewlines()
		if p.curTokenIs(end) {
			return list, true // trailing comma
		}
		item := p.parseExpression(LOWEST)
		if item == nil {
			if !p.hadNewError() {
				p.setTokenError(p.curToken, "invalid expression in %s", context)
			}
			return nil, false
		}
		list = append(list, item)
	}
	if !p.skipNewlinesAndPeek(end) {
		p.peekError(context, end, p.peekToken)
		return nil, false
	}
	p.nextToken()
	return list, true
}

// parseRecord parses a record literal: {name: value, ...}. In a control
// statement header a brace opens the body instead, so a record there must
// be parenthesized.
func (p *Parser) parseRecord() ast.Expr {
	if p.controlDepth > 0 {
		p.setTokenError(p.curToken, "record literal must be parenthesized here")
		return nil
	}
	lbrace := p.curToken.StartPosition
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.Record{Lbrace: lbrace, Rbrace: p.curToken.StartPosition}
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if p.curTokenIs(token.RBRACE) {
		return &ast.Record{Lbrace: lbrace, Rbrace: p.curToken.StartPosition}
	}
	var fields []*ast.RecordField
	field := p.parseRecordField()
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
			return &ast.Record{Lbrace: lbrace, Fields: fields, Rbrace: p.curToken.StartPosition}
		}
		field := p.parseRecordField()
		if field == nil {
			return nil
		}
		fields = append(fields, field)
	}
	if !p.skipNewlinesAndPeek(token.RBRACE) {
		p.peekError("record literal", token.RBRACE, p.peekToken)
		return nil
	}
	p.nextToken()
	return &ast.Record{Lbrace: lbrace, Fields: fields, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parseRecordField() *ast.RecordField {
	if !p.curTokenIs(token.IDENT) {
		p.setTokenError(p.curToken, "expected a field name in record literal")
		return nil
	}
	name := p.curToken.Literal
	namePos := p.curToken.StartPosition
	if !p.expectPeek("record literal", token.COLON) {
		return nil
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	value := p.parseExpression(LOWEST)
	if value == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid record field value")
		}
		return nil
	}
	return &ast.RecordField{Name: name, NamePos: namePos, Value: value}
}
