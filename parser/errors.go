package parser

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/token"
)

// MaxErrors is the maximum number of errors to collect before giving up.
const MaxErrors = 10

// addError appends an error to the errors slice.
func (p *Parser) addError(err *errz.Error) {
	p.errors = append(p.errors, err)
}

// hasErrors returns true if any errors have been recorded.
func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

// tooManyErrors returns true if the error limit has been reached.
func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

// hadNewError returns true if an error was added during the current statement.
func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}

// combinedErrors returns all recorded errors as a single error value, or nil.
// Each underlying error is an *errz.Error with kind SyntaxError, reachable
// through the multierror's Unwrap.
func (p *Parser) combinedErrors() error {
	if len(p.errors) == 0 {
		return nil
	}
	var combined *multierror.Error
	for _, err := range p.errors {
		combined = multierror.Append(combined, err)
	}
	return combined.ErrorOrNil()
}

// tokenLocation builds the source location record for a token.
func (p *Parser) tokenLocation(tok token.Token) errz.SourceLocation {
	return errz.SourceLocation{
		Filename: p.l.Filename(),
		Line:     tok.StartPosition.LineNumber(),
		Column:   tok.StartPosition.ColumnNumber(),
		Source:   p.l.GetLineText(tok),
	}
}

// setTokenError records a syntax error located at the given token.
func (p *Parser) setTokenError(tok token.Token, format string, args ...any) {
	p.addError(errz.Newf(errz.SyntaxError, p.tokenLocation(tok), format, args...))
}

// peekError records an error noting that the next token is not the expected
// type, e.g. `unexpected end of line while parsing let statement (expected an
// identifier)`.
func (p *Parser) peekError(context string, expected token.Type, got token.Token) {
	p.setTokenError(got, "unexpected %s while parsing %s (expected %s)",
		tokenDescription(got), context, tokenTypeDescription(expected))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.setTokenError(tok, "invalid syntax (unexpected %s)", tokenDescription(tok))
}

// tokenDescription returns a human friendly description of a token for use
// in error messages.
func tokenDescription(tok token.Token) string {
	switch tok.Type {
	case token.NEWLINE:
		return "end of line"
	case token.EOF:
		return "end of input"
	default:
		return fmt.Sprintf("%q", tok.Literal)
	}
}

// tokenTypeDescription returns a human friendly description of a token type
// for use in error messages.
func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.IDENT:
		return "an identifier"
	case token.INT:
		return "an integer"
	case token.NEWLINE:
		return "end of line"
	case token.EOF:
		return "end of input"
	case token.IN:
		return `"in"`
	default:
		// Operator and delimiter token types are their own spelling.
		return fmt.Sprintf("%q", string(t))
	}
}
