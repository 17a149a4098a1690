package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"

	"github.com/tarn-lang/tarn/ast"
)

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, err := s.cache.get(params.TextDocument.URI)
	if err != nil || doc.prog == nil {
		return nil, nil
	}
	line := int(params.Position.Line) + 1
	column := int(params.Position.Character) + 1
	name := findSymbolAtPosition(doc.prog, line, column)
	if name == "" {
		return nil, nil
	}
	detail := describeSymbol(doc.prog, name)
	if detail == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: fmt.Sprintf("```tarn\n%s\n```", detail),
		},
	}, nil
}

// findSymbolAtPosition returns the identifier covering the 1-based
// line/column position, or "" when the position falls outside any.
func findSymbolAtPosition(program *ast.Program, line, column int) string {
	var found string
	ast.Inspect(program, func(n ast.Node) bool {
		ident, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		start := ident.Pos()
		end := ident.End()
		if start.LineNumber() == line &&
			column >= start.ColumnNumber() && column < end.ColumnNumber() {
			found = ident.Name
		}
		return true
	})
	return found
}

// describeSymbol renders the top-level declaration of name, if any.
func describeSymbol(program *ast.Program, name string) string {
	for _, stmt := range program.Stmts {
		switch s := stmt.(type) {
		case *ast.Let:
			if s.Name.Name != name {
				continue
			}
			if _, ok := s.Value.(*ast.Closure); ok {
				return fmt.Sprintf("let %s = func(...)", name)
			}
			if s.Mutable {
				return fmt.Sprintf("let mut %s", name)
			}
			return fmt.Sprintf("let %s", name)
		case *ast.FuncDecl:
			if s.Name.Name != name {
				continue
			}
			var clauses []string
			for _, c := range s.Clauses {
				params := make([]string, 0, len(c.Params))
				for _, p := range c.Params {
					params = append(params, p.String())
				}
				clauses = append(clauses, fmt.Sprintf("%s %s(%s)",
					s.Keyword(), name, strings.Join(params, ", ")))
			}
			return strings.Join(clauses, "\n")
		}
	}
	return ""
}
