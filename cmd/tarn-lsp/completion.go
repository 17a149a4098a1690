package main

import (
	"context"

	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/rs/zerolog/log"

	"github.com/tarn-lang/tarn/ast"
)

var tarnKeywords = []string{
	"break", "cond", "continue", "disown", "else", "false", "for", "func",
	"if", "in", "let", "loop", "mut", "nil", "proc", "return", "scope",
	"set", "true", "while",
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, err := s.cache.get(params.TextDocument.URI)
	if err != nil {
		log.Error().Err(err).Str("call", "Completion").Msg("failed to get document")
		return &protocol.CompletionList{IsIncomplete: false, Items: nil}, nil
	}

	var items []protocol.CompletionItem

	for _, keyword := range tarnKeywords {
		items = append(items, protocol.CompletionItem{
			Label:  keyword,
			Kind:   14, // Keyword
			Detail: "Tarn keyword",
		})
	}

	if doc.prog != nil {
		for _, variable := range extractVariables(doc.prog) {
			items = append(items, protocol.CompletionItem{
				Label:  variable,
				Kind:   6, // Variable
				Detail: "Variable",
			})
		}
		for _, function := range extractFunctions(doc.prog) {
			items = append(items, protocol.CompletionItem{
				Label:      function,
				Kind:       3, // Function
				Detail:     "Function",
				InsertText: function + "()",
			})
		}
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

// extractVariables collects the names bound by top-level let statements.
func extractVariables(program *ast.Program) []string {
	var variables []string
	seen := make(map[string]bool)
	for _, stmt := range program.Stmts {
		let, ok := stmt.(*ast.Let)
		if !ok {
			continue
		}
		name := let.Name.Name
		if name != "" && name != "_" && !seen[name] {
			variables = append(variables, name)
			seen[name] = true
		}
	}
	return variables
}

// extractFunctions collects names declared with func or proc, plus let
// bindings whose initializer is a closure literal.
func extractFunctions(program *ast.Program) []string {
	var functions []string
	seen := make(map[string]bool)
	for _, stmt := range program.Stmts {
		switch s := stmt.(type) {
		case *ast.FuncDecl:
			name := s.Name.Name
			if name != "" && !seen[name] {
				functions = append(functions, name)
				seen[name] = true
			}
		case *ast.Let:
			if _, ok := s.Value.(*ast.Closure); ok {
				name := s.Name.Name
				if name != "" && !seen[name] {
					functions = append(functions, name)
					seen[name] = true
				}
			}
		}
	}
	return functions
}
