package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jdbaldry/go-language-server-protocol/jsonrpc2"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/rs/zerolog/log"

	"github.com/tarn-lang/tarn"
	"github.com/tarn-lang/tarn/errz"
)

type Server struct {
	name    string
	version string
	cache   *cache
	client  protocol.Client
}

// handler dispatches incoming JSON-RPC requests by method name. Methods the
// server does not implement are answered with a method-not-found error so
// editors degrade gracefully.
func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case "initialize":
			var params protocol.ParamInitialize
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, s.initialize(&params), nil)
		case "initialized":
			return reply(ctx, nil, nil)
		case "shutdown":
			return reply(ctx, nil, nil)
		case "exit":
			return reply(ctx, nil, nil)
		case "textDocument/didOpen":
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidOpen(ctx, &params))
		case "textDocument/didChange":
			var params protocol.DidChangeTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidChange(ctx, &params))
		case "textDocument/didSave":
			var params protocol.DidSaveTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidSave(ctx, &params))
		case "textDocument/didClose":
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, nil, s.DidClose(ctx, &params))
		case "textDocument/completion":
			var params protocol.CompletionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Completion(ctx, &params)
			return reply(ctx, result, err)
		case "textDocument/hover":
			var params protocol.HoverParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Hover(ctx, &params)
			return reply(ctx, result, err)
		default:
			return reply(ctx, nil, fmt.Errorf("%w: %q", jsonrpc2.ErrMethodNotFound, req.Method()))
		}
	}
}

func (s *Server) initialize(params *protocol.ParamInitialize) *protocol.InitializeResult {
	log.Info().Str("root", string(params.RootURI)).Msg("initialize")
	result := &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Full,
				Save:      protocol.SaveOptions{IncludeText: true},
			},
			CompletionProvider: protocol.CompletionOptions{
				TriggerCharacters: []string{"."},
			},
			HoverProvider: true,
		},
	}
	result.ServerInfo.Name = s.name
	result.ServerInfo.Version = s.version
	return result
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return s.refresh(ctx, params.TextDocument)
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change carries the complete document text.
	item := protocol.TextDocumentItem{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Text:    params.ContentChanges[len(params.ContentChanges)-1].Text,
	}
	return s.refresh(ctx, item)
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	text := ""
	if params.Text != nil {
		text = *params.Text
	} else if doc, err := s.cache.get(params.TextDocument.URI); err == nil {
		text = doc.item.Text
	}
	item := protocol.TextDocumentItem{
		URI:  params.TextDocument.URI,
		Text: text,
	}
	return s.refresh(ctx, item)
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cache.drop(params.TextDocument.URI)
	s.publishDiagnostics(ctx, params.TextDocument.URI, nil)
	return nil
}

// refresh reparses and reanalyzes a document, updates the cache, and
// publishes the resulting diagnostics.
func (s *Server) refresh(ctx context.Context, item protocol.TextDocumentItem) error {
	doc := &document{item: item}
	doc.prog, doc.err = tarn.Parse(ctx, item.Text)
	if doc.err == nil {
		_, doc.err = tarn.Check(ctx, item.Text)
	}
	if err := s.cache.put(doc); err != nil {
		return err
	}
	s.publishDiagnostics(ctx, item.URI, doc.err)
	return nil
}

func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, err error) {
	if s.client == nil {
		return
	}
	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toDiagnostics(err),
	}
	if perr := s.client.PublishDiagnostics(ctx, params); perr != nil {
		log.Error().Err(perr).Str("uri", string(uri)).Msg("failed to publish diagnostics")
	}
}

func toDiagnostics(err error) []protocol.Diagnostic {
	if err == nil {
		return []protocol.Diagnostic{}
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]protocol.Diagnostic, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, toDiagnostic(e))
		}
		return out
	}
	return []protocol.Diagnostic{toDiagnostic(err)}
}

func toDiagnostic(err error) protocol.Diagnostic {
	diag := protocol.Diagnostic{
		Severity: protocol.SeverityError,
		Source:   "tarn",
		Message:  err.Error(),
	}
	var e *errz.Error
	if errors.As(err, &e) {
		diag.Message = fmt.Sprintf("%s: %s", e.Kind, e.Message)
		if e.Location.Line > 0 {
			line := uint32(e.Location.Line - 1)
			var col uint32
			if e.Location.Column > 0 {
				col = uint32(e.Location.Column - 1)
			}
			diag.Range = protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1},
			}
		}
	}
	return diag
}
