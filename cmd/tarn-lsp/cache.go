package main

import (
	"fmt"
	"sync"

	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"

	"github.com/tarn-lang/tarn/ast"
)

// document holds the cached state for one open file: the latest text, its
// parse result when parsing succeeded, and any parse or analysis failure.
type document struct {
	item protocol.TextDocumentItem
	prog *ast.Program
	err  error
}

type cache struct {
	mu   sync.Mutex
	docs map[protocol.DocumentURI]*document
}

func newCache() *cache {
	return &cache{docs: map[protocol.DocumentURI]*document{}}
}

func (c *cache) put(doc *document) error {
	if doc.item.URI == "" {
		return fmt.Errorf("document has no URI")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.item.URI] = doc
	return nil
}

func (c *cache) get(uri protocol.DocumentURI) (*document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[uri]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", uri)
	}
	return doc, nil
}

func (c *cache) drop(uri protocol.DocumentURI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, uri)
}
