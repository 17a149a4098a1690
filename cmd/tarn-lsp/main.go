package main

import (
	"context"
	"os"

	"github.com/jdbaldry/go-language-server-protocol/jsonrpc2"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	serverName    = "tarn-lsp"
	serverVersion = "0.1.0"
)

// stdio adapts the process stdin/stdout pair to the single stream the
// JSON-RPC connection reads from and writes to. Logging must go to stderr
// since stdout carries the protocol.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return os.Stdin.Close() }

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()

	ctx := context.Background()
	conn := jsonrpc2.NewConn(jsonrpc2.NewHeaderStream(stdio{}))

	server := &Server{
		name:    serverName,
		version: serverVersion,
		cache:   newCache(),
		client:  protocol.ClientDispatcher(conn),
	}
	conn.Go(ctx, server.handler())
	log.Info().Str("name", serverName).Str("version", serverVersion).
		Msg("language server started")

	<-conn.Done()
	if err := conn.Err(); err != nil {
		log.Error().Err(err).Msg("connection terminated")
		os.Exit(1)
	}
}
