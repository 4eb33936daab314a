// Package mcptest implements helper functions for testing MCP servers. It
// wires an MCPServer to an in-process client over pipes, using the same
// line-oriented framing the stdio transport speaks in production.
package mcptest

import (
	"context"
	"io"
	"sync"
	"testing"

	"mcpstarter/client"
	"mcpstarter/server"
)

// Server runs an MCPServer and a connected client inside the test process.
type Server struct {
	client *client.Client

	ctx    context.Context
	cancel func()

	serverReader *io.PipeReader
	serverWriter *io.PipeWriter
	clientReader *io.PipeReader
	clientWriter *io.PipeWriter

	wg sync.WaitGroup
}

// NewServer starts the given MCPServer over an in-process pipe transport and
// returns a harness whose client has already completed the initialize
// handshake. Client options configure sampling/elicitation/notification
// handlers before the handshake, so the advertised capabilities match.
func NewServer(t *testing.T, mcpServer *server.MCPServer, clientOpts ...client.Option) *Server {
	t.Helper()

	s := &Server{}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.serverReader, s.clientWriter = io.Pipe()
	s.clientReader, s.serverWriter = io.Pipe()

	stdio := server.NewStdioServer(mcpServer)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = stdio.Listen(s.ctx, s.serverReader, s.serverWriter)
	}()

	s.client = client.NewClient(s.clientReader, s.clientWriter, clientOpts...)
	s.client.Start(s.ctx)

	if _, err := s.client.Initialize(s.ctx); err != nil {
		s.Close()
		t.Fatalf("initialize: %v", err)
	}

	return s
}

// Client returns the connected client.
func (s *Server) Client() *client.Client {
	return s.client
}

// Context returns the harness context; it is cancelled by Close.
func (s *Server) Context() context.Context {
	return s.ctx
}

// Close stops the server and tears down the pipes.
func (s *Server) Close() {
	s.cancel()
	s.serverReader.Close()
	s.serverWriter.Close()
	s.clientReader.Close()
	s.clientWriter.Close()
	s.wg.Wait()
}
