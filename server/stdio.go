package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"mcpstarter/mcp"
)

// StdioServer serves a MCPServer over newline-delimited JSON on a byte
// stream, one connection per process. Requests are handled concurrently;
// responses to server-initiated requests are routed back by id.
type StdioServer struct {
	server *MCPServer
	logger *log.Logger
}

// NewStdioServer creates a new stdio transport around an MCPServer.
func NewStdioServer(server *MCPServer) *StdioServer {
	return &StdioServer{
		server: server,
		logger: log.New(io.Discard),
	}
}

// SetLogger configures where transport-level events are logged. The logger
// must never write to the protocol stream.
func (s *StdioServer) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// stdioSession is the single connection a stdio server talks to.
type stdioSession struct {
	id      string
	writeMu sync.Mutex
	writer  io.Writer

	capsMu sync.RWMutex
	caps   mcp.ClientCapabilities

	nextRequestID atomic.Int64
	pending       sync.Map // request id (string) -> chan pendingResponse
}

// pendingResponse carries the caller's answer to a server-initiated request.
type pendingResponse struct {
	result json.RawMessage
	err    error
}

func newStdioSession(writer io.Writer) *stdioSession {
	return &stdioSession{
		id:     uuid.New().String(),
		writer: writer,
	}
}

func (s *stdioSession) SessionID() string {
	return s.id
}

func (s *stdioSession) Initialize(caps mcp.ClientCapabilities) {
	s.capsMu.Lock()
	s.caps = caps
	s.capsMu.Unlock()
}

func (s *stdioSession) ClientCapabilities() mcp.ClientCapabilities {
	s.capsMu.RLock()
	defer s.capsMu.RUnlock()
	return s.caps
}

func (s *stdioSession) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request params: %w", err)
	}

	id := fmt.Sprintf("srv-%d", s.nextRequestID.Add(1))
	ch := make(chan pendingResponse, 1)
	s.pending.Store(id, ch)
	defer s.pending.Delete(id)

	if err := s.writeMessage(mcp.JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	}); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-ch:
		return resp.result, resp.err
	}
}

func (s *stdioSession) SendNotification(notification mcp.JSONRPCNotification) error {
	return s.writeMessage(notification)
}

// deliverResponse routes a response from the caller to the in-flight
// server-initiated request that is waiting for it.
func (s *stdioSession) deliverResponse(id string, resp pendingResponse) bool {
	chI, ok := s.pending.Load(id)
	if !ok {
		return false
	}
	chI.(chan pendingResponse) <- resp
	return true
}

func (s *stdioSession) writeMessage(message mcp.JSONRPCMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = fmt.Fprintf(s.writer, "%s\n", data)
	return err
}

// Listen reads messages from stdin and writes responses to stdout until the
// context is cancelled or the input stream closes. Each request is handled
// in its own goroutine so a suspended invocation never blocks the routing of
// nested-request responses.
func (s *StdioServer) Listen(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	session := newStdioSession(stdout)
	defer s.server.UnregisterSession(session.SessionID())

	ctx = WithSession(ctx, session)
	s.server.markStarted()

	reader := bufio.NewReader(stdin)
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err == io.EOF {
				return nil
			}
			return err
		case line := <-lines:
			s.dispatchLine(ctx, session, line, &wg)
		}
	}
}

func (s *StdioServer) dispatchLine(ctx context.Context, session *stdioSession, line string, wg *sync.WaitGroup) {
	var frame struct {
		ID     interface{}     `json:"id"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &frame); err != nil {
		if writeErr := session.writeMessage(mcp.NewJSONRPCError(nil, mcp.PARSE_ERROR, "parse error")); writeErr != nil {
			s.logger.Error("failed to write parse error", "err", writeErr)
		}
		return
	}

	// A message with an id and no method is the caller answering a
	// server-initiated request.
	if frame.Method == "" && frame.ID != nil {
		id := fmt.Sprintf("%v", frame.ID)
		if !session.deliverResponse(id, pendingFromWire(frame.Result, frame.Error)) {
			s.logger.Warn("response for unknown request", "id", id)
		}
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		response := s.server.HandleMessage(ctx, json.RawMessage(line))
		if response == nil {
			return
		}
		if err := session.writeMessage(response); err != nil {
			s.logger.Error("failed to write response", "err", err)
		}
	}()
}

// pendingFromWire converts the raw result/error halves of a decoded
// response message into a pendingResponse.
func pendingFromWire(result, rawErr json.RawMessage) pendingResponse {
	if rawErr != nil {
		var e struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(rawErr, &e); err == nil && e.Message != "" {
			return pendingResponse{err: fmt.Errorf("caller error %d: %s", e.Code, e.Message)}
		}
		return pendingResponse{err: fmt.Errorf("caller error: %s", rawErr)}
	}
	return pendingResponse{result: result}
}

// ServeStdio serves the MCPServer on os.Stdin/os.Stdout until SIGTERM or
// SIGINT.
func ServeStdio(server *MCPServer) error {
	s := NewStdioServer(server)
	s.SetLogger(log.New(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	err := s.Listen(ctx, os.Stdin, os.Stdout)
	if err == context.Canceled {
		return nil
	}
	return err
}
