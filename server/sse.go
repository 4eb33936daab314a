package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"mcpstarter/mcp"
)

// SSEServer serves a MCPServer over HTTP: clients open a server-sent event
// stream on /sse and post messages to /message. Server-initiated requests
// and list-changed notifications travel down the event stream.
type SSEServer struct {
	server   *MCPServer
	logger   *log.Logger
	baseURL  string
	sessions sync.Map
	srv      *http.Server
}

type sseSession struct {
	id        string
	writeMu   sync.Mutex
	writer    http.ResponseWriter
	flusher   http.Flusher
	done      chan struct{}
	closeOnce sync.Once

	capsMu sync.RWMutex
	caps   mcp.ClientCapabilities

	nextRequestID atomic.Int64
	pending       sync.Map // request id (string) -> chan pendingResponse
}

func (s *sseSession) SessionID() string {
	return s.id
}

func (s *sseSession) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *sseSession) Initialize(caps mcp.ClientCapabilities) {
	s.capsMu.Lock()
	s.caps = caps
	s.capsMu.Unlock()
}

func (s *sseSession) ClientCapabilities() mcp.ClientCapabilities {
	s.capsMu.RLock()
	defer s.capsMu.RUnlock()
	return s.caps
}

func (s *sseSession) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request params: %w", err)
	}

	id := fmt.Sprintf("srv-%d", s.nextRequestID.Add(1))
	ch := make(chan pendingResponse, 1)
	s.pending.Store(id, ch)
	defer s.pending.Delete(id)

	if err := s.writeEvent(mcp.JSONRPCRequest{
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
	case <-s.done:
		return nil, fmt.Errorf("session closed")
	case resp := <-ch:
		return resp.result, resp.err
	}
}

func (s *sseSession) SendNotification(notification mcp.JSONRPCNotification) error {
	return s.writeEvent(notification)
}

func (s *sseSession) deliverResponse(id string, resp pendingResponse) bool {
	chI, ok := s.pending.Load(id)
	if !ok {
		return false
	}
	chI.(chan pendingResponse) <- resp
	return true
}

func (s *sseSession) writeEvent(message mcp.JSONRPCMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return fmt.Errorf("session closed")
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "event: message\ndata: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// NewSSEServer creates an HTTP transport around an MCPServer. baseURL is the
// externally visible address used in the endpoint event.
func NewSSEServer(server *MCPServer, baseURL string) *SSEServer {
	return &SSEServer{
		server:  server,
		logger:  log.New(io.Discard),
		baseURL: baseURL,
	}
}

// SetLogger configures transport-level logging.
func (s *SSEServer) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// NewTestServer creates an SSEServer bound to an httptest.Server. The caller
// is responsible for closing the test server.
func NewTestServer(server *MCPServer) (*SSEServer, *httptest.Server) {
	sseServer := NewSSEServer(server, "")
	testServer := httptest.NewServer(sseServer.handler())
	sseServer.baseURL = testServer.URL
	return sseServer, testServer
}

func (s *SSEServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/message", s.handleMessage)
	return mux
}

// Start begins listening on addr and blocks until Shutdown.
func (s *SSEServer) Start(addr string) error {
	s.server.markStarted()
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.handler(),
	}
	return s.srv.ListenAndServe()
}

// Shutdown closes all sessions and stops the HTTP listener.
func (s *SSEServer) Shutdown(ctx context.Context) error {
	s.sessions.Range(func(key, value interface{}) bool {
		if session, ok := value.(*sseSession); ok {
			session.close()
			s.server.UnregisterSession(session.id)
		}
		s.sessions.Delete(key)
		return true
	})
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *SSEServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s.server.markStarted()

	session := &sseSession{
		id:      uuid.New().String(),
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
	s.sessions.Store(session.id, session)
	s.logger.Info("client connected", "session", session.id)

	defer func() {
		s.sessions.Delete(session.id)
		s.server.UnregisterSession(session.id)
		s.logger.Info("client disconnected", "session", session.id)
	}()

	endpoint := fmt.Sprintf("%s/message?sessionId=%s", s.baseURL, session.id)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	select {
	case <-r.Context().Done():
		session.close()
	case <-session.done:
	}
}

func (s *SSEServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONRPCError(w, nil, mcp.INVALID_REQUEST, "method not allowed")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		s.writeJSONRPCError(w, nil, mcp.INVALID_PARAMS, "missing sessionId")
		return
	}
	sessionI, ok := s.sessions.Load(sessionID)
	if !ok {
		s.writeJSONRPCError(w, nil, mcp.INVALID_PARAMS, "invalid session ID")
		return
	}
	session := sessionI.(*sseSession)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeJSONRPCError(w, nil, mcp.PARSE_ERROR, "parse error")
		return
	}

	var frame struct {
		ID     interface{}     `json:"id"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.writeJSONRPCError(w, nil, mcp.PARSE_ERROR, "parse error")
		return
	}

	// Responses to server-initiated requests are routed to the waiting
	// invocation instead of the dispatcher.
	if frame.Method == "" && frame.ID != nil {
		id := fmt.Sprintf("%v", frame.ID)
		if !session.deliverResponse(id, pendingFromWire(frame.Result, frame.Error)) {
			s.logger.Warn("response for unknown request", "id", id)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// Handle the request in the background and deliver the response over
	// the event stream, so long-running invocations do not pin the POST.
	// Closing the event stream cancels everything still in flight.
	go func() {
		ctx, cancel := context.WithCancel(WithSession(context.Background(), session))
		defer cancel()
		go func() {
			select {
			case <-session.done:
				cancel()
			case <-ctx.Done():
			}
		}()
		response := s.server.HandleMessage(ctx, raw)
		if response == nil {
			return
		}
		if err := session.writeEvent(response); err != nil {
			s.logger.Error("failed to write response", "session", session.id, "err", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (s *SSEServer) writeJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(mcp.NewJSONRPCError(id, code, message)); err != nil {
		s.logger.Error("failed to encode error response", "err", err)
	}
}
