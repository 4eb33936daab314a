// Package client implements a minimal MCP client sufficient to exercise the
// server over a byte-stream transport: initialize, list and invoke handlers,
// observe list-changed notifications and answer server-initiated sampling
// and elicitation requests.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"mcpstarter/mcp"
)

// ElicitationHandler answers an elicitation request from the server.
type ElicitationHandler func(ctx context.Context, params mcp.ElicitParams) (*mcp.ElicitResult, error)

// SamplingHandler answers a sampling request from the server.
type SamplingHandler func(ctx context.Context, params mcp.CreateMessageParams) (*mcp.CreateMessageResult, error)

// NotificationHandler observes one-way notifications from the server.
type NotificationHandler func(method string)

// Client talks to an MCP server over newline-delimited JSON.
type Client struct {
	reader io.Reader
	writer io.Writer

	writeMu sync.Mutex
	nextID  atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan rpcOutcome

	elicitationHandler  ElicitationHandler
	samplingHandler     SamplingHandler
	notificationHandler NotificationHandler

	info       mcp.Implementation
	initResult *mcp.InitializeResult

	closed chan struct{}

	errMu   sync.Mutex
	readErr error
}

// setReadErr records the first transport error; later ones are dropped.
func (c *Client) setReadErr(err error) {
	if err == nil {
		return
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr == nil {
		c.readErr = err
	}
}

func (c *Client) getReadErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.readErr
}

type rpcOutcome struct {
	result json.RawMessage
	err    error
}

// Option configures a Client.
type Option func(*Client)

// WithClientInfo sets the implementation info sent at initialize.
func WithClientInfo(info mcp.Implementation) Option {
	return func(c *Client) {
		c.info = info
	}
}

// WithElicitationHandler installs an elicitation handler and advertises the
// elicitation capability.
func WithElicitationHandler(handler ElicitationHandler) Option {
	return func(c *Client) {
		c.elicitationHandler = handler
	}
}

// WithSamplingHandler installs a sampling handler and advertises the
// sampling capability.
func WithSamplingHandler(handler SamplingHandler) Option {
	return func(c *Client) {
		c.samplingHandler = handler
	}
}

// WithNotificationHandler observes server notifications.
func WithNotificationHandler(handler NotificationHandler) Option {
	return func(c *Client) {
		c.notificationHandler = handler
	}
}

// NewClient creates a client over the given byte streams.
func NewClient(reader io.Reader, writer io.Writer, opts ...Option) *Client {
	c := &Client{
		reader:  reader,
		writer:  writer,
		pending: make(map[int64]chan rpcOutcome),
		info:    mcp.Implementation{Name: "mcpstarter-client", Version: "0.1.0"},
		closed:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start launches the read loop. Must be called before Initialize.
func (c *Client) Start(ctx context.Context) {
	go c.readLoop(ctx)
}

// Initialize performs the initialize handshake, advertising capabilities for
// each installed handler.
func (c *Client) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	caps := mcp.ClientCapabilities{}
	if c.samplingHandler != nil {
		caps.Sampling = &mcp.SamplingCapability{}
	}
	if c.elicitationHandler != nil {
		caps.Elicitation = &mcp.ElicitationCapability{}
	}

	var result mcp.InitializeResult
	err := c.call(ctx, "initialize", mcp.InitializeParams{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ClientInfo:      c.info,
		Capabilities:    caps,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.initResult = &result

	if err := c.notify(mcp.MethodInitialized, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	var result mcp.EmptyResult
	return c.call(ctx, "ping", struct{}{}, &result)
}

// ListTools fetches the advertised tools.
func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	var result mcp.ListToolsResult
	if err := c.call(ctx, "tools/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallTool invokes a tool by name.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	var result mcp.CallToolResult
	err := c.call(ctx, "tools/call", mcp.CallToolParams{Name: name, Arguments: arguments}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources fetches the advertised fixed-URI resources.
func (c *Client) ListResources(ctx context.Context) (*mcp.ListResourcesResult, error) {
	var result mcp.ListResourcesResult
	if err := c.call(ctx, "resources/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResourceTemplates fetches the advertised resource templates.
func (c *Client) ListResourceTemplates(ctx context.Context) (*mcp.ListResourceTemplatesResult, error) {
	var result mcp.ListResourceTemplatesResult
	if err := c.call(ctx, "resources/templates/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReadResource reads a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	var result mcp.ReadResourceResult
	if err := c.call(ctx, "resources/read", mcp.ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts fetches the advertised prompts.
func (c *Client) ListPrompts(ctx context.Context) (*mcp.ListPromptsResult, error) {
	var result mcp.ListPromptsResult
	if err := c.call(ctx, "prompts/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt renders a prompt by name.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*mcp.GetPromptResult, error) {
	var result mcp.GetPromptResult
	err := c.call(ctx, "prompts/get", mcp.GetPromptParams{Name: name, Arguments: arguments}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RPCError is a JSON-RPC error returned by the server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	id := c.nextID.Add(1)
	ch := make(chan rpcOutcome, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.writeMessage(mcp.JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		if err := c.getReadErr(); err != nil {
			return err
		}
		return io.ErrClosedPipe
	case outcome := <-ch:
		if outcome.err != nil {
			return outcome.err
		}
		if out == nil {
			return nil
		}
		return json.Unmarshal(outcome.result, out)
	}
}

func (c *Client) notify(method string, params interface{}) error {
	return c.writeMessage(mcp.NewJSONRPCNotification(method, params))
}

func (c *Client) writeMessage(message mcp.JSONRPCMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = fmt.Fprintf(c.writer, "%s\n", data)
	return err
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.closed)

	scanner := bufio.NewScanner(c.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		var frame struct {
			ID     interface{}     `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			Result json.RawMessage `json:"result"`
			Error  *RPCError       `json:"error"`
		}
		if err := json.Unmarshal(line, &frame); err != nil {
			continue
		}

		switch {
		case frame.Method == "" && frame.ID != nil:
			c.deliverResponse(frame.ID, frame.Result, frame.Error)
		case frame.Method != "" && frame.ID != nil:
			c.handleServerRequest(ctx, frame.ID, frame.Method, frame.Params)
		case frame.Method != "":
			if c.notificationHandler != nil {
				c.notificationHandler(frame.Method)
			}
		}
	}
	c.setReadErr(scanner.Err())
}

func (c *Client) deliverResponse(rawID interface{}, result json.RawMessage, rpcErr *RPCError) {
	id, ok := rawID.(float64)
	if !ok {
		return
	}
	c.pendingMu.Lock()
	ch, ok := c.pending[int64(id)]
	c.pendingMu.Unlock()
	if !ok {
		return
	}
	if rpcErr != nil {
		ch <- rpcOutcome{err: rpcErr}
		return
	}
	ch <- rpcOutcome{result: result}
}

// handleServerRequest answers a server-initiated request using the installed
// handlers. Requests with no matching handler get a method-not-found error.
func (c *Client) handleServerRequest(ctx context.Context, id interface{}, method string, params json.RawMessage) {
	respond := func(result interface{}, err error) {
		if err != nil {
			c.writeError(id, mcp.INTERNAL_ERROR, err.Error())
			return
		}
		if writeErr := c.writeMessage(mcp.NewJSONRPCResponse(id, result)); writeErr != nil {
			c.setReadErr(writeErr)
		}
	}

	switch method {
	case mcp.MethodElicitationCreate:
		if c.elicitationHandler == nil {
			c.writeError(id, mcp.METHOD_NOT_FOUND, "elicitation not supported")
			return
		}
		var p mcp.ElicitParams
		if err := json.Unmarshal(params, &p); err != nil {
			c.writeError(id, mcp.INVALID_PARAMS, "invalid elicitation params")
			return
		}
		go func() {
			result, err := c.elicitationHandler(ctx, p)
			respond(result, err)
		}()

	case mcp.MethodSamplingCreate:
		if c.samplingHandler == nil {
			c.writeError(id, mcp.METHOD_NOT_FOUND, "sampling not supported")
			return
		}
		var p mcp.CreateMessageParams
		if err := json.Unmarshal(params, &p); err != nil {
			c.writeError(id, mcp.INVALID_PARAMS, "invalid sampling params")
			return
		}
		go func() {
			result, err := c.samplingHandler(ctx, p)
			respond(result, err)
		}()

	case "ping":
		respond(mcp.EmptyResult{}, nil)

	default:
		c.writeError(id, mcp.METHOD_NOT_FOUND, fmt.Sprintf("method %s not found", method))
	}
}

func (c *Client) writeError(id interface{}, code int, message string) {
	if err := c.writeMessage(mcp.NewJSONRPCError(id, code, message)); err != nil {
		c.setReadErr(err)
	}
}
