package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"mcpstarter/mcp"
)

// MCPServer dispatches inbound protocol messages to the registry-backed
// handler groups. The wire framing and transport negotiation live in the
// transport layer (stdio or HTTP); this type only sees parsed messages.
type MCPServer struct {
	name         string
	version      string
	instructions string

	registry   *Registry
	dispatcher *Dispatcher
	logger     *log.Logger

	capabilities serverCapabilities

	sessionsMu sync.RWMutex
	sessions   map[string]ClientSession
}

type serverCapabilities struct {
	tools     *mcp.ToolCapabilities
	resources *mcp.ResourceCapabilities
	prompts   *mcp.PromptCapabilities
	logging   bool
}

// ServerOption configures an MCPServer.
type ServerOption func(*MCPServer)

// WithToolCapabilities advertises tool support.
func WithToolCapabilities(listChanged bool) ServerOption {
	return func(s *MCPServer) {
		s.capabilities.tools = &mcp.ToolCapabilities{ListChanged: listChanged}
	}
}

// WithResourceCapabilities advertises resource support.
func WithResourceCapabilities(subscribe, listChanged bool) ServerOption {
	return func(s *MCPServer) {
		s.capabilities.resources = &mcp.ResourceCapabilities{
			Subscribe:   subscribe,
			ListChanged: listChanged,
		}
	}
}

// WithPromptCapabilities advertises prompt support.
func WithPromptCapabilities(listChanged bool) ServerOption {
	return func(s *MCPServer) {
		s.capabilities.prompts = &mcp.PromptCapabilities{ListChanged: listChanged}
	}
}

// WithLogging advertises the logging capability.
func WithLogging() ServerOption {
	return func(s *MCPServer) {
		s.capabilities.logging = true
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) ServerOption {
	return func(s *MCPServer) {
		s.instructions = instructions
	}
}

// WithLogger sets the server's logger. Defaults to a discarding logger so
// stdio transports stay silent unless asked otherwise.
func WithLogger(logger *log.Logger) ServerOption {
	return func(s *MCPServer) {
		s.logger = logger
	}
}

// NewMCPServer creates a new MCP server with an empty registry.
func NewMCPServer(name, version string, opts ...ServerOption) *MCPServer {
	s := &MCPServer{
		name:     name,
		version:  version,
		registry: NewRegistry(),
		logger:   log.New(io.Discard),
		sessions: make(map[string]ClientSession),
	}
	s.dispatcher = NewDispatcher(s.registry)
	s.registry.OnListChanged(s.NotifyListChanged)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Registry exposes the server's handler registry.
func (s *MCPServer) Registry() *Registry {
	return s.registry
}

// AddTool registers a tool and its handler.
func (s *MCPServer) AddTool(tool mcp.Tool, handler HandlerFunc) error {
	return s.registry.Register(&Descriptor{
		Category:    mcp.CategoryTool,
		Identifier:  tool.Name,
		Title:       tool.Title,
		Description: tool.Description,
		Parameters:  tool.Parameters,
		Annotations: tool.Annotations,
		Handler:     handler,
	})
}

// AddResource registers a fixed-URI resource and its handler. Resource
// handlers always receive the concrete URI being read as the "uri" argument.
func (s *MCPServer) AddResource(resource mcp.Resource, handler HandlerFunc) error {
	return s.registry.Register(&Descriptor{
		Category:    mcp.CategoryResource,
		Identifier:  resource.URI,
		Title:       firstNonEmpty(resource.Title, resource.Name),
		Description: resource.Description,
		MIMEType:    resource.MIMEType,
		Parameters:  []mcp.ParameterSpec{uriParameter()},
		Handler:     handler,
	})
}

// AddResourceTemplate registers a templated resource and its handler. The
// template variables become required string parameters of the handler,
// alongside the concrete "uri" being read.
func (s *MCPServer) AddResourceTemplate(template mcp.ResourceTemplate, handler HandlerFunc) error {
	params := []mcp.ParameterSpec{uriParameter()}
	for _, name := range mcp.TemplateVariables(template.URITemplate) {
		params = append(params, mcp.ParameterSpec{
			Name:     name,
			Type:     mcp.TypeString,
			Required: true,
		})
	}
	return s.registry.Register(&Descriptor{
		Category:    mcp.CategoryResource,
		Identifier:  template.URITemplate,
		Title:       firstNonEmpty(template.Title, template.Name),
		Description: template.Description,
		MIMEType:    template.MIMEType,
		Parameters:  params,
		Handler:     handler,
	})
}

// AddPrompt registers a prompt and its handler.
func (s *MCPServer) AddPrompt(prompt mcp.Prompt, handler HandlerFunc) error {
	return s.registry.Register(&Descriptor{
		Category:    mcp.CategoryPrompt,
		Identifier:  prompt.Name,
		Title:       prompt.Title,
		Description: prompt.Description,
		Parameters:  prompt.ParameterSpecs(),
		Handler:     handler,
	})
}

// LoadDeferredTool late-binds a tool that was not available at startup. The
// first call registers it and notifies connected callers; subsequent calls
// are no-ops reporting that the tool is already loaded.
func (s *MCPServer) LoadDeferredTool(tool mcp.Tool, handler HandlerFunc) (bool, error) {
	return s.registry.LoadDeferred(&Descriptor{
		Category:    mcp.CategoryTool,
		Identifier:  tool.Name,
		Title:       tool.Title,
		Description: tool.Description,
		Parameters:  tool.Parameters,
		Annotations: tool.Annotations,
		Handler:     handler,
	})
}

// RegisterSession makes a connected caller visible to the notification
// emitter.
func (s *MCPServer) RegisterSession(session ClientSession) {
	s.sessionsMu.Lock()
	s.sessions[session.SessionID()] = session
	s.sessionsMu.Unlock()
}

// UnregisterSession removes a disconnected caller.
func (s *MCPServer) UnregisterSession(sessionID string) {
	s.sessionsMu.Lock()
	delete(s.sessions, sessionID)
	s.sessionsMu.Unlock()
}

// NotifyListChanged announces that a category's identifier set has grown.
// Fire-and-forget: delivery failures are logged and dropped, since callers
// can always re-list to observe the final state.
func (s *MCPServer) NotifyListChanged(category mcp.Category) {
	method := mcp.ListChangedMethod(category)
	if method == "" {
		return
	}
	notification := mcp.NewJSONRPCNotification(method, nil)

	s.sessionsMu.RLock()
	sessions := make([]ClientSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessionsMu.RUnlock()

	for _, session := range sessions {
		if err := session.SendNotification(notification); err != nil {
			s.logger.Debug("dropping list-changed notification", "session", session.SessionID(), "err", err)
		}
	}
}

// markStarted ends the static-registration phase; called by transports when
// they begin serving.
func (s *MCPServer) markStarted() {
	s.registry.MarkStarted()
}

// HandleMessage processes a single inbound JSON-RPC message and returns the
// response to write back, or nil for notifications.
func (s *MCPServer) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	var base struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		ID      interface{}     `json:"id,omitempty"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.Unmarshal(message, &base); err != nil {
		return mcp.NewJSONRPCError(nil, mcp.PARSE_ERROR, "failed to parse message")
	}
	if base.JSONRPC != mcp.JSONRPC_VERSION {
		return mcp.NewJSONRPCError(base.ID, mcp.INVALID_REQUEST, "invalid JSON-RPC version")
	}

	if base.ID == nil {
		s.handleNotification(ctx, base.Method)
		return nil
	}

	switch base.Method {
	case "initialize":
		return s.handleInitialize(ctx, base.ID, base.Params)
	case "ping":
		return mcp.NewJSONRPCResponse(base.ID, mcp.EmptyResult{})
	case "tools/list":
		return s.handleListTools(base.ID)
	case "tools/call":
		return s.handleToolCall(ctx, base.ID, base.Params)
	case "resources/list":
		return s.handleListResources(base.ID)
	case "resources/templates/list":
		return s.handleListResourceTemplates(base.ID)
	case "resources/read":
		return s.handleReadResource(ctx, base.ID, base.Params)
	case "prompts/list":
		return s.handleListPrompts(base.ID)
	case "prompts/get":
		return s.handleGetPrompt(ctx, base.ID, base.Params)
	default:
		return mcp.NewJSONRPCError(base.ID, mcp.METHOD_NOT_FOUND, fmt.Sprintf("method %s not found", base.Method))
	}
}

func (s *MCPServer) handleNotification(ctx context.Context, method string) {
	switch method {
	case mcp.MethodInitialized:
		s.logger.Debug("client initialized")
	default:
		s.logger.Debug("ignoring notification", "method", method)
	}
}

func (s *MCPServer) handleInitialize(ctx context.Context, id interface{}, rawParams json.RawMessage) mcp.JSONRPCMessage {
	var params mcp.InitializeParams
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return mcp.NewJSONRPCError(id, mcp.INVALID_REQUEST, "invalid initialize request")
		}
	}

	if session := SessionFromContext(ctx); session != nil {
		session.Initialize(params.Capabilities)
		s.RegisterSession(session)
	}

	capabilities := mcp.ServerCapabilities{
		Tools:     s.capabilities.tools,
		Resources: s.capabilities.resources,
		Prompts:   s.capabilities.prompts,
	}
	if s.capabilities.logging {
		capabilities.Logging = &mcp.LoggingCapability{}
	}

	s.logger.Info("client connected", "client", params.ClientInfo.Name, "version", params.ClientInfo.Version)

	return mcp.NewJSONRPCResponse(id, mcp.InitializeResult{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ServerInfo:      mcp.Implementation{Name: s.name, Version: s.version},
		Capabilities:    capabilities,
		Instructions:    s.instructions,
	})
}

func (s *MCPServer) handleListTools(id interface{}) mcp.JSONRPCMessage {
	descriptors := s.registry.List(mcp.CategoryTool)
	tools := make([]mcp.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		tools = append(tools, mcp.Tool{
			Name:        d.Identifier,
			Title:       d.Title,
			Description: d.Description,
			InputSchema: mcp.SchemaForParameters(d.Parameters),
			Annotations: d.Annotations,
		})
	}
	return mcp.NewJSONRPCResponse(id, mcp.ListToolsResult{Tools: tools})
}

func (s *MCPServer) handleToolCall(ctx context.Context, id interface{}, rawParams json.RawMessage) mcp.JSONRPCMessage {
	var params mcp.CallToolParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return mcp.NewJSONRPCError(id, mcp.INVALID_REQUEST, "invalid call tool request")
	}

	payload, err := s.dispatcher.Invoke(ctx, mcp.CategoryTool, params.Name, params.Arguments)
	if err != nil {
		switch KindOf(err) {
		case KindNotFound, KindInvalidArgument:
			// Rejected before execution began.
			return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, err.Error())
		default:
			// Execution faults become tool results so the caller always
			// gets a readable message instead of a dead request.
			return mcp.NewJSONRPCResponse(id, mcp.NewToolResultError(err.Error()))
		}
	}

	result, err := toolResultFromPayload(payload)
	if err != nil {
		return mcp.NewJSONRPCResponse(id, mcp.NewToolResultError(err.Error()))
	}
	return mcp.NewJSONRPCResponse(id, result)
}

func (s *MCPServer) handleListResources(id interface{}) mcp.JSONRPCMessage {
	descriptors := s.registry.List(mcp.CategoryResource)
	resources := make([]mcp.Resource, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsTemplate() {
			continue
		}
		resources = append(resources, mcp.Resource{
			URI:         d.Identifier,
			Name:        d.Title,
			Description: d.Description,
			MIMEType:    d.MIMEType,
		})
	}
	return mcp.NewJSONRPCResponse(id, mcp.ListResourcesResult{Resources: resources})
}

func (s *MCPServer) handleListResourceTemplates(id interface{}) mcp.JSONRPCMessage {
	descriptors := s.registry.List(mcp.CategoryResource)
	templates := make([]mcp.ResourceTemplate, 0)
	for _, d := range descriptors {
		if !d.IsTemplate() {
			continue
		}
		templates = append(templates, mcp.ResourceTemplate{
			URITemplate: d.Identifier,
			Name:        d.Title,
			Description: d.Description,
			MIMEType:    d.MIMEType,
		})
	}
	return mcp.NewJSONRPCResponse(id, mcp.ListResourceTemplatesResult{ResourceTemplates: templates})
}

func (s *MCPServer) handleReadResource(ctx context.Context, id interface{}, rawParams json.RawMessage) mcp.JSONRPCMessage {
	var params mcp.ReadResourceParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return mcp.NewJSONRPCError(id, mcp.INVALID_REQUEST, "invalid read resource request")
	}

	identifier, args := s.resolveResource(params.URI)
	if identifier == "" {
		return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, fmt.Sprintf("no resource registered for URI %q", params.URI))
	}

	payload, err := s.dispatcher.Invoke(ctx, mcp.CategoryResource, identifier, args)
	if err != nil {
		switch KindOf(err) {
		case KindNotFound, KindInvalidArgument:
			return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, err.Error())
		default:
			return mcp.NewJSONRPCError(id, mcp.INTERNAL_ERROR, err.Error())
		}
	}

	contents, err := resourceContentsFromPayload(params.URI, payload)
	if err != nil {
		return mcp.NewJSONRPCError(id, mcp.INTERNAL_ERROR, err.Error())
	}
	return mcp.NewJSONRPCResponse(id, mcp.ReadResourceResult{Contents: contents})
}

// resolveResource maps a concrete URI to a registered resource descriptor:
// exact match first, then templates in registration order.
func (s *MCPServer) resolveResource(uri string) (string, map[string]interface{}) {
	if _, err := s.registry.Lookup(mcp.CategoryResource, uri); err == nil {
		return uri, map[string]interface{}{"uri": uri}
	}

	for _, d := range s.registry.List(mcp.CategoryResource) {
		if !d.IsTemplate() {
			continue
		}
		values, ok := mcp.MatchURITemplate(d.Identifier, uri)
		if !ok {
			continue
		}
		args := map[string]interface{}{"uri": uri}
		for name, value := range values {
			args[name] = value
		}
		return d.Identifier, args
	}
	return "", nil
}

func (s *MCPServer) handleListPrompts(id interface{}) mcp.JSONRPCMessage {
	descriptors := s.registry.List(mcp.CategoryPrompt)
	prompts := make([]mcp.Prompt, 0, len(descriptors))
	for _, d := range descriptors {
		arguments := make([]mcp.PromptArgument, 0, len(d.Parameters))
		for _, p := range d.Parameters {
			arguments = append(arguments, mcp.PromptArgument{
				Name:        p.Name,
				Description: p.Description,
				Required:    p.Required,
			})
		}
		prompts = append(prompts, mcp.Prompt{
			Name:        d.Identifier,
			Title:       d.Title,
			Description: d.Description,
			Arguments:   arguments,
		})
	}
	return mcp.NewJSONRPCResponse(id, mcp.ListPromptsResult{Prompts: prompts})
}

func (s *MCPServer) handleGetPrompt(ctx context.Context, id interface{}, rawParams json.RawMessage) mcp.JSONRPCMessage {
	var params mcp.GetPromptParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return mcp.NewJSONRPCError(id, mcp.INVALID_REQUEST, "invalid get prompt request")
	}

	args := make(map[string]interface{}, len(params.Arguments))
	for name, value := range params.Arguments {
		args[name] = value
	}

	payload, err := s.dispatcher.Invoke(ctx, mcp.CategoryPrompt, params.Name, args)
	if err != nil {
		switch KindOf(err) {
		case KindNotFound, KindInvalidArgument:
			return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, err.Error())
		default:
			return mcp.NewJSONRPCError(id, mcp.INTERNAL_ERROR, err.Error())
		}
	}

	result, err := promptResultFromPayload(payload)
	if err != nil {
		return mcp.NewJSONRPCError(id, mcp.INTERNAL_ERROR, err.Error())
	}
	return mcp.NewJSONRPCResponse(id, result)
}

// Payload conversions. Handlers may return wire-shaped results directly or
// plain strings for the common text case.

func toolResultFromPayload(payload interface{}) (*mcp.CallToolResult, error) {
	switch v := payload.(type) {
	case *mcp.CallToolResult:
		return v, nil
	case mcp.CallToolResult:
		return &v, nil
	case string:
		return mcp.NewToolResultText(v), nil
	case nil:
		return mcp.NewToolResultText(""), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unsupported tool payload %T", payload)
		}
		result := mcp.NewToolResultText(string(data))
		result.StructuredContent = v
		return result, nil
	}
}

func resourceContentsFromPayload(uri string, payload interface{}) ([]mcp.ResourceContents, error) {
	switch v := payload.(type) {
	case []mcp.ResourceContents:
		return v, nil
	case mcp.TextResourceContents:
		return []mcp.ResourceContents{v}, nil
	case mcp.BlobResourceContents:
		return []mcp.ResourceContents{v}, nil
	case string:
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     v,
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported resource payload %T", payload)
	}
}

func promptResultFromPayload(payload interface{}) (*mcp.GetPromptResult, error) {
	switch v := payload.(type) {
	case *mcp.GetPromptResult:
		return v, nil
	case mcp.GetPromptResult:
		return &v, nil
	case string:
		return &mcp.GetPromptResult{
			Messages: []mcp.PromptMessage{mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(v))},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported prompt payload %T", payload)
	}
}

// uriParameter declares the concrete URI every resource handler receives.
func uriParameter() mcp.ParameterSpec {
	return mcp.ParameterSpec{
		Name:     "uri",
		Type:     mcp.TypeString,
		Required: true,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
