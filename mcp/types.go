package mcp

import "encoding/json"

const (
	JSONRPC_VERSION         = "2.0"
	LATEST_PROTOCOL_VERSION = "2025-06-18"
)

// Standard JSON-RPC error codes
const (
	PARSE_ERROR      = -32700
	INVALID_REQUEST  = -32600
	METHOD_NOT_FOUND = -32601
	INVALID_PARAMS   = -32602
	INTERNAL_ERROR   = -32603
)

// Category identifies which registry a handler belongs to. An identifier is
// only unique within its category.
type Category string

const (
	CategoryTool     Category = "tool"
	CategoryResource Category = "resource"
	CategoryPrompt   Category = "prompt"
)

// Notification methods emitted by the server when a registry grows after
// startup.
const (
	MethodToolListChanged     = "notifications/tools/list_changed"
	MethodResourceListChanged = "notifications/resources/list_changed"
	MethodPromptListChanged   = "notifications/prompts/list_changed"
	MethodInitialized         = "notifications/initialized"
)

// Server-initiated request methods.
const (
	MethodElicitationCreate = "elicitation/create"
	MethodSamplingCreate    = "sampling/createMessage"
)

// RequestId is a JSON-RPC request identifier. It can be a string or a number.
type RequestId interface{}

// JSONRPCMessage is any message that can travel over a transport.
type JSONRPCMessage interface{}

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestId       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      RequestId   `json:"id"`
	Result  interface{} `json:"result"`
}

type JSONRPCError struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      RequestId `json:"id"`
	Error   struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data,omitempty"`
	} `json:"error"`
}

// Implementation describes the name and version of an MCP implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities represents capabilities a client may support. A nil
// pointer means the capability is not advertised; advertised capabilities
// marshal as an (often empty) object, never get dropped by omitempty.
type ClientCapabilities struct {
	Experimental map[string]map[string]interface{} `json:"experimental,omitempty"`
	Roots        *RootCapabilities                 `json:"roots,omitempty"`
	Sampling     *SamplingCapability               `json:"sampling,omitempty"`
	Elicitation  *ElicitationCapability            `json:"elicitation,omitempty"`
}

type RootCapabilities struct {
	ListChanged bool `json:"listChanged"`
}

// SamplingCapability marks support for sampling/createMessage requests.
type SamplingCapability struct{}

// ElicitationCapability marks support for elicitation/create requests.
type ElicitationCapability struct{}

// LoggingCapability marks support for log message notifications.
type LoggingCapability struct{}

// ServerCapabilities represents capabilities that a server may support.
type ServerCapabilities struct {
	Experimental map[string]map[string]interface{} `json:"experimental,omitempty"`
	Logging      *LoggingCapability                `json:"logging,omitempty"`
	Prompts      *PromptCapabilities               `json:"prompts,omitempty"`
	Resources    *ResourceCapabilities             `json:"resources,omitempty"`
	Tools        *ToolCapabilities                 `json:"tools,omitempty"`
}

type PromptCapabilities struct {
	ListChanged bool `json:"listChanged"`
}

type ResourceCapabilities struct {
	Subscribe   bool `json:"subscribe"`
	ListChanged bool `json:"listChanged"`
}

type ToolCapabilities struct {
	ListChanged bool `json:"listChanged"`
}

type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      Implementation     `json:"clientInfo"`
	Capabilities    ClientCapabilities `json:"capabilities"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	Instructions    string             `json:"instructions,omitempty"`
}

type EmptyResult struct{}

// Role represents the sender or recipient of messages in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content can be TextContent, ImageContent or EmbeddedResource.
type Content interface{}

type TextContent struct {
	Type string `json:"type"` // Always "text"
	Text string `json:"text"`
}

type ImageContent struct {
	Type     string `json:"type"` // Always "image"
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type EmbeddedResource struct {
	Type     string           `json:"type"` // Always "resource"
	Resource ResourceContents `json:"resource"`
}

// List and call payloads

type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type CallToolResult struct {
	Content           []Content   `json:"content"`
	StructuredContent interface{} `json:"structuredContent,omitempty"`
	IsError           bool        `json:"isError,omitempty"`
}

type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string             `json:"nextCursor,omitempty"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}
