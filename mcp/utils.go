package mcp

// Helper functions for constructing protocol values.

// NewJSONRPCResponse creates a new JSONRPCResponse with the given id and result.
func NewJSONRPCResponse(id RequestId, result interface{}) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: JSONRPC_VERSION,
		ID:      id,
		Result:  result,
	}
}

// NewJSONRPCError creates a new JSONRPCError with the given id, code and message.
func NewJSONRPCError(id RequestId, code int, message string) JSONRPCError {
	e := JSONRPCError{
		JSONRPC: JSONRPC_VERSION,
		ID:      id,
	}
	e.Error.Code = code
	e.Error.Message = message
	return e
}

// NewJSONRPCNotification creates a notification with the given method and params.
func NewJSONRPCNotification(method string, params interface{}) JSONRPCNotification {
	return JSONRPCNotification{
		JSONRPC: JSONRPC_VERSION,
		Method:  method,
		Params:  params,
	}
}

// NewTextContent creates a new TextContent.
func NewTextContent(text string) TextContent {
	return TextContent{
		Type: "text",
		Text: text,
	}
}

// NewImageContent creates a new ImageContent from base64 data.
func NewImageContent(data, mimeType string) ImageContent {
	return ImageContent{
		Type:     "image",
		Data:     data,
		MIMEType: mimeType,
	}
}

// NewToolResultText creates a CallToolResult with a single text content block.
func NewToolResultText(text string) *CallToolResult {
	return &CallToolResult{
		Content: []Content{NewTextContent(text)},
	}
}

// NewToolResultError creates a CallToolResult reporting a failed execution.
// The message is carried as text content so callers always get something
// human-readable.
func NewToolResultError(message string) *CallToolResult {
	return &CallToolResult{
		Content: []Content{NewTextContent(message)},
		IsError: true,
	}
}

// NewPromptMessage creates a new PromptMessage.
func NewPromptMessage(role Role, content Content) PromptMessage {
	return PromptMessage{
		Role:    role,
		Content: content,
	}
}

// AsTextContent attempts to cast the given content to TextContent.
func AsTextContent(content interface{}) (*TextContent, bool) {
	tc, ok := content.(TextContent)
	if !ok {
		return nil, false
	}
	return &tc, true
}

// ContentText extracts the text from a content value. It handles both typed
// TextContent values and the generic map shape produced by JSON decoding.
func ContentText(content Content) (string, bool) {
	switch v := content.(type) {
	case TextContent:
		return v.Text, true
	case *TextContent:
		return v.Text, true
	case map[string]interface{}:
		if v["type"] != "text" {
			return "", false
		}
		text, ok := v["text"].(string)
		return text, ok
	default:
		return "", false
	}
}

// AsTextResourceContents attempts to cast the given contents to TextResourceContents.
func AsTextResourceContents(content interface{}) (*TextResourceContents, bool) {
	trc, ok := content.(TextResourceContents)
	if !ok {
		return nil, false
	}
	return &trc, true
}

// ListChangedMethod returns the notification method announcing that the set
// of identifiers in a category has changed.
func ListChangedMethod(category Category) string {
	switch category {
	case CategoryTool:
		return MethodToolListChanged
	case CategoryResource:
		return MethodResourceListChanged
	case CategoryPrompt:
		return MethodPromptListChanged
	default:
		return ""
	}
}
