package mcp

import "github.com/google/jsonschema-go/jsonschema"

// ElicitAction is the terminal outcome of an elicitation round-trip. All
// three actions are valid outcomes, not errors.
type ElicitAction string

const (
	ElicitActionAccept  ElicitAction = "accept"
	ElicitActionDecline ElicitAction = "decline"
	ElicitActionCancel  ElicitAction = "cancel"
)

// ElicitParams asks the calling side for additional structured input while
// an invocation is suspended. The requested schema describes a flat object
// of primitive properties.
type ElicitParams struct {
	Message         string             `json:"message"`
	RequestedSchema *jsonschema.Schema `json:"requestedSchema,omitempty"`
}

// ElicitResult is the caller's answer. Content is only present when the
// action is "accept".
type ElicitResult struct {
	Action  ElicitAction           `json:"action"`
	Content map[string]interface{} `json:"content,omitempty"`
}

// SamplingMessage is a single message in a sampling conversation.
type SamplingMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// CreateMessageParams delegates text generation to the calling side's
// connected language model.
type CreateMessageParams struct {
	Messages     []SamplingMessage `json:"messages"`
	SystemPrompt string            `json:"systemPrompt,omitempty"`
	MaxTokens    int               `json:"maxTokens,omitempty"`
	Temperature  float64           `json:"temperature,omitempty"`
}

// CreateMessageResult is the generated completion.
type CreateMessageResult struct {
	Role       Role    `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model,omitempty"`
	StopReason string  `json:"stopReason,omitempty"`
}
