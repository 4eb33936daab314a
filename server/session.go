package server

import (
	"context"
	"encoding/json"

	"mcpstarter/mcp"
)

// ClientSession represents one connected caller. Transports create a session
// per connection and attach it to the request context so handlers can issue
// nested requests back to the caller.
type ClientSession interface {
	// SessionID uniquely identifies the connection.
	SessionID() string
	// Initialize records the capabilities the caller advertised.
	Initialize(caps mcp.ClientCapabilities)
	// ClientCapabilities returns the capabilities recorded at initialize.
	ClientCapabilities() mcp.ClientCapabilities
	// SendRequest issues a server-initiated request and blocks until the
	// caller responds or ctx is cancelled.
	SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
	// SendNotification delivers a one-way notification. Fire-and-forget:
	// a lost notification is an optimization miss, not a correctness issue.
	SendNotification(notification mcp.JSONRPCNotification) error
}

type sessionContextKey struct{}

// WithSession attaches a client session to a context.
func WithSession(ctx context.Context, session ClientSession) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the client session attached to the context, if any.
func SessionFromContext(ctx context.Context) ClientSession {
	session, _ := ctx.Value(sessionContextKey{}).(ClientSession)
	return session
}

// RequestElicitation suspends the current invocation and asks the caller for
// additional structured input. The caller's capability is checked first:
// a client that never advertised elicitation support is reported as
// unsupported rather than attempted-and-failed. Decline and cancel are valid
// terminal outcomes carried in the result, not errors.
func RequestElicitation(ctx context.Context, params mcp.ElicitParams) (*mcp.ElicitResult, error) {
	session := SessionFromContext(ctx)
	if session == nil {
		return nil, unsupportedError("elicitation")
	}
	if session.ClientCapabilities().Elicitation == nil {
		return nil, unsupportedError("elicitation")
	}

	raw, err := session.SendRequest(ctx, mcp.MethodElicitationCreate, params)
	if err != nil {
		return nil, classifyExecutionError(ctx, err)
	}

	var result mcp.ElicitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, internalError("malformed elicitation response: " + err.Error())
	}
	return &result, nil
}

// RequestSampling suspends the current invocation and delegates text
// generation to the caller's connected language model. Absence of the
// sampling capability is reported as unsupported.
func RequestSampling(ctx context.Context, params mcp.CreateMessageParams) (*mcp.CreateMessageResult, error) {
	session := SessionFromContext(ctx)
	if session == nil {
		return nil, unsupportedError("sampling")
	}
	if session.ClientCapabilities().Sampling == nil {
		return nil, unsupportedError("sampling")
	}

	raw, err := session.SendRequest(ctx, mcp.MethodSamplingCreate, params)
	if err != nil {
		return nil, classifyExecutionError(ctx, err)
	}

	var result mcp.CreateMessageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, internalError("malformed sampling response: " + err.Error())
	}
	return &result, nil
}
