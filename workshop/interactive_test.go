package workshop

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

// stubSession is a caller with scripted answers to server-initiated requests.
type stubSession struct {
	caps          mcp.ClientCapabilities
	respond       func(method string, params interface{}) (json.RawMessage, error)
	notifications []string
}

func (s *stubSession) SessionID() string                          { return "stub" }
func (s *stubSession) Initialize(caps mcp.ClientCapabilities)     { s.caps = caps }
func (s *stubSession) ClientCapabilities() mcp.ClientCapabilities { return s.caps }

func (s *stubSession) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return s.respond(method, params)
}

func (s *stubSession) SendNotification(notification mcp.JSONRPCNotification) error {
	s.notifications = append(s.notifications, notification.Method)
	return nil
}

func elicitingSession(raw string) *stubSession {
	return &stubSession{
		caps: mcp.ClientCapabilities{Elicitation: &mcp.ElicitationCapability{}},
		respond: func(method string, params interface{}) (json.RawMessage, error) {
			return json.RawMessage(raw), nil
		},
	}
}

func TestConfirmAction_FourOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "accepted and confirmed",
			response: `{"action":"accept","content":{"confirm":true}}`,
			want:     "Action confirmed: delete the archive.",
		},
		{
			name:     "accepted without confirmation",
			response: `{"action":"accept","content":{"confirm":false}}`,
			want:     "Action declined by user: delete the archive.",
		},
		{
			name:     "declined",
			response: `{"action":"decline"}`,
			want:     "User dismissed the confirmation request for: delete the archive.",
		},
		{
			name:     "cancelled",
			response: `{"action":"cancel"}`,
			want:     "Confirmation request cancelled for: delete the archive.",
		},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := server.WithSession(context.Background(), elicitingSession(tt.response))
			result := callTool(t, s, ctx, "confirm_action", map[string]interface{}{
				"action": "delete the archive",
			})
			assert.False(t, result.IsError)
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}
}

func TestConfirmAction_SendsSchema(t *testing.T) {
	var captured mcp.ElicitParams
	session := &stubSession{
		caps: mcp.ClientCapabilities{Elicitation: &mcp.ElicitationCapability{}},
		respond: func(method string, params interface{}) (json.RawMessage, error) {
			require.Equal(t, mcp.MethodElicitationCreate, method)
			captured = params.(mcp.ElicitParams)
			return json.RawMessage(`{"action":"decline"}`), nil
		},
	}

	s := newTestServer(t)
	ctx := server.WithSession(context.Background(), session)
	callTool(t, s, ctx, "confirm_action", map[string]interface{}{"action": "reboot"})

	assert.Equal(t, "Are you sure you want to reboot?", captured.Message)
	require.NotNil(t, captured.RequestedSchema)
	require.Contains(t, captured.RequestedSchema.Properties, "confirm")
	assert.Equal(t, "boolean", captured.RequestedSchema.Properties["confirm"].Type)
	assert.Equal(t, []string{"confirm"}, captured.RequestedSchema.Required)
}

func TestConfirmAction_WithoutCapability(t *testing.T) {
	s := newTestServer(t)
	ctx := server.WithSession(context.Background(), &stubSession{})

	result := callTool(t, s, ctx, "confirm_action", map[string]interface{}{"action": "reboot"})
	assert.False(t, result.IsError)
	assert.Equal(t, "The connected client does not support elicitation.", resultText(t, result))
}

func TestSampleLLM(t *testing.T) {
	t.Run("returns the completion", func(t *testing.T) {
		session := &stubSession{
			caps: mcp.ClientCapabilities{Sampling: &mcp.SamplingCapability{}},
			respond: func(method string, params interface{}) (json.RawMessage, error) {
				require.Equal(t, mcp.MethodSamplingCreate, method)
				p := params.(mcp.CreateMessageParams)
				assert.Equal(t, 100, p.MaxTokens)
				require.Len(t, p.Messages, 1)
				return json.RawMessage(`{"role":"assistant","content":{"type":"text","text":"four"},"model":"test"}`), nil
			},
		}

		s := newTestServer(t)
		ctx := server.WithSession(context.Background(), session)
		result := callTool(t, s, ctx, "sample_llm", map[string]interface{}{"prompt": "what is 2+2"})
		assert.False(t, result.IsError)
		assert.Equal(t, "LLM response: four", resultText(t, result))
	})

	t.Run("without capability", func(t *testing.T) {
		s := newTestServer(t)
		ctx := server.WithSession(context.Background(), &stubSession{})
		result := callTool(t, s, ctx, "sample_llm", map[string]interface{}{"prompt": "hi"})
		assert.False(t, result.IsError)
		assert.Equal(t, "The connected client does not support LLM sampling.", resultText(t, result))
	})

	t.Run("without session", func(t *testing.T) {
		s := newTestServer(t)
		result := callTool(t, s, context.Background(), "sample_llm", map[string]interface{}{"prompt": "hi"})
		assert.False(t, result.IsError)
		assert.Equal(t, "The connected client does not support LLM sampling.", resultText(t, result))
	})
}
