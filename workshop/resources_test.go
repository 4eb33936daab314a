package workshop

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

func readResource(t *testing.T, s *server.MCPServer, uri string) mcp.JSONRPCMessage {
	t.Helper()
	message := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":%q}}`, uri)
	return s.HandleMessage(context.Background(), json.RawMessage(message))
}

func TestWelcomeResource(t *testing.T) {
	s := newTestServer(t)

	response := readResource(t, s, "starter://welcome")
	resp, ok := response.(mcp.JSONRPCResponse)
	require.True(t, ok)
	result := resp.Result.(mcp.ReadResourceResult)
	require.Len(t, result.Contents, 1)

	text, ok := mcp.AsTextResourceContents(result.Contents[0])
	require.True(t, ok)
	assert.Equal(t, "starter://welcome", text.URI)
	assert.Equal(t, "text/plain", text.MIMEType)
	assert.Contains(t, text.Text, "Welcome to the MCP starter server")
}

func TestGreetingResource(t *testing.T) {
	s := newTestServer(t)

	t.Run("matches the template", func(t *testing.T) {
		response := readResource(t, s, "greeting://Ada")
		resp, ok := response.(mcp.JSONRPCResponse)
		require.True(t, ok)
		result := resp.Result.(mcp.ReadResourceResult)
		require.Len(t, result.Contents, 1)

		text, ok := mcp.AsTextResourceContents(result.Contents[0])
		require.True(t, ok)
		assert.Equal(t, "greeting://Ada", text.URI)
		assert.Equal(t, "Hello, Ada! Welcome aboard.", text.Text)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		response := readResource(t, s, "missing://Ada")
		errResp, ok := response.(mcp.JSONRPCError)
		require.True(t, ok)
		assert.Equal(t, mcp.INVALID_PARAMS, errResp.Error.Code)
	})
}

func TestPrompts(t *testing.T) {
	s := newTestServer(t)

	t.Run("greet with default name", func(t *testing.T) {
		response := s.HandleMessage(context.Background(), json.RawMessage(
			`{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"greet"}}`))
		resp, ok := response.(mcp.JSONRPCResponse)
		require.True(t, ok)
		result := resp.Result.(*mcp.GetPromptResult)
		require.Len(t, result.Messages, 1)
		text, ok := mcp.ContentText(result.Messages[0].Content)
		require.True(t, ok)
		assert.Contains(t, text, "friend")
	})

	t.Run("code_review renders the code", func(t *testing.T) {
		response := s.HandleMessage(context.Background(), json.RawMessage(
			`{"jsonrpc":"2.0","id":2,"method":"prompts/get","params":{"name":"code_review","arguments":{"code":"func main() {}","language":"Go"}}}`))
		resp, ok := response.(mcp.JSONRPCResponse)
		require.True(t, ok)
		result := resp.Result.(*mcp.GetPromptResult)
		require.Len(t, result.Messages, 3)

		first, ok := mcp.ContentText(result.Messages[0].Content)
		require.True(t, ok)
		assert.Contains(t, first, "Go")

		second, ok := mcp.ContentText(result.Messages[1].Content)
		require.True(t, ok)
		assert.Equal(t, "func main() {}", second)

		assert.Equal(t, mcp.RoleAssistant, result.Messages[2].Role)
	})

	t.Run("code_review requires code", func(t *testing.T) {
		response := s.HandleMessage(context.Background(), json.RawMessage(
			`{"jsonrpc":"2.0","id":3,"method":"prompts/get","params":{"name":"code_review"}}`))
		errResp, ok := response.(mcp.JSONRPCError)
		require.True(t, ok)
		assert.Equal(t, mcp.INVALID_PARAMS, errResp.Error.Code)
	})
}
