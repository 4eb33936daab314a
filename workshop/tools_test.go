package workshop

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

func newTestServer(t *testing.T, opts ...Option) *server.MCPServer {
	t.Helper()
	s := server.NewMCPServer("workshop-test", "0.0.1",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
	)
	opts = append([]Option{
		WithStepDelay(time.Millisecond),
		WithRandSource(rand.NewSource(1)),
	}, opts...)
	require.NoError(t, New(opts...).Register(s))
	return s
}

func callToolRaw(t *testing.T, s *server.MCPServer, ctx context.Context, name string, args map[string]interface{}) mcp.JSONRPCMessage {
	t.Helper()
	params, err := json.Marshal(mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	message := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":%s}`, params)
	return s.HandleMessage(ctx, json.RawMessage(message))
}

func callTool(t *testing.T, s *server.MCPServer, ctx context.Context, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	response := callToolRaw(t, s, ctx, name, args)
	resp, ok := response.(mcp.JSONRPCResponse)
	require.True(t, ok, "expected a response, got %T", response)
	result, ok := resp.Result.(*mcp.CallToolResult)
	require.True(t, ok)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.ContentText(result.Content[0])
	require.True(t, ok)
	return text
}

func TestGreet(t *testing.T) {
	s := newTestServer(t)
	result := callTool(t, s, context.Background(), "greet", map[string]interface{}{"name": "Gopher"})
	assert.False(t, result.IsError)
	assert.Equal(t, "Hello, Gopher!", resultText(t, result))
}

func TestGetWeather(t *testing.T) {
	s := newTestServer(t)
	result := callTool(t, s, context.Background(), "get_weather", map[string]interface{}{"city": "Reykjavik"})
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "The weather in Reykjavik is")
	assert.Contains(t, text, "°C")
}

func TestGetWeather_ConcurrentCalls(t *testing.T) {
	s := newTestServer(t)

	const calls = 16
	responses := make(chan mcp.JSONRPCMessage, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			message := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_weather","arguments":{"city":"Oslo"}}}`
			responses <- s.HandleMessage(context.Background(), json.RawMessage(message))
		}()
	}
	wg.Wait()
	close(responses)

	for response := range responses {
		resp, ok := response.(mcp.JSONRPCResponse)
		require.True(t, ok, "expected a response, got %T", response)
		result, ok := resp.Result.(*mcp.CallToolResult)
		require.True(t, ok)
		assert.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "The weather in Oslo is")
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		a, b      float64
		operation string
		want      string
	}{
		{"addition", 2, 3, "add", "2 add 3 = 5"},
		{"subtraction", 10, 4, "subtract", "10 subtract 4 = 6"},
		{"multiplication", 6, 7, "multiply", "6 multiply 7 = 42"},
		{"division", 6, 3, "divide", "6 divide 3 = 2"},
		{"division by zero yields NaN", 6, 0, "divide", "6 divide 0 = NaN"},
		{"negative operands", -4, 2, "multiply", "-4 multiply 2 = -8"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, context.Background(), "calculate", map[string]interface{}{
				"a":         tt.a,
				"b":         tt.b,
				"operation": tt.operation,
			})
			assert.False(t, result.IsError)
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}
}

func TestCalculate_RejectsUnknownOperation(t *testing.T) {
	s := newTestServer(t)
	response := callToolRaw(t, s, context.Background(), "calculate", map[string]interface{}{
		"a": 1.0, "b": 2.0, "operation": "modulo",
	})
	errResp, ok := response.(mcp.JSONRPCError)
	require.True(t, ok)
	assert.Equal(t, mcp.INVALID_PARAMS, errResp.Error.Code)
}

func TestLongTask(t *testing.T) {
	s := newTestServer(t)

	t.Run("completes and names the task", func(t *testing.T) {
		result := callTool(t, s, context.Background(), "long_task", map[string]interface{}{
			"steps": 5,
			"task":  "reindex",
		})
		assert.False(t, result.IsError)
		assert.Equal(t, `Task "reindex" completed after 5 steps.`, resultText(t, result))
	})

	t.Run("default task name", func(t *testing.T) {
		result := callTool(t, s, context.Background(), "long_task", map[string]interface{}{"steps": 1})
		assert.Contains(t, resultText(t, result), `Task "long task"`)
	})

	t.Run("bounds", func(t *testing.T) {
		for _, steps := range []float64{0, 101, -3, 2.5} {
			response := callToolRaw(t, s, context.Background(), "long_task", map[string]interface{}{"steps": steps})
			errResp, ok := response.(mcp.JSONRPCError)
			require.True(t, ok, "steps=%v should be rejected", steps)
			assert.Equal(t, mcp.INVALID_PARAMS, errResp.Error.Code)
			assert.Contains(t, errResp.Error.Message, "steps")
		}
	})
}

func TestLongTask_Cancellation(t *testing.T) {
	s := newTestServer(t, WithStepDelay(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := callTool(t, s, ctx, "long_task", map[string]interface{}{"steps": 100})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "cancelled")
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation must abort promptly")
}

func TestToolsAdvertised(t *testing.T) {
	s := newTestServer(t)
	response := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	resp, ok := response.(mcp.JSONRPCResponse)
	require.True(t, ok)
	result, ok := resp.Result.(mcp.ListToolsResult)
	require.True(t, ok)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		"greet", "get_weather", "calculate", "long_task",
		"sample_llm", "confirm_action", "load_bonus_tool",
	}, names)
	assert.NotContains(t, names, "bonus_joke")
}
