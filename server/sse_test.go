package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpstarter/mcp"
)

type sseClient struct {
	t        *testing.T
	ts       *httptest.Server
	endpoint string
	events   chan string
}

// connectSSE opens the event stream and returns a client whose events
// channel yields the data field of each message event.
func connectSSE(t *testing.T, ts *httptest.Server) *sseClient {
	t.Helper()

	resp, err := http.Get(ts.URL + "/sse")
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	c := &sseClient{t: t, ts: ts, events: make(chan string, 16)}

	endpointCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data := strings.TrimPrefix(line, "data: ")
				if event == "endpoint" {
					endpointCh <- data
				} else {
					c.events <- data
				}
			}
		}
	}()

	select {
	case c.endpoint = <-endpointCh:
	case <-time.After(2 * time.Second):
		t.Fatal("no endpoint event received")
	}
	return c
}

func (c *sseClient) post(message string) *http.Response {
	c.t.Helper()
	resp, err := http.Post(c.endpoint, "application/json", bytes.NewBufferString(message))
	require.NoError(c.t, err)
	resp.Body.Close()
	return resp
}

func (c *sseClient) nextEvent() map[string]interface{} {
	c.t.Helper()
	select {
	case data := <-c.events:
		var decoded map[string]interface{}
		require.NoError(c.t, json.Unmarshal([]byte(data), &decoded))
		return decoded
	case <-time.After(2 * time.Second):
		c.t.Fatal("no event received")
		return nil
	}
}

func TestSSEServer_RequestResponse(t *testing.T) {
	mcpServer := NewMCPServer("test-server", "1.0.0", WithToolCapabilities(true))
	require.NoError(t, mcpServer.AddTool(mcp.NewTool("greet",
		mcp.WithString("name", mcp.Required()),
	), func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return "Hello, " + args["name"].(string) + "!", nil
	}))

	sse, ts := NewTestServer(mcpServer)
	defer ts.Close()
	defer sse.Shutdown(context.Background())

	client := connectSSE(t, ts)

	resp := client.post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"test","version":"1"}}}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	event := client.nextEvent()
	assert.Equal(t, float64(1), event["id"])
	result := event["result"].(map[string]interface{})
	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "test-server", serverInfo["name"])

	client.post(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet","arguments":{"name":"web"}}}`)
	event = client.nextEvent()
	assert.Equal(t, float64(2), event["id"])
	content := event["result"].(map[string]interface{})["content"].([]interface{})
	assert.Equal(t, "Hello, web!", content[0].(map[string]interface{})["text"])
}

func TestSSEServer_UnknownSession(t *testing.T) {
	mcpServer := NewMCPServer("test-server", "1.0.0")
	sse, ts := NewTestServer(mcpServer)
	defer ts.Close()
	defer sse.Shutdown(context.Background())

	resp, err := http.Post(ts.URL+"/message?sessionId=nope", "application/json",
		bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSSEServer_MissingSessionID(t *testing.T) {
	mcpServer := NewMCPServer("test-server", "1.0.0")
	sse, ts := NewTestServer(mcpServer)
	defer ts.Close()
	defer sse.Shutdown(context.Background())

	resp, err := http.Post(ts.URL+"/message", "application/json",
		bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSSEServer_ListChangedOverStream(t *testing.T) {
	mcpServer := NewMCPServer("test-server", "1.0.0", WithToolCapabilities(true))
	sse, ts := NewTestServer(mcpServer)
	defer ts.Close()
	defer sse.Shutdown(context.Background())

	client := connectSSE(t, ts)
	client.post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"clientInfo":{"name":"test","version":"1"}}}`)
	client.nextEvent()

	_, err := mcpServer.LoadDeferredTool(mcp.NewTool("bonus"), func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	event := client.nextEvent()
	assert.Equal(t, mcp.MethodToolListChanged, event["method"])
}
