package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTool(t *testing.T) {
	tool := NewTool("calculate",
		WithDescription("Performs arithmetic."),
		WithTitle("Calculator"),
		WithNumber("a", Required(), Description("First operand.")),
		WithNumber("b", Required()),
		WithString("operation", Required(), Enum("add", "subtract")),
		WithNumber("precision", DefaultNumber(2)),
		WithAnnotations(ToolAnnotations{ReadOnlyHint: true}),
	)

	assert.Equal(t, "calculate", tool.Name)
	assert.Equal(t, "Calculator", tool.Title)
	require.Len(t, tool.Parameters, 4)
	assert.Equal(t, "a", tool.Parameters[0].Name)
	assert.True(t, tool.Parameters[0].Required)
	require.NotNil(t, tool.Annotations)
	assert.True(t, tool.Annotations.ReadOnlyHint)

	schema := tool.InputSchema
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"a", "b", "operation"}, schema.Required)
	require.Contains(t, schema.Properties, "operation")
	assert.Len(t, schema.Properties["operation"].Enum, 2)
	require.Contains(t, schema.Properties, "precision")
	assert.Equal(t, json.RawMessage("2"), json.RawMessage(schema.Properties["precision"].Default))
}

func TestToolSchemaSerialization(t *testing.T) {
	tool := NewTool("greet", WithString("name", Required()))

	data, err := json.Marshal(tool)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "greet", decoded["name"])

	schema := decoded["inputSchema"].(map[string]interface{})
	assert.Equal(t, "object", schema["type"])
	// The ordered parameter declaration stays server-side.
	_, leaked := decoded["Parameters"]
	assert.False(t, leaked)
}

func TestContentText(t *testing.T) {
	text, ok := ContentText(NewTextContent("hi"))
	require.True(t, ok)
	assert.Equal(t, "hi", text)

	text, ok = ContentText(map[string]interface{}{"type": "text", "text": "decoded"})
	require.True(t, ok)
	assert.Equal(t, "decoded", text)

	_, ok = ContentText(map[string]interface{}{"type": "image", "data": "..."})
	assert.False(t, ok)

	_, ok = ContentText(42)
	assert.False(t, ok)
}
