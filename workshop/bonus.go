package workshop

import (
	"context"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

// registerLoaderTool adds the tool that late-binds the bonus tool. The bonus
// tool itself is absent from the registry until the loader runs.
func (w *Workshop) registerLoaderTool(s *server.MCPServer) error {
	return s.AddTool(mcp.NewTool("load_bonus_tool",
		mcp.WithDescription("Loads the bonus tool. Safe to call more than once."),
		mcp.WithAnnotations(mcp.ToolAnnotations{IdempotentHint: true}),
	), func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return w.LoadBonusTool(s)
	})
}

// LoadBonusTool registers the bonus tool if it is not loaded yet. The first
// call registers it and connected callers receive a tools list-changed
// notification; later calls report that it is already loaded.
func (w *Workshop) LoadBonusTool(s *server.MCPServer) (string, error) {
	loaded, err := s.LoadDeferredTool(mcp.NewTool("bonus_joke",
		mcp.WithDescription("Tells a programming joke."),
		mcp.WithAnnotations(mcp.ToolAnnotations{ReadOnlyHint: true}),
	), w.handleBonusJoke)
	if err != nil {
		return "", err
	}
	if !loaded {
		return "Bonus tool is already loaded.", nil
	}
	return "Bonus tool loaded! Refresh your tools list to see it.", nil
}

var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"There are only two hard things in computer science: cache invalidation, naming things, and off-by-one errors.",
	"A SQL query walks into a bar, walks up to two tables and asks: may I join you?",
}

func (w *Workshop) handleBonusJoke(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return jokes[w.intn(len(jokes))], nil
}
