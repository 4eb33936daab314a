package workshop

import (
	"context"
	"fmt"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

const welcomeText = `Welcome to the MCP starter server!

Try the tools (greet, get_weather, calculate, long_task), read the
greeting://{name} resource, or load the bonus tool with load_bonus_tool.`

func (w *Workshop) registerResources(s *server.MCPServer) error {
	if err := s.AddResource(mcp.NewResource(
		"starter://welcome",
		"Welcome",
		mcp.WithResourceDescription("A short introduction to this server."),
		mcp.WithMIMEType("text/plain"),
	), handleWelcome); err != nil {
		return err
	}

	return s.AddResourceTemplate(mcp.NewResourceTemplate(
		"greeting://{name}",
		"Personal greeting",
		mcp.WithTemplateDescription("A greeting addressed to the named person."),
		mcp.WithTemplateMIMEType("text/plain"),
	), handleGreeting)
}

func handleWelcome(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return mcp.TextResourceContents{
		URI:      args["uri"].(string),
		MIMEType: "text/plain",
		Text:     welcomeText,
	}, nil
}

func handleGreeting(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name := args["name"].(string)
	return mcp.TextResourceContents{
		URI:      args["uri"].(string),
		MIMEType: "text/plain",
		Text:     fmt.Sprintf("Hello, %s! Welcome aboard.", name),
	}, nil
}
