package workshop

import (
	"context"
	"fmt"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

func (w *Workshop) registerPrompts(s *server.MCPServer) error {
	if err := s.AddPrompt(mcp.NewPrompt("greet",
		mcp.WithPromptDescription("A friendly greeting prompt."),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Name of the person to greet."),
		),
	), handleGreetPrompt); err != nil {
		return err
	}

	return s.AddPrompt(mcp.NewPrompt("code_review",
		mcp.WithPromptDescription("Asks the model to review a piece of code."),
		mcp.WithArgument("code",
			mcp.ArgumentDescription("The code to review."),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("language",
			mcp.ArgumentDescription("Language the code is written in."),
		),
	), handleCodeReviewPrompt)
}

func handleGreetPrompt(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name, _ := args["name"].(string)
	if name == "" {
		name = "friend"
	}
	return &mcp.GetPromptResult{
		Description: "A friendly greeting",
		Messages: []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
				fmt.Sprintf("Please greet %s warmly and ask how their day is going.", name))),
		},
	}, nil
}

func handleCodeReviewPrompt(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	code := args["code"].(string)
	language, _ := args["language"].(string)
	if language == "" {
		language = "the most likely language"
	}

	return &mcp.GetPromptResult{
		Description: "Code review request",
		Messages: []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
				fmt.Sprintf("Please review the following code, treating it as %s.", language))),
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(code)),
			mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(
				"I'll review the code for correctness, clarity and idiomatic style.")),
		},
	}, nil
}
