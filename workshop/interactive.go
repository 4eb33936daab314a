package workshop

import (
	"context"
	"fmt"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

func (w *Workshop) registerInteractiveTools(s *server.MCPServer) error {
	if err := s.AddTool(mcp.NewTool("sample_llm",
		mcp.WithDescription("Asks the connected client's language model to complete a prompt."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Prompt to send to the model."),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Maximum number of tokens to generate."),
			mcp.DefaultNumber(100),
		),
	), w.handleSampleLLM); err != nil {
		return err
	}

	return s.AddTool(mcp.NewTool("confirm_action",
		mcp.WithDescription("Asks the user to confirm an action before proceeding."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Description of the action to confirm."),
		),
	), w.handleConfirmAction)
}

// handleSampleLLM delegates text generation to the caller. A client without
// the sampling capability gets a readable refusal, not a dead request.
func (w *Workshop) handleSampleLLM(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	prompt := args["prompt"].(string)
	maxTokens := int(args["max_tokens"].(float64))

	result, err := server.RequestSampling(ctx, mcp.CreateMessageParams{
		Messages: []mcp.SamplingMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(prompt)},
		},
		SystemPrompt: "You are a helpful assistant.",
		MaxTokens:    maxTokens,
	})
	if err != nil {
		if server.KindOf(err) == server.KindUnsupported {
			return "The connected client does not support LLM sampling.", nil
		}
		return nil, err
	}

	text, ok := mcp.ContentText(result.Content)
	if !ok {
		return "The model returned a non-text completion.", nil
	}
	return fmt.Sprintf("LLM response: %s", text), nil
}

// handleConfirmAction suspends on an elicitation round-trip and reports one
// of four outcomes: confirmed, answered-no, declined and cancelled all read
// differently.
func (w *Workshop) handleConfirmAction(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	action := args["action"].(string)

	result, err := server.RequestElicitation(ctx, mcp.ElicitParams{
		Message: fmt.Sprintf("Are you sure you want to %s?", action),
		RequestedSchema: mcp.SchemaForParameters([]mcp.ParameterSpec{
			{
				Name:        "confirm",
				Type:        mcp.TypeBoolean,
				Description: "Whether to proceed with the action.",
				Required:    true,
			},
		}),
	})
	if err != nil {
		if server.KindOf(err) == server.KindUnsupported {
			return "The connected client does not support elicitation.", nil
		}
		return nil, err
	}

	switch result.Action {
	case mcp.ElicitActionAccept:
		if confirmed, _ := result.Content["confirm"].(bool); confirmed {
			return fmt.Sprintf("Action confirmed: %s.", action), nil
		}
		return fmt.Sprintf("Action declined by user: %s.", action), nil
	case mcp.ElicitActionDecline:
		return fmt.Sprintf("User dismissed the confirmation request for: %s.", action), nil
	case mcp.ElicitActionCancel:
		return fmt.Sprintf("Confirmation request cancelled for: %s.", action), nil
	default:
		return nil, fmt.Errorf("unexpected elicitation action %q", result.Action)
	}
}
