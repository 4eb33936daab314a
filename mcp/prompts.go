package mcp

// Prompt is a parameterized template producing a structured message sequence.
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type PromptMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// PromptOption is a function that configures a Prompt.
type PromptOption func(*Prompt)

// ArgumentOption is a function that configures a PromptArgument.
type ArgumentOption func(*PromptArgument)

// NewPrompt creates a new Prompt with the given name and options.
func NewPrompt(name string, opts ...PromptOption) Prompt {
	prompt := Prompt{Name: name}

	for _, opt := range opts {
		opt(&prompt)
	}

	return prompt
}

// WithPromptDescription adds a description to the Prompt.
func WithPromptDescription(description string) PromptOption {
	return func(p *Prompt) {
		p.Description = description
	}
}

// WithPromptTitle adds a display-friendly title to the Prompt.
func WithPromptTitle(title string) PromptOption {
	return func(p *Prompt) {
		p.Title = title
	}
}

// WithArgument adds an argument to the prompt's argument list.
func WithArgument(name string, opts ...ArgumentOption) PromptOption {
	return func(p *Prompt) {
		arg := PromptArgument{Name: name}

		for _, opt := range opts {
			opt(&arg)
		}

		p.Arguments = append(p.Arguments, arg)
	}
}

// ArgumentDescription adds a description to a prompt argument.
func ArgumentDescription(desc string) ArgumentOption {
	return func(arg *PromptArgument) {
		arg.Description = desc
	}
}

// RequiredArgument marks an argument as required in the prompt.
func RequiredArgument() ArgumentOption {
	return func(arg *PromptArgument) {
		arg.Required = true
	}
}

// ParameterSpecs converts the prompt's arguments to the dispatcher's
// parameter declaration. Prompt arguments are always strings.
func (p Prompt) ParameterSpecs() []ParameterSpec {
	specs := make([]ParameterSpec, 0, len(p.Arguments))
	for _, arg := range p.Arguments {
		specs = append(specs, ParameterSpec{
			Name:        arg.Name,
			Type:        TypeString,
			Description: arg.Description,
			Required:    arg.Required,
		})
	}
	return specs
}
