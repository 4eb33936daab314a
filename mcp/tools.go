package mcp

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// ParameterType is the semantic type of a declared parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeObject  ParameterType = "object"
)

// ParameterSpec declares a single named parameter of a handler's input shape.
// Required parameters must not carry a default.
type ParameterSpec struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool
	Default     interface{}
	Enum        []string
}

// ToolAnnotations carries behavioral hints about a tool. They are advisory
// metadata, not enforced by the dispatcher.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint bool   `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool   `json:"openWorldHint,omitempty"`
}

// Tool is the advertised metadata of an invocable unit. InputSchema is
// derived from Parameters at construction time; Parameters keeps the ordered
// declaration the dispatcher validates against.
type Tool struct {
	Name        string             `json:"name"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
	Annotations *ToolAnnotations   `json:"annotations,omitempty"`

	Parameters []ParameterSpec `json:"-"`
}

// ToolOption is a function that configures a Tool.
type ToolOption func(*Tool)

// PropertyOption is a function that configures a ParameterSpec.
type PropertyOption func(*ParameterSpec)

// NewTool creates a new Tool with the given name and options, deriving the
// JSON schema from the declared parameters.
func NewTool(name string, opts ...ToolOption) Tool {
	tool := Tool{Name: name}

	for _, opt := range opts {
		opt(&tool)
	}

	tool.InputSchema = SchemaForParameters(tool.Parameters)
	return tool
}

// WithDescription adds a description to the Tool.
func WithDescription(description string) ToolOption {
	return func(t *Tool) {
		t.Description = description
	}
}

// WithTitle adds a display-friendly title to the Tool.
func WithTitle(title string) ToolOption {
	return func(t *Tool) {
		t.Title = title
	}
}

// WithAnnotations attaches behavioral hints to the Tool.
func WithAnnotations(annotations ToolAnnotations) ToolOption {
	return func(t *Tool) {
		t.Annotations = &annotations
	}
}

// WithString adds a string parameter to the tool's input shape.
func WithString(name string, opts ...PropertyOption) ToolOption {
	return addParameter(name, TypeString, opts)
}

// WithNumber adds a number parameter to the tool's input shape.
func WithNumber(name string, opts ...PropertyOption) ToolOption {
	return addParameter(name, TypeNumber, opts)
}

// WithBoolean adds a boolean parameter to the tool's input shape.
func WithBoolean(name string, opts ...PropertyOption) ToolOption {
	return addParameter(name, TypeBoolean, opts)
}

// WithObject adds an object parameter to the tool's input shape.
func WithObject(name string, opts ...PropertyOption) ToolOption {
	return addParameter(name, TypeObject, opts)
}

func addParameter(name string, typ ParameterType, opts []PropertyOption) ToolOption {
	return func(t *Tool) {
		param := ParameterSpec{Name: name, Type: typ}
		for _, opt := range opts {
			opt(&param)
		}
		t.Parameters = append(t.Parameters, param)
	}
}

// Description adds a description to a parameter.
func Description(desc string) PropertyOption {
	return func(p *ParameterSpec) {
		p.Description = desc
	}
}

// Required marks a parameter as required.
func Required() PropertyOption {
	return func(p *ParameterSpec) {
		p.Required = true
	}
}

// DefaultString sets the default value for a string parameter.
func DefaultString(value string) PropertyOption {
	return func(p *ParameterSpec) {
		p.Default = value
	}
}

// DefaultNumber sets the default value for a number parameter.
func DefaultNumber(value float64) PropertyOption {
	return func(p *ParameterSpec) {
		p.Default = value
	}
}

// DefaultBool sets the default value for a boolean parameter.
func DefaultBool(value bool) PropertyOption {
	return func(p *ParameterSpec) {
		p.Default = value
	}
}

// Enum restricts a string parameter to a fixed set of values.
func Enum(values ...string) PropertyOption {
	return func(p *ParameterSpec) {
		p.Enum = values
	}
}

// SchemaForParameters builds the advertised JSON schema for an ordered
// parameter declaration. The result is always an object schema.
func SchemaForParameters(params []ParameterSpec) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(params)),
	}

	for _, p := range params {
		prop := &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		}
		for _, v := range p.Enum {
			prop.Enum = append(prop.Enum, v)
		}
		if p.Default != nil {
			if raw, err := json.Marshal(p.Default); err == nil {
				prop.Default = json.RawMessage(raw)
			}
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	return schema
}
