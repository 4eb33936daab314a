package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mcpstarter/mcp"
)

// HandlerFunc executes a registered unit. It receives arguments that have
// already been validated and defaulted against the descriptor's parameter
// declaration. The payload type depends on the category: tools return a
// *mcp.CallToolResult (or a plain string), resources return
// []mcp.ResourceContents (or a plain string), prompts return a
// *mcp.GetPromptResult.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Descriptor binds an identifier to an invocable unit and its declared
// metadata. Descriptors are immutable once registered; re-registration under
// the same (category, identifier) is rejected.
type Descriptor struct {
	Category    mcp.Category
	Identifier  string
	Title       string
	Description string
	MIMEType    string
	Parameters  []mcp.ParameterSpec
	Annotations *mcp.ToolAnnotations
	Handler     HandlerFunc
}

// IsTemplate reports whether a resource descriptor is addressed by a URI
// template rather than a literal URI.
func (d *Descriptor) IsTemplate() bool {
	return d.Category == mcp.CategoryResource && len(mcp.TemplateVariables(d.Identifier)) > 0
}

func (d *Descriptor) validate() error {
	if d.Identifier == "" {
		return invalidArgumentError("identifier", "non-empty string", "descriptor has no identifier")
	}
	if d.Handler == nil {
		return invalidArgumentError("handler", "func", fmt.Sprintf("descriptor %q has no handler", d.Identifier))
	}
	switch d.Category {
	case mcp.CategoryTool, mcp.CategoryResource, mcp.CategoryPrompt:
	default:
		return invalidArgumentError("category", "tool|resource|prompt", fmt.Sprintf("unknown category %q", d.Category))
	}
	for _, p := range d.Parameters {
		if p.Required && p.Default != nil {
			return invalidArgumentError(p.Name, string(p.Type), "required parameter must not declare a default")
		}
		if p.Default != nil {
			if _, err := coerceValue(p, p.Default); err != nil {
				return invalidArgumentError(p.Name, string(p.Type), fmt.Sprintf("default value %v does not satisfy the declared type", p.Default))
			}
		}
	}
	return nil
}

type registryKey struct {
	category   mcp.Category
	identifier string
}

// Registry owns the mapping from (category, identifier) to descriptor. It is
// populated at startup from static declarations and may grow, never shrink,
// at runtime. Reads are safe under a concurrent Register.
type Registry struct {
	mu      sync.RWMutex
	entries map[registryKey]*Descriptor
	order   map[mcp.Category][]string
	started bool

	// onListChanged is invoked, outside the lock, whenever a descriptor is
	// registered after startup.
	onListChanged func(mcp.Category)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[registryKey]*Descriptor),
		order:   make(map[mcp.Category][]string),
	}
}

// OnListChanged sets the change-notification emitter. Must be set before the
// registry is shared across goroutines.
func (r *Registry) OnListChanged(fn func(mcp.Category)) {
	r.onListChanged = fn
}

// MarkStarted ends the static-registration phase. Every Register after this
// point triggers a list-changed notification for the descriptor's category.
func (r *Registry) MarkStarted() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

// Register inserts a descriptor. It fails with a duplicate-identifier error
// when the (category, identifier) pair is already present.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	key := registryKey{d.Category, d.Identifier}

	r.mu.Lock()
	if _, exists := r.entries[key]; exists {
		r.mu.Unlock()
		return duplicateError(d.Category, d.Identifier)
	}
	r.entries[key] = d
	r.order[d.Category] = append(r.order[d.Category], d.Identifier)
	notify := r.started
	r.mu.Unlock()

	if notify && r.onListChanged != nil {
		r.onListChanged(d.Category)
	}
	return nil
}

// LoadDeferred registers a descriptor that was not available at startup. The
// first call registers it and emits a change notification; every subsequent
// call for the same (category, identifier) is a no-op reporting that the
// descriptor is already loaded.
func (r *Registry) LoadDeferred(d *Descriptor) (bool, error) {
	r.mu.RLock()
	_, exists := r.entries[registryKey{d.Category, d.Identifier}]
	r.mu.RUnlock()
	if exists {
		return false, nil
	}

	err := r.Register(d)
	if err != nil {
		var e *Error
		// Lost a race with a concurrent load of the same descriptor.
		if errors.As(err, &e) && e.Kind == KindDuplicateIdentifier {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Lookup returns the descriptor registered under (category, identifier).
func (r *Registry) Lookup(category mcp.Category, identifier string) (*Descriptor, error) {
	r.mu.RLock()
	d, ok := r.entries[registryKey{category, identifier}]
	r.mu.RUnlock()
	if !ok {
		return nil, notFoundError(category, identifier)
	}
	return d, nil
}

// List returns all descriptors in a category in registration order. Ordering
// is stable for display but carries no semantic weight.
func (r *Registry) List(category mcp.Category) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identifiers := r.order[category]
	out := make([]*Descriptor, 0, len(identifiers))
	for _, id := range identifiers {
		out = append(out, r.entries[registryKey{category, id}])
	}
	return out
}

// Len reports the number of descriptors in a category.
func (r *Registry) Len(category mcp.Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order[category])
}
