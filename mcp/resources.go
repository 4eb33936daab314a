package mcp

import "strings"

// Resource is a read-only, URI-addressed data source.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate describes a family of resources addressed by a URI
// template, e.g. "greeting://{name}".
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// ResourceContents can be TextResourceContents or BlobResourceContents.
type ResourceContents interface{}

type TextResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

type BlobResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Blob     string `json:"blob"`
}

// ResourceOption is a function that configures a Resource.
type ResourceOption func(*Resource)

// NewResource creates a new Resource with the given URI, name and options.
func NewResource(uri, name string, opts ...ResourceOption) Resource {
	resource := Resource{URI: uri, Name: name}

	for _, opt := range opts {
		opt(&resource)
	}

	return resource
}

// WithResourceDescription adds a description to the Resource.
func WithResourceDescription(description string) ResourceOption {
	return func(r *Resource) {
		r.Description = description
	}
}

// WithMIMEType sets the MIME type of the Resource.
func WithMIMEType(mimeType string) ResourceOption {
	return func(r *Resource) {
		r.MIMEType = mimeType
	}
}

// TemplateOption is a function that configures a ResourceTemplate.
type TemplateOption func(*ResourceTemplate)

// NewResourceTemplate creates a new ResourceTemplate with the given URI
// template, name and options.
func NewResourceTemplate(uriTemplate, name string, opts ...TemplateOption) ResourceTemplate {
	template := ResourceTemplate{URITemplate: uriTemplate, Name: name}

	for _, opt := range opts {
		opt(&template)
	}

	return template
}

// WithTemplateDescription adds a description to the ResourceTemplate.
func WithTemplateDescription(description string) TemplateOption {
	return func(t *ResourceTemplate) {
		t.Description = description
	}
}

// WithTemplateMIMEType sets the MIME type of the ResourceTemplate.
func WithTemplateMIMEType(mimeType string) TemplateOption {
	return func(t *ResourceTemplate) {
		t.MIMEType = mimeType
	}
}

// TemplateVariables returns the variable names declared in a URI template,
// in order of appearance.
func TemplateVariables(uriTemplate string) []string {
	var vars []string
	rest := uriTemplate
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return vars
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			return vars
		}
		vars = append(vars, rest[open+1:open+close])
		rest = rest[open+close+1:]
	}
}

// MatchURITemplate matches a concrete URI against a URI template and returns
// the extracted variable values. Variable values never span a '/' separator.
func MatchURITemplate(uriTemplate, uri string) (map[string]string, bool) {
	values := make(map[string]string)
	tmpl, rest := uriTemplate, uri

	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			if tmpl == rest {
				return values, true
			}
			return nil, false
		}

		// Literal prefix before the variable must match exactly.
		if !strings.HasPrefix(rest, tmpl[:open]) {
			return nil, false
		}
		rest = rest[open:]

		close := strings.IndexByte(tmpl[open:], '}')
		if close < 0 {
			return nil, false
		}
		name := tmpl[open+1 : open+close]
		tmpl = tmpl[open+close+1:]

		// The variable value runs until the next literal character in the
		// template, or the end of the URI.
		end := len(rest)
		if tmpl != "" {
			next := tmpl
			if i := strings.IndexByte(next, '{'); i >= 0 {
				next = next[:i]
			}
			if next != "" {
				i := strings.Index(rest, next)
				if i < 0 {
					return nil, false
				}
				end = i
			}
		}
		value := rest[:end]
		if value == "" || strings.ContainsRune(value, '/') {
			return nil, false
		}
		values[name] = value
		rest = rest[end:]
	}
}
