// Package prompt renders the engine's named prompt templates against a
// variable bundle, so a capability adapter only has to own transport and
// model-specific request shaping.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// Registry holds one parsed template per name. Templates are registered
// once at construction and never mutated afterward, so a Registry is safe
// for concurrent Render calls.
type Registry struct {
	templates map[string]*template.Template
}

// NewRegistry parses every entry in bodies (name -> text/template source)
// and returns a Registry, or the first parse error encountered.
func NewRegistry(bodies map[string]string) (*Registry, error) {
	r := &Registry{templates: make(map[string]*template.Template, len(bodies))}
	for name, body := range bodies {
		tpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("prompt: parse template %q: %w", name, err)
		}
		r.templates[name] = tpl
	}
	return r, nil
}

// Render executes the named template against vars and returns the result.
func (r *Registry) Render(name string, vars map[string]any) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt: unknown template %q", name)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("prompt: render template %q: %w", name, err)
	}
	return sb.String(), nil
}
